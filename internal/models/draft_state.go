package models

import "time"

// DraftState is the persisted snapshot of one renter's workflow: the step
// the renter is on plus the draft collected so far. Owned by exactly one
// workflow instance; discarded on submission or abandonment.
type DraftState struct {
	RenterID  int64        `json:"renter_id"`
	Step      int          `json:"step"`
	Draft     BookingDraft `json:"draft"`
	UpdatedAt time.Time    `json:"updated_at"`
}
