package models

// Renter is the current identity as the session layer hands it over.
// The credential is an opaque bearer token passed through to the stores.
type Renter struct {
	ID         int64  `json:"id"`
	Credential string `json:"-"`
}

// PaymentMethod is read-only reference data for the payment step.
type PaymentMethod struct {
	ID         int64  `json:"id"`
	RenterID   int64  `json:"renter_id"`
	Kind       string `json:"kind"` // card, sbp, cash
	Label      string `json:"label"`
	LastDigits string `json:"last_digits"`
}
