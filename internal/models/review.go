package models

import "time"

// Review is created at most once per booking and immutable afterwards.
type Review struct {
	ID        int64     `json:"id"`
	BookingID int64     `json:"booking_id"`
	CarID     int64     `json:"car_id"`
	RenterID  int64     `json:"renter_id"`
	Rating    int       `json:"rating"` // 1..5
	Comment   string    `json:"comment"`
	CreatedAt time.Time `json:"created_at"`
}
