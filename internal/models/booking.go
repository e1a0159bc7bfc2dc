package models

import (
	"time"
)

// RentalInterval is the ordered pair of pickup and return instants.
type RentalInterval struct {
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
}

// Days returns the billable duration in whole calendar days, rounded up.
// Never less than 1, even when Start == End.
func (i RentalInterval) Days() int {
	if !i.End.After(i.Start) {
		return 1
	}
	d := i.End.Sub(i.Start)
	days := int(d / (24 * time.Hour))
	if d%(24*time.Hour) > 0 {
		days++
	}
	return days
}

type Booking struct {
	ID              int64          `json:"id"`
	Reference       string         `json:"reference"`
	CarID           int64          `json:"car_id"`
	CarName         string         `json:"car_name"`
	RenterID        int64          `json:"renter_id"`
	Interval        RentalInterval `json:"interval"`
	PickupLocation  string         `json:"pickup_location"`
	ReturnLocation  string         `json:"return_location"`
	TotalAmount     float64        `json:"total_amount"`
	PaymentSummary  string         `json:"payment_summary"`
	SpecialRequests string         `json:"special_requests"`
	Status          string         `json:"status"` // upcoming, active, completed, cancelled
	CreatedAt       time.Time      `json:"created_at"`
	UpdatedAt       time.Time      `json:"updated_at"`
	Version         int64          `json:"version"`
}

// BookingDraft is the mutable aggregate one workflow collects step by step.
// Dates and times are captured as separate strings, exactly as the form
// surfaces them, and combined into an interval only after validation.
type BookingDraft struct {
	CarID           int64  `json:"car_id"`
	PickupDate      string `json:"pickup_date"` // 2006-01-02
	PickupTime      string `json:"pickup_time"` // 15:04
	ReturnDate      string `json:"return_date"`
	ReturnTime      string `json:"return_time"`
	PickupLocation  string `json:"pickup_location"`
	ReturnLocation  string `json:"return_location"`
	FirstName       string `json:"first_name"`
	LastName        string `json:"last_name"`
	Email           string `json:"email"`
	Phone           string `json:"phone"`
	SpecialRequests string `json:"special_requests"`
	PaymentMethodID int64  `json:"payment_method_id"`
	TermsAccepted   bool   `json:"terms_accepted"`
}

// Interval combines the captured date and time strings. Returns the zero
// interval when either side fails to parse; validation catches that first.
func (d *BookingDraft) Interval() RentalInterval {
	start, err1 := combineDateTime(d.PickupDate, d.PickupTime)
	end, err2 := combineDateTime(d.ReturnDate, d.ReturnTime)
	if err1 != nil || err2 != nil {
		return RentalInterval{}
	}
	return RentalInterval{Start: start, End: end}
}

func combineDateTime(date, clock string) (time.Time, error) {
	if clock == "" {
		clock = "00:00"
	}
	return time.Parse("2006-01-02 15:04", date+" "+clock)
}
