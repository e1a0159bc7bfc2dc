package pricing

import (
	"avtoprokat/internal/models"
)

// Quote is the computed price for one rental interval.
type Quote struct {
	Days  int     `json:"days"`
	Total float64 `json:"total"`
}

// Breakdown decomposes the quote by tier for the summary surface.
type Breakdown struct {
	Months     int     `json:"months"`
	Weeks      int     `json:"weeks"`
	Days       int     `json:"days"`
	MonthsCost float64 `json:"months_cost"`
	WeeksCost  float64 `json:"weeks_cost"`
	DaysCost   float64 `json:"days_cost"`
	TotalDays  int     `json:"total_days"`
	Total      float64 `json:"total"`
}

const (
	daysPerMonth = 30
	daysPerWeek  = 7
)

// Calculate prices an interval against a rate schedule. Duration is whole
// calendar days rounded up, floor of one day. Decomposition is greedy,
// largest tier first: 30-day blocks at the monthly rate, then 7-day blocks
// at the weekly rate, the remainder per day. Incomplete schedules are
// normalized first, so the calculation never fails on missing data.
func Calculate(interval models.RentalInterval, rates models.RateSchedule) Quote {
	b := CalculateBreakdown(interval, rates)
	return Quote{Days: b.TotalDays, Total: b.Total}
}

// CalculateBreakdown is Calculate with per-tier detail.
func CalculateBreakdown(interval models.RentalInterval, rates models.RateSchedule) Breakdown {
	r := rates.Normalized()
	days := interval.Days()

	months := days / daysPerMonth
	rem := days % daysPerMonth
	weeks := rem / daysPerWeek
	dailyDays := rem % daysPerWeek

	b := Breakdown{
		Months:     months,
		Weeks:      weeks,
		Days:       dailyDays,
		MonthsCost: float64(months) * r.Monthly,
		WeeksCost:  float64(weeks) * r.Weekly,
		DaysCost:   float64(dailyDays) * r.Daily,
		TotalDays:  days,
	}
	b.Total = b.MonthsCost + b.WeeksCost + b.DaysCost
	return b
}
