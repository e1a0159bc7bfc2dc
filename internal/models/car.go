package models

// RateSchedule holds the tiered rates for one car. Weekly and monthly may
// be omitted in the catalog and derived from the daily rate.
type RateSchedule struct {
	Daily   float64 `yaml:"daily" json:"daily"`
	Weekly  float64 `yaml:"weekly" json:"weekly"`
	Monthly float64 `yaml:"monthly" json:"monthly"`
}

// Normalized fills the gaps of an incomplete schedule so pricing never
// fails on missing data: weekly = daily*7 with a 10% discount, monthly =
// daily*30 with a 20% discount, daily falls back to DefaultDailyRate.
func (r RateSchedule) Normalized() RateSchedule {
	out := r
	if out.Daily <= 0 {
		out.Daily = DefaultDailyRate
	}
	if out.Weekly <= 0 {
		out.Weekly = out.Daily * 7 * 0.9
	}
	if out.Monthly <= 0 {
		out.Monthly = out.Daily * 30 * 0.8
	}
	return out
}

type Car struct {
	ID           int64        `yaml:"id" json:"id"`
	Name         string       `yaml:"name" json:"name"`
	Category     string       `yaml:"category" json:"category"`
	Seats        int          `yaml:"seats" json:"seats"`
	Transmission string       `yaml:"transmission" json:"transmission"`
	ImageURL     string       `yaml:"image_url" json:"image_url"`
	Rates        RateSchedule `yaml:"rates" json:"rates"`
	IsActive     bool         `yaml:"is_active" json:"is_active"`
	SortOrder    int64        `yaml:"sort_order" json:"sort_order"`
}
