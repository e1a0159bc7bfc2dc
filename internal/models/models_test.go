package models

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestRentalIntervalDays(t *testing.T) {
	base := time.Date(2026, 3, 10, 10, 0, 0, 0, time.UTC)

	tests := []struct {
		name string
		end  time.Time
		want int
	}{
		{"equal instants", base, 1},
		{"end before start", base.Add(-time.Hour), 1},
		{"one hour", base.Add(time.Hour), 1},
		{"exactly one day", base.Add(24 * time.Hour), 1},
		{"one day and a minute rounds up", base.Add(24*time.Hour + time.Minute), 2},
		{"exactly ten days", base.Add(10 * 24 * time.Hour), 10},
		{"thirty seven days", base.Add(37 * 24 * time.Hour), 37},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			i := RentalInterval{Start: base, End: tt.end}
			assert.Equal(t, tt.want, i.Days())
		})
	}
}

func TestRateScheduleNormalized(t *testing.T) {
	t.Run("derives weekly and monthly from daily", func(t *testing.T) {
		r := RateSchedule{Daily: 1000}.Normalized()
		assert.Equal(t, 1000.0, r.Daily)
		assert.Equal(t, 6300.0, r.Weekly)
		assert.Equal(t, 24000.0, r.Monthly)
	})

	t.Run("keeps explicit tiers", func(t *testing.T) {
		r := RateSchedule{Daily: 500, Weekly: 3000, Monthly: 11000}.Normalized()
		assert.Equal(t, RateSchedule{Daily: 500, Weekly: 3000, Monthly: 11000}, r)
	})

	t.Run("empty schedule falls back to default daily", func(t *testing.T) {
		r := RateSchedule{}.Normalized()
		assert.Equal(t, DefaultDailyRate, r.Daily)
		assert.Equal(t, DefaultDailyRate*7*0.9, r.Weekly)
		assert.Equal(t, DefaultDailyRate*30*0.8, r.Monthly)
	})
}

func TestBookingDraftInterval(t *testing.T) {
	d := &BookingDraft{
		PickupDate: "2026-03-10",
		PickupTime: "10:00",
		ReturnDate: "2026-03-20",
		ReturnTime: "10:00",
	}

	i := d.Interval()
	assert.Equal(t, time.Date(2026, 3, 10, 10, 0, 0, 0, time.UTC), i.Start)
	assert.Equal(t, 10, i.Days())

	t.Run("missing time defaults to midnight", func(t *testing.T) {
		d := &BookingDraft{PickupDate: "2026-03-10", ReturnDate: "2026-03-11"}
		i := d.Interval()
		assert.Equal(t, 0, i.Start.Hour())
		assert.Equal(t, 1, i.Days())
	})

	t.Run("unparseable date yields zero interval", func(t *testing.T) {
		d := &BookingDraft{PickupDate: "tomorrow", ReturnDate: "2026-03-11"}
		assert.True(t, d.Interval().Start.IsZero())
	})
}
