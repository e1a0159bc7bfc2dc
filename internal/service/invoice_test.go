package service

import (
	"testing"
	"time"

	"avtoprokat/internal/models"

	"github.com/stretchr/testify/assert"
)

func TestInvoiceGenerator(t *testing.T) {
	gen := NewInvoiceGenerator(0.05)

	t.Run("ThreeDayRental", func(t *testing.T) {
		start := time.Date(2026, 3, 12, 10, 0, 0, 0, time.UTC)
		booking := &models.Booking{
			ID:          42,
			Reference:   "ref-42",
			CarName:     "Kia Rio",
			Interval:    models.RentalInterval{Start: start, End: start.Add(72 * time.Hour)},
			TotalAmount: 4500,
		}

		inv := gen.Generate(booking)
		assert.Equal(t, 3, inv.Days)
		assert.InDelta(t, 1500, inv.DailyRate, 0.001)
		assert.InDelta(t, 4500, inv.Subtotal, 0.001)
		assert.InDelta(t, 225, inv.Tax, 0.001)
		assert.InDelta(t, 4725, inv.Total, 0.001)
		assert.Equal(t, "Kia Rio", inv.CarName)
	})

	t.Run("PartialDayRoundsUp", func(t *testing.T) {
		start := time.Date(2026, 3, 12, 10, 0, 0, 0, time.UTC)
		booking := &models.Booking{
			Interval:    models.RentalInterval{Start: start, End: start.Add(25 * time.Hour)},
			TotalAmount: 2000,
		}

		inv := gen.Generate(booking)
		assert.Equal(t, 2, inv.Days)
		assert.InDelta(t, 1000, inv.DailyRate, 0.001)
	})

	t.Run("ZeroDurationChargesOneDay", func(t *testing.T) {
		start := time.Date(2026, 3, 12, 10, 0, 0, 0, time.UTC)
		booking := &models.Booking{
			Interval:    models.RentalInterval{Start: start, End: start},
			TotalAmount: 999.99,
		}

		inv := gen.Generate(booking)
		assert.Equal(t, 1, inv.Days)
		assert.InDelta(t, 999.99, inv.Subtotal, 0.001)
	})

	t.Run("DefaultTaxRate", func(t *testing.T) {
		g := NewInvoiceGenerator(0)
		assert.Equal(t, models.InvoiceTaxRate, g.taxRate)
	})
}

func TestRounding(t *testing.T) {
	assert.Equal(t, 4725.0, Round2(4725.0000001))
	assert.Equal(t, 33.33, Round2(100.0/3))
	assert.Equal(t, "33.33", FormatAmount(100.0/3))
	assert.Equal(t, "1500.00", FormatAmount(1500))
}
