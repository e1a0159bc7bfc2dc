package service

import (
	"fmt"
	"math"
	"time"

	"avtoprokat/internal/models"
)

// Invoice is a derived document, never stored. Amounts are kept unrounded
// and only formatted at the edge.
type Invoice struct {
	BookingID   int64     `json:"booking_id"`
	Reference   string    `json:"reference"`
	CarName     string    `json:"car_name"`
	Start       time.Time `json:"start"`
	End         time.Time `json:"end"`
	Days        int       `json:"days"`
	DailyRate   float64   `json:"daily_rate"`
	Subtotal    float64   `json:"subtotal"`
	TaxRate     float64   `json:"tax_rate"`
	Tax         float64   `json:"tax"`
	Total       float64   `json:"total"`
	GeneratedAt time.Time `json:"generated_at"`
}

type InvoiceGenerator struct {
	taxRate float64
}

func NewInvoiceGenerator(taxRate float64) *InvoiceGenerator {
	if taxRate <= 0 {
		taxRate = models.InvoiceTaxRate
	}
	return &InvoiceGenerator{taxRate: taxRate}
}

// Generate раскладывает итоговую сумму заявки обратно на дни и налог.
// Эффективный дневной тариф выводится из суммы, а не из каталога, чтобы
// счет совпадал с тем, что арендатор подтвердил при оформлении.
func (g *InvoiceGenerator) Generate(booking *models.Booking) *Invoice {
	days := booking.Interval.Days()
	daily := booking.TotalAmount / float64(days)
	subtotal := daily * float64(days)
	tax := subtotal * g.taxRate

	return &Invoice{
		BookingID:   booking.ID,
		Reference:   booking.Reference,
		CarName:     booking.CarName,
		Start:       booking.Interval.Start,
		End:         booking.Interval.End,
		Days:        days,
		DailyRate:   daily,
		Subtotal:    subtotal,
		TaxRate:     g.taxRate,
		Tax:         tax,
		Total:       subtotal + tax,
		GeneratedAt: time.Now(),
	}
}

// Round2 rounds a money amount to two decimal places for display.
func Round2(v float64) float64 {
	return math.Round(v*100) / 100
}

// FormatAmount renders a money amount for user-facing text.
func FormatAmount(v float64) string {
	return fmt.Sprintf("%.2f", Round2(v))
}
