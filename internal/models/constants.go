package models

const (
	StatusUpcoming  = "upcoming"
	StatusActive    = "active"
	StatusCompleted = "completed"
	StatusCancelled = "cancelled"
)

// Workflow steps, in order. The flow is linear: no branching, no cycles.
const (
	StepDatesLocation = iota
	StepPersonalDetails
	StepPayment
	StepConfirmation
)

const (
	// DefaultDailyRate используется, когда у машины не задан дневной тариф
	DefaultDailyRate = 1000.0

	// InvoiceTaxRate ставка налога в счете
	InvoiceTaxRate = 0.05

	// DefaultDraftTTL время жизни черновика бронирования в Redis
	DefaultDraftTTL = 24 * 60 * 60 // 24 часа в секундах

	// RateLimitRequests количество запросов к workflow в окне
	RateLimitRequests = 30

	// RateLimitWindow окно ограничения частоты запросов
	RateLimitWindow = 60 // 1 минута в секундах

	// StatusRefreshInterval период фонового пересчета статусов
	StatusRefreshInterval = 5 * 60 // 5 минут в секундах

	// MinRating и MaxRating границы оценки в отзыве
	MinRating = 1
	MaxRating = 5
)

// StepName maps a step index to its wire name.
func StepName(step int) string {
	switch step {
	case StepDatesLocation:
		return "dates_location"
	case StepPersonalDetails:
		return "personal_details"
	case StepPayment:
		return "payment"
	case StepConfirmation:
		return "confirmation"
	default:
		return "unknown"
	}
}
