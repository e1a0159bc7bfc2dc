package workflow

import (
	"regexp"
	"strings"
	"time"

	"avtoprokat/internal/models"
)

// FieldErrors maps a draft field name to a user-facing message. Empty map
// means the step is complete.
type FieldErrors map[string]string

var (
	emailRe = regexp.MustCompile(`^[a-zA-Z0-9._%+\-]+@[a-zA-Z0-9.\-]+\.[a-zA-Z]{2,}$`)
	phoneRe = regexp.MustCompile(`^\+?[0-9][0-9\s\-()]*$`)
)

// Validate checks the fields of one step. Pure: no I/O, no mutation.
// "Сегодня" сравнивается только по дате, без учета времени.
func Validate(step int, draft *models.BookingDraft, now time.Time) FieldErrors {
	errs := FieldErrors{}

	switch step {
	case models.StepDatesLocation:
		validateDatesLocation(draft, now, errs)
	case models.StepPersonalDetails:
		validatePersonalDetails(draft, errs)
	case models.StepPayment:
		validatePayment(draft, errs)
	}

	return errs
}

func validateDatesLocation(draft *models.BookingDraft, now time.Time, errs FieldErrors) {
	if draft.PickupDate == "" {
		errs["pickup_date"] = "Укажите дату получения"
	}
	if draft.ReturnDate == "" {
		errs["return_date"] = "Укажите дату возврата"
	}
	if draft.PickupTime == "" {
		errs["pickup_time"] = "Укажите время получения"
	}
	if draft.ReturnTime == "" {
		errs["return_time"] = "Укажите время возврата"
	}
	if strings.TrimSpace(draft.PickupLocation) == "" {
		errs["pickup_location"] = "Укажите место получения"
	}
	if strings.TrimSpace(draft.ReturnLocation) == "" {
		errs["return_location"] = "Укажите место возврата"
	}
	if len(errs) > 0 {
		return
	}

	start, err := time.Parse("2006-01-02 15:04", draft.PickupDate+" "+draft.PickupTime)
	if err != nil {
		errs["pickup_date"] = "Неверный формат даты или времени получения"
		return
	}
	end, err := time.Parse("2006-01-02 15:04", draft.ReturnDate+" "+draft.ReturnTime)
	if err != nil {
		errs["return_date"] = "Неверный формат даты или времени возврата"
		return
	}

	if end.Before(start) {
		errs["return_date"] = "Возврат не может быть раньше получения"
	}

	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
	pickupDay := time.Date(start.Year(), start.Month(), start.Day(), 0, 0, 0, 0, time.UTC)
	if pickupDay.Before(today) {
		errs["pickup_date"] = "Дата получения не может быть в прошлом"
	}
}

func validatePersonalDetails(draft *models.BookingDraft, errs FieldErrors) {
	if strings.TrimSpace(draft.FirstName) == "" {
		errs["first_name"] = "Укажите имя"
	}
	if strings.TrimSpace(draft.LastName) == "" {
		errs["last_name"] = "Укажите фамилию"
	}

	email := strings.TrimSpace(draft.Email)
	if email == "" {
		errs["email"] = "Укажите email"
	} else if !emailRe.MatchString(email) {
		errs["email"] = "Неверный формат email"
	}

	phone := strings.TrimSpace(draft.Phone)
	if phone == "" {
		errs["phone"] = "Укажите телефон"
	} else if !validPhone(phone) {
		errs["phone"] = "Неверный формат телефона"
	}
}

func validatePayment(draft *models.BookingDraft, errs FieldErrors) {
	if draft.PaymentMethodID == 0 {
		errs["payment_method"] = "Выберите способ оплаты"
	}
	if !draft.TermsAccepted {
		errs["terms_accepted"] = "Необходимо принять условия аренды"
	}
}

// validPhone allows an optional leading plus and common separators; the
// digit count itself must land between 8 and 15.
func validPhone(phone string) bool {
	if !phoneRe.MatchString(phone) {
		return false
	}
	digits := 0
	for _, r := range phone {
		if r >= '0' && r <= '9' {
			digits++
		}
	}
	return digits >= 8 && digits <= 15
}
