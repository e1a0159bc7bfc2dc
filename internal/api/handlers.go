package api

import (
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"avtoprokat/internal/domain"
	"avtoprokat/internal/metrics"
	"avtoprokat/internal/models"
	"avtoprokat/internal/workflow"
)

type workflowStateResponse struct {
	Step             int                  `json:"step"`
	StepName         string               `json:"step_name"`
	Draft            models.BookingDraft  `json:"draft"`
	SubmissionStatus string               `json:"submission_status"`
	FieldErrors      workflow.FieldErrors `json:"field_errors,omitempty"`
	Booking          *models.Booking      `json:"booking,omitempty"`
}

func stateResponse(wf *workflow.Workflow) workflowStateResponse {
	return workflowStateResponse{
		Step:             wf.Step(),
		StepName:         models.StepName(wf.Step()),
		Draft:            wf.Draft(),
		SubmissionStatus: wf.SubmissionStatus(),
		FieldErrors:      wf.Errors(),
		Booking:          wf.Booking(),
	}
}

// workflowForRequest authenticates the renter, applies the per-renter rate
// limit and restores the persisted flow.
func (s *HTTPServer) workflowForRequest(w http.ResponseWriter, r *http.Request) (*workflow.Workflow, models.Renter, bool) {
	renter, err := renterFromRequest(r)
	if err != nil {
		writeError(w, http.StatusUnauthorized, err.Error())
		return nil, models.Renter{}, false
	}

	window := time.Duration(s.booking.RateLimitWindowSeconds) * time.Second
	allowed, err := s.drafts.CheckRateLimit(r.Context(), renter.ID, s.booking.RateLimitRequests, window)
	if err != nil {
		s.logger.Error().Err(err).Int64("renter_id", renter.ID).Msg("rate limit check failed")
	} else if !allowed {
		writeError(w, http.StatusTooManyRequests, "too many workflow requests")
		return nil, models.Renter{}, false
	}

	wf := workflow.New(renter, s.submitter, s.cars, s.drafts, s.logger)
	if err := wf.Restore(r.Context()); err != nil {
		s.logger.Error().Err(err).Int64("renter_id", renter.ID).Msg("restore workflow failed")
		writeError(w, http.StatusInternalServerError, "failed to restore workflow")
		return nil, models.Renter{}, false
	}
	return wf, renter, true
}

func (s *HTTPServer) handleWorkflowState(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	wf, _, ok := s.workflowForRequest(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, stateResponse(wf))
}

// draftPatch carries partial draft updates. Only non-nil fields are applied.
type draftPatch struct {
	CarID           *int64  `json:"car_id"`
	PickupDate      *string `json:"pickup_date"`
	PickupTime      *string `json:"pickup_time"`
	ReturnDate      *string `json:"return_date"`
	ReturnTime      *string `json:"return_time"`
	PickupLocation  *string `json:"pickup_location"`
	ReturnLocation  *string `json:"return_location"`
	FirstName       *string `json:"first_name"`
	LastName        *string `json:"last_name"`
	Email           *string `json:"email"`
	Phone           *string `json:"phone"`
	SpecialRequests *string `json:"special_requests"`
	PaymentMethodID *int64  `json:"payment_method_id"`
	TermsAccepted   *bool   `json:"terms_accepted"`
}

func (p *draftPatch) apply(d *models.BookingDraft) {
	setInt := func(dst *int64, src *int64) {
		if src != nil {
			*dst = *src
		}
	}
	setStr := func(dst *string, src *string) {
		if src != nil {
			*dst = strings.TrimSpace(*src)
		}
	}

	setInt(&d.CarID, p.CarID)
	setStr(&d.PickupDate, p.PickupDate)
	setStr(&d.PickupTime, p.PickupTime)
	setStr(&d.ReturnDate, p.ReturnDate)
	setStr(&d.ReturnTime, p.ReturnTime)
	setStr(&d.PickupLocation, p.PickupLocation)
	setStr(&d.ReturnLocation, p.ReturnLocation)
	setStr(&d.FirstName, p.FirstName)
	setStr(&d.LastName, p.LastName)
	setStr(&d.Email, p.Email)
	setStr(&d.Phone, p.Phone)
	setStr(&d.SpecialRequests, p.SpecialRequests)
	setInt(&d.PaymentMethodID, p.PaymentMethodID)
	if p.TermsAccepted != nil {
		d.TermsAccepted = *p.TermsAccepted
	}
}

func (s *HTTPServer) handleWorkflowDraft(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPatch {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	wf, _, ok := s.workflowForRequest(w, r)
	if !ok {
		return
	}

	var patch draftPatch
	if err := decodeJSON(r, &patch); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	if err := wf.UpdateDraft(r.Context(), patch.apply); err != nil {
		var transitionErr *domain.TransitionError
		if errors.As(err, &transitionErr) {
			writeError(w, http.StatusConflict, err.Error())
			return
		}
		writeError(w, http.StatusInternalServerError, "failed to update draft")
		return
	}

	writeJSON(w, http.StatusOK, stateResponse(wf))
}

func (s *HTTPServer) handleWorkflowAdvance(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	wf, _, ok := s.workflowForRequest(w, r)
	if !ok {
		return
	}

	fieldErrors, err := wf.Advance(r.Context())
	if err != nil {
		s.writeAdvanceError(w, err)
		return
	}

	if len(fieldErrors) > 0 {
		metrics.IncAdvance("validation")
		resp := stateResponse(wf)
		resp.FieldErrors = fieldErrors
		writeJSON(w, http.StatusUnprocessableEntity, resp)
		return
	}

	metrics.IncAdvance("ok")
	if wf.SubmissionStatus() == workflow.SubmissionSucceeded {
		metrics.IncSubmission("success")
	}
	writeJSON(w, http.StatusOK, stateResponse(wf))
}

func (s *HTTPServer) writeAdvanceError(w http.ResponseWriter, err error) {
	metrics.IncAdvance("error")

	var submissionErr *domain.SubmissionError
	if errors.As(err, &submissionErr) {
		metrics.IncSubmission(submissionErr.Kind)
		if submissionErr.Kind == domain.SubmissionRejected {
			writeError(w, http.StatusUnprocessableEntity, "booking was rejected, check the details and try again")
			return
		}
		writeError(w, http.StatusBadGateway, "booking submission failed, try again later")
		return
	}

	var transitionErr *domain.TransitionError
	if errors.As(err, &transitionErr) {
		writeError(w, http.StatusConflict, err.Error())
		return
	}

	writeError(w, http.StatusInternalServerError, "advance failed")
}

func (s *HTTPServer) handleWorkflowRetreat(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	wf, _, ok := s.workflowForRequest(w, r)
	if !ok {
		return
	}

	if err := wf.Retreat(r.Context()); err != nil {
		writeError(w, http.StatusConflict, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, stateResponse(wf))
}

func (s *HTTPServer) handleWorkflowAbandon(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	wf, _, ok := s.workflowForRequest(w, r)
	if !ok {
		return
	}

	wf.Abandon(r.Context())
	writeJSON(w, http.StatusOK, stateResponse(wf))
}

func (s *HTTPServer) handleWorkflowSummary(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	wf, _, ok := s.workflowForRequest(w, r)
	if !ok {
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"step":      wf.Step(),
		"step_name": models.StepName(wf.Step()),
		"summary":   wf.Summary(r.Context()),
	})
}

func (s *HTTPServer) handlePaymentMethods(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	renter, err := renterFromRequest(r)
	if err != nil {
		writeError(w, http.StatusUnauthorized, err.Error())
		return
	}

	methods, err := s.payments.GetPaymentMethods(r.Context(), renter.ID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to load payment methods")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"payment_methods": methods})
}

type bookingView struct {
	*models.Booking
	DerivedStatus string `json:"derived_status"`
	CanReview     bool   `json:"can_review"`
}

func (s *HTTPServer) bookingView(r *http.Request, booking *models.Booking) bookingView {
	view := bookingView{
		Booking:       booking,
		DerivedStatus: s.lifecycle.Classify(booking, s.now()),
	}
	if booking.Status == models.StatusCompleted {
		canReview, err := s.reviews.CanReview(r.Context(), booking)
		if err != nil {
			s.logger.Error().Err(err).Int64("booking_id", booking.ID).Msg("can_review check failed")
		}
		view.CanReview = canReview
	}
	return view
}

func (s *HTTPServer) handleBookings(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	renter, err := renterFromRequest(r)
	if err != nil {
		writeError(w, http.StatusUnauthorized, err.Error())
		return
	}

	bookings, err := s.bookings.GetRenterBookings(r.Context(), renter.ID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to load bookings")
		return
	}

	views := make([]bookingView, 0, len(bookings))
	for _, b := range bookings {
		views = append(views, s.bookingView(r, b))
	}
	writeJSON(w, http.StatusOK, map[string]any{"bookings": views})
}

func (s *HTTPServer) handleBookingByID(w http.ResponseWriter, r *http.Request) {
	const prefix = "/api/v1/bookings/"
	rest := strings.TrimPrefix(r.URL.Path, prefix)
	parts := strings.Split(rest, "/")
	if len(parts) == 0 || parts[0] == "" {
		writeError(w, http.StatusNotFound, "not found")
		return
	}

	id, err := strconv.ParseInt(parts[0], 10, 64)
	if err != nil || id <= 0 {
		writeError(w, http.StatusBadRequest, "invalid booking id")
		return
	}

	renter, err := renterFromRequest(r)
	if err != nil {
		writeError(w, http.StatusUnauthorized, err.Error())
		return
	}

	action := ""
	if len(parts) > 1 {
		action = parts[1]
	}

	switch {
	case action == "" && r.Method == http.MethodGet:
		s.handleBookingGet(w, r, renter, id)
	case action == "cancel" && r.Method == http.MethodPost:
		s.handleBookingCancel(w, r, renter, id)
	case action == "invoice" && r.Method == http.MethodGet:
		s.handleBookingInvoice(w, r, renter, id)
	case action == "review" && r.Method == http.MethodPost:
		s.handleBookingReview(w, r, renter, id)
	default:
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
	}
}

// ownBooking loads a booking and hides other renters' bookings behind 404.
func (s *HTTPServer) ownBooking(w http.ResponseWriter, r *http.Request, renter models.Renter, id int64) (*models.Booking, bool) {
	booking, err := s.bookings.GetBooking(r.Context(), id)
	if err != nil {
		if errors.Is(err, domain.ErrBookingNotFound) {
			writeError(w, http.StatusNotFound, "booking not found")
		} else {
			writeError(w, http.StatusInternalServerError, "failed to load booking")
		}
		return nil, false
	}
	if booking.RenterID != renter.ID {
		writeError(w, http.StatusNotFound, "booking not found")
		return nil, false
	}
	return booking, true
}

func (s *HTTPServer) handleBookingGet(w http.ResponseWriter, r *http.Request, renter models.Renter, id int64) {
	booking, ok := s.ownBooking(w, r, renter, id)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, s.bookingView(r, booking))
}

func (s *HTTPServer) handleBookingCancel(w http.ResponseWriter, r *http.Request, renter models.Renter, id int64) {
	booking, ok := s.ownBooking(w, r, renter, id)
	if !ok {
		return
	}

	updated, err := s.lifecycle.Cancel(r.Context(), booking)
	if err != nil {
		var transitionErr *domain.TransitionError
		switch {
		case errors.As(err, &transitionErr):
			writeError(w, http.StatusConflict, err.Error())
		case errors.Is(err, domain.ErrConcurrentModification):
			writeError(w, http.StatusConflict, "booking was modified, reload and retry")
		default:
			writeError(w, http.StatusInternalServerError, "failed to cancel booking")
		}
		return
	}

	metrics.IncStatusTransition(models.StatusCancelled)
	writeJSON(w, http.StatusOK, s.bookingView(r, updated))
}

func (s *HTTPServer) handleBookingInvoice(w http.ResponseWriter, r *http.Request, renter models.Renter, id int64) {
	booking, ok := s.ownBooking(w, r, renter, id)
	if !ok {
		return
	}

	invoice := s.invoices.Generate(booking)
	writeJSON(w, http.StatusOK, invoice)
}

func (s *HTTPServer) handleBookingReview(w http.ResponseWriter, r *http.Request, renter models.Renter, id int64) {
	var body struct {
		Rating  int    `json:"rating"`
		Comment string `json:"comment"`
	}
	if err := decodeJSON(r, &body); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	review, err := s.reviews.SubmitReview(r.Context(), renter.ID, id, body.Rating, body.Comment, renter.Credential)
	if err != nil {
		var validationErr *domain.ReviewValidationError
		var transitionErr *domain.TransitionError
		var refErr *domain.ReferenceResolutionError
		switch {
		case errors.As(err, &validationErr):
			writeJSON(w, http.StatusUnprocessableEntity, map[string]string{
				"error": "review validation failed",
				"field": validationErr.Field,
			})
		case errors.Is(err, domain.ErrBookingNotFound):
			writeError(w, http.StatusNotFound, "booking not found")
		case errors.Is(err, domain.ErrReviewExists):
			writeError(w, http.StatusConflict, "review already exists")
		case errors.As(err, &transitionErr):
			writeError(w, http.StatusConflict, err.Error())
		case errors.As(err, &refErr):
			writeError(w, http.StatusConflict, "booking has no car reference")
		default:
			writeError(w, http.StatusInternalServerError, "failed to submit review")
		}
		return
	}

	metrics.IncReview()
	writeJSON(w, http.StatusCreated, review)
}

func (s *HTTPServer) handleCars(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	cars, err := s.cars.GetActiveCars(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to load cars")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"cars": cars})
}

func (s *HTTPServer) handleCarByID(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	const prefix = "/api/v1/cars/"
	rest := strings.TrimPrefix(r.URL.Path, prefix)
	id, err := strconv.ParseInt(rest, 10, 64)
	if err != nil || id <= 0 {
		writeError(w, http.StatusBadRequest, "invalid car id")
		return
	}

	car, err := s.cars.GetCarByID(r.Context(), id)
	if err != nil {
		if errors.Is(err, domain.ErrCarNotFound) {
			writeError(w, http.StatusNotFound, "car not found")
			return
		}
		writeError(w, http.StatusInternalServerError, "failed to load car")
		return
	}
	writeJSON(w, http.StatusOK, car)
}

func (s *HTTPServer) handleExport(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	if s.exporter == nil {
		writeError(w, http.StatusNotImplemented, "export is not configured")
		return
	}

	statuses := []string{models.StatusUpcoming, models.StatusActive, models.StatusCompleted, models.StatusCancelled}
	if filter := strings.TrimSpace(r.URL.Query().Get("status")); filter != "" {
		statuses = []string{filter}
	}

	bookings, err := s.bookings.GetBookingsByStatus(r.Context(), statuses...)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to load bookings")
		return
	}

	if err := s.exporter.WriteReport(w, bookings); err != nil {
		s.logger.Error().Err(err).Msg("export failed")
	}
}
