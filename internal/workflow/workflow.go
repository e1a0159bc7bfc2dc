package workflow

import (
	"context"
	"time"

	"avtoprokat/internal/domain"
	"avtoprokat/internal/models"
	"avtoprokat/internal/pricing"

	"github.com/rs/zerolog"
)

// Submission states surfaced to the UI layer.
const (
	SubmissionIdle      = "idle"
	SubmissionPending   = "pending"
	SubmissionSucceeded = "succeeded"
	SubmissionFailed    = "failed"
)

// BookingSubmitter creates the booking exactly once per workflow.
type BookingSubmitter interface {
	Submit(ctx context.Context, renter models.Renter, draft *models.BookingDraft) (*models.Booking, error)
}

// Workflow walks one renter through the booking steps. It owns the draft
// exclusively: nothing else mutates it, and it is discarded after a
// successful submission or an abandoned flow. The workflow contains no
// rendering concerns; the UI drives it through Advance/Retreat and reads
// Step/Errors/Summary/SubmissionStatus.
type Workflow struct {
	renter models.Renter
	draft  *models.BookingDraft
	step   int

	fieldErrors FieldErrors
	status      string
	booking     *models.Booking

	submitter BookingSubmitter
	cars      domain.CarStore
	drafts    domain.DraftRepository
	logger    *zerolog.Logger
	now       func() time.Time
}

func New(
	renter models.Renter,
	submitter BookingSubmitter,
	cars domain.CarStore,
	drafts domain.DraftRepository,
	logger *zerolog.Logger,
) *Workflow {
	return &Workflow{
		renter:    renter,
		draft:     &models.BookingDraft{},
		step:      models.StepDatesLocation,
		status:    SubmissionIdle,
		submitter: submitter,
		cars:      cars,
		drafts:    drafts,
		logger:    logger,
		now:       time.Now,
	}
}

// Restore loads the renter's persisted draft state, if any. A fresh flow
// starts at the dates step with an empty draft.
func (w *Workflow) Restore(ctx context.Context) error {
	if w.drafts == nil {
		return nil
	}
	state, err := w.drafts.GetDraft(ctx, w.renter.ID)
	if err != nil {
		return err
	}
	if state == nil {
		return nil
	}
	draft := state.Draft
	w.draft = &draft
	w.step = state.Step
	return nil
}

func (w *Workflow) Step() int { return w.step }

func (w *Workflow) Errors() FieldErrors { return w.fieldErrors }

func (w *Workflow) SubmissionStatus() string { return w.status }

func (w *Workflow) Booking() *models.Booking { return w.booking }

func (w *Workflow) Draft() models.BookingDraft { return *w.draft }

// UpdateDraft applies a mutation to the draft and persists the state.
// Rejected once the flow reached confirmation: the draft is gone by then.
func (w *Workflow) UpdateDraft(ctx context.Context, apply func(*models.BookingDraft)) error {
	if w.step == models.StepConfirmation {
		return &domain.TransitionError{Reason: "draft is no longer mutable after confirmation"}
	}
	apply(w.draft)
	w.persist(ctx)
	return nil
}

// Summary prices the draft as it stands. Never fails: an unknown car or an
// incomplete schedule falls back to default rates.
func (w *Workflow) Summary(ctx context.Context) pricing.Breakdown {
	var rates models.RateSchedule
	if w.cars != nil && w.draft.CarID != 0 {
		car, err := w.cars.GetCarByID(ctx, w.draft.CarID)
		if err != nil {
			w.logger.Warn().Err(err).Int64("car_id", w.draft.CarID).Msg("summary: car lookup failed")
		} else {
			rates = car.Rates
		}
	}
	return pricing.CalculateBreakdown(w.draft.Interval(), rates)
}

// Advance validates the current step and moves forward. Validation errors
// keep the step and come back as a non-empty FieldErrors. Leaving the
// payment step triggers the submission; confirmation is reached only on
// success, and a failed submission leaves the flow on payment for a manual
// retry.
func (w *Workflow) Advance(ctx context.Context) (FieldErrors, error) {
	if w.step == models.StepConfirmation {
		return nil, &domain.TransitionError{Reason: "workflow already confirmed"}
	}

	errs := Validate(w.step, w.draft, w.now())
	if len(errs) > 0 {
		w.fieldErrors = errs
		return errs, nil
	}
	w.fieldErrors = nil

	if w.step == models.StepPayment {
		w.status = SubmissionPending
		booking, err := w.submitter.Submit(ctx, w.renter, w.draft)
		if err != nil {
			w.status = SubmissionFailed
			return nil, err
		}

		w.status = SubmissionSucceeded
		w.booking = booking
		w.step = models.StepConfirmation
		w.draft = &models.BookingDraft{}
		w.clear(ctx)
		return nil, nil
	}

	w.step++
	w.persist(ctx)
	return nil, nil
}

// Retreat steps back one stage. Not allowed from the first step, and not
// allowed from confirmation: the flow is terminal there.
func (w *Workflow) Retreat(ctx context.Context) error {
	if w.step == models.StepDatesLocation {
		return &domain.TransitionError{Reason: "already at the first step"}
	}
	if w.step == models.StepConfirmation {
		return &domain.TransitionError{Reason: "cannot go back from confirmation"}
	}
	w.step--
	w.fieldErrors = nil
	w.persist(ctx)
	return nil
}

// Abandon drops the flow and its draft.
func (w *Workflow) Abandon(ctx context.Context) {
	w.draft = &models.BookingDraft{}
	w.step = models.StepDatesLocation
	w.fieldErrors = nil
	w.status = SubmissionIdle
	w.clear(ctx)
}

func (w *Workflow) persist(ctx context.Context) {
	if w.drafts == nil {
		return
	}
	state := &models.DraftState{
		RenterID:  w.renter.ID,
		Step:      w.step,
		Draft:     *w.draft,
		UpdatedAt: w.now(),
	}
	if err := w.drafts.SetDraft(ctx, state); err != nil {
		w.logger.Error().Err(err).Int64("renter_id", w.renter.ID).Msg("persist draft failed")
	}
}

func (w *Workflow) clear(ctx context.Context) {
	if w.drafts == nil {
		return
	}
	if err := w.drafts.ClearDraft(ctx, w.renter.ID); err != nil {
		w.logger.Error().Err(err).Int64("renter_id", w.renter.ID).Msg("clear draft failed")
	}
}
