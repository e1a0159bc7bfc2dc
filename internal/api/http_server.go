package api

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"avtoprokat/internal/config"
	"avtoprokat/internal/domain"
	"avtoprokat/internal/metrics"
	"avtoprokat/internal/models"
	"avtoprokat/internal/service"
	"avtoprokat/internal/workflow"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// HTTPServer exposes the booking workflow and the renter's bookings.
type HTTPServer struct {
	cfg       config.APIConfig
	booking   config.BookingConfig
	cars      domain.CarStore
	bookings  domain.BookingStore
	payments  domain.PaymentMethodStore
	drafts    domain.DraftRepository
	submitter workflow.BookingSubmitter
	lifecycle domain.Lifecycle
	invoices  *service.InvoiceGenerator
	reviews   *service.ReviewGate
	exporter  BookingExporter
	logger    *zerolog.Logger
	server    *http.Server
	auth      *HTTPAuth
	now       func() time.Time
}

// BookingExporter renders a bookings report into an HTTP response body.
type BookingExporter interface {
	WriteReport(w http.ResponseWriter, bookings []*models.Booking) error
}

// Deps carries everything the HTTP layer wires together.
type Deps struct {
	Cars      domain.CarStore
	Bookings  domain.BookingStore
	Payments  domain.PaymentMethodStore
	Drafts    domain.DraftRepository
	Submitter workflow.BookingSubmitter
	Lifecycle domain.Lifecycle
	Invoices  *service.InvoiceGenerator
	Reviews   *service.ReviewGate
	Exporter  BookingExporter
}

func NewHTTPServer(cfg config.APIConfig, booking config.BookingConfig, deps Deps, logger *zerolog.Logger) *HTTPServer {
	mux := http.NewServeMux()
	srv := &HTTPServer{
		cfg:       cfg,
		booking:   booking,
		cars:      deps.Cars,
		bookings:  deps.Bookings,
		payments:  deps.Payments,
		drafts:    deps.Drafts,
		submitter: deps.Submitter,
		lifecycle: deps.Lifecycle,
		invoices:  deps.Invoices,
		reviews:   deps.Reviews,
		exporter:  deps.Exporter,
		logger:    logger,
		now:       time.Now,
	}
	srv.auth = NewHTTPAuth(cfg)

	mux.HandleFunc("/api/v1/workflow", srv.handleWorkflowState)
	mux.HandleFunc("/api/v1/workflow/draft", srv.handleWorkflowDraft)
	mux.HandleFunc("/api/v1/workflow/advance", srv.handleWorkflowAdvance)
	mux.HandleFunc("/api/v1/workflow/retreat", srv.handleWorkflowRetreat)
	mux.HandleFunc("/api/v1/workflow/abandon", srv.handleWorkflowAbandon)
	mux.HandleFunc("/api/v1/workflow/summary", srv.handleWorkflowSummary)
	mux.HandleFunc("/api/v1/workflow/payment-methods", srv.handlePaymentMethods)
	mux.HandleFunc("/api/v1/bookings", srv.handleBookings)
	mux.HandleFunc("/api/v1/bookings/export", srv.handleExport)
	mux.HandleFunc("/api/v1/bookings/", srv.handleBookingByID)
	mux.HandleFunc("/api/v1/cars", srv.handleCars)
	mux.HandleFunc("/api/v1/cars/", srv.handleCarByID)

	protected := srv.auth.Wrap(mux)

	root := http.NewServeMux()
	root.HandleFunc("/healthz", srv.handleHealth)
	root.Handle("/", protected)

	handler := srv.loggingMiddleware(root)

	srv.server = &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.HTTP.Port),
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
		WriteTimeout:      30 * time.Second,
	}

	return srv
}

func (s *HTTPServer) Start() error {
	if s.server == nil {
		return fmt.Errorf("http server is not initialized")
	}
	s.logger.Info().Str("addr", s.server.Addr).Msg("HTTP API listening")
	if err := s.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

func (s *HTTPServer) Shutdown(ctx context.Context) error {
	if s.server == nil {
		return nil
	}
	return s.server.Shutdown(ctx)
}

// Handler exposes the full middleware chain for tests.
func (s *HTTPServer) Handler() http.Handler {
	return s.server.Handler
}

func (s *HTTPServer) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// renterFromRequest extracts the renter identity. The session layer in
// front of this API guarantees the header pair is consistent.
func renterFromRequest(r *http.Request) (models.Renter, error) {
	raw := strings.TrimSpace(r.Header.Get("x-renter-id"))
	if raw == "" {
		return models.Renter{}, fmt.Errorf("missing x-renter-id header")
	}
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return models.Renter{}, fmt.Errorf("invalid x-renter-id header")
	}

	credential := strings.TrimSpace(r.Header.Get("Authorization"))
	credential = strings.TrimSpace(strings.TrimPrefix(credential, "Bearer "))

	return models.Renter{ID: id, Credential: credential}, nil
}

func (s *HTTPServer) loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requestID := strings.TrimSpace(r.Header.Get("x-request-id"))
		if requestID == "" {
			requestID = uuid.NewString()
		}
		w.Header().Set("x-request-id", requestID)

		start := time.Now()
		recorder := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(recorder, r)
		dur := time.Since(start)

		metrics.IncHTTP(r.URL.Path)
		s.logger.Info().
			Str("request_id", requestID).
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Int("status", recorder.status).
			Dur("duration", dur).
			Msg("http request")
	})
}

func writeJSON(w http.ResponseWriter, statusCode int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, statusCode int, message string) {
	writeJSON(w, statusCode, map[string]string{"error": message})
}

func decodeJSON(r *http.Request, dst any) error {
	decoder := json.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()
	return decoder.Decode(dst)
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}
