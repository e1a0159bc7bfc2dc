package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	once sync.Once

	httpRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "avtoprokat",
			Name:      "http_requests_total",
			Help:      "HTTP requests by endpoint.",
		},
		[]string{"endpoint"},
	)

	workflowAdvances = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "avtoprokat",
			Name:      "workflow_advances_total",
			Help:      "Workflow step advances by outcome.",
		},
		[]string{"outcome"},
	)

	submissions = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "avtoprokat",
			Name:      "booking_submissions_total",
			Help:      "Booking submissions by result.",
		},
		[]string{"result"},
	)

	statusTransitions = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "avtoprokat",
			Name:      "booking_status_transitions_total",
			Help:      "Booking lifecycle transitions by target status.",
		},
		[]string{"status"},
	)

	reviews = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "avtoprokat",
			Name:      "reviews_created_total",
			Help:      "Reviews accepted by the review gate.",
		},
	)
)

// Register registers Prometheus metrics. Safe to call multiple times.
func Register() {
	once.Do(func() {
		prometheus.MustRegister(httpRequests, workflowAdvances, submissions, statusTransitions, reviews)
	})
}

// IncHTTP increments the counter for an endpoint label.
func IncHTTP(endpoint string) {
	httpRequests.WithLabelValues(endpoint).Inc()
}

// IncAdvance records a workflow advance outcome: "ok", "validation" or "error".
func IncAdvance(outcome string) {
	workflowAdvances.WithLabelValues(outcome).Inc()
}

// IncSubmission records a booking submission result: "success", "rejected" or "transport".
func IncSubmission(result string) {
	submissions.WithLabelValues(result).Inc()
}

// IncStatusTransition records a lifecycle transition to the given status.
func IncStatusTransition(status string) {
	statusTransitions.WithLabelValues(status).Inc()
}

// IncReview records an accepted review.
func IncReview() {
	reviews.Inc()
}
