package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics provides observability for the enrollment module.
// Tracks lifecycle outcomes, rejections by reason, and capacity races.
type Metrics struct {
	Enrolled          prometheus.Counter
	Completed         prometheus.Counter
	Cancelled         prometheus.Counter
	Rejected          *prometheus.CounterVec
	CapacityConflicts prometheus.Counter
	CacheLookups      *prometheus.CounterVec
	OperationDuration *prometheus.HistogramVec
}

// New registers every enrollment metric with reg.
func New(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		Enrolled: f.NewCounter(prometheus.CounterOpts{
			Name: "campus_enrollments_created_total",
			Help: "Total number of successful enrollments",
		}),
		Completed: f.NewCounter(prometheus.CounterOpts{
			Name: "campus_enrollments_completed_total",
			Help: "Total number of enrollments completed",
		}),
		Cancelled: f.NewCounter(prometheus.CounterOpts{
			Name: "campus_enrollments_cancelled_total",
			Help: "Total number of enrollments cancelled",
		}),
		Rejected: f.NewCounterVec(prometheus.CounterOpts{
			Name: "campus_enrollments_rejected_total",
			Help: "Enrollment attempts refused by a business rule",
		}, []string{"reason"}),
		CapacityConflicts: f.NewCounter(prometheus.CounterOpts{
			Name: "campus_enrollment_capacity_conflicts_total",
			Help: "Enrollments that passed the capacity check but lost the conditional update",
		}),
		CacheLookups: f.NewCounterVec(prometheus.CounterOpts{
			Name: "campus_student_enrollments_cache_lookups_total",
			Help: "Student enrollment cache lookups by result",
		}, []string{"result"}),
		OperationDuration: f.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "campus_enrollment_operation_duration_seconds",
			Help:    "Duration of enrollment service operations",
			Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1},
		}, []string{"operation"}),
	}
}

// Rejection reasons.
const (
	ReasonFull      = "full"
	ReasonNotOpen   = "not_open"
	ReasonDuplicate = "duplicate"
)

func (m *Metrics) IncrementRejected(reason string) {
	m.Rejected.WithLabelValues(reason).Inc()
}

func (m *Metrics) IncrementCacheLookup(hit bool) {
	result := "miss"
	if hit {
		result = "hit"
	}
	m.CacheLookups.WithLabelValues(result).Inc()
}

// ObserveOperation records the duration of an operation.
// Call with time.Now() at the start of the operation.
func (m *Metrics) ObserveOperation(operation string, start time.Time) {
	m.OperationDuration.WithLabelValues(operation).Observe(time.Since(start).Seconds())
}
