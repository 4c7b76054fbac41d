package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// DevicesInFlight is set, per job, to the size of the job's resolved
	// device set when its device pool starts, and back to 0 when the pool
	// returns. It does not follow individual devices as they connect and
	// finish, so it can exceed the pool's worker bound.
	DevicesInFlight = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "netcollect_devices_in_flight",
			Help: "Devices in the job's resolved device set while its device pool runs, by job",
		},
		[]string{"job"},
	)

	// DeviceOutcomesTotal counts finished device outcomes by job and kind
	// (success, failed, skipped), matching domain.Run's tallies.
	DeviceOutcomesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "netcollect_device_outcomes_total",
			Help: "Total device outcomes by job and outcome kind",
		},
		[]string{"job", "outcome"},
	)

	// DeviceErrorsTotal counts failed outcomes by the collectorerr.Kind that
	// caused them, so auth-failure storms are distinguishable from timeouts.
	DeviceErrorsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "netcollect_device_errors_total",
			Help: "Total device failures by job and error kind",
		},
		[]string{"job", "kind"},
	)

	// ValidationScore observes the four-factor score every validated
	// capture receives, bucketed across the 0-100 range.
	ValidationScore = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name: "netcollect_validation_score",
			Help: "Validation pipeline score distribution by job",
			Buckets: []float64{0, 10, 20, 30, 40, 50, 60, 70, 80, 90, 100},
		},
		[]string{"job"},
	)

	// CaptureBytesTotal sums the bytes written to capture files, by job.
	CaptureBytesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "netcollect_capture_bytes_total",
			Help: "Total bytes written to capture files by job",
		},
		[]string{"job"},
	)

	// RunDuration observes wall-clock time for a single job run.
	RunDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name: "netcollect_run_duration_seconds",
			Help: "Job run duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"job"},
	)

	// DiscoveryProbesTotal counts credential discovery probe attempts by
	// outcome.
	DiscoveryProbesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "netcollect_discovery_probes_total",
			Help: "Total credential discovery probes by outcome",
		},
		[]string{"outcome"},
	)

	// BatchJobsTotal counts completed jobs within batch runs, by final
	// status.
	BatchJobsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "netcollect_batch_jobs_total",
			Help: "Total jobs completed within a batch run, by status",
		},
		[]string{"status"},
	)
)

func init() {
	prometheus.MustRegister(DevicesInFlight)
	prometheus.MustRegister(DeviceOutcomesTotal)
	prometheus.MustRegister(DeviceErrorsTotal)
	prometheus.MustRegister(ValidationScore)
	prometheus.MustRegister(CaptureBytesTotal)
	prometheus.MustRegister(RunDuration)
	prometheus.MustRegister(DiscoveryProbesTotal)
	prometheus.MustRegister(BatchJobsTotal)
}

// Handler returns the Prometheus HTTP handler.
func Handler() http.Handler {
	return promhttp.Handler()
}

// Timer is a helper for timing operations.
type Timer struct {
	start time.Time
}

// NewTimer creates a new timer.
func NewTimer() *Timer {
	return &Timer{start: time.Now()}
}

// ObserveDuration records the duration to a histogram.
func (t *Timer) ObserveDuration(histogram prometheus.Histogram) {
	duration := time.Since(t.start).Seconds()
	histogram.Observe(duration)
}

// ObserveDurationVec records the duration to a histogram vec with labels.
func (t *Timer) ObserveDurationVec(histogram prometheus.ObserverVec, labels...string) {
	duration := time.Since(t.start).Seconds()
	histogram.WithLabelValues(labels...).Observe(duration)
}

// Duration returns the elapsed time since the timer started.
func (t *Timer) Duration() time.Duration {
	return time.Since(t.start)
}
