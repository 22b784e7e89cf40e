package limiter

// Metric names emitted by the engine.
const (
	metricCheck    = "ratelimit.check"
	metricLatency  = "ratelimit.latency"
	metricDenied   = "ratelimit.denied"
	metricFailOpen = "ratelimit.fail_open"
)

// MetricsRecorder receives counters and timings from the engine.
// Implementations must be safe for concurrent use.
type MetricsRecorder interface {
	Add(name string, value float64, tags map[string]string)
	Observe(name string, value float64, tags map[string]string)
}

// NoOpMetricsRecorder is a placeholder that does nothing.
// It ensures we never have to check 'if r.recorder != nil' in our hot path.
type NoOpMetricsRecorder struct{}

func (NoOpMetricsRecorder) Add(name string, value float64, tags map[string]string)     {}
func (NoOpMetricsRecorder) Observe(name string, value float64, tags map[string]string) {}
