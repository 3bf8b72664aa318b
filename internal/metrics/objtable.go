package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/wl-go/wlgo/internal/objtable"
)

// Recorder instruments the dispatch harness's use of an objtable.Table.
// A nil *Recorder is valid and every method becomes a no-op, matching the
// nil-metrics convention used throughout the retrieved corpus.
type Recorder struct {
	operations  *prometheus.CounterVec
	zombieEvict prometheus.Counter
	slotGauge   *prometheus.GaugeVec
	zombieFIFO  *prometheus.GaugeVec
}

// NewRecorder builds a Recorder registered against the process-wide
// registry, or returns nil when metrics are not enabled.
func NewRecorder(side objtable.Side) *Recorder {
	if !IsEnabled() {
		return nil
	}

	reg := GetRegistry()
	sideLabel := side.String()

	r := &Recorder{
		operations: promauto.With(reg).NewCounterVec(
			prometheus.CounterOpts{
				Name: "wlgo_objtable_operations_total",
				Help: "Total number of object table operations, by operation and outcome.",
			},
			[]string{"side", "op", "outcome"},
		),
		zombieEvict: promauto.With(reg).NewCounter(
			prometheus.CounterOpts{
				Name:        "wlgo_objtable_zombie_evictions_total",
				Help:        "Total number of zombie FIFO evictions reaped to the freelist.",
				ConstLabels: prometheus.Labels{"side": sideLabel},
			},
		),
		slotGauge: promauto.With(reg).NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "wlgo_objtable_slots",
				Help: "Current slot occupancy by state (live, zombie, freelisted).",
			},
			[]string{"side", "state"},
		),
		zombieFIFO: promauto.With(reg).NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "wlgo_objtable_zombie_fifo_count",
				Help: "Current zombie FIFO length, or -1 if permanently disabled by mark_deleted.",
			},
			[]string{"side"},
		),
	}
	return r
}

// ObserveOp records the outcome of a single table operation (e.g. "insert_new",
// ok/err).
func (r *Recorder) ObserveOp(side objtable.Side, op string, err error) {
	if r == nil {
		return
	}
	outcome := "ok"
	if err != nil {
		outcome = "error"
	}
	r.operations.WithLabelValues(side.String(), op, outcome).Inc()
}

// ObserveEviction records a single zombie FIFO eviction.
func (r *Recorder) ObserveEviction() {
	if r == nil {
		return
	}
	r.zombieEvict.Inc()
}

// ObserveSnapshot publishes a table's current Stats as gauges.
func (r *Recorder) ObserveSnapshot(s objtable.Stats) {
	if r == nil {
		return
	}
	side := s.Side.String()
	r.slotGauge.WithLabelValues(side, "live").Set(float64(s.Live))
	r.slotGauge.WithLabelValues(side, "zombie").Set(float64(s.Zombie))
	r.slotGauge.WithLabelValues(side, "freelisted").Set(float64(s.Freelisted))
	r.zombieFIFO.WithLabelValues(side).Set(float64(s.ZombieCount))
}
