package metrics

import "github.com/prometheus/client_golang/prometheus"

func init() { register(sweepRunsTotal) }

var sweepRunsTotal = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Name: "sweep_runs_total",
		Help: "Scheduler sweep runs by worker and result.",
	},
	[]string{"worker", "result"}, // 'ok', 'error', 'skipped'
)

func IncSweepRun(worker, result string) {
	sweepRunsTotal.WithLabelValues(norm(worker), norm(result)).Inc()
}
