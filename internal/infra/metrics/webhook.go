package metrics

import "github.com/prometheus/client_golang/prometheus"

func init() { register(webhookRequestsTotal) }

var webhookRequestsTotal = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Name: "webhook_requests_total",
		Help: "Gateway webhook deliveries by result (accepted/ignored/malformed/forged/error).",
	},
	[]string{"result"},
)

func IncWebhook(result string) {
	webhookRequestsTotal.WithLabelValues(norm(result)).Inc()
}
