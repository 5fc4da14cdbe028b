package metrics

import "github.com/prometheus/client_golang/prometheus"

func init() {
	register(
		subscriptionsActivatedTotal,
		subscriptionsRevokedTotal,
		invitesIssuedTotal,
		expiryWarningsSentTotal,
	)
}

var (
	subscriptionsActivatedTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "subscriptions_activated_total",
			Help: "Subscriptions activated by the lifecycle engine.",
		},
	)

	subscriptionsRevokedTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "subscriptions_revoked_total",
			Help: "Subscriptions expired and revoked by the expiry sweep.",
		},
	)

	invitesIssuedTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "invites_issued_total",
			Help: "Single-use group invite links issued to fresh grants.",
		},
	)

	expiryWarningsSentTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "expiry_warnings_sent_total",
			Help: "Expiry warning messages sent by the warning sweep.",
		},
	)
)

func IncSubscriptionActivated() { subscriptionsActivatedTotal.Inc() }

func AddSubscriptionsRevoked(n int) { subscriptionsRevokedTotal.Add(float64(n)) }

func IncInviteIssued() { invitesIssuedTotal.Inc() }

func AddExpiryWarningsSent(n int) { expiryWarningsSentTotal.Add(float64(n)) }
