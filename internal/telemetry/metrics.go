package telemetry

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	PaymentsCreated = promauto.NewCounter(prometheus.CounterOpts{
		Name: "lypto_payments_created_total",
		Help: "Payment requests created.",
	})

	PaymentsResolved = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "lypto_payments_resolved_total",
		Help: "Payment requests resolved, by terminal status.",
	}, []string{"status"})

	DuplicateResolutions = promauto.NewCounter(prometheus.CounterOpts{
		Name: "lypto_payments_duplicate_resolutions_total",
		Help: "Resolution attempts rejected because the payment was already processed.",
	})

	NotificationsDispatched = promauto.NewCounter(prometheus.CounterOpts{
		Name: "lypto_notifications_dispatched_total",
		Help: "Push notification dispatches for new payment requests.",
	})

	PollerSurfaced = promauto.NewCounter(prometheus.CounterOpts{
		Name: "lypto_poller_payments_surfaced_total",
		Help: "Pending payments surfaced to an authorization prompt.",
	})
)
