// Package metrics содержит счётчики Prometheus для решений о доступе
// и отказов на периметре.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// AccessDecisions количество решений о доступе по типу доступа.
	AccessDecisions = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "script_access",
		Name:      "access_decisions_total",
		Help:      "Access decisions by resolved access type.",
	}, []string{"access_type"})

	// ResolutionFailures проверки доступа, прерванные ошибкой хранилища.
	ResolutionFailures = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "script_access",
		Name:      "access_resolution_failures_total",
		Help:      "Access resolutions aborted by storage errors.",
	})

	// FreeSlotGrants попытки использовать бесплатный слот по результату.
	FreeSlotGrants = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "script_access",
		Name:      "free_slot_grants_total",
		Help:      "Free slot grant attempts by outcome.",
	}, []string{"outcome"})

	// PerimeterRejections отказы origin guard и лимитера по причине.
	PerimeterRejections = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "script_access",
		Name:      "perimeter_rejections_total",
		Help:      "Requests rejected by origin guard or rate limiter.",
	}, []string{"guard", "reason"})

	// PurchaseGrants покупки, зачтённые по вебхуку провайдера.
	PurchaseGrants = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "script_access",
		Name:      "purchase_grants_total",
		Help:      "Purchase grants recorded from payment webhooks by outcome.",
	}, []string{"outcome"})
)
