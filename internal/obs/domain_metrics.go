package obs

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	domainOnce sync.Once

	// OrderActionTotal counts action-link decisions by action and outcome.
	OrderActionTotal *prometheus.CounterVec
	// PaymentIntentTotal counts gateway intent creations by result.
	PaymentIntentTotal *prometheus.CounterVec
	// EwalletAttachTotal counts e-wallet attach attempts by provider and result.
	EwalletAttachTotal *prometheus.CounterVec
	// NotifyEmailTotal counts notification emails by kind and result.
	NotifyEmailTotal *prometheus.CounterVec
)

// MustRegisterDomainMetrics initialises and registers domain-specific Prometheus collectors.
func MustRegisterDomainMetrics(namespace string, reg prometheus.Registerer) {
	domainOnce.Do(func() {
		if reg == nil {
			reg = prometheus.DefaultRegisterer
		}
		OrderActionTotal = mustRegister(reg, prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "order_action_total",
			Help:      "Count of order action-link decisions by outcome.",
		}, []string{"action", "outcome"}))
		PaymentIntentTotal = mustRegister(reg, prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "payment_intent_total",
			Help:      "Count of payment intent creation outcomes.",
		}, []string{"result"}))
		EwalletAttachTotal = mustRegister(reg, prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "ewallet_attach_total",
			Help:      "Count of e-wallet attach outcomes by provider.",
		}, []string{"provider", "result"}))
		NotifyEmailTotal = mustRegister(reg, prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "notify_email_total",
			Help:      "Count of notification emails by kind and result.",
		}, []string{"kind", "result"}))
	})
}

// IncOrderAction increments OrderActionTotal when metrics are registered.
func IncOrderAction(action, outcome string) {
	if OrderActionTotal != nil {
		OrderActionTotal.WithLabelValues(action, outcome).Inc()
	}
}

// IncPaymentIntent increments PaymentIntentTotal when metrics are registered.
func IncPaymentIntent(result string) {
	if PaymentIntentTotal != nil {
		PaymentIntentTotal.WithLabelValues(result).Inc()
	}
}

// IncEwalletAttach increments EwalletAttachTotal when metrics are registered.
func IncEwalletAttach(provider, result string) {
	if EwalletAttachTotal != nil {
		EwalletAttachTotal.WithLabelValues(provider, result).Inc()
	}
}

// IncNotifyEmail increments NotifyEmailTotal when metrics are registered.
func IncNotifyEmail(kind, result string) {
	if NotifyEmailTotal != nil {
		NotifyEmailTotal.WithLabelValues(kind, result).Inc()
	}
}
