package obs

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	domainOnce sync.Once

	// WebhookEventsTotal counts inbound payment webhook outcomes by reason.
	WebhookEventsTotal *prometheus.CounterVec
	// EmailSendTotal counts confirmation email send outcomes.
	EmailSendTotal *prometheus.CounterVec
	// ProviderRequestTotal counts outbound PayPal API calls by operation.
	ProviderRequestTotal *prometheus.CounterVec
	// OrderCreateTotal counts checkout order creations by result.
	OrderCreateTotal *prometheus.CounterVec
	// ProductResolutionTotal counts product resolution outcomes (matched, fallback).
	ProductResolutionTotal *prometheus.CounterVec
)

// MustRegisterDomainMetrics initialises and registers domain-specific Prometheus collectors.
func MustRegisterDomainMetrics(namespace string, reg prometheus.Registerer) {
	domainOnce.Do(func() {
		if reg == nil {
			reg = prometheus.DefaultRegisterer
		}
		WebhookEventsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "webhook_events_total",
			Help:      "Count of processed payment webhooks by outcome.",
		}, []string{"result"})
		EmailSendTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "email_send_total",
			Help:      "Count of confirmation email send outcomes.",
		}, []string{"result"})
		ProviderRequestTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "provider_request_total",
			Help:      "Count of outbound payment provider API calls.",
		}, []string{"operation", "result"})
		OrderCreateTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "order_create_total",
			Help:      "Count of checkout order creation outcomes.",
		}, []string{"result"})
		ProductResolutionTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "product_resolution_total",
			Help:      "Count of product resolution outcomes by match kind.",
		}, []string{"match"})

		WebhookEventsTotal = registerCounterVec(reg, WebhookEventsTotal)
		EmailSendTotal = registerCounterVec(reg, EmailSendTotal)
		ProviderRequestTotal = registerCounterVec(reg, ProviderRequestTotal)
		OrderCreateTotal = registerCounterVec(reg, OrderCreateTotal)
		ProductResolutionTotal = registerCounterVec(reg, ProductResolutionTotal)
	})
}
