package services

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	tablesOpened = promauto.NewCounter(prometheus.CounterOpts{
		Name: "restaurant_tables_opened_total",
		Help: "Table sessions opened by waiters.",
	})
	tablesClosed = promauto.NewCounter(prometheus.CounterOpts{
		Name: "restaurant_tables_closed_total",
		Help: "Table sessions closed by waiters.",
	})
	ordersPlaced = promauto.NewCounter(prometheus.CounterOpts{
		Name: "restaurant_orders_placed_total",
		Help: "Order lines sent to the kitchen.",
	})
	orderStatusChanges = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "restaurant_order_transitions_total",
		Help: "Order status changes by action.",
	}, []string{"action"})
	billTokensIssued = promauto.NewCounter(prometheus.CounterOpts{
		Name: "restaurant_bill_tokens_issued_total",
		Help: "Bill access tokens minted.",
	})
	billResolutions = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "restaurant_bill_resolutions_total",
		Help: "Bill token lookups by outcome.",
	}, []string{"outcome"})
	consentSubmissions = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "restaurant_consent_submissions_total",
		Help: "Consent submissions by outcome.",
	}, []string{"outcome"})
)
