package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// ProductsCreated is a Prometheus counter for tracking the total number of products created.
	ProductsCreated = promauto.NewCounter(prometheus.CounterOpts{
		Name: "products_created_total",
		Help: "The total number of products created",
	})

	// ProductsUpdated is a Prometheus counter for tracking the total number of products updated.
	ProductsUpdated = promauto.NewCounter(prometheus.CounterOpts{
		Name: "products_updated_total",
		Help: "The total number of products updated",
	})

	// ProductsDeleted is a Prometheus counter for tracking the total number of products deleted.
	ProductsDeleted = promauto.NewCounter(prometheus.CounterOpts{
		Name: "products_deleted_total",
		Help: "The total number of products deleted",
	})

	// ProductIDCollisions counts generated product ids that were already taken.
	ProductIDCollisions = promauto.NewCounter(prometheus.CounterOpts{
		Name: "product_id_collisions_total",
		Help: "The total number of generated product ids that collided with a stored product",
	})

	// AuthorizationFailures counts mutations rejected for a wrong password, by operation.
	AuthorizationFailures = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "product_authorization_failures_total",
		Help: "The total number of product mutations rejected for a password mismatch",
	}, []string{"operation"})

	// OutboxEvents counts outbox events handled by the worker, by result.
	OutboxEvents = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "outbox_events_total",
		Help: "The total number of outbox events handled by the worker",
	}, []string{"result"})

	// NotificationsConsumed counts listing messages read by the notification service, by action and result.
	NotificationsConsumed = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "listing_notifications_consumed_total",
		Help: "The total number of listing notifications read from the queue",
	}, []string{"action", "result"})
)

// HTTPRequests counts served API requests by method, matched route and status code.
var HTTPRequests = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "http_requests_total",
	Help: "The total number of HTTP requests served by the API",
}, []string{"method", "route", "status"})
