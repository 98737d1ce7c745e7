package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds the collectors of one service instance. Each instance owns its
// registry so several apps can live in one process (tests do this).
type Metrics struct {
	Registry *prometheus.Registry

	// HTTP request metrics
	HTTPRequests        *prometheus.CounterVec
	HTTPRequestDuration *prometheus.HistogramVec

	// Document store metrics
	StoreOperations        *prometheus.CounterVec
	StoreOperationDuration *prometheus.HistogramVec

	// Inventory metrics, refreshed with the catalog
	InventoryProducts  prometheus.Gauge
	InventoryValue     prometheus.Gauge
	InventoryLowStock  prometheus.Gauge
	CatalogEventsOut   *prometheus.CounterVec
	DiscardedRefreshes prometheus.Counter
}

// New creates and registers all collectors under the given prefix.
func New(prefix string) *Metrics {
	reg := prometheus.NewRegistry()
	m := &Metrics{
		Registry: reg,
		HTTPRequests: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: prefix + "_http_requests_total",
				Help: "Total number of HTTP requests",
			},
			[]string{"method", "path", "status"},
		),
		HTTPRequestDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    prefix + "_http_request_duration_seconds",
				Help:    "Duration of HTTP requests in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"method", "path", "status"},
		),
		StoreOperations: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: prefix + "_store_operations_total",
				Help: "Total number of document store operations",
			},
			[]string{"operation", "collection", "outcome"},
		),
		StoreOperationDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    prefix + "_store_operation_duration_seconds",
				Help:    "Duration of document store operations in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"operation", "collection"},
		),
		InventoryProducts: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: prefix + "_inventory_products",
			Help: "Number of active products in the last catalog refresh",
		}),
		InventoryValue: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: prefix + "_inventory_value",
			Help: "Sum of unit price times current stock in the last catalog refresh",
		}),
		InventoryLowStock: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: prefix + "_inventory_low_stock_products",
			Help: "Number of products at or below their minimum stock",
		}),
		CatalogEventsOut: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: prefix + "_catalog_events_published_total",
				Help: "Catalog events handed to the message broker",
			},
			[]string{"type", "outcome"},
		),
		DiscardedRefreshes: prometheus.NewCounter(prometheus.CounterOpts{
			Name: prefix + "_catalog_refreshes_discarded_total",
			Help: "Catalog fetch results dropped because the view was gone or superseded",
		}),
	}

	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		m.HTTPRequests,
		m.HTTPRequestDuration,
		m.StoreOperations,
		m.StoreOperationDuration,
		m.InventoryProducts,
		m.InventoryValue,
		m.InventoryLowStock,
		m.CatalogEventsOut,
		m.DiscardedRefreshes,
	)
	return m
}

// Handler exposes the registry in the Prometheus text format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.Registry, promhttp.HandlerOpts{})
}
