// Package metrics 提供 Prometheus helper，覆盖市场引擎的核心业务指标
package metrics

import (
	"fmt"
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics 指标集合
type Metrics struct {
	registry *prometheus.Registry

	// 订单与成交
	OrdersPlacedTotal    prometheus.Counter
	OrdersRejectedTotal  prometheus.Counter
	OrdersCancelledTotal prometheus.Counter
	OrdersExpiredTotal   prometheus.Counter
	TradesExecutedTotal  prometheus.Counter
	TradeVolumeTotal     prometheus.Counter

	// 定价
	PriceUpdatesTotal prometheus.Counter

	// 市场事件
	MarketEventsTotal prometheus.Counter
	ActiveEvents      prometheus.Gauge

	// AI 交易
	ActiveAgents prometheus.Gauge

	// 后台任务
	TasksCompletedTotal prometheus.Counter
	TasksFailedTotal    prometheus.Counter
	TaskRetriesTotal    prometheus.Counter

	// HTTP 查询接口
	HTTPRequestsTotal   prometheus.Counter
	HTTPRequestDuration prometheus.Histogram
}

// New 创建指标实例
func New(serviceName string) *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),

		OrdersPlacedTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "vacuum",
			Subsystem: serviceName,
			Name:      "orders_placed_total",
			Help:      "Total orders accepted into the book",
		}),
		OrdersRejectedTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "vacuum",
			Subsystem: serviceName,
			Name:      "orders_rejected_total",
			Help:      "Total orders rejected by validation",
		}),
		OrdersCancelledTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "vacuum",
			Subsystem: serviceName,
			Name:      "orders_cancelled_total",
			Help:      "Total orders cancelled",
		}),
		OrdersExpiredTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "vacuum",
			Subsystem: serviceName,
			Name:      "orders_expired_total",
			Help:      "Total orders expired by cleanup",
		}),
		TradesExecutedTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "vacuum",
			Subsystem: serviceName,
			Name:      "trades_executed_total",
			Help:      "Total matched transactions",
		}),
		TradeVolumeTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "vacuum",
			Subsystem: serviceName,
			Name:      "trade_volume_total",
			Help:      "Total traded quantity across all items",
		}),

		PriceUpdatesTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "vacuum",
			Subsystem: serviceName,
			Name:      "price_updates_total",
			Help:      "Total committed price changes",
		}),

		MarketEventsTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "vacuum",
			Subsystem: serviceName,
			Name:      "market_events_total",
			Help:      "Total generated market events",
		}),
		ActiveEvents: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "vacuum",
			Subsystem: serviceName,
			Name:      "active_events",
			Help:      "Currently active market events",
		}),

		ActiveAgents: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "vacuum",
			Subsystem: serviceName,
			Name:      "active_agents",
			Help:      "Trader agents that are active and solvent",
		}),

		TasksCompletedTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "vacuum",
			Subsystem: serviceName,
			Name:      "tasks_completed_total",
			Help:      "Background tasks completed successfully",
		}),
		TasksFailedTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "vacuum",
			Subsystem: serviceName,
			Name:      "tasks_failed_total",
			Help:      "Background tasks failed after retry exhaustion",
		}),
		TaskRetriesTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "vacuum",
			Subsystem: serviceName,
			Name:      "task_retries_total",
			Help:      "Background task retry attempts",
		}),

		HTTPRequestsTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "vacuum",
			Subsystem: serviceName,
			Name:      "http_requests_total",
			Help:      "Total HTTP requests",
		}),
		HTTPRequestDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "vacuum",
			Subsystem: serviceName,
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request duration in seconds",
			Buckets:   prometheus.DefBuckets,
		}),
	}

	m.registry.MustRegister(
		m.OrdersPlacedTotal, m.OrdersRejectedTotal, m.OrdersCancelledTotal,
		m.OrdersExpiredTotal, m.TradesExecutedTotal, m.TradeVolumeTotal,
		m.PriceUpdatesTotal, m.MarketEventsTotal, m.ActiveEvents, m.ActiveAgents,
		m.TasksCompletedTotal, m.TasksFailedTotal, m.TaskRetriesTotal,
		m.HTTPRequestsTotal, m.HTTPRequestDuration,
	)

	return m
}

// Handler 返回 Prometheus 拉取端点
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// Serve 在独立端口上暴露指标端点，阻塞运行
func (m *Metrics) Serve(port int, path string) error {
	mux := http.NewServeMux()
	mux.Handle(path, m.Handler())
	return http.ListenAndServe(fmt.Sprintf(":%d", port), mux)
}
