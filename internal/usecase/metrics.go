package usecase

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// カート操作のメトリクス。regがnilなら登録しない（テスト用）。
type Metrics struct {
	mutations       *prometheus.CounterVec
	storageFailures *prometheus.CounterVec
	checkouts       *prometheus.CounterVec
	sessions        prometheus.Gauge
}

func NewMetrics(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		mutations: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: "storefront",
			Subsystem: "cart",
			Name:      "mutations_total",
			Help:      "Cart mutations by operation.",
		}, []string{"op"}),
		storageFailures: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: "storefront",
			Subsystem: "cart",
			Name:      "storage_failures_total",
			Help:      "Cart saves that failed and were kept in memory only.",
		}, []string{"op"}),
		checkouts: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: "storefront",
			Name:      "checkouts_total",
			Help:      "Checkout attempts by result.",
		}, []string{"result"}),
		sessions: f.NewGauge(prometheus.GaugeOpts{
			Namespace: "storefront",
			Subsystem: "cart",
			Name:      "sessions",
			Help:      "Cart sessions held in memory.",
		}),
	}
}
