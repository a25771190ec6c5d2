package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics はアプリケーションのメトリクスを管理する
type Metrics struct {
	// HTTPリクエストの総数（method, path, status_code）
	HTTPRequestsTotal *prometheus.CounterVec

	// HTTPリクエストのレイテンシ（method, path）
	HTTPRequestDuration *prometheus.HistogramVec

	// 予約作成の結果（status: success, conflict, validation, lock_failed, error）
	BookingsTotal *prometheus.CounterVec

	// キャンセルの結果（status: success, rejected, error）
	CancellationsTotal *prometheus.CounterVec

	// 確保した座席数（class）
	SeatsReservedTotal *prometheus.CounterVec

	// 解放した座席数
	SeatsReleasedTotal prometheus.Counter

	// 分散ロックの操作時間（operation: acquire/release, status: success/failed）
	DistributedLockDuration *prometheus.HistogramVec

	// 予約通知の送信結果（kind: confirmation/cancellation, status: sent/failed）
	NotificationsTotal *prometheus.CounterVec

	// フライト検索の結果ソース（source: existing, provider, fallback, empty）
	FlightSearchesTotal *prometheus.CounterVec
}

// New は新しいMetricsインスタンスを作成し、デフォルトレジストリに登録する
func New() *Metrics {
	return NewWithRegistry(prometheus.DefaultRegisterer)
}

// NewWithRegistry は指定したレジストリにメトリクスを登録する
func NewWithRegistry(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		HTTPRequestsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "http_requests_total",
				Help: "Total number of HTTP requests",
			},
			[]string{"method", "path", "status_code"},
		),
		HTTPRequestDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "http_request_duration_seconds",
				Help:    "HTTP request latency in seconds",
				Buckets: []float64{.005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10},
			},
			[]string{"method", "path"},
		),
		BookingsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "bookings_total",
				Help: "Total number of booking attempts by outcome",
			},
			[]string{"status"},
		),
		CancellationsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "booking_cancellations_total",
				Help: "Total number of booking cancellation attempts by outcome",
			},
			[]string{"status"},
		),
		SeatsReservedTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "seats_reserved_total",
				Help: "Total number of seats flipped to unavailable",
			},
			[]string{"class"},
		),
		SeatsReleasedTotal: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "seats_released_total",
				Help: "Total number of seats returned to inventory",
			},
		),
		DistributedLockDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "distributed_lock_duration_seconds",
				Help:    "Time spent on distributed lock operations",
				Buckets: []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1},
			},
			[]string{"operation", "status"},
		),
		NotificationsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "booking_notifications_total",
				Help: "Total number of booking notifications by kind and outcome",
			},
			[]string{"kind", "status"},
		),
		FlightSearchesTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "flight_searches_total",
				Help: "Total number of flight searches by result source",
			},
			[]string{"source"},
		),
	}

	reg.MustRegister(
		m.HTTPRequestsTotal,
		m.HTTPRequestDuration,
		m.BookingsTotal,
		m.CancellationsTotal,
		m.SeatsReservedTotal,
		m.SeatsReleasedTotal,
		m.DistributedLockDuration,
		m.NotificationsTotal,
		m.FlightSearchesTotal,
	)

	return m
}

// デフォルトのメトリクスインスタンス
var defaultMetrics *Metrics

// Init はデフォルトのメトリクスインスタンスを初期化する
func Init() *Metrics {
	defaultMetrics = New()
	return defaultMetrics
}

// Get はデフォルトのメトリクスインスタンスを返す（未初期化なら nil）
func Get() *Metrics {
	return defaultMetrics
}

// RecordBooking は予約作成の結果を記録する
func RecordBooking(status string) {
	if m := Get(); m != nil {
		m.BookingsTotal.WithLabelValues(status).Inc()
	}
}

// RecordCancellation はキャンセルの結果を記録する
func RecordCancellation(status string) {
	if m := Get(); m != nil {
		m.CancellationsTotal.WithLabelValues(status).Inc()
	}
}

// RecordSeatsReserved は確保した座席数を記録する
func RecordSeatsReserved(class string, n int) {
	if m := Get(); m != nil && n > 0 {
		m.SeatsReservedTotal.WithLabelValues(class).Add(float64(n))
	}
}

// RecordSeatsReleased は解放した座席数を記録する
func RecordSeatsReleased(n int) {
	if m := Get(); m != nil && n > 0 {
		m.SeatsReleasedTotal.Add(float64(n))
	}
}

// ObserveLock は分散ロック操作の所要時間を記録する
func ObserveLock(operation, status string, seconds float64) {
	if m := Get(); m != nil {
		m.DistributedLockDuration.WithLabelValues(operation, status).Observe(seconds)
	}
}

// RecordNotification は通知送信の結果を記録する
func RecordNotification(kind, status string) {
	if m := Get(); m != nil {
		m.NotificationsTotal.WithLabelValues(kind, status).Inc()
	}
}

// RecordFlightSearch はフライト検索の結果ソースを記録する
func RecordFlightSearch(source string) {
	if m := Get(); m != nil {
		m.FlightSearchesTotal.WithLabelValues(source).Inc()
	}
}
