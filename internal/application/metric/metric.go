package metric

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// HTTP метрики - количество запросов
	httpRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Общее количество HTTP запросов",
		},
		[]string{"method", "endpoint", "status"},
	)

	// HTTP метрики - время обработки запросов
	httpRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "Время обработки HTTP запросов в секундах",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "endpoint", "status"},
	)

	// HTTP метрики - количество ошибок
	httpErrorsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_errors_total",
			Help: "Общее количество HTTP ошибок",
		},
		[]string{"method", "endpoint", "status"},
	)

	// WS метрики - количество активных соединений
	wsActiveConnections = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "ws_active_connections",
			Help: "Количество активных WebSocket соединений",
		},
	)

	waitingQueueDepth = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "waiting_queue_depth",
			Help: "Количество клиентов в очереди ожидания по режимам",
		},
		[]string{"mode"},
	)

	matchesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "matches_total",
			Help: "Количество созданных пар",
		},
		[]string{"mode"},
	)

	sessionsEndedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "sessions_ended_total",
			Help: "Количество завершенных сессий по причинам",
		},
		[]string{"reason"},
	)

	signalsDroppedTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "signals_dropped_total",
			Help: "Сигналы, отброшенные из-за отсутствия получателя",
		},
	)

	groupMessagesTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "group_messages_total",
			Help: "Количество сообщений в группах",
		},
	)

	inboundRejectedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "inbound_rejected_total",
			Help: "Отклоненные входящие события",
		},
		[]string{"reason"},
	)

	bridgeRecordsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "bridge_records_total",
			Help: "Записи моста персистентности по sink, типу и результату",
		},
		[]string{"sink", "kind", "result"},
	)
)

// RecordHTTPMetrics записывает метрики HTTP запроса
func RecordHTTPMetrics(method, endpoint string, status int, duration time.Duration) {
	strStatus := strconv.Itoa(status)

	httpRequestsTotal.WithLabelValues(method, endpoint, strStatus).Inc()
	httpRequestDuration.WithLabelValues(method, endpoint, strStatus).Observe(duration.Seconds())

	// Записываем ошибки (статус >= 400)
	if status >= 400 {
		httpErrorsTotal.WithLabelValues(method, endpoint, strStatus).Inc()
	}
}

func IncrementWSActiveConnections() {
	wsActiveConnections.Inc()
}

func DecrementWSActiveConnections() {
	wsActiveConnections.Dec()
}

func SetWaitingQueueDepth(mode string, depth int) {
	waitingQueueDepth.WithLabelValues(mode).Set(float64(depth))
}

func IncrementMatches(mode string) {
	matchesTotal.WithLabelValues(mode).Inc()
}

func IncrementSessionsEnded(reason string) {
	sessionsEndedTotal.WithLabelValues(reason).Inc()
}

func IncrementSignalsDropped() {
	signalsDroppedTotal.Inc()
}

func IncrementGroupMessages() {
	groupMessagesTotal.Inc()
}

func IncrementInboundRejected(reason string) {
	inboundRejectedTotal.WithLabelValues(reason).Inc()
}

// RecordBridgeResult result: ok, failed, dropped
func RecordBridgeResult(sink, kind, result string) {
	bridgeRecordsTotal.WithLabelValues(sink, kind, result).Inc()
}
