package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// =============================================================================
// HTTP Метрики
// =============================================================================

// HttpRequestsTotal - счётчик всех HTTP запросов
// Labels: service, method, path, status
// Пример запроса PromQL: rate(http_requests_total{service="marketplace"}[5m])
var HttpRequestsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Name: "http_requests_total",
		Help: "Total number of HTTP requests",
	},
	[]string{"service", "method", "path", "status"},
)

// HttpRequestDuration - гистограмма времени ответа
// Пример: histogram_quantile(0.95, rate(http_request_duration_seconds_bucket[5m]))
var HttpRequestDuration = promauto.NewHistogramVec(
	prometheus.HistogramOpts{
		Name:    "http_request_duration_seconds",
		Help:    "Duration of HTTP requests in seconds",
		Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
	},
	[]string{"service", "method", "path"},
)

// HttpRequestsInFlight - текущее количество обрабатываемых запросов
var HttpRequestsInFlight = promauto.NewGaugeVec(
	prometheus.GaugeOpts{
		Name: "http_requests_in_flight",
		Help: "Current number of HTTP requests being processed",
	},
	[]string{"service"},
)

// =============================================================================
// Database Метрики
// =============================================================================

// DbQueryDuration - время выполнения запросов к хранилищам
var DbQueryDuration = promauto.NewHistogramVec(
	prometheus.HistogramOpts{
		Name:    "db_query_duration_seconds",
		Help:    "Duration of database queries in seconds",
		Buckets: []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1, 5},
	},
	[]string{"service", "operation", "table"},
)

// DbErrors - счётчик ошибок хранилища
var DbErrors = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Name: "db_errors_total",
		Help: "Total number of database errors",
	},
	[]string{"service", "operation"},
)

// =============================================================================
// Redis Метрики
// =============================================================================

var RedisCacheHits = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Name: "redis_cache_hits_total",
		Help: "Total number of Redis cache hits",
	},
	[]string{"service", "key_prefix"},
)

var RedisCacheMisses = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Name: "redis_cache_misses_total",
		Help: "Total number of Redis cache misses",
	},
	[]string{"service", "key_prefix"},
)

// =============================================================================
// Kafka Метрики
// =============================================================================

var KafkaMessagesProduced = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Name: "kafka_messages_produced_total",
		Help: "Total number of messages produced to Kafka",
	},
	[]string{"service", "topic"},
)

var KafkaMessagesConsumed = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Name: "kafka_messages_consumed_total",
		Help: "Total number of messages consumed from Kafka",
	},
	[]string{"service", "topic", "group"},
)

var KafkaErrors = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Name: "kafka_errors_total",
		Help: "Total number of Kafka errors",
	},
	[]string{"service", "topic", "operation"},
)

// =============================================================================
// Бизнес-метрики маркетплейса
// =============================================================================

// AuthRegistrations - количество успешных регистраций
var AuthRegistrations = promauto.NewCounter(
	prometheus.CounterOpts{
		Name: "marketplace_registrations_total",
		Help: "Total number of successful user registrations",
	},
)

// AuthLogins - количество попыток входа по результату
// Labels: result (success/failed)
var AuthLogins = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Name: "marketplace_logins_total",
		Help: "Total number of login attempts",
	},
	[]string{"result"},
)

// ShopsCreated - количество созданных магазинов
var ShopsCreated = promauto.NewCounter(
	prometheus.CounterOpts{
		Name: "marketplace_shops_created_total",
		Help: "Total number of shops created",
	},
)

// ProductsCreated - количество созданных товаров
var ProductsCreated = promauto.NewCounter(
	prometheus.CounterOpts{
		Name: "marketplace_products_created_total",
		Help: "Total number of products created",
	},
)

// PriceChanges - количество изменений цены (каждое добавляет строку истории)
var PriceChanges = promauto.NewCounter(
	prometheus.CounterOpts{
		Name: "marketplace_price_changes_total",
		Help: "Total number of product price changes",
	},
)

// OrdersCreated - количество созданных заказов
var OrdersCreated = promauto.NewCounter(
	prometheus.CounterOpts{
		Name: "marketplace_orders_created_total",
		Help: "Total number of orders created",
	},
)

// ReviewsCreated - количество созданных отзывов
var ReviewsCreated = promauto.NewCounter(
	prometheus.CounterOpts{
		Name: "marketplace_reviews_created_total",
		Help: "Total number of reviews created",
	},
)

// InvariantViolations - отклонённые операции по типу нарушенного инварианта
// Labels: invariant (already_owns_shop, too_many_colors, rating_range, duplicate_review, ...)
var InvariantViolations = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Name: "marketplace_invariant_violations_total",
		Help: "Total number of operations rejected by domain invariants",
	},
	[]string{"invariant"},
)
