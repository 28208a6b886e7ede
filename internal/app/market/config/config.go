package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config содержит все настройки приложения
// Включает конфигурацию для HTTP сервера, PostgreSQL, MongoDB, Redis, Kafka,
// JWT и политик домена (пароли, wishlist)
type Config struct {
	Server   ServerConfig
	Database DatabaseConfig
	Mongo    MongoConfig
	Redis    RedisConfig
	Kafka    KafkaConfig
	JWT      JWTConfig
	Password PasswordConfig
	Wishlist WishlistConfig
	Images   ImageConfig
	LogLevel string
}

// ServerConfig - настройки HTTP сервера
type ServerConfig struct {
	Host string
	Port string
}

// DatabaseConfig - настройки подключения к PostgreSQL
// Хранит пользователей, магазины, товары, категории, заказы и адреса
type DatabaseConfig struct {
	Host     string
	Port     string
	User     string
	Password string
	DBName   string
	SSLMode  string
}

// MongoConfig - настройки подключения к MongoDB
// Хранит отзывы и оценки полезности отзывов
type MongoConfig struct {
	URI    string
	DBName string
}

// RedisConfig - настройки подключения к Redis
// Кеш списка категорий и хранилище refresh токенов
type RedisConfig struct {
	Host     string
	Port     string
	Password string
	DB       int
}

// KafkaConfig - настройки Kafka для событий маркетплейса
type KafkaConfig struct {
	Brokers       []string
	ProductTopic  string // PRODUCT_UPDATED при смене цены
	OrderTopic    string // ORDER_CREATED, ORDER_UPDATED
	ReviewTopic   string // REVIEW_CREATED
	ConsumerGroup string
}

// JWTConfig - настройки для JWT токенов
type JWTConfig struct {
	SecretKey            string
	AccessTokenDuration  time.Duration
	RefreshTokenDuration time.Duration
}

// PasswordConfig - политика сложности паролей
// Проверка реализована как чистая функция над этой конфигурацией
type PasswordConfig struct {
	MinLength int
	// Denylist - запрещённые распространённые пароли, сравнение без учёта регистра
	Denylist []string
}

// WishlistConfig - политика списка желаний
// В исходных данных нет ограничения уникальности (user, product),
// поэтому поведение вынесено в конфигурацию
type WishlistConfig struct {
	AllowDuplicates bool
}

// ImageConfig - ограничения для загружаемых изображений
type ImageConfig struct {
	MaxSizeBytes int64
	AllowedExts  []string
	StorageDir   string
}

// Load загружает конфигурацию из переменных окружения
func Load() (*Config, error) {
	redisDB, err := strconv.Atoi(getEnv("REDIS_DB", "0"))
	if err != nil {
		return nil, fmt.Errorf("invalid REDIS_DB value: %w", err)
	}

	accessDuration, err := time.ParseDuration(getEnv("JWT_ACCESS_DURATION", "15m"))
	if err != nil {
		return nil, fmt.Errorf("invalid JWT_ACCESS_DURATION: %w", err)
	}

	refreshDuration, err := time.ParseDuration(getEnv("JWT_REFRESH_DURATION", "168h")) // 7 дней
	if err != nil {
		return nil, fmt.Errorf("invalid JWT_REFRESH_DURATION: %w", err)
	}

	minLength, err := strconv.Atoi(getEnv("PASSWORD_MIN_LENGTH", "8"))
	if err != nil {
		return nil, fmt.Errorf("invalid PASSWORD_MIN_LENGTH: %w", err)
	}

	return &Config{
		Server: ServerConfig{
			Host: getEnv("SERVER_HOST", "0.0.0.0"),
			Port: getEnv("SERVER_PORT", "8080"),
		},
		Database: DatabaseConfig{
			Host:     getEnv("DB_HOST", "localhost"),
			Port:     getEnv("DB_PORT", "5432"),
			User:     getEnv("DB_USER", "postgres"),
			Password: getEnv("DB_PASSWORD", "postgres"),
			DBName:   getEnv("DB_NAME", "marketplace"),
			SSLMode:  getEnv("DB_SSLMODE", "disable"),
		},
		Mongo: MongoConfig{
			URI:    getEnv("MONGO_URI", "mongodb://localhost:27017"),
			DBName: getEnv("MONGO_DB", "marketplace_reviews"),
		},
		Redis: RedisConfig{
			Host:     getEnv("REDIS_HOST", "localhost"),
			Port:     getEnv("REDIS_PORT", "6379"),
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       redisDB,
		},
		Kafka: KafkaConfig{
			Brokers:       strings.Split(getEnv("KAFKA_BROKERS", "localhost:9092"), ","),
			ProductTopic:  getEnv("KAFKA_PRODUCT_TOPIC", "product_events"),
			OrderTopic:    getEnv("KAFKA_ORDER_TOPIC", "order_events"),
			ReviewTopic:   getEnv("KAFKA_REVIEW_TOPIC", "review_events"),
			ConsumerGroup: getEnv("KAFKA_CONSUMER_GROUP", "marketplace-stats"),
		},
		JWT: JWTConfig{
			SecretKey:            getEnv("JWT_SECRET", "your-secret-key-change-this-in-production"),
			AccessTokenDuration:  accessDuration,
			RefreshTokenDuration: refreshDuration,
		},
		Password: PasswordConfig{
			MinLength: minLength,
			Denylist:  splitNonEmpty(getEnv("PASSWORD_DENYLIST", "")),
		},
		Wishlist: WishlistConfig{
			AllowDuplicates: getEnvBool("WISHLIST_ALLOW_DUPLICATES", false),
		},
		Images: ImageConfig{
			MaxSizeBytes: 2 * 1024 * 1024, // 2 MB
			AllowedExts:  []string{"jpg", "jpeg", "png"},
			StorageDir:   getEnv("IMAGE_STORAGE_DIR", "./uploads"),
		},
		LogLevel: getEnv("LOG_LEVEL", "info"),
	}, nil
}

// DSN возвращает строку подключения к PostgreSQL в формате libpq
func (c *DatabaseConfig) DSN() string {
	return fmt.Sprintf(
		"host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.DBName, c.SSLMode,
	)
}

// URL возвращает строку подключения к PostgreSQL в формате URL для pgx
func (c *DatabaseConfig) URL() string {
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%s/%s?sslmode=%s",
		c.User, c.Password, c.Host, c.Port, c.DBName, c.SSLMode,
	)
}

// Address возвращает адрес сервера в формате host:port
func (c *ServerConfig) Address() string {
	return c.Host + ":" + c.Port
}

// Address возвращает адрес Redis в формате host:port
func (c *RedisConfig) Address() string {
	return c.Host + ":" + c.Port
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	parsed, err := strconv.ParseBool(value)
	if err != nil {
		return defaultValue
	}
	return parsed
}

func splitNonEmpty(value string) []string {
	if value == "" {
		return nil
	}
	parts := strings.Split(value, ",")
	result := make([]string, 0, len(parts))
	for _, p := range parts {
		if trimmed := strings.TrimSpace(p); trimmed != "" {
			result = append(result, trimmed)
		}
	}
	return result
}
