package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

var (
	ErrMissingAPIKey    = errors.New("CURRENCY_API_KEY is required")
	ErrMissingJWTSecret = errors.New("JWT_SECRET is required")
)

// Config содержит все настройки приложения Exchange Service
type Config struct {
	Server         ServerConfig
	Database       DatabaseConfig
	Redis          RedisConfig
	Kafka          KafkaConfig
	JWT            JWTConfig
	CurrencyAPI    CurrencyAPIConfig
	Rates          RatesConfig
	Log            LogConfig
	MigrationsPath string
}

// ServerConfig - настройки HTTP сервера
type ServerConfig struct {
	Port string
}

// DatabaseConfig - настройки подключения к PostgreSQL
type DatabaseConfig struct {
	Host     string
	Port     string
	User     string
	Password string
	DBName   string
	SSLMode  string
}

// RedisConfig - общий снимок курсов для нескольких инстансов
type RedisConfig struct {
	Host     string
	Port     string
	Password string
	DB       int
}

// KafkaConfig - публикация событий о созданных транзакциях
type KafkaConfig struct {
	Enabled           bool
	Brokers           []string
	TransactionsTopic string
}

// JWTConfig - подпись токенов сессии
type JWTConfig struct {
	Secret   string
	TokenTTL time.Duration
}

// CurrencyAPIConfig - настройки клиента currencyapi.com
type CurrencyAPIConfig struct {
	APIKey            string
	BaseURL           string
	Version           string
	DefaultBase       string
	MaxRetries        int
	RetryDelay        time.Duration
	Timeout           time.Duration // таймаут одной попытки
	RequestsPerSecond float64       // 0 - без ограничения
}

// RatesConfig - кеш и прогрев курсов
type RatesConfig struct {
	WarmUpSchedule string
	SharedCache    bool // хранить снимок курсов в Redis
}

// LogConfig - уровень логирования и опциональный Logstash
type LogConfig struct {
	Level        string
	LogstashAddr string
}

// Load загружает конфигурацию из переменных окружения
// Возвращает ошибку, если не заданы обязательные секреты или значения не парсятся
func Load() (*Config, error) {
	var parseErrs []error

	cfg := &Config{
		Server: ServerConfig{
			Port: getEnv("SERVER_PORT", "8080"),
		},
		Database: DatabaseConfig{
			Host:     getEnv("DB_HOST", "localhost"),
			Port:     getEnv("DB_PORT", "5432"),
			User:     getEnv("DB_USER", "postgres"),
			Password: getEnv("DB_PASSWORD", "postgres"),
			DBName:   getEnv("DB_NAME", "exchange_service"),
			SSLMode:  getEnv("DB_SSLMODE", "disable"),
		},
		Redis: RedisConfig{
			Host:     getEnv("REDIS_HOST", "localhost"),
			Port:     getEnv("REDIS_PORT", "6379"),
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       getEnvInt("REDIS_DB", 0, &parseErrs),
		},
		Kafka: KafkaConfig{
			Enabled:           getEnvBool("KAFKA_ENABLED", true, &parseErrs),
			Brokers:           getEnvList("KAFKA_BROKERS", []string{"localhost:9092"}),
			TransactionsTopic: getEnv("KAFKA_TRANSACTIONS_TOPIC", "transaction_events"),
		},
		JWT: JWTConfig{
			Secret:   os.Getenv("JWT_SECRET"),
			TokenTTL: getEnvDuration("JWT_TOKEN_TTL", 24*time.Hour, &parseErrs),
		},
		CurrencyAPI: CurrencyAPIConfig{
			APIKey:            os.Getenv("CURRENCY_API_KEY"),
			BaseURL:           getEnv("CURRENCY_API_URL", "https://api.currencyapi.com"),
			Version:           getEnv("CURRENCY_API_VERSION", "v3"),
			DefaultBase:       getEnv("CURRENCY_API_DEFAULT_BASE", "USD"),
			MaxRetries:        getEnvInt("CURRENCY_API_MAX_RETRIES", 3, &parseErrs),
			RetryDelay:        getEnvDuration("CURRENCY_API_RETRY_DELAY", 500*time.Millisecond, &parseErrs),
			Timeout:           getEnvDuration("CURRENCY_API_TIMEOUT", 10*time.Second, &parseErrs),
			RequestsPerSecond: getEnvFloat("CURRENCY_API_RPS", 0, &parseErrs),
		},
		Rates: RatesConfig{
			// полночь - граница окна кеша курсов
			WarmUpSchedule: getEnv("RATES_WARMUP_SCHEDULE", "0 0 * * *"),
			SharedCache:    getEnvBool("RATES_SHARED_CACHE", true, &parseErrs),
		},
		Log: LogConfig{
			Level:        getEnv("LOG_LEVEL", "info"),
			LogstashAddr: getEnv("LOGSTASH_ADDR", ""),
		},
		MigrationsPath: getEnv("MIGRATIONS_PATH", "exchange-service/migrations"),
	}

	if len(parseErrs) > 0 {
		return nil, errors.Join(parseErrs...)
	}
	if strings.TrimSpace(cfg.CurrencyAPI.APIKey) == "" {
		return nil, ErrMissingAPIKey
	}
	if cfg.JWT.Secret == "" {
		return nil, ErrMissingJWTSecret
	}
	if cfg.CurrencyAPI.MaxRetries < 0 {
		return nil, fmt.Errorf("CURRENCY_API_MAX_RETRIES must not be negative, got %d", cfg.CurrencyAPI.MaxRetries)
	}

	return cfg, nil
}

// DSN возвращает строку подключения к PostgreSQL в формате libpq
func (c *DatabaseConfig) DSN() string {
	return fmt.Sprintf(
		"host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.DBName, c.SSLMode,
	)
}

// URL возвращает строку подключения в формате postgres:// для pgxpool
func (c *DatabaseConfig) URL() string {
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%s/%s?sslmode=%s",
		c.User, c.Password, c.Host, c.Port, c.DBName, c.SSLMode,
	)
}

// Address возвращает адрес Redis в формате host:port
func (c *RedisConfig) Address() string {
	return c.Host + ":" + c.Port
}

// getEnv получает значение переменной окружения или возвращает значение по умолчанию
func getEnv(key, defaultValue string) string {
	if value, ok := os.LookupEnv(key); ok && value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int, errs *[]error) int {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	n, err := strconv.Atoi(value)
	if err != nil {
		*errs = append(*errs, fmt.Errorf("invalid %s: %w", key, err))
		return defaultValue
	}
	return n
}

func getEnvFloat(key string, defaultValue float64, errs *[]error) float64 {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	f, err := strconv.ParseFloat(value, 64)
	if err != nil {
		*errs = append(*errs, fmt.Errorf("invalid %s: %w", key, err))
		return defaultValue
	}
	return f
}

func getEnvBool(key string, defaultValue bool, errs *[]error) bool {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	b, err := strconv.ParseBool(value)
	if err != nil {
		*errs = append(*errs, fmt.Errorf("invalid %s: %w", key, err))
		return defaultValue
	}
	return b
}

// getEnvDuration принимает формат time.ParseDuration ("500ms", "24h")
func getEnvDuration(key string, defaultValue time.Duration, errs *[]error) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	d, err := time.ParseDuration(value)
	if err != nil {
		*errs = append(*errs, fmt.Errorf("invalid %s: %w", key, err))
		return defaultValue
	}
	return d
}

// getEnvList разбирает список через запятую
func getEnvList(key string, defaultValue []string) []string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	var out []string
	for _, part := range strings.Split(value, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	if len(out) == 0 {
		return defaultValue
	}
	return out
}
