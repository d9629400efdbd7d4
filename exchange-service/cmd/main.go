package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"exchanger/exchange-service/internal/app/exchange/config"
	"exchanger/exchange-service/internal/app/exchange/handler"
	"exchanger/exchange-service/internal/app/exchange/infrastructure"
	"exchanger/exchange-service/internal/app/exchange/infrastructure/currencyapi"
	"exchanger/exchange-service/internal/app/exchange/infrastructure/messaging"
	"exchanger/exchange-service/internal/app/exchange/infrastructure/migrate"
	"exchanger/exchange-service/internal/app/exchange/processor"
	"exchanger/exchange-service/internal/app/exchange/repository"
	"exchanger/exchange-service/internal/app/exchange/service"
	"exchanger/exchange-service/internal/app/exchange/util"
	"exchanger/pkg/logger"
)

const serviceName = "exchange-service"

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using environment variables")
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	logger.Init(serviceName, cfg.Log.Level)
	if cfg.Log.LogstashAddr != "" {
		if err := logger.InitLogstash(cfg.Log.LogstashAddr, serviceName, cfg.Log.Level); err != nil {
			logger.Warn().Err(err).Msg("Failed to connect to Logstash, using stdout only")
		} else {
			logger.Info().Str("logstash_addr", cfg.Log.LogstashAddr).Msg("Connected to Logstash")
		}
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// PostgreSQL: GORM для транзакций и миграций, pgx для пользователей
	gormDB, err := connectGorm(cfg.Database)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	log.Println("Connected to PostgreSQL (gorm)")

	if err := migrate.RunMigrations(gormDB, cfg.MigrationsPath); err != nil {
		log.Fatalf("Failed to run migrations: %v", err)
	}

	pool, err := connectPool(ctx, cfg.Database)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer pool.Close()
	log.Println("Connected to PostgreSQL (pgx)")

	// Кеш курсов: память процесса, опционально общий снимок в Redis
	// общая загрузка должна пережить все попытки провайдера
	attempts := time.Duration(cfg.CurrencyAPI.MaxRetries + 1)
	cacheOpts := []service.RatesCacheOption{
		service.WithCacheLogger(logger.Component("rates_cache")),
		service.WithFetchTimeout(attempts*(cfg.CurrencyAPI.Timeout+cfg.CurrencyAPI.RetryDelay) + 5*time.Second),
	}
	if cfg.Rates.SharedCache {
		redisClient := connectRedis(cfg.Redis)
		defer redisClient.Close()
		if err := redisClient.Ping(ctx).Err(); err != nil {
			logger.Warn().Err(err).Msg("Redis is unavailable, rates snapshot will be skipped until it recovers")
		} else {
			log.Println("Connected to Redis")
		}
		cacheOpts = append(cacheOpts, service.WithSnapshotStore(repository.NewRatesSnapshotRepository(redisClient)))
	}
	ratesCache := service.NewRatesCache(service.SystemClock, cacheOpts...)

	provider, err := currencyapi.New(
		cfg.CurrencyAPI.APIKey,
		currencyapi.WithBaseURL(cfg.CurrencyAPI.BaseURL),
		currencyapi.WithAPIVersion(cfg.CurrencyAPI.Version),
		currencyapi.WithDefaultBase(cfg.CurrencyAPI.DefaultBase),
		currencyapi.WithMaxRetries(cfg.CurrencyAPI.MaxRetries),
		currencyapi.WithRetryDelay(cfg.CurrencyAPI.RetryDelay),
		currencyapi.WithTransport(currencyapi.NewTransport(
			cfg.CurrencyAPI.Timeout,
			currencyapi.NewLimiter(cfg.CurrencyAPI.RequestsPerSecond),
		)),
		currencyapi.WithLogger(logger.Component("currency_api")),
	)
	if err != nil {
		log.Fatalf("Failed to create currency api client: %v", err)
	}

	var publisher infrastructure.MessagePublisher
	if cfg.Kafka.Enabled {
		producer := messaging.NewKafkaProducer(cfg.Kafka.Brokers, cfg.Kafka.TransactionsTopic)
		defer producer.Close()
		publisher = producer
		log.Printf("Kafka producer initialized, topic: %s", cfg.Kafka.TransactionsTopic)
	}

	userRepo := repository.NewUserRepository(pool)
	transactionRepo := repository.NewTransactionRepository(gormDB)

	conversionService := service.NewConversionService(provider, ratesCache, provider.DefaultBaseCurrency(), logger.Component("conversion"))
	transactionService := service.NewTransactionService(conversionService, transactionRepo, userRepo, publisher, logger.Component("transactions"))
	authService := service.NewAuthService(userRepo, util.NewJWTManager(cfg.JWT.Secret, cfg.JWT.TokenTTL))

	scheduler := processor.NewCronScheduler(conversionService, logger.Component("warmup"))
	if err := scheduler.Start(ctx, cfg.Rates.WarmUpSchedule); err != nil {
		log.Fatalf("Failed to start cron scheduler: %v", err)
	}

	router := handler.SetupRoutes(
		handler.NewSessionHandler(authService),
		handler.NewTransactionHandler(transactionService),
		handler.NewRatesHandler(conversionService),
		handler.NewAuthMiddleware(authService),
	)

	server := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 60 * time.Second, // запрос курсов может включать несколько повторов
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		logger.Info().Str("port", cfg.Server.Port).Msg("Starting Exchange Service")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal().Err(err).Msg("Failed to start server")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info().Msg("Shutting down Exchange Service...")

	scheduler.Stop()
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("Server forced to shutdown")
	}

	logger.Info().Msg("Exchange Service stopped gracefully")
}

func connectGorm(cfg config.DatabaseConfig) (*gorm.DB, error) {
	gormConfig := &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Warn),
	}

	var (
		db  *gorm.DB
		err error
	)
	for i := 0; i < 10; i++ {
		db, err = gorm.Open(postgres.Open(cfg.DSN()), gormConfig)
		if err == nil {
			sqlDB, sqlErr := db.DB()
			if sqlErr != nil {
				err = sqlErr
			} else if err = sqlDB.Ping(); err == nil {
				sqlDB.SetMaxOpenConns(25)
				sqlDB.SetMaxIdleConns(5)
				sqlDB.SetConnMaxLifetime(5 * time.Minute)
				sqlDB.SetConnMaxIdleTime(1 * time.Minute)
				return db, nil
			}
		}
		log.Printf("Failed to connect to database (attempt %d/10): %v", i+1, err)
		time.Sleep(3 * time.Second)
	}

	return nil, fmt.Errorf("failed to connect after 10 attempts: %w", err)
}

func connectPool(ctx context.Context, cfg config.DatabaseConfig) (*pgxpool.Pool, error) {
	poolConfig, err := pgxpool.ParseConfig(cfg.URL())
	if err != nil {
		return nil, fmt.Errorf("failed to parse pool config: %w", err)
	}

	poolConfig.MaxConns = 10
	poolConfig.MinConns = 2
	poolConfig.MaxConnLifetime = 5 * time.Minute
	poolConfig.MaxConnIdleTime = 1 * time.Minute
	poolConfig.HealthCheckPeriod = 1 * time.Minute

	pool, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		return nil, err
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, err
	}
	return pool, nil
}

func connectRedis(cfg config.RedisConfig) *redis.Client {
	return redis.NewClient(&redis.Options{
		Addr:         cfg.Address(),
		Password:     cfg.Password,
		DB:           cfg.DB,
		DialTimeout:  5 * time.Second,
		ReadTimeout:  3 * time.Second,
		WriteTimeout: 3 * time.Second,
		PoolSize:     10,
		MinIdleConns: 2,
	})
}
