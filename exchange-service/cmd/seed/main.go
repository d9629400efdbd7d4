package main

import (
	"context"
	"log"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/joho/godotenv"
	"github.com/shopspring/decimal"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"exchanger/exchange-service/internal/app/exchange/config"
	"exchanger/exchange-service/internal/app/exchange/entity"
	"exchanger/exchange-service/internal/app/exchange/infrastructure/migrate"
	"exchanger/exchange-service/internal/app/exchange/repository"
	"exchanger/exchange-service/internal/app/exchange/util"
)

const (
	seedEmail    = "user@example.com"
	seedPassword = "supersecret"
)

// sample - пример транзакции: from_value, to_value и rate как в исторических данных
type sample struct {
	from, to   string
	fromValue  string
	toValue    string
	rate       string
	minutesAgo int
}

var samples = []sample{
	{from: "USD", to: "EUR", fromValue: "100", toValue: "92", rate: "0.92", minutesAgo: 30},
	{from: "EUR", to: "JPY", fromValue: "50", toValue: "7700", rate: "154", minutesAgo: 20},
	{from: "GBP", to: "USD", fromValue: "75", toValue: "95.25", rate: "1.27", minutesAgo: 10},
}

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using environment variables")
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	ctx := context.Background()

	gormDB, err := gorm.Open(postgres.Open(cfg.Database.DSN()), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Warn),
	})
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	if err := migrate.RunMigrations(gormDB, cfg.MigrationsPath); err != nil {
		log.Fatalf("Failed to run migrations: %v", err)
	}

	pool, err := pgxpool.New(ctx, cfg.Database.URL())
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer pool.Close()

	userRepo := repository.NewUserRepository(pool)
	transactionRepo := repository.NewTransactionRepository(gormDB)

	count, err := userRepo.Count(ctx)
	if err != nil {
		log.Fatalf("Failed to count users: %v", err)
	}
	if count > 0 {
		log.Printf("Database already has %d users, skipping seed", count)
		return
	}

	digest, err := util.HashPassword(seedPassword)
	if err != nil {
		log.Fatalf("Failed to hash password: %v", err)
	}

	now := time.Now().UTC()
	user := &entity.User{
		ID:             uuid.New(),
		EmailAddress:   seedEmail,
		PasswordDigest: digest,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	if err := userRepo.Create(ctx, user); err != nil {
		log.Fatalf("Failed to create user: %v", err)
	}

	txs := make([]entity.Transaction, 0, len(samples))
	for _, s := range samples {
		createdAt := now.Add(-time.Duration(s.minutesAgo) * time.Minute)
		txs = append(txs, entity.Transaction{
			ID:           uuid.New(),
			UserID:       user.ID,
			FromCurrency: s.from,
			ToCurrency:   s.to,
			FromValue:    decimal.RequireFromString(s.fromValue),
			ToValue:      decimal.RequireFromString(s.toValue),
			Rate:         decimal.RequireFromString(s.rate),
			CreatedAt:    createdAt,
			UpdatedAt:    createdAt,
		})
	}
	if err := transactionRepo.CreateBatch(ctx, txs); err != nil {
		log.Fatalf("Failed to create transactions: %v", err)
	}

	log.Printf("Seeded user %s with %d transactions", seedEmail, len(txs))
}
