package migrate

import (
	"errors"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/golang-migrate/migrate/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	gormpostgres "gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// fakeMigrator возвращает заранее заданный результат Up и считает вызовы
type fakeMigrator struct {
	err   error
	calls int
}

func (f *fakeMigrator) Up() error {
	f.calls++
	return f.err
}

// ===================== applyUp Tests =====================

func TestApplyUp(t *testing.T) {
	tests := []struct {
		name    string
		upErr   error
		wantErr error
	}{
		{name: "applied", upErr: nil, wantErr: nil},
		{name: "schema already up to date", upErr: migrate.ErrNoChange, wantErr: nil},
		{name: "migration failed", upErr: errors.New("syntax error at or near"), wantErr: errors.New("syntax error at or near")},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			// Arrange
			m := &fakeMigrator{err: tt.upErr}

			// Act
			err := applyUp(m)

			// Assert
			assert.Equal(t, 1, m.calls)
			if tt.wantErr == nil {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.ErrorIs(t, err, tt.upErr)
			assert.Contains(t, err.Error(), "applying migrations")
		})
	}
}

// ===================== RunMigrations Tests =====================

func TestRunMigrations_DriverError(t *testing.T) {
	// Arrange
	sqlDB, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer sqlDB.Close()

	db, err := gorm.Open(gormpostgres.New(gormpostgres.Config{
		Conn:       sqlDB,
		DriverName: "postgres",
	}), &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)})
	require.NoError(t, err)

	// драйвер не может определить текущую базу
	mock.ExpectQuery("SELECT CURRENT_DATABASE()").WillReturnError(errors.New("connection reset by peer"))

	// Act
	err = RunMigrations(db, "exchange-service/migrations")

	// Assert
	require.Error(t, err)
	assert.Contains(t, err.Error(), "creating postgres driver")
}
