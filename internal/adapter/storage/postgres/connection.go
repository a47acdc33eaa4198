package postgres

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/seu-repo/concierge-webhook/internal/domain"
)

// Options configures the connection pool.
type Options struct {
	MaxIdleConns    int
	MaxOpenConns    int
	ConnMaxLifetime time.Duration
	SlowThreshold   time.Duration
	// LogLevel is one of silent, error, warn, info.
	LogLevel string
}

// zapWriter routes GORM's logger through zap.
type zapWriter struct {
	log *zap.SugaredLogger
}

func (w zapWriter) Printf(format string, args ...interface{}) {
	w.log.Infof(format, args...)
}

func gormLogLevel(level string) logger.LogLevel {
	switch level {
	case "silent":
		return logger.Silent
	case "error":
		return logger.Error
	case "info":
		return logger.Info
	default:
		return logger.Warn
	}
}

// NewConnection initializes a new PostgreSQL connection using GORM
func NewConnection(url string, opts Options, log *zap.Logger) (*gorm.DB, error) {
	if opts.SlowThreshold <= 0 {
		opts.SlowThreshold = 200 * time.Millisecond
	}

	gormLog := logger.New(zapWriter{log: log.Named("gorm").Sugar()}, logger.Config{
		SlowThreshold:             opts.SlowThreshold,
		LogLevel:                  gormLogLevel(opts.LogLevel),
		IgnoreRecordNotFoundError: true,
	})

	db, err := gorm.Open(postgres.Open(url), &gorm.Config{
		Logger: gormLog,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get sql.DB: %w", err)
	}

	if opts.MaxIdleConns > 0 {
		sqlDB.SetMaxIdleConns(opts.MaxIdleConns)
	}
	if opts.MaxOpenConns > 0 {
		sqlDB.SetMaxOpenConns(opts.MaxOpenConns)
	}
	if opts.ConnMaxLifetime > 0 {
		sqlDB.SetConnMaxLifetime(opts.ConnMaxLifetime)
	}

	log.Info("Successfully connected to PostgreSQL",
		zap.Int("max_open_conns", opts.MaxOpenConns),
		zap.Int("max_idle_conns", opts.MaxIdleConns),
	)
	return db, nil
}

// RunMigrations creates or updates the transcript table.
func RunMigrations(db *gorm.DB) error {
	if err := db.AutoMigrate(&domain.Turn{}); err != nil {
		return fmt.Errorf("migrate transcripts: %w", err)
	}
	return nil
}

func Ping(ctx context.Context, db *gorm.DB) error {
	sqlDB, err := db.DB()
	if err != nil {
		return err
	}
	return sqlDB.PingContext(ctx)
}

func Close(db *gorm.DB) error {
	sqlDB, err := db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
