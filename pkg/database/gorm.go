package database

import (
	"fmt"
	"log"
	"os"
	"time"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// PoolConfig sizes the connection pool behind a *gorm.DB.
type PoolConfig struct {
	MaxIdleConns    int
	MaxOpenConns    int
	ConnMaxLifetime time.Duration
}

var DefaultPool = PoolConfig{
	MaxIdleConns:    10,
	MaxOpenConns:    50,
	ConnMaxLifetime: time.Hour,
}

func newLogger(level logger.LogLevel) logger.Interface {
	return logger.New(
		log.New(os.Stdout, "\r\n", log.LstdFlags),
		logger.Config{
			SlowThreshold:             500 * time.Millisecond,
			LogLevel:                  level,
			IgnoreRecordNotFoundError: true,
			// embedding vectors would flood the log
			ParameterizedQueries: true,
			Colorful:             false,
		},
	)
}

// Open connects to Postgres with the given pool. Only slow queries and
// errors are logged unless verbose is set.
func Open(dsn string, pool PoolConfig, verbose bool) (*gorm.DB, error) {
	if dsn == "" {
		return nil, fmt.Errorf("empty database dsn")
	}

	level := logger.Warn
	if verbose {
		level = logger.Info
	}
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{Logger: newLogger(level)})
	if err != nil {
		return nil, err
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}
	sqlDB.SetMaxIdleConns(pool.MaxIdleConns)
	sqlDB.SetMaxOpenConns(pool.MaxOpenConns)
	sqlDB.SetConnMaxLifetime(pool.ConnMaxLifetime)

	return db, nil
}

func NewGormDBFromDSN(dsn string) (*gorm.DB, error) {
	return Open(dsn, DefaultPool, false)
}

// EnsureVectorExtension installs pgvector; the chunk_embeddings table needs it.
func EnsureVectorExtension(db *gorm.DB) error {
	return db.Exec(`CREATE EXTENSION IF NOT EXISTS vector`).Error
}
