package database

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	"go.uber.org/zap"

	"github.com/selivandex/portfolio-digest/internal/adapters/config"
	"github.com/selivandex/portfolio-digest/pkg/logger"
)

// DB wraps the postgres connection pool
type DB struct {
	conn *sqlx.DB
}

// New creates new database connection
func New(ctx context.Context, cfg *config.DatabaseConfig) (*DB, error) {
	conn, err := sqlx.ConnectContext(ctx, "postgres", cfg.GetDSN())
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	// The digest job is sequential; a small pool is enough
	conn.SetMaxOpenConns(10)
	conn.SetMaxIdleConns(2)
	conn.SetConnMaxLifetime(5 * time.Minute)

	logger.Info("database connection established",
		zap.String("host", cfg.Host),
		zap.Int("port", cfg.Port),
		zap.String("database", cfg.Name),
	)

	return &DB{conn: conn}, nil
}

// Wrap adopts an existing connection (tests, tools)
func Wrap(conn *sqlx.DB) *DB {
	return &DB{conn: conn}
}

// Close closes database connection
func (db *DB) Close() error {
	if db.conn != nil {
		logger.Info("closing database connection")
		return db.conn.Close()
	}
	return nil
}

// Conn returns underlying *sql.DB connection (for migrations)
func (db *DB) Conn() *sql.DB {
	return db.conn.DB
}

// DB returns sqlx.DB for repositories
func (db *DB) DB() *sqlx.DB {
	return db.conn
}

// Health checks database health
func (db *DB) Health(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()

	if err := db.conn.PingContext(ctx); err != nil {
		return fmt.Errorf("database health check failed: %w", err)
	}

	return nil
}
