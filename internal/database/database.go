package database

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/01moynul/culinamarket/internal/config"
	_ "github.com/go-sql-driver/mysql"
	"go.uber.org/zap"
)

// Open creates the MySQL connection pool described by cfg and verifies it
// with a ping.
func Open(ctx context.Context, cfg config.Database, logger *zap.Logger) (*sql.DB, error) {
	// 1. Open a new connection pool.
	db, err := sql.Open("mysql", cfg.DSN)
	if err != nil {
		return nil, fmt.Errorf("open mysql: %w", err)
	}

	// 2. Configure the connection pool settings.
	db.SetMaxOpenConns(cfg.MaxOpenConns)
	db.SetMaxIdleConns(cfg.MaxIdleConns)
	db.SetConnMaxLifetime(cfg.ConnMaxLifetime)

	// 3. Ping the database to verify the connection.
	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if err := db.PingContext(pingCtx); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping mysql: %w", err)
	}

	logger.Info("database connection pool established",
		zap.Int("max_open_conns", cfg.MaxOpenConns),
		zap.Duration("conn_max_lifetime", cfg.ConnMaxLifetime),
	)
	return db, nil
}
