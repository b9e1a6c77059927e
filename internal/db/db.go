// Package db connects to the Postgres database that holds the durable
// sync envelope log.
package db

import (
	"context"
	"database/sql"
	"fmt"
	"net/url"
	"time"

	"github.com/deojon/studio/config"
	_ "github.com/lib/pq"
)

const (
	driverName  = "postgres"
	pingTimeout = 5 * time.Second

	// The log sees short bursts from pollers; a small pool is enough.
	maxOpenConns    = 10
	maxIdleConns    = 4
	connMaxIdleTime = 2 * time.Minute
	connMaxLifetime = 30 * time.Minute
)

// DSN returns the postgres connection URL for cfg.
func DSN(cfg config.DatabaseConfig) string {
	u := &url.URL{
		Scheme: "postgres",
		Host:   fmt.Sprintf("%s:%d", cfg.Host, cfg.Port),
		User:   url.UserPassword(cfg.User, cfg.Password),
		Path:   cfg.DBName,
	}

	q := u.Query()
	q.Set("sslmode", sslMode(cfg.UseSSL))
	q.Set("application_name", "studio")
	u.RawQuery = q.Encode()
	return u.String()
}

func sslMode(enabled bool) string {
	if enabled {
		return "require"
	}
	return "disable"
}

// Open connects to the envelope log. With cfg.AutoMigrate the schema is
// brought up to date before the handle is returned.
func Open(ctx context.Context, cfg config.DatabaseConfig) (*sql.DB, error) {
	if cfg.AutoMigrate {
		if err := MigrateUp(cfg); err != nil {
			return nil, fmt.Errorf("migrate envelope log: %w", err)
		}
	}

	conn, err := sql.Open(driverName, DSN(cfg))
	if err != nil {
		return nil, err
	}
	conn.SetMaxOpenConns(maxOpenConns)
	conn.SetMaxIdleConns(maxIdleConns)
	conn.SetConnMaxIdleTime(connMaxIdleTime)
	conn.SetConnMaxLifetime(connMaxLifetime)

	pingCtx, cancel := context.WithTimeout(ctx, pingTimeout)
	defer cancel()
	if err := conn.PingContext(pingCtx); err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("ping %s: %w", cfg.Host, err)
	}
	return conn, nil
}
