// Package postgres provides a bun-backed PostgreSQL client for the pgvector index.
package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/lib/pq" // register the "postgres" database/sql driver
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/pgdialect"
	"github.com/uptrace/bun/driver/pgdriver"
	"github.com/uptrace/bun/extra/bundebug"

	options "github.com/kart-io/docqa/pkg/options/postgres"
)

// Options is re-exported from pkg/options/postgres for convenience.
type Options = options.Options

// NewOptions is re-exported from pkg/options/postgres for convenience.
var NewOptions = options.NewOptions

// database/sql 驱动。
const (
	DriverPG = options.DriverPG
	DriverPQ = options.DriverPQ
)

// Client wraps bun.DB.
type Client struct {
	db   *bun.DB
	opts *Options
}

// New creates a new PostgreSQL client and verifies the connection.
func New(ctx context.Context, opts *Options) (*Client, error) {
	if opts == nil {
		return nil, fmt.Errorf("postgres options cannot be nil")
	}
	if errs := opts.Validate(); len(errs) > 0 {
		return nil, fmt.Errorf("invalid postgres options: %v", errs)
	}

	sqldb, err := openSQL(opts)
	if err != nil {
		return nil, err
	}

	sqldb.SetMaxIdleConns(opts.MaxIdleConnections)
	sqldb.SetMaxOpenConns(opts.MaxOpenConnections)
	sqldb.SetConnMaxLifetime(opts.MaxConnectionLifeTime)

	db := bun.NewDB(sqldb, pgdialect.New())
	if opts.Debug {
		db.AddQueryHook(bundebug.NewQueryHook(bundebug.WithVerbose(true)))
	}

	client := &Client{db: db, opts: opts}
	if err := client.Ping(ctx); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed to ping postgres: %w", err)
	}

	return client, nil
}

func openSQL(opts *Options) (*sql.DB, error) {
	switch opts.Driver {
	case DriverPQ:
		sqldb, err := sql.Open("postgres", BuildDSN(opts))
		if err != nil {
			return nil, fmt.Errorf("failed to open postgres: %w", err)
		}
		return sqldb, nil
	default:
		return sql.OpenDB(pgdriver.NewConnector(pgdriver.WithDSN(BuildURI(opts)))), nil
	}
}

// DB returns the underlying bun.DB instance.
func (c *Client) DB() *bun.DB {
	return c.db
}

// Name returns the name of the storage client.
func (c *Client) Name() string {
	return "postgres"
}

// Ping verifies the connection to the PostgreSQL database.
func (c *Client) Ping(ctx context.Context) error {
	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if err := c.db.PingContext(pingCtx); err != nil {
		return fmt.Errorf("postgres ping failed: %w", err)
	}
	return nil
}

// Close closes the database connection and releases resources.
func (c *Client) Close() error {
	if c.db == nil {
		return nil
	}
	if err := c.db.Close(); err != nil {
		return fmt.Errorf("failed to close postgres connection: %w", err)
	}
	return nil
}

// Stats returns database connection statistics.
func (c *Client) Stats() sql.DBStats {
	return c.db.Stats()
}
