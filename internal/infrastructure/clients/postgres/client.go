package postgres

import (
	"context"
	"database/sql"
	_ "embed"
	"fmt"
	"time"

	_ "github.com/lib/pq"
	"github.com/zatekoja/postnatalcare/backend/internal/infrastructure/observability"
	"github.com/zatekoja/postnatalcare/backend/pkg/config"
	"github.com/zatekoja/postnatalcare/backend/pkg/retry"
)

//go:embed schema.sql
var schemaSQL string

// schemaLockID serializes schema application across replicas starting together.
const schemaLockID int64 = 0x706e6361726531

// Client wraps the postnatal store connection pool.
type Client struct {
	db      *sql.DB
	metrics *observability.Metrics
}

// NewClient opens the pool and blocks until the server answers, backing off
// between attempts.
func NewClient(cfg *config.DatabaseConfig) (*Client, error) {
	db, err := sql.Open("postgres", cfg.DatabaseDSN())
	if err != nil {
		return nil, fmt.Errorf("failed to open database connection: %w", err)
	}
	applyPool(db, cfg)

	logger := observability.GetLogger()
	err = retry.DoWithLog(context.Background(), retry.DefaultConfig(), "PostgreSQL",
		func() error {
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			return db.PingContext(ctx)
		},
		func(attempt int, err error, nextDelay time.Duration) {
			logger.Warn().Err(err).Int("attempt", attempt).Dur("retry_in", nextDelay).Msg("PostgreSQL connection attempt failed")
		},
	)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to connect to PostgreSQL after retries: %w", err)
	}

	logger.Info().
		Str("host", cfg.Host).
		Str("database", cfg.Database).
		Int("max_open_conns", db.Stats().MaxOpenConnections).
		Msg("connected to PostgreSQL")
	return &Client{db: db}, nil
}

func applyPool(db *sql.DB, cfg *config.DatabaseConfig) {
	maxOpen := cfg.MaxOpenConns
	if maxOpen <= 0 {
		maxOpen = 25
	}
	maxIdle := cfg.MaxIdleConns
	if maxIdle <= 0 || maxIdle > maxOpen {
		maxIdle = min(5, maxOpen)
	}
	lifetime := cfg.ConnMaxLifetime
	if lifetime <= 0 {
		lifetime = 5 * time.Minute
	}

	db.SetMaxOpenConns(maxOpen)
	db.SetMaxIdleConns(maxIdle)
	db.SetConnMaxLifetime(lifetime)
}

// NewClientFromDB wraps an existing connection, e.g. a sqlmock handle in tests.
func NewClientFromDB(db *sql.DB) *Client {
	return &Client{db: db}
}

// WithMetrics attaches the query duration histogram used by Observe.
func (c *Client) WithMetrics(metrics *observability.Metrics) *Client {
	c.metrics = metrics
	return c
}

// Observe records how long a named store operation took since start.
func (c *Client) Observe(ctx context.Context, operation string, start time.Time) {
	observability.RecordDBMetric(ctx, c.metrics, operation, time.Since(start))
}

// EnsureSchema applies the embedded DDL inside a transaction holding an
// advisory lock, so concurrent starts do not race on CREATE statements.
func (c *Client) EnsureSchema(ctx context.Context) error {
	start := time.Now()
	defer c.Observe(ctx, "ensure_schema", start)

	tx, err := c.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin schema transaction: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	if _, err := tx.ExecContext(ctx, "SELECT pg_advisory_xact_lock($1)", schemaLockID); err != nil {
		return fmt.Errorf("failed to acquire schema lock: %w", err)
	}
	if _, err := tx.ExecContext(ctx, schemaSQL); err != nil {
		return fmt.Errorf("failed to apply schema: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit schema: %w", err)
	}
	return nil
}

// DB returns the underlying database connection
func (c *Client) DB() *sql.DB {
	return c.db
}

// Close closes the database connection
func (c *Client) Close() error {
	return c.db.Close()
}

// Ping verifies the connection to the database
func (c *Client) Ping(ctx context.Context) error {
	return c.db.PingContext(ctx)
}
