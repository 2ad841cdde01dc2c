// File: internal/session/postgres.go
package session

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"go.uber.org/zap"

	"github.com/xkilldash9x/tubepilot/pkg/schemas"
)

// DBPool is the subset of pgxpool.Pool the store uses, so tests can mock it.
type DBPool interface {
	Ping(ctx context.Context) error
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
}

const (
	sqlCreateSessions = `
        CREATE TABLE IF NOT EXISTS studio_sessions (
            account_key TEXT PRIMARY KEY,
            cookies JSONB NOT NULL,
            updated_at TIMESTAMPTZ NOT NULL
        );
    `
	sqlSelectSession = `SELECT cookies FROM studio_sessions WHERE account_key = $1`
	sqlUpsertSession = `
        INSERT INTO studio_sessions (account_key, cookies, updated_at)
        VALUES ($1, $2, $3)
        ON CONFLICT (account_key) DO UPDATE SET
            cookies = EXCLUDED.cookies,
            updated_at = EXCLUDED.updated_at;
    `
)

// PostgresStore keeps sessions in a studio_sessions table, for hosts that run
// batches from machines without a shared filesystem.
type PostgresStore struct {
	pool DBPool
	log  *zap.Logger
	now  func() time.Time
}

var _ Store = (*PostgresStore)(nil)

// NewPostgresStore verifies the connection and ensures the table exists.
func NewPostgresStore(ctx context.Context, pool DBPool, logger *zap.Logger) (*PostgresStore, error) {
	if err := pool.Ping(ctx); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}
	if _, err := pool.Exec(ctx, sqlCreateSessions); err != nil {
		return nil, fmt.Errorf("failed to create sessions table: %w", err)
	}
	return &PostgresStore{
		pool: pool,
		log:  logger.Named("session_store"),
		now:  time.Now,
	}, nil
}

func (s *PostgresStore) Load(ctx context.Context, accountID string) ([]schemas.Cookie, error) {
	var raw []byte
	err := s.pool.QueryRow(ctx, sqlSelectSession, AccountKey(accountID)).Scan(&raw)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNoSession
	}
	if err != nil {
		return nil, schemas.IOError("session.load", err)
	}
	var cookies []schemas.Cookie
	if err := json.Unmarshal(raw, &cookies); err != nil {
		return nil, schemas.IOError("session.load", err)
	}
	if len(cookies) == 0 {
		return nil, ErrNoSession
	}
	return cookies, nil
}

func (s *PostgresStore) Save(ctx context.Context, accountID string, cookies []schemas.Cookie) error {
	raw, err := json.Marshal(cookies)
	if err != nil {
		return schemas.IOError("session.save", err)
	}
	key := AccountKey(accountID)
	if _, err := s.pool.Exec(ctx, sqlUpsertSession, key, raw, s.now().UTC()); err != nil {
		return schemas.IOError("session.save", err)
	}
	s.log.Debug("Session persisted", zap.String("account_key", key), zap.Int("cookies", len(cookies)))
	return nil
}
