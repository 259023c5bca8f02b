package session

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sync"
	"time"

	_ "github.com/lib/pq"
)

const (
	queryLoadSession = `
		SELECT data
		FROM flash_sessions
		WHERE id = $1 AND expires_at > NOW()`

	queryUpsertSession = `
		INSERT INTO flash_sessions (id, data, expires_at)
		VALUES ($1, $2, $3)
		ON CONFLICT (id) DO UPDATE SET
			data = EXCLUDED.data,
			expires_at = EXCLUDED.expires_at,
			updated_at = NOW()`

	queryDeleteSession = `
		DELETE FROM flash_sessions
		WHERE id = $1`

	queryDeleteExpired = `
		DELETE FROM flash_sessions
		WHERE expires_at <= NOW()`
)

// PostgresStore keeps sessions in the flash_sessions table as JSONB. The
// schema is migrated lazily on first use.
type PostgresStore struct {
	db  *sql.DB
	ttl time.Duration

	migrateOnce sync.Once
	migrateErr  error
}

type postgresStoreOption func(*PostgresStore)

// WithPostgresTTL overrides DefaultTTL.
func WithPostgresTTL(ttl time.Duration) postgresStoreOption {
	return func(s *PostgresStore) {
		s.ttl = ttl
	}
}

// NewPostgresStore creates a session store backed by db.
func NewPostgresStore(db *sql.DB, opts ...postgresStoreOption) *PostgresStore {
	s := &PostgresStore{db: db, ttl: DefaultTTL}
	for _, apply := range opts {
		apply(s)
	}
	return s
}

// OpenPostgres opens a connection pool for dsn and verifies it.
func OpenPostgres(dsn string) (*sql.DB, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("session: postgres open: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("session: postgres connection failed: %w", err)
	}
	return db, nil
}

// Load fetches the unexpired session stored under id.
func (s *PostgresStore) Load(ctx context.Context, id string) (data map[string]any, err error) {
	defer observe("postgres", "load", time.Now(), &err)

	if err := s.migrate(ctx); err != nil {
		return nil, err
	}
	var raw []byte
	if err := s.db.QueryRowContext(ctx, queryLoadSession, id).Scan(&raw); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("session: load: %w", err)
	}
	return decode(raw)
}

// Save upserts data under id and pushes its expiry forward.
func (s *PostgresStore) Save(ctx context.Context, id string, data map[string]any) (err error) {
	defer observe("postgres", "save", time.Now(), &err)

	if err := s.migrate(ctx); err != nil {
		return err
	}
	raw, err := encode(data)
	if err != nil {
		return err
	}
	if _, err := s.db.ExecContext(ctx, queryUpsertSession, id, raw, time.Now().Add(s.ttl)); err != nil {
		return fmt.Errorf("session: save: %w", err)
	}
	return nil
}

// Delete removes the session stored under id.
func (s *PostgresStore) Delete(ctx context.Context, id string) (err error) {
	defer observe("postgres", "delete", time.Now(), &err)

	if err := s.migrate(ctx); err != nil {
		return err
	}
	if _, err := s.db.ExecContext(ctx, queryDeleteSession, id); err != nil {
		return fmt.Errorf("session: delete: %w", err)
	}
	return nil
}

// DeleteExpired purges expired rows and returns how many were removed.
// Redis expires keys on its own; Postgres needs this run periodically.
func (s *PostgresStore) DeleteExpired(ctx context.Context) (int64, error) {
	if err := s.migrate(ctx); err != nil {
		return 0, err
	}
	res, err := s.db.ExecContext(ctx, queryDeleteExpired)
	if err != nil {
		return 0, fmt.Errorf("session: delete expired: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("session: delete expired: %w", err)
	}
	return n, nil
}

// Close closes the database handle.
func (s *PostgresStore) Close() error {
	return s.db.Close()
}

func (s *PostgresStore) migrate(ctx context.Context) error {
	s.migrateOnce.Do(func() {
		s.migrateErr = Migrate(context.WithoutCancel(ctx), s.db)
	})
	return s.migrateErr
}
