package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"

	"group-order-service/internal/models"
)

// PostgresStore keeps sessions in a single jsonb-backed table with a version
// column for compare-and-swap updates. It is the deployment shape for
// multi-instance setups, where the in-memory store cannot be shared.
type PostgresStore struct {
	db *sqlx.DB
}

// ConnectPostgres opens the database and applies migrations.
func ConnectPostgres(dsn string) (*PostgresStore, error) {
	db, err := sqlx.Connect("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("connect db: %w", err)
	}
	if err := runMigrations(db); err != nil {
		return nil, fmt.Errorf("run migrations: %w", err)
	}
	return &PostgresStore{db: db}, nil
}

func runMigrations(db *sqlx.DB) error {
	migrations := []string{
		`CREATE TABLE IF NOT EXISTS group_sessions (
            id TEXT PRIMARY KEY,
            data JSONB NOT NULL,
            version BIGINT NOT NULL,
            expires_at TIMESTAMPTZ NOT NULL,
            created_at TIMESTAMPTZ DEFAULT NOW()
        );`,
		`CREATE INDEX IF NOT EXISTS idx_group_sessions_expires_at ON group_sessions (expires_at);`,
	}
	for _, m := range migrations {
		if _, err := db.Exec(m); err != nil {
			return err
		}
	}
	slog.Info("database migrations applied")
	return nil
}

// Close releases the underlying connection pool.
func (s *PostgresStore) Close() error {
	return s.db.Close()
}

// Create registers a new session.
func (s *PostgresStore) Create(ctx context.Context, session *models.GroupSession) error {
	session.Version = 1
	data, err := json.Marshal(session)
	if err != nil {
		return err
	}
	res, err := s.db.ExecContext(ctx,
		`INSERT INTO group_sessions (id, data, version, expires_at) VALUES ($1, $2, $3, $4)
         ON CONFLICT (id) DO NOTHING`,
		session.ID, data, session.Version, session.ExpiresAt)
	if err != nil {
		return err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return ErrAlreadyExists
	}
	return nil
}

// Get fetches a session by id.
func (s *PostgresStore) Get(ctx context.Context, id string) (*models.GroupSession, error) {
	var data []byte
	err := s.db.GetContext(ctx, &data, `SELECT data FROM group_sessions WHERE id=$1`, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	var session models.GroupSession
	if err := json.Unmarshal(data, &session); err != nil {
		return nil, err
	}
	return &session, nil
}

// Put replaces a session when the version matches.
func (s *PostgresStore) Put(ctx context.Context, session *models.GroupSession, expectedVersion int64) error {
	session.Version = expectedVersion + 1
	data, err := json.Marshal(session)
	if err != nil {
		return err
	}
	res, err := s.db.ExecContext(ctx,
		`UPDATE group_sessions SET data=$2, version=$3, expires_at=$4 WHERE id=$1 AND version=$5`,
		session.ID, data, session.Version, session.ExpiresAt, expectedVersion)
	if err != nil {
		return err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		var exists bool
		if err := s.db.GetContext(ctx, &exists, `SELECT EXISTS(SELECT 1 FROM group_sessions WHERE id=$1)`, session.ID); err != nil {
			return err
		}
		if !exists {
			return ErrNotFound
		}
		return ErrVersionConflict
	}
	return nil
}

// Delete removes a session.
func (s *PostgresStore) Delete(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM group_sessions WHERE id=$1`, id)
	if err != nil {
		return err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return ErrNotFound
	}
	return nil
}

// List returns every stored session.
func (s *PostgresStore) List(ctx context.Context) ([]*models.GroupSession, error) {
	var rows [][]byte
	if err := s.db.SelectContext(ctx, &rows, `SELECT data FROM group_sessions ORDER BY created_at`); err != nil {
		return nil, err
	}
	out := make([]*models.GroupSession, 0, len(rows))
	for _, data := range rows {
		var session models.GroupSession
		if err := json.Unmarshal(data, &session); err != nil {
			return nil, err
		}
		out = append(out, &session)
	}
	return out, nil
}

// SweepExpired deletes every session past its expiry.
func (s *PostgresStore) SweepExpired(ctx context.Context, now time.Time) (int, error) {
	res, err := s.db.ExecContext(ctx, `DELETE FROM group_sessions WHERE expires_at <= $1`, now)
	if err != nil {
		return 0, err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return 0, err
	}
	return int(affected), nil
}
