package postgres

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/sandevgo/svim/internal/core"
)

// Interactions persists sessions and turn logs in PostgreSQL.
type Interactions struct {
	pool *pgxpool.Pool
}

var _ core.InteractionLog = (*Interactions)(nil)

func New(ctx context.Context, databaseURL string) (*Interactions, error) {
	pool, err := pgxpool.New(ctx, databaseURL)
	if err != nil {
		return nil, fmt.Errorf("connect postgres: %w", err)
	}

	if err := EnsureSchema(ctx, pool); err != nil {
		pool.Close()
		return nil, err
	}

	return &Interactions{pool: pool}, nil
}

func EnsureSchema(ctx context.Context, pool *pgxpool.Pool) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS svim_sessions (
			session_id TEXT PRIMARY KEY,
			user_identifier TEXT NOT NULL,
			status TEXT NOT NULL DEFAULT 'open',
			created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
			last_used_at TIMESTAMPTZ NOT NULL DEFAULT now(),
			updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
		);`,
		`CREATE TABLE IF NOT EXISTS interaction_logs (
			id BIGSERIAL PRIMARY KEY,
			user_id TEXT,
			session_id TEXT,
			intent TEXT,
			request_json JSONB NOT NULL,
			response_json JSONB NOT NULL,
			created_at TIMESTAMPTZ NOT NULL DEFAULT now()
		);`,
		`CREATE INDEX IF NOT EXISTS idx_interaction_logs_session ON interaction_logs (session_id, created_at);`,
	}

	for _, stmt := range stmts {
		if _, err := pool.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("init schema failed on %q: %w", stmt, err)
		}
	}
	return nil
}

func (s *Interactions) UpsertSession(ctx context.Context, userIdentifier, sessionID, status string) error {
	_, err := s.pool.Exec(ctx,
		`INSERT INTO svim_sessions (session_id, user_identifier, status)
		 VALUES ($1, $2, $3)
		 ON CONFLICT (session_id) DO UPDATE SET
			user_identifier = EXCLUDED.user_identifier,
			status = EXCLUDED.status,
			last_used_at = now(),
			updated_at = now()`,
		sessionID, userIdentifier, status,
	)
	if err != nil {
		return fmt.Errorf("upsert session: %w", err)
	}
	return nil
}

func (s *Interactions) LogInteraction(ctx context.Context, entry core.Interaction) error {
	req, err := json.Marshal(entry.Request)
	if err != nil {
		return fmt.Errorf("marshal request: %w", err)
	}
	resp, err := json.Marshal(entry.Response)
	if err != nil {
		return fmt.Errorf("marshal response: %w", err)
	}

	_, err = s.pool.Exec(ctx,
		`INSERT INTO interaction_logs (user_id, session_id, intent, request_json, response_json)
		 VALUES ($1, $2, $3, $4, $5)`,
		entry.UserID, entry.SessionID, entry.Intent, string(req), string(resp),
	)
	if err != nil {
		return fmt.Errorf("log interaction: %w", err)
	}
	return nil
}

// Count returns how many interactions were recorded for a session.
func (s *Interactions) Count(ctx context.Context, sessionID string) (int, error) {
	var n int
	err := s.pool.QueryRow(ctx, `SELECT COUNT(*) FROM interaction_logs WHERE session_id = $1`, sessionID).Scan(&n)
	return n, err
}

func (s *Interactions) Close() error {
	s.pool.Close()
	return nil
}
