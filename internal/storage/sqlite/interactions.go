package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/sandevgo/svim/internal/core"
)

// Interactions is the local audit trail of turns and sessions.
type Interactions struct {
	db *sql.DB
}

var _ core.InteractionLog = (*Interactions)(nil)

func NewInteractions(db *sql.DB) *Interactions {
	return &Interactions{db: db}
}

func (s *Interactions) UpsertSession(ctx context.Context, userIdentifier, sessionID, status string) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO svim_sessions (session_id, user_identifier, status)
		VALUES (?, ?, ?)
		ON CONFLICT(session_id) DO UPDATE SET
			user_identifier = excluded.user_identifier,
			status = excluded.status,
			last_used_at = CURRENT_TIMESTAMP,
			updated_at = CURRENT_TIMESTAMP
	`, sessionID, userIdentifier, status)
	if err != nil {
		return fmt.Errorf("failed to upsert session: %w", err)
	}
	return nil
}

func (s *Interactions) LogInteraction(ctx context.Context, entry core.Interaction) error {
	req, err := json.Marshal(entry.Request)
	if err != nil {
		return fmt.Errorf("failed to marshal request: %w", err)
	}
	resp, err := json.Marshal(entry.Response)
	if err != nil {
		return fmt.Errorf("failed to marshal response: %w", err)
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO interaction_logs (user_id, session_id, intent, request_json, response_json)
		VALUES (?, ?, ?, ?, ?)
	`, entry.UserID, entry.SessionID, entry.Intent, string(req), string(resp))
	if err != nil {
		return fmt.Errorf("failed to log interaction: %w", err)
	}
	return nil
}

// Count returns how many interactions were recorded for a session.
func (s *Interactions) Count(ctx context.Context, sessionID string) (int, error) {
	var n int
	err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM interaction_logs WHERE session_id = ?`, sessionID).Scan(&n)
	return n, err
}
