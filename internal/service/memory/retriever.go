package memory

import (
	"context"
	"fmt"
	"strings"

	"github.com/sandevgo/svim/internal/core"
	"github.com/sandevgo/svim/pkg/log"
)

type RecordSource interface {
	Recent(ctx context.Context, sessionID, userID string, limit int) ([]core.ConversationRecord, error)
	Semantic(ctx context.Context, userID, query string, limit int) ([]core.ConversationRecord, error)
}

type ContextQuery struct {
	SessionID string
	UserID    string
	Query     string
	RecentK   int
	SemanticK int
}

// Retriever blends recency and semantic recall into one deduplicated context list.
type Retriever struct {
	source RecordSource
}

func NewRetriever(source RecordSource) *Retriever {
	return &Retriever{source: source}
}

// GetContext returns recent records first and appends semantic matches not already present.
// Semantic recall needs a valid user id; a session-only thread gets recency alone.
func (r *Retriever) GetContext(ctx context.Context, q ContextQuery) ([]core.ContextMessage, error) {
	recent, err := r.source.Recent(ctx, q.SessionID, q.UserID, q.RecentK)
	if err != nil {
		return nil, fmt.Errorf("recent context: %w", err)
	}

	var semantic []core.ConversationRecord
	if strings.TrimSpace(q.Query) != "" && core.IsValidID(q.UserID) {
		semantic, err = r.source.Semantic(ctx, q.UserID, q.Query, q.SemanticK)
		if err != nil {
			log.FromCtx(ctx).Warn().Err(err).Msg("semantic recall failed, using recent context only")
			semantic = nil
		}
	}

	merged := Merge(recent, semantic)
	log.FromCtx(ctx).Debug().
		Int("recent", len(recent)).
		Int("semantic", len(semantic)).
		Int("merged", len(merged)).
		Msg("hybrid context loaded")
	return merged, nil
}

type dedupKey struct {
	role    string
	content string
}

// Merge concatenates the lists in order, keeping the first occurrence of each
// (role, trimmed content) pair and dropping blank content.
func Merge(lists ...[]core.ConversationRecord) []core.ContextMessage {
	seen := make(map[dedupKey]struct{})
	var out []core.ContextMessage

	for _, list := range lists {
		for _, r := range list {
			content := strings.TrimSpace(r.Content)
			if content == "" {
				continue
			}
			key := dedupKey{role: r.Role, content: content}
			if _, dup := seen[key]; dup {
				continue
			}
			seen[key] = struct{}{}
			out = append(out, core.ContextMessage{Role: r.Role, Content: content})
		}
	}
	return out
}
