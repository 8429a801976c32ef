package core

import (
	"strings"
	"time"
)

// AnonymousID is the thread placeholder used when neither a session nor a user is known.
const AnonymousID = "anon"

var sentinelIDs = map[string]struct{}{
	AnonymousID:    {},
	"anon-session": {},
	"unknown":      {},
}

// IsValidID reports whether id can be used as a retrieval axis.
func IsValidID(id string) bool {
	id = strings.TrimSpace(id)
	if id == "" {
		return false
	}
	_, sentinel := sentinelIDs[id]
	return !sentinel
}

// ResolveThreadID picks the session id, then the user id, then the anonymous sentinel.
func ResolveThreadID(sessionID, userID string) string {
	if IsValidID(sessionID) {
		return strings.TrimSpace(sessionID)
	}
	if IsValidID(userID) {
		return strings.TrimSpace(userID)
	}
	return AnonymousID
}

// ConversationRecord is one stored message turn.
type ConversationRecord struct {
	ID        string    `json:"id"`
	Role      string    `json:"role"`
	Content   string    `json:"content"`
	UserID    string    `json:"userId"`
	SessionID string    `json:"sessionId,omitempty"`
	Embedding []float32 `json:"-"`
	CreatedAt time.Time `json:"createdAt"`
	// Seq orders records that share a CreatedAt (one insert batch).
	Seq int `json:"seq"`
}

// EmbeddingText is the string a record is embedded from.
func (r ConversationRecord) EmbeddingText() string {
	return r.Role + ": " + r.Content
}

// ContextMessage is one entry of a hybrid context result.
type ContextMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}
