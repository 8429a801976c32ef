package core

import (
	"context"
	"errors"
)

// Payload field names shared by every vector backend.
const (
	PayloadUserID    = "userId"
	PayloadSessionID = "sessionId"
	PayloadRole      = "role"
	PayloadContent   = "content"
	PayloadCreatedAt = "createdAt"
	PayloadSeq       = "seq"
)

// ErrIndexExists is returned by CreatePayloadIndex when the index is already present.
var ErrIndexExists = errors.New("payload index already exists")

type Point struct {
	ID      string
	Vector  []float32
	Payload map[string]any
	Score   float32
}

type FieldMatch struct {
	Key   string
	Value string
}

// Filter matches points whose payload satisfies every condition.
type Filter struct {
	Must []FieldMatch
}

// VectorBackend is a handle on a single collection of a vector store.
type VectorBackend interface {
	CollectionExists(ctx context.Context) (bool, error)
	CreateCollection(ctx context.Context, vectorSize int) error
	CreatePayloadIndex(ctx context.Context, field string) error
	Scroll(ctx context.Context, filter Filter, limit int) ([]Point, error)
	Search(ctx context.Context, vector []float32, filter Filter, limit int) ([]Point, error)
	Upsert(ctx context.Context, points []Point) error
}

// InteractionLog is the optional relational audit trail of turns.
type InteractionLog interface {
	UpsertSession(ctx context.Context, userIdentifier, sessionID, status string) error
	LogInteraction(ctx context.Context, entry Interaction) error
}

type Interaction struct {
	UserID    string
	SessionID string
	Intent    string
	Request   any
	Response  any
}
