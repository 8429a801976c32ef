package memory

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/sandevgo/svim/internal/core"
	"github.com/sandevgo/svim/pkg/log"
)

const (
	recencyOverFetch    = 5
	recencyMinimumFetch = 50
)

var indexedFields = []string{core.PayloadUserID, core.PayloadSessionID, core.PayloadCreatedAt}

// Store is the append-only conversation store on top of a vector backend.
type Store struct {
	backend    core.VectorBackend
	embedder   core.Embedder
	vectorSize int

	now   func() time.Time
	newID func() string

	mu    sync.Mutex
	ready bool
}

func NewStore(backend core.VectorBackend, embedder core.Embedder, vectorSize int) *Store {
	return &Store{
		backend:    backend,
		embedder:   embedder,
		vectorSize: vectorSize,
		now:        time.Now,
		newID:      uuid.NewString,
	}
}

// ensureCollection creates the collection and its payload indexes on first use.
// A failed attempt is retried on the next call.
func (s *Store) ensureCollection(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.ready {
		return nil
	}

	logger := log.FromCtx(ctx)

	exists, err := s.backend.CollectionExists(ctx)
	if err != nil {
		return fmt.Errorf("describe collection: %w", err)
	}
	if !exists {
		if err := s.backend.CreateCollection(ctx, s.vectorSize); err != nil {
			return fmt.Errorf("create collection: %w", err)
		}
		logger.Info().Int("vector_size", s.vectorSize).Msg("created conversation collection")
	}

	for _, field := range indexedFields {
		if err := s.backend.CreatePayloadIndex(ctx, field); err != nil {
			if isIndexExists(err) {
				continue
			}
			logger.Warn().Err(err).Str("field", field).Msg("payload index creation failed")
		}
	}

	s.ready = true
	return nil
}

func isIndexExists(err error) bool {
	return errors.Is(err, core.ErrIndexExists) ||
		strings.Contains(strings.ToLower(err.Error()), "already exists")
}

// Insert embeds all records in one batch and upserts them with a shared timestamp.
func (s *Store) Insert(ctx context.Context, records []core.ConversationRecord) error {
	if len(records) == 0 {
		return nil
	}
	if err := s.ensureCollection(ctx); err != nil {
		return err
	}

	texts := make([]string, len(records))
	for i, r := range records {
		texts[i] = r.EmbeddingText()
	}

	vectors, err := s.embedder.Embed(ctx, texts)
	if err != nil {
		return fmt.Errorf("embed records: %w", err)
	}
	if len(vectors) != len(records) {
		return fmt.Errorf("embed records: got %d vectors for %d texts", len(vectors), len(records))
	}

	createdAt := s.now().UTC()
	points := make([]core.Point, len(records))
	for i, r := range records {
		r.ID = s.newID()
		r.Embedding = vectors[i]
		r.CreatedAt = createdAt
		r.Seq = i
		points[i] = toPoint(r)
	}

	if err := s.backend.Upsert(ctx, points); err != nil {
		return fmt.Errorf("upsert records: %w", err)
	}

	log.FromCtx(ctx).Debug().Int("count", len(points)).Msg("stored conversation records")
	return nil
}

// Recent returns the last limit records of the session, or of the user when the session is not
// usable, oldest first.
func (s *Store) Recent(ctx context.Context, sessionID, userID string, limit int) ([]core.ConversationRecord, error) {
	if limit <= 0 {
		return nil, nil
	}

	var filter core.Filter
	switch {
	case core.IsValidID(sessionID):
		filter.Must = []core.FieldMatch{{Key: core.PayloadSessionID, Value: strings.TrimSpace(sessionID)}}
	case core.IsValidID(userID):
		filter.Must = []core.FieldMatch{{Key: core.PayloadUserID, Value: strings.TrimSpace(userID)}}
	default:
		return nil, nil
	}

	if err := s.ensureCollection(ctx); err != nil {
		return nil, err
	}

	// Backend ordering is not relied upon: over-fetch and sort here.
	fetch := max(limit*recencyOverFetch, recencyMinimumFetch)
	points, err := s.backend.Scroll(ctx, filter, fetch)
	if err != nil {
		return nil, fmt.Errorf("scroll records: %w", err)
	}

	records := fromPoints(points)
	sortChronological(records)
	if len(records) > limit {
		records = records[len(records)-limit:]
	}
	return records, nil
}

// Semantic returns the limit records of userID most similar to query.
func (s *Store) Semantic(ctx context.Context, userID, query string, limit int) ([]core.ConversationRecord, error) {
	if limit <= 0 || !core.IsValidID(userID) {
		return nil, nil
	}
	if err := s.ensureCollection(ctx); err != nil {
		return nil, err
	}

	vectors, err := s.embedder.Embed(ctx, []string{query})
	if err != nil {
		return nil, fmt.Errorf("embed query: %w", err)
	}
	if len(vectors) != 1 {
		return nil, fmt.Errorf("embed query: got %d vectors", len(vectors))
	}

	filter := core.Filter{Must: []core.FieldMatch{{Key: core.PayloadUserID, Value: strings.TrimSpace(userID)}}}
	points, err := s.backend.Search(ctx, vectors[0], filter, limit)
	if err != nil {
		return nil, fmt.Errorf("search records: %w", err)
	}
	return fromPoints(points), nil
}

func sortChronological(records []core.ConversationRecord) {
	sort.SliceStable(records, func(i, j int) bool {
		if !records[i].CreatedAt.Equal(records[j].CreatedAt) {
			return records[i].CreatedAt.Before(records[j].CreatedAt)
		}
		return records[i].Seq < records[j].Seq
	})
}
