package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/sandevgo/svim/internal/core"
	"github.com/sandevgo/svim/pkg/log"
	"github.com/sandevgo/svim/pkg/vector"
)

var fieldPattern = regexp.MustCompile(`^[A-Za-z][A-Za-z0-9_]*$`)

// Vectors is a local core.VectorBackend: payloads live as JSON and similarity is computed
// by the vec_cosine SQL function.
type Vectors struct {
	db         *sql.DB
	collection string
}

var _ core.VectorBackend = (*Vectors)(nil)

func NewVectors(db *sql.DB, collection string) *Vectors {
	return &Vectors{db: db, collection: collection}
}

func (v *Vectors) CollectionExists(ctx context.Context) (bool, error) {
	var n int
	err := v.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM vector_collections WHERE name = ?`, v.collection).Scan(&n)
	if err != nil {
		return false, fmt.Errorf("failed to describe collection: %w", err)
	}
	return n > 0, nil
}

func (v *Vectors) CreateCollection(ctx context.Context, vectorSize int) error {
	_, err := v.db.ExecContext(ctx,
		`INSERT INTO vector_collections (name, vector_size) VALUES (?, ?) ON CONFLICT(name) DO NOTHING`,
		v.collection, vectorSize,
	)
	if err != nil {
		return fmt.Errorf("failed to create collection: %w", err)
	}
	return nil
}

func (v *Vectors) indexName(field string) string {
	return "idx_vp_" + strings.ToLower(v.collection+"_"+field)
}

// CreatePayloadIndex adds an expression index over json_extract(payload, '$.field').
func (v *Vectors) CreatePayloadIndex(ctx context.Context, field string) error {
	if !fieldPattern.MatchString(field) || !fieldPattern.MatchString(v.collection) {
		return fmt.Errorf("invalid index field %q", field)
	}
	name := v.indexName(field)

	var n int
	if err := v.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM sqlite_master WHERE type = 'index' AND name = ?`, name,
	).Scan(&n); err != nil {
		return fmt.Errorf("failed to inspect indexes: %w", err)
	}
	if n > 0 {
		return fmt.Errorf("%w: %s", core.ErrIndexExists, field)
	}

	stmt := fmt.Sprintf(
		`CREATE INDEX %s ON vector_points(collection, json_extract(payload, '$.%s'))`,
		name, field,
	)
	if _, err := v.db.ExecContext(ctx, stmt); err != nil {
		return fmt.Errorf("failed to create payload index: %w", err)
	}
	return nil
}

// where renders the filter as json_extract equality conditions. Keys are validated first.
func (v *Vectors) where(filter core.Filter) (string, []any, error) {
	clauses := []string{"collection = ?"}
	args := []any{v.collection}
	for _, m := range filter.Must {
		if !fieldPattern.MatchString(m.Key) {
			return "", nil, fmt.Errorf("invalid filter key %q", m.Key)
		}
		clauses = append(clauses, fmt.Sprintf("json_extract(payload, '$.%s') = ?", m.Key))
		args = append(args, m.Value)
	}
	return strings.Join(clauses, " AND "), args, nil
}

func (v *Vectors) Scroll(ctx context.Context, filter core.Filter, limit int) ([]core.Point, error) {
	where, args, err := v.where(filter)
	if err != nil {
		return nil, err
	}
	args = append(args, limit)

	rows, err := v.db.QueryContext(ctx,
		`SELECT id, payload FROM vector_points WHERE `+where+` ORDER BY id LIMIT ?`, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to scroll points: %w", err)
	}
	defer rows.Close()

	var out []core.Point
	for rows.Next() {
		var p core.Point
		var payload string
		if err := rows.Scan(&p.ID, &payload); err != nil {
			return nil, fmt.Errorf("failed to scan point: %w", err)
		}
		if p.Payload, err = decodePayload(payload); err != nil {
			log.FromCtx(ctx).Warn().Err(err).Str("id", p.ID).Msg("skipping point with unreadable payload")
			continue
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

func (v *Vectors) Search(ctx context.Context, query []float32, filter core.Filter, limit int) ([]core.Point, error) {
	blob, err := vector.Serialize(query)
	if err != nil {
		return nil, err
	}
	where, args, err := v.where(filter)
	if err != nil {
		return nil, err
	}
	args = append([]any{blob}, args...)
	args = append(args, limit)

	rows, err := v.db.QueryContext(ctx,
		`SELECT id, payload, vec_cosine(embedding, ?) AS score FROM vector_points WHERE `+where+
			` ORDER BY score DESC, id LIMIT ?`, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to search points: %w", err)
	}
	defer rows.Close()

	var out []core.Point
	for rows.Next() {
		var p core.Point
		var payload string
		var score float64
		if err := rows.Scan(&p.ID, &payload, &score); err != nil {
			return nil, fmt.Errorf("failed to scan point: %w", err)
		}
		if p.Payload, err = decodePayload(payload); err != nil {
			continue
		}
		p.Score = float32(score)
		out = append(out, p)
	}
	return out, rows.Err()
}

func (v *Vectors) Upsert(ctx context.Context, points []core.Point) error {
	if len(points) == 0 {
		return nil
	}

	tx, err := v.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	var size int
	if err := tx.QueryRowContext(ctx, `SELECT vector_size FROM vector_collections WHERE name = ?`, v.collection).Scan(&size); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return fmt.Errorf("collection %s does not exist", v.collection)
		}
		return err
	}

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO vector_points (collection, id, embedding, payload) VALUES (?, ?, ?, ?)
		ON CONFLICT(collection, id) DO UPDATE SET embedding = excluded.embedding, payload = excluded.payload`)
	if err != nil {
		return fmt.Errorf("failed to prepare upsert: %w", err)
	}
	defer stmt.Close()

	for _, p := range points {
		if size > 0 && len(p.Vector) != size {
			return fmt.Errorf("vector dimension mismatch: got %d want %d", len(p.Vector), size)
		}
		blob, err := vector.Serialize(p.Vector)
		if err != nil {
			return err
		}
		payload, err := json.Marshal(p.Payload)
		if err != nil {
			return fmt.Errorf("failed to marshal payload: %w", err)
		}
		if _, err := stmt.ExecContext(ctx, v.collection, p.ID, blob, string(payload)); err != nil {
			return fmt.Errorf("failed to upsert point: %w", err)
		}
	}

	return tx.Commit()
}

func decodePayload(s string) (map[string]any, error) {
	var payload map[string]any
	if err := json.Unmarshal([]byte(s), &payload); err != nil {
		return nil, err
	}
	return payload, nil
}
