// Package inmemory is an in-process vector backend for tests and local runs without a store.
package inmemory

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/sandevgo/svim/internal/core"
	"github.com/sandevgo/svim/pkg/vector"
)

var _ core.VectorBackend = (*Vectors)(nil)

type Vectors struct {
	mu         sync.RWMutex
	exists     bool
	vectorSize int
	indexes    map[string]struct{}
	points     map[string]core.Point
}

func NewVectors() *Vectors {
	return &Vectors{
		indexes: make(map[string]struct{}),
		points:  make(map[string]core.Point),
	}
}

func (v *Vectors) CollectionExists(_ context.Context) (bool, error) {
	v.mu.RLock()
	defer v.mu.RUnlock()
	return v.exists, nil
}

func (v *Vectors) CreateCollection(_ context.Context, vectorSize int) error {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.exists = true
	v.vectorSize = vectorSize
	return nil
}

func (v *Vectors) CreatePayloadIndex(_ context.Context, field string) error {
	v.mu.Lock()
	defer v.mu.Unlock()
	if _, ok := v.indexes[field]; ok {
		return core.ErrIndexExists
	}
	v.indexes[field] = struct{}{}
	return nil
}

func (v *Vectors) Upsert(_ context.Context, points []core.Point) error {
	v.mu.Lock()
	defer v.mu.Unlock()
	if !v.exists {
		return fmt.Errorf("collection does not exist")
	}
	for _, p := range points {
		if v.vectorSize > 0 && len(p.Vector) != v.vectorSize {
			return fmt.Errorf("vector dimension mismatch: got %d want %d", len(p.Vector), v.vectorSize)
		}
		v.points[p.ID] = clonePoint(p)
	}
	return nil
}

// Scroll returns matches ordered by point id, like Qdrant does.
func (v *Vectors) Scroll(_ context.Context, filter core.Filter, limit int) ([]core.Point, error) {
	v.mu.RLock()
	defer v.mu.RUnlock()

	ids := make([]string, 0, len(v.points))
	for id, p := range v.points {
		if matches(p, filter) {
			ids = append(ids, id)
		}
	}
	sort.Strings(ids)
	if limit > 0 && len(ids) > limit {
		ids = ids[:limit]
	}

	out := make([]core.Point, 0, len(ids))
	for _, id := range ids {
		out = append(out, clonePoint(v.points[id]))
	}
	return out, nil
}

func (v *Vectors) Search(_ context.Context, query []float32, filter core.Filter, limit int) ([]core.Point, error) {
	v.mu.RLock()
	defer v.mu.RUnlock()

	var candidates []core.Point
	for _, p := range v.points {
		if matches(p, filter) {
			candidates = append(candidates, p)
		}
	}
	sort.Slice(candidates, func(i, j int) bool { return candidates[i].ID < candidates[j].ID })

	vecs := make([][]float32, len(candidates))
	for i, p := range candidates {
		vecs[i] = p.Vector
	}

	ranked := vector.TopK(query, vecs, limit)
	out := make([]core.Point, 0, len(ranked))
	for _, r := range ranked {
		p := clonePoint(candidates[r.Index])
		p.Score = r.Score
		out = append(out, p)
	}
	return out, nil
}

// Len reports the number of stored points.
func (v *Vectors) Len() int {
	v.mu.RLock()
	defer v.mu.RUnlock()
	return len(v.points)
}

func matches(p core.Point, filter core.Filter) bool {
	for _, cond := range filter.Must {
		val, ok := p.Payload[cond.Key].(string)
		if !ok || val != cond.Value {
			return false
		}
	}
	return true
}

func clonePoint(p core.Point) core.Point {
	out := core.Point{ID: p.ID, Score: p.Score}
	if p.Vector != nil {
		out.Vector = append([]float32(nil), p.Vector...)
	}
	if p.Payload != nil {
		out.Payload = make(map[string]any, len(p.Payload))
		for k, v := range p.Payload {
			out.Payload[k] = v
		}
	}
	return out
}
