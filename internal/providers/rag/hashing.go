// Package rag provides the offline embedding model used when no remote embedder is configured.
package rag

import (
	"context"
	"hash/fnv"
	"strings"
	"unicode"

	"github.com/sandevgo/svim/pkg/vector"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

const (
	ModelNameHashing  = "local-hashing"
	DefaultHashingDim = 256
)

var foldAccents = transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)

// HashingEmbedder projects unigrams and bigrams into a fixed number of buckets (feature hashing)
// and L2-normalizes the result. It is deterministic and needs no network.
type HashingEmbedder struct {
	dims int
}

func NewHashingEmbedder(dims int) *HashingEmbedder {
	if dims <= 0 {
		dims = DefaultHashingDim
	}
	return &HashingEmbedder{dims: dims}
}

func (h *HashingEmbedder) Dims() int {
	return h.dims
}

func (h *HashingEmbedder) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	out := make([][]float32, len(texts))
	for i, text := range texts {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		out[i] = h.embedOne(text)
	}
	return out, nil
}

func (h *HashingEmbedder) embedOne(text string) []float32 {
	vec := make([]float32, h.dims)
	tokens := tokens(text)

	for i, tok := range tokens {
		h.add(vec, tok, 1)
		if i > 0 {
			h.add(vec, tokens[i-1]+" "+tok, 0.5)
		}
	}

	vector.Normalize(vec)
	return vec
}

func (h *HashingEmbedder) add(vec []float32, feature string, weight float32) {
	hasher := fnv.New64a()
	_, _ = hasher.Write([]byte(feature))
	sum := hasher.Sum64()

	idx := int(sum % uint64(h.dims))
	if sum&(1<<63) != 0 {
		weight = -weight
	}
	vec[idx] += weight
}

func tokens(text string) []string {
	folded, _, err := transform.String(foldAccents, strings.ToLower(text))
	if err != nil {
		folded = strings.ToLower(text)
	}
	return strings.FieldsFunc(folded, func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
}
