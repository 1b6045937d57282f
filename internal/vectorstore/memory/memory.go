// Package memory is a brute-force in-memory vector store. It backs the
// pipeline tests and small local setups where running Qdrant is not
// worth it.
package memory

import (
	"context"
	"sort"
	"sync"

	"qarag/internal/domain"
)

// Store keeps all points in memory and scores with cosine similarity.
type Store struct {
	mu     sync.RWMutex
	points map[string]domain.Point
}

func NewStore() *Store {
	return &Store{points: make(map[string]domain.Point)}
}

// EnsureCollection is a no-op; the in-memory store has no schema.
func (s *Store) EnsureCollection(_ context.Context, _ int) error { return nil }

func (s *Store) Upsert(_ context.Context, points []domain.Point) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, p := range points {
		s.points[p.ID] = p
	}
	return nil
}

func (s *Store) Search(_ context.Context, vector []float32, filter *domain.Filter, topK int) ([]domain.ScoredPoint, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if topK <= 0 {
		topK = 5
	}
	var results []domain.ScoredPoint
	for _, p := range s.points {
		if !matches(p.Payload, filter) {
			continue
		}
		results = append(results, domain.ScoredPoint{
			ID:      p.ID,
			Score:   cosine(vector, p.Vector),
			Payload: p.Payload,
		})
	}
	sort.Slice(results, func(i, j int) bool { return results[i].Score > results[j].Score })
	if len(results) > topK {
		results = results[:topK]
	}
	return results, nil
}

func (s *Store) Retrieve(_ context.Context, id string) (*domain.Point, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	p, ok := s.points[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	out := p
	out.Payload = copyPayload(p.Payload)
	return &out, nil
}

func (s *Store) SetPayload(_ context.Context, id string, payload map[string]any) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.points[id]
	if !ok {
		return domain.ErrNotFound
	}
	merged := copyPayload(p.Payload)
	for key, value := range payload {
		merged[key] = value
	}
	p.Payload = merged
	s.points[id] = p
	return nil
}

func matches(payload map[string]any, filter *domain.Filter) bool {
	if filter == nil {
		return true
	}
	for _, match := range filter.Must {
		value, ok := payload[match.Key].(string)
		if !ok || value != match.Value {
			return false
		}
	}
	return true
}

func cosine(a, b []float32) float64 {
	if len(a) != len(b) {
		return 0
	}
	var dot, na, nb float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		na += float64(a[i]) * float64(a[i])
		nb += float64(b[i]) * float64(b[i])
	}
	if na == 0 || nb == 0 {
		return 0
	}
	return dot / (sqrt(na) * sqrt(nb))
}

// sqrt avoids importing math for one call site.
func sqrt(x float64) float64 {
	if x <= 0 {
		return 0
	}
	z := x
	for i := 0; i < 8; i++ {
		z = 0.5 * (z + x/z)
	}
	return z
}

func copyPayload(payload map[string]any) map[string]any {
	out := make(map[string]any, len(payload))
	for key, value := range payload {
		out[key] = value
	}
	return out
}
