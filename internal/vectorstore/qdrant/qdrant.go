// Package qdrant is a minimal REST client for the Qdrant vector
// database, covering the operations the pipelines need: collection
// bootstrap, upsert, filtered search, point retrieve and payload
// rewrite.
package qdrant

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"

	"go.uber.org/zap"

	"qarag/internal/domain"
)

// Store assumes cosine distance and creates the collection if missing.
type Store struct {
	url        string
	apiKey     string
	collection string
	client     *http.Client
	log        *zap.Logger
}

type Config struct {
	URL        string
	APIKey     string
	Collection string
	Timeout    time.Duration
}

func NewStore(cfg Config, log *zap.Logger) *Store {
	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = 15 * time.Second
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &Store{
		url:        cfg.URL,
		apiKey:     cfg.APIKey,
		collection: cfg.Collection,
		client:     &http.Client{Timeout: timeout},
		log:        log,
	}
}

// ListCollections doubles as the connection probe: it is the cheapest
// call that exercises auth and routing.
func (s *Store) ListCollections(ctx context.Context) ([]string, error) {
	var resp struct {
		Result struct {
			Collections []struct {
				Name string `json:"name"`
			} `json:"collections"`
		} `json:"result"`
	}
	if err := s.doJSON(ctx, http.MethodGet, "/collections", nil, &resp); err != nil {
		return nil, fmt.Errorf("list collections: %w", err)
	}
	names := make([]string, len(resp.Result.Collections))
	for i, col := range resp.Result.Collections {
		names[i] = col.Name
	}
	return names, nil
}

// EnsureCollection creates the target collection with the given vector
// size if it does not already exist.
func (s *Store) EnsureCollection(ctx context.Context, dimension int) error {
	if dimension <= 0 {
		return errors.New("invalid dimension")
	}
	var exists struct {
		Result struct {
			Exists bool `json:"exists"`
		} `json:"result"`
	}
	if err := s.doJSON(ctx, http.MethodGet, fmt.Sprintf("/collections/%s/exists", s.collection), nil, &exists); err == nil && exists.Result.Exists {
		return nil
	}
	body := map[string]any{
		"vectors": map[string]any{
			"size":     dimension,
			"distance": "Cosine",
		},
	}
	if err := s.doJSON(ctx, http.MethodPut, fmt.Sprintf("/collections/%s", s.collection), body, nil); err != nil {
		return fmt.Errorf("create collection: %w", err)
	}
	s.log.Info("collection created", zap.String("collection", s.collection), zap.Int("dimension", dimension))
	return nil
}

// Upsert writes points, overwriting any with the same ID.
func (s *Store) Upsert(ctx context.Context, points []domain.Point) error {
	if len(points) == 0 {
		return nil
	}
	encoded := make([]map[string]any, len(points))
	for i, p := range points {
		encoded[i] = map[string]any{
			"id":      p.ID,
			"vector":  p.Vector,
			"payload": p.Payload,
		}
	}
	body := map[string]any{"points": encoded}
	path := fmt.Sprintf("/collections/%s/points?wait=true", s.collection)
	if err := s.doJSON(ctx, http.MethodPut, path, body, nil); err != nil {
		return fmt.Errorf("upsert points: %w", err)
	}
	s.log.Debug("points upserted", zap.String("collection", s.collection), zap.Int("count", len(points)))
	return nil
}

// Search runs a similarity search constrained by the optional filter.
func (s *Store) Search(ctx context.Context, vector []float32, filter *domain.Filter, topK int) ([]domain.ScoredPoint, error) {
	if topK <= 0 {
		topK = 5
	}
	body := map[string]any{
		"vector":       vector,
		"limit":        topK,
		"with_payload": true,
	}
	if filter != nil {
		body["filter"] = encodeFilter(filter)
	}
	var resp struct {
		Result []struct {
			ID      any            `json:"id"`
			Score   float64        `json:"score"`
			Payload map[string]any `json:"payload"`
		} `json:"result"`
	}
	path := fmt.Sprintf("/collections/%s/points/search", s.collection)
	if err := s.doJSON(ctx, http.MethodPost, path, body, &resp); err != nil {
		return nil, fmt.Errorf("search points: %w", err)
	}
	results := make([]domain.ScoredPoint, 0, len(resp.Result))
	for _, r := range resp.Result {
		results = append(results, domain.ScoredPoint{
			ID:      pointID(r.ID),
			Score:   r.Score,
			Payload: r.Payload,
		})
	}
	return results, nil
}

// Retrieve fetches a single point by ID. Returns domain.ErrNotFound if
// the point does not exist.
func (s *Store) Retrieve(ctx context.Context, id string) (*domain.Point, error) {
	var resp struct {
		Result *struct {
			ID      any            `json:"id"`
			Vector  []float32      `json:"vector"`
			Payload map[string]any `json:"payload"`
		} `json:"result"`
	}
	path := fmt.Sprintf("/collections/%s/points/%s", s.collection, id)
	err := s.doJSON(ctx, http.MethodGet, path, nil, &resp)
	if err != nil {
		var status *statusError
		if errors.As(err, &status) && status.code == http.StatusNotFound {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("retrieve point: %w", err)
	}
	if resp.Result == nil {
		return nil, domain.ErrNotFound
	}
	return &domain.Point{
		ID:      pointID(resp.Result.ID),
		Vector:  resp.Result.Vector,
		Payload: resp.Result.Payload,
	}, nil
}

// SetPayload replaces the given payload keys on a point, leaving other
// keys untouched.
func (s *Store) SetPayload(ctx context.Context, id string, payload map[string]any) error {
	body := map[string]any{
		"payload": payload,
		"points":  []string{id},
	}
	path := fmt.Sprintf("/collections/%s/points/payload?wait=true", s.collection)
	if err := s.doJSON(ctx, http.MethodPost, path, body, nil); err != nil {
		return fmt.Errorf("set payload: %w", err)
	}
	return nil
}

// Count returns the number of points in the collection.
func (s *Store) Count(ctx context.Context) (int64, error) {
	var resp struct {
		Result struct {
			Count int64 `json:"count"`
		} `json:"result"`
	}
	body := map[string]any{"exact": true}
	path := fmt.Sprintf("/collections/%s/points/count", s.collection)
	if err := s.doJSON(ctx, http.MethodPost, path, body, &resp); err != nil {
		return 0, fmt.Errorf("count points: %w", err)
	}
	return resp.Result.Count, nil
}

// Health checks reachability of the Qdrant root endpoint.
func (s *Store) Health(ctx context.Context) error {
	return s.doJSON(ctx, http.MethodGet, "/", nil, nil)
}

func encodeFilter(filter *domain.Filter) map[string]any {
	must := make([]map[string]any, len(filter.Must))
	for i, match := range filter.Must {
		must[i] = map[string]any{
			"key":   match.Key,
			"match": map[string]any{"value": match.Value},
		}
	}
	return map[string]any{"must": must}
}

// pointID normalizes Qdrant IDs, which may come back as strings or
// numbers depending on how they were written.
func pointID(id any) string {
	switch v := id.(type) {
	case string:
		return v
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	default:
		return fmt.Sprintf("%v", v)
	}
}

type statusError struct {
	code int
	body string
}

func (e *statusError) Error() string {
	return fmt.Sprintf("qdrant returned status %d: %s", e.code, e.body)
}

func (s *Store) doJSON(ctx context.Context, method, path string, body, out any) error {
	var reqBody io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("marshal request: %w", err)
		}
		reqBody = bytes.NewReader(data)
	}
	req, err := http.NewRequestWithContext(ctx, method, s.url+path, reqBody)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if s.apiKey != "" {
		req.Header.Set("api-key", s.apiKey)
	}
	resp, err := s.client.Do(req)
	if err != nil {
		return err
	}
	defer func() { _ = resp.Body.Close() }()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read response: %w", err)
	}
	if resp.StatusCode >= 400 {
		return &statusError{code: resp.StatusCode, body: string(data)}
	}
	if out != nil {
		if err := json.Unmarshal(data, out); err != nil {
			return fmt.Errorf("parse response: %w", err)
		}
	}
	return nil
}
