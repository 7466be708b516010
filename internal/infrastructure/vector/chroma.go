// Package vector stores article embeddings in a Chroma database and
// answers the similarity queries behind semantic search.
package vector

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"FeedAnnotator/internal/ports"
)

// Config describes the Chroma connection.
type Config struct {
	URL        string
	Tenant     string
	Database   string
	Collection string
}

// Store wraps the Chroma v2 REST API. The v2 API expects client-supplied
// embeddings, so every operation goes through the injected embedder.
type Store struct {
	baseURL      string
	tenant       string
	database     string
	collectionID string
	httpClient   *http.Client
	embedder     ports.Embedder
}

var _ ports.VectorIndex = (*Store)(nil)

// New connects to Chroma and resolves (or creates) the collection.
func New(ctx context.Context, cfg Config, embedder ports.Embedder) (*Store, error) {
	if cfg.URL == "" {
		return nil, fmt.Errorf("chroma url is empty")
	}
	if embedder == nil {
		return nil, fmt.Errorf("embedder is required for chroma v2")
	}
	if cfg.Tenant == "" {
		cfg.Tenant = "default_tenant"
	}
	if cfg.Database == "" {
		cfg.Database = "default_database"
	}
	if cfg.Collection == "" {
		cfg.Collection = "feed_articles"
	}

	s := &Store{
		baseURL:    strings.TrimSuffix(cfg.URL, "/") + "/api/v2",
		tenant:     cfg.Tenant,
		database:   cfg.Database,
		httpClient: &http.Client{Timeout: 20 * time.Second},
		embedder:   embedder,
	}

	id, err := s.getOrCreateCollection(ctx, cfg.Collection)
	if err != nil {
		return nil, fmt.Errorf("resolve collection %s: %w", cfg.Collection, err)
	}
	s.collectionID = id
	return s, nil
}

func (s *Store) collectionsURL() string {
	return fmt.Sprintf("%s/tenants/%s/databases/%s/collections", s.baseURL, s.tenant, s.database)
}

func (s *Store) getOrCreateCollection(ctx context.Context, name string) (string, error) {
	var existing struct {
		ID string `json:"id"`
	}
	err := s.call(ctx, http.MethodGet, s.collectionsURL()+"/"+name, nil, &existing)
	if err == nil && existing.ID != "" {
		return existing.ID, nil
	}

	var created struct {
		ID string `json:"id"`
	}
	payload := map[string]any{"name": name, "get_or_create": true}
	if err := s.call(ctx, http.MethodPost, s.collectionsURL(), payload, &created); err != nil {
		return "", err
	}
	if created.ID == "" {
		return "", fmt.Errorf("collection create returned no id")
	}
	return created.ID, nil
}

// Upsert adds or replaces one article document.
func (s *Store) Upsert(ctx context.Context, id, text string, metadata map[string]any) error {
	if strings.TrimSpace(text) == "" {
		return fmt.Errorf("empty document for %s", id)
	}

	vectors, err := s.embedder.Embed(ctx, []string{text})
	if err != nil {
		return fmt.Errorf("embed document %s: %w", id, err)
	}

	// Chroma metadata must stay flat and primitive.
	safe := make(map[string]any, len(metadata))
	for k, v := range metadata {
		switch v.(type) {
		case string, int, int64, float64, bool:
			safe[k] = v
		default:
			safe[k] = fmt.Sprint(v)
		}
	}

	payload := map[string]any{
		"ids":        []string{id},
		"documents":  []string{text},
		"embeddings": vectors,
		"metadatas":  []map[string]any{safe},
	}
	url := fmt.Sprintf("%s/%s/upsert", s.collectionsURL(), s.collectionID)
	if err := s.call(ctx, http.MethodPost, url, payload, nil); err != nil {
		return fmt.Errorf("upsert %s: %w", id, err)
	}
	return nil
}

type queryResults struct {
	IDs       [][]string         `json:"ids"`
	Distances [][]float64        `json:"distances"`
	Metadatas [][]map[string]any `json:"metadatas"`
	Documents [][]string         `json:"documents"`
}

// Query returns the documents nearest to the query text.
func (s *Store) Query(ctx context.Context, text string, limit int) ([]ports.RelatedItem, error) {
	if limit <= 0 {
		limit = 5
	}

	vectors, err := s.embedder.Embed(ctx, []string{text})
	if err != nil {
		return nil, fmt.Errorf("embed query: %w", err)
	}

	payload := map[string]any{
		"query_embeddings": vectors,
		"n_results":        limit,
		"include":          []string{"documents", "metadatas", "distances"},
	}

	var results queryResults
	url := fmt.Sprintf("%s/%s/query", s.collectionsURL(), s.collectionID)
	if err := s.call(ctx, http.MethodPost, url, payload, &results); err != nil {
		return nil, fmt.Errorf("query: %w", err)
	}

	if len(results.IDs) == 0 {
		return nil, nil
	}

	ids := results.IDs[0]
	items := make([]ports.RelatedItem, 0, len(ids))
	for i, id := range ids {
		item := ports.RelatedItem{ID: id}
		if len(results.Documents) > 0 && i < len(results.Documents[0]) {
			item.Text = results.Documents[0][i]
		}
		if len(results.Distances) > 0 && i < len(results.Distances[0]) {
			item.Distance = results.Distances[0][i]
		}
		if len(results.Metadatas) > 0 && i < len(results.Metadatas[0]) {
			meta := results.Metadatas[0][i]
			if title, ok := meta["title"].(string); ok {
				item.Title = title
			}
			if url, ok := meta["url"].(string); ok {
				item.URL = url
			}
			if score, ok := meta["score"].(float64); ok {
				item.Score = score
			}
		}
		items = append(items, item)
	}
	return items, nil
}

func (s *Store) call(ctx context.Context, method, url string, payload, out any) error {
	var body io.Reader
	if payload != nil {
		encoded, err := json.Marshal(payload)
		if err != nil {
			return fmt.Errorf("marshal payload: %w", err)
		}
		body = bytes.NewReader(encoded)
	}

	req, err := http.NewRequestWithContext(ctx, method, url, body)
	if err != nil {
		return fmt.Errorf("new request: %w", err)
	}
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("do request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusBadRequest {
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return fmt.Errorf("chroma %s: %s", resp.Status, strings.TrimSpace(string(raw)))
	}

	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}
