// Package backend implements the scoring-host side of the messaging
// channel: verdict lookups from the store, on-demand analysis and
// summarization through the LLM, and semantic search over the vector index.
package backend

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"FeedAnnotator/internal/channel"
	"FeedAnnotator/internal/domain"
	"FeedAnnotator/internal/ports"
)

// minActionText mirrors the engine's local guard: below this and with no
// URL to fetch, analysis and summarization fail as application errors.
const minActionText = 80

// Service dispatches channel messages. Store is required; the other
// collaborators are optional and their operations degrade to application
// errors when absent.
type Service struct {
	store      ports.VerdictStore
	scorer     ports.Scorer
	summarizer ports.Summarizer
	fetcher    ports.ContentFetcher
	index      ports.VectorIndex
	logger     *slog.Logger
	now        func() time.Time
}

var _ channel.Handler = (*Service)(nil)

// Deps wires the service collaborators.
type Deps struct {
	Store      ports.VerdictStore
	Scorer     ports.Scorer
	Summarizer ports.Summarizer
	Fetcher    ports.ContentFetcher
	Index      ports.VectorIndex
	Logger     *slog.Logger
	Now        func() time.Time
}

// New builds the message dispatcher.
func New(deps Deps) *Service {
	logger := deps.Logger
	if logger == nil {
		logger = slog.Default()
	}
	now := deps.Now
	if now == nil {
		now = time.Now
	}
	return &Service{
		store:      deps.Store,
		scorer:     deps.Scorer,
		summarizer: deps.Summarizer,
		fetcher:    deps.Fetcher,
		index:      deps.Index,
		logger:     logger,
		now:        now,
	}
}

// Handle routes one request frame by its type tag.
func (s *Service) Handle(ctx context.Context, msg json.RawMessage, emit func(any) error) (any, error) {
	var probe struct {
		Type string `json:"type"`
	}
	if err := json.Unmarshal(msg, &probe); err != nil {
		return channel.ErrorResponse{Error: "malformed_request", Detail: err.Error()}, nil
	}

	switch probe.Type {
	case channel.TypeGetScore:
		return s.handleGetScore(ctx, msg)
	case channel.TypeGetScores:
		return s.handleGetScores(ctx, msg)
	case channel.TypeAnalyze:
		return s.handleAnalyze(ctx, msg)
	case channel.TypeSummarize:
		return s.handleSummarize(ctx, msg, emit)
	case channel.TypeSearch:
		return s.handleSearch(ctx, msg)
	case channel.TypeHealth:
		return channel.HealthResponse{OK: true}, nil
	default:
		return channel.ErrorResponse{Error: "unknown_type"}, nil
	}
}

func (s *Service) handleGetScore(ctx context.Context, msg json.RawMessage) (any, error) {
	var req channel.ScoreRequest
	if err := json.Unmarshal(msg, &req); err != nil {
		return channel.ErrorResponse{Error: "malformed_request", Detail: err.Error()}, nil
	}
	if req.ID == "" {
		return channel.NotFound(""), nil
	}

	v, found, err := s.store.Get(ctx, req.ID)
	if err != nil {
		return nil, fmt.Errorf("load score %s: %w", req.ID, err)
	}
	if !found {
		return channel.NotFound(req.ID), nil
	}
	return channel.FromDomain(v), nil
}

func (s *Service) handleGetScores(ctx context.Context, msg json.RawMessage) (any, error) {
	var req channel.ScoresRequest
	if err := json.Unmarshal(msg, &req); err != nil {
		return channel.ErrorResponse{Error: "malformed_request", Detail: err.Error()}, nil
	}

	ids := req.IDs
	if len(req.Items) > 0 {
		ids = make([]string, 0, len(req.Items))
		for _, item := range req.Items {
			ids = append(ids, item.ID)
		}
	}

	known, err := s.store.GetMany(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("load scores: %w", err)
	}

	items := make(map[string]channel.WireVerdict, len(ids))
	for _, id := range ids {
		if v, ok := known[id]; ok {
			items[id] = channel.FromDomain(v)
		} else {
			items[id] = channel.NotFound(id)
		}
	}

	// The richer shape carries display metadata worth keeping.
	for _, item := range req.Items {
		if item.Title == "" && item.URL == "" {
			continue
		}
		if _, ok := known[item.ID]; !ok {
			continue
		}
		if err := s.store.SaveMeta(ctx, item.ID, item.Title, item.URL); err != nil {
			s.logger.Warn("save item metadata failed", "id", item.ID, "error", err)
		}
	}

	return channel.ScoresResponse{Items: items}, nil
}

func (s *Service) handleAnalyze(ctx context.Context, msg json.RawMessage) (any, error) {
	var req channel.AnalyzeRequest
	if err := json.Unmarshal(msg, &req); err != nil {
		return channel.ErrorResponse{Error: "malformed_request", Detail: err.Error()}, nil
	}
	if s.scorer == nil {
		return channel.ErrorResponse{Error: "analysis_unavailable"}, nil
	}
	if req.Title == "" && req.Summary == "" && req.Content == "" {
		return channel.ErrorResponse{Error: "content_too_short"}, nil
	}

	meta := domain.EntryMeta{
		ID:      req.ID,
		Title:   req.Title,
		Summary: req.Summary,
		Content: req.Content,
	}

	v, err := s.scorer.Score(ctx, meta)
	if err != nil {
		return channel.ErrorResponse{Error: "analysis_failed", Detail: err.Error()}, nil
	}
	v.ID = req.ID
	v.Found = true
	v.UpdatedAt = s.now()

	if err := s.store.Save(ctx, v, req.Title, ""); err != nil {
		return nil, fmt.Errorf("persist verdict %s: %w", req.ID, err)
	}
	s.indexArticle(ctx, v, req.Title, "", req.Content)

	return channel.FromDomain(v), nil
}

func (s *Service) handleSummarize(ctx context.Context, msg json.RawMessage, emit func(any) error) (any, error) {
	var req channel.SummarizeRequest
	if err := json.Unmarshal(msg, &req); err != nil {
		return channel.ErrorResponse{Error: "malformed_request", Detail: err.Error()}, nil
	}
	if s.summarizer == nil {
		return channel.ErrorResponse{Error: "summarization_unavailable"}, nil
	}

	content := req.Content
	if (req.NeedFetch || len(content) < minActionText) && req.URL != "" && s.fetcher != nil {
		s.sendUpdate(emit, req.Title, ports.PanelLoading, "")
		fetched, err := s.fetcher.Fetch(ctx, req.URL)
		if err != nil {
			s.logger.Warn("content fetch failed", "id", req.ID, "url", req.URL, "error", err)
		} else if fetched != "" {
			content = fetched
		}
	}

	if len(content) < minActionText {
		return channel.ErrorResponse{Error: "content_too_short"}, nil
	}

	s.sendUpdate(emit, req.Title, ports.PanelStreaming, "")
	summary, err := s.summarizer.Summarize(ctx, req.Title, content)
	if err != nil {
		return channel.ErrorResponse{Error: "summarization_failed", Detail: err.Error()}, nil
	}

	if req.ID != "" {
		if err := s.store.SaveSummary(ctx, req.ID, summary); err != nil {
			s.logger.Warn("persist summary failed", "id", req.ID, "error", err)
		}
	}

	return channel.SummarizeResponse{Summary: summary}, nil
}

func (s *Service) handleSearch(ctx context.Context, msg json.RawMessage) (any, error) {
	var req channel.SearchRequest
	if err := json.Unmarshal(msg, &req); err != nil {
		return channel.ErrorResponse{Error: "malformed_request", Detail: err.Error()}, nil
	}
	if s.index == nil {
		return channel.ErrorResponse{Error: "search_unavailable"}, nil
	}
	if req.Query == "" {
		return channel.SearchResponse{Results: []channel.SearchResult{}}, nil
	}

	limit := req.Limit
	if limit <= 0 {
		limit = 5
	}

	// Fetch one extra so excluding the current article still fills the list.
	hits, err := s.index.Query(ctx, req.Query, limit+1)
	if err != nil {
		return channel.ErrorResponse{Error: "search_failed", Detail: err.Error()}, nil
	}

	results := make([]channel.SearchResult, 0, limit)
	for _, hit := range hits {
		if hit.ID == req.CurrentArticleID {
			continue
		}
		results = append(results, channel.SearchResult{
			ID:   hit.ID,
			Text: hit.Text,
			Metadata: channel.SearchMetadata{
				Title: hit.Title,
				URL:   hit.URL,
				Score: hit.Score,
			},
			Distance: hit.Distance,
		})
		if len(results) == limit {
			break
		}
	}

	return channel.SearchResponse{Results: results}, nil
}

func (s *Service) sendUpdate(emit func(any) error, title string, status ports.PanelStatus, body string) {
	if emit == nil {
		return
	}
	update := channel.SummaryUpdate{
		Type:    channel.TypeSummaryUpdate,
		Title:   title,
		Status:  string(status),
		Summary: body,
	}
	if err := emit(update); err != nil {
		s.logger.Debug("emit summary update failed", "error", err)
	}
}

// indexArticle upserts the scored article into the vector index.
// Best-effort: failures are logged and never block the main flow.
func (s *Service) indexArticle(ctx context.Context, v domain.Verdict, title, url, content string) {
	if s.index == nil {
		return
	}

	text := ""
	if title != "" {
		text += "Title: " + title + "\n"
	}
	if body := firstNonEmpty(v.Summary, content); body != "" {
		text += "Content: " + body
	}
	if text == "" {
		return
	}

	metadata := map[string]any{
		"title":      truncate(title, 100),
		"updated_at": v.UpdatedAt.UTC().Format(time.RFC3339),
	}
	if v.Score != nil {
		metadata["score"] = *v.Score
	}
	if url != "" {
		metadata["url"] = url
	}

	if err := s.index.Upsert(ctx, v.ID, text, metadata); err != nil {
		s.logger.Warn("vector upsert failed", "id", v.ID, "error", err)
	}
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}

func truncate(s string, limit int) string {
	if len(s) <= limit {
		return s
	}
	return s[:limit]
}
