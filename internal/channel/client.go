package channel

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"sync"

	"FeedAnnotator/internal/domain"
	"FeedAnnotator/internal/ports"
)

// AppError is an application error reported by the backend inside a valid
// frame, as opposed to a transport failure of the channel itself.
type AppError struct {
	Code   string
	Detail string
}

func (e *AppError) Error() string {
	if e.Detail != "" {
		return e.Code + ": " + e.Detail
	}
	return e.Code
}

// Client implements ports.ScoreChannel over a framed stream to the scoring
// host. Calls are serialized: the protocol pairs one request frame with its
// response frames in order.
type Client struct {
	mu     sync.Mutex
	r      io.Reader
	w      io.Writer
	legacy bool
}

var _ ports.ScoreChannel = (*Client)(nil)

// NewClient wraps a connected host stream. legacy selects the bare
// identity-list request shape for backends that predate item metadata.
func NewClient(r io.Reader, w io.Writer, legacy bool) *Client {
	return &Client{r: r, w: w, legacy: legacy}
}

// roundTrip writes one request and reads frames until the final response,
// forwarding any summary_update frames to onUpdate.
func (c *Client) roundTrip(req any, out any, onUpdate func(SummaryUpdate)) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if err := writeFrame(c.w, req); err != nil {
		return fmt.Errorf("%w: %v", ports.ErrChannelClosed, err)
	}

	for {
		raw, err := readFrame(c.r)
		if err != nil {
			return fmt.Errorf("%w: %v", ports.ErrChannelClosed, err)
		}

		var probe struct {
			Type  string `json:"type"`
			Error string `json:"error"`
		}
		if err := json.Unmarshal(raw, &probe); err != nil {
			return fmt.Errorf("%w: malformed frame: %v", ports.ErrChannelClosed, err)
		}

		if probe.Type == TypeSummaryUpdate {
			// Malformed partial frames are dropped; later frames still apply.
			var update SummaryUpdate
			if err := json.Unmarshal(raw, &update); err == nil && onUpdate != nil {
				onUpdate(update)
			}
			continue
		}

		if probe.Error != "" {
			var appErr ErrorResponse
			_ = json.Unmarshal(raw, &appErr)
			return &AppError{Code: appErr.Error, Detail: appErr.Detail}
		}

		if out == nil {
			return nil
		}
		if err := json.Unmarshal(raw, out); err != nil {
			return fmt.Errorf("decode response: %w", err)
		}
		return nil
	}
}

// GetScores resolves a batch of identities in one outbound call.
func (c *Client) GetScores(ctx context.Context, batch []domain.EntryMeta) (map[string]domain.Verdict, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	req := ScoresRequest{Type: TypeGetScores}
	if c.legacy {
		for _, m := range batch {
			req.IDs = append(req.IDs, m.ID)
		}
	} else {
		for _, m := range batch {
			req.Items = append(req.Items, ItemMeta{
				ID:      m.ID,
				Title:   m.Title,
				URL:     m.URL,
				Summary: m.Summary,
			})
		}
	}

	var resp ScoresResponse
	if err := c.roundTrip(req, &resp, nil); err != nil {
		return nil, fmt.Errorf("get scores: %w", err)
	}

	verdicts := make(map[string]domain.Verdict, len(resp.Items))
	for id, w := range resp.Items {
		if w.ID == "" {
			w.ID = id
		}
		verdicts[id] = w.ToDomain()
	}
	return verdicts, nil
}

// Analyze requests a fresh scoring of one entry.
func (c *Client) Analyze(ctx context.Context, meta domain.EntryMeta) (domain.Verdict, error) {
	if err := ctx.Err(); err != nil {
		return domain.Verdict{}, err
	}

	req := AnalyzeRequest{
		Type:    TypeAnalyze,
		ID:      meta.ID,
		Title:   meta.Title,
		Summary: meta.Summary,
		Content: meta.Content,
	}

	var resp WireVerdict
	if err := c.roundTrip(req, &resp, nil); err != nil {
		return domain.Verdict{}, fmt.Errorf("analyze article: %w", err)
	}
	if resp.ID == "" {
		resp.ID = meta.ID
	}
	return resp.ToDomain(), nil
}

// Summarize requests a long-form summary, forwarding incremental chunks.
func (c *Client) Summarize(ctx context.Context, req ports.SummarizeRequest, partial func(string)) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	wire := SummarizeRequest{
		Type:      TypeSummarize,
		ID:        req.ID,
		Title:     req.Title,
		URL:       req.URL,
		Content:   req.Content,
		NeedFetch: req.NeedFetch,
	}

	var resp SummarizeResponse
	err := c.roundTrip(wire, &resp, func(update SummaryUpdate) {
		if partial != nil && update.Summary != "" {
			partial(update.Summary)
		}
	})
	if err != nil {
		return "", fmt.Errorf("summarize article: %w", err)
	}
	return resp.Summary, nil
}

// SemanticSearch looks up entries similar to the query.
func (c *Client) SemanticSearch(ctx context.Context, query string, limit int, currentID string) ([]ports.RelatedItem, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	req := SearchRequest{
		Type:             TypeSearch,
		Query:            query,
		Limit:            limit,
		CurrentArticleID: currentID,
	}

	var resp SearchResponse
	if err := c.roundTrip(req, &resp, nil); err != nil {
		return nil, fmt.Errorf("semantic search: %w", err)
	}

	items := make([]ports.RelatedItem, 0, len(resp.Results))
	for _, r := range resp.Results {
		items = append(items, ports.RelatedItem{
			ID:       r.ID,
			Title:    r.Metadata.Title,
			URL:      r.Metadata.URL,
			Score:    r.Metadata.Score,
			Distance: r.Distance,
			Text:     r.Text,
		})
	}
	return items, nil
}

// Health probes the host.
func (c *Client) Health(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	var resp HealthResponse
	if err := c.roundTrip(struct {
		Type string `json:"type"`
	}{Type: TypeHealth}, &resp, nil); err != nil {
		return fmt.Errorf("health: %w", err)
	}
	if !resp.OK {
		return &AppError{Code: "unhealthy"}
	}
	return nil
}
