package ports

import (
	"context"
	"errors"

	"golang.org/x/net/html"

	"FeedAnnotator/internal/domain"
)

// ErrChannelClosed marks a transport-level failure of the messaging
// channel (host gone, broken pipe). Callers check it with errors.Is; it is
// never raised for application errors reported by the backend itself.
var ErrChannelClosed = errors.New("messaging channel closed")

// SummarizeRequest carries a single-shot summarization action. NeedFetch
// asks the backend to download the article body when Content is too short.
type SummarizeRequest struct {
	ID        string
	Title     string
	URL       string
	Content   string
	NeedFetch bool
}

// RelatedItem is one semantic-search hit used by the related-items section.
type RelatedItem struct {
	ID       string
	Title    string
	URL      string
	Score    float64
	Distance float64
	Text     string
}

// ScoreChannel is the engine's view of the extension messaging channel.
// Every method performs at most one outbound call; channel-level failure is
// surfaced as an error wrapping ErrChannelClosed, never as a panic.
type ScoreChannel interface {
	// GetScores resolves a batch of identities. The returned map may omit
	// identities the backend knows nothing about, or include them with
	// Found=false; the caller treats both the same way.
	GetScores(ctx context.Context, batch []domain.EntryMeta) (map[string]domain.Verdict, error)

	// Analyze requests a fresh scoring of one entry.
	Analyze(ctx context.Context, meta domain.EntryMeta) (domain.Verdict, error)

	// Summarize requests a long-form summary. partial, when non-nil, receives
	// incremental chunks before the final summary is returned.
	Summarize(ctx context.Context, req SummarizeRequest, partial func(chunk string)) (string, error)

	// SemanticSearch looks up entries similar to the query, excluding currentID.
	SemanticSearch(ctx context.Context, query string, limit int, currentID string) ([]RelatedItem, error)
}

// ChangeBatch is one notification from document observation: the nodes the
// host newly introduced. An empty Added slice means "something changed
// somewhere" and forces a full re-query.
type ChangeBatch struct {
	Added []*html.Node
}

// ChangeFeed abstracts mutation-driven reactivity so the scan scheduler is
// testable with synthetic batches. The channel closes when observation ends.
type ChangeFeed interface {
	Changes() <-chan ChangeBatch
}

// PanelStatus is the lifecycle of a side-surface summary presentation.
type PanelStatus string

const (
	PanelLoading   PanelStatus = "loading"
	PanelStreaming PanelStatus = "streaming"
	PanelSuccess   PanelStatus = "success"
	PanelError     PanelStatus = "error"
)

// PanelSurface is the external presentation surface for long-form output.
// Successive calls with the same title replace the previous content.
type PanelSurface interface {
	ShowSummary(title string, status PanelStatus, body string)
}

// VerdictStore persists resolved verdicts for the scoring host.
type VerdictStore interface {
	Get(ctx context.Context, id string) (domain.Verdict, bool, error)
	GetMany(ctx context.Context, ids []string) (map[string]domain.Verdict, error)
	Save(ctx context.Context, v domain.Verdict, title, url string) error
	SaveMeta(ctx context.Context, id, title, url string) error
	SaveSummary(ctx context.Context, id, summary string) error
}

// Scorer rates one entry through the analysis model.
type Scorer interface {
	Score(ctx context.Context, meta domain.EntryMeta) (domain.Verdict, error)
}

// Summarizer produces a long-form summary of article content.
type Summarizer interface {
	Summarize(ctx context.Context, title, content string) (string, error)
}

// ContentFetcher downloads and extracts readable article text.
type ContentFetcher interface {
	Fetch(ctx context.Context, url string) (string, error)
}

// Embedder turns texts into embedding vectors for the vector index.
type Embedder interface {
	Embed(ctx context.Context, texts []string) ([][]float64, error)
}

// VectorIndex stores article embeddings and answers similarity queries.
type VectorIndex interface {
	Upsert(ctx context.Context, id, text string, metadata map[string]any) error
	Query(ctx context.Context, text string, limit int) ([]RelatedItem, error)
}
