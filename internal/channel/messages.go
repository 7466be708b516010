package channel

import (
	"time"

	"FeedAnnotator/internal/domain"
)

// Message type tags.
const (
	TypeGetScore      = "get_score"
	TypeGetScores     = "get_scores"
	TypeAnalyze       = "analyze_article"
	TypeSummarize     = "summarize_article"
	TypeSearch        = "semantic_search"
	TypeHealth        = "health"
	TypeSummaryUpdate = "summary_update"
)

// ItemMeta is the per-item metadata of the richer get_scores shape.
type ItemMeta struct {
	ID      string `json:"id"`
	Title   string `json:"title,omitempty"`
	URL     string `json:"url,omitempty"`
	Summary string `json:"summary,omitempty"`
}

// ScoresRequest supports both request shapes: the legacy bare identity
// list and the preferred per-item metadata superset.
type ScoresRequest struct {
	Type  string     `json:"type"`
	IDs   []string   `json:"ids,omitempty"`
	Items []ItemMeta `json:"items,omitempty"`
}

// ScoreRequest is the single-identity lookup.
type ScoreRequest struct {
	Type string `json:"type"`
	ID   string `json:"id"`
}

// VerdictData is the qualitative payload of a wire verdict.
type VerdictData struct {
	Verdict string `json:"verdict,omitempty"`
	Summary string `json:"summary,omitempty"`
	Reason  string `json:"reason,omitempty"`
}

// WireVerdict is the normalized per-identity item of a scores response.
type WireVerdict struct {
	ID        string      `json:"id"`
	Score     *float64    `json:"score"`
	Data      VerdictData `json:"data"`
	UpdatedAt string      `json:"updated_at,omitempty"`
	Found     bool        `json:"found"`
}

// ScoresResponse maps identity to its verdict; unknown identities may be
// absent or present with found=false.
type ScoresResponse struct {
	Items map[string]WireVerdict `json:"items"`
}

// AnalyzeRequest asks for a fresh scoring of one article.
type AnalyzeRequest struct {
	Type    string `json:"type"`
	ID      string `json:"id"`
	Title   string `json:"title,omitempty"`
	Summary string `json:"summary,omitempty"`
	Content string `json:"content,omitempty"`
}

// SummarizeRequest asks for a long-form summary; NeedFetch lets the host
// download the article body itself.
type SummarizeRequest struct {
	Type      string `json:"type"`
	ID        string `json:"id"`
	Title     string `json:"title,omitempty"`
	URL       string `json:"url,omitempty"`
	Content   string `json:"content,omitempty"`
	NeedFetch bool   `json:"needFetch"`
}

// SummarizeResponse is the final summary frame.
type SummarizeResponse struct {
	Summary string `json:"summary"`
}

// SummaryUpdate is an incremental frame delivered before the final
// summarize response, keyed by display title and status.
type SummaryUpdate struct {
	Type    string `json:"type"`
	Title   string `json:"title"`
	Status  string `json:"status"`
	Summary string `json:"summary,omitempty"`
}

// SearchRequest queries the vector index for similar articles.
type SearchRequest struct {
	Type             string `json:"type"`
	Query            string `json:"query"`
	Limit            int    `json:"limit,omitempty"`
	CurrentArticleID string `json:"current_article_id,omitempty"`
}

// SearchMetadata carries the displayable fields of a search hit.
type SearchMetadata struct {
	Title string  `json:"title,omitempty"`
	URL   string  `json:"url,omitempty"`
	Score float64 `json:"score,omitempty"`
}

// SearchResult is one semantic-search hit.
type SearchResult struct {
	ID       string         `json:"id"`
	Text     string         `json:"text,omitempty"`
	Metadata SearchMetadata `json:"metadata"`
	Distance float64        `json:"distance"`
}

// SearchResponse lists the hits nearest to the query.
type SearchResponse struct {
	Results []SearchResult `json:"results"`
}

// HealthResponse answers a liveness probe.
type HealthResponse struct {
	OK bool `json:"ok"`
}

// ErrorResponse is the backend-reported application error frame.
type ErrorResponse struct {
	Error  string `json:"error,omitempty"`
	Detail string `json:"detail,omitempty"`
}

// FromDomain converts a verdict to its wire form.
func FromDomain(v domain.Verdict) WireVerdict {
	w := WireVerdict{
		ID:    v.ID,
		Score: v.Score,
		Found: v.Found,
		Data: VerdictData{
			Verdict: v.Label,
			Summary: v.Summary,
			Reason:  v.Reason,
		},
	}
	if !v.UpdatedAt.IsZero() {
		w.UpdatedAt = v.UpdatedAt.UTC().Format(time.RFC3339)
	}
	return w
}

// ToDomain converts a wire verdict back to the domain form. A malformed
// timestamp is dropped rather than failing the whole item.
func (w WireVerdict) ToDomain() domain.Verdict {
	v := domain.Verdict{
		ID:      w.ID,
		Found:   w.Found,
		Score:   w.Score,
		Label:   w.Data.Verdict,
		Summary: w.Data.Summary,
		Reason:  w.Data.Reason,
	}
	if w.UpdatedAt != "" {
		if ts, err := time.Parse(time.RFC3339, w.UpdatedAt); err == nil {
			v.UpdatedAt = ts
		}
	}
	return v
}

// NotFound is the normalized item for an unknown identity.
func NotFound(id string) WireVerdict {
	return WireVerdict{ID: id, Found: false}
}
