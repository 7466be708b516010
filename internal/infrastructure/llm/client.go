// Package llm talks to OpenAI-compatible chat and embeddings endpoints for
// scoring and summarization.
package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"regexp"
	"strings"
	"time"

	"FeedAnnotator/internal/config"
	"FeedAnnotator/internal/domain"
	"FeedAnnotator/internal/ports"
)

var jsonBlockExpr = regexp.MustCompile(`(?s)\{.*\}`)

// Client implements scoring and summarization over a chat-completions API.
type Client struct {
	baseURL    string
	model      string
	apiKey     string
	persona    string
	httpClient *http.Client
}

var _ ports.Scorer = (*Client)(nil)
var _ ports.Summarizer = (*Client)(nil)

// NewClient builds a client from configuration.
func NewClient(cfg config.LLMConfig) *Client {
	return &Client{
		baseURL:    strings.TrimSuffix(cfg.BaseURL, "/"),
		model:      cfg.Model,
		apiKey:     cfg.APIKey,
		persona:    cfg.Persona,
		httpClient: &http.Client{Timeout: 60 * time.Second},
	}
}

type scorePayload struct {
	RelevanceScore float64 `json:"relevance_score"`
	DepthScore     float64 `json:"depth_score"`
	OverallScore   float64 `json:"overall_score"`
	Verdict        string  `json:"verdict"`
	Comment        string  `json:"comment"`
}

// Score rates one article on the 0.0-5.0 scale.
func (c *Client) Score(ctx context.Context, meta domain.EntryMeta) (domain.Verdict, error) {
	if c.apiKey == "" || c.baseURL == "" || c.model == "" {
		return domain.Verdict{}, fmt.Errorf("llm client misconfigured")
	}

	text, err := c.chat(ctx, scoringPrompt(c.persona, meta))
	if err != nil {
		return domain.Verdict{}, fmt.Errorf("score article: %w", err)
	}

	parsed := parseScoreResponse(text)
	score := parsed.OverallScore
	label := parsed.Verdict
	if label == "" {
		label = domain.LabelFor(score)
	}

	return domain.Verdict{
		Found:  true,
		Score:  &score,
		Label:  label,
		Reason: parsed.Comment,
	}, nil
}

// Summarize produces a long-form summary of the article content.
func (c *Client) Summarize(ctx context.Context, title, content string) (string, error) {
	if c.apiKey == "" || c.baseURL == "" || c.model == "" {
		return "", fmt.Errorf("llm client misconfigured")
	}

	summary, err := c.chat(ctx, summaryPrompt(title, content))
	if err != nil {
		return "", fmt.Errorf("summarize article: %w", err)
	}
	return strings.TrimSpace(summary), nil
}

func (c *Client) chat(ctx context.Context, prompt string) (string, error) {
	body, err := json.Marshal(map[string]any{
		"model": c.model,
		"messages": []map[string]string{
			{"role": "user", "content": prompt},
		},
		"temperature": 0.3,
		"max_tokens":  1024,
	})
	if err != nil {
		return "", fmt.Errorf("marshal chat payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/chat/completions", bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("new request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("send chat request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusBadRequest {
		payload, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return "", fmt.Errorf("chat error %s: %s", resp.Status, strings.TrimSpace(string(payload)))
	}

	var decoded struct {
		Choices []struct {
			Message struct {
				Content string `json:"content"`
			} `json:"message"`
		} `json:"choices"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		return "", fmt.Errorf("decode chat response: %w", err)
	}
	if len(decoded.Choices) == 0 {
		return "", fmt.Errorf("chat response has no choices")
	}

	return decoded.Choices[0].Message.Content, nil
}

// parseScoreResponse extracts the JSON block from the model output. A
// response the model garbled yields a neutral verdict instead of an error,
// so one bad completion cannot poison a whole batch.
func parseScoreResponse(text string) scorePayload {
	fallback := scorePayload{
		OverallScore: domain.OptionalThreshold,
		Verdict:      domain.LabelFor(domain.OptionalThreshold),
		Comment:      "unparseable model response: " + truncate(text, 100),
	}

	block := jsonBlockExpr.FindString(text)
	if block == "" {
		return fallback
	}

	var parsed scorePayload
	if err := json.Unmarshal([]byte(block), &parsed); err != nil {
		return fallback
	}
	if parsed.OverallScore < 0 || parsed.OverallScore > 5 {
		return fallback
	}
	return parsed
}

func scoringPrompt(persona string, meta domain.EntryMeta) string {
	if persona == "" {
		persona = "You are a senior engineer triaging a technical reading feed."
	}

	summary := meta.Summary
	if summary == "" {
		summary = "(none)"
	}

	return fmt.Sprintf(`%s

Judge whether the article below is worth reading in full.

Score these dimensions from 1 to 5: relevance to the reader's interests,
depth and originality of insight. Then compute an overall score (one
decimal place) and a verdict:
- overall >= 4.0: "worth reading"
- 3.0 to 3.9: "optional"
- below 3.0: "skip"

Explain the verdict in two to four sentences, naming the main strength and
weakness. Reply with exactly this JSON and nothing else:

{"relevance_score": n, "depth_score": n, "overall_score": n, "verdict": "...", "comment": "..."}

Title: %s
Summary: %s
Body: %s`, persona, meta.Title, truncate(summary, 200), truncate(meta.Content, 3000))
}

func summaryPrompt(title, content string) string {
	return fmt.Sprintf(`Summarize the following article in a few short
paragraphs. Keep the key arguments and any concrete numbers; drop
marketing language.

Title: %s

%s`, title, truncate(content, 10000))
}

func truncate(s string, limit int) string {
	if len(s) <= limit {
		return s
	}
	return s[:limit]
}
