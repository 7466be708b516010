package llm

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"FeedAnnotator/internal/config"
	"FeedAnnotator/internal/domain"
)

func chatServer(t *testing.T, content string) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/chat/completions" {
			t.Errorf("unexpected path: %s", r.URL.Path)
		}
		if got := r.Header.Get("Authorization"); got != "Bearer test-key" {
			t.Errorf("unexpected auth header: %q", got)
		}

		resp := map[string]any{
			"choices": []map[string]any{
				{"message": map[string]string{"content": content}},
			},
		}
		_ = json.NewEncoder(w).Encode(resp)
	}))
}

func testClient(serverURL string) *Client {
	return NewClient(config.LLMConfig{
		BaseURL: serverURL,
		Model:   "test-model",
		APIKey:  "test-key",
	})
}

func TestScoreParsesModelJSON(t *testing.T) {
	t.Parallel()

	content := `Here is my judgment:
{"relevance_score": 5, "depth_score": 4, "overall_score": 4.6, "verdict": "worth reading", "comment": "rigorous and novel"}`
	server := chatServer(t, content)
	defer server.Close()

	v, err := testClient(server.URL).Score(context.Background(), domain.EntryMeta{
		ID:    "a1",
		Title: "Paper",
	})
	if err != nil {
		t.Fatalf("Score: %v", err)
	}

	if v.Score == nil || *v.Score != 4.6 {
		t.Fatalf("unexpected score: %+v", v.Score)
	}
	if v.Label != "worth reading" {
		t.Fatalf("unexpected label: %q", v.Label)
	}
	if v.Reason != "rigorous and novel" {
		t.Fatalf("unexpected reason: %q", v.Reason)
	}
	if !v.Found {
		t.Fatalf("scored verdict should be found")
	}
}

func TestScoreFallsBackOnGarbledOutput(t *testing.T) {
	t.Parallel()

	server := chatServer(t, "I'm sorry, I cannot produce JSON today.")
	defer server.Close()

	v, err := testClient(server.URL).Score(context.Background(), domain.EntryMeta{ID: "a1"})
	if err != nil {
		t.Fatalf("Score: %v", err)
	}
	if v.Score == nil || *v.Score != domain.OptionalThreshold {
		t.Fatalf("expected neutral fallback score, got %+v", v.Score)
	}
	if v.Label != "optional" {
		t.Fatalf("unexpected fallback label: %q", v.Label)
	}
	if !strings.Contains(v.Reason, "unparseable") {
		t.Fatalf("fallback reason should flag the bad response: %q", v.Reason)
	}
}

func TestParseScoreResponseRejectsOutOfRange(t *testing.T) {
	t.Parallel()

	parsed := parseScoreResponse(`{"overall_score": 9.5, "verdict": "worth reading"}`)
	if parsed.OverallScore != domain.OptionalThreshold {
		t.Fatalf("out-of-range score should fall back, got %v", parsed.OverallScore)
	}
}

func TestScoreMisconfiguredClient(t *testing.T) {
	t.Parallel()

	c := NewClient(config.LLMConfig{})
	if _, err := c.Score(context.Background(), domain.EntryMeta{ID: "a1"}); err == nil {
		t.Fatalf("expected configuration error")
	}
}

func TestSummarizeTrimsOutput(t *testing.T) {
	t.Parallel()

	server := chatServer(t, "\n  A tidy summary of the article.  \n")
	defer server.Close()

	summary, err := testClient(server.URL).Summarize(context.Background(), "Title", "content body")
	if err != nil {
		t.Fatalf("Summarize: %v", err)
	}
	if summary != "A tidy summary of the article." {
		t.Fatalf("unexpected summary: %q", summary)
	}
}

func TestChatSurfacesHTTPErrors(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "rate limited", http.StatusTooManyRequests)
	}))
	defer server.Close()

	_, err := testClient(server.URL).Summarize(context.Background(), "T", "c")
	if err == nil || !strings.Contains(err.Error(), "429") {
		t.Fatalf("expected status error, got %v", err)
	}
}
