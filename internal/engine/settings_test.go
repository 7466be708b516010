package engine

import (
	"bytes"
	"context"
	"encoding/binary"
	"encoding/json"
	"testing"
	"time"

	"FeedAnnotator/internal/channel"
	"FeedAnnotator/internal/config"
	"FeedAnnotator/internal/domain"
)

func TestFromSettings(t *testing.T) {
	t.Parallel()

	cfg := FromSettings(config.EngineConfig{
		EntrySelector:  ".item",
		DebounceMS:     350,
		CacheTTLSec:    45,
		FastPathLimit:  12,
		MinActionText:  120,
		ViewportWidth:  1920,
		ViewportHeight: 1080,
	})

	if cfg.EntrySelector != ".item" {
		t.Fatalf("unexpected selector: %q", cfg.EntrySelector)
	}
	if cfg.Debounce != 350*time.Millisecond {
		t.Fatalf("unexpected debounce: %v", cfg.Debounce)
	}
	if cfg.CacheTTL != 45*time.Second {
		t.Fatalf("unexpected ttl: %v", cfg.CacheTTL)
	}
	if cfg.FastPathLimit != 12 || cfg.MinActionText != 120 {
		t.Fatalf("limits not mapped: %+v", cfg)
	}
	if cfg.Viewport != (Viewport{Width: 1920, Height: 1080}) {
		t.Fatalf("viewport not mapped: %+v", cfg.Viewport)
	}
}

func TestChannelFromSelectsRequestShape(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name      string
		legacy    bool
		wantField string
		dropField string
	}{
		{"legacy ids shape", true, "ids", "items"},
		{"item metadata shape", false, "items", "ids"},
	}

	for _, tc := range cases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			// Canned host response so the round-trip completes.
			payload, err := json.Marshal(channel.ScoresResponse{Items: map[string]channel.WireVerdict{}})
			if err != nil {
				t.Fatalf("marshal response: %v", err)
			}
			var in bytes.Buffer
			var header [4]byte
			binary.LittleEndian.PutUint32(header[:], uint32(len(payload)))
			in.Write(header[:])
			in.Write(payload)

			var out bytes.Buffer
			ch := ChannelFrom(config.EngineConfig{LegacyRequests: tc.legacy}, &in, &out)

			if _, err := ch.GetScores(context.Background(), []domain.EntryMeta{{ID: "e1", Title: "T"}}); err != nil {
				t.Fatalf("GetScores: %v", err)
			}

			var req map[string]any
			if err := json.Unmarshal(out.Bytes()[4:], &req); err != nil {
				t.Fatalf("decode request frame: %v", err)
			}
			if _, ok := req[tc.wantField]; !ok {
				t.Fatalf("request missing %q field: %v", tc.wantField, req)
			}
			if _, ok := req[tc.dropField]; ok {
				t.Fatalf("request must not carry %q: %v", tc.dropField, req)
			}
		})
	}
}
