package engine

import (
	"io"

	"FeedAnnotator/internal/channel"
	"FeedAnnotator/internal/config"
	"FeedAnnotator/internal/ports"
)

// FromSettings maps the application's engine section onto a Config.
// Zero values keep the defaults applied by New.
func FromSettings(s config.EngineConfig) Config {
	return Config{
		EntrySelector: s.EntrySelector,
		Debounce:      s.Debounce(),
		CacheTTL:      s.CacheTTL(),
		FastPathLimit: s.FastPathLimit,
		MinActionText: s.MinActionText,
		Viewport:      Viewport{Width: s.ViewportWidth, Height: s.ViewportHeight},
	}
}

// ChannelFrom builds the score channel over a connected host stream,
// honoring the configured request shape.
func ChannelFrom(s config.EngineConfig, r io.Reader, w io.Writer) ports.ScoreChannel {
	return channel.NewClient(r, w, s.LegacyRequests)
}
