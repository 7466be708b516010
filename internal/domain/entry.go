package domain

import "time"

// ViewMode is the host's current layout variant for an entry. It decides
// where engine UI may be inserted and which sub-elements are renderable.
type ViewMode int

const (
	ViewUnknown ViewMode = iota
	ViewCompactList
	ViewMagazine
	ViewCard
	ViewDetail
	ViewOverlay
)

// Expanded reports whether the mode shows the entry body, allowing
// detail-only elements such as the rationale and related-items section.
func (m ViewMode) Expanded() bool {
	return m == ViewDetail || m == ViewOverlay
}

func (m ViewMode) String() string {
	switch m {
	case ViewCompactList:
		return "compact-list"
	case ViewMagazine:
		return "magazine"
	case ViewCard:
		return "card"
	case ViewDetail:
		return "detail"
	case ViewOverlay:
		return "overlay"
	default:
		return "unknown"
	}
}

// EntryMeta is the metadata extracted from a live entry node. Content holds
// the full body text when the current view-mode exposes it.
type EntryMeta struct {
	ID      string
	Title   string
	URL     string
	Summary string
	Content string
}

// Verdict is the external judgment for one identity. Immutable once
// received; a later fetch may replace it in the cache but never mutates it.
type Verdict struct {
	ID        string
	Found     bool
	Score     *float64
	Label     string
	Reason    string
	Summary   string
	UpdatedAt time.Time
}

// Score tier boundaries, matching the scorer's verdict categories.
const (
	MustReadThreshold = 4.0
	OptionalThreshold = 3.0
)

// ScoreTier buckets a numeric score for badge coloring.
type ScoreTier int

const (
	TierLow ScoreTier = iota
	TierMid
	TierHigh
)

// TierOf maps a 0.0-5.0 score to its badge tier.
func TierOf(score float64) ScoreTier {
	switch {
	case score >= MustReadThreshold:
		return TierHigh
	case score >= OptionalThreshold:
		return TierMid
	default:
		return TierLow
	}
}

// LabelFor returns the qualitative label for a score when the scorer did
// not supply one of its own.
func LabelFor(score float64) string {
	switch TierOf(score) {
	case TierHigh:
		return "worth reading"
	case TierMid:
		return "optional"
	default:
		return "skip"
	}
}
