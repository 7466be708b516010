package engine

import (
	"github.com/PuerkitoBio/goquery"

	"FeedAnnotator/internal/domain"
)

// classifyViewMode maps an entry node to one of the closed set of host
// layout variants. A single classification point keeps the rest of the
// engine free of ad hoc class probing.
func classifyViewMode(s *goquery.Selection) domain.ViewMode {
	switch {
	case s.HasClass("overlay"):
		return domain.ViewOverlay
	case s.HasClass("expanded") || s.HasClass("detail"):
		return domain.ViewDetail
	case s.HasClass("u5") || s.HasClass("card"):
		return domain.ViewCard
	case s.HasClass("u4") || s.HasClass("magazine"):
		return domain.ViewMagazine
	case s.HasClass("u0") || s.HasClass("list"):
		return domain.ViewCompactList
	}

	// An entry body only renders in expanded layouts.
	if s.Find(".entry-body").Length() > 0 {
		return domain.ViewDetail
	}

	return domain.ViewCompactList
}
