package engine

import (
	"github.com/PuerkitoBio/goquery"

	"FeedAnnotator/internal/domain"
)

// Marker classes for engine-owned UI. The host never uses the fa- prefix.
const (
	classContainer = "fa-annotation"
	containerHTML  = `<span class="` + classContainer + `"></span>`
)

// placement is one insertion-point strategy for the annotation container.
type placement int

const (
	placeMetaRow placement = iota
	placeAfterTitle
	placeInfoRow
	placeTitleWrap
	placePrepend
)

// insertionPlan returns the prioritized placement chain for a view-mode.
// Every chain ends in placePrepend so a container can always be created.
// Title-adjacent placement goes after the title element, never inside it,
// so the host's click and keyboard affordances stay intact.
func insertionPlan(mode domain.ViewMode) []placement {
	switch mode {
	case domain.ViewCard, domain.ViewMagazine:
		return []placement{placeMetaRow, placeInfoRow, placeAfterTitle, placeTitleWrap, placePrepend}
	case domain.ViewDetail, domain.ViewOverlay:
		return []placement{placeMetaRow, placeInfoRow, placeTitleWrap, placeAfterTitle, placePrepend}
	default:
		return []placement{placeMetaRow, placeAfterTitle, placeInfoRow, placeTitleWrap, placePrepend}
	}
}

// ensureContainer returns the entry's annotation container, creating it at
// the semantically correct location for the view-mode on first use.
// Idempotent: a second call returns the existing container. Only mutates
// DOM structure; never requests data.
func ensureContainer(s *goquery.Selection, mode domain.ViewMode) *goquery.Selection {
	if s == nil || s.Length() == 0 {
		return nil
	}

	if existing := s.Find("." + classContainer).First(); existing.Length() > 0 {
		return existing
	}

	for _, p := range insertionPlan(mode) {
		switch p {
		case placeMetaRow:
			if row := s.Find(".entry-meta").First(); row.Length() > 0 {
				row.AppendHtml(containerHTML)
				return s.Find("." + classContainer).First()
			}
		case placeAfterTitle:
			if title := s.Find(".entry-title").First(); title.Length() > 0 {
				title.AfterHtml(containerHTML)
				return s.Find("." + classContainer).First()
			}
		case placeInfoRow:
			if row := s.Find(".entry-info").First(); row.Length() > 0 {
				row.AppendHtml(containerHTML)
				return s.Find("." + classContainer).First()
			}
		case placeTitleWrap:
			if wrap := s.Find(".title-wrapper").First(); wrap.Length() > 0 {
				wrap.AppendHtml(containerHTML)
				return s.Find("." + classContainer).First()
			}
		case placePrepend:
			s.PrependHtml(containerHTML)
			return s.Find("." + classContainer).First()
		}
	}

	return nil
}
