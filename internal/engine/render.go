package engine

import (
	"fmt"
	"html"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"FeedAnnotator/internal/domain"
	"FeedAnnotator/internal/ports"
)

const (
	classBadge        = "fa-badge"
	classBadgeHigh    = "fa-badge--high"
	classBadgeMid     = "fa-badge--mid"
	classBadgeLow     = "fa-badge--low"
	classVerdict      = "fa-verdict"
	classReason       = "fa-reason"
	classAnalyzeBtn   = "fa-analyze-btn"
	classSummarizeBtn = "fa-summarize-btn"
	classRelated      = "fa-related"

	attrControlState = "data-state"
	controlIdle      = "idle"
	controlBusy      = "busy"
	controlError     = "error"
)

// reconcile materializes the UI state for one entry from a verdict.
// Deterministic and idempotent: every sub-element is created at most once
// per container, checked by marker class before insertion, so repeated
// passes never duplicate nodes.
func (e *Engine) reconcile(s *goquery.Selection, id string, mode domain.ViewMode, v domain.Verdict) {
	container := ensureContainer(s, mode)
	if container == nil {
		return
	}

	if !v.Found {
		// A single manual trigger in its default state replaces any prior
		// scored content.
		if container.Find("."+classBadge).Length() > 0 || container.Find("."+classVerdict).Length() > 0 {
			container.SetHtml("")
		}
		if container.Find("."+classAnalyzeBtn).Length() == 0 {
			container.AppendHtml(fmt.Sprintf(
				`<button class="%s" %s="%s">Analyze</button>`,
				classAnalyzeBtn, attrControlState, controlIdle))
		}
		return
	}

	// Transition from the unscored control to a scored badge starts clean.
	if container.Find("."+classBadge).Length() == 0 && container.Find("."+classAnalyzeBtn).Length() > 0 {
		container.SetHtml("")
	}

	if v.Score != nil && container.Find("."+classBadge).Length() == 0 {
		container.AppendHtml(fmt.Sprintf(
			`<span class="%s %s" %s=%q>%.1f</span>`,
			classBadge, tierClass(*v.Score), attrEntryID, id, *v.Score))
	}

	label := v.Label
	if label == "" && v.Score != nil {
		label = domain.LabelFor(*v.Score)
	}
	if label != "" && container.Find("."+classVerdict).Length() == 0 {
		container.AppendHtml(fmt.Sprintf(
			`<span class="%s">%s</span>`, classVerdict, html.EscapeString(label)))
	}

	if mode.Expanded() && v.Reason != "" && container.Find("."+classReason).Length() == 0 {
		container.AppendHtml(fmt.Sprintf(
			`<div class="%s">%s</div>`, classReason, html.EscapeString(v.Reason)))
	}

	// Summaries route to the side surface on demand; never auto-injected.
	if v.Summary != "" && container.Find("."+classSummarizeBtn).Length() == 0 {
		container.AppendHtml(fmt.Sprintf(
			`<button class="%s" %s="%s">Summary</button>`,
			classSummarizeBtn, attrControlState, controlIdle))
	}

	if mode.Expanded() {
		e.maybeRelated(s, id, strings.TrimSpace(s.Find(".entry-title").First().Text()))
	}
}

func tierClass(score float64) string {
	switch domain.TierOf(score) {
	case domain.TierHigh:
		return classBadgeHigh
	case domain.TierMid:
		return classBadgeMid
	default:
		return classBadgeLow
	}
}

// setControlState updates a trigger control's state marker and label,
// creating the control if the host replaced the container contents.
func (e *Engine) setControlState(s *goquery.Selection, class, state, label string) {
	btn := s.Find("." + class).First()
	if btn.Length() == 0 {
		container := ensureContainer(s, classifyViewMode(s))
		if container == nil {
			return
		}
		container.AppendHtml(fmt.Sprintf(`<button class="%s"></button>`, class))
		btn = s.Find("." + class).First()
	}
	btn.SetAttr(attrControlState, state)
	btn.SetText(label)
}

// renderRelated writes the related-items section once per container.
func (e *Engine) renderRelated(s *goquery.Selection, items []ports.RelatedItem) {
	container := ensureContainer(s, classifyViewMode(s))
	if container == nil || container.Find("."+classRelated).Length() > 0 {
		return
	}

	var b strings.Builder
	b.WriteString(`<div class="` + classRelated + `"><ul>`)
	for _, it := range items {
		title := it.Title
		if title == "" {
			title = it.ID
		}
		b.WriteString(`<li><a href="` + html.EscapeString(it.URL) + `">` +
			html.EscapeString(title) + `</a></li>`)
	}
	b.WriteString(`</ul></div>`)
	container.AppendHtml(b.String())
}
