package engine

import (
	"fmt"
	"strings"

	"github.com/PuerkitoBio/goquery"
	xhtml "golang.org/x/net/html"
)

// Viewport is the visible document area used for tooltip clamping.
type Viewport struct {
	Width  int
	Height int
}

const (
	classTooltip      = "fa-tooltip"
	tooltipOffset     = 12
	tooltipMaxWidth   = 320
	tooltipCharWidth  = 7
	tooltipLineHeight = 18
	tooltipPadding    = 16
)

// tooltipController owns the single process-wide floating element. Showing
// a new tooltip replaces the previous content rather than stacking.
type tooltipController struct {
	doc      *goquery.Document
	viewport Viewport
}

// element returns the lazily created tooltip node.
func (t *tooltipController) element() *goquery.Selection {
	el := t.doc.Find("." + classTooltip).First()
	if el.Length() > 0 {
		return el
	}

	target := t.doc.Find("body").First()
	if target.Length() == 0 {
		target = t.doc.Selection
	}
	target.AppendHtml(`<div class="` + classTooltip + `" data-visible="false"></div>`)
	return t.doc.Find("." + classTooltip).First()
}

// show positions the tooltip at pointer coordinates plus a fixed offset,
// flipped to the opposite side of the pointer when its box would cross the
// viewport's right or bottom edge.
func (t *tooltipController) show(x, y int, content string) {
	el := t.element()
	if el.Length() == 0 {
		return
	}

	w, h := estimateTooltipSize(content)
	px, py := clampToViewport(x, y, w, h, t.viewport)

	el.SetText(content)
	el.SetAttr("style", fmt.Sprintf("left:%dpx;top:%dpx", px, py))
	el.SetAttr("data-visible", "true")
}

func (t *tooltipController) hide() {
	el := t.doc.Find("." + classTooltip).First()
	if el.Length() == 0 {
		return
	}
	el.SetAttr("data-visible", "false")
}

func clampToViewport(x, y, w, h int, vp Viewport) (int, int) {
	px := x + tooltipOffset
	if px+w > vp.Width {
		px = x - tooltipOffset - w
		if px < 0 {
			px = 0
		}
	}

	py := y + tooltipOffset
	if py+h > vp.Height {
		py = y - tooltipOffset - h
		if py < 0 {
			py = 0
		}
	}

	return px, py
}

// estimateTooltipSize approximates the rendered box; there is no layout
// engine behind the abstract document.
func estimateTooltipSize(content string) (int, int) {
	lines := strings.Split(content, "\n")
	longest := 0
	for _, line := range lines {
		if n := len(line); n > longest {
			longest = n
		}
	}

	w := tooltipPadding + longest*tooltipCharWidth
	if w > tooltipMaxWidth {
		w = tooltipMaxWidth
	}
	h := tooltipPadding + len(lines)*tooltipLineHeight

	return w, h
}

// showTooltip renders the cached verdict for the entry owning the badge.
func (e *Engine) showTooltip(node *xhtml.Node, x, y int) {
	s := e.selectionOf(node)
	if s == nil {
		return
	}

	// The badge node itself belongs to an entry; climb to it.
	entry := s.Closest(e.cfg.EntrySelector)
	if entry.Length() == 0 {
		return
	}
	id := resolveIdentity(entry)
	if id == "" {
		return
	}

	v, ok := e.cache.lastKnown(id)
	if !ok {
		return
	}

	content := v.Label
	if v.Reason != "" {
		if content != "" {
			content += "\n"
		}
		content += v.Reason
	}
	if content == "" {
		return
	}

	e.tooltip.show(x, y, content)
}
