package engine

import (
	"strings"
	"testing"

	xhtml "golang.org/x/net/html"

	"FeedAnnotator/internal/domain"
)

func TestClampToViewport(t *testing.T) {
	t.Parallel()

	vp := Viewport{Width: 1280, Height: 800}

	cases := []struct {
		name           string
		x, y, w, h     int
		wantX, wantY   int
	}{
		{"plain offset", 100, 100, 200, 50, 112, 112},
		{"flip left at right edge", 1250, 100, 200, 50, 1038, 112},
		{"flip up at bottom edge", 100, 790, 200, 50, 112, 728},
		{"clamp to origin", 5, 5, 2000, 2000, 0, 0},
	}

	for _, tc := range cases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			gotX, gotY := clampToViewport(tc.x, tc.y, tc.w, tc.h, vp)
			if gotX != tc.wantX || gotY != tc.wantY {
				t.Fatalf("clampToViewport = (%d, %d), want (%d, %d)", gotX, gotY, tc.wantX, tc.wantY)
			}
		})
	}
}

func TestEstimateTooltipSize(t *testing.T) {
	t.Parallel()

	w, h := estimateTooltipSize("ab\ncdef")
	if w != tooltipPadding+4*tooltipCharWidth {
		t.Fatalf("unexpected width: %d", w)
	}
	if h != tooltipPadding+2*tooltipLineHeight {
		t.Fatalf("unexpected height: %d", h)
	}

	long := strings.Repeat("x", 200)
	w, _ = estimateTooltipSize(long)
	if w != tooltipMaxWidth {
		t.Fatalf("width should cap at %d, got %d", tooltipMaxWidth, w)
	}
}

func TestShowTooltipRendersCachedVerdict(t *testing.T) {
	t.Parallel()

	ch := &fakeChannel{verdicts: map[string]domain.Verdict{
		"e1": foundVerdict("e1", 4.3, "worth reading", "clear writing"),
	}}
	fx := startEngine(t, listPage, Config{Viewport: Viewport{Width: 1280, Height: 800}}, ch, nil)

	fx.engine.RequestScan()
	fx.engine.barrier()
	fx.waitFor(t, "badge render", func() bool { return fx.doc.Find(".fa-badge").Length() > 0 })

	var badge *xhtml.Node
	fx.onLoop(t, func() { badge = fx.doc.Find(".fa-badge").Get(0) })

	fx.engine.ShowTooltip(badge, 40, 40)
	fx.engine.barrier()

	fx.onLoop(t, func() {
		tip := fx.doc.Find(".fa-tooltip").First()
		if tip.Length() == 0 {
			t.Fatalf("tooltip element missing")
		}
		if visible, _ := tip.Attr("data-visible"); visible != "true" {
			t.Errorf("tooltip not visible: %q", visible)
		}
		if text := tip.Text(); !strings.Contains(text, "worth reading") || !strings.Contains(text, "clear writing") {
			t.Errorf("unexpected tooltip text: %q", text)
		}
		if style, _ := tip.Attr("style"); style != "left:52px;top:52px" {
			t.Errorf("unexpected tooltip position: %q", style)
		}
	})

	fx.engine.HideTooltip()
	fx.engine.barrier()
	fx.onLoop(t, func() {
		if visible, _ := fx.doc.Find(".fa-tooltip").First().Attr("data-visible"); visible != "false" {
			t.Errorf("tooltip should be hidden, got %q", visible)
		}
		if n := fx.doc.Find(".fa-tooltip").Length(); n != 1 {
			t.Errorf("tooltip element duplicated: %d", n)
		}
	})
}
