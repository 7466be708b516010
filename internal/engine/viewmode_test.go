package engine

import (
	"testing"

	"FeedAnnotator/internal/domain"
)

func TestClassifyViewMode(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name string
		html string
		want domain.ViewMode
	}{
		{"u0 class", `<div class="entry u0"></div>`, domain.ViewCompactList},
		{"list class", `<div class="entry list"></div>`, domain.ViewCompactList},
		{"u4 class", `<div class="entry u4"></div>`, domain.ViewMagazine},
		{"magazine class", `<div class="entry magazine"></div>`, domain.ViewMagazine},
		{"u5 class", `<div class="entry u5"></div>`, domain.ViewCard},
		{"card class", `<div class="entry card"></div>`, domain.ViewCard},
		{"expanded class", `<div class="entry expanded"></div>`, domain.ViewDetail},
		{"detail class", `<div class="entry detail"></div>`, domain.ViewDetail},
		{"overlay class", `<div class="entry overlay"></div>`, domain.ViewOverlay},
		{"overlay wins over expanded", `<div class="entry overlay expanded"></div>`, domain.ViewOverlay},
		{"body presence implies detail", `<div class="entry"><div class="entry-body">text</div></div>`, domain.ViewDetail},
		{"bare entry defaults to compact", `<div class="entry"></div>`, domain.ViewCompactList},
	}

	for _, tc := range cases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			if got := classifyViewMode(entrySelection(t, tc.html)); got != tc.want {
				t.Fatalf("classifyViewMode = %s, want %s", got, tc.want)
			}
		})
	}
}

func TestViewModeExpanded(t *testing.T) {
	t.Parallel()

	expanded := []domain.ViewMode{domain.ViewDetail, domain.ViewOverlay}
	for _, m := range expanded {
		if !m.Expanded() {
			t.Errorf("%s should be expanded", m)
		}
	}
	collapsed := []domain.ViewMode{domain.ViewUnknown, domain.ViewCompactList, domain.ViewMagazine, domain.ViewCard}
	for _, m := range collapsed {
		if m.Expanded() {
			t.Errorf("%s should not be expanded", m)
		}
	}
}
