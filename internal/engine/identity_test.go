package engine

import (
	"strings"
	"testing"

	"github.com/PuerkitoBio/goquery"
)

func entrySelection(t *testing.T, src string) *goquery.Selection {
	t.Helper()
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(src))
	if err != nil {
		t.Fatalf("new document: %v", err)
	}
	return doc.Find(".entry").First()
}

func TestResolveIdentity(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name string
		html string
		want string
	}{
		{
			name: "attribute on the node itself",
			html: `<div class="entry" data-entry-id="self-id"></div>`,
			want: "self-id",
		},
		{
			name: "attribute on a descendant",
			html: `<div class="entry"><div><span data-entry-id="child-id"></span></div></div>`,
			want: "child-id",
		},
		{
			name: "permalink segment",
			html: `<div class="entry"><a href="/reader/entry/link-id?view=full">open</a></div>`,
			want: "link-id",
		},
		{
			name: "permalink segment percent-decoded",
			html: `<div class="entry"><a href="/reader/entry/abc%2F123">open</a></div>`,
			want: "abc/123",
		},
		{
			name: "generic data-id fallback",
			html: `<div class="entry" data-id="generic-id"></div>`,
			want: "generic-id",
		},
		{
			name: "element id minus host suffix",
			html: `<div class="entry" id="elem-id_main"></div>`,
			want: "elem-id",
		},
		{
			name: "element id without suffix",
			html: `<div class="entry" id="plain-id"></div>`,
			want: "plain-id",
		},
		{
			name: "self attribute wins over permalink",
			html: `<div class="entry" data-entry-id="primary"><a href="/entry/secondary">x</a></div>`,
			want: "primary",
		},
		{
			name: "unresolvable",
			html: `<div class="entry"><div class="entry-title">just text</div></div>`,
			want: "",
		},
		{
			name: "empty attribute is skipped",
			html: `<div class="entry" data-entry-id="" data-id="fallback"></div>`,
			want: "fallback",
		},
	}

	for _, tc := range cases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			if got := resolveIdentity(entrySelection(t, tc.html)); got != tc.want {
				t.Fatalf("resolveIdentity = %q, want %q", got, tc.want)
			}
		})
	}
}

func TestResolveIdentityNilSelection(t *testing.T) {
	t.Parallel()

	if got := resolveIdentity(nil); got != "" {
		t.Fatalf("expected empty identity for nil selection, got %q", got)
	}
}

func TestPermalinkIdentitySkipsEmptySegment(t *testing.T) {
	t.Parallel()

	s := entrySelection(t, `<div class="entry">
	  <a href="/reader/entry/">bad</a>
	  <a href="/reader/entry/real-id">good</a>
	</div>`)

	if got := permalinkIdentity(s); got != "real-id" {
		t.Fatalf("expected the first non-empty segment, got %q", got)
	}
}
