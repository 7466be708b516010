package engine

import (
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// Host markup conventions the identity probes rely on.
const (
	attrEntryID      = "data-entry-id"
	attrGenericID    = "data-id"
	hostIDSuffix     = "_main"
	permalinkSegment = "/entry/"
)

// resolveIdentity extracts a stable identity from an entry node, trying a
// fixed chain of pure probes. Returns "" when the node is unresolvable; such
// nodes are skipped for the current pass and never cached as failures, since
// the host may replace them with resolvable ones.
func resolveIdentity(s *goquery.Selection) string {
	if s == nil || s.Length() == 0 {
		return ""
	}

	if id, ok := s.Attr(attrEntryID); ok && id != "" {
		return id
	}

	// Wrapper and overlay containers carry the attribute on a descendant.
	if id, ok := s.Find("[" + attrEntryID + "]").First().Attr(attrEntryID); ok && id != "" {
		return id
	}

	if id := permalinkIdentity(s); id != "" {
		return id
	}

	if id, ok := s.Attr(attrGenericID); ok && id != "" {
		return id
	}

	if id, ok := s.Attr("id"); ok && id != "" {
		return strings.TrimSuffix(id, hostIDSuffix)
	}

	return ""
}

// permalinkIdentity parses the identity out of a permalink-shaped hyperlink
// inside the node, e.g. href="/reader/entry/abc%2F123".
func permalinkIdentity(s *goquery.Selection) string {
	var id string
	s.Find("a[href*=\"" + permalinkSegment + "\"]").EachWithBreak(func(_ int, a *goquery.Selection) bool {
		href, _ := a.Attr("href")
		idx := strings.Index(href, permalinkSegment)
		if idx < 0 {
			return true
		}

		segment := href[idx+len(permalinkSegment):]
		if cut := strings.IndexAny(segment, "/?#"); cut >= 0 {
			segment = segment[:cut]
		}
		if segment == "" {
			return true
		}

		if decoded, err := url.PathUnescape(segment); err == nil {
			segment = decoded
		}

		id = segment
		return false
	})

	return id
}
