package engine

import (
	"testing"

	"FeedAnnotator/internal/domain"
)

func TestEnsureContainerPrefersMetaRow(t *testing.T) {
	t.Parallel()

	s := entrySelection(t, `<div class="entry u0">
	  <div class="entry-title">T</div>
	  <div class="entry-meta">meta</div>
	</div>`)

	c := ensureContainer(s, domain.ViewCompactList)
	if c == nil || c.Length() == 0 {
		t.Fatalf("no container created")
	}
	if s.Find(".entry-meta .fa-annotation").Length() != 1 {
		t.Fatalf("container should live in the meta row")
	}
}

func TestEnsureContainerGoesAfterTitle(t *testing.T) {
	t.Parallel()

	s := entrySelection(t, `<div class="entry u0">
	  <div class="entry-title">T</div>
	</div>`)

	c := ensureContainer(s, domain.ViewCompactList)
	if c == nil || c.Length() == 0 {
		t.Fatalf("no container created")
	}

	// Adjacent sibling, never inside the title element.
	if s.Find(".entry-title .fa-annotation").Length() != 0 {
		t.Fatalf("container must not nest inside the title")
	}
	if !s.Find(".entry-title").First().Next().HasClass("fa-annotation") {
		t.Fatalf("container should directly follow the title")
	}
}

func TestEnsureContainerDetailPrefersTitleWrapper(t *testing.T) {
	t.Parallel()

	s := entrySelection(t, `<div class="entry expanded">
	  <div class="title-wrapper"><div class="entry-title">T</div></div>
	</div>`)

	c := ensureContainer(s, domain.ViewDetail)
	if c == nil || c.Length() == 0 {
		t.Fatalf("no container created")
	}
	if s.Find(".title-wrapper > .fa-annotation").Length() != 1 {
		t.Fatalf("detail mode should place the container in the title wrapper")
	}
}

func TestEnsureContainerFallsBackToPrepend(t *testing.T) {
	t.Parallel()

	s := entrySelection(t, `<div class="entry"><p>bare content</p></div>`)

	c := ensureContainer(s, domain.ViewCompactList)
	if c == nil || c.Length() == 0 {
		t.Fatalf("no container created")
	}
	if !s.Children().First().HasClass("fa-annotation") {
		t.Fatalf("fallback should prepend the container")
	}
}

func TestEnsureContainerIsIdempotent(t *testing.T) {
	t.Parallel()

	s := entrySelection(t, `<div class="entry u0">
	  <div class="entry-title">T</div>
	  <div class="entry-meta">meta</div>
	</div>`)

	ensureContainer(s, domain.ViewCompactList)
	ensureContainer(s, domain.ViewCompactList)
	// Even with a different mode, the existing container is reused.
	ensureContainer(s, domain.ViewDetail)

	if n := s.Find(".fa-annotation").Length(); n != 1 {
		t.Fatalf("expected a single container, got %d", n)
	}
}

func TestEnsureContainerNilSelection(t *testing.T) {
	t.Parallel()

	if c := ensureContainer(nil, domain.ViewCompactList); c != nil {
		t.Fatalf("expected nil container for nil selection")
	}
}
