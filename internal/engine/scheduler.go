package engine

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"

	"FeedAnnotator/internal/domain"
	"FeedAnnotator/internal/ports"
)

// Metadata extraction limits, matching what the backend accepts.
const (
	maxSummaryLen = 500
	maxContentLen = 10000
)

// Config tunes the engine. Zero values fall back to defaults in New.
type Config struct {
	EntrySelector string
	Debounce      time.Duration
	CacheTTL      time.Duration
	FastPathLimit int
	MinActionText int
	RelatedLimit  int
	Viewport      Viewport
}

// Deps are the engine's external collaborators, injected so tests can run
// against synthetic change feeds and fake channels.
type Deps struct {
	Channel ports.ScoreChannel
	Feed    ports.ChangeFeed
	Panel   ports.PanelSurface
	Logger  *slog.Logger
	Now     func() time.Time
}

type scanState int

const (
	stateIdle scanState = iota
	stateScanRequested
	stateScanning
)

type cmdKind int

const (
	cmdScan cmdKind = iota
	cmdAnalyze
	cmdSummarize
	cmdTooltipShow
	cmdTooltipHide
	cmdBarrier
)

type command struct {
	kind cmdKind
	node *html.Node
	x, y int
	done chan struct{}
}

// Engine is the entry annotation engine: it discovers entries in the host
// document, resolves verdicts for them through the score channel, and keeps
// the overlaid UI consistent across host re-renders.
//
// All mutable state (cache, pending set, document writes) is owned by the
// goroutine running Run; external events enter through channels, so no
// locking is needed.
type Engine struct {
	doc     *goquery.Document
	cfg     Config
	channel ports.ScoreChannel
	feed    ports.ChangeFeed
	panel   ports.PanelSurface
	logger  *slog.Logger
	now     func() time.Time

	cache          *annotationCache
	pending        map[string]struct{}
	relatedPending map[string]struct{}
	tooltip        *tooltipController

	commands    chan command
	completions chan func()

	state    scanState
	followUp bool
	timer    *time.Timer
	runCtx   context.Context
}

// New builds an engine over the host document. Run must be called before
// any other method takes effect.
func New(doc *goquery.Document, cfg Config, deps Deps) *Engine {
	if cfg.EntrySelector == "" {
		cfg.EntrySelector = ".entry"
	}
	if cfg.Debounce <= 0 {
		cfg.Debounce = 200 * time.Millisecond
	}
	if cfg.CacheTTL <= 0 {
		cfg.CacheTTL = 30 * time.Second
	}
	if cfg.FastPathLimit <= 0 {
		cfg.FastPathLimit = 8
	}
	if cfg.MinActionText <= 0 {
		cfg.MinActionText = 80
	}
	if cfg.Viewport.Width <= 0 {
		cfg.Viewport = Viewport{Width: 1280, Height: 800}
	}

	logger := deps.Logger
	if logger == nil {
		logger = slog.Default()
	}
	now := deps.Now
	if now == nil {
		now = time.Now
	}

	return &Engine{
		doc:            doc,
		cfg:            cfg,
		channel:        deps.Channel,
		feed:           deps.Feed,
		panel:          deps.Panel,
		logger:         logger,
		now:            now,
		cache:          newAnnotationCache(cfg.CacheTTL, now),
		pending:        make(map[string]struct{}),
		relatedPending: make(map[string]struct{}),
		tooltip:        &tooltipController{doc: doc, viewport: cfg.Viewport},
		commands:       make(chan command, 64),
		completions:    make(chan func(), 64),
	}
}

// Run drives the engine until ctx is cancelled. Change notifications,
// request completions, and user commands are interleaved on this single
// goroutine; failures are converted to local UI state and never abort the
// loop.
func (e *Engine) Run(ctx context.Context) error {
	e.runCtx = ctx

	var feedCh <-chan ports.ChangeBatch
	if e.feed != nil {
		feedCh = e.feed.Changes()
	}

	for {
		var timerC <-chan time.Time
		if e.timer != nil {
			timerC = e.timer.C
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case batch, ok := <-feedCh:
			if !ok {
				feedCh = nil
				continue
			}
			e.onChanges(batch)
		case <-timerC:
			e.timer = nil
			e.runScan(nil)
		case fn := <-e.completions:
			fn()
		case cmd := <-e.commands:
			e.handleCommand(cmd)
		}
	}
}

// RequestScan triggers an immediate full scan (the initial-scan entry
// point; no debounce).
func (e *Engine) RequestScan() {
	e.commands <- command{kind: cmdScan}
}

// Analyze is the user-initiated manual scoring action for one entry node.
func (e *Engine) Analyze(node *html.Node) {
	e.commands <- command{kind: cmdAnalyze, node: node}
}

// Summarize routes the entry's long-form summary to the panel surface,
// requesting one from the backend when none is cached.
func (e *Engine) Summarize(node *html.Node) {
	e.commands <- command{kind: cmdSummarize, node: node}
}

// ShowTooltip presents the verdict tooltip for an entry's badge at pointer
// coordinates.
func (e *Engine) ShowTooltip(node *html.Node, x, y int) {
	e.commands <- command{kind: cmdTooltipShow, node: node, x: x, y: y}
}

// HideTooltip hides the shared tooltip element.
func (e *Engine) HideTooltip() {
	e.commands <- command{kind: cmdTooltipHide}
}

// barrier blocks until every previously enqueued command has been handled.
func (e *Engine) barrier() {
	done := make(chan struct{})
	e.commands <- command{kind: cmdBarrier, done: done}
	<-done
}

func (e *Engine) handleCommand(cmd command) {
	switch cmd.kind {
	case cmdScan:
		e.runScan(nil)
	case cmdAnalyze:
		e.runAnalyze(cmd.node)
	case cmdSummarize:
		e.runSummarize(cmd.node)
	case cmdTooltipShow:
		e.showTooltip(cmd.node, cmd.x, cmd.y)
	case cmdTooltipHide:
		e.tooltip.hide()
	case cmdBarrier:
		close(cmd.done)
	}
}

// onChanges handles one change-batch. Small batches take the fast path and
// are inspected directly; everything else coalesces into a trailing-edge
// debounced full scan.
func (e *Engine) onChanges(batch ports.ChangeBatch) {
	if n := len(batch.Added); n > 0 && n <= e.cfg.FastPathLimit {
		if cand := e.candidatesFrom(batch.Added); cand != nil && cand.Length() > 0 {
			e.runScan(cand)
			return
		}
	}
	e.scheduleScan()
}

// scheduleScan arms (or re-arms) the debounce timer. Notifications during a
// scan record exactly one follow-up pass.
func (e *Engine) scheduleScan() {
	if e.state == stateScanning {
		e.followUp = true
		return
	}
	e.state = stateScanRequested

	if e.timer == nil {
		e.timer = time.NewTimer(e.cfg.Debounce)
		return
	}
	if !e.timer.Stop() {
		select {
		case <-e.timer.C:
		default:
		}
	}
	e.timer.Reset(e.cfg.Debounce)
}

// candidatesFrom narrows a change-batch to entry nodes: the added nodes
// themselves plus matching descendants. Nodes no longer attached to the
// document yield an empty selection, which falls back to the full scan.
func (e *Engine) candidatesFrom(nodes []*html.Node) *goquery.Selection {
	added := e.doc.FindNodes(nodes...)
	if added.Length() == 0 {
		return nil
	}
	return added.Filter(e.cfg.EntrySelector).AddSelection(added.Find(e.cfg.EntrySelector))
}

// runScan enumerates entries (all of them, or just the fast-path scope),
// partitions them, renders what the cache can serve, and batches the rest.
// Partitioning completes synchronously before any request is issued, so two
// passes can never both decide the same identity is new.
func (e *Engine) runScan(scope *goquery.Selection) {
	if e.state == stateScanning {
		e.followUp = true
		return
	}
	e.state = stateScanning

	entries := scope
	if entries == nil {
		entries = e.doc.Find(e.cfg.EntrySelector)
	}

	var batch []domain.EntryMeta
	batched := make(map[string]struct{})

	entries.Each(func(_ int, s *goquery.Selection) {
		id := resolveIdentity(s)
		if id == "" {
			return
		}
		if _, busy := e.pending[id]; busy {
			return
		}

		mode := classifyViewMode(s)

		if v, ok := e.cache.get(id); ok {
			e.reconcile(s, id, mode, v)
			return
		}

		// Stale or missing TTL slot: render the last known verdict right
		// away and refresh in the background.
		if v, ok := e.cache.lastKnown(id); ok {
			e.reconcile(s, id, mode, v)
		}

		if _, dup := batched[id]; dup {
			return
		}
		batched[id] = struct{}{}
		batch = append(batch, e.extractMeta(s, id))
	})

	e.state = stateIdle
	if e.followUp {
		e.followUp = false
		e.scheduleScan()
	}

	if len(batch) > 0 {
		e.dispatchBatch(batch)
	}
}

// extractMeta pulls the entry's displayable metadata for the request batch.
func (e *Engine) extractMeta(s *goquery.Selection, id string) domain.EntryMeta {
	meta := domain.EntryMeta{ID: id}

	meta.Title = strings.TrimSpace(s.Find(".entry-title").First().Text())

	if href, ok := s.Find("a.entry-link").First().Attr("href"); ok {
		meta.URL = href
	} else if href, ok := s.Find(".entry-title a[href]").First().Attr("href"); ok {
		meta.URL = href
	} else if href, ok := s.Find("a[href]").First().Attr("href"); ok {
		meta.URL = href
	}

	meta.Summary = truncate(strings.TrimSpace(s.Find(".entry-summary").First().Text()), maxSummaryLen)
	meta.Content = truncate(strings.TrimSpace(s.Find(".entry-body").First().Text()), maxContentLen)

	return meta
}

// findEntryByIdentity looks up the current live node for an identity. Used
// at completion time: the node captured at request time may be gone.
func (e *Engine) findEntryByIdentity(id string) *goquery.Selection {
	var match *goquery.Selection
	e.doc.Find(e.cfg.EntrySelector).EachWithBreak(func(_ int, s *goquery.Selection) bool {
		if resolveIdentity(s) == id {
			match = s
			return false
		}
		return true
	})
	return match
}

// selectionOf wraps a node still attached to the document, or nil.
func (e *Engine) selectionOf(node *html.Node) *goquery.Selection {
	if node == nil {
		return nil
	}
	s := e.doc.FindNodes(node)
	if s.Length() == 0 {
		return nil
	}
	return s
}

func truncate(s string, limit int) string {
	if len(s) <= limit {
		return s
	}
	return s[:limit]
}
