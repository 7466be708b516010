package engine

import (
	"context"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"

	"FeedAnnotator/internal/domain"
	"FeedAnnotator/internal/ports"
)

// dispatchBatch marks every member pending and issues one outbound batched
// request. Marking happens before the goroutine starts, inside the
// scheduler context, so later scans observe the identities as untouchable.
func (e *Engine) dispatchBatch(batch []domain.EntryMeta) {
	for _, m := range batch {
		e.pending[m.ID] = struct{}{}
	}
	e.logger.Debug("dispatch score batch", "items", len(batch))

	ctx := e.runCtx
	go func() {
		verdicts, err := e.channel.GetScores(ctx, batch)
		e.post(ctx, func() { e.finishBatch(batch, verdicts, err) })
	}()
}

// post hands a completion back to the scheduler goroutine.
func (e *Engine) post(ctx context.Context, fn func()) {
	select {
	case e.completions <- fn:
	case <-ctx.Done():
	}
}

// finishBatch reconciles a batch response against the current live nodes.
// On channel failure every identity is released with no cache write, so the
// next natural scan retries; no backoff here.
func (e *Engine) finishBatch(batch []domain.EntryMeta, verdicts map[string]domain.Verdict, err error) {
	for _, m := range batch {
		delete(e.pending, m.ID)
	}

	if err != nil {
		e.logger.Warn("score batch failed", "items", len(batch), "error", err)
		return
	}

	now := e.now()
	for _, m := range batch {
		v, ok := verdicts[m.ID]
		if !ok {
			v = domain.Verdict{ID: m.ID, Found: false, UpdatedAt: now}
		}
		e.cache.put(m.ID, v)

		s := e.findEntryByIdentity(m.ID)
		if s == nil {
			// Node gone before the response arrived; the verdict stays
			// cached for whatever the host renders next.
			continue
		}
		e.reconcile(s, m.ID, classifyViewMode(s), v)
	}
}

// runAnalyze is the user-initiated single-shot scoring action.
func (e *Engine) runAnalyze(node *html.Node) {
	s := e.selectionOf(node)
	if s == nil {
		return
	}
	id := resolveIdentity(s)
	if id == "" {
		return
	}
	if _, busy := e.pending[id]; busy {
		return
	}

	meta := e.extractMeta(s, id)
	text := meta.Content
	if text == "" {
		text = meta.Summary
	}
	if len(text) < e.cfg.MinActionText && meta.URL == "" {
		// Fails locally; no network round-trip.
		e.setControlState(s, classAnalyzeBtn, controlError, "Too short")
		return
	}
	meta.Content = text

	e.setControlState(s, classAnalyzeBtn, controlBusy, "Analyzing")
	e.pending[id] = struct{}{}

	ctx := e.runCtx
	go func() {
		v, err := e.channel.Analyze(ctx, meta)
		e.post(ctx, func() { e.finishAnalyze(id, v, err) })
	}()
}

func (e *Engine) finishAnalyze(id string, v domain.Verdict, err error) {
	delete(e.pending, id)

	s := e.findEntryByIdentity(id)
	if err != nil {
		e.logger.Warn("analyze failed", "id", id, "error", err)
		if s != nil {
			e.setControlState(s, classAnalyzeBtn, controlError, "Error")
		}
		return
	}

	v.ID = id
	e.cache.put(id, v)
	if s == nil {
		return
	}
	e.reconcile(s, id, classifyViewMode(s), v)
}

// runSummarize routes a long-form summary to the panel surface. A cached
// summary is presented without a network round-trip; otherwise a dedicated
// request is issued and partial chunks stream into the panel.
func (e *Engine) runSummarize(node *html.Node) {
	s := e.selectionOf(node)
	if s == nil {
		return
	}
	id := resolveIdentity(s)
	if id == "" {
		return
	}

	meta := e.extractMeta(s, id)
	title := meta.Title
	if title == "" {
		title = id
	}

	if v, ok := e.cache.lastKnown(id); ok && v.Summary != "" {
		e.panelShow(title, ports.PanelSuccess, v.Summary)
		return
	}

	if st, _ := s.Find("." + classSummarizeBtn).First().Attr(attrControlState); st == controlBusy {
		return
	}

	text := meta.Content
	if text == "" {
		text = meta.Summary
	}
	if len(text) < e.cfg.MinActionText && meta.URL == "" {
		e.setControlState(s, classSummarizeBtn, controlError, "Too short")
		return
	}

	e.setControlState(s, classSummarizeBtn, controlBusy, "Summarizing")
	e.panelShow(title, ports.PanelLoading, "")

	req := ports.SummarizeRequest{
		ID:        id,
		Title:     meta.Title,
		URL:       meta.URL,
		Content:   text,
		NeedFetch: len(text) < e.cfg.MinActionText,
	}

	ctx := e.runCtx
	go func() {
		summary, err := e.channel.Summarize(ctx, req, func(chunk string) {
			e.post(ctx, func() { e.panelShow(title, ports.PanelStreaming, chunk) })
		})
		e.post(ctx, func() { e.finishSummarize(id, title, summary, err) })
	}()
}

func (e *Engine) finishSummarize(id, title, summary string, err error) {
	s := e.findEntryByIdentity(id)

	if err != nil {
		e.logger.Warn("summarize failed", "id", id, "error", err)
		e.panelShow(title, ports.PanelError, err.Error())
		if s != nil {
			e.setControlState(s, classSummarizeBtn, controlError, "Failed")
		}
		return
	}

	// Keep the summary available for expand/collapse re-renders.
	if v, ok := e.cache.lastKnown(id); ok {
		v.Summary = summary
		e.cache.put(id, v)
	}

	e.panelShow(title, ports.PanelSuccess, summary)
	if s != nil {
		e.setControlState(s, classSummarizeBtn, controlIdle, "Summary")
	}
}

// maybeRelated populates the related-items affordance for expanded entries.
// At most one search per identity is in flight; failures degrade silently.
func (e *Engine) maybeRelated(s *goquery.Selection, id, title string) {
	if e.cfg.RelatedLimit <= 0 || title == "" {
		return
	}
	if _, busy := e.relatedPending[id]; busy {
		return
	}
	if s.Find("." + classRelated).Length() > 0 {
		return
	}
	e.relatedPending[id] = struct{}{}

	ctx := e.runCtx
	go func() {
		items, err := e.channel.SemanticSearch(ctx, title, e.cfg.RelatedLimit, id)
		e.post(ctx, func() { e.finishRelated(id, items, err) })
	}()
}

func (e *Engine) finishRelated(id string, items []ports.RelatedItem, err error) {
	delete(e.relatedPending, id)

	if err != nil {
		e.logger.Debug("semantic search failed", "id", id, "error", err)
		return
	}
	if len(items) == 0 {
		return
	}

	s := e.findEntryByIdentity(id)
	if s == nil || !classifyViewMode(s).Expanded() {
		return
	}
	e.renderRelated(s, items)
}

func (e *Engine) panelShow(title string, status ports.PanelStatus, body string) {
	if e.panel == nil {
		return
	}
	e.panel.ShowSummary(title, status, body)
}
