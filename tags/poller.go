package tags

import (
	"context"
	"fmt"
	"github.com/bugcenter/helpscot"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"io"
	"log"
	"sync"
	"time"
)

const (
	defaultInterval    = time.Minute
	defaultSettleDelay = 5 * time.Minute
	defaultStaleAfter  = time.Hour

	meterName = "github.com/bugcenter/helpscot/tags"
)

// State is the state of the synchronization with the source
type State int

// Synchronization states
const (
	Idle State = iota
	ChangeDetected
	Refreshing
)

// String returns the name of the state
func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case ChangeDetected:
		return "change detected"
	case Refreshing:
		return "refreshing"
	}

	return "unknown"
}

// SyncState is a snapshot of the synchronization state
type SyncState struct {
	State State

	// LastSeen is the revision the catalogue was last refreshed at. It is empty until the
	// first refresh
	LastSeen string

	// Pending is the newer revision waiting for changes to settle
	Pending          string
	ChangeDetectedAt time.Time

	LastRefreshAt       time.Time
	LastError           error
	ConsecutiveFailures int

	// Loaded and Skipped count the documents of the last refresh
	Loaded  int
	Skipped int
}

// Stale returns true if the catalogue hasn't been refreshed successfully for longer than staleAfter
// while failures are happening
func (s SyncState) Stale(now time.Time, staleAfter time.Duration) bool {
	return s.ConsecutiveFailures > 0 && (s.LastRefreshAt.IsZero() || now.Sub(s.LastRefreshAt) > staleAfter)
}

// String returns a friendly description of the state
func (s SyncState) String() string {
	desc := fmt.Sprintf("%s at revision [%s]", s.State, shortRevision(s.LastSeen))
	if s.State == ChangeDetected {
		desc = fmt.Sprintf("%s (pending [%s] since %s)", desc, shortRevision(s.Pending), s.ChangeDetectedAt.Format(time.RFC3339))
	}

	if !s.LastRefreshAt.IsZero() {
		desc = fmt.Sprintf("%s, refreshed at %s with %d document(s) loaded and %d skipped", desc, s.LastRefreshAt.Format(time.RFC3339), s.Loaded, s.Skipped)
	}

	if s.ConsecutiveFailures > 0 {
		desc = fmt.Sprintf("%s, %d consecutive failure(s), last one: %v", desc, s.ConsecutiveFailures, s.LastError)
	}

	return desc
}

// RawDocument is the raw content of a document fetched from a source
type RawDocument struct {
	Ref  DocumentRef
	Data []byte
}

// Persister saves the raw documents of a successful refresh
type Persister interface {
	Save(revision string, categories []string, docs []RawDocument) (err error)
}

// Poller keeps a Store in sync with a Source. Each tick checks the latest revision of the source
// and, once a new revision has been stable for the settle delay, refreshes the whole catalogue at
// that revision. Ticks are driven externally (i.e. by a scheduled action) and a tick never overlaps
// with a refresh in progress
type Poller struct {
	source      Source
	store       *Store
	clock       Clock
	logger      helpscot.SLogger
	persister   Persister
	interval    time.Duration
	settleDelay time.Duration
	staleAfter  time.Duration
	metrics     syncMetrics

	// cycle is held for the duration of a tick or a forced refresh
	cycle sync.Mutex

	// mu guards state
	mu    sync.Mutex
	state SyncState
}

type syncMetrics struct {
	refreshes            metric.Int64Counter
	failures             metric.Int64Counter
	skippedDocuments     metric.Int64Counter
	refreshLatencyMillis metric.Int64Histogram
}

// PollerOption defines an option for a Poller
type PollerOption func(*Poller)

// OptionInterval sets the interval between ticks
func OptionInterval(interval time.Duration) func(*Poller) {
	return func(p *Poller) {
		p.interval = interval
	}
}

// OptionSettleDelay sets how long a new revision must remain the latest before refreshing
func OptionSettleDelay(delay time.Duration) func(*Poller) {
	return func(p *Poller) {
		p.settleDelay = delay
	}
}

// OptionStaleAfter sets how long failures can go on before the catalogue is reported as stale
func OptionStaleAfter(staleAfter time.Duration) func(*Poller) {
	return func(p *Poller) {
		p.staleAfter = staleAfter
	}
}

// OptionClock sets the clock of the poller
func OptionClock(clock Clock) func(*Poller) {
	return func(p *Poller) {
		p.clock = clock
	}
}

// OptionLogger sets the logger of the poller
func OptionLogger(logger helpscot.SLogger) func(*Poller) {
	return func(p *Poller) {
		p.logger = logger
	}
}

// OptionPersister sets a persister saving the documents of every successful refresh
func OptionPersister(persister Persister) func(*Poller) {
	return func(p *Poller) {
		p.persister = persister
	}
}

// NewPoller returns a new Poller refreshing store from source
func NewPoller(source Source, store *Store, options ...PollerOption) (p *Poller, err error) {
	p = new(Poller)
	p.source = source
	p.store = store
	p.clock = SystemClock()
	p.logger = helpscot.NewSLogger(log.New(io.Discard, "", 0), false)
	p.interval = defaultInterval
	p.settleDelay = defaultSettleDelay
	p.staleAfter = defaultStaleAfter

	for _, opt := range options {
		opt(p)
	}

	if p.metrics, err = newSyncMetrics(otel.Meter(meterName)); err != nil {
		return nil, err
	}

	// A restored catalogue counts as the last seen revision
	if rev := store.Snapshot().Revision(); rev != "" {
		p.state.LastSeen = rev
		p.state.LastRefreshAt = store.Snapshot().LoadedAt()
	}

	return p, nil
}

func newSyncMetrics(meter metric.Meter) (sm syncMetrics, err error) {
	if sm.refreshes, err = meter.Int64Counter("tagRefreshes"); err != nil {
		return sm, err
	}

	if sm.failures, err = meter.Int64Counter("tagSyncFailures"); err != nil {
		return sm, err
	}

	if sm.skippedDocuments, err = meter.Int64Counter("tagSkippedDocuments"); err != nil {
		return sm, err
	}

	if sm.refreshLatencyMillis, err = meter.Int64Histogram("tagRefreshLatencyMillis"); err != nil {
		return sm, err
	}

	return sm, nil
}

// Interval returns the interval between ticks
func (p *Poller) Interval() time.Duration {
	return p.interval
}

// State returns a snapshot of the synchronization state
func (p *Poller) State() SyncState {
	p.mu.Lock()
	defer p.mu.Unlock()

	return p.state
}

// Tick runs one step of the synchronization. The first tick refreshes right away. After that, a
// revision different from the last seen one moves the poller to ChangeDetected and a refresh happens
// on the first tick after the settle delay during which the revision didn't change again. A tick
// happening while another tick or a forced refresh is in progress does nothing
func (p *Poller) Tick(ctx context.Context) (err error) {
	if !p.cycle.TryLock() {
		p.logger.Debugf("Refresh in progress, skipping tick\n")
		return nil
	}
	defer p.cycle.Unlock()

	latest, err := p.source.LatestRevision(ctx)
	if err != nil {
		p.recordFailure(err)
		return err
	}

	now := p.clock.Now()
	st := p.State()

	switch {
	case st.LastSeen == "":
		p.logger.Printf("No catalogue loaded yet, refreshing at [%s]\n", shortRevision(latest))
		return p.refresh(ctx, latest)

	case latest == st.LastSeen:
		p.update(func(s *SyncState) {
			if s.State == ChangeDetected {
				p.logger.Printf("Revision back to [%s], cancelling pending refresh to [%s]\n", shortRevision(latest), shortRevision(s.Pending))
			}

			s.State = Idle
			s.Pending = ""
			s.ChangeDetectedAt = time.Time{}
			s.ConsecutiveFailures = 0
			s.LastError = nil
		})

	case st.State == Idle || latest != st.Pending:
		p.logger.Printf("Change detected at [%s], waiting [%s] for changes to settle\n", shortRevision(latest), p.settleDelay)
		p.update(func(s *SyncState) {
			s.State = ChangeDetected
			s.Pending = latest
			s.ChangeDetectedAt = now
		})

	case now.Sub(st.ChangeDetectedAt) >= p.settleDelay:
		return p.refresh(ctx, latest)

	default:
		p.logger.Debugf("Waiting for changes at [%s] to settle\n", shortRevision(latest))
	}

	return nil
}

// Run ticks right away and then every interval until ctx is done. Errors are logged by Tick and
// retried on the next one
func (p *Poller) Run(ctx context.Context) {
	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	for {
		p.Tick(ctx)

		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}

// ForceRefresh refreshes the catalogue at the latest revision without waiting for changes to settle.
// It waits for a refresh in progress to complete first
func (p *Poller) ForceRefresh(ctx context.Context) (st SyncState, err error) {
	p.cycle.Lock()
	defer p.cycle.Unlock()

	latest, err := p.source.LatestRevision(ctx)
	if err != nil {
		p.recordFailure(err)
		return p.State(), err
	}

	err = p.refresh(ctx, latest)
	return p.State(), err
}

// refresh loads every document of the source at revision and swaps the catalogue. Failing to list
// categories or documents aborts the refresh while a document that can't be fetched or loaded is
// skipped. Callers must hold cycle
func (p *Poller) refresh(ctx context.Context, revision string) (err error) {
	start := p.clock.Now()

	var previous SyncState
	p.update(func(s *SyncState) {
		previous = *s
		s.State = Refreshing
		s.Pending = revision
	})

	raws, categories, failed, err := p.fetchAll(ctx, revision)
	if err != nil {
		p.update(func(s *SyncState) {
			s.State = previous.State
			s.Pending = previous.Pending
		})
		p.recordFailure(err)
		return err
	}

	byCategory, loaded, errs := Build(categories, raws)
	for _, e := range errs {
		p.logger.Printf("Skipping document at revision [%s]: %v\n", shortRevision(revision), e)
	}

	c := p.store.Rebuild(revision, byCategory)

	if p.persister != nil {
		if err := p.persister.Save(revision, categories, raws); err != nil {
			p.logger.Printf("Error saving documents at revision [%s]: %v\n", shortRevision(revision), err)
		}
	}

	skipped := failed + len(raws) - loaded

	p.update(func(s *SyncState) {
		s.State = Idle
		s.LastSeen = revision
		s.Pending = ""
		s.ChangeDetectedAt = time.Time{}
		s.LastRefreshAt = c.LoadedAt()
		s.LastError = nil
		s.ConsecutiveFailures = 0
		s.Loaded = loaded
		s.Skipped = skipped
	})

	attrs := metric.WithAttributes(attribute.String("revision", shortRevision(revision)))
	p.metrics.refreshes.Add(ctx, 1, attrs)
	p.metrics.skippedDocuments.Add(ctx, int64(skipped), attrs)
	p.metrics.refreshLatencyMillis.Record(ctx, p.clock.Now().Sub(start).Milliseconds())

	p.logger.Printf("Catalogue refreshed at revision [%s] with [%d] tag(s) in [%d] categorie(s)\n", shortRevision(revision), c.Size(), len(c.Categories()))

	return nil
}

// fetchAll lists the documents of every category at revision and fetches them. It returns the
// number of documents that couldn't be fetched
func (p *Poller) fetchAll(ctx context.Context, revision string) (raws []RawDocument, categories []string, failed int, err error) {
	categories, err = p.source.Categories(ctx, revision)
	if err != nil {
		return nil, nil, 0, err
	}

	refs := make([]DocumentRef, 0)
	for _, category := range categories {
		docs, err := p.source.Documents(ctx, category, revision)
		if err != nil {
			return nil, nil, 0, err
		}

		refs = append(refs, docs...)
	}

	raws = make([]RawDocument, 0, len(refs))
	for _, ref := range refs {
		data, err := p.source.Fetch(ctx, ref)
		if err != nil {
			p.logger.Printf("Skipping document [%s]: %v\n", ref.Path, err)
			p.metrics.failures.Add(ctx, 1, metric.WithAttributes(attribute.String("stage", "fetch")))
			failed++
			continue
		}

		raws = append(raws, RawDocument{Ref: ref, Data: data})
	}

	return raws, categories, failed, nil
}

func (p *Poller) recordFailure(err error) {
	p.metrics.failures.Add(context.Background(), 1, metric.WithAttributes(attribute.String("stage", "sync")))

	var st SyncState
	p.update(func(s *SyncState) {
		s.LastError = err
		s.ConsecutiveFailures++
		st = *s
	})

	if st.Stale(p.clock.Now(), p.staleAfter) {
		p.logger.Printf("Catalogue at revision [%s] is stale after [%d] failure(s): %v\n", shortRevision(st.LastSeen), st.ConsecutiveFailures, err)
	} else {
		p.logger.Printf("Error synchronizing tags (will retry on next tick): %v\n", err)
	}
}

func (p *Poller) update(fn func(s *SyncState)) {
	p.mu.Lock()
	defer p.mu.Unlock()

	fn(&p.state)
}

// Build loads raw documents and parses them into tags by category. Every listed category is
// present in the result, even when none of its documents could be loaded. It returns the number of
// documents loaded along with the errors of the documents that were skipped
func Build(categories []string, raws []RawDocument) (byCategory map[string][]*Tag, loaded int, errs []error) {
	byCategory = make(map[string][]*Tag)
	docs := make(map[string][]Document)

	for _, c := range categories {
		byCategory[c] = make([]*Tag, 0)
	}

	for _, raw := range raws {
		doc, err := loadSafely(raw)
		if err != nil {
			errs = append(errs, err)
			continue
		}

		docs[raw.Ref.Category] = append(docs[raw.Ref.Category], doc)
	}

	for category, categoryDocs := range docs {
		tags, parseErrs := Parse(categoryDocs, category)

		loaded += len(categoryDocs) - len(parseErrs)
		errs = append(errs, parseErrs...)
		byCategory[category] = append(byCategory[category], tags...)
	}

	return byCategory, loaded, errs
}

// loadSafely loads a document, recovering from panics
func loadSafely(raw RawDocument) (doc Document, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("[%s] panicked while loading: %v", raw.Ref.Path, r)
		}
	}()

	doc, err = Load(raw.Ref.Name, raw.Data)
	if err != nil {
		return doc, fmt.Errorf("[%s] is invalid: %w", raw.Ref.Path, err)
	}

	return doc, nil
}

func shortRevision(revision string) string {
	if len(revision) > 7 {
		return revision[:7]
	}

	return revision
}
