package tags_test

import (
	"bytes"
	"context"
	"fmt"
	"github.com/bugcenter/helpscot"
	"github.com/bugcenter/helpscot/tags"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"log"
	"sort"
	"strings"
	"sync"
	"testing"
	"time"
)

const settleDelay = 5 * time.Minute

// fakeSource serves documents by revision. Documents are keyed by category and then filename
type fakeSource struct {
	mu          sync.Mutex
	latest      string
	revisions   map[string]map[string]map[string]string
	latestErr   error
	listErr     error
	fetchErrors map[string]error
	fetched     []string
	fetchHook   func()
}

func newFakeSource(latest string) *fakeSource {
	return &fakeSource{latest: latest, revisions: make(map[string]map[string]map[string]string), fetchErrors: make(map[string]error)}
}

func (fs *fakeSource) publish(revision string, docs map[string]map[string]string) {
	fs.mu.Lock()
	defer fs.mu.Unlock()

	fs.latest = revision
	fs.revisions[revision] = docs
}

func (fs *fakeSource) LatestRevision(ctx context.Context) (string, error) {
	fs.mu.Lock()
	defer fs.mu.Unlock()

	return fs.latest, fs.latestErr
}

func (fs *fakeSource) Categories(ctx context.Context, revision string) (categories []string, err error) {
	fs.mu.Lock()
	defer fs.mu.Unlock()

	if fs.listErr != nil {
		return nil, fs.listErr
	}

	for c := range fs.revisions[revision] {
		categories = append(categories, c)
	}
	sort.Strings(categories)

	return categories, nil
}

func (fs *fakeSource) Documents(ctx context.Context, category string, revision string) (refs []tags.DocumentRef, err error) {
	fs.mu.Lock()
	defer fs.mu.Unlock()

	names := make([]string, 0)
	for name := range fs.revisions[revision][category] {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		refs = append(refs, tags.DocumentRef{Category: category, Name: name, Path: category + "/" + name, DownloadURL: revision + "/" + category + "/" + name})
	}

	return refs, nil
}

func (fs *fakeSource) Fetch(ctx context.Context, ref tags.DocumentRef) (data []byte, err error) {
	fs.mu.Lock()
	hook := fs.fetchHook
	fs.fetched = append(fs.fetched, ref.DownloadURL)
	fs.mu.Unlock()

	if hook != nil {
		hook()
	}

	fs.mu.Lock()
	defer fs.mu.Unlock()

	if err := fs.fetchErrors[ref.Path]; err != nil {
		return nil, err
	}

	revision, _, _ := strings.Cut(ref.DownloadURL, "/")
	return []byte(fs.revisions[revision][ref.Category][ref.Name]), nil
}

func tagDoc(name string, content string) string {
	return fmt.Sprintf("name = %q\ndescription = \"%s tag\"\ncontent = %q\n", name, name, content)
}

type savedSnapshot struct {
	revision   string
	categories []string
	docs       []tags.RawDocument
}

type persisterRecorder struct {
	saved []savedSnapshot
}

func (pr *persisterRecorder) Save(revision string, categories []string, docs []tags.RawDocument) error {
	pr.saved = append(pr.saved, savedSnapshot{revision: revision, categories: categories, docs: docs})
	return nil
}

func newTestPoller(t *testing.T, source tags.Source, store *tags.Store, clock *fixedClock, options ...tags.PollerOption) (p *tags.Poller, logs *bytes.Buffer) {
	logs = new(bytes.Buffer)
	options = append([]tags.PollerOption{tags.OptionClock(clock), tags.OptionSettleDelay(settleDelay), tags.OptionLogger(helpscot.NewSLogger(log.New(logs, "", 0), true))}, options...)

	p, err := tags.NewPoller(source, store, options...)
	require.NoError(t, err)

	return p, logs
}

func TestPollerBootstrapRefreshesImmediately(t *testing.T) {
	clock := newFixedClock()
	source := newFakeSource("")
	source.publish("aaaaaaa1", map[string]map[string]string{"python": {"basics.toml": tagDoc("basics", "A")}})
	store := tags.NewStore("fr_FR", tags.OptionStoreClock(clock))
	recorder := &persisterRecorder{}

	p, _ := newTestPoller(t, source, store, clock, tags.OptionPersister(recorder))

	require.NoError(t, p.Tick(context.Background()))

	st := p.State()
	assert.Equal(t, tags.Idle, st.State)
	assert.Equal(t, "aaaaaaa1", st.LastSeen)
	assert.Equal(t, 1, st.Loaded)
	assert.Equal(t, "aaaaaaa1", store.Snapshot().Revision())
	assert.Equal(t, 1, store.Snapshot().Size())

	if assert.Len(t, recorder.saved, 1) {
		assert.Equal(t, "aaaaaaa1", recorder.saved[0].revision)
		assert.Equal(t, []string{"python"}, recorder.saved[0].categories)
		assert.Len(t, recorder.saved[0].docs, 1)
	}
}

func TestPollerWaitsForChangesToSettle(t *testing.T) {
	clock := newFixedClock()
	source := newFakeSource("")
	source.publish("A", map[string]map[string]string{"python": {"basics.toml": tagDoc("basics", "A")}})
	store := tags.NewStore("fr_FR", tags.OptionStoreClock(clock))
	p, _ := newTestPoller(t, source, store, clock)
	ctx := context.Background()

	require.NoError(t, p.Tick(ctx))
	assert.Equal(t, "A", p.State().LastSeen)

	// B shows up and starts the settle window
	source.publish("B", map[string]map[string]string{"python": {"basics.toml": tagDoc("basics", "B")}})
	clock.Advance(time.Minute)
	require.NoError(t, p.Tick(ctx))

	st := p.State()
	assert.Equal(t, tags.ChangeDetected, st.State)
	assert.Equal(t, "B", st.Pending)

	// C shows up before the window is over and restarts it
	source.publish("C", map[string]map[string]string{"python": {"basics.toml": tagDoc("basics", "C")}, "go": {"errors.toml": tagDoc("errors", "C")}})
	clock.Advance(4 * time.Minute)
	require.NoError(t, p.Tick(ctx))

	st = p.State()
	assert.Equal(t, tags.ChangeDetected, st.State)
	assert.Equal(t, "C", st.Pending)
	assert.Equal(t, "A", store.Snapshot().Revision())

	clock.Advance(4 * time.Minute)
	require.NoError(t, p.Tick(ctx))
	assert.Equal(t, tags.ChangeDetected, p.State().State)

	clock.Advance(time.Minute)
	require.NoError(t, p.Tick(ctx))

	st = p.State()
	assert.Equal(t, tags.Idle, st.State)
	assert.Equal(t, "C", st.LastSeen)
	assert.Empty(t, st.Pending)

	c := store.Snapshot()
	assert.Equal(t, "C", c.Revision())
	assert.Equal(t, []string{"go", "python"}, c.Categories())

	r, err := c.Lookup("python", "basics", "")
	require.NoError(t, err)
	assert.Equal(t, "C", r.Tag.Content.(tags.Single).Text)
}

func TestPollerCancelsPendingRefreshWhenRevisionReverts(t *testing.T) {
	clock := newFixedClock()
	source := newFakeSource("")
	source.publish("A", map[string]map[string]string{"python": {"basics.toml": tagDoc("basics", "A")}})
	p, _ := newTestPoller(t, source, tags.NewStore("fr_FR"), clock)
	ctx := context.Background()

	require.NoError(t, p.Tick(ctx))

	source.publish("B", map[string]map[string]string{})
	require.NoError(t, p.Tick(ctx))
	assert.Equal(t, tags.ChangeDetected, p.State().State)

	source.publish("A", map[string]map[string]string{"python": {"basics.toml": tagDoc("basics", "A")}})
	clock.Advance(settleDelay)
	require.NoError(t, p.Tick(ctx))

	st := p.State()
	assert.Equal(t, tags.Idle, st.State)
	assert.Equal(t, "A", st.LastSeen)
	assert.Empty(t, st.Pending)
}

func TestPollerSkipsInvalidDocuments(t *testing.T) {
	clock := newFixedClock()
	source := newFakeSource("")
	source.publish("A", map[string]map[string]string{"python": {
		"basics.toml":  tagDoc("basics", "A"),
		"broken.toml":  "name = \"broken\"\ndescription = \"no content\"\n",
		"dup.json":     `{"name": "basics", "description": "d", "content": "dup"}`,
		"missing.toml": tagDoc("missing", "A"),
		"notes.toml":   "name = ",
		"pip.toml":     tagDoc("pip", "A"),
	}})
	source.fetchErrors["python/missing.toml"] = fmt.Errorf("connection reset")
	store := tags.NewStore("fr_FR")
	p, logs := newTestPoller(t, source, store, clock)

	require.NoError(t, p.Tick(context.Background()))

	st := p.State()
	assert.Equal(t, 2, st.Loaded)
	assert.Equal(t, 4, st.Skipped)
	assert.Equal(t, 2, store.Snapshot().Size())
	assert.Contains(t, logs.String(), "[python/broken.toml] is invalid: content: content or at least one embed is required")
	assert.Contains(t, logs.String(), "Skipping document [python/missing.toml]: connection reset")
	assert.Contains(t, logs.String(), "duplicates tag [python.basics]")
}

func TestPollerListingFailureKeepsCatalogue(t *testing.T) {
	clock := newFixedClock()
	source := newFakeSource("")
	source.publish("A", map[string]map[string]string{"python": {"basics.toml": tagDoc("basics", "A")}})
	store := tags.NewStore("fr_FR", tags.OptionStoreClock(clock))
	p, logs := newTestPoller(t, source, store, clock, tags.OptionStaleAfter(time.Hour))
	ctx := context.Background()

	_, err := p.ForceRefresh(ctx)
	require.NoError(t, err)

	source.publish("B", map[string]map[string]string{})
	source.listErr = fmt.Errorf("rate limited")

	_, err = p.ForceRefresh(ctx)
	assert.EqualError(t, err, "rate limited")

	st := p.State()
	assert.Equal(t, "A", st.LastSeen)
	assert.Equal(t, 1, st.ConsecutiveFailures)
	assert.Equal(t, tags.Idle, st.State)
	assert.Equal(t, "A", store.Snapshot().Revision())
	assert.False(t, st.Stale(clock.Now(), time.Hour))

	clock.Advance(2 * time.Hour)
	source.latestErr = fmt.Errorf("unavailable")
	assert.Error(t, p.Tick(ctx))

	st = p.State()
	assert.Equal(t, 2, st.ConsecutiveFailures)
	assert.True(t, st.Stale(clock.Now(), time.Hour))
	assert.Contains(t, logs.String(), "is stale after [2] failure(s)")
	assert.Contains(t, st.String(), "2 consecutive failure(s)")

	source.latestErr = nil
	source.listErr = nil
	_, err = p.ForceRefresh(ctx)
	require.NoError(t, err)

	st = p.State()
	assert.Equal(t, 0, st.ConsecutiveFailures)
	assert.Equal(t, "B", st.LastSeen)
}

func TestPollerForceRefreshBypassesSettleDelay(t *testing.T) {
	clock := newFixedClock()
	source := newFakeSource("")
	source.publish("A", map[string]map[string]string{"python": {"basics.toml": tagDoc("basics", "A")}})
	store := tags.NewStore("fr_FR")
	p, _ := newTestPoller(t, source, store, clock)
	ctx := context.Background()

	require.NoError(t, p.Tick(ctx))

	source.publish("B", map[string]map[string]string{"python": {"basics.toml": tagDoc("basics", "B")}})
	require.NoError(t, p.Tick(ctx))
	assert.Equal(t, tags.ChangeDetected, p.State().State)

	st, err := p.ForceRefresh(ctx)
	require.NoError(t, err)

	assert.Equal(t, tags.Idle, st.State)
	assert.Equal(t, "B", st.LastSeen)
	assert.Equal(t, "B", store.Snapshot().Revision())
	assert.Contains(t, st.String(), "idle at revision [B]")
}

func TestPollerTickSkippedDuringRefresh(t *testing.T) {
	clock := newFixedClock()
	source := newFakeSource("")
	source.publish("A", map[string]map[string]string{"python": {"basics.toml": tagDoc("basics", "A")}})
	p, _ := newTestPoller(t, source, tags.NewStore("fr_FR"), clock)

	started := make(chan bool)
	release := make(chan bool)
	source.fetchHook = func() {
		started <- true
		<-release
	}

	done := make(chan error)
	go func() {
		_, err := p.ForceRefresh(context.Background())
		done <- err
	}()

	<-started
	assert.Equal(t, tags.Refreshing, p.State().State)

	// Overlapping tick returns right away without touching the source
	assert.NoError(t, p.Tick(context.Background()))
	assert.Len(t, source.fetched, 1)

	close(release)
	assert.NoError(t, <-done)
	assert.Equal(t, tags.Idle, p.State().State)
}

func TestPollerRestoredCatalogueCountsAsLastSeen(t *testing.T) {
	clock := newFixedClock()
	store := tags.NewStore("fr_FR", tags.OptionStoreClock(clock))
	store.Rebuild("A", map[string][]*tags.Tag{"python": {textTag("python", "basics", "")}})

	source := newFakeSource("")
	source.publish("A", map[string]map[string]string{"python": {"basics.toml": tagDoc("basics", "A")}})
	p, _ := newTestPoller(t, source, store, clock)

	require.NoError(t, p.Tick(context.Background()))

	assert.Equal(t, tags.Idle, p.State().State)
	assert.Empty(t, source.fetched)
}

func TestPollerRunStopsWithContext(t *testing.T) {
	clock := newFixedClock()
	source := newFakeSource("")
	source.publish("A", map[string]map[string]string{"python": {"basics.toml": tagDoc("basics", "A")}})
	store := tags.NewStore("fr_FR")
	p, _ := newTestPoller(t, source, store, clock, tags.OptionInterval(time.Millisecond))

	ctx, cancel := context.WithCancel(context.Background())
	stopped := make(chan bool)
	go func() {
		p.Run(ctx)
		stopped <- true
	}()

	assert.Eventually(t, func() bool {
		return store.Snapshot().Revision() == "A"
	}, time.Second, time.Millisecond)

	cancel()
	<-stopped
}

func TestBuildSkipsUnloadableDocuments(t *testing.T) {
	byCategory, loaded, errs := tags.Build([]string{"python", "empty"}, []tags.RawDocument{
		{Ref: tags.DocumentRef{Category: "python", Name: "basics.toml", Path: "python/basics.toml"}, Data: []byte(tagDoc("basics", "A"))},
		{Ref: tags.DocumentRef{Category: "python", Name: "notes.yaml", Path: "python/notes.yaml"}, Data: []byte("name: notes")},
	})

	assert.Equal(t, 1, loaded)
	assert.Len(t, errs, 1)
	assert.Len(t, byCategory["python"], 1)
	assert.Contains(t, byCategory, "empty")
}
