package runner

import (
	"context"
	"errors"
	"strconv"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/PobleteFerreira/cartografia-streaming-argentino-FULL/src/cartografo/components/accumulator"
	"github.com/PobleteFerreira/cartografia-streaming-argentino-FULL/src/cartografo/components/quota"
	"github.com/PobleteFerreira/cartografia-streaming-argentino-FULL/src/cartografo/components/strategy"
	"github.com/PobleteFerreira/cartografia-streaming-argentino-FULL/src/cartografo/components/youtube"
	"github.com/PobleteFerreira/cartografia-streaming-argentino-FULL/src/cartografo/types"
)

type fakeFetcher struct {
	mu           sync.Mutex
	pages        map[string][]*youtube.Page
	details      map[string]*youtube.Detail
	nonStreaming map[string]bool
	videos       map[string][]youtube.Video
	searchErr    map[string]error
	searchFn     func(term, token string) (*youtube.Page, error)
	searchCalls  int
	detailCalls  int
	videoCalls   int
}

func (f *fakeFetcher) SearchPage(_ context.Context, term, token string) (*youtube.Page, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.searchCalls++
	if f.searchFn != nil {
		return f.searchFn(term, token)
	}
	if err := f.searchErr[term]; err != nil {
		return nil, err
	}
	idx := 0
	if token != "" {
		idx, _ = strconv.Atoi(token[1:])
	}
	ps := f.pages[term]
	if idx >= len(ps) {
		return &youtube.Page{}, nil
	}
	return ps[idx], nil
}

func (f *fakeFetcher) ChannelDetail(_ context.Context, channelID string) (*youtube.Detail, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.detailCalls++
	return f.details[channelID], nil
}

func (f *fakeFetcher) HasStreaming(_ context.Context, channelID string) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return !f.nonStreaming[channelID], nil
}

func (f *fakeFetcher) RecentVideos(_ context.Context, channelID string) ([]youtube.Video, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.videoCalls++
	return f.videos[channelID], nil
}

type fakeIngestor struct {
	mu       sync.Mutex
	known    map[string]struct{}
	ingested []accumulator.RawEntity
}

func newFakeIngestor(known ...string) *fakeIngestor {
	f := &fakeIngestor{known: make(map[string]struct{})}
	for _, id := range known {
		f.known[id] = struct{}{}
	}
	return f
}

func (f *fakeIngestor) Known(channelID string) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	_, ok := f.known[channelID]
	return ok
}

func (f *fakeIngestor) Ingest(_ context.Context, raw accumulator.RawEntity, _ strategy.Term) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.known[raw.ChannelID]; ok {
		return false, nil
	}
	f.known[raw.ChannelID] = struct{}{}
	f.ingested = append(f.ingested, raw)
	return true, nil
}

func (f *fakeIngestor) Counts() (int, int, int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.ingested), len(f.ingested), 0
}

type memCursors struct {
	mu      sync.Mutex
	cursors map[string]*types.SearchCursor
	logs    []types.SearchLog
}

func newMemCursors() *memCursors {
	return &memCursors{cursors: make(map[string]*types.SearchCursor)}
}

func (m *memCursors) LoadCursor(_ context.Context, term string) (*types.SearchCursor, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	c, ok := m.cursors[term]
	if !ok {
		return nil, nil
	}
	cp := *c
	return &cp, nil
}

func (m *memCursors) SaveCursor(_ context.Context, cursor *types.SearchCursor) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *cursor
	m.cursors[cursor.Term] = &cp
	return nil
}

func (m *memCursors) LogSearch(_ context.Context, entry *types.SearchLog) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.logs = append(m.logs, *entry)
	return nil
}

func testConfig() Config {
	return Config{
		MaxRetries:     1,
		BackoffBase:    time.Millisecond,
		RateLimitPause: time.Millisecond,
		ThrottleAbove:  1,
	}
}

func twoTermPlanner() *strategy.Planner {
	return strategy.NewPlanner(strategy.Catalog{
		General: []strategy.Term{
			{Text: "bunker mza", MaxDepth: 2},
			{Text: "charlas cordobesas", MaxDepth: 1},
		},
	})
}

func page(token string, ids ...string) *youtube.Page {
	p := &youtube.Page{NextPageToken: token}
	for _, id := range ids {
		p.Channels = append(p.Channels, youtube.Channel{ChannelID: id, Title: "canal " + id})
	}
	return p
}

func detail(id string, subs int64) *youtube.Detail {
	return &youtube.Detail{ChannelID: id, Title: "canal " + id, Subscribers: subs}
}

func TestRunWalksPlan(t *testing.T) {
	fetcher := &fakeFetcher{
		pages: map[string][]*youtube.Page{
			"bunker mza":         {page("p1", "UC1", "UC2"), page("", "UC3")},
			"charlas cordobesas": {page("p1", "UC4")},
		},
		details: map[string]*youtube.Detail{
			"UC1": detail("UC1", 1200),
			"UC2": detail("UC2", 800),
			"UC3": detail("UC3", 5000),
			"UC4": detail("UC4", 900),
		},
	}
	ing := newFakeIngestor()
	cursors := newMemCursors()
	budget := quota.NewBudget(1000, 0.8)

	r := New(testConfig(), twoTermPlanner(), fetcher, ing, cursors, budget)
	rep, err := r.Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, StateDone, rep.State)
	assert.Equal(t, 2, rep.TermsPlanned)
	assert.Equal(t, 2, rep.TermsSearched)
	assert.Equal(t, 3, rep.PagesFetched)
	assert.Len(t, ing.ingested, 4)
	assert.NotEmpty(t, rep.RunID)

	// Second term stopped at its scheduled depth even though more pages exist.
	c := cursors.cursors["charlas cordobesas"]
	require.NotNil(t, c)
	assert.Equal(t, 1, c.PagesFetched)
	assert.False(t, c.Exhausted)

	require.Len(t, cursors.logs, 2)
	assert.Equal(t, rep.RunID, cursors.logs[0].RunID)
	assert.Equal(t, "bunker mza", cursors.logs[0].Term)
	assert.Equal(t, 2, cursors.logs[0].PagesExplored)
	assert.Equal(t, 3, cursors.logs[0].ChannelsFound)
}

func TestKnownChannelsSkipDetailFetch(t *testing.T) {
	fetcher := &fakeFetcher{
		pages: map[string][]*youtube.Page{
			"bunker mza":         {page("", "UC1", "UC2")},
			"charlas cordobesas": {page("", "UC1")},
		},
		details: map[string]*youtube.Detail{"UC2": detail("UC2", 700)},
	}
	ing := newFakeIngestor("UC1")
	r := New(testConfig(), twoTermPlanner(), fetcher, ing, newMemCursors(), quota.NewBudget(1000, 0.8))

	rep, err := r.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, StateDone, rep.State)

	// Only the unknown channel cost a detail lookup.
	assert.Equal(t, 1, fetcher.detailCalls)
	assert.Len(t, ing.ingested, 1)
	assert.Equal(t, "UC2", ing.ingested[0].ChannelID)
}

func TestNonStreamingChannelFlaggedAndUploadsSkipped(t *testing.T) {
	fetcher := &fakeFetcher{
		pages: map[string][]*youtube.Page{
			"bunker mza":         {page("", "UC1", "UC2")},
			"charlas cordobesas": {page("")},
		},
		details: map[string]*youtube.Detail{
			"UC1": detail("UC1", 1500),
			"UC2": detail("UC2", 2000),
		},
		nonStreaming: map[string]bool{"UC2": true},
		videos: map[string][]youtube.Video{
			"UC1": {{Title: "en vivo desde el bunker", Description: "los lunes 21hs"}},
		},
	}
	ing := newFakeIngestor()
	r := New(testConfig(), twoTermPlanner(), fetcher, ing, newMemCursors(), quota.NewBudget(1000, 0.8))

	_, err := r.Run(context.Background())
	require.NoError(t, err)

	require.Len(t, ing.ingested, 2)
	byID := make(map[string]accumulator.RawEntity)
	for _, raw := range ing.ingested {
		byID[raw.ChannelID] = raw
	}

	assert.True(t, byID["UC1"].Streaming)
	assert.Contains(t, byID["UC1"].PageText, "en vivo desde el bunker")
	assert.False(t, byID["UC2"].Streaming)
	// Only the streaming-capable channel got its uploads fetched.
	assert.Equal(t, 1, fetcher.videoCalls)
}

func TestRunResumesFromStoredCursor(t *testing.T) {
	fetcher := &fakeFetcher{
		pages: map[string][]*youtube.Page{
			"bunker mza":         {page("p1", "UC1"), page("", "UC2")},
			"charlas cordobesas": {page("", "UC3")},
		},
		details: map[string]*youtube.Detail{
			"UC2": detail("UC2", 600),
			"UC3": detail("UC3", 600),
		},
	}
	cursors := newMemCursors()
	// Page 0 was already walked by a previous run.
	cursors.cursors["bunker mza"] = &types.SearchCursor{
		Term: "bunker mza", Phase: "general", PagesFetched: 1, PageToken: "p1",
	}
	ing := newFakeIngestor()
	r := New(testConfig(), twoTermPlanner(), fetcher, ing, cursors, quota.NewBudget(1000, 0.8))

	rep, err := r.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, rep.PagesFetched)

	ids := []string{ing.ingested[0].ChannelID, ing.ingested[1].ChannelID}
	assert.NotContains(t, ids, "UC1", "page 0 must not be re-fetched")
	assert.Contains(t, ids, "UC2")
}

func TestExhaustedCursorSkipsTerm(t *testing.T) {
	fetcher := &fakeFetcher{pages: map[string][]*youtube.Page{
		"charlas cordobesas": {page("", "UC9")},
	}}
	cursors := newMemCursors()
	cursors.cursors["bunker mza"] = &types.SearchCursor{
		Term: "bunker mza", Phase: "general", PagesFetched: 1, Exhausted: true,
	}
	cursors.cursors["charlas cordobesas"] = &types.SearchCursor{
		Term: "charlas cordobesas", Phase: "general", PagesFetched: 1,
	}
	r := New(testConfig(), twoTermPlanner(), fetcher, newFakeIngestor(), cursors, quota.NewBudget(1000, 0.8))
	rep, err := r.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 0, rep.PagesFetched)
	assert.Equal(t, 0, fetcher.searchCalls)
}

func TestAuthFailureAbortsRun(t *testing.T) {
	fetcher := &fakeFetcher{
		searchErr: map[string]error{"bunker mza": youtube.ErrAuth},
	}
	r := New(testConfig(), twoTermPlanner(), fetcher, newFakeIngestor(), newMemCursors(), quota.NewBudget(1000, 0.8))

	rep, err := r.Run(context.Background())
	require.Error(t, err)
	assert.True(t, errors.Is(err, youtube.ErrAuth))
	assert.Equal(t, StateAborted, rep.State)
	assert.Equal(t, 0, rep.TermsSearched)
	// No retries on a credential failure.
	assert.Equal(t, 1, fetcher.searchCalls)
}

func TestQuotaExhaustionAbortsWithReport(t *testing.T) {
	first := page("p1", "UC1")
	calls := 0
	fetcher := &fakeFetcher{
		details: map[string]*youtube.Detail{"UC1": detail("UC1", 900)},
	}
	// The first page succeeds, the next debit trips the budget.
	fetcher.searchFn = func(term, token string) (*youtube.Page, error) {
		calls++
		if calls == 1 {
			return first, nil
		}
		return nil, quota.ErrExhausted
	}

	ing := newFakeIngestor()
	r := New(testConfig(), twoTermPlanner(), fetcher, ing, newMemCursors(), quota.NewBudget(1000, 0.8))
	rep, err := r.Run(context.Background())
	require.Error(t, err)
	assert.True(t, errors.Is(err, quota.ErrExhausted))
	assert.Equal(t, StateAborted, rep.State)
	// Progress up to the failure is preserved in the report.
	assert.Equal(t, 1, rep.PagesFetched)
	assert.Len(t, ing.ingested, 1)
}

func TestTransientFailureSurrendersTermOnly(t *testing.T) {
	fetcher := &fakeFetcher{
		pages: map[string][]*youtube.Page{
			"charlas cordobesas": {page("", "UC4")},
		},
		details: map[string]*youtube.Detail{"UC4": detail("UC4", 800)},
		searchErr: map[string]error{
			"bunker mza": &youtube.TransientError{Status: 503},
		},
	}
	ing := newFakeIngestor()
	cursors := newMemCursors()
	r := New(testConfig(), twoTermPlanner(), fetcher, ing, cursors, quota.NewBudget(1000, 0.8))

	rep, err := r.Run(context.Background())
	require.NoError(t, err, "a surrendered term must not abort the run")
	assert.Equal(t, StateDone, rep.State)
	assert.Equal(t, 2, rep.TermsSearched)
	assert.Len(t, ing.ingested, 1)

	// The failed attempt is reported and charged against the term's depth;
	// the page token is kept for the next run.
	require.Len(t, cursors.logs, 2)
	assert.Equal(t, 1, cursors.logs[0].PagesExplored)
	assert.Equal(t, 1, cursors.logs[1].PagesExplored)
	c := cursors.cursors["bunker mza"]
	require.NotNil(t, c)
	assert.Equal(t, 1, c.PagesFetched)
	assert.Empty(t, c.PageToken)
	assert.False(t, c.Exhausted)
}

func TestDeadPageCannotPinTermAcrossRuns(t *testing.T) {
	fetcher := &fakeFetcher{
		searchErr: map[string]error{
			"bunker mza":         &youtube.TransientError{Status: 503},
			"charlas cordobesas": &youtube.TransientError{Status: 503},
		},
	}
	cursors := newMemCursors()

	// "bunker mza" has MaxDepth 2: two failing runs exhaust its depth.
	for i := 0; i < 2; i++ {
		r := New(testConfig(), twoTermPlanner(), fetcher, newFakeIngestor(), cursors, quota.NewBudget(1000, 0.8))
		_, err := r.Run(context.Background())
		require.NoError(t, err)
	}
	c := cursors.cursors["bunker mza"]
	require.NotNil(t, c)
	assert.Equal(t, 2, c.PagesFetched)

	// Third run: the term is spent, no further attempts on it.
	fetcher.mu.Lock()
	fetcher.searchCalls = 0
	fetcher.mu.Unlock()
	r := New(testConfig(), twoTermPlanner(), fetcher, newFakeIngestor(), cursors, quota.NewBudget(1000, 0.8))
	_, err := r.Run(context.Background())
	require.NoError(t, err)

	// "charlas cordobesas" (depth 1) was spent after the first run.
	fetcher.mu.Lock()
	calls := fetcher.searchCalls
	fetcher.mu.Unlock()
	assert.Zero(t, calls)
}

func TestReserveStopsRunEarly(t *testing.T) {
	budget := quota.NewBudget(100, 0.8)
	cfg := testConfig()
	cfg.ReserveUnits = 100

	fetcher := &fakeFetcher{}
	r := New(cfg, twoTermPlanner(), fetcher, newFakeIngestor(), newMemCursors(), budget)

	rep, err := r.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, StateDone, rep.State)
	assert.Equal(t, 0, rep.TermsSearched)
	assert.Equal(t, 0, fetcher.searchCalls)
}

func TestCancellationAborts(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	r := New(testConfig(), twoTermPlanner(), &fakeFetcher{}, newFakeIngestor(), newMemCursors(), quota.NewBudget(1000, 0.8))
	rep, err := r.Run(ctx)
	require.Error(t, err)
	assert.True(t, errors.Is(err, context.Canceled))
	assert.Equal(t, StateAborted, rep.State)
}
