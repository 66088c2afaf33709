package search

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeTimer struct {
	d       time.Duration
	f       func()
	stopped bool
}

type fakeScheduler struct {
	mu     sync.Mutex
	timers []*fakeTimer
}

func (s *fakeScheduler) AfterFunc(d time.Duration, f func()) Timer {
	s.mu.Lock()
	defer s.mu.Unlock()
	t := &fakeTimer{d: d, f: f}
	s.timers = append(s.timers, t)
	return stopper{s: s, t: t}
}

type stopper struct {
	s *fakeScheduler
	t *fakeTimer
}

func (st stopper) Stop() bool {
	st.s.mu.Lock()
	defer st.s.mu.Unlock()
	was := !st.t.stopped
	st.t.stopped = true
	return was
}

// flush fires every live timer armed with duration d.
func (s *fakeScheduler) flush(d time.Duration) {
	s.mu.Lock()
	var due []func()
	for _, t := range s.timers {
		if !t.stopped && t.d == d {
			t.stopped = true
			due = append(due, t.f)
		}
	}
	s.mu.Unlock()
	for _, f := range due {
		f()
	}
}

type fakeFetcher struct {
	mu      sync.Mutex
	calls   []string
	results map[string]Result
	err     error
	gates   map[string]chan struct{}
	started chan string
}

func (f *fakeFetcher) Fetch(ctx context.Context, query string, limit int) (Result, error) {
	f.mu.Lock()
	f.calls = append(f.calls, query)
	gate := f.gates[query]
	res, err := f.results[query], f.err
	f.mu.Unlock()
	if f.started != nil {
		f.started <- query
	}
	if gate != nil {
		<-gate
	}
	return res, err
}

func (f *fakeFetcher) Calls() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.calls...)
}

type navRecorder struct {
	mu   sync.Mutex
	urls []string
}

func (n *navRecorder) Navigate(url string) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.urls = append(n.urls, url)
}

var milkResult = Result{
	Products: []Product{
		{ID: 1, Name: "Milk", Slug: "milk", Price: "100 ₽", CategoryIcon: "🥛"},
		{ID: 2, Name: "Oat milk", Slug: "oat-milk", Price: "250 ₽", ImageURL: "/media/oat.jpg"},
	},
	Categories: []Category{{ID: 7, Name: "Dairy", Slug: "dairy", Icon: "🧀", ProductCount: 42}},
	Queries:    []Query{{Text: "milk shake", Count: 9}},
}

type fixture struct {
	s     *Session
	sched *fakeScheduler
	fetch *fakeFetcher
	nav   *navRecorder
	cfg   Config
}

func newFixture(t *testing.T, cfg Config) *fixture {
	t.Helper()
	f := &fixture{
		sched: &fakeScheduler{},
		fetch: &fakeFetcher{results: map[string]Result{
			"mi":   milkResult,
			"mil":  milkResult,
			"milk": milkResult,
		}},
		nav: &navRecorder{},
		cfg: cfg.withDefaults(),
	}
	f.s = NewSession(cfg, f.fetch, WithScheduler(f.sched), WithNavigator(f.nav))
	return f
}

func (f *fixture) open(t *testing.T, value string) {
	t.Helper()
	f.s.Input(value)
	f.sched.flush(f.cfg.Debounce)
	require.True(t, f.s.View().Visible)
}

func TestInput_BelowMinCharsNeverFetches(t *testing.T) {
	f := newFixture(t, DefaultConfig)

	f.s.Input("m")
	f.s.Input("  m ")
	f.sched.flush(f.cfg.Debounce)

	assert.Empty(t, f.fetch.Calls())
	assert.Equal(t, Idle, f.s.State())
	assert.False(t, f.s.View().Visible)
}

func TestInput_MinCharsFetchesOnceAfterDebounce(t *testing.T) {
	f := newFixture(t, DefaultConfig)

	f.s.Input("mi")
	assert.Empty(t, f.fetch.Calls())
	assert.Equal(t, Pending, f.s.State())

	f.sched.flush(f.cfg.Debounce)
	assert.Equal(t, []string{"mi"}, f.fetch.Calls())
	assert.Equal(t, Open, f.s.State())

	v := f.s.View()
	assert.True(t, v.Visible)
	assert.Equal(t, "mi", v.Query)
	assert.Equal(t, -1, v.Selected)
}

func TestInput_BurstFetchesOnceWithLastValue(t *testing.T) {
	f := newFixture(t, DefaultConfig)

	f.s.Input("mi")
	f.s.Input("mil")
	f.s.Input(" milk ")
	f.sched.flush(f.cfg.Debounce)

	assert.Equal(t, []string{"milk"}, f.fetch.Calls())
}

func TestInput_ShrinkClosesDropdown(t *testing.T) {
	f := newFixture(t, DefaultConfig)
	f.open(t, "mil")

	f.s.Input("m")
	v := f.s.View()
	assert.False(t, v.Visible)
	assert.Empty(t, v.Rows)
	assert.Equal(t, Idle, v.State)
}

func TestView_GroupsInOrderWithHeaders(t *testing.T) {
	f := newFixture(t, DefaultConfig)
	f.open(t, "mil")

	rows := f.s.View().Rows
	require.Len(t, rows, 7)

	kinds := make([]RowKind, len(rows))
	for i, r := range rows {
		kinds[i] = r.Kind
	}
	assert.Equal(t, []RowKind{
		RowHeader, RowProduct, RowProduct,
		RowHeader, RowCategory,
		RowHeader, RowQuery,
	}, kinds)

	assert.Equal(t, "Products", rows[0].Title)
	assert.Equal(t, "Categories", rows[3].Title)
	assert.Equal(t, "Popular searches", rows[5].Title)
	assert.Equal(t, -1, rows[0].Index)
	assert.Equal(t, []int{0, 1, 2, 3}, []int{rows[1].Index, rows[2].Index, rows[4].Index, rows[6].Index})

	assert.Equal(t, []Segment{{Text: "Mil", Match: true}, {Text: "k"}}, rows[1].Segments)
	assert.Equal(t, "100 ₽", rows[1].Detail)
	assert.Equal(t, "/media/oat.jpg", rows[2].Image)
	assert.Equal(t, "42", rows[4].Detail)
	assert.Equal(t, "🧀", rows[4].Icon)
}

func TestView_DisabledGroupsAreDropped(t *testing.T) {
	cfg := DefaultConfig
	cfg.ShowCategories = false
	cfg.ShowQueries = false
	f := newFixture(t, cfg)
	f.open(t, "mil")

	for _, r := range f.s.View().Rows {
		assert.NotEqual(t, RowCategory, r.Kind)
		assert.NotEqual(t, RowQuery, r.Kind)
	}

	// only products are navigable, so the selection clamps at 1
	for i := 0; i < 5; i++ {
		f.s.KeyDown(KeyArrowDown)
	}
	assert.Equal(t, 1, f.s.View().Selected)
}

func TestView_EmptyResultShowsPlaceholder(t *testing.T) {
	f := newFixture(t, DefaultConfig)
	f.s.Input("zz")
	f.sched.flush(f.cfg.Debounce)

	v := f.s.View()
	assert.Equal(t, Empty, v.State)
	assert.True(t, v.Visible)
	assert.Empty(t, v.Rows)
	assert.Equal(t, "Nothing found", v.Placeholder)
}

func TestKeyDown_ArrowsClampSelection(t *testing.T) {
	f := newFixture(t, DefaultConfig)

	f.s.KeyDown(KeyArrowDown)
	assert.Equal(t, -1, f.s.View().Selected, "closed dropdown ignores arrows")

	f.open(t, "mil")
	for i := 0; i < 10; i++ {
		f.s.KeyDown(KeyArrowDown)
	}
	assert.Equal(t, 3, f.s.View().Selected)

	rows := f.s.View().Rows
	assert.True(t, rows[6].Selected)
	assert.False(t, rows[1].Selected)

	for i := 0; i < 10; i++ {
		f.s.KeyDown(KeyArrowUp)
	}
	assert.Equal(t, -1, f.s.View().Selected)
}

func TestKeyDown_EnterActivatesSelection(t *testing.T) {
	f := newFixture(t, DefaultConfig)
	f.open(t, "mil")

	f.s.KeyDown(KeyArrowDown)
	f.s.KeyDown(KeyEnter)

	assert.Equal(t, []string{"/catalog/product/milk/"}, f.nav.urls)
	assert.False(t, f.s.View().Visible)
}

func TestKeyDown_EnterWithoutSelectionSearchesRawValue(t *testing.T) {
	f := newFixture(t, DefaultConfig)
	f.open(t, "milk")

	f.s.KeyDown(KeyEnter)
	assert.Equal(t, []string{"/catalog/search/?q=milk"}, f.nav.urls)
	assert.False(t, f.s.View().Visible)

	f.s.Input("   ")
	f.s.KeyDown(KeyEnter)
	assert.Len(t, f.nav.urls, 1, "blank value does not navigate")
}

func TestKeyDown_EscapeCloses(t *testing.T) {
	f := newFixture(t, DefaultConfig)
	f.open(t, "mil")
	f.s.KeyDown(KeyArrowDown)

	f.s.KeyDown(KeyEscape)

	v := f.s.View()
	assert.False(t, v.Visible)
	assert.Equal(t, -1, v.Selected)
	assert.Equal(t, "mil", v.Value)
	assert.Empty(t, f.nav.urls)
}

func TestSelect_Variants(t *testing.T) {
	tests := []struct {
		name      string
		index     int
		wantURL   string
		wantValue string
	}{
		{name: "product", index: 1, wantURL: "/catalog/product/oat-milk/", wantValue: "mil"},
		{name: "category", index: 2, wantURL: "/catalog/menu/?category=dairy", wantValue: "mil"},
		{name: "query", index: 3, wantURL: "/catalog/search/?q=milk+shake", wantValue: "milk shake"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			f := newFixture(t, DefaultConfig)
			f.open(t, "mil")

			f.s.Select(tc.index)

			assert.Equal(t, []string{tc.wantURL}, f.nav.urls)
			v := f.s.View()
			assert.False(t, v.Visible)
			assert.Equal(t, tc.wantValue, v.Value)
		})
	}
}

func TestSelect_OutOfRangeIsIgnored(t *testing.T) {
	f := newFixture(t, DefaultConfig)
	f.open(t, "mil")

	f.s.Select(4)
	f.s.Select(-1)

	assert.Empty(t, f.nav.urls)
	assert.True(t, f.s.View().Visible)
}

func TestRoutes_Custom(t *testing.T) {
	f := newFixture(t, DefaultConfig)
	f.s = NewSession(DefaultConfig, f.fetch,
		WithScheduler(f.sched),
		WithNavigator(f.nav),
		WithRoutes(Routes{ProductPath: "/p", CategoryPath: "/c/", SearchPath: "/s/"}),
	)
	f.open(t, "mil")

	f.s.Select(0)
	assert.Equal(t, []string{"/p/milk/"}, f.nav.urls)
}

func TestFetchFailure_KeepsPriorResults(t *testing.T) {
	f := newFixture(t, DefaultConfig)
	f.open(t, "mil")

	f.fetch.err = errors.New("boom")
	f.s.Input("milk")
	f.sched.flush(f.cfg.Debounce)

	v := f.s.View()
	assert.Equal(t, Open, v.State)
	assert.True(t, v.Visible)
	assert.Equal(t, "mil", v.Query)
	assert.Len(t, v.Rows, 7)
}

func TestFetchFailure_FromIdleStaysClosed(t *testing.T) {
	f := newFixture(t, DefaultConfig)
	f.fetch.err = errors.New("boom")

	f.s.Input("mil")
	f.sched.flush(f.cfg.Debounce)

	assert.Equal(t, Idle, f.s.State())
	assert.False(t, f.s.View().Visible)
}

func TestStaleResponseIsDropped(t *testing.T) {
	f := newFixture(t, DefaultConfig)
	gate := make(chan struct{})
	f.fetch.gates = map[string]chan struct{}{"mi": gate}
	f.fetch.started = make(chan string, 2)
	f.fetch.results["mil"] = Result{Queries: []Query{{Text: "mild cheese"}}}

	f.s.Input("mi")
	done := make(chan struct{})
	go func() {
		defer close(done)
		f.sched.flush(f.cfg.Debounce)
	}()
	require.Equal(t, "mi", <-f.fetch.started)

	f.s.Input("mil")
	f.sched.flush(f.cfg.Debounce)
	require.Equal(t, "mil", <-f.fetch.started)

	close(gate)
	<-done

	v := f.s.View()
	assert.Equal(t, "mil", v.Query)
	require.Len(t, v.Rows, 2)
	assert.Equal(t, RowQuery, v.Rows[1].Kind)
}

func TestClose_DropsInFlightResponse(t *testing.T) {
	f := newFixture(t, DefaultConfig)
	gate := make(chan struct{})
	f.fetch.gates = map[string]chan struct{}{"mil": gate}
	f.fetch.started = make(chan string, 1)

	f.s.Input("mil")
	done := make(chan struct{})
	go func() {
		defer close(done)
		f.sched.flush(f.cfg.Debounce)
	}()
	<-f.fetch.started

	f.s.KeyDown(KeyEscape)
	close(gate)
	<-done

	assert.False(t, f.s.View().Visible)
	assert.Equal(t, Idle, f.s.State())
}

func TestBlur_ClosesAfterDelay(t *testing.T) {
	f := newFixture(t, DefaultConfig)
	f.open(t, "mil")

	f.s.Blur()
	assert.True(t, f.s.View().Visible, "close is deferred")

	f.sched.flush(f.cfg.BlurDelay)
	assert.False(t, f.s.View().Visible)
}

func TestBlur_SelectionBeforeDelayLands(t *testing.T) {
	f := newFixture(t, DefaultConfig)
	f.open(t, "mil")

	f.s.Blur()
	f.s.Select(2)
	f.sched.flush(f.cfg.BlurDelay)

	assert.Equal(t, []string{"/catalog/menu/?category=dairy"}, f.nav.urls)
}

func TestFocus_CancelsBlur(t *testing.T) {
	f := newFixture(t, DefaultConfig)
	f.open(t, "mil")

	f.s.Blur()
	f.s.Focus()
	f.sched.flush(f.cfg.BlurDelay)

	assert.True(t, f.s.View().Visible)
}
