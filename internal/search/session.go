package search

import (
	"context"
	"strconv"
	"strings"
	"sync"
	"time"
	"unicode/utf8"

	"github.com/rs/zerolog"

	"github.com/imrishuroy/abak-storefront/internal/logging"
)

// Config tunes one search input.
type Config struct {
	MinChars       int
	Limit          int
	Debounce       time.Duration
	BlurDelay      time.Duration
	FetchTimeout   time.Duration
	ShowProducts   bool
	ShowCategories bool
	ShowQueries    bool

	ProductsTitle   string
	CategoriesTitle string
	QueriesTitle    string
	NoResults       string
}

// DefaultConfig is the widget's stock behaviour.
var DefaultConfig = Config{
	MinChars:       2,
	Limit:          8,
	Debounce:       300 * time.Millisecond,
	BlurDelay:      200 * time.Millisecond,
	FetchTimeout:   5 * time.Second,
	ShowProducts:   true,
	ShowCategories: true,
	ShowQueries:    true,
}

func (c Config) withDefaults() Config {
	if c.MinChars <= 0 {
		c.MinChars = DefaultConfig.MinChars
	}
	if c.Limit <= 0 {
		c.Limit = DefaultConfig.Limit
	}
	if c.FetchTimeout <= 0 {
		c.FetchTimeout = DefaultConfig.FetchTimeout
	}
	if c.ProductsTitle == "" {
		c.ProductsTitle = "Products"
	}
	if c.CategoriesTitle == "" {
		c.CategoriesTitle = "Categories"
	}
	if c.QueriesTitle == "" {
		c.QueriesTitle = "Popular searches"
	}
	if c.NoResults == "" {
		c.NoResults = "Nothing found"
	}
	return c
}

// Navigator sends the page to a URL.
type Navigator interface {
	Navigate(url string)
}

// NavigatorFunc adapts a function to Navigator.
type NavigatorFunc func(url string)

// Navigate calls f(url).
func (f NavigatorFunc) Navigate(url string) { f(url) }

// RowKind tells a header row from the three suggestion kinds.
type RowKind string

const (
	RowHeader   RowKind = "header"
	RowProduct  RowKind = "product"
	RowCategory RowKind = "category"
	RowQuery    RowKind = "query"
)

// Row is one line of the rendered dropdown. Index is the position among
// suggestion rows and -1 for headers.
type Row struct {
	Kind     RowKind   `json:"kind"`
	Index    int       `json:"index"`
	Title    string    `json:"title,omitempty"`
	Segments []Segment `json:"segments,omitempty"`
	Selected bool      `json:"selected,omitempty"`
	Detail   string    `json:"detail,omitempty"`
	Icon     string    `json:"icon,omitempty"`
	Image    string    `json:"image,omitempty"`
}

// Dropdown is the rendered state of one input.
type Dropdown struct {
	State       State  `json:"state"`
	Visible     bool   `json:"visible"`
	Value       string `json:"value"`
	Query       string `json:"query"`
	Selected    int    `json:"selected"`
	Rows        []Row  `json:"rows"`
	Placeholder string `json:"placeholder,omitempty"`
}

// Option configures a Session.
type Option func(*Session)

// WithScheduler replaces the wall-clock scheduler.
func WithScheduler(s Scheduler) Option { return func(se *Session) { se.sched = s } }

// WithRoutes replaces DefaultRoutes.
func WithRoutes(r Routes) Option { return func(se *Session) { se.routes = r } }

// WithNavigator receives navigations triggered by the dropdown.
func WithNavigator(n Navigator) Option { return func(se *Session) { se.nav = n } }

// WithLogger sets the logger.
func WithLogger(l zerolog.Logger) Option {
	return func(se *Session) { se.log = logging.Component(l, "search") }
}

// Session is the suggestion dropdown of one search input. Methods are safe
// for concurrent use; timers and fetch completions arrive on other
// goroutines.
type Session struct {
	cfg     Config
	fetcher Fetcher
	sched   Scheduler
	routes  Routes
	nav     Navigator
	log     zerolog.Logger

	mu       sync.Mutex
	value    string
	pending  string // query waiting for the debounce timer
	query    string // query the current items answer
	state    State
	visible  bool
	items    []Suggestion
	selected int

	debounce    Timer
	debounceGen uint64
	blur        Timer
	blurGen     uint64
	seq         uint64 // latest issued fetch; bumped on close too
}

// NewSession wires a dropdown to fetcher.
func NewSession(cfg Config, fetcher Fetcher, opts ...Option) *Session {
	s := &Session{
		cfg:      cfg.withDefaults(),
		fetcher:  fetcher,
		sched:    clockScheduler{},
		routes:   DefaultRoutes,
		log:      zerolog.Nop(),
		selected: -1,
	}
	for _, o := range opts {
		o(s)
	}
	return s
}

// Input reacts to the input's new value. Below MinChars the dropdown closes
// at once; otherwise the debounce timer restarts.
func (s *Session) Input(value string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.value = value
	q := strings.TrimSpace(value)
	if utf8.RuneCountInString(q) < s.cfg.MinChars {
		s.closeLocked()
		return
	}

	s.cancelBlurLocked()
	s.stopDebounceLocked()
	s.pending = q
	gen := s.debounceGen
	s.debounce = s.sched.AfterFunc(s.cfg.Debounce, func() { s.fire(gen) })
	s.state = Pending
}

// KeyDown handles navigation keys. Other keys are ignored.
func (s *Session) KeyDown(key Key) {
	s.mu.Lock()
	var target string
	switch key {
	case KeyArrowDown:
		if s.visible && s.selected < len(s.items)-1 {
			s.selected++
		}
	case KeyArrowUp:
		if s.visible && s.selected > -1 {
			s.selected--
		}
	case KeyEnter:
		if s.visible && s.selected >= 0 && s.selected < len(s.items) {
			target = s.activateLocked(s.items[s.selected])
		} else if strings.TrimSpace(s.value) != "" {
			s.closeLocked()
			target = s.routes.Search(s.value)
		}
	case KeyEscape:
		s.closeLocked()
	}
	s.mu.Unlock()
	s.navigate(target)
}

// Select activates the suggestion at index, as a pointer click does.
// Out-of-range indexes are ignored.
func (s *Session) Select(index int) {
	s.mu.Lock()
	var target string
	if s.visible && index >= 0 && index < len(s.items) {
		target = s.activateLocked(s.items[index])
	}
	s.mu.Unlock()
	s.navigate(target)
}

// Blur closes the dropdown after BlurDelay so a click on a row, which blurs
// the input first, still lands.
func (s *Session) Blur() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.cancelBlurLocked()
	gen := s.blurGen
	s.blur = s.sched.AfterFunc(s.cfg.BlurDelay, func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		if gen == s.blurGen {
			s.closeLocked()
		}
	})
}

// Focus cancels a pending blur close.
func (s *Session) Focus() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cancelBlurLocked()
}

// State returns the lifecycle state.
func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// View renders the dropdown.
func (s *Session) View() Dropdown {
	s.mu.Lock()
	defer s.mu.Unlock()

	d := Dropdown{
		State:    s.state,
		Visible:  s.visible,
		Value:    s.value,
		Query:    s.query,
		Selected: s.selected,
	}
	if !s.visible {
		return d
	}
	if len(s.items) == 0 {
		d.Placeholder = s.cfg.NoResults
		return d
	}

	last := Group(-1)
	for i, it := range s.items {
		if g := it.group(); g != last {
			d.Rows = append(d.Rows, Row{Kind: RowHeader, Index: -1, Title: s.groupTitle(g)})
			last = g
		}
		row := Row{Index: i, Segments: Highlight(it.Label(), s.query), Selected: i == s.selected}
		switch v := it.(type) {
		case Product:
			row.Kind = RowProduct
			row.Detail = v.Price
			row.Icon = v.CategoryIcon
			row.Image = v.ImageURL
		case Category:
			row.Kind = RowCategory
			row.Icon = v.Icon
			row.Detail = strconv.Itoa(v.ProductCount)
		case Query:
			row.Kind = RowQuery
			row.Detail = strconv.Itoa(v.Count)
		}
		d.Rows = append(d.Rows, row)
	}
	return d
}

func (s *Session) groupTitle(g Group) string {
	switch g {
	case GroupProducts:
		return s.cfg.ProductsTitle
	case GroupCategories:
		return s.cfg.CategoriesTitle
	default:
		return s.cfg.QueriesTitle
	}
}

// fire runs on the timer goroutine. The fetch itself happens without the
// lock held.
func (s *Session) fire(gen uint64) {
	s.mu.Lock()
	if gen != s.debounceGen || s.state != Pending {
		s.mu.Unlock()
		return
	}
	s.seq++
	seq, q := s.seq, s.pending
	s.state = Fetching
	s.mu.Unlock()

	ctx, cancel := context.WithTimeout(context.Background(), s.cfg.FetchTimeout)
	defer cancel()
	res, err := s.fetcher.Fetch(ctx, q, s.cfg.Limit)

	s.mu.Lock()
	defer s.mu.Unlock()
	if seq != s.seq {
		s.log.Debug().Str("query", q).Uint64("seq", seq).Msg("dropping superseded suggestions")
		return
	}
	if err != nil {
		s.log.Warn().Err(err).Str("query", q).Msg("fetch suggestions")
		if s.state == Fetching {
			s.state = s.restingStateLocked()
		}
		return
	}

	s.items = s.flatten(res)
	s.query = q
	s.selected = -1
	s.visible = true
	if s.state == Fetching {
		s.state = s.restingStateLocked()
	}
}

func (s *Session) restingStateLocked() State {
	switch {
	case !s.visible:
		return Idle
	case len(s.items) == 0:
		return Empty
	default:
		return Open
	}
}

// flatten orders groups products, categories, queries and drops disabled
// groups.
func (s *Session) flatten(res Result) []Suggestion {
	var out []Suggestion
	if s.cfg.ShowProducts {
		for _, p := range res.Products {
			out = append(out, p)
		}
	}
	if s.cfg.ShowCategories {
		for _, c := range res.Categories {
			out = append(out, c)
		}
	}
	if s.cfg.ShowQueries {
		for _, q := range res.Queries {
			out = append(out, q)
		}
	}
	return out
}

func (s *Session) activateLocked(it Suggestion) string {
	switch v := it.(type) {
	case Product:
		s.closeLocked()
		return s.routes.Product(v.Slug)
	case Category:
		s.closeLocked()
		return s.routes.Category(v.Slug)
	case Query:
		s.value = v.Text
		s.closeLocked()
		return s.routes.Search(v.Text)
	}
	return ""
}

// closeLocked hides the dropdown, cancels timers and supersedes any fetch
// still in flight.
func (s *Session) closeLocked() {
	s.stopDebounceLocked()
	s.cancelBlurLocked()
	s.seq++
	s.state = Idle
	s.visible = false
	s.items = nil
	s.query = ""
	s.selected = -1
}

func (s *Session) stopDebounceLocked() {
	if s.debounce != nil {
		s.debounce.Stop()
		s.debounce = nil
	}
	s.debounceGen++
}

func (s *Session) cancelBlurLocked() {
	if s.blur != nil {
		s.blur.Stop()
		s.blur = nil
	}
	s.blurGen++
}

func (s *Session) navigate(target string) {
	if target == "" {
		return
	}
	s.log.Debug().Str("url", target).Msg("navigate")
	if s.nav != nil {
		s.nav.Navigate(target)
	}
}
