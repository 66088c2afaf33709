// Package session hosts one Page per browsing context. A Page wires a
// storage scope into a cart.Store, a projector.Projector and a
// search.Session, and serializes every call made on it.
package session

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/imrishuroy/abak-storefront/internal/cart"
	"github.com/imrishuroy/abak-storefront/internal/logging"
	"github.com/imrishuroy/abak-storefront/internal/projector"
	"github.com/imrishuroy/abak-storefront/internal/search"
	"github.com/imrishuroy/abak-storefront/internal/storage"
)

// Config is what every page is built with.
type Config struct {
	Projector projector.Config
	Search    search.Config
	Routes    search.Routes
}

// Registry owns the live pages of the process.
type Registry struct {
	storage storage.Factory
	fetcher search.Fetcher
	cfg     Config
	log     zerolog.Logger
	sched   search.Scheduler
	nowFunc func() time.Time

	mu    sync.Mutex
	pages map[string]*Page
}

// RegistryOption configures a Registry.
type RegistryOption func(*Registry)

// WithScheduler hands sched to every search session, for tests.
func WithScheduler(sched search.Scheduler) RegistryOption {
	return func(r *Registry) { r.sched = sched }
}

// NewRegistry returns an empty Registry.
func NewRegistry(st storage.Factory, fetcher search.Fetcher, cfg Config, log zerolog.Logger, opts ...RegistryOption) *Registry {
	r := &Registry{
		storage: st,
		fetcher: fetcher,
		cfg:     cfg,
		log:     logging.Component(log, "session"),
		nowFunc: time.Now,
		pages:   map[string]*Page{},
	}
	for _, o := range opts {
		o(r)
	}
	return r
}

// Page returns the page for contextID, building it on first use. Building
// loads the cart from storage, so it runs outside the registry lock; if two
// requests race, the first one stored wins and the other copy is dropped.
func (r *Registry) Page(ctx context.Context, contextID string) *Page {
	r.mu.Lock()
	if p, ok := r.pages[contextID]; ok {
		p.touch(r.nowFunc())
		r.mu.Unlock()
		return p
	}
	r.mu.Unlock()

	built := r.build(ctx, contextID)

	r.mu.Lock()
	defer r.mu.Unlock()
	if p, ok := r.pages[contextID]; ok {
		p.touch(r.nowFunc())
		return p
	}
	r.pages[contextID] = built
	r.log.Debug().Str(logging.ContextIDKey, contextID).Int("pages", len(r.pages)).Msg("page created")
	return built
}

// Len reports the number of live pages.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.pages)
}

// Sweep drops pages idle for longer than idle and returns how many went.
// Cart state survives in storage; the next request rebuilds the page.
func (r *Registry) Sweep(idle time.Duration) int {
	cutoff := r.nowFunc().Add(-idle)

	r.mu.Lock()
	defer r.mu.Unlock()
	n := 0
	for id, p := range r.pages {
		if p.idleSince().Before(cutoff) {
			delete(r.pages, id)
			n++
		}
	}
	if n > 0 {
		r.log.Info().Int("evicted", n).Int("pages", len(r.pages)).Msg("swept idle pages")
	}
	return n
}

// RunSweeper calls Sweep every interval until ctx is done.
func (r *Registry) RunSweeper(ctx context.Context, interval, idle time.Duration) {
	t := time.NewTicker(interval)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			r.Sweep(idle)
		}
	}
}

func (r *Registry) build(ctx context.Context, contextID string) *Page {
	log := r.log.With().Str(logging.ContextIDKey, contextID).Logger()
	p := &Page{ID: contextID, lastSeen: r.nowFunc()}

	p.cart = cart.NewStore(ctx, r.storage(contextID), log)
	p.proj = projector.New(p.cart, r.cfg.Projector,
		projector.WithOpener(projector.OpenerFunc(p.recordOpen)),
		projector.WithLogger(log),
	)

	opts := []search.Option{
		search.WithNavigator(search.NavigatorFunc(p.recordNavigate)),
		search.WithLogger(log),
	}
	if r.cfg.Routes != (search.Routes{}) {
		opts = append(opts, search.WithRoutes(r.cfg.Routes))
	}
	if r.sched != nil {
		opts = append(opts, search.WithScheduler(r.sched))
	}
	p.search = search.NewSession(r.cfg.Search, r.fetcher, opts...)
	return p
}
