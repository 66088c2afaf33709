package session

import (
	"context"
	"sync"
	"time"

	"github.com/imrishuroy/abak-storefront/internal/cart"
	"github.com/imrishuroy/abak-storefront/internal/projector"
	"github.com/imrishuroy/abak-storefront/internal/search"
)

// Page is one browsing context. Cart and drawer calls hold mu for their
// whole duration, so they never interleave.
type Page struct {
	ID string

	mu     sync.Mutex
	cart   *cart.Store
	proj   *projector.Projector
	search *search.Session

	seenMu   sync.Mutex
	lastSeen time.Time

	effectMu sync.Mutex
	navigate string // URL the search dropdown sent the page to
	opened   string // checkout link opened in a new window
}

// AddItem adds one unit of p and returns the fresh cart view.
func (pg *Page) AddItem(ctx context.Context, p cart.Product) projector.View {
	pg.mu.Lock()
	defer pg.mu.Unlock()
	pg.cart.AddItem(ctx, p)
	return pg.proj.View()
}

// UpdateQuantity applies delta to id.
func (pg *Page) UpdateQuantity(ctx context.Context, id string, delta int) projector.View {
	pg.mu.Lock()
	defer pg.mu.Unlock()
	pg.cart.UpdateQuantity(ctx, id, delta)
	return pg.proj.View()
}

// RemoveItem drops id.
func (pg *Page) RemoveItem(ctx context.Context, id string) projector.View {
	pg.mu.Lock()
	defer pg.mu.Unlock()
	pg.cart.RemoveItem(ctx, id)
	return pg.proj.View()
}

// Items returns a copy of the line items.
func (pg *Page) Items() []cart.LineItem {
	pg.mu.Lock()
	defer pg.mu.Unlock()
	return pg.cart.Items()
}

func (pg *Page) CartView() projector.View {
	pg.mu.Lock()
	defer pg.mu.Unlock()
	return pg.proj.View()
}

func (pg *Page) OpenDrawer() projector.View {
	pg.mu.Lock()
	defer pg.mu.Unlock()
	pg.proj.Open()
	return pg.proj.View()
}

func (pg *Page) CloseDrawer() projector.View {
	pg.mu.Lock()
	defer pg.mu.Unlock()
	pg.proj.Close()
	return pg.proj.View()
}

// Checkout opens the WhatsApp hand-off. opened is empty when the cart is.
func (pg *Page) Checkout() (opened string) {
	pg.mu.Lock()
	defer pg.mu.Unlock()
	pg.takeEffects()
	pg.proj.Checkout()
	_, opened = pg.takeEffects()
	return opened
}

// SearchInput feeds the input's new value to the dropdown.
func (pg *Page) SearchInput(value string) search.Dropdown {
	pg.mu.Lock()
	defer pg.mu.Unlock()
	pg.search.Input(value)
	return pg.search.View()
}

// SearchKey handles a key and reports the URL it navigated to, if any.
func (pg *Page) SearchKey(key search.Key) (search.Dropdown, string) {
	pg.mu.Lock()
	defer pg.mu.Unlock()
	pg.takeEffects()
	pg.search.KeyDown(key)
	nav, _ := pg.takeEffects()
	return pg.search.View(), nav
}

// SearchSelect activates the suggestion at index.
func (pg *Page) SearchSelect(index int) (search.Dropdown, string) {
	pg.mu.Lock()
	defer pg.mu.Unlock()
	pg.takeEffects()
	pg.search.Select(index)
	nav, _ := pg.takeEffects()
	return pg.search.View(), nav
}

// SearchFocus cancels a deferred blur close.
func (pg *Page) SearchFocus() search.Dropdown {
	pg.mu.Lock()
	defer pg.mu.Unlock()
	pg.search.Focus()
	return pg.search.View()
}

func (pg *Page) SearchBlur() search.Dropdown {
	pg.mu.Lock()
	defer pg.mu.Unlock()
	pg.search.Blur()
	return pg.search.View()
}

func (pg *Page) SearchView() search.Dropdown {
	return pg.search.View()
}

func (pg *Page) recordNavigate(url string) {
	pg.effectMu.Lock()
	defer pg.effectMu.Unlock()
	pg.navigate = url
}

func (pg *Page) recordOpen(url string) {
	pg.effectMu.Lock()
	defer pg.effectMu.Unlock()
	pg.opened = url
}

// takeEffects returns and clears the recorded navigation and opened URL.
func (pg *Page) takeEffects() (navigate, opened string) {
	pg.effectMu.Lock()
	defer pg.effectMu.Unlock()
	navigate, opened = pg.navigate, pg.opened
	pg.navigate, pg.opened = "", ""
	return navigate, opened
}

func (pg *Page) touch(now time.Time) {
	pg.seenMu.Lock()
	defer pg.seenMu.Unlock()
	pg.lastSeen = now
}

func (pg *Page) idleSince() time.Time {
	pg.seenMu.Lock()
	defer pg.seenMu.Unlock()
	return pg.lastSeen
}
