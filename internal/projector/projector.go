// Package projector keeps the cart's UI surfaces (floating control and
// badge, drawer list, footer total) in step with a cart.Store and performs
// the checkout hand-off to WhatsApp.
package projector

import (
	"fmt"

	"github.com/rs/zerolog"

	"github.com/imrishuroy/abak-storefront/internal/cart"
	"github.com/imrishuroy/abak-storefront/internal/logging"
)

// DrawerState is the visibility of the cart drawer overlay.
type DrawerState int

const (
	Closed DrawerState = iota
	Open
)

func (s DrawerState) String() string {
	if s == Open {
		return "open"
	}
	return "closed"
}

// MarshalText renders the state as "open" or "closed".
func (s DrawerState) MarshalText() ([]byte, error) { return []byte(s.String()), nil }

// UnmarshalText accepts "open" and "closed".
func (s *DrawerState) UnmarshalText(b []byte) error {
	switch string(b) {
	case "open":
		*s = Open
	case "closed":
		*s = Closed
	default:
		return fmt.Errorf("unknown drawer state %q", b)
	}
	return nil
}

// Config holds the presentation settings.
type Config struct {
	CurrencySuffix   string
	WhatsAppNumber   string // raw; normalized on use
	Greeting         string
	EmptyPlaceholder string
}

// Badge is the item count bubble on the floating cart control.
type Badge struct {
	Count   int  `json:"count"`
	Visible bool `json:"visible"`
}

// Control is the floating cart button.
type Control struct {
	Visible bool  `json:"visible"`
	Badge   Badge `json:"badge"`
}

// Row is one rendered drawer line.
type Row struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	Image     string `json:"image"`
	UnitPrice string `json:"unit_price"`
	Qty       int    `json:"qty"`
	LineTotal string `json:"line_total"`
}

// Drawer is the cart overlay. Rows are only present while it is open.
type Drawer struct {
	State       DrawerState `json:"state"`
	Rows        []Row       `json:"rows"`
	Empty       bool        `json:"empty"`
	Placeholder string      `json:"placeholder,omitempty"`
}

// Footer carries the formatted total.
type Footer struct {
	Visible bool   `json:"visible"`
	Total   string `json:"total"`
}

// View is everything the page needs to draw the cart.
type View struct {
	Control Control `json:"control"`
	Drawer  Drawer  `json:"drawer"`
	Footer  Footer  `json:"footer"`
}

// Renderer receives every fresh View.
type Renderer interface {
	Render(View)
}

// Option configures a Projector.
type Option func(*Projector)

// WithRenderer pushes views to r.
func WithRenderer(r Renderer) Option { return func(p *Projector) { p.renderer = r } }

// WithOpener routes checkout links to o.
func WithOpener(o Opener) Option { return func(p *Projector) { p.opener = o } }

// WithLogger sets the logger.
func WithLogger(l zerolog.Logger) Option {
	return func(p *Projector) { p.log = logging.Component(l, "projector") }
}

// Projector derives UI state from a Store. It only reads the store.
type Projector struct {
	store    *cart.Store
	cfg      Config
	renderer Renderer
	opener   Opener
	log      zerolog.Logger

	state DrawerState
	view  View
}

// New subscribes a Projector to store and renders the initial view.
func New(store *cart.Store, cfg Config, opts ...Option) *Projector {
	if cfg.EmptyPlaceholder == "" {
		cfg.EmptyPlaceholder = "Your cart is empty"
	}
	p := &Projector{store: store, cfg: cfg, log: zerolog.Nop()}
	for _, o := range opts {
		o(p)
	}
	store.Subscribe(p.refresh)
	p.refresh(store.Snapshot())
	return p
}

// Open shows the drawer and re-renders its rows from the current cart.
func (p *Projector) Open() {
	p.state = Open
	p.refresh(p.store.Snapshot())
}

// Close hides the drawer.
func (p *Projector) Close() {
	p.state = Closed
	p.refresh(p.store.Snapshot())
}

// State returns the drawer state.
func (p *Projector) State() DrawerState { return p.state }

// View returns the last rendered view.
func (p *Projector) View() View { return p.view }

// Checkout composes the order message and opens the WhatsApp link. It
// returns ok=false and does nothing when the cart is empty. The cart is
// left untouched.
func (p *Projector) Checkout() (link string, ok bool) {
	snap := p.store.Snapshot()
	if snap.IsEmpty() {
		return "", false
	}
	number := NormalizePhone(p.cfg.WhatsAppNumber)
	if number == "" {
		number = DefaultWhatsAppNumber
	}
	link = WhatsAppLink(number, CheckoutMessage(snap.Items, p.cfg.Greeting, p.cfg.CurrencySuffix))
	p.log.Info().Int("items", len(snap.Items)).Int("count", snap.Count).Msg("checkout hand-off")
	if p.opener != nil {
		p.opener.Open(link)
	}
	return link, true
}

func (p *Projector) refresh(snap cart.Snapshot) {
	empty := snap.IsEmpty()
	v := View{
		Control: Control{
			Visible: !empty,
			Badge:   Badge{Count: snap.Count, Visible: snap.Count > 0},
		},
		Footer: Footer{
			Visible: !empty,
			Total:   FormatPrice(snap.Total, p.cfg.CurrencySuffix),
		},
		Drawer: Drawer{State: p.state},
	}
	if p.state == Open {
		v.Drawer.Rows = p.renderRows(snap.Items)
		v.Drawer.Empty = empty
		if empty {
			v.Drawer.Placeholder = p.cfg.EmptyPlaceholder
		}
	}
	p.view = v
	if p.renderer != nil {
		p.renderer.Render(v)
	}
}

func (p *Projector) renderRows(items []cart.LineItem) []Row {
	rows := make([]Row, 0, len(items))
	for _, it := range items {
		rows = append(rows, Row{
			ID:        it.ID,
			Name:      it.Name,
			Image:     it.Image,
			UnitPrice: FormatPrice(it.UnitPrice(), p.cfg.CurrencySuffix),
			Qty:       it.Qty,
			LineTotal: FormatPrice(it.LineTotal(), p.cfg.CurrencySuffix),
		})
	}
	return rows
}
