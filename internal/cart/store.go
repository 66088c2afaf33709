package cart

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/imrishuroy/abak-storefront/internal/logging"
	"github.com/imrishuroy/abak-storefront/internal/storage"
)

// Store owns the line items of one browsing context. Every mutation writes
// the whole cart through to storage and then notifies subscribers.
//
// A Store is not safe for concurrent use; the owning page serializes calls.
type Store struct {
	storage   storage.Storage
	log       zerolog.Logger
	items     []LineItem
	listeners []func(Snapshot)
}

// NewStore loads the cart from st. Missing or malformed content yields an
// empty cart; construction never fails.
func NewStore(ctx context.Context, st storage.Storage, log zerolog.Logger) *Store {
	s := &Store{
		storage: st,
		log:     logging.Component(log, "cart"),
	}
	s.load(ctx)
	return s
}

// Subscribe registers fn to run after every persisted mutation.
func (s *Store) Subscribe(fn func(Snapshot)) {
	s.listeners = append(s.listeners, fn)
}

// AddItem increments the quantity of an existing id, keeping the stored
// name, price and image, or appends p with qty 1.
func (s *Store) AddItem(ctx context.Context, p Product) {
	if i := s.indexOf(p.ID); i >= 0 {
		s.items[i].Qty++
	} else {
		s.items = append(s.items, LineItem{
			ID:    p.ID,
			Name:  p.Name,
			Price: p.Price,
			Image: p.Image,
			Qty:   1,
		})
	}
	s.commit(ctx)
}

// UpdateQuantity adds delta to the quantity of id. A resulting quantity of
// zero or less removes the item. Unknown ids are ignored.
func (s *Store) UpdateQuantity(ctx context.Context, id string, delta int) {
	i := s.indexOf(id)
	if i < 0 {
		return
	}
	s.items[i].Qty += delta
	if s.items[i].Qty <= 0 {
		s.RemoveItem(ctx, id)
		return
	}
	s.commit(ctx)
}

// RemoveItem drops id from the cart. It persists and notifies even when id
// is absent.
func (s *Store) RemoveItem(ctx context.Context, id string) {
	kept := s.items[:0]
	for _, it := range s.items {
		if it.ID != id {
			kept = append(kept, it)
		}
	}
	s.items = kept
	s.commit(ctx)
}

// Items returns a copy of the line items in display order.
func (s *Store) Items() []LineItem {
	out := make([]LineItem, len(s.items))
	copy(out, s.items)
	return out
}

// Count is the sum of quantities.
func (s *Store) Count() int {
	n := 0
	for _, it := range s.items {
		n += it.Qty
	}
	return n
}

// Total is the sum of price * qty.
func (s *Store) Total() decimal.Decimal {
	total := decimal.Zero
	for _, it := range s.items {
		total = total.Add(it.LineTotal())
	}
	return total
}

// IsEmpty reports whether the cart has no line items.
func (s *Store) IsEmpty() bool { return len(s.items) == 0 }

// Snapshot returns the current state.
func (s *Store) Snapshot() Snapshot {
	return Snapshot{Items: s.Items(), Count: s.Count(), Total: s.Total()}
}

func (s *Store) indexOf(id string) int {
	for i, it := range s.items {
		if it.ID == id {
			return i
		}
	}
	return -1
}

func (s *Store) commit(ctx context.Context) {
	s.persist(ctx)
	snap := s.Snapshot()
	for _, fn := range s.listeners {
		fn(snap)
	}
}

// persist never fails the caller. A rejected write keeps the in-memory cart
// and is retried implicitly by the next mutation.
func (s *Store) persist(ctx context.Context) {
	items := s.items
	if items == nil {
		items = []LineItem{}
	}
	raw, err := json.Marshal(items)
	if err != nil {
		s.log.Error().Err(err).Msg("encode cart")
		return
	}
	if err := s.storage.SetItem(ctx, StorageKey, string(raw)); err != nil {
		ev := s.log.Error()
		if errors.Is(err, storage.ErrQuotaExceeded) {
			ev = s.log.Warn()
		}
		ev.Err(err).Int("bytes", len(raw)).Msg("persist cart")
	}
}

func (s *Store) load(ctx context.Context) {
	raw, ok, err := s.storage.GetItem(ctx, StorageKey)
	if err != nil {
		s.log.Error().Err(err).Msg("load cart, starting empty")
		return
	}
	if !ok {
		return
	}
	items, err := decode(raw)
	if err != nil {
		s.log.Warn().Err(err).Msg("discarding malformed cart")
		return
	}
	s.items = items
}

// decode parses a persisted cart and rejects records that break the cart
// invariants.
func decode(raw string) ([]LineItem, error) {
	var items []LineItem
	if err := json.Unmarshal([]byte(raw), &items); err != nil {
		return nil, fmt.Errorf("decode cart: %w", err)
	}
	seen := make(map[string]struct{}, len(items))
	for i, it := range items {
		switch {
		case it.ID == "":
			return nil, fmt.Errorf("item %d: empty id", i)
		case it.Qty <= 0:
			return nil, fmt.Errorf("item %d: qty %d", i, it.Qty)
		case it.Price < 0:
			return nil, fmt.Errorf("item %d: negative price", i)
		}
		if _, dup := seen[it.ID]; dup {
			return nil, fmt.Errorf("item %d: duplicate id %q", i, it.ID)
		}
		seen[it.ID] = struct{}{}
	}
	return items, nil
}
