package cart

import (
	"sync"

	"github.com/shopspring/decimal"

	"github.com/fjod/go_cart/storefront/internal/domain"
)

// Key identifies a line item; a cart never holds two items with the same key.
type Key struct {
	ProductID string
	Variant   string
}

type LineItem struct {
	ProductID string          `json:"product_id"`
	Variant   string          `json:"variant"`
	Quantity  int             `json:"quantity"`
	UnitPrice decimal.Decimal `json:"unit_price"`
	Name      string          `json:"name"`
	Image     string          `json:"image,omitempty"`
}

func (li LineItem) Key() Key {
	return Key{ProductID: li.ProductID, Variant: li.Variant}
}

func (li LineItem) LineTotal() decimal.Decimal {
	return li.UnitPrice.Mul(decimal.NewFromInt(int64(li.Quantity)))
}

// Ledger is the ordered set of line items of the current browsing session.
type Ledger struct {
	mu    sync.RWMutex
	items []LineItem
}

func NewLedger() *Ledger {
	return &Ledger{}
}

// Add increments the matching item or appends a new one with quantity 1.
func (l *Ledger) Add(p domain.Product, variant string) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if i := l.indexOf(Key{ProductID: p.ID, Variant: variant}); i >= 0 {
		l.items[i].Quantity++
		return
	}
	l.items = append(l.items, LineItem{
		ProductID: p.ID,
		Variant:   variant,
		Quantity:  1,
		UnitPrice: p.Price,
		Name:      p.Name,
		Image:     p.PrimaryImage(),
	})
}

// Remove deletes the matching item; no-op when absent.
func (l *Ledger) Remove(productID, variant string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.remove(Key{ProductID: productID, Variant: variant})
}

// SetQuantity behaves as Remove when n < 1; no-op when absent.
func (l *Ledger) SetQuantity(productID, variant string, n int) {
	l.mu.Lock()
	defer l.mu.Unlock()

	key := Key{ProductID: productID, Variant: variant}
	if n < 1 {
		l.remove(key)
		return
	}
	if i := l.indexOf(key); i >= 0 {
		l.items[i].Quantity = n
	}
}

func (l *Ledger) Clear() {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.items = nil
}

func (l *Ledger) Subtotal() decimal.Decimal {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return subtotal(l.items)
}

// Items returns a copy in insertion order.
func (l *Ledger) Items() []LineItem {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return append([]LineItem(nil), l.items...)
}

// Get returns the item with the given key.
func (l *Ledger) Get(productID, variant string) (LineItem, bool) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	if i := l.indexOf(Key{ProductID: productID, Variant: variant}); i >= 0 {
		return l.items[i], true
	}
	return LineItem{}, false
}

func (l *Ledger) Len() int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return len(l.items)
}

func (l *Ledger) IsEmpty() bool {
	return l.Len() == 0
}

// Quantity is the total number of units across all items.
func (l *Ledger) Quantity() int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	n := 0
	for _, it := range l.items {
		n += it.Quantity
	}
	return n
}

func (l *Ledger) Totals(policy FeePolicy) Totals {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return policy.Apply(subtotal(l.items), len(l.items) == 0)
}

type Snapshot struct {
	Items []LineItem `json:"items"`
}

func (l *Ledger) Snapshot() Snapshot {
	return Snapshot{Items: l.Items()}
}

// Restore replaces the contents with s, merging duplicate keys and dropping
// items with quantity below 1.
func (l *Ledger) Restore(s Snapshot) {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.items = nil
	for _, it := range s.Items {
		if it.Quantity < 1 {
			continue
		}
		if i := l.indexOf(it.Key()); i >= 0 {
			l.items[i].Quantity += it.Quantity
			continue
		}
		l.items = append(l.items, it)
	}
}

func (l *Ledger) indexOf(key Key) int {
	for i := range l.items {
		if l.items[i].Key() == key {
			return i
		}
	}
	return -1
}

func (l *Ledger) remove(key Key) {
	if i := l.indexOf(key); i >= 0 {
		l.items = append(l.items[:i], l.items[i+1:]...)
	}
}

func subtotal(items []LineItem) decimal.Decimal {
	sum := decimal.Zero
	for _, it := range items {
		sum = sum.Add(it.LineTotal())
	}
	return sum
}
