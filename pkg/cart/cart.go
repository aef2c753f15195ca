// Package cart implements the per-customer staging area. Adding a book
// reserves it in the catalog immediately; checkout only freezes what is
// already reserved.
package cart

import (
	"sort"
	"sync"

	"github.com/shopspring/decimal"

	"bookstore/pkg/catalog"
)

// Line is one reserved book in a cart.
type Line struct {
	ISBN      string          `json:"isbn"`
	Title     string          `json:"title"`
	UnitPrice decimal.Decimal `json:"unit_price"`
	Quantity  int             `json:"quantity"`
}

// Subtotal is UnitPrice times Quantity.
func (l Line) Subtotal() decimal.Decimal {
	return l.UnitPrice.Mul(decimal.NewFromInt(int64(l.Quantity)))
}

// Snapshot is a frozen copy of a cart's contents.
type Snapshot struct {
	Owner string          `json:"owner"`
	Lines []Line          `json:"lines"`
	Total decimal.Decimal `json:"total"`
}

// Cart belongs to exactly one customer.
type Cart struct {
	mu      sync.Mutex
	owner   string
	catalog *catalog.Catalog
	items   map[string]Line
	total   decimal.Decimal
}

// New returns an empty cart for owner that reserves stock from cat.
func New(owner string, cat *catalog.Catalog) *Cart {
	return &Cart{
		owner:   owner,
		catalog: cat,
		items:   make(map[string]Line),
	}
}

// Owner returns the id of the owning customer.
func (c *Cart) Owner() string {
	return c.owner
}

// AddBook reserves qty copies of the book. An existing line for the same book
// is replaced, not incremented: its copies are handed back in the same step.
func (c *Cart) AddBook(isbn string, qty int) error {
	if qty <= 0 {
		return catalog.ErrInvalidQuantity
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	prev, held := c.items[isbn]
	book, err := c.catalog.Replace(isbn, prev.Quantity, qty)
	if err != nil {
		return err
	}
	if held {
		c.total = c.total.Sub(prev.Subtotal())
	}
	line := Line{
		ISBN:      isbn,
		Title:     book.Title,
		UnitPrice: book.Price,
		Quantity:  qty,
	}
	c.items[isbn] = line
	c.total = c.total.Add(line.Subtotal())
	return nil
}

// RemoveBook releases the whole reservation for isbn.
func (c *Cart) RemoveBook(isbn string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if _, ok := c.catalog.Lookup(isbn); !ok {
		return catalog.ErrNotFound
	}
	line, ok := c.items[isbn]
	if !ok {
		return catalog.ErrNotFound
	}
	if err := c.catalog.Release(isbn, line.Quantity); err != nil {
		return err
	}
	c.total = c.total.Sub(line.Subtotal())
	delete(c.items, isbn)
	return nil
}

// CanCheckout reports whether the cart holds items with a non-zero total.
func (c *Cart) CanCheckout() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return !c.total.IsZero() && len(c.items) > 0
}

// Clear empties the cart without touching the catalog.
func (c *Cart) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.items = make(map[string]Line)
	c.total = decimal.Zero
}

// Total returns the cached cart total.
func (c *Cart) Total() decimal.Decimal {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.total
}

// Len returns the number of distinct books in the cart.
func (c *Cart) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.items)
}

// Lines returns the cart lines ordered by ISBN.
func (c *Cart) Lines() []Line {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.lines()
}

// Snapshot freezes the current contents.
func (c *Cart) Snapshot() Snapshot {
	c.mu.Lock()
	defer c.mu.Unlock()
	return Snapshot{
		Owner: c.owner,
		Lines: c.lines(),
		Total: c.total,
	}
}

func (c *Cart) lines() []Line {
	out := make([]Line, 0, len(c.items))
	for _, l := range c.items {
		out = append(out, l)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ISBN < out[j].ISBN })
	return out
}
