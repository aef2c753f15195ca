// Package catalog holds the book inventory and its stock accounting.
package catalog

import (
	"fmt"
	"sync"

	"github.com/shopspring/decimal"
)

// Actor is anyone performing a privileged catalog change.
type Actor interface {
	IsEmployee() bool
}

// Line is a quantity of one book, used for batch reservations.
type Line struct {
	ISBN     string
	Quantity int
}

// Catalog provides safe concurrent access to the book inventory.
type Catalog struct {
	mu    sync.RWMutex
	books map[string]*Book
	order []string
}

// New returns an empty Catalog.
func New() *Catalog {
	return &Catalog{books: make(map[string]*Book)}
}

// Lookup returns the book with the given ISBN.
func (c *Catalog) Lookup(isbn string) (Book, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	b, ok := c.books[isbn]
	if !ok {
		return Book{}, false
	}
	return *b, true
}

// Search scans the catalog for books whose field equals value.
// An unsupported field yields an empty result.
func (c *Catalog) Search(field Field, value string) []Book {
	if field == FieldISBN {
		if b, ok := c.Lookup(value); ok {
			return []Book{b}
		}
		return []Book{}
	}

	c.mu.RLock()
	defer c.mu.RUnlock()
	out := []Book{}
	for _, isbn := range c.order {
		b := c.books[isbn]
		if v, ok := field.value(b); ok && v == value {
			out = append(out, *b)
		}
	}
	return out
}

// All returns every book in insertion order.
func (c *Catalog) All() []Book {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]Book, 0, len(c.order))
	for _, isbn := range c.order {
		out = append(out, *c.books[isbn])
	}
	return out
}

// Len returns the number of registered books.
func (c *Catalog) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.order)
}

// AddRecord registers a new book.
func (c *Catalog) AddRecord(b Book) error {
	if err := b.Validate(); err != nil {
		return err
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, ok := c.books[b.ISBN]; ok {
		return fmt.Errorf("%s: %w", b.ISBN, ErrDuplicateKey)
	}
	c.insert(b)
	return nil
}

// Validate reports whether Load would accept books, without changing the catalog.
func (c *Catalog) Validate(books []Book) error {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.check(books)
}

// Load registers a batch of books. Either every record is added or none is.
func (c *Catalog) Load(books []Book) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if err := c.check(books); err != nil {
		return err
	}
	for _, b := range books {
		c.insert(b)
	}
	return nil
}

func (c *Catalog) check(books []Book) error {
	seen := make(map[string]struct{}, len(books))
	for i, b := range books {
		if err := b.Validate(); err != nil {
			return fmt.Errorf("record %d: %w", i, err)
		}
		if _, ok := c.books[b.ISBN]; ok {
			return fmt.Errorf("record %d (%s): %w", i, b.ISBN, ErrDuplicateKey)
		}
		if _, ok := seen[b.ISBN]; ok {
			return fmt.Errorf("record %d (%s): %w", i, b.ISBN, ErrDuplicateKey)
		}
		seen[b.ISBN] = struct{}{}
	}
	return nil
}

func (c *Catalog) insert(b Book) {
	rec := b
	c.books[b.ISBN] = &rec
	c.order = append(c.order, b.ISBN)
}

// UpdateQuantity sets the stock on hand. Only employees may do this.
func (c *Catalog) UpdateQuantity(isbn string, qty int, actor Actor) error {
	if actor == nil || !actor.IsEmployee() {
		return ErrUnauthorized
	}
	if qty < 0 {
		return ErrInvalidQuantity
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	b, ok := c.books[isbn]
	if !ok {
		return ErrNotFound
	}
	b.Quantity = qty
	return nil
}

// UpdatePrice sets the unit price. Only employees may do this.
func (c *Catalog) UpdatePrice(isbn string, price decimal.Decimal, actor Actor) error {
	if actor == nil || !actor.IsEmployee() {
		return ErrUnauthorized
	}
	if price.IsNegative() {
		return ErrInvalidPrice
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	b, ok := c.books[isbn]
	if !ok {
		return ErrNotFound
	}
	b.Price = price
	return nil
}

// Reserve takes qty copies out of stock and returns the updated book.
func (c *Catalog) Reserve(isbn string, qty int) (Book, error) {
	return c.Replace(isbn, 0, qty)
}

// Replace swaps an existing reservation of held copies for a new one of qty
// copies in a single step: the held copies count as available.
func (c *Catalog) Replace(isbn string, held, qty int) (Book, error) {
	if qty <= 0 || held < 0 {
		return Book{}, ErrInvalidQuantity
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	b, ok := c.books[isbn]
	if !ok {
		return Book{}, ErrNotFound
	}
	if !IsAvailable(Book{Quantity: b.Quantity + held}, qty) {
		return Book{}, ErrInvalidQuantity
	}
	b.Quantity += held - qty
	mustNotBeNegative(b)
	return *b, nil
}

// Release returns qty copies to stock.
func (c *Catalog) Release(isbn string, qty int) error {
	if qty <= 0 {
		return ErrInvalidQuantity
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	b, ok := c.books[isbn]
	if !ok {
		return ErrNotFound
	}
	b.Quantity += qty
	mustNotBeNegative(b)
	return nil
}

// ReserveAll takes every line out of stock, or none of them.
func (c *Catalog) ReserveAll(lines []Line) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	need := make(map[string]int, len(lines))
	for _, l := range lines {
		if l.Quantity <= 0 {
			return ErrInvalidQuantity
		}
		if _, ok := c.books[l.ISBN]; !ok {
			return fmt.Errorf("%s: %w", l.ISBN, ErrNotFound)
		}
		need[l.ISBN] += l.Quantity
	}
	for isbn, qty := range need {
		if !IsAvailable(*c.books[isbn], qty) {
			return fmt.Errorf("%s: %w", isbn, ErrInvalidQuantity)
		}
	}
	for isbn, qty := range need {
		b := c.books[isbn]
		b.Quantity -= qty
		mustNotBeNegative(b)
	}
	return nil
}

// ReleaseAll returns every line to stock, or none of them.
func (c *Catalog) ReleaseAll(lines []Line) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	for _, l := range lines {
		if l.Quantity <= 0 {
			return ErrInvalidQuantity
		}
		if _, ok := c.books[l.ISBN]; !ok {
			return fmt.Errorf("%s: %w", l.ISBN, ErrNotFound)
		}
	}
	for _, l := range lines {
		b := c.books[l.ISBN]
		b.Quantity += l.Quantity
		mustNotBeNegative(b)
	}
	return nil
}

// mustNotBeNegative guards the stock invariant. Reaching it means a bug in
// the accounting above, not bad input.
func mustNotBeNegative(b *Book) {
	if b.Quantity < 0 {
		panic(fmt.Sprintf("catalog: stock for %s went negative (%d)", b.ISBN, b.Quantity))
	}
}
