package catalog

import (
	"errors"

	"github.com/shopspring/decimal"
)

// Book is a catalog record. Values handed out by the Catalog are copies;
// mutating them does not affect stock.
type Book struct {
	ISBN     string          `json:"isbn"`
	Title    string          `json:"title"`
	Author   string          `json:"author"`
	Year     int             `json:"year"`
	Genre    string          `json:"genre"`
	Price    decimal.Decimal `json:"price"`
	Quantity int             `json:"quantity"`
}

var (
	// ErrNotFound indicates the requested book does not exist.
	ErrNotFound = errors.New("book not found")
	// ErrDuplicateKey indicates a book with the same ISBN is already registered.
	ErrDuplicateKey = errors.New("book already exists")
	// ErrInvalidQuantity indicates a non-positive or unavailable quantity.
	ErrInvalidQuantity = errors.New("invalid quantity")
	// ErrInvalidPrice indicates a negative price.
	ErrInvalidPrice = errors.New("invalid price")
	// ErrUnauthorized indicates the actor lacks the employee capability.
	ErrUnauthorized = errors.New("not authorized")
	// ErrInvalidBook indicates a record that cannot be added to the catalog.
	ErrInvalidBook = errors.New("invalid book")
)

// Validate checks the attributes required to register a book.
func (b Book) Validate() error {
	switch {
	case b.ISBN == "":
		return errors.Join(ErrInvalidBook, errors.New("isbn is required"))
	case b.Title == "":
		return errors.Join(ErrInvalidBook, errors.New("title is required"))
	case b.Price.IsNegative():
		return ErrInvalidPrice
	case b.Quantity < 0:
		return ErrInvalidQuantity
	}
	return nil
}

// Details returns the flat read-only projection used by renderers.
func (b Book) Details() map[string]any {
	return map[string]any{
		"isbn":     b.ISBN,
		"title":    b.Title,
		"author":   b.Author,
		"year":     b.Year,
		"genre":    b.Genre,
		"price":    b.Price.StringFixed(2),
		"quantity": b.Quantity,
	}
}

// IsAvailable reports whether qty copies of b can be taken from stock.
// A zero quantity is always available; a negative one never is.
func IsAvailable(b Book, qty int) bool {
	if qty < 0 {
		return false
	}
	return qty == 0 || b.Quantity >= qty
}
