package order

import (
	"context"
	"errors"
	"time"

	"github.com/shopspring/decimal"

	"bookstore/pkg/cart"
	"bookstore/pkg/catalog"
)

// Status is the approval state of an order.
type Status string

const (
	StatusPending  Status = "pending"
	StatusApproved Status = "approved"
	StatusRejected Status = "rejected"
)

// Customer identifies who placed an order.
type Customer struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// Order is an immutable snapshot of a checked-out cart plus its approval state.
type Order struct {
	ID        string          `json:"id"`
	Customer  Customer        `json:"customer"`
	Items     []cart.Line     `json:"items"`
	Total     decimal.Decimal `json:"total"`
	Status    Status          `json:"status"`
	CreatedAt time.Time       `json:"created_at"`
}

// Approved reports whether the order is currently approved.
func (o Order) Approved() bool { return o.Status == StatusApproved }

// Rejected reports whether the order is currently rejected.
func (o Order) Rejected() bool { return o.Status == StatusRejected }

// Pending reports whether no decision has been made yet.
func (o Order) Pending() bool { return o.Status == StatusPending }

func (o Order) lines() []catalog.Line {
	out := make([]catalog.Line, 0, len(o.Items))
	for _, it := range o.Items {
		out = append(out, catalog.Line{ISBN: it.ISBN, Quantity: it.Quantity})
	}
	return out
}

func (o Order) clone() Order {
	o.Items = append([]cart.Line(nil), o.Items...)
	return o
}

// Details is the per-order projection shown in a customer's history.
type Details struct {
	ID       string          `json:"order_id"`
	Items    int             `json:"items"`
	Total    decimal.Decimal `json:"total"`
	Approved bool            `json:"approved"`
	Rejected bool            `json:"rejected"`
}

// Details projects o for presentation.
func (o Order) Details() Details {
	return Details{
		ID:       o.ID,
		Items:    len(o.Items),
		Total:    o.Total,
		Approved: o.Approved(),
		Rejected: o.Rejected(),
	}
}

// Summary is the pending-queue projection shown to employees.
type Summary struct {
	ID           string          `json:"order_id"`
	CustomerName string          `json:"customer_name"`
	ItemCount    int             `json:"item_count"`
	Total        decimal.Decimal `json:"total"`
	Approved     bool            `json:"approved"`
}

// Summary projects o for the pending queue.
func (o Order) Summary() Summary {
	return Summary{
		ID:           o.ID,
		CustomerName: o.Customer.Name,
		ItemCount:    len(o.Items),
		Total:        o.Total,
		Approved:     o.Approved(),
	}
}

// Repository defines behavior for storing orders. Orders are never deleted.
type Repository interface {
	Create(ctx context.Context, o Order) error
	Get(ctx context.Context, id string) (Order, error)
	List(ctx context.Context) ([]Order, error)
	Update(ctx context.Context, o Order) error
}

var (
	// ErrNotFound indicates the requested order does not exist.
	ErrNotFound = errors.New("order not found")
	// ErrDuplicateKey indicates an order id was issued twice.
	ErrDuplicateKey = errors.New("order already exists")
	// ErrEmptyOrder indicates a checkout of an empty or free cart.
	ErrEmptyOrder = errors.New("nothing to order")
	// ErrAlreadyRejected indicates a cancel of an order that is already rejected.
	ErrAlreadyRejected = errors.New("order already rejected")
	// ErrUnauthorized indicates the actor lacks the employee capability.
	ErrUnauthorized = catalog.ErrUnauthorized
)
