// Package order tracks checked-out carts through their approval lifecycle.
package order

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"bookstore/pkg/cart"
	"bookstore/pkg/catalog"
)

// Actor is anyone deciding on an order.
type Actor interface {
	IsEmployee() bool
}

// Ledger is the process-wide registry of orders. It issues sequential,
// zero-padded ids and keeps the catalog in step with approval decisions.
type Ledger struct {
	mu      sync.Mutex
	repo    Repository
	catalog *catalog.Catalog
	next    int
	now     func() time.Time
}

// LedgerOption configures a Ledger.
type LedgerOption func(*Ledger)

// WithClock overrides the time source used for CreatedAt.
func WithClock(now func() time.Time) LedgerOption {
	return func(l *Ledger) {
		if now != nil {
			l.now = now
		}
	}
}

// NewLedger returns an empty ledger backed by repo.
func NewLedger(repo Repository, cat *catalog.Catalog, opts ...LedgerOption) *Ledger {
	l := &Ledger{
		repo:    repo,
		catalog: cat,
		now:     func() time.Time { return time.Now().UTC() },
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// FormatID renders a sequence number as an order id.
func FormatID(seq int) string {
	return fmt.Sprintf("%06d", seq)
}

// Place records a pending order for the snapshot. Stock was already reserved
// when the items entered the cart, so the catalog is not touched.
func (l *Ledger) Place(ctx context.Context, customer Customer, snap cart.Snapshot) (Order, error) {
	if len(snap.Lines) == 0 || snap.Total.IsZero() {
		return Order{}, ErrEmptyOrder
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	o := Order{
		Customer:  customer,
		Items:     append([]cart.Line(nil), snap.Lines...),
		Total:     snap.Total,
		Status:    StatusPending,
		CreatedAt: l.now(),
	}
	for {
		o.ID = FormatID(l.next)
		err := l.repo.Create(ctx, o)
		if errors.Is(err, ErrDuplicateKey) {
			// Taken by a record the ledger did not issue; move past it.
			l.next++
			continue
		}
		if err != nil {
			return Order{}, fmt.Errorf("create order %s: %w", o.ID, err)
		}
		l.next++
		return o.clone(), nil
	}
}

// Approve marks the order approved. Approving a rejected order takes its
// items out of stock again, which fails if they are no longer available.
func (l *Ledger) Approve(ctx context.Context, id string, actor Actor) (Order, error) {
	if actor == nil || !actor.IsEmployee() {
		return Order{}, ErrUnauthorized
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	o, err := l.repo.Get(ctx, id)
	if err != nil {
		return Order{}, err
	}
	if o.Approved() {
		return o.clone(), nil
	}
	if o.Rejected() {
		if err := l.catalog.ReserveAll(o.lines()); err != nil {
			return Order{}, fmt.Errorf("re-reserve order %s: %w", id, err)
		}
	}

	prev := o.Status
	o.Status = StatusApproved
	if err := l.repo.Update(ctx, o); err != nil {
		if prev == StatusRejected {
			_ = l.catalog.ReleaseAll(o.lines())
		}
		return Order{}, err
	}
	return o.clone(), nil
}

// Cancel rejects the order and returns its items to stock. Rejection is
// guarded: cancelling a rejected order is refused and restocks nothing.
func (l *Ledger) Cancel(ctx context.Context, id string, actor Actor) (Order, error) {
	if actor == nil || !actor.IsEmployee() {
		return Order{}, ErrUnauthorized
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	o, err := l.repo.Get(ctx, id)
	if err != nil {
		return Order{}, err
	}
	if o.Rejected() {
		return Order{}, ErrAlreadyRejected
	}
	if err := l.catalog.ReleaseAll(o.lines()); err != nil {
		return Order{}, fmt.Errorf("restock order %s: %w", id, err)
	}

	prev := o.Status
	o.Status = StatusRejected
	if err := l.repo.Update(ctx, o); err != nil {
		_ = l.catalog.ReserveAll(o.lines())
		o.Status = prev
		return Order{}, err
	}
	return o.clone(), nil
}

// Get returns the order with the given id.
func (l *Ledger) Get(ctx context.Context, id string) (Order, error) {
	return l.repo.Get(ctx, id)
}

// All returns every order ordered by id.
func (l *Ledger) All(ctx context.Context) ([]Order, error) {
	return l.repo.List(ctx)
}

// Pending returns the summaries of orders awaiting a decision.
func (l *Ledger) Pending(ctx context.Context) ([]Summary, error) {
	orders, err := l.repo.List(ctx)
	if err != nil {
		return nil, err
	}
	out := []Summary{}
	for _, o := range orders {
		if o.Pending() {
			out = append(out, o.Summary())
		}
	}
	return out, nil
}

// Approved returns the orders currently approved.
func (l *Ledger) Approved(ctx context.Context) ([]Order, error) {
	return l.filter(ctx, func(o Order) bool { return o.Approved() })
}

// ForCustomer returns the orders placed by the given customer.
func (l *Ledger) ForCustomer(ctx context.Context, customerID string) ([]Order, error) {
	return l.filter(ctx, func(o Order) bool { return o.Customer.ID == customerID })
}

func (l *Ledger) filter(ctx context.Context, keep func(Order) bool) ([]Order, error) {
	orders, err := l.repo.List(ctx)
	if err != nil {
		return nil, err
	}
	out := []Order{}
	for _, o := range orders {
		if keep(o) {
			out = append(out, o)
		}
	}
	return out, nil
}
