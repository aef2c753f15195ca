// Package memory implements an in-memory order repository.
package memory

import (
	"context"
	"sort"
	"sync"

	"bookstore/pkg/cart"
	"bookstore/pkg/order"
)

// Repository provides an in-memory implementation of order.Repository.
type Repository struct {
	mu     sync.RWMutex
	orders map[string]order.Order
}

// New creates a new in-memory repository.
func New() *Repository {
	return &Repository{orders: make(map[string]order.Order)}
}

// Create stores the order. Ids are never reused.
func (r *Repository) Create(ctx context.Context, o order.Order) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.orders[o.ID]; ok {
		return order.ErrDuplicateKey
	}
	r.orders[o.ID] = copyOrder(o)
	return nil
}

// Get retrieves an order by ID.
func (r *Repository) Get(ctx context.Context, id string) (order.Order, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	o, ok := r.orders[id]
	if !ok {
		return order.Order{}, order.ErrNotFound
	}
	return copyOrder(o), nil
}

// List returns all orders sorted by ID.
func (r *Repository) List(ctx context.Context) ([]order.Order, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]order.Order, 0, len(r.orders))
	for _, o := range r.orders {
		out = append(out, copyOrder(o))
	}
	sort.Slice(out, func(i, j int) bool { return lessID(out[i].ID, out[j].ID) })
	return out, nil
}

// Update replaces an existing order.
func (r *Repository) Update(ctx context.Context, o order.Order) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.orders[o.ID]; !ok {
		return order.ErrNotFound
	}
	r.orders[o.ID] = copyOrder(o)
	return nil
}

// lessID orders zero-padded sequence ids numerically, including ids that have
// outgrown their padding.
func lessID(a, b string) bool {
	if len(a) != len(b) {
		return len(a) < len(b)
	}
	return a < b
}

func copyOrder(o order.Order) order.Order {
	o.Items = append([]cart.Line(nil), o.Items...)
	return o
}
