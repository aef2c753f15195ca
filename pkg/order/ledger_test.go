package order_test

import (
	"context"
	"math/rand"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"bookstore/pkg/cart"
	"bookstore/pkg/catalog"
	"bookstore/pkg/order"
	"bookstore/pkg/order/memory"
)

type actor bool

func (a actor) IsEmployee() bool { return bool(a) }

const (
	employee = actor(true)
	customer = actor(false)
)

var alice = order.Customer{ID: "alice@example.com", Name: "Alice"}

func setup(t *testing.T) (*catalog.Catalog, *order.Ledger) {
	t.Helper()
	cat := catalog.New()
	require.NoError(t, cat.Load([]catalog.Book{
		{ISBN: "B1", Title: "Dune", Price: decimal.NewFromInt(5), Quantity: 10},
		{ISBN: "B2", Title: "Emma", Price: decimal.NewFromInt(8), Quantity: 3},
	}))
	fixed := time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC)
	return cat, order.NewLedger(memory.New(), cat, order.WithClock(func() time.Time { return fixed }))
}

func quantity(t *testing.T, cat *catalog.Catalog, isbn string) int {
	t.Helper()
	b, ok := cat.Lookup(isbn)
	require.True(t, ok)
	return b.Quantity
}

func checkout(t *testing.T, cat *catalog.Catalog, l *order.Ledger, isbn string, qty int) order.Order {
	t.Helper()
	c := cart.New(alice.ID, cat)
	require.NoError(t, c.AddBook(isbn, qty))
	o, err := l.Place(context.Background(), alice, c.Snapshot())
	require.NoError(t, err)
	c.Clear()
	return o
}

func TestFormatID(t *testing.T) {
	assert.Equal(t, "000000", order.FormatID(0))
	assert.Equal(t, "000042", order.FormatID(42))
	assert.Equal(t, "1234567", order.FormatID(1234567))
}

func TestPlaceAssignsSequentialIDs(t *testing.T) {
	cat, l := setup(t)

	first := checkout(t, cat, l, "B1", 1)
	second := checkout(t, cat, l, "B2", 1)

	assert.Equal(t, "000000", first.ID)
	assert.Equal(t, "000001", second.ID)
	assert.Equal(t, order.StatusPending, first.Status)
	assert.Equal(t, time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC), first.CreatedAt)
}

func TestPlaceSkipsIDsAlreadyTaken(t *testing.T) {
	ctx := context.Background()
	cat := catalog.New()
	require.NoError(t, cat.Load([]catalog.Book{{ISBN: "B1", Title: "Dune", Price: decimal.NewFromInt(5), Quantity: 10}}))
	repo := memory.New()
	require.NoError(t, repo.Create(ctx, order.Order{ID: "000000", Status: order.StatusApproved}))
	require.NoError(t, repo.Create(ctx, order.Order{ID: "000001", Status: order.StatusApproved}))
	l := order.NewLedger(repo, cat)

	first := checkout(t, cat, l, "B1", 1)
	second := checkout(t, cat, l, "B1", 1)
	assert.Equal(t, "000002", first.ID)
	assert.Equal(t, "000003", second.ID)

	all, err := l.All(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 4)
}

func TestPlaceRejectsEmptySnapshot(t *testing.T) {
	_, l := setup(t)
	ctx := context.Background()

	_, err := l.Place(ctx, alice, cart.Snapshot{})
	assert.ErrorIs(t, err, order.ErrEmptyOrder)

	_, err = l.Place(ctx, alice, cart.Snapshot{Lines: []cart.Line{{ISBN: "B1", Quantity: 1}}, Total: decimal.Zero})
	assert.ErrorIs(t, err, order.ErrEmptyOrder)

	all, _ := l.All(ctx)
	assert.Empty(t, all)
}

func TestPlaceDoesNotTouchStock(t *testing.T) {
	cat, l := setup(t)

	o := checkout(t, cat, l, "B1", 3)
	assert.Equal(t, "15", o.Total.String())
	assert.Equal(t, 7, quantity(t, cat, "B1"))
}

func TestDecisionsRequireEmployee(t *testing.T) {
	cat, l := setup(t)
	ctx := context.Background()
	o := checkout(t, cat, l, "B1", 2)

	_, err := l.Approve(ctx, o.ID, customer)
	assert.ErrorIs(t, err, order.ErrUnauthorized)
	_, err = l.Cancel(ctx, o.ID, customer)
	assert.ErrorIs(t, err, order.ErrUnauthorized)
	_, err = l.Cancel(ctx, o.ID, nil)
	assert.ErrorIs(t, err, order.ErrUnauthorized)

	got, err := l.Get(ctx, o.ID)
	require.NoError(t, err)
	assert.True(t, got.Pending())
	assert.Equal(t, 8, quantity(t, cat, "B1"))
}

func TestApproveKeepsStockDecremented(t *testing.T) {
	cat, l := setup(t)
	ctx := context.Background()
	o := checkout(t, cat, l, "B1", 2)

	got, err := l.Approve(ctx, o.ID, employee)
	require.NoError(t, err)
	assert.True(t, got.Approved())
	assert.Equal(t, 8, quantity(t, cat, "B1"))

	got, err = l.Approve(ctx, o.ID, employee)
	require.NoError(t, err)
	assert.True(t, got.Approved())
	assert.Equal(t, 8, quantity(t, cat, "B1"))
}

func TestCancelRestocksOnce(t *testing.T) {
	cat, l := setup(t)
	ctx := context.Background()
	o := checkout(t, cat, l, "B1", 2)

	got, err := l.Cancel(ctx, o.ID, employee)
	require.NoError(t, err)
	assert.True(t, got.Rejected())
	assert.Equal(t, 10, quantity(t, cat, "B1"))

	_, err = l.Cancel(ctx, o.ID, employee)
	assert.ErrorIs(t, err, order.ErrAlreadyRejected)
	assert.Equal(t, 10, quantity(t, cat, "B1"))
}

func TestCancelApprovedOrder(t *testing.T) {
	cat, l := setup(t)
	ctx := context.Background()
	o := checkout(t, cat, l, "B2", 3)

	_, err := l.Approve(ctx, o.ID, employee)
	require.NoError(t, err)
	got, err := l.Cancel(ctx, o.ID, employee)
	require.NoError(t, err)
	assert.True(t, got.Rejected())
	assert.False(t, got.Approved())
	assert.Equal(t, 3, quantity(t, cat, "B2"))
}

func TestApproveAfterRejectReservesAgain(t *testing.T) {
	cat, l := setup(t)
	ctx := context.Background()
	o := checkout(t, cat, l, "B2", 2)

	_, err := l.Cancel(ctx, o.ID, employee)
	require.NoError(t, err)
	assert.Equal(t, 3, quantity(t, cat, "B2"))

	got, err := l.Approve(ctx, o.ID, employee)
	require.NoError(t, err)
	assert.True(t, got.Approved())
	assert.Equal(t, 1, quantity(t, cat, "B2"))
}

func TestApproveAfterRejectFailsWithoutStock(t *testing.T) {
	cat, l := setup(t)
	ctx := context.Background()
	o := checkout(t, cat, l, "B2", 2)
	_, err := l.Cancel(ctx, o.ID, employee)
	require.NoError(t, err)

	// Someone else takes the copies that were returned.
	checkout(t, cat, l, "B2", 3)

	_, err = l.Approve(ctx, o.ID, employee)
	assert.ErrorIs(t, err, catalog.ErrInvalidQuantity)
	got, _ := l.Get(ctx, o.ID)
	assert.True(t, got.Rejected())
	assert.Equal(t, 0, quantity(t, cat, "B2"))
}

func TestUnknownOrder(t *testing.T) {
	_, l := setup(t)
	ctx := context.Background()

	_, err := l.Approve(ctx, "999999", employee)
	assert.ErrorIs(t, err, order.ErrNotFound)
	_, err = l.Cancel(ctx, "999999", employee)
	assert.ErrorIs(t, err, order.ErrNotFound)
}

func TestQueries(t *testing.T) {
	cat, l := setup(t)
	ctx := context.Background()
	a := checkout(t, cat, l, "B1", 1)
	b := checkout(t, cat, l, "B1", 2)
	c := checkout(t, cat, l, "B2", 1)

	_, err := l.Approve(ctx, a.ID, employee)
	require.NoError(t, err)
	_, err = l.Cancel(ctx, b.ID, employee)
	require.NoError(t, err)

	pending, err := l.Pending(ctx)
	require.NoError(t, err)
	require.Len(t, pending, 1)
	assert.Equal(t, c.ID, pending[0].ID)
	assert.Equal(t, "Alice", pending[0].CustomerName)
	assert.Equal(t, 1, pending[0].ItemCount)
	assert.True(t, pending[0].Total.Equal(decimal.NewFromInt(8)))
	assert.False(t, pending[0].Approved)

	approved, err := l.Approved(ctx)
	require.NoError(t, err)
	require.Len(t, approved, 1)
	assert.Equal(t, a.ID, approved[0].ID)

	mine, err := l.ForCustomer(ctx, alice.ID)
	require.NoError(t, err)
	assert.Len(t, mine, 3)

	none, err := l.ForCustomer(ctx, "bob@example.com")
	require.NoError(t, err)
	assert.Empty(t, none)

	d := b.Details()
	assert.Equal(t, 1, d.Items)
	assert.False(t, d.Rejected)
}

func TestScenario(t *testing.T) {
	cat := catalog.New()
	require.NoError(t, cat.AddRecord(catalog.Book{ISBN: "B1", Title: "Book one", Price: decimal.NewFromInt(5), Quantity: 10}))
	l := order.NewLedger(memory.New(), cat)
	ctx := context.Background()

	c := cart.New(alice.ID, cat)
	require.NoError(t, c.AddBook("B1", 3))
	assert.Equal(t, 7, quantity(t, cat, "B1"))
	assert.Equal(t, "15", c.Total().String())

	require.True(t, c.CanCheckout())
	o, err := l.Place(ctx, alice, c.Snapshot())
	require.NoError(t, err)
	c.Clear()
	assert.Equal(t, "000000", o.ID)
	assert.Equal(t, "15", o.Total.String())
	assert.Equal(t, 0, c.Len())
	assert.Equal(t, 7, quantity(t, cat, "B1"))

	got, err := l.Cancel(ctx, "000000", employee)
	require.NoError(t, err)
	assert.Equal(t, order.StatusRejected, got.Status)
	assert.Equal(t, 10, quantity(t, cat, "B1"))
}

func TestStockNeverNegative(t *testing.T) {
	cat, l := setup(t)
	ctx := context.Background()
	rng := rand.New(rand.NewSource(42))
	carts := []*cart.Cart{cart.New("a", cat), cart.New("b", cat), cart.New("c", cat)}
	isbns := []string{"B1", "B2"}
	var placed []string

	for i := 0; i < 1000; i++ {
		c := carts[rng.Intn(len(carts))]
		isbn := isbns[rng.Intn(len(isbns))]
		switch rng.Intn(6) {
		case 0, 1:
			_ = c.AddBook(isbn, rng.Intn(5))
		case 2:
			_ = c.RemoveBook(isbn)
		case 3:
			if c.CanCheckout() {
				o, err := l.Place(ctx, order.Customer{ID: c.Owner()}, c.Snapshot())
				require.NoError(t, err)
				c.Clear()
				placed = append(placed, o.ID)
			}
		case 4:
			if len(placed) > 0 {
				_, _ = l.Cancel(ctx, placed[rng.Intn(len(placed))], employee)
			}
		case 5:
			if len(placed) > 0 {
				_, _ = l.Approve(ctx, placed[rng.Intn(len(placed))], employee)
			}
		}
		for _, b := range cat.All() {
			require.GreaterOrEqual(t, b.Quantity, 0, "step %d", i)
		}
	}

	// Conservation: stock plus everything held by carts and live orders
	// equals the initial stock.
	held := map[string]int{}
	for _, c := range carts {
		for _, line := range c.Lines() {
			held[line.ISBN] += line.Quantity
		}
	}
	all, err := l.All(ctx)
	require.NoError(t, err)
	for _, o := range all {
		if o.Rejected() {
			continue
		}
		for _, it := range o.Items {
			held[it.ISBN] += it.Quantity
		}
	}
	assert.Equal(t, 10, quantity(t, cat, "B1")+held["B1"])
	assert.Equal(t, 3, quantity(t, cat, "B2")+held["B2"])
}
