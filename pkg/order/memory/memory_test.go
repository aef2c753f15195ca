package memory

import (
	"context"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"bookstore/pkg/cart"
	"bookstore/pkg/order"
)

func TestRepository(t *testing.T) {
	ctx := context.Background()
	repo := New()
	o := order.Order{
		ID:     "000000",
		Items:  []cart.Line{{ISBN: "B1", Quantity: 2, UnitPrice: decimal.NewFromInt(3)}},
		Total:  decimal.NewFromInt(6),
		Status: order.StatusPending,
	}
	require.NoError(t, repo.Create(ctx, o))
	assert.ErrorIs(t, repo.Create(ctx, o), order.ErrDuplicateKey)

	got, err := repo.Get(ctx, "000000")
	require.NoError(t, err)
	assert.Equal(t, order.StatusPending, got.Status)

	o.Status = order.StatusApproved
	require.NoError(t, repo.Update(ctx, o))
	got, _ = repo.Get(ctx, "000000")
	assert.True(t, got.Approved())

	_, err = repo.Get(ctx, "000001")
	assert.ErrorIs(t, err, order.ErrNotFound)
	assert.ErrorIs(t, repo.Update(ctx, order.Order{ID: "000009"}), order.ErrNotFound)
}

func TestRepositoryReturnsCopies(t *testing.T) {
	ctx := context.Background()
	repo := New()
	items := []cart.Line{{ISBN: "B1", Quantity: 1}}
	require.NoError(t, repo.Create(ctx, order.Order{ID: "000000", Items: items}))

	items[0].Quantity = 50
	got, _ := repo.Get(ctx, "000000")
	assert.Equal(t, 1, got.Items[0].Quantity)

	got.Items[0].Quantity = 99
	again, _ := repo.Get(ctx, "000000")
	assert.Equal(t, 1, again.Items[0].Quantity)
}

func TestListSortedByID(t *testing.T) {
	ctx := context.Background()
	repo := New()
	for _, id := range []string{"000002", "000000", "000001"} {
		require.NoError(t, repo.Create(ctx, order.Order{ID: id}))
	}

	list, err := repo.List(ctx)
	require.NoError(t, err)
	require.Len(t, list, 3)
	assert.Equal(t, "000000", list[0].ID)
	assert.Equal(t, "000002", list[2].ID)
}

func TestListOrdersIDsPastSixDigits(t *testing.T) {
	ctx := context.Background()
	repo := New()
	for _, id := range []string{"1000000", "999999", "000001", "1000001"} {
		require.NoError(t, repo.Create(ctx, order.Order{ID: id}))
	}

	list, err := repo.List(ctx)
	require.NoError(t, err)
	ids := make([]string, 0, len(list))
	for _, o := range list {
		ids = append(ids, o.ID)
	}
	assert.Equal(t, []string{"000001", "999999", "1000000", "1000001"}, ids)
}
