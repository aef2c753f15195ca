package api

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/cookiejar"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"bookstore/pkg/account"
	"bookstore/pkg/bookstore"
	"bookstore/pkg/catalog"
	"bookstore/pkg/order"
	"bookstore/pkg/order/memory"
	"bookstore/pkg/session"
)

type env struct {
	srv     *httptest.Server
	catalog *catalog.Catalog
}

func newEnv(t *testing.T) env {
	t.Helper()
	cat := catalog.New()
	require.NoError(t, cat.Load([]catalog.Book{
		{ISBN: "B1", Title: "Book one", Author: "Ann", Genre: "novel", Price: decimal.NewFromInt(5), Quantity: 10},
		{ISBN: "B2", Title: "Book two", Author: "Bo", Genre: "poetry", Price: decimal.RequireFromString("2.50"), Quantity: 1},
	}))
	dir := account.NewDirectory(cat)
	require.NoError(t, dir.Load(
		[]account.CustomerInput{{Name: "Alice", Email: "alice@example.com", PIN: "1111"}},
		[]account.EmployeeInput{{Name: "Eve", Email: "eve@store.com", PIN: "0000", Designation: "manager"}},
	))
	store := bookstore.New(cat, dir, order.NewLedger(memory.New(), cat), bookstore.WithInfo("Corner Books", "1 Main St"))
	srv := httptest.NewServer(NewServer(store, session.NewMemoryStore(time.Hour), nil).Routes())
	t.Cleanup(srv.Close)
	return env{srv: srv, catalog: cat}
}

func (e env) stock(t *testing.T, isbn string) int {
	t.Helper()
	b, ok := e.catalog.Lookup(isbn)
	require.True(t, ok)
	return b.Quantity
}

type client struct {
	t    *testing.T
	base string
	http *http.Client
}

func (e env) client(t *testing.T) *client {
	t.Helper()
	jar, err := cookiejar.New(nil)
	require.NoError(t, err)
	return &client{t: t, base: e.srv.URL, http: &http.Client{Jar: jar}}
}

func (c *client) do(method, path string, body any, out any) int {
	c.t.Helper()
	var rd *bytes.Reader
	if body != nil {
		b, err := json.Marshal(body)
		require.NoError(c.t, err)
		rd = bytes.NewReader(b)
	} else {
		rd = bytes.NewReader(nil)
	}
	req, err := http.NewRequestWithContext(context.Background(), method, c.base+path, rd)
	require.NoError(c.t, err)
	req.Header.Set("Content-Type", "application/json")
	resp, err := c.http.Do(req)
	require.NoError(c.t, err)
	defer resp.Body.Close()
	if out != nil {
		require.NoError(c.t, json.NewDecoder(resp.Body).Decode(out))
	}
	return resp.StatusCode
}

func item(isbn string, qty int) cartItemRequest {
	return cartItemRequest{ISBN: isbn, Quantity: &qty}
}

func (c *client) login(email, pin string) {
	c.t.Helper()
	require.Equal(c.t, http.StatusOK, c.do(http.MethodPost, "/login", loginRequest{Email: email, PIN: pin}, nil))
}

func TestHealthAndInfo(t *testing.T) {
	e := newEnv(t)
	c := e.client(t)

	var health map[string]string
	assert.Equal(t, http.StatusOK, c.do(http.MethodGet, "/health", nil, &health))
	assert.Equal(t, "ok", health["status"])

	var info bookstore.Info
	assert.Equal(t, http.StatusOK, c.do(http.MethodGet, "/", nil, &info))
	assert.Equal(t, bookstore.Info{Name: "Corner Books", Address: "1 Main St", Books: 2}, info)
}

func TestRequiresSession(t *testing.T) {
	e := newEnv(t)
	c := e.client(t)

	var er errorResponse
	assert.Equal(t, http.StatusUnauthorized, c.do(http.MethodGet, "/books", nil, &er))
	assert.Equal(t, codeUnauthenticated, er.Code)
	assert.Equal(t, http.StatusUnauthorized, c.do(http.MethodGet, "/cart", nil, nil))
}

func TestLogin(t *testing.T) {
	e := newEnv(t)
	c := e.client(t)

	var er errorResponse
	assert.Equal(t, http.StatusUnauthorized, c.do(http.MethodPost, "/login", loginRequest{Email: "alice@example.com", PIN: "9"}, &er))
	assert.Equal(t, codeInvalidCredentials, er.Code)
	assert.Equal(t, http.StatusBadRequest, c.do(http.MethodPost, "/login", map[string]string{"user": "x"}, nil))

	c.login("ALICE@example.com", "1111")
	var me account.Profile
	assert.Equal(t, http.StatusOK, c.do(http.MethodGet, "/me", nil, &me))
	assert.Equal(t, "alice@example.com", me.Email)
	assert.Equal(t, "customer", me.Role)

	assert.Equal(t, http.StatusNoContent, c.do(http.MethodPost, "/logout", nil, nil))
	assert.Equal(t, http.StatusUnauthorized, c.do(http.MethodGet, "/me", nil, nil))
}

func TestSignup(t *testing.T) {
	e := newEnv(t)
	c := e.client(t)

	in := account.CustomerInput{Name: "Cara", Email: "cara@example.com", PIN: "4444"}
	var p account.Profile
	assert.Equal(t, http.StatusCreated, c.do(http.MethodPost, "/signup", in, &p))
	assert.Equal(t, "Cara", p.Name)

	var er errorResponse
	assert.Equal(t, http.StatusConflict, c.do(http.MethodPost, "/signup", in, &er))
	assert.Equal(t, "duplicate_key", er.Code)
	assert.Equal(t, http.StatusBadRequest, c.do(http.MethodPost, "/signup", account.CustomerInput{Email: "x@y"}, nil))

	c.login("cara@example.com", "4444")
}

func TestSearchBooks(t *testing.T) {
	e := newEnv(t)
	c := e.client(t)
	c.login("alice@example.com", "1111")

	var books []catalog.Book
	assert.Equal(t, http.StatusOK, c.do(http.MethodGet, "/books", nil, &books))
	assert.Len(t, books, 2)

	assert.Equal(t, http.StatusOK, c.do(http.MethodGet, "/books?field=author&value=Bo", nil, &books))
	require.Len(t, books, 1)
	assert.Equal(t, "B2", books[0].ISBN)
	assert.Equal(t, "2.50", books[0].Price.StringFixed(2))

	assert.Equal(t, http.StatusOK, c.do(http.MethodGet, "/books?field=year&value=2001", nil, &books))
	assert.Empty(t, books)

	var b catalog.Book
	assert.Equal(t, http.StatusOK, c.do(http.MethodGet, "/books/B1", nil, &b))
	assert.Equal(t, "Book one", b.Title)
	assert.Equal(t, http.StatusNotFound, c.do(http.MethodGet, "/books/B404", nil, nil))
}

func TestCatalogAdminIsEmployeeOnly(t *testing.T) {
	e := newEnv(t)
	alice := e.client(t)
	alice.login("alice@example.com", "1111")
	eve := e.client(t)
	eve.login("eve@store.com", "0000")

	book := map[string]any{"isbn": "B3", "title": "Three", "price": "4.00", "quantity": 3}
	assert.Equal(t, http.StatusForbidden, alice.do(http.MethodPost, "/books", book, nil))
	assert.Equal(t, http.StatusCreated, eve.do(http.MethodPost, "/books", book, nil))
	assert.Equal(t, http.StatusConflict, eve.do(http.MethodPost, "/books", book, nil))

	assert.Equal(t, http.StatusForbidden, alice.do(http.MethodPut, "/books/B3/quantity", map[string]int{"quantity": 9}, nil))
	var b catalog.Book
	assert.Equal(t, http.StatusOK, eve.do(http.MethodPut, "/books/B3/quantity", map[string]int{"quantity": 9}, &b))
	assert.Equal(t, 9, b.Quantity)
	assert.Equal(t, http.StatusConflict, eve.do(http.MethodPut, "/books/B3/quantity", map[string]int{"quantity": -1}, nil))
	assert.Equal(t, http.StatusBadRequest, eve.do(http.MethodPut, "/books/B3/quantity", map[string]int{}, nil))

	assert.Equal(t, http.StatusOK, eve.do(http.MethodPut, "/books/B3/price", map[string]string{"price": "6.75"}, &b))
	assert.Equal(t, "6.75", b.Price.StringFixed(2))
	assert.Equal(t, http.StatusBadRequest, eve.do(http.MethodPut, "/books/B3/price", map[string]string{"price": "-1"}, nil))
	assert.Equal(t, http.StatusNotFound, eve.do(http.MethodPut, "/books/B404/price", map[string]string{"price": "1"}, nil))
}

func TestCartCheckoutAndCancel(t *testing.T) {
	e := newEnv(t)
	alice := e.client(t)
	alice.login("alice@example.com", "1111")
	eve := e.client(t)
	eve.login("eve@store.com", "0000")

	var view bookstore.CartView
	assert.Equal(t, http.StatusOK, alice.do(http.MethodPost, "/cart/items", item("B1", 3), &view))
	assert.Equal(t, "15", view.Total.String())
	assert.True(t, view.CanCheckout)
	assert.Equal(t, 7, e.stock(t, "B1"))

	var er errorResponse
	assert.Equal(t, http.StatusConflict, alice.do(http.MethodPost, "/cart/items", item("B2", 2), &er))
	assert.Equal(t, "invalid_quantity", er.Code)
	assert.Equal(t, http.StatusForbidden, eve.do(http.MethodPost, "/cart/items", item("B1", 1), nil))

	var o order.Order
	assert.Equal(t, http.StatusCreated, alice.do(http.MethodPost, "/checkout", nil, &o))
	assert.Equal(t, "000000", o.ID)
	assert.Equal(t, order.StatusPending, o.Status)
	assert.Equal(t, http.StatusConflict, alice.do(http.MethodPost, "/checkout", nil, nil))

	var history []order.Details
	assert.Equal(t, http.StatusOK, alice.do(http.MethodGet, "/orders", nil, &history))
	require.Len(t, history, 1)
	assert.False(t, history[0].Approved)

	var pending []order.Summary
	assert.Equal(t, http.StatusForbidden, alice.do(http.MethodGet, "/orders/pending", nil, nil))
	assert.Equal(t, http.StatusOK, eve.do(http.MethodGet, "/orders/pending", nil, &pending))
	require.Len(t, pending, 1)
	assert.Equal(t, "Alice", pending[0].CustomerName)

	assert.Equal(t, http.StatusForbidden, alice.do(http.MethodPost, "/orders/000000/cancel", nil, nil))
	assert.Equal(t, http.StatusOK, eve.do(http.MethodPost, "/orders/000000/cancel", nil, &o))
	assert.Equal(t, order.StatusRejected, o.Status)
	assert.Equal(t, 10, e.stock(t, "B1"))
	assert.Equal(t, http.StatusConflict, eve.do(http.MethodPost, "/orders/000000/cancel", nil, nil))
	assert.Equal(t, http.StatusNotFound, eve.do(http.MethodPost, "/orders/999999/approve", nil, nil))
}

func TestCartAddDefaultsToOneCopy(t *testing.T) {
	e := newEnv(t)
	c := e.client(t)
	c.login("alice@example.com", "1111")

	var view bookstore.CartView
	assert.Equal(t, http.StatusOK, c.do(http.MethodPost, "/cart/items", map[string]string{"isbn": "B1"}, &view))
	assert.Equal(t, 1, view.Items)
	assert.Equal(t, 9, e.stock(t, "B1"))

	var er errorResponse
	assert.Equal(t, http.StatusConflict, c.do(http.MethodPost, "/cart/items", item("B1", 0), &er))
	assert.Equal(t, "invalid_quantity", er.Code)
	assert.Equal(t, 9, e.stock(t, "B1"))
	assert.Equal(t, http.StatusBadRequest, c.do(http.MethodPost, "/cart/items", map[string]int{"quantity": 2}, nil))
}

func TestCartRemoveAndClear(t *testing.T) {
	e := newEnv(t)
	c := e.client(t)
	c.login("alice@example.com", "1111")

	require.Equal(t, http.StatusOK, c.do(http.MethodPost, "/cart/items", item("B1", 2), nil))
	require.Equal(t, http.StatusOK, c.do(http.MethodPost, "/cart/items", item("B2", 1), nil))

	var view bookstore.CartView
	assert.Equal(t, http.StatusOK, c.do(http.MethodDelete, "/cart/items/B2", nil, &view))
	assert.Equal(t, 2, view.Items)
	assert.Equal(t, 1, e.stock(t, "B2"))
	assert.Equal(t, http.StatusNotFound, c.do(http.MethodDelete, "/cart/items/B2", nil, nil))

	assert.Equal(t, http.StatusNoContent, c.do(http.MethodDelete, "/cart", nil, nil))
	assert.Equal(t, 10, e.stock(t, "B1"))
	assert.Equal(t, http.StatusOK, c.do(http.MethodGet, "/cart", nil, &view))
	assert.Empty(t, view.Lines)
}

func TestApproveAndSales(t *testing.T) {
	e := newEnv(t)
	alice := e.client(t)
	alice.login("alice@example.com", "1111")
	eve := e.client(t)
	eve.login("eve@store.com", "0000")

	require.Equal(t, http.StatusOK, alice.do(http.MethodPost, "/cart/items", item("B2", 1), nil))
	require.Equal(t, http.StatusCreated, alice.do(http.MethodPost, "/checkout", nil, nil))

	var o order.Order
	assert.Equal(t, http.StatusOK, eve.do(http.MethodPost, "/orders/000000/approve", nil, &o))
	assert.True(t, o.Approved())
	assert.Equal(t, http.StatusOK, alice.do(http.MethodGet, "/orders/000000", nil, &o))

	var sales bookstore.Sales
	assert.Equal(t, http.StatusForbidden, alice.do(http.MethodGet, "/sales", nil, nil))
	assert.Equal(t, http.StatusOK, eve.do(http.MethodGet, "/sales", nil, &sales))
	assert.Equal(t, 1, sales.CompletedSales)
	assert.Equal(t, "2.50", sales.TotalSales.StringFixed(2))
}

func TestDeleteAccountEndsSession(t *testing.T) {
	e := newEnv(t)
	alice := e.client(t)
	alice.login("alice@example.com", "1111")
	eve := e.client(t)
	eve.login("eve@store.com", "0000")

	require.Equal(t, http.StatusOK, alice.do(http.MethodPost, "/cart/items", item("B1", 4), nil))
	assert.Equal(t, http.StatusForbidden, alice.do(http.MethodDelete, "/accounts/eve@store.com", nil, nil))
	assert.Equal(t, http.StatusNoContent, eve.do(http.MethodDelete, "/accounts/alice@example.com", nil, nil))
	assert.Equal(t, 10, e.stock(t, "B1"))
	assert.Equal(t, http.StatusUnauthorized, alice.do(http.MethodGet, "/cart", nil, nil))
	assert.Equal(t, http.StatusNotFound, eve.do(http.MethodDelete, "/accounts/alice@example.com", nil, nil))
}

func TestUnknownRouteAndMethod(t *testing.T) {
	e := newEnv(t)
	c := e.client(t)

	var er errorResponse
	assert.Equal(t, http.StatusNotFound, c.do(http.MethodGet, "/nope", nil, &er))
	assert.Equal(t, "not_found", er.Code)
	assert.Equal(t, http.StatusMethodNotAllowed, c.do(http.MethodDelete, "/health", nil, nil))
}

func TestRecovererMasksPanics(t *testing.T) {
	s := NewServer(nil, session.NewMemoryStore(time.Hour), nil)
	h := s.recoverer(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		panic("negative stock")
	}))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.True(t, strings.Contains(rec.Body.String(), codeInternalError))
}

func TestStatusOf(t *testing.T) {
	tests := map[bookstore.Kind]int{
		bookstore.KindNotFound:        http.StatusNotFound,
		bookstore.KindUnauthorized:    http.StatusForbidden,
		bookstore.KindInvalidQuantity: http.StatusConflict,
		bookstore.KindDuplicateKey:    http.StatusConflict,
		bookstore.KindInvalidInput:    http.StatusBadRequest,
		bookstore.KindConflict:        http.StatusConflict,
		bookstore.KindInternal:        http.StatusInternalServerError,
	}
	for k, want := range tests {
		assert.Equal(t, want, statusOf(k), k.String())
	}
}
