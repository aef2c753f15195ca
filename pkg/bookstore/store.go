// Package bookstore is the command surface of the store. It resolves who is
// acting, enforces role capabilities, and runs one command at a time against
// the shared catalog, carts and order ledger.
package bookstore

import (
	"context"
	"sync"
	"time"

	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"bookstore/pkg/account"
	"bookstore/pkg/cart"
	"bookstore/pkg/catalog"
	"bookstore/pkg/events"
	"bookstore/pkg/logger"
	"bookstore/pkg/order"
	"bookstore/pkg/otel"
)

// Store serializes every command: one completes before the next begins.
type Store struct {
	mu sync.Mutex

	name    string
	address string

	catalog  *catalog.Catalog
	accounts *account.Directory
	ledger   *order.Ledger
	events   events.Publisher
	log      *logger.Logger
}

// Option configures a Store.
type Option func(*Store)

// WithPublisher sends order lifecycle events to p.
func WithPublisher(p events.Publisher) Option {
	return func(s *Store) {
		if p != nil {
			s.events = p
		}
	}
}

// WithLogger overrides the default no-op logger.
func WithLogger(l *logger.Logger) Option {
	return func(s *Store) {
		if l != nil {
			s.log = l
		}
	}
}

// WithInfo sets the store name and address shown on the welcome screen.
func WithInfo(name, address string) Option {
	return func(s *Store) {
		s.name = name
		s.address = address
	}
}

// New assembles a Store over the given components.
func New(cat *catalog.Catalog, dir *account.Directory, ledger *order.Ledger, opts ...Option) *Store {
	s := &Store{
		name:     "Bookstore",
		catalog:  cat,
		accounts: dir,
		ledger:   ledger,
		events:   events.Nop{},
		log:      logger.NewNop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Info is the public description of the store.
type Info struct {
	Name    string `json:"name"`
	Address string `json:"address"`
	Books   int    `json:"books"`
}

// Info describes the store.
func (s *Store) Info() Info {
	return Info{Name: s.name, Address: s.address, Books: s.catalog.Len()}
}

// Signup registers a new customer.
func (s *Store) Signup(ctx context.Context, in account.CustomerInput) (account.Profile, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	a, err := s.accounts.Signup(in)
	if err != nil {
		return account.Profile{}, err
	}
	s.log.Info(ctx, "customer signed up", "email", a.ID())
	return a.Profile(), nil
}

// Signin verifies credentials and returns the account.
func (s *Store) Signin(ctx context.Context, email, pin string) (*account.Account, error) {
	a, err := s.accounts.Signin(email, pin)
	if err != nil {
		s.log.Warn(ctx, "signin failed", "email", account.NormalizeEmail(email))
		return nil, err
	}
	return a, nil
}

// Account resolves an e-mail to its account.
func (s *Store) Account(ctx context.Context, email string) (*account.Account, error) {
	return s.accounts.Get(email)
}

// DeleteAccount removes an account. Employees only.
func (s *Store) DeleteAccount(ctx context.Context, actor *account.Account, email string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.registered(actor); err != nil {
		return err
	}
	if err := s.accounts.Delete(actor, email); err != nil {
		return err
	}
	s.log.Info(ctx, "account deleted", "email", account.NormalizeEmail(email), "by", actor.ID())
	return nil
}

// Search finds books by a named field. Unsupported fields find nothing.
func (s *Store) Search(ctx context.Context, field, value string) []catalog.Book {
	return s.catalog.Search(catalog.ParseField(field), value)
}

// Books lists the whole catalog in registration order.
func (s *Store) Books(ctx context.Context) []catalog.Book {
	return s.catalog.All()
}

// Book returns one book by ISBN.
func (s *Store) Book(ctx context.Context, isbn string) (catalog.Book, error) {
	b, ok := s.catalog.Lookup(isbn)
	if !ok {
		return catalog.Book{}, catalog.ErrNotFound
	}
	return b, nil
}

// AddBook registers a new catalog record. Employees only.
func (s *Store) AddBook(ctx context.Context, actor *account.Account, b catalog.Book) error {
	if !actor.IsEmployee() {
		return catalog.ErrUnauthorized
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.registered(actor); err != nil {
		return err
	}
	if err := s.catalog.AddRecord(b); err != nil {
		return err
	}
	s.log.Info(ctx, "book added", "isbn", b.ISBN, "by", actor.ID())
	return nil
}

// UpdateQuantity sets a book's stock. Employees only.
func (s *Store) UpdateQuantity(ctx context.Context, actor *account.Account, isbn string, qty int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.registered(actor); err != nil {
		return err
	}
	if err := s.catalog.UpdateQuantity(isbn, qty, actor); err != nil {
		return err
	}
	s.log.Info(ctx, "quantity updated", "isbn", isbn, "quantity", qty, "by", actor.ID())
	return nil
}

// UpdatePrice sets a book's price. Employees only.
func (s *Store) UpdatePrice(ctx context.Context, actor *account.Account, isbn string, price decimal.Decimal) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.registered(actor); err != nil {
		return err
	}
	if err := s.catalog.UpdatePrice(isbn, price, actor); err != nil {
		return err
	}
	s.log.Info(ctx, "price updated", "isbn", isbn, "price", price.String(), "by", actor.ID())
	return nil
}

// CartView is the read-only projection of a customer's cart.
type CartView struct {
	Lines       []cart.Line     `json:"lines"`
	Total       decimal.Decimal `json:"total"`
	Items       int             `json:"items"`
	CanCheckout bool            `json:"can_checkout"`
}

func viewOf(c *cart.Cart) CartView {
	v := CartView{Lines: c.Lines(), Total: c.Total(), CanCheckout: c.CanCheckout()}
	for _, l := range v.Lines {
		v.Items += l.Quantity
	}
	return v
}

// cartOf returns the cart of a still-registered customer. Callers hold s.mu.
func (s *Store) cartOf(actor *account.Account) (*cart.Cart, error) {
	if actor == nil || actor.Customer == nil || actor.Customer.Cart == nil {
		return nil, ErrNotCustomer
	}
	if err := s.registered(actor); err != nil {
		return nil, err
	}
	return actor.Customer.Cart, nil
}

// registered reports account.ErrNotFound when actor has been deleted since it
// was resolved. Callers hold s.mu.
func (s *Store) registered(actor *account.Account) error {
	if actor == nil {
		return nil
	}
	current, err := s.accounts.Get(actor.ID())
	if err != nil || current != actor {
		return account.ErrNotFound
	}
	return nil
}

// Cart returns the actor's cart.
func (s *Store) Cart(ctx context.Context, actor *account.Account) (CartView, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, err := s.cartOf(actor)
	if err != nil {
		return CartView{}, err
	}
	return viewOf(c), nil
}

// CartAdd reserves qty copies of isbn in the actor's cart.
func (s *Store) CartAdd(ctx context.Context, actor *account.Account, isbn string, qty int) (CartView, error) {
	ctx, span := otel.AddSpan(ctx, "bookstore.CartAdd")
	defer span.End()
	span.SetAttributes(attribute.String("book.isbn", isbn), attribute.Int("book.quantity", qty))

	s.mu.Lock()
	defer s.mu.Unlock()
	c, err := s.cartOf(actor)
	if err != nil {
		return CartView{}, err
	}
	if err := c.AddBook(isbn, qty); err != nil {
		span.SetStatus(codes.Error, err.Error())
		return CartView{}, err
	}
	s.log.Debug(ctx, "book reserved", "isbn", isbn, "quantity", qty, "customer", actor.ID())
	return viewOf(c), nil
}

// CartRemove releases the actor's reservation of isbn.
func (s *Store) CartRemove(ctx context.Context, actor *account.Account, isbn string) (CartView, error) {
	ctx, span := otel.AddSpan(ctx, "bookstore.CartRemove")
	defer span.End()
	span.SetAttributes(attribute.String("book.isbn", isbn))

	s.mu.Lock()
	defer s.mu.Unlock()
	c, err := s.cartOf(actor)
	if err != nil {
		return CartView{}, err
	}
	if err := c.RemoveBook(isbn); err != nil {
		span.SetStatus(codes.Error, err.Error())
		return CartView{}, err
	}
	s.log.Debug(ctx, "book released", "isbn", isbn, "customer", actor.ID())
	return viewOf(c), nil
}

// CartClear releases every reservation in the actor's cart.
func (s *Store) CartClear(ctx context.Context, actor *account.Account) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, err := s.cartOf(actor)
	if err != nil {
		return err
	}
	for _, l := range c.Lines() {
		if err := c.RemoveBook(l.ISBN); err != nil {
			return err
		}
	}
	c.Clear()
	return nil
}

// Checkout turns the actor's cart into a pending order and empties the cart.
func (s *Store) Checkout(ctx context.Context, actor *account.Account) (order.Order, error) {
	ctx, span := otel.AddSpan(ctx, "bookstore.Checkout")
	defer span.End()

	s.mu.Lock()
	defer s.mu.Unlock()
	c, err := s.cartOf(actor)
	if err != nil {
		return order.Order{}, err
	}
	if !c.CanCheckout() {
		return order.Order{}, order.ErrEmptyOrder
	}
	o, err := s.ledger.Place(ctx, order.Customer{ID: actor.ID(), Name: actor.Name}, c.Snapshot())
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		return order.Order{}, err
	}
	c.Clear()
	actor.RecordOrder(o.ID)
	span.SetAttributes(attribute.String("order.id", o.ID))

	s.log.Info(ctx, "order placed", "order_id", o.ID, "customer", actor.ID(), "total", o.Total.StringFixed(2))
	s.publish(ctx, events.OrderPlaced, o, "")
	return o, nil
}

// Orders returns the actor's order history, or every order for employees.
func (s *Store) Orders(ctx context.Context, actor *account.Account) ([]order.Order, error) {
	if actor == nil {
		return nil, catalog.ErrUnauthorized
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.registered(actor); err != nil {
		return nil, err
	}
	if actor.IsEmployee() {
		return s.ledger.All(ctx)
	}
	out := []order.Order{}
	for _, id := range actor.OrderIDs() {
		o, err := s.ledger.Get(ctx, id)
		if err != nil {
			return nil, err
		}
		out = append(out, o)
	}
	return out, nil
}

// Order returns one order. Customers only see their own.
func (s *Store) Order(ctx context.Context, actor *account.Account, id string) (order.Order, error) {
	if actor == nil {
		return order.Order{}, catalog.ErrUnauthorized
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.registered(actor); err != nil {
		return order.Order{}, err
	}
	o, err := s.ledger.Get(ctx, id)
	if err != nil {
		return order.Order{}, err
	}
	if !actor.IsEmployee() && o.Customer.ID != actor.ID() {
		return order.Order{}, order.ErrNotFound
	}
	return o, nil
}

// PendingOrders lists orders awaiting a decision. Employees only.
func (s *Store) PendingOrders(ctx context.Context, actor *account.Account) ([]order.Summary, error) {
	if !actor.IsEmployee() {
		return nil, catalog.ErrUnauthorized
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.registered(actor); err != nil {
		return nil, err
	}
	return s.ledger.Pending(ctx)
}

// ApproveOrder approves an order. Employees only.
func (s *Store) ApproveOrder(ctx context.Context, actor *account.Account, id string) (order.Order, error) {
	ctx, span := otel.AddSpan(ctx, "bookstore.ApproveOrder")
	defer span.End()
	span.SetAttributes(attribute.String("order.id", id))

	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.registered(actor); err != nil {
		return order.Order{}, err
	}
	o, err := s.ledger.Approve(ctx, id, actor)
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		return order.Order{}, err
	}
	s.log.Info(ctx, "order approved", "order_id", id, "by", actor.ID())
	s.publish(ctx, events.OrderApproved, o, actor.ID())
	return o, nil
}

// CancelOrder rejects an order and restocks its items. Employees only.
func (s *Store) CancelOrder(ctx context.Context, actor *account.Account, id string) (order.Order, error) {
	ctx, span := otel.AddSpan(ctx, "bookstore.CancelOrder")
	defer span.End()
	span.SetAttributes(attribute.String("order.id", id))

	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.registered(actor); err != nil {
		return order.Order{}, err
	}
	o, err := s.ledger.Cancel(ctx, id, actor)
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		return order.Order{}, err
	}
	s.log.Info(ctx, "order rejected", "order_id", id, "by", actor.ID())
	s.publish(ctx, events.OrderRejected, o, actor.ID())
	return o, nil
}

// Sales summarizes the ledger. Rejected orders count as neither completed nor pending.
type Sales struct {
	TotalSales     decimal.Decimal `json:"total_sales"`
	CompletedSales int             `json:"completed_sales"`
	PendingSales   int             `json:"pending_sales"`
}

// Sales recomputes the sales summary. Employees only.
func (s *Store) Sales(ctx context.Context, actor *account.Account) (Sales, error) {
	if !actor.IsEmployee() {
		return Sales{}, catalog.ErrUnauthorized
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.registered(actor); err != nil {
		return Sales{}, err
	}
	orders, err := s.ledger.All(ctx)
	if err != nil {
		return Sales{}, err
	}
	out := Sales{TotalSales: decimal.Zero}
	for _, o := range orders {
		switch o.Status {
		case order.StatusApproved:
			out.CompletedSales++
			out.TotalSales = out.TotalSales.Add(o.Total)
		case order.StatusPending:
			out.PendingSales++
		}
	}
	return out, nil
}

func (s *Store) publish(ctx context.Context, typ events.Type, o order.Order, by string) {
	e := events.Event{
		Type:       typ,
		OrderID:    o.ID,
		CustomerID: o.Customer.ID,
		Items:      len(o.Items),
		Total:      o.Total.StringFixed(2),
		Actor:      by,
		At:         time.Now().UTC(),
	}
	if err := s.events.Publish(ctx, e); err != nil {
		s.log.Error(ctx, "publish event", "type", string(typ), "order_id", o.ID, "error", err)
	}
}
