package account

import (
	"errors"
	"fmt"
	"sort"
	"sync"

	"bookstore/pkg/cart"
	"bookstore/pkg/catalog"
)

var (
	ErrNotFound           = errors.New("account not found")
	ErrDuplicateKey       = errors.New("account already exists")
	ErrInvalidAccount     = errors.New("invalid account")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrUnauthorized       = catalog.ErrUnauthorized
)

// Actor is anyone performing a privileged directory change.
type Actor interface {
	IsEmployee() bool
}

// CustomerInput holds the attributes of a new customer.
type CustomerInput struct {
	Name       string `json:"name"`
	Email      string `json:"email"`
	PIN        string `json:"pin"`
	Address    string `json:"address"`
	Phone      string `json:"phone"`
	MemberType string `json:"member_type"`
}

// EmployeeInput holds the attributes of a new employee.
type EmployeeInput struct {
	Name        string `json:"name"`
	Email       string `json:"email"`
	PIN         string `json:"pin"`
	Address     string `json:"address"`
	Phone       string `json:"phone"`
	Designation string `json:"designation"`
}

func validate(name, email, pin string) error {
	switch {
	case name == "":
		return fmt.Errorf("%w: name is required", ErrInvalidAccount)
	case NormalizeEmail(email) == "":
		return fmt.Errorf("%w: email is required", ErrInvalidAccount)
	case pin == "":
		return fmt.Errorf("%w: pin is required", ErrInvalidAccount)
	}
	return nil
}

// Directory is the registry of accounts keyed by normalized e-mail.
type Directory struct {
	mu       sync.RWMutex
	accounts map[string]*Account
	catalog  *catalog.Catalog
}

// NewDirectory returns an empty directory whose customers reserve stock from cat.
func NewDirectory(cat *catalog.Catalog) *Directory {
	return &Directory{
		accounts: make(map[string]*Account),
		catalog:  cat,
	}
}

func (d *Directory) newCustomer(in CustomerInput) *Account {
	id := NormalizeEmail(in.Email)
	return &Account{
		Name:     in.Name,
		Email:    id,
		Address:  in.Address,
		Phone:    in.Phone,
		Role:     RoleCustomer,
		Customer: &CustomerProfile{MemberType: in.MemberType, Cart: cart.New(id, d.catalog)},
		pinHash:  hashPIN(in.PIN),
	}
}

func newEmployee(in EmployeeInput) *Account {
	return &Account{
		Name:     in.Name,
		Email:    NormalizeEmail(in.Email),
		Address:  in.Address,
		Phone:    in.Phone,
		Role:     RoleEmployee,
		Employee: &EmployeeProfile{Designation: in.Designation},
		pinHash:  hashPIN(in.PIN),
	}
}

// Signup registers a new customer.
func (d *Directory) Signup(in CustomerInput) (*Account, error) {
	if err := validate(in.Name, in.Email, in.PIN); err != nil {
		return nil, err
	}
	return d.add(d.newCustomer(in))
}

// Register adds a new employee.
func (d *Directory) Register(in EmployeeInput) (*Account, error) {
	if err := validate(in.Name, in.Email, in.PIN); err != nil {
		return nil, err
	}
	return d.add(newEmployee(in))
}

func (d *Directory) add(a *Account) (*Account, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if _, ok := d.accounts[a.ID()]; ok {
		return nil, fmt.Errorf("%s: %w", a.ID(), ErrDuplicateKey)
	}
	d.accounts[a.ID()] = a
	return a, nil
}

// Validate reports whether Load would accept the batch, without changing the
// directory.
func (d *Directory) Validate(customers []CustomerInput, employees []EmployeeInput) error {
	if err := validateBatch(customers, employees); err != nil {
		return err
	}
	ids := make([]string, 0, len(customers)+len(employees))
	for _, in := range customers {
		ids = append(ids, NormalizeEmail(in.Email))
	}
	for _, in := range employees {
		ids = append(ids, NormalizeEmail(in.Email))
	}

	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.checkUnique(ids)
}

// Load registers a batch of customers and employees. Either every record is
// added or none is.
func (d *Directory) Load(customers []CustomerInput, employees []EmployeeInput) error {
	if err := validateBatch(customers, employees); err != nil {
		return err
	}
	batch := make([]*Account, 0, len(customers)+len(employees))
	ids := make([]string, 0, cap(batch))
	for _, in := range customers {
		batch = append(batch, d.newCustomer(in))
	}
	for _, in := range employees {
		batch = append(batch, newEmployee(in))
	}
	for _, a := range batch {
		ids = append(ids, a.ID())
	}

	d.mu.Lock()
	defer d.mu.Unlock()
	if err := d.checkUnique(ids); err != nil {
		return err
	}
	for _, a := range batch {
		d.accounts[a.ID()] = a
	}
	return nil
}

func validateBatch(customers []CustomerInput, employees []EmployeeInput) error {
	for i, in := range customers {
		if err := validate(in.Name, in.Email, in.PIN); err != nil {
			return fmt.Errorf("customer %d: %w", i, err)
		}
	}
	for i, in := range employees {
		if err := validate(in.Name, in.Email, in.PIN); err != nil {
			return fmt.Errorf("employee %d: %w", i, err)
		}
	}
	return nil
}

func (d *Directory) checkUnique(ids []string) error {
	seen := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		if _, ok := d.accounts[id]; ok {
			return fmt.Errorf("%s: %w", id, ErrDuplicateKey)
		}
		if _, ok := seen[id]; ok {
			return fmt.Errorf("%s: %w", id, ErrDuplicateKey)
		}
		seen[id] = struct{}{}
	}
	return nil
}

// Signin returns the account when the PIN matches.
func (d *Directory) Signin(email, pin string) (*Account, error) {
	a, err := d.Get(email)
	if err != nil || !a.CheckPIN(pin) {
		return nil, ErrInvalidCredentials
	}
	return a, nil
}

// Get returns the account registered under email.
func (d *Directory) Get(email string) (*Account, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	a, ok := d.accounts[NormalizeEmail(email)]
	if !ok {
		return nil, ErrNotFound
	}
	return a, nil
}

// Delete removes an account. Only employees may do this. Books still held
// in a deleted customer's cart go back to stock.
func (d *Directory) Delete(actor Actor, email string) error {
	if actor == nil || !actor.IsEmployee() {
		return ErrUnauthorized
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	id := NormalizeEmail(email)
	a, ok := d.accounts[id]
	if !ok {
		return ErrNotFound
	}
	if a.Customer != nil {
		for _, l := range a.Customer.Cart.Lines() {
			if err := a.Customer.Cart.RemoveBook(l.ISBN); err != nil {
				return fmt.Errorf("release cart of %s: %w", id, err)
			}
		}
	}
	delete(d.accounts, id)
	return nil
}

// Profiles returns the projections of every account with the given role,
// sorted by e-mail.
func (d *Directory) Profiles(role Role) []Profile {
	d.mu.RLock()
	defer d.mu.RUnlock()
	out := []Profile{}
	for _, a := range d.accounts {
		if a.Role == role {
			out = append(out, a.Profile())
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Email < out[j].Email })
	return out
}
