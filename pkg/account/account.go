// Package account models store users. Customers and employees share one
// Account type; the Role selects which profile is populated.
package account

import (
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
	"strings"

	"bookstore/pkg/cart"
)

// Role is the capability set of an account.
type Role int

const (
	RoleCustomer Role = iota
	RoleEmployee
)

func (r Role) String() string {
	if r == RoleEmployee {
		return "employee"
	}
	return "customer"
}

// CustomerProfile holds what only customers have.
type CustomerProfile struct {
	MemberType string
	Cart       *cart.Cart
	orders     []string
}

// EmployeeProfile holds what only employees have.
type EmployeeProfile struct {
	Designation string
}

// Account is a registered user of the store.
type Account struct {
	Name    string
	Email   string
	Address string
	Phone   string
	Role    Role

	Customer *CustomerProfile
	Employee *EmployeeProfile

	pinHash string
}

// IsEmployee reports whether the account holds the employee capability.
func (a *Account) IsEmployee() bool {
	return a != nil && a.Role == RoleEmployee
}

// ID is the normalized e-mail the account is keyed by.
func (a *Account) ID() string {
	return NormalizeEmail(a.Email)
}

// CheckPIN reports whether pin matches the stored hash.
func (a *Account) CheckPIN(pin string) bool {
	return subtle.ConstantTimeCompare([]byte(a.pinHash), []byte(hashPIN(pin))) == 1
}

// RecordOrder appends an order id to the customer's history.
func (a *Account) RecordOrder(id string) {
	if a.Customer != nil {
		a.Customer.orders = append(a.Customer.orders, id)
	}
}

// OrderIDs returns the customer's order history, oldest first.
func (a *Account) OrderIDs() []string {
	if a.Customer == nil {
		return nil
	}
	return append([]string(nil), a.Customer.orders...)
}

// Profile is the read-only projection of an account.
type Profile struct {
	Name        string `json:"name"`
	Email       string `json:"email"`
	Address     string `json:"address"`
	Phone       string `json:"phone"`
	Role        string `json:"role"`
	MemberType  string `json:"member_type,omitempty"`
	Designation string `json:"designation,omitempty"`
}

// Profile projects a for presentation. The PIN hash never leaves the package.
func (a *Account) Profile() Profile {
	p := Profile{
		Name:    a.Name,
		Email:   a.Email,
		Address: a.Address,
		Phone:   a.Phone,
		Role:    a.Role.String(),
	}
	if a.Customer != nil {
		p.MemberType = a.Customer.MemberType
	}
	if a.Employee != nil {
		p.Designation = a.Employee.Designation
	}
	return p
}

// NormalizeEmail lower-cases and trims an e-mail address.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func hashPIN(pin string) string {
	sum := sha256.Sum256([]byte(pin))
	return hex.EncodeToString(sum[:])
}
