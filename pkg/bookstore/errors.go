package bookstore

import (
	"errors"

	"bookstore/pkg/account"
	"bookstore/pkg/catalog"
	"bookstore/pkg/order"
)

// ErrNotCustomer indicates a cart operation by an account without a cart.
var ErrNotCustomer = errors.New("only customers have a cart")

// Kind classifies a command failure for the caller.
type Kind int

const (
	KindNone Kind = iota
	KindNotFound
	KindUnauthorized
	KindInvalidQuantity
	KindDuplicateKey
	KindInvalidInput
	KindConflict
	KindInternal
)

func (k Kind) String() string {
	switch k {
	case KindNone:
		return "none"
	case KindNotFound:
		return "not_found"
	case KindUnauthorized:
		return "unauthorized"
	case KindInvalidQuantity:
		return "invalid_quantity"
	case KindDuplicateKey:
		return "duplicate_key"
	case KindInvalidInput:
		return "invalid_input"
	case KindConflict:
		return "conflict"
	}
	return "internal"
}

// Classify maps an error returned by a Store command onto a Kind.
func Classify(err error) Kind {
	switch {
	case err == nil:
		return KindNone
	case errors.Is(err, catalog.ErrNotFound),
		errors.Is(err, order.ErrNotFound),
		errors.Is(err, account.ErrNotFound):
		return KindNotFound
	case errors.Is(err, catalog.ErrUnauthorized),
		errors.Is(err, account.ErrInvalidCredentials),
		errors.Is(err, ErrNotCustomer):
		return KindUnauthorized
	case errors.Is(err, catalog.ErrInvalidQuantity),
		errors.Is(err, order.ErrEmptyOrder):
		return KindInvalidQuantity
	case errors.Is(err, catalog.ErrDuplicateKey),
		errors.Is(err, account.ErrDuplicateKey),
		errors.Is(err, order.ErrDuplicateKey):
		return KindDuplicateKey
	case errors.Is(err, catalog.ErrInvalidPrice),
		errors.Is(err, catalog.ErrInvalidBook),
		errors.Is(err, account.ErrInvalidAccount):
		return KindInvalidInput
	case errors.Is(err, order.ErrAlreadyRejected):
		return KindConflict
	}
	return KindInternal
}
