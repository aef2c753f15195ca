// Package seed bootstraps the catalog and account directory from flat
// records. A batch is applied whole or not at all.
package seed

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"

	"bookstore/pkg/account"
	"bookstore/pkg/catalog"
)

// Accounts is a batch of account records.
type Accounts struct {
	Customers []account.CustomerInput `json:"customers"`
	Employees []account.EmployeeInput `json:"employees"`
}

// Source yields seed records.
type Source interface {
	Books(ctx context.Context) ([]catalog.Book, error)
	Accounts(ctx context.Context) (Accounts, error)
}

// Result counts what was loaded.
type Result struct {
	Books     int
	Customers int
	Employees int
}

// Load reads and validates every record from src before touching cat or dir,
// so a malformed record leaves both untouched.
func Load(ctx context.Context, src Source, cat *catalog.Catalog, dir *account.Directory) (Result, error) {
	books, err := src.Books(ctx)
	if err != nil {
		return Result{}, fmt.Errorf("read books: %w", err)
	}
	accts, err := src.Accounts(ctx)
	if err != nil {
		return Result{}, fmt.Errorf("read accounts: %w", err)
	}
	if err := cat.Validate(books); err != nil {
		return Result{}, fmt.Errorf("load books: %w", err)
	}
	if err := dir.Validate(accts.Customers, accts.Employees); err != nil {
		return Result{}, fmt.Errorf("load accounts: %w", err)
	}
	if err := cat.Load(books); err != nil {
		return Result{}, fmt.Errorf("load books: %w", err)
	}
	if err := dir.Load(accts.Customers, accts.Employees); err != nil {
		return Result{Books: len(books)}, fmt.Errorf("load accounts: %w", err)
	}
	return Result{
		Books:     len(books),
		Customers: len(accts.Customers),
		Employees: len(accts.Employees),
	}, nil
}

// DecodeBooks reads a JSON array of book records. Unknown fields are an error.
func DecodeBooks(r io.Reader) ([]catalog.Book, error) {
	var books []catalog.Book
	dec := json.NewDecoder(r)
	dec.DisallowUnknownFields()
	if err := dec.Decode(&books); err != nil {
		return nil, err
	}
	return books, nil
}

// DecodeAccounts reads a JSON object with customers and employees arrays.
func DecodeAccounts(r io.Reader) (Accounts, error) {
	var a Accounts
	dec := json.NewDecoder(r)
	dec.DisallowUnknownFields()
	if err := dec.Decode(&a); err != nil {
		return Accounts{}, err
	}
	return a, nil
}

// Files reads seed records from JSON files. An empty path yields no records.
type Files struct {
	BooksPath    string
	AccountsPath string
}

// Books reads BooksPath.
func (f Files) Books(context.Context) ([]catalog.Book, error) {
	if f.BooksPath == "" {
		return nil, nil
	}
	file, err := os.Open(f.BooksPath)
	if err != nil {
		return nil, err
	}
	defer file.Close()
	return DecodeBooks(file)
}

// Accounts reads AccountsPath.
func (f Files) Accounts(context.Context) (Accounts, error) {
	if f.AccountsPath == "" {
		return Accounts{}, nil
	}
	file, err := os.Open(f.AccountsPath)
	if err != nil {
		return Accounts{}, err
	}
	defer file.Close()
	return DecodeAccounts(file)
}
