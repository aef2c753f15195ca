package seed

import (
	"context"
	"database/sql"

	"bookstore/pkg/account"
	"bookstore/pkg/catalog"
)

// Postgres reads seed records from PostgreSQL. The caller must ensure the
// database has these tables:
//
//	CREATE TABLE books (isbn TEXT PRIMARY KEY, title TEXT, author TEXT, year INT, genre TEXT, price NUMERIC, quantity INT);
//	CREATE TABLE customers (email TEXT PRIMARY KEY, name TEXT, pin TEXT, address TEXT, phone TEXT, member_type TEXT);
//	CREATE TABLE employees (email TEXT PRIMARY KEY, name TEXT, pin TEXT, address TEXT, phone TEXT, designation TEXT);
type Postgres struct {
	db *sql.DB
}

// NewPostgres returns a PostgreSQL seed source.
func NewPostgres(db *sql.DB) *Postgres {
	return &Postgres{db: db}
}

// Books fetches all book rows.
func (p *Postgres) Books(ctx context.Context) ([]catalog.Book, error) {
	rows, err := p.db.QueryContext(ctx, "SELECT isbn,title,author,year,genre,price,quantity FROM books ORDER BY isbn")
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var books []catalog.Book
	for rows.Next() {
		var b catalog.Book
		if err := rows.Scan(&b.ISBN, &b.Title, &b.Author, &b.Year, &b.Genre, &b.Price, &b.Quantity); err != nil {
			return nil, err
		}
		books = append(books, b)
	}
	return books, rows.Err()
}

// Accounts fetches all customer and employee rows.
func (p *Postgres) Accounts(ctx context.Context) (Accounts, error) {
	var a Accounts

	rows, err := p.db.QueryContext(ctx, "SELECT name,email,pin,address,phone,member_type FROM customers ORDER BY email")
	if err != nil {
		return Accounts{}, err
	}
	defer rows.Close()
	for rows.Next() {
		var c account.CustomerInput
		if err := rows.Scan(&c.Name, &c.Email, &c.PIN, &c.Address, &c.Phone, &c.MemberType); err != nil {
			return Accounts{}, err
		}
		a.Customers = append(a.Customers, c)
	}
	if err := rows.Err(); err != nil {
		return Accounts{}, err
	}

	erows, err := p.db.QueryContext(ctx, "SELECT name,email,pin,address,phone,designation FROM employees ORDER BY email")
	if err != nil {
		return Accounts{}, err
	}
	defer erows.Close()
	for erows.Next() {
		var e account.EmployeeInput
		if err := erows.Scan(&e.Name, &e.Email, &e.PIN, &e.Address, &e.Phone, &e.Designation); err != nil {
			return Accounts{}, err
		}
		a.Employees = append(a.Employees, e)
	}
	return a, erows.Err()
}
