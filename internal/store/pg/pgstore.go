// Package pg stores books in PostgreSQL through the pgx database/sql driver.
package pg

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"bookgate/internal/book"

	"github.com/jackc/pgx/v5/pgconn"
	_ "github.com/jackc/pgx/v5/stdlib"
)

// Schema creates the book table when missing
const Schema = `
create table if not exists book (
	id               serial primary key,
	name             varchar not null,
	author           varchar not null,
	content          varchar not null,
	creator_user_id  varchar not null,
	modifier_user_id varchar not null,
	created          timestamptz not null default current_timestamp,
	updated          timestamptz not null default current_timestamp
)`

const bookColumns = `id, name, author, content, creator_user_id, modifier_user_id, created, updated`

type Store struct {
	db *sql.DB
}

var _ book.Store = (*Store)(nil)

// Open connects to the database described by dsn
func Open(dsn string) (*Store, error) {
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(20)
	db.SetMaxIdleConns(10)
	db.SetConnMaxLifetime(15 * time.Minute)
	db.SetConnMaxIdleTime(5 * time.Minute)
	return &Store{db: db}, nil
}

// New wraps an existing handle
func New(db *sql.DB) *Store {
	return &Store{db: db}
}

func (s *Store) Close() error { return s.db.Close() }

// Migrate checks connectivity and applies Schema
func (s *Store) Migrate(ctx context.Context) error {
	if err := s.db.PingContext(ctx); err != nil {
		return fmt.Errorf("ping database: %w", err)
	}
	if _, err := s.db.ExecContext(ctx, Schema); err != nil {
		return fmt.Errorf("create schema: %w", err)
	}
	return nil
}

func (s *Store) List(ctx context.Context) ([]book.Book, error) {
	rows, err := s.db.QueryContext(ctx, `select `+bookColumns+` from book order by id`)
	if err != nil {
		return nil, wrap(err)
	}
	defer rows.Close()

	books := []book.Book{}
	for rows.Next() {
		b, err := scanBook(rows)
		if err != nil {
			return nil, wrap(err)
		}
		books = append(books, b)
	}
	if err := rows.Err(); err != nil {
		return nil, wrap(err)
	}
	return books, nil
}

func (s *Store) Get(ctx context.Context, id int64) (book.Book, error) {
	b, err := scanBook(s.db.QueryRowContext(ctx, `select `+bookColumns+` from book where id=$1`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return book.Book{}, book.ErrNotFound
	}
	if err != nil {
		return book.Book{}, wrap(err)
	}
	return b, nil
}

func (s *Store) Create(ctx context.Context, b book.Book) (book.Book, error) {
	created, err := scanBook(s.db.QueryRowContext(ctx, `
		insert into book(name, author, content, creator_user_id, modifier_user_id)
		values ($1,$2,$3,$4,$5)
		returning `+bookColumns,
		b.Name, b.Author, b.Content, b.CreatorUserID, b.ModifierUserID,
	))
	if err != nil {
		return book.Book{}, wrap(err)
	}
	return created, nil
}

func (s *Store) Update(ctx context.Context, id int64, mutate func(*book.Book)) (book.Book, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return book.Book{}, wrap(err)
	}
	defer func() { _ = tx.Rollback() }()

	current, err := scanBook(tx.QueryRowContext(ctx, `select `+bookColumns+` from book where id=$1 for update`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return book.Book{}, book.ErrNotFound
	}
	if err != nil {
		return book.Book{}, wrap(err)
	}

	mutate(&current)

	updated, err := scanBook(tx.QueryRowContext(ctx, `
		update book
		set name=$2, author=$3, content=$4, modifier_user_id=$5, updated=current_timestamp
		where id=$1
		returning `+bookColumns,
		id, current.Name, current.Author, current.Content, current.ModifierUserID,
	))
	if err != nil {
		return book.Book{}, wrap(err)
	}
	if err := tx.Commit(); err != nil {
		return book.Book{}, wrap(err)
	}
	return updated, nil
}

func (s *Store) Delete(ctx context.Context, id int64) error {
	res, err := s.db.ExecContext(ctx, `delete from book where id=$1`, id)
	if err != nil {
		return wrap(err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return wrap(err)
	}
	if n == 0 {
		return book.ErrNotFound
	}
	return nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanBook(row scanner) (book.Book, error) {
	var b book.Book
	err := row.Scan(&b.ID, &b.Name, &b.Author, &b.Content, &b.CreatorUserID, &b.ModifierUserID, &b.Created, &b.Updated)
	return b, err
}

// wrap tags errors reported by the server with book.ErrDatabase; connection
// and context failures stay untagged
func wrap(err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return &book.DatabaseError{Code: pgErr.Code, Message: pgErr.Message}
	}
	return err
}
