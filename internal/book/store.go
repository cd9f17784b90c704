package book

import "context"

// Store persists books. Implementations return ErrNotFound for unknown ids
// and wrap backend failures with ErrDatabase.
type Store interface {
	// List returns every book ordered by id
	List(ctx context.Context) ([]Book, error)

	// Get returns the book with the given id
	Get(ctx context.Context, id int64) (Book, error)

	// Create inserts b and returns it with its id and timestamps
	Create(ctx context.Context, b Book) (Book, error)

	// Update loads the book, applies mutate and saves the result atomically
	Update(ctx context.Context, id int64, mutate func(*Book)) (Book, error)

	// Delete removes the book with the given id
	Delete(ctx context.Context, id int64) error
}
