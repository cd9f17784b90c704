// Package book holds the book resource: its model, partial updates, the
// storage contract and the HTTP handlers.
package book

import (
	"errors"
	"time"
)

var (
	// ErrNotFound is returned when no book has the requested id
	ErrNotFound = errors.New("book: not found")

	// ErrPrimaryKeyPatch is returned when a partial update tries to set the id
	ErrPrimaryKeyPatch = errors.New("book: primary key passed in patch update data")

	// ErrValidation is returned for request bodies that fail validation
	ErrValidation = errors.New("book: validation failed")

	// ErrDatabase wraps failures reported by the store backend
	ErrDatabase = errors.New("book: database error")
)

// DatabaseError is a statement failure reported by the database server. It
// matches ErrDatabase.
type DatabaseError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func (e *DatabaseError) Error() string {
	return ErrDatabase.Error() + ": " + e.Message + " (" + e.Code + ")"
}

func (e *DatabaseError) Unwrap() error { return ErrDatabase }

// Book is a stored book
type Book struct {
	ID             int64     `json:"id"`
	Name           string    `json:"name"`
	Author         string    `json:"author"`
	Content        string    `json:"content"`
	CreatorUserID  string    `json:"creator_user_id"`
	ModifierUserID string    `json:"modifier_user_id"`
	Created        time.Time `json:"created"`
	Updated        time.Time `json:"updated"`
}

// Summary is the list representation of a book, without content
type Summary struct {
	ID             int64     `json:"id"`
	Name           string    `json:"name"`
	Author         string    `json:"author"`
	CreatorUserID  string    `json:"creator_user_id"`
	ModifierUserID string    `json:"modifier_user_id"`
	Created        time.Time `json:"created"`
	Updated        time.Time `json:"updated"`
}

// Summary returns the list representation of b
func (b Book) Summary() Summary {
	return Summary{
		ID:             b.ID,
		Name:           b.Name,
		Author:         b.Author,
		CreatorUserID:  b.CreatorUserID,
		ModifierUserID: b.ModifierUserID,
		Created:        b.Created,
		Updated:        b.Updated,
	}
}

// Input is the body of create and full update requests. Every field must be
// present; empty strings are accepted.
type Input struct {
	Name    *string `json:"name" validate:"required"`
	Author  *string `json:"author" validate:"required"`
	Content *string `json:"content" validate:"required"`
}

// NewBook builds a book created by userID
func (in Input) NewBook(userID string) Book {
	return Book{
		Name:           *in.Name,
		Author:         *in.Author,
		Content:        *in.Content,
		CreatorUserID:  userID,
		ModifierUserID: userID,
	}
}

// Replace overwrites every editable field of b and stamps the modifier
func (in Input) Replace(b *Book, userID string) {
	b.Name = *in.Name
	b.Author = *in.Author
	b.Content = *in.Content
	b.ModifierUserID = userID
}
