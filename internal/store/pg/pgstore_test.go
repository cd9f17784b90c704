package pg

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"bookgate/internal/book"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var columns = []string{"id", "name", "author", "content", "creator_user_id", "modifier_user_id", "created", "updated"}

func newMock(t *testing.T) (*Store, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() {
		assert.NoError(t, mock.ExpectationsWereMet())
		_ = db.Close()
	})
	return New(db), mock
}

func TestMigrate(t *testing.T) {
	db, mock, err := sqlmock.New(sqlmock.MonitorPingsOption(true))
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectPing()
	mock.ExpectExec("create table if not exists book").WillReturnResult(sqlmock.NewResult(0, 0))

	require.NoError(t, New(db).Migrate(context.Background()))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestList(t *testing.T) {
	s, mock := newMock(t)
	now := time.Now()

	mock.ExpectQuery("select id, name, author, content, creator_user_id, modifier_user_id, created, updated from book order by id").
		WillReturnRows(sqlmock.NewRows(columns).
			AddRow(1, "Dune", "Frank Herbert", "...", "u0", "u0", now, now).
			AddRow(2, "Emma", "Jane Austen", "...", "u1", "u2", now, now))

	books, err := s.List(context.Background())
	require.NoError(t, err)
	require.Len(t, books, 2)
	assert.Equal(t, "Emma", books[1].Name)
	assert.Equal(t, "u2", books[1].ModifierUserID)
}

func TestListEmptyIsNotNil(t *testing.T) {
	s, mock := newMock(t)
	mock.ExpectQuery("from book order by id").WillReturnRows(sqlmock.NewRows(columns))

	books, err := s.List(context.Background())
	require.NoError(t, err)
	assert.NotNil(t, books)
}

func TestGetNotFound(t *testing.T) {
	s, mock := newMock(t)
	mock.ExpectQuery("from book where id=\\$1").WithArgs(int64(9)).WillReturnError(sql.ErrNoRows)

	_, err := s.Get(context.Background(), 9)
	assert.True(t, errors.Is(err, book.ErrNotFound))
}

func TestCreateReturnsStoredRow(t *testing.T) {
	s, mock := newMock(t)
	now := time.Now()

	mock.ExpectQuery("insert into book").
		WithArgs("Dune", "Frank Herbert", "...", "u1", "u1").
		WillReturnRows(sqlmock.NewRows(columns).AddRow(7, "Dune", "Frank Herbert", "...", "u1", "u1", now, now))

	b, err := s.Create(context.Background(), book.Book{
		Name: "Dune", Author: "Frank Herbert", Content: "...", CreatorUserID: "u1", ModifierUserID: "u1",
	})
	require.NoError(t, err)
	assert.Equal(t, int64(7), b.ID)
	assert.Equal(t, now, b.Created)
}

func TestUpdateAppliesMutationInTransaction(t *testing.T) {
	s, mock := newMock(t)
	now := time.Now()

	mock.ExpectBegin()
	mock.ExpectQuery("from book where id=\\$1 for update").WithArgs(int64(1)).
		WillReturnRows(sqlmock.NewRows(columns).AddRow(1, "Dune", "Frank Herbert", "...", "u0", "u0", now, now))
	mock.ExpectQuery("update book").
		WithArgs(int64(1), "Dune Messiah", "Frank Herbert", "...", "u1").
		WillReturnRows(sqlmock.NewRows(columns).AddRow(1, "Dune Messiah", "Frank Herbert", "...", "u0", "u1", now, now.Add(time.Second)))
	mock.ExpectCommit()

	b, err := s.Update(context.Background(), 1, func(b *book.Book) {
		b.Name = "Dune Messiah"
		b.ModifierUserID = "u1"
	})
	require.NoError(t, err)
	assert.Equal(t, "Dune Messiah", b.Name)
	assert.Equal(t, "u0", b.CreatorUserID)
	assert.Equal(t, "u1", b.ModifierUserID)
}

func TestUpdateNotFoundRollsBack(t *testing.T) {
	s, mock := newMock(t)

	mock.ExpectBegin()
	mock.ExpectQuery("for update").WithArgs(int64(3)).WillReturnError(sql.ErrNoRows)
	mock.ExpectRollback()

	called := false
	_, err := s.Update(context.Background(), 3, func(*book.Book) { called = true })
	assert.True(t, errors.Is(err, book.ErrNotFound))
	assert.False(t, called)
}

func TestDelete(t *testing.T) {
	s, mock := newMock(t)

	mock.ExpectExec("delete from book where id=\\$1").WithArgs(int64(1)).WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("delete from book where id=\\$1").WithArgs(int64(2)).WillReturnResult(sqlmock.NewResult(0, 0))

	require.NoError(t, s.Delete(context.Background(), 1))
	assert.True(t, errors.Is(s.Delete(context.Background(), 2), book.ErrNotFound))
}

func TestServerErrorsAreDatabaseErrors(t *testing.T) {
	s, mock := newMock(t)

	mock.ExpectQuery("insert into book").
		WillReturnError(&pgconn.PgError{Code: "23502", Message: `null value in column "name" violates not-null constraint`})
	mock.ExpectQuery("from book order by id").WillReturnError(context.DeadlineExceeded)

	_, err := s.Create(context.Background(), book.Book{})
	assert.True(t, errors.Is(err, book.ErrDatabase))
	var dbErr *book.DatabaseError
	require.True(t, errors.As(err, &dbErr))
	assert.Equal(t, "23502", dbErr.Code)
	assert.Contains(t, dbErr.Message, "not-null constraint")

	_, err = s.List(context.Background())
	assert.False(t, errors.Is(err, book.ErrDatabase))
	assert.True(t, errors.Is(err, context.DeadlineExceeded))
}
