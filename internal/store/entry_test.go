package store

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/ggeraldodequeiroz/minhas-financas-backend/types"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newEntryRepoWithMock(t *testing.T) (*EntryRepository, sqlmock.Sqlmock, *sql.DB) {
	t.Helper()
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	if err != nil {
		t.Fatalf("sqlmock.New error: %v", err)
	}
	return NewEntryRepository(db), mock, db
}

func entryRows() *sqlmock.Rows {
	return sqlmock.NewRows([]string{
		"id", "description", "value", "month", "year",
		"type", "status", "user_id", "receipt_key", "created_at", "updated_at",
	})
}

func TestEntryFindByFilter(t *testing.T) {
	t.Run("user scope only", func(t *testing.T) {
		repo, mock, db := newEntryRepoWithMock(t)
		defer db.Close()

		mock.ExpectQuery(`SELECT .* FROM entries WHERE user_id = \$1 ORDER BY id`).
			WithArgs(1).
			WillReturnRows(entryRows().
				AddRow(10, "rent", "1200.00", 1, 2024, "EXPENSE", "PENDING", 1, "", time.Now(), time.Now()))

		entries, err := repo.FindByFilter(context.Background(), types.EntryFilter{UserID: 1})
		require.NoError(t, err)
		require.Len(t, entries, 1)
		assert.Equal(t, 10, entries[0].ID)
		assert.True(t, entries[0].Value.Equal(decimal.RequireFromString("1200.00")))
		assert.Equal(t, types.EntryTypeExpense, entries[0].Type)
	})

	t.Run("all predicates append in order", func(t *testing.T) {
		repo, mock, db := newEntryRepoWithMock(t)
		defer db.Close()

		mock.ExpectQuery(`SELECT .* FROM entries WHERE user_id = \$1 AND description ILIKE \$2 AND month = \$3 AND year = \$4 ORDER BY id`).
			WithArgs(1, "%rent%", 1, 2024).
			WillReturnRows(entryRows())

		entries, err := repo.FindByFilter(context.Background(), types.EntryFilter{
			Description: "rent",
			Month:       1,
			Year:        2024,
			UserID:      1,
		})
		require.NoError(t, err)
		assert.Empty(t, entries)
	})
}

func TestEntryGetByID(t *testing.T) {
	t.Run("found", func(t *testing.T) {
		repo, mock, db := newEntryRepoWithMock(t)
		defer db.Close()

		mock.ExpectQuery(`SELECT .* FROM entries WHERE id = \$1`).
			WithArgs(5).
			WillReturnRows(entryRows().
				AddRow(5, "Salary", "5000.00", 3, 2024, "INCOME", "PENDING", 1, "", time.Now(), time.Now()))

		entry, err := repo.GetByID(context.Background(), 5)
		require.NoError(t, err)
		assert.Equal(t, "Salary", entry.Description)
		assert.Equal(t, types.EntryStatusPending, entry.Status)
	})

	t.Run("absent row maps to ErrNotFound", func(t *testing.T) {
		repo, mock, db := newEntryRepoWithMock(t)
		defer db.Close()

		mock.ExpectQuery(`SELECT .* FROM entries WHERE id = \$1`).
			WithArgs(99).
			WillReturnError(sql.ErrNoRows)

		_, err := repo.GetByID(context.Background(), 99)
		assert.ErrorIs(t, err, ErrNotFound)
	})
}

func TestEntryCreate(t *testing.T) {
	repo, mock, db := newEntryRepoWithMock(t)
	defer db.Close()

	mock.ExpectQuery(`INSERT INTO entries .* RETURNING id`).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(7))

	entry, err := repo.Create(context.Background(), types.Entry{
		Description: "Salary",
		Value:       decimal.RequireFromString("5000.00"),
		Month:       3,
		Year:        2024,
		Type:        types.EntryTypeIncome,
		Status:      types.EntryStatusPending,
		UserID:      1,
	})
	require.NoError(t, err)
	assert.Equal(t, 7, entry.ID)
	assert.False(t, entry.CreatedAt.IsZero())
}

func TestEntryUpdate(t *testing.T) {
	t.Run("zero rows affected maps to ErrNotFound", func(t *testing.T) {
		repo, mock, db := newEntryRepoWithMock(t)
		defer db.Close()

		mock.ExpectExec(`UPDATE entries SET .* WHERE id = \$10`).
			WillReturnResult(sqlmock.NewResult(0, 0))

		_, err := repo.Update(context.Background(), types.Entry{ID: 99, Value: decimal.Zero})
		assert.ErrorIs(t, err, ErrNotFound)
	})
}

func TestEntryDelete(t *testing.T) {
	t.Run("deletes the row", func(t *testing.T) {
		repo, mock, db := newEntryRepoWithMock(t)
		defer db.Close()

		mock.ExpectExec(`DELETE FROM entries WHERE id = \$1`).
			WithArgs(7).
			WillReturnResult(sqlmock.NewResult(0, 1))

		assert.NoError(t, repo.Delete(context.Background(), 7))
	})

	t.Run("already gone maps to ErrNotFound", func(t *testing.T) {
		repo, mock, db := newEntryRepoWithMock(t)
		defer db.Close()

		mock.ExpectExec(`DELETE FROM entries WHERE id = \$1`).
			WithArgs(7).
			WillReturnResult(sqlmock.NewResult(0, 0))

		assert.ErrorIs(t, repo.Delete(context.Background(), 7), ErrNotFound)
	})
}
