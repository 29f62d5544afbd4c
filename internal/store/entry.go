package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/ggeraldodequeiroz/minhas-financas-backend/types"
)

// EntryRepository handles persistence for financial entries.
type EntryRepository struct {
	db *sql.DB
}

func NewEntryRepository(db *sql.DB) *EntryRepository {
	return &EntryRepository{db: db}
}

const entryColumns = `id, description, value, month, year,
	COALESCE(type, ''), COALESCE(status, ''), user_id,
	COALESCE(receipt_key, ''), created_at, updated_at`

func (r *EntryRepository) FindByFilter(ctx context.Context, filter types.EntryFilter) ([]types.Entry, error) {
	query := fmt.Sprintf(`SELECT %s FROM entries WHERE user_id = $1`, entryColumns)
	args := []any{filter.UserID}

	if desc := strings.TrimSpace(filter.Description); desc != "" {
		args = append(args, "%"+desc+"%")
		query += fmt.Sprintf(" AND description ILIKE $%d", len(args))
	}
	if filter.Month != 0 {
		args = append(args, filter.Month)
		query += fmt.Sprintf(" AND month = $%d", len(args))
	}
	if filter.Year != 0 {
		args = append(args, filter.Year)
		query += fmt.Sprintf(" AND year = $%d", len(args))
	}
	query += " ORDER BY id"

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	entries := make([]types.Entry, 0)
	for rows.Next() {
		entry, err := scanEntry(rows)
		if err != nil {
			return nil, err
		}
		entries = append(entries, entry)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return entries, nil
}

func (r *EntryRepository) GetByID(ctx context.Context, id int) (types.Entry, error) {
	query := fmt.Sprintf(`SELECT %s FROM entries WHERE id = $1`, entryColumns)
	entry, err := scanEntry(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return types.Entry{}, ErrNotFound
		}
		return types.Entry{}, err
	}
	return entry, nil
}

func (r *EntryRepository) Create(ctx context.Context, entry types.Entry) (types.Entry, error) {
	now := time.Now()
	entry.CreatedAt = now
	entry.UpdatedAt = now

	const query = `
		INSERT INTO entries (description, value, month, year, type, status, user_id, receipt_key, created_at, updated_at)
		VALUES ($1, $2, $3, $4, NULLIF($5, ''), NULLIF($6, ''), $7, NULLIF($8, ''), $9, $10)
		RETURNING id`
	if err := r.db.QueryRowContext(
		ctx,
		query,
		entry.Description,
		entry.Value,
		entry.Month,
		entry.Year,
		string(entry.Type),
		string(entry.Status),
		entry.UserID,
		entry.ReceiptKey,
		entry.CreatedAt,
		entry.UpdatedAt,
	).Scan(&entry.ID); err != nil {
		return types.Entry{}, err
	}
	return entry, nil
}

func (r *EntryRepository) Update(ctx context.Context, entry types.Entry) (types.Entry, error) {
	entry.UpdatedAt = time.Now()

	const query = `
		UPDATE entries
		SET description = $1,
			value = $2,
			month = $3,
			year = $4,
			type = NULLIF($5, ''),
			status = NULLIF($6, ''),
			user_id = $7,
			receipt_key = NULLIF($8, ''),
			updated_at = $9
		WHERE id = $10`
	result, err := r.db.ExecContext(
		ctx,
		query,
		entry.Description,
		entry.Value,
		entry.Month,
		entry.Year,
		string(entry.Type),
		string(entry.Status),
		entry.UserID,
		entry.ReceiptKey,
		entry.UpdatedAt,
		entry.ID,
	)
	if err != nil {
		return types.Entry{}, err
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return types.Entry{}, err
	}
	if affected == 0 {
		return types.Entry{}, ErrNotFound
	}
	return entry, nil
}

func (r *EntryRepository) Delete(ctx context.Context, id int) error {
	const query = `DELETE FROM entries WHERE id = $1`
	result, err := r.db.ExecContext(ctx, query, id)
	if err != nil {
		return err
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return ErrNotFound
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanEntry(row rowScanner) (types.Entry, error) {
	var entry types.Entry
	var typeCode, statusCode string
	err := row.Scan(
		&entry.ID,
		&entry.Description,
		&entry.Value,
		&entry.Month,
		&entry.Year,
		&typeCode,
		&statusCode,
		&entry.UserID,
		&entry.ReceiptKey,
		&entry.CreatedAt,
		&entry.UpdatedAt,
	)
	if err != nil {
		return types.Entry{}, err
	}
	entry.Type = types.EntryType(typeCode)
	entry.Status = types.EntryStatus(statusCode)
	return entry, nil
}
