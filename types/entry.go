package types

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// EntryType classifies an entry as money coming in or going out.
type EntryType string

// EntryStatus is the lifecycle tag of an entry. There is no enforced
// transition order: any status may move to any other.
type EntryStatus string

const (
	EntryTypeIncome  EntryType = "INCOME"
	EntryTypeExpense EntryType = "EXPENSE"

	EntryStatusPending  EntryStatus = "PENDING"
	EntryStatusSettled  EntryStatus = "SETTLED"
	EntryStatusCanceled EntryStatus = "CANCELED"
)

// ParseEntryType parses a wire code into an EntryType.
func ParseEntryType(code string) (EntryType, error) {
	switch EntryType(code) {
	case EntryTypeIncome, EntryTypeExpense:
		return EntryType(code), nil
	}
	return "", fmt.Errorf("unknown entry type %q", code)
}

// ParseEntryStatus parses a wire code into an EntryStatus.
func ParseEntryStatus(code string) (EntryStatus, error) {
	switch EntryStatus(code) {
	case EntryStatusPending, EntryStatusSettled, EntryStatusCanceled:
		return EntryStatus(code), nil
	}
	return "", fmt.Errorf("unknown entry status %q", code)
}

// Entry represents a single financial transaction record (income or
// expense) for a given month/year, owned by one user.
type Entry struct {
	// ID is the unique identifier of the entry.
	ID int `json:"id" db:"id"`

	// Description is the human-readable label of the entry.
	Description string `json:"description" db:"description"`

	// Value is the monetary amount of the entry.
	Value decimal.Decimal `json:"value" db:"value"`

	// Month is the accounting month of the entry, 1 through 12.
	Month int `json:"month" db:"month"`

	// Year is the four-digit accounting year of the entry.
	Year int `json:"year" db:"year"`

	// Type classifies the entry as INCOME or EXPENSE. Empty when the
	// client never sent a type.
	Type EntryType `json:"type,omitempty" db:"type"`

	// Status is the lifecycle tag of the entry. Empty when the client
	// never sent a status.
	Status EntryStatus `json:"status,omitempty" db:"status"`

	// UserID references the owning user. Every entry must reference an
	// existing user.
	UserID int `json:"user_id" db:"user_id"`

	// ReceiptKey is the object-storage key of the attached receipt,
	// empty when no receipt has been uploaded.
	ReceiptKey string `json:"receipt_key,omitempty" db:"receipt_key"`

	// CreatedAt is the timestamp at which the entry was created.
	CreatedAt time.Time `json:"created_at" db:"created_at"`

	// UpdatedAt is the timestamp of the most recent update to the entry.
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
}

// EntryFilter selects entries for a single owner. Description matches as a
// case-insensitive substring; Month and Year match exactly when non-zero.
type EntryFilter struct {
	Description string
	Month       int
	Year        int
	UserID      int
}

// EntryEvent is the envelope published to the message broker after each
// successful entry write.
type EntryEvent struct {
	Action  string      `json:"action"`
	EntryID int         `json:"entry_id"`
	UserID  int         `json:"user_id"`
	Status  EntryStatus `json:"status,omitempty"`
}
