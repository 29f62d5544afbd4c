package services

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"path"
	"strings"

	"github.com/ggeraldodequeiroz/minhas-financas-backend/internal/store"
	"github.com/ggeraldodequeiroz/minhas-financas-backend/types"
	"github.com/shopspring/decimal"
)

const (
	EntryActionCreated       = "created"
	EntryActionUpdated       = "updated"
	EntryActionStatusChanged = "status_changed"
	EntryActionDeleted       = "deleted"
)

// EntryRepository defines persistence operations for entries.
type EntryRepository interface {
	FindByFilter(ctx context.Context, filter types.EntryFilter) ([]types.Entry, error)
	GetByID(ctx context.Context, id int) (types.Entry, error)
	Create(ctx context.Context, entry types.Entry) (types.Entry, error)
	Update(ctx context.Context, entry types.Entry) (types.Entry, error)
	Delete(ctx context.Context, id int) error
}

// EventPublisher publishes entry lifecycle events to the broker.
type EventPublisher interface {
	PublishEntryEvent(ctx context.Context, event types.EntryEvent) error
}

// ReceiptStorage stores and retrieves receipt objects attached to entries.
type ReceiptStorage interface {
	Put(ctx context.Context, key string, r io.Reader, size int64, contentType string) error
	Get(ctx context.Context, key string) (io.ReadCloser, error)
}

// EntryDraft carries the client-supplied fields for creating or replacing
// an entry. Type and Status are pointers so "not sent" can be told apart
// from an explicit value; when absent the entry field is left unset.
type EntryDraft struct {
	Description string
	Value       decimal.Decimal
	Month       int
	Year        int
	Type        *string
	Status      *string
	UserID      int
}

// EntryService encapsulates the entry workflow: filtering, validated
// construction, status transitions, receipts and lifecycle events.
type EntryService struct {
	repo     EntryRepository
	users    UserRepository
	events   EventPublisher
	receipts ReceiptStorage
}

func NewEntryService(repo EntryRepository, users UserRepository) *EntryService {
	return &EntryService{repo: repo, users: users}
}

// WithEvents attaches an event publisher. Without one, writes are silent.
func (s *EntryService) WithEvents(events EventPublisher) *EntryService {
	s.events = events
	return s
}

// WithReceipts attaches receipt object storage. Without one, receipt
// operations fail with a BusinessRuleError.
func (s *EntryService) WithReceipts(receipts ReceiptStorage) *EntryService {
	s.receipts = receipts
	return s
}

// Find returns the entries matching the filter. The filter must be scoped
// to exactly one user; callers resolve the user before querying.
func (s *EntryService) Find(ctx context.Context, filter types.EntryFilter) ([]types.Entry, error) {
	if filter.UserID == 0 {
		return nil, errors.New("entry filter requires a user id")
	}
	return s.repo.FindByFilter(ctx, filter)
}

// GetByID resolves an entry by id, returning store.ErrNotFound when absent.
func (s *EntryService) GetByID(ctx context.Context, id int) (types.Entry, error) {
	return s.repo.GetByID(ctx, id)
}

// Create validates the draft and persists a new entry. The owner is
// resolved before any other validation: an entry can never exist without
// a valid owner.
func (s *EntryService) Create(ctx context.Context, draft EntryDraft) (types.Entry, error) {
	entry, err := s.buildEntry(ctx, draft)
	if err != nil {
		return types.Entry{}, err
	}

	created, err := s.repo.Create(ctx, entry)
	if err != nil {
		return types.Entry{}, err
	}

	s.publish(ctx, types.EntryEvent{
		Action:  EntryActionCreated,
		EntryID: created.ID,
		UserID:  created.UserID,
		Status:  created.Status,
	})
	return created, nil
}

// Update rebuilds the entry from the draft, preserving the original
// identifier, and persists the full replacement. The draft is
// authoritative: fields it omits are not carried over from the old entry.
func (s *EntryService) Update(ctx context.Context, id int, draft EntryDraft) (types.Entry, error) {
	current, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return types.Entry{}, err
	}

	entry, err := s.buildEntry(ctx, draft)
	if err != nil {
		return types.Entry{}, err
	}
	entry.ID = current.ID
	entry.ReceiptKey = current.ReceiptKey
	entry.CreatedAt = current.CreatedAt

	updated, err := s.repo.Update(ctx, entry)
	if err != nil {
		return types.Entry{}, err
	}

	s.publish(ctx, types.EntryEvent{
		Action:  EntryActionUpdated,
		EntryID: updated.ID,
		UserID:  updated.UserID,
		Status:  updated.Status,
	})
	return updated, nil
}

// UpdateStatus mutates only the status field of an existing entry. There
// is no transition graph: any status may move to any other.
func (s *EntryService) UpdateStatus(ctx context.Context, id int, statusCode string) (types.Entry, error) {
	entry, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return types.Entry{}, err
	}

	status, err := types.ParseEntryStatus(statusCode)
	if err != nil {
		return types.Entry{}, businessRule("could not update the entry status, send a valid status")
	}

	entry.Status = status
	updated, err := s.repo.Update(ctx, entry)
	if err != nil {
		return types.Entry{}, err
	}

	s.publish(ctx, types.EntryEvent{
		Action:  EntryActionStatusChanged,
		EntryID: updated.ID,
		UserID:  updated.UserID,
		Status:  updated.Status,
	})
	return updated, nil
}

// Delete removes an existing entry, returning store.ErrNotFound when the
// entry is already gone.
func (s *EntryService) Delete(ctx context.Context, id int) error {
	entry, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return err
	}

	if err := s.repo.Delete(ctx, entry.ID); err != nil {
		return err
	}

	s.publish(ctx, types.EntryEvent{
		Action:  EntryActionDeleted,
		EntryID: entry.ID,
		UserID:  entry.UserID,
	})
	return nil
}

// AttachReceipt uploads a receipt object for an existing entry and records
// its storage key on the entry.
func (s *EntryService) AttachReceipt(ctx context.Context, id int, filename, contentType string, data []byte) (types.Entry, error) {
	if s.receipts == nil {
		return types.Entry{}, businessRule("receipt storage is not configured")
	}

	entry, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return types.Entry{}, err
	}

	key := fmt.Sprintf("receipts/%d/%s", entry.ID, path.Base(filename))
	if err := s.receipts.Put(ctx, key, bytes.NewReader(data), int64(len(data)), contentType); err != nil {
		return types.Entry{}, err
	}

	entry.ReceiptKey = key
	return s.repo.Update(ctx, entry)
}

// OpenReceipt opens the receipt attached to an entry, returning
// store.ErrNotFound when the entry exists but carries no receipt.
func (s *EntryService) OpenReceipt(ctx context.Context, id int) (io.ReadCloser, string, error) {
	if s.receipts == nil {
		return nil, "", businessRule("receipt storage is not configured")
	}

	entry, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, "", err
	}
	if entry.ReceiptKey == "" {
		return nil, "", store.ErrNotFound
	}

	reader, err := s.receipts.Get(ctx, entry.ReceiptKey)
	if err != nil {
		return nil, "", err
	}
	return reader, entry.ReceiptKey, nil
}

func (s *EntryService) buildEntry(ctx context.Context, draft EntryDraft) (types.Entry, error) {
	if _, err := s.users.GetByID(ctx, draft.UserID); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return types.Entry{}, businessRule("user not found for the given id")
		}
		return types.Entry{}, err
	}

	entry := types.Entry{
		Description: strings.TrimSpace(draft.Description),
		Value:       draft.Value,
		Month:       draft.Month,
		Year:        draft.Year,
		UserID:      draft.UserID,
	}

	if draft.Type != nil {
		parsed, err := types.ParseEntryType(*draft.Type)
		if err != nil {
			return types.Entry{}, businessRule("send a valid type")
		}
		entry.Type = parsed
	}

	if draft.Status != nil {
		parsed, err := types.ParseEntryStatus(*draft.Status)
		if err != nil {
			return types.Entry{}, businessRule("send a valid status")
		}
		entry.Status = parsed
	}

	if err := validateEntry(entry); err != nil {
		return types.Entry{}, err
	}
	return entry, nil
}

func validateEntry(entry types.Entry) error {
	if entry.Description == "" {
		return businessRule("enter a valid description")
	}
	if entry.Month < 1 || entry.Month > 12 {
		return businessRule("enter a valid month")
	}
	if entry.Year < 1000 || entry.Year > 9999 {
		return businessRule("enter a valid year")
	}
	if !entry.Value.IsPositive() {
		return businessRule("enter a valid value")
	}
	return nil
}

func (s *EntryService) publish(ctx context.Context, event types.EntryEvent) {
	if s.events == nil {
		return
	}
	if err := s.events.PublishEntryEvent(ctx, event); err != nil {
		slog.WarnContext(ctx, "entry event publish failed",
			"action", event.Action, "entry_id", event.EntryID, "error", err)
	}
}
