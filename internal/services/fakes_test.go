package services

import (
	"bytes"
	"context"
	"io"
	"strings"

	"github.com/ggeraldodequeiroz/minhas-financas-backend/internal/store"
	"github.com/ggeraldodequeiroz/minhas-financas-backend/types"
)

type fakeUserRepo struct {
	users  map[int]types.User
	nextID int
}

func newFakeUserRepo() *fakeUserRepo {
	return &fakeUserRepo{users: map[int]types.User{}, nextID: 1}
}

func (r *fakeUserRepo) GetByID(ctx context.Context, id int) (types.User, error) {
	user, ok := r.users[id]
	if !ok {
		return types.User{}, store.ErrNotFound
	}
	return user, nil
}

func (r *fakeUserRepo) GetByEmail(ctx context.Context, email string) (types.User, error) {
	for _, user := range r.users {
		if user.Email == email {
			return user, nil
		}
	}
	return types.User{}, store.ErrNotFound
}

func (r *fakeUserRepo) ExistsByEmail(ctx context.Context, email string) (bool, error) {
	_, err := r.GetByEmail(ctx, email)
	if err == nil {
		return true, nil
	}
	return false, nil
}

func (r *fakeUserRepo) Create(ctx context.Context, user types.User) (types.User, error) {
	if exists, _ := r.ExistsByEmail(ctx, user.Email); exists {
		return types.User{}, store.ErrDuplicateEmail
	}
	user.ID = r.nextID
	r.nextID++
	r.users[user.ID] = user
	return user, nil
}

type fakeEntryRepo struct {
	entries map[int]types.Entry
	nextID  int
	updates int
}

func newFakeEntryRepo() *fakeEntryRepo {
	return &fakeEntryRepo{entries: map[int]types.Entry{}, nextID: 1}
}

func (r *fakeEntryRepo) FindByFilter(ctx context.Context, filter types.EntryFilter) ([]types.Entry, error) {
	matched := make([]types.Entry, 0)
	for id := 1; id < r.nextID; id++ {
		entry, ok := r.entries[id]
		if !ok {
			continue
		}
		if entry.UserID != filter.UserID {
			continue
		}
		if filter.Month != 0 && entry.Month != filter.Month {
			continue
		}
		if filter.Year != 0 && entry.Year != filter.Year {
			continue
		}
		if filter.Description != "" &&
			!strings.Contains(strings.ToLower(entry.Description), strings.ToLower(filter.Description)) {
			continue
		}
		matched = append(matched, entry)
	}
	return matched, nil
}

func (r *fakeEntryRepo) GetByID(ctx context.Context, id int) (types.Entry, error) {
	entry, ok := r.entries[id]
	if !ok {
		return types.Entry{}, store.ErrNotFound
	}
	return entry, nil
}

func (r *fakeEntryRepo) Create(ctx context.Context, entry types.Entry) (types.Entry, error) {
	entry.ID = r.nextID
	r.nextID++
	r.entries[entry.ID] = entry
	return entry, nil
}

func (r *fakeEntryRepo) Update(ctx context.Context, entry types.Entry) (types.Entry, error) {
	if _, ok := r.entries[entry.ID]; !ok {
		return types.Entry{}, store.ErrNotFound
	}
	r.updates++
	r.entries[entry.ID] = entry
	return entry, nil
}

func (r *fakeEntryRepo) Delete(ctx context.Context, id int) error {
	if _, ok := r.entries[id]; !ok {
		return store.ErrNotFound
	}
	delete(r.entries, id)
	return nil
}

// fakeHasher marks hashes with a prefix so tests can assert the plaintext
// was actually transformed before storage.
type fakeHasher struct{}

func (fakeHasher) Hash(plaintext string) (string, error) {
	return "hashed:" + plaintext, nil
}

func (fakeHasher) Matches(plaintext, hash string) bool {
	return hash == "hashed:"+plaintext
}

type fakeEventBus struct {
	published []types.EntryEvent
}

func (b *fakeEventBus) PublishEntryEvent(ctx context.Context, event types.EntryEvent) error {
	b.published = append(b.published, event)
	return nil
}

type fakeReceiptStorage struct {
	objects map[string][]byte
}

func newFakeReceiptStorage() *fakeReceiptStorage {
	return &fakeReceiptStorage{objects: map[string][]byte{}}
}

func (s *fakeReceiptStorage) Put(ctx context.Context, key string, r io.Reader, size int64, contentType string) error {
	data, err := io.ReadAll(r)
	if err != nil {
		return err
	}
	s.objects[key] = data
	return nil
}

func (s *fakeReceiptStorage) Get(ctx context.Context, key string) (io.ReadCloser, error) {
	data, ok := s.objects[key]
	if !ok {
		return nil, store.ErrNotFound
	}
	return io.NopCloser(bytes.NewReader(data)), nil
}
