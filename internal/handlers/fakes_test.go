package handlers

import (
	"context"
	"strings"

	"github.com/ggeraldodequeiroz/minhas-financas-backend/internal/store"
	"github.com/ggeraldodequeiroz/minhas-financas-backend/types"
)

type memUserRepo struct {
	users  map[int]types.User
	nextID int
}

func newMemUserRepo() *memUserRepo {
	return &memUserRepo{users: map[int]types.User{}, nextID: 1}
}

func (r *memUserRepo) GetByID(ctx context.Context, id int) (types.User, error) {
	user, ok := r.users[id]
	if !ok {
		return types.User{}, store.ErrNotFound
	}
	return user, nil
}

func (r *memUserRepo) GetByEmail(ctx context.Context, email string) (types.User, error) {
	for _, user := range r.users {
		if user.Email == email {
			return user, nil
		}
	}
	return types.User{}, store.ErrNotFound
}

func (r *memUserRepo) ExistsByEmail(ctx context.Context, email string) (bool, error) {
	_, err := r.GetByEmail(ctx, email)
	return err == nil, nil
}

func (r *memUserRepo) Create(ctx context.Context, user types.User) (types.User, error) {
	if exists, _ := r.ExistsByEmail(ctx, user.Email); exists {
		return types.User{}, store.ErrDuplicateEmail
	}
	user.ID = r.nextID
	r.nextID++
	r.users[user.ID] = user
	return user, nil
}

type memEntryRepo struct {
	entries map[int]types.Entry
	nextID  int
}

func newMemEntryRepo() *memEntryRepo {
	return &memEntryRepo{entries: map[int]types.Entry{}, nextID: 1}
}

func (r *memEntryRepo) FindByFilter(ctx context.Context, filter types.EntryFilter) ([]types.Entry, error) {
	matched := make([]types.Entry, 0)
	for id := 1; id < r.nextID; id++ {
		entry, ok := r.entries[id]
		if !ok || entry.UserID != filter.UserID {
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

func (r *memEntryRepo) GetByID(ctx context.Context, id int) (types.Entry, error) {
	entry, ok := r.entries[id]
	if !ok {
		return types.Entry{}, store.ErrNotFound
	}
	return entry, nil
}

func (r *memEntryRepo) Create(ctx context.Context, entry types.Entry) (types.Entry, error) {
	entry.ID = r.nextID
	r.nextID++
	r.entries[entry.ID] = entry
	return entry, nil
}

func (r *memEntryRepo) Update(ctx context.Context, entry types.Entry) (types.Entry, error) {
	if _, ok := r.entries[entry.ID]; !ok {
		return types.Entry{}, store.ErrNotFound
	}
	r.entries[entry.ID] = entry
	return entry, nil
}

func (r *memEntryRepo) Delete(ctx context.Context, id int) error {
	if _, ok := r.entries[id]; !ok {
		return store.ErrNotFound
	}
	delete(r.entries, id)
	return nil
}

// plainHasher keeps test passwords readable while still exercising the
// hash-before-store path.
type plainHasher struct{}

func (plainHasher) Hash(plaintext string) (string, error) { return "#" + plaintext, nil }

func (plainHasher) Matches(plaintext, hash string) bool { return hash == "#"+plaintext }
