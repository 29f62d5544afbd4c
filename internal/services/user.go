package services

import (
	"context"
	"errors"
	"log/slog"

	"github.com/ggeraldodequeiroz/minhas-financas-backend/internal/store"
	"github.com/ggeraldodequeiroz/minhas-financas-backend/types"
)

const duplicateEmailMessage = "there is already a user registered with this email"

// UserRepository defines persistence operations for users.
type UserRepository interface {
	GetByID(ctx context.Context, id int) (types.User, error)
	GetByEmail(ctx context.Context, email string) (types.User, error)
	ExistsByEmail(ctx context.Context, email string) (bool, error)
	Create(ctx context.Context, user types.User) (types.User, error)
}

// UserService encapsulates registration and authentication use-cases.
type UserService struct {
	repo   UserRepository
	hasher PasswordHasher
}

func NewUserService(repo UserRepository, hasher PasswordHasher) *UserService {
	return &UserService{repo: repo, hasher: hasher}
}

// Authenticate resolves the user for the given email and verifies the
// plaintext password against the stored hash. It returns store.ErrNotFound
// when no user exists for the email and ErrInvalidCredentials when the
// password does not match.
func (s *UserService) Authenticate(ctx context.Context, email, password string) (types.User, error) {
	user, err := s.repo.GetByEmail(ctx, email)
	if err != nil {
		return types.User{}, err
	}

	if !s.hasher.Matches(password, user.PasswordHash) {
		return types.User{}, ErrInvalidCredentials
	}

	return user, nil
}

// ValidateEmail fails with a BusinessRuleError when the email is already
// registered. It has no side effects.
func (s *UserService) ValidateEmail(ctx context.Context, email string) error {
	exists, err := s.repo.ExistsByEmail(ctx, email)
	if err != nil {
		return err
	}
	if exists {
		return businessRule(duplicateEmailMessage)
	}
	return nil
}

// Register validates email uniqueness, hashes the plaintext password and
// persists the user. The database unique constraint backs the pre-check:
// a concurrent registration losing the race surfaces as the same
// BusinessRuleError.
func (s *UserService) Register(ctx context.Context, user types.User, password string) (types.User, error) {
	if err := s.ValidateEmail(ctx, user.Email); err != nil {
		return types.User{}, err
	}

	hashed, err := s.hasher.Hash(password)
	if err != nil {
		return types.User{}, err
	}
	user.PasswordHash = hashed

	created, err := s.repo.Create(ctx, user)
	if err != nil {
		if errors.Is(err, store.ErrDuplicateEmail) {
			return types.User{}, businessRule(duplicateEmailMessage)
		}
		return types.User{}, err
	}

	slog.InfoContext(ctx, "user registered", "user_id", created.ID)
	return created, nil
}

// GetByID resolves a user by id, returning store.ErrNotFound when absent.
func (s *UserService) GetByID(ctx context.Context, id int) (types.User, error) {
	return s.repo.GetByID(ctx, id)
}
