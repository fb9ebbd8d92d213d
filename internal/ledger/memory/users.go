package memory

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/guhrizzo/my-wallet/internal/storage"
)

// UserStore keeps accounts in memory. Like the transaction Store it exists
// for tests and for running without a database file; accounts vanish on
// restart.
type UserStore struct {
	mu      sync.Mutex
	byEmail map[string]storage.User
}

func NewUserStore() *UserStore {
	return &UserStore{byEmail: make(map[string]storage.User)}
}

func (s *UserStore) CreateUser(ctx context.Context, email, passwordHash string) (storage.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	key := strings.ToLower(email)
	if _, exists := s.byEmail[key]; exists {
		return storage.User{}, storage.ErrDuplicateEmail
	}

	u := storage.User{
		ID:           uuid.NewString(),
		Email:        email,
		PasswordHash: passwordHash,
		CreatedAt:    time.Now().UTC(),
	}
	s.byEmail[key] = u
	return u, nil
}

func (s *UserStore) GetUserByEmail(ctx context.Context, email string) (storage.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	u, exists := s.byEmail[strings.ToLower(email)]
	if !exists {
		return storage.User{}, storage.ErrUserNotFound
	}
	return u, nil
}
