package auth

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/aryan0dhankhar/clientdesk/internal/domain"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

// UserStore is an in-process domain.UserRepository for deployments whose
// client data lives in the hosted backend and has no local user table.
type UserStore struct {
	mu    sync.RWMutex
	users map[string]*domain.User // id -> user
}

// NewUserStore creates a user store seeded with email -> password pairs
func NewUserStore(seeds map[string]string) (*UserStore, error) {
	store := &UserStore{users: make(map[string]*domain.User)}
	for email, password := range seeds {
		if err := store.AddUser(email, password); err != nil {
			return nil, err
		}
	}
	return store, nil
}

// AddUser adds an active user with a bcrypt-hashed password.
// The username is the local part of the email.
func (us *UserStore) AddUser(email, password string) error {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("failed to hash password for %s: %w", email, err)
	}
	username, _, _ := strings.Cut(email, "@")
	return us.Create(context.Background(), &domain.User{
		Email:        strings.ToLower(email),
		Username:     username,
		PasswordHash: string(hash),
		IsActive:     true,
	})
}

func (us *UserStore) Create(_ context.Context, user *domain.User) error {
	us.mu.Lock()
	defer us.mu.Unlock()

	for _, u := range us.users {
		if u.Email == user.Email || u.Username == user.Username {
			return fmt.Errorf("failed to create user: %s already exists", user.Email)
		}
	}
	now := time.Now().UTC()
	user.ID = uuid.NewString()
	user.CreatedAt = now
	user.UpdatedAt = now
	stored := *user
	us.users[user.ID] = &stored
	return nil
}

func (us *UserStore) GetByID(_ context.Context, id string) (*domain.User, error) {
	return us.find(func(u *domain.User) bool { return u.ID == id })
}

func (us *UserStore) GetByEmail(_ context.Context, email string) (*domain.User, error) {
	email = strings.ToLower(email)
	return us.find(func(u *domain.User) bool { return u.Email == email && u.IsActive })
}

func (us *UserStore) GetByUsername(_ context.Context, username string) (*domain.User, error) {
	return us.find(func(u *domain.User) bool { return u.Username == username && u.IsActive })
}

func (us *UserStore) Update(_ context.Context, user *domain.User) error {
	us.mu.Lock()
	defer us.mu.Unlock()

	if _, ok := us.users[user.ID]; !ok {
		return fmt.Errorf("user %w", domain.ErrNotFound)
	}
	user.UpdatedAt = time.Now().UTC()
	stored := *user
	us.users[user.ID] = &stored
	return nil
}

func (us *UserStore) find(match func(*domain.User) bool) (*domain.User, error) {
	us.mu.RLock()
	defer us.mu.RUnlock()

	for _, u := range us.users {
		if match(u) {
			out := *u
			return &out, nil
		}
	}
	return nil, fmt.Errorf("user %w", domain.ErrNotFound)
}

var _ domain.UserRepository = (*UserStore)(nil)
