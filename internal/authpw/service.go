// Package authpw provides email/password sign-in for editors and admins.
package authpw

import (
	"context"
	"errors"
	"fmt"
	"net/mail"
	"strings"

	"golang.org/x/crypto/bcrypt"

	"contentgroups/api/internal/rbac"
	"contentgroups/api/internal/store"
	"contentgroups/api/internal/util"
)

var (
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrWeakPassword       = errors.New("password must be at least 8 characters")
)

// Service provides email/password authentication
type Service struct {
	store UserStore
	cost  int
}

// UserStore defines the storage interface for auth
type UserStore interface {
	GetUserByEmail(ctx context.Context, email string) (store.User, error)
	GetUserByID(ctx context.Context, id string) (store.User, error)
	CreateUser(ctx context.Context, user store.User) error
}

// NewService creates a new auth service
func NewService(store UserStore) *Service {
	return &Service{store: store, cost: bcrypt.DefaultCost}
}

// CreateUserRequest contains account parameters
type CreateUserRequest struct {
	Email       string
	Password    string
	DisplayName string
	Role        string
}

// CreateUser hashes the password and stores a new account.
func (s *Service) CreateUser(ctx context.Context, req CreateUserRequest) (store.User, error) {
	email := strings.TrimSpace(req.Email)
	displayName := strings.TrimSpace(req.DisplayName)
	if email == "" || req.Password == "" || displayName == "" {
		return store.User{}, errors.New("email, password, and display name are required")
	}
	if _, err := mail.ParseAddress(email); err != nil {
		return store.User{}, fmt.Errorf("invalid email: %w", err)
	}
	if len(req.Password) < 8 {
		return store.User{}, ErrWeakPassword
	}

	if _, err := s.store.GetUserByEmail(ctx, email); err == nil {
		return store.User{}, errors.New("email already registered")
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), s.cost)
	if err != nil {
		return store.User{}, fmt.Errorf("hash password: %w", err)
	}

	user := store.User{
		ID:           util.NewID(util.PrefixUser),
		DisplayName:  displayName,
		Email:        strings.ToLower(email),
		PasswordHash: string(hash),
		Role:         string(rbac.Normalize(req.Role)),
	}
	if err := s.store.CreateUser(ctx, user); err != nil {
		return store.User{}, fmt.Errorf("create user: %w", err)
	}
	return user, nil
}

// SignIn authenticates a user
func (s *Service) SignIn(ctx context.Context, email, password string) (store.User, error) {
	email = strings.TrimSpace(email)
	if email == "" || password == "" {
		return store.User{}, ErrInvalidCredentials
	}

	// Look up user by email
	user, err := s.store.GetUserByEmail(ctx, email)
	if err != nil {
		return store.User{}, ErrInvalidCredentials
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return store.User{}, ErrInvalidCredentials
	}
	return user, nil
}
