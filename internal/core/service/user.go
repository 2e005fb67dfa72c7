package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/yndnr/storefront-go/internal/core/domain"
	"github.com/yndnr/storefront-go/internal/storage"
)

// Collection names.
const (
	CollectionUsers      = "users"
	CollectionUserEmails = "user_emails"
	CollectionProducts   = "products"
	CollectionCarts      = "carts"
	CollectionOrders     = "orders"
)

// emailIndex maps a normalized email to its user.
type emailIndex struct {
	UserID string `json:"user_id"`
}

// UserService handles customer accounts.
type UserService struct {
	users  *storage.Collection[domain.User]
	emails *storage.Collection[emailIndex]
	cost   int
	now    func() time.Time
}

// NewUserService creates a UserService. cost is the bcrypt cost; zero uses
// bcrypt.DefaultCost.
func NewUserService(store storage.DocumentStore, cost int) *UserService {
	if cost == 0 {
		cost = bcrypt.DefaultCost
	}
	return &UserService{
		users:  storage.NewCollection[domain.User](store, CollectionUsers),
		emails: storage.NewCollection[emailIndex](store, CollectionUserEmails),
		cost:   cost,
		now:    time.Now,
	}
}

// RegisterRequest contains parameters for registration.
type RegisterRequest struct {
	Name     string
	Email    string
	Password string
}

// Register creates an account. Emails are unique case-insensitively.
func (s *UserService) Register(ctx context.Context, req *RegisterRequest) (*domain.User, error) {
	name := strings.TrimSpace(req.Name)
	if name == "" {
		return nil, domain.ErrMissingArgument.WithDetails("name")
	}
	email, err := domain.NormalizeEmail(req.Email)
	if err != nil {
		return nil, err
	}
	if len(req.Password) < domain.MinPasswordLength {
		return nil, domain.ErrWeakPassword.WithDetails("password must be at least 8 characters")
	}
	// bcrypt ignores input beyond 72 bytes and GenerateFromPassword rejects it.
	if len(req.Password) > 72 {
		return nil, domain.ErrInvalidArgument.WithDetails("password must be at most 72 bytes")
	}

	id, err := domain.NewID(domain.UserIDPrefix)
	if err != nil {
		return nil, err
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), s.cost)
	if err != nil {
		return nil, domain.ErrInternalServer.WithCause(err)
	}

	if err := s.emails.Create(ctx, email, &emailIndex{UserID: id}); err != nil {
		if errors.Is(err, storage.ErrExists) {
			return nil, domain.ErrUserExists
		}
		return nil, storeError(err, nil)
	}

	user := &domain.User{
		ID:           id,
		Name:         name,
		Email:        email,
		PasswordHash: string(hash),
		CreatedAt:    s.now().UTC(),
	}
	if err := s.users.Create(ctx, id, user); err != nil {
		_ = s.emails.Delete(ctx, email)
		return nil, storeError(err, nil)
	}
	return user, nil
}

// Login checks credentials and returns the matching user. Unknown emails
// and wrong passwords are indistinguishable to the caller.
func (s *UserService) Login(ctx context.Context, email, password string) (*domain.User, error) {
	email, err := domain.NormalizeEmail(email)
	if err != nil {
		return nil, domain.ErrInvalidCredentials
	}

	idx, err := s.emails.Get(ctx, email)
	if err != nil {
		return nil, storeError(err, domain.ErrInvalidCredentials)
	}
	user, err := s.users.Get(ctx, idx.UserID)
	if err != nil {
		return nil, storeError(err, domain.ErrInvalidCredentials)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return nil, domain.ErrInvalidCredentials
	}
	return user, nil
}

// Get returns a user by ID.
func (s *UserService) Get(ctx context.Context, id string) (*domain.User, error) {
	if id == "" {
		return nil, domain.ErrMissingArgument.WithDetails("userId")
	}
	user, err := s.users.Get(ctx, id)
	if err != nil {
		return nil, storeError(err, domain.ErrUserNotFound)
	}
	return user, nil
}

// Exists reports whether a user ID is registered.
func (s *UserService) Exists(ctx context.Context, id string) error {
	_, err := s.Get(ctx, id)
	return err
}
