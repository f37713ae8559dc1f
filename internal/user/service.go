package user

import (
	"context"
	"errors"
	"fmt"
	"regexp"

	"golang.org/x/crypto/bcrypt"
)

var (
	// ErrInvalidCredentials is returned when email or password is incorrect.
	// Deliberately generic so callers cannot probe which part failed.
	ErrInvalidCredentials = errors.New("invalid credentials")
	// ErrInvalidNIK is returned when a NIK is not exactly 16 digits.
	ErrInvalidNIK = errors.New("nik must be exactly 16 digits")
	// ErrInvalidPhone is returned when a phone number has the wrong shape.
	ErrInvalidPhone = errors.New("phone number must match 08 followed by 8-12 digits")
)

var (
	nikRe   = regexp.MustCompile(`^[0-9]{16}$`)
	phoneRe = regexp.MustCompile(`^08[0-9]{8,12}$`)
)

// ValidNIK reports whether s is exactly 16 numeric digits.
func ValidNIK(s string) bool { return nikRe.MatchString(s) }

// ValidPhone reports whether s is an accepted local mobile number.
func ValidPhone(s string) bool { return phoneRe.MatchString(s) }

// Store is the persistence surface the service needs.
type Store interface {
	Create(ctx context.Context, u *User) error
	FindByEmail(ctx context.Context, email string) (*User, error)
	FindByID(ctx context.Context, id string) (*User, error)
}

// Service handles account registration and credential checks.
type Service struct {
	store      Store
	bcryptCost int
}

// NewService creates a service backed by a store.
func NewService(store Store, bcryptCost int) *Service {
	if bcryptCost <= 0 {
		bcryptCost = bcrypt.DefaultCost
	}
	return &Service{store: store, bcryptCost: bcryptCost}
}

// RegisterInput carries validated registration fields.
type RegisterInput struct {
	Name        string
	Email       string
	Password    string
	NIK         string
	PhoneNumber string
}

// Register creates an account with a hashed credential.
func (s *Service) Register(ctx context.Context, in RegisterInput) (*User, error) {
	if !ValidNIK(in.NIK) {
		return nil, ErrInvalidNIK
	}
	if in.PhoneNumber != "" && !ValidPhone(in.PhoneNumber) {
		return nil, ErrInvalidPhone
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(in.Password), s.bcryptCost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	u := &User{
		Name:         in.Name,
		Email:        in.Email,
		NIK:          in.NIK,
		PhoneNumber:  in.PhoneNumber,
		PasswordHash: string(hash),
	}
	if err := s.store.Create(ctx, u); err != nil {
		return nil, err
	}
	return u, nil
}

// Authenticate verifies email+password and returns the matching user.
// Both "no such user" and "wrong password" collapse to ErrInvalidCredentials.
func (s *Service) Authenticate(ctx context.Context, email, password string) (*User, error) {
	u, err := s.store.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}
	if bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(password)) != nil {
		return nil, ErrInvalidCredentials
	}
	return u, nil
}
