package services

import (
	"context"
	"errors"

	"golang.org/x/crypto/bcrypt"

	"github.com/osmium8/reviews-backend/internal/auth"
	"github.com/osmium8/reviews-backend/internal/domain"
	"github.com/osmium8/reviews-backend/internal/repos"
)

var ErrBadCreds = errors.New("invalid email or password")

const bcryptCost = 12

type AuthService struct {
	Users  repos.UserRepo
	Tokens *auth.Manager
}

func NewAuthService(users repos.UserRepo, tokens *auth.Manager) *AuthService {
	return &AuthService{Users: users, Tokens: tokens}
}

// Login checks the password and issues an access token carrying the admin flag.
func (s *AuthService) Login(ctx context.Context, email, password string) (string, *domain.User, error) {
	u, err := s.Users.ByEmail(ctx, email)
	if errors.Is(err, repos.ErrNotFound) {
		return "", nil, ErrBadCreds
	}
	if err != nil {
		return "", nil, err
	}
	if bcrypt.CompareHashAndPassword([]byte(u.Hash), []byte(password)) != nil {
		return "", nil, ErrBadCreds
	}
	tok, err := s.Tokens.Issue(u.ID, u.IsAdmin)
	if err != nil {
		return "", nil, err
	}
	return tok, u, nil
}

// EnsureAdmin creates the bootstrap admin once, or promotes an existing account.
// It reports whether anything changed.
func (s *AuthService) EnsureAdmin(ctx context.Context, email, password string) (bool, error) {
	u, err := s.Users.ByEmail(ctx, email)
	switch {
	case errors.Is(err, repos.ErrNotFound):
		hash, err := hashPassword(password)
		if err != nil {
			return false, err
		}
		admin := &domain.User{Name: "admin", Email: email, Hash: hash, IsAdmin: true}
		if err := s.Users.Create(ctx, admin); err != nil {
			if errors.Is(err, repos.ErrDuplicate) {
				return false, nil
			}
			return false, err
		}
		return true, nil
	case err != nil:
		return false, err
	case u.IsAdmin:
		return false, nil
	default:
		u.IsAdmin = true
		return true, s.Users.Update(ctx, u)
	}
}

func hashPassword(password string) (string, error) {
	b, err := bcrypt.GenerateFromPassword([]byte(password), bcryptCost)
	if err != nil {
		return "", err
	}
	return string(b), nil
}
