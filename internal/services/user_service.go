package services

import (
	"context"
	"errors"
	"strings"

	"github.com/osmium8/reviews-backend/internal/apperr"
	"github.com/osmium8/reviews-backend/internal/domain"
	"github.com/osmium8/reviews-backend/internal/repos"
	"github.com/osmium8/reviews-backend/internal/validate"
)

type UserInput struct {
	Name      string `json:"name" validate:"required"`
	Email     string `json:"email" validate:"required,email"`
	Password  string `json:"password"`
	Phone     string `json:"phone"`
	IsAdmin   bool   `json:"isAdmin"`
	Street    string `json:"street"`
	Apartment string `json:"apartment"`
	Zip       string `json:"zip"`
	City      string `json:"city"`
	Country   string `json:"country"`
}

func (in UserInput) apply(u *domain.User) {
	u.Name = in.Name
	u.Email = strings.TrimSpace(in.Email)
	u.Phone = in.Phone
	u.IsAdmin = in.IsAdmin
	u.Street = in.Street
	u.Apartment = in.Apartment
	u.Zip = in.Zip
	u.City = in.City
	u.Country = in.Country
}

type UserService struct {
	Users repos.UserRepo
}

func NewUserService(users repos.UserRepo) *UserService {
	return &UserService{Users: users}
}

func (s *UserService) List(ctx context.Context) ([]domain.User, error) {
	return s.Users.List(ctx)
}

func (s *UserService) Get(ctx context.Context, id string) (*domain.User, error) {
	u, err := s.Users.Get(ctx, id)
	if err != nil {
		return nil, storeErr(err, "user", id)
	}
	return u, nil
}

func (s *UserService) Count(ctx context.Context) (int64, error) {
	return s.Users.Count(ctx)
}

// Create is the admin path and may grant isAdmin.
func (s *UserService) Create(ctx context.Context, in UserInput) (*domain.User, error) {
	if err := validate.Struct(in); err != nil {
		return nil, err
	}
	if in.Password == "" {
		return nil, apperr.InvalidInput("password is required")
	}
	return s.create(ctx, in)
}

// Register is the public path: the password must be strong and isAdmin is never honoured.
func (s *UserService) Register(ctx context.Context, in UserInput) (*domain.User, error) {
	if err := validate.Struct(in); err != nil {
		return nil, err
	}
	if !validate.Password(in.Password) {
		return nil, apperr.InvalidInput("password must be 8-72 characters with upper, lower, digit and symbol")
	}
	in.IsAdmin = false
	return s.create(ctx, in)
}

func (s *UserService) create(ctx context.Context, in UserInput) (*domain.User, error) {
	hash, err := hashPassword(in.Password)
	if err != nil {
		return nil, apperr.InvalidInput("password cannot be used")
	}
	u := &domain.User{Hash: hash}
	in.apply(u)
	if err := s.Users.Create(ctx, u); err != nil {
		if errors.Is(err, repos.ErrDuplicate) {
			return nil, apperr.AlreadyExists("user", "email", u.Email)
		}
		return nil, err
	}
	return u, nil
}

// Update replaces profile fields; the password changes only when one is supplied.
func (s *UserService) Update(ctx context.Context, id string, in UserInput) (*domain.User, error) {
	u, err := s.Users.Get(ctx, id)
	if err != nil {
		return nil, storeErr(err, "user", id)
	}
	if err := validate.Struct(in); err != nil {
		return nil, err
	}
	if in.Password != "" {
		if u.Hash, err = hashPassword(in.Password); err != nil {
			return nil, apperr.InvalidInput("password cannot be used")
		}
	}
	in.apply(u)
	if err := s.Users.Update(ctx, u); err != nil {
		if errors.Is(err, repos.ErrDuplicate) {
			return nil, apperr.AlreadyExists("user", "email", u.Email)
		}
		return nil, storeErr(err, "user", id)
	}
	return u, nil
}

func (s *UserService) Delete(ctx context.Context, id string) error {
	return storeErr(s.Users.Delete(ctx, id), "user", id)
}
