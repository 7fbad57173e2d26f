package repos

import (
	"context"
	"errors"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/osmium8/reviews-backend/internal/config"
	"github.com/osmium8/reviews-backend/internal/domain"
)

var (
	// ErrNotFound means no document matched; list queries return empty slices instead.
	ErrNotFound = errors.New("document not found")
	// ErrDuplicate means a unique field (user email) already exists.
	ErrDuplicate = errors.New("duplicate key")
)

type CategoryRepo interface {
	List(ctx context.Context) ([]domain.Category, error)
	Get(ctx context.Context, id string) (*domain.Category, error)
	ByIDs(ctx context.Context, ids []string) ([]domain.Category, error)
	Create(ctx context.Context, c *domain.Category) error
	Update(ctx context.Context, c *domain.Category) error
	Delete(ctx context.Context, id string) error
}

type ProductRepo interface {
	Find(ctx context.Context, f domain.ProductFilter) ([]domain.Product, error)
	Count(ctx context.Context, f domain.ProductFilter) (int64, error)
	Get(ctx context.Context, id string) (*domain.Product, error)
	ByIDs(ctx context.Context, ids []string) ([]domain.Product, error)
	Create(ctx context.Context, p *domain.Product) error
	// Update writes the editable fields; reviews, gallery, rating and dateCreated are left alone.
	Update(ctx context.Context, p *domain.Product) error
	SetImages(ctx context.Context, id string, images []string) (*domain.Product, error)
	AppendReview(ctx context.Context, id, reviewID string) (*domain.Product, error)
	// Delete removes the product and returns it as it was.
	Delete(ctx context.Context, id string) (*domain.Product, error)
}

type ReviewRepo interface {
	// Find returns matching reviews newest first.
	Find(ctx context.Context, f domain.ReviewFilter) ([]domain.Review, error)
	Count(ctx context.Context, f domain.ReviewFilter) (int64, error)
	Get(ctx context.Context, id string) (*domain.Review, error)
	ByIDs(ctx context.Context, ids []string) ([]domain.Review, error)
	Create(ctx context.Context, r *domain.Review) error
	SetApproved(ctx context.Context, id string, approved bool) (*domain.Review, error)
	Delete(ctx context.Context, id string) error
	DeleteMany(ctx context.Context, ids []string) (int64, error)
}

type UserRepo interface {
	List(ctx context.Context) ([]domain.User, error)
	Get(ctx context.Context, id string) (*domain.User, error)
	ByIDs(ctx context.Context, ids []string) ([]domain.User, error)
	ByEmail(ctx context.Context, email string) (*domain.User, error)
	Create(ctx context.Context, u *domain.User) error
	Update(ctx context.Context, u *domain.User) error
	Delete(ctx context.Context, id string) error
	Count(ctx context.Context) (int64, error)
}

// Store bundles one backend's repositories with its lifecycle.
type Store struct {
	Categories CategoryRepo
	Products   ProductRepo
	Reviews    ReviewRepo
	Users      UserRepo

	Backend string
	closeFn func(ctx context.Context) error
	pingFn  func(ctx context.Context) error
}

// Open connects to MongoDB when the connection string is a mongodb URI and to SQLite otherwise.
func Open(ctx context.Context, cfg config.Config) (*Store, error) {
	if config.IsMongoURI(cfg.ConnectionString) {
		return OpenMongo(ctx, cfg.ConnectionString, cfg.DBName)
	}
	db, err := OpenDB(cfg.ConnectionString)
	if err != nil {
		return nil, err
	}
	return NewSQLStore(db), nil
}

func (s *Store) Ping(ctx context.Context) error {
	if s.pingFn == nil {
		return nil
	}
	return s.pingFn(ctx)
}

func (s *Store) Close(ctx context.Context) error {
	if s.closeFn == nil {
		return nil
	}
	return s.closeFn(ctx)
}

func newID() string { return primitive.NewObjectID().Hex() }

func uniq(ids []string) []string {
	seen := make(map[string]struct{}, len(ids))
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		if id == "" {
			continue
		}
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}
