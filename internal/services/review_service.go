package services

import (
	"context"

	"github.com/osmium8/reviews-backend/internal/apperr"
	"github.com/osmium8/reviews-backend/internal/domain"
	"github.com/osmium8/reviews-backend/internal/metrics"
	"github.com/osmium8/reviews-backend/internal/repos"
	"github.com/osmium8/reviews-backend/internal/validate"
)

type ReviewInput struct {
	User        string  `json:"user" form:"user" validate:"omitempty,objectid"`
	Product     string  `json:"product" form:"product"`
	Rating      float64 `json:"rating" form:"rating" validate:"required"`
	Description string  `json:"description" form:"description" validate:"required"`
}

type ReviewService struct {
	Reviews  repos.ReviewRepo
	Products repos.ProductRepo
	pop      populator
}

func NewReviewService(st *repos.Store) *ReviewService {
	return &ReviewService{Reviews: st.Reviews, Products: st.Products, pop: newPopulator(st)}
}

// List returns every review newest first with user and product populated.
func (s *ReviewService) List(ctx context.Context) ([]domain.ReviewDetail, error) {
	reviews, err := s.Reviews.Find(ctx, domain.ReviewFilter{})
	if err != nil {
		return nil, err
	}
	return s.pop.reviewDetails(ctx, reviews)
}

func (s *ReviewService) Get(ctx context.Context, id string) (*domain.ReviewDetail, error) {
	rv, err := s.Reviews.Get(ctx, id)
	if err != nil {
		return nil, storeErr(err, "review", id)
	}
	details, err := s.pop.reviewDetails(ctx, []domain.Review{*rv})
	if err != nil {
		return nil, err
	}
	return &details[0], nil
}

// ForProduct returns the product's approved reviews, newest first, with their users.
func (s *ReviewService) ForProduct(ctx context.Context, productID string) ([]domain.ReviewWithUser, error) {
	reviews, err := s.Reviews.Find(ctx, domain.ReviewFilter{ProductID: &productID, Approved: domain.Ptr(true)})
	if err != nil {
		return nil, err
	}
	return s.pop.reviewsWithUser(ctx, reviews)
}

func (s *ReviewService) ByUser(ctx context.Context, userID string) ([]domain.ReviewDetail, error) {
	reviews, err := s.Reviews.Find(ctx, domain.ReviewFilter{UserID: &userID})
	if err != nil {
		return nil, err
	}
	return s.pop.reviewDetails(ctx, reviews)
}

// CountApproved counts approved reviews, for one product when productID is set.
func (s *ReviewService) CountApproved(ctx context.Context, productID string) (int64, error) {
	f := domain.ReviewFilter{Approved: domain.Ptr(true)}
	if productID != "" {
		f.ProductID = &productID
	}
	return s.Reviews.Count(ctx, f)
}

// Create writes a review for in.Product and appends it to that product.
func (s *ReviewService) Create(ctx context.Context, in ReviewInput) (*domain.Review, error) {
	if _, ok := validate.ID(in.Product); !ok {
		return nil, apperr.InvalidInput("Invalid Product Id")
	}
	rv, _, err := s.AddToProduct(ctx, in.Product, in)
	return rv, err
}

// AddToProduct checks the product exists before writing, so no review is left orphaned.
func (s *ReviewService) AddToProduct(ctx context.Context, productID string, in ReviewInput) (*domain.Review, *domain.Product, error) {
	if err := validate.Struct(in); err != nil {
		return nil, nil, err
	}
	if _, err := s.Products.Get(ctx, productID); err != nil {
		return nil, nil, storeErr(err, "product", productID)
	}
	rv := &domain.Review{
		UserID:      in.User,
		ProductID:   productID,
		Rating:      in.Rating,
		Description: in.Description,
	}
	if err := s.Reviews.Create(ctx, rv); err != nil {
		return nil, nil, err
	}
	p, err := s.Products.AppendReview(ctx, productID, rv.ID)
	if err != nil {
		return nil, nil, storeErr(err, "product", productID)
	}
	metrics.ReviewCreated()
	return rv, p, nil
}

func (s *ReviewService) SetApproved(ctx context.Context, id string, approved bool) (*domain.Review, error) {
	rv, err := s.Reviews.SetApproved(ctx, id, approved)
	if err != nil {
		return nil, storeErr(err, "review", id)
	}
	return rv, nil
}

// Delete removes only the review; the owning product keeps the dangling id.
func (s *ReviewService) Delete(ctx context.Context, id string) error {
	return storeErr(s.Reviews.Delete(ctx, id), "review", id)
}
