package services

import (
	"context"
	"errors"

	"github.com/osmium8/reviews-backend/internal/apperr"
	"github.com/osmium8/reviews-backend/internal/domain"
	"github.com/osmium8/reviews-backend/internal/repos"
)

// populator resolves references with one batched lookup per collection and level.
// Dangling references resolve to nil (single refs) or are skipped (lists).
type populator struct {
	categories repos.CategoryRepo
	products   repos.ProductRepo
	reviews    repos.ReviewRepo
	users      repos.UserRepo
}

func newPopulator(st *repos.Store) populator {
	return populator{categories: st.Categories, products: st.Products, reviews: st.Reviews, users: st.Users}
}

func (p populator) categorize(ctx context.Context, products []domain.Product) (map[string]*domain.CategorizedProduct, error) {
	ids := make([]string, 0, len(products))
	for _, pr := range products {
		ids = append(ids, pr.CategoryID)
	}
	cats, err := p.categories.ByIDs(ctx, ids)
	if err != nil {
		return nil, err
	}
	byID := make(map[string]*domain.Category, len(cats))
	for i := range cats {
		byID[cats[i].ID] = &cats[i]
	}
	out := make(map[string]*domain.CategorizedProduct, len(products))
	for _, pr := range products {
		out[pr.ID] = &domain.CategorizedProduct{Product: pr, Category: byID[pr.CategoryID]}
	}
	return out, nil
}

// productTrees populates category, and reviews with their product and that product's category.
func (p populator) productTrees(ctx context.Context, products []domain.Product) ([]domain.ProductDetail, error) {
	var reviewIDs []string
	for _, pr := range products {
		reviewIDs = append(reviewIDs, pr.ReviewIDs...)
	}
	reviews, err := p.reviews.ByIDs(ctx, reviewIDs)
	if err != nil {
		return nil, err
	}
	reviewByID := make(map[string]domain.Review, len(reviews))
	for _, rv := range reviews {
		reviewByID[rv.ID] = rv
	}

	all, err := p.withReferencedProducts(ctx, products, reviews)
	if err != nil {
		return nil, err
	}
	categorized, err := p.categorize(ctx, all)
	if err != nil {
		return nil, err
	}

	out := make([]domain.ProductDetail, 0, len(products))
	for _, pr := range products {
		d := domain.ProductDetail{
			Product:  pr,
			Category: categorized[pr.ID].Category,
			Reviews:  make([]domain.ReviewWithProduct, 0, len(pr.ReviewIDs)),
		}
		for _, rid := range pr.ReviewIDs {
			rv, ok := reviewByID[rid]
			if !ok {
				continue
			}
			d.Reviews = append(d.Reviews, domain.ReviewWithProduct{Review: rv, Product: categorized[rv.ProductID]})
		}
		d.TotalReviews = len(d.Reviews)
		out = append(out, d)
	}
	return out, nil
}

// withReferencedProducts adds the products reviews point at that are not already loaded.
func (p populator) withReferencedProducts(ctx context.Context, have []domain.Product, reviews []domain.Review) ([]domain.Product, error) {
	known := make(map[string]bool, len(have))
	for _, pr := range have {
		known[pr.ID] = true
	}
	var missing []string
	for _, rv := range reviews {
		if rv.ProductID != "" && !known[rv.ProductID] {
			missing = append(missing, rv.ProductID)
		}
	}
	if len(missing) == 0 {
		return have, nil
	}
	extra, err := p.products.ByIDs(ctx, missing)
	if err != nil {
		return nil, err
	}
	all := make([]domain.Product, 0, len(have)+len(extra))
	all = append(all, have...)
	return append(all, extra...), nil
}

func (p populator) usersByID(ctx context.Context, reviews []domain.Review) (map[string]*domain.User, error) {
	ids := make([]string, 0, len(reviews))
	for _, rv := range reviews {
		ids = append(ids, rv.UserID)
	}
	users, err := p.users.ByIDs(ctx, ids)
	if err != nil {
		return nil, err
	}
	out := make(map[string]*domain.User, len(users))
	for i := range users {
		out[users[i].ID] = &users[i]
	}
	return out, nil
}

func (p populator) reviewsWithUser(ctx context.Context, reviews []domain.Review) ([]domain.ReviewWithUser, error) {
	users, err := p.usersByID(ctx, reviews)
	if err != nil {
		return nil, err
	}
	out := make([]domain.ReviewWithUser, 0, len(reviews))
	for _, rv := range reviews {
		out = append(out, domain.ReviewWithUser{Review: rv, User: users[rv.UserID]})
	}
	return out, nil
}

// reviewDetails populates user, and product with its category.
func (p populator) reviewDetails(ctx context.Context, reviews []domain.Review) ([]domain.ReviewDetail, error) {
	users, err := p.usersByID(ctx, reviews)
	if err != nil {
		return nil, err
	}
	products, err := p.withReferencedProducts(ctx, nil, reviews)
	if err != nil {
		return nil, err
	}
	categorized, err := p.categorize(ctx, products)
	if err != nil {
		return nil, err
	}
	out := make([]domain.ReviewDetail, 0, len(reviews))
	for _, rv := range reviews {
		out = append(out, domain.ReviewDetail{Review: rv, User: users[rv.UserID], Product: categorized[rv.ProductID]})
	}
	return out, nil
}

// storeErr maps a missing document to a 404 for resource id.
func storeErr(err error, resource, id string) error {
	if errors.Is(err, repos.ErrNotFound) {
		return apperr.NotFound(resource, id)
	}
	return err
}
