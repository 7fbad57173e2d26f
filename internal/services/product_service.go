package services

import (
	"context"
	"errors"
	"math"
	"mime/multipart"
	"net/http"

	"github.com/osmium8/reviews-backend/internal/apperr"
	"github.com/osmium8/reviews-backend/internal/domain"
	"github.com/osmium8/reviews-backend/internal/metrics"
	"github.com/osmium8/reviews-backend/internal/repos"
	"github.com/osmium8/reviews-backend/internal/upload"
	"github.com/osmium8/reviews-backend/internal/validate"
)

// ErrDuplicateCode rejects a create whose code is already taken.
var ErrDuplicateCode = &apperr.AppError{
	Code:    "DUPLICATE_CODE",
	Message: "Product already exists",
	Status:  http.StatusBadRequest,
	Err:     apperr.ErrInvalidInput,
}

// ProductInput is decoded from JSON or multipart form fields.
type ProductInput struct {
	Code        string  `json:"code" form:"code" validate:"required"`
	Name        string  `json:"name" form:"name" validate:"required"`
	Description string  `json:"description" form:"description" validate:"required"`
	Brand       string  `json:"brand" form:"brand"`
	Price       float64 `json:"price" form:"price" validate:"gte=0"`
	Category    string  `json:"category" form:"category"`
	ForReview   *bool   `json:"forReview" form:"forReview"`
	IsFeatured  bool    `json:"isFeatured" form:"isFeatured"`
}

// forReview applies the schema default: new and replaced products are held for review.
func (in ProductInput) forReview() bool {
	if in.ForReview == nil {
		return true
	}
	return *in.ForReview
}

type ProductService struct {
	Products   repos.ProductRepo
	Categories repos.CategoryRepo
	Reviews    repos.ReviewRepo
	Uploads    *upload.Store
	pop        populator
}

func NewProductService(st *repos.Store, uploads *upload.Store) *ProductService {
	return &ProductService{
		Products:   st.Products,
		Categories: st.Categories,
		Reviews:    st.Reviews,
		Uploads:    uploads,
		pop:        newPopulator(st),
	}
}

// List returns visible products matching q as product trees.
func (s *ProductService) List(ctx context.Context, q domain.ProductQuery) ([]domain.ProductDetail, error) {
	products, err := s.Products.Find(ctx, q.PublicFilter())
	if err != nil {
		return nil, err
	}
	return s.pop.productTrees(ctx, products)
}

// ListAll ignores visibility; code, when set, must match exactly.
func (s *ProductService) ListAll(ctx context.Context, code string) ([]domain.ProductDetail, error) {
	var f domain.ProductFilter
	if code != "" {
		f.ExactCode = &code
	}
	products, err := s.Products.Find(ctx, f)
	if err != nil {
		return nil, err
	}
	return s.pop.productTrees(ctx, products)
}

func (s *ProductService) Detail(ctx context.Context, id string) (*domain.ProductDetail, error) {
	p, err := s.Products.Get(ctx, id)
	if err != nil {
		return nil, storeErr(err, "product", id)
	}
	trees, err := s.pop.productTrees(ctx, []domain.Product{*p})
	if err != nil {
		return nil, err
	}
	return &trees[0], nil
}

func (s *ProductService) Count(ctx context.Context) (int64, error) {
	return s.Products.Count(ctx, domain.ProductFilter{ForReview: domain.Ptr(false)})
}

// Featured returns up to limit visible featured products; limit 0 means all.
func (s *ProductService) Featured(ctx context.Context, limit int64) ([]domain.Product, error) {
	if limit < 0 {
		return nil, apperr.InvalidInput("count must not be negative")
	}
	return s.Products.Find(ctx, domain.ProductFilter{
		ForReview: domain.Ptr(false),
		Featured:  domain.Ptr(true),
		Limit:     limit,
	})
}

// AverageRating is the half-up rounded mean over the product's approved reviews, 0 when none.
func (s *ProductService) AverageRating(ctx context.Context, id string) (int, error) {
	p, err := s.Products.Get(ctx, id)
	if err != nil {
		return 0, storeErr(err, "product", id)
	}
	reviews, err := s.Reviews.ByIDs(ctx, p.ReviewIDs)
	if err != nil {
		return 0, err
	}
	return averageRating(reviews), nil
}

func averageRating(reviews []domain.Review) int {
	var sum float64
	n := 0
	for _, rv := range reviews {
		if rv.IsApproved {
			sum += rv.Rating
			n++
		}
	}
	if n == 0 {
		return 0
	}
	return int(math.Floor(sum/float64(n) + 0.5))
}

// Create checks the image type, category and code before anything is written.
func (s *ProductService) Create(ctx context.Context, in ProductInput, image *multipart.FileHeader, baseURL string) (*domain.Product, error) {
	if err := upload.Check(image); err != nil {
		return nil, apperr.InvalidInput(err.Error())
	}
	if err := validate.Struct(in); err != nil {
		return nil, err
	}
	if err := s.checkCategory(ctx, in.Category); err != nil {
		return nil, err
	}
	n, err := s.Products.Count(ctx, domain.ProductFilter{ExactCode: &in.Code})
	if err != nil {
		return nil, err
	}
	if n > 0 {
		return nil, ErrDuplicateCode
	}
	if image == nil {
		return nil, apperr.InvalidInput("No image in the request")
	}
	name, err := s.Uploads.Save(image)
	if err != nil {
		return nil, err
	}
	metrics.ImagesStored("image", 1)

	p := &domain.Product{
		Code:        in.Code,
		Name:        in.Name,
		Description: in.Description,
		Image:       upload.URL(baseURL, name),
		Brand:       in.Brand,
		Price:       in.Price,
		CategoryID:  in.Category,
		ForReview:   in.forReview(),
		IsFeatured:  in.IsFeatured,
	}
	if err := s.Products.Create(ctx, p); err != nil {
		return nil, err
	}
	return p, nil
}

// Update replaces the editable fields. An empty category keeps the current one and
// a nil image keeps the current image.
func (s *ProductService) Update(ctx context.Context, id string, in ProductInput, image *multipart.FileHeader, baseURL string) (*domain.Product, error) {
	if err := upload.Check(image); err != nil {
		return nil, apperr.InvalidInput(err.Error())
	}
	p, err := s.Products.Get(ctx, id)
	if err != nil {
		return nil, storeErr(err, "product", id)
	}
	if err := validate.Struct(in); err != nil {
		return nil, err
	}
	if in.Category != "" {
		if err := s.checkCategory(ctx, in.Category); err != nil {
			return nil, err
		}
		p.CategoryID = in.Category
	}
	if image != nil {
		name, err := s.Uploads.Save(image)
		if err != nil {
			return nil, err
		}
		metrics.ImagesStored("image", 1)
		p.Image = upload.URL(baseURL, name)
	}
	p.Code = in.Code
	p.Name = in.Name
	p.Description = in.Description
	p.Brand = in.Brand
	p.Price = in.Price
	p.ForReview = in.forReview()
	p.IsFeatured = in.IsFeatured

	if err := s.Products.Update(ctx, p); err != nil {
		return nil, storeErr(err, "product", id)
	}
	return s.Products.Get(ctx, id)
}

// SetGallery replaces the gallery with the uploaded files.
func (s *ProductService) SetGallery(ctx context.Context, id string, files []*multipart.FileHeader, baseURL string) (*domain.Product, error) {
	if len(files) > upload.MaxGallery {
		return nil, apperr.InvalidInput(upload.ErrTooManyFiles.Error())
	}
	if err := upload.Check(files...); err != nil {
		return nil, apperr.InvalidInput(err.Error())
	}
	if _, err := s.Products.Get(ctx, id); err != nil {
		return nil, storeErr(err, "product", id)
	}
	names, err := s.Uploads.SaveAll(files)
	if err != nil {
		return nil, err
	}
	metrics.ImagesStored("gallery", len(names))
	urls := make([]string, 0, len(names))
	for _, name := range names {
		urls = append(urls, upload.URL(baseURL, name))
	}
	p, err := s.Products.SetImages(ctx, id, urls)
	if err != nil {
		return nil, storeErr(err, "product", id)
	}
	return p, nil
}

// Delete removes the product and then every review it references. It reports how
// many reviews went with it.
func (s *ProductService) Delete(ctx context.Context, id string) (int64, error) {
	p, err := s.Products.Delete(ctx, id)
	if err != nil {
		return 0, storeErr(err, "product", id)
	}
	return s.Reviews.DeleteMany(ctx, p.ReviewIDs)
}

func (s *ProductService) Photos(context.Context) ([]string, error) {
	return s.Uploads.List()
}

func (s *ProductService) checkCategory(ctx context.Context, id string) error {
	if _, ok := validate.ID(id); !ok {
		return apperr.InvalidInput("Invalid Category")
	}
	_, err := s.Categories.Get(ctx, id)
	if errors.Is(err, repos.ErrNotFound) {
		return apperr.InvalidInput("Invalid Category")
	}
	return err
}
