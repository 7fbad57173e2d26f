package repos

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/osmium8/reviews-backend/internal/domain"
)

type SQLProductRepo struct{ db *sqlx.DB }

func NewProductRepo(db *sqlx.DB) *SQLProductRepo { return &SQLProductRepo{db: db} }

const productColumns = `
    id, code, name, description, image, images_json, brand, price, category_id,
    for_review, reviews_json, rating, is_featured, date_created`

type productRow struct {
	ID          string  `db:"id"`
	Code        string  `db:"code"`
	Name        string  `db:"name"`
	Description string  `db:"description"`
	Image       string  `db:"image"`
	ImagesJSON  string  `db:"images_json"`
	Brand       string  `db:"brand"`
	Price       float64 `db:"price"`
	CategoryID  string  `db:"category_id"`
	ForReview   bool    `db:"for_review"`
	ReviewsJSON string  `db:"reviews_json"`
	Rating      float64 `db:"rating"`
	IsFeatured  bool    `db:"is_featured"`
	DateCreated string  `db:"date_created"`
}

func (row productRow) toDomain() domain.Product {
	p := domain.Product{
		ID:          row.ID,
		Code:        row.Code,
		Name:        row.Name,
		Description: row.Description,
		Image:       row.Image,
		Images:      decodeList(row.ImagesJSON),
		Brand:       row.Brand,
		Price:       row.Price,
		CategoryID:  row.CategoryID,
		ForReview:   row.ForReview,
		ReviewIDs:   decodeList(row.ReviewsJSON),
		Rating:      row.Rating,
		IsFeatured:  row.IsFeatured,
		DateCreated: parseTime(row.DateCreated),
	}
	p.Derive()
	return p
}

func productsFromRows(rows []productRow) []domain.Product {
	out := make([]domain.Product, 0, len(rows))
	for _, row := range rows {
		out = append(out, row.toDomain())
	}
	return out
}

// productWhere translates f into a WHERE clause, one predicate per set field.
func productWhere(f domain.ProductFilter) (string, []any, error) {
	where := []string{"1 = 1"}
	args := []any{}
	if f.ForReview != nil {
		where = append(where, "for_review = ?")
		args = append(args, *f.ForReview)
	}
	if f.Featured != nil {
		where = append(where, "is_featured = ?")
		args = append(args, *f.Featured)
	}
	if len(f.CategoryIDs) > 0 {
		q, a, err := sqlx.In("category_id IN (?)", f.CategoryIDs)
		if err != nil {
			return "", nil, err
		}
		where = append(where, q)
		args = append(args, a...)
	}
	if f.Brand != nil {
		where = append(where, `LOWER(brand) LIKE ? ESCAPE '\'`)
		args = append(args, "%"+likeEscape(strings.ToLower(*f.Brand))+"%")
	}
	if f.Name != nil {
		where = append(where, `LOWER(name) LIKE ? ESCAPE '\'`)
		args = append(args, "%"+likeEscape(strings.ToLower(*f.Name))+"%")
	}
	if f.Code != nil {
		where = append(where, "LOWER(code) = ?")
		args = append(args, strings.ToLower(*f.Code))
	}
	if f.ExactCode != nil {
		where = append(where, "code = ?")
		args = append(args, *f.ExactCode)
	}
	return strings.Join(where, " AND "), args, nil
}

func (r *SQLProductRepo) Find(ctx context.Context, f domain.ProductFilter) ([]domain.Product, error) {
	where, args, err := productWhere(f)
	if err != nil {
		return nil, err
	}
	query := `SELECT` + productColumns + `
  FROM products
  WHERE ` + where + `
  ORDER BY rowid`
	if f.Limit > 0 {
		query += ` LIMIT ?`
		args = append(args, f.Limit)
	}
	var rows []productRow
	if err := r.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("find products: %w", err)
	}
	return productsFromRows(rows), nil
}

func (r *SQLProductRepo) Count(ctx context.Context, f domain.ProductFilter) (int64, error) {
	where, args, err := productWhere(f)
	if err != nil {
		return 0, err
	}
	var n int64
	if err := r.db.GetContext(ctx, &n, `SELECT COUNT(*) FROM products WHERE `+where, args...); err != nil {
		return 0, fmt.Errorf("count products: %w", err)
	}
	return n, nil
}

func (r *SQLProductRepo) Get(ctx context.Context, id string) (*domain.Product, error) {
	var row productRow
	err := r.db.GetContext(ctx, &row, `SELECT`+productColumns+` FROM products WHERE id = ?`, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get product: %w", err)
	}
	p := row.toDomain()
	return &p, nil
}

func (r *SQLProductRepo) ByIDs(ctx context.Context, ids []string) ([]domain.Product, error) {
	ids = uniq(ids)
	if len(ids) == 0 {
		return []domain.Product{}, nil
	}
	query, args, err := sqlx.In(`SELECT`+productColumns+` FROM products WHERE id IN (?)`, ids)
	if err != nil {
		return nil, err
	}
	var rows []productRow
	if err := r.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("products by ids: %w", err)
	}
	return productsFromRows(rows), nil
}

func (r *SQLProductRepo) Create(ctx context.Context, p *domain.Product) error {
	if p.ID == "" {
		p.ID = newID()
	}
	if p.DateCreated.IsZero() {
		p.DateCreated = time.Now()
	}
	p.Derive()
	_, err := r.db.ExecContext(ctx, `
  INSERT INTO products(`+productColumns+`)
  VALUES(?,?,?,?,?,?,?,?,?,?,?,?,?,?)`,
		p.ID, p.Code, p.Name, p.Description, p.Image, encodeList(p.Images), p.Brand, p.Price,
		p.CategoryID, p.ForReview, encodeList(p.ReviewIDs), p.Rating, p.IsFeatured, formatTime(p.DateCreated))
	if err != nil {
		return fmt.Errorf("insert product: %w", err)
	}
	return nil
}

func (r *SQLProductRepo) Update(ctx context.Context, p *domain.Product) error {
	res, err := r.db.ExecContext(ctx, `
  UPDATE products SET
    code = ?, name = ?, description = ?, image = ?, brand = ?, price = ?,
    category_id = ?, for_review = ?, is_featured = ?
  WHERE id = ?`,
		p.Code, p.Name, p.Description, p.Image, p.Brand, p.Price,
		p.CategoryID, p.ForReview, p.IsFeatured, p.ID)
	if err != nil {
		return fmt.Errorf("update product: %w", err)
	}
	return affected(res)
}

func (r *SQLProductRepo) SetImages(ctx context.Context, id string, images []string) (*domain.Product, error) {
	res, err := r.db.ExecContext(ctx, `UPDATE products SET images_json = ? WHERE id = ?`, encodeList(images), id)
	if err != nil {
		return nil, fmt.Errorf("set product images: %w", err)
	}
	if err := affected(res); err != nil {
		return nil, err
	}
	return r.Get(ctx, id)
}

func (r *SQLProductRepo) AppendReview(ctx context.Context, id, reviewID string) (*domain.Product, error) {
	// json_insert with '$[#]' appends in a single statement.
	res, err := r.db.ExecContext(ctx,
		`UPDATE products SET reviews_json = json_insert(reviews_json, '$[#]', ?) WHERE id = ?`, reviewID, id)
	if err != nil {
		return nil, fmt.Errorf("append product review: %w", err)
	}
	if err := affected(res); err != nil {
		return nil, err
	}
	return r.Get(ctx, id)
}

func (r *SQLProductRepo) Delete(ctx context.Context, id string) (*domain.Product, error) {
	p, err := r.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	res, err := r.db.ExecContext(ctx, `DELETE FROM products WHERE id = ?`, id)
	if err != nil {
		return nil, fmt.Errorf("delete product: %w", err)
	}
	if err := affected(res); err != nil {
		return nil, err
	}
	return p, nil
}
