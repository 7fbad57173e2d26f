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

type SQLReviewRepo struct{ db *sqlx.DB }

func NewReviewRepo(db *sqlx.DB) *SQLReviewRepo { return &SQLReviewRepo{db: db} }

const reviewColumns = ` id, user_id, product_id, date, rating, description, is_approved`

type reviewRow struct {
	ID          string  `db:"id"`
	UserID      string  `db:"user_id"`
	ProductID   string  `db:"product_id"`
	Date        string  `db:"date"`
	Rating      float64 `db:"rating"`
	Description string  `db:"description"`
	IsApproved  bool    `db:"is_approved"`
}

func (row reviewRow) toDomain() domain.Review {
	return domain.Review{
		ID:          row.ID,
		UserID:      row.UserID,
		ProductID:   row.ProductID,
		Date:        parseTime(row.Date),
		Rating:      row.Rating,
		Description: row.Description,
		IsApproved:  row.IsApproved,
	}
}

func reviewsFromRows(rows []reviewRow) []domain.Review {
	out := make([]domain.Review, 0, len(rows))
	for _, row := range rows {
		out = append(out, row.toDomain())
	}
	return out
}

func reviewWhere(f domain.ReviewFilter) (string, []any) {
	where := []string{"1 = 1"}
	args := []any{}
	if f.ProductID != nil {
		where = append(where, "product_id = ?")
		args = append(args, *f.ProductID)
	}
	if f.UserID != nil {
		where = append(where, "user_id = ?")
		args = append(args, *f.UserID)
	}
	if f.Approved != nil {
		where = append(where, "is_approved = ?")
		args = append(args, *f.Approved)
	}
	return strings.Join(where, " AND "), args
}

func (r *SQLReviewRepo) Find(ctx context.Context, f domain.ReviewFilter) ([]domain.Review, error) {
	where, args := reviewWhere(f)
	var rows []reviewRow
	err := r.db.SelectContext(ctx, &rows, `SELECT`+reviewColumns+`
  FROM reviews
  WHERE `+where+`
  ORDER BY date DESC, rowid DESC`, args...)
	if err != nil {
		return nil, fmt.Errorf("find reviews: %w", err)
	}
	return reviewsFromRows(rows), nil
}

func (r *SQLReviewRepo) Count(ctx context.Context, f domain.ReviewFilter) (int64, error) {
	where, args := reviewWhere(f)
	var n int64
	if err := r.db.GetContext(ctx, &n, `SELECT COUNT(*) FROM reviews WHERE `+where, args...); err != nil {
		return 0, fmt.Errorf("count reviews: %w", err)
	}
	return n, nil
}

func (r *SQLReviewRepo) Get(ctx context.Context, id string) (*domain.Review, error) {
	var row reviewRow
	err := r.db.GetContext(ctx, &row, `SELECT`+reviewColumns+` FROM reviews WHERE id = ?`, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get review: %w", err)
	}
	rv := row.toDomain()
	return &rv, nil
}

func (r *SQLReviewRepo) ByIDs(ctx context.Context, ids []string) ([]domain.Review, error) {
	ids = uniq(ids)
	if len(ids) == 0 {
		return []domain.Review{}, nil
	}
	query, args, err := sqlx.In(`SELECT`+reviewColumns+` FROM reviews WHERE id IN (?)`, ids)
	if err != nil {
		return nil, err
	}
	var rows []reviewRow
	if err := r.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("reviews by ids: %w", err)
	}
	return reviewsFromRows(rows), nil
}

func (r *SQLReviewRepo) Create(ctx context.Context, rv *domain.Review) error {
	if rv.ID == "" {
		rv.ID = newID()
	}
	if rv.Date.IsZero() {
		rv.Date = time.Now()
	}
	_, err := r.db.ExecContext(ctx, `INSERT INTO reviews(`+reviewColumns+`) VALUES(?,?,?,?,?,?,?)`,
		rv.ID, rv.UserID, rv.ProductID, formatTime(rv.Date), rv.Rating, rv.Description, rv.IsApproved)
	if err != nil {
		return fmt.Errorf("insert review: %w", err)
	}
	return nil
}

func (r *SQLReviewRepo) SetApproved(ctx context.Context, id string, approved bool) (*domain.Review, error) {
	res, err := r.db.ExecContext(ctx, `UPDATE reviews SET is_approved = ? WHERE id = ?`, approved, id)
	if err != nil {
		return nil, fmt.Errorf("approve review: %w", err)
	}
	if err := affected(res); err != nil {
		return nil, err
	}
	return r.Get(ctx, id)
}

func (r *SQLReviewRepo) Delete(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM reviews WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete review: %w", err)
	}
	return affected(res)
}

func (r *SQLReviewRepo) DeleteMany(ctx context.Context, ids []string) (int64, error) {
	ids = uniq(ids)
	if len(ids) == 0 {
		return 0, nil
	}
	query, args, err := sqlx.In(`DELETE FROM reviews WHERE id IN (?)`, ids)
	if err != nil {
		return 0, err
	}
	res, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return 0, fmt.Errorf("delete reviews: %w", err)
	}
	return res.RowsAffected()
}
