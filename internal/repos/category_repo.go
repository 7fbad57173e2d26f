package repos

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/osmium8/reviews-backend/internal/domain"
)

type SQLCategoryRepo struct{ db *sqlx.DB }

func NewCategoryRepo(db *sqlx.DB) *SQLCategoryRepo { return &SQLCategoryRepo{db: db} }

type categoryRow struct {
	ID    string `db:"id"`
	Name  string `db:"name"`
	Icon  string `db:"icon"`
	Color string `db:"color"`
}

func (row categoryRow) toDomain() domain.Category {
	return domain.Category{ID: row.ID, Name: row.Name, Icon: row.Icon, Color: row.Color}
}

func categoriesFromRows(rows []categoryRow) []domain.Category {
	out := make([]domain.Category, 0, len(rows))
	for _, row := range rows {
		out = append(out, row.toDomain())
	}
	return out
}

func (r *SQLCategoryRepo) List(ctx context.Context) ([]domain.Category, error) {
	var rows []categoryRow
	err := r.db.SelectContext(ctx, &rows, `
  SELECT id, name, icon, color
  FROM categories
  ORDER BY rowid
`)
	if err != nil {
		return nil, fmt.Errorf("list categories: %w", err)
	}
	return categoriesFromRows(rows), nil
}

func (r *SQLCategoryRepo) Get(ctx context.Context, id string) (*domain.Category, error) {
	var row categoryRow
	err := r.db.GetContext(ctx, &row, `SELECT id, name, icon, color FROM categories WHERE id = ?`, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get category: %w", err)
	}
	c := row.toDomain()
	return &c, nil
}

func (r *SQLCategoryRepo) ByIDs(ctx context.Context, ids []string) ([]domain.Category, error) {
	ids = uniq(ids)
	if len(ids) == 0 {
		return []domain.Category{}, nil
	}
	query, args, err := sqlx.In(`SELECT id, name, icon, color FROM categories WHERE id IN (?)`, ids)
	if err != nil {
		return nil, err
	}
	var rows []categoryRow
	if err := r.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("categories by ids: %w", err)
	}
	return categoriesFromRows(rows), nil
}

func (r *SQLCategoryRepo) Create(ctx context.Context, c *domain.Category) error {
	if c.ID == "" {
		c.ID = newID()
	}
	_, err := r.db.ExecContext(ctx, `INSERT INTO categories(id, name, icon, color) VALUES(?,?,?,?)`,
		c.ID, c.Name, c.Icon, c.Color)
	if err != nil {
		return fmt.Errorf("insert category: %w", err)
	}
	return nil
}

func (r *SQLCategoryRepo) Update(ctx context.Context, c *domain.Category) error {
	res, err := r.db.ExecContext(ctx, `UPDATE categories SET name = ?, icon = ?, color = ? WHERE id = ?`,
		c.Name, c.Icon, c.Color, c.ID)
	if err != nil {
		return fmt.Errorf("update category: %w", err)
	}
	return affected(res)
}

func (r *SQLCategoryRepo) Delete(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM categories WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete category: %w", err)
	}
	return affected(res)
}

// affected turns a zero-row write into ErrNotFound.
func affected(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}
