package repos

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/osmium8/reviews-backend/internal/domain"
)

type SQLUserRepo struct{ DB *sqlx.DB }

func NewUserRepo(db *sqlx.DB) *SQLUserRepo { return &SQLUserRepo{DB: db} }

const userColumns = ` id, name, email, password_hash, phone, is_admin, street, apartment, zip, city, country`

type userRow struct {
	ID        string `db:"id"`
	Name      string `db:"name"`
	Email     string `db:"email"`
	Hash      string `db:"password_hash"`
	Phone     string `db:"phone"`
	IsAdmin   bool   `db:"is_admin"`
	Street    string `db:"street"`
	Apartment string `db:"apartment"`
	Zip       string `db:"zip"`
	City      string `db:"city"`
	Country   string `db:"country"`
}

func (row userRow) toDomain() domain.User {
	return domain.User(row)
}

func usersFromRows(rows []userRow) []domain.User {
	out := make([]domain.User, 0, len(rows))
	for _, row := range rows {
		out = append(out, row.toDomain())
	}
	return out
}

func (r *SQLUserRepo) get(ctx context.Context, where string, arg any) (*domain.User, error) {
	var row userRow
	err := r.DB.GetContext(ctx, &row, `SELECT`+userColumns+` FROM users WHERE `+where, arg)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get user: %w", err)
	}
	u := row.toDomain()
	return &u, nil
}

func (r *SQLUserRepo) List(ctx context.Context) ([]domain.User, error) {
	var rows []userRow
	if err := r.DB.SelectContext(ctx, &rows, `SELECT`+userColumns+` FROM users ORDER BY rowid`); err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	return usersFromRows(rows), nil
}

func (r *SQLUserRepo) Get(ctx context.Context, id string) (*domain.User, error) {
	return r.get(ctx, `id = ?`, id)
}

func (r *SQLUserRepo) ByEmail(ctx context.Context, email string) (*domain.User, error) {
	return r.get(ctx, `LOWER(email) = LOWER(?)`, email)
}

func (r *SQLUserRepo) ByIDs(ctx context.Context, ids []string) ([]domain.User, error) {
	ids = uniq(ids)
	if len(ids) == 0 {
		return []domain.User{}, nil
	}
	query, args, err := sqlx.In(`SELECT`+userColumns+` FROM users WHERE id IN (?)`, ids)
	if err != nil {
		return nil, err
	}
	var rows []userRow
	if err := r.DB.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("users by ids: %w", err)
	}
	return usersFromRows(rows), nil
}

func (r *SQLUserRepo) Create(ctx context.Context, u *domain.User) error {
	if u.ID == "" {
		u.ID = newID()
	}
	_, err := r.DB.ExecContext(ctx, `INSERT INTO users(`+userColumns+`) VALUES(?,?,?,?,?,?,?,?,?,?,?)`,
		u.ID, u.Name, u.Email, u.Hash, u.Phone, u.IsAdmin, u.Street, u.Apartment, u.Zip, u.City, u.Country)
	if isUniqueViolation(err) {
		return ErrDuplicate
	}
	if err != nil {
		return fmt.Errorf("insert user: %w", err)
	}
	return nil
}

func (r *SQLUserRepo) Update(ctx context.Context, u *domain.User) error {
	res, err := r.DB.ExecContext(ctx, `
  UPDATE users SET
    name = ?, email = ?, password_hash = ?, phone = ?, is_admin = ?,
    street = ?, apartment = ?, zip = ?, city = ?, country = ?
  WHERE id = ?`,
		u.Name, u.Email, u.Hash, u.Phone, u.IsAdmin, u.Street, u.Apartment, u.Zip, u.City, u.Country, u.ID)
	if isUniqueViolation(err) {
		return ErrDuplicate
	}
	if err != nil {
		return fmt.Errorf("update user: %w", err)
	}
	return affected(res)
}

func (r *SQLUserRepo) Delete(ctx context.Context, id string) error {
	res, err := r.DB.ExecContext(ctx, `DELETE FROM users WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete user: %w", err)
	}
	return affected(res)
}

func (r *SQLUserRepo) Count(ctx context.Context) (int64, error) {
	var n int64
	if err := r.DB.GetContext(ctx, &n, `SELECT COUNT(*) FROM users`); err != nil {
		return 0, fmt.Errorf("count users: %w", err)
	}
	return n, nil
}
