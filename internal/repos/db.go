package repos

import (
	"context"
	"encoding/json"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"
	_ "modernc.org/sqlite"
)

// Fixed-width UTC timestamps so text ordering matches time ordering.
const timeLayout = "2006-01-02T15:04:05.000000000Z07:00"

func OpenDB(dsn string) (*sqlx.DB, error) {
	db, err := sqlx.Open("sqlite", dsn)
	if err != nil {
		return nil, err
	}
	// Every connection to :memory: is a separate database, and SQLite serializes writers anyway.
	db.SetMaxOpenConns(1)
	if err = db.Ping(); err != nil {
		return nil, err
	}
	if err := ensureSchema(db); err != nil {
		return nil, err
	}
	return db, nil
}

// NewSQLStore wires the SQLite repositories around db.
func NewSQLStore(db *sqlx.DB) *Store {
	return &Store{
		Categories: NewCategoryRepo(db),
		Products:   NewProductRepo(db),
		Reviews:    NewReviewRepo(db),
		Users:      NewUserRepo(db),
		Backend:    "sqlite",
		closeFn:    func(context.Context) error { return db.Close() },
		pingFn:     db.PingContext,
	}
}

// Tables mirror the document collections: references are plain ids with no foreign keys,
// and list-valued fields are JSON text.
func ensureSchema(db *sqlx.DB) error {
	schema := `
-- Categories
CREATE TABLE IF NOT EXISTS categories(
  id TEXT PRIMARY KEY,
  name TEXT NOT NULL,
  icon TEXT NOT NULL DEFAULT '',
  color TEXT NOT NULL DEFAULT ''
);

-- Products
CREATE TABLE IF NOT EXISTS products(
  id TEXT PRIMARY KEY,
  code TEXT NOT NULL,
  name TEXT NOT NULL,
  description TEXT NOT NULL,
  image TEXT NOT NULL DEFAULT '',
  images_json TEXT NOT NULL DEFAULT '[]',
  brand TEXT NOT NULL DEFAULT '',
  price REAL NOT NULL DEFAULT 0,
  category_id TEXT NOT NULL,
  for_review INTEGER NOT NULL DEFAULT 1,
  reviews_json TEXT NOT NULL DEFAULT '[]',
  rating REAL NOT NULL DEFAULT 0,
  is_featured INTEGER NOT NULL DEFAULT 0,
  date_created TEXT NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_products_category ON products(category_id);
CREATE INDEX IF NOT EXISTS idx_products_code     ON products(LOWER(code));
CREATE INDEX IF NOT EXISTS idx_products_visible  ON products(for_review, is_featured);

-- Reviews
CREATE TABLE IF NOT EXISTS reviews(
  id TEXT PRIMARY KEY,
  user_id TEXT NOT NULL DEFAULT '',
  product_id TEXT NOT NULL DEFAULT '',
  date TEXT NOT NULL,
  rating REAL NOT NULL,
  description TEXT NOT NULL,
  is_approved INTEGER NOT NULL DEFAULT 0
);
CREATE INDEX IF NOT EXISTS idx_reviews_product ON reviews(product_id, is_approved);
CREATE INDEX IF NOT EXISTS idx_reviews_user    ON reviews(user_id);
CREATE INDEX IF NOT EXISTS idx_reviews_date    ON reviews(date);

-- Users
CREATE TABLE IF NOT EXISTS users(
  id TEXT PRIMARY KEY,
  name TEXT NOT NULL,
  email TEXT NOT NULL,
  password_hash TEXT NOT NULL,
  phone TEXT NOT NULL DEFAULT '',
  is_admin INTEGER NOT NULL DEFAULT 0,
  street TEXT NOT NULL DEFAULT '',
  apartment TEXT NOT NULL DEFAULT '',
  zip TEXT NOT NULL DEFAULT '',
  city TEXT NOT NULL DEFAULT '',
  country TEXT NOT NULL DEFAULT ''
);
CREATE UNIQUE INDEX IF NOT EXISTS idx_users_email ON users(LOWER(email));
`
	_, err := db.Exec(schema)
	return err
}

func formatTime(t time.Time) string { return t.UTC().Format(timeLayout) }

func parseTime(s string) time.Time {
	t, err := time.Parse(timeLayout, s)
	if err != nil {
		return time.Time{}
	}
	return t
}

func encodeList(xs []string) string {
	if len(xs) == 0 {
		return "[]"
	}
	b, _ := json.Marshal(xs)
	return string(b)
}

func decodeList(s string) []string {
	out := []string{}
	if s == "" {
		return out
	}
	_ = json.Unmarshal([]byte(s), &out)
	return out
}

func isUniqueViolation(err error) bool {
	return err != nil && strings.Contains(err.Error(), "UNIQUE constraint failed")
}

// likeEscape makes s safe inside a LIKE pattern that uses ESCAPE '\'.
func likeEscape(s string) string {
	r := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return r.Replace(s)
}
