package repos

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/osmium8/reviews-backend/internal/domain"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	db, err := OpenDB(":memory:")
	require.NoError(t, err)
	st := NewSQLStore(db)
	t.Cleanup(func() { _ = st.Close(context.Background()) })
	return st
}

func seedProduct(t *testing.T, st *Store, p domain.Product) domain.Product {
	t.Helper()
	require.NoError(t, st.Products.Create(context.Background(), &p))
	return p
}

func TestProductWhere(t *testing.T) {
	tests := []struct {
		name  string
		f     domain.ProductFilter
		where string
		args  []any
	}{
		{"empty", domain.ProductFilter{}, "1 = 1", []any{}},
		{
			"visibility and featured",
			domain.ProductFilter{ForReview: domain.Ptr(false), Featured: domain.Ptr(true)},
			"1 = 1 AND for_review = ? AND is_featured = ?",
			[]any{false, true},
		},
		{
			"categories",
			domain.ProductFilter{CategoryIDs: []string{"a", "b"}},
			"1 = 1 AND category_id IN (?, ?)",
			[]any{"a", "b"},
		},
		{
			"brand substring escapes wildcards",
			domain.ProductFilter{Brand: domain.Ptr("Ac_Me%")},
			`1 = 1 AND LOWER(brand) LIKE ? ESCAPE '\'`,
			[]any{`%ac\_me\%%`},
		},
		{
			"code case-insensitive",
			domain.ProductFilter{Code: domain.Ptr("AbC")},
			"1 = 1 AND LOWER(code) = ?",
			[]any{"abc"},
		},
		{
			"exact code",
			domain.ProductFilter{ExactCode: domain.Ptr("AbC")},
			"1 = 1 AND code = ?",
			[]any{"AbC"},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			where, args, err := productWhere(tt.f)
			require.NoError(t, err)
			assert.Equal(t, tt.where, where)
			assert.Equal(t, tt.args, args)
		})
	}
}

func TestProductFilter_Mongo(t *testing.T) {
	cat := primitive.NewObjectID()
	f := domain.ProductFilter{
		ForReview:   domain.Ptr(false),
		CategoryIDs: []string{cat.Hex(), "garbage"},
		Brand:       domain.Ptr("a.b"),
		Code:        domain.Ptr("X1"),
		Name:        domain.Ptr("phone"),
	}
	q := productFilter(f)

	assert.Equal(t, false, q["forReview"])
	assert.Equal(t, bson.M{"$in": []primitive.ObjectID{cat}}, q["category"])
	assert.Equal(t, primitive.Regex{Pattern: `a\.b`, Options: "i"}, q["brand"])
	assert.Equal(t, primitive.Regex{Pattern: "^X1$", Options: "i"}, q["code"])
	assert.Equal(t, primitive.Regex{Pattern: "phone", Options: "i"}, q["name"])
	assert.NotContains(t, q, "isFeatured")

	assert.Equal(t, bson.M{"code": "X1"}, productFilter(domain.ProductFilter{ExactCode: domain.Ptr("X1")}))
	assert.Empty(t, productFilter(domain.ProductFilter{}))
}

func TestReviewFilter_Mongo(t *testing.T) {
	pid := primitive.NewObjectID()
	q := reviewFilter(domain.ReviewFilter{ProductID: domain.Ptr(pid.Hex()), Approved: domain.Ptr(true)})
	assert.Equal(t, bson.M{"product": pid, "isApproved": true}, q)
}

func TestSQLProductRepo_Find(t *testing.T) {
	ctx := context.Background()
	st := newTestStore(t)
	catA, catB := newID(), newID()

	seedProduct(t, st, domain.Product{Code: "AB-1", Name: "Galaxy Phone", Description: "d", Brand: "Samsung", CategoryID: catA})
	seedProduct(t, st, domain.Product{Code: "ab-2", Name: "Pixel", Description: "d", Brand: "Google", CategoryID: catB, IsFeatured: true})
	seedProduct(t, st, domain.Product{Code: "CD-3", Name: "Hidden phone", Description: "d", Brand: "Samsung", CategoryID: catA, ForReview: true})

	visible := domain.Ptr(false)

	all, err := st.Products.Find(ctx, domain.ProductFilter{})
	require.NoError(t, err)
	assert.Len(t, all, 3)

	pub, err := st.Products.Find(ctx, domain.ProductFilter{ForReview: visible})
	require.NoError(t, err)
	assert.Len(t, pub, 2)

	byBrand, err := st.Products.Find(ctx, domain.ProductFilter{ForReview: visible, Brand: domain.Ptr("sams")})
	require.NoError(t, err)
	require.Len(t, byBrand, 1)
	assert.Equal(t, "AB-1", byBrand[0].Code)

	byCode, err := st.Products.Find(ctx, domain.ProductFilter{Code: domain.Ptr("AB-2")})
	require.NoError(t, err)
	require.Len(t, byCode, 1)
	assert.Equal(t, "ab-2", byCode[0].Code)

	exact, err := st.Products.Find(ctx, domain.ProductFilter{ExactCode: domain.Ptr("AB-2")})
	require.NoError(t, err)
	assert.Empty(t, exact)
	assert.NotNil(t, exact)

	byName, err := st.Products.Find(ctx, domain.ProductFilter{Name: domain.Ptr("PHONE")})
	require.NoError(t, err)
	assert.Len(t, byName, 2)

	byCat, err := st.Products.Find(ctx, domain.ProductFilter{CategoryIDs: []string{catB}})
	require.NoError(t, err)
	require.Len(t, byCat, 1)
	assert.Equal(t, "Pixel", byCat[0].Name)

	featured, err := st.Products.Find(ctx, domain.ProductFilter{ForReview: visible, Featured: domain.Ptr(true), Limit: 5})
	require.NoError(t, err)
	assert.Len(t, featured, 1)

	limited, err := st.Products.Find(ctx, domain.ProductFilter{Limit: 1})
	require.NoError(t, err)
	assert.Len(t, limited, 1)

	n, err := st.Products.Count(ctx, domain.ProductFilter{ForReview: visible})
	require.NoError(t, err)
	assert.Equal(t, int64(2), n)
}

func TestSQLProductRepo_Lifecycle(t *testing.T) {
	ctx := context.Background()
	st := newTestStore(t)

	p := seedProduct(t, st, domain.Product{Code: "X", Name: "n", Description: "d", CategoryID: newID()})
	require.True(t, primitive.IsValidObjectID(p.ID))

	got, err := st.Products.Get(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, []string{}, got.Images)
	assert.Equal(t, []string{}, got.ReviewIDs)
	assert.WithinDuration(t, time.Now(), got.DateCreated, time.Minute)

	r1, r2 := newID(), newID()
	_, err = st.Products.AppendReview(ctx, p.ID, r1)
	require.NoError(t, err)
	got, err = st.Products.AppendReview(ctx, p.ID, r2)
	require.NoError(t, err)
	assert.Equal(t, []string{r1, r2}, got.ReviewIDs)
	assert.Equal(t, 2, got.TotalReviews)

	got, err = st.Products.SetImages(ctx, p.ID, []string{"a.png", "b.png"})
	require.NoError(t, err)
	assert.Equal(t, []string{"a.png", "b.png"}, got.Images)

	got.Name = "renamed"
	got.ForReview = false
	require.NoError(t, st.Products.Update(ctx, got))
	got, err = st.Products.Get(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, "renamed", got.Name)
	assert.Equal(t, []string{r1, r2}, got.ReviewIDs, "update keeps review list")

	deleted, err := st.Products.Delete(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, []string{r1, r2}, deleted.ReviewIDs)

	_, err = st.Products.Get(ctx, p.ID)
	assert.ErrorIs(t, err, ErrNotFound)
	_, err = st.Products.Delete(ctx, p.ID)
	assert.ErrorIs(t, err, ErrNotFound)
	_, err = st.Products.AppendReview(ctx, p.ID, r1)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestSQLProductRepo_ByIDsSkipsMissing(t *testing.T) {
	ctx := context.Background()
	st := newTestStore(t)
	p := seedProduct(t, st, domain.Product{Code: "X", Name: "n", Description: "d", CategoryID: newID()})

	got, err := st.Products.ByIDs(ctx, []string{p.ID, newID(), p.ID})
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, p.ID, got[0].ID)

	none, err := st.Products.ByIDs(ctx, nil)
	require.NoError(t, err)
	assert.NotNil(t, none)
	assert.Empty(t, none)
}
