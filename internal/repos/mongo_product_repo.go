package repos

import (
	"context"
	"fmt"
	"regexp"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/osmium8/reviews-backend/internal/domain"
)

type MongoProductRepo struct{ col *mongo.Collection }

func NewMongoProductRepo(db *mongo.Database) *MongoProductRepo {
	return &MongoProductRepo{col: db.Collection(colProducts)}
}

type productDoc struct {
	ID          primitive.ObjectID   `bson:"_id"`
	Code        string               `bson:"code"`
	Name        string               `bson:"name"`
	Description string               `bson:"description"`
	Image       string               `bson:"image"`
	Images      []string             `bson:"images"`
	Brand       string               `bson:"brand"`
	Price       float64              `bson:"price"`
	Category    primitive.ObjectID   `bson:"category"`
	ForReview   bool                 `bson:"forReview"`
	Reviews     []primitive.ObjectID `bson:"reviews"`
	Rating      float64              `bson:"rating"`
	IsFeatured  bool                 `bson:"isFeatured"`
	DateCreated time.Time            `bson:"dateCreated"`
}

func (d productDoc) toDomain() domain.Product {
	p := domain.Product{
		ID:          d.ID.Hex(),
		Code:        d.Code,
		Name:        d.Name,
		Description: d.Description,
		Image:       d.Image,
		Images:      d.Images,
		Brand:       d.Brand,
		Price:       d.Price,
		CategoryID:  hexOrEmpty(d.Category),
		ForReview:   d.ForReview,
		ReviewIDs:   hexes(d.Reviews),
		Rating:      d.Rating,
		IsFeatured:  d.IsFeatured,
		DateCreated: d.DateCreated,
	}
	p.Derive()
	return p
}

func productsFromDocs(docs []productDoc) []domain.Product {
	out := make([]domain.Product, 0, len(docs))
	for _, d := range docs {
		out = append(out, d.toDomain())
	}
	return out
}

// productFilter translates f into a query document, one predicate per set field.
func productFilter(f domain.ProductFilter) bson.M {
	q := bson.M{}
	if f.ForReview != nil {
		q["forReview"] = *f.ForReview
	}
	if f.Featured != nil {
		q["isFeatured"] = *f.Featured
	}
	if len(f.CategoryIDs) > 0 {
		q["category"] = bson.M{"$in": oids(f.CategoryIDs)}
	}
	if f.Brand != nil {
		q["brand"] = primitive.Regex{Pattern: regexp.QuoteMeta(*f.Brand), Options: "i"}
	}
	if f.Name != nil {
		q["name"] = primitive.Regex{Pattern: regexp.QuoteMeta(*f.Name), Options: "i"}
	}
	if f.Code != nil {
		q["code"] = primitive.Regex{Pattern: "^" + regexp.QuoteMeta(*f.Code) + "$", Options: "i"}
	}
	if f.ExactCode != nil {
		q["code"] = *f.ExactCode
	}
	return q
}

func (r *MongoProductRepo) find(ctx context.Context, filter bson.M, opts ...*options.FindOptions) ([]domain.Product, error) {
	cur, err := r.col.Find(ctx, filter, opts...)
	if err != nil {
		return nil, fmt.Errorf("find products: %w", err)
	}
	var docs []productDoc
	if err := cur.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("decode products: %w", err)
	}
	return productsFromDocs(docs), nil
}

func (r *MongoProductRepo) Find(ctx context.Context, f domain.ProductFilter) ([]domain.Product, error) {
	opts := options.Find()
	if f.Limit > 0 {
		opts.SetLimit(f.Limit)
	}
	return r.find(ctx, productFilter(f), opts)
}

func (r *MongoProductRepo) Count(ctx context.Context, f domain.ProductFilter) (int64, error) {
	n, err := r.col.CountDocuments(ctx, productFilter(f))
	if err != nil {
		return 0, fmt.Errorf("count products: %w", err)
	}
	return n, nil
}

func (r *MongoProductRepo) Get(ctx context.Context, id string) (*domain.Product, error) {
	key, ok := oid(id)
	if !ok {
		return nil, ErrNotFound
	}
	var d productDoc
	if err := r.col.FindOne(ctx, bson.M{"_id": key}).Decode(&d); err != nil {
		return nil, notFound(err)
	}
	p := d.toDomain()
	return &p, nil
}

func (r *MongoProductRepo) ByIDs(ctx context.Context, ids []string) ([]domain.Product, error) {
	keys := oids(ids)
	if len(keys) == 0 {
		return []domain.Product{}, nil
	}
	return r.find(ctx, bson.M{"_id": bson.M{"$in": keys}})
}

func (r *MongoProductRepo) Create(ctx context.Context, p *domain.Product) error {
	if p.DateCreated.IsZero() {
		p.DateCreated = time.Now()
	}
	p.Derive()
	d := productDoc{
		ID:          primitive.NewObjectID(),
		Code:        p.Code,
		Name:        p.Name,
		Description: p.Description,
		Image:       p.Image,
		Images:      p.Images,
		Brand:       p.Brand,
		Price:       p.Price,
		Category:    oidOrNil(p.CategoryID),
		ForReview:   p.ForReview,
		Reviews:     oids(p.ReviewIDs),
		Rating:      p.Rating,
		IsFeatured:  p.IsFeatured,
		DateCreated: p.DateCreated.UTC(),
	}
	if key, ok := oid(p.ID); ok {
		d.ID = key
	}
	if _, err := r.col.InsertOne(ctx, d); err != nil {
		return fmt.Errorf("insert product: %w", err)
	}
	p.ID = d.ID.Hex()
	return nil
}

func (r *MongoProductRepo) Update(ctx context.Context, p *domain.Product) error {
	key, ok := oid(p.ID)
	if !ok {
		return ErrNotFound
	}
	res, err := r.col.UpdateOne(ctx, bson.M{"_id": key}, bson.M{"$set": bson.M{
		"code":        p.Code,
		"name":        p.Name,
		"description": p.Description,
		"image":       p.Image,
		"brand":       p.Brand,
		"price":       p.Price,
		"category":    oidOrNil(p.CategoryID),
		"forReview":   p.ForReview,
		"isFeatured":  p.IsFeatured,
	}})
	if err != nil {
		return fmt.Errorf("update product: %w", err)
	}
	return matched(res)
}

func (r *MongoProductRepo) modify(ctx context.Context, id string, update bson.M) (*domain.Product, error) {
	key, ok := oid(id)
	if !ok {
		return nil, ErrNotFound
	}
	var d productDoc
	if err := r.col.FindOneAndUpdate(ctx, bson.M{"_id": key}, update, returnAfter).Decode(&d); err != nil {
		return nil, notFound(err)
	}
	p := d.toDomain()
	return &p, nil
}

func (r *MongoProductRepo) SetImages(ctx context.Context, id string, images []string) (*domain.Product, error) {
	if images == nil {
		images = []string{}
	}
	return r.modify(ctx, id, bson.M{"$set": bson.M{"images": images}})
}

func (r *MongoProductRepo) AppendReview(ctx context.Context, id, reviewID string) (*domain.Product, error) {
	rid, ok := oid(reviewID)
	if !ok {
		return nil, fmt.Errorf("append review: malformed review id %q", reviewID)
	}
	return r.modify(ctx, id, bson.M{"$push": bson.M{"reviews": rid}})
}

func (r *MongoProductRepo) Delete(ctx context.Context, id string) (*domain.Product, error) {
	key, ok := oid(id)
	if !ok {
		return nil, ErrNotFound
	}
	var d productDoc
	if err := r.col.FindOneAndDelete(ctx, bson.M{"_id": key}).Decode(&d); err != nil {
		return nil, notFound(err)
	}
	p := d.toDomain()
	return &p, nil
}
