package repos

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/osmium8/reviews-backend/internal/domain"
)

type MongoReviewRepo struct{ col *mongo.Collection }

func NewMongoReviewRepo(db *mongo.Database) *MongoReviewRepo {
	return &MongoReviewRepo{col: db.Collection(colReviews)}
}

type reviewDoc struct {
	ID          primitive.ObjectID `bson:"_id"`
	User        primitive.ObjectID `bson:"user,omitempty"`
	Product     primitive.ObjectID `bson:"product,omitempty"`
	Date        time.Time          `bson:"date"`
	Rating      float64            `bson:"rating"`
	Description string             `bson:"description"`
	IsApproved  bool               `bson:"isApproved"`
}

func (d reviewDoc) toDomain() domain.Review {
	return domain.Review{
		ID:          d.ID.Hex(),
		UserID:      hexOrEmpty(d.User),
		ProductID:   hexOrEmpty(d.Product),
		Date:        d.Date,
		Rating:      d.Rating,
		Description: d.Description,
		IsApproved:  d.IsApproved,
	}
}

func reviewFilter(f domain.ReviewFilter) bson.M {
	q := bson.M{}
	if f.ProductID != nil {
		q["product"] = oidOrNil(*f.ProductID)
	}
	if f.UserID != nil {
		q["user"] = oidOrNil(*f.UserID)
	}
	if f.Approved != nil {
		q["isApproved"] = *f.Approved
	}
	return q
}

var newestFirst = options.Find().SetSort(bson.D{{Key: "date", Value: -1}, {Key: "_id", Value: -1}})

func (r *MongoReviewRepo) find(ctx context.Context, filter bson.M, opts ...*options.FindOptions) ([]domain.Review, error) {
	cur, err := r.col.Find(ctx, filter, opts...)
	if err != nil {
		return nil, fmt.Errorf("find reviews: %w", err)
	}
	var docs []reviewDoc
	if err := cur.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("decode reviews: %w", err)
	}
	out := make([]domain.Review, 0, len(docs))
	for _, d := range docs {
		out = append(out, d.toDomain())
	}
	return out, nil
}

func (r *MongoReviewRepo) Find(ctx context.Context, f domain.ReviewFilter) ([]domain.Review, error) {
	return r.find(ctx, reviewFilter(f), newestFirst)
}

func (r *MongoReviewRepo) Count(ctx context.Context, f domain.ReviewFilter) (int64, error) {
	n, err := r.col.CountDocuments(ctx, reviewFilter(f))
	if err != nil {
		return 0, fmt.Errorf("count reviews: %w", err)
	}
	return n, nil
}

func (r *MongoReviewRepo) Get(ctx context.Context, id string) (*domain.Review, error) {
	key, ok := oid(id)
	if !ok {
		return nil, ErrNotFound
	}
	var d reviewDoc
	if err := r.col.FindOne(ctx, bson.M{"_id": key}).Decode(&d); err != nil {
		return nil, notFound(err)
	}
	rv := d.toDomain()
	return &rv, nil
}

func (r *MongoReviewRepo) ByIDs(ctx context.Context, ids []string) ([]domain.Review, error) {
	keys := oids(ids)
	if len(keys) == 0 {
		return []domain.Review{}, nil
	}
	return r.find(ctx, bson.M{"_id": bson.M{"$in": keys}})
}

func (r *MongoReviewRepo) Create(ctx context.Context, rv *domain.Review) error {
	if rv.Date.IsZero() {
		rv.Date = time.Now()
	}
	d := reviewDoc{
		ID:          primitive.NewObjectID(),
		User:        oidOrNil(rv.UserID),
		Product:     oidOrNil(rv.ProductID),
		Date:        rv.Date.UTC(),
		Rating:      rv.Rating,
		Description: rv.Description,
		IsApproved:  rv.IsApproved,
	}
	if key, ok := oid(rv.ID); ok {
		d.ID = key
	}
	if _, err := r.col.InsertOne(ctx, d); err != nil {
		return fmt.Errorf("insert review: %w", err)
	}
	rv.ID = d.ID.Hex()
	return nil
}

func (r *MongoReviewRepo) SetApproved(ctx context.Context, id string, approved bool) (*domain.Review, error) {
	key, ok := oid(id)
	if !ok {
		return nil, ErrNotFound
	}
	var d reviewDoc
	err := r.col.FindOneAndUpdate(ctx, bson.M{"_id": key},
		bson.M{"$set": bson.M{"isApproved": approved}}, returnAfter).Decode(&d)
	if err != nil {
		return nil, notFound(err)
	}
	rv := d.toDomain()
	return &rv, nil
}

func (r *MongoReviewRepo) Delete(ctx context.Context, id string) error {
	key, ok := oid(id)
	if !ok {
		return ErrNotFound
	}
	res, err := r.col.DeleteOne(ctx, bson.M{"_id": key})
	if err != nil {
		return fmt.Errorf("delete review: %w", err)
	}
	if res.DeletedCount == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *MongoReviewRepo) DeleteMany(ctx context.Context, ids []string) (int64, error) {
	keys := oids(ids)
	if len(keys) == 0 {
		return 0, nil
	}
	res, err := r.col.DeleteMany(ctx, bson.M{"_id": bson.M{"$in": keys}})
	if err != nil {
		return 0, fmt.Errorf("delete reviews: %w", err)
	}
	return res.DeletedCount, nil
}
