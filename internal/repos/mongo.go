package repos

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"
)

// Collection names match the existing mongoose data set.
const (
	colCategories = "categories"
	colProducts   = "products"
	colReviews    = "reviews"
	colUsers      = "users"
)

// emailCollation makes email uniqueness and lookups case-insensitive.
var emailCollation = &options.Collation{Locale: "en", Strength: 2}

// OpenMongo connects, pings the primary and ensures the indexes the queries rely on.
func OpenMongo(ctx context.Context, uri, dbName string) (*Store, error) {
	connectCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	client, err := mongo.Connect(connectCtx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, fmt.Errorf("mongo connect: %w", err)
	}
	if err := client.Ping(connectCtx, readpref.Primary()); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, fmt.Errorf("mongo ping: %w", err)
	}
	db := client.Database(dbName)
	if err := ensureIndexes(connectCtx, db); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, err
	}
	return NewMongoStore(client, db), nil
}

// NewMongoStore wires the MongoDB repositories around db.
func NewMongoStore(client *mongo.Client, db *mongo.Database) *Store {
	return &Store{
		Categories: NewMongoCategoryRepo(db),
		Products:   NewMongoProductRepo(db),
		Reviews:    NewMongoReviewRepo(db),
		Users:      NewMongoUserRepo(db),
		Backend:    "mongo",
		closeFn:    client.Disconnect,
		pingFn: func(ctx context.Context) error {
			return client.Ping(ctx, readpref.Primary())
		},
	}
}

func ensureIndexes(ctx context.Context, db *mongo.Database) error {
	indexes := map[string][]mongo.IndexModel{
		colProducts: {
			{Keys: bson.D{{Key: "category", Value: 1}}},
			{Keys: bson.D{{Key: "forReview", Value: 1}, {Key: "isFeatured", Value: 1}}},
			{Keys: bson.D{{Key: "code", Value: 1}}},
		},
		colReviews: {
			{Keys: bson.D{{Key: "product", Value: 1}, {Key: "isApproved", Value: 1}}},
			{Keys: bson.D{{Key: "user", Value: 1}}},
			{Keys: bson.D{{Key: "date", Value: -1}}},
		},
		colUsers: {
			{
				Keys:    bson.D{{Key: "email", Value: 1}},
				Options: options.Index().SetUnique(true).SetCollation(emailCollation),
			},
		},
	}
	for col, models := range indexes {
		if _, err := db.Collection(col).Indexes().CreateMany(ctx, models); err != nil {
			return fmt.Errorf("ensure %s indexes: %w", col, err)
		}
	}
	return nil
}

// oid parses a hex id; malformed ids can never match a document.
func oid(s string) (primitive.ObjectID, bool) {
	id, err := primitive.ObjectIDFromHex(s)
	return id, err == nil
}

// oidOrNil maps "" and malformed ids to the zero ObjectID, read back as "".
func oidOrNil(s string) primitive.ObjectID {
	id, _ := oid(s)
	return id
}

func oids(ss []string) []primitive.ObjectID {
	out := make([]primitive.ObjectID, 0, len(ss))
	for _, s := range uniq(ss) {
		if id, ok := oid(s); ok {
			out = append(out, id)
		}
	}
	return out
}

func hexOrEmpty(id primitive.ObjectID) string {
	if id.IsZero() {
		return ""
	}
	return id.Hex()
}

func hexes(ids []primitive.ObjectID) []string {
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		out = append(out, id.Hex())
	}
	return out
}

func notFound(err error) error {
	if errors.Is(err, mongo.ErrNoDocuments) {
		return ErrNotFound
	}
	return err
}

func matched(res *mongo.UpdateResult) error {
	if res.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

var returnAfter = options.FindOneAndUpdate().SetReturnDocument(options.After)
