package repos

import (
	"context"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/osmium8/reviews-backend/internal/domain"
)

type MongoUserRepo struct{ col *mongo.Collection }

func NewMongoUserRepo(db *mongo.Database) *MongoUserRepo {
	return &MongoUserRepo{col: db.Collection(colUsers)}
}

type userDoc struct {
	ID           primitive.ObjectID `bson:"_id"`
	Name         string             `bson:"name"`
	Email        string             `bson:"email"`
	PasswordHash string             `bson:"passwordHash"`
	Phone        string             `bson:"phone"`
	IsAdmin      bool               `bson:"isAdmin"`
	Street       string             `bson:"street"`
	Apartment    string             `bson:"apartment"`
	Zip          string             `bson:"zip"`
	City         string             `bson:"city"`
	Country      string             `bson:"country"`
}

func (d userDoc) toDomain() domain.User {
	return domain.User{
		ID:        d.ID.Hex(),
		Name:      d.Name,
		Email:     d.Email,
		Hash:      d.PasswordHash,
		Phone:     d.Phone,
		IsAdmin:   d.IsAdmin,
		Street:    d.Street,
		Apartment: d.Apartment,
		Zip:       d.Zip,
		City:      d.City,
		Country:   d.Country,
	}
}

func userFields(u *domain.User) bson.M {
	return bson.M{
		"name":         u.Name,
		"email":        u.Email,
		"passwordHash": u.Hash,
		"phone":        u.Phone,
		"isAdmin":      u.IsAdmin,
		"street":       u.Street,
		"apartment":    u.Apartment,
		"zip":          u.Zip,
		"city":         u.City,
		"country":      u.Country,
	}
}

func (r *MongoUserRepo) find(ctx context.Context, filter bson.M) ([]domain.User, error) {
	cur, err := r.col.Find(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("find users: %w", err)
	}
	var docs []userDoc
	if err := cur.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("decode users: %w", err)
	}
	out := make([]domain.User, 0, len(docs))
	for _, d := range docs {
		out = append(out, d.toDomain())
	}
	return out, nil
}

func (r *MongoUserRepo) one(ctx context.Context, filter bson.M, opts ...*options.FindOneOptions) (*domain.User, error) {
	var d userDoc
	if err := r.col.FindOne(ctx, filter, opts...).Decode(&d); err != nil {
		return nil, notFound(err)
	}
	u := d.toDomain()
	return &u, nil
}

func (r *MongoUserRepo) List(ctx context.Context) ([]domain.User, error) {
	return r.find(ctx, bson.M{})
}

func (r *MongoUserRepo) Get(ctx context.Context, id string) (*domain.User, error) {
	key, ok := oid(id)
	if !ok {
		return nil, ErrNotFound
	}
	return r.one(ctx, bson.M{"_id": key})
}

func (r *MongoUserRepo) ByEmail(ctx context.Context, email string) (*domain.User, error) {
	return r.one(ctx, bson.M{"email": email}, options.FindOne().SetCollation(emailCollation))
}

func (r *MongoUserRepo) ByIDs(ctx context.Context, ids []string) ([]domain.User, error) {
	keys := oids(ids)
	if len(keys) == 0 {
		return []domain.User{}, nil
	}
	return r.find(ctx, bson.M{"_id": bson.M{"$in": keys}})
}

func (r *MongoUserRepo) Create(ctx context.Context, u *domain.User) error {
	key, ok := oid(u.ID)
	if !ok {
		key = primitive.NewObjectID()
	}
	doc := userFields(u)
	doc["_id"] = key
	if _, err := r.col.InsertOne(ctx, doc); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return ErrDuplicate
		}
		return fmt.Errorf("insert user: %w", err)
	}
	u.ID = key.Hex()
	return nil
}

func (r *MongoUserRepo) Update(ctx context.Context, u *domain.User) error {
	key, ok := oid(u.ID)
	if !ok {
		return ErrNotFound
	}
	res, err := r.col.UpdateOne(ctx, bson.M{"_id": key}, bson.M{"$set": userFields(u)})
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return ErrDuplicate
		}
		return fmt.Errorf("update user: %w", err)
	}
	return matched(res)
}

func (r *MongoUserRepo) Delete(ctx context.Context, id string) error {
	key, ok := oid(id)
	if !ok {
		return ErrNotFound
	}
	res, err := r.col.DeleteOne(ctx, bson.M{"_id": key})
	if err != nil {
		return fmt.Errorf("delete user: %w", err)
	}
	if res.DeletedCount == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *MongoUserRepo) Count(ctx context.Context) (int64, error) {
	n, err := r.col.CountDocuments(ctx, bson.M{})
	if err != nil {
		return 0, fmt.Errorf("count users: %w", err)
	}
	return n, nil
}
