package repos

import (
	"context"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/osmium8/reviews-backend/internal/domain"
)

type MongoCategoryRepo struct{ col *mongo.Collection }

func NewMongoCategoryRepo(db *mongo.Database) *MongoCategoryRepo {
	return &MongoCategoryRepo{col: db.Collection(colCategories)}
}

type categoryDoc struct {
	ID    primitive.ObjectID `bson:"_id"`
	Name  string             `bson:"name"`
	Icon  string             `bson:"icon"`
	Color string             `bson:"color"`
}

func (d categoryDoc) toDomain() domain.Category {
	return domain.Category{ID: d.ID.Hex(), Name: d.Name, Icon: d.Icon, Color: d.Color}
}

func categoriesFromDocs(docs []categoryDoc) []domain.Category {
	out := make([]domain.Category, 0, len(docs))
	for _, d := range docs {
		out = append(out, d.toDomain())
	}
	return out
}

func (r *MongoCategoryRepo) find(ctx context.Context, filter bson.M) ([]domain.Category, error) {
	cur, err := r.col.Find(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("find categories: %w", err)
	}
	var docs []categoryDoc
	if err := cur.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("decode categories: %w", err)
	}
	return categoriesFromDocs(docs), nil
}

func (r *MongoCategoryRepo) List(ctx context.Context) ([]domain.Category, error) {
	return r.find(ctx, bson.M{})
}

func (r *MongoCategoryRepo) Get(ctx context.Context, id string) (*domain.Category, error) {
	key, ok := oid(id)
	if !ok {
		return nil, ErrNotFound
	}
	var d categoryDoc
	if err := r.col.FindOne(ctx, bson.M{"_id": key}).Decode(&d); err != nil {
		return nil, notFound(err)
	}
	c := d.toDomain()
	return &c, nil
}

func (r *MongoCategoryRepo) ByIDs(ctx context.Context, ids []string) ([]domain.Category, error) {
	keys := oids(ids)
	if len(keys) == 0 {
		return []domain.Category{}, nil
	}
	return r.find(ctx, bson.M{"_id": bson.M{"$in": keys}})
}

func (r *MongoCategoryRepo) Create(ctx context.Context, c *domain.Category) error {
	d := categoryDoc{ID: primitive.NewObjectID(), Name: c.Name, Icon: c.Icon, Color: c.Color}
	if key, ok := oid(c.ID); ok {
		d.ID = key
	}
	if _, err := r.col.InsertOne(ctx, d); err != nil {
		return fmt.Errorf("insert category: %w", err)
	}
	c.ID = d.ID.Hex()
	return nil
}

func (r *MongoCategoryRepo) Update(ctx context.Context, c *domain.Category) error {
	key, ok := oid(c.ID)
	if !ok {
		return ErrNotFound
	}
	res, err := r.col.UpdateOne(ctx, bson.M{"_id": key}, bson.M{"$set": bson.M{
		"name":  c.Name,
		"icon":  c.Icon,
		"color": c.Color,
	}})
	if err != nil {
		return fmt.Errorf("update category: %w", err)
	}
	return matched(res)
}

func (r *MongoCategoryRepo) Delete(ctx context.Context, id string) error {
	key, ok := oid(id)
	if !ok {
		return ErrNotFound
	}
	res, err := r.col.DeleteOne(ctx, bson.M{"_id": key})
	if err != nil {
		return fmt.Errorf("delete category: %w", err)
	}
	if res.DeletedCount == 0 {
		return ErrNotFound
	}
	return nil
}
