package store

import (
	"context"
	"time"

	"go-storefront/models"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type mongoProducts struct {
	coll *mongo.Collection
}

// listProjection drops reviews and keeps only the first image.
var listProjection = bson.M{
	"reviews": 0,
	"images":  bson.M{"$slice": 1},
}

// buildProductFilter translates a listing query into a MongoDB filter.
func buildProductFilter(q ProductQuery) bson.M {
	filter := bson.M{"isActive": true}
	if q.Category != "" {
		filter["category"] = q.Category
	}
	if q.Subcategory != "" {
		filter["subcategory"] = q.Subcategory
	}
	switch len(q.Brands) {
	case 0:
	case 1:
		filter["brand"] = q.Brands[0]
	default:
		filter["brand"] = bson.M{"$in": q.Brands}
	}
	if q.MinPrice != nil || q.MaxPrice != nil {
		price := bson.M{}
		if q.MinPrice != nil {
			price["$gte"] = *q.MinPrice
		}
		if q.MaxPrice != nil {
			price["$lte"] = *q.MaxPrice
		}
		filter["price"] = price
	}
	if q.MinRating != nil {
		filter["ratings"] = bson.M{"$gte": *q.MinRating}
	}
	if q.Size != "" {
		filter["sizes.size"] = q.Size
	}
	if q.Color != "" {
		filter["colors.name"] = q.Color
	}
	if q.Keyword != "" {
		filter["$text"] = bson.M{"$search": q.Keyword}
	}
	return filter
}

// productSort orders by the requested key, newest first within ties.
func productSort(sort string) bson.D {
	newest := bson.E{Key: "createdAt", Value: -1}
	byID := bson.E{Key: "_id", Value: -1}
	switch sort {
	case SortPriceLow:
		return bson.D{{Key: "price", Value: 1}, newest, byID}
	case SortPriceHigh:
		return bson.D{{Key: "price", Value: -1}, newest, byID}
	case SortRating:
		return bson.D{{Key: "ratings", Value: -1}, newest, byID}
	default:
		return bson.D{newest, byID}
	}
}

func (s *mongoProducts) Create(ctx context.Context, p *models.Product) error {
	now := time.Now()
	if p.ID.IsZero() {
		p.ID = primitive.NewObjectID()
	}
	prepareProduct(p, now)
	p.CreatedAt = now
	_, err := s.coll.InsertOne(ctx, p)
	return translate(err)
}

func (s *mongoProducts) FindByID(ctx context.Context, id primitive.ObjectID) (*models.Product, error) {
	var p models.Product
	if err := s.coll.FindOne(ctx, bson.M{"_id": id}).Decode(&p); err != nil {
		return nil, translate(err)
	}
	return &p, nil
}

func (s *mongoProducts) FindByIDs(ctx context.Context, ids []primitive.ObjectID) (map[primitive.ObjectID]*models.Product, error) {
	found := make(map[primitive.ObjectID]*models.Product, len(ids))
	if len(ids) == 0 {
		return found, nil
	}
	cursor, err := s.coll.Find(ctx, bson.M{"_id": bson.M{"$in": ids}})
	if err != nil {
		return nil, err
	}
	products, err := decodeAll[models.Product](ctx, cursor)
	if err != nil {
		return nil, err
	}
	for i := range products {
		found[products[i].ID] = &products[i]
	}
	return found, nil
}

func (s *mongoProducts) List(ctx context.Context, q ProductQuery) ([]models.Product, int64, error) {
	q.Normalize()
	filter := buildProductFilter(q)
	opts := options.Find().
		SetProjection(listProjection).
		SetSort(productSort(q.Sort)).
		SetSkip(q.Skip()).
		SetLimit(int64(q.Limit))

	cursor, err := s.coll.Find(ctx, filter, opts)
	if err != nil {
		return nil, 0, err
	}
	products, err := decodeAll[models.Product](ctx, cursor)
	if err != nil {
		return nil, 0, err
	}
	total, err := s.coll.CountDocuments(ctx, filter)
	if err != nil {
		return nil, 0, err
	}
	return products, total, nil
}

func (s *mongoProducts) ListInactive(ctx context.Context) ([]models.Product, error) {
	opts := options.Find().
		SetProjection(listProjection).
		SetSort(bson.D{{Key: "updatedAt", Value: -1}})
	cursor, err := s.coll.Find(ctx, bson.M{"isActive": false}, opts)
	if err != nil {
		return nil, err
	}
	return decodeAll[models.Product](ctx, cursor)
}

func (s *mongoProducts) ListByCategory(ctx context.Context, category string) ([]models.Product, error) {
	opts := options.Find().
		SetProjection(listProjection).
		SetSort(productSort(SortNewest))
	cursor, err := s.coll.Find(ctx, bson.M{"category": category, "isActive": true}, opts)
	if err != nil {
		return nil, err
	}
	return decodeAll[models.Product](ctx, cursor)
}

func (s *mongoProducts) Search(ctx context.Context, keyword string) ([]models.Product, error) {
	score := bson.M{"$meta": "textScore"}
	opts := options.Find().
		SetProjection(bson.M{"reviews": 0, "images": bson.M{"$slice": 1}, "score": score}).
		SetSort(bson.D{{Key: "score", Value: score}})
	cursor, err := s.coll.Find(ctx, bson.M{"$text": bson.M{"$search": keyword}, "isActive": true}, opts)
	if err != nil {
		return nil, err
	}
	return decodeAll[models.Product](ctx, cursor)
}

func (s *mongoProducts) Update(ctx context.Context, p *models.Product) error {
	prepareProduct(p, time.Now())
	res, err := s.coll.ReplaceOne(ctx, bson.M{"_id": p.ID}, p)
	if err != nil {
		return translate(err)
	}
	if res.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *mongoProducts) Delete(ctx context.Context, id primitive.ObjectID) error {
	res, err := s.coll.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return err
	}
	if res.DeletedCount == 0 {
		return ErrNotFound
	}
	return nil
}
