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

type mongoCarts struct {
	coll *mongo.Collection
}

func (s *mongoCarts) GetOrCreate(ctx context.Context, userID primitive.ObjectID) (*models.Cart, error) {
	now := time.Now()
	update := bson.M{"$setOnInsert": bson.M{
		"items":      []models.CartItem{},
		"totalItems": 0,
		"totalPrice": 0.0,
		"createdAt":  now,
		"updatedAt":  now,
	}}
	opts := options.FindOneAndUpdate().SetUpsert(true).SetReturnDocument(options.After)

	var cart models.Cart
	err := s.coll.FindOneAndUpdate(ctx, bson.M{"user": userID}, update, opts).Decode(&cart)
	if mongo.IsDuplicateKeyError(err) {
		// A concurrent upsert won the race; read its cart.
		return s.FindByUser(ctx, userID)
	}
	if err != nil {
		return nil, translate(err)
	}
	return &cart, nil
}

func (s *mongoCarts) FindByUser(ctx context.Context, userID primitive.ObjectID) (*models.Cart, error) {
	var cart models.Cart
	if err := s.coll.FindOne(ctx, bson.M{"user": userID}).Decode(&cart); err != nil {
		return nil, translate(err)
	}
	return &cart, nil
}

func (s *mongoCarts) Save(ctx context.Context, c *models.Cart) error {
	c.Recalculate()
	c.UpdatedAt = time.Now()
	res, err := s.coll.ReplaceOne(ctx, bson.M{"_id": c.ID}, c)
	if err != nil {
		return translate(err)
	}
	if res.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *mongoCarts) ClearItems(ctx context.Context, userID primitive.ObjectID) error {
	_, err := s.coll.UpdateOne(ctx, bson.M{"user": userID}, bson.M{"$set": bson.M{
		"items":      []models.CartItem{},
		"totalItems": 0,
		"totalPrice": 0.0,
		"updatedAt":  time.Now(),
	}})
	return err
}
