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

type mongoWishlists struct {
	coll *mongo.Collection
}

func (s *mongoWishlists) GetOrCreate(ctx context.Context, userID primitive.ObjectID) (*models.Wishlist, error) {
	now := time.Now()
	update := bson.M{"$setOnInsert": bson.M{
		"products":  []primitive.ObjectID{},
		"createdAt": now,
		"updatedAt": now,
	}}
	opts := options.FindOneAndUpdate().SetUpsert(true).SetReturnDocument(options.After)

	var w models.Wishlist
	err := s.coll.FindOneAndUpdate(ctx, bson.M{"user": userID}, update, opts).Decode(&w)
	if mongo.IsDuplicateKeyError(err) {
		return s.FindByUser(ctx, userID)
	}
	if err != nil {
		return nil, translate(err)
	}
	return &w, nil
}

func (s *mongoWishlists) FindByUser(ctx context.Context, userID primitive.ObjectID) (*models.Wishlist, error) {
	var w models.Wishlist
	if err := s.coll.FindOne(ctx, bson.M{"user": userID}).Decode(&w); err != nil {
		return nil, translate(err)
	}
	return &w, nil
}

func (s *mongoWishlists) Save(ctx context.Context, w *models.Wishlist) error {
	if w.Products == nil {
		w.Products = []primitive.ObjectID{}
	}
	w.UpdatedAt = time.Now()
	res, err := s.coll.ReplaceOne(ctx, bson.M{"_id": w.ID}, w)
	if err != nil {
		return translate(err)
	}
	if res.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}
