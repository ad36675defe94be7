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

type mongoOrders struct {
	coll *mongo.Collection
}

var newestFirst = bson.D{{Key: "createdAt", Value: -1}, {Key: "_id", Value: -1}}

func (s *mongoOrders) Create(ctx context.Context, o *models.Order) error {
	now := time.Now()
	if o.ID.IsZero() {
		o.ID = primitive.NewObjectID()
	}
	o.SyncTotal()
	o.CreatedAt, o.UpdatedAt = now, now
	_, err := s.coll.InsertOne(ctx, o)
	return translate(err)
}

func (s *mongoOrders) FindByID(ctx context.Context, id primitive.ObjectID) (*models.Order, error) {
	var o models.Order
	if err := s.coll.FindOne(ctx, bson.M{"_id": id}).Decode(&o); err != nil {
		return nil, translate(err)
	}
	return &o, nil
}

func (s *mongoOrders) list(ctx context.Context, filter bson.M) ([]models.Order, error) {
	filter["orderStatus"] = bson.M{"$ne": models.StatusCancelled}
	cursor, err := s.coll.Find(ctx, filter, options.Find().SetSort(newestFirst))
	if err != nil {
		return nil, err
	}
	return decodeAll[models.Order](ctx, cursor)
}

func (s *mongoOrders) ListByUser(ctx context.Context, userID primitive.ObjectID) ([]models.Order, error) {
	return s.list(ctx, bson.M{"user": userID})
}

func (s *mongoOrders) ListAll(ctx context.Context) ([]models.Order, error) {
	return s.list(ctx, bson.M{})
}

// Update recomputes the total before replacing the stored order.
func (s *mongoOrders) Update(ctx context.Context, o *models.Order) error {
	o.SyncTotal()
	o.UpdatedAt = time.Now()
	res, err := s.coll.ReplaceOne(ctx, bson.M{"_id": o.ID}, o)
	if err != nil {
		return translate(err)
	}
	if res.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *mongoOrders) Delete(ctx context.Context, id primitive.ObjectID) error {
	res, err := s.coll.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return err
	}
	if res.DeletedCount == 0 {
		return ErrNotFound
	}
	return nil
}
