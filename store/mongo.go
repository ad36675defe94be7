package store

import (
	"context"
	"errors"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const (
	usersCollection     = "users"
	productsCollection  = "products"
	cartsCollection     = "carts"
	ordersCollection    = "orders"
	wishlistsCollection = "wishlists"
	settingsCollection  = "settings"
)

// NewMongoStore returns collection-backed stores on db.
func NewMongoStore(db *mongo.Database) *Store {
	return &Store{
		Users:     &mongoUsers{coll: db.Collection(usersCollection)},
		Products:  &mongoProducts{coll: db.Collection(productsCollection)},
		Carts:     &mongoCarts{coll: db.Collection(cartsCollection)},
		Orders:    &mongoOrders{coll: db.Collection(ordersCollection)},
		Wishlists: &mongoWishlists{coll: db.Collection(wishlistsCollection)},
		Settings:  &mongoSettings{coll: db.Collection(settingsCollection)},
	}
}

// EnsureIndexes creates the indexes the stores rely on. Unique indexes back the
// one-cart, one-wishlist and single-settings guarantees.
func EnsureIndexes(ctx context.Context, db *mongo.Database) error {
	indexes := map[string][]mongo.IndexModel{
		usersCollection: {
			{Keys: bson.D{{Key: "email", Value: 1}}, Options: options.Index().SetUnique(true)},
			{Keys: bson.D{{Key: "emailVerificationToken", Value: 1}}, Options: options.Index().SetSparse(true)},
			{Keys: bson.D{{Key: "resetPasswordToken", Value: 1}}, Options: options.Index().SetSparse(true)},
		},
		productsCollection: {
			{
				Keys: bson.D{
					{Key: "name", Value: "text"},
					{Key: "description", Value: "text"},
					{Key: "brand", Value: "text"},
				},
				Options: options.Index().SetName("product_text"),
			},
			{Keys: bson.D{{Key: "isActive", Value: 1}, {Key: "category", Value: 1}, {Key: "createdAt", Value: -1}}},
			{Keys: bson.D{{Key: "isActive", Value: 1}, {Key: "price", Value: 1}}},
		},
		cartsCollection: {
			{Keys: bson.D{{Key: "user", Value: 1}}, Options: options.Index().SetUnique(true)},
		},
		ordersCollection: {
			{Keys: bson.D{{Key: "user", Value: 1}, {Key: "createdAt", Value: -1}}},
			{Keys: bson.D{{Key: "orderStatus", Value: 1}, {Key: "createdAt", Value: -1}}},
		},
		wishlistsCollection: {
			{Keys: bson.D{{Key: "user", Value: 1}}, Options: options.Index().SetUnique(true)},
		},
		settingsCollection: {
			{Keys: bson.D{{Key: "key", Value: 1}}, Options: options.Index().SetUnique(true)},
		},
	}
	for name, models := range indexes {
		if _, err := db.Collection(name).Indexes().CreateMany(ctx, models); err != nil {
			return fmt.Errorf("create %s indexes: %w", name, err)
		}
	}
	return nil
}

// translate maps driver errors onto the store's sentinel errors.
func translate(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, mongo.ErrNoDocuments):
		return ErrNotFound
	case mongo.IsDuplicateKeyError(err):
		return fmt.Errorf("%w: %v", ErrDuplicate, err)
	default:
		return err
	}
}

func decodeAll[T any](ctx context.Context, cursor *mongo.Cursor) ([]T, error) {
	defer cursor.Close(ctx)
	out := []T{}
	if err := cursor.All(ctx, &out); err != nil {
		return nil, err
	}
	return out, nil
}
