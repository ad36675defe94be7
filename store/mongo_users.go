package store

import (
	"context"
	"strings"
	"time"

	"go-storefront/models"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type mongoUsers struct {
	coll *mongo.Collection
}

func (s *mongoUsers) Create(ctx context.Context, u *models.User) error {
	now := time.Now()
	if u.ID.IsZero() {
		u.ID = primitive.NewObjectID()
	}
	u.Email = strings.ToLower(u.Email)
	u.CreatedAt, u.UpdatedAt = now, now
	_, err := s.coll.InsertOne(ctx, u)
	return translate(err)
}

func (s *mongoUsers) findOne(ctx context.Context, filter bson.M) (*models.User, error) {
	var u models.User
	if err := s.coll.FindOne(ctx, filter).Decode(&u); err != nil {
		return nil, translate(err)
	}
	return &u, nil
}

func (s *mongoUsers) FindByID(ctx context.Context, id primitive.ObjectID) (*models.User, error) {
	return s.findOne(ctx, bson.M{"_id": id})
}

func (s *mongoUsers) FindByEmail(ctx context.Context, email string) (*models.User, error) {
	return s.findOne(ctx, bson.M{"email": strings.ToLower(email)})
}

func (s *mongoUsers) FindByVerificationToken(ctx context.Context, hash string, now time.Time) (*models.User, error) {
	return s.findOne(ctx, bson.M{
		"emailVerificationToken":  hash,
		"emailVerificationExpire": bson.M{"$gt": now},
	})
}

func (s *mongoUsers) FindByResetToken(ctx context.Context, hash string, now time.Time) (*models.User, error) {
	return s.findOne(ctx, bson.M{
		"resetPasswordToken":  hash,
		"resetPasswordExpire": bson.M{"$gt": now},
	})
}

// Update replaces the stored user, so cleared token fields are removed.
func (s *mongoUsers) Update(ctx context.Context, u *models.User) error {
	u.Email = strings.ToLower(u.Email)
	u.UpdatedAt = time.Now()
	res, err := s.coll.ReplaceOne(ctx, bson.M{"_id": u.ID}, u)
	if err != nil {
		return translate(err)
	}
	if res.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *mongoUsers) List(ctx context.Context) ([]models.User, error) {
	opts := options.Find().SetSort(bson.D{{Key: "createdAt", Value: -1}})
	cursor, err := s.coll.Find(ctx, bson.M{}, opts)
	if err != nil {
		return nil, err
	}
	return decodeAll[models.User](ctx, cursor)
}
