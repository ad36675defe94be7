package store

import (
	"context"
	"time"

	"go-storefront/models"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type mongoSettings struct {
	coll *mongo.Collection
}

// defaultSettingsDoc is the insert-only part of the settings upsert.
func defaultSettingsDoc(now time.Time) (bson.M, error) {
	defaults := models.DefaultSettings()
	defaults.CreatedAt, defaults.UpdatedAt = now, now
	raw, err := bson.Marshal(defaults)
	if err != nil {
		return nil, err
	}
	doc := bson.M{}
	if err := bson.Unmarshal(raw, &doc); err != nil {
		return nil, err
	}
	// key comes from the upsert filter.
	delete(doc, "key")
	delete(doc, "_id")
	return doc, nil
}

// Get reads the settings document, inserting the defaults atomically when absent.
// The unique index on key keeps concurrent first reads from creating two documents.
func (s *mongoSettings) Get(ctx context.Context) (*models.Settings, error) {
	doc, err := defaultSettingsDoc(time.Now())
	if err != nil {
		return nil, err
	}
	filter := bson.M{"key": models.SettingsKey}
	opts := options.FindOneAndUpdate().SetUpsert(true).SetReturnDocument(options.After)

	var settings models.Settings
	err = s.coll.FindOneAndUpdate(ctx, filter, bson.M{"$setOnInsert": doc}, opts).Decode(&settings)
	if mongo.IsDuplicateKeyError(err) {
		err = s.coll.FindOne(ctx, filter).Decode(&settings)
	}
	if err != nil {
		return nil, translate(err)
	}
	return &settings, nil
}

func (s *mongoSettings) Update(ctx context.Context, settings *models.Settings) error {
	settings.Key = models.SettingsKey
	settings.UpdatedAt = time.Now()
	res, err := s.coll.ReplaceOne(ctx, bson.M{"key": models.SettingsKey}, settings)
	if err != nil {
		return translate(err)
	}
	if res.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}
