package reviews

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"tourbook/db"
	"tourbook/models"
	"tourbook/query"
)

type MongoStore struct {
	reviews *mongo.Collection
	tours   *mongo.Collection
}

func NewMongoStore(d *db.DB) *MongoStore {
	return &MongoStore{reviews: d.Reviews, tours: d.Tours}
}

func authorStages() []bson.D {
	return db.Lookup("users", "user", "author", "name")
}

func (m *MongoStore) TourExists(ctx context.Context, id primitive.ObjectID) (bool, error) {
	n, err := m.tours.CountDocuments(ctx, bson.M{"_id": id}, options.Count().SetLimit(1))
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

func (m *MongoStore) Insert(ctx context.Context, rv *models.Review) error {
	if _, err := m.reviews.InsertOne(ctx, rv); err != nil {
		if db.IsDuplicateKeyError(err) {
			return ErrAlreadyReviewed
		}
		return err
	}
	return nil
}

func (m *MongoStore) FindByID(ctx context.Context, id primitive.ObjectID) (*models.Review, error) {
	var rv models.Review
	if err := m.reviews.FindOne(ctx, bson.M{"_id": id}).Decode(&rv); err != nil {
		if db.IsNotFound(err) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &rv, nil
}

func (m *MongoStore) FindView(ctx context.Context, id primitive.ObjectID) (*models.ReviewView, error) {
	pipeline := append([]bson.D{{{Key: "$match", Value: bson.M{"_id": id}}}}, authorStages()...)
	views, err := db.AggregateAndDecode[models.ReviewView](ctx, m.reviews, pipeline)
	if err != nil {
		return nil, err
	}
	if len(views) == 0 {
		return nil, ErrNotFound
	}
	return &views[0], nil
}

func (m *MongoStore) Replace(ctx context.Context, id primitive.ObjectID, in models.ReviewInput, now time.Time) (*models.Review, error) {
	var rv models.Review
	err := m.reviews.FindOneAndUpdate(ctx,
		bson.M{"_id": id},
		bson.M{"$set": bson.M{"review": in.Review, "rating": in.Rating, "updatedAt": now}},
		options.FindOneAndUpdate().SetReturnDocument(options.After),
	).Decode(&rv)
	if err != nil {
		if db.IsNotFound(err) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &rv, nil
}

func (m *MongoStore) Delete(ctx context.Context, id primitive.ObjectID) error {
	if err := m.reviews.FindOneAndDelete(ctx, bson.M{"_id": id}).Err(); err != nil {
		if db.IsNotFound(err) {
			return ErrNotFound
		}
		return err
	}
	return nil
}

func (m *MongoStore) List(ctx context.Context, f *query.Features) ([]bson.M, int64, error) {
	return db.ListJoined(ctx, m.reviews, f, authorStages()...)
}
