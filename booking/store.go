package booking

import (
	"context"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"tourbook/db"
	"tourbook/models"
	"tourbook/query"
)

// MongoStore keeps bookings in the bookings collection and reads tours for pricing.
type MongoStore struct {
	bookings *mongo.Collection
	tours    *mongo.Collection
}

func NewMongoStore(d *db.DB) *MongoStore {
	return &MongoStore{bookings: d.Bookings, tours: d.Tours}
}

func joinStages() []bson.D {
	stages := db.Lookup("tours", "tour", "tourInfo", "title", "price", "currency", "duration")
	return append(stages, db.Lookup("users", "user", "userInfo", "name", "email")...)
}

func (m *MongoStore) FindTour(ctx context.Context, id primitive.ObjectID) (*models.Tour, error) {
	var t models.Tour
	if err := m.tours.FindOne(ctx, bson.M{"_id": id}).Decode(&t); err != nil {
		if db.IsNotFound(err) {
			return nil, ErrTourNotFound
		}
		return nil, err
	}
	return &t, nil
}

func (m *MongoStore) Insert(ctx context.Context, b *models.Booking) error {
	if _, err := m.bookings.InsertOne(ctx, b); err != nil {
		if db.IsDuplicateKeyError(err) {
			return ErrAlreadyBooked
		}
		return err
	}
	return nil
}

func (m *MongoStore) FindByID(ctx context.Context, id primitive.ObjectID) (*models.Booking, error) {
	var b models.Booking
	if err := m.bookings.FindOne(ctx, bson.M{"_id": id}).Decode(&b); err != nil {
		if db.IsNotFound(err) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &b, nil
}

func (m *MongoStore) FindView(ctx context.Context, id primitive.ObjectID) (*models.BookingView, error) {
	pipeline := append([]bson.D{{{Key: "$match", Value: bson.M{"_id": id}}}}, joinStages()...)
	views, err := db.AggregateAndDecode[models.BookingView](ctx, m.bookings, pipeline)
	if err != nil {
		return nil, err
	}
	if len(views) == 0 {
		return nil, ErrNotFound
	}
	return &views[0], nil
}

func (m *MongoStore) Update(ctx context.Context, id primitive.ObjectID, set bson.M) (*models.Booking, error) {
	var b models.Booking
	err := m.bookings.FindOneAndUpdate(ctx,
		bson.M{"_id": id},
		bson.M{"$set": set},
		options.FindOneAndUpdate().SetReturnDocument(options.After),
	).Decode(&b)
	if err != nil {
		if db.IsNotFound(err) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &b, nil
}

func (m *MongoStore) List(ctx context.Context, f *query.Features) ([]bson.M, int64, error) {
	return db.ListJoined(ctx, m.bookings, f, joinStages()...)
}
