package db

import (
	"context"
	"fmt"
	"log"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// DB bundles the client and every collection the service touches. It is created once in main
// and handed to each handler.
type DB struct {
	Client       *mongo.Client
	Tours        *mongo.Collection
	Destinations *mongo.Collection
	Reviews      *mongo.Collection
	Bookings     *mongo.Collection
	Countries    *mongo.Collection
	Users        *mongo.Collection
}

func Connect(ctx context.Context, uri, name string) (*DB, error) {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, fmt.Errorf("connect to MongoDB: %w", err)
	}
	if err := client.Ping(ctx, nil); err != nil {
		return nil, fmt.Errorf("ping MongoDB: %w", err)
	}

	return New(client, name), nil
}

func New(client *mongo.Client, name string) *DB {
	database := client.Database(name)
	return &DB{
		Client:       client,
		Tours:        database.Collection("tours"),
		Destinations: database.Collection("destinations"),
		Reviews:      database.Collection("reviews"),
		Bookings:     database.Collection("bookings"),
		Countries:    database.Collection("countries"),
		Users:        database.Collection("users"),
	}
}

func (d *DB) Close(ctx context.Context) error {
	return d.Client.Disconnect(ctx)
}

// EnsureIndexes creates the collection validators and the uniqueness and lookup indexes the
// handlers rely on.
func (d *DB) EnsureIndexes(ctx context.Context) error {
	if err := ensureValidator(ctx, d.Countries, CountryValidator); err != nil {
		return err
	}

	plan := map[*mongo.Collection][]mongo.IndexModel{
		d.Tours: {
			{Keys: bson.D{{Key: "price", Value: 1}, {Key: "ratingsAverage", Value: -1}}},
			{Keys: bson.D{{Key: "destination", Value: 1}}},
		},
		d.Destinations: {
			{Keys: bson.D{{Key: "name", Value: 1}}, Options: options.Index().SetUnique(true).SetName("unique_name")},
		},
		d.Countries: {
			{Keys: bson.D{{Key: "name", Value: 1}}, Options: options.Index().SetUnique(true).SetName("unique_name")},
		},
		d.Users: {
			{Keys: bson.D{{Key: "email", Value: 1}}, Options: options.Index().SetUnique(true).SetName("unique_email")},
		},
		d.Reviews: {
			{
				Keys:    bson.D{{Key: "tour", Value: 1}, {Key: "user", Value: 1}},
				Options: options.Index().SetUnique(true).SetName("unique_tour_user"),
			},
		},
		// A plain sparse index would still index guest bookings through the tour key,
		// so the owner uniqueness is scoped with a partial filter instead.
		d.Bookings: {
			{
				Keys: bson.D{{Key: "tour", Value: 1}, {Key: "user", Value: 1}},
				Options: options.Index().
					SetUnique(true).
					SetName("unique_tour_user").
					SetPartialFilterExpression(bson.M{"isGuestBooking": false}),
			},
			{Keys: bson.D{{Key: "user", Value: 1}, {Key: "createdAt", Value: -1}}},
		},
	}

	for coll, idxs := range plan {
		if _, err := coll.Indexes().CreateMany(ctx, idxs); err != nil {
			return fmt.Errorf("create indexes on %s: %w", coll.Name(), err)
		}
	}
	log.Println("MongoDB indexes ensured")
	return nil
}
