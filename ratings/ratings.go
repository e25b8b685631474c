// Package ratings keeps a tour's ratingsAverage and ratingsQuantity equal to the aggregate of
// its reviews. Callers invoke Recalculate after every review write has committed.
package ratings

import (
	"context"
	"fmt"
	"math"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"

	"tourbook/models"
)

// Round1 rounds half up to one decimal place.
func Round1(v float64) float64 {
	return math.Floor(v*10+0.5) / 10
}

// Summarize turns a review count and mean into the stored tour fields. A tour without reviews
// falls back to the 4.5 baseline with a zero count.
func Summarize(count int, mean float64) (average float64, quantity int) {
	if count <= 0 {
		return models.DefaultRatingsAverage, 0
	}
	return Round1(mean), count
}

// Invalidator is notified after a tour's aggregate changes.
type Invalidator interface {
	Invalidate(ctx context.Context, namespace string)
}

type Aggregator struct {
	reviews *mongo.Collection
	tours   *mongo.Collection
	cache   Invalidator
}

func NewAggregator(reviews, tours *mongo.Collection, cache Invalidator) *Aggregator {
	return &Aggregator{reviews: reviews, tours: tours, cache: cache}
}

type stats struct {
	NRating   int     `bson:"nRating"`
	AvgRating float64 `bson:"avgRating"`
}

// Recalculate reads the tour's current reviews and writes the aggregate back. No lock is taken;
// concurrent writers converge once the last recompute finishes.
func (a *Aggregator) Recalculate(ctx context.Context, tourID primitive.ObjectID) error {
	pipeline := mongo.Pipeline{
		{{Key: "$match", Value: bson.M{"tour": tourID}}},
		{{Key: "$group", Value: bson.M{
			"_id":       "$tour",
			"nRating":   bson.M{"$sum": 1},
			"avgRating": bson.M{"$avg": "$rating"},
		}}},
	}

	cur, err := a.reviews.Aggregate(ctx, pipeline)
	if err != nil {
		return fmt.Errorf("aggregate reviews for tour %s: %w", tourID.Hex(), err)
	}
	defer cur.Close(ctx)

	var rows []stats
	if err := cur.All(ctx, &rows); err != nil {
		return fmt.Errorf("decode review stats for tour %s: %w", tourID.Hex(), err)
	}

	var s stats
	if len(rows) > 0 {
		s = rows[0]
	}
	avg, qty := Summarize(s.NRating, s.AvgRating)

	_, err = a.tours.UpdateOne(ctx,
		bson.M{"_id": tourID},
		bson.M{"$set": bson.M{
			"ratingsAverage":  avg,
			"ratingsQuantity": qty,
			"updatedAt":       time.Now(),
		}},
	)
	if err != nil {
		return fmt.Errorf("update ratings for tour %s: %w", tourID.Hex(), err)
	}

	if a.cache != nil {
		a.cache.Invalidate(ctx, "tours")
	}
	return nil
}
