package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

const (
	DefaultRatingsAverage = 4.5
	DefaultCurrency       = "NPR"
)

type ItineraryDay struct {
	Day         int      `json:"day" bson:"day" validate:"required,min=1"`
	Description string   `json:"description" bson:"description" validate:"required"`
	Activities  []string `json:"activities" bson:"activities"`
}

// TourInput holds every client-writable tour field.
type TourInput struct {
	Title         string             `json:"title" bson:"title" validate:"required,min=5,max=100"`
	Description   string             `json:"description" bson:"description" validate:"required"`
	Destination   primitive.ObjectID `json:"destination" bson:"destination" validate:"required"`
	Duration      int                `json:"duration" bson:"duration" validate:"required,min=1"`
	Price         float64            `json:"price" bson:"price" validate:"required,gt=0"`
	Currency      string             `json:"currency" bson:"currency" validate:"omitempty,oneof=NPR USD EUR GBP"`
	DiscountPrice float64            `json:"discountPrice,omitempty" bson:"discountPrice,omitempty" validate:"omitempty,gte=0,ltfield=Price"`
	MaxGroupSize  int                `json:"maxGroupSize" bson:"maxGroupSize" validate:"required,min=1"`
	Difficulty    string             `json:"difficulty" bson:"difficulty" validate:"required,oneof=easy medium difficult"`
	Images        []string           `json:"images" bson:"images"`
	CoverImage    string             `json:"coverImage" bson:"coverImage"`
	StartDates    []time.Time        `json:"startDates" bson:"startDates"`
	Itinerary     []ItineraryDay     `json:"itinerary" bson:"itinerary" validate:"dive"`
	Includes      []string           `json:"includes" bson:"includes"`
	Excludes      []string           `json:"excludes" bson:"excludes"`
	Featured      bool               `json:"featured" bson:"featured"`
}

// Tour is the stored document. RatingsAverage and RatingsQuantity are only written by the
// rating aggregator.
type Tour struct {
	ID              primitive.ObjectID  `json:"_id" bson:"_id,omitempty"`
	TourInput       `bson:",inline"`
	RatingsAverage  float64             `json:"ratingsAverage" bson:"ratingsAverage"`
	RatingsQuantity int                 `json:"ratingsQuantity" bson:"ratingsQuantity"`
	CreatedBy       *primitive.ObjectID `json:"createdBy,omitempty" bson:"createdBy,omitempty"`
	CreatedAt       time.Time           `json:"createdAt" bson:"createdAt"`
	UpdatedAt       time.Time           `json:"updatedAt" bson:"updatedAt"`
}

// NewTour builds a fresh document with the rating baseline.
func NewTour(in TourInput, creator *primitive.ObjectID, now time.Time) *Tour {
	if in.Currency == "" {
		in.Currency = DefaultCurrency
	}
	return &Tour{
		ID:              primitive.NewObjectID(),
		TourInput:       in,
		RatingsAverage:  DefaultRatingsAverage,
		RatingsQuantity: 0,
		CreatedBy:       creator,
		CreatedAt:       now,
		UpdatedAt:       now,
	}
}

// TourSummary is the slice of a tour expanded into bookings.
type TourSummary struct {
	ID       primitive.ObjectID `json:"_id" bson:"_id"`
	Title    string             `json:"title" bson:"title"`
	Price    float64            `json:"price" bson:"price"`
	Currency string             `json:"currency" bson:"currency"`
	Duration int                `json:"duration" bson:"duration"`
}

// DifficultyStats is one row of the tour statistics report.
type DifficultyStats struct {
	Difficulty string  `json:"difficulty" bson:"_id"`
	NumTours   int     `json:"numTours" bson:"numTours"`
	NumRatings int     `json:"numRatings" bson:"numRatings"`
	AvgRating  float64 `json:"avgRating" bson:"avgRating"`
	AvgPrice   float64 `json:"avgPrice" bson:"avgPrice"`
	MinPrice   float64 `json:"minPrice" bson:"minPrice"`
	MaxPrice   float64 `json:"maxPrice" bson:"maxPrice"`
}
