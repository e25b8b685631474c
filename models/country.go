package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Country is kept separate from Destination; the two are not linked.
type Country struct {
	ID                  primitive.ObjectID `json:"_id" bson:"_id,omitempty"`
	Name                string             `json:"name" bson:"name"`
	Continent           string             `json:"continent" bson:"continent"`
	Description         string             `json:"description" bson:"description"`
	Capital             string             `json:"capital" bson:"capital"`
	Language            string             `json:"language" bson:"language"`
	Currency            string             `json:"currency" bson:"currency"`
	TimeZone            string             `json:"timeZone" bson:"timeZone"`
	PopularDestinations []string           `json:"popularDestinations" bson:"popularDestinations"`
	BestTimeToVisit     string             `json:"bestTimeToVisit" bson:"bestTimeToVisit"`
	TravelTips          []string           `json:"travelTips" bson:"travelTips"`
	CreatedAt           time.Time          `json:"createdAt" bson:"createdAt"`
	UpdatedAt           time.Time          `json:"updatedAt" bson:"updatedAt"`
}

// CountryContinents is the closed set a country's continent may take.
var CountryContinents = []string{"asia", "europe"}

// CountryFields are the keys a country PATCH may overwrite.
var CountryFields = []string{
	"name", "continent", "description", "capital", "language", "currency",
	"timeZone", "popularDestinations", "bestTimeToVisit", "travelTips",
}
