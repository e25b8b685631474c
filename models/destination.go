package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

var Continents = []string{
	"Africa", "Antarctica", "Asia", "Australia", "Europe", "North America", "South America",
}

type Coordinates struct {
	Latitude  float64 `json:"latitude" bson:"latitude" validate:"gte=-90,lte=90"`
	Longitude float64 `json:"longitude" bson:"longitude" validate:"gte=-180,lte=180"`
}

type DestinationInput struct {
	Name            string      `json:"name" bson:"name" validate:"required,min=2,max=100"`
	Description     string      `json:"description" bson:"description" validate:"required"`
	Country         string      `json:"country" bson:"country" validate:"required"`
	Continent       string      `json:"continent" bson:"continent" validate:"required,oneof='Africa' 'Antarctica' 'Asia' 'Australia' 'Europe' 'North America' 'South America'"`
	Images          []string    `json:"images" bson:"images"`
	CoverImage      string      `json:"coverImage" bson:"coverImage"`
	BestTimeToVisit string      `json:"bestTimeToVisit" bson:"bestTimeToVisit"`
	TravelTips      []string    `json:"travelTips" bson:"travelTips"`
	Attractions     []string    `json:"attractions" bson:"attractions"`
	Coordinates     Coordinates `json:"coordinates" bson:"coordinates"`
	Featured        bool        `json:"featured" bson:"featured"`
}

type Destination struct {
	ID               primitive.ObjectID `json:"_id" bson:"_id,omitempty"`
	DestinationInput `bson:",inline"`
	CreatedAt        time.Time `json:"createdAt" bson:"createdAt"`
	UpdatedAt        time.Time `json:"updatedAt" bson:"updatedAt"`
}

// CountryOfDestination is one entry of the distinct country listing.
type CountryOfDestination struct {
	Country   string `json:"country" bson:"_id"`
	Continent string `json:"continent" bson:"continent"`
}
