package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type ReviewInput struct {
	Review string `json:"review" bson:"review" validate:"required,min=1,max=2000"`
	Rating int    `json:"rating" bson:"rating" validate:"required,min=1,max=5"`
}

type Review struct {
	ID          primitive.ObjectID `json:"_id" bson:"_id,omitempty"`
	ReviewInput `bson:",inline"`
	Tour        primitive.ObjectID `json:"tour" bson:"tour"`
	User        primitive.ObjectID `json:"user" bson:"user"`
	CreatedAt   time.Time          `json:"createdAt" bson:"createdAt"`
	UpdatedAt   time.Time          `json:"updatedAt" bson:"updatedAt"`
}

// ReviewView is a review with its author expanded.
type ReviewView struct {
	Review `bson:",inline"`
	Author *UserSummary `json:"author,omitempty" bson:"author,omitempty"`
}
