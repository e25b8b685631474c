package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

const (
	StatusPending   = "pending"
	StatusConfirmed = "confirmed"
	StatusCancelled = "cancelled"
	StatusCompleted = "completed"

	PaymentPending  = "pending"
	PaymentPaid     = "paid"
	PaymentRefunded = "refunded"

	DefaultPaymentMethod = "cash"
)

type GuestInfo struct {
	Name  string `json:"name" bson:"name" validate:"required,min=2,max=100"`
	Email string `json:"email" bson:"email" validate:"required,email"`
	Phone string `json:"phone" bson:"phone" validate:"required,min=7,max=20"`
}

// BookingRequest is what clients send. Any price or total they include is ignored.
type BookingRequest struct {
	Tour            primitive.ObjectID `json:"tour" validate:"required"`
	StartDate       time.Time          `json:"startDate" validate:"required"`
	NumberOfPeople  int                `json:"numberOfPeople" validate:"required,min=1"`
	PaymentMethod   string             `json:"paymentMethod" validate:"omitempty,oneof=cash card bank_transfer esewa khalti"`
	SpecialRequests string             `json:"specialRequests" validate:"max=1000"`
}

type GuestBookingRequest struct {
	BookingRequest
	GuestInfo GuestInfo `json:"guestInfo" validate:"required"`
}

type StatusUpdate struct {
	Status        string `json:"status" validate:"required,oneof=pending confirmed cancelled completed"`
	PaymentStatus string `json:"paymentStatus" validate:"required,oneof=pending paid refunded"`
}

// Booking has either User or GuestInfo set, selected by IsGuestBooking.
type Booking struct {
	ID              primitive.ObjectID  `json:"_id" bson:"_id,omitempty"`
	Tour            primitive.ObjectID  `json:"tour" bson:"tour"`
	User            *primitive.ObjectID `json:"user,omitempty" bson:"user,omitempty"`
	GuestInfo       *GuestInfo          `json:"guestInfo,omitempty" bson:"guestInfo,omitempty"`
	IsGuestBooking  bool                `json:"isGuestBooking" bson:"isGuestBooking"`
	Price           float64             `json:"price" bson:"price"`
	Currency        string              `json:"currency" bson:"currency"`
	StartDate       time.Time           `json:"startDate" bson:"startDate"`
	NumberOfPeople  int                 `json:"numberOfPeople" bson:"numberOfPeople"`
	TotalAmount     float64             `json:"totalAmount" bson:"totalAmount"`
	Status          string              `json:"status" bson:"status"`
	PaymentMethod   string              `json:"paymentMethod" bson:"paymentMethod"`
	PaymentStatus   string              `json:"paymentStatus" bson:"paymentStatus"`
	SpecialRequests string              `json:"specialRequests,omitempty" bson:"specialRequests,omitempty"`
	CreatedAt       time.Time           `json:"createdAt" bson:"createdAt"`
	UpdatedAt       time.Time           `json:"updatedAt" bson:"updatedAt"`
}

// IsTerminal reports whether the booking can no longer be cancelled.
func (b *Booking) IsTerminal() bool {
	return b.Status == StatusCancelled || b.Status == StatusCompleted
}

// OwnedBy reports whether id is the booking's owner. Guest bookings have no owner.
func (b *Booking) OwnedBy(id primitive.ObjectID) bool {
	return b.User != nil && *b.User == id
}

// BookingView is a booking with tour and owner expanded.
type BookingView struct {
	Booking  `bson:",inline"`
	TourInfo *TourSummary `json:"tourInfo,omitempty" bson:"tourInfo,omitempty"`
	UserInfo *UserSummary `json:"userInfo,omitempty" bson:"userInfo,omitempty"`
}
