// Package booking creates, reads and cancels tour bookings for signed-in users and guests.
package booking

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"tourbook/models"
	"tourbook/query"
	"tourbook/utils"
)

var (
	ErrNotFound      = utils.NotFound("No booking found with that ID")
	ErrTourNotFound  = utils.NotFound("No tour found with that ID")
	ErrAlreadyBooked = utils.Conflict("You have already booked this tour")
)

// Store is the persistence the service needs. Implementations report missing documents with
// ErrNotFound / ErrTourNotFound and an owner collision with ErrAlreadyBooked.
type Store interface {
	FindTour(ctx context.Context, id primitive.ObjectID) (*models.Tour, error)
	Insert(ctx context.Context, b *models.Booking) error
	FindByID(ctx context.Context, id primitive.ObjectID) (*models.Booking, error)
	FindView(ctx context.Context, id primitive.ObjectID) (*models.BookingView, error)
	Update(ctx context.Context, id primitive.ObjectID, set bson.M) (*models.Booking, error)
	List(ctx context.Context, f *query.Features) ([]bson.M, int64, error)
}

// Notifier is told about every booking whose status changed.
type Notifier interface {
	Publish(b *models.Booking)
}

type Service struct {
	store  Store
	notify Notifier
	now    func() time.Time
}

func NewService(store Store, notify Notifier) *Service {
	return &Service{store: store, notify: notify, now: time.Now}
}

// Create books a tour for an authenticated user. A second booking of the same tour by the
// same user is rejected.
func (s *Service) Create(ctx context.Context, owner primitive.ObjectID, req models.BookingRequest) (*models.Booking, error) {
	b, err := s.newBooking(ctx, req)
	if err != nil {
		return nil, err
	}
	b.User = &owner
	if err := s.store.Insert(ctx, b); err != nil {
		return nil, err
	}
	return b, nil
}

// CreateGuest books a tour with inline contact details. Guest bookings are never unique.
func (s *Service) CreateGuest(ctx context.Context, req models.GuestBookingRequest) (*models.Booking, error) {
	b, err := s.newBooking(ctx, req.BookingRequest)
	if err != nil {
		return nil, err
	}
	guest := req.GuestInfo
	b.GuestInfo = &guest
	b.IsGuestBooking = true
	if err := s.store.Insert(ctx, b); err != nil {
		return nil, err
	}
	return b, nil
}

// newBooking prices the request from the stored tour.
func (s *Service) newBooking(ctx context.Context, req models.BookingRequest) (*models.Booking, error) {
	tour, err := s.store.FindTour(ctx, req.Tour)
	if err != nil {
		return nil, err
	}

	currency := tour.Currency
	if currency == "" {
		currency = models.DefaultCurrency
	}
	method := req.PaymentMethod
	if method == "" {
		method = models.DefaultPaymentMethod
	}

	now := s.now()
	return &models.Booking{
		ID:              primitive.NewObjectID(),
		Tour:            tour.ID,
		Price:           tour.Price,
		Currency:        currency,
		StartDate:       req.StartDate,
		NumberOfPeople:  req.NumberOfPeople,
		TotalAmount:     tour.Price * float64(req.NumberOfPeople),
		Status:          models.StatusPending,
		PaymentMethod:   method,
		PaymentStatus:   models.PaymentPending,
		SpecialRequests: req.SpecialRequests,
		CreatedAt:       now,
		UpdatedAt:       now,
	}, nil
}

func authorize(b *models.Booking, actor utils.Actor, action string) error {
	if actor.Admin || b.OwnedBy(actor.ID) {
		return nil
	}
	return utils.Unauthorized(fmt.Sprintf("You are not authorized to %s this booking", action))
}

// Get returns the booking with its tour and owner expanded, for its owner or an admin.
func (s *Service) Get(ctx context.Context, id primitive.ObjectID, actor utils.Actor) (*models.BookingView, error) {
	v, err := s.store.FindView(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := authorize(&v.Booking, actor, "view"); err != nil {
		return nil, err
	}
	return v, nil
}

// Cancel moves a pending or confirmed booking to cancelled.
func (s *Service) Cancel(ctx context.Context, id primitive.ObjectID, actor utils.Actor) (*models.Booking, error) {
	b, err := s.store.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := authorize(b, actor, "cancel"); err != nil {
		return nil, err
	}
	if b.IsTerminal() {
		return nil, utils.BadRequest(fmt.Sprintf("Booking is already %s", b.Status))
	}

	updated, err := s.store.Update(ctx, id, bson.M{
		"status":    models.StatusCancelled,
		"updatedAt": s.now(),
	})
	if err != nil {
		return nil, err
	}
	s.publish(updated)
	return updated, nil
}

// UpdateStatus overwrites status and paymentStatus. Any transition is accepted.
func (s *Service) UpdateStatus(ctx context.Context, id primitive.ObjectID, upd models.StatusUpdate) (*models.Booking, error) {
	updated, err := s.store.Update(ctx, id, bson.M{
		"status":        upd.Status,
		"paymentStatus": upd.PaymentStatus,
		"updatedAt":     s.now(),
	})
	if err != nil {
		return nil, err
	}
	s.publish(updated)
	return updated, nil
}

func (s *Service) List(ctx context.Context, f *query.Features) ([]bson.M, int64, error) {
	return s.store.List(ctx, f)
}

// ListForUser lists the caller's own bookings; a user filter in the query string is overridden.
func (s *Service) ListForUser(ctx context.Context, user primitive.ObjectID, f *query.Features) ([]bson.M, int64, error) {
	f.Filter["user"] = user
	return s.store.List(ctx, f)
}

func (s *Service) publish(b *models.Booking) {
	if s.notify != nil {
		s.notify.Publish(b)
	}
}
