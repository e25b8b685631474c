// Package reviews stores tour reviews and keeps each tour's rating aggregate in step with them.
package reviews

import (
	"context"
	"log"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"tourbook/models"
	"tourbook/query"
	"tourbook/utils"
)

var (
	ErrNotFound         = utils.NotFound("No review found with that ID")
	ErrTourNotFound     = utils.NotFound("No tour found with that ID")
	ErrAlreadyReviewed  = utils.Conflict("You have already reviewed this tour")
	errNotAuthorOrAdmin = utils.Forbidden("You can only change your own reviews")
)

type Store interface {
	TourExists(ctx context.Context, id primitive.ObjectID) (bool, error)
	Insert(ctx context.Context, rv *models.Review) error
	FindByID(ctx context.Context, id primitive.ObjectID) (*models.Review, error)
	FindView(ctx context.Context, id primitive.ObjectID) (*models.ReviewView, error)
	Replace(ctx context.Context, id primitive.ObjectID, in models.ReviewInput, now time.Time) (*models.Review, error)
	Delete(ctx context.Context, id primitive.ObjectID) error
	List(ctx context.Context, f *query.Features) ([]bson.M, int64, error)
}

// RatingUpdater recomputes a tour's rating aggregate from its current reviews.
type RatingUpdater interface {
	Recalculate(ctx context.Context, tourID primitive.ObjectID) error
}

type Service struct {
	store   Store
	ratings RatingUpdater
	now     func() time.Time
}

func NewService(store Store, ratings RatingUpdater) *Service {
	return &Service{store: store, ratings: ratings, now: time.Now}
}

// Create adds the caller's review of a tour. Each user may review a tour once.
func (s *Service) Create(ctx context.Context, tourID, author primitive.ObjectID, in models.ReviewInput) (*models.Review, error) {
	ok, err := s.store.TourExists(ctx, tourID)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, ErrTourNotFound
	}

	now := s.now()
	rv := &models.Review{
		ID:          primitive.NewObjectID(),
		ReviewInput: in,
		Tour:        tourID,
		User:        author,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := s.store.Insert(ctx, rv); err != nil {
		return nil, err
	}
	s.recalculate(ctx, tourID)
	return rv, nil
}

// Update overwrites the review text and rating. Only the author or an admin may do so.
func (s *Service) Update(ctx context.Context, id primitive.ObjectID, actor utils.Actor, in models.ReviewInput) (*models.Review, error) {
	existing, err := s.store.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !actor.Admin && existing.User != actor.ID {
		return nil, errNotAuthorOrAdmin
	}
	tourID := existing.Tour

	updated, err := s.store.Replace(ctx, id, in, s.now())
	if err != nil {
		return nil, err
	}
	s.recalculate(ctx, tourID)
	return updated, nil
}

// Delete removes the review and recomputes its tour from the remaining reviews.
func (s *Service) Delete(ctx context.Context, id primitive.ObjectID, actor utils.Actor) error {
	existing, err := s.store.FindByID(ctx, id)
	if err != nil {
		return err
	}
	if !actor.Admin && existing.User != actor.ID {
		return errNotAuthorOrAdmin
	}
	tourID := existing.Tour

	if err := s.store.Delete(ctx, id); err != nil {
		return err
	}
	s.recalculate(ctx, tourID)
	return nil
}

func (s *Service) Get(ctx context.Context, id primitive.ObjectID) (*models.ReviewView, error) {
	return s.store.FindView(ctx, id)
}

func (s *Service) List(ctx context.Context, f *query.Features) ([]bson.M, int64, error) {
	return s.store.List(ctx, f)
}

// ListForTour lists one tour's reviews; a tour filter in the query string is overridden.
func (s *Service) ListForTour(ctx context.Context, tourID primitive.ObjectID, f *query.Features) ([]bson.M, int64, error) {
	f.Filter["tour"] = tourID
	return s.store.List(ctx, f)
}

// recalculate runs after the review write has committed. A failure leaves the aggregate stale
// until the next review write, so it is logged instead of failing the request.
func (s *Service) recalculate(ctx context.Context, tourID primitive.ObjectID) {
	if s.ratings == nil {
		return
	}
	if err := s.ratings.Recalculate(ctx, tourID); err != nil {
		log.Printf("recalculate ratings for tour %s: %v", tourID.Hex(), err)
	}
}
