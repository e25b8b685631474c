package booking

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"sync"
	"testing"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"tourbook/models"
	"tourbook/query"
	"tourbook/utils"
)

type fakeStore struct {
	mu       sync.Mutex
	tours    map[primitive.ObjectID]*models.Tour
	bookings map[primitive.ObjectID]*models.Booking
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		tours:    map[primitive.ObjectID]*models.Tour{},
		bookings: map[primitive.ObjectID]*models.Booking{},
	}
}

func (f *fakeStore) addTour(price float64, currency string) *models.Tour {
	t := &models.Tour{ID: primitive.NewObjectID()}
	t.Title = "Annapurna Circuit"
	t.Price = price
	t.Currency = currency
	f.tours[t.ID] = t
	return t
}

func (f *fakeStore) FindTour(_ context.Context, id primitive.ObjectID) (*models.Tour, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	t, ok := f.tours[id]
	if !ok {
		return nil, ErrTourNotFound
	}
	return t, nil
}

// Insert mirrors the partial unique index on (tour, user) for non-guest bookings.
func (f *fakeStore) Insert(_ context.Context, b *models.Booking) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if !b.IsGuestBooking {
		for _, other := range f.bookings {
			if !other.IsGuestBooking && other.Tour == b.Tour && *other.User == *b.User {
				return ErrAlreadyBooked
			}
		}
	}
	cp := *b
	f.bookings[b.ID] = &cp
	return nil
}

func (f *fakeStore) FindByID(_ context.Context, id primitive.ObjectID) (*models.Booking, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	b, ok := f.bookings[id]
	if !ok {
		return nil, ErrNotFound
	}
	cp := *b
	return &cp, nil
}

func (f *fakeStore) FindView(ctx context.Context, id primitive.ObjectID) (*models.BookingView, error) {
	b, err := f.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	v := &models.BookingView{Booking: *b}
	if t, ok := f.tours[b.Tour]; ok {
		v.TourInfo = &models.TourSummary{ID: t.ID, Title: t.Title, Price: t.Price, Currency: t.Currency}
	}
	return v, nil
}

func (f *fakeStore) Update(_ context.Context, id primitive.ObjectID, set bson.M) (*models.Booking, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	b, ok := f.bookings[id]
	if !ok {
		return nil, ErrNotFound
	}
	if v, ok := set["status"].(string); ok {
		b.Status = v
	}
	if v, ok := set["paymentStatus"].(string); ok {
		b.PaymentStatus = v
	}
	if v, ok := set["updatedAt"].(time.Time); ok {
		b.UpdatedAt = v
	}
	cp := *b
	return &cp, nil
}

func (f *fakeStore) List(_ context.Context, fs *query.Features) ([]bson.M, int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []bson.M
	for _, b := range f.bookings {
		if user, ok := fs.Filter["user"].(primitive.ObjectID); ok && (b.User == nil || *b.User != user) {
			continue
		}
		out = append(out, bson.M{"_id": b.ID, "totalAmount": b.TotalAmount})
	}
	return out, int64(len(out)), nil
}

type recordingNotifier struct {
	published []*models.Booking
}

func (n *recordingNotifier) Publish(b *models.Booking) {
	n.published = append(n.published, b)
}

func request(tour primitive.ObjectID, people int) models.BookingRequest {
	return models.BookingRequest{
		Tour:           tour,
		StartDate:      time.Date(2026, 11, 1, 0, 0, 0, 0, time.UTC),
		NumberOfPeople: people,
	}
}

func statusCode(err error) int {
	var se *utils.StatusError
	if errors.As(err, &se) {
		return se.Code
	}
	return 0
}

func TestCreateComputesTotalFromTourPrice(t *testing.T) {
	store := newFakeStore()
	tour := store.addTour(1000, "USD")
	svc := NewService(store, nil)

	b, err := svc.Create(context.Background(), primitive.NewObjectID(), request(tour.ID, 3))
	if err != nil {
		t.Fatalf("Create returned error: %v", err)
	}
	if b.TotalAmount != 3000 {
		t.Errorf("expected totalAmount 3000, got %v", b.TotalAmount)
	}
	if b.Price != 1000 || b.Currency != "USD" {
		t.Errorf("expected price 1000 USD, got %v %s", b.Price, b.Currency)
	}
	if b.Status != models.StatusPending || b.PaymentStatus != models.PaymentPending {
		t.Errorf("expected pending/pending, got %s/%s", b.Status, b.PaymentStatus)
	}
	if b.PaymentMethod != models.DefaultPaymentMethod {
		t.Errorf("expected default payment method, got %q", b.PaymentMethod)
	}
	if b.IsGuestBooking || b.User == nil {
		t.Errorf("expected an owned booking, got %+v", b)
	}
}

func TestCreateDefaultsCurrency(t *testing.T) {
	store := newFakeStore()
	tour := store.addTour(250, "")
	svc := NewService(store, nil)

	b, err := svc.Create(context.Background(), primitive.NewObjectID(), request(tour.ID, 2))
	if err != nil {
		t.Fatalf("Create returned error: %v", err)
	}
	if b.Currency != models.DefaultCurrency {
		t.Errorf("expected %s, got %s", models.DefaultCurrency, b.Currency)
	}
}

func TestCreateUnknownTour(t *testing.T) {
	svc := NewService(newFakeStore(), nil)

	_, err := svc.Create(context.Background(), primitive.NewObjectID(), request(primitive.NewObjectID(), 1))
	if statusCode(err) != http.StatusNotFound {
		t.Fatalf("expected 404, got %v", err)
	}
}

func TestOwnerBookingIsUniquePerTour(t *testing.T) {
	store := newFakeStore()
	tour := store.addTour(100, "NPR")
	svc := NewService(store, nil)
	user := primitive.NewObjectID()

	if _, err := svc.Create(context.Background(), user, request(tour.ID, 1)); err != nil {
		t.Fatalf("first booking failed: %v", err)
	}
	_, err := svc.Create(context.Background(), user, request(tour.ID, 2))
	if statusCode(err) != http.StatusConflict {
		t.Fatalf("expected 409 on second booking, got %v", err)
	}

	if _, err := svc.Create(context.Background(), primitive.NewObjectID(), request(tour.ID, 1)); err != nil {
		t.Fatalf("another user should be able to book: %v", err)
	}
}

func TestGuestBookingsAreNotUnique(t *testing.T) {
	store := newFakeStore()
	tour := store.addTour(100, "NPR")
	svc := NewService(store, nil)

	for _, name := range []string{"Sita", "Ram"} {
		req := models.GuestBookingRequest{
			BookingRequest: request(tour.ID, 2),
			GuestInfo:      models.GuestInfo{Name: name, Email: "guest@example.com", Phone: "9800000000"},
		}
		b, err := svc.CreateGuest(context.Background(), req)
		if err != nil {
			t.Fatalf("guest booking for %s failed: %v", name, err)
		}
		if !b.IsGuestBooking || b.User != nil || b.GuestInfo == nil || b.GuestInfo.Name != name {
			t.Errorf("unexpected guest booking %+v", b)
		}
		if b.TotalAmount != 200 {
			t.Errorf("expected totalAmount 200, got %v", b.TotalAmount)
		}
	}
}

func TestCancelTerminalStatusIsRejected(t *testing.T) {
	for _, status := range []string{models.StatusCancelled, models.StatusCompleted} {
		store := newFakeStore()
		tour := store.addTour(100, "NPR")
		svc := NewService(store, nil)
		user := primitive.NewObjectID()

		b, err := svc.Create(context.Background(), user, request(tour.ID, 1))
		if err != nil {
			t.Fatalf("Create returned error: %v", err)
		}
		store.bookings[b.ID].Status = status

		_, err = svc.Cancel(context.Background(), b.ID, utils.Actor{ID: user})
		if statusCode(err) != http.StatusBadRequest {
			t.Fatalf("%s: expected 400, got %v", status, err)
		}
		if !strings.Contains(err.Error(), "already "+status) {
			t.Errorf("%s: message should name the status, got %q", status, err.Error())
		}
	}
}

func TestCancelPendingOrConfirmed(t *testing.T) {
	for _, status := range []string{models.StatusPending, models.StatusConfirmed} {
		store := newFakeStore()
		tour := store.addTour(100, "NPR")
		notes := &recordingNotifier{}
		svc := NewService(store, notes)
		user := primitive.NewObjectID()

		b, _ := svc.Create(context.Background(), user, request(tour.ID, 1))
		store.bookings[b.ID].Status = status

		got, err := svc.Cancel(context.Background(), b.ID, utils.Actor{ID: user})
		if err != nil {
			t.Fatalf("%s: Cancel returned error: %v", status, err)
		}
		if got.Status != models.StatusCancelled {
			t.Errorf("%s: expected cancelled, got %s", status, got.Status)
		}
		if len(notes.published) != 1 {
			t.Errorf("%s: expected one published update, got %d", status, len(notes.published))
		}
	}
}

func TestCancelRequiresOwnerOrAdmin(t *testing.T) {
	store := newFakeStore()
	tour := store.addTour(100, "NPR")
	svc := NewService(store, nil)
	owner := primitive.NewObjectID()

	b, _ := svc.Create(context.Background(), owner, request(tour.ID, 1))

	_, err := svc.Cancel(context.Background(), b.ID, utils.Actor{ID: primitive.NewObjectID()})
	if statusCode(err) != http.StatusUnauthorized {
		t.Fatalf("expected 401 for a stranger, got %v", err)
	}
	if store.bookings[b.ID].Status != models.StatusPending {
		t.Fatalf("stranger must not change the booking")
	}

	got, err := svc.Cancel(context.Background(), b.ID, utils.Actor{ID: primitive.NewObjectID(), Admin: true})
	if err != nil || got.Status != models.StatusCancelled {
		t.Fatalf("admin cancel failed: %v %+v", err, got)
	}
}

func TestCancelGuestBookingNeedsAdmin(t *testing.T) {
	store := newFakeStore()
	tour := store.addTour(100, "NPR")
	svc := NewService(store, nil)

	b, _ := svc.CreateGuest(context.Background(), models.GuestBookingRequest{
		BookingRequest: request(tour.ID, 1),
		GuestInfo:      models.GuestInfo{Name: "Guest", Email: "g@example.com", Phone: "9800000000"},
	})

	_, err := svc.Cancel(context.Background(), b.ID, utils.Actor{ID: primitive.NewObjectID()})
	if statusCode(err) != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %v", err)
	}
}

func TestCancelUnknownBooking(t *testing.T) {
	svc := NewService(newFakeStore(), nil)

	_, err := svc.Cancel(context.Background(), primitive.NewObjectID(), utils.Actor{Admin: true})
	if statusCode(err) != http.StatusNotFound {
		t.Fatalf("expected 404, got %v", err)
	}
}

func TestGetDistinguishesNotAuthorizedFromNotFound(t *testing.T) {
	store := newFakeStore()
	tour := store.addTour(100, "NPR")
	svc := NewService(store, nil)
	owner := primitive.NewObjectID()
	b, _ := svc.Create(context.Background(), owner, request(tour.ID, 1))

	if _, err := svc.Get(context.Background(), b.ID, utils.Actor{ID: primitive.NewObjectID()}); statusCode(err) != http.StatusUnauthorized {
		t.Errorf("expected 401, got %v", err)
	}
	if _, err := svc.Get(context.Background(), primitive.NewObjectID(), utils.Actor{ID: owner}); statusCode(err) != http.StatusNotFound {
		t.Errorf("expected 404, got %v", err)
	}
	v, err := svc.Get(context.Background(), b.ID, utils.Actor{ID: owner})
	if err != nil || v.TourInfo == nil || v.TourInfo.Title != tour.Title {
		t.Errorf("owner should see the booking with its tour, got %+v %v", v, err)
	}
}

func TestUpdateStatusAcceptsAnyTransition(t *testing.T) {
	store := newFakeStore()
	tour := store.addTour(100, "NPR")
	svc := NewService(store, nil)
	b, _ := svc.Create(context.Background(), primitive.NewObjectID(), request(tour.ID, 1))
	store.bookings[b.ID].Status = models.StatusCompleted

	got, err := svc.UpdateStatus(context.Background(), b.ID, models.StatusUpdate{
		Status:        models.StatusPending,
		PaymentStatus: models.PaymentRefunded,
	})
	if err != nil {
		t.Fatalf("UpdateStatus returned error: %v", err)
	}
	if got.Status != models.StatusPending || got.PaymentStatus != models.PaymentRefunded {
		t.Errorf("unexpected booking %+v", got)
	}
}

func TestListForUserOverridesUserFilter(t *testing.T) {
	store := newFakeStore()
	tour := store.addTour(100, "NPR")
	svc := NewService(store, nil)
	me, other := primitive.NewObjectID(), primitive.NewObjectID()
	svc.Create(context.Background(), me, request(tour.ID, 1))
	svc.Create(context.Background(), other, request(tour.ID, 1))

	f := &query.Features{Filter: bson.M{"user": other}, Page: 1, Limit: 10}
	items, total, err := svc.ListForUser(context.Background(), me, f)
	if err != nil {
		t.Fatalf("ListForUser returned error: %v", err)
	}
	if total != 1 || len(items) != 1 {
		t.Fatalf("expected only my booking, got %d", total)
	}
}
