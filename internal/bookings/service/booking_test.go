package service

import (
	"context"
	"testing"
	"time"

	bookingserrors "staybook/internal/bookings/errors"
	"staybook/internal/bookings/validator"
	"staybook/internal/events"
	propertieserrors "staybook/internal/properties/errors"
	"staybook/pkg/config"
	mongotx "staybook/pkg/db/mongo"
	apperrors "staybook/pkg/errors"
	"staybook/pkg/guard"
	"staybook/pkg/logger"
	"staybook/pkg/model"

	"go.mongodb.org/mongo-driver/mongo"
)

const (
	propertyID = "68b000000000000000000001"
	bookingID  = "68c000000000000000000001"
)

var (
	travelerPrincipal = guard.Principal{UserID: "68a000000000000000000020", Role: model.RoleTraveler}
	otherTraveler     = guard.Principal{UserID: "68a000000000000000000021", Role: model.RoleTraveler}
	hostPrincipal     = guard.Principal{UserID: "68a000000000000000000010", Role: model.RoleHost}
	otherHost         = guard.Principal{UserID: "68a000000000000000000099", Role: model.RoleHost}
	adminPrincipal    = guard.Principal{UserID: model.AdminUserID, Role: model.RoleAdmin}
)

type mockBookingRepository struct {
	createFunc          func(ctx context.Context, booking *model.Booking) error
	findByIDFunc        func(ctx context.Context, id string) (*model.Booking, error)
	findFunc            func(ctx context.Context, filter *model.BookingFilter, limit int, offset int64) ([]*model.Booking, error)
	countByFilterFunc   func(ctx context.Context, filter *model.BookingFilter) (int64, error)
	findOverlappingFunc func(ctx context.Context, propertyID string, checkIn, checkOut time.Time) ([]*model.Booking, error)
	updateStatusFunc    func(ctx context.Context, id string, status string) error
}

func (m *mockBookingRepository) Create(ctx context.Context, booking *model.Booking) error {
	if m.createFunc != nil {
		return m.createFunc(ctx, booking)
	}
	booking.ID = bookingID
	return nil
}

func (m *mockBookingRepository) FindByID(ctx context.Context, id string) (*model.Booking, error) {
	if m.findByIDFunc != nil {
		return m.findByIDFunc(ctx, id)
	}
	return nil, bookingserrors.ErrNotFound
}

func (m *mockBookingRepository) Find(ctx context.Context, filter *model.BookingFilter, limit int, offset int64) ([]*model.Booking, error) {
	if m.findFunc != nil {
		return m.findFunc(ctx, filter, limit, offset)
	}
	return []*model.Booking{}, nil
}

func (m *mockBookingRepository) CountByFilter(ctx context.Context, filter *model.BookingFilter) (int64, error) {
	if m.countByFilterFunc != nil {
		return m.countByFilterFunc(ctx, filter)
	}
	return 0, nil
}

func (m *mockBookingRepository) FindOverlapping(ctx context.Context, propertyID string, checkIn, checkOut time.Time) ([]*model.Booking, error) {
	if m.findOverlappingFunc != nil {
		return m.findOverlappingFunc(ctx, propertyID, checkIn, checkOut)
	}
	return []*model.Booking{}, nil
}

func (m *mockBookingRepository) UpdateStatus(ctx context.Context, id string, status string) error {
	if m.updateStatusFunc != nil {
		return m.updateStatusFunc(ctx, id, status)
	}
	return nil
}

// ExecuteTransaction runs the callback directly; transactional semantics are
// exercised against a real deployment.
func (m *mockBookingRepository) ExecuteTransaction(ctx context.Context, fn mongotx.TransactionFunc) error {
	return fn(nil)
}

type mockLockRepository struct {
	createFunc func(ctx context.Context, lock *model.BookingLock) (*model.BookingLock, error)
	deleteFunc func(ctx context.Context, lockID string) error
}

func (m *mockLockRepository) Create(ctx context.Context, lock *model.BookingLock) (*model.BookingLock, error) {
	if m.createFunc != nil {
		return m.createFunc(ctx, lock)
	}
	return lock, nil
}

func (m *mockLockRepository) Delete(ctx context.Context, lockID string) error {
	if m.deleteFunc != nil {
		return m.deleteFunc(ctx, lockID)
	}
	return nil
}

type mockPropertyStore struct {
	findByIDFunc      func(ctx context.Context, id string) (*model.Property, error)
	findIDsByHostFunc func(ctx context.Context, hostID string) ([]string, error)
	findSummariesFunc func(ctx context.Context, ids []string) (map[string]*model.PropertySummary, error)
}

func (m *mockPropertyStore) FindByID(ctx context.Context, id string) (*model.Property, error) {
	if m.findByIDFunc != nil {
		return m.findByIDFunc(ctx, id)
	}
	return nil, propertieserrors.ErrNotFound
}

func (m *mockPropertyStore) FindIDsByHost(ctx context.Context, hostID string) ([]string, error) {
	if m.findIDsByHostFunc != nil {
		return m.findIDsByHostFunc(ctx, hostID)
	}
	return nil, nil
}

func (m *mockPropertyStore) FindSummaries(ctx context.Context, ids []string) (map[string]*model.PropertySummary, error) {
	if m.findSummariesFunc != nil {
		return m.findSummariesFunc(ctx, ids)
	}
	return map[string]*model.PropertySummary{}, nil
}

func testConfig() *config.Config {
	return &config.Config{
		Log: logger.New(logger.Config{
			Level:     "error",
			Format:    logger.JSON,
			AddSource: false,
			Service:   "test",
		}),
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 5 * time.Second,
	}
}

func newTestService(repo *mockBookingRepository, locks *mockLockRepository, properties *mockPropertyStore) *bookingService {
	cfg := testConfig()
	return &bookingService{
		repo:       repo,
		lockRepo:   locks,
		properties: properties,
		validator:  validator.NewBookingValidator(cfg.Log),
		events:     events.NewNoop(),
		cfg:        cfg,
	}
}

func approvedPropertyStore() *mockPropertyStore {
	return &mockPropertyStore{
		findByIDFunc: func(ctx context.Context, id string) (*model.Property, error) {
			return &model.Property{
				ID:     id,
				HostID: hostPrincipal.UserID,
				Title:  "Lakeside Lodge",
				Status: model.PropertyStatusApproved,
			}, nil
		},
	}
}

// duplicateKeyError mirrors what the driver returns when an insert collides
// with an existing _id.
func duplicateKeyError() error {
	return mongo.WriteException{
		WriteErrors: []mongo.WriteError{{Code: 11000, Message: "E11000 duplicate key error"}},
	}
}

func day(offset int) time.Time {
	return time.Date(2026, 9, 1, 0, 0, 0, 0, time.UTC).AddDate(0, 0, offset)
}

func validBooking() *model.Booking {
	return &model.Booking{
		PropertyID:   propertyID,
		CheckIn:      day(0),
		CheckOut:     day(3),
		Guests:       2,
		ContactName:  "Jane Traveler",
		ContactEmail: "jane@example.com",
	}
}

func TestCreate_Success(t *testing.T) {
	var created *model.Booking
	repo := &mockBookingRepository{
		createFunc: func(ctx context.Context, booking *model.Booking) error {
			created = booking
			booking.ID = bookingID
			return nil
		},
	}
	svc := newTestService(repo, &mockLockRepository{}, approvedPropertyStore())

	booking := validBooking()
	booking.Status = model.BookingStatusConfirmed // must not stick

	if err := svc.Create(context.Background(), travelerPrincipal, booking); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if created.Status != model.BookingStatusPending {
		t.Errorf("expected status pending, got %q", created.Status)
	}
	if created.UserID != travelerPrincipal.UserID {
		t.Errorf("expected user_id %q, got %q", travelerPrincipal.UserID, created.UserID)
	}
}

func TestCreate_AnonymousRejected(t *testing.T) {
	svc := newTestService(&mockBookingRepository{}, &mockLockRepository{}, approvedPropertyStore())

	err := svc.Create(context.Background(), guard.Principal{}, validBooking())
	if err == nil {
		t.Fatal("expected error for anonymous booking")
	}
	if apperrors.AsAppError(err).StatusCode() != 401 {
		t.Errorf("expected status 401, got %d", apperrors.AsAppError(err).StatusCode())
	}
}

func TestCreate_PropertyNotFound(t *testing.T) {
	svc := newTestService(&mockBookingRepository{}, &mockLockRepository{}, &mockPropertyStore{})

	err := svc.Create(context.Background(), travelerPrincipal, validBooking())
	if err == nil {
		t.Fatal("expected error for missing property")
	}

	appErr := apperrors.AsAppError(err)
	if appErr.StatusCode() != 404 {
		t.Errorf("expected status 404, got %d", appErr.StatusCode())
	}
	if appErr.Message != "Property not found" {
		t.Errorf("unexpected message: %q", appErr.Message)
	}
}

func TestCreate_UnapprovedPropertyRejected(t *testing.T) {
	for _, status := range []string{model.PropertyStatusPending, model.PropertyStatusRejected} {
		t.Run(status, func(t *testing.T) {
			store := &mockPropertyStore{
				findByIDFunc: func(ctx context.Context, id string) (*model.Property, error) {
					return &model.Property{ID: id, HostID: hostPrincipal.UserID, Status: status}, nil
				},
			}
			svc := newTestService(&mockBookingRepository{}, &mockLockRepository{}, store)

			err := svc.Create(context.Background(), travelerPrincipal, validBooking())
			if err == nil {
				t.Fatal("expected error for unapproved property")
			}

			appErr := apperrors.AsAppError(err)
			if appErr.StatusCode() != 400 {
				t.Errorf("expected status 400, got %d", appErr.StatusCode())
			}
			if appErr.Message != "Property is not available for booking" {
				t.Errorf("unexpected message: %q", appErr.Message)
			}
		})
	}
}

func TestCreate_DateOrderValidation(t *testing.T) {
	svc := newTestService(&mockBookingRepository{}, &mockLockRepository{}, approvedPropertyStore())

	booking := validBooking()
	booking.CheckIn = day(3)
	booking.CheckOut = day(0)

	err := svc.Create(context.Background(), travelerPrincipal, booking)
	if err == nil {
		t.Fatal("expected error for inverted dates")
	}
	if apperrors.AsAppError(err).StatusCode() != 422 {
		t.Errorf("expected status 422, got %d", apperrors.AsAppError(err).StatusCode())
	}
}

func TestCreate_OverlapRejected(t *testing.T) {
	repo := &mockBookingRepository{
		findOverlappingFunc: func(ctx context.Context, propertyID string, checkIn, checkOut time.Time) ([]*model.Booking, error) {
			return []*model.Booking{{ID: "existing", Status: model.BookingStatusConfirmed}}, nil
		},
		createFunc: func(ctx context.Context, booking *model.Booking) error {
			t.Fatal("create must not be called when dates overlap")
			return nil
		},
	}
	svc := newTestService(repo, &mockLockRepository{}, approvedPropertyStore())

	err := svc.Create(context.Background(), travelerPrincipal, validBooking())
	if err == nil {
		t.Fatal("expected error for overlapping dates")
	}

	appErr := apperrors.AsAppError(err)
	if appErr.StatusCode() != 400 {
		t.Errorf("expected status 400, got %d", appErr.StatusCode())
	}
	if appErr.Message != "Selected dates are not available" {
		t.Errorf("unexpected message: %q", appErr.Message)
	}
}

func TestCreate_LockConflict(t *testing.T) {
	locks := &mockLockRepository{
		createFunc: func(ctx context.Context, lock *model.BookingLock) (*model.BookingLock, error) {
			// Same shape the driver reports for a duplicate _id insert.
			return nil, duplicateKeyError()
		},
	}
	svc := newTestService(&mockBookingRepository{}, locks, approvedPropertyStore())

	err := svc.Create(context.Background(), travelerPrincipal, validBooking())
	if err == nil {
		t.Fatal("expected error when the slot lock is held")
	}
	if apperrors.AsAppError(err).StatusCode() != 409 {
		t.Errorf("expected status 409, got %d", apperrors.AsAppError(err).StatusCode())
	}
}

func TestUpdateStatus_StateMachine(t *testing.T) {
	tests := []struct {
		name      string
		principal guard.Principal
		from      string
		to        string
		allowed   bool
	}{
		{"host confirms pending on own property", hostPrincipal, model.BookingStatusPending, model.BookingStatusConfirmed, true},
		{"host rejects pending on own property", hostPrincipal, model.BookingStatusPending, model.BookingStatusRejected, true},
		{"host cannot cancel", hostPrincipal, model.BookingStatusPending, model.BookingStatusCancelled, false},
		{"host cannot confirm twice", hostPrincipal, model.BookingStatusConfirmed, model.BookingStatusConfirmed, false},
		{"foreign host cannot confirm", otherHost, model.BookingStatusPending, model.BookingStatusConfirmed, false},
		{"traveler cancels own pending", travelerPrincipal, model.BookingStatusPending, model.BookingStatusCancelled, true},
		{"traveler cancels own confirmed", travelerPrincipal, model.BookingStatusConfirmed, model.BookingStatusCancelled, true},
		{"traveler cannot confirm own booking", travelerPrincipal, model.BookingStatusPending, model.BookingStatusConfirmed, false},
		{"traveler cannot cancel rejected", travelerPrincipal, model.BookingStatusRejected, model.BookingStatusCancelled, false},
		{"other traveler cannot cancel", otherTraveler, model.BookingStatusPending, model.BookingStatusCancelled, false},
		{"admin overrides anything", adminPrincipal, model.BookingStatusCancelled, model.BookingStatusConfirmed, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo := &mockBookingRepository{
				findByIDFunc: func(ctx context.Context, id string) (*model.Booking, error) {
					return &model.Booking{
						ID:         id,
						PropertyID: propertyID,
						UserID:     travelerPrincipal.UserID,
						Status:     tt.from,
					}, nil
				},
			}
			svc := newTestService(repo, &mockLockRepository{}, approvedPropertyStore())

			booking, err := svc.UpdateStatus(context.Background(), tt.principal, bookingID, tt.to)
			if tt.allowed {
				if err != nil {
					t.Fatalf("unexpected error: %v", err)
				}
				if booking.Status != tt.to {
					t.Errorf("expected status %q, got %q", tt.to, booking.Status)
				}
				return
			}
			if err == nil {
				t.Fatal("expected transition to be rejected")
			}
			if apperrors.AsAppError(err).StatusCode() != 401 {
				t.Errorf("expected status 401, got %d", apperrors.AsAppError(err).StatusCode())
			}
		})
	}
}

func TestUpdateStatus_NotFoundBeforeAuthorization(t *testing.T) {
	svc := newTestService(&mockBookingRepository{}, &mockLockRepository{}, approvedPropertyStore())

	_, err := svc.UpdateStatus(context.Background(), otherTraveler, bookingID, model.BookingStatusCancelled)
	if err == nil {
		t.Fatal("expected error for missing booking")
	}
	if apperrors.AsAppError(err).StatusCode() != 404 {
		t.Errorf("expected status 404, got %d", apperrors.AsAppError(err).StatusCode())
	}
}

func TestGetByID_Visibility(t *testing.T) {
	repo := &mockBookingRepository{
		findByIDFunc: func(ctx context.Context, id string) (*model.Booking, error) {
			return &model.Booking{
				ID:         id,
				PropertyID: propertyID,
				UserID:     travelerPrincipal.UserID,
				Status:     model.BookingStatusPending,
			}, nil
		},
	}
	svc := newTestService(repo, &mockLockRepository{}, approvedPropertyStore())

	tests := []struct {
		name      string
		principal guard.Principal
		allowed   bool
	}{
		{"owning traveler", travelerPrincipal, true},
		{"property host", hostPrincipal, true},
		{"admin", adminPrincipal, true},
		{"other traveler", otherTraveler, false},
		{"other host", otherHost, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			view, err := svc.GetByID(context.Background(), tt.principal, bookingID)
			if tt.allowed {
				if err != nil {
					t.Fatalf("unexpected error: %v", err)
				}
				if view.Property == nil || view.Property.ID != propertyID {
					t.Error("expected property summary on booking view")
				}
				return
			}
			if err == nil {
				t.Fatal("expected access to be rejected")
			}
		})
	}
}

func TestGetByID_DeletedPropertyStillReadable(t *testing.T) {
	repo := &mockBookingRepository{
		findByIDFunc: func(ctx context.Context, id string) (*model.Booking, error) {
			return &model.Booking{
				ID:         id,
				PropertyID: propertyID,
				UserID:     travelerPrincipal.UserID,
				Status:     model.BookingStatusConfirmed,
			}, nil
		},
	}
	svc := newTestService(repo, &mockLockRepository{}, &mockPropertyStore{})

	view, err := svc.GetByID(context.Background(), travelerPrincipal, bookingID)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if view.Property != nil {
		t.Error("expected nil property summary for deleted listing")
	}

	// The host lost the ownership link along with the listing.
	if _, err := svc.GetByID(context.Background(), hostPrincipal, bookingID); err == nil {
		t.Error("expected host access to be rejected once the property is gone")
	}
}

func TestList_ScopesByRole(t *testing.T) {
	var captured *model.BookingFilter
	repo := &mockBookingRepository{
		findFunc: func(ctx context.Context, filter *model.BookingFilter, limit int, offset int64) ([]*model.Booking, error) {
			captured = filter
			return []*model.Booking{}, nil
		},
	}
	store := &mockPropertyStore{
		findIDsByHostFunc: func(ctx context.Context, hostID string) ([]string, error) {
			return []string{propertyID}, nil
		},
	}
	svc := newTestService(repo, &mockLockRepository{}, store)

	if _, _, err := svc.List(context.Background(), travelerPrincipal, &model.BookingFilter{UserID: "someone-else"}, 10, 0); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if captured.UserID != travelerPrincipal.UserID {
		t.Errorf("traveler filter not scoped to caller: %q", captured.UserID)
	}

	if _, _, err := svc.List(context.Background(), hostPrincipal, &model.BookingFilter{}, 10, 0); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(captured.PropertyIDs) != 1 || captured.PropertyIDs[0] != propertyID {
		t.Errorf("host filter not scoped to owned properties: %v", captured.PropertyIDs)
	}

	if _, _, err := svc.List(context.Background(), adminPrincipal, &model.BookingFilter{UserID: "anyone"}, 10, 0); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if captured.UserID != "anyone" {
		t.Errorf("admin filter must pass through, got %q", captured.UserID)
	}
}

func TestList_HostCannotQueryForeignProperty(t *testing.T) {
	store := &mockPropertyStore{
		findIDsByHostFunc: func(ctx context.Context, hostID string) ([]string, error) {
			return []string{propertyID}, nil
		},
	}
	svc := newTestService(&mockBookingRepository{}, &mockLockRepository{}, store)

	_, _, err := svc.List(context.Background(), hostPrincipal, &model.BookingFilter{PropertyID: "68b000000000000000000099"}, 10, 0)
	if err == nil {
		t.Fatal("expected error for foreign property filter")
	}
	if apperrors.AsAppError(err).StatusCode() != 401 {
		t.Errorf("expected status 401, got %d", apperrors.AsAppError(err).StatusCode())
	}
}

// Full lifecycle: list pending, approve, book, conflicting book, confirm,
// cancel, rebook the freed dates.
func TestBookingLifecycle(t *testing.T) {
	properties := map[string]*model.Property{
		propertyID: {ID: propertyID, HostID: hostPrincipal.UserID, Title: "Lakeside Lodge", Status: model.PropertyStatusPending},
	}
	bookings := map[string]*model.Booking{}
	nextID := 0

	store := &mockPropertyStore{
		findByIDFunc: func(ctx context.Context, id string) (*model.Property, error) {
			if p, ok := properties[id]; ok {
				return p, nil
			}
			return nil, propertieserrors.ErrNotFound
		},
	}
	repo := &mockBookingRepository{
		createFunc: func(ctx context.Context, booking *model.Booking) error {
			nextID++
			booking.ID = bookingID[:len(bookingID)-1] + string(rune('0'+nextID))
			copied := *booking
			bookings[booking.ID] = &copied
			return nil
		},
		findByIDFunc: func(ctx context.Context, id string) (*model.Booking, error) {
			if b, ok := bookings[id]; ok {
				copied := *b
				return &copied, nil
			}
			return nil, bookingserrors.ErrNotFound
		},
		findOverlappingFunc: func(ctx context.Context, pid string, checkIn, checkOut time.Time) ([]*model.Booking, error) {
			var out []*model.Booking
			for _, b := range bookings {
				if b.PropertyID != pid {
					continue
				}
				if b.Status != model.BookingStatusPending && b.Status != model.BookingStatusConfirmed {
					continue
				}
				if !b.CheckIn.After(checkOut) && !b.CheckOut.Before(checkIn) {
					out = append(out, b)
				}
			}
			return out, nil
		},
		updateStatusFunc: func(ctx context.Context, id string, status string) error {
			bookings[id].Status = status
			return nil
		},
	}
	svc := newTestService(repo, &mockLockRepository{}, store)

	// Booking an unapproved listing fails.
	if err := svc.Create(context.Background(), travelerPrincipal, validBooking()); err == nil {
		t.Fatal("expected booking of pending listing to fail")
	}

	// Moderation happens out of band; flip the listing to approved.
	properties[propertyID].Status = model.PropertyStatusApproved

	first := validBooking()
	if err := svc.Create(context.Background(), travelerPrincipal, first); err != nil {
		t.Fatalf("first booking failed: %v", err)
	}

	// A second traveler hits the inclusive overlap: their check-in equals the
	// first booking's check-out day.
	second := validBooking()
	second.CheckIn = day(3)
	second.CheckOut = day(5)
	if err := svc.Create(context.Background(), otherTraveler, second); err == nil {
		t.Fatal("expected inclusive-boundary overlap to be rejected")
	}

	// Host confirms the first booking.
	if _, err := svc.UpdateStatus(context.Background(), hostPrincipal, first.ID, model.BookingStatusConfirmed); err != nil {
		t.Fatalf("host confirm failed: %v", err)
	}

	// Traveler cancels, freeing the dates.
	if _, err := svc.UpdateStatus(context.Background(), travelerPrincipal, first.ID, model.BookingStatusCancelled); err != nil {
		t.Fatalf("traveler cancel failed: %v", err)
	}

	// The same window can now be booked again.
	rebook := validBooking()
	if err := svc.Create(context.Background(), otherTraveler, rebook); err != nil {
		t.Fatalf("rebooking after cancellation failed: %v", err)
	}
}
