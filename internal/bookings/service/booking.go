package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	bookingserrors "staybook/internal/bookings/errors"
	"staybook/internal/bookings/repository"
	"staybook/internal/bookings/validator"
	"staybook/internal/events"
	propertieserrors "staybook/internal/properties/errors"
	"staybook/pkg/config"
	apperrors "staybook/pkg/errors"
	"staybook/pkg/guard"
	"staybook/pkg/model"
	"staybook/pkg/sanitizer"

	"go.mongodb.org/mongo-driver/mongo"
)

// PropertyStore is the slice of the property repository the booking engine
// needs: existence and approval checks, host visibility sets, and the
// denormalized snapshots embedded in responses.
type PropertyStore interface {
	FindByID(ctx context.Context, id string) (*model.Property, error)
	FindIDsByHost(ctx context.Context, hostID string) ([]string, error)
	FindSummaries(ctx context.Context, ids []string) (map[string]*model.PropertySummary, error)
}

type BookingService interface {
	List(ctx context.Context, principal guard.Principal, filter *model.BookingFilter, limit int, offset int64) ([]*model.BookingView, int64, error)
	GetByID(ctx context.Context, principal guard.Principal, id string) (*model.BookingView, error)
	Create(ctx context.Context, principal guard.Principal, booking *model.Booking) error
	UpdateStatus(ctx context.Context, principal guard.Principal, id string, status string) (*model.Booking, error)
}

type bookingService struct {
	repo       repository.BookingRepository
	lockRepo   repository.BookingLockRepository
	properties PropertyStore
	validator  *validator.BookingValidator
	events     events.Publisher
	cfg        *config.Config
}

func NewBookingService(
	repo repository.BookingRepository,
	lockRepo repository.BookingLockRepository,
	properties PropertyStore,
	validator *validator.BookingValidator,
	publisher events.Publisher,
	cfg *config.Config,
) BookingService {
	return &bookingService{
		repo:       repo,
		lockRepo:   lockRepo,
		properties: properties,
		validator:  validator,
		events:     publisher,
		cfg:        cfg,
	}
}

func (s *bookingService) List(ctx context.Context, principal guard.Principal, filter *model.BookingFilter, limit int, offset int64) ([]*model.BookingView, int64, error) {
	if principal.IsAnonymous() {
		return nil, 0, apperrors.Unauthorized("Unauthorized")
	}
	if filter == nil {
		filter = &model.BookingFilter{}
	}

	if err := s.scopeFilter(ctx, principal, filter); err != nil {
		return nil, 0, err
	}

	var count int64
	var bookings []*model.Booking
	var errCount, errFind error
	var wg sync.WaitGroup
	wg.Add(2)

	go func() {
		defer wg.Done()
		count, errCount = s.repo.CountByFilter(ctx, filter)
		if errCount != nil {
			s.cfg.Log.Error("Failed to count bookings", "error", errCount)
			errCount = apperrors.Internal("Failed to count bookings", errCount)
		}
	}()

	go func() {
		defer wg.Done()
		bookings, errFind = s.repo.Find(ctx, filter, limit, offset)
		if errFind != nil {
			s.cfg.Log.Error("Failed to list bookings", "error", errFind)
			errFind = apperrors.Internal("Failed to retrieve bookings", errFind)
		}
	}()

	wg.Wait()
	if errCount != nil {
		return nil, 0, errCount
	}
	if errFind != nil {
		return nil, 0, errFind
	}

	views, err := s.enrich(ctx, bookings)
	if err != nil {
		return nil, 0, err
	}

	return views, count, nil
}

// scopeFilter narrows a listing request to what the caller may see:
// travelers their own reservations, hosts the reservations against their
// properties, administrators everything.
func (s *bookingService) scopeFilter(ctx context.Context, principal guard.Principal, filter *model.BookingFilter) error {
	switch {
	case principal.IsAdmin():
		return nil
	case principal.Role == model.RoleHost:
		owned, err := s.properties.FindIDsByHost(ctx, principal.UserID)
		if err != nil {
			return apperrors.Internal("Failed to resolve host properties", err)
		}
		if filter.PropertyID != "" && !contains(owned, filter.PropertyID) {
			return apperrors.Unauthorized("Unauthorized")
		}
		if len(owned) == 0 {
			// Hosts without listings have nothing to see.
			owned = []string{""}
		}
		filter.PropertyIDs = owned
		filter.UserID = ""
		return nil
	default:
		filter.UserID = principal.UserID
		filter.PropertyIDs = nil
		return nil
	}
}

func (s *bookingService) GetByID(ctx context.Context, principal guard.Principal, id string) (*model.BookingView, error) {
	if principal.IsAnonymous() {
		return nil, apperrors.Unauthorized("Unauthorized")
	}

	booking, err := s.findExisting(ctx, id)
	if err != nil {
		return nil, err
	}

	summary, ownerID, err := s.propertySnapshot(ctx, booking.PropertyID)
	if err != nil {
		return nil, err
	}

	if !guard.CanViewBooking(principal, booking, ownerID) {
		return nil, apperrors.Unauthorized("Unauthorized")
	}

	return &model.BookingView{Booking: *booking, Property: summary}, nil
}

func (s *bookingService) Create(ctx context.Context, principal guard.Principal, booking *model.Booking) error {
	if !guard.Allows(principal, guard.ActionBookingCreate, "") {
		return apperrors.Unauthorized("Unauthorized")
	}

	booking.UserID = principal.UserID
	booking.Status = model.BookingStatusPending
	s.sanitize(booking)
	if err := s.validate(booking); err != nil {
		return err
	}

	property, err := s.properties.FindByID(ctx, booking.PropertyID)
	if err != nil {
		if errors.Is(err, propertieserrors.ErrNotFound) {
			return apperrors.NotFound("Property")
		}
		if errors.Is(err, propertieserrors.ErrInvalidID) {
			return apperrors.InvalidInput("Invalid property ID format")
		}
		return apperrors.Internal("Failed to retrieve property", err)
	}

	if property.Status != model.PropertyStatusApproved {
		return apperrors.InvalidInput("Property is not available for booking")
	}

	// Advisory lock serializes concurrent attempts on the same property and
	// check-in day; the transaction makes check-then-insert atomic.
	lockID, err := s.acquireSlotLock(ctx, booking.PropertyID, booking.CheckIn)
	if err != nil {
		return err
	}
	defer func() {
		if releaseErr := s.releaseSlotLock(ctx, lockID); releaseErr != nil {
			s.cfg.Log.Warn("Failed to release booking lock", "lock_id", lockID, "error", releaseErr)
		}
	}()

	err = s.repo.ExecuteTransaction(ctx, func(sessCtx mongo.SessionContext) error {
		overlapping, err := s.repo.FindOverlapping(sessCtx, booking.PropertyID, booking.CheckIn, booking.CheckOut)
		if err != nil {
			return apperrors.Internal("Failed to check existing bookings", err)
		}
		if len(overlapping) > 0 {
			return apperrors.InvalidInput("Selected dates are not available")
		}

		if err := s.repo.Create(sessCtx, booking); err != nil {
			return apperrors.Internal("Failed to create booking", err)
		}
		return nil
	})
	if err != nil {
		s.cfg.Log.Error("Failed to create booking", "property_id", booking.PropertyID, "error", err)
		return err
	}

	s.events.BookingCreated(ctx, booking)

	s.cfg.Log.Info("Booking created successfully",
		"id", booking.ID,
		"property_id", booking.PropertyID,
		"user_id", booking.UserID,
		"check_in", booking.CheckIn,
		"check_out", booking.CheckOut,
	)
	return nil
}

func (s *bookingService) UpdateStatus(ctx context.Context, principal guard.Principal, id string, status string) (*model.Booking, error) {
	if !isKnownStatus(status) {
		return nil, apperrors.InvalidInput("Status must be one of: pending, confirmed, rejected, cancelled")
	}

	booking, err := s.findExisting(ctx, id)
	if err != nil {
		return nil, err
	}

	_, ownerID, err := s.propertySnapshot(ctx, booking.PropertyID)
	if err != nil {
		return nil, err
	}

	if !guard.CanTransitionBooking(principal, booking, ownerID, status) {
		return nil, apperrors.Unauthorized("Unauthorized")
	}

	if err := s.repo.UpdateStatus(ctx, id, status); err != nil {
		if errors.Is(err, bookingserrors.ErrNotFound) {
			return nil, apperrors.NotFound("Booking")
		}
		s.cfg.Log.Error("Failed to update booking status", "id", id, "error", err)
		return nil, apperrors.Internal("Failed to update booking status", err)
	}

	booking.Status = status
	booking.UpdatedAt = time.Now().UTC().Truncate(time.Millisecond)
	s.events.BookingStatusChanged(ctx, booking)

	s.cfg.Log.Info("Booking status updated",
		"id", id,
		"status", status,
		"actor", principal.UserID,
	)
	return booking, nil
}

// --- Helpers ---

func (s *bookingService) findExisting(ctx context.Context, id string) (*model.Booking, error) {
	if id == "" {
		return nil, apperrors.InvalidInput("Booking ID cannot be empty")
	}

	booking, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, bookingserrors.ErrNotFound) {
			return nil, apperrors.NotFound("Booking")
		}
		if errors.Is(err, bookingserrors.ErrInvalidID) {
			return nil, apperrors.InvalidInput("Invalid booking ID format")
		}
		return nil, apperrors.Internal("Failed to retrieve booking", err)
	}

	return booking, nil
}

// propertySnapshot resolves the referenced property. A deleted property
// yields a nil summary and empty owner, which demotes host access but keeps
// the booking readable by its traveler and administrators.
func (s *bookingService) propertySnapshot(ctx context.Context, propertyID string) (*model.PropertySummary, string, error) {
	property, err := s.properties.FindByID(ctx, propertyID)
	if err != nil {
		if errors.Is(err, propertieserrors.ErrNotFound) || errors.Is(err, propertieserrors.ErrInvalidID) {
			return nil, "", nil
		}
		return nil, "", apperrors.Internal("Failed to retrieve property", err)
	}
	return property.Summary(), property.HostID, nil
}

func (s *bookingService) enrich(ctx context.Context, bookings []*model.Booking) ([]*model.BookingView, error) {
	ids := make([]string, 0, len(bookings))
	seen := make(map[string]bool, len(bookings))
	for _, b := range bookings {
		if !seen[b.PropertyID] {
			seen[b.PropertyID] = true
			ids = append(ids, b.PropertyID)
		}
	}

	summaries := map[string]*model.PropertySummary{}
	if len(ids) > 0 {
		var err error
		summaries, err = s.properties.FindSummaries(ctx, ids)
		if err != nil {
			return nil, apperrors.Internal("Failed to load property summaries", err)
		}
	}

	views := make([]*model.BookingView, 0, len(bookings))
	for _, b := range bookings {
		views = append(views, &model.BookingView{
			Booking:  *b,
			Property: summaries[b.PropertyID],
		})
	}
	return views, nil
}

func (s *bookingService) sanitize(b *model.Booking) {
	b.ContactName = sanitizer.SanitizeText(b.ContactName)
	b.ContactEmail = sanitizer.SanitizeEmail(b.ContactEmail)
	b.ContactPhone = sanitizer.SanitizePhone(b.ContactPhone)
}

func (s *bookingService) validate(b *model.Booking) error {
	if err := s.validator.Validate(b); err != nil {
		s.cfg.Log.Warn("Booking validation failed", "error", err)
		return apperrors.Validation("Booking validation failed", map[string]any{"error": err.Error()})
	}
	return nil
}

// acquireSlotLock creates an advisory lock keyed by property and check-in
// day. Returns conflict if another request holds the slot.
func (s *bookingService) acquireSlotLock(ctx context.Context, propertyID string, checkIn time.Time) (string, error) {
	day := checkIn.UTC().Truncate(24 * time.Hour)
	lockID := fmt.Sprintf("booking_lock_%s_%d", propertyID, day.Unix())

	lock := &model.BookingLock{
		ID:        lockID,
		ExpiresAt: time.Now().Add(10 * time.Second),
	}

	_, err := s.lockRepo.Create(ctx, lock)
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return "", apperrors.Conflict("These dates are currently being booked by another request. Please try again.")
		}
		return "", apperrors.Internal("Failed to acquire booking lock", err)
	}

	return lockID, nil
}

func (s *bookingService) releaseSlotLock(ctx context.Context, lockID string) error {
	return s.lockRepo.Delete(ctx, lockID)
}

func isKnownStatus(status string) bool {
	switch status {
	case model.BookingStatusPending,
		model.BookingStatusConfirmed,
		model.BookingStatusRejected,
		model.BookingStatusCancelled:
		return true
	}
	return false
}

func contains(values []string, target string) bool {
	for _, v := range values {
		if v == target {
			return true
		}
	}
	return false
}
