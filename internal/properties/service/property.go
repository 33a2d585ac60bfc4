package service

import (
	"context"
	"errors"
	"sync"

	"staybook/internal/events"
	propertieserrors "staybook/internal/properties/errors"
	"staybook/internal/properties/repository"
	"staybook/internal/properties/validator"
	"staybook/pkg/config"
	apperrors "staybook/pkg/errors"
	"staybook/pkg/guard"
	"staybook/pkg/model"
	"staybook/pkg/sanitizer"
)

type PropertyService interface {
	List(ctx context.Context, principal guard.Principal, filter *model.PropertyFilter, limit int, offset int64) ([]*model.Property, int64, error)
	GetByID(ctx context.Context, principal guard.Principal, id string) (*model.Property, error)
	Create(ctx context.Context, principal guard.Principal, property *model.Property) error
	Update(ctx context.Context, principal guard.Principal, id string, patch *model.PropertyPatch) (*model.Property, error)
	Delete(ctx context.Context, principal guard.Principal, id string) error
	SetStatus(ctx context.Context, principal guard.Principal, id string, status string) (*model.Property, error)
}

type propertyService struct {
	repo      repository.PropertyRepository
	validator *validator.PropertyValidator
	events    events.Publisher
	cfg       *config.Config
}

func NewPropertyService(
	repo repository.PropertyRepository,
	validator *validator.PropertyValidator,
	publisher events.Publisher,
	cfg *config.Config,
) PropertyService {
	return &propertyService{
		repo:      repo,
		validator: validator,
		events:    publisher,
		cfg:       cfg,
	}
}

func (s *propertyService) List(ctx context.Context, principal guard.Principal, filter *model.PropertyFilter, limit int, offset int64) ([]*model.Property, int64, error) {
	if filter == nil {
		filter = &model.PropertyFilter{}
	}
	resolveStatusFilter(principal, filter)

	var count int64
	var properties []*model.Property
	var errCount, errFind error
	var wg sync.WaitGroup
	wg.Add(2)

	go func() {
		defer wg.Done()
		count, errCount = s.repo.CountByFilter(ctx, filter)
		if errCount != nil {
			s.cfg.Log.Error("Failed to count properties", "error", errCount)
			errCount = apperrors.Internal("Failed to count properties", errCount)
		}
	}()

	go func() {
		defer wg.Done()
		properties, errFind = s.repo.Find(ctx, filter, limit, offset)
		if errFind != nil {
			s.cfg.Log.Error("Failed to list properties", "error", errFind)
			errFind = apperrors.Internal("Failed to retrieve properties", errFind)
		}
	}()

	wg.Wait()
	if errCount != nil {
		return nil, 0, errCount
	}
	if errFind != nil {
		return nil, 0, errFind
	}

	return properties, count, nil
}

// resolveStatusFilter applies the visibility rules for listings: the public
// catalog only shows approved properties, a host browsing their own listings
// sees every status, and administrators may ask for any status including the
// "all" sentinel.
func resolveStatusFilter(principal guard.Principal, filter *model.PropertyFilter) {
	switch {
	case principal.IsAdmin():
		if filter.Status == model.PropertyStatusAll {
			filter.Status = ""
		} else if filter.Status == "" {
			filter.Status = model.PropertyStatusApproved
		}
	case filter.HostID != "" && filter.HostID == principal.UserID:
		if filter.Status == model.PropertyStatusAll {
			filter.Status = ""
		}
	default:
		filter.Status = model.PropertyStatusApproved
	}
}

func (s *propertyService) GetByID(ctx context.Context, principal guard.Principal, id string) (*model.Property, error) {
	property, err := s.findExisting(ctx, id)
	if err != nil {
		return nil, err
	}

	// Unapproved listings stay invisible to everyone but the owner and
	// administrators.
	if !guard.CanViewProperty(principal, property) {
		return nil, apperrors.NotFound("Property")
	}

	return property, nil
}

func (s *propertyService) Create(ctx context.Context, principal guard.Principal, property *model.Property) error {
	if !guard.Allows(principal, guard.ActionPropertyCreate, "") {
		return apperrors.Unauthorized("Unauthorized")
	}

	property.HostID = principal.UserID
	if principal.IsAdmin() {
		property.Status = model.PropertyStatusApproved
	} else {
		property.Status = model.PropertyStatusPending
	}

	s.sanitize(property)
	if err := s.validate(property); err != nil {
		return err
	}

	if err := s.repo.Create(ctx, property); err != nil {
		s.cfg.Log.Error("Failed to create property", "error", err)
		return apperrors.Internal("Failed to create property", err)
	}

	s.cfg.Log.Info("Property created successfully",
		"id", property.ID,
		"host_id", property.HostID,
		"status", property.Status,
	)
	return nil
}

func (s *propertyService) Update(ctx context.Context, principal guard.Principal, id string, patch *model.PropertyPatch) (*model.Property, error) {
	existing, err := s.findExisting(ctx, id)
	if err != nil {
		return nil, err
	}

	if !guard.Allows(principal, guard.ActionPropertyUpdate, existing.HostID) {
		return nil, apperrors.Unauthorized("Unauthorized")
	}

	if err := s.validator.ValidatePatch(patch); err != nil {
		s.cfg.Log.Warn("Property patch validation failed", "id", id, "error", err)
		return nil, apperrors.Validation("Invalid update input", map[string]any{"error": err.Error()})
	}

	merged := mergePatch(existing, patch)
	s.sanitize(merged)
	if err := s.validate(merged); err != nil {
		return nil, err
	}

	if err := s.repo.Update(ctx, id, merged); err != nil {
		if errors.Is(err, propertieserrors.ErrNotFound) {
			return nil, apperrors.NotFound("Property")
		}
		s.cfg.Log.Error("Failed to update property", "id", id, "error", err)
		return nil, apperrors.Internal("Failed to update property", err)
	}

	s.cfg.Log.Info("Property updated successfully", "id", id)
	merged.ID = id
	return merged, nil
}

func (s *propertyService) Delete(ctx context.Context, principal guard.Principal, id string) error {
	existing, err := s.findExisting(ctx, id)
	if err != nil {
		return err
	}

	if !guard.Allows(principal, guard.ActionPropertyDelete, existing.HostID) {
		return apperrors.Unauthorized("Unauthorized")
	}

	if err := s.repo.Delete(ctx, id); err != nil {
		if errors.Is(err, propertieserrors.ErrNotFound) {
			return apperrors.NotFound("Property")
		}
		s.cfg.Log.Error("Failed to delete property", "id", id, "error", err)
		return apperrors.Internal("Failed to delete property", err)
	}

	s.cfg.Log.Info("Property deleted successfully", "id", id, "host_id", existing.HostID)
	return nil
}

func (s *propertyService) SetStatus(ctx context.Context, principal guard.Principal, id string, status string) (*model.Property, error) {
	if status != model.PropertyStatusApproved && status != model.PropertyStatusRejected {
		return nil, apperrors.InvalidInput("Status must be approved or rejected")
	}

	existing, err := s.findExisting(ctx, id)
	if err != nil {
		return nil, err
	}

	if !guard.Allows(principal, guard.ActionPropertySetStatus, existing.HostID) {
		return nil, apperrors.Unauthorized("Unauthorized")
	}

	if err := s.repo.UpdateStatus(ctx, id, status); err != nil {
		if errors.Is(err, propertieserrors.ErrNotFound) {
			return nil, apperrors.NotFound("Property")
		}
		s.cfg.Log.Error("Failed to update property status", "id", id, "error", err)
		return nil, apperrors.Internal("Failed to update property status", err)
	}

	existing.Status = status
	s.events.PropertyStatusChanged(ctx, existing)

	s.cfg.Log.Info("Property moderated",
		"id", id,
		"status", status,
		"moderator", principal.UserID,
	)
	return existing, nil
}

// --- Helpers ---

func (s *propertyService) findExisting(ctx context.Context, id string) (*model.Property, error) {
	if id == "" {
		return nil, apperrors.InvalidInput("Property ID cannot be empty")
	}

	property, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, propertieserrors.ErrNotFound) {
			return nil, apperrors.NotFound("Property")
		}
		if errors.Is(err, propertieserrors.ErrInvalidID) {
			return nil, apperrors.InvalidInput("Invalid property ID format")
		}
		return nil, apperrors.Internal("Failed to retrieve property", err)
	}

	return property, nil
}

func (s *propertyService) sanitize(p *model.Property) {
	p.Title = sanitizer.SanitizeText(p.Title)
	p.Description = sanitizer.SanitizeText(p.Description)
	p.Location.Address = sanitizer.SanitizeText(p.Location.Address)
	p.Location.City = sanitizer.SanitizeLabel(p.Location.City)
	p.Location.County = sanitizer.SanitizeLabel(p.Location.County)
	p.Amenities = sanitizer.SanitizeSlice(p.Amenities, sanitizer.SanitizeLabel)
}

func (s *propertyService) validate(p *model.Property) error {
	if err := s.validator.Validate(p); err != nil {
		s.cfg.Log.Warn("Property validation failed", "error", err)
		return apperrors.Validation("Property validation failed", map[string]any{"error": err.Error()})
	}
	return nil
}

func mergePatch(existing *model.Property, patch *model.PropertyPatch) *model.Property {
	merged := *existing

	if patch.Title != nil {
		merged.Title = *patch.Title
	}
	if patch.Description != nil {
		merged.Description = *patch.Description
	}
	if patch.Type != nil {
		merged.Type = *patch.Type
	}
	if patch.Location != nil {
		merged.Location = *patch.Location
	}
	if patch.Price != nil {
		merged.Price = *patch.Price
	}
	if patch.Amenities != nil {
		merged.Amenities = *patch.Amenities
	}
	if patch.Photos != nil {
		merged.Photos = *patch.Photos
	}
	if patch.Rooms != nil {
		merged.Rooms = *patch.Rooms
	}
	if patch.Availability != nil {
		merged.Availability = *patch.Availability
	}

	return &merged
}
