package service

import (
	"context"
	"testing"
	"time"

	"staybook/internal/events"
	propertieserrors "staybook/internal/properties/errors"
	"staybook/internal/properties/validator"
	"staybook/pkg/config"
	apperrors "staybook/pkg/errors"
	"staybook/pkg/guard"
	"staybook/pkg/logger"
	"staybook/pkg/model"
)

type mockPropertyRepository struct {
	createFunc        func(ctx context.Context, property *model.Property) error
	findByIDFunc      func(ctx context.Context, id string) (*model.Property, error)
	findFunc          func(ctx context.Context, filter *model.PropertyFilter, limit int, offset int64) ([]*model.Property, error)
	countByFilterFunc func(ctx context.Context, filter *model.PropertyFilter) (int64, error)
	updateFunc        func(ctx context.Context, id string, property *model.Property) error
	updateStatusFunc  func(ctx context.Context, id string, status string) error
	deleteFunc        func(ctx context.Context, id string) error
}

func (m *mockPropertyRepository) Create(ctx context.Context, property *model.Property) error {
	if m.createFunc != nil {
		return m.createFunc(ctx, property)
	}
	property.ID = "68b000000000000000000001"
	return nil
}

func (m *mockPropertyRepository) FindByID(ctx context.Context, id string) (*model.Property, error) {
	if m.findByIDFunc != nil {
		return m.findByIDFunc(ctx, id)
	}
	return nil, propertieserrors.ErrNotFound
}

func (m *mockPropertyRepository) Find(ctx context.Context, filter *model.PropertyFilter, limit int, offset int64) ([]*model.Property, error) {
	if m.findFunc != nil {
		return m.findFunc(ctx, filter, limit, offset)
	}
	return []*model.Property{}, nil
}

func (m *mockPropertyRepository) CountByFilter(ctx context.Context, filter *model.PropertyFilter) (int64, error) {
	if m.countByFilterFunc != nil {
		return m.countByFilterFunc(ctx, filter)
	}
	return 0, nil
}

func (m *mockPropertyRepository) Update(ctx context.Context, id string, property *model.Property) error {
	if m.updateFunc != nil {
		return m.updateFunc(ctx, id, property)
	}
	return nil
}

func (m *mockPropertyRepository) UpdateStatus(ctx context.Context, id string, status string) error {
	if m.updateStatusFunc != nil {
		return m.updateStatusFunc(ctx, id, status)
	}
	return nil
}

func (m *mockPropertyRepository) Delete(ctx context.Context, id string) error {
	if m.deleteFunc != nil {
		return m.deleteFunc(ctx, id)
	}
	return nil
}

func (m *mockPropertyRepository) CountByHost(ctx context.Context, hostID string) (int64, error) {
	return 0, nil
}

func (m *mockPropertyRepository) FindIDsByHost(ctx context.Context, hostID string) ([]string, error) {
	return nil, nil
}

func (m *mockPropertyRepository) FindSummaries(ctx context.Context, ids []string) (map[string]*model.PropertySummary, error) {
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

func newTestService(repo *mockPropertyRepository) *propertyService {
	cfg := testConfig()
	return &propertyService{
		repo:      repo,
		validator: validator.NewPropertyValidator(cfg.Log),
		events:    events.NewNoop(),
		cfg:       cfg,
	}
}

func validProperty() *model.Property {
	return &model.Property{
		Title:       "Lakeside Lodge",
		Description: "A quiet lodge by the lake",
		Type:        "lodge",
		Location: model.Location{
			Address: "12 Lakeshore Rd",
			City:    "Naivasha",
			County:  "Nakuru",
		},
		Price:     120,
		Amenities: []string{"wifi", "parking"},
	}
}

var (
	hostPrincipal     = guard.Principal{UserID: "68a000000000000000000010", Role: model.RoleHost}
	otherHost         = guard.Principal{UserID: "68a000000000000000000099", Role: model.RoleHost}
	travelerPrincipal = guard.Principal{UserID: "68a000000000000000000020", Role: model.RoleTraveler}
	adminPrincipal    = guard.Principal{UserID: model.AdminUserID, Role: model.RoleAdmin}
	anonymous         = guard.Principal{}
)

func TestResolveStatusFilter(t *testing.T) {
	tests := []struct {
		name       string
		principal  guard.Principal
		filter     model.PropertyFilter
		wantStatus string
	}{
		{"anonymous default", anonymous, model.PropertyFilter{}, model.PropertyStatusApproved},
		{"anonymous cannot ask for pending", anonymous, model.PropertyFilter{Status: "pending"}, model.PropertyStatusApproved},
		{"traveler forced to approved", travelerPrincipal, model.PropertyFilter{Status: "all"}, model.PropertyStatusApproved},
		{"admin default", adminPrincipal, model.PropertyFilter{}, model.PropertyStatusApproved},
		{"admin explicit pending", adminPrincipal, model.PropertyFilter{Status: "pending"}, "pending"},
		{"admin all removes constraint", adminPrincipal, model.PropertyFilter{Status: "all"}, ""},
		{"host browsing own sees every status", hostPrincipal, model.PropertyFilter{HostID: hostPrincipal.UserID}, ""},
		{"host browsing own explicit status kept", hostPrincipal, model.PropertyFilter{HostID: hostPrincipal.UserID, Status: "rejected"}, "rejected"},
		{"host browsing others forced to approved", hostPrincipal, model.PropertyFilter{HostID: otherHost.UserID, Status: "pending"}, model.PropertyStatusApproved},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			filter := tt.filter
			resolveStatusFilter(tt.principal, &filter)
			if filter.Status != tt.wantStatus {
				t.Errorf("expected status %q, got %q", tt.wantStatus, filter.Status)
			}
		})
	}
}

func TestCreate_DefaultsStatusByRole(t *testing.T) {
	tests := []struct {
		name       string
		principal  guard.Principal
		wantStatus string
	}{
		{"host listing starts pending", hostPrincipal, model.PropertyStatusPending},
		{"admin listing starts approved", adminPrincipal, model.PropertyStatusApproved},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var created *model.Property
			repo := &mockPropertyRepository{
				createFunc: func(ctx context.Context, property *model.Property) error {
					created = property
					property.ID = "68b000000000000000000001"
					return nil
				},
			}
			svc := newTestService(repo)

			property := validProperty()
			// Client-supplied values must not stick.
			property.Status = model.PropertyStatusApproved
			property.HostID = "someone-else"

			if err := svc.Create(context.Background(), tt.principal, property); err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if created.Status != tt.wantStatus {
				t.Errorf("expected status %q, got %q", tt.wantStatus, created.Status)
			}
			if created.HostID != tt.principal.UserID {
				t.Errorf("expected host_id %q, got %q", tt.principal.UserID, created.HostID)
			}
		})
	}
}

func TestCreate_TravelerRejected(t *testing.T) {
	svc := newTestService(&mockPropertyRepository{})

	err := svc.Create(context.Background(), travelerPrincipal, validProperty())
	if err == nil {
		t.Fatal("expected error for traveler listing a property")
	}
	if apperrors.AsAppError(err).StatusCode() != 401 {
		t.Errorf("expected status 401, got %d", apperrors.AsAppError(err).StatusCode())
	}
}

func TestGetByID_PendingHiddenFromStrangers(t *testing.T) {
	pending := validProperty()
	pending.ID = "68b000000000000000000001"
	pending.HostID = hostPrincipal.UserID
	pending.Status = model.PropertyStatusPending

	repo := &mockPropertyRepository{
		findByIDFunc: func(ctx context.Context, id string) (*model.Property, error) {
			return pending, nil
		},
	}
	svc := newTestService(repo)

	tests := []struct {
		name      string
		principal guard.Principal
		wantErr   bool
	}{
		{"anonymous", anonymous, true},
		{"traveler", travelerPrincipal, true},
		{"other host", otherHost, true},
		{"owning host", hostPrincipal, false},
		{"admin", adminPrincipal, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.GetByID(context.Background(), tt.principal, pending.ID)
			if tt.wantErr {
				if err == nil {
					t.Fatal("expected error")
				}
				if apperrors.AsAppError(err).StatusCode() != 404 {
					t.Errorf("expected status 404, got %d", apperrors.AsAppError(err).StatusCode())
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
		})
	}
}

func TestUpdate_ForeignHostRejected(t *testing.T) {
	existing := validProperty()
	existing.ID = "68b000000000000000000001"
	existing.HostID = hostPrincipal.UserID
	existing.Status = model.PropertyStatusApproved

	repo := &mockPropertyRepository{
		findByIDFunc: func(ctx context.Context, id string) (*model.Property, error) {
			return existing, nil
		},
		updateFunc: func(ctx context.Context, id string, property *model.Property) error {
			t.Fatal("update must not be called for a foreign host")
			return nil
		},
	}
	svc := newTestService(repo)

	newTitle := "Hijacked"
	_, err := svc.Update(context.Background(), otherHost, existing.ID, &model.PropertyPatch{Title: &newTitle})
	if err == nil {
		t.Fatal("expected error for foreign host update")
	}
	if apperrors.AsAppError(err).StatusCode() != 401 {
		t.Errorf("expected status 401, got %d", apperrors.AsAppError(err).StatusCode())
	}
}

func TestUpdate_MergesPatch(t *testing.T) {
	existing := validProperty()
	existing.ID = "68b000000000000000000001"
	existing.HostID = hostPrincipal.UserID
	existing.Status = model.PropertyStatusApproved

	var updated *model.Property
	repo := &mockPropertyRepository{
		findByIDFunc: func(ctx context.Context, id string) (*model.Property, error) {
			return existing, nil
		},
		updateFunc: func(ctx context.Context, id string, property *model.Property) error {
			updated = property
			return nil
		},
	}
	svc := newTestService(repo)

	newPrice := 200.0
	_, err := svc.Update(context.Background(), hostPrincipal, existing.ID, &model.PropertyPatch{Price: &newPrice})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if updated.Price != 200 {
		t.Errorf("expected price 200, got %v", updated.Price)
	}
	if updated.Title != existing.Title {
		t.Errorf("unpatched field changed: %q != %q", updated.Title, existing.Title)
	}
}

func TestSetStatus_AdminOnly(t *testing.T) {
	existing := validProperty()
	existing.ID = "68b000000000000000000001"
	existing.HostID = hostPrincipal.UserID
	existing.Status = model.PropertyStatusPending

	repo := &mockPropertyRepository{
		findByIDFunc: func(ctx context.Context, id string) (*model.Property, error) {
			return existing, nil
		},
	}
	svc := newTestService(repo)

	if _, err := svc.SetStatus(context.Background(), hostPrincipal, existing.ID, model.PropertyStatusApproved); err == nil {
		t.Fatal("expected error for host moderating own property")
	}

	property, err := svc.SetStatus(context.Background(), adminPrincipal, existing.ID, model.PropertyStatusApproved)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if property.Status != model.PropertyStatusApproved {
		t.Errorf("expected status approved, got %q", property.Status)
	}
}

func TestSetStatus_RejectsUnknownStatus(t *testing.T) {
	svc := newTestService(&mockPropertyRepository{})

	_, err := svc.SetStatus(context.Background(), adminPrincipal, "68b000000000000000000001", "archived")
	if err == nil {
		t.Fatal("expected error for unknown status")
	}
	if apperrors.AsAppError(err).StatusCode() != 400 {
		t.Errorf("expected status 400, got %d", apperrors.AsAppError(err).StatusCode())
	}
}
