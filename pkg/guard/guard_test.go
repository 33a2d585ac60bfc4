package guard

import (
	"context"
	"testing"

	"staybook/pkg/model"

	"github.com/stretchr/testify/assert"
)

var (
	traveler  = Principal{UserID: "traveler-1", Role: model.RoleTraveler}
	host      = Principal{UserID: "host-1", Role: model.RoleHost}
	otherHost = Principal{UserID: "host-2", Role: model.RoleHost}
	admin     = Principal{UserID: model.AdminUserID, Role: model.RoleAdmin}
	anonymous = Principal{}
)

func TestAllows(t *testing.T) {
	tests := []struct {
		name      string
		principal Principal
		action    Action
		ownerID   string
		want      bool
	}{
		{"anonymous denied everywhere", anonymous, ActionBookingCreate, "", false},
		{"traveler cannot create property", traveler, ActionPropertyCreate, "", false},
		{"host creates property", host, ActionPropertyCreate, "", true},
		{"host updates own property", host, ActionPropertyUpdate, host.UserID, true},
		{"host cannot update foreign property", host, ActionPropertyUpdate, otherHost.UserID, false},
		{"admin updates any property", admin, ActionPropertyUpdate, host.UserID, true},
		{"host cannot moderate", host, ActionPropertySetStatus, "", false},
		{"admin moderates", admin, ActionPropertySetStatus, "", true},
		{"traveler creates booking", traveler, ActionBookingCreate, "", true},
		{"host lists users denied", host, ActionUsersList, "", false},
		{"admin lists users", admin, ActionUsersList, "", true},
		{"unknown action denied", admin, Action("nonsense"), "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Allows(tt.principal, tt.action, tt.ownerID))
		})
	}
}

func TestCanViewProperty(t *testing.T) {
	approved := &model.Property{HostID: host.UserID, Status: model.PropertyStatusApproved}
	pending := &model.Property{HostID: host.UserID, Status: model.PropertyStatusPending}

	assert.True(t, CanViewProperty(anonymous, approved), "approved listings are public")
	assert.True(t, CanViewProperty(traveler, approved))

	assert.False(t, CanViewProperty(anonymous, pending))
	assert.False(t, CanViewProperty(traveler, pending))
	assert.False(t, CanViewProperty(otherHost, pending))
	assert.True(t, CanViewProperty(host, pending), "owner sees own pending listing")
	assert.True(t, CanViewProperty(admin, pending))
}

func TestCanViewBooking(t *testing.T) {
	booking := &model.Booking{UserID: traveler.UserID, Status: model.BookingStatusPending}

	assert.True(t, CanViewBooking(traveler, booking, host.UserID))
	assert.True(t, CanViewBooking(host, booking, host.UserID))
	assert.True(t, CanViewBooking(admin, booking, host.UserID))
	assert.False(t, CanViewBooking(otherHost, booking, host.UserID))
	assert.False(t, CanViewBooking(Principal{UserID: "traveler-2", Role: model.RoleTraveler}, booking, host.UserID))

	// Property gone: host link is severed, traveler and admin remain.
	assert.False(t, CanViewBooking(host, booking, ""))
	assert.True(t, CanViewBooking(traveler, booking, ""))
	assert.True(t, CanViewBooking(admin, booking, ""))
}

func TestCanTransitionBooking(t *testing.T) {
	pending := &model.Booking{UserID: traveler.UserID, Status: model.BookingStatusPending}
	confirmed := &model.Booking{UserID: traveler.UserID, Status: model.BookingStatusConfirmed}
	cancelled := &model.Booking{UserID: traveler.UserID, Status: model.BookingStatusCancelled}

	// Host on own property: pending only, to confirmed or rejected.
	assert.True(t, CanTransitionBooking(host, pending, host.UserID, model.BookingStatusConfirmed))
	assert.True(t, CanTransitionBooking(host, pending, host.UserID, model.BookingStatusRejected))
	assert.False(t, CanTransitionBooking(host, pending, host.UserID, model.BookingStatusCancelled))
	assert.False(t, CanTransitionBooking(host, confirmed, host.UserID, model.BookingStatusRejected))
	assert.False(t, CanTransitionBooking(otherHost, pending, host.UserID, model.BookingStatusConfirmed))

	// Owning traveler: cancel from pending or confirmed only.
	assert.True(t, CanTransitionBooking(traveler, pending, host.UserID, model.BookingStatusCancelled))
	assert.True(t, CanTransitionBooking(traveler, confirmed, host.UserID, model.BookingStatusCancelled))
	assert.False(t, CanTransitionBooking(traveler, cancelled, host.UserID, model.BookingStatusCancelled))
	assert.False(t, CanTransitionBooking(traveler, pending, host.UserID, model.BookingStatusConfirmed))

	// Administrators bypass the state machine.
	assert.True(t, CanTransitionBooking(admin, cancelled, host.UserID, model.BookingStatusConfirmed))

	assert.False(t, CanTransitionBooking(anonymous, pending, host.UserID, model.BookingStatusCancelled))
}

func TestPrincipalContextRoundTrip(t *testing.T) {
	ctx := WithPrincipal(context.Background(), host)

	got, ok := FromContext(ctx)
	assert.True(t, ok)
	assert.Equal(t, host, got)

	_, ok = FromContext(context.Background())
	assert.False(t, ok)

	// An anonymous principal in the context does not count as authenticated.
	_, ok = FromContext(WithPrincipal(context.Background(), anonymous))
	assert.False(t, ok)
}
