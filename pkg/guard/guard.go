// Package guard centralizes the role and ownership checks that were
// previously scattered across route handlers. Every mutating entry point
// consults the permission table instead of comparing role strings inline.
package guard

import (
	"context"

	"staybook/pkg/model"
)

// Principal is the verified identity attached to a request. A zero UserID
// means the caller is anonymous.
type Principal struct {
	UserID string
	Role   string
}

func (p Principal) IsAnonymous() bool {
	return p.UserID == ""
}

func (p Principal) IsAdmin() bool {
	return p.Role == model.RoleAdmin
}

type contextKey struct{}

func WithPrincipal(ctx context.Context, p Principal) context.Context {
	return context.WithValue(ctx, contextKey{}, p)
}

func FromContext(ctx context.Context) (Principal, bool) {
	p, ok := ctx.Value(contextKey{}).(Principal)
	return p, ok && !p.IsAnonymous()
}

// Action enumerates the guarded operations.
type Action string

const (
	ActionPropertyCreate    Action = "property:create"
	ActionPropertyUpdate    Action = "property:update"
	ActionPropertyDelete    Action = "property:delete"
	ActionPropertySetStatus Action = "property:set_status"
	ActionBookingCreate     Action = "booking:create"
	ActionUsersList         Action = "users:list"
)

// predicate decides whether a principal may perform an action against a
// resource owned by ownerID. ownerID is empty for actions without a resource.
type predicate func(p Principal, ownerID string) bool

func allowAny(Principal, string) bool { return true }

func owns(p Principal, ownerID string) bool { return ownerID != "" && p.UserID == ownerID }

// permissions is the role × action table. Administrators bypass ownership
// entirely; roles absent from an action's row are denied.
var permissions = map[Action]map[string]predicate{
	ActionPropertyCreate: {
		model.RoleHost:  allowAny,
		model.RoleAdmin: allowAny,
	},
	ActionPropertyUpdate: {
		model.RoleHost:  owns,
		model.RoleAdmin: allowAny,
	},
	ActionPropertyDelete: {
		model.RoleHost:  owns,
		model.RoleAdmin: allowAny,
	},
	ActionPropertySetStatus: {
		model.RoleAdmin: allowAny,
	},
	ActionBookingCreate: {
		model.RoleTraveler: allowAny,
		model.RoleHost:     allowAny,
		model.RoleAdmin:    allowAny,
	},
	ActionUsersList: {
		model.RoleAdmin: allowAny,
	},
}

// Allows reports whether the principal may perform action on a resource
// owned by ownerID. Anonymous principals are always denied.
func Allows(p Principal, action Action, ownerID string) bool {
	if p.IsAnonymous() {
		return false
	}
	row, ok := permissions[action]
	if !ok {
		return false
	}
	pred, ok := row[p.Role]
	if !ok {
		return false
	}
	return pred(p, ownerID)
}

// CanViewProperty implements the listing visibility rule: approved listings
// are public, everything else is restricted to the owning host and
// administrators.
func CanViewProperty(p Principal, property *model.Property) bool {
	if property.Status == model.PropertyStatusApproved {
		return true
	}
	if p.IsAdmin() {
		return true
	}
	return p.Role == model.RoleHost && owns(p, property.HostID)
}

// CanViewBooking implements booking visibility: the traveler who made it,
// the host owning the referenced property, and administrators.
// propertyOwnerID is empty when the property no longer exists.
func CanViewBooking(p Principal, booking *model.Booking, propertyOwnerID string) bool {
	if p.IsAdmin() {
		return true
	}
	if owns(p, booking.UserID) {
		return true
	}
	return p.Role == model.RoleHost && owns(p, propertyOwnerID)
}

// CanTransitionBooking encodes the reservation state machine:
//
//	pending --(host/admin)--> confirmed | rejected
//	pending|confirmed --(owning traveler/admin)--> cancelled
//
// confirmed, rejected and cancelled are terminal for non-administrators.
func CanTransitionBooking(p Principal, booking *model.Booking, propertyOwnerID, newStatus string) bool {
	if p.IsAdmin() {
		return true
	}

	if owns(p, booking.UserID) {
		return newStatus == model.BookingStatusCancelled &&
			(booking.Status == model.BookingStatusPending || booking.Status == model.BookingStatusConfirmed)
	}

	if p.Role == model.RoleHost && owns(p, propertyOwnerID) {
		return booking.Status == model.BookingStatusPending &&
			(newStatus == model.BookingStatusConfirmed || newStatus == model.BookingStatusRejected)
	}

	return false
}
