package model

import "time"

const (
	BookingStatusPending   = "pending"
	BookingStatusConfirmed = "confirmed"
	BookingStatusRejected  = "rejected"
	BookingStatusCancelled = "cancelled"
)

type Booking struct {
	ID           string    `json:"id,omitempty" bson:"_id,omitempty" validate:"omitempty,mongodb"`
	PropertyID   string    `json:"property_id" bson:"property_id" validate:"required,mongodb"`
	UserID       string    `json:"user_id" bson:"user_id"`
	CheckIn      time.Time `json:"check_in" bson:"check_in" validate:"required"`
	CheckOut     time.Time `json:"check_out" bson:"check_out" validate:"required,gtfield=CheckIn"`
	Guests       int       `json:"guests" bson:"guests" validate:"required,min=1,max=100"`
	ContactName  string    `json:"contact_name" bson:"contact_name" validate:"required,min=2,max=100"`
	ContactEmail string    `json:"contact_email" bson:"contact_email" validate:"required,email"`
	ContactPhone string    `json:"contact_phone" bson:"contact_phone" validate:"omitempty,max=20"`
	Status       string    `json:"status" bson:"status" validate:"omitempty,oneof=pending confirmed rejected cancelled"`
	CreatedAt    time.Time `json:"created_at" bson:"created_at"`
	UpdatedAt    time.Time `json:"updated_at" bson:"updated_at"`
}

// BookingView is a booking enriched with a snapshot of the referenced
// property. Property is nil when the listing has been deleted since the
// reservation was made.
type BookingView struct {
	Booking  `bson:",inline"`
	Property *PropertySummary `json:"property"`
}

// BookingFilter narrows booking listings. PropertyIDs is used for host
// visibility: the caller's owned property id set.
type BookingFilter struct {
	UserID      string
	PropertyID  string
	PropertyIDs []string
	Status      string
}
