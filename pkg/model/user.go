package model

import "time"

const (
	RoleTraveler = "traveler"
	RoleHost     = "host"
	RoleAdmin    = "admin"
)

// AdminUserID identifies the statically configured administrator credential,
// which is not stored in the users collection.
const AdminUserID = "admin"

type User struct {
	ID        string    `json:"id,omitempty" bson:"_id,omitempty" validate:"omitempty,mongodb"`
	Name      string    `json:"name" bson:"name" validate:"required,min=2,max=100"`
	Email     string    `json:"email" bson:"email" validate:"required,email"`
	Password  string    `json:"-" bson:"password"`
	Phone     string    `json:"phone,omitempty" bson:"phone,omitempty" validate:"omitempty,max=20"`
	Role      string    `json:"role" bson:"role" validate:"required,oneof=traveler host admin"`
	CreatedAt time.Time `json:"created_at" bson:"created_at"`
	UpdatedAt time.Time `json:"updated_at" bson:"updated_at"`
}

// AdminUserView is the administrator listing shape: hosts carry the number
// of properties they own, other roles leave the field unset.
type AdminUserView struct {
	User          `bson:",inline"`
	PropertyCount *int64 `json:"property_count,omitempty" bson:"-"`
}

// UserRegistration is the self-service signup payload. Role is restricted to
// traveler or host; the administrator credential is configured statically.
type UserRegistration struct {
	Name     string `json:"name" validate:"required,min=2,max=100"`
	Email    string `json:"email" validate:"required,email"`
	Phone    string `json:"phone,omitempty" validate:"omitempty,max=20"`
	Password string `json:"password" validate:"required,min=6,max=72"`
	Role     string `json:"role,omitempty" validate:"omitempty,oneof=traveler host"`
}

type Credentials struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// Session is the login response: a role-bearing token plus the identity it
// was issued for.
type Session struct {
	Token string `json:"token"`
	User  User   `json:"user"`
}
