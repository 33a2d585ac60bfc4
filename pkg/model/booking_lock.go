package model

import "time"

// BookingLock is an advisory lock serializing the overlap-check-then-insert
// sequence for a property. The _id doubles as the lock key; a unique-index
// violation on insert means another request holds the slot.
type BookingLock struct {
	ID        string    `bson:"_id" json:"id"`
	ExpiresAt time.Time `bson:"expires_at" json:"expires_at"`
	CreatedAt time.Time `bson:"created_at" json:"created_at"`
}
