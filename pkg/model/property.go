package model

import "time"

const (
	PropertyStatusPending  = "pending"
	PropertyStatusApproved = "approved"
	PropertyStatusRejected = "rejected"
)

// PropertyStatusAll is a query-only sentinel used by administrators to list
// properties regardless of status. Never persisted.
const PropertyStatusAll = "all"

type Coordinates struct {
	Lat float64 `json:"lat" bson:"lat"`
	Lng float64 `json:"lng" bson:"lng"`
}

type Location struct {
	Address     string      `json:"address" bson:"address" validate:"required,max=200"`
	City        string      `json:"city" bson:"city" validate:"required,max=100"`
	County      string      `json:"county" bson:"county" validate:"required,max=100"`
	Coordinates Coordinates `json:"coordinates" bson:"coordinates"`
}

type Room struct {
	Type     string `json:"type" bson:"type" validate:"required,max=50"`
	Capacity int    `json:"capacity" bson:"capacity" validate:"required,min=1,max=50"`
	Count    int    `json:"count" bson:"count" validate:"required,min=1,max=500"`
}

type AvailabilityWindow struct {
	StartDate time.Time `json:"start_date" bson:"start_date" validate:"required"`
	EndDate   time.Time `json:"end_date" bson:"end_date" validate:"required,gtfield=StartDate"`
}

type Property struct {
	ID           string               `json:"id,omitempty" bson:"_id,omitempty" validate:"omitempty,mongodb"`
	HostID       string               `json:"host_id" bson:"host_id"`
	Title        string               `json:"title" bson:"title" validate:"required,min=2,max=150"`
	Description  string               `json:"description" bson:"description" validate:"required,max=5000"`
	Type         string               `json:"type" bson:"type" validate:"required,oneof=hotel hostel homestay lodge apartment villa other"`
	Location     Location             `json:"location" bson:"location" validate:"required"`
	Price        float64              `json:"price" bson:"price" validate:"required,gt=0"`
	Amenities    []string             `json:"amenities" bson:"amenities" validate:"omitempty,max=50,dive,required"`
	Photos       []string             `json:"photos" bson:"photos" validate:"omitempty,max=30,dive,required"`
	Rooms        []Room               `json:"rooms" bson:"rooms" validate:"omitempty,dive"`
	Availability []AvailabilityWindow `json:"availability" bson:"availability" validate:"omitempty,dive"`
	Status       string               `json:"status" bson:"status" validate:"omitempty,oneof=pending approved rejected"`
	CreatedAt    time.Time            `json:"created_at" bson:"created_at"`
	UpdatedAt    time.Time            `json:"updated_at" bson:"updated_at"`
}

// PropertyPatch carries a partial update. Nil fields are left untouched.
type PropertyPatch struct {
	Title        *string               `json:"title,omitempty" validate:"omitempty,min=2,max=150"`
	Description  *string               `json:"description,omitempty" validate:"omitempty,max=5000"`
	Type         *string               `json:"type,omitempty" validate:"omitempty,oneof=hotel hostel homestay lodge apartment villa other"`
	Location     *Location             `json:"location,omitempty"`
	Price        *float64              `json:"price,omitempty" validate:"omitempty,gt=0"`
	Amenities    *[]string             `json:"amenities,omitempty" validate:"omitempty,max=50,dive,required"`
	Photos       *[]string             `json:"photos,omitempty" validate:"omitempty,max=30,dive,required"`
	Rooms        *[]Room               `json:"rooms,omitempty" validate:"omitempty,dive"`
	Availability *[]AvailabilityWindow `json:"availability,omitempty" validate:"omitempty,dive"`
}

// PropertyFilter is the immutable listing query compiled by the
// repository into a single document-store filter. All supplied fields are
// combined with logical AND; Amenities requires the property to carry every
// listed amenity.
type PropertyFilter struct {
	City      string
	County    string
	Type      string
	MinPrice  *float64
	MaxPrice  *float64
	Amenities []string
	Status    string
	HostID    string
}

// PropertySummary is the denormalized snapshot embedded in booking responses.
type PropertySummary struct {
	ID       string   `json:"id" bson:"_id"`
	Title    string   `json:"title" bson:"title"`
	Location Location `json:"location" bson:"location"`
	Photos   []string `json:"photos" bson:"photos"`
}

func (p *Property) Summary() *PropertySummary {
	return &PropertySummary{
		ID:       p.ID,
		Title:    p.Title,
		Location: p.Location,
		Photos:   p.Photos,
	}
}
