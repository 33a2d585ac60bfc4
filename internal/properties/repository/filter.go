package repository

import (
	"regexp"

	"staybook/pkg/model"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// buildFilter compiles a PropertyFilter into a single document-store query.
// City and county match case-insensitively; amenities require every listed
// value to be present. An empty Status means no status constraint.
func buildFilter(f *model.PropertyFilter) bson.M {
	filter := bson.M{}
	if f == nil {
		return filter
	}

	if f.City != "" {
		filter["location.city"] = caseInsensitive(f.City)
	}
	if f.County != "" {
		filter["location.county"] = caseInsensitive(f.County)
	}
	if f.Type != "" {
		filter["type"] = f.Type
	}

	if f.MinPrice != nil || f.MaxPrice != nil {
		price := bson.M{}
		if f.MinPrice != nil {
			price["$gte"] = *f.MinPrice
		}
		if f.MaxPrice != nil {
			price["$lte"] = *f.MaxPrice
		}
		filter["price"] = price
	}

	if len(f.Amenities) > 0 {
		filter["amenities"] = bson.M{"$all": f.Amenities}
	}

	if f.Status != "" {
		filter["status"] = f.Status
	}
	if f.HostID != "" {
		filter["host_id"] = f.HostID
	}

	return filter
}

func caseInsensitive(value string) primitive.Regex {
	return primitive.Regex{
		Pattern: regexp.QuoteMeta(value),
		Options: "i",
	}
}
