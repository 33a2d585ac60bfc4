package repository

import (
	"reflect"
	"testing"

	"staybook/pkg/model"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

func floatPtr(v float64) *float64 { return &v }

func TestBuildFilter(t *testing.T) {
	tests := []struct {
		name   string
		filter *model.PropertyFilter
		want   bson.M
	}{
		{
			name:   "nil filter matches everything",
			filter: nil,
			want:   bson.M{},
		},
		{
			name:   "empty filter matches everything",
			filter: &model.PropertyFilter{},
			want:   bson.M{},
		},
		{
			name:   "city is case-insensitive",
			filter: &model.PropertyFilter{City: "Naivasha"},
			want: bson.M{
				"location.city": primitive.Regex{Pattern: "Naivasha", Options: "i"},
			},
		},
		{
			name:   "regex metacharacters are escaped",
			filter: &model.PropertyFilter{City: "(a+)+$"},
			want: bson.M{
				"location.city": primitive.Regex{Pattern: `\(a\+\)\+\$`, Options: "i"},
			},
		},
		{
			name:   "price range",
			filter: &model.PropertyFilter{MinPrice: floatPtr(50), MaxPrice: floatPtr(200)},
			want: bson.M{
				"price": bson.M{"$gte": 50.0, "$lte": 200.0},
			},
		},
		{
			name:   "min price only",
			filter: &model.PropertyFilter{MinPrice: floatPtr(50)},
			want: bson.M{
				"price": bson.M{"$gte": 50.0},
			},
		},
		{
			name:   "amenities require every value",
			filter: &model.PropertyFilter{Amenities: []string{"wifi", "parking"}},
			want: bson.M{
				"amenities": bson.M{"$all": []string{"wifi", "parking"}},
			},
		},
		{
			name: "combined",
			filter: &model.PropertyFilter{
				County: "Nakuru",
				Type:   "lodge",
				Status: model.PropertyStatusApproved,
				HostID: "68a000000000000000000010",
			},
			want: bson.M{
				"location.county": primitive.Regex{Pattern: "Nakuru", Options: "i"},
				"type":            "lodge",
				"status":          model.PropertyStatusApproved,
				"host_id":         "68a000000000000000000010",
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := buildFilter(tt.filter)
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("buildFilter() = %#v, want %#v", got, tt.want)
			}
		})
	}
}
