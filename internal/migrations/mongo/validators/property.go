package validators

import "go.mongodb.org/mongo-driver/bson"

var PropertyValidator = bson.M{
	"$jsonSchema": bson.M{
		"bsonType": "object",
		"required": []string{
			"host_id",
			"title",
			"description",
			"type",
			"location",
			"price",
			"status",
			"created_at",
		},
		"additionalProperties": true,

		"properties": bson.M{
			"_id": bson.M{
				"bsonType": "objectId",
			},

			"host_id": bson.M{
				"bsonType": "string",
			},

			"title": bson.M{
				"bsonType":  "string",
				"minLength": 2,
				"maxLength": 150,
			},

			"description": bson.M{
				"bsonType":  "string",
				"maxLength": 5000,
			},

			"type": bson.M{
				"enum": []string{"hotel", "hostel", "homestay", "lodge", "apartment", "villa", "other"},
			},

			"location": bson.M{
				"bsonType": "object",
				"required": []string{"address", "city", "county"},
				"properties": bson.M{
					"address": bson.M{"bsonType": "string"},
					"city":    bson.M{"bsonType": "string"},
					"county":  bson.M{"bsonType": "string"},
					"coordinates": bson.M{
						"bsonType": "object",
						"properties": bson.M{
							"lat": bson.M{"bsonType": []string{"double", "int", "long", "decimal"}},
							"lng": bson.M{"bsonType": []string{"double", "int", "long", "decimal"}},
						},
					},
				},
			},

			"price": bson.M{
				"bsonType": []string{"double", "int", "long", "decimal"},
				"minimum":  0,
			},

			"amenities": bson.M{
				"bsonType": "array",
				"maxItems": 50,
				"items":    bson.M{"bsonType": "string"},
			},

			"photos": bson.M{
				"bsonType": "array",
				"maxItems": 30,
				"items":    bson.M{"bsonType": "string"},
			},

			"rooms": bson.M{
				"bsonType": "array",
			},

			"availability": bson.M{
				"bsonType": "array",
			},

			"status": bson.M{
				"enum": []string{"pending", "approved", "rejected"},
			},

			"created_at": bson.M{"bsonType": "date"},
			"updated_at": bson.M{"bsonType": "date"},
		},
	},
}
