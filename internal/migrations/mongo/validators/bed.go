package validators

import "go.mongodb.org/mongo-driver/bson"

var BedValidator = bson.M{
	"$jsonSchema": bson.M{
		"bsonType": "object",
		"required": []string{
			"facility_id",
			"number",
			"category",
			"occupied",
			"created_at",
		},
		"additionalProperties": true,

		"properties": bson.M{
			"_id": bson.M{
				"bsonType": "objectId",
			},

			"facility_id": bson.M{
				"bsonType":  "string",
				"minLength": 1,
				"maxLength": 64,
			},

			"number": bson.M{
				"bsonType": "int",
				"minimum":  1,
			},

			"category": bson.M{
				"enum": []string{"general", "icu", "private"},
			},

			"occupied": bson.M{
				"bsonType": "bool",
			},

			"holder_id": bson.M{
				"bsonType": "string",
			},

			"reservation_id": bson.M{
				"bsonType": "string",
			},

			"price_per_day": bson.M{
				"bsonType": []string{"double", "int", "long", "decimal"},
				"minimum":  0,
			},

			"updated_at": bson.M{
				"bsonType": "date",
			},

			"created_at": bson.M{
				"bsonType": "date",
			},
		},
	},
}
