package validators

import "go.mongodb.org/mongo-driver/bson"

var ReservationValidator = bson.M{
	"$jsonSchema": bson.M{
		"bsonType": "object",
		"required": []string{
			"facility_id",
			"requester_id",
			"category",
			"state",
			"patient_name",
			"phone",
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

			"requester_id": bson.M{
				"bsonType":  "string",
				"minLength": 1,
				"maxLength": 64,
			},

			"category": bson.M{
				"enum": []string{"general", "icu", "private"},
			},

			"state": bson.M{
				"enum": []string{"provisional", "confirmed", "admitted", "cancelled", "expired"},
			},

			"bed_id": bson.M{
				"bsonType": "string",
			},

			"patient_name": bson.M{
				"bsonType":  "string",
				"minLength": 2,
				"maxLength": 100,
			},

			"phone": bson.M{
				"bsonType":  "string",
				"minLength": 5,
				"maxLength": 20,
			},

			"notes": bson.M{
				"bsonType":  "string",
				"maxLength": 500,
			},

			"expires_at": bson.M{
				"bsonType": "date",
			},

			"admitted_at": bson.M{
				"bsonType": "date",
			},

			"released_at": bson.M{
				"bsonType": "date",
			},

			"created_at": bson.M{
				"bsonType": "date",
			},

			"updated_at": bson.M{
				"bsonType": "date",
			},
		},
	},
}
