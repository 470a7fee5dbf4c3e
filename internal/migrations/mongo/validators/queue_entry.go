package validators

import "go.mongodb.org/mongo-driver/bson"

var QueueEntryValidator = bson.M{
	"$jsonSchema": bson.M{
		"bsonType": "object",
		"required": []string{
			"facility_id",
			"requester_id",
			"token",
			"department",
			"patient_name",
			"phone",
			"state",
			"checked_in_at",
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

			"token": bson.M{
				"bsonType": []string{"long", "int"},
				"minimum":  1,
			},

			"department": bson.M{
				"bsonType":  "string",
				"minLength": 2,
				"maxLength": 60,
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

			"state": bson.M{
				"enum": []string{"waiting", "in_consultation", "completed", "cancelled"},
			},

			"estimated_wait_min": bson.M{
				"bsonType": "int",
				"minimum":  0,
			},

			"checked_in_at": bson.M{
				"bsonType": "date",
			},

			"started_at": bson.M{
				"bsonType": "date",
			},

			"completed_at": bson.M{
				"bsonType": "date",
			},
		},
	},
}
