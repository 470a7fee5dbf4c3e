package validators

import "go.mongodb.org/mongo-driver/bson"

var EmergencyValidator = bson.M{
	"$jsonSchema": bson.M{
		"bsonType": "object",
		"required": []string{
			"facility_id",
			"requester_id",
			"category",
			"priority",
			"priority_rank",
			"condition",
			"patient_name",
			"phone",
			"status",
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

			"reservation_id": bson.M{
				"bsonType": "string",
			},

			"bed_id": bson.M{
				"bsonType": "string",
			},

			"category": bson.M{
				"enum": []string{"general", "icu", "private"},
			},

			"priority": bson.M{
				"enum": []string{"critical", "high", "medium"},
			},

			"priority_rank": bson.M{
				"bsonType": "int",
				"minimum":  0,
				"maximum":  3,
			},

			"condition": bson.M{
				"bsonType":  "string",
				"minLength": 3,
				"maxLength": 1000,
			},

			"vitals": bson.M{
				"bsonType":  "string",
				"maxLength": 1000,
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

			"status": bson.M{
				"enum": []string{"pending", "assigned", "admitted", "treated", "discharged"},
			},

			"response_minutes": bson.M{
				"bsonType": "int",
				"minimum":  0,
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
