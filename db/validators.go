package db

import (
	"context"
	"errors"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"tourbook/models"
)

// CountryValidator is enforced by the server on every country insert and update. Country
// writes skip request validation and are held to this schema instead.
var CountryValidator = bson.M{
	"$jsonSchema": bson.M{
		"bsonType": "object",
		"required": []string{"name", "continent"},
		"properties": bson.M{
			"name": bson.M{
				"bsonType": "string",
			},
			"continent": bson.M{
				"enum": models.CountryContinents,
			},
		},
	},
}

// ensureValidator creates coll with validator, or attaches it when the collection already exists.
func ensureValidator(ctx context.Context, coll *mongo.Collection, validator bson.M) error {
	database := coll.Database()
	err := database.CreateCollection(ctx, coll.Name(), options.CreateCollection().SetValidator(validator))
	if err == nil {
		return nil
	}
	var ce mongo.CommandError
	if !errors.As(err, &ce) || (ce.Name != "NamespaceExists" && ce.Code != 48) {
		return fmt.Errorf("create %s: %w", coll.Name(), err)
	}
	cmd := bson.D{{Key: "collMod", Value: coll.Name()}, {Key: "validator", Value: validator}}
	if err := database.RunCommand(ctx, cmd).Err(); err != nil {
		return fmt.Errorf("attach validator to %s: %w", coll.Name(), err)
	}
	return nil
}
