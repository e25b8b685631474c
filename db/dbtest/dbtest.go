// Package dbtest connects tests to a real MongoDB when TEST_MONGO_URI is set.
package dbtest

import (
	"context"
	"os"
	"testing"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"tourbook/db"
)

// Connect opens a throwaway database with every index and validator in place, dropped at
// cleanup. The test is skipped when TEST_MONGO_URI is not set.
func Connect(t testing.TB) *db.DB {
	t.Helper()
	uri := os.Getenv("TEST_MONGO_URI")
	if uri == "" {
		t.Skip("TEST_MONGO_URI not set")
	}
	name := "tourbook_test_" + primitive.NewObjectID().Hex()
	d, err := db.Connect(context.Background(), uri, name)
	if err != nil {
		t.Fatalf("connect: %v", err)
	}
	t.Cleanup(func() {
		ctx := context.Background()
		d.Client.Database(name).Drop(ctx)
		d.Close(ctx)
	})
	if err := d.EnsureIndexes(context.Background()); err != nil {
		t.Fatalf("indexes: %v", err)
	}
	return d
}
