package countries

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/julienschmidt/httprouter"
	"go.mongodb.org/mongo-driver/bson"

	"tourbook/db/dbtest"
	"tourbook/models"
	"tourbook/rdx"
)

func TestCollectionRejectsUnknownContinent(t *testing.T) {
	d := dbtest.Connect(t)
	ctx := context.Background()

	if _, err := d.Countries.InsertOne(ctx, bson.M{"name": "Kenya", "continent": "africa"}); err == nil {
		t.Fatal("expected the collection validator to reject africa")
	}
	if _, err := d.Countries.InsertOne(ctx, bson.M{"name": "Nepal", "continent": "asia"}); err != nil {
		t.Fatalf("insert asia: %v", err)
	}

	h := NewHandler(d, &rdx.Cache{})
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/countries", strings.NewReader(`{"name":"France","continent":"europe"}`))
	h.Create(rec, req, httprouter.Params{})
	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", rec.Code, rec.Body.String())
	}

	var c models.Country
	if err := d.Countries.FindOne(ctx, bson.M{"name": "France"}).Decode(&c); err != nil {
		t.Fatalf("load: %v", err)
	}
	_, err := d.Countries.UpdateOne(ctx, bson.M{"_id": c.ID}, bson.M{"$set": bson.M{"continent": "oceania"}})
	if err == nil {
		t.Fatal("expected the collection validator to reject oceania")
	}
}
