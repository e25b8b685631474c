package countries

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/julienschmidt/httprouter"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

func TestPermittedFieldsDropsUnknownKeys(t *testing.T) {
	set := PermittedFields(map[string]any{
		"name":      "Nepal",
		"capital":   "Kathmandu",
		"_id":       "forged",
		"createdAt": "2020-01-01",
		"$where":    "1",
	})

	if len(set) != 2 || set["name"] != "Nepal" || set["capital"] != "Kathmandu" {
		t.Fatalf("unexpected update set %v", set)
	}
}

func TestMalformedRequestsAreServerErrors(t *testing.T) {
	h := NewHandler(nil, nil)
	tests := []struct {
		name   string
		handle httprouter.Handle
		body   string
		id     string
	}{
		{"get with bad id", h.GetCountry, "", "nope"},
		{"delete with bad id", h.Delete, "", "nope"},
		{"create with bad json", h.Create, "{", ""},
	}
	for _, tt := range tests {
		rec := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodPost, "/api/countries", strings.NewReader(tt.body))
		tt.handle(rec, req, httprouter.Params{{Key: "id", Value: tt.id}})
		if rec.Code != http.StatusInternalServerError {
			t.Errorf("%s: expected 500, got %d", tt.name, rec.Code)
		}
		if !strings.Contains(rec.Body.String(), "Something went wrong") {
			t.Errorf("%s: expected generic message, got %s", tt.name, rec.Body.String())
		}
	}
}

func TestContinentOutsideAsiaEuropeIsRejected(t *testing.T) {
	h := NewHandler(nil, nil)
	id := primitive.NewObjectID().Hex()
	tests := []struct {
		name   string
		handle httprouter.Handle
		body   string
	}{
		{"create africa", h.Create, `{"name":"Kenya","continent":"africa"}`},
		{"create without continent", h.Create, `{"name":"Kenya"}`},
		{"patch africa", h.Update, `{"continent":"africa"}`},
		{"patch non-string continent", h.Update, `{"continent":7}`},
	}
	for _, tt := range tests {
		rec := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodPost, "/api/countries", strings.NewReader(tt.body))
		tt.handle(rec, req, httprouter.Params{{Key: "id", Value: id}})
		if rec.Code != http.StatusInternalServerError {
			t.Errorf("%s: expected 500, got %d", tt.name, rec.Code)
		}
	}
}

func TestCheckContinent(t *testing.T) {
	for _, c := range []string{"asia", "europe"} {
		if err := checkContinent(c); err != nil {
			t.Errorf("%s: unexpected error %v", c, err)
		}
	}
	for _, c := range []string{"", "Asia", "africa"} {
		if err := checkContinent(c); err == nil {
			t.Errorf("%q: expected rejection", c)
		}
	}
}
