package destinations

import (
	"encoding/json"
	"testing"

	"go.mongodb.org/mongo-driver/bson"

	"tourbook/models"
	"tourbook/validate"
)

func TestCountriesPipelineGroupsByCountry(t *testing.T) {
	p := CountriesPipeline()
	if len(p) != 2 {
		t.Fatalf("expected group and sort stages, got %d", len(p))
	}
	group := p[0][0].Value.(bson.M)
	if group["_id"] != "$country" {
		t.Errorf("expected grouping by country, got %v", group["_id"])
	}
	if first := group["continent"].(bson.M); first["$first"] != "$continent" {
		t.Errorf("expected first continent, got %v", first)
	}
}

func TestDestinationContinentIsClosed(t *testing.T) {
	in := models.DestinationInput{
		Name:        "Pokhara",
		Description: "Lakeside city",
		Country:     "Nepal",
		Continent:   "Asia",
	}
	if err := validate.Struct(&in); err != nil {
		t.Fatalf("valid destination rejected: %v", err)
	}

	for _, continent := range models.Continents {
		in.Continent = continent
		if err := validate.Struct(&in); err != nil {
			t.Errorf("continent %q rejected: %v", continent, err)
		}
	}

	in.Continent = "Atlantis"
	if err := validate.Struct(&in); err == nil {
		t.Fatal("expected unknown continent to be rejected")
	}
}

func TestDestinationDetailIncludesTours(t *testing.T) {
	d := destinationDetail{
		Destination: &models.Destination{DestinationInput: models.DestinationInput{Name: "Pokhara"}},
		Tours:       []models.Tour{},
	}
	raw, err := json.Marshal(d)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	var out map[string]any
	json.Unmarshal(raw, &out)
	if out["name"] != "Pokhara" {
		t.Errorf("expected flattened destination fields, got %s", raw)
	}
	if _, ok := out["tours"].([]any); !ok {
		t.Errorf("expected tours array, got %s", raw)
	}
}
