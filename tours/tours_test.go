package tours

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"
	"time"

	"github.com/julienschmidt/httprouter"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"tourbook/models"
)

func TestAliasTopCheapRewritesQuery(t *testing.T) {
	var got url.Values
	h := AliasTopCheap(func(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
		got = r.URL.Query()
	})

	req := httptest.NewRequest(http.MethodGet, "/api/tours/top-5-cheap?limit=50&sort=-price", nil)
	h(httptest.NewRecorder(), req, nil)

	if got.Get("limit") != "5" {
		t.Errorf("expected limit 5, got %q", got.Get("limit"))
	}
	if got.Get("sort") != "price,-ratingsAverage" {
		t.Errorf("expected cheapest first with rating tie-break, got %q", got.Get("sort"))
	}
	if req.URL.RawQuery != "limit=50&sort=-price" {
		t.Errorf("original request was modified: %q", req.URL.RawQuery)
	}
}

func TestStatsPipeline(t *testing.T) {
	p := StatsPipeline(StatsMinRating)
	if len(p) != 3 {
		t.Fatalf("expected match, group and sort stages, got %d", len(p))
	}

	match := p[0][0]
	if match.Key != "$match" {
		t.Fatalf("first stage is %s", match.Key)
	}
	cond := match.Value.(bson.M)["ratingsAverage"].(bson.M)
	if cond["$gte"] != 4.5 {
		t.Errorf("expected ratingsAverage >= 4.5, got %v", cond)
	}

	group := p[1][0].Value.(bson.M)
	if id := group["_id"].(bson.M); id["$toUpper"] != "$difficulty" {
		t.Errorf("expected grouping by upper-cased difficulty, got %v", id)
	}

	sort := p[2][0]
	if sort.Key != "$sort" || sort.Value.(bson.D)[0].Key != "avgPrice" || sort.Value.(bson.D)[0].Value != 1 {
		t.Errorf("expected ascending avgPrice sort, got %v", sort)
	}
}

func TestTourDetailExpandsDestination(t *testing.T) {
	tour := models.NewTour(models.TourInput{Title: "Everest Base Camp", Destination: primitive.NewObjectID()}, nil, time.Now())
	detail := tourDetail{
		Tour:        tour,
		Destination: models.Destination{DestinationInput: models.DestinationInput{Name: "Khumbu"}},
		Reviews:     []models.ReviewView{},
	}

	raw, err := json.Marshal(detail)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	var out struct {
		Title          string  `json:"title"`
		RatingsAverage float64 `json:"ratingsAverage"`
		Destination    struct {
			Name string `json:"name"`
		} `json:"destination"`
		Reviews []any `json:"reviews"`
	}
	if err := json.Unmarshal(raw, &out); err != nil {
		t.Fatalf("unmarshal %s: %v", raw, err)
	}
	if out.Title != "Everest Base Camp" || out.Destination.Name != "Khumbu" {
		t.Errorf("unexpected detail %s", raw)
	}
	if out.RatingsAverage != models.DefaultRatingsAverage || out.Reviews == nil {
		t.Errorf("expected rating baseline and empty reviews, got %s", raw)
	}
}
