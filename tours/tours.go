// Package tours serves the tour catalogue.
package tours

import (
	"context"
	"net/http"
	"net/url"
	"time"

	"github.com/julienschmidt/httprouter"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"tourbook/db"
	"tourbook/models"
	"tourbook/query"
	"tourbook/rdx"
	"tourbook/uploads"
	"tourbook/utils"
	"tourbook/validate"
)

// CacheNamespace holds every cached tour response. The rating aggregator invalidates it too.
const CacheNamespace = "tours"

var Schema = query.Schema{
	"price":           query.Number,
	"discountPrice":   query.Number,
	"duration":        query.Number,
	"maxGroupSize":    query.Number,
	"ratingsAverage":  query.Number,
	"ratingsQuantity": query.Number,
	"featured":        query.Bool,
	"destination":     query.ObjectID,
	"createdBy":       query.ObjectID,
	"startDates":      query.Date,
	"createdAt":       query.Date,
}

// StatsMinRating is the ratingsAverage floor for tours counted in the stats report.
const StatsMinRating = 4.5

var errNotFound = utils.NotFound("No tour found with that ID")

type Handler struct {
	db      *db.DB
	cache   *rdx.Cache
	uploads *uploads.Store
}

func NewHandler(d *db.DB, cache *rdx.Cache, up *uploads.Store) *Handler {
	return &Handler{db: d, cache: cache, uploads: up}
}

// GET /api/tours
func (h *Handler) GetAll(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
	defer cancel()

	f, err := query.Parse(r.URL.Query(), Schema)
	if err != nil {
		utils.HandleServiceError(w, r, err)
		return
	}
	body, err := h.cache.Remember(ctx, CacheNamespace, "list:"+r.URL.RawQuery, func() (any, error) {
		items, total, err := db.List[bson.M](ctx, h.db.Tours, f)
		if err != nil {
			return nil, err
		}
		return utils.ListEnvelope(items, len(items), total, f.Pagination(total)), nil
	})
	if err != nil {
		utils.HandleServiceError(w, r, err)
		return
	}
	utils.RespondWithRawJSON(w, http.StatusOK, body)
}

// AliasTopCheap rewrites the request into the five cheapest tours, best rated first on ties.
func AliasTopCheap(next httprouter.Handle) httprouter.Handle {
	return func(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
		q := url.Values{}
		q.Set("limit", "5")
		q.Set("sort", "price,-ratingsAverage")
		q.Set("fields", "title,price,currency,ratingsAverage,difficulty,duration,coverImage")
		r2 := r.Clone(r.Context())
		r2.URL.RawQuery = q.Encode()
		next(w, r2, ps)
	}
}

// tourDetail is a tour with its destination and reviews expanded.
type tourDetail struct {
	*models.Tour
	Destination any                 `json:"destination"`
	Reviews     []models.ReviewView `json:"reviews"`
}

// GET /api/tours/:id
func (h *Handler) GetTour(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
	defer cancel()

	id, err := utils.ParseID(ps.ByName("id"), "tour")
	if err != nil {
		utils.HandleServiceError(w, r, err)
		return
	}
	tour, err := h.find(ctx, id)
	if err != nil {
		utils.HandleServiceError(w, r, err)
		return
	}

	detail := tourDetail{Tour: tour, Destination: tour.Destination}

	var dest models.Destination
	err = h.db.Destinations.FindOne(ctx, bson.M{"_id": tour.Destination}).Decode(&dest)
	switch {
	case err == nil:
		detail.Destination = dest
	case !db.IsNotFound(err):
		utils.HandleServiceError(w, r, err)
		return
	}

	pipeline := append(
		[]bson.D{
			{{Key: "$match", Value: bson.M{"tour": id}}},
			{{Key: "$sort", Value: bson.D{{Key: "createdAt", Value: -1}}}},
		},
		db.Lookup("users", "user", "author", "name")...,
	)
	detail.Reviews, err = db.AggregateAndDecode[models.ReviewView](ctx, h.db.Reviews, pipeline)
	if err != nil {
		utils.HandleServiceError(w, r, err)
		return
	}

	utils.RespondWithData(w, http.StatusOK, detail)
}

// POST /api/tours
func (h *Handler) Create(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
	defer cancel()

	var in models.TourInput
	if err := validate.Decode(r, &in); err != nil {
		utils.HandleServiceError(w, r, err)
		return
	}

	var creator *primitive.ObjectID
	if actor, ok := utils.ActorFromRequest(r); ok {
		creator = &actor.ID
	}
	tour := models.NewTour(in, creator, time.Now())

	if _, err := h.db.Tours.InsertOne(ctx, tour); err != nil {
		utils.HandleServiceError(w, r, err)
		return
	}
	h.cache.Invalidate(ctx, CacheNamespace)
	utils.RespondWithData(w, http.StatusCreated, tour)
}

type tourSet struct {
	models.TourInput `bson:",inline"`
	UpdatedAt        time.Time `bson:"updatedAt"`
}

// PUT /api/tours/:id overwrites every field present in the body. Rating fields are not
// client-writable and are left alone.
func (h *Handler) Update(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
	defer cancel()

	id, err := utils.ParseID(ps.ByName("id"), "tour")
	if err != nil {
		utils.HandleServiceError(w, r, err)
		return
	}
	tour, err := h.find(ctx, id)
	if err != nil {
		utils.HandleServiceError(w, r, err)
		return
	}

	in := tour.TourInput
	if err := validate.DecodeJSON(r, &in); err != nil {
		utils.HandleServiceError(w, r, err)
		return
	}
	if err := validate.Struct(&in); err != nil {
		utils.HandleServiceError(w, r, err)
		return
	}

	var updated models.Tour
	err = h.db.Tours.FindOneAndUpdate(ctx,
		bson.M{"_id": id},
		bson.M{"$set": tourSet{TourInput: in, UpdatedAt: time.Now()}},
		options.FindOneAndUpdate().SetReturnDocument(options.After),
	).Decode(&updated)
	if err != nil {
		if db.IsNotFound(err) {
			err = errNotFound
		}
		utils.HandleServiceError(w, r, err)
		return
	}
	h.cache.Invalidate(ctx, CacheNamespace)
	utils.RespondWithData(w, http.StatusOK, updated)
}

// DELETE /api/tours/:id leaves the tour's bookings and reviews in place.
func (h *Handler) Delete(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
	defer cancel()

	id, err := utils.ParseID(ps.ByName("id"), "tour")
	if err != nil {
		utils.HandleServiceError(w, r, err)
		return
	}
	res, err := h.db.Tours.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		utils.HandleServiceError(w, r, err)
		return
	}
	if res.DeletedCount == 0 {
		utils.HandleServiceError(w, r, errNotFound)
		return
	}
	h.cache.Invalidate(ctx, CacheNamespace)
	utils.RespondWithData(w, http.StatusOK, nil)
}

// StatsPipeline groups well-rated tours by difficulty, cheapest group first.
func StatsPipeline(minRating float64) mongo.Pipeline {
	return mongo.Pipeline{
		{{Key: "$match", Value: bson.M{"ratingsAverage": bson.M{"$gte": minRating}}}},
		{{Key: "$group", Value: bson.M{
			"_id":        bson.M{"$toUpper": "$difficulty"},
			"numTours":   bson.M{"$sum": 1},
			"numRatings": bson.M{"$sum": "$ratingsQuantity"},
			"avgRating":  bson.M{"$avg": "$ratingsAverage"},
			"avgPrice":   bson.M{"$avg": "$price"},
			"minPrice":   bson.M{"$min": "$price"},
			"maxPrice":   bson.M{"$max": "$price"},
		}}},
		{{Key: "$sort", Value: bson.D{{Key: "avgPrice", Value: 1}}}},
	}
}

// GET /api/tours/stats
func (h *Handler) Stats(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
	defer cancel()

	body, err := h.cache.Remember(ctx, CacheNamespace, "stats", func() (any, error) {
		stats, err := db.AggregateAndDecode[models.DifficultyStats](ctx, h.db.Tours, StatsPipeline(StatsMinRating))
		if err != nil {
			return nil, err
		}
		return utils.M{"success": true, "data": stats}, nil
	})
	if err != nil {
		utils.HandleServiceError(w, r, err)
		return
	}
	utils.RespondWithRawJSON(w, http.StatusOK, body)
}

// PUT /api/tours/:id/images
func (h *Handler) UploadImages(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	ctx, cancel := context.WithTimeout(r.Context(), 30*time.Second)
	defer cancel()

	id, err := utils.ParseID(ps.ByName("id"), "tour")
	if err != nil {
		utils.HandleServiceError(w, r, err)
		return
	}
	if _, err := h.find(ctx, id); err != nil {
		utils.HandleServiceError(w, r, err)
		return
	}

	saved, err := h.uploads.SaveEntityImages(r, "tour", id.Hex())
	if err != nil {
		utils.HandleServiceError(w, r, err)
		return
	}

	set := bson.M{"updatedAt": time.Now()}
	if saved.Cover != "" {
		set["coverImage"] = saved.Cover
	}
	if len(saved.Images) > 0 {
		set["images"] = saved.Images
	}

	var updated models.Tour
	err = h.db.Tours.FindOneAndUpdate(ctx,
		bson.M{"_id": id},
		bson.M{"$set": set},
		options.FindOneAndUpdate().SetReturnDocument(options.After),
	).Decode(&updated)
	if err != nil {
		if db.IsNotFound(err) {
			err = errNotFound
		}
		utils.HandleServiceError(w, r, err)
		return
	}
	h.cache.Invalidate(ctx, CacheNamespace)
	utils.RespondWithData(w, http.StatusOK, updated)
}

func (h *Handler) find(ctx context.Context, id primitive.ObjectID) (*models.Tour, error) {
	var tour models.Tour
	if err := h.db.Tours.FindOne(ctx, bson.M{"_id": id}).Decode(&tour); err != nil {
		if db.IsNotFound(err) {
			return nil, errNotFound
		}
		return nil, err
	}
	return &tour, nil
}
