// Package destinations serves destinations and the countries they belong to.
package destinations

import (
	"context"
	"net/http"
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

const CacheNamespace = "destinations"

var Schema = query.Schema{
	"featured":              query.Bool,
	"coordinates.latitude":  query.Number,
	"coordinates.longitude": query.Number,
	"createdAt":             query.Date,
}

var (
	errNotFound  = utils.NotFound("No destination found with that ID")
	errDuplicate = utils.Conflict("A destination with that name already exists")
)

type Handler struct {
	db      *db.DB
	cache   *rdx.Cache
	uploads *uploads.Store
}

func NewHandler(d *db.DB, cache *rdx.Cache, up *uploads.Store) *Handler {
	return &Handler{db: d, cache: cache, uploads: up}
}

// GET /api/destinations
func (h *Handler) GetAll(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
	defer cancel()

	f, err := query.Parse(r.URL.Query(), Schema)
	if err != nil {
		utils.HandleServiceError(w, r, err)
		return
	}
	body, err := h.cache.Remember(ctx, CacheNamespace, "list:"+r.URL.RawQuery, func() (any, error) {
		items, total, err := db.List[bson.M](ctx, h.db.Destinations, f)
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

// CountriesPipeline lists each distinct country once with the continent of its first destination.
func CountriesPipeline() mongo.Pipeline {
	return mongo.Pipeline{
		{{Key: "$group", Value: bson.M{
			"_id":       "$country",
			"continent": bson.M{"$first": "$continent"},
		}}},
		{{Key: "$sort", Value: bson.D{{Key: "_id", Value: 1}}}},
	}
}

// GET /api/destinations/countries
func (h *Handler) Countries(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
	defer cancel()

	body, err := h.cache.Remember(ctx, CacheNamespace, "countries", func() (any, error) {
		countries, err := db.AggregateAndDecode[models.CountryOfDestination](ctx, h.db.Destinations, CountriesPipeline())
		if err != nil {
			return nil, err
		}
		return utils.M{"success": true, "count": len(countries), "data": countries}, nil
	})
	if err != nil {
		utils.HandleServiceError(w, r, err)
		return
	}
	utils.RespondWithRawJSON(w, http.StatusOK, body)
}

type destinationDetail struct {
	*models.Destination
	Tours []models.Tour `json:"tours"`
}

// GET /api/destinations/:id
func (h *Handler) GetDestination(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
	defer cancel()

	id, err := utils.ParseID(ps.ByName("id"), "destination")
	if err != nil {
		utils.HandleServiceError(w, r, err)
		return
	}
	dest, err := h.find(ctx, id)
	if err != nil {
		utils.HandleServiceError(w, r, err)
		return
	}

	tours, err := db.FindAndDecode[models.Tour](ctx, h.db.Tours, bson.M{"destination": id},
		options.Find().SetSort(bson.D{{Key: "createdAt", Value: -1}}))
	if err != nil {
		utils.HandleServiceError(w, r, err)
		return
	}
	utils.RespondWithData(w, http.StatusOK, destinationDetail{Destination: dest, Tours: tours})
}

// POST /api/destinations
func (h *Handler) Create(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
	defer cancel()

	var in models.DestinationInput
	if err := validate.Decode(r, &in); err != nil {
		utils.HandleServiceError(w, r, err)
		return
	}
	now := time.Now()
	dest := &models.Destination{
		ID:               primitive.NewObjectID(),
		DestinationInput: in,
		CreatedAt:        now,
		UpdatedAt:        now,
	}
	if _, err := h.db.Destinations.InsertOne(ctx, dest); err != nil {
		if db.IsDuplicateKeyError(err) {
			err = errDuplicate
		}
		utils.HandleServiceError(w, r, err)
		return
	}
	h.cache.Invalidate(ctx, CacheNamespace)
	utils.RespondWithData(w, http.StatusCreated, dest)
}

type destinationSet struct {
	models.DestinationInput `bson:",inline"`
	UpdatedAt               time.Time `bson:"updatedAt"`
}

// PUT /api/destinations/:id
func (h *Handler) Update(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
	defer cancel()

	id, err := utils.ParseID(ps.ByName("id"), "destination")
	if err != nil {
		utils.HandleServiceError(w, r, err)
		return
	}
	dest, err := h.find(ctx, id)
	if err != nil {
		utils.HandleServiceError(w, r, err)
		return
	}

	in := dest.DestinationInput
	if err := validate.DecodeJSON(r, &in); err != nil {
		utils.HandleServiceError(w, r, err)
		return
	}
	if err := validate.Struct(&in); err != nil {
		utils.HandleServiceError(w, r, err)
		return
	}

	updated, err := h.set(ctx, id, destinationSet{DestinationInput: in, UpdatedAt: time.Now()})
	if err != nil {
		utils.HandleServiceError(w, r, err)
		return
	}
	utils.RespondWithData(w, http.StatusOK, updated)
}

// DELETE /api/destinations/:id keeps the destination's tours.
func (h *Handler) Delete(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
	defer cancel()

	id, err := utils.ParseID(ps.ByName("id"), "destination")
	if err != nil {
		utils.HandleServiceError(w, r, err)
		return
	}
	res, err := h.db.Destinations.DeleteOne(ctx, bson.M{"_id": id})
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

// PUT /api/destinations/:id/images
func (h *Handler) UploadImages(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	ctx, cancel := context.WithTimeout(r.Context(), 30*time.Second)
	defer cancel()

	id, err := utils.ParseID(ps.ByName("id"), "destination")
	if err != nil {
		utils.HandleServiceError(w, r, err)
		return
	}
	if _, err := h.find(ctx, id); err != nil {
		utils.HandleServiceError(w, r, err)
		return
	}

	saved, err := h.uploads.SaveEntityImages(r, "destination", id.Hex())
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

	updated, err := h.set(ctx, id, set)
	if err != nil {
		utils.HandleServiceError(w, r, err)
		return
	}
	utils.RespondWithData(w, http.StatusOK, updated)
}

func (h *Handler) find(ctx context.Context, id primitive.ObjectID) (*models.Destination, error) {
	var dest models.Destination
	if err := h.db.Destinations.FindOne(ctx, bson.M{"_id": id}).Decode(&dest); err != nil {
		if db.IsNotFound(err) {
			return nil, errNotFound
		}
		return nil, err
	}
	return &dest, nil
}

func (h *Handler) set(ctx context.Context, id primitive.ObjectID, set any) (*models.Destination, error) {
	var updated models.Destination
	err := h.db.Destinations.FindOneAndUpdate(ctx,
		bson.M{"_id": id},
		bson.M{"$set": set},
		options.FindOneAndUpdate().SetReturnDocument(options.After),
	).Decode(&updated)
	if err != nil {
		switch {
		case db.IsNotFound(err):
			return nil, errNotFound
		case db.IsDuplicateKeyError(err):
			return nil, errDuplicate
		}
		return nil, err
	}
	h.cache.Invalidate(ctx, CacheNamespace)
	return &updated, nil
}
