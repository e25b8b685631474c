// Package countries is a plain CRUD surface over the countries collection. Bodies are stored
// as sent; only known fields are kept.
package countries

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"slices"
	"time"

	"github.com/julienschmidt/httprouter"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo/options"

	"tourbook/db"
	"tourbook/models"
	"tourbook/query"
	"tourbook/rdx"
	"tourbook/utils"
)

const CacheNamespace = "countries"

var Schema = query.Schema{"createdAt": query.Date}

var errNotFound = utils.NotFound("No country found with that ID")

type Handler struct {
	db    *db.DB
	cache *rdx.Cache
}

func NewHandler(d *db.DB, cache *rdx.Cache) *Handler {
	return &Handler{db: d, cache: cache}
}

// GET /api/countries
func (h *Handler) GetAll(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
	defer cancel()

	f, err := query.Parse(r.URL.Query(), Schema)
	if err != nil {
		utils.HandleServiceError(w, r, err)
		return
	}
	body, err := h.cache.Remember(ctx, CacheNamespace, "list:"+r.URL.RawQuery, func() (any, error) {
		items, total, err := db.List[bson.M](ctx, h.db.Countries, f)
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

// GET /api/countries/:id
func (h *Handler) GetCountry(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
	defer cancel()

	id, err := primitive.ObjectIDFromHex(ps.ByName("id"))
	if err != nil {
		utils.HandleServiceError(w, r, err)
		return
	}
	var c models.Country
	if err := h.db.Countries.FindOne(ctx, bson.M{"_id": id}).Decode(&c); err != nil {
		if db.IsNotFound(err) {
			err = errNotFound
		}
		utils.HandleServiceError(w, r, err)
		return
	}
	utils.RespondWithData(w, http.StatusOK, c)
}

// POST /api/countries
func (h *Handler) Create(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
	defer cancel()

	var c models.Country
	if err := json.NewDecoder(r.Body).Decode(&c); err != nil {
		utils.HandleServiceError(w, r, err)
		return
	}
	if err := checkContinent(c.Continent); err != nil {
		utils.HandleServiceError(w, r, err)
		return
	}
	now := time.Now()
	c.ID = primitive.NewObjectID()
	c.CreatedAt = now
	c.UpdatedAt = now

	if _, err := h.db.Countries.InsertOne(ctx, c); err != nil {
		utils.HandleServiceError(w, r, err)
		return
	}
	h.cache.Invalidate(ctx, CacheNamespace)
	utils.RespondWithData(w, http.StatusCreated, c)
}

// checkContinent mirrors the collection validator. Its error is unclassified, the same as a
// rejected write.
func checkContinent(continent string) error {
	if !slices.Contains(models.CountryContinents, continent) {
		return fmt.Errorf("country continent %q is not one of %v", continent, models.CountryContinents)
	}
	return nil
}

// PermittedFields keeps the writable country fields of a PATCH body.
func PermittedFields(body map[string]any) bson.M {
	set := bson.M{}
	for k, v := range body {
		if slices.Contains(models.CountryFields, k) {
			set[k] = v
		}
	}
	return set
}

// PATCH /api/countries/:id overwrites the fields present in the body.
func (h *Handler) Update(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
	defer cancel()

	id, err := primitive.ObjectIDFromHex(ps.ByName("id"))
	if err != nil {
		utils.HandleServiceError(w, r, err)
		return
	}
	var body map[string]any
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		utils.HandleServiceError(w, r, err)
		return
	}
	set := PermittedFields(body)
	if v, ok := set["continent"]; ok {
		continent, _ := v.(string)
		if err := checkContinent(continent); err != nil {
			utils.HandleServiceError(w, r, err)
			return
		}
	}
	set["updatedAt"] = time.Now()

	var c models.Country
	err = h.db.Countries.FindOneAndUpdate(ctx,
		bson.M{"_id": id},
		bson.M{"$set": set},
		options.FindOneAndUpdate().SetReturnDocument(options.After),
	).Decode(&c)
	if err != nil {
		if db.IsNotFound(err) {
			err = errNotFound
		}
		utils.HandleServiceError(w, r, err)
		return
	}
	h.cache.Invalidate(ctx, CacheNamespace)
	utils.RespondWithData(w, http.StatusOK, c)
}

// DELETE /api/countries/:id
func (h *Handler) Delete(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
	defer cancel()

	id, err := primitive.ObjectIDFromHex(ps.ByName("id"))
	if err != nil {
		utils.HandleServiceError(w, r, err)
		return
	}
	res, err := h.db.Countries.DeleteOne(ctx, bson.M{"_id": id})
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
