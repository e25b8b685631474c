package reviews

import (
	"net/http"

	"github.com/julienschmidt/httprouter"

	"tourbook/models"
	"tourbook/query"
	"tourbook/utils"
	"tourbook/validate"
)

var Schema = query.Schema{
	"tour":      query.ObjectID,
	"user":      query.ObjectID,
	"rating":    query.Number,
	"createdAt": query.Date,
}

type Handler struct {
	svc *Service
}

func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

// GET /api/reviews
func (h *Handler) GetAll(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	f, err := query.Parse(r.URL.Query(), Schema)
	if err != nil {
		utils.HandleServiceError(w, r, err)
		return
	}
	items, total, err := h.svc.List(r.Context(), f)
	if err != nil {
		utils.HandleServiceError(w, r, err)
		return
	}
	utils.RespondWithList(w, items, len(items), total, f.Pagination(total))
}

// GET /api/tours/:id/reviews
func (h *Handler) GetForTour(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	tourID, err := utils.ParseID(ps.ByName("id"), "tour")
	if err != nil {
		utils.HandleServiceError(w, r, err)
		return
	}
	f, err := query.Parse(r.URL.Query(), Schema)
	if err != nil {
		utils.HandleServiceError(w, r, err)
		return
	}
	items, total, err := h.svc.ListForTour(r.Context(), tourID, f)
	if err != nil {
		utils.HandleServiceError(w, r, err)
		return
	}
	utils.RespondWithList(w, items, len(items), total, f.Pagination(total))
}

// GET /api/reviews/:id
func (h *Handler) GetReview(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	id, err := utils.ParseID(ps.ByName("id"), "review")
	if err != nil {
		utils.HandleServiceError(w, r, err)
		return
	}
	rv, err := h.svc.Get(r.Context(), id)
	if err != nil {
		utils.HandleServiceError(w, r, err)
		return
	}
	utils.RespondWithData(w, http.StatusOK, rv)
}

// POST /api/tours/:id/reviews
func (h *Handler) Create(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	actor, ok := utils.ActorFromRequest(r)
	if !ok {
		utils.RespondWithError(w, http.StatusUnauthorized, "Unauthorized")
		return
	}
	tourID, err := utils.ParseID(ps.ByName("id"), "tour")
	if err != nil {
		utils.HandleServiceError(w, r, err)
		return
	}
	var in models.ReviewInput
	if err := validate.Decode(r, &in); err != nil {
		utils.HandleServiceError(w, r, err)
		return
	}
	rv, err := h.svc.Create(r.Context(), tourID, actor.ID, in)
	if err != nil {
		utils.HandleServiceError(w, r, err)
		return
	}
	utils.RespondWithData(w, http.StatusCreated, rv)
}

// PUT /api/reviews/:id
func (h *Handler) Update(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	actor, ok := utils.ActorFromRequest(r)
	if !ok {
		utils.RespondWithError(w, http.StatusUnauthorized, "Unauthorized")
		return
	}
	id, err := utils.ParseID(ps.ByName("id"), "review")
	if err != nil {
		utils.HandleServiceError(w, r, err)
		return
	}
	var in models.ReviewInput
	if err := validate.Decode(r, &in); err != nil {
		utils.HandleServiceError(w, r, err)
		return
	}
	rv, err := h.svc.Update(r.Context(), id, actor, in)
	if err != nil {
		utils.HandleServiceError(w, r, err)
		return
	}
	utils.RespondWithData(w, http.StatusOK, rv)
}

// DELETE /api/reviews/:id
func (h *Handler) Delete(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	actor, ok := utils.ActorFromRequest(r)
	if !ok {
		utils.RespondWithError(w, http.StatusUnauthorized, "Unauthorized")
		return
	}
	id, err := utils.ParseID(ps.ByName("id"), "review")
	if err != nil {
		utils.HandleServiceError(w, r, err)
		return
	}
	if err := h.svc.Delete(r.Context(), id, actor); err != nil {
		utils.HandleServiceError(w, r, err)
		return
	}
	utils.RespondWithData(w, http.StatusOK, nil)
}
