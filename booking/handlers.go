package booking

import (
	"log"
	"net/http"

	"github.com/julienschmidt/httprouter"

	"tourbook/models"
	"tourbook/query"
	"tourbook/utils"
	"tourbook/validate"
)

// Schema lists the booking fields that list filters cast.
var Schema = query.Schema{
	"tour":           query.ObjectID,
	"user":           query.ObjectID,
	"price":          query.Number,
	"numberOfPeople": query.Number,
	"totalAmount":    query.Number,
	"isGuestBooking": query.Bool,
	"startDate":      query.Date,
	"createdAt":      query.Date,
}

type Handler struct {
	svc           *Service
	hub           *Hub
	invoiceSecret []byte
}

func NewHandler(svc *Service, hub *Hub, invoiceSecret string) *Handler {
	return &Handler{svc: svc, hub: hub, invoiceSecret: []byte(invoiceSecret)}
}

// GET /api/bookings
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

// GET /api/bookings/my-bookings
func (h *Handler) MyBookings(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	actor, ok := utils.ActorFromRequest(r)
	if !ok {
		utils.RespondWithError(w, http.StatusUnauthorized, "Unauthorized")
		return
	}
	f, err := query.Parse(r.URL.Query(), Schema)
	if err != nil {
		utils.HandleServiceError(w, r, err)
		return
	}
	items, total, err := h.svc.ListForUser(r.Context(), actor.ID, f)
	if err != nil {
		utils.HandleServiceError(w, r, err)
		return
	}
	utils.RespondWithList(w, items, len(items), total, f.Pagination(total))
}

// GET /api/bookings/:id
func (h *Handler) GetBooking(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	v, err := h.view(r, ps)
	if err != nil {
		utils.HandleServiceError(w, r, err)
		return
	}
	utils.RespondWithData(w, http.StatusOK, v)
}

// POST /api/bookings
func (h *Handler) Create(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	actor, ok := utils.ActorFromRequest(r)
	if !ok {
		utils.RespondWithError(w, http.StatusUnauthorized, "Unauthorized")
		return
	}
	var req models.BookingRequest
	if err := validate.Decode(r, &req); err != nil {
		utils.HandleServiceError(w, r, err)
		return
	}
	b, err := h.svc.Create(r.Context(), actor.ID, req)
	if err != nil {
		utils.HandleServiceError(w, r, err)
		return
	}
	utils.RespondWithData(w, http.StatusCreated, b)
}

// POST /api/bookings/guest
func (h *Handler) CreateGuest(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	var req models.GuestBookingRequest
	if err := validate.Decode(r, &req); err != nil {
		utils.HandleServiceError(w, r, err)
		return
	}
	b, err := h.svc.CreateGuest(r.Context(), req)
	if err != nil {
		utils.HandleServiceError(w, r, err)
		return
	}
	if name := utils.GetUsernameFromContext(r.Context()); name != "" {
		log.Printf("guest booking %s placed by signed-in user %s (%s)", b.ID.Hex(), name, utils.GetUserIDFromRequest(r))
	}
	utils.RespondWithData(w, http.StatusCreated, b)
}

// PUT /api/bookings/:id
func (h *Handler) UpdateStatus(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	id, err := utils.ParseID(ps.ByName("id"), "booking")
	if err != nil {
		utils.HandleServiceError(w, r, err)
		return
	}
	var upd models.StatusUpdate
	if err := validate.Decode(r, &upd); err != nil {
		utils.HandleServiceError(w, r, err)
		return
	}
	b, err := h.svc.UpdateStatus(r.Context(), id, upd)
	if err != nil {
		utils.HandleServiceError(w, r, err)
		return
	}
	utils.RespondWithData(w, http.StatusOK, b)
}

// PUT /api/bookings/:id/cancel
func (h *Handler) Cancel(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	actor, ok := utils.ActorFromRequest(r)
	if !ok {
		utils.RespondWithError(w, http.StatusUnauthorized, "Unauthorized")
		return
	}
	id, err := utils.ParseID(ps.ByName("id"), "booking")
	if err != nil {
		utils.HandleServiceError(w, r, err)
		return
	}
	b, err := h.svc.Cancel(r.Context(), id, actor)
	if err != nil {
		utils.HandleServiceError(w, r, err)
		return
	}
	utils.RespondWithData(w, http.StatusOK, b)
}

// GET /api/bookings/:id/invoice
func (h *Handler) Invoice(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	v, err := h.view(r, ps)
	if err != nil {
		utils.HandleServiceError(w, r, err)
		return
	}
	pdf, err := RenderInvoice(h.invoiceSecret, v)
	if err != nil {
		utils.HandleServiceError(w, r, err)
		return
	}
	w.Header().Set("Content-Type", "application/pdf")
	w.Header().Set("Content-Disposition", "attachment; filename=invoice-"+v.ID.Hex()+".pdf")
	w.WriteHeader(http.StatusOK)
	w.Write(pdf)
}

// GET /api/bookings/:id/updates (websocket)
func (h *Handler) Updates(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	v, err := h.view(r, ps)
	if err != nil {
		utils.HandleServiceError(w, r, err)
		return
	}
	h.hub.Serve(w, r, v.ID.Hex())
}

func (h *Handler) view(r *http.Request, ps httprouter.Params) (*models.BookingView, error) {
	actor, ok := utils.ActorFromRequest(r)
	if !ok {
		return nil, utils.Unauthorized("Unauthorized")
	}
	id, err := utils.ParseID(ps.ByName("id"), "booking")
	if err != nil {
		return nil, err
	}
	return h.svc.Get(r.Context(), id, actor)
}
