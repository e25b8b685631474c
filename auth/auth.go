// Package auth registers users and issues the bearer tokens the middleware checks.
package auth

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/julienschmidt/httprouter"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"golang.org/x/crypto/bcrypt"

	"tourbook/db"
	"tourbook/globals"
	"tourbook/middleware"
	"tourbook/models"
	"tourbook/utils"
	"tourbook/validate"
)

var (
	ErrUserNotFound    = utils.NotFound("No user found with that ID")
	ErrEmailTaken      = utils.Conflict("An account with that email already exists")
	errBadCredentials  = utils.Unauthorized("Incorrect email or password")
	errMissingIdentity = utils.Unauthorized("Unauthorized")
)

type UserStore interface {
	FindByEmail(ctx context.Context, email string) (*models.User, error)
	FindByID(ctx context.Context, id primitive.ObjectID) (*models.User, error)
	Insert(ctx context.Context, u *models.User) error
}

type MongoUsers struct {
	users *mongo.Collection
}

func NewMongoUsers(d *db.DB) *MongoUsers {
	return &MongoUsers{users: d.Users}
}

func (m *MongoUsers) FindByEmail(ctx context.Context, email string) (*models.User, error) {
	return m.findOne(ctx, bson.M{"email": email})
}

func (m *MongoUsers) FindByID(ctx context.Context, id primitive.ObjectID) (*models.User, error) {
	return m.findOne(ctx, bson.M{"_id": id})
}

func (m *MongoUsers) findOne(ctx context.Context, filter bson.M) (*models.User, error) {
	var u models.User
	if err := m.users.FindOne(ctx, filter).Decode(&u); err != nil {
		if db.IsNotFound(err) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	return &u, nil
}

func (m *MongoUsers) Insert(ctx context.Context, u *models.User) error {
	if _, err := m.users.InsertOne(ctx, u); err != nil {
		if db.IsDuplicateKeyError(err) {
			return ErrEmailTaken
		}
		return err
	}
	return nil
}

type RegisterInput struct {
	Name     string `json:"name" validate:"required,min=2,max=100"`
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=8,max=72"`
}

type LoginInput struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

type Handler struct {
	users  UserStore
	tokens *middleware.Auth
	cost   int
}

func NewHandler(users UserStore, tokens *middleware.Auth) *Handler {
	return &Handler{users: users, tokens: tokens, cost: bcrypt.DefaultCost}
}

func (h *Handler) respondWithToken(w http.ResponseWriter, code int, u *models.User) {
	token, err := h.tokens.GenerateToken(u.ID.Hex(), u.Name, []string{u.Role})
	if err != nil {
		utils.RespondWithError(w, http.StatusInternalServerError, "Failed to generate token")
		return
	}
	utils.RespondWithJSON(w, code, utils.M{"success": true, "token": token, "data": u})
}

// POST /api/auth/register. New accounts always get the user role.
func (h *Handler) Register(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
	defer cancel()

	var in RegisterInput
	if err := validate.Decode(r, &in); err != nil {
		utils.HandleServiceError(w, r, err)
		return
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(in.Password), h.cost)
	if err != nil {
		utils.HandleServiceError(w, r, err)
		return
	}
	u := &models.User{
		ID:        primitive.NewObjectID(),
		Name:      in.Name,
		Email:     strings.ToLower(in.Email),
		Password:  string(hashed),
		Role:      globals.RoleUser,
		CreatedAt: time.Now(),
	}
	if err := h.users.Insert(ctx, u); err != nil {
		utils.HandleServiceError(w, r, err)
		return
	}
	h.respondWithToken(w, http.StatusCreated, u)
}

// POST /api/auth/login
func (h *Handler) Login(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
	defer cancel()

	var in LoginInput
	if err := validate.Decode(r, &in); err != nil {
		utils.HandleServiceError(w, r, err)
		return
	}

	u, err := h.users.FindByEmail(ctx, strings.ToLower(in.Email))
	if err != nil {
		if err == ErrUserNotFound {
			err = errBadCredentials
		}
		utils.HandleServiceError(w, r, err)
		return
	}
	if err := bcrypt.CompareHashAndPassword([]byte(u.Password), []byte(in.Password)); err != nil {
		utils.HandleServiceError(w, r, errBadCredentials)
		return
	}
	h.respondWithToken(w, http.StatusOK, u)
}

// GET /api/auth/me
func (h *Handler) Me(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	actor, ok := utils.ActorFromRequest(r)
	if !ok {
		utils.HandleServiceError(w, r, errMissingIdentity)
		return
	}
	u, err := h.users.FindByID(r.Context(), actor.ID)
	if err != nil {
		utils.HandleServiceError(w, r, err)
		return
	}
	utils.RespondWithData(w, http.StatusOK, u)
}
