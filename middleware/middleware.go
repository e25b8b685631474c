package middleware

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"slices"
	"strings"
	"time"

	"tourbook/globals"
	"tourbook/utils"

	"github.com/golang-jwt/jwt/v5"
	"github.com/gorilla/websocket"
	"github.com/julienschmidt/httprouter"
)

// JWT claims
type Claims struct {
	Username string   `json:"username"`
	UserID   string   `json:"userId"`
	Role     []string `json:"role"`
	jwt.RegisteredClaims
}

// Auth signs and verifies access tokens.
type Auth struct {
	secret []byte
	ttl    time.Duration
}

func NewAuth(secret string, ttl time.Duration) *Auth {
	return &Auth{secret: []byte(secret), ttl: ttl}
}

func (a *Auth) GenerateToken(userID, username string, roles []string) (string, error) {
	now := time.Now()
	claims := &Claims{
		Username: username,
		UserID:   userID,
		Role:     roles,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   userID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(a.ttl)),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(a.secret)
}

func (a *Auth) ValidateJWT(tokenString string) (*Claims, error) {
	if tokenString == "" {
		return nil, errors.New("missing token")
	}
	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (any, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return a.secret, nil
	})
	if err != nil || !token.Valid {
		return nil, fmt.Errorf("unauthorized: %w", err)
	}
	return claims, nil
}

// tokenFromRequest reads the bearer token. Browsers cannot set headers on a websocket
// handshake, so upgrades may pass it as ?token=.
func tokenFromRequest(r *http.Request) (string, error) {
	header := r.Header.Get("Authorization")
	if header == "" {
		if websocket.IsWebSocketUpgrade(r) {
			if t := r.URL.Query().Get("token"); t != "" {
				return t, nil
			}
		}
		return "", errors.New("Missing token")
	}
	if !strings.HasPrefix(header, "Bearer ") || len(header) < 8 {
		return "", errors.New("Invalid token format")
	}
	return header[7:], nil
}

func withClaims(r *http.Request, claims *Claims) *http.Request {
	ctx := context.WithValue(r.Context(), globals.UserIDKey, claims.UserID)
	ctx = context.WithValue(ctx, globals.RoleKey, claims.Role)
	ctx = context.WithValue(ctx, globals.UsernameKey, claims.Username)
	return r.WithContext(ctx)
}

func (a *Auth) Authenticate(next httprouter.Handle) httprouter.Handle {
	return func(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
		tokenString, err := tokenFromRequest(r)
		if err != nil {
			utils.RespondWithError(w, http.StatusUnauthorized, err.Error())
			return
		}
		claims, err := a.ValidateJWT(tokenString)
		if err != nil {
			utils.RespondWithError(w, http.StatusUnauthorized, "Invalid token")
			return
		}
		next(w, withClaims(r, claims), ps)
	}
}

func (a *Auth) OptionalAuth(next httprouter.Handle) httprouter.Handle {
	return func(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
		if tokenString, err := tokenFromRequest(r); err == nil {
			if claims, err := a.ValidateJWT(tokenString); err == nil {
				r = withClaims(r, claims)
			}
		}
		// Proceed regardless of token state
		next(w, r, ps)
	}
}

// RestrictTo must run inside Authenticate.
func RestrictTo(roles ...string) func(httprouter.Handle) httprouter.Handle {
	return func(next httprouter.Handle) httprouter.Handle {
		return func(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
			have := utils.GetRolesFromContext(r.Context())
			for _, role := range roles {
				if slices.Contains(have, role) {
					next(w, r, ps)
					return
				}
			}
			utils.RespondWithError(w, http.StatusForbidden, "You do not have permission to perform this action")
		}
	}
}

// Admin is Authenticate followed by RestrictTo("admin").
func (a *Auth) Admin(next httprouter.Handle) httprouter.Handle {
	return a.Authenticate(RestrictTo(globals.RoleAdmin)(next))
}

// Chain applies middlewares in order, the first being outermost.
func Chain(mws ...func(httprouter.Handle) httprouter.Handle) func(httprouter.Handle) httprouter.Handle {
	return func(final httprouter.Handle) httprouter.Handle {
		for i := len(mws) - 1; i >= 0; i-- {
			final = mws[i](final)
		}
		return final
	}
}
