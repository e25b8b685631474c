package utils

import (
	"context"
	"net/http"
	"slices"

	"tourbook/globals"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

func GetUserIDFromRequest(r *http.Request) string {
	requestingUserID, ok := r.Context().Value(globals.UserIDKey).(string)
	if !ok || requestingUserID == "" {
		return ""
	}
	return requestingUserID
}

// GetUsernameFromContext is empty for anonymous requests.
func GetUsernameFromContext(ctx context.Context) string {
	name, _ := ctx.Value(globals.UsernameKey).(string)
	return name
}

func GetRolesFromContext(ctx context.Context) []string {
	roles, _ := ctx.Value(globals.RoleKey).([]string)
	return roles
}

func IsAdmin(ctx context.Context) bool {
	return slices.Contains(GetRolesFromContext(ctx), globals.RoleAdmin)
}

// Actor is the authenticated identity behind a request.
type Actor struct {
	ID    primitive.ObjectID
	Admin bool
}

// ActorFromRequest returns the caller identity; ok is false when the request is anonymous
// or the id claim is not a valid ObjectID.
func ActorFromRequest(r *http.Request) (Actor, bool) {
	id, err := primitive.ObjectIDFromHex(GetUserIDFromRequest(r))
	if err != nil {
		return Actor{}, false
	}
	return Actor{ID: id, Admin: IsAdmin(r.Context())}, true
}

// ParseID parses a path id, reporting an invalid one as not found.
func ParseID(raw, entity string) (primitive.ObjectID, error) {
	id, err := primitive.ObjectIDFromHex(raw)
	if err != nil {
		return primitive.NilObjectID, NotFound("No " + entity + " found with that ID")
	}
	return id, nil
}
