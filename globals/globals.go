package globals

// Context keys
type ContextKey string

const (
	UserIDKey   ContextKey = "userId"
	RoleKey     ContextKey = "role"
	UsernameKey ContextKey = "username"
	TraceIDKey  ContextKey = "traceId"
)

// Roles carried in the JWT role claim.
const (
	RoleUser  = "user"
	RoleAdmin = "admin"
)
