package types

const ContextUserKey = "user"

// DefaultOrigins are always allowed for CORS and websockets in development.
var DefaultOrigins = []string{
	"http://localhost:3000",
	"http://localhost:5173",
}
