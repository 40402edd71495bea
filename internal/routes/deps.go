package routes

import (
	"github.com/dukerupert/vatcheck/internal/handler/api"
)

// APIDeps contains all handler dependencies for the JSON API routes.
type APIDeps struct {
	VATHandler    *api.VATHandler
	VerifyHandler *api.VerifyHandler
}
