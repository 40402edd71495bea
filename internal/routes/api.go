package routes

import (
	"github.com/dukerupert/vatcheck/internal/router"
)

// RegisterAPIRoutes registers the public JSON API.
//
// Routes:
//
//	GET /api/vat/validate  - offline format + checksum validation
//	GET /api/vat/countries - reverse lookup across all jurisdictions
//	GET /api/vat/verify    - remote verification against VIES
func RegisterAPIRoutes(r *router.Router, deps APIDeps) {
	r.Get("/api/vat/validate", deps.VATHandler.Validate)
	r.Get("/api/vat/countries", deps.VATHandler.Countries)
	r.Get("/api/vat/verify", deps.VerifyHandler.Verify)
}
