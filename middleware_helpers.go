package tube

import (
	"context"

	"github.com/goliatone/go-tube/middleware/jwtware"
)

// ValidationListener aliases the jwtware listener so consumers can use package helpers directly.
type ValidationListener = jwtware.ValidationListener

// ContextEnricherAdapter stores validated claims in the standard context so
// code below the transport layer can read the current identity.
func ContextEnricherAdapter(c context.Context, claims jwtware.AuthClaims) context.Context {
	return WithClaimsContext(c, claims)
}

// RegisterValidationListeners appends listeners to a jwtware.Config in a safe, reusable way.
func RegisterValidationListeners(cfg *jwtware.Config, listeners ...ValidationListener) {
	if cfg == nil || len(listeners) == 0 {
		return
	}
	cfg.ValidationListeners = append(cfg.ValidationListeners, listeners...)
}
