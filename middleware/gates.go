package middleware

import (
	"context"
	"net/http"
	"strings"

	"doctorsportal/auth"
	"doctorsportal/logger"
	"doctorsportal/utils"

	"github.com/julienschmidt/httprouter"
)

// Principal is the authenticated caller of a request.
type Principal struct {
	Email string
}

// Decision is the outcome of a gate. A zero Status lets the request through.
type Decision struct {
	Status  int
	Message string
}

func Allow() Decision { return Decision{} }

func Deny(status int, msg string) Decision { return Decision{Status: status, Message: msg} }

func (d Decision) Allowed() bool { return d.Status == 0 }

// Gate inspects a request and may fill in or rely on the principal.
type Gate func(r *http.Request, p *Principal) Decision

// Handle is an httprouter handler that receives the resolved principal.
type Handle func(w http.ResponseWriter, r *http.Request, ps httprouter.Params, p Principal)

// TokenVerifier checks a bearer token and returns its claims.
type TokenVerifier interface {
	Verify(token string) (*auth.Claims, error)
}

// AdminChecker reports whether the user stored under email is an admin.
type AdminChecker interface {
	IsAdmin(ctx context.Context, email string) (bool, error)
}

// Guard runs gates in order and calls next only when all of them allow.
func Guard(next Handle, gates ...Gate) httprouter.Handle {
	return func(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
		var p Principal
		for _, gate := range gates {
			if d := gate(r, &p); !d.Allowed() {
				utils.RespondWithError(w, d.Status, d.Message)
				return
			}
		}
		next(w, r, ps, p)
	}
}

// Authenticated requires an "Authorization: Bearer <token>" header holding a
// valid token and records its email as the principal.
func Authenticated(v TokenVerifier) Gate {
	return func(r *http.Request, p *Principal) Decision {
		header := r.Header.Get("Authorization")
		if header == "" {
			return Deny(http.StatusUnauthorized, "unauthorized access")
		}

		// A credential that is present but malformed is unverifiable.
		token, ok := strings.CutPrefix(header, "Bearer ")
		if !ok || token == "" {
			return Deny(http.StatusForbidden, "forbidden access")
		}

		claims, err := v.Verify(token)
		if err != nil {
			return Deny(http.StatusForbidden, "forbidden access")
		}

		p.Email = claims.Email
		return Allow()
	}
}

// RequireAdmin must follow Authenticated.
func RequireAdmin(c AdminChecker) Gate {
	return func(r *http.Request, p *Principal) Decision {
		if p.Email == "" {
			return Deny(http.StatusUnauthorized, "unauthorized access")
		}

		admin, err := c.IsAdmin(r.Context(), p.Email)
		if err != nil {
			logger.FromContext(r.Context()).Error().Err(err).Str("email", p.Email).Msg("admin lookup failed")
			return Deny(http.StatusInternalServerError, "internal server error")
		}
		if !admin {
			return Deny(http.StatusForbidden, "forbidden access")
		}
		return Allow()
	}
}

// Chain composes router middleware. The first one listed runs first.
func Chain(mws ...func(httprouter.Handle) httprouter.Handle) func(httprouter.Handle) httprouter.Handle {
	return func(final httprouter.Handle) httprouter.Handle {
		for i := len(mws) - 1; i >= 0; i-- {
			final = mws[i](final)
		}
		return final
	}
}
