package tube

import (
	"time"

	"github.com/goliatone/go-errors"
	"github.com/goliatone/go-router"
	"github.com/goliatone/go-tube/middleware/jwtware"
)

// Cookie names the HTTP layer uses for the token pair.
const (
	AccessTokenCookie  = "accessToken"
	RefreshTokenCookie = "refreshToken"
)

// RouteAuthenticator glues the Authenticator to the router: it issues and
// clears the auth cookies and builds the middleware that guards routes.
type RouteAuthenticator struct {
	auth         Authenticator
	verifier     TokenVerifier
	cfg          Config
	Logger       Logger
	ErrorHandler func(c router.Context, err error) error
}

func NewHTTPAuthenticator(auther Authenticator, verifier TokenVerifier, cfg Config) (*RouteAuthenticator, error) {
	a := &RouteAuthenticator{
		cfg:      cfg,
		auth:     auther,
		verifier: verifier,
		Logger:   defLogger{},
	}

	a.ErrorHandler = RespondError

	return a, nil
}

// ProtectedRoute returns middleware that rejects requests without a valid
// access token. Claims end up in the router locals under the context key.
func (a *RouteAuthenticator) ProtectedRoute(errorHandler func(router.Context, error) error) router.MiddlewareFunc {
	return jwtware.New(jwtware.Config{
		ErrorHandler:    errorHandler,
		AuthScheme:      a.cfg.GetAuthScheme(),
		ContextKey:      a.cfg.GetContextKey(),
		TokenLookup:     a.cfg.GetTokenLookup(),
		TokenValidator:  &accessTokenValidator{verifier: a.verifier},
		ContextEnricher: ContextEnricherAdapter,
	})
}

// MakeAuthErrorHandler normalizes middleware failures into the error
// envelope. Expired and malformed tokens keep their distinct text codes but
// both answer 401.
func (a *RouteAuthenticator) MakeAuthErrorHandler(optional bool) func(router.Context, error) error {
	return func(ctx router.Context, err error) error {
		var richErr *errors.Error

		if IsTokenExpiredError(err) {
			richErr = ErrTokenExpired
		} else if err.Error() == jwtware.ErrJWTMissingOrMalformed.Error() {
			richErr = ErrTokenMissing
		} else if IsMalformedError(err) {
			richErr = ErrTokenMalformed
		} else {
			richErr = errors.Wrap(err, errors.CategoryAuth, "invalid authentication token").
				WithCode(errors.CodeUnauthorized)
		}

		if optional {
			a.Logger.Info("optional auth failed, proceeding", "error", richErr.Message)
			return ctx.Next()
		}

		return a.ErrorHandler(ctx, richErr)
	}
}

// SetSessionCookies stores the token pair as HTTP-only secure cookies.
func (a *RouteAuthenticator) SetSessionCookies(ctx router.Context, pair *TokenPair) {
	a.setCookieToken(ctx, AccessTokenCookie, pair.AccessToken, a.cfg.GetAccessTokenExpiration())
	a.setCookieToken(ctx, RefreshTokenCookie, pair.RefreshToken, a.cfg.GetRefreshTokenExpiration())
}

// ClearSessionCookies expires both auth cookies.
func (a *RouteAuthenticator) ClearSessionCookies(ctx router.Context) {
	a.cookieDel(ctx, AccessTokenCookie)
	a.cookieDel(ctx, RefreshTokenCookie)
}

func (a *RouteAuthenticator) setCookieToken(c router.Context, name, val string, duration time.Duration) {
	c.Cookie(&router.Cookie{
		Name:     name,
		Value:    val,
		Expires:  time.Now().Add(duration),
		HTTPOnly: true,
		Secure:   true,
		SameSite: "Lax",
	})
}

func (a *RouteAuthenticator) cookieDel(c router.Context, name string) {
	c.Cookie(&router.Cookie{
		Name:     name,
		Value:    "",
		Expires:  time.Now().Add(-time.Hour * (24 * 365)),
		HTTPOnly: true,
		Secure:   true,
		SameSite: "Lax",
	})
}

// accessTokenValidator adapts the TokenVerifier to the middleware contract.
type accessTokenValidator struct {
	verifier TokenVerifier
}

func (v *accessTokenValidator) Validate(raw string) (jwtware.AuthClaims, error) {
	claims, err := v.verifier.ValidateAccessToken(raw)
	if err != nil {
		return nil, err
	}
	return sessionClaims{claims: claims}, nil
}

// sessionClaims exposes validated access claims through the middleware's
// claims interface.
type sessionClaims struct {
	claims *AccessClaims
}

func (s sessionClaims) Subject() string {
	return s.claims.RegisteredClaims.Subject
}

func (s sessionClaims) UserID() string {
	return s.claims.UserID()
}

func (s sessionClaims) Username() string {
	return s.claims.Username
}

func (s sessionClaims) Email() string {
	return s.claims.Email
}

// ClaimsFromContext reads the claims the middleware stored in the router
// locals. Returns ErrTokenMissing when the route ran unprotected.
func ClaimsFromContext(ctx router.Context, contextKey string) (jwtware.AuthClaims, error) {
	stored := ctx.Locals(contextKey)
	if stored == nil {
		return nil, ErrTokenMissing
	}

	claims, ok := stored.(jwtware.AuthClaims)
	if !ok {
		return nil, ErrTokenMissing
	}

	return claims, nil
}
