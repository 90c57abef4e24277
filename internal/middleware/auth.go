package middleware

import (
	"github.com/labstack/echo/v4"

	"github.com/iliyamo/lottery-ticketing/internal/apperror"
	"github.com/iliyamo/lottery-ticketing/internal/model"
)

// Authenticator validates access tokens.  *service.AuthService satisfies it.
type Authenticator interface {
	Authenticate(raw string, aud model.Audience) (model.PrincipalRef, error)
}

// Cookie names per audience.  The two audiences never share cookies.
const (
	AdminAccessCookie  = "AccessToken"
	AdminRefreshCookie = "RefreshToken"
	UserAccessCookie   = "UserAccessToken"
	UserRefreshCookie  = "UserRefreshToken"
)

// AccessCookie returns the access token cookie name of aud.
func AccessCookie(aud model.Audience) string {
	if aud == model.AudienceAdmin {
		return AdminAccessCookie
	}
	return UserAccessCookie
}

// RefreshCookie returns the refresh token cookie name of aud.
func RefreshCookie(aud model.Audience) string {
	if aud == model.AudienceAdmin {
		return AdminRefreshCookie
	}
	return UserRefreshCookie
}

// RequireAudience reads the access cookie of aud, validates it and stores
// the caller in the context.  A token minted for the other audience is
// rejected even when its signature is valid.
func RequireAudience(auth Authenticator, aud model.Audience) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			ck, err := c.Cookie(AccessCookie(aud))
			if err != nil || ck.Value == "" {
				return apperror.Unauthorized("Authorization token is missing")
			}
			ref, err := auth.Authenticate(ck.Value, aud)
			if err != nil {
				return err
			}
			setPrincipal(c, ref)
			return next(c)
		}
	}
}

// RequireAdmin guards back-office routes.
func RequireAdmin(auth Authenticator) echo.MiddlewareFunc {
	return RequireAudience(auth, model.AudienceAdmin)
}

// RequireUser guards buyer routes.
func RequireUser(auth Authenticator) echo.MiddlewareFunc {
	return RequireAudience(auth, model.AudienceUser)
}
