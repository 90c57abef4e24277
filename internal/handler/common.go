package handler

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/lottery-ticketing/internal/apperror"
	"github.com/iliyamo/lottery-ticketing/internal/middleware"
	"github.com/iliyamo/lottery-ticketing/internal/model"
	"github.com/iliyamo/lottery-ticketing/internal/service"
)

const (
	requestTimeout = 5 * time.Second
	accessMaxAge   = 15 * time.Minute
	refreshMaxAge  = 7 * 24 * time.Hour
)

func requestContext(c echo.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(c.Request().Context(), requestTimeout)
}

// bindValid decodes the request into dst and validates it.
func bindValid(c echo.Context, dst interface{}) error {
	if err := c.Bind(dst); err != nil {
		return apperror.BadRequest("Invalid request body")
	}
	return c.Validate(dst)
}

// pathID parses a positive numeric path parameter.
func pathID(c echo.Context, name string) (uint64, error) {
	id, err := strconv.ParseUint(c.Param(name), 10, 64)
	if err != nil || id == 0 {
		return 0, apperror.BadRequest("Invalid " + name)
	}
	return id, nil
}

// caller returns the principal put in the context by the auth middleware.
func caller(c echo.Context) (model.PrincipalRef, error) {
	ref, ok := middleware.PrincipalFrom(c)
	if !ok {
		return ref, apperror.Unauthorized("Unauthorized request")
	}
	return ref, nil
}

func parseTime(field, raw string) (time.Time, error) {
	for _, layout := range []string{time.RFC3339, "2006-01-02T15:04", "2006-01-02"} {
		if t, err := time.Parse(layout, raw); err == nil {
			return t, nil
		}
	}
	return time.Time{}, apperror.BadRequest(field + " must be a date (RFC 3339 or YYYY-MM-DD)")
}

func sessionCookie(name, value string, maxAge time.Duration, secure bool) *http.Cookie {
	return &http.Cookie{
		Name:     name,
		Value:    value,
		Path:     "/",
		MaxAge:   int(maxAge / time.Second),
		HttpOnly: true,
		Secure:   secure,
		SameSite: http.SameSiteLaxMode,
	}
}

// setSessionCookies writes the access and refresh cookies of aud.
func setSessionCookies(c echo.Context, aud model.Audience, s service.Session, secure bool) {
	c.SetCookie(sessionCookie(middleware.AccessCookie(aud), s.Access.Token, accessMaxAge, secure))
	c.SetCookie(sessionCookie(middleware.RefreshCookie(aud), s.Refresh.Token, refreshMaxAge, secure))
}

func clearSessionCookies(c echo.Context, aud model.Audience, secure bool) {
	for _, name := range []string{middleware.AccessCookie(aud), middleware.RefreshCookie(aud)} {
		ck := sessionCookie(name, "", 0, secure)
		ck.MaxAge = -1
		c.SetCookie(ck)
	}
}

func cookieValue(c echo.Context, name string) string {
	ck, err := c.Cookie(name)
	if err != nil {
		return ""
	}
	return ck.Value
}
