package handler

import (
	"context"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/lottery-ticketing/internal/middleware"
	"github.com/iliyamo/lottery-ticketing/internal/model"
	"github.com/iliyamo/lottery-ticketing/internal/service"
)

// AuthAPI is the part of *service.AuthService the auth endpoints use.
type AuthAPI interface {
	Login(ctx context.Context, email, password, ip string) (model.Admin, service.Session, error)
	RefreshSession(ctx context.Context, raw string, aud model.Audience) (service.Session, error)
	Logout(ctx context.Context, aud model.Audience, raw string)
	Principal(ctx context.Context, ref model.PrincipalRef) (model.Principal, error)
}

// AuthHandler bundles dependencies for auth endpoints.
type AuthHandler struct {
	Auth   AuthAPI
	Secure bool // set the Secure flag on cookies
}

func NewAuthHandler(auth AuthAPI, secure bool) *AuthHandler {
	return &AuthHandler{Auth: auth, Secure: secure}
}

type loginReq struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// Login authenticates an admin and sets the admin session cookies.
func (h *AuthHandler) Login(c echo.Context) error {
	var req loginReq
	if err := bindValid(c, &req); err != nil {
		return err
	}
	ctx, cancel := requestContext(c)
	defer cancel()

	_, sess, err := h.Auth.Login(ctx, req.Email, req.Password, c.RealIP())
	if err != nil {
		return err
	}
	setSessionCookies(c, model.AudienceAdmin, sess, h.Secure)
	return c.JSON(http.StatusOK, echo.Map{"success": true})
}

// RefreshAdmin rotates the admin refresh cookie.
func (h *AuthHandler) RefreshAdmin(c echo.Context) error { return h.refresh(c, model.AudienceAdmin) }

// RefreshUser rotates the user refresh cookie.
func (h *AuthHandler) RefreshUser(c echo.Context) error { return h.refresh(c, model.AudienceUser) }

func (h *AuthHandler) refresh(c echo.Context, aud model.Audience) error {
	ctx, cancel := requestContext(c)
	defer cancel()

	raw := cookieValue(c, middleware.RefreshCookie(aud))
	sess, err := h.Auth.RefreshSession(ctx, raw, aud)
	if err != nil {
		return err
	}
	setSessionCookies(c, aud, sess, h.Secure)
	return c.JSON(http.StatusOK, echo.Map{"success": true, "message": "Session refreshed successfully"})
}

// Me returns the profile of the signed-in user.
func (h *AuthHandler) Me(c echo.Context) error {
	p, err := h.principal(c)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, echo.Map{"success": true, "userData": p.User})
}

// MeAdmin returns the profile of the signed-in admin.
func (h *AuthHandler) MeAdmin(c echo.Context) error {
	p, err := h.principal(c)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, echo.Map{"success": true, "adminData": p.Admin})
}

func (h *AuthHandler) principal(c echo.Context) (model.Principal, error) {
	ref, err := caller(c)
	if err != nil {
		return model.Principal{}, err
	}
	ctx, cancel := requestContext(c)
	defer cancel()
	return h.Auth.Principal(ctx, ref)
}

// LogoutUser clears the user cookies.  It never fails.
func (h *AuthHandler) LogoutUser(c echo.Context) error { return h.logout(c, model.AudienceUser) }

// LogoutAdmin clears the admin cookies.  It never fails.
func (h *AuthHandler) LogoutAdmin(c echo.Context) error { return h.logout(c, model.AudienceAdmin) }

func (h *AuthHandler) logout(c echo.Context, aud model.Audience) error {
	ctx, cancel := requestContext(c)
	defer cancel()

	h.Auth.Logout(ctx, aud, cookieValue(c, middleware.RefreshCookie(aud)))
	clearSessionCookies(c, aud, h.Secure)
	return c.JSON(http.StatusOK, echo.Map{"success": true, "message": "Logged out successfully"})
}
