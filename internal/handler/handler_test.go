package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/iliyamo/lottery-ticketing/internal/apperror"
	"github.com/iliyamo/lottery-ticketing/internal/middleware"
	"github.com/iliyamo/lottery-ticketing/internal/model"
	"github.com/iliyamo/lottery-ticketing/internal/service"
	"github.com/iliyamo/lottery-ticketing/internal/utils"
)

func newEcho(production bool) *echo.Echo {
	e := echo.New()
	e.Validator = NewValidator()
	e.HTTPErrorHandler = NewErrorHandler(zap.NewNop(), production)
	return e
}

func do(e *echo.Echo, method, target, body string, cookies ...*http.Cookie) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	if body != "" {
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	}
	for _, ck := range cookies {
		req.AddCookie(ck)
	}
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec
}

func decode(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var out map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
	return out
}

func cookieByName(rec *httptest.ResponseRecorder, name string) *http.Cookie {
	for _, ck := range rec.Result().Cookies() {
		if ck.Name == name {
			return ck
		}
	}
	return nil
}

// tokenAuth accepts "<audience>-token" as an access token of id 7.
type tokenAuth struct{}

func (tokenAuth) Authenticate(raw string, aud model.Audience) (model.PrincipalRef, error) {
	if raw != string(aud)+"-token" {
		return model.PrincipalRef{}, apperror.InvalidToken("")
	}
	return model.PrincipalRef{ID: 7, Audience: aud}, nil
}

func TestErrorEnvelope(t *testing.T) {
	cases := []struct {
		name       string
		production bool
		err        error
		status     int
		message    string
		stack      bool
	}{
		{"operational in production", true, apperror.LotteryNotFoundOrExpired(), http.StatusBadRequest, "Lottery not found", false},
		{"unexpected in production", true, errors.New("sql: connection refused"), http.StatusInternalServerError, "Something went wrong", false},
		{"unexpected in development", false, errors.New("sql: connection refused"), http.StatusInternalServerError, "sql: connection refused", true},
		{"operational with cause in development", false, apperror.Persistence("Failed to save purchase", errors.New("boom")), http.StatusInternalServerError, "Failed to save purchase", true},
		{"echo error", true, echo.ErrMethodNotAllowed, http.StatusMethodNotAllowed, "Method Not Allowed", false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			e := newEcho(tc.production)
			e.GET("/x", func(echo.Context) error { return tc.err })

			rec := do(e, http.MethodGet, "/x", "")
			assert.Equal(t, tc.status, rec.Code)
			body := decode(t, rec)
			assert.Equal(t, "error", body["status"])
			assert.Equal(t, float64(tc.status), body["statusCode"])
			assert.Equal(t, tc.message, body["message"])
			_, hasStack := body["stack"]
			assert.Equal(t, tc.stack, hasStack)
		})
	}
}

func TestErrorEnvelopeRetryAfter(t *testing.T) {
	e := newEcho(true)
	e.POST("/login", func(echo.Context) error { return apperror.TooManyAttempts(600) })

	rec := do(e, http.MethodPost, "/login", "")
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.Equal(t, "600", rec.Header().Get("Retry-After"))
	assert.Equal(t, "Too many attempts. Please try again in 600 seconds", decode(t, rec)["message"])
}

func TestUnknownRouteUsesEnvelope(t *testing.T) {
	rec := do(newEcho(true), http.MethodGet, "/nope", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "error", decode(t, rec)["status"])
}

type fakeAuth struct {
	loginErr   error
	gotEmail   string
	gotIP      string
	refreshRaw string
	refreshAud model.Audience
	logoutRaw  string
	principal  model.Principal
}

func (f *fakeAuth) session() service.Session {
	exp := time.Now().Add(time.Minute)
	return service.Session{
		Access:  utils.SignedToken{Token: "access-1", Exp: exp},
		Refresh: utils.SignedToken{Token: "refresh-1", Exp: exp},
	}
}

func (f *fakeAuth) Login(_ context.Context, email, _, ip string) (model.Admin, service.Session, error) {
	f.gotEmail, f.gotIP = email, ip
	if f.loginErr != nil {
		return model.Admin{}, service.Session{}, f.loginErr
	}
	return model.Admin{ID: 1, Email: email}, f.session(), nil
}

func (f *fakeAuth) RefreshSession(_ context.Context, raw string, aud model.Audience) (service.Session, error) {
	f.refreshRaw, f.refreshAud = raw, aud
	if raw == "" {
		return service.Session{}, apperror.Unauthorized("Refresh token is missing")
	}
	return f.session(), nil
}

func (f *fakeAuth) Logout(_ context.Context, _ model.Audience, raw string) { f.logoutRaw = raw }

func (f *fakeAuth) Principal(_ context.Context, ref model.PrincipalRef) (model.Principal, error) {
	return f.principal, nil
}

func authRoutes(production bool, auth *fakeAuth) *echo.Echo {
	e := newEcho(production)
	h := NewAuthHandler(auth, production)
	e.POST("/v1/auth/login", h.Login)
	e.POST("/v1/auth/status", h.RefreshAdmin)
	e.POST("/v1/auth/status/user", h.RefreshUser)
	e.GET("/v1/auth/me", h.Me, middleware.RequireUser(tokenAuth{}))
	e.GET("/v1/auth/me-admin", h.MeAdmin, middleware.RequireAdmin(tokenAuth{}))
	e.POST("/v1/auth/logout", h.LogoutUser)
	e.POST("/v1/auth/logout-admin", h.LogoutAdmin)
	return e
}

func TestLoginSetsAdminCookies(t *testing.T) {
	for _, production := range []bool{false, true} {
		auth := &fakeAuth{}
		rec := do(authRoutes(production, auth), http.MethodPost, "/v1/auth/login", `{"email":"boss@example.com","password":"s3cret!"}`)

		require.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, true, decode(t, rec)["success"])
		assert.Equal(t, "192.0.2.1", auth.gotIP)

		access := cookieByName(rec, middleware.AdminAccessCookie)
		require.NotNil(t, access)
		assert.Equal(t, "access-1", access.Value)
		assert.Equal(t, 15*60, access.MaxAge)
		assert.True(t, access.HttpOnly)
		assert.Equal(t, http.SameSiteLaxMode, access.SameSite)
		assert.Equal(t, production, access.Secure)

		refresh := cookieByName(rec, middleware.AdminRefreshCookie)
		require.NotNil(t, refresh)
		assert.Equal(t, 7*24*60*60, refresh.MaxAge)
		assert.Nil(t, cookieByName(rec, middleware.UserAccessCookie))
	}
}

func TestLoginValidation(t *testing.T) {
	auth := &fakeAuth{}
	e := authRoutes(true, auth)

	rec := do(e, http.MethodPost, "/v1/auth/login", `{"email":"not-an-email","password":"x"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "Email must be a valid email", decode(t, rec)["message"])

	rec = do(e, http.MethodPost, "/v1/auth/login", `{"email":"a@b.com"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "password is required", decode(t, rec)["message"])
	assert.Empty(t, auth.gotEmail)
}

func TestLoginFailureSetsNoCookie(t *testing.T) {
	auth := &fakeAuth{loginErr: apperror.InvalidCredentials()}
	rec := do(authRoutes(true, auth), http.MethodPost, "/v1/auth/login", `{"email":"a@b.com","password":"x"}`)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, "Invalid email or password", decode(t, rec)["message"])
	assert.Empty(t, rec.Result().Cookies())
}

func TestRefreshReadsAudienceCookie(t *testing.T) {
	auth := &fakeAuth{}
	e := authRoutes(false, auth)

	rec := do(e, http.MethodPost, "/v1/auth/status/user", "",
		&http.Cookie{Name: middleware.AdminRefreshCookie, Value: "admin-refresh"},
		&http.Cookie{Name: middleware.UserRefreshCookie, Value: "user-refresh"})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "user-refresh", auth.refreshRaw)
	assert.Equal(t, model.AudienceUser, auth.refreshAud)
	assert.Equal(t, "Session refreshed successfully", decode(t, rec)["message"])
	assert.NotNil(t, cookieByName(rec, middleware.UserRefreshCookie))

	rec = do(e, http.MethodPost, "/v1/auth/status", "")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, "Refresh token is missing", decode(t, rec)["message"])
}

func TestLogoutClearsCookies(t *testing.T) {
	auth := &fakeAuth{}
	rec := do(authRoutes(false, auth), http.MethodPost, "/v1/auth/logout-admin", "",
		&http.Cookie{Name: middleware.AdminRefreshCookie, Value: "admin-refresh"})

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "admin-refresh", auth.logoutRaw)
	for _, name := range []string{middleware.AdminAccessCookie, middleware.AdminRefreshCookie} {
		ck := cookieByName(rec, name)
		require.NotNil(t, ck, name)
		assert.Empty(t, ck.Value)
		assert.Less(t, ck.MaxAge, 0)
	}

	// without any cookie logout still succeeds
	rec = do(authRoutes(false, &fakeAuth{}), http.MethodPost, "/v1/auth/logout", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "Logged out successfully", decode(t, rec)["message"])
}

func TestMeEndpoints(t *testing.T) {
	auth := &fakeAuth{principal: model.UserPrincipal(model.User{ID: 7, FullName: "Sara"})}
	e := authRoutes(false, auth)

	rec := do(e, http.MethodGet, "/v1/auth/me", "", &http.Cookie{Name: middleware.UserAccessCookie, Value: "user-token"})
	require.Equal(t, http.StatusOK, rec.Code)
	user := decode(t, rec)["userData"].(map[string]any)
	assert.Equal(t, "Sara", user["full_name"])

	// a user token never opens the admin profile
	rec = do(e, http.MethodGet, "/v1/auth/me-admin", "", &http.Cookie{Name: middleware.AdminAccessCookie, Value: "user-token"})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

type fakeCheckout struct {
	userID, lotteryID uint64
	qty               int
	key               string
	err               error
	replayed          bool
}

func (f *fakeCheckout) Purchase(_ context.Context, userID, lotteryID uint64, qty int, key string) (service.CheckoutResult, error) {
	f.userID, f.lotteryID, f.qty, f.key = userID, lotteryID, qty, key
	if f.err != nil {
		return service.CheckoutResult{}, f.err
	}
	return service.CheckoutResult{Replayed: f.replayed}, nil
}

func (f *fakeCheckout) ListByLottery(context.Context, uint64) ([]model.PurchaseDetail, error) {
	return []model.PurchaseDetail{{Purchase: model.Purchase{ID: 1, Quantity: 5}}}, nil
}

func (f *fakeCheckout) ListByUser(context.Context, uint64) ([]model.PurchaseDetail, error) {
	return []model.PurchaseDetail{}, nil
}

func checkoutRoutes(co *fakeCheckout) *echo.Echo {
	e := newEcho(true)
	h := NewCheckoutHandler(co)
	e.POST("/v1/checkout", h.Create, middleware.RequireUser(tokenAuth{}))
	e.GET("/v1/checkout/:id", h.ByLottery, middleware.RequireAdmin(tokenAuth{}))
	return e
}

var userCookie = &http.Cookie{Name: middleware.UserAccessCookie, Value: "user-token"}

func TestCheckoutCreate(t *testing.T) {
	co := &fakeCheckout{}
	e := checkoutRoutes(co)

	req := httptest.NewRequest(http.MethodPost, "/v1/checkout", strings.NewReader(`{"quantity":3,"lotteryId":11}`))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	req.Header.Set(HeaderIdempotencyKey, "k-1")
	req.AddCookie(userCookie)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)

	require.Equal(t, http.StatusCreated, rec.Code)
	assert.Equal(t, map[string]any{"success": true}, decode(t, rec))
	assert.Equal(t, uint64(7), co.userID)
	assert.Equal(t, uint64(11), co.lotteryID)
	assert.Equal(t, 3, co.qty)
	assert.Equal(t, "k-1", co.key)
	assert.Empty(t, rec.Header().Get("Idempotent-Replayed"))
}

func TestCheckoutReplayHeader(t *testing.T) {
	e := checkoutRoutes(&fakeCheckout{replayed: true})
	rec := do(e, http.MethodPost, "/v1/checkout", `{"quantity":3,"lotteryId":11}`, userCookie)

	assert.Equal(t, http.StatusCreated, rec.Code)
	assert.Equal(t, "true", rec.Header().Get("Idempotent-Replayed"))
}

func TestCheckoutRejects(t *testing.T) {
	cases := []struct {
		name    string
		body    string
		cookie  *http.Cookie
		err     error
		status  int
		message string
	}{
		{"no session", `{"quantity":1,"lotteryId":1}`, nil, nil, http.StatusUnauthorized, "Authorization token is missing"},
		{"admin session", `{"quantity":1,"lotteryId":1}`, &http.Cookie{Name: middleware.UserAccessCookie, Value: "admin-token"}, nil, http.StatusUnauthorized, "Invalid token"},
		{"missing quantity", `{"lotteryId":1}`, userCookie, nil, http.StatusBadRequest, "Quantity is required"},
		{"negative quantity", `{"quantity":-2,"lotteryId":1}`, userCookie, nil, http.StatusBadRequest, "Quantity must be at least 1"},
		{"missing lottery", `{"quantity":2}`, userCookie, nil, http.StatusBadRequest, "Lottery ID is required"},
		{"malformed body", `{"quantity":`, userCookie, nil, http.StatusBadRequest, "Invalid request body"},
		{"closed lottery", `{"quantity":2,"lotteryId":1}`, userCookie, apperror.LotteryNotFoundOrExpired(), http.StatusBadRequest, "Lottery not found"},
		{"store failure", `{"quantity":2,"lotteryId":1}`, userCookie, apperror.Lookup("Failed to find purchase", errors.New("db down")), http.StatusInternalServerError, "Failed to find purchase"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			co := &fakeCheckout{err: tc.err}
			var cookies []*http.Cookie
			if tc.cookie != nil {
				cookies = append(cookies, tc.cookie)
			}
			rec := do(checkoutRoutes(co), http.MethodPost, "/v1/checkout", tc.body, cookies...)
			assert.Equal(t, tc.status, rec.Code)
			assert.Equal(t, tc.message, decode(t, rec)["message"])
		})
	}
}

func TestCheckoutsByLottery(t *testing.T) {
	e := checkoutRoutes(&fakeCheckout{})

	rec := do(e, http.MethodGet, "/v1/checkout/5", "", &http.Cookie{Name: middleware.AdminAccessCookie, Value: "admin-token"})
	require.Equal(t, http.StatusOK, rec.Code)
	list := decode(t, rec)["checkouts"].([]any)
	require.Len(t, list, 1)

	rec = do(e, http.MethodGet, "/v1/checkout/abc", "", &http.Cookie{Name: middleware.AdminAccessCookie, Value: "admin-token"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestValidatorMessages(t *testing.T) {
	v := NewValidator()
	err := v.Validate(&createAdminReq{FullName: "A", Phone: "07701234567", Email: "a@b.com", Password: "x", ConfirmPassword: "y"})
	assert.EqualError(t, err, "Passwords do not match")

	err = v.Validate(&registerReq{FullName: "A", Phone: "07701234567", Birthdate: "2000-01-01", Gender: strPtr("other")})
	assert.EqualError(t, err, "Gender must be male or female")

	err = v.Validate(&createLotteryReq{NameEn: "Car", ContentEn: "c", PricePerTicket: 10, Deadline: "2030-01-01", Image: "i.png"})
	assert.EqualError(t, err, "category is required")

	assert.NoError(t, v.Validate(&registerReq{FullName: "A", Phone: "07701234567", Birthdate: "2000-01-01"}))
}

func strPtr(s string) *string { return &s }

func TestParseTime(t *testing.T) {
	for _, raw := range []string{"2030-01-02T03:04:05Z", "2030-01-02T03:04", "2030-01-02"} {
		got, err := parseTime("deadline", raw)
		require.NoError(t, err, raw)
		assert.Equal(t, 2030, got.Year())
	}
	_, err := parseTime("deadline", "tomorrow")
	assert.Equal(t, http.StatusBadRequest, apperror.Status(err))
}

func TestHealth(t *testing.T) {
	up := func(context.Context) error { return nil }
	down := func(context.Context) error { return errors.New("down") }

	cases := []struct {
		name    string
		h       *HealthHandler
		status  int
		overall string
	}{
		{"all up", &HealthHandler{Required: map[string]HealthCheck{"mysql": up}, Optional: map[string]HealthCheck{"redis": up}}, http.StatusOK, "ok"},
		{"optional down", &HealthHandler{Required: map[string]HealthCheck{"mysql": up}, Optional: map[string]HealthCheck{"redis": down}}, http.StatusOK, "degraded"},
		{"required down", &HealthHandler{Required: map[string]HealthCheck{"mysql": down}, Optional: map[string]HealthCheck{"redis": up}}, http.StatusServiceUnavailable, "down"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			e := newEcho(true)
			e.GET("/healthz", tc.h.Health)
			rec := do(e, http.MethodGet, "/healthz", "")
			assert.Equal(t, tc.status, rec.Code)
			assert.Equal(t, tc.overall, decode(t, rec)["status"])
		})
	}
}
