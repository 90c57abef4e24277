package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/lottery-ticketing/internal/model"
	"github.com/iliyamo/lottery-ticketing/internal/service"
)

// OTP delivery waits on the SMS provider.
const otpTimeout = 15 * time.Second

// UserHandler serves buyer registration and phone verification.
type UserHandler struct {
	Users  *service.UserService
	Secure bool
}

func NewUserHandler(users *service.UserService, secure bool) *UserHandler {
	return &UserHandler{Users: users, Secure: secure}
}

type registerReq struct {
	FullName  string  `json:"full_name" validate:"required"`
	Phone     string  `json:"phone" validate:"required"`
	Email     string  `json:"email" validate:"omitempty,email"`
	Birthdate string  `json:"birthdate" validate:"required"`
	Gender    *string `json:"gender" validate:"omitempty,oneof=male female"`
}

type updateUserReq struct {
	FullName  *string `json:"full_name"`
	Phone     *string `json:"phone"`
	IsDeleted *bool   `json:"is_deleted"`
}

type sendOTPReq struct {
	Phone string `json:"phone" validate:"required"`
}

type verifyCodeReq struct {
	Code  string `json:"code" validate:"required"`
	Phone string `json:"phone" validate:"required"`
}

// Register creates a user and signs it in.
func (h *UserHandler) Register(c echo.Context) error {
	var req registerReq
	if err := bindValid(c, &req); err != nil {
		return err
	}
	birth, err := parseTime("birthdate", req.Birthdate)
	if err != nil {
		return err
	}
	ctx, cancel := requestContext(c)
	defer cancel()

	u, sess, err := h.Users.Register(ctx, service.RegisterInput{
		FullName:  req.FullName,
		Phone:     req.Phone,
		Email:     req.Email,
		Birthdate: birth,
		Gender:    req.Gender,
	})
	if err != nil {
		return err
	}
	setSessionCookies(c, model.AudienceUser, sess, h.Secure)
	return c.JSON(http.StatusOK, echo.Map{"success": true, "accessToken": sess.Access.Token, "user": u})
}

func (h *UserHandler) List(c echo.Context) error {
	ctx, cancel := requestContext(c)
	defer cancel()
	users, err := h.Users.List(ctx)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, echo.Map{"users": users})
}

func (h *UserHandler) Update(c echo.Context) error {
	id, err := pathID(c, "id")
	if err != nil {
		return err
	}
	var req updateUserReq
	if err := bindValid(c, &req); err != nil {
		return err
	}
	ctx, cancel := requestContext(c)
	defer cancel()

	u, err := h.Users.Update(ctx, id, service.UserUpdateInput{
		FullName:  req.FullName,
		Phone:     req.Phone,
		IsDeleted: req.IsDeleted,
	})
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, echo.Map{"user": u})
}

// SendOTP texts a code.  ?login=true requires an existing account.
func (h *UserHandler) SendOTP(c echo.Context) error {
	var req sendOTPReq
	if err := bindValid(c, &req); err != nil {
		return err
	}
	ctx, cancel := context.WithTimeout(c.Request().Context(), otpTimeout)
	defer cancel()

	if err := h.Users.SendOTP(ctx, req.Phone, c.QueryParam("login") == "true"); err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, echo.Map{"message": "OTP sent successfully"})
}

// VerifyCode checks a code.  ?isLogin=true also signs the user in.
func (h *UserHandler) VerifyCode(c echo.Context) error {
	var req verifyCodeReq
	if err := bindValid(c, &req); err != nil {
		return err
	}
	ctx, cancel := requestContext(c)
	defer cancel()

	u, sess, err := h.Users.VerifyCode(ctx, req.Phone, req.Code, c.QueryParam("isLogin") == "true")
	if err != nil {
		return err
	}
	if sess == nil {
		return c.JSON(http.StatusCreated, echo.Map{"verified": true})
	}
	setSessionCookies(c, model.AudienceUser, *sess, h.Secure)
	return c.JSON(http.StatusOK, echo.Map{"success": true, "accessToken": sess.Access.Token, "user": u})
}
