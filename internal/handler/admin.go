package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/lottery-ticketing/internal/service"
)

// AdminHandler manages back-office accounts.
type AdminHandler struct {
	Admins *service.AdminService
}

func NewAdminHandler(admins *service.AdminService) *AdminHandler {
	return &AdminHandler{Admins: admins}
}

type createAdminReq struct {
	FullName        string `json:"full_name" validate:"required"`
	Phone           string `json:"phone" validate:"required"`
	Email           string `json:"email" validate:"required,email"`
	Password        string `json:"password" validate:"required"`
	ConfirmPassword string `json:"confirmPassword" validate:"required,eqfield=Password"`
}

type updateAdminReq struct {
	FullName        *string `json:"full_name"`
	Phone           *string `json:"phone"`
	Password        string  `json:"password"`
	ConfirmPassword string  `json:"confirmPassword"`
}

func (h *AdminHandler) Create(c echo.Context) error {
	var req createAdminReq
	if err := bindValid(c, &req); err != nil {
		return err
	}
	ctx, cancel := requestContext(c)
	defer cancel()

	a, err := h.Admins.Create(ctx, service.CreateAdminInput{
		FullName:        req.FullName,
		Email:           req.Email,
		Phone:           req.Phone,
		Password:        req.Password,
		ConfirmPassword: req.ConfirmPassword,
	})
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, echo.Map{"admin": a})
}

func (h *AdminHandler) List(c echo.Context) error {
	ctx, cancel := requestContext(c)
	defer cancel()
	admins, err := h.Admins.List(ctx)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, echo.Map{"admins": admins})
}

// Update edits the caller's own record.  RequireSameAdmin runs first, the
// service checks again.
func (h *AdminHandler) Update(c echo.Context) error {
	id, err := pathID(c, "id")
	if err != nil {
		return err
	}
	ref, err := caller(c)
	if err != nil {
		return err
	}
	var req updateAdminReq
	if err := bindValid(c, &req); err != nil {
		return err
	}
	ctx, cancel := requestContext(c)
	defer cancel()

	a, err := h.Admins.Update(ctx, ref.ID, id, service.UpdateAdminInput{
		FullName:        req.FullName,
		Phone:           req.Phone,
		Password:        req.Password,
		ConfirmPassword: req.ConfirmPassword,
	})
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, echo.Map{"admin": a})
}

func (h *AdminHandler) Delete(c echo.Context) error {
	id, err := pathID(c, "id")
	if err != nil {
		return err
	}
	ctx, cancel := requestContext(c)
	defer cancel()
	if err := h.Admins.Delete(ctx, id); err != nil {
		return err
	}
	return c.JSON(http.StatusOK, echo.Map{"message": "Admin deleted successfully"})
}
