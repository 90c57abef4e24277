package middleware

import (
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/lottery-ticketing/internal/apperror"
	"github.com/iliyamo/lottery-ticketing/internal/model"
)

// RequireSameAdmin lets an admin act only on its own record, named by the
// path parameter param.
func RequireSameAdmin(param string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			ref, ok := PrincipalFrom(c)
			if !ok || ref.Audience != model.AudienceAdmin {
				return apperror.Unauthorized("Unauthorized request")
			}
			raw := c.Param(param)
			if raw == "" {
				return apperror.BadRequest("Target admin ID not provided")
			}
			target, err := strconv.ParseUint(raw, 10, 64)
			if err != nil {
				return apperror.BadRequest("Target admin ID is invalid")
			}
			if target != ref.ID {
				return apperror.Forbidden("You are not allowed to perform this action on another admin.")
			}
			return next(c)
		}
	}
}
