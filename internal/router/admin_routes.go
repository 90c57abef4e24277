package router

import (
	"github.com/labstack/echo/v4"

	"github.com/iliyamo/lottery-ticketing/internal/handler"
	"github.com/iliyamo/lottery-ticketing/internal/middleware"
)

// RegisterAdmin registers the back-office endpoints.  Every route needs an
// admin session; an admin may only edit its own account.
func RegisterAdmin(e *echo.Echo, a *handler.AdminHandler, cat *handler.CategoryHandler, g Guards) {
	admins := e.Group("/v1/admins", g.Admin)
	admins.POST("", a.Create)
	admins.GET("", a.List)
	admins.PUT("/:id", a.Update, middleware.RequireSameAdmin("id"))
	admins.DELETE("/:id", a.Delete)

	categories := e.Group("/v1/categories", g.Admin)
	categories.POST("", cat.Create)
	categories.GET("", cat.List)
	categories.PUT("/:id", cat.Update)
	categories.DELETE("/:id", cat.Delete)
}
