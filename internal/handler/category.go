package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/lottery-ticketing/internal/model"
	"github.com/iliyamo/lottery-ticketing/internal/repository"
	"github.com/iliyamo/lottery-ticketing/internal/service"
)

type CategoryHandler struct {
	Categories *service.CategoryService
}

func NewCategoryHandler(categories *service.CategoryService) *CategoryHandler {
	return &CategoryHandler{Categories: categories}
}

type createCategoryReq struct {
	Name   string `json:"name" validate:"required"`
	NameKu string `json:"name_ku" validate:"required"`
	NameAr string `json:"name_ar" validate:"required"`
}

type updateCategoryReq struct {
	Name   *string `json:"name"`
	NameKu *string `json:"name_ku"`
	NameAr *string `json:"name_ar"`
}

func (h *CategoryHandler) Create(c echo.Context) error {
	var req createCategoryReq
	if err := bindValid(c, &req); err != nil {
		return err
	}
	ctx, cancel := requestContext(c)
	defer cancel()

	cat, err := h.Categories.Create(ctx, model.Category{Name: req.Name, NameKu: req.NameKu, NameAr: req.NameAr})
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, echo.Map{"category": cat})
}

func (h *CategoryHandler) List(c echo.Context) error {
	ctx, cancel := requestContext(c)
	defer cancel()
	list, err := h.Categories.List(ctx)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, echo.Map{"categories": list})
}

func (h *CategoryHandler) Update(c echo.Context) error {
	id, err := pathID(c, "id")
	if err != nil {
		return err
	}
	var req updateCategoryReq
	if err := bindValid(c, &req); err != nil {
		return err
	}
	ctx, cancel := requestContext(c)
	defer cancel()

	cat, err := h.Categories.Update(ctx, id, repository.CategoryUpdate{Name: req.Name, NameKu: req.NameKu, NameAr: req.NameAr})
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, echo.Map{"category": cat})
}

func (h *CategoryHandler) Delete(c echo.Context) error {
	id, err := pathID(c, "id")
	if err != nil {
		return err
	}
	ctx, cancel := requestContext(c)
	defer cancel()
	if err := h.Categories.Delete(ctx, id); err != nil {
		return err
	}
	return c.JSON(http.StatusOK, echo.Map{"message": "Category deleted successfully"})
}
