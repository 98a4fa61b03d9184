package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"foodgram/internal/service"
)

// CatalogHandler serves read-only tags and ingredients.
type CatalogHandler struct {
	catalog service.CatalogService
}

// NewCatalogHandler creates a new catalog handler.
func NewCatalogHandler(catalog service.CatalogService) *CatalogHandler {
	return &CatalogHandler{catalog: catalog}
}

// ListTags godoc
// @Summary List tags
// @Tags tags
// @Produce json
// @Success 200 {array} model.Tag
// @Router /tags/ [get]
func (h *CatalogHandler) ListTags(c echo.Context) error {
	tags, err := h.catalog.ListTags(c.Request().Context())
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusOK, tags)
}

// GetTag godoc
// @Summary Get tag
// @Tags tags
// @Produce json
// @Param id path int true "Tag ID"
// @Success 200 {object} model.Tag
// @Failure 404 {object} errors.ErrorResponse
// @Router /tags/{id}/ [get]
func (h *CatalogHandler) GetTag(c echo.Context) error {
	id, err := pathID(c, "id")
	if err != nil {
		return err
	}
	tag, err := h.catalog.GetTag(c.Request().Context(), id)
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusOK, tag)
}

// ListIngredients godoc
// @Summary Search ingredients by name prefix
// @Tags ingredients
// @Produce json
// @Param name query string false "Case-insensitive name prefix"
// @Success 200 {array} model.Ingredient
// @Router /ingredients/ [get]
func (h *CatalogHandler) ListIngredients(c echo.Context) error {
	ingredients, err := h.catalog.SearchIngredients(c.Request().Context(), c.QueryParam("name"))
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusOK, ingredients)
}

// GetIngredient godoc
// @Summary Get ingredient
// @Tags ingredients
// @Produce json
// @Param id path int true "Ingredient ID"
// @Success 200 {object} model.Ingredient
// @Failure 404 {object} errors.ErrorResponse
// @Router /ingredients/{id}/ [get]
func (h *CatalogHandler) GetIngredient(c echo.Context) error {
	id, err := pathID(c, "id")
	if err != nil {
		return err
	}
	ingredient, err := h.catalog.GetIngredient(c.Request().Context(), id)
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusOK, ingredient)
}
