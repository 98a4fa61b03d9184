package handler

import (
	"context"
	"fmt"
	"mime"
	"net/http"

	"github.com/labstack/echo/v4"

	"foodgram/internal/model"
	"foodgram/internal/service"
)

// RecipeHandler serves recipes, favorites, the shopping cart and short links.
type RecipeHandler struct {
	recipeService   service.RecipeService
	relationService service.RelationService
	shoppingList    service.ShoppingListService
}

// NewRecipeHandler creates a new recipe handler.
func NewRecipeHandler(recipeService service.RecipeService, relationService service.RelationService, shoppingList service.ShoppingListService) *RecipeHandler {
	return &RecipeHandler{
		recipeService:   recipeService,
		relationService: relationService,
		shoppingList:    shoppingList,
	}
}

// ShortLinkResponse carries the absolute short link of a recipe.
type ShortLinkResponse struct {
	ShortLink string `json:"short-link"`
}

// List godoc
// @Summary List recipes
// @Tags recipes
// @Produce json
// @Param page query int false "Page number"
// @Param limit query int false "Page size"
// @Param author query int false "Author ID"
// @Param tags query []string false "Tag slugs" collectionFormat(multi)
// @Param is_favorited query int false "Only favorites (1)"
// @Param is_in_shopping_cart query int false "Only cart recipes (1)"
// @Success 200 {object} PageResponse[service.RecipeView]
// @Router /recipes/ [get]
func (h *RecipeHandler) List(c echo.Context) error {
	query := service.RecipeQuery{
		AuthorID:         uint(max(queryInt(c, "author"), 0)),
		Tags:             c.QueryParams()["tags"],
		IsFavorited:      queryBool(c, "is_favorited"),
		IsInShoppingCart: queryBool(c, "is_in_shopping_cart"),
	}
	page, err := h.recipeService.List(c.Request().Context(), currentUser(c), query, pageRequest(c))
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusOK, newPageResponse(c, page))
}

// Get godoc
// @Summary Get recipe
// @Tags recipes
// @Produce json
// @Param id path int true "Recipe ID"
// @Success 200 {object} service.RecipeView
// @Failure 404 {object} errors.ErrorResponse
// @Router /recipes/{id}/ [get]
func (h *RecipeHandler) Get(c echo.Context) error {
	id, err := pathID(c, "id")
	if err != nil {
		return err
	}
	recipe, err := h.recipeService.Get(c.Request().Context(), currentUser(c), id)
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusOK, recipe)
}

// Create godoc
// @Summary Create recipe
// @Tags recipes
// @Security TokenAuth
// @Accept json
// @Produce json
// @Param recipe body service.RecipeInput true "Recipe payload"
// @Success 201 {object} service.RecipeView
// @Failure 400 {object} map[string][]string
// @Failure 401 {object} errors.ErrorResponse
// @Router /recipes/ [post]
func (h *RecipeHandler) Create(c echo.Context) error {
	var in service.RecipeInput
	if err := c.Bind(&in); err != nil {
		return badRequest("invalid request body")
	}
	if err := c.Validate(&in); err != nil {
		return fail(c, err)
	}
	recipe, err := h.recipeService.Create(c.Request().Context(), currentUser(c), in)
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusCreated, recipe)
}

// Update godoc
// @Summary Update recipe
// @Tags recipes
// @Security TokenAuth
// @Accept json
// @Produce json
// @Param id path int true "Recipe ID"
// @Param recipe body service.RecipeInput true "Recipe payload"
// @Success 200 {object} service.RecipeView
// @Failure 400 {object} map[string][]string
// @Failure 403 {object} errors.ErrorResponse
// @Failure 404 {object} errors.ErrorResponse
// @Router /recipes/{id}/ [patch]
func (h *RecipeHandler) Update(c echo.Context) error {
	id, err := pathID(c, "id")
	if err != nil {
		return err
	}
	var in service.RecipeInput
	if err := c.Bind(&in); err != nil {
		return badRequest("invalid request body")
	}
	if err := c.Validate(&in); err != nil {
		return fail(c, err)
	}
	recipe, err := h.recipeService.Update(c.Request().Context(), currentUser(c), id, in)
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusOK, recipe)
}

// Delete godoc
// @Summary Delete recipe
// @Tags recipes
// @Security TokenAuth
// @Param id path int true "Recipe ID"
// @Success 204
// @Failure 403 {object} errors.ErrorResponse
// @Failure 404 {object} errors.ErrorResponse
// @Router /recipes/{id}/ [delete]
func (h *RecipeHandler) Delete(c echo.Context) error {
	id, err := pathID(c, "id")
	if err != nil {
		return err
	}
	if err := h.recipeService.Delete(c.Request().Context(), currentUser(c), id); err != nil {
		return fail(c, err)
	}
	return c.NoContent(http.StatusNoContent)
}

// GetLink godoc
// @Summary Short link of a recipe
// @Tags recipes
// @Produce json
// @Param id path int true "Recipe ID"
// @Success 200 {object} ShortLinkResponse
// @Failure 404 {object} errors.ErrorResponse
// @Router /recipes/{id}/get-link/ [get]
func (h *RecipeHandler) GetLink(c echo.Context) error {
	id, err := pathID(c, "id")
	if err != nil {
		return err
	}
	link, err := h.recipeService.ShortLink(c.Request().Context(), id)
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusOK, ShortLinkResponse{ShortLink: link})
}

// FollowShortLink godoc
// @Summary Redirect a short link to its recipe
// @Tags recipes
// @Param code path string true "Short code"
// @Success 302
// @Failure 404 {object} errors.ErrorResponse
// @Router /s/{code}/ [get]
func (h *RecipeHandler) FollowShortLink(c echo.Context) error {
	id, err := h.recipeService.ResolveShortLink(c.Request().Context(), c.Param("code"))
	if err != nil {
		return fail(c, err)
	}
	return c.Redirect(http.StatusFound, fmt.Sprintf("/recipes/%d/", id))
}

// AddFavorite godoc
// @Summary Add recipe to favorites
// @Tags recipes
// @Security TokenAuth
// @Produce json
// @Param id path int true "Recipe ID"
// @Success 201 {object} service.RecipeShortView
// @Failure 400 {object} errors.ErrorResponse
// @Failure 404 {object} errors.ErrorResponse
// @Router /recipes/{id}/favorite/ [post]
func (h *RecipeHandler) AddFavorite(c echo.Context) error {
	return h.addRelation(c, h.relationService.AddFavorite)
}

// RemoveFavorite godoc
// @Summary Remove recipe from favorites
// @Tags recipes
// @Security TokenAuth
// @Param id path int true "Recipe ID"
// @Success 204
// @Failure 400 {object} errors.ErrorResponse
// @Failure 404 {object} errors.ErrorResponse
// @Router /recipes/{id}/favorite/ [delete]
func (h *RecipeHandler) RemoveFavorite(c echo.Context) error {
	return h.removeRelation(c, h.relationService.RemoveFavorite)
}

// AddToCart godoc
// @Summary Add recipe to shopping cart
// @Tags recipes
// @Security TokenAuth
// @Produce json
// @Param id path int true "Recipe ID"
// @Success 201 {object} service.RecipeShortView
// @Failure 400 {object} errors.ErrorResponse
// @Failure 404 {object} errors.ErrorResponse
// @Router /recipes/{id}/shopping_cart/ [post]
func (h *RecipeHandler) AddToCart(c echo.Context) error {
	return h.addRelation(c, h.relationService.AddToCart)
}

// RemoveFromCart godoc
// @Summary Remove recipe from shopping cart
// @Tags recipes
// @Security TokenAuth
// @Param id path int true "Recipe ID"
// @Success 204
// @Failure 400 {object} errors.ErrorResponse
// @Failure 404 {object} errors.ErrorResponse
// @Router /recipes/{id}/shopping_cart/ [delete]
func (h *RecipeHandler) RemoveFromCart(c echo.Context) error {
	return h.removeRelation(c, h.relationService.RemoveFromCart)
}

// DownloadShoppingCart godoc
// @Summary Download the aggregated shopping list
// @Tags recipes
// @Security TokenAuth
// @Produce plain
// @Success 200 {file} file
// @Failure 400 {object} errors.ErrorResponse
// @Failure 401 {object} errors.ErrorResponse
// @Router /recipes/download_shopping_cart/ [get]
func (h *RecipeHandler) DownloadShoppingCart(c echo.Context) error {
	data, err := h.shoppingList.Download(c.Request().Context(), currentUser(c))
	if err != nil {
		return fail(c, err)
	}
	c.Response().Header().Set(echo.HeaderContentDisposition,
		mime.FormatMediaType("attachment", map[string]string{"filename": service.ShoppingListFilename}))
	return c.Blob(http.StatusOK, "text/plain; charset=utf-8", data)
}

func (h *RecipeHandler) addRelation(c echo.Context, add func(context.Context, *model.User, uint) (*service.RecipeShortView, error)) error {
	id, err := pathID(c, "id")
	if err != nil {
		return err
	}
	recipe, err := add(c.Request().Context(), currentUser(c), id)
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusCreated, recipe)
}

func (h *RecipeHandler) removeRelation(c echo.Context, remove func(context.Context, *model.User, uint) error) error {
	id, err := pathID(c, "id")
	if err != nil {
		return err
	}
	if err := remove(c.Request().Context(), currentUser(c), id); err != nil {
		return fail(c, err)
	}
	return c.NoContent(http.StatusNoContent)
}
