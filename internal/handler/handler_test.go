package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"foodgram/internal/errors"
	"foodgram/internal/model"
	"foodgram/internal/service"
	"foodgram/internal/validation"
)

type MockRelationService struct {
	mock.Mock
}

func (m *MockRelationService) AddFavorite(ctx context.Context, actor *model.User, recipeID uint) (*service.RecipeShortView, error) {
	args := m.Called(ctx, actor, recipeID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*service.RecipeShortView), args.Error(1)
}

func (m *MockRelationService) RemoveFavorite(ctx context.Context, actor *model.User, recipeID uint) error {
	return m.Called(ctx, actor, recipeID).Error(0)
}

func (m *MockRelationService) AddToCart(ctx context.Context, actor *model.User, recipeID uint) (*service.RecipeShortView, error) {
	args := m.Called(ctx, actor, recipeID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*service.RecipeShortView), args.Error(1)
}

func (m *MockRelationService) RemoveFromCart(ctx context.Context, actor *model.User, recipeID uint) error {
	return m.Called(ctx, actor, recipeID).Error(0)
}

func (m *MockRelationService) Subscribe(ctx context.Context, actor *model.User, userID uint) (*model.User, error) {
	args := m.Called(ctx, actor, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.User), args.Error(1)
}

func (m *MockRelationService) Unsubscribe(ctx context.Context, actor *model.User, userID uint) error {
	return m.Called(ctx, actor, userID).Error(0)
}

type MockShoppingListService struct {
	mock.Mock
}

func (m *MockShoppingListService) Build(ctx context.Context, user *model.User) (*service.ShoppingList, error) {
	args := m.Called(ctx, user)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*service.ShoppingList), args.Error(1)
}

func (m *MockShoppingListService) Download(ctx context.Context, user *model.User) ([]byte, error) {
	args := m.Called(ctx, user)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]byte), args.Error(1)
}

var alice = &model.User{ID: 1, Username: "alice"}

// newTestEcho mounts the recipe relation routes with alice authenticated.
func newTestEcho(h *RecipeHandler) *echo.Echo {
	e := echo.New()
	e.Validator = validation.New()
	e.Use(func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			c.Set(PrincipalKey, &service.Principal{User: alice})
			return next(c)
		}
	})
	e.POST("/api/recipes/", h.Create)
	e.PATCH("/api/recipes/:id/", h.Update)
	e.POST("/api/recipes/:id/favorite/", h.AddFavorite)
	e.DELETE("/api/recipes/:id/favorite/", h.RemoveFavorite)
	e.POST("/api/recipes/:id/shopping_cart/", h.AddToCart)
	e.GET("/api/recipes/download_shopping_cart/", h.DownloadShoppingCart)
	return e
}

func serve(e *echo.Echo, method, target string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, target, nil)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec
}

func decode(t *testing.T, rec *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	return body
}

func TestRecipeHandler_RejectsInvalidPayload(t *testing.T) {
	tests := []struct {
		name   string
		method string
		target string
		body   string
		fields []string
	}{
		{
			name:   "duplicate ingredients on create",
			method: http.MethodPost,
			target: "/api/recipes/",
			body: `{"name":"Soup","text":"Boil.","image":"data:image/png;base64,AAAA","cooking_time":10,` +
				`"tags":[1],"ingredients":[{"id":1,"amount":2},{"id":1,"amount":3}]}`,
			fields: []string{"ingredients"},
		},
		{
			name:   "cooking time and amount out of range on update",
			method: http.MethodPatch,
			target: "/api/recipes/7/",
			body:   `{"cooking_time":0,"tags":[1,1],"ingredients":[{"id":1,"amount":0}]}`,
			fields: []string{"cooking_time", "ingredients", "tags"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			// A nil recipe service panics if validation lets the request through.
			e := newTestEcho(NewRecipeHandler(nil, nil, nil))
			req := httptest.NewRequest(tt.method, tt.target, strings.NewReader(tt.body))
			req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
			rec := httptest.NewRecorder()
			e.ServeHTTP(rec, req)

			assert.Equal(t, http.StatusBadRequest, rec.Code)
			body := decode(t, rec)
			assert.Equal(t, "VALIDATION_ERROR", body["code"])
			for _, field := range tt.fields {
				assert.Contains(t, body, field)
			}
		})
	}
}

func TestRecipeHandler_FavoriteTwice(t *testing.T) {
	relations := new(MockRelationService)
	relations.On("AddFavorite", mock.Anything, alice, uint(10)).
		Return(&service.RecipeShortView{ID: 10, Name: "Soup", CookingTime: 5}, nil).Once()
	relations.On("AddFavorite", mock.Anything, alice, uint(10)).
		Return(nil, errors.AlreadyExists("recipe is already in favorites")).Once()

	e := newTestEcho(NewRecipeHandler(nil, relations, nil))

	rec := serve(e, http.MethodPost, "/api/recipes/10/favorite/")
	assert.Equal(t, http.StatusCreated, rec.Code)
	assert.Equal(t, "Soup", decode(t, rec)["name"])

	rec = serve(e, http.MethodPost, "/api/recipes/10/favorite/")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "recipe is already in favorites", decode(t, rec)["detail"])
	relations.AssertExpectations(t)
}

func TestRecipeHandler_UnfavoriteTwice(t *testing.T) {
	relations := new(MockRelationService)
	relations.On("RemoveFavorite", mock.Anything, alice, uint(10)).Return(nil).Once()
	relations.On("RemoveFavorite", mock.Anything, alice, uint(10)).
		Return(errors.New(errors.ErrRelationNotFound, "recipe is not in favorites")).Once()

	e := newTestEcho(NewRecipeHandler(nil, relations, nil))

	rec := serve(e, http.MethodDelete, "/api/recipes/10/favorite/")
	assert.Equal(t, http.StatusNoContent, rec.Code)

	rec = serve(e, http.MethodDelete, "/api/recipes/10/favorite/")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "RELATION_NOT_FOUND", decode(t, rec)["code"])
}

func TestRecipeHandler_FavoriteMissingRecipe(t *testing.T) {
	relations := new(MockRelationService)
	relations.On("AddToCart", mock.Anything, alice, uint(99)).Return(nil, errors.NotFound("recipe"))

	e := newTestEcho(NewRecipeHandler(nil, relations, nil))

	rec := serve(e, http.MethodPost, "/api/recipes/99/shopping_cart/")
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = serve(e, http.MethodPost, "/api/recipes/abc/shopping_cart/")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestRecipeHandler_DownloadShoppingCart(t *testing.T) {
	t.Run("empty cart", func(t *testing.T) {
		lists := new(MockShoppingListService)
		lists.On("Download", mock.Anything, alice).Return(nil, errors.ErrEmptyCart)

		rec := serve(newTestEcho(NewRecipeHandler(nil, nil, lists)), http.MethodGet, "/api/recipes/download_shopping_cart/")

		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Equal(t, "cart empty", decode(t, rec)["detail"])
	})

	t.Run("attachment", func(t *testing.T) {
		lists := new(MockShoppingListService)
		lists.On("Download", mock.Anything, alice).Return([]byte("SHOPPING LIST"), nil)

		rec := serve(newTestEcho(NewRecipeHandler(nil, nil, lists)), http.MethodGet, "/api/recipes/download_shopping_cart/")

		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, `attachment; filename=shopping_list.txt`, rec.Header().Get(echo.HeaderContentDisposition))
		assert.Equal(t, "text/plain; charset=utf-8", rec.Header().Get(echo.HeaderContentType))
		assert.Equal(t, "SHOPPING LIST", rec.Body.String())
	})
}

func TestNewPageResponse(t *testing.T) {
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "http://example.com/api/recipes/?page=2&limit=2&tags=lunch", nil)
	c := e.NewContext(req, httptest.NewRecorder())

	page := &service.Page[int]{Items: []int{3, 4}, Total: 5, PageRequest: service.NewPageRequest(2, 2)}
	resp := newPageResponse(c, page)

	assert.Equal(t, int64(5), resp.Count)
	require.NotNil(t, resp.Next)
	assert.Equal(t, "http://example.com/api/recipes/?limit=2&page=3&tags=lunch", *resp.Next)
	require.NotNil(t, resp.Previous)
	assert.Equal(t, "http://example.com/api/recipes/?limit=2&tags=lunch", *resp.Previous)

	last := newPageResponse(c, &service.Page[int]{Total: 0, PageRequest: service.NewPageRequest(1, 2)})
	assert.Nil(t, last.Next)
	assert.Nil(t, last.Previous)
	assert.Equal(t, []int{}, last.Results)
}
