package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"foodgram/internal/errors"
	"foodgram/internal/service"
)

// UserHandler serves profiles, avatars, passwords and subscriptions.
type UserHandler struct {
	authService     service.AuthService
	userService     service.UserService
	relationService service.RelationService
}

// NewUserHandler creates a new user handler.
func NewUserHandler(authService service.AuthService, userService service.UserService, relationService service.RelationService) *UserHandler {
	return &UserHandler{
		authService:     authService,
		userService:     userService,
		relationService: relationService,
	}
}

// SignupRequest represents the registration payload.
type SignupRequest struct {
	Email     string `json:"email" validate:"required,email,max=254"`
	Username  string `json:"username" validate:"required,max=150,username"`
	FirstName string `json:"first_name" validate:"required,max=150"`
	LastName  string `json:"last_name" validate:"required,max=150"`
	Password  string `json:"password" validate:"required"`
}

// SignupResponse is the created user.
type SignupResponse struct {
	ID        uint   `json:"id"`
	Email     string `json:"email"`
	Username  string `json:"username"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
}

// AvatarRequest carries a base64 encoded image.
type AvatarRequest struct {
	Avatar string `json:"avatar" validate:"required"`
}

// AvatarResponse carries the stored avatar URL.
type AvatarResponse struct {
	Avatar string `json:"avatar"`
}

// SetPasswordRequest represents a password change.
type SetPasswordRequest struct {
	CurrentPassword string `json:"current_password" validate:"required"`
	NewPassword     string `json:"new_password" validate:"required"`
}

// Create godoc
// @Summary Register a user
// @Tags users
// @Accept json
// @Produce json
// @Param user body SignupRequest true "User payload"
// @Success 201 {object} SignupResponse
// @Failure 400 {object} map[string][]string
// @Router /users/ [post]
func (h *UserHandler) Create(c echo.Context) error {
	var req SignupRequest
	if err := c.Bind(&req); err != nil {
		return badRequest("invalid request body")
	}
	if err := c.Validate(&req); err != nil {
		return fail(c, err)
	}

	user, err := h.authService.Register(c.Request().Context(), service.SignupInput{
		Email:     req.Email,
		Username:  req.Username,
		FirstName: req.FirstName,
		LastName:  req.LastName,
		Password:  req.Password,
	})
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusCreated, SignupResponse{
		ID:        user.ID,
		Email:     user.Email,
		Username:  user.Username,
		FirstName: user.FirstName,
		LastName:  user.LastName,
	})
}

// List godoc
// @Summary List users
// @Tags users
// @Produce json
// @Param page query int false "Page number"
// @Param limit query int false "Page size"
// @Success 200 {object} PageResponse[service.UserView]
// @Router /users/ [get]
func (h *UserHandler) List(c echo.Context) error {
	page, err := h.userService.List(c.Request().Context(), currentUser(c), pageRequest(c))
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusOK, newPageResponse(c, page))
}

// Get godoc
// @Summary Get user profile
// @Tags users
// @Produce json
// @Param id path int true "User ID"
// @Success 200 {object} service.UserView
// @Failure 404 {object} errors.ErrorResponse
// @Router /users/{id}/ [get]
func (h *UserHandler) Get(c echo.Context) error {
	id, err := pathID(c, "id")
	if err != nil {
		return err
	}
	user, err := h.userService.Get(c.Request().Context(), currentUser(c), id)
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusOK, user)
}

// Delete godoc
// @Summary Users cannot be deleted through the API
// @Tags users
// @Param id path int true "User ID"
// @Failure 405 {object} errors.ErrorResponse
// @Router /users/{id}/ [delete]
func (h *UserHandler) Delete(c echo.Context) error {
	return fail(c, errors.ErrMethodNotAllowed)
}

// Me godoc
// @Summary Current user
// @Tags users
// @Security TokenAuth
// @Produce json
// @Success 200 {object} service.UserView
// @Failure 401 {object} errors.ErrorResponse
// @Router /users/me/ [get]
func (h *UserHandler) Me(c echo.Context) error {
	user, err := h.userService.Me(c.Request().Context(), currentUser(c))
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusOK, user)
}

// SetAvatar godoc
// @Summary Upload avatar
// @Tags users
// @Security TokenAuth
// @Accept json
// @Produce json
// @Param request body AvatarRequest true "Base64 image"
// @Success 200 {object} AvatarResponse
// @Failure 400 {object} map[string][]string
// @Router /users/me/avatar/ [put]
func (h *UserHandler) SetAvatar(c echo.Context) error {
	var req AvatarRequest
	if err := c.Bind(&req); err != nil {
		return badRequest("invalid request body")
	}
	if err := c.Validate(&req); err != nil {
		return fail(c, err)
	}
	url, err := h.userService.SetAvatar(c.Request().Context(), currentUser(c), req.Avatar)
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusOK, AvatarResponse{Avatar: url})
}

// DeleteAvatar godoc
// @Summary Remove avatar
// @Tags users
// @Security TokenAuth
// @Success 204
// @Failure 404 {object} errors.ErrorResponse
// @Router /users/me/avatar/ [delete]
func (h *UserHandler) DeleteAvatar(c echo.Context) error {
	if err := h.userService.DeleteAvatar(c.Request().Context(), currentUser(c)); err != nil {
		return fail(c, err)
	}
	return c.NoContent(http.StatusNoContent)
}

// SetPassword godoc
// @Summary Change password
// @Tags users
// @Security TokenAuth
// @Accept json
// @Param request body SetPasswordRequest true "Passwords"
// @Success 204
// @Failure 400 {object} map[string][]string
// @Router /users/set_password/ [post]
func (h *UserHandler) SetPassword(c echo.Context) error {
	var req SetPasswordRequest
	if err := c.Bind(&req); err != nil {
		return badRequest("invalid request body")
	}
	if err := c.Validate(&req); err != nil {
		return fail(c, err)
	}
	if err := h.userService.SetPassword(c.Request().Context(), currentUser(c), req.CurrentPassword, req.NewPassword); err != nil {
		return fail(c, err)
	}
	return c.NoContent(http.StatusNoContent)
}

// Subscribe godoc
// @Summary Subscribe to a user
// @Tags users
// @Security TokenAuth
// @Produce json
// @Param id path int true "User ID"
// @Param recipes_limit query int false "Recipes per author"
// @Success 201 {object} service.SubscriptionView
// @Failure 400 {object} errors.ErrorResponse
// @Failure 404 {object} errors.ErrorResponse
// @Router /users/{id}/subscribe/ [post]
func (h *UserHandler) Subscribe(c echo.Context) error {
	id, err := pathID(c, "id")
	if err != nil {
		return err
	}
	ctx := c.Request().Context()
	viewer := currentUser(c)

	target, err := h.relationService.Subscribe(ctx, viewer, id)
	if err != nil {
		return fail(c, err)
	}
	view, err := h.userService.Subscription(ctx, viewer, target, queryInt(c, "recipes_limit"))
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusCreated, view)
}

// Unsubscribe godoc
// @Summary Unsubscribe from a user
// @Tags users
// @Security TokenAuth
// @Param id path int true "User ID"
// @Success 204
// @Failure 400 {object} errors.ErrorResponse
// @Failure 404 {object} errors.ErrorResponse
// @Router /users/{id}/subscribe/ [delete]
func (h *UserHandler) Unsubscribe(c echo.Context) error {
	id, err := pathID(c, "id")
	if err != nil {
		return err
	}
	if err := h.relationService.Unsubscribe(c.Request().Context(), currentUser(c), id); err != nil {
		return fail(c, err)
	}
	return c.NoContent(http.StatusNoContent)
}

// Subscriptions godoc
// @Summary Users the current user follows
// @Tags users
// @Security TokenAuth
// @Produce json
// @Param page query int false "Page number"
// @Param limit query int false "Page size"
// @Param recipes_limit query int false "Recipes per author"
// @Success 200 {object} PageResponse[service.SubscriptionView]
// @Router /users/subscriptions/ [get]
func (h *UserHandler) Subscriptions(c echo.Context) error {
	page, err := h.userService.Subscriptions(c.Request().Context(), currentUser(c), pageRequest(c), queryInt(c, "recipes_limit"))
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusOK, newPageResponse(c, page))
}
