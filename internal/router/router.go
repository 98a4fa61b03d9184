package router

import (
	"net/http"
	"strings"

	echojwt "github.com/labstack/echo-jwt/v4"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	echoSwagger "github.com/swaggo/echo-swagger"

	"foodgram/docs"
	"foodgram/internal/config"
	apperrors "foodgram/internal/errors"
	"foodgram/internal/handler"
	"foodgram/internal/service"
	"foodgram/internal/validation"
)

// authFailureKey holds the error of a presented but rejected token.
const authFailureKey = "auth_failure"

// Handlers groups the HTTP handlers mounted by Register.
type Handlers struct {
	Auth    *handler.AuthHandler
	User    *handler.UserHandler
	Recipe  *handler.RecipeHandler
	Catalog *handler.CatalogHandler
}

// Register wires routes and middleware.
func Register(e *echo.Echo, cfg *config.Config, authService service.AuthService, h Handlers) {
	e.Pre(middleware.AddTrailingSlashWithConfig(middleware.TrailingSlashConfig{
		Skipper: func(c echo.Context) bool {
			return strings.HasPrefix(c.Request().URL.Path, "/swagger/")
		},
	}))
	e.Use(middleware.RequestID())
	e.Use(middleware.Recover())
	e.Use(requestLogger())

	e.Validator = validation.New()
	e.HTTPErrorHandler = errorHandler(e)

	if cfg.SwaggerHost != "" {
		docs.SwaggerInfo.Host = cfg.SwaggerHost
	}

	e.GET("/healthz/", func(c echo.Context) error {
		return c.String(http.StatusOK, "ok")
	})
	e.GET("/swagger/*", echoSwagger.WrapHandler)
	e.GET("/s/:code/", h.Recipe.FollowShortLink)

	api := e.Group("/api", optionalAuth(authService))

	api.POST("/auth/token/login/", h.Auth.Login)
	api.POST("/auth/token/logout/", h.Auth.Logout, requireAuth)

	api.GET("/users/", h.User.List)
	api.POST("/users/", h.User.Create)
	api.GET("/users/me/", h.User.Me, requireAuth)
	api.PUT("/users/me/avatar/", h.User.SetAvatar, requireAuth)
	api.DELETE("/users/me/avatar/", h.User.DeleteAvatar, requireAuth)
	api.POST("/users/set_password/", h.User.SetPassword, requireAuth)
	api.GET("/users/subscriptions/", h.User.Subscriptions, requireAuth)
	api.GET("/users/:id/", h.User.Get)
	api.DELETE("/users/:id/", h.User.Delete)
	api.POST("/users/:id/subscribe/", h.User.Subscribe, requireAuth)
	api.DELETE("/users/:id/subscribe/", h.User.Unsubscribe, requireAuth)

	api.GET("/tags/", h.Catalog.ListTags)
	api.GET("/tags/:id/", h.Catalog.GetTag)
	api.GET("/ingredients/", h.Catalog.ListIngredients)
	api.GET("/ingredients/:id/", h.Catalog.GetIngredient)

	api.GET("/recipes/", h.Recipe.List)
	api.POST("/recipes/", h.Recipe.Create, requireAuth)
	api.GET("/recipes/download_shopping_cart/", h.Recipe.DownloadShoppingCart, requireAuth)
	api.GET("/recipes/:id/", h.Recipe.Get)
	api.PATCH("/recipes/:id/", h.Recipe.Update, requireAuth)
	api.DELETE("/recipes/:id/", h.Recipe.Delete, requireAuth)
	api.GET("/recipes/:id/get-link/", h.Recipe.GetLink)
	api.POST("/recipes/:id/favorite/", h.Recipe.AddFavorite, requireAuth)
	api.DELETE("/recipes/:id/favorite/", h.Recipe.RemoveFavorite, requireAuth)
	api.POST("/recipes/:id/shopping_cart/", h.Recipe.AddToCart, requireAuth)
	api.DELETE("/recipes/:id/shopping_cart/", h.Recipe.RemoveFromCart, requireAuth)
}

// optionalAuth authenticates "Token <jwt>" or "Bearer <jwt>" headers. Requests
// without a token continue anonymously; a rejected token fails with 401.
func optionalAuth(authService service.AuthService) echo.MiddlewareFunc {
	return echojwt.WithConfig(echojwt.Config{
		ContextKey:             handler.PrincipalKey,
		TokenLookup:            "header:" + echo.HeaderAuthorization + ":Token ,header:" + echo.HeaderAuthorization + ":Bearer ",
		ContinueOnIgnoredError: true,
		ParseTokenFunc: func(c echo.Context, token string) (interface{}, error) {
			p, err := authService.Authenticate(c.Request().Context(), token)
			if err != nil {
				c.Set(authFailureKey, err)
				return nil, err
			}
			return p, nil
		},
		ErrorHandler: func(c echo.Context, err error) error {
			if failure, ok := c.Get(authFailureKey).(error); ok {
				httpErr := apperrors.MapErrorToHTTP(failure)
				return echo.NewHTTPError(httpErr.StatusCode, httpErr.Body())
			}
			return nil
		},
	})
}

// requireAuth rejects anonymous requests.
func requireAuth(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		if _, ok := c.Get(handler.PrincipalKey).(*service.Principal); !ok {
			httpErr := apperrors.MapErrorToHTTP(apperrors.ErrAuthRequired)
			return echo.NewHTTPError(httpErr.StatusCode, httpErr.Body())
		}
		return next(c)
	}
}

func requestLogger() echo.MiddlewareFunc {
	return middleware.RequestLoggerWithConfig(middleware.RequestLoggerConfig{
		LogMethod:    true,
		LogURI:       true,
		LogStatus:    true,
		LogLatency:   true,
		LogRequestID: true,
		LogRemoteIP:  true,
		LogValuesFunc: func(c echo.Context, v middleware.RequestLoggerValues) error {
			var event *zerolog.Event
			switch {
			case v.Status >= http.StatusInternalServerError:
				event = log.Error()
			case v.Status >= http.StatusBadRequest:
				event = log.Warn()
			default:
				event = log.Info()
			}
			event.
				Str("method", v.Method).
				Str("uri", v.URI).
				Int("status", v.Status).
				Dur("latency", v.Latency).
				Str("request_id", v.RequestID).
				Str("remote_ip", v.RemoteIP).
				Msg("HTTP request")
			return nil
		},
	})
}

// errorHandler renders echo's own errors (unknown route, wrong method) in the
// API's {"detail", "code"} shape and passes handler errors through unchanged.
func errorHandler(e *echo.Echo) echo.HTTPErrorHandler {
	return func(err error, c echo.Context) {
		if he, ok := err.(*echo.HTTPError); ok {
			if msg, isString := he.Message.(string); isString {
				err = echo.NewHTTPError(he.Code, apperrors.ErrorResponse{
					Detail: msg,
					Code:   statusCode(he.Code),
				})
			}
		}
		e.DefaultHTTPErrorHandler(err, c)
	}
}

// statusCode turns 404 into "NOT_FOUND" and so on.
func statusCode(status int) string {
	return strings.ToUpper(strings.ReplaceAll(http.StatusText(status), " ", "_"))
}
