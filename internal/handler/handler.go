package handler

import (
	"net/http"
	"net/url"
	"strconv"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog/log"

	"foodgram/internal/errors"
	"foodgram/internal/model"
	"foodgram/internal/service"
)

// PrincipalKey is the echo context key holding the authenticated *service.Principal.
const PrincipalKey = "principal"

// PageResponse is the paginated list envelope.
type PageResponse[T any] struct {
	Count    int64   `json:"count"`
	Next     *string `json:"next"`
	Previous *string `json:"previous"`
	Results  []T     `json:"results"`
}

// principal returns the authenticated caller, or nil for anonymous requests.
func principal(c echo.Context) *service.Principal {
	p, _ := c.Get(PrincipalKey).(*service.Principal)
	return p
}

// currentUser returns the authenticated user, or nil.
func currentUser(c echo.Context) *model.User {
	if p := principal(c); p != nil {
		return p.User
	}
	return nil
}

// fail converts err into an echo error carrying the JSON error body.
func fail(c echo.Context, err error) error {
	httpErr := errors.MapErrorToHTTP(err)
	if httpErr.StatusCode >= http.StatusInternalServerError {
		log.Error().Err(err).
			Str("method", c.Request().Method).
			Str("path", c.Request().URL.Path).
			Msg("request failed")
	}
	return echo.NewHTTPError(httpErr.StatusCode, httpErr.Body())
}

func badRequest(detail string) error {
	return echo.NewHTTPError(http.StatusBadRequest, errors.ErrorResponse{Detail: detail, Code: "BAD_REQUEST"})
}

// pathID parses a positive numeric path parameter. Malformed IDs are reported
// as not found since they cannot match any row.
func pathID(c echo.Context, name string) (uint, error) {
	id, err := strconv.ParseUint(c.Param(name), 10, 64)
	if err != nil || id == 0 {
		return 0, echo.NewHTTPError(http.StatusNotFound, errors.ErrorResponse{Detail: "not found", Code: "NOT_FOUND"})
	}
	return uint(id), nil
}

func queryInt(c echo.Context, name string) int {
	n, err := strconv.Atoi(c.QueryParam(name))
	if err != nil {
		return 0
	}
	return n
}

func queryBool(c echo.Context, name string) bool {
	switch c.QueryParam(name) {
	case "1", "true", "True":
		return true
	}
	return false
}

func pageRequest(c echo.Context) service.PageRequest {
	return service.NewPageRequest(queryInt(c, "page"), queryInt(c, "limit"))
}

// pageLink builds an absolute URL of the current request with page replaced.
func pageLink(c echo.Context, page int) *string {
	req := c.Request()
	u := url.URL{Scheme: c.Scheme(), Host: req.Host, Path: req.URL.Path}
	q := req.URL.Query()
	if page <= 1 {
		q.Del("page")
	} else {
		q.Set("page", strconv.Itoa(page))
	}
	u.RawQuery = q.Encode()
	link := u.String()
	return &link
}

func newPageResponse[T any](c echo.Context, page *service.Page[T]) PageResponse[T] {
	resp := PageResponse[T]{Count: page.Total, Results: page.Items}
	if resp.Results == nil {
		resp.Results = []T{}
	}
	if page.HasNext() {
		resp.Next = pageLink(c, page.Page+1)
	}
	if page.HasPrevious() {
		resp.Previous = pageLink(c, page.Page-1)
	}
	return resp
}
