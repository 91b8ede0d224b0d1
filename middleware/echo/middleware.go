package echomw

import (
	"bytes"
	"io"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/reoring/jsonvalidator"
	"github.com/reoring/jsonvalidator/middleware"
)

// ValidateJSON validates the request body with h. On success the body is
// replaced by the validated instance (defaults applied) and also stored in the
// request context; otherwise it answers with an error payload.
func ValidateJSON(h *jsonvalidator.Handle) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			body, err := io.ReadAll(io.LimitReader(c.Request().Body, middleware.DefaultMaxBodyBytes))
			if err != nil {
				return c.JSON(http.StatusBadRequest, map[string]any{"error": err.Error()})
			}
			out, err := h.Validate(body)
			if err != nil {
				return c.JSON(middleware.Status(err), middleware.ErrorPayload(err))
			}
			req := c.Request().WithContext(middleware.ContextWithBody(c.Request().Context(), out))
			req.Body = io.NopCloser(bytes.NewReader(out))
			req.ContentLength = int64(len(out))
			c.SetRequest(req)
			return next(c)
		}
	}
}

// GetBody fetches the validated body from echo.Context.
func GetBody(c echo.Context) ([]byte, bool) {
	return middleware.BodyFromContext(c.Request().Context())
}
