package ginmw

import (
	"bytes"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/reoring/jsonvalidator"
	"github.com/reoring/jsonvalidator/middleware"
)

// ValidateJSON validates the request body with h. On success the body is
// replaced by the validated instance (defaults applied) and also stored in the
// request context; otherwise the request is aborted with an error payload.
func ValidateJSON(h *jsonvalidator.Handle) gin.HandlerFunc {
	return func(c *gin.Context) {
		body, err := io.ReadAll(io.LimitReader(c.Request.Body, middleware.DefaultMaxBodyBytes))
		if err != nil {
			c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		out, err := h.Validate(body)
		if err != nil {
			c.AbortWithStatusJSON(middleware.Status(err), middleware.ErrorPayload(err))
			return
		}
		c.Request = c.Request.WithContext(middleware.ContextWithBody(c.Request.Context(), out))
		c.Request.Body = io.NopCloser(bytes.NewReader(out))
		c.Request.ContentLength = int64(len(out))
		c.Next()
	}
}

// GetBody fetches the validated body from gin.Context.
func GetBody(c *gin.Context) ([]byte, bool) {
	return middleware.BodyFromContext(c.Request.Context())
}
