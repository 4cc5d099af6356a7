package api

import (
	"log/slog"

	"github.com/gin-gonic/gin"

	"github.com/your-org/liftlog/internal/apperr"
	"github.com/your-org/liftlog/pkg/dto"
)

// ErrorHandler renders the first error a handler or middleware recorded
// with c.Error. Only the code and short message reach the caller.
func ErrorHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		if len(c.Errors) == 0 || c.Writer.Written() {
			return
		}

		e := apperr.From(c.Errors[0].Err)
		if e.Code == apperr.CodeInternal {
			slog.Error("request failed",
				"path", c.Request.URL.Path,
				"request_id", c.GetString("request_id"),
				"error", c.Errors[0].Err,
			)
		}
		c.JSON(e.Code.HTTPStatus(), dto.ErrorResponse{Error: string(e.Code), Message: e.Message})
	}
}
