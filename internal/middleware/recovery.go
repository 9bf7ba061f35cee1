package middleware

import (
	"errors"
	"net/http"
	"runtime/debug"
	"syscall"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"

	"github.com/jwalitptl/clinic-portal/pkg/httputil"
)

// Recovery turns a handler panic into a 500. When the panic came from
// writing to a client that already hung up, nothing is written back.
func Recovery() gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			rec := recover()
			if rec == nil {
				return
			}

			if err, ok := rec.(error); ok && clientGone(err) {
				log.Warn().
					Err(err).
					Str("path", c.Request.URL.Path).
					Str("request_id", c.GetString(ContextRequestID)).
					Msg("client closed connection")
				c.Abort()
				return
			}

			log.Error().
				Interface("error", rec).
				Str("stack", string(debug.Stack())).
				Str("method", c.Request.Method).
				Str("path", c.Request.URL.Path).
				Str("request_id", c.GetString(ContextRequestID)).
				Str("user_id", AuthState(c).UserID()).
				Msg("Request panic recovered")

			c.AbortWithStatusJSON(http.StatusInternalServerError, httputil.Response{
				Status:  "error",
				Message: "Internal server error",
			})
		}()
		c.Next()
	}
}

func clientGone(err error) bool {
	return errors.Is(err, syscall.EPIPE) || errors.Is(err, syscall.ECONNRESET)
}
