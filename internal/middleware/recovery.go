package middleware

import (
	"net/http"
	"runtime/debug"

	"ishop-be/internal/logger"
	"ishop-be/internal/utils"

	"go.uber.org/zap"
)

// Recovery catches panics and returns a 500 error instead of crashing the server.
func Recovery(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if err := recover(); err != nil {
				logger.FromCtx(r.Context()).Error("panic recovered",
					zap.Any("panic", err),
					zap.String("path", r.URL.Path),
					zap.ByteString("stack", debug.Stack()),
				)
				utils.WriteJSONError(w, http.StatusInternalServerError, "internal server error", "")
			}
		}()
		next.ServeHTTP(w, r)
	})
}
