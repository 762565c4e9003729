package middleware

import (
	"fmt"
	"net/http"

	"oahelper-api/internal/api/respond"
	"oahelper-api/internal/platform/logger"

	"github.com/gin-gonic/gin"
)

// Recovery turns a panic into the standard error envelope.
func Recovery() gin.HandlerFunc {
	return gin.CustomRecovery(func(c *gin.Context, recovered any) {
		logger.From(c).WithField("panic", fmt.Sprint(recovered)).Error("recovered from panic")
		respond.Abort(c, http.StatusInternalServerError, respond.MsgGeneric)
	})
}
