// Package respond writes the {status, message, data} envelope every endpoint
// answers with.
package respond

import (
	"net/http"

	"oahelper-api/internal/domain/apperror"
	"oahelper-api/internal/platform/logger"

	"github.com/gin-gonic/gin"
)

const (
	StatusSuccess = "success"
	StatusError   = "error"

	// MsgGeneric replaces infrastructure error detail outside development.
	MsgGeneric = "A database error occurred."

	devKey = "respond.development"
)

// Mode records whether infrastructure error detail may be shown to clients.
func Mode(development bool) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Set(devKey, development)
		c.Next()
	}
}

func development(c *gin.Context) bool {
	return c.GetBool(devKey)
}

// Success writes status "success" with optional message and data.
func Success(c *gin.Context, message string, data any) {
	body := gin.H{"status": StatusSuccess}
	if message != "" {
		body["message"] = message
	}
	if data != nil {
		body["data"] = data
	}
	c.JSON(http.StatusOK, body)
}

// With writes a success envelope with extra top-level keys, for the legacy
// endpoints that return user, reset_verified and similar beside message.
func With(c *gin.Context, message string, extra gin.H) {
	body := gin.H{"status": StatusSuccess, "message": message}
	for k, v := range extra {
		body[k] = v
	}
	c.JSON(http.StatusOK, body)
}

// Error writes a business failure. These are always HTTP 200.
func Error(c *gin.Context, message string) {
	c.JSON(http.StatusOK, gin.H{"status": StatusError, "message": message})
}

// Abort is used by the gatekeepers, which answer with real status codes.
func Abort(c *gin.Context, status int, message string) {
	c.AbortWithStatusJSON(status, gin.H{"status": StatusError, "message": message})
}

// Fail reports err. Business errors keep their message and data; anything
// else is logged and hidden behind MsgGeneric unless running in development.
func Fail(c *gin.Context, err error) {
	if appErr, ok := apperror.As(err); ok {
		body := gin.H{"status": StatusError, "message": appErr.Message}
		if appErr.Data != nil {
			body["data"] = appErr.Data
		}
		c.JSON(http.StatusOK, body)
		return
	}
	logger.From(c).WithError(err).WithField("route", c.FullPath()).Error("request failed")
	message := MsgGeneric
	if development(c) {
		message = err.Error()
	}
	c.JSON(http.StatusInternalServerError, gin.H{"status": StatusError, "message": message})
}
