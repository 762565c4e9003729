package middleware

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"

	"oahelper-api/internal/api/respond"

	"github.com/gin-gonic/gin"
	"github.com/microcosm-cc/bluemonday"
)

// Fields compared or hashed verbatim, or holding code that must keep its
// angle brackets.
var sanitizeSkip = map[string]bool{
	"password":      true,
	"new_password":  true,
	"old_password":  true,
	"code":          true,
	"solution_code": true,
}

// SanitizeAndCleanInputMiddleware cleans top-level string fields in JSON input using bluemonday
func SanitizeAndCleanInputMiddleware() gin.HandlerFunc {
	policy := bluemonday.StrictPolicy()

	return func(c *gin.Context) {
		// Only for JSON requests
		if c.Request.Method != http.MethodPost &&
			c.Request.Method != http.MethodPut &&
			c.Request.Method != http.MethodPatch {
			c.Next()
			return
		}

		buf, err := io.ReadAll(c.Request.Body)
		if err != nil {
			respond.Abort(c, http.StatusBadRequest, "Invalid body")
			return
		}
		if len(bytes.TrimSpace(buf)) == 0 {
			c.Request.Body = io.NopCloser(bytes.NewReader(buf))
			c.Next()
			return
		}

		var body map[string]interface{}
		dec := json.NewDecoder(bytes.NewReader(buf))
		dec.UseNumber()
		if err := dec.Decode(&body); err != nil {
			respond.Abort(c, http.StatusBadRequest, "Invalid JSON input")
			return
		}

		for k, v := range body {
			if sanitizeSkip[k] {
				continue
			}
			if str, ok := v.(string); ok {
				body[k] = policy.Sanitize(str)
			}
		}

		// Marshal sanitized body back
		newBody, _ := json.Marshal(body)
		c.Request.Body = io.NopCloser(bytes.NewBuffer(newBody))
		c.Request.ContentLength = int64(len(newBody))

		c.Next()
	}
}
