package logger

import (
	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

const ginKey = "logger"

// Attach stores the request scoped entry on the gin context.
func Attach(c *gin.Context, entry *logrus.Entry) {
	c.Set(ginKey, entry)
}

// From returns the request scoped entry, or the standard logger when the
// request id middleware did not run.
func From(c *gin.Context) *logrus.Entry {
	if v, ok := c.Get(ginKey); ok {
		if entry, ok := v.(*logrus.Entry); ok {
			return entry
		}
	}
	return logrus.NewEntry(logrus.StandardLogger())
}
