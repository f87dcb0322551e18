package middleware

import (
	"errors"
	"net"
	"net/http"
	"net/http/httputil"
	"os"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

func Recovery(logger *zap.Logger) gin.HandlerFunc {
	return gin.CustomRecovery(func(c *gin.Context, recovered any) {
		if err, ok := recovered.(error); ok && brokenPipe(err) {
			c.Abort()
			return
		}

		if gin.IsDebugging() {
			httpRequest, _ := httputil.DumpRequest(c.Request, false)
			logger.Error("Panic recovered",
				zap.Any("panic", recovered),
				zap.ByteString("request", httpRequest),
				zap.Stack("stack"),
			)
		} else {
			logger.Error("Panic recovered", zap.Any("panic", recovered), zap.String("path", c.Request.URL.Path))
		}
		c.AbortWithStatus(http.StatusInternalServerError)
	})
}

func brokenPipe(err error) bool {
	var ne *net.OpError
	if !errors.As(err, &ne) {
		return false
	}
	var se *os.SyscallError
	if !errors.As(ne.Err, &se) {
		return false
	}
	msg := strings.ToLower(se.Error())
	return strings.Contains(msg, "broken pipe") || strings.Contains(msg, "connection reset by peer")
}
