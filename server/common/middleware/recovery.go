package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"

	commonlog "snd_media/server/common/log"
	"snd_media/server/common/transport/httpresp"
)

// Recovery turns a panic inside a handler into the JSON failure envelope.
func Recovery() gin.HandlerFunc {
	return gin.CustomRecovery(func(c *gin.Context, recovered any) {
		commonlog.Exceptionf("panic serving %s %s: %v", c.Request.Method, c.Request.URL.Path, recovered)
		c.AbortWithStatusJSON(http.StatusInternalServerError, httpresp.NewErrorResponse(httpresp.ErrInternal))
	})
}
