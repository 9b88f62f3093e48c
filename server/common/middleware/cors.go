package middleware

import (
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"snd_media/server/common/transport/httpresp"
)

// CORS restricts cross-origin access to allowedOrigins and lets those origins send credentials.
// Requests from any other Origin get a JSON 403 before they reach a handler.
func CORS(allowedOrigins []string) gin.HandlerFunc {
	cfg := cors.DefaultConfig()
	cfg.AllowOrigins = append([]string(nil), allowedOrigins...)
	cfg.AllowCredentials = true
	cfg.AllowMethods = []string{"GET", "POST", "OPTIONS"}
	cfg.AllowHeaders = []string{"Origin", "Content-Type", "Content-Length", "Authorization", "X-Requested-With"}
	cfg.MaxAge = 12 * time.Hour
	handler := cors.New(cfg)

	allowed := make(map[string]struct{}, len(allowedOrigins))
	for _, origin := range allowedOrigins {
		allowed[origin] = struct{}{}
	}

	return func(c *gin.Context) {
		if !originAllowed(c.Request, allowed) {
			c.AbortWithStatusJSON(http.StatusForbidden, httpresp.NewErrorResponse(httpresp.ErrNotAllowedByCORS))
			return
		}
		handler(c)
	}
}

// originAllowed mirrors gin-contrib/cors: requests without an Origin, or whose Origin is the
// server's own host, are not cross-origin.
func originAllowed(r *http.Request, allowed map[string]struct{}) bool {
	origin := r.Header.Get("Origin")
	if origin == "" || origin == "http://"+r.Host || origin == "https://"+r.Host {
		return true
	}
	_, ok := allowed[origin]
	return ok
}
