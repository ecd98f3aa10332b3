package gateway

import (
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/example/shoppurs/pkg/apperr"
	"github.com/example/shoppurs/pkg/auth"
)

const principalKey = "principal"

func loggerMiddleware(logger *zap.Logger) gin.HandlerFunc {
	logger = logger.Named("http")
	return func(c *gin.Context) {
		start := time.Now()
		path := c.Request.URL.Path
		query := c.Request.URL.RawQuery

		c.Next()

		fields := []zap.Field{
			zap.String("method", c.Request.Method),
			zap.String("path", path),
			zap.String("query", query),
			zap.Int("status", c.Writer.Status()),
			zap.Duration("latency", time.Since(start)),
		}
		if p, ok := c.Get(principalKey); ok {
			fields = append(fields, zap.Uint("user_id", p.(*auth.Principal).UserID))
		}
		logger.Info("HTTP request", fields...)
	}
}

func (g *Gateway) authMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		token, err := auth.BearerToken(c.GetHeader("Authorization"))
		if err != nil {
			g.fail(c, apperr.Wrap(apperr.KindUnauthenticated, "Authentication required", err))
			return
		}
		p, err := g.services.Tokens.Resolve(token)
		if err != nil {
			g.fail(c, err)
			return
		}
		c.Set(principalKey, p)
		c.Next()
	}
}

func requireStaff() gin.HandlerFunc {
	return func(c *gin.Context) {
		if !principal(c).IsStaff() {
			c.AbortWithStatusJSON(apperr.HTTPStatus(apperr.KindForbidden),
				envelope{Success: false, Message: "Staff access required"})
			return
		}
		c.Next()
	}
}

func principal(c *gin.Context) *auth.Principal {
	return c.MustGet(principalKey).(*auth.Principal)
}
