package http

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"taskchat/internal/domain"
	"taskchat/internal/service"
)

const (
	requestContextKey = "request_context"
	requestIDHeader   = "X-Request-ID"
)

// RequestIDMiddleware asigna un id unico por request y lo refleja en el
// response header para correlacion de logs.
func RequestIDMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := strings.TrimSpace(c.GetHeader(requestIDHeader))
		if id == "" {
			id = uuid.NewString()
		}
		c.Set("request_id", id)
		c.Writer.Header().Set(requestIDHeader, id)
		c.Next()
	}
}

// JWTAuthMiddleware valida el bearer token y construye el RequestContext del
// request: tenant id verificado mas la credencial cruda para reenviar al tool
// bridge. Sin token valido el request no llega al dispatcher.
func JWTAuthMiddleware(jwtSvc *service.JWTService) gin.HandlerFunc {
	return func(c *gin.Context) {
		if jwtSvc == nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": gin.H{"kind": "persistence_failure", "message": "jwt not configured"}})
			c.Abort()
			return
		}

		header := strings.TrimSpace(c.GetHeader("Authorization"))
		if header == "" || !strings.HasPrefix(strings.ToLower(header), "bearer ") {
			c.JSON(http.StatusUnauthorized, gin.H{"error": gin.H{"kind": "auth_failure", "message": "missing token"}})
			c.Abort()
			return
		}

		token := strings.TrimSpace(header[len("Bearer "):])
		tenantID, err := jwtSvc.Verify(token)
		if err != nil {
			c.JSON(http.StatusUnauthorized, gin.H{"error": gin.H{"kind": "auth_failure", "message": "invalid token"}})
			c.Abort()
			return
		}

		rctx := domain.RequestContext{
			TenantID:   tenantID,
			Credential: domain.NewForwardingCredential(token),
			RequestID:  c.GetString("request_id"),
		}
		c.Set(requestContextKey, rctx)
		c.Next()
	}
}

// GetRequestContext obtiene el RequestContext autenticado desde el contexto de gin.
func GetRequestContext(c *gin.Context) (domain.RequestContext, bool) {
	val, ok := c.Get(requestContextKey)
	if !ok {
		return domain.RequestContext{}, false
	}
	rctx, ok := val.(domain.RequestContext)
	return rctx, ok
}
