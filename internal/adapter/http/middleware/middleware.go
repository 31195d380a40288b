package middleware

import (
	"log"
	"net/http"
	"strings"

	"loja_checkout/internal/domain/entities"
	"loja_checkout/internal/usecase/interfaces"
	"loja_checkout/pkg"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

const (
	HeaderRequestID = "X-Request-ID"

	ContextRequestID = "request_id"
	contextBuyer     = "buyer"
)

var errUnauthenticated = pkg.NewDomainErrorSimple("UNAUTHENTICATED", "Authentication required", http.StatusUnauthorized)

// RequestID echoes the caller's X-Request-ID or assigns a new one.
func RequestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		requestID := c.GetHeader(HeaderRequestID)
		if requestID == "" {
			requestID = uuid.New().String()
		}
		c.Set(ContextRequestID, requestID)
		c.Header(HeaderRequestID, requestID)
		c.Next()
	}
}

// BuyerAuth resolves the Bearer session token to a buyer and stores it in
// the request context. Requests without a valid session never reach the
// handler.
func BuyerAuth(resolver interfaces.IBuyerResolver) gin.HandlerFunc {
	return func(c *gin.Context) {
		token, ok := bearerToken(c.GetHeader("Authorization"))
		if !ok {
			c.AbortWithStatusJSON(errUnauthenticated.HTTPStatus, errUnauthenticated.ToHTTPError())
			return
		}

		buyer, err := resolver.ResolveBySessionToken(c.Request.Context(), token)
		if err != nil {
			log.Printf("[auth][middleware] session lookup failed request_id=%s err=%v", c.GetString(ContextRequestID), err)
			appErr := pkg.NewDomainError("INTERNAL_ERROR", "An internal error occurred", err, http.StatusInternalServerError)
			c.AbortWithStatusJSON(appErr.HTTPStatus, appErr.ToHTTPError())
			return
		}
		if buyer == nil {
			c.AbortWithStatusJSON(errUnauthenticated.HTTPStatus, errUnauthenticated.ToHTTPError())
			return
		}

		c.Set(contextBuyer, buyer)
		c.Next()
	}
}

// Buyer returns the authenticated buyer, or nil outside BuyerAuth.
func Buyer(c *gin.Context) *entities.Buyer {
	v, ok := c.Get(contextBuyer)
	if !ok {
		return nil
	}
	b, _ := v.(*entities.Buyer)
	return b
}

// SetBuyer is used by tests and trusted internal callers.
func SetBuyer(c *gin.Context, b *entities.Buyer) {
	c.Set(contextBuyer, b)
}

func bearerToken(header string) (string, bool) {
	parts := strings.SplitN(strings.TrimSpace(header), " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return "", false
	}
	token := strings.TrimSpace(parts[1])
	return token, token != ""
}
