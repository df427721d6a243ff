package apiserver

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
)

const (
	contextKeyUserID = "auth_user_id"
	contextKeyRole   = "auth_role"

	roleAdmin = "admin"

	errorCodeUnauthorized = "unauthorized"
	errorCodeForbidden    = "forbidden"
)

type sessionClaims struct {
	Role string `json:"role"`
	jwt.RegisteredClaims
}

// authMiddleware validates the bearer token and stashes the caller's
// identity and role on the request context.
func (server *Server) authMiddleware() gin.HandlerFunc {
	return func(requestContext *gin.Context) {
		header := requestContext.GetHeader("Authorization")
		token, found := strings.CutPrefix(header, "Bearer ")
		if !found || strings.TrimSpace(token) == "" {
			abortWithError(requestContext, http.StatusUnauthorized, errorCodeUnauthorized, "missing bearer token")
			return
		}
		claims := &sessionClaims{}
		parsed, err := jwt.ParseWithClaims(token, claims, func(parsedToken *jwt.Token) (interface{}, error) {
			if _, ok := parsedToken.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, fmt.Errorf("unexpected signing method %v", parsedToken.Header["alg"])
			}
			return server.cfg.JWTSigningKey, nil
		}, jwt.WithIssuer(server.cfg.JWTIssuer))
		if err != nil || !parsed.Valid || claims.Subject == "" {
			abortWithError(requestContext, http.StatusUnauthorized, errorCodeUnauthorized, "invalid session token")
			return
		}
		requestContext.Set(contextKeyUserID, claims.Subject)
		requestContext.Set(contextKeyRole, claims.Role)
		requestContext.Next()
	}
}

// adminOnly gates a route on the admin role carried in the session token.
func adminOnly() gin.HandlerFunc {
	return func(requestContext *gin.Context) {
		if requestContext.GetString(contextKeyRole) != roleAdmin {
			abortWithError(requestContext, http.StatusForbidden, errorCodeForbidden, "admin role required")
			return
		}
		requestContext.Next()
	}
}

func authenticatedUserID(requestContext *gin.Context) string {
	return requestContext.GetString(contextKeyUserID)
}

func abortWithError(requestContext *gin.Context, status int, code string, message string) {
	requestContext.AbortWithStatusJSON(status, ErrorEnvelope{Error: ErrorPayload{Code: code, Message: message}})
}
