package middleware

import (
	"errors"
	"net/http"
	"strings"

	"github.com/edutrack/adminportal/internal/app/models/dto"
	"github.com/edutrack/adminportal/internal/pkg/auth"
	"github.com/edutrack/adminportal/internal/pkg/logger"
	"github.com/gin-gonic/gin"
)

// Context keys set by JWTAuth
const (
	ContextKeyEmail = "email"
	ContextKeyRole  = "role"
)

// AuthMiddleware for authentication and authorization
type AuthMiddleware struct {
	jwtService      *auth.JWTService
	superAdminEmail string
}

// NewAuthMiddleware creates a new AuthMiddleware
func NewAuthMiddleware(jwtService *auth.JWTService, superAdminEmail string) *AuthMiddleware {
	return &AuthMiddleware{
		jwtService:      jwtService,
		superAdminEmail: strings.TrimSpace(superAdminEmail),
	}
}

// JWTAuth middleware for JWT token validation
func (m *AuthMiddleware) JWTAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			errorDetail := dto.NewErrorDetail(dto.ErrorCodeUnauthorized, "Authentication required").
				WithDetails("Authorization header missing")
			c.AbortWithStatusJSON(http.StatusUnauthorized, dto.NewErrorResponse(errorDetail))
			return
		}

		tokenString, err := auth.ExtractBearerToken(authHeader)
		if err != nil {
			errorDetail := dto.NewErrorDetail(dto.ErrorCodeUnauthorized, "Authentication required").
				WithDetails("Invalid token format")
			c.AbortWithStatusJSON(http.StatusUnauthorized, dto.NewErrorResponse(errorDetail))
			return
		}

		claims, err := m.jwtService.ValidateAndExtractClaims(tokenString)
		if err != nil {
			errorCode := dto.ErrorCodeInvalidToken
			errorDetails := "Invalid token"
			if errors.Is(err, auth.ErrExpiredToken) {
				errorCode = dto.ErrorCodeExpiredToken
				errorDetails = "Token has expired"
			}

			errorDetail := dto.NewErrorDetail(errorCode, "Authentication failed").WithDetails(errorDetails)
			c.AbortWithStatusJSON(http.StatusUnauthorized, dto.NewErrorResponse(errorDetail))
			return
		}

		c.Set(ContextKeyEmail, claims.Email)
		c.Set(ContextKeyRole, claims.Role)
		c.Next()
	}
}

// SuperAdminRequired admits only the configured super admin. It must run after JWTAuth.
func (m *AuthMiddleware) SuperAdminRequired() gin.HandlerFunc {
	return func(c *gin.Context) {
		email := c.GetString(ContextKeyEmail)
		role := c.GetString(ContextKeyRole)

		if email == "" || role != auth.RoleSuperAdmin || !strings.EqualFold(email, m.superAdminEmail) {
			logger.Warn().Str("email", email).Str("path", c.FullPath()).Msg("Rejected non super admin request")
			errorDetail := dto.NewErrorDetail(dto.ErrorCodeForbidden, "Access denied").
				WithDetails("Super admin access required")
			c.AbortWithStatusJSON(http.StatusForbidden, dto.NewErrorResponse(errorDetail))
			return
		}

		c.Next()
	}
}
