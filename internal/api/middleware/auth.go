package middleware

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v4"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/jafarshop/marketapi/internal/domain"
	"github.com/jafarshop/marketapi/internal/repository"
	"github.com/jafarshop/marketapi/pkg/errors"
)

const userContextKey = "auth_user"

// AuthMiddleware verifies the bearer token and resolves the caller to a
// local user row, creating one on first sight of a new external uid.
func AuthMiddleware(secret string, repos *repository.Repositories, logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		authz := c.GetHeader("Authorization")
		if authz == "" {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "missing authorization header"})
			c.Abort()
			return
		}

		parts := strings.SplitN(authz, " ", 2)
		if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid authorization header"})
			c.Abort()
			return
		}

		claims, err := parseToken(strings.TrimSpace(parts[1]), secret)
		if err != nil {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid token"})
			c.Abort()
			return
		}

		user, err := resolveUser(c, repos, claims)
		if err != nil {
			logger.Error("Failed to resolve user from token", zap.Error(err))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
			c.Abort()
			return
		}

		c.Set(userContextKey, user)
		c.Next()
	}
}

// RequireAdmin rejects callers that are not admins. Must run after
// AuthMiddleware.
func RequireAdmin() gin.HandlerFunc {
	return func(c *gin.Context) {
		user, ok := GetUserFromContext(c)
		if !ok || user.Role != domain.RoleAdmin {
			c.JSON(http.StatusForbidden, gin.H{"error": "admin access required"})
			c.Abort()
			return
		}
		c.Next()
	}
}

// RequireApprovedSeller rejects callers that are not approved sellers.
// Must run after AuthMiddleware.
func RequireApprovedSeller() gin.HandlerFunc {
	return func(c *gin.Context) {
		user, ok := GetUserFromContext(c)
		if !ok || user.Role != domain.RoleSeller || user.SellerStatus != domain.SellerStatusApproved {
			c.JSON(http.StatusForbidden, gin.H{"error": "approved seller access required"})
			c.Abort()
			return
		}
		c.Next()
	}
}

// GetUserFromContext retrieves the authenticated user set by AuthMiddleware
func GetUserFromContext(c *gin.Context) (*domain.User, bool) {
	v, exists := c.Get(userContextKey)
	if !exists {
		return nil, false
	}
	user, ok := v.(*domain.User)
	return user, ok
}

type tokenClaims struct {
	ExternalUID string
	Email       string
	Name        string
}

func parseToken(raw string, secret string) (*tokenClaims, error) {
	token, err := jwt.Parse(raw, func(t *jwt.Token) (interface{}, error) {
		if t.Method != jwt.SigningMethodHS256 {
			return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
		}
		return []byte(secret), nil
	})
	if err != nil || !token.Valid {
		return nil, fmt.Errorf("token validation failed: %w", err)
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return nil, fmt.Errorf("unexpected claims type")
	}

	sub, _ := claims["sub"].(string)
	if sub == "" {
		return nil, fmt.Errorf("missing sub claim")
	}
	email, _ := claims["email"].(string)
	name, _ := claims["name"].(string)

	return &tokenClaims{ExternalUID: sub, Email: email, Name: name}, nil
}

// resolveUser maps the token subject to a local user, provisioning a buyer
// row on first request.
func resolveUser(c *gin.Context, repos *repository.Repositories, claims *tokenClaims) (*domain.User, error) {
	ctx := c.Request.Context()

	user, err := repos.User.GetByExternalUID(ctx, claims.ExternalUID)
	if err == nil {
		return user, nil
	}
	if _, ok := err.(*errors.ErrNotFound); !ok {
		return nil, err
	}

	user = &domain.User{
		ID:          uuid.New(),
		ExternalUID: claims.ExternalUID,
		Email:       claims.Email,
		DisplayName: claims.Name,
		Role:        domain.RoleBuyer,
	}
	if err := repos.User.Create(ctx, user); err != nil {
		// Lost a race with a concurrent first request for the same uid.
		if _, ok := err.(*errors.ErrConflict); ok {
			return repos.User.GetByExternalUID(ctx, claims.ExternalUID)
		}
		return nil, err
	}
	return user, nil
}
