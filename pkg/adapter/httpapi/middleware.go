package httpapi

import (
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"go.uber.org/zap"

	"github.com/bucketfm/bucketfm/internal/ratelimiter"
	"github.com/bucketfm/bucketfm/pkg/access"
	"github.com/bucketfm/bucketfm/pkg/config"
)

// userContextKey is the gin context key the authenticated user is stored
// under.
const userContextKey = "bucketfm.user"

// requestLogger logs one structured line per request.
func requestLogger(logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()

		c.Next()

		logger.Info("http request",
			zap.String("method", c.Request.Method),
			zap.String("path", c.Request.URL.Path),
			zap.Int("status", c.Writer.Status()),
			zap.Duration("duration", time.Since(start)),
			zap.String("client", c.ClientIP()),
		)
	}
}

// corsMiddleware builds the CORS layer. An empty origin list allows all
// origins.
func corsMiddleware(origins []string) gin.HandlerFunc {
	cfg := cors.Config{
		AllowMethods: []string{"GET", "POST", "OPTIONS"},
		AllowHeaders: []string{
			"Content-Type",
			"Content-Length",
			"Authorization",
			"Accept",
			"Origin",
			"X-Requested-With",
		},
		MaxAge: 12 * time.Hour,
	}

	if len(origins) == 0 {
		cfg.AllowAllOrigins = true
	} else {
		cfg.AllowOrigins = origins
		cfg.AllowCredentials = true
	}

	return cors.New(cfg)
}

// rateLimitMiddleware rejects requests above the configured rate with
// 429. One bucket covers the whole server.
func rateLimitMiddleware(limiter *ratelimiter.RateLimiter) gin.HandlerFunc {
	return func(c *gin.Context) {
		if !limiter.Allow() {
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{"error": "rate limit exceeded"})

			return
		}

		c.Next()
	}
}

// authMiddleware resolves the requesting user.
//
// With authentication disabled every request runs as the anonymous user.
// With it enabled a valid HS256 bearer token is required; the user identity
// comes from the sub claim and roles from the roles claim.
func authMiddleware(cfg config.AuthConfig, logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		if !cfg.Enabled {
			c.Set(userContextKey, access.User{})
			c.Next()

			return
		}

		header := c.GetHeader("Authorization")
		if !strings.HasPrefix(header, "Bearer ") {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "missing bearer token"})

			return
		}

		tokenString := strings.TrimPrefix(header, "Bearer ")

		user, err := userFromToken(tokenString, cfg)
		if err != nil {
			logger.Debug("rejected bearer token", zap.Error(err))
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid bearer token"})

			return
		}

		c.Set(userContextKey, user)
		c.Next()
	}
}

// adminOnly restricts a route to users carrying the admin role. With
// authentication disabled every caller is the operator and passes.
func adminOnly(cfg config.AuthConfig) gin.HandlerFunc {
	return func(c *gin.Context) {
		if !cfg.Enabled {
			c.Next()

			return
		}

		for _, role := range currentUser(c).Roles {
			if role == "admin" {
				c.Next()

				return
			}
		}

		c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "admin role required"})
	}
}

// userFromToken verifies the JWT and extracts the user identity.
func userFromToken(tokenString string, cfg config.AuthConfig) (access.User, error) {
	claims := jwt.MapClaims{}

	token, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
		}

		return []byte(cfg.Secret), nil
	})
	if err != nil {
		return access.User{}, err
	}
	if !token.Valid {
		return access.User{}, fmt.Errorf("token is not valid")
	}

	if cfg.Issuer != "" {
		issuer, err := claims.GetIssuer()
		if err != nil || issuer != cfg.Issuer {
			return access.User{}, fmt.Errorf("unexpected issuer %q", issuer)
		}
	}

	subject, err := claims.GetSubject()
	if err != nil || subject == "" {
		return access.User{}, fmt.Errorf("token carries no subject")
	}

	user := access.User{ID: subject, Claims: claims}

	if rawRoles, ok := claims["roles"].([]any); ok {
		for _, r := range rawRoles {
			if role, ok := r.(string); ok {
				user.Roles = append(user.Roles, role)
			}
		}
	}

	return user, nil
}

// currentUser retrieves the user stored by the auth middleware.
func currentUser(c *gin.Context) access.User {
	if v, ok := c.Get(userContextKey); ok {
		if user, ok := v.(access.User); ok {
			return user
		}
	}

	return access.User{}
}
