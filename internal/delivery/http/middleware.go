package http

import (
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/fridge/backend/internal/domain"
	"github.com/gin-gonic/gin"
)

const (
	// ContextUserID is the gin context key carrying the verified user ID.
	ContextUserID = "userID"
	// ContextToken is the gin context key carrying the raw bearer token.
	ContextToken = "token"
)

// AuthMiddleware extracts the bearer token, verifies it with the identity
// provider and injects the user identity into the request context. The
// local user row is upserted so products and settings can reference it.
// Verdicts are cached briefly so hot tokens do not round-trip to the
// provider on every request.
func AuthMiddleware(verifier domain.TokenVerifier, users domain.UserRepository, verdictCache domain.CacheRepository, cacheTTL time.Duration) gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" || !strings.HasPrefix(authHeader, "Bearer ") {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
			return
		}
		token := strings.TrimPrefix(authHeader, "Bearer ")
		if token == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
			return
		}

		authUser, err := verifiedUser(c, verifier, verdictCache, cacheTTL, token)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
			return
		}

		if users != nil {
			user := &domain.User{ID: authUser.ID, Email: authUser.Email}
			if authUser.Name != "" {
				name := authUser.Name
				user.Name = &name
			}
			if err := users.Upsert(c.Request.Context(), user); err != nil {
				// The request can still proceed; settings/products queries
				// handle a missing row.
				log.Printf("[auth] user upsert failed for %s: %v", authUser.ID, err)
			}
		}

		c.Set(ContextUserID, authUser.ID)
		c.Set(ContextToken, token)
		c.Next()
	}
}

// verifiedUser resolves the token to an identity, consulting the verdict
// cache first. Only positive verdicts are cached: a rejected token must
// stay rejected immediately after revocation.
func verifiedUser(c *gin.Context, verifier domain.TokenVerifier, verdictCache domain.CacheRepository, cacheTTL time.Duration, token string) (*domain.AuthUser, error) {
	cacheKey := "auth:" + token

	if verdictCache != nil {
		if cached, err := verdictCache.Get(c.Request.Context(), cacheKey); err == nil {
			if user, ok := cached.(*domain.AuthUser); ok {
				return user, nil
			}
		}
	}

	user, err := verifier.VerifyToken(c.Request.Context(), token)
	if err != nil {
		return nil, err
	}

	if verdictCache != nil && cacheTTL > 0 {
		if err := verdictCache.Set(c.Request.Context(), cacheKey, user, cacheTTL); err != nil {
			log.Printf("[auth] verdict cache set failed: %v", err)
		}
	}

	return user, nil
}

// CORSMiddleware handles CORS for the web and mobile clients.
func CORSMiddleware(allowedOrigins []string) gin.HandlerFunc {
	return func(c *gin.Context) {
		origin := c.Request.Header.Get("Origin")

		if isAllowedOrigin(origin, allowedOrigins) {
			c.Writer.Header().Set("Access-Control-Allow-Origin", origin)
			c.Writer.Header().Set("Access-Control-Allow-Credentials", "true")
			c.Writer.Header().Set("Access-Control-Allow-Methods", "POST, GET, OPTIONS, PUT, DELETE")
			c.Writer.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization, X-Requested-With")
			c.Writer.Header().Set("Access-Control-Max-Age", "3600")
		}

		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}

		c.Next()
	}
}

// isAllowedOrigin checks if the origin is in the allowed list
func isAllowedOrigin(origin string, allowedOrigins []string) bool {
	for _, allowed := range allowedOrigins {
		if strings.HasSuffix(allowed, "*") {
			prefix := strings.TrimSuffix(allowed, "*")
			if strings.HasPrefix(origin, prefix) {
				return true
			}
		} else if origin == allowed {
			return true
		}
	}
	return false
}

// LoggerMiddleware logs requests (simple version for now)
func LoggerMiddleware() gin.HandlerFunc {
	return gin.Logger()
}

// RecoveryMiddleware recovers from panics
func RecoveryMiddleware() gin.HandlerFunc {
	return gin.Recovery()
}
