package middleware

import (
	"net/http"

	"infinity/config"
	"infinity/internal/repository"

	"github.com/gin-gonic/gin"
)

// RequireVerified blocks unverified users when verification is required. Use after AuthRequired.
func RequireVerified(cfg *config.VerificationConfig, userRepo *repository.UserRepository) gin.HandlerFunc {
	return func(c *gin.Context) {
		if !cfg.Required {
			c.Next()
			return
		}
		userID := GetUserID(c)
		if userID == 0 {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
			return
		}
		u, err := userRepo.GetByID(c.Request.Context(), userID)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
			return
		}
		if !u.Verified {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "email verification required"})
			return
		}
		c.Next()
	}
}
