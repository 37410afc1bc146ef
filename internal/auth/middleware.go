package auth

import (
	"crypto/subtle"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/cyphera/cyphera-mpc-billing/internal/constants"
	"github.com/cyphera/cyphera-mpc-billing/internal/near"
)

const (
	authTypeAPIKey     = "api_key"
	authTypeAccountID  = "account_id"
	contextKeyAuthType = "authType"
)

// EnsureOperatorAPIKey authenticates the subscription operator by its API
// key. The caller identity becomes operatorAccountID.
func EnsureOperatorAPIKey(apiKey, operatorAccountID string) gin.HandlerFunc {
	return func(c *gin.Context) {
		provided := c.GetHeader(constants.HeaderAPIKey)
		if provided == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": ErrMissingAPIKey.Error()})
			return
		}
		if apiKey == "" || subtle.ConstantTimeCompare([]byte(provided), []byte(apiKey)) != 1 {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": ErrInvalidAPIKey.Error()})
			return
		}

		c.Set(constants.ContextKeyCallerID, operatorAccountID)
		c.Set(constants.ContextKeyCallerRole, constants.RoleOperator)
		c.Set(contextKeyAuthType, authTypeAPIKey)
		c.Next()
	}
}

// EnsureAccountID identifies a self-service caller from the X-Account-ID
// header. Request signing happens at the gateway in front of this service.
func EnsureAccountID() gin.HandlerFunc {
	return func(c *gin.Context) {
		accountID := c.GetHeader(constants.HeaderAccountID)
		if accountID == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": ErrMissingAccountID.Error()})
			return
		}
		if err := near.ValidateAccountID(accountID); err != nil {
			c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}

		c.Set(constants.ContextKeyCallerID, accountID)
		c.Set(constants.ContextKeyCallerRole, constants.RoleSubscriber)
		c.Set(contextKeyAuthType, authTypeAccountID)
		c.Next()
	}
}

// EnsureSignerToken authenticates signer callbacks by a shared token. An
// empty token disables the check.
func EnsureSignerToken(token string) gin.HandlerFunc {
	return func(c *gin.Context) {
		if token != "" {
			provided := c.GetHeader(constants.HeaderSignerToken)
			if subtle.ConstantTimeCompare([]byte(provided), []byte(token)) != 1 {
				c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": ErrInvalidSignerKey.Error()})
				return
			}
		}
		c.Next()
	}
}

// RequireRoles rejects callers whose role is not one of roles.
func RequireRoles(roles ...string) gin.HandlerFunc {
	return func(c *gin.Context) {
		role := c.GetString(constants.ContextKeyCallerRole)
		for _, r := range roles {
			if r == role {
				c.Next()
				return
			}
		}
		c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "Insufficient role"})
	}
}

// CallerID returns the authenticated caller's account id.
func CallerID(c *gin.Context) string {
	return c.GetString(constants.ContextKeyCallerID)
}
