package auth

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"

	"github.com/cyphera/cyphera-mpc-billing/internal/constants"
)

func TestEnsureOperatorAPIKey(t *testing.T) {
	gin.SetMode(gin.TestMode)

	tests := []struct {
		name       string
		apiKey     string
		wantStatus int
		wantCaller string
	}{
		{name: "valid key", apiKey: "operator-secret", wantStatus: http.StatusOK, wantCaller: "operator.near"},
		{name: "wrong key", apiKey: "guess", wantStatus: http.StatusUnauthorized},
		{name: "missing key", wantStatus: http.StatusUnauthorized},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			router := gin.New()
			var caller, role string
			router.POST("/op", EnsureOperatorAPIKey("operator-secret", "operator.near"), RequireRoles(constants.RoleOperator), func(c *gin.Context) {
				caller = CallerID(c)
				role = c.GetString(constants.ContextKeyCallerRole)
				c.Status(http.StatusOK)
			})

			req := httptest.NewRequest(http.MethodPost, "/op", nil)
			if tt.apiKey != "" {
				req.Header.Set(constants.HeaderAPIKey, tt.apiKey)
			}
			w := httptest.NewRecorder()
			router.ServeHTTP(w, req)

			assert.Equal(t, tt.wantStatus, w.Code)
			assert.Equal(t, tt.wantCaller, caller)
			if tt.wantStatus == http.StatusOK {
				assert.Equal(t, constants.RoleOperator, role)
			}
		})
	}
}

func TestEnsureOperatorAPIKey_UnconfiguredKeyRejectsAll(t *testing.T) {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.POST("/op", EnsureOperatorAPIKey("", "operator.near"), func(c *gin.Context) { c.Status(http.StatusOK) })

	req := httptest.NewRequest(http.MethodPost, "/op", nil)
	req.Header.Set(constants.HeaderAPIKey, "anything")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestEnsureAccountID(t *testing.T) {
	gin.SetMode(gin.TestMode)

	tests := []struct {
		name       string
		accountID  string
		wantStatus int
	}{
		{name: "valid account", accountID: "alice.near", wantStatus: http.StatusOK},
		{name: "missing", wantStatus: http.StatusUnauthorized},
		{name: "malformed", accountID: "Alice!", wantStatus: http.StatusBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			router := gin.New()
			var caller string
			router.POST("/me", EnsureAccountID(), func(c *gin.Context) {
				caller = CallerID(c)
				c.Status(http.StatusOK)
			})

			req := httptest.NewRequest(http.MethodPost, "/me", nil)
			if tt.accountID != "" {
				req.Header.Set(constants.HeaderAccountID, tt.accountID)
			}
			w := httptest.NewRecorder()
			router.ServeHTTP(w, req)

			assert.Equal(t, tt.wantStatus, w.Code)
			if tt.wantStatus == http.StatusOK {
				assert.Equal(t, tt.accountID, caller)
			}
		})
	}
}

func TestRequireRoles_RejectsSubscriberOnOperatorRoute(t *testing.T) {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.POST("/op", EnsureAccountID(), RequireRoles(constants.RoleOperator), func(c *gin.Context) { c.Status(http.StatusOK) })

	req := httptest.NewRequest(http.MethodPost, "/op", nil)
	req.Header.Set(constants.HeaderAccountID, "alice.near")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusForbidden, w.Code)
}

func TestEnsureSignerToken(t *testing.T) {
	gin.SetMode(gin.TestMode)

	tests := []struct {
		name       string
		configured string
		provided   string
		wantStatus int
	}{
		{name: "matching token", configured: "s3cret", provided: "s3cret", wantStatus: http.StatusOK},
		{name: "wrong token", configured: "s3cret", provided: "nope", wantStatus: http.StatusUnauthorized},
		{name: "missing token", configured: "s3cret", wantStatus: http.StatusUnauthorized},
		{name: "check disabled", wantStatus: http.StatusOK},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			router := gin.New()
			router.POST("/cb", EnsureSignerToken(tt.configured), func(c *gin.Context) { c.Status(http.StatusOK) })

			req := httptest.NewRequest(http.MethodPost, "/cb", nil)
			if tt.provided != "" {
				req.Header.Set(constants.HeaderSignerToken, tt.provided)
			}
			w := httptest.NewRecorder()
			router.ServeHTTP(w, req)
			assert.Equal(t, tt.wantStatus, w.Code)
		})
	}
}
