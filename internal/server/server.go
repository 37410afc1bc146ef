package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/cyphera/cyphera-mpc-billing/internal/auth"
	"github.com/cyphera/cyphera-mpc-billing/internal/constants"
	"github.com/cyphera/cyphera-mpc-billing/internal/handlers"
	"github.com/cyphera/cyphera-mpc-billing/internal/helpers"
	"github.com/cyphera/cyphera-mpc-billing/internal/middleware"
)

// Handlers groups the HTTP handlers served by the API.
type Handlers struct {
	Health          *handlers.HealthHandler
	Subscriptions   *handlers.SubscriptionHandler
	Operator        *handlers.OperatorHandler
	SignerCallbacks *handlers.SignerCallbackHandler
}

// Options configures routing and middleware.
type Options struct {
	Stage               string
	OperatorAPIKey      string
	OperatorAccountID   string
	SignerCallbackToken string
	RateLimitRPS        int
	RateLimitBurst      int
	AllowedOrigins      []string
}

// NewRouter builds the gin engine. Background work started for the router,
// such as rate limiter cleanup, stops when ctx is done.
func NewRouter(ctx context.Context, h Handlers, opts Options) *gin.Engine {
	if opts.Stage == helpers.StageProd {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(configureCORS(opts.AllowedOrigins))
	router.Use(middleware.CorrelationIDMiddleware())
	router.Use(middleware.LogRequest())
	router.Use(middleware.NewRateLimiter(ctx, opts.RateLimitRPS, opts.RateLimitBurst).Middleware())

	router.GET("/health", h.Health.Health)
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	v1 := router.Group("/v1")
	{
		v1.GET("/subscriptions", h.Subscriptions.ListSubscriptions)
		v1.GET("/subscriptions/:account_id", h.Subscriptions.GetSubscription)

		me := v1.Group("/subscriptions/me")
		me.Use(auth.EnsureAccountID(), auth.RequireRoles(constants.RoleSubscriber))
		{
			me.POST("", h.Subscriptions.Enroll)
			me.POST("/pay", h.Subscriptions.Pay)
			me.POST("/unsubscribe", h.Subscriptions.Unsubscribe)
		}

		operator := v1.Group("/operator")
		operator.Use(auth.EnsureOperatorAPIKey(opts.OperatorAPIKey, opts.OperatorAccountID), auth.RequireRoles(constants.RoleOperator))
		{
			operator.POST("/subscriptions/:account_id/charge", h.Operator.ChargeSubscription)
			operator.POST("/subscriptions/:account_id/cancel", h.Operator.CancelSubscription)
			operator.POST("/subscriptions/:account_id/transfer", h.Operator.DelegateTransfer)
			operator.GET("/sign-requests/:request_id", h.Operator.GetSignRequest)
		}

		signer := v1.Group("/signer")
		signer.Use(auth.EnsureSignerToken(opts.SignerCallbackToken))
		{
			signer.POST("/callbacks/:request_id", h.SignerCallbacks.HandleSignOutcome)
		}
	}

	return router
}

// configureCORS returns a configured CORS middleware
func configureCORS(origins []string) gin.HandlerFunc {
	corsConfig := cors.DefaultConfig()
	if len(origins) == 0 {
		corsConfig.AllowOrigins = []string{"http://localhost:3000"}
	} else {
		corsConfig.AllowOrigins = origins
	}
	corsConfig.AllowMethods = []string{http.MethodGet, http.MethodPost, http.MethodOptions}
	corsConfig.AllowHeaders = []string{
		"Origin", "Content-Type", "Accept",
		constants.HeaderAPIKey, constants.HeaderAccountID, middleware.CorrelationIDHeader,
	}
	corsConfig.ExposeHeaders = []string{middleware.CorrelationIDHeader, "Retry-After"}
	return cors.New(corsConfig)
}

// Run serves router on port until ctx is done, then drains in-flight
// requests for up to shutdownTimeout.
func Run(ctx context.Context, router http.Handler, port int, shutdownTimeout time.Duration, logger *zap.Logger) error {
	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", port),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("HTTP server listening", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err, ok := <-errCh:
		if ok {
			return fmt.Errorf("http server failed: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	logger.Info("Shutting down HTTP server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("http server shutdown: %w", err)
	}
	return nil
}
