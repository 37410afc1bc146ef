package mpc

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"

	httpclient "github.com/cyphera/cyphera-mpc-billing/internal/client/http"
)

const signPath = "/v1/sign"

// ErrSignerRejected is returned when the signer answers with an error outcome.
var ErrSignerRejected = errors.New("signer rejected the request")

// ClientConfig configures the signer gateway client.
type ClientConfig struct {
	BaseURL    string
	ContractID string
	// CallbackURL is a URL prefix; the request id is appended to it.
	CallbackURL string
	Timeout     time.Duration
	Retry       *httpclient.RetryConfig
	Metrics     httpclient.MetricsCollector
	Logger      *zap.Logger
}

// Client submits sign calls to an HTTP gateway in front of the threshold
// signer contract.
type Client struct {
	http        *httpclient.HTTPClient
	contractID  string
	callbackURL string
	logger      *zap.Logger
}

// NewClient creates a signer gateway client.
func NewClient(cfg ClientConfig) (*Client, error) {
	if cfg.BaseURL == "" {
		return nil, fmt.Errorf("signer base URL is required")
	}
	if cfg.ContractID == "" {
		return nil, fmt.Errorf("signer contract id is required")
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = 30 * time.Second
	}
	if cfg.Logger == nil {
		cfg.Logger = zap.NewNop()
	}

	opts := []httpclient.ClientOption{
		httpclient.WithBaseURL(cfg.BaseURL),
		httpclient.WithTimeout(cfg.Timeout),
		httpclient.WithLogger(cfg.Logger),
	}
	if cfg.Retry != nil {
		opts = append(opts, httpclient.WithRetryConfig(cfg.Retry))
	}
	if cfg.Metrics != nil {
		opts = append(opts, httpclient.WithMetricsCollector(cfg.Metrics))
	}

	return &Client{
		http:        httpclient.NewHTTPClient(opts...),
		contractID:  cfg.ContractID,
		callbackURL: strings.TrimSuffix(cfg.CallbackURL, "/"),
		logger:      cfg.Logger,
	}, nil
}

// Sign submits call. A 200 response carries the outcome inline; a 202 means
// the outcome will be delivered later and Sign returns (nil, nil).
func (c *Client) Sign(ctx context.Context, call SignCall) (*SignResult, error) {
	call.ContractID = c.contractID
	if c.callbackURL != "" {
		call.CallbackURL = c.callbackURL + "/" + call.RequestID.String()
	}

	resp, err := c.http.Post(ctx, signPath, call)
	if err != nil {
		return nil, fmt.Errorf("sign request %s: %w", call.RequestID, err)
	}

	if resp.StatusCode == http.StatusAccepted {
		_ = resp.Body.Close()
		c.logger.Debug("Sign request accepted for deferred delivery",
			zap.String("request_id", call.RequestID.String()))
		return nil, nil
	}

	var outcome SignOutcome
	if err := c.http.ProcessJSONResponse(resp, &outcome); err != nil {
		return nil, fmt.Errorf("failed to decode sign response: %w", err)
	}
	return outcome.Unwrap()
}

// Unwrap converts an outcome into the (result, error) pair of Sign.
func (o SignOutcome) Unwrap() (*SignResult, error) {
	if o.Error != "" {
		return nil, fmt.Errorf("%w: %s", ErrSignerRejected, o.Error)
	}
	if o.Result == nil {
		return nil, fmt.Errorf("%w: empty outcome", ErrSignerRejected)
	}
	return o.Result, nil
}
