// Package partner calls the partner registry over HTTP/JSON and translates its
// answers into PartnerOutcome values.
package partner

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"regverify/internal/registration/domain"
	"regverify/internal/registration/metrics"
	"regverify/internal/registration/models"
	"regverify/internal/registration/providers"
	"regverify/pkg/platform/circuit"
	"regverify/pkg/requestcontext"
)

const (
	DefaultProviderID = "partner-registry"
	DefaultTimeout    = 10 * time.Second
	DefaultCooldown   = 30 * time.Second

	apiKeyHeader    = "X-API-Key"
	maxResponseSize = 1 << 20
)

// Config holds the partner endpoint and credentials. An empty BaseURL or
// APIKey means the partner is not configured.
type Config struct {
	BaseURL    string
	VerifyPath string
	APIKey     string
	Timeout    time.Duration
}

// Configured reports whether enough is set to call the partner.
func (c Config) Configured() bool {
	return strings.TrimSpace(c.BaseURL) != "" && strings.TrimSpace(c.APIKey) != ""
}

// Client is the partner registry HTTP client.
type Client struct {
	id         string
	endpoint   string
	apiKey     string
	timeout    time.Duration
	httpClient *http.Client
	breaker    *circuit.Breaker
	metrics    *metrics.Metrics
	logger     *slog.Logger
	tracer     trace.Tracer
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient overrides the underlying HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		c.httpClient = hc
	}
}

// WithBreaker sets the circuit breaker guarding partner calls.
func WithBreaker(b *circuit.Breaker) Option {
	return func(c *Client) {
		c.breaker = b
	}
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(c *Client) {
		c.metrics = m
	}
}

func WithLogger(logger *slog.Logger) Option {
	return func(c *Client) {
		c.logger = logger
	}
}

// WithProviderID names the client in errors, logs and spans.
func WithProviderID(id string) Option {
	return func(c *Client) {
		c.id = id
	}
}

// New builds a client for a configured partner.
func New(cfg Config, opts ...Option) (*Client, error) {
	if !cfg.Configured() {
		return nil, errors.New("partner registry is not configured")
	}
	endpoint, err := url.JoinPath(cfg.BaseURL, cfg.VerifyPath)
	if err != nil {
		return nil, fmt.Errorf("invalid partner base url: %w", err)
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	c := &Client{
		id:         DefaultProviderID,
		endpoint:   endpoint,
		apiKey:     cfg.APIKey,
		timeout:    timeout,
		httpClient: &http.Client{Timeout: timeout},
		logger:     slog.New(slog.DiscardHandler),
		tracer:     otel.Tracer("regverify/partner"),
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.breaker == nil {
		c.breaker = circuit.New(c.id, circuit.WithCooldown(DefaultCooldown))
	}
	return c, nil
}

func (c *Client) ID() string {
	return c.id
}

type verifyRequest struct {
	RegistrationNumber string `json:"registration_number"`
	Jurisdiction       string `json:"jurisdiction"`
	Category           string `json:"category"`
}

// Verify asks the partner about one registration. See providers.RegistryVerifier.
func (c *Client) Verify(ctx context.Context, registrationNumber string, jurisdiction domain.Jurisdiction, category domain.Category) (*models.PartnerOutcome, error) {
	ctx, span := c.tracer.Start(ctx, "partner.verify", trace.WithAttributes(
		attribute.String("partner.id", c.id),
		attribute.String("registration.jurisdiction", jurisdiction.String()),
		attribute.String("registration.category", category.String()),
	))
	defer span.End()

	if !c.breaker.Allow() {
		err := providers.NewProviderError(providers.ErrorProviderOutage, c.id, "circuit open", nil)
		span.SetStatus(codes.Error, err.Error())
		c.metrics.ObservePartnerRequest("circuit_open", 0)
		return nil, err
	}

	start := time.Now()
	outcome, err := c.call(ctx, verifyRequest{
		RegistrationNumber: registrationNumber,
		Jurisdiction:       jurisdiction.String(),
		Category:           category.String(),
	})
	elapsed := time.Since(start)

	if err != nil {
		failure := providers.GetCategory(err)
		c.metrics.ObservePartnerRequest(string(failure), elapsed)
		span.RecordError(err)
		span.SetStatus(codes.Error, string(failure))
		if providers.CountsAgainstProvider(failure) {
			c.recordFailure(ctx)
		} else {
			c.breaker.Release()
		}
		return nil, err
	}

	c.metrics.ObservePartnerRequest("ok", elapsed)
	span.SetAttributes(attribute.Bool("partner.found", outcome.Found))
	c.recordSuccess(ctx)
	return outcome, nil
}

func (c *Client) call(ctx context.Context, body verifyRequest) (*models.PartnerOutcome, error) {
	payload, err := json.Marshal(body)
	if err != nil {
		return nil, providers.NewProviderError(providers.ErrorInternal, c.id, "encode request", err)
	}

	callCtx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(callCtx, http.MethodPost, c.endpoint, bytes.NewReader(payload))
	if err != nil {
		return nil, providers.NewProviderError(providers.ErrorInternal, c.id, "build request", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	req.Header.Set(apiKeyHeader, c.apiKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		switch {
		case ctx.Err() != nil:
			return nil, providers.NewProviderError(providers.ErrorCanceled, c.id, "request canceled by caller", err)
		case errors.Is(err, context.DeadlineExceeded) || isTimeout(err):
			return nil, providers.NewProviderError(providers.ErrorTimeout, c.id, "request timed out", err)
		default:
			return nil, providers.NewProviderError(providers.ErrorProviderOutage, c.id, "request failed", err)
		}
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseSize))
	if err != nil {
		if callCtx.Err() != nil {
			return nil, providers.NewProviderError(providers.ErrorTimeout, c.id, "reading response timed out", err)
		}
		return nil, providers.NewProviderError(providers.ErrorProviderOutage, c.id, "read response", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, providers.NewProviderError(
			providers.CategoryForStatus(resp.StatusCode), c.id,
			fmt.Sprintf("unexpected status %d", resp.StatusCode), nil,
		)
	}

	outcome, err := parseVerifyResponse(raw)
	if err != nil {
		return nil, providers.NewProviderError(providers.ErrorBadData, c.id, "invalid response", err)
	}
	outcome.CheckedAt = requestcontext.Now(ctx)
	return outcome, nil
}

func (c *Client) recordFailure(ctx context.Context) {
	_, change := c.breaker.RecordFailure()
	if change.Opened {
		c.metrics.SetPartnerCircuitOpen(true)
		c.logger.WarnContext(ctx, "partner circuit opened", "partner", c.id)
	}
}

func (c *Client) recordSuccess(ctx context.Context) {
	_, change := c.breaker.RecordSuccess()
	if change.Closed {
		c.metrics.SetPartnerCircuitOpen(false)
		c.logger.InfoContext(ctx, "partner circuit closed", "partner", c.id)
	}
}

func isTimeout(err error) bool {
	var te interface{ Timeout() bool }
	return errors.As(err, &te) && te.Timeout()
}
