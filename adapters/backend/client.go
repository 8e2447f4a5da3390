// Package backend is the JSON-over-HTTP client for the RentAIAgent backend.
package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"rentaiagent/internal/config"
	"rentaiagent/internal/errors"
	"rentaiagent/internal/logging"
)

// maxResponseBody bounds how much of a response is read
const maxResponseBody = 1 << 20

// Client talks to the backend endpoints named in the configuration
type Client struct {
	cfg        *config.Config
	httpClient *http.Client
	logger     *zap.Logger
}

// NewClient creates a client. A nil logger uses the global logger.
func NewClient(cfg *config.Config, logger *zap.Logger) *Client {
	c := &Client{
		cfg: cfg,
		httpClient: &http.Client{
			Timeout: time.Duration(cfg.API.TimeoutSeconds) * time.Second,
		},
		logger: logging.Named(logger, "backend"),
	}
	if cfg.InsecureBaseURL() {
		c.logger.Warn("using HTTP instead of HTTPS for API calls", zap.String("base_url", cfg.API.BaseURL))
	}
	return c
}

// WithHTTPClient replaces the underlying HTTP client
func (c *Client) WithHTTPClient(hc *http.Client) *Client {
	c.httpClient = hc
	return c
}

// URL resolves an endpoint key
func (c *Client) URL(key string) string {
	u, err := c.cfg.URL(key)
	if err != nil {
		return ""
	}
	return u
}

// Register creates the user account
func (c *Client) Register(ctx context.Context, req RegisterRequest) (*RegisterResult, error) {
	body, err := c.do(ctx, http.MethodPost, config.EndpointRegister, req, "")
	if err != nil {
		return nil, err
	}

	env, err := decodeSuccess(body)
	if err != nil {
		return nil, err
	}
	result := &RegisterResult{Message: env.Message}
	if len(env.Data) > 0 && string(env.Data) != "null" {
		if err := json.Unmarshal(env.Data, result); err != nil {
			return nil, errors.Backend("malformed registration response", err)
		}
	}
	return result, nil
}

// Login exchanges credentials for a token. Both an enveloped result and a
// bare {token} object are accepted.
func (c *Client) Login(ctx context.Context, req LoginRequest) (*LoginResult, error) {
	body, err := c.do(ctx, http.MethodPost, config.EndpointLogin, req, "")
	if err != nil {
		if ae, ok := AsAPIError(err); ok && ae.Status == http.StatusUnauthorized {
			return nil, errors.Wrap(errors.TypeUnauthorized, "invalid email or password", err)
		}
		return nil, err
	}

	var result LoginResult
	env, envErr := decodeSuccess(body)
	if envErr == nil && len(env.Data) > 0 && string(env.Data) != "null" {
		if err := json.Unmarshal(env.Data, &result); err != nil {
			return nil, errors.Backend("malformed login response", err)
		}
	} else if err := json.Unmarshal(body, &result); err != nil {
		return nil, errors.Backend("malformed login response", err)
	}
	if result.Token == "" {
		return nil, errors.Backend("login response carried no token", nil)
	}
	if result.Email == "" {
		result.Email = req.Email
	}
	return &result, nil
}

// MyProducts lists the products of the user owning token. Both
// {success, data: [...]} and a bare array are accepted.
func (c *Client) MyProducts(ctx context.Context, token string) ([]UserProduct, error) {
	if token == "" {
		return nil, errors.Unauthorized("not logged in")
	}
	body, err := c.do(ctx, http.MethodGet, config.EndpointMyProducts, nil, token)
	if err != nil {
		if ae, ok := AsAPIError(err); ok && ae.Status == http.StatusUnauthorized {
			return nil, errors.Wrap(errors.TypeUnauthorized, "session expired", err)
		}
		return nil, err
	}
	return DecodeProducts(body)
}

// DecodeProducts reads a product list in either accepted shape
func DecodeProducts(body []byte) ([]UserProduct, error) {
	trimmed := bytes.TrimSpace(body)
	if len(trimmed) > 0 && trimmed[0] == '[' {
		var products []UserProduct
		if err := json.Unmarshal(trimmed, &products); err != nil {
			return nil, errors.Backend("malformed product list", err)
		}
		return products, nil
	}

	var env struct {
		Success bool          `json:"success"`
		Data    []UserProduct `json:"data"`
	}
	if err := json.Unmarshal(trimmed, &env); err != nil {
		return nil, errors.Backend("malformed product list", err)
	}
	if !env.Success {
		return nil, errors.Backend("unexpected product list response", nil)
	}
	return env.Data, nil
}

// SendEmail posts a message to the primary email endpoint
func (c *Client) SendEmail(ctx context.Context, msg EmailMessage) error {
	_, err := c.do(ctx, http.MethodPost, config.EndpointEmail, msg, "")
	return err
}

// SendEmailAlternate posts a message to the alternate email endpoint
func (c *Client) SendEmailAlternate(ctx context.Context, msg AltEmailMessage) error {
	_, err := c.do(ctx, http.MethodPost, config.EndpointEmailAlt, msg, "")
	return err
}

func (c *Client) do(ctx context.Context, method, key string, payload interface{}, token string) ([]byte, error) {
	url, err := c.cfg.URL(key)
	if err != nil {
		return nil, errors.Wrap(errors.TypeConfig, "invalid endpoint", err)
	}

	var reader io.Reader
	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			return nil, errors.Internal("failed to encode request", err)
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, url, reader)
	if err != nil {
		return nil, errors.Internal("failed to create request", err)
	}
	requestID := uuid.NewString()
	req.Header.Set("Accept", "application/json")
	req.Header.Set("X-Request-ID", requestID)
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	log := c.logger.With(zap.String("method", method), zap.String("url", url), zap.String("request_id", requestID))
	log.Debug("api request")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		log.Debug("api request failed", zap.Error(err))
		return nil, errors.Network(fmt.Sprintf("unable to connect to %s", url), err).WithContext("url", url)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBody))
	if err != nil {
		return nil, errors.Network("failed to read response", err).WithContext("url", url)
	}
	log.Debug("api response", zap.Int("status", resp.StatusCode))

	if resp.StatusCode >= 400 {
		return nil, decodeAPIError(resp.StatusCode, body, url)
	}
	return body, nil
}

func decodeSuccess(body []byte) (*successEnvelope, error) {
	var env successEnvelope
	if err := json.Unmarshal(body, &env); err != nil {
		return nil, errors.Backend("malformed response", err)
	}
	if !env.Success {
		msg := env.Message
		if msg == "" {
			msg = "request was not successful"
		}
		return nil, errors.Backend(msg, nil)
	}
	return &env, nil
}

// HealthStatus is the result of a connectivity probe
type HealthStatus struct {
	Connected bool   `json:"connected"`
	Message   string `json:"message"`
}

// Health probes the health endpoint, then the base URL. Any base URL
// answer other than 404 counts as reachable.
func (c *Client) Health(ctx context.Context) HealthStatus {
	if url, err := c.cfg.URL(config.EndpointHealth); err == nil {
		if status, err := c.probe(ctx, url); err == nil && status >= 200 && status < 300 {
			return HealthStatus{Connected: true, Message: "Backend is running"}
		}
	}

	base := c.cfg.API.BaseURL
	if status, err := c.probe(ctx, base); err == nil && status != http.StatusNotFound {
		return HealthStatus{Connected: true, Message: "Backend is running"}
	}

	return HealthStatus{
		Connected: false,
		Message: fmt.Sprintf("Cannot connect to %s. Please ensure:\n"+
			"1. Backend server is running\n"+
			"2. Backend is accessible at %s\n"+
			"3. No firewall is blocking the connection", base, base),
	}
}

func (c *Client) probe(ctx context.Context, url string) (int, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return 0, err
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return 0, err
	}
	resp.Body.Close()
	return resp.StatusCode, nil
}

// Hint returns remediation advice for a failed call, or "" when there is
// none. Network failures run a health probe to tell an unreachable backend
// from a refused request.
func (c *Client) Hint(ctx context.Context, err error) string {
	if ae, ok := AsAPIError(err); ok && ae.Status == http.StatusForbidden {
		return "This is likely a CORS (Cross-Origin) or permission issue. Please ensure:\n" +
			"1. Your backend server is running\n" +
			"2. CORS is properly configured on the backend\n" +
			"3. The API endpoint allows requests from this client"
	}
	if !errors.IsType(err, errors.TypeNetwork) {
		return ""
	}

	var b strings.Builder
	if health := c.Health(ctx); !health.Connected {
		b.WriteString(health.Message)
		b.WriteString("\n\n")
	}
	b.WriteString("Please check:\n")
	fmt.Fprintf(&b, "1. Backend server is running at %s\n", c.URL(config.EndpointRegister))
	b.WriteString("2. No firewall is blocking the connection\n")
	b.WriteString("3. The API base URL is correct in the configuration")
	return b.String()
}
