package enrich

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/shpitdev/transaction-enricher/internal/transaction"
	"github.com/shpitdev/transaction-enricher/pkg/pipeline/dataset"
)

// ErrMaxRetries is the message recorded when every attempt slot was used
// without reaching a terminal classification.
const ErrMaxRetries = "max retries reached"

// Policy controls attempts, waits and the per-call timeout.
type Policy struct {
	// MaxAttempts is shared by rate-limited and transport failures.
	MaxAttempts int
	// RateLimitWait is slept after a 429 before the next attempt.
	RateLimitWait time.Duration
	// RetryWait is slept after a transport failure before the next attempt.
	RetryWait time.Duration
	// RequestTimeout caps a single HTTP exchange.
	RequestTimeout time.Duration
}

// DefaultPolicy returns the production retry policy.
func DefaultPolicy() Policy {
	return Policy{
		MaxAttempts:    3,
		RateLimitWait:  10 * time.Second,
		RetryWait:      2 * time.Second,
		RequestTimeout: 10 * time.Second,
	}
}

func (p Policy) withDefaults() Policy {
	d := DefaultPolicy()
	if p.MaxAttempts <= 0 {
		p.MaxAttempts = d.MaxAttempts
	}
	if p.RateLimitWait <= 0 {
		p.RateLimitWait = d.RateLimitWait
	}
	if p.RetryWait <= 0 {
		p.RetryWait = d.RetryWait
	}
	if p.RequestTimeout <= 0 {
		p.RequestTimeout = d.RequestTimeout
	}
	return p
}

// Option configures the HTTP client.
type Option func(*HTTPClient)

// WithPolicy overrides the retry policy. Zero fields keep their defaults.
func WithPolicy(p Policy) Option {
	return func(c *HTTPClient) {
		c.policy = p.withDefaults()
	}
}

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *HTTPClient) {
		c.http = hc
	}
}

// HTTPClient calls the enrichment endpoint with token authentication.
type HTTPClient struct {
	endpoint string
	token    string
	http     *http.Client
	policy   Policy
}

// NewHTTPClient creates a client for the endpoint URL and API token.
func NewHTTPClient(endpoint, token string, opts ...Option) *HTTPClient {
	c := &HTTPClient{
		endpoint: strings.TrimSpace(endpoint),
		token:    strings.TrimSpace(token),
		http: &http.Client{
			Transport: &http.Transport{
				MaxIdleConnsPerHost: 20,
				IdleConnTimeout:     90 * time.Second,
			},
		},
		policy: DefaultPolicy(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

type callState int

const (
	stateAttempting callState = iota
	stateRateLimitWait
	stateRetryWait
)

// Call sends row to the endpoint and classifies the result.
//
// A 429 waits RateLimitWait and tries again, a transport failure waits
// RetryWait and tries again, any other non-200 status is terminal. Both
// retry paths draw from the same MaxAttempts budget; once it is spent on
// rate limiting the call ends with ErrMaxRetries.
func (c *HTTPClient) Call(ctx context.Context, row dataset.Row) RemoteCallResult {
	txID := transaction.ID(row)
	payload, err := BuildPayload(row)
	if err != nil {
		return RemoteCallResult{Kind: KindTransportError, Body: err.Error()}
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return RemoteCallResult{Kind: KindTransportError, Body: err.Error()}
	}

	state := stateAttempting
	attempt := 0
	for {
		switch state {
		case stateAttempting:
			if attempt >= c.policy.MaxAttempts {
				return RemoteCallResult{Kind: KindTransportError, Body: ErrMaxRetries}
			}
			attempt++
			res := c.post(ctx, body)
			switch res.Kind {
			case KindRateLimited:
				state = stateRateLimitWait
			case KindTransportError:
				if attempt >= c.policy.MaxAttempts {
					return res
				}
				zap.L().Warn("enrichment call failed, retrying",
					zap.String("transaction_id", txID),
					zap.Int("attempt", attempt),
					zap.Duration("wait", c.policy.RetryWait),
					zap.String("error", res.Body),
				)
				state = stateRetryWait
			default:
				return res
			}

		case stateRateLimitWait:
			zap.L().Warn("rate limit reached, waiting",
				zap.String("transaction_id", txID),
				zap.Int("attempt", attempt),
				zap.Duration("wait", c.policy.RateLimitWait),
			)
			if err := sleep(ctx, c.policy.RateLimitWait); err != nil {
				return RemoteCallResult{Kind: KindTransportError, Body: err.Error()}
			}
			state = stateAttempting

		case stateRetryWait:
			if err := sleep(ctx, c.policy.RetryWait); err != nil {
				return RemoteCallResult{Kind: KindTransportError, Body: err.Error()}
			}
			state = stateAttempting
		}
	}
}

func (c *HTTPClient) post(ctx context.Context, body []byte) RemoteCallResult {
	reqCtx, cancel := context.WithTimeout(ctx, c.policy.RequestTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(reqCtx, http.MethodPost, c.endpoint, bytes.NewReader(body))
	if err != nil {
		return RemoteCallResult{Kind: KindTransportError, Body: err.Error()}
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Token "+c.token)

	resp, err := c.http.Do(req)
	if err != nil {
		return RemoteCallResult{Kind: KindTransportError, Body: err.Error()}
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	b, err := io.ReadAll(resp.Body)
	if err != nil {
		return RemoteCallResult{Kind: KindTransportError, Body: err.Error()}
	}

	switch resp.StatusCode {
	case http.StatusOK:
		return RemoteCallResult{Kind: KindSuccess, StatusCode: resp.StatusCode, Body: string(b)}
	case http.StatusTooManyRequests:
		return RemoteCallResult{Kind: KindRateLimited, StatusCode: resp.StatusCode, Body: string(b)}
	default:
		return RemoteCallResult{Kind: KindHTTPError, StatusCode: resp.StatusCode, Body: string(b)}
	}
}

func sleep(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-t.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
