package verse

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/avast/retry-go/v4"

	"github.com/edgard/hisword/internal/config"
)

const (
	generatePath = "/generate"
	maxBodyBytes = 1 << 20
)

// Client talks to the verse generation service. It is safe for concurrent use
// and keeps no state between calls.
type Client struct {
	httpClient *http.Client
	endpoint   string
	timeout    time.Duration
	maxRetries int
	baseDelay  time.Duration
	// timer overrides retry-go's backoff timer; nil uses the real one.
	timer      retry.Timer
	log        *slog.Logger
}

// NewClient creates a verse client for the service at cfg.BaseURL. A nil
// httpClient uses a fresh http.Client; per-attempt timeouts are enforced with
// contexts, so the http.Client should not set its own Timeout.
func NewClient(cfg config.VerseConfig, httpClient *http.Client, logger *slog.Logger) (*Client, error) {
	u, err := url.Parse(cfg.BaseURL)
	if err != nil {
		return nil, fmt.Errorf("invalid verse service url: %w", err)
	}
	if (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return nil, fmt.Errorf("invalid verse service url %q", cfg.BaseURL)
	}

	if httpClient == nil {
		httpClient = &http.Client{}
	}
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}

	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = config.DefaultVerseTimeout
	}
	maxRetries := cfg.MaxRetries
	if maxRetries < 0 {
		maxRetries = config.DefaultVerseMaxRetries
	}
	baseDelay := cfg.BaseDelay
	if baseDelay <= 0 {
		baseDelay = config.DefaultVerseBaseDelay
	}

	return &Client{
		httpClient: httpClient,
		endpoint:   strings.TrimRight(cfg.BaseURL, "/") + generatePath,
		timeout:    timeout,
		maxRetries: maxRetries,
		baseDelay:  baseDelay,
		log:        logger.With("component", "verse_client"),
	}, nil
}

// FetchVerseResponse asks the service for a verse answering question on
// behalf of userID. An empty userID is sent as AnonymousUserID.
//
// The call makes up to maxRetries+1 attempts, each bounded by the configured
// timeout, and waits baseDelay*2^i before attempt i+1. Timeouts, server
// errors, malformed responses and network errors all share one retry budget;
// when it is spent the last failure is returned unchanged as an *Error. If
// ctx ends first, the context error is returned wrapped instead.
func (c *Client) FetchVerseResponse(ctx context.Context, question, userID string) (*Response, error) {
	question = strings.TrimSpace(question)
	if question == "" {
		return nil, &Error{Kind: KindInvalidInput, Detail: "question must not be empty"}
	}
	if userID == "" {
		userID = AnonymousUserID
	}

	body, err := json.Marshal(generateRequest{Question: question, UserID: userID})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal generate request: %w", err)
	}

	log := c.log.With("user_id", userID)
	maxAttempts := c.maxRetries + 1

	var (
		resp    *Response
		attempt int
	)
	opts := []retry.Option{
		retry.Context(ctx),
		retry.Attempts(uint(maxAttempts)),
		retry.LastErrorOnly(true),
		// attempt counts the calls already made, so the wait before the
		// second attempt is baseDelay.
		retry.DelayType(func(_ uint, _ error, _ *retry.Config) time.Duration {
			return c.backoff(attempt - 1)
		}),
		retry.OnRetry(func(_ uint, err error) {
			log.WarnContext(ctx, "Verse request attempt failed",
				"attempt", attempt, "max_attempts", maxAttempts, "error", err)
		}),
	}
	if c.timer != nil {
		opts = append(opts, retry.WithTimer(c.timer))
	}

	err = retry.Do(func() error {
		attempt++
		start := time.Now()
		got, failure := c.attempt(ctx, body)
		if failure == nil {
			resp = got
			log.InfoContext(ctx, "Verse response received",
				"attempt", attempt, "reference", got.Reference, "duration", time.Since(start))
			return nil
		}
		failure.Attempts = attempt
		if ctx.Err() != nil {
			return retry.Unrecoverable(failure)
		}
		return failure
	}, opts...)
	if err == nil {
		return resp, nil
	}
	if ctxErr := ctx.Err(); ctxErr != nil {
		return nil, fmt.Errorf("verse request abandoned after %d attempt(s): %w", attempt, ctxErr)
	}

	log.ErrorContext(ctx, "Verse request failed after all attempts", "attempts", attempt, "error", err)
	var last *Error
	if errors.As(err, &last) {
		return nil, last
	}
	return nil, err
}

// attempt performs one POST bounded by the per-attempt timeout. The timer and
// request context are released before it returns.
func (c *Client) attempt(ctx context.Context, body []byte) (*Response, *Error) {
	attemptCtx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(attemptCtx, http.MethodPost, c.endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, &Error{Kind: KindNetwork, Detail: "failed to build request", Err: err}
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, c.transportFailure(attemptCtx, err)
	}
	defer resp.Body.Close()

	payload, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return nil, c.transportFailure(attemptCtx, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, serverFailure(resp.StatusCode, payload)
	}
	return decodeResponse(payload)
}

func (c *Client) transportFailure(attemptCtx context.Context, err error) *Error {
	if errors.Is(attemptCtx.Err(), context.DeadlineExceeded) || errors.Is(err, context.DeadlineExceeded) {
		return &Error{Kind: KindTimeout, Detail: fmt.Sprintf("no response within %s", c.timeout), Err: err}
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return &Error{Kind: KindTimeout, Detail: fmt.Sprintf("no response within %s", c.timeout), Err: err}
	}
	return &Error{Kind: KindNetwork, Detail: "request failed", Err: err}
}

// serverFailure prefers the service's own "detail" message and falls back to
// a generic one naming the status.
func serverFailure(status int, payload []byte) *Error {
	detail := fmt.Sprintf("verse service returned status %d", status)

	var body struct {
		Detail json.RawMessage `json:"detail"`
	}
	if err := json.Unmarshal(payload, &body); err == nil && len(body.Detail) > 0 {
		var text string
		switch {
		case json.Unmarshal(body.Detail, &text) == nil:
			if strings.TrimSpace(text) != "" {
				detail = text
			}
		case string(body.Detail) != "null":
			detail = string(body.Detail)
		}
	}

	return &Error{Kind: KindServer, StatusCode: status, Detail: detail}
}

func decodeResponse(payload []byte) (*Response, *Error) {
	var out generateResponse
	if err := json.Unmarshal(payload, &out); err != nil {
		return nil, &Error{Kind: KindMalformedResponse, Detail: "response body is not a valid generate response", Err: err}
	}
	if out.Response == nil {
		return nil, &Error{Kind: KindMalformedResponse, Detail: `response body has no "response" object`}
	}
	if err := out.Response.Validate(); err != nil {
		return nil, &Error{Kind: KindMalformedResponse, Detail: err.Error()}
	}
	return out.Response, nil
}

// backoff returns the wait before attempt i+1 (0-indexed i): baseDelay*2^i.
func (c *Client) backoff(i int) time.Duration {
	return c.baseDelay * time.Duration(1<<uint(i))
}
