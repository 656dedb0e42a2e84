// Package upload delivers completion records to the remote endpoint as
// signed JSON requests.
package upload

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"runtime"
	"time"

	"github.com/google/uuid"

	"github.com/Tiliavir/trivial-pomodoro/internal/config"
	"github.com/Tiliavir/trivial-pomodoro/internal/model"
	"github.com/Tiliavir/trivial-pomodoro/internal/signing"
)

// Source identifies this application in every payload.
const Source = "tpom"

// HeaderRequestID carries a fresh id per attempt so the server can drop
// duplicates of an at-least-once delivery.
const HeaderRequestID = "X-Request-ID"

// Payload is the JSON body sent for one completion record.
type Payload struct {
	Client      string `json:"client"`
	Description string `json:"description"`
	StartTime   string `json:"start_time"`
	EndTime     string `json:"end_time"`
	Source      string `json:"source"`
}

// Option configures optional behaviour for the Client.
type Option func(*Client)

// WithHTTPClient overrides the HTTP client. Its timeout is left untouched.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		c.httpClient = hc
	}
}

// WithClock overrides the time source used for signing timestamps.
func WithClock(now func() time.Time) Option {
	return func(c *Client) {
		c.now = now
	}
}

// WithPlatform overrides the client platform descriptor.
func WithPlatform(platform string) Option {
	return func(c *Client) {
		c.platform = platform
	}
}

// Client builds, signs, and sends completion uploads.
type Client struct {
	httpClient *http.Client
	now        func() time.Time
	platform   string
}

// NewClient constructs a Client. timeout bounds each request; a zero value
// uses the configured default.
func NewClient(timeout time.Duration, opts ...Option) *Client {
	if timeout <= 0 {
		timeout = config.DefaultRemoteTimeoutSeconds * time.Second
	}
	c := &Client{
		httpClient: &http.Client{Timeout: timeout},
		now:        time.Now,
		platform:   fmt.Sprintf("go/%s-%s", runtime.GOOS, runtime.GOARCH),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// NewPayload converts a record into the wire payload.
func (c *Client) NewPayload(record model.CompletionRecord) Payload {
	return Payload{
		Client:      c.platform,
		Description: record.Description,
		StartTime:   record.StartTime.UTC().Format(time.RFC3339),
		EndTime:     record.EndTime.UTC().Format(time.RFC3339),
		Source:      Source,
	}
}

// BuildRequest validates remote and returns a signed POST request for record.
// No network activity happens here.
func (c *Client) BuildRequest(ctx context.Context, record model.CompletionRecord, remote config.RemoteConfig) (*http.Request, error) {
	switch err := remote.Validate(); {
	case errors.Is(err, config.ErrNoEndpoint):
		return nil, newError(KindNoEndpointConfigured, nil)
	case errors.Is(err, config.ErrMissingCredentials):
		return nil, newError(KindMissingCredentials, nil)
	}

	body, err := json.Marshal(c.NewPayload(record))
	if err != nil {
		return nil, newError(KindEncodingFailed, err)
	}

	endpoint, err := url.Parse(remote.APIEndpoint)
	if err != nil {
		return nil, newError(KindInvalidEndpointURL, err)
	}
	if (endpoint.Scheme != "http" && endpoint.Scheme != "https") || endpoint.Host == "" {
		return nil, newError(KindInvalidEndpointURL, fmt.Errorf("endpoint %q must be an absolute http(s) URL", remote.APIEndpoint))
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint.String(), bytes.NewReader(body))
	if err != nil {
		return nil, newError(KindInvalidEndpointURL, err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set(HeaderRequestID, uuid.NewString())

	signer := signing.Signer{AppID: remote.AppID, AppSecret: remote.AppSecret}
	if err := signer.SignRequest(req, c.now()); err != nil {
		return nil, newError(KindSignatureFailed, err)
	}
	return req, nil
}

// Upload sends record synchronously and returns nil on a 2xx response or a
// classified *Error otherwise.
func (c *Client) Upload(ctx context.Context, record model.CompletionRecord, remote config.RemoteConfig) error {
	err := c.upload(ctx, record, remote)
	uploadsCounter.WithLabelValues(outcomeLabel(err)).Inc()
	return err
}

func (c *Client) upload(ctx context.Context, record model.CompletionRecord, remote config.RemoteConfig) error {
	req, err := c.BuildRequest(ctx, record, remote)
	if err != nil {
		return err
	}

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	uploadDuration.Observe(time.Since(start).Seconds())
	if err != nil {
		return newError(KindTransportError, err)
	}
	defer resp.Body.Close()
	// The body is ignored beyond the status code; drain it so the connection
	// can be reused.
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 64<<10))

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return &Error{Kind: KindServerError, StatusCode: resp.StatusCode}
	}
	return nil
}

// UploadAsync runs Upload on its own goroutine and reports the outcome to
// done from that goroutine. Callers that share state with done must hand the
// result back to their own context.
func (c *Client) UploadAsync(ctx context.Context, record model.CompletionRecord, remote config.RemoteConfig, done func(error)) {
	record = record.Clone()
	go func() {
		err := c.Upload(ctx, record, remote)
		if done != nil {
			done(err)
		}
	}()
}
