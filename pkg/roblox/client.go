// Package roblox resolves Roblox usernames to profiles through the public
// users API.
package roblox

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/goccy/go-json"
	"github.com/hashicorp/go-retryablehttp"
	"golang.org/x/sync/singleflight"
	"golang.org/x/time/rate"

	"github.com/PancyStudios/XLZRBotGo/pkg/logger"
	"github.com/PancyStudios/XLZRBotGo/pkg/metrics"
)

var (
	// ErrProfileNotFound means the username does not exist
	ErrProfileNotFound = errors.New("roblox profile not found")
	// ErrUnavailable means the API failed or could not be reached
	ErrUnavailable = errors.New("roblox api unavailable")
)

// Profile is the subset of a Roblox user the bot needs
type Profile struct {
	ID          int64  `json:"id"`
	Username    string `json:"name"`
	DisplayName string `json:"displayName"`
}

type usernamesRequest struct {
	Usernames          []string `json:"usernames"`
	ExcludeBannedUsers bool     `json:"excludeBannedUsers"`
}

type usernamesResponse struct {
	Data []struct {
		ID          int64  `json:"id"`
		Name        string `json:"name"`
		DisplayName string `json:"displayName"`
	} `json:"data"`
}

// leveledLogger routes retryablehttp logs into the bot logger. Errors are
// demoted to warnings because the request will be retried.
type leveledLogger struct{}

func (leveledLogger) Error(msg string, kv ...any) { logger.Warn(format(msg, kv), "Roblox") }
func (leveledLogger) Warn(msg string, kv ...any)  { logger.Warn(format(msg, kv), "Roblox") }
func (leveledLogger) Info(msg string, kv ...any)  {}
func (leveledLogger) Debug(msg string, kv ...any) {}

func format(msg string, kv []any) string {
	if len(kv) == 0 {
		return msg
	}
	return fmt.Sprintf("%s %v", msg, kv)
}

// Option configures a Client
type Option func(*Client)

// WithRate limits outgoing lookups to perSecond with the given burst
func WithRate(perSecond float64, burst int) Option {
	return func(c *Client) {
		c.limiter = rate.NewLimiter(rate.Limit(perSecond), burst)
	}
}

// WithRetries sets the retry budget and minimum backoff
func WithRetries(max int, waitMin time.Duration) Option {
	return func(c *Client) {
		c.retry.RetryMax = max
		c.retry.RetryWaitMin = waitMin
		if c.retry.RetryWaitMax < waitMin {
			c.retry.RetryWaitMax = waitMin
		}
	}
}

// WithSharedTimeout bounds a lookup shared by concurrent callers. It is
// independent of any single caller's context.
func WithSharedTimeout(d time.Duration) Option {
	return func(c *Client) {
		c.sharedTimeout = d
	}
}

// Client looks up Roblox profiles. Concurrent lookups of the same username
// share one request.
type Client struct {
	baseURL       string
	retry         *retryablehttp.Client
	http          *http.Client
	limiter       *rate.Limiter
	group         singleflight.Group
	sharedTimeout time.Duration
}

// NewClient creates a client against baseURL, e.g. https://users.roblox.com
func NewClient(baseURL string, opts ...Option) *Client {
	retry := retryablehttp.NewClient()
	retry.RetryMax = 3
	retry.RetryWaitMin = 500 * time.Millisecond
	retry.RetryWaitMax = 5 * time.Second
	retry.Logger = retryablehttp.LeveledLogger(leveledLogger{})
	retry.CheckRetry = retryPolicy

	c := &Client{
		baseURL:       strings.TrimRight(baseURL, "/"),
		retry:         retry,
		limiter:       rate.NewLimiter(rate.Inf, 1),
		sharedTimeout: 30 * time.Second,
	}
	for _, opt := range opts {
		opt(c)
	}

	c.http = c.retry.StandardClient()
	c.http.Timeout = 15 * time.Second
	return c
}

// retryPolicy retries connection errors and 5xx but leaves 429 to the limiter
func retryPolicy(ctx context.Context, resp *http.Response, err error) (bool, error) {
	if err == nil && resp.StatusCode == http.StatusTooManyRequests {
		return false, nil
	}
	return retryablehttp.DefaultRetryPolicy(ctx, resp, err)
}

// Lookup resolves username to a profile. It returns ErrProfileNotFound when
// the user does not exist and an error wrapping ErrUnavailable for transport
// or server failures.
func (c *Client) Lookup(ctx context.Context, username string) (Profile, error) {
	username = strings.TrimSpace(username)
	if username == "" {
		return Profile{}, ErrProfileNotFound
	}

	// the shared call must not die with whichever caller started it
	ch := c.group.DoChan(strings.ToLower(username), func() (any, error) {
		shared, cancel := context.WithTimeout(context.WithoutCancel(ctx), c.sharedTimeout)
		defer cancel()
		return c.lookup(shared, username)
	})

	select {
	case res := <-ch:
		if res.Err != nil {
			return Profile{}, res.Err
		}
		return res.Val.(Profile), nil
	case <-ctx.Done():
		return Profile{}, fmt.Errorf("%w: %v", ErrUnavailable, ctx.Err())
	}
}

func (c *Client) lookup(ctx context.Context, username string) (p Profile, err error) {
	start := time.Now()
	defer func() {
		result := "ok"
		switch {
		case errors.Is(err, ErrProfileNotFound):
			result = "not_found"
		case err != nil:
			result = "error"
		}
		metrics.LookupDuration.WithLabelValues(result).Observe(time.Since(start).Seconds())
	}()

	if err := c.limiter.Wait(ctx); err != nil {
		return Profile{}, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}

	body, err := json.Marshal(usernamesRequest{Usernames: []string{username}, ExcludeBannedUsers: true})
	if err != nil {
		return Profile{}, err
	}

	var byName usernamesResponse
	if err := c.do(ctx, http.MethodPost, "/v1/usernames/users", body, &byName); err != nil {
		return Profile{}, err
	}
	if len(byName.Data) == 0 {
		return Profile{}, ErrProfileNotFound
	}

	var profile Profile
	if err := c.do(ctx, http.MethodGet, fmt.Sprintf("/v1/users/%d", byName.Data[0].ID), nil, &profile); err != nil {
		return Profile{}, err
	}
	if profile.DisplayName == "" {
		profile.DisplayName = byName.Data[0].DisplayName
	}
	return profile, nil
}

func (c *Client) do(ctx context.Context, method, path string, body []byte, out any) error {
	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return ErrProfileNotFound
	case resp.StatusCode != http.StatusOK:
		return fmt.Errorf("%w: %s %s returned %d", ErrUnavailable, method, path, resp.StatusCode)
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("%w: decode %s: %v", ErrUnavailable, path, err)
	}
	return nil
}
