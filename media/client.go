// Package media talks to the back ends that turn text into speech, import
// remote files into the shared bucket and animate a photo with an audio
// track. Each back end is a JSON-over-HTTP endpoint guarded by a proxy key
// and secret; every result is an object key in the shared bucket.
package media

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v5"
)

// ErrInvalidRequest is returned before any call is made when a required
// field is empty.
var ErrInvalidRequest = errors.New("media: invalid request")

// StatusError reports a non-2xx answer from a back end.
type StatusError struct {
	Op         string
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("media: %s: unexpected status %d: %s", e.Op, e.StatusCode, e.Body)
}

// Temporary reports whether retrying the call may succeed.
func (e *StatusError) Temporary() bool {
	return e.StatusCode >= http.StatusInternalServerError || e.StatusCode == http.StatusTooManyRequests
}

// Endpoints holds one URL per back end operation.
type Endpoints struct {
	Speech string
	Import string
	Video  string
}

type SpeechRequest struct {
	Text string `json:"text"`
	// VoiceKey optionally names a reference voice sample to clone.
	VoiceKey string `json:"voice_S3_Key,omitempty"`
}

type SpeechResponse struct {
	Key string `json:"s3_key"`
}

type ImportRequest struct {
	URL string `json:"video_url"`
}

type ImportResponse struct {
	Key string `json:"s3_key"`
}

type VideoRequest struct {
	Transcript string `json:"transcript"`
	PhotoKey   string `json:"photo_S3_Key"`
	AudioKey   string `json:"audio_S3_Key"`
}

type VideoResponse struct {
	Key string `json:"video_s3_key"`
}

// maxErrorBody bounds how much of an error response is kept in StatusError.
const maxErrorBody = 1 << 10

type Client struct {
	endpoints       Endpoints
	httpClient      *http.Client
	proxyKey        string
	proxySecret     string
	maxTries        uint
	initialInterval time.Duration
	logger          *slog.Logger
}

type config func(*Client)

// WithHTTPClient sets the client used for requests. Defaults to a client
// with a 10 minute timeout since video generation is slow.
func WithHTTPClient(c *http.Client) config {
	return config(func(cl *Client) {
		cl.httpClient = c
	})
}

// WithProxyAuth sets the credentials sent as Modal-Key and Modal-Secret.
func WithProxyAuth(key, secret string) config {
	return config(func(cl *Client) {
		cl.proxyKey = key
		cl.proxySecret = secret
	})
}

// WithMaxTries sets how many attempts are made per call, including the first.
func WithMaxTries(n uint) config {
	return config(func(cl *Client) {
		cl.maxTries = n
	})
}

// WithInitialInterval sets the first retry delay.
func WithInitialInterval(d time.Duration) config {
	return config(func(cl *Client) {
		cl.initialInterval = d
	})
}

func WithLogger(logger *slog.Logger) config {
	return config(func(cl *Client) {
		cl.logger = logger
	})
}

func NewClient(endpoints Endpoints, cfgs ...config) *Client {
	cl := &Client{
		endpoints:       endpoints,
		httpClient:      &http.Client{Timeout: 10 * time.Minute},
		maxTries:        3,
		initialInterval: 500 * time.Millisecond,
		logger:          slog.Default(),
	}

	for _, cfg := range cfgs {
		cfg(cl)
	}

	return cl
}

// GenerateSpeech synthesises req.Text and returns the key of the audio file.
func (c *Client) GenerateSpeech(ctx context.Context, req SpeechRequest) (SpeechResponse, error) {
	if strings.TrimSpace(req.Text) == "" {
		return SpeechResponse{}, fmt.Errorf("%w: text is required", ErrInvalidRequest)
	}
	return call[SpeechResponse](ctx, c, "generate speech", c.endpoints.Speech, req)
}

// ImportFile copies the file at req.URL into the bucket and returns its key.
func (c *Client) ImportFile(ctx context.Context, req ImportRequest) (ImportResponse, error) {
	if strings.TrimSpace(req.URL) == "" {
		return ImportResponse{}, fmt.Errorf("%w: url is required", ErrInvalidRequest)
	}
	return call[ImportResponse](ctx, c, "import file", c.endpoints.Import, req)
}

// GenerateVideo animates the photo with the audio track and returns the
// key of the video.
func (c *Client) GenerateVideo(ctx context.Context, req VideoRequest) (VideoResponse, error) {
	if strings.TrimSpace(req.PhotoKey) == "" || strings.TrimSpace(req.AudioKey) == "" {
		return VideoResponse{}, fmt.Errorf("%w: photo and audio keys are required", ErrInvalidRequest)
	}
	return call[VideoResponse](ctx, c, "generate video", c.endpoints.Video, req)
}

func call[T any](ctx context.Context, c *Client, op, url string, req any) (T, error) {
	var zero T
	if url == "" {
		return zero, fmt.Errorf("media: %s: endpoint not configured", op)
	}

	body, err := json.Marshal(req)
	if err != nil {
		return zero, fmt.Errorf("media: %s: encode request: %w", op, err)
	}

	b := backoff.NewExponentialBackOff()
	b.InitialInterval = c.initialInterval

	return backoff.Retry(ctx, func() (T, error) {
		return do[T](ctx, c, op, url, body)
	},
		backoff.WithBackOff(b),
		backoff.WithMaxTries(c.maxTries),
		backoff.WithNotify(func(err error, next time.Duration) {
			c.logger.WarnContext(ctx, "media call failed, retrying", "op", op, "error", err, "retry_in", next)
		}),
	)
}

// do performs one attempt. Errors that retrying cannot fix are wrapped with
// backoff.Permanent.
func do[T any](ctx context.Context, c *Client, op, url string, body []byte) (T, error) {
	var out T

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return out, backoff.Permanent(fmt.Errorf("media: %s: build request: %w", op, err))
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	if c.proxyKey != "" {
		req.Header.Set("Modal-Key", c.proxyKey)
		req.Header.Set("Modal-Secret", c.proxySecret)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return out, backoff.Permanent(err)
		}
		return out, fmt.Errorf("media: %s: %w", op, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		serr := &StatusError{Op: op, StatusCode: resp.StatusCode, Body: strings.TrimSpace(string(msg))}
		if serr.Temporary() {
			return out, serr
		}
		return out, backoff.Permanent(serr)
	}

	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return out, backoff.Permanent(fmt.Errorf("media: %s: decode response: %w", op, err))
	}
	return out, nil
}
