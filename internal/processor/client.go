package processor

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"tracker-studio/internal/model"
)

const (
	DefaultEndpoint = "http://localhost:5000/process"
	DefaultTimeout  = 300 * time.Second

	errorSnippetLimit = 512
)

type Options struct {
	Endpoint string
	// Timeout bounds one whole request including the response body. Zero
	// disables it.
	Timeout    time.Duration
	HTTPClient *http.Client
	Logger     *slog.Logger
	// Progress, when set, is called from the upload goroutine as video
	// bytes are written. total is 0 when the size is unknown.
	Progress ProgressFunc
}

type ProgressFunc func(sent, total int64)

// Client submits videos to the remote processing service.
type Client struct {
	endpoint string
	timeout  time.Duration
	http     *http.Client
	logger   *slog.Logger
	progress ProgressFunc
}

// Result is a successful response. The caller must close Body.
type Result struct {
	Body        io.ReadCloser
	ContentType string
	StatusCode  int
}

func New(opts Options) (*Client, error) {
	endpoint := strings.TrimSpace(opts.Endpoint)
	if endpoint == "" {
		endpoint = DefaultEndpoint
	}
	if err := ValidateEndpoint(endpoint); err != nil {
		return nil, err
	}
	if opts.Timeout < 0 {
		return nil, fmt.Errorf("request timeout must be >= 0")
	}
	httpClient := opts.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{}
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Client{
		endpoint: endpoint,
		timeout:  opts.Timeout,
		http:     httpClient,
		logger:   logger,
		progress: opts.Progress,
	}, nil
}

func ValidateEndpoint(raw string) error {
	u, err := url.Parse(strings.TrimSpace(raw))
	if err != nil {
		return fmt.Errorf("invalid endpoint %q: %w", raw, err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("invalid endpoint %q (expected http or https URL)", raw)
	}
	if u.Host == "" {
		return fmt.Errorf("invalid endpoint %q (missing host)", raw)
	}
	return nil
}

func (c *Client) Endpoint() string {
	return c.endpoint
}

func (c *Client) Timeout() time.Duration {
	return c.timeout
}

// Process sends one multipart request. A 2xx response is returned for the
// caller to consume; anything else becomes a StatusError, and failure to
// get a response at all becomes a TransportError.
func (c *Client) Process(ctx context.Context, sel model.FileSelection, params model.RenderParameters) (*Result, error) {
	if sel.IsZero() {
		return nil, fmt.Errorf("file selection is required")
	}

	cancel := context.CancelFunc(func() {})
	if c.timeout > 0 {
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
	}

	body, contentType, length := encodeForm(sel, params, c.progress)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, body)
	if err != nil {
		cancel()
		_ = body.Close()
		return nil, fmt.Errorf("build request for %s: %w", c.endpoint, err)
	}
	req.Header.Set("Content-Type", contentType)
	if length > 0 {
		req.ContentLength = length
	}

	started := time.Now()
	c.logger.Debug("submitting render request",
		slog.String("endpoint", c.endpoint),
		slog.String("file", sel.Name),
		slog.Int64("size", sel.Size),
	)
	resp, err := c.http.Do(req)
	if err != nil {
		cancel()
		return nil, &TransportError{Endpoint: c.endpoint, Err: err}
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, errorSnippetLimit))
		_ = resp.Body.Close()
		cancel()
		c.logger.Debug("processing service rejected request",
			slog.Int("status", resp.StatusCode),
			slog.String("body", strings.TrimSpace(string(snippet))),
			slog.Duration("duration", time.Since(started)),
		)
		return nil, &StatusError{Code: resp.StatusCode, Snippet: strings.TrimSpace(string(snippet))}
	}

	return &Result{
		Body:        &cancelOnClose{ReadCloser: resp.Body, cancel: cancel},
		ContentType: resp.Header.Get("Content-Type"),
		StatusCode:  resp.StatusCode,
	}, nil
}

// Ping reports whether anything answers HTTP at the endpoint. Any status
// code counts as reachable.
func (c *Client) Ping(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodOptions, c.endpoint, nil)
	if err != nil {
		return fmt.Errorf("build request for %s: %w", c.endpoint, err)
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return &TransportError{Endpoint: c.endpoint, Err: err}
	}
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, errorSnippetLimit))
	_ = resp.Body.Close()
	return nil
}

type cancelOnClose struct {
	io.ReadCloser
	cancel context.CancelFunc
}

func (c *cancelOnClose) Close() error {
	err := c.ReadCloser.Close()
	c.cancel()
	return err
}
