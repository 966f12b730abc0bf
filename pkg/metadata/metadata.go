// Package metadata uploads token metadata and image to the pump.fun IPFS
// endpoint and returns the URI used by the create instruction.
package metadata

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"time"

	"github.com/cenkalti/backoff/v5"
	"github.com/rs/zerolog"

	"github.com/ninja0404/pump-bundler/pkg/types"
)

const (
	DefaultEndpoint = "https://pump.fun/api/ipfs"
	DefaultTimeout  = 30 * time.Second
	defaultAttempts = 3
)

// Token is the metadata of a token to be created.
type Token struct {
	Name        string
	Symbol      string
	Description string
	Twitter     string
	Telegram    string
	Website     string

	// ImageName is the file name sent with Image.
	ImageName string
	Image     io.Reader
}

// Client uploads metadata.
type Client struct {
	endpoint string
	http     *http.Client
	attempts uint
	log      zerolog.Logger
}

// Option configures a Client.
type Option func(*Client)

// WithEndpoint overrides the upload URL.
func WithEndpoint(url string) Option {
	return func(c *Client) { c.endpoint = url }
}

// WithHTTPClient overrides the HTTP client.
func WithHTTPClient(h *http.Client) Option {
	return func(c *Client) { c.http = h }
}

// WithAttempts sets how many times a failed upload is tried.
func WithAttempts(n uint) Option {
	return func(c *Client) { c.attempts = n }
}

// WithLogger sets the client logger.
func WithLogger(log zerolog.Logger) Option {
	return func(c *Client) { c.log = log }
}

// NewClient creates an upload client.
func NewClient(opts ...Option) *Client {
	c := &Client{
		endpoint: DefaultEndpoint,
		http:     &http.Client{Timeout: DefaultTimeout},
		attempts: defaultAttempts,
		log:      zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.attempts == 0 {
		c.attempts = 1
	}
	return c
}

type uploadResponse struct {
	MetadataURI string `json:"metadataUri"`
}

// Upload posts token as a multipart form and returns the metadata URI.
// Server errors are retried; 4xx responses are not.
func (c *Client) Upload(ctx context.Context, token Token) (string, error) {
	if token.Name == "" || token.Symbol == "" {
		return "", types.NewValidationError("token", "name and symbol are required")
	}
	if token.Image == nil {
		return "", types.NewValidationError("image", "is required")
	}
	image, err := io.ReadAll(token.Image)
	if err != nil {
		return "", fmt.Errorf("read image: %w", err)
	}
	body, contentType, err := encodeForm(token, image)
	if err != nil {
		return "", err
	}

	operation := func() (string, error) {
		return c.post(ctx, body, contentType)
	}
	uri, err := backoff.Retry(ctx, operation,
		backoff.WithBackOff(backoff.NewExponentialBackOff()),
		backoff.WithMaxTries(c.attempts),
		backoff.WithNotify(func(err error, d time.Duration) {
			c.log.Debug().Err(err).Dur("backoff", d).Msg("metadata upload retry")
		}))
	if err != nil {
		return "", fmt.Errorf("upload metadata: %w", err)
	}
	c.log.Info().Str("uri", uri).Str("symbol", token.Symbol).Msg("metadata uploaded")
	return uri, nil
}

func (c *Client) post(ctx context.Context, body []byte, contentType string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(body))
	if err != nil {
		return "", backoff.Permanent(fmt.Errorf("create request: %w", err))
	}
	req.Header.Set("Content-Type", contentType)
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return "", fmt.Errorf("execute request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		err := fmt.Errorf("unexpected status code: %d, body: %s", resp.StatusCode, string(msg))
		if resp.StatusCode < http.StatusInternalServerError && resp.StatusCode != http.StatusTooManyRequests {
			return "", backoff.Permanent(err)
		}
		return "", err
	}

	var out uploadResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", backoff.Permanent(fmt.Errorf("decode response: %w", err))
	}
	if out.MetadataURI == "" {
		return "", backoff.Permanent(fmt.Errorf("response has no metadataUri"))
	}
	return out.MetadataURI, nil
}

func encodeForm(token Token, image []byte) ([]byte, string, error) {
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)

	name := token.ImageName
	if name == "" {
		name = "image.png"
	}
	part, err := w.CreateFormFile("file", name)
	if err != nil {
		return nil, "", fmt.Errorf("create file part: %w", err)
	}
	if _, err := part.Write(image); err != nil {
		return nil, "", fmt.Errorf("write image: %w", err)
	}

	fields := []struct{ key, value string }{
		{"name", token.Name},
		{"symbol", token.Symbol},
		{"description", token.Description},
		{"twitter", token.Twitter},
		{"telegram", token.Telegram},
		{"website", token.Website},
		{"showName", "true"},
	}
	for _, f := range fields {
		if err := w.WriteField(f.key, f.value); err != nil {
			return nil, "", fmt.Errorf("write field %s: %w", f.key, err)
		}
	}
	if err := w.Close(); err != nil {
		return nil, "", fmt.Errorf("close form: %w", err)
	}
	return buf.Bytes(), w.FormDataContentType(), nil
}
