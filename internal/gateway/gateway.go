package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/time/rate"
)

// Gateway performs one call against the remote API and returns the raw
// response body. Failures are *NetworkError or *HTTPError.
type Gateway interface {
	Call(ctx context.Context, method, path string, body any) ([]byte, error)
}

// Config holds HTTPGateway settings
type Config struct {
	BaseURL  string
	Token    string
	Timeout  time.Duration
	RPS      float64 // outbound requests per second, 0 disables limiting
	Burst    int
	PingPath string
}

// DefaultConfig returns sensible defaults for a local household API
func DefaultConfig(baseURL string) Config {
	return Config{
		BaseURL:  baseURL,
		Timeout:  15 * time.Second,
		RPS:      10,
		Burst:    20,
		PingPath: "/",
	}
}

// HTTPGateway is the Gateway backed by the remote REST API
type HTTPGateway struct {
	baseURL  string
	token    string
	timeout  time.Duration
	pingPath string
	client   *http.Client
	limiter  *rate.Limiter
	logger   zerolog.Logger
}

// New creates an HTTPGateway
func New(cfg Config, logger zerolog.Logger) *HTTPGateway {
	limiter := rate.NewLimiter(rate.Inf, 0)
	if cfg.RPS > 0 {
		burst := cfg.Burst
		if burst < 1 {
			burst = 1
		}
		limiter = rate.NewLimiter(rate.Limit(cfg.RPS), burst)
	}
	pingPath := cfg.PingPath
	if pingPath == "" {
		pingPath = "/"
	}

	return &HTTPGateway{
		baseURL:  strings.TrimRight(cfg.BaseURL, "/"),
		token:    cfg.Token,
		timeout:  cfg.Timeout,
		pingPath: pingPath,
		client:   &http.Client{},
		limiter:  limiter,
		logger:   logger.With().Str("component", "gateway").Logger(),
	}
}

// SetToken replaces the API token used for subsequent calls
func (g *HTTPGateway) SetToken(token string) {
	g.token = token
}

// Call implements Gateway. body may be nil, a []byte sent verbatim, or any
// value encoded as JSON.
func (g *HTTPGateway) Call(ctx context.Context, method, path string, body any) ([]byte, error) {
	if err := g.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	if g.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, g.timeout)
		defer cancel()
	}

	reader, err := encodeBody(body)
	if err != nil {
		return nil, fmt.Errorf("encode %s %s: %w", method, path, err)
	}

	req, err := http.NewRequestWithContext(ctx, method, g.baseURL+path, reader)
	if err != nil {
		return nil, fmt.Errorf("build %s %s: %w", method, path, err)
	}
	req.Header.Set("Accept", "application/json")
	if reader != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if g.token != "" {
		req.Header.Set("Authorization", "Token "+g.token)
	}

	start := time.Now()
	resp, err := g.client.Do(req)
	if err != nil {
		return nil, classify(ctx, method, path, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, classify(ctx, method, path, err)
	}

	g.logger.Debug().
		Str("method", method).
		Str("path", path).
		Int("status", resp.StatusCode).
		Dur("elapsed", time.Since(start)).
		Msg("API call")

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &HTTPError{Method: method, Path: path, Status: resp.StatusCode, Body: data}
	}
	return data, nil
}

// Ping checks that the API answers at all. Any HTTP response counts as
// reachable; only transport failures are returned.
func (g *HTTPGateway) Ping(ctx context.Context) error {
	_, err := g.Call(ctx, http.MethodGet, g.pingPath, nil)
	var httpErr *HTTPError
	if errors.As(err, &httpErr) {
		return nil
	}
	return err
}

func encodeBody(body any) (io.Reader, error) {
	switch b := body.(type) {
	case nil:
		return nil, nil
	case []byte:
		return bytes.NewReader(b), nil
	default:
		data, err := json.Marshal(b)
		if err != nil {
			return nil, err
		}
		return bytes.NewReader(data), nil
	}
}

// classify turns a transport failure into a NetworkError. Cancellation by the
// caller is returned as is.
func classify(ctx context.Context, method, path string, err error) error {
	if errors.Is(ctx.Err(), context.Canceled) {
		return ctx.Err()
	}

	timeout := errors.Is(err, context.DeadlineExceeded)
	var ne net.Error
	if errors.As(err, &ne) && ne.Timeout() {
		timeout = true
	}
	return &NetworkError{Op: method, Path: path, Timeout: timeout, Err: err}
}

// Decode unmarshals a response body into T
func Decode[T any](data []byte) (T, error) {
	var v T
	if len(bytes.TrimSpace(data)) == 0 {
		return v, nil
	}
	if err := json.Unmarshal(data, &v); err != nil {
		return v, fmt.Errorf("decode %T: %w", v, err)
	}
	return v, nil
}

// DecodeList unmarshals a list response. Both a bare JSON array and a
// paginated {"results": [...]} envelope are accepted.
func DecodeList[T any](data []byte) ([]T, error) {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 {
		return []T{}, nil
	}
	if trimmed[0] == '{' {
		var page struct {
			Results []T `json:"results"`
		}
		if err := json.Unmarshal(trimmed, &page); err != nil {
			return nil, fmt.Errorf("decode page: %w", err)
		}
		if page.Results == nil {
			page.Results = []T{}
		}
		return page.Results, nil
	}

	items := []T{}
	if err := json.Unmarshal(trimmed, &items); err != nil {
		return nil, fmt.Errorf("decode list: %w", err)
	}
	return items, nil
}
