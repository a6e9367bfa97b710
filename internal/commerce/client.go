package commerce

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"

	apperrors "github.com/utafrali/storefront/pkg/errors"
	"github.com/utafrali/storefront/pkg/httpclient"
	"github.com/utafrali/storefront/pkg/logger"
	"github.com/utafrali/storefront/pkg/tracing"
)

const tracerName = "storefront/commerce"

// HTTPDoer sends one HTTP request. Both *httpclient.Client and
// *httpclient.CircuitBreakerClient satisfy it.
type HTTPDoer interface {
	Do(ctx context.Context, req *http.Request) (*http.Response, error)
}

// Client is a typed client for the remote commerce API. Every method makes
// exactly one request. Non-2xx answers become RemoteRejected errors carrying
// the server message; transport and decoding failures become
// RemoteUnreachable.
type Client struct {
	baseURL string
	http    HTTPDoer
	logger  *slog.Logger
}

// NewClient creates a commerce API client rooted at baseURL.
func NewClient(baseURL string, doer HTTPDoer, logger *slog.Logger) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    doer,
		logger:  logger,
	}
}

// call describes one request to the API.
type call struct {
	method   string
	path     string
	query    url.Values
	token    string
	body     any
	fallback string
}

// send issues the request and returns the raw response. The caller owns the
// response body.
func (c *Client) send(ctx context.Context, cl call) (*http.Response, error) {
	target := c.baseURL + cl.path
	if len(cl.query) > 0 {
		target += "?" + cl.query.Encode()
	}

	var body io.Reader = http.NoBody
	if cl.body != nil {
		payload, err := json.Marshal(cl.body)
		if err != nil {
			return nil, apperrors.Internal(fmt.Errorf("encode %s body: %w", cl.path, err))
		}
		body = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, cl.method, target, body)
	if err != nil {
		return nil, apperrors.Internal(fmt.Errorf("build %s %s: %w", cl.method, cl.path, err))
	}
	req.Header.Set("Accept", "application/json")
	if cl.body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if cl.token != "" {
		req.Header.Set("Authorization", "Bearer "+cl.token)
	}
	if id := logger.CorrelationIDFromContext(ctx); id != "" {
		req.Header.Set("X-Correlation-ID", id)
	}

	ctx, span := tracing.StartClientSpan(ctx, tracerName, req)
	resp, err := c.http.Do(ctx, req)
	if err != nil {
		tracing.EndClientSpan(span, 0, err)
		c.logger.WarnContext(ctx, "commerce api unreachable",
			slog.String("method", cl.method),
			slog.String("path", cl.path),
			slog.String("error", err.Error()),
		)
		return nil, apperrors.RemoteUnreachable(err)
	}
	tracing.EndClientSpan(span, resp.StatusCode, nil)

	return resp, nil
}

// do issues the request, maps non-2xx answers to errors and decodes a 2xx
// body into out when out is non-nil.
func (c *Client) do(ctx context.Context, cl call, out any) error {
	resp, err := c.send(ctx, cl)
	if err != nil {
		return err
	}

	if !httpclient.IsSuccess(resp.StatusCode) {
		err := httpclient.ParseResponseError(resp, cl.fallback)
		// 4xx is the user's request being refused; anything else is the API failing.
		level, msg := slog.LevelWarn, "commerce api failed"
		if httpclient.IsClientError(resp.StatusCode) {
			level, msg = slog.LevelInfo, "commerce api rejected request"
		}
		c.logger.Log(ctx, level, msg,
			slog.String("method", cl.method),
			slog.String("path", cl.path),
			slog.Int("status", resp.StatusCode),
			slog.String("message", apperrors.UserMessage(err)),
		)
		return err
	}
	defer drainAndClose(resp.Body)

	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return apperrors.RemoteUnreachable(fmt.Errorf("decode %s %s: %w", cl.method, cl.path, err))
	}
	return nil
}

func drainAndClose(body io.ReadCloser) {
	_, _ = io.Copy(io.Discard, io.LimitReader(body, 1<<20))
	_ = body.Close()
}
