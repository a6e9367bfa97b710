package httpclient

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/sony/gobreaker/v2"
)

// CircuitBreakerConfig describes when the commerce API is considered down.
type CircuitBreakerConfig struct {
	Name string
	// Probes allowed through while half-open.
	MaxRequests uint32
	// Closed-state counts reset every Interval; 0 keeps them forever.
	Interval time.Duration
	// How long the breaker stays open.
	Timeout      time.Duration
	FailureRatio float64
	MinRequests  uint32
}

// DefaultCircuitBreakerConfig trips after half of at least five calls fail
// and lets one trial request through after thirty seconds.
func DefaultCircuitBreakerConfig(name string) CircuitBreakerConfig {
	return CircuitBreakerConfig{
		Name:         name,
		MaxRequests:  1,
		Interval:     time.Minute,
		Timeout:      30 * time.Second,
		FailureRatio: 0.5,
		MinRequests:  5,
	}
}

func (cfg CircuitBreakerConfig) shouldTrip(counts gobreaker.Counts) bool {
	if counts.Requests < cfg.MinRequests {
		return false
	}
	return float64(counts.TotalFailures)/float64(counts.Requests) >= cfg.FailureRatio
}

var breakerState = promauto.NewGaugeVec(
	prometheus.GaugeOpts{
		Name: "storefront_remote_breaker_state",
		Help: "Commerce API breaker state (0=closed, 1=half-open, 2=open)",
	},
	[]string{"breaker"},
)

func stateValue(state gobreaker.State) float64 {
	switch state {
	case gobreaker.StateClosed:
		return 0
	case gobreaker.StateHalfOpen:
		return 1
	case gobreaker.StateOpen:
		return 2
	}
	return -1
}

// ErrCircuitOpen is returned without contacting the remote while the breaker
// is open.
var ErrCircuitOpen = gobreaker.ErrOpenState

// errServerFault marks a 5xx answer: it counts as a failure but the response
// still reaches the caller.
var errServerFault = errors.New("server fault")

// BreakerStatus is a point-in-time view of a breaker.
type BreakerStatus struct {
	Name     string `json:"name" yaml:"name"`
	State    string `json:"state" yaml:"state"`
	Requests uint32 `json:"requests" yaml:"requests"`
	Failures uint32 `json:"failures" yaml:"failures"`
}

// CircuitBreakerClient sends requests through a Client while the remote is
// healthy and fails fast once it is not.
type CircuitBreakerClient struct {
	client  *Client
	breaker *gobreaker.CircuitBreaker[*http.Response]
	logger  *slog.Logger
	name    string
}

// NewCircuitBreakerClient guards client with a breaker built from cfg.
func NewCircuitBreakerClient(client *Client, cfg CircuitBreakerConfig, logger *slog.Logger) *CircuitBreakerClient {
	breaker := gobreaker.NewCircuitBreaker[*http.Response](gobreaker.Settings{
		Name:        cfg.Name,
		MaxRequests: cfg.MaxRequests,
		Interval:    cfg.Interval,
		Timeout:     cfg.Timeout,
		ReadyToTrip: cfg.shouldTrip,
		// A canceled caller says nothing about the remote's health.
		IsSuccessful: func(err error) bool {
			return err == nil || errors.Is(err, context.Canceled)
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logger.Warn("commerce API breaker changed state",
				slog.String("breaker", name),
				slog.String("from", from.String()),
				slog.String("to", to.String()),
			)
			breakerState.WithLabelValues(name).Set(stateValue(to))
		},
	})
	breakerState.WithLabelValues(cfg.Name).Set(stateValue(gobreaker.StateClosed))

	return &CircuitBreakerClient{client: client, breaker: breaker, logger: logger, name: cfg.Name}
}

// Do sends req unless the breaker is open. 5xx answers are returned as
// responses so the caller can read the server's message.
func (c *CircuitBreakerClient) Do(ctx context.Context, req *http.Request) (*http.Response, error) {
	resp, err := c.breaker.Execute(func() (*http.Response, error) {
		resp, err := c.client.Do(ctx, req)
		if err != nil {
			return nil, err
		}
		if resp.StatusCode >= http.StatusInternalServerError {
			return resp, fmt.Errorf("%w: status %d", errServerFault, resp.StatusCode)
		}
		return resp, nil
	})
	switch {
	case err == nil:
		return resp, nil
	case errors.Is(err, errServerFault):
		return resp, nil
	case errors.Is(err, ErrCircuitOpen), errors.Is(err, gobreaker.ErrTooManyRequests):
		c.logger.WarnContext(ctx, "commerce API call short-circuited",
			slog.String("breaker", c.name),
			slog.String("path", req.URL.Path),
		)
	}
	return nil, err
}

// Status returns the breaker state with its current counts.
func (c *CircuitBreakerClient) Status() BreakerStatus {
	counts := c.breaker.Counts()
	return BreakerStatus{
		Name:     c.name,
		State:    c.breaker.State().String(),
		Requests: counts.Requests,
		Failures: counts.TotalFailures,
	}
}
