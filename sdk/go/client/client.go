// Package client is a Go SDK for the pushreach environment endpoint. A
// Client drives exactly one remote environment; calls are serialised.
package client

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"

	"github.com/zeusync/pushreach/internal/core/observability/log"
	"github.com/zeusync/pushreach/internal/core/protocol"
	"github.com/zeusync/pushreach/internal/env"
)

// Config holds configuration for the client
type Config struct {
	// URL is the websocket endpoint, e.g. ws://127.0.0.1:8765/env.
	URL            string
	ConnectTimeout time.Duration
	MaxMessageSize int64
	Logger         log.Log
}

// DefaultClientConfig returns default client configuration
func DefaultClientConfig() Config {
	return Config{
		URL:            "ws://127.0.0.1:8765/env",
		ConnectTimeout: 10 * time.Second,
		MaxMessageSize: 1 << 20,
	}
}

// Client is a connection to one remote environment.
type Client struct {
	conn   *websocket.Conn
	codec  protocol.Codec
	config Config
	logger log.Log

	mu     sync.Mutex
	nextID atomic.Uint64
	closed atomic.Bool
}

// Dial connects to the endpoint. The server creates a fresh environment
// for the connection.
func Dial(ctx context.Context, config Config) (*Client, error) {
	if config.URL == "" {
		return nil, fmt.Errorf("%w: empty url", ErrInvalidConfig)
	}
	logger := config.Logger
	if logger == nil {
		logger = log.NewNop()
	}

	dialer := *websocket.DefaultDialer
	if config.ConnectTimeout > 0 {
		dialer.HandshakeTimeout = config.ConnectTimeout
	}
	conn, resp, err := dialer.DialContext(ctx, config.URL, nil)
	if resp != nil && resp.Body != nil {
		_ = resp.Body.Close()
	}
	if err != nil {
		return nil, fmt.Errorf("dial %s: %w", config.URL, err)
	}
	if config.MaxMessageSize > 0 {
		conn.SetReadLimit(config.MaxMessageSize)
	}

	c := &Client{
		conn:   conn,
		codec:  protocol.JSONCodec{},
		config: config,
		logger: logger.With(log.String("component", "client")),
	}
	c.logger.Debug("Client connected", log.String("url", config.URL))
	return c, nil
}

// Close closes the connection; the server drops the environment.
func (c *Client) Close() error {
	if !c.closed.CompareAndSwap(false, true) {
		return nil
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	msg := websocket.FormatCloseMessage(websocket.CloseNormalClosure, "")
	_ = c.conn.WriteControl(websocket.CloseMessage, msg, time.Now().Add(time.Second))
	return c.conn.Close()
}

func (c *Client) IsClosed() bool { return c.closed.Load() }

// Call sends one request and decodes its result into out (may be nil).
// Server errors come back as *protocol.Error.
func (c *Client) Call(ctx context.Context, method string, params any, out any) error {
	if c.closed.Load() {
		return ErrClientClosed
	}
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("%s: %w", method, err)
	}
	req, err := protocol.NewRequest(c.nextID.Add(1), method, params)
	if err != nil {
		return err
	}
	data, err := c.codec.EncodeRequest(req)
	if err != nil {
		return err
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	// Unblock reads and writes when ctx ends.
	fired := make(chan struct{})
	stop := context.AfterFunc(ctx, func() {
		_ = c.conn.SetReadDeadline(time.Now())
		_ = c.conn.SetWriteDeadline(time.Now())
		close(fired)
	})
	defer func() {
		if !stop() {
			<-fired
		}
		_ = c.conn.SetReadDeadline(time.Time{})
		_ = c.conn.SetWriteDeadline(time.Time{})
	}()

	if err := c.conn.WriteMessage(websocket.TextMessage, data); err != nil {
		return c.transportError(ctx, method, err)
	}
	_, raw, err := c.conn.ReadMessage()
	if err != nil {
		return c.transportError(ctx, method, err)
	}

	resp, err := c.codec.DecodeResponse(raw)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidMessage, err)
	}
	if resp.ID != req.ID {
		return fmt.Errorf("%w: response %d for request %d", ErrInvalidMessage, resp.ID, req.ID)
	}
	if resp.Error != nil {
		return resp.Error
	}
	if out == nil {
		return nil
	}
	if err := json.Unmarshal(resp.Result, out); err != nil {
		return fmt.Errorf("%w: %s result: %v", ErrInvalidMessage, method, err)
	}
	return nil
}

func (c *Client) transportError(ctx context.Context, method string, err error) error {
	if ctxErr := ctx.Err(); ctxErr != nil {
		// The connection state is unknown after an interrupted exchange.
		_ = c.conn.Close()
		c.closed.Store(true)
		return fmt.Errorf("%s: %w", method, ctxErr)
	}
	return fmt.Errorf("%s: %w", method, err)
}

func (c *Client) Reset(ctx context.Context) (env.Observation, error) {
	var obs env.Observation
	err := c.Call(ctx, protocol.MethodReset, nil, &obs)
	return obs, err
}

func (c *Client) Step(ctx context.Context, action [2]float64) (env.StepResult, error) {
	var res env.StepResult
	err := c.Call(ctx, protocol.MethodStep, protocol.StepParams{Action: action}, &res)
	return res, err
}

func (c *Client) SampleGoal(ctx context.Context) (env.Goal, error) {
	var g env.Goal
	err := c.Call(ctx, protocol.MethodSampleGoal, nil, &g)
	return g, err
}

func (c *Client) SampleGoals(ctx context.Context, n int) ([]env.Goal, error) {
	var gs []env.Goal
	err := c.Call(ctx, protocol.MethodSampleGoals, protocol.SampleGoalsParams{N: n}, &gs)
	return gs, err
}

func (c *Client) GetGoal(ctx context.Context) (env.Goal, error) {
	var g env.Goal
	err := c.Call(ctx, protocol.MethodGetGoal, nil, &g)
	return g, err
}

func (c *Client) SetGoal(ctx context.Context, g env.Goal) error {
	return c.Call(ctx, protocol.MethodSetGoal, protocol.GoalParams{Goal: g}, nil)
}

func (c *Client) SetToGoal(ctx context.Context, g env.Goal) error {
	return c.Call(ctx, protocol.MethodSetToGoal, protocol.GoalParams{Goal: g}, nil)
}

func (c *Client) GetEnvState(ctx context.Context) (env.EnvState, error) {
	var st env.EnvState
	err := c.Call(ctx, protocol.MethodGetEnvState, nil, &st)
	return st, err
}

func (c *Client) SetEnvState(ctx context.Context, st env.EnvState) error {
	return c.Call(ctx, protocol.MethodSetEnvState, protocol.EnvStateParams{State: &st}, nil)
}

// RestoreEnvState restores a checkpoint this connection obtained from
// GetEnvState, by its id. The server keeps a bounded number of them.
func (c *Client) RestoreEnvState(ctx context.Context, id string) error {
	return c.Call(ctx, protocol.MethodSetEnvState, protocol.EnvStateParams{ID: id}, nil)
}

func (c *Client) Spaces(ctx context.Context) (env.Spaces, error) {
	var s env.Spaces
	err := c.Call(ctx, protocol.MethodSpaces, nil, &s)
	return s, err
}

func (c *Client) ComputeRewards(ctx context.Context, achieved, desired [][]float64) ([]float64, error) {
	var rewards []float64
	params := protocol.ComputeRewardsParams{Achieved: achieved, Desired: desired}
	err := c.Call(ctx, protocol.MethodComputeRewards, params, &rewards)
	return rewards, err
}

func (c *Client) Diagnostics(ctx context.Context, paths []env.Path, prefix string) ([]env.Stat, error) {
	var stats []env.Stat
	err := c.Call(ctx, protocol.MethodDiagnostics, protocol.DiagnosticsParams{Paths: paths, Prefix: prefix}, &stats)
	return stats, err
}

func (c *Client) Seed(ctx context.Context, seed uint64) error {
	return c.Call(ctx, protocol.MethodSeed, protocol.SeedParams{Seed: seed}, nil)
}
