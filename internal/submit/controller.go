// Package submit drives the submission lifecycle of one scraping job session.
package submit

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/law-makers/scrapejob/internal/backend"
	"github.com/law-makers/scrapejob/internal/reqctx"
	"github.com/law-makers/scrapejob/internal/transform"
	"github.com/law-makers/scrapejob/pkg/models"
	"github.com/rs/zerolog/log"
)

// ResultHandler receives the raw success payload together with the job that produced it
type ResultHandler interface {
	HandleResult(payload json.RawMessage, cfg models.JobConfig)
}

// ResultHandlerFunc adapts a plain function to ResultHandler
type ResultHandlerFunc func(payload json.RawMessage, cfg models.JobConfig)

// HandleResult calls f
func (f ResultHandlerFunc) HandleResult(payload json.RawMessage, cfg models.JobConfig) {
	f(payload, cfg)
}

// Option configures a Controller
type Option func(*Controller)

// WithResultHandler sets the hook called after every successful submission
func WithResultHandler(h ResultHandler) Option {
	return func(c *Controller) {
		c.handler = h
	}
}

// Controller moves between Idle, Pending, Succeeded and Failed.
// At most one backend request is outstanding at any time; a submit while Pending is ignored.
type Controller struct {
	client  backend.Client
	handler ResultHandler

	mu          sync.Mutex
	state       models.SubmissionState
	subscribers map[int]func(models.SubmissionState)
	nextSubID   int
}

// New creates an idle controller that sends jobs through client
func New(client backend.Client, opts ...Option) *Controller {
	c := &Controller{
		client:      client,
		state:       models.SubmissionState{Kind: models.StateIdle},
		subscribers: make(map[int]func(models.SubmissionState)),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// State returns the current submission state
func (c *Controller) State() models.SubmissionState {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Pending reports whether a submission is in flight
func (c *Controller) Pending() bool {
	return c.State().Kind == models.StatePending
}

// Subscribe registers fn to receive every state transition. The returned func removes it.
func (c *Controller) Subscribe(fn func(models.SubmissionState)) func() {
	c.mu.Lock()
	id := c.nextSubID
	c.nextSubID++
	c.subscribers[id] = fn
	c.mu.Unlock()

	return func() {
		c.mu.Lock()
		delete(c.subscribers, id)
		c.mu.Unlock()
	}
}

// Submit sends cfg to the backend and blocks until the submission settles.
// When a submission is already pending it returns the current state and false
// without contacting the backend.
func (c *Controller) Submit(ctx context.Context, cfg models.JobConfig) (models.SubmissionState, bool) {
	ctx, pending, ok := c.begin(ctx)
	if !ok {
		return pending, false
	}
	return c.run(ctx, cfg.Clone(), pending), true
}

// SubmitAsync starts a submission and returns a channel that receives the settled state once.
// The bool is false, and the channel nil, when a submission is already pending.
func (c *Controller) SubmitAsync(ctx context.Context, cfg models.JobConfig) (<-chan models.SubmissionState, bool) {
	ctx, pending, ok := c.begin(ctx)
	if !ok {
		return nil, false
	}

	done := make(chan models.SubmissionState, 1)
	snapshot := cfg.Clone()
	go func() {
		done <- c.run(ctx, snapshot, pending)
		close(done)
	}()
	return done, true
}

// begin takes the in-flight token. The returned context carries the request ID and
// ignores cancellation of the caller's context.
func (c *Controller) begin(ctx context.Context) (context.Context, models.SubmissionState, bool) {
	c.mu.Lock()
	if c.state.Kind == models.StatePending {
		current := c.state
		c.mu.Unlock()
		log.Debug().Str("request_id", current.RequestID).Msg("Submission already pending, ignoring")
		return ctx, current, false
	}

	ctx, rc := reqctx.New(context.WithoutCancel(ctx))
	c.state = models.SubmissionState{
		Kind:      models.StatePending,
		RequestID: rc.RequestID,
		StartedAt: rc.StartTime,
	}
	state, subs := c.state, c.subscriberList()
	c.mu.Unlock()

	notify(subs, state)
	return ctx, state, true
}

func (c *Controller) run(ctx context.Context, cfg models.JobConfig, pending models.SubmissionState) models.SubmissionState {
	logger := reqctx.Logger(ctx)
	logger.Info().
		Str("url", cfg.URL).
		Int("fields", len(cfg.Fields)).
		Msg("Submitting job")

	payload, err := c.call(ctx, transform.Transform(cfg))

	settled := pending
	settled.SettledAt = time.Now()
	if err != nil {
		settled.Kind = models.StateFailed
		settled.Err = backend.Classify(err)
		logger.Warn().
			Err(err).
			Dur("elapsed", settled.Duration()).
			Msg("Submission failed")
	} else {
		settled.Kind = models.StateSucceeded
		settled.Result = payload
		logger.Info().
			Int("bytes", len(payload)).
			Dur("elapsed", settled.Duration()).
			Msg("Submission succeeded")
	}

	c.mu.Lock()
	c.state = settled
	subs := c.subscriberList()
	c.mu.Unlock()

	notify(subs, settled)
	if settled.Kind == models.StateSucceeded && c.handler != nil {
		c.handler.HandleResult(settled.Result, cfg)
	}
	return settled
}

// call invokes the backend, turning a panic in the client into an ordinary failure
func (c *Controller) call(ctx context.Context, req models.BackendRequest) (payload json.RawMessage, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("backend client panicked: %v", r)
		}
	}()
	return c.client.Submit(ctx, req)
}

// subscriberList must be called with mu held
func (c *Controller) subscriberList() []func(models.SubmissionState) {
	subs := make([]func(models.SubmissionState), 0, len(c.subscribers))
	for _, fn := range c.subscribers {
		subs = append(subs, fn)
	}
	return subs
}

func notify(subs []func(models.SubmissionState), state models.SubmissionState) {
	for _, fn := range subs {
		fn(state)
	}
}
