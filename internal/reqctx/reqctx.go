// Package reqctx carries the identity of one job submission through a context.
package reqctx

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

type key int

const requestKey key = 0

// HeaderRequestID carries the submission request ID to the backend
const HeaderRequestID = "X-Request-ID"

// RequestContext identifies one submission
type RequestContext struct {
	RequestID string
	StartTime time.Time
}

// Elapsed returns the time since the submission started
func (rc *RequestContext) Elapsed() time.Duration {
	return time.Since(rc.StartTime)
}

// New attaches a fresh request ID to ctx and returns both
func New(ctx context.Context) (context.Context, *RequestContext) {
	rc := &RequestContext{
		RequestID: uuid.NewString(),
		StartTime: time.Now(),
	}
	return context.WithValue(ctx, requestKey, rc), rc
}

// From returns the request context stored in ctx
func From(ctx context.Context) (*RequestContext, bool) {
	rc, ok := ctx.Value(requestKey).(*RequestContext)
	return rc, ok
}

// RequestID returns the ID stored in ctx, or "" when none was attached
func RequestID(ctx context.Context) string {
	if rc, ok := From(ctx); ok {
		return rc.RequestID
	}
	return ""
}

// Logger returns the global logger with the request ID of ctx attached, if any
func Logger(ctx context.Context) zerolog.Logger {
	if id := RequestID(ctx); id != "" {
		return log.With().Str("request_id", id).Logger()
	}
	return log.Logger
}
