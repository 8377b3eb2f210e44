// Package audit records security decisions (rate-limit denies, sanitization
// rejections) for monitoring and compliance. Every event is logged; when a
// relational store or event queue is attached, events are persisted and
// published best-effort.
package audit

import (
	"context"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	logpkg "github.com/socialsuit/Backend-Socialsuit/internal/logger"
)

// Event kinds.
const (
	KindRateLimitDeny      = "rate_limit_deny"
	KindSanitizationReject = "sanitization_reject"
)

// Event is a single audited security decision.
type Event struct {
	ID         uuid.UUID `json:"id"`
	Kind       string    `json:"kind"`
	Identity   string    `json:"identity"`
	Method     string    `json:"method"`
	Path       string    `json:"path"`
	Reason     string    `json:"reason"`
	RetryAfter int64     `json:"retry_after_seconds,omitempty"`
	OccurredAt time.Time `json:"occurred_at"`
}

// NewEvent creates an audit event stamped with an ID and the current time.
func NewEvent(kind, identity, method, path, reason string) Event {
	return Event{
		ID:         uuid.New(),
		Kind:       kind,
		Identity:   identity,
		Method:     method,
		Path:       path,
		Reason:     reason,
		OccurredAt: time.Now().UTC(),
	}
}

// EventStore persists audit events.
type EventStore interface {
	InsertEvent(ctx context.Context, e Event) error
}

// EventPublisher pushes audit events to downstream consumers.
type EventPublisher interface {
	PublishEvent(ctx context.Context, e Event) error
}

// sinkTimeout bounds the detached persist/publish work per event.
const sinkTimeout = 5 * time.Second

// Recorder fans audit events out to the log and any attached sinks. Store and
// publisher may be nil; the platform then runs log-only (degraded mode).
type Recorder struct {
	log       *zap.Logger
	store     EventStore
	publisher EventPublisher
}

// NewRecorder creates an audit recorder. store and publisher are optional.
func NewRecorder(log *zap.Logger, store EventStore, publisher EventPublisher) *Recorder {
	return &Recorder{log: log, store: store, publisher: publisher}
}

// Record logs the event and hands it to the attached sinks. Sink writes run
// on a detached context so a client disconnect mid-request never abandons the
// audit trail; failures are logged and swallowed.
func (r *Recorder) Record(e Event) {
	r.log.Warn("security_event",
		zap.String("kind", e.Kind),
		zap.String("identity", logpkg.SanitizeIdentity(e.Identity)),
		zap.String("method", e.Method),
		zap.String("path", logpkg.SanitizePath(e.Path)),
		zap.String("reason", e.Reason),
	)

	if r.store == nil && r.publisher == nil {
		return
	}

	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), sinkTimeout)
		defer cancel()

		if r.store != nil {
			if err := r.store.InsertEvent(ctx, e); err != nil {
				r.log.Warn("failed_to_persist_audit_event",
					zap.String("event_id", e.ID.String()),
					zap.Error(err),
				)
			}
		}
		if r.publisher != nil {
			if err := r.publisher.PublishEvent(ctx, e); err != nil {
				r.log.Warn("failed_to_publish_audit_event",
					zap.String("event_id", e.ID.String()),
					zap.Error(err),
				)
			}
		}
	}()
}
