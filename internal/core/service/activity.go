package service

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"github.com/emphasys/identity/internal/core/domain"
	"github.com/emphasys/identity/internal/core/ports"
	"github.com/emphasys/identity/pkg/logger"
)

// LogActivitySink writes audit events to the structured log.
type LogActivitySink struct {
	log zerolog.Logger
}

var _ ports.ActivitySink = LogActivitySink{}

func NewLogActivitySink(log zerolog.Logger) LogActivitySink {
	return LogActivitySink{log: logger.Component(log, "activity")}
}

func (s LogActivitySink) Record(_ context.Context, e domain.ActivityEvent) error {
	ev := s.log.Info().
		Str("type", string(e.Type)).
		Int64("subject_id", e.SubjectID).
		Time("occurred_at", e.OccurredAt)
	if e.ActorID != nil {
		ev = ev.Int64("actor_id", *e.ActorID)
	}
	if e.Email != "" {
		ev = ev.Str("email", e.Email)
	}
	for k, v := range e.Detail {
		ev = ev.Str(k, v)
	}
	ev.Msg("account activity")
	return nil
}

type nopActivitySink struct{}

func (nopActivitySink) Record(context.Context, domain.ActivityEvent) error { return nil }

func actorOf(p *domain.Principal) *int64 {
	if p == nil {
		return nil
	}
	id := p.Subject
	return &id
}

// emit never fails the caller; audit loss is logged.
func emit(ctx context.Context, sink ports.ActivitySink, log zerolog.Logger, e domain.ActivityEvent) {
	if err := sink.Record(ctx, e); err != nil {
		log.Warn().Err(err).Str("type", string(e.Type)).Msg("activity event dropped")
	}
}

// RecordDenied audits a principal turned away from an admin-only route.
func RecordDenied(ctx context.Context, sink ports.ActivitySink, log zerolog.Logger, p *domain.Principal, route string, at time.Time) {
	e := domain.ActivityEvent{
		Type:       domain.ActivityAuthorizationDeny,
		ActorID:    actorOf(p),
		Detail:     map[string]string{"route": route},
		OccurredAt: at.UTC(),
	}
	if p != nil {
		e.SubjectID = p.Subject
		e.Email = p.UserName
		e.Detail["role"] = p.Role
	}
	emit(ctx, sink, log, e)
}
