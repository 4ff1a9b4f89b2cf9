package server

import (
	"context"
	"log/slog"

	"sharify/internal/cache"
	"sharify/internal/featureflags"
	"sharify/internal/notifications"
	"sharify/internal/observability"
	"sharify/internal/querykeys"
)

// Publish implements service.ChangePublisher: it drops every cached read the
// changes make stale and tells connected clients to do the same.
func (s *Server) Publish(ctx context.Context, changes ...querykeys.Change) {
	if len(changes) == 0 {
		return
	}
	cache.InvalidateChanges(ctx, changes...)

	if !s.featureFlags.Enabled(featureflags.RealtimeInvalidation, 0) {
		return
	}
	ev, err := notifications.InvalidationEvent(querykeys.Default, changes...)
	if err != nil {
		observability.Logger.ErrorContext(ctx, "failed to build invalidation event", slog.String("error", err.Error()))
		return
	}
	if err := s.hub.PublishAll(ctx, ev); err != nil {
		observability.Logger.WarnContext(ctx, "failed to publish invalidation event", slog.String("error", err.Error()))
	}
}

// publishSignedOut tells every session of userID that its token was revoked.
func (s *Server) publishSignedOut(ctx context.Context, userID uint, reason string) {
	ev, err := notifications.NewEvent(notifications.EventSignedOut,
		notifications.SignedOutPayload{UserID: userID, Reason: reason})
	if err != nil {
		return
	}
	if err := s.hub.PublishUser(ctx, userID, ev); err != nil {
		observability.Logger.WarnContext(ctx, "failed to publish signed-out event",
			slog.Uint64("user_id", uint64(userID)), slog.String("error", err.Error()))
	}
}
