// Package service implements the business rules behind the API handlers.
package service

import (
	"context"

	"sharify/internal/querykeys"
)

// ChangePublisher is told about every committed write so caches and
// connected clients can drop the reads it made stale.
type ChangePublisher interface {
	Publish(ctx context.Context, changes ...querykeys.Change)
}

// ChangePublisherFunc adapts a function to ChangePublisher.
type ChangePublisherFunc func(ctx context.Context, changes ...querykeys.Change)

func (f ChangePublisherFunc) Publish(ctx context.Context, changes ...querykeys.Change) {
	f(ctx, changes...)
}

type noopPublisher struct{}

func (noopPublisher) Publish(context.Context, ...querykeys.Change) {}

func publisherOrNoop(p ChangePublisher) ChangePublisher {
	if p == nil {
		return noopPublisher{}
	}
	return p
}
