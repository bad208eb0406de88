package providers

import (
	"context"

	"github.com/zatekoja/postnatalcare/backend/internal/domain/entities"
)

// EventChannelCare carries triage and snapshot events.
const EventChannelCare = "care:events"

// EventBus fans care events out to in-process consumers such as insight
// enrichment. Delivery is best effort; a slow subscriber drops events rather
// than blocking publishers.
type EventBus interface {
	// Publish stamps a missing event ID and timestamp before sending.
	Publish(ctx context.Context, channel string, event *entities.CareEvent) error

	// Subscribe returns a channel that closes once the subscription is torn
	// down, including when ctx ends.
	Subscribe(ctx context.Context, channel string) (<-chan *entities.CareEvent, error)

	Unsubscribe(ctx context.Context, channel string) error
	Close() error
}
