package observability

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
)

type capturePublisher struct {
	routingKey string
	message    any
	err        error
}

func (p *capturePublisher) PublishJSON(ctx context.Context, routingKey string, message any) error {
	p.routingKey = routingKey
	p.message = message
	return p.err
}

func TestPublishEventRoutesThroughPublisher(t *testing.T) {
	publisher := &capturePublisher{}
	SetPublisher(publisher)
	t.Cleanup(func() { SetPublisher(nil) })

	envelope := NewEventEnvelope("group-order-service", "session_created", map[string]string{"sessionId": "s1"})
	require.NoError(t, PublishEvent(context.Background(), "session_events.session_created", envelope))

	require.Equal(t, "session_events.session_created", publisher.routingKey)
	got, ok := publisher.message.(EventEnvelope)
	require.True(t, ok)
	require.Equal(t, "session_created", got.Name)
	require.Equal(t, "group-order-service", got.Source)
	require.NotEmpty(t, got.OccurredAt)
}

func TestPublishEventWithoutPublisherIsNoop(t *testing.T) {
	SetPublisher(nil)
	require.NoError(t, PublishEvent(context.Background(), "session_events.session_created", nil))
}

func TestPublishEventSurfacesPublisherError(t *testing.T) {
	publisher := &capturePublisher{err: errors.New("broker down")}
	SetPublisher(publisher)
	t.Cleanup(func() { SetPublisher(nil) })

	require.Error(t, PublishEvent(context.Background(), "session_events.session_updated", nil))
}
