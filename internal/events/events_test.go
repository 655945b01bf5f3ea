package events

import (
	"context"
	"encoding/json"
	"log/slog"
	"os"
	"testing"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
)

func TestNewEvent(t *testing.T) {
	event := NewEvent(TypeContentReviewed, ContentReviewedEvent{ContentID: "n1", Status: "published"})

	if event.ID == "" {
		t.Error("Event ID should not be empty")
	}
	if event.Source != "stemhub-service" {
		t.Errorf("Expected source 'stemhub-service', got '%s'", event.Source)
	}
	if event.Version != "1.0" {
		t.Errorf("Expected version '1.0', got '%s'", event.Version)
	}
	if event.Timestamp.IsZero() {
		t.Error("Event timestamp should not be zero")
	}
}

func TestKafkaEventPublisherWritesEnvelope(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(os.Stdout, nil))
	pubSub := gochannel.NewGoChannel(gochannel.Config{Persistent: true}, watermill.NopLogger{})
	defer pubSub.Close()

	publisher := newKafkaEventPublisher(pubSub, "stemhub.events", logger)
	ctx := context.Background()

	messages, err := pubSub.Subscribe(ctx, "stemhub.events")
	if err != nil {
		t.Fatalf("subscribe: %v", err)
	}

	event := NewEvent(TypeReviewBacklog, ReviewBacklogEvent{Notes: 2, Total: 2})
	if err := publisher.Publish(ctx, event); err != nil {
		t.Fatalf("publish: %v", err)
	}

	msg := <-messages
	msg.Ack()

	if msg.UUID != event.ID {
		t.Errorf("message uuid = %s, want %s", msg.UUID, event.ID)
	}
	if msg.Metadata.Get("event_type") != TypeReviewBacklog {
		t.Errorf("event_type metadata = %q", msg.Metadata.Get("event_type"))
	}

	var decoded struct {
		Type string             `json:"type"`
		Data ReviewBacklogEvent `json:"data"`
	}
	if err := json.Unmarshal(msg.Payload, &decoded); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if decoded.Type != TypeReviewBacklog || decoded.Data.Notes != 2 {
		t.Errorf("unexpected payload %+v", decoded)
	}
}

func TestMockEventPublisher(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(os.Stdout, nil))
	mock := NewMockEventPublisher(logger)
	ctx := context.Background()

	mock.Publish(ctx, NewEvent(TypeUserInvited, nil))
	mock.Publish(ctx, NewEvent(TypeContentReviewed, nil))

	if got := len(mock.GetEventsByType(TypeContentReviewed)); got != 1 {
		t.Errorf("expected 1 reviewed event, got %d", got)
	}

	mock.ClearEvents()
	if got := len(mock.GetPublishedEvents()); got != 0 {
		t.Errorf("expected no events after clear, got %d", got)
	}
}
