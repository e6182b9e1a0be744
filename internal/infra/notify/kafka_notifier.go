package notify

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"

	"reservd/internal/app/policies"
)

const defaultIntentTopic = "notification.events.v1"

// Publisher is satisfied by the Kafka sync producer.
type Publisher interface {
	Publish(ctx context.Context, topic string, key string, payload []byte, headers map[string]string) error
}

// KafkaNotifier hands notification intents to the delivery pipeline over the
// broker. Actual delivery, retries included, belongs to the downstream
// notification service.
type KafkaNotifier struct {
	Producer Publisher
	Topic    string
}

type intentMessage struct {
	ID        string         `json:"id"`
	To        string         `json:"to"`
	Template  string         `json:"template"`
	Data      map[string]any `json:"data,omitempty"`
	EmittedAt time.Time      `json:"emitted_at"`
}

func (n KafkaNotifier) Send(ctx context.Context, to string, template string, data any) error {
	msg := intentMessage{
		ID:        uuid.NewString(),
		To:        to,
		Template:  template,
		EmittedAt: time.Now().UTC(),
	}
	if m, ok := data.(map[string]any); ok {
		msg.Data = m
	} else if data != nil {
		msg.Data = map[string]any{"payload": data}
	}
	payload, err := json.Marshal(msg)
	if err != nil {
		return err
	}
	topic := n.Topic
	if topic == "" {
		topic = defaultIntentTopic
	}
	return n.Producer.Publish(ctx, topic, to, payload, map[string]string{"content-type": "application/json"})
}

var _ policies.Notifier = KafkaNotifier{}
