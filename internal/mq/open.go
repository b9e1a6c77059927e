package mq

import (
	"context"
	"fmt"

	"github.com/deojon/studio/config"
)

// Open constructs the broker selected by cfg.Backend. The "none" backend
// delivers messages in-process only.
func Open(ctx context.Context, cfg config.MQConfig) (*MQ, error) {
	switch cfg.Backend {
	case "rabbitmq":
		client, err := NewRabbitMQClient(cfg.RabbitMQ, cfg.NodeID)
		if err != nil {
			return nil, err
		}
		return New(client), nil
	case "pubsub":
		client, err := NewPubSubClient(ctx, cfg.PubSub, cfg.NodeID)
		if err != nil {
			return nil, err
		}
		return New(client), nil
	case "", "none", "memory":
		return New(NewMemoryBroker()), nil
	default:
		return nil, fmt.Errorf("unknown mq backend %q", cfg.Backend)
	}
}
