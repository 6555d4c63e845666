package events

import (
	"context"
	"encoding/json"
	"time"

	"pulsemon/config"
	"pulsemon/internals/modules/monitor"
	"pulsemon/pkg/rabbitmq"

	"github.com/rabbitmq/amqp091-go"
	"github.com/rs/zerolog"
)

// TransitionEvent is the broker-facing view of a status transition.
type TransitionEvent struct {
	Slug       string    `json:"slug"`
	Name       string    `json:"name"`
	PrevStatus string    `json:"prev_status"`
	NewStatus  string    `json:"new_status"`
	Note       string    `json:"note"`
	OccurredAt time.Time `json:"occurred_at"`
}

// Publisher pushes transition events to the exchange. Same contract as
// the webhook: best-effort, no redelivery.
type Publisher struct {
	pub    *rabbitmq.Publisher
	logger *zerolog.Logger
}

func NewPublisher(conn *amqp091.Connection, rmqCfg *config.RabbitMQConfig, logger *zerolog.Logger) (*Publisher, error) {
	pub, err := rabbitmq.NewPublisher(conn, rmqCfg.ExchangeName, rmqCfg.RoutingKey)
	if err != nil {
		return nil, err
	}

	return &Publisher{
		pub:    pub,
		logger: logger,
	}, nil
}

func (p *Publisher) PublishTransition(ctx context.Context, tr monitor.Transition) error {
	event := TransitionEvent{
		Slug:       tr.Snapshot.Slug,
		Name:       tr.Snapshot.Name,
		PrevStatus: string(tr.Prev),
		NewStatus:  string(tr.New),
		Note:       tr.Note,
		OccurredAt: tr.Snapshot.OccurredAt,
	}

	body, err := json.Marshal(event)
	if err != nil {
		return err
	}

	return p.pub.Publish(ctx, body)
}

func (p *Publisher) Close() error {
	return p.pub.Close()
}
