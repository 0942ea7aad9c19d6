package sink

import (
	"context"
	"encoding/json"
	"fmt"

	"cloud.google.com/go/pubsub"

	"github.com/newbizpulse/sunbiz-crawler/internal/registry"
)

// Publisher streams admitted records to a Cloud Pub/Sub topic as JSON, one
// message per record, with the doc number as an attribute so subscribers can
// dedupe without unmarshaling.
type Publisher struct {
	client *pubsub.Client
	topic  *pubsub.Topic
}

// NewPublisher connects a pubsub client against projectID/topicName.
func NewPublisher(ctx context.Context, projectID, topicName string) (*Publisher, error) {
	client, err := pubsub.NewClient(ctx, projectID)
	if err != nil {
		return nil, fmt.Errorf("pubsub client: %w", err)
	}
	return &Publisher{client: client, topic: client.Topic(topicName)}, nil
}

// Keep publishes one record and waits for the server ack.
func (p *Publisher) Keep(ctx context.Context, rec registry.Record) error {
	data, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("marshal record: %w", err)
	}
	res := p.topic.Publish(ctx, &pubsub.Message{
		Data: data,
		Attributes: map[string]string{
			"doc_number": rec.DocNumber,
		},
	})
	if _, err := res.Get(ctx); err != nil {
		return fmt.Errorf("publish record %s: %w", rec.DocNumber, err)
	}
	return nil
}

// Close flushes the topic and closes the client.
func (p *Publisher) Close(context.Context) error {
	p.topic.Stop()
	if err := p.client.Close(); err != nil {
		return fmt.Errorf("close pubsub client: %w", err)
	}
	return nil
}
