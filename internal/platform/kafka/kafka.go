// Package kafka builds the franz-go producer client and bootstraps topics.
package kafka

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/twmb/franz-go/pkg/kadm"
	"github.com/twmb/franz-go/pkg/kerr"
	"github.com/twmb/franz-go/pkg/kgo"

	"linkpulse/internal/platform/config"
)

// Client wraps a franz-go client with health checking capabilities.
type Client struct {
	*kgo.Client
}

// NewProducer builds a producer for cfg.Topic. Records are keyed by the caller, so
// one alias always lands on one partition. Returns nil if no brokers are configured.
func NewProducer(cfg config.KafkaConfig) (*Client, error) {
	if len(cfg.Brokers) == 0 {
		return nil, nil
	}
	cl, err := kgo.NewClient(
		kgo.SeedBrokers(cfg.Brokers...),
		kgo.DefaultProduceTopic(cfg.Topic),
		kgo.ProducerLinger(20*time.Millisecond),
		kgo.RecordDeliveryTimeout(10*time.Second),
		kgo.MaxBufferedRecords(10_000),
		kgo.ProducerBatchCompression(kgo.SnappyCompression(), kgo.NoCompression()),
	)
	if err != nil {
		return nil, fmt.Errorf("kafka client: %w", err)
	}
	return &Client{Client: cl}, nil
}

// EnsureTopic creates topic if it does not exist yet, using the broker's default
// replication factor.
func EnsureTopic(ctx context.Context, cl *kgo.Client, topic string, partitions int32) error {
	adm := kadm.NewClient(cl)
	resp, err := adm.CreateTopic(ctx, partitions, -1, nil, topic)
	if err != nil {
		return fmt.Errorf("create topic %s: %w", topic, err)
	}
	if resp.Err != nil && !errors.Is(resp.Err, kerr.TopicAlreadyExists) {
		return fmt.Errorf("create topic %s: %w", topic, resp.Err)
	}
	return nil
}

// Health pings the cluster.
func (c *Client) Health(ctx context.Context) error {
	return c.Ping(ctx)
}

func (c *Client) Name() string { return "kafka" }

// Shutdown flushes buffered records within ctx, then closes the client.
func (c *Client) Shutdown(ctx context.Context) error {
	err := c.Flush(ctx)
	c.Close()
	return err
}
