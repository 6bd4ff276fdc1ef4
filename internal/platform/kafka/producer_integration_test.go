//go:build integration

package kafka_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"
	"github.com/twmb/franz-go/pkg/kgo"

	"listingwatch/internal/compliance/outbox"
	"listingwatch/internal/platform/config"
	"listingwatch/internal/platform/kafka"
	"listingwatch/pkg/testutil/containers"
)

type ProducerSuite struct {
	suite.Suite
	brokers  []string
	producer *kafka.Producer
}

func TestProducerSuite(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	suite.Run(t, new(ProducerSuite))
}

func (s *ProducerSuite) SetupSuite() {
	s.brokers = containers.GetManager().GetRedpanda(s.T()).Brokers
	producer, err := kafka.NewProducer(config.KafkaConfig{
		Brokers:            s.brokers,
		ComplaintPackTopic: "complaint-packs-test",
	})
	s.Require().NoError(err)
	s.producer = producer

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	s.Require().NoError(s.producer.Ping(ctx))
	s.Require().NoError(s.producer.EnsureTopic(ctx, 1, 1))
	s.Require().NoError(s.producer.EnsureTopic(ctx, 1, 1), "existing topic is not an error")
}

func (s *ProducerSuite) TearDownSuite() {
	if s.producer != nil {
		_ = s.producer.Close(context.Background())
	}
}

func (s *ProducerSuite) TestPublishIsConsumable() {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	err := s.producer.Publish(ctx, outbox.Message{
		Key:     "cp-chk-1",
		Value:   []byte(`{"complaint_id":"cp-chk-1"}`),
		Headers: map[string]string{"event_type": "complaint_pack.created"},
	})
	s.Require().NoError(err)

	consumer, err := kgo.NewClient(
		kgo.SeedBrokers(s.brokers...),
		kgo.ConsumeTopics("complaint-packs-test"),
		kgo.ConsumeResetOffset(kgo.NewOffset().AtStart()),
	)
	s.Require().NoError(err)
	defer consumer.Close()

	fetches := consumer.PollFetches(ctx)
	s.Require().Empty(fetches.Errors())
	records := fetches.Records()
	s.Require().NotEmpty(records)
	s.Equal("cp-chk-1", string(records[0].Key))
	s.Equal("event_type", records[0].Headers[0].Key)
}
