package kafka

import (
	"encoding/binary"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/IBM/sarama"
	kafkago "github.com/segmentio/kafka-go"

	"poll-service/internal/models"
)

func InitKafkaProducer(brokers []string, topic string) (sarama.SyncProducer, error) {
	config := sarama.NewConfig()
	config.Producer.RequiredAcks = sarama.WaitForAll
	config.Producer.Retry.Max = 5
	config.Producer.Return.Successes = true
	config.Producer.Compression = sarama.CompressionSnappy  // Enable compression
	config.Producer.Partitioner = sarama.NewHashPartitioner // Consistent hashing
	config.Producer.Partitioner(topic)
	config.Version = sarama.V2_0_0_0
	config.ClientID = "poll-service"
	config.Producer.MaxMessageBytes = 1000000 // 1MB (adjust as needed)
	config.Producer.Flush.MaxMessages = 1000  // Flush every 1000 messages (adjust as needed)

	producer, err := sarama.NewSyncProducer(brokers, config)
	if err != nil {
		return nil, err
	}

	return producer, nil
}

// VoteEventProducer publishes vote events for the tally worker. Events for
// the same poll share a key so they land on one partition in order.
type VoteEventProducer struct {
	producer sarama.SyncProducer
	topic    string
}

func NewVoteEventProducer(producer sarama.SyncProducer, topic string) *VoteEventProducer {
	return &VoteEventProducer{producer: producer, topic: topic}
}

// Publish sends the event, retrying briefly when the broker is unreachable.
// The vote row is already committed by the time this runs, so after the
// retries are spent the error is reported but must not undo the vote.
func (p *VoteEventProducer) Publish(event models.VoteEvent) error {
	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal vote event: %w", err)
	}

	key := make([]byte, 8)
	binary.BigEndian.PutUint64(key, uint64(event.PollID))

	msg := &sarama.ProducerMessage{
		Topic: p.topic,
		Key:   sarama.ByteEncoder(key),
		Value: sarama.ByteEncoder(payload),
	}

	var lastErr error
	backoff := 100 * time.Millisecond
	for attempt := 0; attempt < 3; attempt++ {
		if attempt > 0 {
			time.Sleep(backoff)
			backoff *= 2
		}
		partition, offset, err := p.producer.SendMessage(msg)
		if err == nil {
			slog.Debug("Published vote event", "pollID", event.PollID, "partition", partition, "offset", offset)
			return nil
		}
		lastErr = err
		slog.Warn("Vote event publish failed", "pollID", event.PollID, "attempt", attempt+1, "error", err)
	}
	return fmt.Errorf("failed to publish vote event: %w", lastErr)
}

func (p *VoteEventProducer) Close() error {
	return p.producer.Close()
}

// NewVoteEventReader builds the consumer-group reader the tally worker
// drains.
func NewVoteEventReader(brokers []string, groupID, topic string) *kafkago.Reader {
	return kafkago.NewReader(kafkago.ReaderConfig{
		Brokers:        brokers,
		GroupID:        groupID,
		Topic:          topic,
		MinBytes:       1,
		MaxBytes:       10e6,
		CommitInterval: time.Second,
	})
}

// DecodeVoteEvent unpacks a consumed message back into the event shape.
func DecodeVoteEvent(msg kafkago.Message) (models.VoteEvent, error) {
	var event models.VoteEvent
	if err := json.Unmarshal(msg.Value, &event); err != nil {
		return models.VoteEvent{}, fmt.Errorf("failed to decode vote event: %w", err)
	}
	return event, nil
}
