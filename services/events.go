package services

import (
	"context"
	"encoding/json"
	"math"
	"strings"
	"sync"
	"time"

	"membership-portal/logger"

	"github.com/segmentio/kafka-go"
)

// EventPublisher publishes payment lifecycle events to Kafka on a
// best-effort basis. A nil or broker-less publisher silently drops
// events; nothing in the request path depends on it.
type EventPublisher struct {
	mu     sync.Mutex
	writer *kafka.Writer
	log    *logger.Logger
}

// NewEventPublisher builds a publisher for the comma-separated broker
// list. An empty list disables publishing.
func NewEventPublisher(brokers string, log *logger.Logger) *EventPublisher {
	if log == nil {
		log = logger.NewDefault()
	}
	p := &EventPublisher{log: log}

	var validBrokers []string
	for _, b := range strings.Split(brokers, ",") {
		if b := strings.TrimSpace(b); b != "" {
			validBrokers = append(validBrokers, b)
		}
	}

	if len(validBrokers) == 0 {
		log.Info("Kafka is disabled (no brokers configured)")
		return p
	}

	p.writer = &kafka.Writer{
		Addr:         kafka.TCP(validBrokers...),
		Balancer:     &kafka.LeastBytes{},
		Async:        false,
		WriteTimeout: 10 * time.Second,
		RequiredAcks: kafka.RequireAll,
	}
	log.Info("Kafka producer initialized. Brokers=%v", validBrokers)
	return p
}

// Publish marshals value to JSON and publishes it to the given topic
// with key, retrying with exponential backoff (3 attempts).
func (p *EventPublisher) Publish(topic, key string, value interface{}) error {
	p.mu.Lock()
	writer := p.writer
	p.mu.Unlock()

	if writer == nil {
		return nil
	}

	payload, err := json.Marshal(value)
	if err != nil {
		p.log.Error("Error marshaling Kafka message: %v", err)
		return err
	}

	msg := kafka.Message{
		Topic: topic,
		Key:   []byte(key),
		Value: payload,
	}

	var lastErr error
	for attempt := 0; attempt < 3; attempt++ {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		err := writer.WriteMessages(ctx, msg)
		cancel()

		if err == nil {
			return nil
		}

		lastErr = err
		if attempt < 2 {
			backoff := time.Duration(math.Pow(2, float64(attempt))) * time.Second
			p.log.Warn("Kafka publish attempt %d/3 failed, retrying in %v: %v", attempt+1, backoff, err)
			time.Sleep(backoff)
		} else {
			p.log.Error("Kafka publish failed after 3 attempts: %v", err)
		}
	}
	return lastErr
}

// Close gracefully closes the underlying writer.
func (p *EventPublisher) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.writer != nil {
		return p.writer.Close()
	}
	return nil
}
