// Package queryevents publishes one event per gateway call to Kafka.
package queryevents

import (
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"time"

	"github.com/IBM/sarama"
	"github.com/google/uuid"

	"github.com/mohammed-shakir/ogc-gateway/internal/core/observability"
)

type Event struct {
	ID            string    `json:"id"`
	Operation     string    `json:"operation"`
	Provider      string    `json:"provider"`
	Endpoint      string    `json:"endpoint"`
	Outcome       string    `json:"outcome"`
	ExceptionCode string    `json:"exception_code,omitempty"`
	H3Cell        string    `json:"h3_cell,omitempty"`
	Fingerprint   string    `json:"fingerprint,omitempty"`
	TS            time.Time `json:"ts"`
}

// Sink accepts events without blocking. It reports whether the event was queued.
type Sink interface {
	Publish(ev Event) bool
}

// Nop discards every event.
type Nop struct{}

func (Nop) Publish(Event) bool { return false }

type Publisher struct {
	topic  string
	events chan Event
	prod   sarama.AsyncProducer
	logger *slog.Logger

	mu     sync.RWMutex
	closed bool

	forwarded chan struct{}
	drained   chan struct{}
}

func NewPublisher(brokers []string, topic string, queueSize int, logger *slog.Logger) (*Publisher, error) {
	cfg := sarama.NewConfig()
	cfg.Version = sarama.V2_5_0_0
	cfg.Producer.Return.Errors = true
	cfg.Producer.Return.Successes = false

	prod, err := sarama.NewAsyncProducer(brokers, cfg)
	if err != nil {
		return nil, fmt.Errorf("queryevents: create async producer: %w", err)
	}
	return NewWithProducer(prod, topic, queueSize, logger), nil
}

// NewWithProducer wraps an existing producer. The publisher owns it from here on.
func NewWithProducer(prod sarama.AsyncProducer, topic string, queueSize int, logger *slog.Logger) *Publisher {
	if queueSize <= 0 {
		queueSize = 1024
	}
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	p := &Publisher{
		topic:  topic,
		events: make(chan Event, queueSize),
		prod:   prod,
		logger: logger,

		forwarded: make(chan struct{}),
		drained:   make(chan struct{}),
	}

	go func() {
		defer close(p.forwarded)
		for ev := range p.events {
			b, err := json.Marshal(ev)
			if err != nil {
				p.logger.Warn("queryevents: marshal", "err", err)
				continue
			}
			p.prod.Input() <- &sarama.ProducerMessage{
				Topic: p.topic,
				Key:   sarama.StringEncoder(ev.Endpoint),
				Value: sarama.ByteEncoder(b),
			}
		}
	}()

	go func() {
		defer close(p.drained)
		for err := range p.prod.Errors() {
			if err != nil {
				observability.IncQueryEvent("failed")
				p.logger.Warn("queryevents: producer error", "err", err)
			}
		}
	}()

	return p
}

// Publish fills in ID and TS when empty and queues ev. A full queue drops the
// event rather than blocking the request path.
func (p *Publisher) Publish(ev Event) bool {
	if ev.ID == "" {
		ev.ID = uuid.NewString()
	}
	if ev.TS.IsZero() {
		ev.TS = time.Now().UTC()
	}

	p.mu.RLock()
	defer p.mu.RUnlock()
	if p.closed {
		return false
	}
	select {
	case p.events <- ev:
		observability.IncQueryEvent("queued")
		return true
	default:
		observability.IncQueryEvent("dropped")
		return false
	}
}

// Close drains queued events into the producer and closes it.
func (p *Publisher) Close() error {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return nil
	}
	p.closed = true
	close(p.events)
	p.mu.Unlock()

	<-p.forwarded
	err := p.prod.Close()
	<-p.drained
	if err != nil {
		return fmt.Errorf("queryevents: close producer: %w", err)
	}
	return nil
}
