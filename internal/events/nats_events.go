// Package events publishes swap attempt lifecycle transitions to NATS so
// downstream consumers (notification service, analytics) can follow every
// attempt without polling the API.
package events

import (
	"encoding/json"
	"fmt"
	"log"
	"time"

	"github.com/nats-io/nats.go"

	"swap-backend/internal/config"
	"swap-backend/internal/metrics"
)

// AttemptStateEvent is the wire form of one lifecycle transition.
type AttemptStateEvent struct {
	AttemptID string `json:"attempt_id"`
	State     string `json:"state"`
	Reason    string `json:"reason,omitempty"`
	Timestamp int64  `json:"timestamp"`
}

// Publisher publishes attempt events to NATS. It satisfies the pipeline's
// event sink; a nil Publisher is a valid no-op sink.
type Publisher struct {
	conn          *nats.Conn
	subjectPrefix string
}

// NewPublisher connects to the configured NATS server. Returns (nil, nil)
// when NATS is not configured so the pipeline can run without it.
func NewPublisher(cfg config.NATSConfig) (*Publisher, error) {
	if cfg.URL == "" {
		log.Println("NATS not configured, attempt events will not be published")
		return nil, nil
	}

	connectTimeout := 10 * time.Second
	if cfg.Timeout > 0 {
		connectTimeout = time.Duration(cfg.Timeout) * time.Second
	}
	reconnectWait := 5 * time.Second
	if cfg.ReconnectWait > 0 {
		reconnectWait = time.Duration(cfg.ReconnectWait) * time.Second
	}
	maxReconnects := -1
	if cfg.MaxReconnects != 0 {
		maxReconnects = cfg.MaxReconnects
	}

	conn, err := nats.Connect(cfg.URL,
		nats.Timeout(connectTimeout),
		nats.ReconnectWait(reconnectWait),
		nats.MaxReconnects(maxReconnects),
		nats.DisconnectErrHandler(func(nc *nats.Conn, err error) {
			log.Printf("⚠️ [Events] NATS disconnected: %v", err)
			metrics.NATSConnectionStatus.Set(0)
		}),
		nats.ReconnectHandler(func(nc *nats.Conn) {
			log.Printf("✅ [Events] NATS reconnected")
			metrics.NATSConnectionStatus.Set(1)
		}),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to NATS: %w", err)
	}

	metrics.NATSConnectionStatus.Set(1)

	prefix := cfg.SubjectPrefix
	if prefix == "" {
		prefix = "swap.attempt"
	}

	log.Printf("✅ [Events] NATS publisher connected (prefix=%s)", prefix)
	return &Publisher{conn: conn, subjectPrefix: prefix}, nil
}

// PublishAttemptState publishes one transition on <prefix>.<state>. Publish
// failures are logged and counted; the pipeline never blocks on them.
func (p *Publisher) PublishAttemptState(attemptID string, state string, reason string) {
	if p == nil || p.conn == nil {
		return
	}

	event := AttemptStateEvent{
		AttemptID: attemptID,
		State:     state,
		Reason:    reason,
		Timestamp: time.Now().Unix(),
	}
	data, err := json.Marshal(event)
	if err != nil {
		metrics.EventsPublished.WithLabelValues("marshal_error").Inc()
		return
	}

	subject := fmt.Sprintf("%s.%s", p.subjectPrefix, state)
	if err := p.conn.Publish(subject, data); err != nil {
		log.Printf("⚠️ [Events] Failed to publish %s for attempt %s: %v", subject, attemptID, err)
		metrics.EventsPublished.WithLabelValues("error").Inc()
		return
	}
	metrics.EventsPublished.WithLabelValues("success").Inc()
}

// Close drains the connection.
func (p *Publisher) Close() {
	if p != nil && p.conn != nil {
		p.conn.Close()
	}
}
