package mqtt

import (
	"fmt"
	"sync"
	"time"

	paho "github.com/eclipse/paho.mqtt.golang"
	"go.uber.org/zap"

	"github.com/sweeney/breath-sensor/internal/sleep"
)

const (
	clientID       = "breath-sensor"
	connectTimeout = 10 * time.Second
	publishTimeout = 5 * time.Second

	// eventBufferSize bounds how many session/system events are held for
	// replay while the broker is unreachable.
	eventBufferSize = 64
)

// RealPublisher publishes to an actual MQTT broker. Session and system
// events are buffered while disconnected and replayed on reconnect; samples
// are ephemeral and simply dropped.
type RealPublisher struct {
	client paho.Client
	logger *zap.Logger

	mu  sync.Mutex
	buf *ringBuffer
}

// NewRealPublisher creates a publisher for the given broker. If the broker
// is unreachable the publisher still comes up: paho keeps retrying in the
// background and buffered events flow once the connection lands.
func NewRealPublisher(broker string, logger *zap.Logger) (*RealPublisher, error) {
	p := &RealPublisher{
		logger: logger,
		buf:    newRingBuffer(eventBufferSize),
	}

	opts := paho.NewClientOptions().
		AddBroker(broker).
		SetClientID(clientID).
		SetAutoReconnect(true).
		SetConnectRetry(true).
		SetConnectRetryInterval(5 * time.Second).
		SetOnConnectHandler(func(c paho.Client) {
			p.drainBuffered(c)
		})

	p.client = paho.NewClient(opts)

	token := p.client.Connect()
	if !token.WaitTimeout(connectTimeout) {
		logger.Warn("broker not reachable yet, continuing with retry",
			zap.String("broker", broker))
		return p, nil
	}
	if err := token.Error(); err != nil {
		return nil, fmt.Errorf("connect to broker: %w", err)
	}

	return p, nil
}

// PublishSample sends one sample to the broker. Samples are dropped without
// error while disconnected: by the time the connection returns they are
// stale, and the cumulative fields ride along on the next one anyway.
func (p *RealPublisher) PublishSample(sample sleep.Sample) error {
	if !p.client.IsConnected() {
		return nil
	}

	payload, err := FormatSamplePayload(sample)
	if err != nil {
		return fmt.Errorf("format sample payload: %w", err)
	}

	// QoS 0 (at-most-once), not retained
	token := p.client.Publish(TopicSamples, 0, false, payload)
	if !token.WaitTimeout(publishTimeout) {
		return fmt.Errorf("publish sample timeout")
	}
	if err := token.Error(); err != nil {
		return fmt.Errorf("publish sample: %w", err)
	}

	return nil
}

// PublishSession sends a session transition to the MQTT broker.
func (p *RealPublisher) PublishSession(event SessionEvent) error {
	payload, err := FormatSessionPayload(event)
	if err != nil {
		return fmt.Errorf("format session payload: %w", err)
	}

	// QoS 1 (at-least-once): transitions matter to downstream automations.
	return p.publishOrBuffer(TopicSession, 1, false, payload)
}

// PublishSystem sends a system lifecycle event to the MQTT broker.
func (p *RealPublisher) PublishSystem(event SystemEvent) error {
	payload, err := FormatSystemPayload(event)
	if err != nil {
		return fmt.Errorf("format system payload: %w", err)
	}

	return p.publishOrBuffer(TopicSystem, 1, event.Retained, payload)
}

// publishOrBuffer delivers now when connected, otherwise queues for the
// reconnect drain. A failed in-flight publish is also queued, which under
// QoS 1 at worst duplicates.
func (p *RealPublisher) publishOrBuffer(topic string, qos byte, retained bool, payload []byte) error {
	if !p.client.IsConnected() {
		p.buffer(bufferedMsg{topic: topic, payload: payload, qos: qos, retained: retained})
		return nil
	}

	token := p.client.Publish(topic, qos, retained, payload)
	if !token.WaitTimeout(publishTimeout) {
		p.buffer(bufferedMsg{topic: topic, payload: payload, qos: qos, retained: retained})
		return fmt.Errorf("publish timeout on %s, event buffered", topic)
	}
	if err := token.Error(); err != nil {
		p.buffer(bufferedMsg{topic: topic, payload: payload, qos: qos, retained: retained})
		return fmt.Errorf("publish on %s: %w", topic, err)
	}

	return nil
}

func (p *RealPublisher) buffer(msg bufferedMsg) {
	p.mu.Lock()
	dropped := p.buf.push(msg)
	p.mu.Unlock()

	if dropped {
		p.logger.Warn("event buffer full, dropping oldest events")
	}
}

// drainBuffered replays everything queued while disconnected. Runs on the
// paho connect callback goroutine.
func (p *RealPublisher) drainBuffered(c paho.Client) {
	p.mu.Lock()
	msgs := p.buf.drainAll()
	p.mu.Unlock()

	if len(msgs) == 0 {
		return
	}

	p.logger.Info("replaying buffered events", zap.Int("count", len(msgs)))
	for _, m := range msgs {
		token := c.Publish(m.topic, m.qos, m.retained, m.payload)
		if !token.WaitTimeout(publishTimeout) {
			p.logger.Warn("replay timeout", zap.String("topic", m.topic))
			continue
		}
		if err := token.Error(); err != nil {
			p.logger.Warn("replay failed", zap.String("topic", m.topic), zap.Error(err))
		}
	}
}

// IsConnected reports whether the broker connection is up.
func (p *RealPublisher) IsConnected() bool {
	return p.client.IsConnected()
}

// Close disconnects from the broker.
func (p *RealPublisher) Close() error {
	p.client.Disconnect(1000) // 1 second timeout
	return nil
}
