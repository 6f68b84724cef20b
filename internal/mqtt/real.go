package mqtt

import (
	"fmt"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	paho "github.com/eclipse/paho.mqtt.golang"

	"github.com/sweeney/battery-controller/internal/logic"
)

// DefaultBufferSize is how many messages are held while the broker is unreachable.
const DefaultBufferSize = 64

const qos = 1

// Options configures a RealPublisher.
type Options struct {
	Broker     string
	ClientID   string
	Username   string
	Password   string
	BootID     string
	Topics     Topics
	BufferSize int
}

// RealPublisher publishes to an actual MQTT broker. Messages published while
// disconnected are buffered and replayed on reconnect.
type RealPublisher struct {
	client paho.Client
	topics Topics
	logger *log.Logger

	mu      sync.Mutex
	backlog *backlog
}

// NewRealPublisher starts connecting to the broker in the background and
// returns immediately. The will message marks the battery OFFLINE.
func NewRealPublisher(o Options, logger *log.Logger) (*RealPublisher, error) {
	if o.BufferSize <= 0 {
		o.BufferSize = DefaultBufferSize
	}
	will, err := FormatSystemPayload(SystemEvent{
		Timestamp: time.Now(),
		Event:     "OFFLINE",
		Reason:    "LWT",
		BootID:    o.BootID,
	})
	if err != nil {
		return nil, fmt.Errorf("format will payload: %w", err)
	}

	p := &RealPublisher{
		topics:  o.Topics,
		logger:  logger,
		backlog: newBacklog(o.BufferSize),
	}

	opts := paho.NewClientOptions().
		AddBroker(o.Broker).
		SetClientID(o.ClientID).
		SetAutoReconnect(true).
		SetConnectRetry(true).
		SetConnectRetryInterval(5 * time.Second).
		SetBinaryWill(o.Topics.System, will, qos, true).
		SetOnConnectHandler(func(paho.Client) { p.replay() }).
		SetConnectionLostHandler(func(_ paho.Client, err error) {
			logger.Warn("connection lost", "err", err)
		})
	if o.Username != "" {
		opts.SetUsername(o.Username).SetPassword(o.Password)
	}

	p.client = paho.NewClient(opts)
	p.client.Connect()
	return p, nil
}

// PublishTelemetry sends a logged record, not retained.
func (p *RealPublisher) PublishTelemetry(fields logic.Fields) error {
	return p.publish(pending{
		topic:   p.topics.Telemetry,
		payload: FormatTelemetryPayload(fields),
	})
}

// PublishSystem sends a system lifecycle event to the MQTT broker.
func (p *RealPublisher) PublishSystem(event SystemEvent) error {
	payload, err := FormatSystemPayload(event)
	if err != nil {
		return fmt.Errorf("format system payload: %w", err)
	}
	return p.publish(pending{
		topic:    p.topics.System,
		payload:  payload,
		retained: event.Retained,
	})
}

func (p *RealPublisher) publish(msg pending) error {
	if !p.client.IsConnectionOpen() {
		p.mu.Lock()
		dropped := p.backlog.add(msg)
		n := p.backlog.size()
		p.mu.Unlock()
		if dropped {
			p.logger.Debug("backlog full, dropped a message", "size", n)
		}
		p.logger.Debug("broker unreachable, queued", "topic", msg.topic, "queued", n)
		return nil
	}

	token := p.client.Publish(msg.topic, qos, msg.retained, msg.payload)
	if !token.WaitTimeout(5 * time.Second) {
		return fmt.Errorf("publish %s: timeout", msg.topic)
	}
	if err := token.Error(); err != nil {
		return fmt.Errorf("publish %s: %w", msg.topic, err)
	}
	return nil
}

// replay sends everything buffered while disconnected. Runs on paho's
// connect goroutine, so it does not wait for acknowledgements.
func (p *RealPublisher) replay() {
	p.mu.Lock()
	msgs, lost := p.backlog.take()
	p.mu.Unlock()
	switch {
	case lost > 0:
		p.logger.Warn("connected, some messages were dropped while offline", "replaying", len(msgs), "dropped", lost)
	case len(msgs) > 0:
		p.logger.Info("connected, replaying queued messages", "count", len(msgs))
	default:
		p.logger.Info("connected")
	}
	for _, m := range msgs {
		p.client.Publish(m.topic, qos, m.retained, m.payload)
	}
}

// IsConnected reports whether the broker connection is up.
func (p *RealPublisher) IsConnected() bool {
	return p.client.IsConnectionOpen()
}

// Close disconnects from the broker.
func (p *RealPublisher) Close() error {
	p.client.Disconnect(1000) // 1 second timeout
	return nil
}
