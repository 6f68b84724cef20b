package mqtt

import (
	"github.com/sweeney/battery-controller/internal/logic"
)

// Message is one publish as the broker would see it.
type Message struct {
	Topic    string
	Payload  []byte
	Retained bool
}

// FakePublisher records what would have gone to the broker. Topics default
// to battery 0 under DefaultPrefix.
type FakePublisher struct {
	Topics Topics

	// Sent holds every successful publish in order, across both topics.
	Sent []Message

	Telemetry      []logic.Fields
	Payloads       [][]byte
	SystemEvents   []SystemEvent
	SystemPayloads [][]byte

	// Failures counts publishes refused because of PublishError or PublishSystemError.
	Failures int

	PublishError       error
	PublishSystemError error

	Closed    bool
	Connected bool
}

func NewFakePublisher() *FakePublisher {
	return &FakePublisher{Topics: NewTopics("", 0)}
}

func (f *FakePublisher) PublishTelemetry(fields logic.Fields) error {
	if f.PublishError != nil {
		f.Failures++
		return f.PublishError
	}
	payload := FormatTelemetryPayload(fields)
	f.Telemetry = append(f.Telemetry, fields)
	f.Payloads = append(f.Payloads, payload)
	f.Sent = append(f.Sent, Message{Topic: f.Topics.Telemetry, Payload: payload})
	return nil
}

func (f *FakePublisher) PublishSystem(event SystemEvent) error {
	if f.PublishSystemError != nil {
		f.Failures++
		return f.PublishSystemError
	}
	payload, err := FormatSystemPayload(event)
	if err != nil {
		return err
	}
	f.SystemEvents = append(f.SystemEvents, event)
	f.SystemPayloads = append(f.SystemPayloads, payload)
	f.Sent = append(f.Sent, Message{Topic: f.Topics.System, Payload: payload, Retained: event.Retained})
	return nil
}

// Retained returns the message a new subscriber would get on topic: the
// last retained publish, if any.
func (f *FakePublisher) Retained(topic string) (Message, bool) {
	for i := len(f.Sent) - 1; i >= 0; i-- {
		if m := f.Sent[i]; m.Topic == topic && m.Retained {
			return m, true
		}
	}
	return Message{}, false
}

func (f *FakePublisher) Close() error {
	f.Closed = true
	return nil
}

func (f *FakePublisher) IsConnected() bool { return f.Connected }

// Reset returns the fake to its initial state, keeping Topics.
func (f *FakePublisher) Reset() {
	*f = FakePublisher{Topics: f.Topics}
}
