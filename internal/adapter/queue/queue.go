package queue

import (
	"errors"
	"fmt"

	"go.uber.org/zap"
)

// MessageQueue defines the interface for a message queue adapter
type MessageQueue interface {
	Publish(subject string, data []byte) error
	Subscribe(subject string, handler func(data []byte) error) error
	Close() error
}

// Pinger is implemented by queues that can report connection health.
type Pinger interface {
	Ping() error
}

// Supported drivers.
const (
	DriverNone     = "none"
	DriverMemory   = "memory"
	DriverNATS     = "nats"
	DriverRabbitMQ = "rabbitmq"
)

var (
	ErrClosed        = errors.New("queue closed")
	ErrBufferFull    = errors.New("queue buffer full")
	ErrNotConfigured = errors.New("queue driver disabled")
)

// Options selects and configures a queue driver.
type Options struct {
	Driver string
	URL    string
	// Name identifies this client to the broker.
	Name string
	// Group shares subscriptions across replicas: a NATS queue group, or a
	// durable RabbitMQ queue instead of a private exclusive one.
	Group string
	// BufferSize bounds each in-memory subscriber's backlog.
	BufferSize int
}

// New connects the configured driver. DriverNone returns ErrNotConfigured.
func New(opts Options, log *zap.Logger) (MessageQueue, error) {
	switch opts.Driver {
	case DriverMemory:
		return NewMemoryQueue(opts.BufferSize, log), nil
	case DriverNATS:
		return NewNATSQueue(opts.URL, opts.Name, opts.Group, log)
	case DriverRabbitMQ:
		return NewRabbitMQQueue(opts.URL, opts.Group, log)
	case DriverNone, "":
		return nil, ErrNotConfigured
	default:
		return nil, fmt.Errorf("unknown queue driver %q", opts.Driver)
	}
}
