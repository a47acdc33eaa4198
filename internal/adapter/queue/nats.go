package queue

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/nats-io/nats.go"
	"go.uber.org/zap"
)

const drainTimeout = 10 * time.Second

type NATSQueue struct {
	conn  *nats.Conn
	group string
	mu    sync.Mutex
	subs  []*nats.Subscription
	log   *zap.Logger
}

// NewNATSQueue connects with unlimited reconnects; publishes made while
// disconnected are buffered by the client. A non-empty group turns every
// subscription into a queue subscription so replicas share the load.
func NewNATSQueue(url, name, group string, log *zap.Logger) (*NATSQueue, error) {
	nc, err := nats.Connect(url,
		nats.Name(name),
		nats.MaxReconnects(-1),
		nats.ReconnectWait(2*time.Second),
		nats.DrainTimeout(drainTimeout),
		nats.DisconnectErrHandler(func(_ *nats.Conn, err error) {
			if err != nil {
				log.Warn("NATS disconnected", zap.Error(err))
			}
		}),
		nats.ReconnectHandler(func(c *nats.Conn) {
			log.Info("NATS reconnected", zap.String("url", c.ConnectedUrl()))
		}),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to NATS: %w", err)
	}

	log.Info("Successfully connected to NATS", zap.String("url", url))
	return &NATSQueue{
		conn:  nc,
		group: group,
		log:   log,
	}, nil
}

func (q *NATSQueue) Publish(subject string, data []byte) error {
	if err := q.conn.Publish(subject, data); err != nil {
		if errors.Is(err, nats.ErrConnectionClosed) {
			return ErrClosed
		}
		return fmt.Errorf("nats: publish %s: %w", subject, err)
	}
	return nil
}

func (q *NATSQueue) Subscribe(subject string, handler func(data []byte) error) error {
	cb := func(msg *nats.Msg) {
		if err := handler(msg.Data); err != nil {
			q.log.Error("Error processing message", zap.String("subject", subject), zap.Error(err))
		}
	}

	var (
		sub *nats.Subscription
		err error
	)
	if q.group != "" {
		sub, err = q.conn.QueueSubscribe(subject, q.group, cb)
	} else {
		sub, err = q.conn.Subscribe(subject, cb)
	}
	if err != nil {
		return fmt.Errorf("nats: subscribe %s: %w", subject, err)
	}

	q.mu.Lock()
	q.subs = append(q.subs, sub)
	q.mu.Unlock()

	q.log.Info("Subscribed to NATS subject", zap.String("subject", subject), zap.String("group", q.group))
	return nil
}

func (q *NATSQueue) Ping() error {
	if status := q.conn.Status(); status != nats.CONNECTED {
		return fmt.Errorf("nats: connection %s", status)
	}
	return nil
}

// Close drains subscriptions and blocks until in-flight handlers finish and
// the connection is closed, or drainTimeout passes.
func (q *NATSQueue) Close() error {
	if q.conn.IsClosed() {
		return nil
	}
	if err := q.conn.Drain(); err != nil {
		q.conn.Close()
		return fmt.Errorf("nats: drain: %w", err)
	}

	deadline := time.Now().Add(drainTimeout)
	for !q.conn.IsClosed() {
		if time.Now().After(deadline) {
			q.conn.Close()
			return fmt.Errorf("nats: drain timed out after %s", drainTimeout)
		}
		time.Sleep(20 * time.Millisecond)
	}
	return nil
}
