package queue

import (
	"sync"

	"go.uber.org/zap"
)

const defaultBufferSize = 1024

// MemoryQueue is an in-process fanout queue. Each subscriber drains its own
// buffered channel on a dedicated goroutine, so Publish never waits on handlers.
type MemoryQueue struct {
	mu         sync.RWMutex
	subs       map[string][]chan []byte
	bufferSize int
	closed     bool
	wg         sync.WaitGroup
	log        *zap.Logger
}

func NewMemoryQueue(bufferSize int, log *zap.Logger) *MemoryQueue {
	if bufferSize <= 0 {
		bufferSize = defaultBufferSize
	}
	log.Info("In-memory message queue initialized", zap.Int("buffer_size", bufferSize))
	return &MemoryQueue{
		subs:       make(map[string][]chan []byte),
		bufferSize: bufferSize,
		log:        log,
	}
}

// Publish returns ErrBufferFull if any subscriber's backlog is full; the
// message is still delivered to the others.
func (q *MemoryQueue) Publish(subject string, data []byte) error {
	q.mu.RLock()
	defer q.mu.RUnlock()

	if q.closed {
		return ErrClosed
	}

	var err error
	for _, ch := range q.subs[subject] {
		select {
		case ch <- data:
		default:
			err = ErrBufferFull
		}
	}
	return err
}

func (q *MemoryQueue) Subscribe(subject string, handler func(data []byte) error) error {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.closed {
		return ErrClosed
	}

	ch := make(chan []byte, q.bufferSize)
	q.subs[subject] = append(q.subs[subject], ch)

	q.wg.Add(1)
	go func() {
		defer q.wg.Done()
		for data := range ch {
			if err := handler(data); err != nil {
				q.log.Error("Error processing message", zap.String("subject", subject), zap.Error(err))
			}
		}
	}()
	return nil
}

func (q *MemoryQueue) Ping() error {
	q.mu.RLock()
	defer q.mu.RUnlock()
	if q.closed {
		return ErrClosed
	}
	return nil
}

// Close stops accepting messages and waits for subscribers to drain their backlog.
func (q *MemoryQueue) Close() error {
	q.mu.Lock()
	if q.closed {
		q.mu.Unlock()
		return nil
	}
	q.closed = true
	for _, chans := range q.subs {
		for _, ch := range chans {
			close(ch)
		}
	}
	q.mu.Unlock()

	q.wg.Wait()
	return nil
}
