package queue

import (
	"encoding/json"
	"fmt"
	"sync"
)

// Queue used to send and receive messages in FIFO order
type Queue interface {

	// Send appends a message to the tail of the Queue
	Send(interface{}) error

	// Receive pops the oldest message from the Queue, returning false
	// when the Queue is empty
	Receive(interface{}) (bool, error)

	// Name of the queue
	Name() string

	// Len is the number of pending messages
	Len() int
}

// NewMemory returns an in-memory Queue. Messages round-trip through
// JSON so entries are immutable once enqueued.
func NewMemory(name string) Queue {
	return &memoryQueue{name: name}
}

type memoryQueue struct {
	mu      sync.Mutex
	name    string
	pending [][]byte
}

// Name returns the Queue name
func (q *memoryQueue) Name() string {
	return q.name
}

// Len returns the number of pending messages
func (q *memoryQueue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.pending)
}

// Send a message on the Queue
func (q *memoryQueue) Send(obj interface{}) error {
	js, err := json.Marshal(obj)
	if err != nil {
		return fmt.Errorf("Failed to marshal message: %s", err)
	}
	q.mu.Lock()
	defer q.mu.Unlock()
	q.pending = append(q.pending, js)
	return nil
}

// Receive a message from the Queue
func (q *memoryQueue) Receive(obj interface{}) (bool, error) {
	q.mu.Lock()
	defer q.mu.Unlock()
	if len(q.pending) == 0 {
		return false, nil
	}
	message := q.pending[0]
	q.pending = q.pending[1:]
	if err := json.Unmarshal(message, obj); err != nil {
		return true, fmt.Errorf("Failed to unmarshal message %s: %s", q.name, err)
	}
	return true, nil
}
