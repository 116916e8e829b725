package events

import (
	"fmt"
	"strings"
	"sync"
	"sync/atomic"
	"time"
)

// Event names published by the archiver runner.
const (
	NamePercent  = "percent"
	NameFile     = "file"
	NameLog      = "log"
	NameStarted  = "started"
	NameFinished = "finished"
)

// FinishedOK is the payload of a finished event for a successful job.
const FinishedOK = "ok"

// Event is a single notification for the UI layer.
type Event struct {
	Sequence uint64    `json:"seq"`
	Time     time.Time `json:"ts"`
	Name     string    `json:"name"`
	JobID    string    `json:"job_id,omitempty"`
	Payload  string    `json:"payload"`
}

// Sink receives events as they are produced.
type Sink interface {
	Emit(Event)
}

// SinkFunc adapts a function to Sink.
type SinkFunc func(Event)

// Emit calls f(evt).
func (f SinkFunc) Emit(evt Event) { f(evt) }

// Policy selects what happens when a subscriber channel is full.
type Policy string

const (
	// DropOldest discards the oldest undelivered event to make room.
	DropOldest Policy = "drop_oldest"
	// Block waits for the subscriber to catch up.
	Block Policy = "block"
)

// ParsePolicy validates a configured overflow policy.
func ParsePolicy(value string) (Policy, error) {
	switch Policy(strings.ToLower(strings.TrimSpace(value))) {
	case DropOldest, "":
		return DropOldest, nil
	case Block:
		return Block, nil
	default:
		return "", fmt.Errorf("unknown overflow policy %q", value)
	}
}

type subscription struct {
	mu     sync.Mutex
	ch     chan Event
	done   chan struct{}
	closed bool
}

// Hub sequences events and delivers them to subscribers.
type Hub struct {
	mu       sync.Mutex
	capacity int
	policy   Policy
	nextSeq  uint64
	subs     map[int]*subscription
	nextSub  int

	dropped atomic.Uint64
}

// NewHub constructs a hub. capacity is the default subscriber buffer.
func NewHub(capacity int, policy Policy) *Hub {
	if capacity <= 0 {
		capacity = 256
	}
	if policy == "" {
		policy = DropOldest
	}
	return &Hub{
		capacity: capacity,
		policy:   policy,
		subs:     make(map[int]*subscription),
	}
}

// Emit stamps evt and delivers it to every subscriber.
func (h *Hub) Emit(evt Event) {
	if h == nil {
		return
	}
	h.mu.Lock()
	h.nextSeq++
	evt.Sequence = h.nextSeq
	if evt.Time.IsZero() {
		evt.Time = time.Now().UTC()
	}
	subs := make([]*subscription, 0, len(h.subs))
	for _, sub := range h.subs {
		subs = append(subs, sub)
	}
	h.mu.Unlock()

	for _, sub := range subs {
		h.deliver(sub, evt)
	}
}

func (h *Hub) deliver(sub *subscription, evt Event) {
	if h.policy == Block {
		sub.mu.Lock()
		defer sub.mu.Unlock()
		if sub.closed {
			return
		}
		select {
		case sub.ch <- evt:
		case <-sub.done:
		}
		return
	}

	sub.mu.Lock()
	defer sub.mu.Unlock()
	if sub.closed {
		return
	}
	for {
		select {
		case sub.ch <- evt:
			return
		default:
		}
		select {
		case <-sub.ch:
			h.dropped.Add(1)
		default:
		}
	}
}

// Subscribe returns a channel receiving every event emitted after the call
// and a cancel function that closes it.
func (h *Hub) Subscribe(buffer int) (<-chan Event, func()) {
	if buffer <= 0 {
		buffer = h.capacity
	}
	sub := &subscription{
		ch:   make(chan Event, buffer),
		done: make(chan struct{}),
	}
	h.mu.Lock()
	id := h.nextSub
	h.nextSub++
	h.subs[id] = sub
	h.mu.Unlock()

	var once sync.Once
	cancel := func() {
		once.Do(func() {
			h.mu.Lock()
			delete(h.subs, id)
			h.mu.Unlock()
			close(sub.done)
			sub.mu.Lock()
			sub.closed = true
			close(sub.ch)
			sub.mu.Unlock()
		})
	}
	return sub.ch, cancel
}

// Dropped reports how many events were discarded for slow subscribers.
func (h *Hub) Dropped() uint64 {
	return h.dropped.Load()
}
