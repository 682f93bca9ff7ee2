// Package pubsub fans session events out to live subscribers such as SSE
// streams.
package pubsub

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
)

// DefaultBuffer is the per-subscription channel capacity
const DefaultBuffer = 100

// ErrClosed is returned when subscribing to a bus that was shut down
var ErrClosed = errors.New("pubsub: bus closed")

// Message is one published event
type Message struct {
	Topic string
	Kind  string
	Data  any
}

// Bus provides topic based publish/subscribe. Publishing never blocks: a
// subscriber whose buffer is full misses the message.
type Bus struct {
	subscribers map[string]map[*Subscription]bool
	mu          sync.RWMutex
	shutdown    chan struct{}
	shutdownMu  sync.Mutex
	isShutdown  bool
	buffer      int
	dropped     atomic.Uint64
}

// Subscription receives the messages of one topic
type Subscription struct {
	topic     string
	channel   chan Message
	bus       *Bus
	ctx       context.Context
	cancel    context.CancelFunc
	closeOnce sync.Once
}

// New creates a bus with the given subscription buffer; 0 means DefaultBuffer
func New(buffer int) *Bus {
	if buffer <= 0 {
		buffer = DefaultBuffer
	}
	return &Bus{
		subscribers: make(map[string]map[*Subscription]bool),
		shutdown:    make(chan struct{}),
		buffer:      buffer,
	}
}

// Subscribe creates a subscription that lives until ctx is done, Unsubscribe
// is called or the bus shuts down
func (b *Bus) Subscribe(ctx context.Context, topic string) (*Subscription, error) {
	b.shutdownMu.Lock()
	if b.isShutdown {
		b.shutdownMu.Unlock()
		return nil, ErrClosed
	}
	b.shutdownMu.Unlock()

	subCtx, cancel := context.WithCancel(ctx)
	sub := &Subscription{
		topic:   topic,
		channel: make(chan Message, b.buffer),
		bus:     b,
		ctx:     subCtx,
		cancel:  cancel,
	}

	b.mu.Lock()
	if b.subscribers[topic] == nil {
		b.subscribers[topic] = make(map[*Subscription]bool)
	}
	b.subscribers[topic][sub] = true
	b.mu.Unlock()

	go func() {
		select {
		case <-subCtx.Done():
			sub.Unsubscribe()
		case <-b.shutdown:
			sub.cancel()
			sub.close()
		}
	}()

	return sub, nil
}

// Publish sends a message to every subscriber of topic
func (b *Bus) Publish(topic, kind string, data any) {
	b.shutdownMu.Lock()
	if b.isShutdown {
		b.shutdownMu.Unlock()
		return
	}
	b.shutdownMu.Unlock()

	// snapshot under lock; sends happen outside it
	b.mu.RLock()
	topicSubs := b.subscribers[topic]
	if len(topicSubs) == 0 {
		b.mu.RUnlock()
		return
	}
	subs := make([]*Subscription, 0, len(topicSubs))
	for sub := range topicSubs {
		subs = append(subs, sub)
	}
	b.mu.RUnlock()

	msg := Message{Topic: topic, Kind: kind, Data: data}
	for _, sub := range subs {
		sub.send(msg)
	}
}

// SubscriberCount returns the number of subscribers of topic
func (b *Bus) SubscriberCount(topic string) int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.subscribers[topic])
}

// Dropped returns how many messages were skipped because a buffer was full
func (b *Bus) Dropped() uint64 {
	return b.dropped.Load()
}

// Shutdown closes every subscription
func (b *Bus) Shutdown() {
	b.shutdownMu.Lock()
	if b.isShutdown {
		b.shutdownMu.Unlock()
		return
	}
	b.isShutdown = true
	b.shutdownMu.Unlock()

	close(b.shutdown)

	b.mu.Lock()
	for topic, subs := range b.subscribers {
		for sub := range subs {
			sub.close()
		}
		delete(b.subscribers, topic)
	}
	b.mu.Unlock()
}

// Channel returns the message channel; it is closed when the subscription ends
func (s *Subscription) Channel() <-chan Message {
	return s.channel
}

// Done is closed when the subscription context ends
func (s *Subscription) Done() <-chan struct{} {
	return s.ctx.Done()
}

// Unsubscribe removes the subscription and closes its channel
func (s *Subscription) Unsubscribe() {
	s.cancel()

	s.bus.mu.Lock()
	if s.bus.subscribers[s.topic] != nil {
		delete(s.bus.subscribers[s.topic], s)
		if len(s.bus.subscribers[s.topic]) == 0 {
			delete(s.bus.subscribers, s.topic)
		}
	}
	// closing under the bus lock keeps Publish from sending on a closed channel
	s.close()
	s.bus.mu.Unlock()
}

func (s *Subscription) send(msg Message) {
	s.bus.mu.RLock()
	defer s.bus.mu.RUnlock()
	if !s.bus.subscribers[s.topic][s] {
		return
	}
	select {
	case s.channel <- msg:
	default:
		s.bus.dropped.Add(1)
	}
}

func (s *Subscription) close() {
	s.closeOnce.Do(func() {
		close(s.channel)
	})
}
