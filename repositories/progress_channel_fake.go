package repositories

import (
	"context"
	"sync"

	"github.com/acme/product-importer/models"
)

const inmemSubscriberBuffer = 256

// InmemProgressChannel is a process-local ProgressChannelRepository, used in
// tests in place of redis. Semantics match the real one: broadcast to live
// subscribers, nothing buffered for late ones, publication never blocks.
type InmemProgressChannel struct {
	mu          sync.Mutex
	subscribers map[string][]*inmemSubscriber
}

type inmemSubscriber struct {
	events chan models.ProgressEvent
	once   sync.Once
}

func (s *inmemSubscriber) close() {
	s.once.Do(func() { close(s.events) })
}

func NewInmemProgressChannel() *InmemProgressChannel {
	return &InmemProgressChannel{
		subscribers: make(map[string][]*inmemSubscriber),
	}
}

func (c *InmemProgressChannel) Publish(ctx context.Context, event models.ProgressEvent) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	for _, sub := range c.subscribers[event.JobId] {
		select {
		case sub.events <- event:
		default:
			// a subscriber that stopped draining loses events rather than
			// stalling the publisher
		}
	}
	if event.IsTerminal() {
		for _, sub := range c.subscribers[event.JobId] {
			sub.close()
		}
		delete(c.subscribers, event.JobId)
	}
	return nil
}

func (c *InmemProgressChannel) Subscribe(
	ctx context.Context,
	jobId string,
) (<-chan models.ProgressEvent, func(), error) {
	sub := &inmemSubscriber{events: make(chan models.ProgressEvent, inmemSubscriberBuffer)}

	c.mu.Lock()
	c.subscribers[jobId] = append(c.subscribers[jobId], sub)
	c.mu.Unlock()

	cancel := func() {
		c.mu.Lock()
		subs := c.subscribers[jobId]
		for i, s := range subs {
			if s == sub {
				c.subscribers[jobId] = append(subs[:i], subs[i+1:]...)
				break
			}
		}
		c.mu.Unlock()
		sub.close()
	}
	return sub.events, cancel, nil
}
