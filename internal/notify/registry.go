// Copyright (c) 2026 Chaptra. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package notify

import "sync"

// subscriberBuffer is the per-connection channel capacity. A slow consumer
// that falls this far behind loses pushes; the durable rows remain the
// source of truth.
const subscriberBuffer = 16

// # Live Connection Registry

// Registry tracks which users currently hold a live notification stream.
//
// # Ownership
//
// The registry is constructor-injected into the stream handler and the
// pub/sub bridge; it is never a package-level singleton. All state is
// guarded by an internal mutex, so it is safe for concurrent use by the
// request goroutines and the bridge goroutine.
type Registry struct {
	mu sync.RWMutex

	// subscribers maps userID to the open stream channels of that user.
	// A user may hold several live streams (multiple tabs/devices).
	subscribers map[string]map[chan *Notification]struct{}
}

// NewRegistry constructs an empty connection [Registry].
func NewRegistry() *Registry {
	return &Registry{
		subscribers: make(map[string]map[chan *Notification]struct{}),
	}
}

/*
Subscribe registers a live stream for a user.

Parameters:
  - userID: string (UUID)

Returns:
  - <-chan *Notification: Channel the stream handler drains
  - func(): Cancel closure that must be called when the stream closes
*/
func (registry *Registry) Subscribe(userID string) (<-chan *Notification, func()) {
	channel := make(chan *Notification, subscriberBuffer)

	registry.mu.Lock()
	channels, exists := registry.subscribers[userID]
	if !exists {
		channels = make(map[chan *Notification]struct{})
		registry.subscribers[userID] = channels
	}
	channels[channel] = struct{}{}
	registry.mu.Unlock()

	cancel := func() {
		registry.mu.Lock()
		if channels, exists := registry.subscribers[userID]; exists {
			delete(channels, channel)
			if len(channels) == 0 {
				delete(registry.subscribers, userID)
			}
		}
		registry.mu.Unlock()
	}

	return channel, cancel
}

/*
Dispatch delivers a notification to every live stream of a user.

Description: Delivery is best-effort and non-blocking; a full subscriber
buffer drops the push rather than stalling the bridge goroutine.

Parameters:
  - userID: string (UUID)
  - notification: *Notification
*/
func (registry *Registry) Dispatch(userID string, notification *Notification) {
	registry.mu.RLock()
	defer registry.mu.RUnlock()

	for channel := range registry.subscribers[userID] {
		select {
		case channel <- notification:
		default:
			// Slow consumer: drop the live push, the durable row survives
		}
	}
}

// IsConnected reports whether a user holds at least one live stream.
func (registry *Registry) IsConnected(userID string) bool {
	registry.mu.RLock()
	defer registry.mu.RUnlock()

	return len(registry.subscribers[userID]) > 0
}
