// Package notifier provides a typed broadcast mechanism for view events.
package notifier

import "sync"

// DefaultBuffer is the per-listener queue depth.
const DefaultBuffer = 4

// Notifier broadcasts events to all subscribed listeners.
// A slow listener never blocks a broadcast: when its queue is full the
// oldest queued event is dropped to make room for the newest one.
type Notifier[E any] struct {
	mu        sync.RWMutex
	listeners map[chan E]struct{}
}

// New creates a new Notifier instance.
func New[E any]() *Notifier[E] {
	return &Notifier[E]{
		listeners: make(map[chan E]struct{}),
	}
}

// Subscribe returns a channel that receives every broadcast event.
// The caller must call Unsubscribe when done to prevent goroutine leaks.
func (n *Notifier[E]) Subscribe() chan E {
	ch := make(chan E, DefaultBuffer)
	n.mu.Lock()
	n.listeners[ch] = struct{}{}
	n.mu.Unlock()
	return ch
}

// Unsubscribe removes a listener channel and closes it. Unknown or
// already removed channels are ignored.
func (n *Notifier[E]) Unsubscribe(ch chan E) {
	n.mu.Lock()
	defer n.mu.Unlock()
	if _, ok := n.listeners[ch]; !ok {
		return
	}
	delete(n.listeners, ch)
	close(ch)
}

// Len returns the number of current listeners.
func (n *Notifier[E]) Len() int {
	n.mu.RLock()
	defer n.mu.RUnlock()
	return len(n.listeners)
}

// Broadcast sends ev to all listeners without blocking.
func (n *Notifier[E]) Broadcast(ev E) {
	n.mu.RLock()
	defer n.mu.RUnlock()

	for ch := range n.listeners {
		for {
			select {
			case ch <- ev:
			default:
				// Full: drop the oldest and retry.
				select {
				case <-ch:
				default:
				}
				continue
			}
			break
		}
	}
}
