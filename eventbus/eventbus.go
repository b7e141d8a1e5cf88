// Package eventbus publishes the tick-complete event (§6): a topic-oriented
// bus carrying each tick's collision pairs to interested subscribers (game
// logic, collision scoring). Grounded on aistore's notification-listener
// idiom (ais/notifications_test.go, downloader/notifications.go): a
// registry of listeners notified asynchronously, decoupled from the
// publisher's own control flow.
/*
 * Copyright (c) 2018-2021, NVIDIA CORPORATION. All rights reserved.
 */
package eventbus

import (
	"sync"

	"github.com/olitheolix/azrael-sub000/cluster"
	"github.com/olitheolix/azrael-sub000/cmn/cos"
)

const TopicTickComplete = "tick-complete"

// TickCompleteEvent is the payload published once per tick (§6):
// [[idA, idB, [contactPositions...]], ...].
type TickCompleteEvent struct {
	Tick  uint64                `json:"tick"`
	Pairs []cluster.ContactPair `json:"pairs"`
}

// Subscriber receives events on topics it is registered for. Delivery is
// asynchronous and best-effort: a slow subscriber does not block Leonard's
// next tick because Publish runs each subscriber on its own goroutine (§5:
// Leonard holds no lock while publishing).
type Subscriber func(topic string, event TickCompleteEvent)

// Bus is a minimal in-process topic bus. It has no cross-process transport:
// the WebSocket bridge that relays these events to clients is an external
// collaborator (§1) subscribing like any other listener.
type Bus struct {
	mu   sync.RWMutex
	subs map[string][]Subscriber
}

func New() *Bus {
	return &Bus{subs: map[string][]Subscriber{}}
}

func (b *Bus) Subscribe(topic string, sub Subscriber) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.subs[topic] = append(b.subs[topic], sub)
}

// Publish notifies every subscriber of topic. Each subscriber runs on its
// own goroutine so one slow/misbehaving listener cannot stall the others or
// the caller.
func (b *Bus) Publish(topic string, event TickCompleteEvent) {
	b.mu.RLock()
	subs := append([]Subscriber(nil), b.subs[topic]...)
	b.mu.RUnlock()

	for _, sub := range subs {
		sub := sub
		go func() {
			defer func() {
				if r := recover(); r != nil {
					cos.Errorf("eventbus: subscriber to %s panicked: %v", topic, r)
				}
			}()
			sub(topic, event)
		}()
	}
}
