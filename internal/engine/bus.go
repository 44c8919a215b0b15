/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package engine

import (
	"log/slog"
	"runtime/debug"
	"sync"

	applog "annotview/internal/log"
)

// Handler receives events of one topic.
type Handler func(Event)

// Subscriber is the subscribe half of the Bus.
type Subscriber interface {
	Subscribe(topic Topic, h Handler) func()
}

type subscription struct {
	id      uint64
	handler Handler
}

// Bus delivers events synchronously on the publishing goroutine. Events
// published from inside a handler are queued and delivered in order once the
// current delivery finishes.
type Bus struct {
	mu          sync.Mutex
	subs        map[Topic][]*subscription
	live        map[uint64]Topic
	nextID      uint64
	queue       []Event
	dispatching bool
	log         *slog.Logger
}

func NewBus() *Bus {
	return &Bus{
		subs: make(map[Topic][]*subscription),
		live: make(map[uint64]Topic),
		log:  applog.WithComponent("bus"),
	}
}

// Subscribe registers h for topic and returns the function that removes it.
// Calling the returned function more than once is harmless.
func (b *Bus) Subscribe(topic Topic, h Handler) func() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.nextID++
	s := &subscription{id: b.nextID, handler: h}
	b.subs[topic] = append(b.subs[topic], s)
	b.live[s.id] = topic
	return func() { b.unsubscribe(s.id) }
}

func (b *Bus) unsubscribe(id uint64) {
	b.mu.Lock()
	defer b.mu.Unlock()
	topic, ok := b.live[id]
	if !ok {
		return
	}
	delete(b.live, id)
	subs := b.subs[topic]
	for i, s := range subs {
		if s.id == id {
			b.subs[topic] = append(subs[:i:i], subs[i+1:]...)
			break
		}
	}
	if len(b.subs[topic]) == 0 {
		delete(b.subs, topic)
	}
}

// Publish delivers e to every handler subscribed to its topic.
func (b *Bus) Publish(e Event) {
	b.mu.Lock()
	b.queue = append(b.queue, e)
	if b.dispatching {
		b.mu.Unlock()
		return
	}
	b.dispatching = true
	for len(b.queue) > 0 {
		ev := b.queue[0]
		b.queue = b.queue[1:]
		subs := append([]*subscription(nil), b.subs[ev.Topic()]...)
		b.mu.Unlock()
		for _, s := range subs {
			if b.isLive(s.id) {
				b.deliver(s, ev)
			}
		}
		b.mu.Lock()
	}
	b.dispatching = false
	b.mu.Unlock()
}

func (b *Bus) isLive(id uint64) bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	_, ok := b.live[id]
	return ok
}

func (b *Bus) deliver(s *subscription, ev Event) {
	defer func() {
		if r := recover(); r != nil {
			b.log.Error("event handler panicked", "topic", string(ev.Topic()), "panic", r, "stack", string(debug.Stack()))
		}
	}()
	s.handler(ev)
}

// HandlerCount returns the number of live subscriptions across all topics.
func (b *Bus) HandlerCount() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.live)
}
