package realtime

import (
	"encoding/json"
	"log"
	"sync"
)

// DefaultRoom receives kiosk attendance events when no room is named.
const DefaultRoom = "default"

// subscriberBuffer bounds how far a slow consumer may lag before it is dropped.
const subscriberBuffer = 16

// Subscriber is one live stream connection. Messages arrive on C already
// SSE-ready (JSON payloads); the channel is closed when the subscriber is
// removed from its room.
type Subscriber struct {
	C    chan []byte
	room string
}

// Broadcaster is the in-process pub/sub registry, keyed by room name. All state
// lives in this one instance and is handed to handlers by injection; there is
// no cross-process fan-out, so multiple server instances each see only their
// own subscribers.
type Broadcaster struct {
	mu    sync.Mutex
	rooms map[string]map[*Subscriber]struct{}
}

func NewBroadcaster() *Broadcaster {
	return &Broadcaster{rooms: make(map[string]map[*Subscriber]struct{})}
}

// Subscribe registers a new sink under room. The subscriber only sees events
// broadcast after this call returns; there is no backlog replay.
func (b *Broadcaster) Subscribe(room string) *Subscriber {
	if room == "" {
		room = DefaultRoom
	}
	sub := &Subscriber{C: make(chan []byte, subscriberBuffer), room: room}

	b.mu.Lock()
	defer b.mu.Unlock()
	if b.rooms[room] == nil {
		b.rooms[room] = make(map[*Subscriber]struct{})
	}
	b.rooms[room][sub] = struct{}{}
	log.Printf("[STREAM] subscriber joined room %q, total %d", room, len(b.rooms[room]))
	return sub
}

// Unsubscribe removes sub from its room and closes its channel. Safe to call
// more than once.
func (b *Broadcaster) Unsubscribe(sub *Subscriber) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.removeLocked(sub)
}

func (b *Broadcaster) removeLocked(sub *Subscriber) {
	set, ok := b.rooms[sub.room]
	if !ok {
		return
	}
	if _, ok := set[sub]; !ok {
		return
	}
	delete(set, sub)
	close(sub.C)
	if len(set) == 0 {
		delete(b.rooms, sub.room)
	}
	log.Printf("[STREAM] subscriber left room %q, total %d", sub.room, len(set))
}

// Broadcast encodes payload once and delivers it to every subscriber currently
// registered in room. Delivery is best-effort, at most once: a sink whose
// buffer is full is treated as dead, dropped from the room, and never retried.
// Sends happen under the lock, so subscribers in one room observe events in
// broadcast order.
func (b *Broadcaster) Broadcast(room string, payload any) {
	if room == "" {
		room = DefaultRoom
	}
	data, err := json.Marshal(payload)
	if err != nil {
		log.Printf("[STREAM] drop unencodable payload for room %q: %v", room, err)
		return
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	set := b.rooms[room]
	if len(set) == 0 {
		return
	}

	var dead []*Subscriber
	for sub := range set {
		select {
		case sub.C <- data:
		default:
			dead = append(dead, sub)
		}
	}
	for _, sub := range dead {
		b.removeLocked(sub)
	}
}

// Stats reports the subscriber count per room.
func (b *Broadcaster) Stats() map[string]int {
	b.mu.Lock()
	defer b.mu.Unlock()
	stats := make(map[string]int, len(b.rooms))
	for room, set := range b.rooms {
		stats[room] = len(set)
	}
	return stats
}
