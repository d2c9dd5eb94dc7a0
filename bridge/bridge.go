// Package bridge carries tagged events from the bot to the visualizer. The
// queue is the only synchronization point between the two: the bot pushes,
// the visualizer side drains, and payloads are immutable once handed off.
//
// MAP_STATIC and GAME_OVER are never dropped. The remaining tags describe
// the latest state only, so a newer message replaces a queued one of the
// same tag and the oldest of them is evicted under pressure.
package bridge

import (
	"context"
	"errors"
	"sync"
)

// Tag labels a bridge message.
type Tag string

const (
	StatusText Tag = "status_text"
	PlayerID   Tag = "player_id"
	MapStatic  Tag = "map_static"
	MapDynamic Tag = "map_dynamic"
	GameOver   Tag = "game_over"
)

// lossless reports whether messages of this tag must always be delivered.
func (t Tag) lossless() bool {
	return t == MapStatic || t == GameOver
}

// Message is one tagged event. Payloads for the MAP_* tags are the raw
// server JSON bodies, STATUS_TEXT and PLAYER_ID carry strings, GAME_OVER may
// be nil.
type Message struct {
	Tag     Tag `json:"tag"`
	Payload any `json:"payload,omitempty"`
}

// ErrClosed is returned by Next after Close once the queue is drained.
var ErrClosed = errors.New("bridge queue closed")

// Queue is the bounded event queue. It is safe for one producer and any
// number of consumers.
type Queue struct {
	mu       sync.Mutex
	cond     *sync.Cond
	messages []Message
	capacity int
	closed   bool
}

// New creates a queue. capacity bounds the coalescable backlog; lossless
// messages are admitted beyond it.
func New(capacity int) *Queue {
	if capacity < 1 {
		capacity = 1
	}
	q := &Queue{capacity: capacity}
	q.cond = sync.NewCond(&q.mu)
	return q
}

// Push enqueues a message. Lossless tags are always appended. Coalescable
// tags replace a queued message of the same tag; under pressure the oldest
// coalescable message is evicted to make room.
func (q *Queue) Push(tag Tag, payload any) {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.closed {
		return
	}

	if !tag.lossless() {
		for i := range q.messages {
			if q.messages[i].Tag == tag {
				q.messages[i].Payload = payload
				q.cond.Broadcast()
				return
			}
		}
		if len(q.messages) >= q.capacity {
			evicted := false
			for i := range q.messages {
				if !q.messages[i].Tag.lossless() {
					q.messages = append(q.messages[:i], q.messages[i+1:]...)
					evicted = true
					break
				}
			}
			if !evicted {
				return
			}
		}
	}

	q.messages = append(q.messages, Message{Tag: tag, Payload: payload})
	q.cond.Broadcast()
}

// Poll pops the oldest message without blocking.
func (q *Queue) Poll() (Message, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()
	if len(q.messages) == 0 {
		return Message{}, false
	}
	msg := q.messages[0]
	q.messages = q.messages[1:]
	return msg, true
}

// Next blocks until a message is available, the queue is closed and drained,
// or the context ends.
func (q *Queue) Next(ctx context.Context) (Message, error) {
	stop := context.AfterFunc(ctx, func() {
		q.cond.Broadcast()
	})
	defer stop()

	q.mu.Lock()
	defer q.mu.Unlock()
	for {
		if len(q.messages) > 0 {
			msg := q.messages[0]
			q.messages = q.messages[1:]
			return msg, nil
		}
		if q.closed {
			return Message{}, ErrClosed
		}
		if err := ctx.Err(); err != nil {
			return Message{}, err
		}
		q.cond.Wait()
	}
}

// Close marks the queue closed. Queued messages remain readable; further
// pushes are dropped.
func (q *Queue) Close() {
	q.mu.Lock()
	q.closed = true
	q.mu.Unlock()
	q.cond.Broadcast()
}
