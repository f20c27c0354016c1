// Package interactive implements the human-in-the-loop broker: it suspends
// an inbound request in a pending table until an operator supplies a reply
// or a deadline passes, broadcasting queue events to any connected operator
// stream along the way.
//
// The suspend/resume shape (register a pending entry, hand the caller a
// channel, let a separate actor resolve it) follows the small-interface
// checkpoint/resume pattern in the HITL reference design
// (orchestration-hitl interfaces.go: SubscribeCommand/ProcessCommand/
// ResumeExecution); the deadline sweep and broadcast fan-out are grounded
// on the teacher's thoughtSigCache/sweepThoughtSigCache sync.Map + ticker
// idiom in internal/server/server.go, generalized from a passive expiring
// cache to an active one that resolves entries on expiry instead of merely
// discarding them.
package interactive

import (
	"context"
	"sync"
	"time"
)

// EventType is the kind of event broadcast to operator streams.
type EventType string

const (
	EventQueued  EventType = "queued"
	EventReplied EventType = "replied"
	EventTimeout EventType = "timeout"
)

// Event is one line of the operator SSE broadcast.
type Event struct {
	Type      EventType `json:"type"`
	ID        string    `json:"id"`
	Model     string    `json:"model,omitempty"`
	CreatedAt time.Time `json:"created_at,omitempty"`
}

// Reply is what an operator posts back for a pending request, or what the
// broker synthesizes from fallback_text/fake_reasoning on timeout.
type Reply struct {
	Content      string
	Reasoning    string
	FinishReason string
}

// pendingEntry is one suspended request.
type pendingEntry struct {
	ID        string
	Model     string
	Messages  []byte // opaque to the broker; carried for the operator listing only
	Stream    bool
	CreatedAt time.Time
	Deadline  time.Time

	fallbackReply Reply // synthesized from fallback_text/fake_reasoning on timeout

	sink chan Reply // buffered size 1; resolved exactly once
	once sync.Once
}

func (p *pendingEntry) resolve(r Reply) {
	p.once.Do(func() {
		p.sink <- r
	})
}

// PendingInfo is the operator-facing view of one pending entry.
type PendingInfo struct {
	ID        string    `json:"id"`
	Model     string    `json:"model"`
	CreatedAt time.Time `json:"created_at"`
	Deadline  time.Time `json:"deadline"`
}

// Notifier is implemented by every operator-paging side channel
// (discord/telegram/mail). Notify is best-effort: a notifier failure is
// logged by its implementation and never affects broker semantics.
type Notifier interface {
	Notify(ctx context.Context, ev Event) error
}

// Broker holds the pending table and the broadcast fan-out. One Broker
// instance lives for the process lifetime (unlike the snapshot, it is not
// swapped on reload: in-flight interactive waits must survive a reload that
// only touches models/rules, not outstanding human replies).
type Broker struct {
	mu      sync.Mutex
	order   []string // arrival order, for FIFO listing
	pending map[string]*pendingEntry

	subsMu sync.Mutex
	subs   map[chan Event]struct{}

	notifiers []Notifier

	sweepTicker *time.Ticker
	stopSweep   chan struct{}
	stopOnce    sync.Once
}

// NewBroker starts the broker's deadline sweep goroutine. Callers must call
// Close when the process shuts down to stop the sweep.
func NewBroker(notifiers ...Notifier) *Broker {
	b := &Broker{
		pending:   make(map[string]*pendingEntry),
		subs:      make(map[chan Event]struct{}),
		notifiers: notifiers,
		stopSweep: make(chan struct{}),
	}
	b.sweepTicker = time.NewTicker(100 * time.Millisecond)
	go b.sweepLoop()
	return b
}

func (b *Broker) sweepLoop() {
	for {
		select {
		case <-b.stopSweep:
			return
		case <-b.sweepTicker.C:
			b.sweepExpired()
		}
	}
}

func (b *Broker) sweepExpired() {
	now := time.Now()
	var expired []struct {
		entry    *pendingEntry
		fallback Reply
	}

	b.mu.Lock()
	for _, id := range b.order {
		e, ok := b.pending[id]
		if !ok {
			continue
		}
		if now.After(e.Deadline) || now.Equal(e.Deadline) {
			expired = append(expired, struct {
				entry    *pendingEntry
				fallback Reply
			}{e, e.fallbackReply})
		}
	}
	for _, x := range expired {
		b.removeLocked(x.entry.ID)
	}
	b.mu.Unlock()

	for _, x := range expired {
		x.entry.resolve(x.fallback)
		b.broadcast(Event{Type: EventTimeout, ID: x.entry.ID, Model: x.entry.Model, CreatedAt: x.entry.CreatedAt})
	}
}

// removeLocked deletes id from both the map and the order slice. Caller
// holds b.mu.
func (b *Broker) removeLocked(id string) {
	delete(b.pending, id)
	for i, x := range b.order {
		if x == id {
			b.order = append(b.order[:i], b.order[i+1:]...)
			break
		}
	}
}

// Close stops the sweep goroutine. Idempotent.
func (b *Broker) Close() {
	b.stopOnce.Do(func() {
		close(b.stopSweep)
		b.sweepTicker.Stop()
	})
}
