package interactive

import (
	"context"
	"time"
)

// SubmitParams describes one inbound request being suspended.
type SubmitParams struct {
	ID       string
	Model    string
	Messages []byte
	Stream   bool
	Timeout  time.Duration
	Fallback Reply // used verbatim as the synthesized reply on timeout
}

// Submit registers a pending entry and broadcasts `queued`. The returned
// channel receives exactly one Reply: an operator's reply, the timeout
// fallback, or nothing at all if the caller instead calls Abandon (client
// disconnect, spec.md §4.5's "no broadcast" case).
func (b *Broker) Submit(params SubmitParams) <-chan Reply {
	now := time.Now()
	entry := &pendingEntry{
		ID:            params.ID,
		Model:         params.Model,
		Messages:      params.Messages,
		Stream:        params.Stream,
		CreatedAt:     now,
		Deadline:      now.Add(params.Timeout),
		fallbackReply: params.Fallback,
		sink:          make(chan Reply, 1),
	}

	b.mu.Lock()
	b.pending[entry.ID] = entry
	b.order = append(b.order, entry.ID)
	b.mu.Unlock()

	ev := Event{Type: EventQueued, ID: entry.ID, Model: entry.Model, CreatedAt: entry.CreatedAt}
	b.broadcast(ev)
	b.notify(ev)

	return entry.sink
}

// Reply transfers an operator's reply to the pending entry's sink, removes
// it, and broadcasts `replied`. Returns false if id is not (or no longer)
// pending.
func (b *Broker) Reply(id string, r Reply) bool {
	b.mu.Lock()
	entry, ok := b.pending[id]
	if ok {
		b.removeLocked(id)
	}
	b.mu.Unlock()

	if !ok {
		return false
	}

	entry.resolve(r)
	b.broadcast(Event{Type: EventReplied, ID: entry.ID, Model: entry.Model, CreatedAt: entry.CreatedAt})
	return true
}

// Abandon removes a pending entry without broadcasting anything, per
// spec.md §4.5's disconnect rule. It is a no-op if id is already resolved.
func (b *Broker) Abandon(id string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if _, ok := b.pending[id]; ok {
		b.removeLocked(id)
	}
}

// List returns every pending entry in FIFO arrival order.
func (b *Broker) List() []PendingInfo {
	b.mu.Lock()
	defer b.mu.Unlock()

	out := make([]PendingInfo, 0, len(b.order))
	for _, id := range b.order {
		e := b.pending[id]
		out = append(out, PendingInfo{ID: e.ID, Model: e.Model, CreatedAt: e.CreatedAt, Deadline: e.Deadline})
	}
	return out
}

// Subscribe registers a new operator event stream. Events already broadcast
// before Subscribe returns are not replayed, per spec.md §4.5. The returned
// unsubscribe func must be called when the stream closes.
func (b *Broker) Subscribe() (<-chan Event, func()) {
	ch := make(chan Event, 64) // bounded; drop-oldest per spec.md §9's design note
	b.subsMu.Lock()
	b.subs[ch] = struct{}{}
	b.subsMu.Unlock()

	unsubscribe := func() {
		b.subsMu.Lock()
		if _, ok := b.subs[ch]; ok {
			delete(b.subs, ch)
			close(ch)
		}
		b.subsMu.Unlock()
	}
	return ch, unsubscribe
}

// broadcast fans ev out to every subscriber, dropping the oldest buffered
// event for a slow subscriber rather than blocking the broker.
func (b *Broker) broadcast(ev Event) {
	b.subsMu.Lock()
	defer b.subsMu.Unlock()
	for ch := range b.subs {
		select {
		case ch <- ev:
		default:
			select {
			case <-ch:
			default:
			}
			select {
			case ch <- ev:
			default:
			}
		}
	}
}

// notify fans a queued event out to the configured operator notifiers.
// Failures are swallowed here (each Notifier implementation logs its own
// errors); a paging failure never affects the broker's reply/timeout
// semantics.
func (b *Broker) notify(ev Event) {
	if ev.Type != EventQueued || len(b.notifiers) == 0 {
		return
	}
	ctx := context.Background()
	for _, n := range b.notifiers {
		_ = n.Notify(ctx, ev)
	}
}
