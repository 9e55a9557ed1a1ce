package presence

import (
	"time"

	"CoCanvas/internal/state"
	"CoCanvas/internal/transport"
)

// Sender is the outbound half of the transport session.
type Sender interface {
	Send(event string, payload any) error
}

// movePayload is the outbound cursor_move body. The server stamps the
// participant ID before rebroadcasting.
type movePayload struct {
	X           float64 `json:"x"`
	Y           float64 `json:"y"`
	Color       string  `json:"color"`
	DisplayName string  `json:"displayName"`
}

// Broadcaster emits the local cursor position at pointer-move
// frequency, throttled so bursts collapse to at most one emission per
// interval. Skipped positions are dropped, never queued: presence is
// advisory, not authoritative.
//
// Not safe for concurrent use; the engine goroutine owns it.
type Broadcaster struct {
	sender   Sender
	identity func() state.Identity
	interval time.Duration
	now      func() time.Time

	color    string
	lastSent time.Time
}

// DefaultInterval is the minimum gap between cursor emissions.
const DefaultInterval = 80 * time.Millisecond

func NewBroadcaster(s Sender, identity func() state.Identity, interval time.Duration) *Broadcaster {
	if interval <= 0 {
		interval = DefaultInterval
	}
	return &Broadcaster{
		sender:   s,
		identity: identity,
		interval: interval,
		now:      time.Now,
	}
}

// SetColor sets the color carried in subsequent emissions, normally
// the local stroke color.
func (b *Broadcaster) SetColor(color string) {
	b.color = color
}

// Update emits the position unless the identity is unbound or the
// throttle interval has not yet elapsed. The guard is a plain
// monotonic timestamp comparison, not a scheduled timer.
func (b *Broadcaster) Update(x, y float64) {
	id := b.identity()
	if !id.Bound() {
		return
	}
	now := b.now()
	if !b.lastSent.IsZero() && now.Sub(b.lastSent) < b.interval {
		return
	}
	b.lastSent = now
	// Fire-and-forget: a failed send is just a skipped position.
	_ = b.sender.Send(transport.EventCursorMove, movePayload{
		X:           x,
		Y:           y,
		Color:       b.color,
		DisplayName: id.DisplayName,
	})
}

// Tracker holds the remote cursors, keyed by participant ID. Removal
// relies entirely on explicit cursor_leave events: a participant whose
// leave event is lost keeps a stale cursor until it is overwritten or
// the connection drops. That gap is accepted, not masked by local
// timeouts.
type Tracker struct {
	cursors map[string]state.Cursor
}

func NewTracker() *Tracker {
	return &Tracker{cursors: make(map[string]state.Cursor)}
}

// Upsert creates or updates the cursor for its participant. Records
// without a participant ID are dropped.
func (t *Tracker) Upsert(c state.Cursor) {
	if c.ParticipantID == "" {
		return
	}
	t.cursors[c.ParticipantID] = c
}

// Remove deletes a participant's cursor.
func (t *Tracker) Remove(participantID string) {
	delete(t.cursors, participantID)
}

// Get returns the cursor for a participant, if present.
func (t *Tracker) Get(participantID string) (state.Cursor, bool) {
	c, ok := t.cursors[participantID]
	return c, ok
}

// Cursors returns a snapshot of all remote cursors.
func (t *Tracker) Cursors() []state.Cursor {
	out := make([]state.Cursor, 0, len(t.cursors))
	for _, c := range t.cursors {
		out = append(out, c)
	}
	return out
}

// Len reports the number of tracked cursors.
func (t *Tracker) Len() int {
	return len(t.cursors)
}
