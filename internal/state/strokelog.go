package state

import "log"

// Renderer is the drawing surface the reconciler paints through. The
// concrete implementation is canvas.Surface; tests substitute a
// call-counting fake.
type Renderer interface {
	// QueueStroke schedules one stroke for an incremental draw on the
	// next frame.
	QueueStroke(Stroke)
	// Replay clears the surface and redraws the given strokes in order.
	Replay([]Stroke)
	// Clear wipes the surface.
	Clear()
}

// Reconciler is the single authority for what the stroke log contains
// and for deciding what gets rendered. It merges locally-originated
// strokes with server-broadcast strokes without duplication.
//
// The log is append-only: it grows by single appends and is replaced
// wholesale only by ApplyHistory. No two entries ever share an ID.
//
// Not safe for concurrent use; every method must be called from the
// engine goroutine.
type Reconciler struct {
	renderer Renderer
	localID  string

	strokes []Stroke
	seen    map[string]struct{}
}

func NewReconciler(r Renderer) *Reconciler {
	return &Reconciler{
		renderer: r,
		seen:     make(map[string]struct{}),
	}
}

// SetLocalID rebinds the local participant ID. Called on every user_id
// delivery: reconnects assign a fresh ID, so the binding can never be
// assumed stable.
func (rc *Reconciler) SetLocalID(id string) {
	rc.localID = id
}

// ApplyHistory replaces the entire log with the server's full history
// and triggers a full replay. Used on join and on every resync.
func (rc *Reconciler) ApplyHistory(strokes []Stroke) {
	rc.strokes = rc.strokes[:0]
	rc.seen = make(map[string]struct{}, len(strokes))
	for _, s := range strokes {
		if !s.Valid() {
			log.Printf("[reconciler] dropping malformed stroke %q in history", s.ID)
			continue
		}
		if _, dup := rc.seen[s.ID]; dup {
			continue
		}
		rc.seen[s.ID] = struct{}{}
		rc.strokes = append(rc.strokes, s)
	}
	rc.renderer.Replay(rc.strokes)
}

// ApplyRemote merges one broadcast stroke. A stroke whose ID is
// already present is a no-op: that covers redundant delivery and the
// server echoing a stroke this client committed optimistically. New
// peer-authored strokes are scheduled for an incremental draw; new
// own-authored strokes were already drawn during capture and are
// recorded without redrawing.
func (rc *Reconciler) ApplyRemote(s Stroke) {
	if !rc.append(s) {
		return
	}
	if s.AuthorID != rc.localID {
		rc.renderer.QueueStroke(s)
	}
}

// ApplyLocalCommit appends a just-finished local stroke without
// waiting for server acknowledgment. Uses the same de-duplication rule
// as ApplyRemote; the stroke is never redrawn (capture already painted
// it incrementally).
func (rc *Reconciler) ApplyLocalCommit(s Stroke) {
	rc.append(s)
}

func (rc *Reconciler) append(s Stroke) bool {
	if !s.Valid() {
		log.Printf("[reconciler] dropping malformed stroke %q", s.ID)
		return false
	}
	if _, dup := rc.seen[s.ID]; dup {
		return false
	}
	rc.seen[s.ID] = struct{}{}
	rc.strokes = append(rc.strokes, s)
	return true
}

// Clear empties the log and wipes the surface. Only invoked on an
// explicit clear signal from the server, never unilaterally.
func (rc *Reconciler) Clear() {
	rc.strokes = rc.strokes[:0]
	rc.seen = make(map[string]struct{})
	rc.renderer.Clear()
}

// Replay redraws the whole log. The render surface calls this (via
// its wipe callback) after a resize destroys the raster contents.
func (rc *Reconciler) Replay() {
	rc.renderer.Replay(rc.strokes)
}

// Strokes returns a copy of the log in arrival order.
func (rc *Reconciler) Strokes() []Stroke {
	out := make([]Stroke, len(rc.strokes))
	copy(out, rc.strokes)
	return out
}

// Len reports the number of strokes in the log.
func (rc *Reconciler) Len() int {
	return len(rc.strokes)
}

// HasAuthored reports whether the local participant authored at least
// one stroke currently in the log. Drives undo-control enablement.
func (rc *Reconciler) HasAuthored() bool {
	if rc.localID == "" {
		return false
	}
	for _, s := range rc.strokes {
		if s.AuthorID == rc.localID {
			return true
		}
	}
	return false
}
