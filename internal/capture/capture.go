package capture

import (
	"log"

	"github.com/google/uuid"

	"CoCanvas/internal/state"
)

// Painter is the slice of the render surface that live capture draws
// through for zero-latency feedback.
type Painter interface {
	BeginStroke(color string, width float64, p state.Point)
	ExtendStroke(p state.Point)
	EndStroke()
}

// Capture converts raw pointer/touch input into finalized strokes.
// States: idle -> capturing on press, capturing -> idle on release or
// on the pointer leaving the surface.
//
// Touch input maps onto the same transitions through the first active
// contact; additional contacts are ignored (no multi-touch).
//
// Not safe for concurrent use; the engine goroutine owns it.
type Capture struct {
	painter  Painter
	identity func() state.Identity

	color string
	width float64

	capturing bool
	touchID   int64 // active contact, -1 when none
	path      []state.Point

	// OnStroke receives every finalized stroke: commit to the log and
	// forward to the transport.
	OnStroke func(state.Stroke)
}

func New(p Painter, identity func() state.Identity) *Capture {
	return &Capture{
		painter:  p,
		identity: identity,
		color:    "#000000",
		width:    3,
		touchID:  -1,
	}
}

// SetStyle sets the color and width applied to subsequent strokes.
// Width values <= 0 are ignored.
func (c *Capture) SetStyle(color string, width float64) {
	if color != "" {
		c.color = color
	}
	if width > 0 {
		c.width = width
	}
}

// Style returns the current stroke color and width.
func (c *Capture) Style() (color string, width float64) {
	return c.color, c.width
}

// Capturing reports whether a stroke is in progress.
func (c *Capture) Capturing() bool {
	return c.capturing
}

// PointerDown starts a new stroke at p.
func (c *Capture) PointerDown(p state.Point) {
	if c.capturing {
		return
	}
	c.capturing = true
	c.path = append(c.path[:0], p)
	c.painter.BeginStroke(c.color, c.width, p)
}

// PointerMove appends a point to the in-progress stroke and draws the
// segment immediately. No-op while idle.
func (c *Capture) PointerMove(p state.Point) {
	if !c.capturing {
		return
	}
	c.path = append(c.path, p)
	c.painter.ExtendStroke(p)
}

// PointerUp finalizes the in-progress stroke.
func (c *Capture) PointerUp() {
	if !c.capturing {
		return
	}
	c.capturing = false
	c.painter.EndStroke()
	c.finalize()
	c.path = nil
}

// PointerLeave ends capture the same way PointerUp does: a stroke that
// runs off the surface is committed with the points recorded so far.
func (c *Capture) PointerLeave() {
	c.PointerUp()
}

// TouchStart maps the first contact to PointerDown; while a contact is
// active every other contact is ignored.
func (c *Capture) TouchStart(contactID int64, p state.Point) {
	if c.touchID >= 0 {
		return
	}
	c.touchID = contactID
	c.PointerDown(p)
}

// TouchMove maps movement of the active contact to PointerMove.
func (c *Capture) TouchMove(contactID int64, p state.Point) {
	if contactID != c.touchID {
		return
	}
	c.PointerMove(p)
}

// TouchEnd maps release of the active contact to PointerUp.
func (c *Capture) TouchEnd(contactID int64) {
	if contactID != c.touchID {
		return
	}
	c.touchID = -1
	c.PointerUp()
}

// finalize assembles and emits the stroke. Capture ending with an
// unbound identity discards the stroke: the UI gates input before a
// display name is chosen, but the state machine must tolerate the gap
// rather than crash.
func (c *Capture) finalize() {
	if len(c.path) == 0 {
		return
	}
	id := c.identity()
	if !id.Bound() {
		log.Printf("[capture] discarding %d-point stroke: no identity bound", len(c.path))
		return
	}
	points := make([]state.Point, len(c.path))
	copy(points, c.path)
	s := state.Stroke{
		ID:       uuid.NewString(),
		AuthorID: id.ParticipantID,
		Color:    c.color,
		Width:    c.width,
		Points:   points,
	}
	if c.OnStroke != nil {
		c.OnStroke(s)
	}
}
