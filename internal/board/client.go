package board

import (
	"context"
	"encoding/json"
	"log"
	"time"

	"CoCanvas/internal/canvas"
	"CoCanvas/internal/capture"
	"CoCanvas/internal/export"
	"CoCanvas/internal/presence"
	"CoCanvas/internal/state"
	"CoCanvas/internal/transport"
)

// Surface is everything the engine needs from the render surface.
// canvas.Surface is the real one; tests substitute a counter.
type Surface interface {
	state.Renderer
	capture.Painter
	Flush()
	Resize(width, height, ratio float64)
	OnWipe(func())
	SavePNG(path string) error
}

var _ Surface = (*canvas.Surface)(nil)

// Options configures a Client.
type Options struct {
	// Initial stroke style.
	Color string
	Width float64

	// Canvas geometry in CSS pixels plus device pixel ratio.
	CanvasWidth  float64
	CanvasHeight float64
	PixelRatio   float64

	// Presence throttle interval; zero means presence.DefaultInterval.
	CursorInterval time.Duration

	// Gap between frame ticks draining deferred peer strokes.
	FrameInterval time.Duration
}

func (o *Options) defaults() {
	if o.Color == "" {
		o.Color = "#000000"
	}
	if o.Width <= 0 {
		o.Width = 3
	}
	if o.CanvasWidth <= 0 {
		o.CanvasWidth = 1280
	}
	if o.CanvasHeight <= 0 {
		o.CanvasHeight = 720
	}
	if o.PixelRatio <= 0 {
		o.PixelRatio = 1
	}
	if o.FrameInterval <= 0 {
		o.FrameInterval = 16 * time.Millisecond
	}
}

// Client is the client-side synchronization engine: it owns the single
// logical event loop on which every component's state is touched.
// Pointer/touch input, inbound transport frames, session lifecycle
// changes, resizes, and frame ticks are all serialized through Run;
// the exported methods marshal onto that loop, so they are safe to
// call from any goroutine while Run is active.
type Client struct {
	sess    *transport.Session
	surface Surface
	rec     *state.Reconciler
	capture *capture.Capture
	caster  *presence.Broadcaster
	cursors *presence.Tracker

	identity      state.Identity
	redoAvailable bool

	frame  time.Duration
	inputs chan func()
}

// New builds a Client with a raster render surface.
func New(sess *transport.Session, opts Options) *Client {
	opts.defaults()
	return newClient(sess, canvas.New(opts.CanvasWidth, opts.CanvasHeight, opts.PixelRatio), opts)
}

func newClient(sess *transport.Session, surface Surface, opts Options) *Client {
	opts.defaults()
	c := &Client{
		sess:    sess,
		surface: surface,
		rec:     state.NewReconciler(surface),
		cursors: presence.NewTracker(),
		frame:   opts.FrameInterval,
		inputs:  make(chan func(), 128),
	}
	identity := func() state.Identity { return c.identity }
	c.capture = capture.New(surface, identity)
	c.capture.SetStyle(opts.Color, opts.Width)
	c.caster = presence.NewBroadcaster(sess, identity, opts.CursorInterval)
	c.caster.SetColor(opts.Color)

	c.capture.OnStroke = func(s state.Stroke) {
		c.rec.ApplyLocalCommit(s)
		if err := c.sess.Send(transport.EventDraw, s); err != nil {
			// Fire-and-forget: the transport's own retry policy (or
			// loss) applies, the core never re-queues.
			log.Printf("[board] draw send: %v", err)
		}
	}
	surface.OnWipe(func() { c.rec.Replay() })

	sess.On(transport.EventUserID, c.onUserID)
	sess.On(transport.EventStrokeHistory, c.onStrokeHistory)
	sess.On(transport.EventStrokeAdded, c.onStrokeAdded)
	sess.On(transport.EventCursorMove, c.onCursorMove)
	sess.On(transport.EventCursorLeave, c.onCursorLeave)
	sess.On(transport.EventClear, c.onClear)
	sess.On(transport.EventRedoState, c.onRedoState)

	return c
}

// Run drives the event loop until ctx is cancelled. Everything the
// engine owns is mutated only from here.
func (c *Client) Run(ctx context.Context) error {
	ticker := time.NewTicker(c.frame)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case fn := <-c.inputs:
			fn()
		case m := <-c.sess.Inbound():
			c.sess.Dispatch(m)
		case st := <-c.sess.StatusChanges():
			c.onStatus(st)
		case <-ticker.C:
			c.surface.Flush()
		}
	}
}

func (c *Client) do(fn func()) {
	c.inputs <- fn
}

// --- input surface, called by the embedding UI ---

func (c *Client) PointerDown(p state.Point) {
	c.do(func() { c.capture.PointerDown(p) })
}

func (c *Client) PointerMove(p state.Point) {
	c.do(func() {
		c.capture.PointerMove(p)
		c.caster.Update(p.X, p.Y)
	})
}

func (c *Client) PointerUp() {
	c.do(func() { c.capture.PointerUp() })
}

func (c *Client) PointerLeave() {
	c.do(func() { c.capture.PointerLeave() })
}

func (c *Client) TouchStart(contactID int64, p state.Point) {
	c.do(func() { c.capture.TouchStart(contactID, p) })
}

func (c *Client) TouchMove(contactID int64, p state.Point) {
	c.do(func() {
		c.capture.TouchMove(contactID, p)
		c.caster.Update(p.X, p.Y)
	})
}

func (c *Client) TouchEnd(contactID int64) {
	c.do(func() { c.capture.TouchEnd(contactID) })
}

// Resize reports a layout-driven geometry change. The surface raster
// is destroyed and the stroke log replayed.
func (c *Client) Resize(width, height, ratio float64) {
	c.do(func() { c.surface.Resize(width, height, ratio) })
}

// SetDisplayName binds the locally chosen name. Drawing and presence
// stay inert until both the name and a server-assigned participant ID
// are present.
func (c *Client) SetDisplayName(name string) {
	c.do(func() { c.identity.DisplayName = name })
}

// SetStyle changes the local stroke color and width.
func (c *Client) SetStyle(color string, width float64) {
	c.do(func() {
		c.capture.SetStyle(color, width)
		c.caster.SetColor(color)
	})
}

// Undo asks the server to revert the latest own stroke; the server
// answers with a corrected stroke_history. No-op unless this client
// authored at least one stroke currently in the log.
func (c *Client) Undo() {
	c.do(func() {
		if !c.rec.HasAuthored() {
			return
		}
		if err := c.sess.Send(transport.EventUndo, nil); err != nil {
			log.Printf("[board] undo send: %v", err)
		}
	})
}

// Redo asks the server to re-apply an undone stroke. No-op until the
// server has reported redo availability.
func (c *Client) Redo() {
	c.do(func() {
		if !c.redoAvailable {
			return
		}
		if err := c.sess.Send(transport.EventRedo, nil); err != nil {
			log.Printf("[board] redo send: %v", err)
		}
	})
}

// RequestClear asks the server to reset the log. The local log is only
// cleared when the server's clear broadcast (or empty history) comes
// back, never unilaterally.
func (c *Client) RequestClear() {
	c.do(func() {
		if err := c.sess.Send(transport.EventClear, nil); err != nil {
			log.Printf("[board] clear send: %v", err)
		}
	})
}

// --- loop-synchronized reads ---

// CanUndo reports whether the undo control should be enabled: true iff
// the local identity authored at least one stroke currently in the log.
func (c *Client) CanUndo() bool {
	out := make(chan bool, 1)
	c.do(func() { out <- c.rec.HasAuthored() })
	return <-out
}

// CanRedo reflects the server-reported redo availability; false until
// a redo_state event has arrived.
func (c *Client) CanRedo() bool {
	out := make(chan bool, 1)
	c.do(func() { out <- c.redoAvailable })
	return <-out
}

// Identity returns the current identity binding.
func (c *Client) Identity() state.Identity {
	out := make(chan state.Identity, 1)
	c.do(func() { out <- c.identity })
	return <-out
}

// Strokes returns a copy of the stroke log in arrival order.
func (c *Client) Strokes() []state.Stroke {
	out := make(chan []state.Stroke, 1)
	c.do(func() { out <- c.rec.Strokes() })
	return <-out
}

// Cursors returns a snapshot of the remote cursors.
func (c *Client) Cursors() []state.Cursor {
	out := make(chan []state.Cursor, 1)
	c.do(func() { out <- c.cursors.Cursors() })
	return <-out
}

// --- snapshot export; call only before Run starts or after it returns ---

// ExportPNG writes the current raster to disk.
func (c *Client) ExportPNG(path string) error {
	return c.surface.SavePNG(path)
}

// ExportPDF renders the stroke log to a single-page PDF.
func (c *Client) ExportPDF(path string) error {
	return export.WritePDF(path, c.rec.Strokes())
}

// --- inbound handlers, dispatched on the loop goroutine ---

func (c *Client) onUserID(data json.RawMessage) {
	var payload struct {
		ParticipantID string `json:"participantId"`
	}
	if err := json.Unmarshal(data, &payload); err != nil || payload.ParticipantID == "" {
		log.Printf("[board] malformed user_id: %v", err)
		return
	}
	c.identity.ParticipantID = payload.ParticipantID
	c.rec.SetLocalID(payload.ParticipantID)
	log.Printf("[board] identity bound: %s", payload.ParticipantID)
}

func (c *Client) onStrokeHistory(data json.RawMessage) {
	var strokes []state.Stroke
	if err := json.Unmarshal(data, &strokes); err != nil {
		log.Printf("[board] malformed stroke_history: %v", err)
		return
	}
	c.rec.ApplyHistory(strokes)
}

func (c *Client) onStrokeAdded(data json.RawMessage) {
	var s state.Stroke
	if err := json.Unmarshal(data, &s); err != nil {
		log.Printf("[board] malformed stroke_added: %v", err)
		return
	}
	c.rec.ApplyRemote(s)
}

func (c *Client) onCursorMove(data json.RawMessage) {
	var cur state.Cursor
	if err := json.Unmarshal(data, &cur); err != nil {
		log.Printf("[board] malformed cursor_move: %v", err)
		return
	}
	c.cursors.Upsert(cur)
}

func (c *Client) onCursorLeave(data json.RawMessage) {
	var payload struct {
		ParticipantID string `json:"participantId"`
	}
	if err := json.Unmarshal(data, &payload); err != nil {
		log.Printf("[board] malformed cursor_leave: %v", err)
		return
	}
	c.cursors.Remove(payload.ParticipantID)
}

func (c *Client) onClear(json.RawMessage) {
	c.rec.Clear()
}

func (c *Client) onRedoState(data json.RawMessage) {
	var payload struct {
		Available bool `json:"available"`
	}
	if err := json.Unmarshal(data, &payload); err != nil {
		log.Printf("[board] malformed redo_state: %v", err)
		return
	}
	c.redoAvailable = payload.Available
}

func (c *Client) onStatus(st transport.Status) {
	switch st {
	case transport.StatusConnected:
		// A reconnect assigns a fresh participant ID; the old binding
		// must not be trusted while we wait for the new user_id.
		c.identity.ParticipantID = ""
		c.rec.SetLocalID("")
		log.Printf("[board] connected, awaiting identity")
	case transport.StatusReconnecting, transport.StatusDisconnected, transport.StatusFailed:
		// Remote cursors are intentionally left in place: removal is
		// driven by explicit cursor_leave events only.
		log.Printf("[board] transport %s; drawing stays local until reconnected", st)
	}
}
