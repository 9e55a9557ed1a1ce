package canvas

import (
	"image"
	"log"

	"github.com/fogleman/gg"

	"CoCanvas/internal/state"
)

// Surface owns the pixel buffer. The backing raster is sized
// width×ratio by height×ratio with a scale transform applied, so every
// drawing call works in CSS pixels regardless of device pixel ratio.
//
// Two render paths exist: incremental segments for the stroke
// currently being captured (and for a just-received peer stroke, drawn
// as one polyline pass), and a full replay of the log after the raster
// has been destroyed by a resize.
//
// Not safe for concurrent use; the engine goroutine owns it.
type Surface struct {
	dc     *gg.Context
	width  float64
	height float64
	ratio  float64

	open bool // an incremental path is in progress
	last state.Point

	pending []state.Stroke // peer strokes waiting for the next frame

	onWipe func()
}

func New(width, height, ratio float64) *Surface {
	if ratio <= 0 {
		ratio = 1
	}
	s := &Surface{width: width, height: height, ratio: ratio}
	s.reset()
	return s
}

// OnWipe registers the callback fired after a resize has destroyed the
// raster contents. The listener is expected to replay the stroke log;
// the surface never attempts incremental preservation.
func (s *Surface) OnWipe(fn func()) {
	s.onWipe = fn
}

func (s *Surface) reset() {
	dc := gg.NewContext(int(s.width*s.ratio), int(s.height*s.ratio))
	dc.Scale(s.ratio, s.ratio)
	dc.SetLineCap(gg.LineCapRound)
	dc.SetLineJoin(gg.LineJoinRound)
	s.dc = dc
	s.open = false
	s.fillWhite()
}

func (s *Surface) fillWhite() {
	s.dc.SetRGB(1, 1, 1)
	s.dc.Clear()
}

func (s *Surface) setStyle(color string, width float64) {
	if color == "" {
		color = "#000000"
	}
	s.dc.SetHexColor(color)
	// gg transforms path points but not the pen width, so the ratio
	// applies here by hand.
	s.dc.SetLineWidth(width * s.ratio)
}

// BeginStroke opens an incremental path for the local in-progress
// stroke and paints the first point as a dot.
func (s *Surface) BeginStroke(color string, width float64, p state.Point) {
	s.setStyle(color, width)
	s.drawDot(p, width)
	s.open = true
	s.last = p
}

// drawDot fills a round dot matching what a round-capped segment of
// the same width would leave.
func (s *Surface) drawDot(p state.Point, width float64) {
	s.dc.DrawCircle(p.X, p.Y, width/2)
	s.dc.Fill()
}

// ExtendStroke appends one segment to the open path, from the previous
// point to p. No-op when no path is open.
func (s *Surface) ExtendStroke(p state.Point) {
	if !s.open {
		return
	}
	s.dc.DrawLine(s.last.X, s.last.Y, p.X, p.Y)
	s.dc.Stroke()
	s.last = p
}

// EndStroke closes the incremental path.
func (s *Surface) EndStroke() {
	s.open = false
}

// DrawStroke renders a complete stroke as a single polyline pass.
func (s *Surface) DrawStroke(st state.Stroke) {
	if len(st.Points) == 0 {
		return
	}
	s.setStyle(st.Color, st.Width)
	if len(st.Points) == 1 {
		s.drawDot(st.Points[0], st.Width)
		return
	}
	s.dc.MoveTo(st.Points[0].X, st.Points[0].Y)
	for _, p := range st.Points[1:] {
		s.dc.LineTo(p.X, p.Y)
	}
	s.dc.Stroke()
}

// QueueStroke schedules a peer stroke for drawing on the next frame,
// so a broadcast arriving mid-capture never interleaves with the local
// paint in progress.
func (s *Surface) QueueStroke(st state.Stroke) {
	s.pending = append(s.pending, st)
}

// Flush draws every queued stroke. The engine calls this once per
// frame tick.
func (s *Surface) Flush() {
	for _, st := range s.pending {
		s.DrawStroke(st)
	}
	s.pending = s.pending[:0]
}

// Replay clears the surface and redraws the given strokes in order.
// The deferred queue is dropped: anything queued is already in the
// log, so it is either part of the replay or gone from it on purpose.
func (s *Surface) Replay(strokes []state.Stroke) {
	s.pending = s.pending[:0]
	s.fillWhite()
	for _, st := range strokes {
		s.DrawStroke(st)
	}
}

// Clear wipes the surface to white. Queued strokes are dropped too: a
// flush after a clear must not paint strokes the log no longer holds.
func (s *Surface) Clear() {
	s.pending = s.pending[:0]
	s.fillWhite()
}

// Resize recreates the backing raster at the new geometry. The old
// contents are destroyed, so the wipe callback fires to request a
// replay of the stroke log.
func (s *Surface) Resize(width, height, ratio float64) {
	if ratio <= 0 {
		ratio = 1
	}
	if width == s.width && height == s.height && ratio == s.ratio {
		return
	}
	log.Printf("[canvas] resize %vx%v@%v -> %vx%v@%v", s.width, s.height, s.ratio, width, height, ratio)
	s.width, s.height, s.ratio = width, height, ratio
	s.pending = s.pending[:0]
	s.reset()
	if s.onWipe != nil {
		s.onWipe()
	}
}

// Size returns the surface geometry in CSS pixels plus the device
// pixel ratio.
func (s *Surface) Size() (width, height, ratio float64) {
	return s.width, s.height, s.ratio
}

// Image exposes the current raster, e.g. for snapshot export.
func (s *Surface) Image() image.Image {
	return s.dc.Image()
}

// SavePNG writes the current raster to disk.
func (s *Surface) SavePNG(path string) error {
	return s.dc.SavePNG(path)
}
