package capture

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"CoCanvas/internal/state"
)

type recordingPainter struct {
	begins  int
	extends int
	ends    int
}

func (p *recordingPainter) BeginStroke(string, float64, state.Point) { p.begins++ }
func (p *recordingPainter) ExtendStroke(state.Point)                 { p.extends++ }
func (p *recordingPainter) EndStroke()                               { p.ends++ }

func boundIdentity() state.Identity {
	return state.Identity{ParticipantID: "u1", DisplayName: "Ann"}
}

func TestCaptureAssemblesStroke(t *testing.T) {
	painter := &recordingPainter{}
	c := New(painter, boundIdentity)
	c.SetStyle("#1a6fb0", 5)

	var got *state.Stroke
	c.OnStroke = func(s state.Stroke) { got = &s }

	c.PointerDown(state.Point{X: 1, Y: 1})
	c.PointerMove(state.Point{X: 2, Y: 2})
	c.PointerMove(state.Point{X: 3, Y: 3})
	c.PointerUp()

	require.NotNil(t, got)
	assert.NotEmpty(t, got.ID)
	assert.Equal(t, "u1", got.AuthorID)
	assert.Equal(t, "#1a6fb0", got.Color)
	assert.Equal(t, 5.0, got.Width)
	require.Len(t, got.Points, 3)
	assert.Equal(t, state.Point{X: 1, Y: 1}, got.Points[0])
	assert.Equal(t, state.Point{X: 3, Y: 3}, got.Points[2])

	// Every appended point was painted incrementally.
	assert.Equal(t, 1, painter.begins)
	assert.Equal(t, 2, painter.extends)
	assert.Equal(t, 1, painter.ends)
	assert.False(t, c.Capturing())
}

func TestFreshStrokeIDPerCapture(t *testing.T) {
	c := New(&recordingPainter{}, boundIdentity)
	var ids []string
	c.OnStroke = func(s state.Stroke) { ids = append(ids, s.ID) }

	for i := 0; i < 2; i++ {
		c.PointerDown(state.Point{})
		c.PointerUp()
	}
	require.Len(t, ids, 2)
	assert.NotEqual(t, ids[0], ids[1])
}

func TestUnboundIdentityDiscardsSilently(t *testing.T) {
	c := New(&recordingPainter{}, func() state.Identity {
		return state.Identity{DisplayName: "Ann"} // no participant ID yet
	})
	emitted := 0
	c.OnStroke = func(state.Stroke) { emitted++ }

	c.PointerDown(state.Point{X: 1, Y: 1})
	c.PointerMove(state.Point{X: 2, Y: 2})
	c.PointerUp()

	assert.Zero(t, emitted)
	assert.False(t, c.Capturing())

	// The state machine stays usable afterwards.
	c.PointerDown(state.Point{})
	assert.True(t, c.Capturing())
}

func TestMoveWhileIdleIsNoop(t *testing.T) {
	painter := &recordingPainter{}
	c := New(painter, boundIdentity)
	emitted := 0
	c.OnStroke = func(state.Stroke) { emitted++ }

	c.PointerMove(state.Point{X: 5, Y: 5})
	c.PointerUp()

	assert.Zero(t, emitted)
	assert.Zero(t, painter.extends)
}

func TestPointerLeaveCommitsPartialStroke(t *testing.T) {
	c := New(&recordingPainter{}, boundIdentity)
	var got *state.Stroke
	c.OnStroke = func(s state.Stroke) { got = &s }

	c.PointerDown(state.Point{X: 1, Y: 1})
	c.PointerMove(state.Point{X: 2, Y: 2})
	c.PointerLeave()

	require.NotNil(t, got)
	assert.Len(t, got.Points, 2)
}

func TestSinglePointTapIsAStroke(t *testing.T) {
	c := New(&recordingPainter{}, boundIdentity)
	var got *state.Stroke
	c.OnStroke = func(s state.Stroke) { got = &s }

	c.PointerDown(state.Point{X: 7, Y: 7})
	c.PointerUp()

	require.NotNil(t, got)
	assert.Len(t, got.Points, 1)
}

func TestOnlyFirstTouchContactIsHonored(t *testing.T) {
	c := New(&recordingPainter{}, boundIdentity)
	var got *state.Stroke
	c.OnStroke = func(s state.Stroke) { got = &s }

	c.TouchStart(10, state.Point{X: 1, Y: 1})
	c.TouchStart(11, state.Point{X: 100, Y: 100}) // second finger ignored
	c.TouchMove(11, state.Point{X: 101, Y: 101})  // ignored
	c.TouchMove(10, state.Point{X: 2, Y: 2})
	c.TouchEnd(11) // ignored
	assert.True(t, c.Capturing())
	c.TouchEnd(10)

	require.NotNil(t, got)
	require.Len(t, got.Points, 2)
	assert.Equal(t, state.Point{X: 2, Y: 2}, got.Points[1])
}
