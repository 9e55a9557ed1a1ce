package state

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// countingRenderer records every call the reconciler makes.
type countingRenderer struct {
	queued  []Stroke
	replays [][]Stroke
	clears  int
}

func (r *countingRenderer) QueueStroke(s Stroke) { r.queued = append(r.queued, s) }
func (r *countingRenderer) Replay(strokes []Stroke) {
	cp := make([]Stroke, len(strokes))
	copy(cp, strokes)
	r.replays = append(r.replays, cp)
}
func (r *countingRenderer) Clear() { r.clears++ }

func stroke(id, author string, pts ...Point) Stroke {
	if len(pts) == 0 {
		pts = []Point{{X: 1, Y: 2}}
	}
	return Stroke{ID: id, AuthorID: author, Color: "#000000", Width: 3, Points: pts}
}

func TestApplyRemoteIsIdempotent(t *testing.T) {
	r := &countingRenderer{}
	rc := NewReconciler(r)
	rc.SetLocalID("u1")

	s := stroke("s1", "u2")
	rc.ApplyRemote(s)
	rc.ApplyRemote(s)
	rc.ApplyRemote(s)

	assert.Equal(t, 1, rc.Len())
	assert.Len(t, r.queued, 1, "duplicate delivery must render exactly once")
}

func TestApplyRemoteSelfExclusion(t *testing.T) {
	r := &countingRenderer{}
	rc := NewReconciler(r)
	rc.SetLocalID("u1")

	// Server echo of a stroke this client authored: recorded, never
	// redrawn.
	rc.ApplyRemote(stroke("mine", "u1"))
	assert.Equal(t, 1, rc.Len())
	assert.Empty(t, r.queued)

	rc.ApplyRemote(stroke("theirs", "u2"))
	assert.Equal(t, 2, rc.Len())
	assert.Len(t, r.queued, 1)
}

func TestLocalCommitThenEcho(t *testing.T) {
	r := &countingRenderer{}
	rc := NewReconciler(r)
	rc.SetLocalID("u1")

	s := stroke("s1", "u1")
	rc.ApplyLocalCommit(s)
	require.Equal(t, 1, rc.Len())

	// The broadcast echo must neither duplicate the log entry nor
	// trigger a draw.
	rc.ApplyRemote(s)
	assert.Equal(t, 1, rc.Len())
	assert.Empty(t, r.queued)
}

func TestApplyHistoryReplacesWholesale(t *testing.T) {
	r := &countingRenderer{}
	rc := NewReconciler(r)
	rc.SetLocalID("u1")

	rc.ApplyLocalCommit(stroke("old", "u1"))
	rc.ApplyHistory([]Stroke{stroke("a", "u2"), stroke("b", "u1"), stroke("c", "u3")})

	require.Equal(t, 3, rc.Len())
	require.Len(t, r.replays, 1)
	got := r.replays[0]
	require.Len(t, got, 3)
	assert.Equal(t, "a", got[0].ID)
	assert.Equal(t, "b", got[1].ID)
	assert.Equal(t, "c", got[2].ID)
}

func TestReplayAfterWipeKeepsOrder(t *testing.T) {
	r := &countingRenderer{}
	rc := NewReconciler(r)
	rc.ApplyHistory([]Stroke{stroke("a", "u2"), stroke("b", "u2"), stroke("c", "u2")})

	// Simulated resize: the surface was wiped and asks for a replay.
	rc.Replay()

	require.Len(t, r.replays, 2)
	replayed := r.replays[1]
	require.Len(t, replayed, 3)
	for i, want := range []string{"a", "b", "c"} {
		assert.Equal(t, want, replayed[i].ID)
	}
}

func TestMalformedStrokesDropped(t *testing.T) {
	r := &countingRenderer{}
	rc := NewReconciler(r)
	rc.SetLocalID("u1")

	rc.ApplyRemote(Stroke{ID: "nopoints", AuthorID: "u2", Width: 3})
	rc.ApplyRemote(Stroke{AuthorID: "u2", Width: 3, Points: []Point{{}}})
	rc.ApplyRemote(Stroke{ID: "zerowidth", AuthorID: "u2", Points: []Point{{}}})

	assert.Zero(t, rc.Len())
	assert.Empty(t, r.queued)

	rc.ApplyHistory([]Stroke{stroke("ok", "u2"), {ID: "bad", AuthorID: "u2", Width: 1}})
	assert.Equal(t, 1, rc.Len())
}

func TestClearEmptiesLogAndSurface(t *testing.T) {
	r := &countingRenderer{}
	rc := NewReconciler(r)
	rc.ApplyLocalCommit(stroke("s1", "u1"))

	rc.Clear()
	assert.Zero(t, rc.Len())
	assert.Equal(t, 1, r.clears)

	// Cleared IDs may be committed again (fresh server history).
	rc.ApplyRemote(stroke("s1", "u2"))
	assert.Equal(t, 1, rc.Len())
}

func TestHasAuthored(t *testing.T) {
	rc := NewReconciler(&countingRenderer{})
	assert.False(t, rc.HasAuthored(), "no identity bound")

	rc.SetLocalID("u1")
	assert.False(t, rc.HasAuthored(), "empty log")

	rc.ApplyRemote(stroke("peer", "u2"))
	assert.False(t, rc.HasAuthored())

	rc.ApplyLocalCommit(stroke("mine", "u1"))
	assert.True(t, rc.HasAuthored())

	// A rebind after reconnect invalidates authorship of old strokes.
	rc.SetLocalID("u9")
	assert.False(t, rc.HasAuthored())
}
