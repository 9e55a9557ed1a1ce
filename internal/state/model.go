package state

// Point is one sample of a stroke path, in CSS-pixel surface
// coordinates. Coordinates are device-pixel-ratio independent; the
// render surface applies the ratio when it rasterizes.
type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Stroke is one continuous pointer-down-to-pointer-up drawing action.
// Identity is ID: a stroke that arrives twice (the local optimistic
// copy and the server's echo) is the same logical object.
type Stroke struct {
	ID       string  `json:"strokeId"`
	AuthorID string  `json:"authorId"`
	Color    string  `json:"color"` // RGB hex, e.g. "#1a6fb0"
	Width    float64 `json:"width"`
	Points   []Point `json:"points"`
}

// Valid reports whether the stroke is well-formed enough to enter the
// log. Malformed strokes are dropped silently, never rendered.
func (s Stroke) Valid() bool {
	return s.ID != "" && s.Width > 0 && len(s.Points) >= 1
}

// Cursor is the ephemeral presence record for one participant. It is
// created and updated by cursor_move events and deleted by
// cursor_leave; it is never persisted and never enters the stroke log.
type Cursor struct {
	ParticipantID string  `json:"participantId"`
	X             float64 `json:"x"`
	Y             float64 `json:"y"`
	Color         string  `json:"color"`
	DisplayName   string  `json:"displayName"`
}

// Identity binds the server-assigned participant ID to the locally
// chosen display name. The participant ID is stable for one
// connection; every reconnect assigns a fresh one.
type Identity struct {
	ParticipantID string
	DisplayName   string
}

// Bound reports whether the identity is complete enough to author
// strokes and presence updates.
func (id Identity) Bound() bool {
	return id.ParticipantID != "" && id.DisplayName != ""
}
