package transport

// Event names of the board protocol, shared by both directions of the
// connection.
const (
	// Inbound.
	EventUserID        = "user_id"        // {participantId}: assign/reassign local identity
	EventStrokeHistory = "stroke_history" // ordered []Stroke: full log replacement
	EventStrokeAdded   = "stroke_added"   // Stroke: broadcast of any committed stroke
	EventCursorLeave   = "cursor_leave"   // {participantId}: presence removal
	EventRedoState     = "redo_state"     // {available}: server-reported redo availability

	// Outbound.
	EventDraw  = "draw"  // Stroke: commit a finalized local stroke
	EventUndo  = "undo"  // request server-side history mutation
	EventRedo  = "redo"  // request server-side history mutation
	EventClear = "clear" // request server-side log reset

	// Both directions. Outbound omits participantId; the server stamps
	// it before rebroadcasting.
	EventCursorMove = "cursor_move"
)
