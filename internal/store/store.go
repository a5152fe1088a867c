package store

// DisplayRow is one row of the chart, addressed by its position.
//
// DisplayRow is the storage representation of a rendered vote option,
// optimized for JSON serialization (used by the REST API and SSE).
type DisplayRow struct {
	// Index is the row's position in the chart.
	Index int `json:"index"`

	// Label is the option label shown in the row header.
	Label string `json:"label"`

	// Size is the bar's proportional size in [0, 1].
	Size float64 `json:"size"`

	// Text is the human-readable percentage, e.g. "75.0%".
	Text string `json:"text"`
}

// View is a point-in-time copy of the whole table.
//
// Views are also the frames published to subscribers: each one is a complete
// snapshot, never a partial update.
type View struct {
	Command string       `json:"command"`
	Rows    []DisplayRow `json:"rows"`
}

// Store defines what the dashboard server needs from the chart state.
//
// Store implementations must be safe for concurrent access.
type Store interface {
	// View returns a copy of the command and all rows in index order.
	View() View

	// Subscribe returns a channel that receives a View for every flushed frame.
	// The returned channel has a buffer; slow consumers may miss frames.
	// Caller must call Unsubscribe when done to prevent resource leaks.
	Subscribe() <-chan View

	// Unsubscribe removes a subscription and closes the channel.
	// Safe to call with a channel that was already unsubscribed.
	Unsubscribe(ch <-chan View)
}
