// Package terminal draws the vote chart as text.
//
// A [Renderer] is a rendering surface for the poller that keeps its rows in
// memory and redraws the whole chart to an io.Writer each time a snapshot has
// been written. Styling uses lipgloss, so colors degrade to plain text when
// the writer is not a terminal.
package terminal
