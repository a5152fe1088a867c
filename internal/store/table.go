package store

import (
	"fmt"
	"slices"
	"sync"
)

const subscriberBuffer = 100

// Table is a fixed-size chart surface and an implementation of [Store].
//
// Rows are created up front, one per known vote option, mirroring a page whose
// table rows already exist before the first poll. SetRow and SetCommand only
// stage a change; [Table.Flush] commits the staged table as one frame and
// publishes it. Readers see the last committed frame, so a snapshot that is
// halfway through being written is never visible. Flushing a table identical
// to the committed frame publishes nothing.
type Table struct {
	mu      sync.RWMutex
	rows    []DisplayRow
	command string
	frame   View

	subMu       sync.RWMutex
	subscribers map[chan View]struct{}
}

// NewTable creates a table with one row per label.
//
// Rows start with their label, a zero size and "0.0%" text.
func NewTable(labels []string) *Table {
	rows := make([]DisplayRow, len(labels))
	for i, label := range labels {
		rows[i] = DisplayRow{Index: i, Label: label, Text: "0.0%"}
	}
	return &Table{
		rows:        rows,
		frame:       View{Rows: slices.Clone(rows)},
		subscribers: make(map[chan View]struct{}),
	}
}

// Rows returns the number of display rows.
func (t *Table) Rows() int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return len(t.rows)
}

// Row returns the committed row at index i.
func (t *Table) Row(i int) (DisplayRow, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	if i < 0 || i >= len(t.frame.Rows) {
		return DisplayRow{}, false
	}
	return t.frame.Rows[i], true
}

// SetRow stages label, size and text for row i until the next Flush.
//
// Returns an error if i does not address an existing row.
func (t *Table) SetRow(i int, label string, size float64, text string) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if i < 0 || i >= len(t.rows) {
		return fmt.Errorf("row %d out of range (table has %d rows)", i, len(t.rows))
	}
	t.rows[i] = DisplayRow{Index: i, Label: label, Size: size, Text: text}
	return nil
}

// SetCommand stages the command line text until the next Flush.
func (t *Table) SetCommand(command string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.command = command
}

// Flush commits the staged rows and command as one frame and publishes it to
// every subscriber. It is a no-op when nothing changed since the last commit.
func (t *Table) Flush() error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.command == t.frame.Command && slices.Equal(t.rows, t.frame.Rows) {
		return nil
	}

	// committed frames are replaced, never mutated, so subscribers may share one
	t.frame = View{Command: t.command, Rows: slices.Clone(t.rows)}

	// publishing under mu keeps frames in commit order
	t.notifySubscribers(t.frame)
	return nil
}

// Command returns the committed command line text.
func (t *Table) Command() string {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.frame.Command
}

// View returns a copy of the committed frame; modifications do not affect it.
func (t *Table) View() View {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return View{Command: t.frame.Command, Rows: slices.Clone(t.frame.Rows)}
}

// Subscribe creates a new subscription and returns a channel for receiving frames.
//
// The returned channel has a buffer of 100 frames. If the buffer fills
// (slow consumer), new frames are dropped for this subscriber.
//
// Caller must call [Table.Unsubscribe] when done to prevent resource leaks.
func (t *Table) Subscribe() <-chan View {
	ch := make(chan View, subscriberBuffer)

	t.subMu.Lock()
	t.subscribers[ch] = struct{}{}
	t.subMu.Unlock()

	return ch
}

// Unsubscribe removes a subscription and closes its channel.
// Safe to call multiple times or with an unknown channel.
func (t *Table) Unsubscribe(ch <-chan View) {
	t.subMu.Lock()
	defer t.subMu.Unlock()

	for subCh := range t.subscribers {
		if subCh == ch {
			delete(t.subscribers, subCh)
			close(subCh)
			break
		}
	}
}

// notifySubscribers sends the frame to all active subscribers without blocking.
func (t *Table) notifySubscribers(v View) {
	t.subMu.RLock()
	defer t.subMu.RUnlock()

	for ch := range t.subscribers {
		select {
		case ch <- v:
		default:
			// subscriber is slow, drop the frame
		}
	}
}
