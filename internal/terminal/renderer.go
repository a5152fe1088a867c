package terminal

import (
	"fmt"
	"io"
	"math"
	"strings"
	"sync"

	"github.com/charmbracelet/lipgloss"
)

const (
	defaultBarWidth = 40

	// clearScreen moves the cursor home and clears the terminal.
	clearScreen = "\x1b[H\x1b[2J"
)

// Sub-character block elements for fractional fill (1/8 to 8/8).
var fractionalBlocks = []rune{'▏', '▎', '▍', '▌', '▋', '▊', '▉', '█'}

var (
	titleStyle   = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#FF60FF"))
	labelStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#DFDBDD"))
	barStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("#6B50FF"))
	emptyStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#4D4C57"))
	percentStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#00FFB2"))
	commandStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#858392"))
)

type row struct {
	label string
	size  float64
	text  string
}

// Renderer is a chart surface that redraws itself on [Renderer.Flush].
//
// Renderer is safe for concurrent use.
type Renderer struct {
	mu       sync.Mutex
	out      io.Writer
	title    string
	barWidth int
	clear    bool
	rows     []row
	command  string
}

// Option configures a [Renderer].
type Option func(*Renderer)

// WithTitle sets a heading drawn above the chart.
func WithTitle(title string) Option {
	return func(r *Renderer) {
		r.title = title
	}
}

// WithBarWidth sets the bar width in cells. Values below 1 are ignored.
func WithBarWidth(width int) Option {
	return func(r *Renderer) {
		if width > 0 {
			r.barWidth = width
		}
	}
}

// WithClearScreen clears the terminal before each frame.
func WithClearScreen(enabled bool) Option {
	return func(r *Renderer) {
		r.clear = enabled
	}
}

// New creates a [Renderer] with one row per label, writing frames to out.
func New(out io.Writer, labels []string, opts ...Option) *Renderer {
	rows := make([]row, len(labels))
	for i, label := range labels {
		rows[i] = row{label: label, text: "0.0%"}
	}

	r := &Renderer{
		out:      out,
		barWidth: defaultBarWidth,
		rows:     rows,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Rows returns the number of chart rows.
func (r *Renderer) Rows() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.rows)
}

// SetRow updates row i. The change is drawn on the next Flush.
func (r *Renderer) SetRow(i int, label string, size float64, text string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if i < 0 || i >= len(r.rows) {
		return fmt.Errorf("row %d out of range (chart has %d rows)", i, len(r.rows))
	}
	r.rows[i] = row{label: label, size: size, text: text}
	return nil
}

// SetCommand sets the line of text drawn under the chart.
func (r *Renderer) SetCommand(command string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.command = command
}

// Flush writes the current frame to the output.
func (r *Renderer) Flush() error {
	r.mu.Lock()
	frame := r.renderLocked()
	clearFirst := r.clear
	r.mu.Unlock()

	if clearFirst {
		frame = clearScreen + frame
	}
	_, err := io.WriteString(r.out, frame)
	return err
}

// Render returns the current frame without writing it.
func (r *Renderer) Render() string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.renderLocked()
}

func (r *Renderer) renderLocked() string {
	labelWidth := 0
	for _, rw := range r.rows {
		labelWidth = max(labelWidth, lipgloss.Width(rw.label))
	}

	var b strings.Builder
	if r.title != "" {
		b.WriteString(titleStyle.Render(r.title))
		b.WriteString("\n\n")
	}

	for _, rw := range r.rows {
		line := lipgloss.JoinHorizontal(lipgloss.Top,
			labelStyle.Width(labelWidth).Render(rw.label),
			"  ",
			renderBar(rw.size, r.barWidth),
			"  ",
			percentStyle.Render(rw.text),
		)
		b.WriteString(line)
		b.WriteString("\n")
	}

	if r.command != "" {
		b.WriteString("\n")
		b.WriteString(commandStyle.Render(r.command))
		b.WriteString("\n")
	}

	return b.String()
}

// renderBar renders a left-anchored bar for a size in [0, 1].
func renderBar(size float64, width int) string {
	if math.IsNaN(size) {
		size = 0
	}
	size = math.Max(0, math.Min(1, size))

	fillCells := size * float64(width)
	fullCells := int(fillCells)
	fraction := fillCells - float64(fullCells)

	filled := strings.Repeat("█", fullCells)
	used := fullCells
	if fraction > 0 && used < width {
		idx := int(fraction*8) - 1
		if idx >= 0 {
			filled += string(fractionalBlocks[idx])
			used++
		}
	}

	return barStyle.Render(filled) + emptyStyle.Render(strings.Repeat("░", width-used))
}
