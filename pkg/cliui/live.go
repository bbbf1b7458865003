package cliui

import (
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"
)

// LiveText prints streamed text as it arrives and can later swap it for a
// final rendering. On a terminal the streamed text is cleared first when it
// still fits on screen; otherwise the final text follows a divider. Off a
// terminal Replace only appends, so piped output keeps the raw stream.
type LiveText struct {
	out    io.Writer
	output *termenv.Output
	tty    bool
	width  int
	height int

	written strings.Builder
}

// NewLiveText returns a LiveText writing to out.
func NewLiveText(out io.Writer) *LiveText {
	width, height := Size(out, 80, 0)
	return &LiveText{
		out:    out,
		output: termenv.NewOutput(out),
		tty:    IsTerminal(out),
		width:  width,
		height: height,
	}
}

// Write prints a streamed chunk.
func (l *LiveText) Write(chunk string) {
	l.written.WriteString(chunk)
	fmt.Fprint(l.out, chunk)
}

// Len returns the number of bytes streamed so far.
func (l *LiveText) Len() int {
	return l.written.Len()
}

// Lines returns how many terminal rows the streamed text occupies, counting
// soft wraps at the terminal width.
func (l *LiveText) Lines() int {
	return countRows(l.written.String(), l.width)
}

// Replace ends the stream with final. It reports whether the streamed text
// was cleared from the screen.
func (l *LiveText) Replace(final string) bool {
	if !l.tty {
		if !strings.HasSuffix(l.written.String(), "\n") && l.written.Len() > 0 {
			fmt.Fprintln(l.out)
		}
		return false
	}

	rows := l.Lines()
	if l.height > 0 && rows < l.height {
		// Move to the first streamed row and clear down from there.
		l.output.ClearLine()
		if rows > 1 {
			l.output.CursorUp(rows - 1)
		}
		l.output.CursorBack(l.width)
		fmt.Fprintf(l.out, termenv.CSI+termenv.EraseDisplaySeq, 0)
		fmt.Fprint(l.out, final)
		return true
	}

	fmt.Fprintf(l.out, "\n\n%s\n%s", DimStyle.Render(strings.Repeat("─", min(l.width, 80))), final)
	return false
}

// countRows counts the rows text takes when wrapped at width.
func countRows(text string, width int) int {
	if text == "" {
		return 0
	}
	if width <= 0 {
		width = 80
	}

	rows := 0
	for line := range strings.SplitSeq(text, "\n") {
		w := lipgloss.Width(line)
		if w == 0 {
			rows++
			continue
		}
		rows += (w + width - 1) / width
	}
	return rows
}
