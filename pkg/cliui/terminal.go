package cliui

import (
	"io"
	"os"

	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"
	"golang.org/x/term"
)

// IsTerminal reports whether w is an interactive terminal.
func IsTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	if !ok {
		return false
	}
	return term.IsTerminal(int(f.Fd()))
}

// NewRenderer returns a lipgloss renderer for w. Output that is not a
// terminal gets the ASCII profile so piped output carries no escape codes.
func NewRenderer(w io.Writer) *lipgloss.Renderer {
	r := lipgloss.NewRenderer(w)
	if !IsTerminal(w) {
		r.SetColorProfile(termenv.Ascii)
	}
	return r
}

// Width returns the terminal width of w, or fallback when it cannot be
// determined.
func Width(w io.Writer, fallback int) int {
	width, _ := Size(w, fallback, 0)
	return width
}

// Size returns the terminal width and height of w. Either falls back when it
// cannot be determined.
func Size(w io.Writer, fallbackWidth, fallbackHeight int) (int, int) {
	f, ok := w.(*os.File)
	if !ok {
		return fallbackWidth, fallbackHeight
	}

	width, height, err := term.GetSize(int(f.Fd()))
	if err != nil || width <= 0 || height <= 0 {
		return fallbackWidth, fallbackHeight
	}
	return width, height
}
