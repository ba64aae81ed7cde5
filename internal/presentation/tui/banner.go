package tui

import (
	"fmt"
	"io"

	"github.com/muesli/termenv"
)

// PrintBanner writes the neoform banner, coloured for the terminal's
// profile.
func PrintBanner(w io.Writer) {
	p := termenv.NewOutput(w).ColorProfile()
	lines := []struct {
		text  string
		color string
	}{
		{" _ __   ___  ___  / _| ___  _ __ _ __ ___", "#fb923c"},
		{"| '_ \\ / _ \\/ _ \\| |_ / _ \\| '__| '_ ` _ \\", "#f97316"},
		{"| | | |  __/ (_) |  _| (_) | |  | | | | | |", "#ea580c"},
		{"|_| |_|\\___|\\___/|_|  \\___/|_|  |_| |_| |_|", "#c2410c"},
	}

	fmt.Fprintln(w)
	for _, l := range lines {
		fmt.Fprintln(w, termenv.String(l.text).Foreground(p.Color(l.color)))
	}
	fmt.Fprintln(w)
}

// Status formats a one-line outcome with a coloured marker.
func Status(w io.Writer, ok bool, text string) string {
	p := termenv.NewOutput(w).ColorProfile()
	if ok {
		return termenv.String("✔ ").Foreground(p.Color("#22c55e")).String() + text
	}
	return termenv.String("✘ ").Foreground(p.Color("#ef4444")).Bold().String() + text
}
