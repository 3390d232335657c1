package tui

import (
	"fmt"
	"io"
	"strings"

	"github.com/muesli/termenv"
)

var bannerLines = []struct {
	text  string
	color string
}{
	{"                _       __ _               ", "#818cf8"},
	{"   ___ ___   __| | ___ / _| | _____      __", "#a78bfa"},
	{"  / __/ _ \\ / _` |/ _ \\ |_| |/ _ \\ \\ /\\ / /", "#c084fc"},
	{" | (_| (_) | (_| |  __/  _| | (_) \\ V  V / ", "#e879f9"},
	{"  \\___\\___/ \\__,_|\\___|_| |_|\\___/ \\_/\\_/  ", "#f472b6"},
}

// PrintBanner writes the codeflow ASCII banner and version to w.
func PrintBanner(w io.Writer, version string) {
	p := termenv.NewOutput(w).ColorProfile()

	fmt.Fprintln(w)
	for _, l := range bannerLines {
		fmt.Fprintln(w, termenv.String(l.text).Foreground(p.Color(l.color)))
	}
	if v := strings.TrimSpace(version); v != "" {
		fmt.Fprintln(w, termenv.String("  v"+v).Faint())
	}
	fmt.Fprintln(w)
}
