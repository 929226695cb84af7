package stats

import (
	"os"

	"golang.org/x/term"
)

const (
	terminalWidthBackup = 80
	minTrendWidth       = 10
)

// TrendWidth returns how many trend points fit on the current terminal.
func TrendWidth() int {
	width := terminalWidth()
	if width < minTrendWidth {
		return minTrendWidth
	}
	return width
}

func terminalWidth() int {
	width, _, err := term.GetSize(int(os.Stdout.Fd()))
	if err != nil || width <= 0 {
		return terminalWidthBackup
	}
	return width
}
