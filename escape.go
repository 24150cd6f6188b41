package webtty

import (
	"strconv"
	"strings"
)

// Direction selects which part of a line ClearLine erases.
type Direction int

const (
	// DirectionLeft erases from the start of the line to the cursor.
	DirectionLeft Direction = -1
	// DirectionBoth erases the whole line.
	DirectionBoth Direction = 0
	// DirectionRight erases from the cursor to the end of the line.
	DirectionRight Direction = 1
)

const csi = "\x1b["

// EraseLine returns the EL sequence for dir.
// Unknown directions erase the whole line.
func EraseLine(dir Direction) string {
	switch dir {
	case DirectionLeft:
		return csi + "1K"
	case DirectionRight:
		return csi + "0K"
	default:
		return csi + "2K"
	}
}

// EraseScreenDown returns the ED sequence clearing from the cursor down.
func EraseScreenDown() string {
	return csi + "J"
}

// CursorPosition returns the CUP sequence for a 0-indexed (x, y).
func CursorPosition(x, y int) string {
	return csi + strconv.Itoa(y+1) + ";" + strconv.Itoa(x+1) + "H"
}

// CursorColumn returns the CHA sequence for a 0-indexed column.
func CursorColumn(x int) string {
	return csi + strconv.Itoa(x+1) + "G"
}

// CursorMove returns relative movement sequences. Horizontal movement comes
// first. A zero delta on an axis emits nothing for that axis.
func CursorMove(dx, dy int) string {
	var b strings.Builder
	switch {
	case dx > 0:
		b.WriteString(csi + strconv.Itoa(dx) + "C")
	case dx < 0:
		b.WriteString(csi + strconv.Itoa(-dx) + "D")
	}
	switch {
	case dy > 0:
		b.WriteString(csi + strconv.Itoa(dy) + "B")
	case dy < 0:
		b.WriteString(csi + strconv.Itoa(-dy) + "A")
	}
	return b.String()
}

// NormalizeNewlines rewrites every LF not preceded by CR into CRLF.
// LFs already preceded by CR are left alone.
func NormalizeNewlines(s string) string {
	out, _ := normalizeNewlines(s, false)
	return out
}

// normalizeNewlines is NormalizeNewlines with the CR state of the previous
// chunk carried in and the state after s carried out.
func normalizeNewlines(s string, prevCR bool) (string, bool) {
	if s == "" {
		return s, prevCR
	}
	if strings.IndexByte(s, '\n') < 0 {
		return s, s[len(s)-1] == '\r'
	}

	var b strings.Builder
	b.Grow(len(s) + strings.Count(s, "\n"))

	last := prevCR
	for i := 0; i < len(s); i++ {
		c := s[i]
		if c == '\n' && !last {
			b.WriteByte('\r')
		}
		b.WriteByte(c)
		last = c == '\r'
	}
	return b.String(), last
}
