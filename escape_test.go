package webtty

import "testing"

func TestEraseLine(t *testing.T) {
	tests := []struct {
		dir  Direction
		want string
	}{
		{DirectionLeft, "\x1b[1K"},
		{DirectionRight, "\x1b[0K"},
		{DirectionBoth, "\x1b[2K"},
		{Direction(7), "\x1b[2K"},
	}
	for _, tt := range tests {
		if got := EraseLine(tt.dir); got != tt.want {
			t.Errorf("EraseLine(%d): expected %q, got %q", tt.dir, tt.want, got)
		}
	}
}

func TestEraseScreenDown(t *testing.T) {
	if got := EraseScreenDown(); got != "\x1b[J" {
		t.Errorf("expected %q, got %q", "\x1b[J", got)
	}
}

func TestCursorPosition(t *testing.T) {
	if got := CursorPosition(3, 5); got != "\x1b[6;4H" {
		t.Errorf("expected %q, got %q", "\x1b[6;4H", got)
	}
	if got := CursorPosition(0, 0); got != "\x1b[1;1H" {
		t.Errorf("expected %q, got %q", "\x1b[1;1H", got)
	}
}

func TestCursorColumn(t *testing.T) {
	if got := CursorColumn(3); got != "\x1b[4G" {
		t.Errorf("expected %q, got %q", "\x1b[4G", got)
	}
}

func TestCursorMove(t *testing.T) {
	tests := []struct {
		dx, dy int
		want   string
	}{
		{2, 0, "\x1b[2C"},
		{-2, 0, "\x1b[2D"},
		{0, 3, "\x1b[3B"},
		{0, -3, "\x1b[3A"},
		{1, -1, "\x1b[1C\x1b[1A"},
		{-4, 2, "\x1b[4D\x1b[2B"},
		{0, 0, ""},
	}
	for _, tt := range tests {
		if got := CursorMove(tt.dx, tt.dy); got != tt.want {
			t.Errorf("CursorMove(%d, %d): expected %q, got %q", tt.dx, tt.dy, tt.want, got)
		}
	}
}

func TestNormalizeNewlines(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"a\nb\r\nc", "a\r\nb\r\nc"},
		{"\n", "\r\n"},
		{"\n\n", "\r\n\r\n"},
		{"\r\n\r\n", "\r\n\r\n"},
		{"no newline", "no newline"},
		{"", ""},
		{"\r", "\r"},
		{"x\r\r\n", "x\r\r\n"},
	}
	for _, tt := range tests {
		if got := NormalizeNewlines(tt.in); got != tt.want {
			t.Errorf("NormalizeNewlines(%q): expected %q, got %q", tt.in, tt.want, got)
		}
	}
}

func TestNormalizeNewlinesCarriesCR(t *testing.T) {
	out, cr := normalizeNewlines("line\r", false)
	if out != "line\r" || !cr {
		t.Fatalf("expected trailing CR carried, got %q %v", out, cr)
	}

	out, cr = normalizeNewlines("\nnext", cr)
	if out != "\nnext" {
		t.Errorf("expected LF after carried CR to stay bare, got %q", out)
	}
	if cr {
		t.Error("expected CR state cleared")
	}

	out, _ = normalizeNewlines("\n", false)
	if out != "\r\n" {
		t.Errorf("expected %q, got %q", "\r\n", out)
	}
}
