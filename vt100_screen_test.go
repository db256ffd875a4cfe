package rvsim

import (
	"bytes"
	"image/color"
	"image/png"
	"strings"
	"testing"
)

func feed(s *VT100Screen, text string) {
	s.Write([]byte(text))
}

func TestVT100_PrintAndCursor(t *testing.T) {
	s := NewVT100Screen()
	feed(s, "Hello\r\nWorld")
	if s.Line(0) != "Hello" || s.Line(1) != "World" {
		t.Fatalf("lines = %q", s.Lines()[:2])
	}
	if x, y := s.Cursor(); x != 5 || y != 1 {
		t.Fatalf("cursor = %d,%d", x, y)
	}
}

func TestVT100_ControlBytes(t *testing.T) {
	s := NewVT100Screen()
	feed(s, "ab\bc\tX\a\x01")
	if got := s.Line(0); got != "ac      X" {
		t.Fatalf("line = %q", got)
	}
	if s.Bells() != 1 {
		t.Fatalf("Bells = %d", s.Bells())
	}
}

func TestVT100_CursorPositioning(t *testing.T) {
	s := NewVT100Screen()
	feed(s, "\x1b[5;10H*")
	if s.CellAt(9, 4).Ch != '*' {
		t.Fatalf("CUP put * elsewhere:\n%s", s)
	}
	feed(s, "\x1b[H#")
	if s.CellAt(0, 0).Ch != '#' {
		t.Fatal("CUP without arguments should home")
	}
	feed(s, "\x1b[99;999H")
	if x, y := s.Cursor(); x != VT100_COLS-1 || y != VT100_ROWS-1 {
		t.Fatalf("CUP should clamp, cursor = %d,%d", x, y)
	}
	feed(s, "\x1b[3A\x1b[2D")
	if x, y := s.Cursor(); x != VT100_COLS-3 || y != VT100_ROWS-4 {
		t.Fatalf("relative motion, cursor = %d,%d", x, y)
	}
}

func TestVT100_Erase(t *testing.T) {
	s := NewVT100Screen()
	feed(s, "line one\r\nline two\x1b[1;5H")
	feed(s, "\x1b[K")
	if s.Line(0) != "line" || s.Line(1) != "line two" {
		t.Fatalf("EL 0: %q", s.Lines()[:2])
	}
	feed(s, "\x1b[2J")
	if strings.TrimSpace(s.String()) != "" {
		t.Fatalf("ED 2 left text:\n%s", s)
	}
	if x, y := s.Cursor(); x != 4 || y != 0 {
		t.Fatalf("ED must not move the cursor, got %d,%d", x, y)
	}
}

func TestVT100_WrapAndScroll(t *testing.T) {
	s := NewVT100Screen()
	feed(s, strings.Repeat("x", VT100_COLS)+"y")
	if s.Line(0) != strings.Repeat("x", VT100_COLS) || s.Line(1) != "y" {
		t.Fatal("autowrap into the next row failed")
	}

	s.Reset()
	for i := range VT100_ROWS + 1 {
		feed(s, string(rune('A'+i))+"\r\n")
	}
	if s.Line(0) != "C" || s.Line(VT100_ROWS-2) != "Y" || s.Line(VT100_ROWS-1) != "" {
		t.Fatalf("scroll: first=%q last=%q", s.Line(0), s.Line(VT100_ROWS-2))
	}
}

func TestVT100_SGR(t *testing.T) {
	s := NewVT100Screen()
	feed(s, "\x1b[1;31mR\x1b[0mN\x1b[7;44mV")
	r, n, v := s.CellAt(0, 0), s.CellAt(1, 0), s.CellAt(2, 0)
	if r.FG != ColorRed || r.Attr&AttrBold == 0 {
		t.Fatalf("R cell = %+v", r)
	}
	if n.FG != ColorDefault || n.Attr != 0 {
		t.Fatalf("reset cell = %+v", n)
	}
	if v.BG != ColorBlue || v.Attr&AttrReverse == 0 {
		t.Fatalf("V cell = %+v", v)
	}
}

func TestVT100_SplitSequencePersists(t *testing.T) {
	s := NewVT100Screen()
	for _, b := range []byte("\x1b[2;3H!") {
		s.Feed(b)
	}
	if s.CellAt(2, 1).Ch != '!' {
		t.Fatal("byte-at-a-time CSI should behave like a whole write")
	}
	feed(s, "\x1b[?25lZ")
	if s.CellAt(3, 1).Ch != 'Z' {
		t.Fatalf("private CSI should be ignored, line = %q", s.Line(1))
	}
}

func TestVT100_Replayable(t *testing.T) {
	log := []byte("\x1b[2J\x1b[Hmenu\r\n\x1b[32m> \x1b[0mitem\x1b[3;1Hend")
	a, b := NewVT100Screen(), NewVT100Screen()
	a.Write(log)
	for _, c := range log {
		b.Feed(c)
	}
	if a.String() != b.String() {
		t.Fatal("same byte log produced different screens")
	}
}

func TestRenderScreen_PNG(t *testing.T) {
	s := NewVT100Screen()
	feed(s, "\x1b[41mX")
	img := RenderScreen(s)
	if b := img.Bounds(); b.Dx() != VT100_COLS*screenGlyphWidth || b.Dy() != VT100_ROWS*screenGlyphHeight {
		t.Fatalf("bounds = %v", b)
	}
	if got := img.RGBAAt(0, screenGlyphHeight-1); got != ansiPalette[ColorRed] {
		t.Fatalf("background of red cell = %v", got)
	}
	if got := img.RGBAAt(VT100_COLS*screenGlyphWidth-1, 0); got != (color.RGBA{0, 0, 0, 0xFF}) {
		t.Fatalf("blank cell = %v", got)
	}

	var buf bytes.Buffer
	if err := WriteScreenPNG(&buf, s); err != nil {
		t.Fatal(err)
	}
	if _, err := png.Decode(&buf); err != nil {
		t.Fatalf("decode: %v", err)
	}
}
