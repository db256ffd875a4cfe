// vt100_screen.go - VT100 screen model

/*
 ██▓ ███▄    █ ▄▄▄█████▓ █    ██  ██▓▄▄▄█████▓ ██▓ ▒█████   ███▄    █    ▓█████  ███▄    █   ▄████  ██▓ ███▄    █ ▓█████
▓██▒ ██ ▀█   █ ▓  ██▒ ▓▒ ██  ▓██▒▓██▒▓  ██▒ ▓▒▓██▒▒██▒  ██▒ ██ ▀█   █    ▓█   ▀  ██ ▀█   █  ██▒ ▀█▒▓██▒ ██ ▀█   █ ▓█   ▀
▒██▒▓██  ▀█ ██▒▒ ▓██░ ▒░▓██  ▒██░▒██▒▒ ▓██░ ▒░▒██▒▒██░  ██▒▓██  ▀█ ██▒   ▒███   ▓██  ▀█ ██▒▒██░▄▄▄░▒██▒▓██  ▀█ ██▒▒███
░██░▓██▒  ▐▌██▒░ ▓██▓ ░ ▓▓█  ░██░░██░░ ▓██▓ ░ ░██░▒██   ██░▓██▒  ▐▌██▒   ▒▓█  ▄ ▓██▒  ▐▌██▒░▓█  ██▓░██░▓██▒  ▐▌██▒▒▓█  ▄
░██░▒██░   ▓██░  ▒██▒ ░ ▒▒█████▓ ░██░  ▒██▒ ░ ░██░░ ████▓▒░▒██░   ▓██░   ░▒████▒▒██░   ▓██░░▒▓███▀▒░██░▒██░   ▓██░░▒████▒
░▓  ░ ▒░   ▒ ▒   ▒ ░░   ░▒▓▒ ▒ ▒ ░▓    ▒ ░░   ░▓  ░ ▒░▒░▒░ ░ ▒░   ▒ ▒    ░░ ▒░ ░░ ▒░   ▒ ▒  ░▒   ▒ ░▓  ░ ▒░   ▒ ▒ ░░ ▒░ ░
 ▒ ░░ ░░   ░ ▒░    ░    ░░▒░ ░ ░  ▒ ░    ░     ▒ ░  ░ ▒ ▒░ ░ ░░   ░ ▒░    ░ ░  ░░ ░░   ░ ▒░  ░   ░  ▒ ░░ ░░   ░ ▒░ ░ ░  ░
 ▒ ░   ░   ░ ░   ░       ░░░ ░ ░  ▒ ░  ░       ▒ ░░ ░ ░ ▒     ░   ░ ░       ░      ░   ░ ░ ░ ░   ░  ▒ ░   ░   ░ ░    ░
 ░           ░             ░      ░            ░      ░ ░           ░       ░  ░         ░       ░  ░           ░    ░  ░

(c) 2024 - 2026 Zayn Otley
https://github.com/IntuitionAmiga/IntuitionEngine
License: GPLv3 or later
*/

/*
vt100_screen.go - VT100 screen model for the console UART

The screen is an 80x24 grid of cells plus a cursor, driven one byte at a time
by the console UART's TX stream. It is derived state only: feeding the same
byte log into a fresh screen always reproduces the same grid.

Parser states:

    GROUND      printable bytes and C0 controls (BEL, BS, HT, LF, CR)
    ESC_SEEN    ESC received, waiting for '['
    CSI         "ESC [" received, no parameter bytes yet
    CSI_PARAMS  accumulating decimal parameters separated by ';'

Supported CSI finals: H/f (CUP), J (ED), K (EL), m (SGR), A/B/C/D (cursor
motion). Unknown bytes inside a CSI are dropped, unknown finals return to
GROUND. Partial sequences persist across bytes without any timeout.
*/

package rvsim

import (
	"strings"
)

const (
	VT100_COLS    = 80
	VT100_ROWS    = 24
	VT100_TAB     = 8
	VT100_MAX_ARG = 16
)

const (
	vtGround = iota
	vtEscSeen
	vtCSI
	vtCSIParams
)

// CellAttr is a bit set of SGR rendition flags.
type CellAttr uint8

const (
	AttrBold CellAttr = 1 << iota
	AttrUnderline
	AttrReverse
)

// ANSI colour indices. ColorDefault selects the terminal's default pen.
const (
	ColorBlack = iota
	ColorRed
	ColorGreen
	ColorYellow
	ColorBlue
	ColorMagenta
	ColorCyan
	ColorWhite
	ColorDefault = 0xFF
)

type Cell struct {
	Ch   byte
	Attr CellAttr
	FG   uint8
	BG   uint8
}

var blankCell = Cell{Ch: ' ', FG: ColorDefault, BG: ColorDefault}

type VT100Screen struct {
	cells [VT100_ROWS][VT100_COLS]Cell

	curX, curY  int
	wrapPending bool

	state  int
	params []int
	param  int
	hasArg bool

	pen   Cell
	bells int
}

func NewVT100Screen() *VT100Screen {
	s := &VT100Screen{}
	s.Reset()
	return s
}

func (s *VT100Screen) Reset() {
	for y := range s.cells {
		s.clearRow(y, 0, VT100_COLS)
	}
	s.curX, s.curY = 0, 0
	s.wrapPending = false
	s.state = vtGround
	s.params = s.params[:0]
	s.param, s.hasArg = 0, false
	s.pen = blankCell
	s.bells = 0
}

// Write feeds p to the parser. It never fails.
func (s *VT100Screen) Write(p []byte) (int, error) {
	for _, b := range p {
		s.Feed(b)
	}
	return len(p), nil
}

// Feed advances the parser by one byte.
func (s *VT100Screen) Feed(b byte) {
	switch s.state {
	case vtGround:
		s.ground(b)
	case vtEscSeen:
		if b == '[' {
			s.state = vtCSI
			s.params = s.params[:0]
			s.param, s.hasArg = 0, false
			return
		}
		s.state = vtGround
	case vtCSI, vtCSIParams:
		s.csi(b)
	}
}

func (s *VT100Screen) ground(b byte) {
	switch b {
	case 0x07:
		s.bells++
	case 0x08:
		s.wrapPending = false
		if s.curX > 0 {
			s.curX--
		}
	case 0x09:
		s.wrapPending = false
		s.curX = min((s.curX/VT100_TAB+1)*VT100_TAB, VT100_COLS-1)
	case 0x0A:
		s.wrapPending = false
		s.lineFeed()
	case 0x0D:
		s.wrapPending = false
		s.curX = 0
	case 0x1B:
		s.state = vtEscSeen
	default:
		if b < 0x20 || b == 0x7F {
			return
		}
		s.put(b)
	}
}

func (s *VT100Screen) put(b byte) {
	if s.wrapPending {
		s.wrapPending = false
		s.curX = 0
		s.lineFeed()
	}
	c := s.pen
	c.Ch = b
	s.cells[s.curY][s.curX] = c
	if s.curX < VT100_COLS-1 {
		s.curX++
	} else {
		s.wrapPending = true
	}
}

func (s *VT100Screen) lineFeed() {
	if s.curY < VT100_ROWS-1 {
		s.curY++
		return
	}
	copy(s.cells[:], s.cells[1:])
	s.clearRow(VT100_ROWS-1, 0, VT100_COLS)
}

func (s *VT100Screen) csi(b byte) {
	switch {
	case b >= '0' && b <= '9':
		s.state = vtCSIParams
		if s.param < 10000 {
			s.param = s.param*10 + int(b-'0')
		}
		s.hasArg = true
	case b == ';':
		s.state = vtCSIParams
		s.pushParam()
	case b >= 0x40 && b <= 0x7E:
		s.pushParam()
		s.dispatch(b)
		s.state = vtGround
	default:
		// Private markers, intermediates and stray controls are dropped.
	}
}

func (s *VT100Screen) pushParam() {
	if len(s.params) < VT100_MAX_ARG {
		if s.hasArg {
			s.params = append(s.params, s.param)
		} else {
			s.params = append(s.params, -1)
		}
	}
	s.param, s.hasArg = 0, false
}

// arg returns parameter i, or def when it is missing or zero.
func (s *VT100Screen) arg(i, def int) int {
	if i >= len(s.params) || s.params[i] <= 0 {
		return def
	}
	return s.params[i]
}

func (s *VT100Screen) dispatch(final byte) {
	s.wrapPending = false
	switch final {
	case 'H', 'f':
		s.curY = clampInt(s.arg(0, 1)-1, 0, VT100_ROWS-1)
		s.curX = clampInt(s.arg(1, 1)-1, 0, VT100_COLS-1)
	case 'A':
		s.curY = clampInt(s.curY-s.arg(0, 1), 0, VT100_ROWS-1)
	case 'B':
		s.curY = clampInt(s.curY+s.arg(0, 1), 0, VT100_ROWS-1)
	case 'C':
		s.curX = clampInt(s.curX+s.arg(0, 1), 0, VT100_COLS-1)
	case 'D':
		s.curX = clampInt(s.curX-s.arg(0, 1), 0, VT100_COLS-1)
	case 'J':
		s.eraseDisplay(s.arg(0, 0))
	case 'K':
		s.eraseLine(s.arg(0, 0))
	case 'm':
		s.sgr()
	}
}

func (s *VT100Screen) eraseDisplay(mode int) {
	switch mode {
	case 0:
		s.clearRow(s.curY, s.curX, VT100_COLS)
		for y := s.curY + 1; y < VT100_ROWS; y++ {
			s.clearRow(y, 0, VT100_COLS)
		}
	case 1:
		for y := 0; y < s.curY; y++ {
			s.clearRow(y, 0, VT100_COLS)
		}
		s.clearRow(s.curY, 0, s.curX+1)
	case 2:
		for y := range VT100_ROWS {
			s.clearRow(y, 0, VT100_COLS)
		}
	}
}

func (s *VT100Screen) eraseLine(mode int) {
	switch mode {
	case 0:
		s.clearRow(s.curY, s.curX, VT100_COLS)
	case 1:
		s.clearRow(s.curY, 0, s.curX+1)
	case 2:
		s.clearRow(s.curY, 0, VT100_COLS)
	}
}

func (s *VT100Screen) clearRow(y, from, to int) {
	for x := from; x < to; x++ {
		s.cells[y][x] = blankCell
	}
}

func (s *VT100Screen) sgr() {
	if len(s.params) == 0 {
		s.pen = blankCell
		return
	}
	for _, p := range s.params {
		switch {
		case p <= 0:
			s.pen = blankCell
		case p == 1:
			s.pen.Attr |= AttrBold
		case p == 4:
			s.pen.Attr |= AttrUnderline
		case p == 7:
			s.pen.Attr |= AttrReverse
		case p == 22:
			s.pen.Attr &^= AttrBold
		case p == 24:
			s.pen.Attr &^= AttrUnderline
		case p == 27:
			s.pen.Attr &^= AttrReverse
		case p >= 30 && p <= 37:
			s.pen.FG = uint8(p - 30)
		case p == 39:
			s.pen.FG = ColorDefault
		case p >= 40 && p <= 47:
			s.pen.BG = uint8(p - 40)
		case p == 49:
			s.pen.BG = ColorDefault
		}
	}
}

func clampInt(v, lo, hi int) int {
	return max(lo, min(v, hi))
}

// ------------------------------------------------------------------------------
// Accessors
// ------------------------------------------------------------------------------

// Cursor returns the zero-based cursor column and row.
func (s *VT100Screen) Cursor() (x, y int) {
	return s.curX, s.curY
}

// CellAt returns the cell at (x, y); out-of-range coordinates yield a blank.
func (s *VT100Screen) CellAt(x, y int) Cell {
	if x < 0 || x >= VT100_COLS || y < 0 || y >= VT100_ROWS {
		return blankCell
	}
	return s.cells[y][x]
}

// Line returns row y as text with trailing blanks removed.
func (s *VT100Screen) Line(y int) string {
	if y < 0 || y >= VT100_ROWS {
		return ""
	}
	var b [VT100_COLS]byte
	for x, c := range s.cells[y] {
		b[x] = c.Ch
	}
	return strings.TrimRight(string(b[:]), " ")
}

// Lines returns every row as text.
func (s *VT100Screen) Lines() []string {
	out := make([]string, VT100_ROWS)
	for y := range out {
		out[y] = s.Line(y)
	}
	return out
}

// String dumps the grid, one row per line.
func (s *VT100Screen) String() string {
	return strings.Join(s.Lines(), "\n")
}

// Bells counts BEL bytes received since reset.
func (s *VT100Screen) Bells() int {
	return s.bells
}
