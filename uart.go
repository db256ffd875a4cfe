// uart.go - Debug and console UARTs

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
uart.go - Serial ports for the RV32 simulator

Two UARTs are mapped into the guest address space:

    Debug UART   0x1000_0000        one byte, TX only
    Console UART 0x1000_1000-100F   TX data, TX status, RX status, RX data

Every transmitted byte is appended to a log that is never trimmed. Hosts
drain it incrementally with ReadNew, which moves a private cursor, or take
the whole log with ReadAll. Input for the guest is queued in an RX FIFO with
InjectRX; the console UART translates LF to CR on the way in so guest line
editors see the Enter key the way a terminal would send it.

When a VT100Screen is attached, each TX byte is also fed to the screen model.
*/

package rvsim

import (
	"strings"
)

type UART struct {
	name  string
	hasRX bool

	tx     []byte
	cursor int

	rx []byte

	screen *VT100Screen

	// onTX, when set, receives each transmitted byte after it is logged.
	onTX func(byte)
}

func NewUART(name string, hasRX bool) *UART {
	return &UART{
		name:  name,
		hasRX: hasRX,
		tx:    make([]byte, 0, 256),
	}
}

func (u *UART) Name() string { return u.name }

// AttachScreen routes future TX bytes through s. Pass nil to detach.
func (u *UART) AttachScreen(s *VT100Screen) {
	u.screen = s
}

func (u *UART) Screen() *VT100Screen {
	return u.screen
}

// SetTXCallback registers fn to receive every transmitted byte.
func (u *UART) SetTXCallback(fn func(byte)) {
	u.onTX = fn
}

// TxByte transmits one byte.
func (u *UART) TxByte(b byte) {
	u.tx = append(u.tx, b)
	if u.screen != nil {
		u.screen.Feed(b)
	}
	if u.onTX != nil {
		u.onTX(b)
	}
}

// RxByte dequeues one byte, or returns 0 when the FIFO is empty.
func (u *UART) RxByte() byte {
	if len(u.rx) == 0 {
		return 0
	}
	b := u.rx[0]
	u.rx = u.rx[1:]
	return b
}

func (u *UART) RxHasData() bool {
	return len(u.rx) > 0
}

// RxPending reports the number of queued input bytes.
func (u *UART) RxPending() int {
	return len(u.rx)
}

// InjectRX queues host input for the guest, translating LF to CR.
func (u *UART) InjectRX(data []byte) error {
	if !u.hasRX {
		return ErrNoRX
	}
	for _, b := range data {
		if b == '\n' {
			b = '\r'
		}
		u.rx = append(u.rx, b)
	}
	return nil
}

// ReadNew returns the bytes transmitted since the previous ReadNew.
func (u *UART) ReadNew() []byte {
	out := append([]byte(nil), u.tx[u.cursor:]...)
	u.cursor = len(u.tx)
	return out
}

// ReadAll returns the full TX log without moving the cursor.
func (u *UART) ReadAll() []byte {
	return append([]byte(nil), u.tx...)
}

// ReadNewText is ReadNew decoded as UTF-8 with invalid sequences replaced.
func (u *UART) ReadNewText() string {
	return decodeTX(u.ReadNew())
}

func (u *UART) ReadAllText() string {
	return decodeTX(u.tx)
}

// Unread is the number of TX bytes ReadNew has not returned yet.
func (u *UART) Unread() int {
	return len(u.tx) - u.cursor
}

// TxLen is the total number of bytes ever transmitted.
func (u *UART) TxLen() int {
	return len(u.tx)
}

func (u *UART) Reset() {
	u.tx = u.tx[:0]
	u.cursor = 0
	u.rx = nil
	if u.screen != nil {
		u.screen.Reset()
	}
}

func decodeTX(b []byte) string {
	return strings.ToValidUTF8(string(b), "�")
}

// ------------------------------------------------------------------------------
// MMIO handlers
// ------------------------------------------------------------------------------

// HandleRead serves guest reads of the console register block.
func (u *UART) HandleRead(addr uint32) uint8 {
	switch addr {
	case CONSOLE_UART_RX_STATUS:
		if u.RxHasData() {
			return 1
		}
		return 0
	case CONSOLE_UART_RX_DATA:
		return u.RxByte()
	}
	// TX data and TX status both read as zero; TX is always ready.
	return 0
}

func (u *UART) HandleWrite(addr uint32, value uint8) {
	if addr == CONSOLE_UART_TX_DATA {
		u.TxByte(value)
	}
}

// HandlePeek is HandleRead without dequeuing.
func (u *UART) HandlePeek(addr uint32) uint8 {
	switch addr {
	case CONSOLE_UART_RX_STATUS:
		return u.HandleRead(addr)
	case CONSOLE_UART_RX_DATA:
		if len(u.rx) > 0 {
			return u.rx[0]
		}
	}
	return 0
}

// HandleDebugRead serves the debug UART: reads always return 0.
func (u *UART) HandleDebugRead(addr uint32) uint8 {
	return 0
}

func (u *UART) HandleDebugWrite(addr uint32, value uint8) {
	u.TxByte(value)
}
