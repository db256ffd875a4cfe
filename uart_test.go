package rvsim

import (
	"errors"
	"testing"
	"time"
)

func TestUART_TXLogAndCursor(t *testing.T) {
	u := NewUART("console", true)
	for _, b := range []byte("ab") {
		u.TxByte(b)
	}
	if got := string(u.ReadNew()); got != "ab" {
		t.Fatalf("ReadNew = %q", got)
	}
	if u.Unread() != 0 {
		t.Fatalf("Unread = %d after ReadNew", u.Unread())
	}
	u.TxByte('c')
	if u.Unread() != 1 {
		t.Fatalf("Unread = %d", u.Unread())
	}
	if got := string(u.ReadNew()); got != "c" {
		t.Fatalf("second ReadNew = %q", got)
	}
	if got := string(u.ReadAll()); got != "abc" {
		t.Fatalf("ReadAll = %q", got)
	}
	if u.TxLen() != 3 {
		t.Fatalf("TxLen = %d", u.TxLen())
	}
}

func TestUART_InvalidUTF8Replaced(t *testing.T) {
	u := NewUART("debug", false)
	u.TxByte('A')
	u.TxByte(0xFF)
	u.TxByte('B')
	if got := u.ReadAllText(); got != "A�B" {
		t.Fatalf("ReadAllText = %q", got)
	}
}

func TestUART_InjectTranslatesNewline(t *testing.T) {
	u := NewUART("console", true)
	if err := u.InjectRX([]byte("a\nb")); err != nil {
		t.Fatal(err)
	}
	if u.RxPending() != 3 {
		t.Fatalf("RxPending = %d", u.RxPending())
	}
	if got := u.HandleRead(CONSOLE_UART_RX_STATUS); got != 1 {
		t.Fatalf("RX status = %d", got)
	}
	if p := u.HandlePeek(CONSOLE_UART_RX_DATA); p != 'a' || u.RxPending() != 3 {
		t.Fatal("peek must not dequeue")
	}
	var got []byte
	for u.RxHasData() {
		got = append(got, u.HandleRead(CONSOLE_UART_RX_DATA))
	}
	if string(got) != "a\rb" {
		t.Fatalf("received %q", got)
	}
	if u.HandleRead(CONSOLE_UART_RX_STATUS) != 0 || u.HandleRead(CONSOLE_UART_RX_DATA) != 0 {
		t.Fatal("empty FIFO should read status 0 and data 0")
	}
}

func TestUART_DebugHasNoReceiver(t *testing.T) {
	u := NewUART("debug", false)
	if err := u.InjectRX([]byte("x")); !errors.Is(err, ErrNoRX) {
		t.Fatalf("InjectRX err = %v", err)
	}
	u.HandleDebugWrite(DEBUG_UART_TX, 'z')
	if u.HandleDebugRead(DEBUG_UART_TX) != 0 || string(u.ReadAll()) != "z" {
		t.Fatal("debug UART write/read mismatch")
	}
}

func TestUART_RegisterWrites(t *testing.T) {
	u := NewUART("console", true)
	u.HandleWrite(CONSOLE_UART_TX_STATUS, 'x')
	u.HandleWrite(CONSOLE_UART_TX_DATA, 'y')
	if got := string(u.ReadAll()); got != "y" {
		t.Fatalf("only TX data writes transmit, log = %q", got)
	}
	if u.HandleRead(CONSOLE_UART_TX_STATUS) != 0 {
		t.Fatal("TX status reads 0")
	}
}

func TestUART_ScreenAndReset(t *testing.T) {
	u := NewUART("console", true)
	s := NewVT100Screen()
	u.AttachScreen(s)
	var echoed []byte
	u.SetTXCallback(func(b byte) { echoed = append(echoed, b) })
	for _, b := range []byte("hi") {
		u.TxByte(b)
	}
	if s.Line(0) != "hi" || string(echoed) != "hi" {
		t.Fatalf("screen %q, callback %q", s.Line(0), echoed)
	}
	u.InjectRX([]byte("q"))
	u.Reset()
	if u.TxLen() != 0 || u.RxHasData() || s.Line(0) != "" {
		t.Fatal("Reset should clear TX, RX and the screen")
	}
}

func TestTimer_CountsFromFirstAccess(t *testing.T) {
	now := time.Unix(1000, 0)
	tm := NewTimer(func() time.Time { return now })

	if tm.HandlePeek(TIMER_BASE) != 0 {
		t.Fatal("peek before start should read 0")
	}
	if tm.Millis() != 0 {
		t.Fatal("first access should read 0")
	}
	now = now.Add(0x1234 * time.Millisecond)
	b0 := tm.HandleRead(TIMER_BASE)
	now = now.Add(0x100 * time.Millisecond) // latched: ignored by the upper bytes
	b1 := tm.HandleRead(TIMER_BASE + 1)
	if b0 != 0x34 || b1 != 0x12 {
		t.Fatalf("latched bytes %02X %02X", b0, b1)
	}
	if got := tm.Millis(); got != 0x1334 {
		t.Fatalf("Millis = %#x", got)
	}
	tm.Reset()
	if tm.HandlePeek(TIMER_BASE) != 0 {
		t.Fatal("Reset should stop the timer")
	}
}
