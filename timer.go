// timer.go - Millisecond timer peripheral

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

package rvsim

import "time"

// Timer is the read-only millisecond counter at TIMER_BASE. It starts
// counting on the first access. A load latches the counter on its first
// byte, so the bytes of one word load are consistent while every separate
// byte load sees the current value.
type Timer struct {
	clock   func() time.Time
	epoch   time.Time
	started bool
	latched uint32

	// loadSeq identifies the bus load in progress; nil treats only
	// ascending byte reads as one load.
	loadSeq  func() uint64
	lastSeq  uint64
	lastOff  uint32
	haveLast bool
}

func NewTimer(clock func() time.Time) *Timer {
	if clock == nil {
		clock = time.Now
	}
	return &Timer{clock: clock}
}

// SetLoadSequence ties latching to the bus load counter.
func (t *Timer) SetLoadSequence(fn func() uint64) {
	t.loadSeq = fn
}

// Millis returns milliseconds since the first access, starting the counter
// if necessary.
func (t *Timer) Millis() uint32 {
	now := t.clock()
	if !t.started {
		t.epoch = now
		t.started = true
	}
	return uint32(now.Sub(t.epoch).Milliseconds())
}

func (t *Timer) HandleRead(addr uint32) uint8 {
	off := addr - TIMER_BASE
	var seq uint64
	if t.loadSeq != nil {
		seq = t.loadSeq()
	}
	sameLoad := t.haveLast && seq == t.lastSeq && off == t.lastOff+1
	if !sameLoad || !t.started {
		t.latched = t.Millis()
	}
	t.lastSeq, t.lastOff, t.haveLast = seq, off, true
	return uint8(t.latched >> (8 * off))
}

// HandlePeek returns the current counter byte without starting the timer.
func (t *Timer) HandlePeek(addr uint32) uint8 {
	if !t.started {
		return 0
	}
	return uint8(t.Millis() >> (8 * (addr - TIMER_BASE)))
}

func (t *Timer) Reset() {
	t.started = false
	t.latched = 0
	t.epoch = time.Time{}
	t.haveLast = false
}
