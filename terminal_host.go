package rvsim

import (
	"fmt"
	"io"
	"os"
	"sync"
	"time"

	"golang.org/x/term"
)

// TERMINAL_DETACH_KEY (Ctrl-]) ends an interactive session.
const TERMINAL_DETACH_KEY = 0x1D

// TerminalHost connects the host terminal to the console UART. Keystrokes
// are read raw on a goroutine and queued; the session itself is only ever
// touched from the goroutine calling Interact.
// Only instantiated by cmd/rvsim for interactive use, never in tests.
type TerminalHost struct {
	in  *os.File
	out io.Writer

	keys     chan byte
	detached chan struct{}
	detach   sync.Once

	stopCh       chan struct{}
	done         chan struct{}
	stopped      sync.Once
	fd           int
	nonblockSet  bool
	oldTermState *term.State
}

// NewTerminalHost creates a host adapter reading in and echoing guest
// output to out.
func NewTerminalHost(in *os.File, out io.Writer) *TerminalHost {
	return &TerminalHost{
		in:       in,
		out:      out,
		keys:     make(chan byte, 256),
		detached: make(chan struct{}),
		stopCh:   make(chan struct{}),
		done:     make(chan struct{}),
	}
}

// Start puts the terminal in raw mode and begins reading keystrokes.
// Call Stop to restore it.
func (h *TerminalHost) Start() error {
	h.fd = int(h.in.Fd())

	// Raw mode disables host echo and line buffering; the guest echoes.
	oldState, err := term.MakeRaw(h.fd)
	if err != nil {
		close(h.done)
		return fmt.Errorf("terminal_host: failed to set raw mode: %w", err)
	}
	h.oldTermState = oldState

	if err := h.startReader(); err != nil {
		_ = term.Restore(h.fd, h.oldTermState)
		h.oldTermState = nil
		close(h.done)
		return err
	}
	return nil
}

// Stop terminates the reader goroutine and restores the terminal.
func (h *TerminalHost) Stop() {
	h.stopped.Do(func() {
		close(h.stopCh)
	})
	<-h.done
	h.restoreBlocking()
	if h.oldTermState != nil {
		_ = term.Restore(h.fd, h.oldTermState)
		h.oldTermState = nil
	}
}

// route translates one host key and queues it for the guest.
func (h *TerminalHost) route(b byte) {
	switch b {
	case TERMINAL_DETACH_KEY:
		h.detach.Do(func() { close(h.detached) })
		return
	case '\r':
		// Raw mode sends CR for Enter; the UART turns LF back into CR.
		b = '\n'
	case 0x7F:
		// Modern terminals send DEL for Backspace.
		b = 0x08
	}
	select {
	case h.keys <- b:
	case <-h.stopCh:
	}
}

// pendingInput drains queued keystrokes without blocking.
func (h *TerminalHost) pendingInput() []byte {
	var out []byte
	for {
		select {
		case b := <-h.keys:
			out = append(out, b)
		default:
			return out
		}
	}
}

// waitInput blocks until a key arrives, the user detaches or d elapses.
func (h *TerminalHost) waitInput(d time.Duration) []byte {
	select {
	case b := <-h.keys:
		return append([]byte{b}, h.pendingInput()...)
	case <-h.detached:
	case <-time.After(d):
	}
	return nil
}

func (h *TerminalHost) isDetached() bool {
	select {
	case <-h.detached:
		return true
	default:
		return false
	}
}

// PrintOutput copies new guest output from both UARTs to the terminal.
func (h *TerminalHost) PrintOutput(s *Session) {
	for _, id := range []UARTID{DebugUART, ConsoleUART} {
		if out := s.UARTReadNew(id); len(out) > 0 {
			h.out.Write(out)
		}
	}
}

// Interact runs s with the terminal attached until the guest stops for a
// reason other than polling for input, or the user detaches. Each run
// slice retires at most slice instructions. While the guest polls an empty
// console RX FIFO the host sleeps on the keyboard instead of spinning.
func (h *TerminalHost) Interact(s *Session, slice uint64) ExecutionResult {
	for {
		if h.isDetached() {
			return s.result(StatusRunning, s.Retired(), "detached")
		}
		if in := h.pendingInput(); len(in) > 0 {
			_ = s.UARTInject(ConsoleUART, in)
		}

		r := s.RunUntilRXStatusPolled(slice)
		h.PrintOutput(s)

		switch r.Status {
		case StatusMaxStepsReached:
			continue
		case StatusWatchpoint:
			if r.Watch == nil || r.Watch.Addr != CONSOLE_UART_RX_STATUS || r.Watch.Kind != WatchRead {
				return r
			}
			if !s.UART(ConsoleUART).RxHasData() {
				if in := h.waitInput(50 * time.Millisecond); len(in) > 0 {
					_ = s.UARTInject(ConsoleUART, in)
				}
			}
		default:
			return r
		}
	}
}
