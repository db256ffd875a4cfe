//go:build !windows

package rvsim

import (
	"fmt"
	"time"

	"golang.org/x/sys/unix"
)

// startReader switches stdin to non-blocking mode so Stop can end the
// reader promptly.
func (h *TerminalHost) startReader() error {
	if err := unix.SetNonblock(h.fd, true); err != nil {
		return fmt.Errorf("terminal_host: failed to set nonblocking stdin: %w", err)
	}
	h.nonblockSet = true

	go func() {
		defer close(h.done)
		buf := make([]byte, 1)

		for {
			select {
			case <-h.stopCh:
				return
			default:
			}

			n, err := unix.Read(h.fd, buf)
			if n > 0 {
				h.route(buf[0])
			}
			if err == unix.EAGAIN || err == unix.EWOULDBLOCK || err == unix.EINTR {
				time.Sleep(5 * time.Millisecond)
				continue
			}
			if err != nil {
				return
			}
			if n == 0 {
				time.Sleep(5 * time.Millisecond)
			}
		}
	}()
	return nil
}

func (h *TerminalHost) restoreBlocking() {
	if h.nonblockSet {
		_ = unix.SetNonblock(h.fd, false)
		h.nonblockSet = false
	}
}
