//go:build windows

package rvsim

import "time"

// startReader reads stdin with blocking reads; on Windows the reader exits
// on the first read after Stop.
func (h *TerminalHost) startReader() error {
	go func() {
		defer close(h.done)
		buf := make([]byte, 1)

		for {
			select {
			case <-h.stopCh:
				return
			default:
			}

			n, err := h.in.Read(buf)
			if n > 0 {
				h.route(buf[0])
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

func (h *TerminalHost) restoreBlocking() {}
