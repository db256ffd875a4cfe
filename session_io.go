// session_io.go - Register, memory and UART access

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

import (
	"fmt"
	"strings"
)

// GetRegister reads a register by ABI name, xN name, index string or "pc".
func (s *Session) GetRegister(name string) (uint32, error) {
	if strings.EqualFold(strings.TrimSpace(name), "pc") {
		return s.cpu.PC, nil
	}
	r, err := ParseRegister(name)
	if err != nil {
		return 0, err
	}
	return s.cpu.GetX(r), nil
}

// SetRegister writes a register by name. Writes to x0 are ignored.
func (s *Session) SetRegister(name string, v uint32) error {
	if strings.EqualFold(strings.TrimSpace(name), "pc") {
		s.SetPC(v)
		return nil
	}
	r, err := ParseRegister(name)
	if err != nil {
		return err
	}
	s.cpu.SetX(r, v)
	return nil
}

func (s *Session) GetRegisterIndex(i int) (uint32, error) {
	if i < 0 || i >= NUM_REGISTERS {
		return 0, fmt.Errorf("%w: x%d", ErrUnknownRegister, i)
	}
	return s.cpu.GetX(uint8(i)), nil
}

func (s *Session) SetRegisterIndex(i int, v uint32) error {
	if i < 0 || i >= NUM_REGISTERS {
		return fmt.Errorf("%w: x%d", ErrUnknownRegister, i)
	}
	s.cpu.SetX(uint8(i), v)
	return nil
}

// RegisterFile returns a copy of x0-x31.
func (s *Session) RegisterFile() [NUM_REGISTERS]uint32 {
	return s.cpu.X
}

// ReadCSR reads a CSR the way a CSRRS with x0 would.
func (s *Session) ReadCSR(addr uint16) uint32 {
	return s.cpu.ReadCSR(addr)
}

// Peek reads n bytes of guest memory without side effects. Device windows
// report their current register values; unmapped addresses fail.
func (s *Session) Peek(addr uint32, n int) ([]byte, error) {
	out := make([]byte, n)
	for i := range out {
		a := addr + uint32(i)
		b, ok := s.bus.Peek(a)
		if !ok {
			return nil, &MemoryAccessFault{Kind: AccessLoad, Addr: a, PC: s.cpu.PC}
		}
		out[i] = b
	}
	return out, nil
}

// Poke writes bytes into guest memory, bypassing watchpoints. It stops at
// the first unmapped address; earlier bytes stay written.
func (s *Session) Poke(addr uint32, data []byte) error {
	for i, b := range data {
		a := addr + uint32(i)
		if !s.bus.Poke(a, b) {
			return &MemoryAccessFault{Kind: AccessStore, Addr: a, PC: s.cpu.PC}
		}
	}
	return nil
}

// ReadWord is a little-endian Peek of four bytes.
func (s *Session) ReadWord(addr uint32) (uint32, error) {
	b, err := s.Peek(addr, 4)
	if err != nil {
		return 0, err
	}
	return uint32(b[0]) | uint32(b[1])<<8 | uint32(b[2])<<16 | uint32(b[3])<<24, nil
}

func (s *Session) WriteWord(addr, v uint32) error {
	return s.Poke(addr, []byte{byte(v), byte(v >> 8), byte(v >> 16), byte(v >> 24)})
}

func (s *Session) UART(id UARTID) *UART {
	if id == DebugUART {
		return s.debugUART
	}
	return s.consoleUART
}

// UARTReadNew returns TX bytes not returned by an earlier UARTReadNew.
func (s *Session) UARTReadNew(id UARTID) []byte {
	return s.UART(id).ReadNew()
}

// UARTReadAll returns the whole TX log without moving the read cursor.
func (s *Session) UARTReadAll(id UARTID) []byte {
	return s.UART(id).ReadAll()
}

// UARTInject queues host input on a UART's RX FIFO. Only the console UART
// has a receiver.
func (s *Session) UARTInject(id UARTID, data []byte) error {
	if err := s.UART(id).InjectRX(data); err != nil {
		return fmt.Errorf("%s uart: %w", id, err)
	}
	return nil
}

// Screen returns the console VT100 model, or nil when disabled.
func (s *Session) Screen() *VT100Screen {
	return s.screen
}

// ScreenDump renders the screen as text, one line per row.
func (s *Session) ScreenDump() string {
	if s.screen == nil {
		return ""
	}
	return s.screen.String()
}
