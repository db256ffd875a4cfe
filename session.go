// session.go - Simulator session

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
session.go - Simulator session

A Session owns one complete guest machine: the CPU, the sparse RAM and MMIO
bus, both UARTs and the optional VT100 screen, the millisecond timer, the
syscall shim and its sandbox, and the debugger state. Everything is driven
synchronously from the caller's goroutine; a Session must not be used from
more than one goroutine at a time, but independent sessions share nothing
and may run side by side.
*/

package rvsim

import (
	"fmt"
	"io"
	"log"
	"os"
	"time"
)

// SessionConfig carries construction-time settings.
type SessionConfig struct {
	StartPC uint32

	// FSRoot is the host directory behind the guest filesystem. When empty
	// a private temporary directory is created and removed by Close.
	FSRoot string

	// TraceCapacity is the trace ring size; 0 disables tracing.
	TraceCapacity int

	// Screen enables the VT100 model on the console UART.
	Screen bool

	// Clock drives the millisecond timer; nil means time.Now.
	Clock func() time.Time

	// Logger receives halt and syscall diagnostics; nil keeps the session
	// silent.
	Logger       *log.Logger
	SyscallTrace bool
}

func DefaultSessionConfig() SessionConfig {
	return SessionConfig{
		StartPC:       DEFAULT_START_PC,
		TraceCapacity: DEFAULT_TRACE_CAPACITY,
		Screen:        true,
	}
}

// UARTID selects one of the two serial ports.
type UARTID int

const (
	DebugUART UARTID = iota
	ConsoleUART
)

func (id UARTID) String() string {
	switch id {
	case DebugUART:
		return "debug"
	case ConsoleUART:
		return "console"
	}
	return fmt.Sprintf("uart(%d)", int(id))
}

// ParseUARTID accepts "debug"/"0" and "console"/"1".
func ParseUARTID(s string) (UARTID, error) {
	switch s {
	case "debug", "dbg", "0":
		return DebugUART, nil
	case "console", "con", "1":
		return ConsoleUART, nil
	}
	return 0, fmt.Errorf("unknown uart %q", s)
}

type stopKind int

const (
	stopNone stopKind = iota
	stopBreakpoint
	stopReadWatch
)

// resumePoint remembers the instruction a run stopped in front of so the
// next run can execute it instead of stopping again.
type resumePoint struct {
	kind stopKind
	pc   uint32
}

type Session struct {
	cfg SessionConfig

	cpu *CPU
	bus *MachineBus

	debugUART   *UART
	consoleUART *UART
	screen      *VT100Screen
	timer       *Timer

	shim    *SyscallShim
	tempDir string

	breakpoints *BreakpointSet
	trace       *TraceBuffer
	symbols     *SymbolTable

	halted bool
	exit   *EbreakTrap
	resume resumePoint

	logger *log.Logger
}

// NewSession builds a machine with an empty RAM and PC at cfg.StartPC.
func NewSession(cfg SessionConfig) (*Session, error) {
	if cfg.TraceCapacity < 0 {
		return nil, fmt.Errorf("invalid trace capacity %d", cfg.TraceCapacity)
	}

	s := &Session{
		cfg:         cfg,
		cpu:         NewCPU(cfg.StartPC),
		bus:         NewMachineBus(),
		debugUART:   NewUART("debug", false),
		consoleUART: NewUART("console", true),
		timer:       NewTimer(cfg.Clock),
		breakpoints: NewBreakpointSet(),
		trace:       NewTraceBuffer(cfg.TraceCapacity),
		symbols:     NewSymbolTable(),
		logger:      cfg.Logger,
	}

	root := cfg.FSRoot
	if root == "" {
		dir, err := os.MkdirTemp("", "rvsim-fs-")
		if err != nil {
			return nil, fmt.Errorf("create sandbox: %w", err)
		}
		root, s.tempDir = dir, dir
	}
	sb, err := NewSandbox(root)
	if err != nil {
		s.removeTemp()
		return nil, fmt.Errorf("sandbox %s: %w", root, err)
	}
	s.shim = NewSyscallShim(sb, s.consoleUART)
	s.shim.SetLogger(cfg.Logger, cfg.SyscallTrace)

	if cfg.Screen {
		s.screen = NewVT100Screen()
		s.consoleUART.AttachScreen(s.screen)
	}
	s.cpu.timeMillis = s.timer.Millis

	s.bus.MapIO(DEBUG_UART_TX, DEBUG_UART_TX, s.debugUART.HandleDebugRead, s.debugUART.HandleDebugWrite, nil)
	s.timer.SetLoadSequence(s.bus.LoadSeq)
	s.bus.MapIO(TIMER_BASE, TIMER_END, s.timer.HandleRead, nil, s.timer.HandlePeek)
	s.bus.MapIO(CONSOLE_UART_BASE, CONSOLE_UART_END, s.consoleUART.HandleRead, s.consoleUART.HandleWrite, s.consoleUART.HandlePeek)
	return s, nil
}

func (s *Session) removeTemp() {
	if s.tempDir != "" {
		os.RemoveAll(s.tempDir)
		s.tempDir = ""
	}
}

// Close releases guest file handles and any temporary sandbox.
func (s *Session) Close() error {
	s.shim.CloseAll()
	s.removeTemp()
	return nil
}

func (s *Session) logf(format string, args ...any) {
	if s.logger != nil {
		s.logger.Printf(format, args...)
	}
}

// Reset returns the machine to its just-constructed state. Breakpoints and
// watchpoints are kept with their hit counts cleared; the trace, RAM, UART
// logs, screen, timer, open files, working directory and symbols are not.
func (s *Session) Reset() {
	s.cpu.Reset(s.cfg.StartPC)
	s.bus.Reset()
	s.debugUART.Reset()
	s.consoleUART.Reset()
	s.timer.Reset()
	s.shim.Reset()
	s.trace.Clear()
	s.symbols.Clear()
	s.breakpoints.ResetHits()
	s.bus.Watchpoints().ResetHits()
	s.halted = false
	s.exit = nil
	s.resume = resumePoint{}
}

func (s *Session) Config() SessionConfig { return s.cfg }

func (s *Session) PC() uint32 { return s.cpu.PC }

// SetPC moves execution and clears a previous halt.
func (s *Session) SetPC(pc uint32) {
	s.cpu.PC = pc
	s.halted = false
	s.exit = nil
}

// Retired is the number of instructions retired since reset.
func (s *Session) Retired() uint64 { return s.cpu.Retired }

func (s *Session) Halted() bool { return s.halted }

// ExitStatus reports the guest exit code once it has called exit.
func (s *Session) ExitStatus() (int32, bool) {
	if s.exit == nil || !s.exit.Exited {
		return 0, false
	}
	return s.exit.ExitCode, true
}

// Sandbox exposes the guest filesystem root.
func (s *Session) Sandbox() *Sandbox { return s.shim.Sandbox() }

// LoadBytes copies data into RAM at addr.
func (s *Session) LoadBytes(addr uint32, data []byte) error {
	if err := checkRAMRange(addr, uint64(len(data))); err != nil {
		return err
	}
	for i, b := range data {
		s.bus.Poke(addr+uint32(i), b)
	}
	return nil
}

func checkRAMRange(addr uint32, n uint64) error {
	if n == 0 {
		return nil
	}
	end := uint64(addr) + n
	if addr < RAM_BASE || end > RAM_END {
		return fmt.Errorf("%w: 0x%08X+%d", ErrOutsideRAM, addr, n)
	}
	return nil
}

// LoadELF loads every PT_LOAD segment, zero-filling the bss part, installs
// the symbols and moves PC to the entry point.
func (s *Session) LoadELF(data []byte) (*ELFImage, error) {
	img, err := ParseELF(data)
	if err != nil {
		return nil, err
	}
	for _, seg := range img.Segments {
		for i, b := range seg.Data {
			s.bus.Poke(seg.Vaddr+uint32(i), b)
		}
		for off := uint32(len(seg.Data)); off < seg.Memsz; off++ {
			s.bus.Poke(seg.Vaddr+off, 0)
		}
	}
	for _, sym := range img.Symbols {
		s.symbols.Add(sym)
	}
	s.SetPC(img.Entry)
	s.logf("elf: entry 0x%08X, %d segments, %d symbols", img.Entry, len(img.Segments), len(img.Symbols))
	return img, nil
}

// LoadELFFile reads and loads an ELF executable from the host.
func (s *Session) LoadELFFile(path string) (*ELFImage, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	data, err := io.ReadAll(f)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	img, err := s.LoadELF(data)
	if err != nil {
		return nil, fmt.Errorf("load %s: %w", path, err)
	}
	return img, nil
}
