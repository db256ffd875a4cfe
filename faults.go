// faults.go - Typed faults and traps raised by the executor and bus

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
	"errors"
	"fmt"
)

// AccessKind classifies a memory access for fault and watchpoint reporting.
type AccessKind int

const (
	AccessFetch AccessKind = iota
	AccessLoad
	AccessStore
)

func (k AccessKind) String() string {
	switch k {
	case AccessFetch:
		return "fetch"
	case AccessLoad:
		return "load"
	case AccessStore:
		return "store"
	}
	return fmt.Sprintf("access(%d)", int(k))
}

// The following errors may be returned by session operations.
var (
	// ErrHalted indicates that the guest executed EBREAK or exited.
	ErrHalted = errors.New("rvsim: halted")

	// ErrOutsideRAM indicates a host-side load outside the RAM window.
	ErrOutsideRAM = errors.New("rvsim: address range outside RAM")

	// ErrNoRX indicates input was offered to a UART without a receiver.
	ErrNoRX = errors.New("rvsim: uart has no receiver")

	// ErrUnknownRegister indicates an unrecognised register name or index.
	ErrUnknownRegister = errors.New("rvsim: unknown register")
)

// MemoryAccessFault is raised for any access outside the valid regions.
type MemoryAccessFault struct {
	Kind AccessKind
	Addr uint32
	PC   uint32
}

func (f *MemoryAccessFault) Error() string {
	return fmt.Sprintf("memory access fault: %s at 0x%08X (pc=0x%08X)", f.Kind, f.Addr, f.PC)
}

// IllegalInstructionFault is raised for encodings the executor does not implement.
type IllegalInstructionFault struct {
	PC     uint32
	Word   uint32
	Reason string
}

func (f *IllegalInstructionFault) Error() string {
	return fmt.Sprintf("illegal instruction 0x%08X at 0x%08X: %s", f.Word, f.PC, f.Reason)
}

// EbreakTrap is a clean halt request. Exit syscalls raise it too, with
// Exited set and the guest's status code.
type EbreakTrap struct {
	PC       uint32
	Exited   bool
	ExitCode int32
}

func (t *EbreakTrap) Error() string {
	if t.Exited {
		return fmt.Sprintf("exit(%d) at 0x%08X", t.ExitCode, t.PC)
	}
	return fmt.Sprintf("ebreak at 0x%08X", t.PC)
}

func (t *EbreakTrap) Is(target error) bool { return target == ErrHalted }

// EcallTrap hands control to the syscall shim. It never leaves the session.
type EcallTrap struct {
	PC uint32
}

func (t *EcallTrap) Error() string {
	return fmt.Sprintf("ecall at 0x%08X", t.PC)
}

// WatchpointHit reports a data access that matched a watchpoint. Read hits
// abort the instruction; write hits are queued until it retires.
type WatchpointHit struct {
	ID   int
	Kind WatchKind
	Addr uint32
	PC   uint32
}

func (w *WatchpointHit) Error() string {
	return fmt.Sprintf("%s watchpoint %d hit at 0x%08X (pc=0x%08X)", w.Kind, w.ID, w.Addr, w.PC)
}
