// session_run.go - Instruction stepping and run loops

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

type ExecStatus int

const (
	StatusRunning ExecStatus = iota
	StatusHalted
	StatusBreakpoint
	StatusWatchpoint
	StatusError
	StatusMaxStepsReached
)

func (st ExecStatus) String() string {
	switch st {
	case StatusRunning:
		return "running"
	case StatusHalted:
		return "halted"
	case StatusBreakpoint:
		return "breakpoint"
	case StatusWatchpoint:
		return "watchpoint"
	case StatusError:
		return "error"
	case StatusMaxStepsReached:
		return "max-steps"
	}
	return fmt.Sprintf("status(%d)", int(st))
}

// ExecutionResult reports why a step or run call returned.
type ExecutionResult struct {
	Status  ExecStatus
	Retired uint64 // instructions retired by this call
	PC      uint32
	Message string

	// Fault is the MemoryAccessFault or IllegalInstructionFault behind an
	// Error status.
	Fault error

	// Watch is set for a Watchpoint status.
	Watch *WatchpointHit

	// BreakpointID is valid for a Breakpoint status.
	BreakpointID int

	// Exited and ExitCode are set when the guest halted through exit.
	Exited   bool
	ExitCode int32
}

func (r ExecutionResult) String() string {
	if r.Message == "" {
		return fmt.Sprintf("%s after %d instructions, pc=0x%08X", r.Status, r.Retired, r.PC)
	}
	return fmt.Sprintf("%s after %d instructions, pc=0x%08X: %s", r.Status, r.Retired, r.PC, r.Message)
}

// Step executes at most n instructions, stopping early on a breakpoint,
// watchpoint, halt or fault.
func (s *Session) Step(n uint64) ExecutionResult {
	return s.runLoop(n, nil)
}

// Run is Step with a larger budget; maxSteps is the only bound.
func (s *Session) Run(maxSteps uint64) ExecutionResult {
	return s.runLoop(maxSteps, nil)
}

// RunUntilTXAvailable runs until either UART holds bytes ReadNew has not
// returned yet. It returns Running at once if such bytes are already there.
func (s *Session) RunUntilTXAvailable(maxSteps uint64) ExecutionResult {
	return s.runLoop(maxSteps, s.txAvailable)
}

func (s *Session) txAvailable() bool {
	return s.debugUART.Unread() > 0 || s.consoleUART.Unread() > 0
}

// RunUntilRXStatusPolled runs until the guest is about to read the console
// RX status register. The load has not executed when this returns, so input
// injected now is seen by it.
func (s *Session) RunUntilRXStatusPolled(maxSteps uint64) ExecutionResult {
	watches := s.bus.Watchpoints()
	wp, created := watches.Add(CONSOLE_UART_RX_STATUS, WatchRead)
	if created {
		defer watches.Remove(wp.ID)
	}
	return s.runLoop(maxSteps, nil)
}

// runLoop retires up to limit instructions. until, when set, is consulted
// before the first instruction and after each one that retires.
func (s *Session) runLoop(limit uint64, until func() bool) ExecutionResult {
	start := s.cpu.Retired
	if s.halted {
		r := s.result(StatusHalted, start, "already halted")
		if s.exit != nil {
			r.Exited, r.ExitCode = s.exit.Exited, s.exit.ExitCode
		}
		return r
	}
	if until != nil && until() {
		return s.result(StatusRunning, start, "")
	}
	for range limit {
		if r, stop := s.stepOne(start); stop {
			return r
		}
		if until != nil && until() {
			return s.result(StatusRunning, start, "")
		}
	}
	return s.result(StatusMaxStepsReached, start, "")
}

func (s *Session) result(status ExecStatus, start uint64, msg string) ExecutionResult {
	return ExecutionResult{
		Status:  status,
		Retired: s.cpu.Retired - start,
		PC:      s.cpu.PC,
		Message: msg,
	}
}

// stepOne runs a single instruction boundary: breakpoint check, fetch, trace
// and execute, with ECALL handed to the syscall shim. stop reports whether
// the run must return r.
func (s *Session) stepOne(start uint64) (r ExecutionResult, stop bool) {
	cpu, bus := s.cpu, s.bus
	pc := cpu.PC
	bus.SetPC(pc)

	resumed := stopNone
	if s.resume.kind != stopNone && s.resume.pc == pc {
		resumed = s.resume.kind
	}
	s.resume = resumePoint{}

	if resumed != stopBreakpoint {
		if bp := s.breakpoints.Check(cpu, bus); bp != nil {
			s.resume = resumePoint{kind: stopBreakpoint, pc: pc}
			r = s.result(StatusBreakpoint, start, fmt.Sprintf("breakpoint %d at %s", bp.ID, s.location(pc)))
			r.BreakpointID = bp.ID
			return r, true
		}
	}

	word, err := bus.Fetch32(pc)
	if err != nil {
		return s.faulted(start, err), true
	}
	if s.trace.Enabled() {
		s.trace.Append(cpu.Retired, pc, &cpu.X, word)
	}

	bus.skipReadWatch = resumed == stopReadWatch
	err = Execute(cpu, bus, word)
	bus.skipReadWatch = false

	if err != nil {
		var (
			ecall *EcallTrap
			brk   *EbreakTrap
			hit   *WatchpointHit
		)
		switch {
		case errors.As(err, &ecall):
			if err := s.shim.Handle(cpu, bus); err != nil {
				if errors.As(err, &brk) {
					return s.halt(start, brk), true
				}
				return s.faulted(start, err), true
			}
			cpu.PC += 4
		case errors.As(err, &brk):
			return s.halt(start, brk), true
		case errors.As(err, &hit):
			// The load never happened; it runs again on resume.
			s.trace.DropLast()
			s.resume = resumePoint{kind: stopReadWatch, pc: pc}
			r = s.result(StatusWatchpoint, start, hit.Error())
			r.Watch = hit
			return r, true
		default:
			return s.faulted(start, err), true
		}
	}
	cpu.Retired++

	if hits := bus.DrainWriteHits(); len(hits) > 0 {
		r = s.result(StatusWatchpoint, start, hits[0].Error())
		r.Watch = hits[0]
		return r, true
	}
	return ExecutionResult{}, false
}

func (s *Session) halt(start uint64, trap *EbreakTrap) ExecutionResult {
	s.bus.DrainWriteHits()
	s.halted = true
	s.exit = trap
	s.logf("halt: %v", trap)

	r := s.result(StatusHalted, start, trap.Error())
	r.Exited, r.ExitCode = trap.Exited, trap.ExitCode
	return r
}

func (s *Session) faulted(start uint64, err error) ExecutionResult {
	s.bus.DrainWriteHits()
	s.logf("fault: %v", err)

	r := s.result(StatusError, start, err.Error())
	r.Fault = err
	return r
}
