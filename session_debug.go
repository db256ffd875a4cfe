// session_debug.go - Breakpoints, watchpoints, trace and disassembly

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
)

// AddBreakpoint stops execution before the instruction at addr. A non-nil
// cond must also hold.
func (s *Session) AddBreakpoint(addr uint32, cond *BreakpointCondition) *Breakpoint {
	return s.breakpoints.Add(addr, true, cond)
}

// AddConditionBreakpoint stops at any instruction boundary where cond holds.
func (s *Session) AddConditionBreakpoint(cond *BreakpointCondition) *Breakpoint {
	return s.breakpoints.AddCondition(cond)
}

func (s *Session) RemoveBreakpoint(id int) bool {
	if s.resume.kind == stopBreakpoint {
		s.resume = resumePoint{}
	}
	return s.breakpoints.Remove(id)
}

func (s *Session) Breakpoints() []*Breakpoint {
	return s.breakpoints.List()
}

func (s *Session) ClearBreakpoints() {
	s.breakpoints.Clear()
}

// AddWatchpoint watches one byte address. Adding a kind/address pair that
// is already watched returns the existing watchpoint.
func (s *Session) AddWatchpoint(addr uint32, kind WatchKind) *Watchpoint {
	wp, _ := s.bus.Watchpoints().Add(addr, kind)
	return wp
}

func (s *Session) RemoveWatchpoint(id int) bool {
	return s.bus.Watchpoints().Remove(id)
}

func (s *Session) Watchpoints() []*Watchpoint {
	return s.bus.Watchpoints().List()
}

func (s *Session) ClearWatchpoints() {
	s.bus.Watchpoints().Clear()
}

func (s *Session) Trace() *TraceBuffer {
	return s.trace
}

// TraceDump returns up to n of the newest trace entries, oldest first. n <= 0
// returns everything retained.
func (s *Session) TraceDump(n int) []TraceEntry {
	if n <= 0 {
		return s.trace.Entries()
	}
	return s.trace.Last(n)
}

// TraceSearch walks the trace backwards from start (nil for the newest
// entry) and returns the first entry matching q.
func (s *Session) TraceSearch(q TraceQuery, start *uint64) (TraceEntry, bool) {
	live := s.cpu.X
	return s.trace.SearchBackwards(q, start, &live)
}

func (s *Session) Symbols() *SymbolTable {
	return s.symbols
}

// location formats pc with its symbol when one is known.
func (s *Session) location(pc uint32) string {
	if name := s.symbols.Format(pc); name != "" {
		return fmt.Sprintf("0x%08X <%s>", pc, name)
	}
	return fmt.Sprintf("0x%08X", pc)
}

// Disassemble lists count instructions from addr. Unmapped memory ends the
// listing early.
func (s *Session) Disassemble(addr uint32, count int) []DisassembledLine {
	read := func(a uint32, size int) []byte {
		b, err := s.Peek(a, size)
		if err != nil {
			return nil
		}
		return b
	}
	lines := disassembleRV32(read, addr, count, s.symbols)
	for i := range lines {
		lines[i].IsPC = lines[i].Address == s.cpu.PC
	}
	return lines
}

// Registers describes pc, the general registers and the machine CSRs.
func (s *Session) Registers() []RegisterInfo {
	regs := make([]RegisterInfo, 0, 1+NUM_REGISTERS+len(csrNames))
	regs = append(regs, RegisterInfo{Name: "pc", Index: -1, BitWidth: 32, Value: s.cpu.PC, Group: "pc"})
	for i := range NUM_REGISTERS {
		regs = append(regs, RegisterInfo{
			Name:     RegisterName(uint8(i)),
			Index:    i,
			BitWidth: 32,
			Value:    s.cpu.GetX(uint8(i)),
			Group:    "general",
		})
	}
	for _, addr := range []uint16{CSR_MSTATUS, CSR_MIE, CSR_MTVEC, CSR_MEPC, CSR_MCAUSE, CSR_MIP, CSR_INSTRET} {
		regs = append(regs, RegisterInfo{
			Name:     CSRName(addr),
			Index:    -1,
			BitWidth: 32,
			Value:    s.cpu.ReadCSR(addr),
			Group:    "csr",
		})
	}
	return regs
}
