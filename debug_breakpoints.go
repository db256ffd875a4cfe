// debug_breakpoints.go - Address and register-conditional breakpoints

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

import "sort"

// Breakpoint stops execution before the instruction at Addr retires. A
// breakpoint without an address is register-only: it fires at any
// instruction boundary where Cond holds.
type Breakpoint struct {
	ID       int
	Addr     uint32
	HasAddr  bool
	Cond     *BreakpointCondition
	Enabled  bool
	HitCount uint64
}

// BreakpointSet keeps address-keyed breakpoints apart from register-only ones
// so the per-instruction check is a map lookup plus a short scan.
type BreakpointSet struct {
	nextID   int
	byID     map[int]*Breakpoint
	byAddr   map[uint32][]*Breakpoint
	anywhere []*Breakpoint
}

func NewBreakpointSet() *BreakpointSet {
	return &BreakpointSet{
		nextID: 1,
		byID:   make(map[int]*Breakpoint),
		byAddr: make(map[uint32][]*Breakpoint),
	}
}

// AddAddress installs an unconditional breakpoint at addr.
func (bs *BreakpointSet) AddAddress(addr uint32) *Breakpoint {
	return bs.Add(addr, true, nil)
}

// AddCondition installs a register-only breakpoint.
func (bs *BreakpointSet) AddCondition(cond *BreakpointCondition) *Breakpoint {
	return bs.Add(0, false, cond)
}

func (bs *BreakpointSet) Add(addr uint32, hasAddr bool, cond *BreakpointCondition) *Breakpoint {
	bp := &Breakpoint{ID: bs.nextID, Addr: addr, HasAddr: hasAddr, Cond: cond, Enabled: true}
	bs.nextID++
	bs.byID[bp.ID] = bp
	if hasAddr {
		bs.byAddr[addr] = append(bs.byAddr[addr], bp)
	} else {
		bs.anywhere = append(bs.anywhere, bp)
	}
	return bp
}

func (bs *BreakpointSet) Get(id int) *Breakpoint {
	return bs.byID[id]
}

func (bs *BreakpointSet) Remove(id int) bool {
	bp, ok := bs.byID[id]
	if !ok {
		return false
	}
	delete(bs.byID, id)
	if bp.HasAddr {
		bs.byAddr[bp.Addr] = removeBreakpoint(bs.byAddr[bp.Addr], bp)
		if len(bs.byAddr[bp.Addr]) == 0 {
			delete(bs.byAddr, bp.Addr)
		}
	} else {
		bs.anywhere = removeBreakpoint(bs.anywhere, bp)
	}
	return true
}

func removeBreakpoint(list []*Breakpoint, bp *Breakpoint) []*Breakpoint {
	for i, b := range list {
		if b == bp {
			return append(list[:i], list[i+1:]...)
		}
	}
	return list
}

// List returns every breakpoint ordered by ID.
func (bs *BreakpointSet) List() []*Breakpoint {
	out := make([]*Breakpoint, 0, len(bs.byID))
	for _, bp := range bs.byID {
		out = append(out, bp)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

func (bs *BreakpointSet) Len() int {
	return len(bs.byID)
}

func (bs *BreakpointSet) Clear() {
	clear(bs.byID)
	clear(bs.byAddr)
	bs.anywhere = nil
}

func (bs *BreakpointSet) ResetHits() {
	for _, bp := range bs.byID {
		bp.HitCount = 0
	}
}

// Check returns the first enabled breakpoint that fires at the current
// instruction boundary. Address breakpoints win over register-only ones;
// ties go to the lower ID.
func (bs *BreakpointSet) Check(cpu *CPU, bus *MachineBus) *Breakpoint {
	if len(bs.byID) == 0 {
		return nil
	}
	for _, bp := range bs.byAddr[cpu.PC] {
		if bs.fires(bp, cpu, bus) {
			return bp
		}
	}
	for _, bp := range bs.anywhere {
		if bs.fires(bp, cpu, bus) {
			return bp
		}
	}
	return nil
}

func (bs *BreakpointSet) fires(bp *Breakpoint, cpu *CPU, bus *MachineBus) bool {
	if !bp.Enabled {
		return false
	}
	// An address breakpoint counts every arrival, so hitcount conditions
	// can skip the first passes. Register-only ones count when they fire.
	if bp.HasAddr {
		bp.HitCount++
		return evaluateCondition(bp.Cond, cpu, bus, bp.HitCount)
	}
	if !evaluateCondition(bp.Cond, cpu, bus, bp.HitCount+1) {
		return false
	}
	bp.HitCount++
	return true
}
