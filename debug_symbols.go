// debug_symbols.go - Symbol table for reverse address lookup

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
	"sort"
)

type SymbolKind int

const (
	SymOther SymbolKind = iota
	SymObject
	SymFunc
)

type Symbol struct {
	Name string
	Addr uint32
	Size uint32
	Kind SymbolKind
}

// SymbolTable maps names to addresses and back. When several symbols share
// an address, reverse lookup prefers a function symbol and otherwise keeps
// the first one added.
type SymbolTable struct {
	byName map[string]Symbol
	byAddr map[uint32]Symbol
	sorted []Symbol // by address, rebuilt lazily
}

func NewSymbolTable() *SymbolTable {
	return &SymbolTable{
		byName: make(map[string]Symbol),
		byAddr: make(map[uint32]Symbol),
	}
}

func (st *SymbolTable) Add(sym Symbol) {
	if _, dup := st.byName[sym.Name]; !dup {
		st.byName[sym.Name] = sym
	}
	if cur, ok := st.byAddr[sym.Addr]; !ok || (sym.Kind == SymFunc && cur.Kind != SymFunc) {
		st.byAddr[sym.Addr] = sym
	}
	st.sorted = nil
}

func (st *SymbolTable) Lookup(name string) (Symbol, bool) {
	sym, ok := st.byName[name]
	return sym, ok
}

// At returns the preferred symbol defined exactly at addr.
func (st *SymbolTable) At(addr uint32) (Symbol, bool) {
	sym, ok := st.byAddr[addr]
	return sym, ok
}

// Nearest returns the closest symbol at or below addr and the offset into
// it. Sized symbols only cover their own extent.
func (st *SymbolTable) Nearest(addr uint32) (Symbol, uint32, bool) {
	if len(st.byAddr) == 0 {
		return Symbol{}, 0, false
	}
	if st.sorted == nil {
		st.sorted = make([]Symbol, 0, len(st.byAddr))
		for _, s := range st.byAddr {
			st.sorted = append(st.sorted, s)
		}
		sort.Slice(st.sorted, func(i, j int) bool { return st.sorted[i].Addr < st.sorted[j].Addr })
	}
	i := sort.Search(len(st.sorted), func(i int) bool { return st.sorted[i].Addr > addr }) - 1
	if i < 0 {
		return Symbol{}, 0, false
	}
	sym := st.sorted[i]
	off := addr - sym.Addr
	if sym.Size > 0 && off >= sym.Size {
		return Symbol{}, 0, false
	}
	return sym, off, true
}

// Format renders addr as "name" or "name+0xOFF", or "" when unknown.
func (st *SymbolTable) Format(addr uint32) string {
	sym, off, ok := st.Nearest(addr)
	if !ok {
		return ""
	}
	if off == 0 {
		return sym.Name
	}
	return fmt.Sprintf("%s+0x%x", sym.Name, off)
}

// All returns every name-indexed symbol ordered by address, then name.
func (st *SymbolTable) All() []Symbol {
	out := make([]Symbol, 0, len(st.byName))
	for _, s := range st.byName {
		out = append(out, s)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Addr != out[j].Addr {
			return out[i].Addr < out[j].Addr
		}
		return out[i].Name < out[j].Name
	})
	return out
}

func (st *SymbolTable) Len() int { return len(st.byName) }

func (st *SymbolTable) Clear() {
	clear(st.byName)
	clear(st.byAddr)
	st.sorted = nil
}
