// debug_watchpoints.go - Read and write watchpoints

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

// WatchKind selects which data accesses a watchpoint observes.
type WatchKind int

const (
	WatchRead WatchKind = iota
	WatchWrite
)

func (k WatchKind) String() string {
	switch k {
	case WatchRead:
		return "read"
	case WatchWrite:
		return "write"
	}
	return fmt.Sprintf("watch(%d)", int(k))
}

// ParseWatchKind accepts "r", "read", "w" or "write".
func ParseWatchKind(s string) (WatchKind, error) {
	switch s {
	case "r", "read":
		return WatchRead, nil
	case "w", "write":
		return WatchWrite, nil
	}
	return 0, fmt.Errorf("unknown watch kind %q", s)
}

type Watchpoint struct {
	ID       int
	Addr     uint32
	Kind     WatchKind
	Enabled  bool
	HitCount uint64
}

// WatchpointSet holds at most one watchpoint per (address, kind).
type WatchpointSet struct {
	nextID int
	read   map[uint32]*Watchpoint
	write  map[uint32]*Watchpoint
}

func NewWatchpointSet() *WatchpointSet {
	return &WatchpointSet{
		nextID: 1,
		read:   make(map[uint32]*Watchpoint),
		write:  make(map[uint32]*Watchpoint),
	}
}

func (ws *WatchpointSet) table(kind WatchKind) map[uint32]*Watchpoint {
	if kind == WatchWrite {
		return ws.write
	}
	return ws.read
}

// Add installs a watchpoint. If one already exists for the address and kind
// it is returned with created=false.
func (ws *WatchpointSet) Add(addr uint32, kind WatchKind) (wp *Watchpoint, created bool) {
	t := ws.table(kind)
	if existing, ok := t[addr]; ok {
		return existing, false
	}
	wp = &Watchpoint{ID: ws.nextID, Addr: addr, Kind: kind, Enabled: true}
	ws.nextID++
	t[addr] = wp
	return wp, true
}

func (ws *WatchpointSet) Find(addr uint32, kind WatchKind) *Watchpoint {
	return ws.table(kind)[addr]
}

func (ws *WatchpointSet) Get(id int) *Watchpoint {
	for _, t := range []map[uint32]*Watchpoint{ws.read, ws.write} {
		for _, wp := range t {
			if wp.ID == id {
				return wp
			}
		}
	}
	return nil
}

func (ws *WatchpointSet) Remove(id int) bool {
	wp := ws.Get(id)
	if wp == nil {
		return false
	}
	delete(ws.table(wp.Kind), wp.Addr)
	return true
}

// List returns every watchpoint ordered by ID.
func (ws *WatchpointSet) List() []*Watchpoint {
	out := make([]*Watchpoint, 0, len(ws.read)+len(ws.write))
	for _, wp := range ws.read {
		out = append(out, wp)
	}
	for _, wp := range ws.write {
		out = append(out, wp)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

func (ws *WatchpointSet) Len() int {
	return len(ws.read) + len(ws.write)
}

func (ws *WatchpointSet) Clear() {
	clear(ws.read)
	clear(ws.write)
}

func (ws *WatchpointSet) ResetHits() {
	for _, wp := range ws.List() {
		wp.HitCount = 0
	}
}
