// machine_bus.go - Sparse RAM and MMIO dispatch for the RV32 guest

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
machine_bus.go - Guest address space for the RV32 simulator

The MachineBus is the single path between the executor and guest memory. It
owns the sparse RAM window, dispatches the MMIO regions registered with MapIO
and enforces the memory map: every byte outside RAM and the mapped regions
faults with a MemoryAccessFault carrying the access kind, the address and the
PC the session published before the instruction started.

Wide accesses are byte-serialised in little-endian order, so misaligned
halfwords and words are legal and each constituent byte is checked, dispatched
and watched on its own. Watchpoints are consulted here: read hits abort the
access before any byte is touched, write hits are queued and drained by the
session after the instruction retires.

RAM is held in 4 KiB pages materialised on first write. Reads of untouched
pages return zero without allocating.
*/

package rvsim

// IORegion is a memory-mapped device window. Handlers receive the absolute
// byte address. onPeek serves debugger reads and must not have side effects;
// a nil onPeek reads as zero.
type IORegion struct {
	start   uint32
	end     uint32 // inclusive
	onRead  func(addr uint32) uint8
	onWrite func(addr uint32, value uint8)
	onPeek  func(addr uint32) uint8
}

type MachineBus struct {
	pages   map[uint32]*[RAM_PAGE_SIZE]byte
	regions []IORegion

	// pc is published by the session before every instruction so faults
	// can name the instruction that caused them.
	pc uint32

	watch     *WatchpointSet
	writeHits []*WatchpointHit

	// skipReadWatch suppresses read watchpoints for the instruction being
	// resumed after a read watchpoint stop.
	skipReadWatch bool

	loadSeq uint64 // bumped once per data load
}

func NewMachineBus() *MachineBus {
	return &MachineBus{
		pages: make(map[uint32]*[RAM_PAGE_SIZE]byte),
		watch: NewWatchpointSet(),
	}
}

// MapIO registers a device window covering [start, end].
func (bus *MachineBus) MapIO(start, end uint32, onRead func(addr uint32) uint8, onWrite func(addr uint32, value uint8), onPeek func(addr uint32) uint8) {
	bus.regions = append(bus.regions, IORegion{
		start:   start,
		end:     end,
		onRead:  onRead,
		onWrite: onWrite,
		onPeek:  onPeek,
	})
}

// Reset drops all RAM contents and pending watchpoint notifications.
// Device mappings and watchpoints survive.
func (bus *MachineBus) Reset() {
	bus.pages = make(map[uint32]*[RAM_PAGE_SIZE]byte)
	bus.writeHits = nil
	bus.skipReadWatch = false
	bus.pc = 0
}

// Watchpoints returns the watchpoint set consulted on every data access.
func (bus *MachineBus) Watchpoints() *WatchpointSet { return bus.watch }

func (bus *MachineBus) SetPC(pc uint32) { bus.pc = pc }
func (bus *MachineBus) PC() uint32      { return bus.pc }

// LoadSeq numbers data loads. Bytes read by one LB/LH/LW share a number, so
// devices can tell a multi-byte load from separate ones.
func (bus *MachineBus) LoadSeq() uint64 { return bus.loadSeq }

func (bus *MachineBus) region(addr uint32) *IORegion {
	for i := range bus.regions {
		r := &bus.regions[i]
		if addr >= r.start && addr <= r.end {
			return r
		}
	}
	return nil
}

func (bus *MachineBus) fault(kind AccessKind, addr uint32) error {
	return &MemoryAccessFault{Kind: kind, Addr: addr, PC: bus.pc}
}

func (bus *MachineBus) ramRead(addr uint32) uint8 {
	page := bus.pages[addr>>RAM_PAGE_SHIFT]
	if page == nil {
		return 0
	}
	return page[addr&RAM_PAGE_MASK]
}

func (bus *MachineBus) ramWrite(addr uint32, value uint8) {
	key := addr >> RAM_PAGE_SHIFT
	page := bus.pages[key]
	if page == nil {
		if value == 0 {
			return
		}
		page = new([RAM_PAGE_SIZE]byte)
		bus.pages[key] = page
	}
	page[addr&RAM_PAGE_MASK] = value
}

func (bus *MachineBus) readByte(addr uint32, kind AccessKind) (uint8, error) {
	if inRAM(addr) {
		return bus.ramRead(addr), nil
	}
	if kind != AccessFetch {
		if r := bus.region(addr); r != nil {
			if r.onRead == nil {
				return 0, nil
			}
			return r.onRead(addr), nil
		}
	}
	return 0, bus.fault(kind, addr)
}

func (bus *MachineBus) writeByte(addr uint32, value uint8) error {
	if inRAM(addr) {
		bus.ramWrite(addr, value)
		return nil
	}
	if r := bus.region(addr); r != nil {
		if r.onWrite != nil {
			r.onWrite(addr, value)
		}
		return nil
	}
	return bus.fault(AccessStore, addr)
}

// checkReadWatch raises the first read watchpoint covered by [addr, addr+n).
func (bus *MachineBus) checkReadWatch(addr uint32, n int) error {
	if len(bus.watch.read) == 0 || bus.skipReadWatch {
		return nil
	}
	for i := range n {
		a := addr + uint32(i)
		if wp, ok := bus.watch.read[a]; ok && wp.Enabled {
			wp.HitCount++
			return &WatchpointHit{ID: wp.ID, Kind: WatchRead, Addr: a, PC: bus.pc}
		}
	}
	return nil
}

// noteWriteWatch queues at most one hit per store.
func (bus *MachineBus) noteWriteWatch(addr uint32, n int) {
	if len(bus.watch.write) == 0 {
		return
	}
	for i := range n {
		a := addr + uint32(i)
		if wp, ok := bus.watch.write[a]; ok && wp.Enabled {
			wp.HitCount++
			bus.writeHits = append(bus.writeHits, &WatchpointHit{ID: wp.ID, Kind: WatchWrite, Addr: a, PC: bus.pc})
			return
		}
	}
}

// DrainWriteHits returns and clears the queued write watchpoint hits.
func (bus *MachineBus) DrainWriteHits() []*WatchpointHit {
	hits := bus.writeHits
	bus.writeHits = nil
	return hits
}

func (bus *MachineBus) load(addr uint32, n int) (uint32, error) {
	if err := bus.checkReadWatch(addr, n); err != nil {
		return 0, err
	}
	bus.loadSeq++
	var v uint32
	for i := range n {
		b, err := bus.readByte(addr+uint32(i), AccessLoad)
		if err != nil {
			return 0, err
		}
		v |= uint32(b) << (8 * i)
	}
	return v, nil
}

func (bus *MachineBus) store(addr uint32, n int, v uint32) error {
	for i := range n {
		if err := bus.writeByte(addr+uint32(i), uint8(v>>(8*i))); err != nil {
			return err
		}
	}
	bus.noteWriteWatch(addr, n)
	return nil
}

func (bus *MachineBus) Read8(addr uint32) (uint8, error) {
	v, err := bus.load(addr, 1)
	return uint8(v), err
}

func (bus *MachineBus) Read16(addr uint32) (uint16, error) {
	v, err := bus.load(addr, 2)
	return uint16(v), err
}

func (bus *MachineBus) Read32(addr uint32) (uint32, error) {
	return bus.load(addr, 4)
}

func (bus *MachineBus) Write8(addr uint32, value uint8) error {
	return bus.store(addr, 1, uint32(value))
}

func (bus *MachineBus) Write16(addr uint32, value uint16) error {
	return bus.store(addr, 2, uint32(value))
}

func (bus *MachineBus) Write32(addr uint32, value uint32) error {
	return bus.store(addr, 4, value)
}

// Fetch32 reads an instruction word. Only RAM is executable.
func (bus *MachineBus) Fetch32(addr uint32) (uint32, error) {
	var v uint32
	for i := range 4 {
		b, err := bus.readByte(addr+uint32(i), AccessFetch)
		if err != nil {
			return 0, err
		}
		v |= uint32(b) << (8 * i)
	}
	return v, nil
}

// LoadBytes copies guest memory for the syscall shim. Read watchpoints are
// not consulted: a syscall cannot be stopped half way.
func (bus *MachineBus) LoadBytes(addr uint32, n int) ([]byte, error) {
	out := make([]byte, n)
	for i := range out {
		b, err := bus.readByte(addr+uint32(i), AccessLoad)
		if err != nil {
			return nil, err
		}
		out[i] = b
	}
	return out, nil
}

// LoadCString reads a NUL-terminated guest string of at most max bytes.
func (bus *MachineBus) LoadCString(addr uint32, max int) (string, error) {
	var buf []byte
	for i := range max {
		b, err := bus.readByte(addr+uint32(i), AccessLoad)
		if err != nil {
			return "", err
		}
		if b == 0 {
			return string(buf), nil
		}
		buf = append(buf, b)
	}
	return string(buf), nil
}

// StoreBytes writes guest memory on behalf of the syscall shim. Write
// watchpoints are queued as for a guest store.
func (bus *MachineBus) StoreBytes(addr uint32, data []byte) error {
	for i, b := range data {
		if err := bus.writeByte(addr+uint32(i), b); err != nil {
			return err
		}
	}
	bus.noteWriteWatch(addr, len(data))
	return nil
}

// Peek reads one byte for the debugger without side effects or watchpoints.
func (bus *MachineBus) Peek(addr uint32) (uint8, bool) {
	if inRAM(addr) {
		return bus.ramRead(addr), true
	}
	if r := bus.region(addr); r != nil {
		if r.onPeek == nil {
			return 0, true
		}
		return r.onPeek(addr), true
	}
	return 0, false
}

// Poke writes one byte for the debugger, bypassing watchpoints. Writes to
// device windows reach the device.
func (bus *MachineBus) Poke(addr uint32, value uint8) bool {
	if inRAM(addr) {
		bus.ramWrite(addr, value)
		return true
	}
	if r := bus.region(addr); r != nil {
		if r.onWrite != nil {
			r.onWrite(addr, value)
		}
		return true
	}
	return false
}

// ResidentPages reports how many RAM pages have been materialised.
func (bus *MachineBus) ResidentPages() int {
	return len(bus.pages)
}
