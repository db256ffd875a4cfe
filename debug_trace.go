// debug_trace.go - Instruction trace ring buffer

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
debug_trace.go - Instruction trace ring buffer

Every executed instruction is recorded with the register file as it stood
before execution. Entries carry a monotonic index that survives ring
overflow: when the ring wraps, the oldest entries are discarded but the
survivors keep their original numbers, so an index printed by the monitor
stays valid until the entry ages out.

Reverse search walks from a chosen index toward older entries. A PC query
matches the entry executed at that address. A register query matches the
entry whose execution made the predicate true: the register failed it before
the instruction and satisfies it afterwards, where "afterwards" is the next
entry's snapshot or, for the newest entry, the live register file.
*/

package rvsim

// TraceEntry is one pre-execution snapshot.
type TraceEntry struct {
	Index uint64
	Step  uint64
	PC    uint32
	Regs  [NUM_REGISTERS]uint32
	Raw   uint32
}

type TraceBuffer struct {
	ring      []TraceEntry
	head      int // next slot to write
	count     int
	nextIndex uint64
	enabled   bool
}

const DEFAULT_TRACE_CAPACITY = 4096

// NewTraceBuffer returns an enabled ring. Capacity 0 disables tracing.
func NewTraceBuffer(capacity int) *TraceBuffer {
	if capacity < 0 {
		capacity = 0
	}
	return &TraceBuffer{
		ring:    make([]TraceEntry, capacity),
		enabled: capacity > 0,
	}
}

func (t *TraceBuffer) Enabled() bool { return t.enabled }

// SetEnabled toggles recording. Retained entries and numbering survive.
func (t *TraceBuffer) SetEnabled(on bool) {
	t.enabled = on && len(t.ring) > 0
}

func (t *TraceBuffer) Capacity() int { return len(t.ring) }
func (t *TraceBuffer) Len() int      { return t.count }

// Append records a snapshot and returns its index.
func (t *TraceBuffer) Append(step uint64, pc uint32, regs *[NUM_REGISTERS]uint32, raw uint32) uint64 {
	if !t.enabled {
		return 0
	}
	idx := t.nextIndex
	t.ring[t.head] = TraceEntry{Index: idx, Step: step, PC: pc, Regs: *regs, Raw: raw}
	t.head = (t.head + 1) % len(t.ring)
	if t.count < len(t.ring) {
		t.count++
	}
	t.nextIndex++
	return idx
}

// DropLast withdraws the newest entry, used when an instruction is
// abandoned before retiring and will be re-executed.
func (t *TraceBuffer) DropLast() {
	if t.count == 0 {
		return
	}
	t.head = (t.head - 1 + len(t.ring)) % len(t.ring)
	t.count--
	t.nextIndex--
}

// at returns the i-th retained entry, oldest first.
func (t *TraceBuffer) at(i int) *TraceEntry {
	start := (t.head - t.count + len(t.ring)) % len(t.ring)
	return &t.ring[(start+i)%len(t.ring)]
}

// Entries returns the retained entries, oldest first.
func (t *TraceBuffer) Entries() []TraceEntry {
	out := make([]TraceEntry, t.count)
	for i := range out {
		out[i] = *t.at(i)
	}
	return out
}

// Last returns up to n of the newest entries, oldest first.
func (t *TraceBuffer) Last(n int) []TraceEntry {
	n = min(max(n, 0), t.count)
	out := make([]TraceEntry, n)
	for i := range out {
		out[i] = *t.at(t.count - n + i)
	}
	return out
}

// Get returns the entry with the given monotonic index if still retained.
func (t *TraceBuffer) Get(index uint64) (TraceEntry, bool) {
	pos, ok := t.position(index)
	if !ok {
		return TraceEntry{}, false
	}
	return *t.at(pos), true
}

func (t *TraceBuffer) position(index uint64) (int, bool) {
	if t.count == 0 {
		return 0, false
	}
	oldest := t.nextIndex - uint64(t.count)
	if index < oldest || index >= t.nextIndex {
		return 0, false
	}
	return int(index - oldest), true
}

// Clear drops every entry and restarts numbering at zero.
func (t *TraceBuffer) Clear() {
	t.head, t.count = 0, 0
	t.nextIndex = 0
	t.enabled = len(t.ring) > 0
}

// TraceQuery is a reverse-search predicate: register (or PC) op value.
type TraceQuery struct {
	PC       bool
	Reg      uint8
	Value    uint32
	NotEqual bool
}

func (q TraceQuery) holds(v uint32) bool {
	return (v == q.Value) != q.NotEqual
}

// SearchBackwards walks from the entry numbered start (or the newest when
// start is nil) toward older entries and returns the first match. A
// register query matches the entry after which the predicate became true;
// when it already held before the oldest retained entry, that entry is
// returned. live is the current register file, used as the post-state of
// the newest entry.
func (t *TraceBuffer) SearchBackwards(q TraceQuery, start *uint64, live *[NUM_REGISTERS]uint32) (TraceEntry, bool) {
	if t.count == 0 {
		return TraceEntry{}, false
	}
	from := t.count - 1
	if start != nil {
		pos, ok := t.position(*start)
		if !ok {
			if *start < t.nextIndex {
				return TraceEntry{}, false
			}
		} else {
			from = pos
		}
	}

	for i := from; i >= 0; i-- {
		e := t.at(i)
		if q.PC {
			if q.holds(e.PC) {
				return *e, true
			}
			continue
		}
		var post uint32
		if i == t.count-1 {
			post = live[q.Reg]
		} else {
			post = t.at(i + 1).Regs[q.Reg]
		}
		if q.Reg == REG_ZERO {
			post = 0
		}
		if q.holds(post) && !q.holds(e.Regs[q.Reg]) {
			return *e, true
		}
	}
	// The value may have been set before the oldest retained entry.
	if !q.PC {
		oldest := t.at(0)
		pre := oldest.Regs[q.Reg]
		if q.Reg == REG_ZERO {
			pre = 0
		}
		if q.holds(pre) {
			return *oldest, true
		}
	}
	return TraceEntry{}, false
}
