package rvsim

import "testing"

func TestAddressParsing(t *testing.T) {
	tests := []struct {
		input string
		want  uint32
		ok    bool
	}{
		{"$1000", 0x1000, true},
		{"0x80000000", 0x80000000, true},
		{"1000", 0x1000, true},
		{"#4096", 4096, true},
		{"-#1", 0xFFFFFFFF, true},
		{"0XBEEF", 0xBEEF, true},
		{"FF", 0xFF, true},
		{"$100000000", 0, false},
		{"zz", 0, false},
		{"", 0, false},
	}
	for _, tt := range tests {
		got, ok := ParseAddress(tt.input)
		if ok != tt.ok || (ok && got != tt.want) {
			t.Errorf("ParseAddress(%q) = (%X, %v), want (%X, %v)", tt.input, got, ok, tt.want, tt.ok)
		}
	}
}

func TestConditionParsing(t *testing.T) {
	tests := []struct {
		text   string
		source ConditionSource
		op     ConditionOp
		value  uint32
		format string
	}{
		{"a0==$10", CondSourceRegister, CondOpEqual, 0x10, "a0==$10"},
		{"x20 != 0x80000000", CondSourceRegister, CondOpNotEqual, 0x80000000, "s4!=$80000000"},
		{"pc>=$80000100", CondSourcePC, CondOpGreaterEqual, 0x80000100, "pc>=$80000100"},
		{"[$80001000]<5", CondSourceMemory, CondOpLess, 5, "[$80001000]<$5"},
		{"hitcount>#2", CondSourceHitCount, CondOpGreater, 2, "hitcount>$2"},
	}
	for _, tt := range tests {
		c, err := ParseCondition(tt.text)
		if err != nil {
			t.Fatalf("ParseCondition(%q): %v", tt.text, err)
		}
		if c.Source != tt.source || c.Op != tt.op || c.Value != tt.value {
			t.Fatalf("ParseCondition(%q) = %+v", tt.text, c)
		}
		if got := FormatCondition(c); got != tt.format {
			t.Fatalf("FormatCondition = %q, want %q", got, tt.format)
		}
	}

	for _, bad := range []string{"", "a0", "q9==1", "a0==zz", "[zz]==1"} {
		if _, err := ParseCondition(bad); err == nil {
			t.Errorf("ParseCondition(%q) should fail", bad)
		}
	}
}

func TestBreakpointSet_AddressAndCondition(t *testing.T) {
	cpu := NewCPU(RAM_BASE)
	bus := NewMachineBus()
	bs := NewBreakpointSet()

	plain := bs.AddAddress(RAM_BASE + 8)
	cond, _ := ParseCondition("a0==$3")
	guarded := bs.Add(RAM_BASE+16, true, cond)

	if bp := bs.Check(cpu, bus); bp != nil {
		t.Fatalf("no breakpoint at start, got %d", bp.ID)
	}
	cpu.PC = RAM_BASE + 8
	if bp := bs.Check(cpu, bus); bp != plain || plain.HitCount != 1 {
		t.Fatalf("plain breakpoint not hit: %v", bp)
	}

	cpu.PC = RAM_BASE + 16
	if bs.Check(cpu, bus) != nil {
		t.Fatal("condition false, breakpoint fired")
	}
	cpu.SetX(REG_A0, 3)
	if bs.Check(cpu, bus) != guarded {
		t.Fatal("condition true, breakpoint did not fire")
	}

	guarded.Enabled = false
	if bs.Check(cpu, bus) != nil {
		t.Fatal("disabled breakpoint fired")
	}

	if !bs.Remove(plain.ID) || bs.Remove(plain.ID) {
		t.Fatal("Remove should succeed once")
	}
	if bs.Len() != 1 {
		t.Fatalf("Len = %d", bs.Len())
	}
}

func TestBreakpointSet_RegisterOnly(t *testing.T) {
	cpu := NewCPU(RAM_BASE)
	bus := NewMachineBus()
	bs := NewBreakpointSet()
	cond, _ := ParseCondition("t0>$10")
	bp := bs.AddCondition(cond)

	for pc := uint32(RAM_BASE); pc < RAM_BASE+64; pc += 4 {
		cpu.PC = pc
		if bs.Check(cpu, bus) != nil {
			t.Fatalf("fired at 0x%08X with t0=0", pc)
		}
	}
	cpu.SetX(5, 0x11)
	if bs.Check(cpu, bus) != bp {
		t.Fatal("register-only breakpoint should fire anywhere")
	}
}

func TestBreakpointSet_HitCountCondition(t *testing.T) {
	cpu := NewCPU(RAM_BASE)
	bus := NewMachineBus()
	bs := NewBreakpointSet()
	cond, _ := ParseCondition("hitcount>=3")
	bs.Add(RAM_BASE, true, cond)

	fired := 0
	for range 4 {
		if bs.Check(cpu, bus) != nil {
			fired++
		}
	}
	if fired != 2 {
		t.Fatalf("fired %d times, want 2 (third and fourth pass)", fired)
	}
}

func TestBreakpointSet_MemoryCondition(t *testing.T) {
	cpu := NewCPU(RAM_BASE)
	bus := NewMachineBus()
	bs := NewBreakpointSet()
	cond, _ := ParseCondition("[$80000100]==$2A")
	bs.Add(RAM_BASE, true, cond)

	if bs.Check(cpu, bus) != nil {
		t.Fatal("memory condition should start false")
	}
	bus.Write8(RAM_BASE+0x100, 0x2A)
	if bs.Check(cpu, bus) == nil {
		t.Fatal("memory condition should hold")
	}
}

func TestWatchpointSet(t *testing.T) {
	ws := NewWatchpointSet()
	r, created := ws.Add(0x80000000, WatchRead)
	if !created {
		t.Fatal("first Add should create")
	}
	again, created := ws.Add(0x80000000, WatchRead)
	if created || again != r {
		t.Fatal("duplicate Add should return the existing watchpoint")
	}
	w, _ := ws.Add(0x80000000, WatchWrite)
	if w.ID == r.ID {
		t.Fatal("read and write watchpoints on one address are distinct")
	}
	list := ws.List()
	if len(list) != 2 || list[0] != r || list[1] != w {
		t.Fatalf("List = %v", list)
	}
	if ws.Find(0x80000000, WatchWrite) != w {
		t.Fatal("Find write")
	}
	r.HitCount = 5
	ws.ResetHits()
	if r.HitCount != 0 {
		t.Fatal("ResetHits")
	}
	if !ws.Remove(r.ID) || ws.Len() != 1 {
		t.Fatal("Remove")
	}
	ws.Clear()
	if ws.Len() != 0 {
		t.Fatal("Clear")
	}

	for _, s := range []string{"r", "read", "w", "write"} {
		if _, err := ParseWatchKind(s); err != nil {
			t.Errorf("ParseWatchKind(%q): %v", s, err)
		}
	}
	if _, err := ParseWatchKind("rw"); err == nil {
		t.Error("ParseWatchKind(rw) should fail")
	}
}
