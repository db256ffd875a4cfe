package rvsim

import (
	"errors"
	"testing"
)

func TestBus_ByteRoundTrip(t *testing.T) {
	bus := NewMachineBus()
	addrs := []uint32{RAM_BASE, RAM_BASE + 1, RAM_BASE + 0x12345, RAM_END - 1}
	for i, a := range addrs {
		b := uint8(0xA0 + i)
		if err := bus.Write8(a, b); err != nil {
			t.Fatalf("Write8(0x%08X): %v", a, err)
		}
		got, err := bus.Read8(a)
		if err != nil || got != b {
			t.Fatalf("Read8(0x%08X) = 0x%02X, %v; want 0x%02X", a, got, err, b)
		}
	}
}

func TestBus_WordRoundTripUnaligned(t *testing.T) {
	bus := NewMachineBus()
	values := []uint32{0, 0xDEADBEEF, 0x01020304, 0xFFFFFFFF}
	for off := uint32(0); off < 8; off++ {
		for _, v := range values {
			a := RAM_BASE + RAM_PAGE_SIZE - 4 + off // crosses a page boundary
			if err := bus.Write32(a, v); err != nil {
				t.Fatal(err)
			}
			got, err := bus.Read32(a)
			if err != nil || got != v {
				t.Fatalf("Read32(0x%08X) = 0x%08X, %v; want 0x%08X", a, got, err, v)
			}
		}
	}
}

func TestBus_LittleEndian(t *testing.T) {
	bus := NewMachineBus()
	if err := bus.Write32(RAM_BASE, 0x11223344); err != nil {
		t.Fatal(err)
	}
	b0, _ := bus.Read8(RAM_BASE)
	b3, _ := bus.Read8(RAM_BASE + 3)
	h, _ := bus.Read16(RAM_BASE + 1)
	if b0 != 0x44 || b3 != 0x11 || h != 0x2233 {
		t.Fatalf("byte order: b0=%02X b3=%02X h=%04X", b0, b3, h)
	}
}

func TestBus_SparsePages(t *testing.T) {
	bus := NewMachineBus()
	if v, err := bus.Read32(RAM_BASE + 0x400000); err != nil || v != 0 {
		t.Fatalf("unwritten RAM = 0x%08X, %v", v, err)
	}
	if err := bus.Write8(RAM_BASE+0x10, 0); err != nil {
		t.Fatal(err)
	}
	if n := bus.ResidentPages(); n != 0 {
		t.Fatalf("zero write materialised %d pages", n)
	}
	bus.Write8(RAM_BASE+0x10, 1)
	bus.Write8(RAM_BASE+0x7FFFFF, 1)
	if n := bus.ResidentPages(); n != 2 {
		t.Fatalf("ResidentPages = %d, want 2", n)
	}
	bus.Reset()
	if n := bus.ResidentPages(); n != 0 {
		t.Fatalf("after Reset ResidentPages = %d", n)
	}
}

func TestBus_UnmappedFaults(t *testing.T) {
	bus := NewMachineBus()
	bus.SetPC(RAM_BASE + 8)

	tests := []struct {
		name string
		do   func() error
		kind AccessKind
		addr uint32
	}{
		{"load below ram", func() error { _, err := bus.Read32(0x20000000); return err }, AccessLoad, 0x20000000},
		{"store past ram", func() error { return bus.Write8(RAM_END, 1) }, AccessStore, RAM_END},
		{"fetch zero page", func() error { _, err := bus.Fetch32(0); return err }, AccessFetch, 0},
	}
	for _, tt := range tests {
		var f *MemoryAccessFault
		if err := tt.do(); !errors.As(err, &f) {
			t.Fatalf("%s: err = %v", tt.name, err)
		}
		if f.Kind != tt.kind || f.Addr != tt.addr || f.PC != RAM_BASE+8 {
			t.Fatalf("%s: fault = %+v", tt.name, f)
		}
	}
}

func TestBus_WordSpanningRAMEnd(t *testing.T) {
	bus := NewMachineBus()
	var f *MemoryAccessFault
	_, err := bus.Read32(RAM_END - 2)
	if !errors.As(err, &f) || f.Addr != RAM_END {
		t.Fatalf("err = %v, want fault at first byte past RAM", err)
	}
}

func TestBus_IORegionBypassesRAM(t *testing.T) {
	bus := NewMachineBus()
	var written []uint8
	reads := 0
	bus.MapIO(0x10000100, 0x10000103,
		func(addr uint32) uint8 { reads++; return uint8(addr) },
		func(addr uint32, v uint8) { written = append(written, v) },
		nil)

	if err := bus.Write16(0x10000100, 0xBBAA); err != nil {
		t.Fatal(err)
	}
	if len(written) != 2 || written[0] != 0xAA || written[1] != 0xBB {
		t.Fatalf("device saw %v", written)
	}
	v, err := bus.Read8(0x10000102)
	if err != nil || v != 0x02 || reads != 1 {
		t.Fatalf("Read8 = %02X, %v, reads=%d", v, err, reads)
	}
	if _, err := bus.Fetch32(0x10000100); err == nil {
		t.Fatal("fetch from a device window should fault")
	}

	// Peek never calls the read handler.
	if b, ok := bus.Peek(0x10000100); !ok || b != 0 || reads != 1 {
		t.Fatalf("Peek = %02X, %v, reads=%d", b, ok, reads)
	}
	if _, ok := bus.Peek(0x30000000); ok {
		t.Fatal("Peek of unmapped address should fail")
	}
}

func TestBus_ReadWatchAbortsLoad(t *testing.T) {
	bus := NewMachineBus()
	bus.Write32(RAM_BASE+0x100, 0xCAFEBABE)
	wp, created := bus.Watchpoints().Add(RAM_BASE+0x102, WatchRead)
	if !created {
		t.Fatal("watchpoint not created")
	}

	_, err := bus.Read32(RAM_BASE + 0x100)
	var hit *WatchpointHit
	if !errors.As(err, &hit) {
		t.Fatalf("err = %v, want WatchpointHit", err)
	}
	if hit.ID != wp.ID || hit.Addr != RAM_BASE+0x102 || hit.Kind != WatchRead {
		t.Fatalf("hit = %+v", hit)
	}
	if wp.HitCount != 1 {
		t.Fatalf("HitCount = %d", wp.HitCount)
	}

	// Shim copies ignore read watches.
	if _, err := bus.LoadBytes(RAM_BASE+0x100, 4); err != nil {
		t.Fatalf("LoadBytes: %v", err)
	}
	if _, err := bus.Read8(RAM_BASE + 0x101); err != nil {
		t.Fatalf("unwatched byte: %v", err)
	}
}

func TestBus_WriteWatchIsDeferred(t *testing.T) {
	bus := NewMachineBus()
	bus.Watchpoints().Add(RAM_BASE+0x200, WatchWrite)

	if err := bus.Write32(RAM_BASE+0x1FE, 0x11223344); err != nil {
		t.Fatalf("store should complete: %v", err)
	}
	got, _ := bus.Read32(RAM_BASE + 0x1FE)
	requireU32(t, "stored", got, 0x11223344)

	hits := bus.DrainWriteHits()
	if len(hits) != 1 || hits[0].Addr != RAM_BASE+0x200 || hits[0].Kind != WatchWrite {
		t.Fatalf("hits = %v", hits)
	}
	if len(bus.DrainWriteHits()) != 0 {
		t.Fatal("DrainWriteHits should clear the queue")
	}

	if err := bus.StoreBytes(RAM_BASE+0x200, []byte{1, 2}); err != nil {
		t.Fatal(err)
	}
	if len(bus.DrainWriteHits()) != 1 {
		t.Fatal("StoreBytes should queue a write hit")
	}
}

func TestBus_LoadCString(t *testing.T) {
	bus := NewMachineBus()
	bus.StoreBytes(RAM_BASE, []byte("hello\x00world"))
	s, err := bus.LoadCString(RAM_BASE, 64)
	if err != nil || s != "hello" {
		t.Fatalf("LoadCString = %q, %v", s, err)
	}
	s, _ = bus.LoadCString(RAM_BASE, 3)
	if s != "hel" {
		t.Fatalf("bounded LoadCString = %q", s)
	}
	if _, err := bus.LoadCString(0x100, 4); err == nil {
		t.Fatal("LoadCString from unmapped memory should fail")
	}
}

func BenchmarkBus_Read32RAM(b *testing.B) {
	bus := NewMachineBus()
	bus.Write32(RAM_BASE+0x1000, 0x12345678)
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_, _ = bus.Read32(RAM_BASE + 0x1000)
	}
}
