package rvsim

import "testing"

func TestSymbolTable_Lookup(t *testing.T) {
	st := NewSymbolTable()
	st.Add(Symbol{Name: "data", Addr: RAM_BASE + 0x100, Size: 16, Kind: SymObject})
	st.Add(Symbol{Name: "main", Addr: RAM_BASE + 0x100, Size: 32, Kind: SymFunc})
	st.Add(Symbol{Name: "alias", Addr: RAM_BASE + 0x100, Kind: SymFunc})
	st.Add(Symbol{Name: "_start", Addr: RAM_BASE, Kind: SymFunc})

	if sym, ok := st.At(RAM_BASE + 0x100); !ok || sym.Name != "main" {
		t.Fatalf("At prefers the first function symbol, got %q", sym.Name)
	}
	if sym, ok := st.Lookup("data"); !ok || sym.Addr != RAM_BASE+0x100 {
		t.Fatal("Lookup by name")
	}
	if got := st.Format(RAM_BASE + 0x108); got != "main+0x8" {
		t.Fatalf("Format = %q", got)
	}
	if got := st.Format(RAM_BASE + 0x120); got != "" {
		t.Fatalf("address past a sized symbol formatted as %q", got)
	}
	if got := st.Format(RAM_BASE + 0x40); got != "_start+0x40" {
		t.Fatalf("unsized symbol covers up to the next one, got %q", got)
	}
	if got := st.Format(0x100); got != "" {
		t.Fatalf("address below every symbol formatted as %q", got)
	}

	all := st.All()
	if len(all) != 4 || all[0].Name != "_start" {
		t.Fatalf("All = %v", all)
	}
	st.Clear()
	if st.Len() != 0 {
		t.Fatal("Clear")
	}
}

func TestDisassembleWord(t *testing.T) {
	pc := uint32(RAM_BASE + 0x10)
	tests := []struct {
		word uint32
		want string
	}{
		{rvNOP, "nop"},
		{rvADDI(10, 0, 5), "li a0, 5"},
		{rvADDI(10, 11, -1), "addi a0, a1, -1"},
		{rvSLTIU(5, 6, 1), "sltiu t0, t1, 1"},
		{rvSRAI(5, 6, 3), "srai t0, t1, 3"},
		{rvADD(1, 2, 3), "add ra, sp, gp"},
		{rvMUL(10, 11, 12), "mul a0, a1, a2"},
		{rvLUI(10, 0x10000000), "lui a0, 0x10000"},
		{rvLW(5, 2, 8), "lw t0, 8(sp)"},
		{rvSB(11, 10, 0), "sb a1, 0(a0)"},
		{rvBEQ(1, 0, -16), "beq ra, zero, 0x80000000"},
		{rvJAL(0, 8), "j 0x80000018"},
		{rvJAL(1, 0x100), "jal 0x80000110"},
		{rvJALR(0, 1, 0), "ret"},
		{rvECALL, "ecall"},
		{rvEBREAK, "ebreak"},
		{rvCSRRS(5, CSR_MSTATUS, 0), "csrrs t0, mstatus, zero"},
		{0xFFFFFFFF, ".word 0xffffffff"},
	}
	for _, tt := range tests {
		if got := DisassembleWord(tt.word, pc); got != tt.want {
			t.Errorf("DisassembleWord(0x%08X) = %q, want %q", tt.word, got, tt.want)
		}
	}
}

func TestDisassemble_ListingStopsAtUnmapped(t *testing.T) {
	st := NewSymbolTable()
	st.Add(Symbol{Name: "loop", Addr: RAM_BASE + 4, Kind: SymFunc})
	mem := program(rvNOP, rvJAL(0, -4))
	read := func(addr uint32, size int) []byte {
		off := int(addr - RAM_BASE)
		if addr < RAM_BASE || off+size > len(mem) {
			return nil
		}
		return mem[off : off+size]
	}
	lines := disassembleRV32(read, RAM_BASE, 10, st)
	if len(lines) != 2 {
		t.Fatalf("got %d lines, want 2", len(lines))
	}
	if lines[1].Label != "loop" || lines[1].Mnemonic != "j 0x80000000" || lines[1].HexBytes != "ffdff06f" {
		t.Fatalf("line 1 = %+v", lines[1])
	}
}
