package rvsim

import (
	"bytes"
	"debug/elf"
	"encoding/binary"
	"errors"
	"os"
	"path/filepath"
	"testing"
)

type testSegment struct {
	vaddr uint32
	data  []byte
	memsz uint32
}

type testSymbol struct {
	name  string
	value uint32
	size  uint32
	typ   elf.SymType
	shndx elf.SectionIndex
}

// buildELF assembles a minimal ELF32 executable with one PT_LOAD per
// segment and, when syms is non-empty, a symbol table.
func buildELF(t *testing.T, machine elf.Machine, entry uint32, segs []testSegment, syms []testSymbol) []byte {
	t.Helper()
	const (
		ehsize = 52
		phsize = 32
		shsize = 40
		symsz  = 16
	)

	var body bytes.Buffer
	dataOff := uint32(ehsize + phsize*len(segs))
	progs := make([]elf.Prog32, len(segs))
	for i, s := range segs {
		progs[i] = elf.Prog32{
			Type:   uint32(elf.PT_LOAD),
			Off:    dataOff + uint32(body.Len()),
			Vaddr:  s.vaddr,
			Paddr:  s.vaddr,
			Filesz: uint32(len(s.data)),
			Memsz:  s.memsz,
			Flags:  uint32(elf.PF_R | elf.PF_W | elf.PF_X),
			Align:  4,
		}
		body.Write(s.data)
	}

	var sections []elf.Section32
	shstrtab := []byte{0}
	addName := func(tab *[]byte, name string) uint32 {
		off := uint32(len(*tab))
		*tab = append(append(*tab, name...), 0)
		return off
	}
	shstrndx := 0
	if len(syms) > 0 {
		textOff := dataOff
		var textSize uint32
		if len(segs) > 0 {
			textSize = uint32(len(segs[0].data))
		}
		var symtab bytes.Buffer
		binary.Write(&symtab, binary.LittleEndian, elf.Sym32{})
		strtab := []byte{0}
		for _, s := range syms {
			binary.Write(&symtab, binary.LittleEndian, elf.Sym32{
				Name:  addName(&strtab, s.name),
				Value: s.value,
				Size:  s.size,
				Info:  elf.ST_INFO(elf.STB_GLOBAL, s.typ),
				Shndx: uint16(s.shndx),
			})
		}
		for body.Len()%4 != 0 {
			body.WriteByte(0)
		}
		symOff := dataOff + uint32(body.Len())
		body.Write(symtab.Bytes())
		strOff := dataOff + uint32(body.Len())
		body.Write(strtab)

		sections = []elf.Section32{
			{},
			{Name: addName(&shstrtab, ".text"), Type: uint32(elf.SHT_PROGBITS), Flags: uint32(elf.SHF_ALLOC | elf.SHF_EXECINSTR),
				Off: textOff, Size: textSize, Addralign: 4},
			{Name: addName(&shstrtab, ".symtab"), Type: uint32(elf.SHT_SYMTAB), Off: symOff, Size: uint32(symtab.Len()),
				Link: 3, Info: 1, Addralign: 4, Entsize: symsz},
			{Name: addName(&shstrtab, ".strtab"), Type: uint32(elf.SHT_STRTAB), Off: strOff, Size: uint32(len(strtab)), Addralign: 1},
		}
		shstrndx = len(sections)
		nameOff := addName(&shstrtab, ".shstrtab")
		shstrOff := dataOff + uint32(body.Len())
		body.Write(shstrtab)
		sections = append(sections, elf.Section32{Name: nameOff, Type: uint32(elf.SHT_STRTAB), Off: shstrOff, Size: uint32(len(shstrtab)), Addralign: 1})
	}
	for body.Len()%4 != 0 {
		body.WriteByte(0)
	}

	var ident [elf.EI_NIDENT]byte
	copy(ident[:], elf.ELFMAG)
	ident[elf.EI_CLASS] = byte(elf.ELFCLASS32)
	ident[elf.EI_DATA] = byte(elf.ELFDATA2LSB)
	ident[elf.EI_VERSION] = byte(elf.EV_CURRENT)

	hdr := elf.Header32{
		Ident:     ident,
		Type:      uint16(elf.ET_EXEC),
		Machine:   uint16(machine),
		Version:   uint32(elf.EV_CURRENT),
		Entry:     entry,
		Phoff:     ehsize,
		Ehsize:    ehsize,
		Phentsize: phsize,
		Phnum:     uint16(len(segs)),
	}
	if len(sections) > 0 {
		hdr.Shoff = dataOff + uint32(body.Len())
		hdr.Shentsize = shsize
		hdr.Shnum = uint16(len(sections))
		hdr.Shstrndx = uint16(shstrndx)
	}

	var out bytes.Buffer
	binary.Write(&out, binary.LittleEndian, hdr)
	for _, p := range progs {
		binary.Write(&out, binary.LittleEndian, p)
	}
	out.Write(body.Bytes())
	for _, s := range sections {
		binary.Write(&out, binary.LittleEndian, s)
	}
	return out.Bytes()
}

func helloELF(t *testing.T) []byte {
	code := program(
		rvLUI(10, DEBUG_UART_TX),
		rvADDI(11, 0, 'o'),
		rvSB(11, 10, 0),
		rvLUI(12, RAM_BASE+0x1000),
		rvLW(13, 12, 0), // reads bss, must be zero
		rvADD(10, 13, 0),
		rvADDI(REG_A7, 0, SYS_EXIT),
		rvECALL,
	)
	return buildELF(t, elf.EM_RISCV, RAM_BASE,
		[]testSegment{
			{vaddr: RAM_BASE, data: code, memsz: uint32(len(code))},
			{vaddr: RAM_BASE + 0x1000, data: []byte{}, memsz: 0x100},
		},
		[]testSymbol{
			{name: "_start", value: RAM_BASE, size: uint32(len(code)), typ: elf.STT_FUNC, shndx: 1},
			{name: "buffer", value: RAM_BASE + 0x1000, size: 0x100, typ: elf.STT_OBJECT, shndx: 1},
			{name: "$x", value: RAM_BASE, typ: elf.STT_NOTYPE, shndx: 1},
			{name: "printf", typ: elf.STT_FUNC, shndx: elf.SHN_UNDEF},
			{name: "crt.c", typ: elf.STT_FILE, shndx: elf.SHN_ABS},
		})
}

func TestParseELF_SegmentsAndSymbols(t *testing.T) {
	img, err := ParseELF(helloELF(t))
	if err != nil {
		t.Fatalf("ParseELF: %v", err)
	}
	if img.Entry != RAM_BASE {
		t.Fatalf("entry = 0x%08X", img.Entry)
	}
	if len(img.Segments) != 2 || img.Segments[1].Memsz != 0x100 || len(img.Segments[1].Data) != 0 {
		t.Fatalf("segments = %+v", img.Segments)
	}
	names := map[string]Symbol{}
	for _, s := range img.Symbols {
		names[s.Name] = s
	}
	if len(names) != 2 {
		t.Fatalf("symbols = %v, want _start and buffer only", img.Symbols)
	}
	if names["_start"].Kind != SymFunc || names["buffer"].Kind != SymObject {
		t.Fatalf("symbol kinds = %+v", names)
	}
}

func TestParseELF_Rejects(t *testing.T) {
	if _, err := ParseELF([]byte("not an elf at all")); !errors.Is(err, ErrNotELF) {
		t.Fatalf("garbage err = %v", err)
	}
	arm := buildELF(t, elf.EM_ARM, RAM_BASE, []testSegment{{vaddr: RAM_BASE, data: program(rvNOP), memsz: 4}}, nil)
	if _, err := ParseELF(arm); !errors.Is(err, ErrNotELF) {
		t.Fatalf("wrong machine err = %v", err)
	}
	bad := buildELF(t, elf.EM_RISCV, RAM_BASE, []testSegment{{vaddr: RAM_BASE, data: program(rvNOP, rvNOP), memsz: 4}}, nil)
	if _, err := ParseELF(bad); err == nil {
		t.Fatal("filesz > memsz should be rejected")
	}
}

func TestParseELF_SegmentOutsideRAM(t *testing.T) {
	huge := buildELF(t, elf.EM_RISCV, RAM_BASE, []testSegment{{vaddr: RAM_BASE, data: program(rvNOP), memsz: RAM_SIZE + 4}}, nil)
	if _, err := ParseELF(huge); !errors.Is(err, ErrOutsideRAM) {
		t.Fatalf("oversized memsz err = %v", err)
	}
	low := buildELF(t, elf.EM_RISCV, 0x1000, []testSegment{{vaddr: 0x1000, data: program(rvNOP), memsz: 4}}, nil)
	if _, err := ParseELF(low); !errors.Is(err, ErrOutsideRAM) {
		t.Fatalf("segment below RAM err = %v", err)
	}

	// A header claiming gigabytes of file data fails without reading it.
	forged := buildELF(t, elf.EM_RISCV, RAM_BASE, []testSegment{{vaddr: RAM_BASE, data: program(rvNOP), memsz: 4}}, nil)
	const ph = 52
	binary.LittleEndian.PutUint32(forged[ph+16:], 0xF0000000) // p_filesz
	binary.LittleEndian.PutUint32(forged[ph+20:], 0xF0000000) // p_memsz
	if _, err := ParseELF(forged); err == nil {
		t.Fatal("forged segment sizes accepted")
	}
}

func TestParseELF_NoSymbols(t *testing.T) {
	img, err := ParseELF(buildELF(t, elf.EM_RISCV, RAM_BASE+8, []testSegment{{vaddr: RAM_BASE, data: program(rvNOP), memsz: 4}}, nil))
	if err != nil {
		t.Fatalf("ParseELF: %v", err)
	}
	if len(img.Symbols) != 0 || img.Entry != RAM_BASE+8 {
		t.Fatalf("img = %+v", img)
	}
}

func TestSession_LoadELFRunsToExit(t *testing.T) {
	s := newTestSession(t)
	s.Poke(RAM_BASE+0x1000, []byte{0xAA, 0xBB, 0xCC, 0xDD}) // stale data in bss

	path := filepath.Join(t.TempDir(), "hello.elf")
	if err := os.WriteFile(path, helloELF(t), 0o644); err != nil {
		t.Fatal(err)
	}
	img, err := s.LoadELFFile(path)
	if err != nil {
		t.Fatalf("LoadELFFile: %v", err)
	}
	if s.PC() != img.Entry {
		t.Fatalf("pc = 0x%08X, want entry", s.PC())
	}
	if sym, ok := s.Symbols().Lookup("buffer"); !ok || sym.Addr != RAM_BASE+0x1000 {
		t.Fatal("symbols not installed")
	}

	r := s.Run(100)
	if r.Status != StatusHalted || !r.Exited || r.ExitCode != 0 {
		t.Fatalf("result = %v (exit %d)", r, r.ExitCode)
	}
	if got := string(s.UARTReadAll(DebugUART)); got != "o" {
		t.Fatalf("debug uart = %q", got)
	}
	if code, ok := s.ExitStatus(); !ok || code != 0 {
		t.Fatalf("ExitStatus = %d, %v", code, ok)
	}
}

func TestSession_LoadELFOutsideRAM(t *testing.T) {
	s := newTestSession(t)
	img := buildELF(t, elf.EM_RISCV, 0x1000, []testSegment{{vaddr: 0x1000, data: program(rvNOP), memsz: 4}}, nil)
	if _, err := s.LoadELF(img); !errors.Is(err, ErrOutsideRAM) {
		t.Fatalf("err = %v, want ErrOutsideRAM", err)
	}
	if _, err := s.LoadELFFile(filepath.Join(t.TempDir(), "missing.elf")); err == nil {
		t.Fatal("missing file should fail")
	}
}
