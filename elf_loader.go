// elf_loader.go - RV32 ELF executable parsing

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
	"bytes"
	"debug/elf"
	"errors"
	"fmt"
	"strings"
)

// ErrNotELF is returned for images that are not 32-bit little-endian RISC-V
// executables.
var ErrNotELF = errors.New("rvsim: not an RV32 little-endian ELF image")

// Segment is one PT_LOAD program header. Data holds the file-backed bytes;
// the remainder up to Memsz is zero-filled when loaded.
type Segment struct {
	Vaddr uint32
	Data  []byte
	Memsz uint32
}

type ELFImage struct {
	Entry    uint32
	Segments []Segment
	Symbols  []Symbol
}

// ParseELF decodes an executable image without touching guest memory.
// Every loadable segment must fit in RAM.
func ParseELF(data []byte) (*ELFImage, error) {
	f, err := elf.NewFile(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrNotELF, err)
	}
	defer f.Close()

	if f.Class != elf.ELFCLASS32 || f.Data != elf.ELFDATA2LSB || f.Machine != elf.EM_RISCV {
		return nil, fmt.Errorf("%w: class=%v data=%v machine=%v", ErrNotELF, f.Class, f.Data, f.Machine)
	}

	img := &ELFImage{Entry: uint32(f.Entry)}
	for _, ph := range f.Progs {
		if ph.Type != elf.PT_LOAD {
			continue
		}
		if ph.Filesz > ph.Memsz {
			return nil, fmt.Errorf("segment @0x%08x: filesz %d exceeds memsz %d", ph.Vaddr, ph.Filesz, ph.Memsz)
		}
		// Checked before allocating so a hostile header cannot size the buffer.
		if err := checkRAMRange(uint32(ph.Vaddr), ph.Memsz); err != nil {
			return nil, fmt.Errorf("segment @0x%08x: %w", ph.Vaddr, err)
		}
		buf := make([]byte, ph.Filesz)
		if ph.Filesz > 0 {
			if _, err := ph.ReadAt(buf, 0); err != nil {
				return nil, fmt.Errorf("read segment @0x%08x: %w", ph.Vaddr, err)
			}
		}
		img.Segments = append(img.Segments, Segment{
			Vaddr: uint32(ph.Vaddr),
			Data:  buf,
			Memsz: uint32(ph.Memsz),
		})
	}

	syms, err := f.Symbols()
	if err != nil && !errors.Is(err, elf.ErrNoSymbols) {
		return nil, fmt.Errorf("read symbols: %w", err)
	}
	for _, s := range syms {
		if sym, ok := symbolFromELF(s); ok {
			img.Symbols = append(img.Symbols, sym)
		}
	}
	return img, nil
}

// symbolFromELF keeps defined, named code and data symbols. Assembler
// mapping symbols ($x, $d) and local labels are dropped.
func symbolFromELF(s elf.Symbol) (Symbol, bool) {
	if s.Name == "" || s.Section == elf.SHN_UNDEF {
		return Symbol{}, false
	}
	if strings.HasPrefix(s.Name, "$") || strings.HasPrefix(s.Name, ".L") {
		return Symbol{}, false
	}
	sym := Symbol{Name: s.Name, Addr: uint32(s.Value), Size: uint32(s.Size)}
	switch elf.ST_TYPE(s.Info) {
	case elf.STT_FUNC:
		sym.Kind = SymFunc
	case elf.STT_OBJECT:
		sym.Kind = SymObject
	case elf.STT_NOTYPE:
		sym.Kind = SymOther
	default:
		return Symbol{}, false
	}
	return sym, true
}
