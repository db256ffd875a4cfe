// debug_disasm_rv32.go - RV32IM disassembler for the machine monitor

package rvsim

import "fmt"

// DisassembleWord renders one instruction word in standard assembler syntax
// with ABI register names. Branch and jump targets are absolute, computed
// from pc.
func DisassembleWord(word, pc uint32) string {
	in, err := Decode(word)
	if err != nil {
		return fmt.Sprintf(".word 0x%08x", word)
	}
	rd, rs1, rs2 := RegisterName(in.Rd), RegisterName(in.Rs1), RegisterName(in.Rs2)

	switch in.Kind {
	case KindLUI:
		return fmt.Sprintf("lui %s, 0x%x", rd, uint32(in.Imm)>>12)
	case KindAUIPC:
		return fmt.Sprintf("auipc %s, 0x%x", rd, uint32(in.Imm)>>12)
	case KindJAL:
		target := pc + uint32(in.Imm)
		switch in.Rd {
		case REG_ZERO:
			return fmt.Sprintf("j 0x%08x", target)
		case REG_RA:
			return fmt.Sprintf("jal 0x%08x", target)
		}
		return fmt.Sprintf("jal %s, 0x%08x", rd, target)
	case KindJALR:
		if in.Rd == REG_ZERO && in.Rs1 == REG_RA && in.Imm == 0 {
			return "ret"
		}
		return fmt.Sprintf("jalr %s, %d(%s)", rd, in.Imm, rs1)
	case KindBranch:
		return fmt.Sprintf("%s %s, %s, 0x%08x", in.Op, rs1, rs2, pc+uint32(in.Imm))
	case KindLoad:
		return fmt.Sprintf("%s %s, %d(%s)", in.Op, rd, in.Imm, rs1)
	case KindStore:
		return fmt.Sprintf("%s %s, %d(%s)", in.Op, rs2, in.Imm, rs1)
	case KindALUImm:
		if in.Op == OpADD && in.Rd == REG_ZERO && in.Rs1 == REG_ZERO && in.Imm == 0 {
			return "nop"
		}
		if in.Op == OpADD && in.Rs1 == REG_ZERO {
			return fmt.Sprintf("li %s, %d", rd, in.Imm)
		}
		if in.Op == OpSLTU {
			return fmt.Sprintf("sltiu %s, %s, %d", rd, rs1, in.Imm)
		}
		return fmt.Sprintf("%si %s, %s, %d", in.Op, rd, rs1, in.Imm)
	case KindALUReg:
		return fmt.Sprintf("%s %s, %s, %s", in.Op, rd, rs1, rs2)
	case KindFence:
		return in.Op.String()
	case KindSystem:
		switch in.Op {
		case OpECALL, OpEBREAK:
			return in.Op.String()
		case OpCSRRWI, OpCSRRSI, OpCSRRCI:
			return fmt.Sprintf("%s %s, %s, %d", in.Op, rd, CSRName(in.CSR), in.Rs1)
		}
		return fmt.Sprintf("%s %s, %s, %s", in.Op, rd, CSRName(in.CSR), rs1)
	}
	return fmt.Sprintf(".word 0x%08x", word)
}

// disassembleRV32 decodes count words starting at addr. Unreadable memory
// ends the listing.
func disassembleRV32(readMem func(addr uint32, size int) []byte, addr uint32, count int, syms *SymbolTable) []DisassembledLine {
	var lines []DisassembledLine
	for range count {
		data := readMem(addr, 4)
		if len(data) < 4 {
			break
		}
		word := uint32(data[0]) | uint32(data[1])<<8 | uint32(data[2])<<16 | uint32(data[3])<<24
		line := DisassembledLine{
			Address:  addr,
			HexBytes: fmt.Sprintf("%08x", word),
			Mnemonic: DisassembleWord(word, addr),
			Size:     4,
		}
		if syms != nil {
			if sym, ok := syms.At(addr); ok {
				line.Label = sym.Name
			}
		}
		lines = append(lines, line)
		addr += 4
	}
	return lines
}
