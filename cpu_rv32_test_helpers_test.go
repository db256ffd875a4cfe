package rvsim

import (
	"encoding/binary"
	"testing"
)

// Instruction encoders for hand-assembled test programs.

func encR(opcode, rd, funct3, rs1, rs2, funct7 uint32) uint32 {
	return funct7<<25 | rs2<<20 | rs1<<15 | funct3<<12 | rd<<7 | opcode
}

func encI(opcode, rd, funct3, rs1 uint32, imm int32) uint32 {
	return uint32(imm)<<20 | rs1<<15 | funct3<<12 | rd<<7 | opcode
}

func encS(opcode, funct3, rs1, rs2 uint32, imm int32) uint32 {
	u := uint32(imm)
	return (u>>5&0x7F)<<25 | rs2<<20 | rs1<<15 | funct3<<12 | (u&0x1F)<<7 | opcode
}

func encB(funct3, rs1, rs2 uint32, imm int32) uint32 {
	u := uint32(imm)
	return (u>>12&1)<<31 | (u>>5&0x3F)<<25 | rs2<<20 | rs1<<15 | funct3<<12 |
		(u>>1&0xF)<<8 | (u>>11&1)<<7 | OPC_BRANCH
}

func encU(opcode, rd uint32, imm uint32) uint32 {
	return imm&0xFFFFF000 | rd<<7 | opcode
}

func encJ(rd uint32, imm int32) uint32 {
	u := uint32(imm)
	return (u>>20&1)<<31 | (u>>1&0x3FF)<<21 | (u>>11&1)<<20 | (u>>12&0xFF)<<12 | rd<<7 | OPC_JAL
}

func rvADDI(rd, rs1 uint32, imm int32) uint32 { return encI(OPC_OP_IMM, rd, 0, rs1, imm) }
func rvSLTIU(rd, rs1 uint32, imm int32) uint32 { return encI(OPC_OP_IMM, rd, 3, rs1, imm) }
func rvSLLI(rd, rs1, sh uint32) uint32        { return encI(OPC_OP_IMM, rd, 1, rs1, int32(sh)) }
func rvSRAI(rd, rs1, sh uint32) uint32        { return encI(OPC_OP_IMM, rd, 5, rs1, int32(sh|0x400)) }
func rvADD(rd, rs1, rs2 uint32) uint32        { return encR(OPC_OP, rd, 0, rs1, rs2, FUNCT7_BASE) }
func rvSUB(rd, rs1, rs2 uint32) uint32        { return encR(OPC_OP, rd, 0, rs1, rs2, FUNCT7_ALT) }
func rvMUL(rd, rs1, rs2 uint32) uint32        { return encR(OPC_OP, rd, 0, rs1, rs2, FUNCT7_MULD) }
func rvDIV(rd, rs1, rs2 uint32) uint32        { return encR(OPC_OP, rd, 4, rs1, rs2, FUNCT7_MULD) }
func rvLUI(rd, imm uint32) uint32             { return encU(OPC_LUI, rd, imm) }
func rvAUIPC(rd, imm uint32) uint32           { return encU(OPC_AUIPC, rd, imm) }
func rvJAL(rd uint32, off int32) uint32       { return encJ(rd, off) }
func rvJALR(rd, rs1 uint32, imm int32) uint32 { return encI(OPC_JALR, rd, 0, rs1, imm) }
func rvBEQ(rs1, rs2 uint32, off int32) uint32 { return encB(0, rs1, rs2, off) }
func rvBNE(rs1, rs2 uint32, off int32) uint32 { return encB(1, rs1, rs2, off) }
func rvLB(rd, rs1 uint32, imm int32) uint32   { return encI(OPC_LOAD, rd, 0, rs1, imm) }
func rvLBU(rd, rs1 uint32, imm int32) uint32  { return encI(OPC_LOAD, rd, 4, rs1, imm) }
func rvLW(rd, rs1 uint32, imm int32) uint32   { return encI(OPC_LOAD, rd, 2, rs1, imm) }
func rvSB(rs2, rs1 uint32, imm int32) uint32  { return encS(OPC_STORE, 0, rs1, rs2, imm) }
func rvSW(rs2, rs1 uint32, imm int32) uint32  { return encS(OPC_STORE, 2, rs1, rs2, imm) }
func rvCSRRS(rd, csr, rs1 uint32) uint32      { return encI(OPC_SYSTEM, rd, 2, rs1, int32(csr)) }
func rvCSRRW(rd, csr, rs1 uint32) uint32      { return encI(OPC_SYSTEM, rd, 1, rs1, int32(csr)) }

const (
	rvECALL  = 0x00000073
	rvEBREAK = 0x00100073
	rvNOP    = 0x00000013
)

// li emits lui+addi for an arbitrary 32-bit constant.
func li(rd, v uint32) []uint32 {
	lo := int32(v<<20) >> 20
	hi := v - uint32(lo)
	return []uint32{rvLUI(rd, hi), rvADDI(rd, rd, lo)}
}

func program(words ...any) []byte {
	var out []byte
	for _, w := range words {
		switch v := w.(type) {
		case uint32:
			out = binary.LittleEndian.AppendUint32(out, v)
		case int:
			out = binary.LittleEndian.AppendUint32(out, uint32(v))
		case []uint32:
			for _, x := range v {
				out = binary.LittleEndian.AppendUint32(out, x)
			}
		default:
			panic("program: unsupported word type")
		}
	}
	return out
}

type rv32TestRig struct {
	cpu *CPU
	bus *MachineBus
}

func newRV32TestRig() *rv32TestRig {
	return &rv32TestRig{cpu: NewCPU(RAM_BASE), bus: NewMachineBus()}
}

// exec runs one instruction word at the current PC.
func (r *rv32TestRig) exec(t *testing.T, word uint32) error {
	t.Helper()
	r.bus.SetPC(r.cpu.PC)
	return Execute(r.cpu, r.bus, word)
}

func (r *rv32TestRig) mustExec(t *testing.T, word uint32) {
	t.Helper()
	if err := r.exec(t, word); err != nil {
		t.Fatalf("execute 0x%08X: %v", word, err)
	}
}

func newTestSession(t *testing.T) *Session {
	t.Helper()
	cfg := DefaultSessionConfig()
	cfg.FSRoot = t.TempDir()
	s, err := NewSession(cfg)
	if err != nil {
		t.Fatalf("NewSession: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func loadProgram(t *testing.T, s *Session, code []byte) {
	t.Helper()
	if err := s.LoadBytes(RAM_BASE, code); err != nil {
		t.Fatalf("LoadBytes: %v", err)
	}
	s.SetPC(RAM_BASE)
}

func requireU32(t *testing.T, name string, got, want uint32) {
	t.Helper()
	if got != want {
		t.Fatalf("%s = 0x%08X, want 0x%08X", name, got, want)
	}
}
