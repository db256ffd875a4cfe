// cpu_rv32_decode.go - RV32IM instruction decoder

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

// Base opcodes (insn[6:0]).
const (
	OPC_LOAD     = 0b0000011
	OPC_MISC_MEM = 0b0001111
	OPC_OP_IMM   = 0b0010011
	OPC_AUIPC    = 0b0010111
	OPC_STORE    = 0b0100011
	OPC_OP       = 0b0110011
	OPC_LUI      = 0b0110111
	OPC_BRANCH   = 0b1100011
	OPC_JALR     = 0b1100111
	OPC_JAL      = 0b1101111
	OPC_SYSTEM   = 0b1110011
)

const (
	FUNCT7_BASE = 0b0000000
	FUNCT7_ALT  = 0b0100000
	FUNCT7_MULD = 0b0000001
)

// InstKind is the decoded instruction category.
type InstKind uint8

const (
	KindIllegal InstKind = iota
	KindALUImm
	KindALUReg
	KindLoad
	KindStore
	KindBranch
	KindJAL
	KindJALR
	KindLUI
	KindAUIPC
	KindFence
	KindSystem
)

var instKindNames = [...]string{
	KindIllegal: "ILLEGAL",
	KindALUImm:  "ALU_IMM",
	KindALUReg:  "ALU_REG",
	KindLoad:    "LOAD",
	KindStore:   "STORE",
	KindBranch:  "BRANCH",
	KindJAL:     "JAL",
	KindJALR:    "JALR",
	KindLUI:     "LUI",
	KindAUIPC:   "AUIPC",
	KindFence:   "FENCE",
	KindSystem:  "SYSTEM",
}

func (k InstKind) String() string {
	if int(k) < len(instKindNames) {
		return instKindNames[k]
	}
	return "?"
}

// Op is the per-category operation tag.
type Op uint8

const (
	OpNone Op = iota

	// ALU, shared by the register and immediate forms
	OpADD
	OpSUB
	OpSLL
	OpSLT
	OpSLTU
	OpXOR
	OpSRL
	OpSRA
	OpOR
	OpAND

	// M extension
	OpMUL
	OpMULH
	OpMULHSU
	OpMULHU
	OpDIV
	OpDIVU
	OpREM
	OpREMU

	OpLB
	OpLH
	OpLW
	OpLBU
	OpLHU

	OpSB
	OpSH
	OpSW

	OpBEQ
	OpBNE
	OpBLT
	OpBGE
	OpBLTU
	OpBGEU

	OpFENCE
	OpFENCEI

	OpECALL
	OpEBREAK
	OpCSRRW
	OpCSRRS
	OpCSRRC
	OpCSRRWI
	OpCSRRSI
	OpCSRRCI
)

var opNames = [...]string{
	OpNone: "",
	OpADD:  "add", OpSUB: "sub", OpSLL: "sll", OpSLT: "slt", OpSLTU: "sltu",
	OpXOR: "xor", OpSRL: "srl", OpSRA: "sra", OpOR: "or", OpAND: "and",
	OpMUL: "mul", OpMULH: "mulh", OpMULHSU: "mulhsu", OpMULHU: "mulhu",
	OpDIV: "div", OpDIVU: "divu", OpREM: "rem", OpREMU: "remu",
	OpLB: "lb", OpLH: "lh", OpLW: "lw", OpLBU: "lbu", OpLHU: "lhu",
	OpSB: "sb", OpSH: "sh", OpSW: "sw",
	OpBEQ: "beq", OpBNE: "bne", OpBLT: "blt", OpBGE: "bge", OpBLTU: "bltu", OpBGEU: "bgeu",
	OpFENCE: "fence", OpFENCEI: "fence.i",
	OpECALL: "ecall", OpEBREAK: "ebreak",
	OpCSRRW: "csrrw", OpCSRRS: "csrrs", OpCSRRC: "csrrc",
	OpCSRRWI: "csrrwi", OpCSRRSI: "csrrsi", OpCSRRCI: "csrrci",
}

func (op Op) String() string {
	if int(op) < len(opNames) {
		return opNames[op]
	}
	return "?"
}

// Instruction is a decoded 32-bit instruction word.
type Instruction struct {
	Raw    uint32
	Kind   InstKind
	Op     Op
	Opcode uint8
	Rd     uint8
	Rs1    uint8
	Rs2    uint8
	Funct3 uint8
	Funct7 uint8
	Imm    int32  // sign-extended per format; shift amount for shift-immediates
	CSR    uint16 // SYSTEM CSR ops only
}

func bitField(word uint32, start, length uint) uint32 {
	return (word >> start) & ((1 << length) - 1)
}

var funct3ToLoadOp = [8]Op{
	0b000: OpLB,
	0b001: OpLH,
	0b010: OpLW,
	0b100: OpLBU,
	0b101: OpLHU,
}

var funct3ToStoreOp = [8]Op{
	0b000: OpSB,
	0b001: OpSH,
	0b010: OpSW,
}

var funct3ToBranchOp = [8]Op{
	0b000: OpBEQ,
	0b001: OpBNE,
	0b100: OpBLT,
	0b101: OpBGE,
	0b110: OpBLTU,
	0b111: OpBGEU,
}

var funct3ToImmOp = [8]Op{
	0b000: OpADD,
	0b001: OpSLL,
	0b010: OpSLT,
	0b011: OpSLTU,
	0b100: OpXOR,
	0b101: OpSRL, // or SRA, by funct7
	0b110: OpOR,
	0b111: OpAND,
}

var funct3ToRegOp = [8]Op{
	0b000: OpADD,
	0b001: OpSLL,
	0b010: OpSLT,
	0b011: OpSLTU,
	0b100: OpXOR,
	0b101: OpSRL,
	0b110: OpOR,
	0b111: OpAND,
}

var funct3ToMulDivOp = [8]Op{
	0b000: OpMUL,
	0b001: OpMULH,
	0b010: OpMULHSU,
	0b011: OpMULHU,
	0b100: OpDIV,
	0b101: OpDIVU,
	0b110: OpREM,
	0b111: OpREMU,
}

var funct3ToCSROp = [8]Op{
	0b001: OpCSRRW,
	0b010: OpCSRRS,
	0b011: OpCSRRC,
	0b101: OpCSRRWI,
	0b110: OpCSRRSI,
	0b111: OpCSRRCI,
}

func immI(w uint32) int32 { return int32(w) >> 20 }

func immS(w uint32) int32 {
	return (int32(w)>>25)<<5 | int32(bitField(w, 7, 5))
}

func immB(w uint32) int32 {
	v := bitField(w, 31, 1)<<12 | bitField(w, 7, 1)<<11 | bitField(w, 25, 6)<<5 | bitField(w, 8, 4)<<1
	return int32(v<<19) >> 19
}

func immU(w uint32) int32 { return int32(w & 0xFFFFF000) }

func immJ(w uint32) int32 {
	v := bitField(w, 31, 1)<<20 | bitField(w, 12, 8)<<12 | bitField(w, 20, 1)<<11 | bitField(w, 21, 10)<<1
	return int32(v<<11) >> 11
}

func illegal(w uint32, reason string) (Instruction, error) {
	return Instruction{Raw: w, Kind: KindIllegal}, &IllegalInstructionFault{Word: w, Reason: reason}
}

// Decode turns an instruction word into its tagged form. It never consults
// CPU state; the returned fault has PC unset.
func Decode(w uint32) (Instruction, error) {
	in := Instruction{
		Raw:    w,
		Opcode: uint8(bitField(w, 0, 7)),
		Rd:     uint8(bitField(w, 7, 5)),
		Funct3: uint8(bitField(w, 12, 3)),
		Rs1:    uint8(bitField(w, 15, 5)),
		Rs2:    uint8(bitField(w, 20, 5)),
		Funct7: uint8(bitField(w, 25, 7)),
	}

	switch in.Opcode {
	case OPC_LUI:
		in.Kind, in.Imm = KindLUI, immU(w)
	case OPC_AUIPC:
		in.Kind, in.Imm = KindAUIPC, immU(w)
	case OPC_JAL:
		in.Kind, in.Imm = KindJAL, immJ(w)
	case OPC_JALR:
		if in.Funct3 != 0 {
			return illegal(w, "jalr funct3")
		}
		in.Kind, in.Imm = KindJALR, immI(w)
	case OPC_BRANCH:
		if in.Op = funct3ToBranchOp[in.Funct3]; in.Op == OpNone {
			return illegal(w, "branch funct3")
		}
		in.Kind, in.Imm = KindBranch, immB(w)
	case OPC_LOAD:
		if in.Op = funct3ToLoadOp[in.Funct3]; in.Op == OpNone {
			return illegal(w, "load funct3")
		}
		in.Kind, in.Imm = KindLoad, immI(w)
	case OPC_STORE:
		if in.Op = funct3ToStoreOp[in.Funct3]; in.Op == OpNone {
			return illegal(w, "store funct3")
		}
		in.Kind, in.Imm = KindStore, immS(w)
	case OPC_OP_IMM:
		in.Kind, in.Op, in.Imm = KindALUImm, funct3ToImmOp[in.Funct3], immI(w)
		switch in.Op {
		case OpSLL:
			if in.Funct7 != FUNCT7_BASE {
				return illegal(w, "slli funct7")
			}
			in.Imm = int32(in.Rs2)
		case OpSRL:
			switch in.Funct7 {
			case FUNCT7_BASE:
			case FUNCT7_ALT:
				in.Op = OpSRA
			default:
				return illegal(w, "srli/srai funct7")
			}
			in.Imm = int32(in.Rs2)
		}
	case OPC_OP:
		in.Kind = KindALUReg
		switch in.Funct7 {
		case FUNCT7_BASE:
			in.Op = funct3ToRegOp[in.Funct3]
		case FUNCT7_ALT:
			switch in.Funct3 {
			case 0b000:
				in.Op = OpSUB
			case 0b101:
				in.Op = OpSRA
			default:
				return illegal(w, "op funct3 with funct7=0100000")
			}
		case FUNCT7_MULD:
			in.Op = funct3ToMulDivOp[in.Funct3]
		default:
			return illegal(w, "op funct7")
		}
	case OPC_MISC_MEM:
		in.Kind, in.Imm = KindFence, immI(w)
		switch in.Funct3 {
		case 0b000:
			in.Op = OpFENCE
		case 0b001:
			in.Op = OpFENCEI
		default:
			return illegal(w, "misc-mem funct3")
		}
	case OPC_SYSTEM:
		in.Kind, in.Imm = KindSystem, immI(w)
		if in.Funct3 == 0 {
			switch in.Imm {
			case 0:
				in.Op = OpECALL
			case 1:
				in.Op = OpEBREAK
			default:
				return illegal(w, "unsupported system function")
			}
			break
		}
		if in.Op = funct3ToCSROp[in.Funct3]; in.Op == OpNone {
			return illegal(w, "system funct3")
		}
		in.CSR = uint16(bitField(w, 20, 12))
	default:
		return illegal(w, "unknown opcode")
	}
	return in, nil
}
