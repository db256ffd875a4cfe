// cpu_rv32_exec.go - RV32IM instruction executor

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

// Execute runs one instruction word against cpu and bus. On success the
// instruction has retired: registers, memory and PC are updated. Traps and
// faults come back as typed errors with PC left at the instruction:
//
//	*EcallTrap               syscall request, handled by the session
//	*EbreakTrap              clean halt
//	*MemoryAccessFault       load or store outside the valid regions
//	*IllegalInstructionFault unimplemented encoding
//	*WatchpointHit           read watchpoint, raised before the load completes
func Execute(cpu *CPU, bus *MachineBus, word uint32) error {
	in, err := Decode(word)
	if err != nil {
		if f, ok := err.(*IllegalInstructionFault); ok {
			f.PC = cpu.PC
		}
		return err
	}
	return ExecuteDecoded(cpu, bus, in)
}

// ExecuteDecoded runs an already decoded instruction.
func ExecuteDecoded(cpu *CPU, bus *MachineBus, in Instruction) error {
	pc := cpu.PC
	nextPC := pc + 4

	switch in.Kind {
	case KindLUI:
		cpu.SetX(in.Rd, uint32(in.Imm))

	case KindAUIPC:
		cpu.SetX(in.Rd, pc+uint32(in.Imm))

	case KindJAL:
		cpu.SetX(in.Rd, pc+4)
		nextPC = pc + uint32(in.Imm)

	case KindJALR:
		// Target first: rd may alias rs1.
		target := (cpu.GetX(in.Rs1) + uint32(in.Imm)) &^ 1
		cpu.SetX(in.Rd, pc+4)
		nextPC = target

	case KindBranch:
		if branchTaken(in.Op, cpu.GetX(in.Rs1), cpu.GetX(in.Rs2)) {
			nextPC = pc + uint32(in.Imm)
		}

	case KindALUImm:
		v, ok := aluCompute(in.Op, cpu.GetX(in.Rs1), uint32(in.Imm))
		if !ok {
			return &IllegalInstructionFault{PC: pc, Word: in.Raw, Reason: "alu op"}
		}
		cpu.SetX(in.Rd, v)

	case KindALUReg:
		v, ok := aluCompute(in.Op, cpu.GetX(in.Rs1), cpu.GetX(in.Rs2))
		if !ok {
			return &IllegalInstructionFault{PC: pc, Word: in.Raw, Reason: "alu op"}
		}
		cpu.SetX(in.Rd, v)

	case KindLoad:
		v, err := execLoad(bus, in.Op, cpu.GetX(in.Rs1)+uint32(in.Imm))
		if err != nil {
			return err
		}
		cpu.SetX(in.Rd, v)

	case KindStore:
		if err := execStore(bus, in.Op, cpu.GetX(in.Rs1)+uint32(in.Imm), cpu.GetX(in.Rs2)); err != nil {
			return err
		}

	case KindFence:
		// Single hart, no caches: nothing to order.

	case KindSystem:
		switch in.Op {
		case OpECALL:
			return &EcallTrap{PC: pc}
		case OpEBREAK:
			return &EbreakTrap{PC: pc}
		default:
			execCSR(cpu, in)
		}

	default:
		return &IllegalInstructionFault{PC: pc, Word: in.Raw, Reason: "unknown opcode"}
	}

	cpu.PC = nextPC
	return nil
}

func execLoad(bus *MachineBus, op Op, addr uint32) (uint32, error) {
	switch op {
	case OpLB:
		v, err := bus.Read8(addr)
		return signExtendByte(uint32(v)), err
	case OpLBU:
		v, err := bus.Read8(addr)
		return uint32(v), err
	case OpLH:
		v, err := bus.Read16(addr)
		return signExtendHalfWord(uint32(v)), err
	case OpLHU:
		v, err := bus.Read16(addr)
		return uint32(v), err
	default:
		return bus.Read32(addr)
	}
}

func execStore(bus *MachineBus, op Op, addr, value uint32) error {
	switch op {
	case OpSB:
		return bus.Write8(addr, uint8(value))
	case OpSH:
		return bus.Write16(addr, uint16(value))
	default:
		return bus.Write32(addr, value)
	}
}

// execCSR performs the Zicsr read-modify-write. Set and clear forms with a
// zero source skip the write, as the ISA requires.
func execCSR(cpu *CPU, in Instruction) {
	var src uint32
	switch in.Op {
	case OpCSRRWI, OpCSRRSI, OpCSRRCI:
		src = uint32(in.Rs1) // zimm
	default:
		src = cpu.GetX(in.Rs1)
	}

	old := cpu.ReadCSR(in.CSR)
	switch in.Op {
	case OpCSRRW, OpCSRRWI:
		cpu.WriteCSR(in.CSR, src)
	case OpCSRRS, OpCSRRSI:
		if in.Rs1 != 0 {
			cpu.WriteCSR(in.CSR, old|src)
		}
	case OpCSRRC, OpCSRRCI:
		if in.Rs1 != 0 {
			cpu.WriteCSR(in.CSR, old&^src)
		}
	}
	cpu.SetX(in.Rd, old)
}
