// cpu_rv32_alu.go - RV32IM ALU, branch and M-extension arithmetic

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

import "math/bits"

// aluCompute evaluates an RV32IM ALU operation on unsigned 32-bit operands.
// Shift amounts use the low five bits of b. Division follows the RISC-V
// rules: no traps, fixed results for divide-by-zero and INT_MIN / -1.
func aluCompute(op Op, a, b uint32) (uint32, bool) {
	switch op {
	case OpADD:
		return a + b, true
	case OpSUB:
		return a - b, true
	case OpSLL:
		return a << (b & 0x1F), true
	case OpSRL:
		return a >> (b & 0x1F), true
	case OpSRA:
		return uint32(int32(a) >> (b & 0x1F)), true
	case OpSLT:
		return btou32(int32(a) < int32(b)), true
	case OpSLTU:
		return btou32(a < b), true
	case OpXOR:
		return a ^ b, true
	case OpOR:
		return a | b, true
	case OpAND:
		return a & b, true

	case OpMUL:
		return a * b, true
	case OpMULH:
		return uint32(uint64(int64(int32(a))*int64(int32(b))) >> 32), true
	case OpMULHSU:
		return mulhsu(a, b), true
	case OpMULHU:
		hi, _ := bits.Mul32(a, b)
		return hi, true
	case OpDIV:
		return div32(a, b), true
	case OpDIVU:
		if b == 0 {
			return 0xFFFFFFFF, true
		}
		return a / b, true
	case OpREM:
		return rem32(a, b), true
	case OpREMU:
		if b == 0 {
			return a, true
		}
		return a % b, true
	}
	return 0, false
}

// mulhsu returns the high word of signed(a) * unsigned(b).
func mulhsu(a, b uint32) uint32 {
	hi, _ := bits.Mul32(a, b)
	if int32(a) < 0 {
		// Correct the unsigned product for a's sign: a_signed = a - 2^32.
		hi -= b
	}
	return hi
}

func div32(a, b uint32) uint32 {
	switch {
	case b == 0:
		return 0xFFFFFFFF
	case a == 0x80000000 && b == 0xFFFFFFFF:
		return a
	}
	return uint32(int32(a) / int32(b))
}

func rem32(a, b uint32) uint32 {
	switch {
	case b == 0:
		return a
	case a == 0x80000000 && b == 0xFFFFFFFF:
		return 0
	}
	return uint32(int32(a) % int32(b))
}

func branchTaken(op Op, a, b uint32) bool {
	switch op {
	case OpBEQ:
		return a == b
	case OpBNE:
		return a != b
	case OpBLT:
		return int32(a) < int32(b)
	case OpBGE:
		return int32(a) >= int32(b)
	case OpBLTU:
		return a < b
	case OpBGEU:
		return a >= b
	}
	return false
}

func btou32(b bool) uint32 {
	if b {
		return 1
	}
	return 0
}

func signExtendByte(v uint32) uint32 {
	return uint32(int32(v<<24) >> 24)
}

func signExtendHalfWord(v uint32) uint32 {
	return uint32(int32(v<<16) >> 16)
}
