// cpu_rv32.go - RV32 register file and CSR map

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
	"fmt"
	"strconv"
	"strings"
)

const (
	NUM_REGISTERS = 32

	// ABI register numbers used by the syscall shim.
	REG_ZERO = 0
	REG_RA   = 1
	REG_SP   = 2
	REG_A0   = 10
	REG_A1   = 11
	REG_A2   = 12
	REG_A3   = 13
	REG_A4   = 14
	REG_A5   = 15
	REG_A7   = 17
)

// Machine-mode CSR addresses kept in the CSR map.
const (
	CSR_MSTATUS = 0x300
	CSR_MIE     = 0x304
	CSR_MTVEC   = 0x305
	CSR_MEPC    = 0x341
	CSR_MCAUSE  = 0x342
	CSR_MIP     = 0x344

	// Read-only user counters.
	CSR_CYCLE    = 0xC00
	CSR_TIME     = 0xC01
	CSR_INSTRET  = 0xC02
	CSR_CYCLEH   = 0xC80
	CSR_TIMEH    = 0xC81
	CSR_INSTRETH = 0xC82
)

var abiRegNames = [NUM_REGISTERS]string{
	"zero", "ra", "sp", "gp", "tp", "t0", "t1", "t2",
	"s0", "s1", "a0", "a1", "a2", "a3", "a4", "a5",
	"a6", "a7", "s2", "s3", "s4", "s5", "s6", "s7",
	"s8", "s9", "s10", "s11", "t3", "t4", "t5", "t6",
}

var csrNames = map[uint16]string{
	CSR_MSTATUS:  "mstatus",
	CSR_MIE:      "mie",
	CSR_MTVEC:    "mtvec",
	CSR_MEPC:     "mepc",
	CSR_MCAUSE:   "mcause",
	CSR_MIP:      "mip",
	CSR_CYCLE:    "cycle",
	CSR_TIME:     "time",
	CSR_INSTRET:  "instret",
	CSR_CYCLEH:   "cycleh",
	CSR_TIMEH:    "timeh",
	CSR_INSTRETH: "instreth",
}

// CPU is the RV32 architectural state. x0 is hardwired to zero: reads of
// X[0] always see 0 because every write goes through SetX.
type CPU struct {
	X  [NUM_REGISTERS]uint32
	PC uint32

	csr map[uint16]uint32

	// Retired counts instructions committed since reset; it backs the
	// cycle/instret counters.
	Retired uint64

	// timeMillis feeds the time CSR; nil reads as 0.
	timeMillis func() uint32
}

func NewCPU(startPC uint32) *CPU {
	cpu := &CPU{PC: startPC}
	cpu.resetCSRs()
	return cpu
}

func (cpu *CPU) resetCSRs() {
	cpu.csr = map[uint16]uint32{
		CSR_MSTATUS: 0,
		CSR_MTVEC:   0,
		CSR_MEPC:    0,
		CSR_MCAUSE:  0,
		CSR_MIE:     0,
		CSR_MIP:     0,
	}
}

// Reset clears every register and CSR and moves PC to startPC.
func (cpu *CPU) Reset(startPC uint32) {
	cpu.X = [NUM_REGISTERS]uint32{}
	cpu.PC = startPC
	cpu.Retired = 0
	cpu.resetCSRs()
}

func (cpu *CPU) GetX(r uint8) uint32 {
	if r == 0 {
		return 0
	}
	return cpu.X[r&0x1F]
}

func (cpu *CPU) SetX(r uint8, v uint32) {
	if r == 0 {
		return
	}
	cpu.X[r&0x1F] = v
}

// ReadCSR returns the CSR value; unknown CSRs read as zero.
func (cpu *CPU) ReadCSR(addr uint16) uint32 {
	switch addr {
	case CSR_CYCLE, CSR_INSTRET:
		return uint32(cpu.Retired)
	case CSR_CYCLEH, CSR_INSTRETH:
		return uint32(cpu.Retired >> 32)
	case CSR_TIME:
		if cpu.timeMillis != nil {
			return cpu.timeMillis()
		}
		return 0
	case CSR_TIMEH:
		return 0
	}
	return cpu.csr[addr]
}

// WriteCSR stores v if addr is one of the implemented machine CSRs.
// Writes to counters and unknown CSRs are dropped.
func (cpu *CPU) WriteCSR(addr uint16, v uint32) {
	if _, ok := cpu.csr[addr]; ok {
		cpu.csr[addr] = v
	}
}

// RegisterName returns the ABI name for register r.
func RegisterName(r uint8) string {
	return abiRegNames[r&0x1F]
}

// ParseRegister maps an ABI name ("a0", "fp"), an architectural name
// ("x10") or a bare index ("10") to a register number.
func ParseRegister(name string) (uint8, error) {
	n := strings.ToLower(strings.TrimSpace(name))
	if n == "fp" {
		return 8, nil
	}
	for i, abi := range abiRegNames {
		if n == abi {
			return uint8(i), nil
		}
	}
	digits := strings.TrimPrefix(n, "x")
	if v, err := strconv.Atoi(digits); err == nil && v >= 0 && v < NUM_REGISTERS {
		return uint8(v), nil
	}
	return 0, fmt.Errorf("%w: %q", ErrUnknownRegister, name)
}

// CSRName returns the symbolic name of a CSR, or its hex address.
func CSRName(addr uint16) string {
	if name, ok := csrNames[addr]; ok {
		return name
	}
	return fmt.Sprintf("0x%03x", addr)
}
