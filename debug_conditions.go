// debug_conditions.go - Breakpoint condition parser and evaluator

package rvsim

import (
	"fmt"
	"strconv"
	"strings"
)

// ConditionOp is a comparison operator for breakpoint conditions.
type ConditionOp int

const (
	CondOpEqual ConditionOp = iota
	CondOpNotEqual
	CondOpLess
	CondOpGreater
	CondOpLessEqual
	CondOpGreaterEqual
)

var condOpText = [...]string{
	CondOpEqual:        "==",
	CondOpNotEqual:     "!=",
	CondOpLess:         "<",
	CondOpGreater:      ">",
	CondOpLessEqual:    "<=",
	CondOpGreaterEqual: ">=",
}

func (op ConditionOp) String() string {
	if int(op) < len(condOpText) {
		return condOpText[op]
	}
	return "?"
}

// ConditionSource identifies what a condition compares.
type ConditionSource int

const (
	CondSourceRegister ConditionSource = iota
	CondSourcePC
	CondSourceMemory
	CondSourceHitCount
)

// BreakpointCondition is a predicate over machine state.
type BreakpointCondition struct {
	Source  ConditionSource
	Reg     uint8
	MemAddr uint32
	Op      ConditionOp
	Value   uint32
}

// ParseAddress parses an address or value string. Supports $hex, 0xhex,
// #decimal and bare hex.
func ParseAddress(s string) (uint32, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, false
	}

	var v uint64
	var err error
	switch {
	case strings.HasPrefix(s, "#"):
		v, err = strconv.ParseUint(s[1:], 10, 32)
	case strings.HasPrefix(s, "-#"):
		var n int64
		n, err = strconv.ParseInt("-"+s[2:], 10, 32)
		v = uint64(uint32(n))
	case strings.HasPrefix(s, "$"):
		v, err = strconv.ParseUint(s[1:], 16, 32)
	case strings.HasPrefix(s, "0x"), strings.HasPrefix(s, "0X"):
		v, err = strconv.ParseUint(s[2:], 16, 32)
	default:
		v, err = strconv.ParseUint(s, 16, 32)
	}
	return uint32(v), err == nil
}

// ParseCondition parses a condition string.
//
//	a0==$10       register compare (ABI or xN names)
//	pc!=$80000000 program counter compare
//	[$80001000]>5 memory byte compare
//	hitcount>=3   hit count compare
func ParseCondition(text string) (*BreakpointCondition, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, fmt.Errorf("empty condition")
	}

	var op ConditionOp
	opStr := ""
	opIdx := -1
	// Two-character operators first so "<=" is not read as "<".
	for _, candidate := range []ConditionOp{CondOpEqual, CondOpNotEqual, CondOpLessEqual, CondOpGreaterEqual, CondOpLess, CondOpGreater} {
		if idx := strings.Index(text, candidate.String()); idx >= 0 {
			op, opStr, opIdx = candidate, candidate.String(), idx
			break
		}
	}
	if opIdx < 0 {
		return nil, fmt.Errorf("no operator found (use ==, !=, <, >, <=, >=)")
	}

	lhs := strings.TrimSpace(text[:opIdx])
	rhs := strings.TrimSpace(text[opIdx+len(opStr):])

	value, ok := ParseAddress(rhs)
	if !ok {
		return nil, fmt.Errorf("invalid value: %s", rhs)
	}

	if strings.HasPrefix(lhs, "[") && strings.HasSuffix(lhs, "]") {
		addrStr := lhs[1 : len(lhs)-1]
		addr, ok := ParseAddress(addrStr)
		if !ok {
			return nil, fmt.Errorf("invalid memory address: %s", addrStr)
		}
		return &BreakpointCondition{Source: CondSourceMemory, MemAddr: addr, Op: op, Value: value}, nil
	}
	if strings.EqualFold(lhs, "hitcount") {
		return &BreakpointCondition{Source: CondSourceHitCount, Op: op, Value: value}, nil
	}
	if strings.EqualFold(lhs, "pc") {
		return &BreakpointCondition{Source: CondSourcePC, Op: op, Value: value}, nil
	}

	reg, err := ParseRegister(lhs)
	if err != nil {
		return nil, err
	}
	return &BreakpointCondition{Source: CondSourceRegister, Reg: reg, Op: op, Value: value}, nil
}

// evaluateCondition reports whether cond holds. A nil condition always holds.
func evaluateCondition(cond *BreakpointCondition, cpu *CPU, bus *MachineBus, hitCount uint64) bool {
	if cond == nil {
		return true
	}

	var actual uint32
	switch cond.Source {
	case CondSourceRegister:
		actual = cpu.GetX(cond.Reg)
	case CondSourcePC:
		actual = cpu.PC
	case CondSourceMemory:
		b, ok := bus.Peek(cond.MemAddr)
		if !ok {
			return false
		}
		actual = uint32(b)
	case CondSourceHitCount:
		actual = uint32(hitCount)
	}
	return compareValues(actual, cond.Op, cond.Value)
}

func compareValues(actual uint32, op ConditionOp, expected uint32) bool {
	switch op {
	case CondOpEqual:
		return actual == expected
	case CondOpNotEqual:
		return actual != expected
	case CondOpLess:
		return actual < expected
	case CondOpGreater:
		return actual > expected
	case CondOpLessEqual:
		return actual <= expected
	case CondOpGreaterEqual:
		return actual >= expected
	}
	return false
}

// FormatCondition returns a human-readable string for a condition.
func FormatCondition(cond *BreakpointCondition) string {
	if cond == nil {
		return ""
	}

	var lhs string
	switch cond.Source {
	case CondSourceRegister:
		lhs = RegisterName(cond.Reg)
	case CondSourcePC:
		lhs = "pc"
	case CondSourceMemory:
		lhs = fmt.Sprintf("[$%X]", cond.MemAddr)
	case CondSourceHitCount:
		lhs = "hitcount"
	}
	return fmt.Sprintf("%s%s$%X", lhs, cond.Op, cond.Value)
}
