// monitor_commands.go - Machine monitor command set

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
	"os"
	"path/filepath"
	"slices"
	"strconv"
	"strings"
)

// MonitorCommand is a parsed command with name and arguments.
type MonitorCommand struct {
	Name string
	Args []string
}

// ParseCommand splits a raw input line into a command name and arguments.
func ParseCommand(input string) MonitorCommand {
	input = strings.TrimSpace(input)
	if input == "" {
		return MonitorCommand{}
	}
	parts := strings.Fields(input)
	return MonitorCommand{
		Name: strings.ToLower(parts[0]),
		Args: parts[1:],
	}
}

// EvalAddress evaluates a monitor address expression: terms joined by + or
// -, where a term is a symbol, a register name, pc, or a number accepted by
// ParseAddress.
func (m *MachineMonitor) EvalAddress(expr string) (uint32, bool) {
	expr = strings.TrimSpace(expr)
	if expr == "" {
		return 0, false
	}

	type token struct {
		text string
		op   byte // 0 for first term, '+' or '-'
	}
	var tokens []token
	current := strings.Builder{}
	currentOp := byte(0)
	for i := 0; i < len(expr); i++ {
		ch := expr[i]
		if (ch == '+' || ch == '-') && i > 0 && expr[i-1] != '-' {
			if t := strings.TrimSpace(current.String()); t != "" {
				tokens = append(tokens, token{text: t, op: currentOp})
			}
			currentOp = ch
			current.Reset()
			continue
		}
		current.WriteByte(ch)
	}
	if t := strings.TrimSpace(current.String()); t != "" {
		tokens = append(tokens, token{text: t, op: currentOp})
	}
	if len(tokens) == 0 {
		return 0, false
	}

	var result uint32
	for _, tok := range tokens {
		val, ok := m.evalTerm(tok.text)
		if !ok {
			return 0, false
		}
		if tok.op == '-' {
			result -= val
		} else {
			result += val
		}
	}
	return result, true
}

func (m *MachineMonitor) evalTerm(text string) (uint32, bool) {
	if sym, ok := m.session.Symbols().Lookup(text); ok {
		return sym.Addr, true
	}
	if c := text[0]; c >= 'a' && c <= 'z' || c >= 'A' && c <= 'Z' {
		if v, err := m.session.GetRegister(text); err == nil {
			return v, true
		}
	}
	return ParseAddress(text)
}

// ExecuteCommand dispatches a command line. Returns true if the monitor
// should exit.
func (m *MachineMonitor) ExecuteCommand(input string) bool {
	cmd := ParseCommand(input)
	if cmd.Name == "" {
		return false
	}
	if len(m.history) == 0 || m.history[len(m.history)-1] != input {
		m.history = append(m.history, input)
	}

	switch cmd.Name {
	case "r":
		return m.cmdRegisters(cmd)
	case "d":
		return m.cmdDisassemble(cmd)
	case "m":
		return m.cmdMemoryDump(cmd)
	case "w":
		return m.cmdWrite(cmd)
	case "s":
		return m.cmdStep(cmd)
	case "g":
		return m.cmdGo(cmd)
	case "u":
		return m.cmdRunUntilTX(cmd)
	case "p":
		return m.cmdRunUntilPoll(cmd)
	case "b":
		return m.cmdBreakpointSet(cmd)
	case "bw":
		return m.cmdBreakpointWhen(cmd)
	case "bc":
		return m.cmdBreakpointClear(cmd)
	case "bl":
		return m.cmdBreakpointList(cmd)
	case "wr":
		return m.cmdWatchpointSet(cmd, WatchRead)
	case "ww":
		return m.cmdWatchpointSet(cmd, WatchWrite)
	case "wc":
		return m.cmdWatchpointClear(cmd)
	case "wl":
		return m.cmdWatchpointList(cmd)
	case "trace":
		return m.cmdTrace(cmd)
	case "find":
		return m.cmdFind(cmd)
	case "uart":
		return m.cmdUART(cmd)
	case "in":
		return m.cmdInput(cmd, input)
	case "inb":
		return m.cmdInputBytes(cmd)
	case "screen":
		return m.cmdScreen(cmd)
	case "sym":
		return m.cmdSymbols(cmd)
	case "load":
		return m.cmdLoad(cmd)
	case "reset":
		m.session.Reset()
		m.saveCurrentRegs()
		m.appendOutput(fmt.Sprintf("Reset, pc=$%08X", m.session.PC()), colorCyan)
		return false
	case "script":
		return m.cmdScript(cmd)
	case "lua":
		return m.cmdLua(input)
	case "macro":
		return m.cmdMacro(cmd)
	case "x", "q":
		return true
	case "?", "help":
		return m.cmdHelp(cmd)
	default:
		if cmds, ok := m.macros[cmd.Name]; ok {
			return m.executeMacro(cmds)
		}
		m.appendOutput(fmt.Sprintf("Unknown command: %s", cmd.Name), colorRed)
		return false
	}
}

func (m *MachineMonitor) cmdRegisters(cmd MonitorCommand) bool {
	if len(cmd.Args) >= 2 {
		name := cmd.Args[0]
		val, ok := m.EvalAddress(cmd.Args[1])
		if !ok {
			m.appendOutput(fmt.Sprintf("Invalid value: %s", cmd.Args[1]), colorRed)
			return false
		}
		if err := m.session.SetRegister(name, val); err != nil {
			m.appendOutput(fmt.Sprintf("Unknown register: %s", name), colorRed)
			return false
		}
		m.appendOutput(fmt.Sprintf("%s = $%08X", strings.ToLower(name), val), colorGreen)
		return false
	}
	m.showRegisters()
	return false
}

func (m *MachineMonitor) showRegisters() {
	regs := m.session.Registers()
	var row []string
	var rowColor uint32 = colorWhite
	for _, r := range regs {
		if r.Group != "general" {
			color := uint32(colorWhite)
			if prev, ok := m.prevRegs[r.Name]; ok && prev != r.Value {
				color = colorGreen
			}
			m.appendOutput(fmt.Sprintf("%-8s $%08X", r.Name, r.Value), color)
			continue
		}
		if prev, ok := m.prevRegs[r.Name]; ok && prev != r.Value {
			rowColor = colorGreen
		}
		row = append(row, fmt.Sprintf("%-4s $%08X", r.Name, r.Value))
		if len(row) == 4 {
			m.appendOutput(strings.Join(row, "  "), rowColor)
			row, rowColor = row[:0], colorWhite
		}
	}
	m.saveCurrentRegs()
}

func (m *MachineMonitor) cmdDisassemble(cmd MonitorCommand) bool {
	addr := m.session.PC()
	count := 16
	if len(cmd.Args) >= 1 {
		v, ok := m.EvalAddress(cmd.Args[0])
		if !ok {
			m.appendOutput(fmt.Sprintf("Invalid address: %s", cmd.Args[0]), colorRed)
			return false
		}
		addr = v
	}
	if len(cmd.Args) >= 2 {
		if v, ok := ParseAddress(cmd.Args[1]); ok {
			count = int(v)
		}
	}
	m.showDisassemblyAt(addr, count)
	return false
}

func (m *MachineMonitor) showDisassemblyAt(addr uint32, count int) {
	lines := m.session.Disassemble(addr, count)
	if len(lines) == 0 {
		m.appendOutput(fmt.Sprintf("$%08X: <unmapped>", addr), colorRed)
		return
	}
	for _, line := range lines {
		if line.Label != "" {
			m.appendOutput(line.Label+":", colorYellow)
		}
		marker, color := "  ", uint32(colorWhite)
		if line.IsPC {
			marker, color = "> ", colorCyan
		}
		m.appendOutput(fmt.Sprintf("%s$%08X  %s  %s", marker, line.Address, line.HexBytes, line.Mnemonic), color)
	}
}

func (m *MachineMonitor) cmdMemoryDump(cmd MonitorCommand) bool {
	addr := m.session.PC()
	lines := 8
	if len(cmd.Args) >= 1 {
		v, ok := m.EvalAddress(cmd.Args[0])
		if !ok {
			m.appendOutput(fmt.Sprintf("Invalid address: %s", cmd.Args[0]), colorRed)
			return false
		}
		addr = v
	}
	if len(cmd.Args) >= 2 {
		if v, ok := ParseAddress(cmd.Args[1]); ok {
			lines = int(v)
		}
	}

	for range lines {
		data, err := m.session.Peek(addr, 16)
		if err != nil {
			m.appendOutput(fmt.Sprintf("$%08X: <unmapped>", addr), colorRed)
			break
		}
		var hexParts []string
		ascii := make([]byte, 0, 16)
		for _, b := range data {
			hexParts = append(hexParts, fmt.Sprintf("%02X", b))
			if b >= 0x20 && b < 0x7F {
				ascii = append(ascii, b)
			} else {
				ascii = append(ascii, '.')
			}
		}
		hexStr := strings.Join(hexParts[:8], " ") + "  " + strings.Join(hexParts[8:], " ")
		m.appendOutput(fmt.Sprintf("$%08X: %s  %s", addr, hexStr, ascii), colorWhite)
		addr += 16
	}
	return false
}

func (m *MachineMonitor) cmdWrite(cmd MonitorCommand) bool {
	if len(cmd.Args) < 2 {
		m.appendOutput("Usage: w <addr> <bytes..>", colorRed)
		return false
	}
	addr, ok := m.EvalAddress(cmd.Args[0])
	if !ok {
		m.appendOutput(fmt.Sprintf("Invalid address: %s", cmd.Args[0]), colorRed)
		return false
	}
	var data []byte
	for _, arg := range cmd.Args[1:] {
		v, ok := ParseAddress(arg)
		if !ok || v > 0xFF {
			m.appendOutput(fmt.Sprintf("Invalid byte: %s", arg), colorRed)
			return false
		}
		data = append(data, byte(v))
	}
	if err := m.session.Poke(addr, data); err != nil {
		m.appendOutput(fmt.Sprintf("Error: %s", err), colorRed)
		return false
	}
	m.appendOutput(fmt.Sprintf("Wrote %d byte(s) at $%08X", len(data), addr), colorCyan)
	return false
}

// countArg parses an optional step count, falling back to def.
func countArg(args []string, def uint64) (uint64, bool) {
	if len(args) == 0 {
		return def, true
	}
	v, ok := ParseAddress(args[0])
	return uint64(v), ok
}

func (m *MachineMonitor) cmdStep(cmd MonitorCommand) bool {
	n, ok := countArg(cmd.Args, 1)
	if !ok {
		m.appendOutput(fmt.Sprintf("Invalid count: %s", cmd.Args[0]), colorRed)
		return false
	}
	m.report(m.session.Step(n))
	return false
}

func (m *MachineMonitor) cmdGo(cmd MonitorCommand) bool {
	if len(cmd.Args) >= 1 {
		addr, ok := m.EvalAddress(cmd.Args[0])
		if !ok {
			m.appendOutput(fmt.Sprintf("Invalid address: %s", cmd.Args[0]), colorRed)
			return false
		}
		m.session.SetPC(addr)
	}
	m.report(m.session.Run(DEFAULT_RUN_STEPS))
	return false
}

func (m *MachineMonitor) cmdRunUntilTX(cmd MonitorCommand) bool {
	n, ok := countArg(cmd.Args, DEFAULT_RUN_STEPS)
	if !ok {
		m.appendOutput(fmt.Sprintf("Invalid count: %s", cmd.Args[0]), colorRed)
		return false
	}
	m.report(m.session.RunUntilTXAvailable(n))
	return false
}

func (m *MachineMonitor) cmdRunUntilPoll(cmd MonitorCommand) bool {
	n, ok := countArg(cmd.Args, DEFAULT_RUN_STEPS)
	if !ok {
		m.appendOutput(fmt.Sprintf("Invalid count: %s", cmd.Args[0]), colorRed)
		return false
	}
	m.report(m.session.RunUntilRXStatusPolled(n))
	return false
}

// report prints a run result, the registers that changed and the next
// instruction.
func (m *MachineMonitor) report(r ExecutionResult) {
	color := uint32(colorCyan)
	switch r.Status {
	case StatusError:
		color = colorRed
	case StatusHalted:
		color = colorYellow
	}
	m.appendOutput(r.String(), color)

	for _, reg := range m.session.Registers() {
		if prev, ok := m.prevRegs[reg.Name]; ok && prev != reg.Value && reg.Name != "pc" {
			m.appendOutput(fmt.Sprintf("  %s: $%08X -> $%08X", reg.Name, prev, reg.Value), colorGreen)
		}
	}
	m.saveCurrentRegs()
	m.showDisassemblyAt(m.session.PC(), 1)
}

func (m *MachineMonitor) cmdBreakpointSet(cmd MonitorCommand) bool {
	if len(cmd.Args) < 1 {
		m.appendOutput("Usage: b <addr> [condition]", colorRed)
		return false
	}
	addr, ok := m.EvalAddress(cmd.Args[0])
	if !ok {
		m.appendOutput(fmt.Sprintf("Invalid address: %s", cmd.Args[0]), colorRed)
		return false
	}

	var cond *BreakpointCondition
	if len(cmd.Args) >= 2 {
		var err error
		cond, err = ParseCondition(strings.Join(cmd.Args[1:], " "))
		if err != nil {
			m.appendOutput(fmt.Sprintf("Invalid condition: %s", err), colorRed)
			return false
		}
	}
	bp := m.session.AddBreakpoint(addr, cond)
	if cond != nil {
		m.appendOutput(fmt.Sprintf("Breakpoint %d at $%08X if %s", bp.ID, addr, FormatCondition(cond)), colorCyan)
	} else {
		m.appendOutput(fmt.Sprintf("Breakpoint %d at $%08X", bp.ID, addr), colorCyan)
	}
	return false
}

func (m *MachineMonitor) cmdBreakpointWhen(cmd MonitorCommand) bool {
	if len(cmd.Args) < 1 {
		m.appendOutput("Usage: bw <condition>", colorRed)
		return false
	}
	cond, err := ParseCondition(strings.Join(cmd.Args, " "))
	if err != nil {
		m.appendOutput(fmt.Sprintf("Invalid condition: %s", err), colorRed)
		return false
	}
	bp := m.session.AddConditionBreakpoint(cond)
	m.appendOutput(fmt.Sprintf("Breakpoint %d when %s", bp.ID, FormatCondition(cond)), colorCyan)
	return false
}

func (m *MachineMonitor) cmdBreakpointClear(cmd MonitorCommand) bool {
	if len(cmd.Args) < 1 {
		m.appendOutput("Usage: bc <id|*>", colorRed)
		return false
	}
	if cmd.Args[0] == "*" {
		m.session.ClearBreakpoints()
		m.appendOutput("All breakpoints cleared", colorCyan)
		return false
	}
	id, err := strconv.Atoi(cmd.Args[0])
	if err != nil {
		m.appendOutput(fmt.Sprintf("Invalid breakpoint id: %s", cmd.Args[0]), colorRed)
		return false
	}
	if m.session.RemoveBreakpoint(id) {
		m.appendOutput(fmt.Sprintf("Breakpoint %d cleared", id), colorCyan)
	} else {
		m.appendOutput(fmt.Sprintf("No breakpoint %d", id), colorRed)
	}
	return false
}

func (m *MachineMonitor) cmdBreakpointList(_ MonitorCommand) bool {
	bps := m.session.Breakpoints()
	if len(bps) == 0 {
		m.appendOutput("No breakpoints", colorDim)
		return false
	}
	for _, bp := range bps {
		where := "anywhere"
		if bp.HasAddr {
			where = fmt.Sprintf("$%08X", bp.Addr)
			if name := m.session.Symbols().Format(bp.Addr); name != "" {
				where += " <" + name + ">"
			}
		}
		condStr := ""
		if bp.Cond != nil {
			condStr = " if " + FormatCondition(bp.Cond)
		}
		m.appendOutput(fmt.Sprintf("%3d  %s%s (hits:%d)", bp.ID, where, condStr, bp.HitCount), colorCyan)
	}
	return false
}

func (m *MachineMonitor) cmdWatchpointSet(cmd MonitorCommand, kind WatchKind) bool {
	if len(cmd.Args) < 1 {
		m.appendOutput(fmt.Sprintf("Usage: %s <addr>", cmd.Name), colorRed)
		return false
	}
	addr, ok := m.EvalAddress(cmd.Args[0])
	if !ok {
		m.appendOutput(fmt.Sprintf("Invalid address: %s", cmd.Args[0]), colorRed)
		return false
	}
	wp := m.session.AddWatchpoint(addr, kind)
	m.appendOutput(fmt.Sprintf("Watchpoint %d: %s $%08X", wp.ID, kind, addr), colorCyan)
	return false
}

func (m *MachineMonitor) cmdWatchpointClear(cmd MonitorCommand) bool {
	if len(cmd.Args) < 1 {
		m.appendOutput("Usage: wc <id|*>", colorRed)
		return false
	}
	if cmd.Args[0] == "*" {
		m.session.ClearWatchpoints()
		m.appendOutput("All watchpoints cleared", colorCyan)
		return false
	}
	id, err := strconv.Atoi(cmd.Args[0])
	if err != nil {
		m.appendOutput(fmt.Sprintf("Invalid watchpoint id: %s", cmd.Args[0]), colorRed)
		return false
	}
	if m.session.RemoveWatchpoint(id) {
		m.appendOutput(fmt.Sprintf("Watchpoint %d cleared", id), colorCyan)
	} else {
		m.appendOutput(fmt.Sprintf("No watchpoint %d", id), colorRed)
	}
	return false
}

func (m *MachineMonitor) cmdWatchpointList(_ MonitorCommand) bool {
	wps := m.session.Watchpoints()
	if len(wps) == 0 {
		m.appendOutput("No watchpoints", colorDim)
		return false
	}
	for _, wp := range wps {
		m.appendOutput(fmt.Sprintf("%3d  %-5s $%08X (hits:%d)", wp.ID, wp.Kind, wp.Addr, wp.HitCount), colorCyan)
	}
	return false
}

func (m *MachineMonitor) cmdTrace(cmd MonitorCommand) bool {
	trace := m.session.Trace()
	n := 16
	if len(cmd.Args) >= 1 {
		switch cmd.Args[0] {
		case "on":
			if trace.Capacity() == 0 {
				m.appendOutput("Trace buffer has no capacity", colorRed)
				return false
			}
			trace.SetEnabled(true)
			m.appendOutput("Trace on", colorCyan)
			return false
		case "off":
			trace.SetEnabled(false)
			m.appendOutput("Trace off", colorCyan)
			return false
		case "clear":
			trace.Clear()
			m.appendOutput("Trace cleared", colorCyan)
			return false
		}
		v, ok := ParseAddress(cmd.Args[0])
		if !ok {
			m.appendOutput("Usage: trace [count|on|off|clear]", colorRed)
			return false
		}
		n = int(v)
	}

	entries := m.session.TraceDump(n)
	if len(entries) == 0 {
		m.appendOutput("Trace is empty", colorDim)
		return false
	}
	for _, e := range entries {
		m.appendOutput(m.formatTraceEntry(e), colorWhite)
	}
	return false
}

func (m *MachineMonitor) formatTraceEntry(e TraceEntry) string {
	return fmt.Sprintf("#%-6d $%08X  %08x  %s", e.Index, e.PC, e.Raw, DisassembleWord(e.Raw, e.PC))
}

// cmdFind runs a reverse trace search: find <reg|pc> [==|!=] <value> [from <index>].
func (m *MachineMonitor) cmdFind(cmd MonitorCommand) bool {
	usage := "Usage: find <reg|pc> [==|!=] <value> [from <index>]"
	args := cmd.Args
	if len(args) < 2 {
		m.appendOutput(usage, colorRed)
		return false
	}

	var q TraceQuery
	if strings.EqualFold(args[0], "pc") {
		q.PC = true
	} else {
		r, err := ParseRegister(args[0])
		if err != nil {
			m.appendOutput(fmt.Sprintf("Unknown register: %s", args[0]), colorRed)
			return false
		}
		q.Reg = r
	}
	args = args[1:]
	switch args[0] {
	case "==":
		args = args[1:]
	case "!=":
		q.NotEqual = true
		args = args[1:]
	}
	if len(args) < 1 {
		m.appendOutput(usage, colorRed)
		return false
	}
	v, ok := m.EvalAddress(args[0])
	if !ok {
		m.appendOutput(fmt.Sprintf("Invalid value: %s", args[0]), colorRed)
		return false
	}
	q.Value = v

	var start *uint64
	if len(args) >= 3 && args[1] == "from" {
		idx, err := strconv.ParseUint(strings.TrimPrefix(args[2], "#"), 10, 64)
		if err != nil {
			m.appendOutput(fmt.Sprintf("Invalid index: %s", args[2]), colorRed)
			return false
		}
		start = &idx
	}

	e, found := m.session.TraceSearch(q, start)
	if !found {
		m.appendOutput("Not found", colorYellow)
		return false
	}
	m.appendOutput(m.formatTraceEntry(e), colorGreen)
	return false
}

func (m *MachineMonitor) cmdUART(cmd MonitorCommand) bool {
	id := ConsoleUART
	all := false
	for _, arg := range cmd.Args {
		if arg == "all" {
			all = true
			continue
		}
		u, err := ParseUARTID(arg)
		if err != nil {
			m.appendOutput(err.Error(), colorRed)
			return false
		}
		id = u
	}

	var data []byte
	if all {
		data = m.session.UARTReadAll(id)
	} else {
		data = m.session.UARTReadNew(id)
	}
	if len(data) == 0 {
		m.appendOutput(fmt.Sprintf("%s uart: no output", id), colorDim)
		return false
	}
	text := strings.TrimSuffix(decodeTX(data), "\n")
	for line := range strings.SplitSeq(text, "\n") {
		m.appendOutput(strings.TrimSuffix(line, "\r"), colorWhite)
	}
	return false
}

// cmdInput injects the rest of the line plus a newline on the console.
func (m *MachineMonitor) cmdInput(cmd MonitorCommand, raw string) bool {
	text := strings.TrimSpace(raw)
	text = strings.TrimSpace(text[len(cmd.Name):])
	if err := m.session.UARTInject(ConsoleUART, []byte(text+"\n")); err != nil {
		m.appendOutput(fmt.Sprintf("Error: %s", err), colorRed)
		return false
	}
	m.appendOutput(fmt.Sprintf("Queued %d byte(s)", len(text)+1), colorCyan)
	return false
}

func (m *MachineMonitor) cmdInputBytes(cmd MonitorCommand) bool {
	if len(cmd.Args) == 0 {
		m.appendOutput("Usage: inb <bytes..>", colorRed)
		return false
	}
	var data []byte
	for _, arg := range cmd.Args {
		v, ok := ParseAddress(arg)
		if !ok || v > 0xFF {
			m.appendOutput(fmt.Sprintf("Invalid byte: %s", arg), colorRed)
			return false
		}
		data = append(data, byte(v))
	}
	if err := m.session.UARTInject(ConsoleUART, data); err != nil {
		m.appendOutput(fmt.Sprintf("Error: %s", err), colorRed)
		return false
	}
	m.appendOutput(fmt.Sprintf("Queued %d byte(s)", len(data)), colorCyan)
	return false
}

func (m *MachineMonitor) cmdScreen(cmd MonitorCommand) bool {
	screen := m.session.Screen()
	if screen == nil {
		m.appendOutput("Screen model disabled", colorRed)
		return false
	}
	if len(cmd.Args) >= 2 && cmd.Args[0] == "png" {
		f, err := os.Create(cmd.Args[1])
		if err != nil {
			m.appendOutput(fmt.Sprintf("Error: %s", err), colorRed)
			return false
		}
		err = WriteScreenPNG(f, screen)
		if cerr := f.Close(); err == nil {
			err = cerr
		}
		if err != nil {
			m.appendOutput(fmt.Sprintf("Error: %s", err), colorRed)
			return false
		}
		m.appendOutput(fmt.Sprintf("Screen saved to %s", cmd.Args[1]), colorCyan)
		return false
	}

	border := "+" + strings.Repeat("-", VT100_COLS) + "+"
	m.appendOutput(border, colorDim)
	for _, line := range screen.Lines() {
		m.appendOutput(fmt.Sprintf("|%-*s|", VT100_COLS, line), colorWhite)
	}
	m.appendOutput(border, colorDim)
	x, y := screen.Cursor()
	m.appendOutput(fmt.Sprintf("cursor %d,%d", x, y), colorDim)
	return false
}

func (m *MachineMonitor) cmdSymbols(cmd MonitorCommand) bool {
	syms := m.session.Symbols()
	if len(cmd.Args) == 0 {
		all := syms.All()
		if len(all) == 0 {
			m.appendOutput("No symbols", colorDim)
		}
		for _, s := range all {
			m.appendOutput(fmt.Sprintf("$%08X  %-6d %s", s.Addr, s.Size, s.Name), colorWhite)
		}
		return false
	}
	if s, ok := syms.Lookup(cmd.Args[0]); ok {
		m.appendOutput(fmt.Sprintf("%s = $%08X", s.Name, s.Addr), colorCyan)
		return false
	}
	addr, ok := ParseAddress(cmd.Args[0])
	if !ok {
		m.appendOutput(fmt.Sprintf("Unknown symbol: %s", cmd.Args[0]), colorRed)
		return false
	}
	if name := syms.Format(addr); name != "" {
		m.appendOutput(fmt.Sprintf("$%08X = %s", addr, name), colorCyan)
	} else {
		m.appendOutput(fmt.Sprintf("$%08X has no symbol", addr), colorYellow)
	}
	return false
}

func (m *MachineMonitor) cmdLoad(cmd MonitorCommand) bool {
	if len(cmd.Args) < 1 {
		m.appendOutput("Usage: load <elf-file> | load <file> <addr>", colorRed)
		return false
	}
	if len(cmd.Args) >= 2 {
		addr, ok := m.EvalAddress(cmd.Args[1])
		if !ok {
			m.appendOutput(fmt.Sprintf("Invalid address: %s", cmd.Args[1]), colorRed)
			return false
		}
		data, err := os.ReadFile(cmd.Args[0])
		if err == nil {
			err = m.session.LoadBytes(addr, data)
		}
		if err != nil {
			m.appendOutput(fmt.Sprintf("Error: %s", err), colorRed)
			return false
		}
		m.appendOutput(fmt.Sprintf("Loaded %d byte(s) at $%08X", len(data), addr), colorCyan)
		return false
	}
	img, err := m.session.LoadELFFile(cmd.Args[0])
	if err != nil {
		m.appendOutput(fmt.Sprintf("Error: %s", err), colorRed)
		return false
	}
	m.appendOutput(fmt.Sprintf("Loaded %s: entry $%08X, %d segment(s), %d symbol(s)",
		filepath.Base(cmd.Args[0]), img.Entry, len(img.Segments), len(img.Symbols)), colorCyan)
	return false
}

func (m *MachineMonitor) cmdScript(cmd MonitorCommand) bool {
	if len(cmd.Args) < 1 {
		m.appendOutput("Usage: script <filename>", colorRed)
		return false
	}
	if strings.HasSuffix(cmd.Args[0], ".lua") {
		if err := m.scriptEngine().RunFile(cmd.Args[0]); err != nil {
			m.appendOutput(fmt.Sprintf("Error: %s", err), colorRed)
		}
		return false
	}

	data, err := os.ReadFile(cmd.Args[0])
	if err != nil {
		m.appendOutput(fmt.Sprintf("Error: %s", err), colorRed)
		return false
	}

	m.scriptDepth++
	defer func() { m.scriptDepth-- }()
	if m.scriptDepth > 8 {
		m.appendOutput("Script recursion limit reached", colorRed)
		return false
	}
	for line := range strings.SplitSeq(string(data), "\n") {
		line = strings.TrimSpace(line)
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		if m.ExecuteCommand(line) {
			return true
		}
	}
	return false
}

func (m *MachineMonitor) cmdLua(raw string) bool {
	code := strings.TrimSpace(strings.TrimSpace(raw)[len("lua"):])
	if code == "" {
		m.appendOutput("Usage: lua <code>", colorRed)
		return false
	}
	if err := m.scriptEngine().RunString(code); err != nil {
		m.appendOutput(fmt.Sprintf("Error: %s", err), colorRed)
	}
	return false
}

// scriptEngine starts the Lua state on first use; its print output lands
// in the scrollback.
func (m *MachineMonitor) scriptEngine() *ScriptEngine {
	if m.script == nil {
		m.script = NewScriptEngine(m.session)
		m.script.SetPrinter(func(s string) { m.appendOutput(s, colorWhite) })
	}
	return m.script
}

// Close releases the Lua state, if one was started.
func (m *MachineMonitor) Close() {
	if m.script != nil {
		m.script.Close()
		m.script = nil
	}
}

func (m *MachineMonitor) cmdMacro(cmd MonitorCommand) bool {
	if len(cmd.Args) < 2 {
		m.appendOutput("Usage: macro <name> <cmd1> ; <cmd2> ; ...", colorRed)
		return false
	}
	name := strings.ToLower(cmd.Args[0])
	var cleaned []string
	for c := range strings.SplitSeq(strings.Join(cmd.Args[1:], " "), ";") {
		if c = strings.TrimSpace(c); c != "" {
			cleaned = append(cleaned, c)
		}
	}
	m.macros[name] = cleaned
	m.appendOutput(fmt.Sprintf("Macro '%s' defined (%d commands)", name, len(cleaned)), colorCyan)
	return false
}

func (m *MachineMonitor) executeMacro(cmds []string) bool {
	m.scriptDepth++
	defer func() { m.scriptDepth-- }()
	if m.scriptDepth > 8 {
		m.appendOutput("Macro recursion limit reached", colorRed)
		return false
	}
	return slices.ContainsFunc(cmds, m.ExecuteCommand)
}

func (m *MachineMonitor) cmdHelp(_ MonitorCommand) bool {
	helpLines := []string{
		"Machine Monitor Commands:",
		"  r                  Show registers",
		"  r <name> <value>   Set register (pc included)",
		"  d [addr] [count]   Disassemble",
		"  m [addr] [lines]   Memory dump (hex+ASCII)",
		"  w <addr> <bytes..> Write bytes",
		"  s [count]          Step instructions",
		"  g [addr]           Run until halt or stop event",
		"  u [max]            Run until UART output is available",
		"  p [max]            Run until the guest polls console RX",
		"  b <addr> [cond]    Set breakpoint (optional condition)",
		"  bw <cond>          Break whenever condition holds",
		"  bc <id|*>          Clear breakpoint(s)",
		"  bl                 List breakpoints",
		"  wr <addr>          Set read watchpoint",
		"  ww <addr>          Set write watchpoint",
		"  wc <id|*>          Clear watchpoint(s)",
		"  wl                 List watchpoints",
		"  trace [n|on|off|clear]  Show or control the trace buffer",
		"  find <reg|pc> [==|!=] <value> [from <index>]  Reverse trace search",
		"  uart [debug|console] [all]  Show UART output",
		"  in <text>          Send a line to the console UART",
		"  inb <bytes..>      Send raw bytes to the console UART",
		"  screen [png <file>] Show or save the VT100 screen",
		"  sym [name|addr]    Symbol lookup",
		"  load <elf> | load <file> <addr>  Load a program",
		"  reset              Reset the machine (breakpoints kept)",
		"  script <file>      Run command script (.lua runs Lua)",
		"  lua <code>         Run Lua code",
		"  macro <name> <cmds..> Define macro (;-separated)",
		"  x                  Exit monitor",
		"",
		"Addresses: $hex, 0xhex, bare hex, #decimal, symbol, reg, expr+expr",
		"Conditions: reg==val, pc==val, [$addr]==val, hitcount>val",
	}
	for _, line := range helpLines {
		m.appendOutput(line, colorCyan)
	}
	return false
}
