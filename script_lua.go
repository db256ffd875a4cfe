// script_lua.go - Lua scripting for simulator sessions

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

/*
script_lua.go - Lua scripting for simulator sessions

Scripts see a global table "sim" whose functions map onto session
operations. Numbers cross the boundary as Lua numbers holding the unsigned
32-bit value; negative arguments are taken modulo 2^32 so sim.setreg("a0", -1)
does what it says. Guest memory moves as Lua strings.

	sim.load_elf(path)                  -> entry
	sim.step([n]) / sim.run([max])      -> result table
	sim.run_until_tx([max])             -> result table
	sim.run_until_rx_poll([max])        -> result table
	sim.reg(name) / sim.setreg(name, v)
	sim.pc() / sim.setpc(v)
	sim.peek(addr, n) / sim.poke(addr, bytes)
	sim.read32(addr) / sim.write32(addr, v)
	sim.uart_read([uart]) / sim.uart_all([uart]) / sim.inject(text)
	sim.screen()
	sim.breakpoint(addr [, cond]) / sim.delete_breakpoint(id)
	sim.watch(addr, "read"|"write") / sim.unwatch(id)
	sim.find(reg|"pc", value [, not_equal]) -> index, pc | nil
	sim.symbol(name) -> addr | nil
	sim.reset()

A result table has the fields status, retired, pc and message, plus
exit_code once the guest has exited.
*/

package rvsim

import (
	"fmt"
	"io"
	"os"
	"strings"

	lua "github.com/yuin/gopher-lua"
)

type ScriptEngine struct {
	session *Session
	L       *lua.LState
	print   func(string)
}

// NewScriptEngine opens a Lua state bound to s. Close it when done.
func NewScriptEngine(s *Session) *ScriptEngine {
	e := &ScriptEngine{
		session: s,
		L:       lua.NewState(),
	}
	e.SetOutput(os.Stdout)
	e.register()
	return e
}

// SetPrinter routes Lua print() output, one call per printed line.
func (e *ScriptEngine) SetPrinter(fn func(string)) {
	e.print = fn
}

// SetOutput sends print() output to w.
func (e *ScriptEngine) SetOutput(w io.Writer) {
	e.print = func(s string) { fmt.Fprintln(w, s) }
}

func (e *ScriptEngine) Close() {
	e.L.Close()
}

// RunFile executes a Lua script file.
func (e *ScriptEngine) RunFile(path string) error {
	if err := e.L.DoFile(path); err != nil {
		return fmt.Errorf("lua %s: %w", path, err)
	}
	return nil
}

// RunString executes a chunk of Lua source.
func (e *ScriptEngine) RunString(code string) error {
	if err := e.L.DoString(code); err != nil {
		return fmt.Errorf("lua: %w", err)
	}
	return nil
}

func (e *ScriptEngine) register() {
	L := e.L
	L.SetGlobal("print", L.NewFunction(e.luaPrint))

	sim := L.NewTable()
	funcs := map[string]lua.LGFunction{
		"load_elf":          e.luaLoadELF,
		"step":              e.luaStep,
		"run":               e.luaRun,
		"run_until_tx":      e.luaRunUntilTX,
		"run_until_rx_poll": e.luaRunUntilPoll,
		"reg":               e.luaReg,
		"setreg":            e.luaSetReg,
		"pc":                e.luaPC,
		"setpc":             e.luaSetPC,
		"peek":              e.luaPeek,
		"poke":              e.luaPoke,
		"read32":            e.luaRead32,
		"write32":           e.luaWrite32,
		"uart_read":         e.luaUARTRead,
		"uart_all":          e.luaUARTAll,
		"inject":            e.luaInject,
		"screen":            e.luaScreen,
		"breakpoint":        e.luaBreakpoint,
		"delete_breakpoint": e.luaDeleteBreakpoint,
		"watch":             e.luaWatch,
		"unwatch":           e.luaUnwatch,
		"find":              e.luaFind,
		"symbol":            e.luaSymbol,
		"reset":             e.luaReset,
	}
	for name, fn := range funcs {
		L.SetField(sim, name, L.NewFunction(fn))
	}
	L.SetGlobal("sim", sim)
}

func checkU32(L *lua.LState, n int) uint32 {
	return uint32(int64(L.CheckNumber(n)))
}

func optU64(L *lua.LState, n int, def uint64) uint64 {
	if L.GetTop() < n || L.Get(n) == lua.LNil {
		return def
	}
	v := int64(L.CheckNumber(n))
	if v < 0 {
		L.ArgError(n, "count must not be negative")
	}
	return uint64(v)
}

func optUART(L *lua.LState, n int) UARTID {
	if L.GetTop() < n || L.Get(n) == lua.LNil {
		return ConsoleUART
	}
	id, err := ParseUARTID(L.CheckString(n))
	if err != nil {
		L.ArgError(n, err.Error())
	}
	return id
}

func (e *ScriptEngine) luaPrint(L *lua.LState) int {
	parts := make([]string, L.GetTop())
	for i := range parts {
		parts[i] = L.Get(i + 1).String()
	}
	e.print(strings.Join(parts, "\t"))
	return 0
}

func (e *ScriptEngine) pushResult(L *lua.LState, r ExecutionResult) int {
	t := L.NewTable()
	t.RawSetString("status", lua.LString(r.Status.String()))
	t.RawSetString("retired", lua.LNumber(r.Retired))
	t.RawSetString("pc", lua.LNumber(r.PC))
	t.RawSetString("message", lua.LString(r.Message))
	if r.Exited {
		t.RawSetString("exit_code", lua.LNumber(r.ExitCode))
	}
	L.Push(t)
	return 1
}

func (e *ScriptEngine) luaLoadELF(L *lua.LState) int {
	img, err := e.session.LoadELFFile(L.CheckString(1))
	if err != nil {
		L.RaiseError("%s", err)
		return 0
	}
	L.Push(lua.LNumber(img.Entry))
	return 1
}

func (e *ScriptEngine) luaStep(L *lua.LState) int {
	return e.pushResult(L, e.session.Step(optU64(L, 1, 1)))
}

func (e *ScriptEngine) luaRun(L *lua.LState) int {
	return e.pushResult(L, e.session.Run(optU64(L, 1, DEFAULT_RUN_STEPS)))
}

func (e *ScriptEngine) luaRunUntilTX(L *lua.LState) int {
	return e.pushResult(L, e.session.RunUntilTXAvailable(optU64(L, 1, DEFAULT_RUN_STEPS)))
}

func (e *ScriptEngine) luaRunUntilPoll(L *lua.LState) int {
	return e.pushResult(L, e.session.RunUntilRXStatusPolled(optU64(L, 1, DEFAULT_RUN_STEPS)))
}

func (e *ScriptEngine) luaReg(L *lua.LState) int {
	v, err := e.session.GetRegister(L.CheckString(1))
	if err != nil {
		L.ArgError(1, err.Error())
		return 0
	}
	L.Push(lua.LNumber(v))
	return 1
}

func (e *ScriptEngine) luaSetReg(L *lua.LState) int {
	if err := e.session.SetRegister(L.CheckString(1), checkU32(L, 2)); err != nil {
		L.ArgError(1, err.Error())
	}
	return 0
}

func (e *ScriptEngine) luaPC(L *lua.LState) int {
	L.Push(lua.LNumber(e.session.PC()))
	return 1
}

func (e *ScriptEngine) luaSetPC(L *lua.LState) int {
	e.session.SetPC(checkU32(L, 1))
	return 0
}

func (e *ScriptEngine) luaPeek(L *lua.LState) int {
	n := L.CheckInt(2)
	if n < 0 {
		L.ArgError(2, "length must not be negative")
		return 0
	}
	data, err := e.session.Peek(checkU32(L, 1), n)
	if err != nil {
		L.RaiseError("%s", err)
		return 0
	}
	L.Push(lua.LString(data))
	return 1
}

func (e *ScriptEngine) luaPoke(L *lua.LState) int {
	if err := e.session.Poke(checkU32(L, 1), []byte(L.CheckString(2))); err != nil {
		L.RaiseError("%s", err)
	}
	return 0
}

func (e *ScriptEngine) luaRead32(L *lua.LState) int {
	v, err := e.session.ReadWord(checkU32(L, 1))
	if err != nil {
		L.RaiseError("%s", err)
		return 0
	}
	L.Push(lua.LNumber(v))
	return 1
}

func (e *ScriptEngine) luaWrite32(L *lua.LState) int {
	if err := e.session.WriteWord(checkU32(L, 1), checkU32(L, 2)); err != nil {
		L.RaiseError("%s", err)
	}
	return 0
}

func (e *ScriptEngine) luaUARTRead(L *lua.LState) int {
	L.Push(lua.LString(e.session.UARTReadNew(optUART(L, 1))))
	return 1
}

func (e *ScriptEngine) luaUARTAll(L *lua.LState) int {
	L.Push(lua.LString(e.session.UARTReadAll(optUART(L, 1))))
	return 1
}

func (e *ScriptEngine) luaInject(L *lua.LState) int {
	if err := e.session.UARTInject(ConsoleUART, []byte(L.CheckString(1))); err != nil {
		L.RaiseError("%s", err)
	}
	return 0
}

func (e *ScriptEngine) luaScreen(L *lua.LState) int {
	L.Push(lua.LString(e.session.ScreenDump()))
	return 1
}

func (e *ScriptEngine) luaBreakpoint(L *lua.LState) int {
	addr := checkU32(L, 1)
	var cond *BreakpointCondition
	if L.GetTop() >= 2 && L.Get(2) != lua.LNil {
		var err error
		if cond, err = ParseCondition(L.CheckString(2)); err != nil {
			L.ArgError(2, err.Error())
			return 0
		}
	}
	bp := e.session.AddBreakpoint(addr, cond)
	L.Push(lua.LNumber(bp.ID))
	return 1
}

func (e *ScriptEngine) luaDeleteBreakpoint(L *lua.LState) int {
	L.Push(lua.LBool(e.session.RemoveBreakpoint(L.CheckInt(1))))
	return 1
}

func (e *ScriptEngine) luaWatch(L *lua.LState) int {
	addr := checkU32(L, 1)
	kind, err := ParseWatchKind(L.OptString(2, "write"))
	if err != nil {
		L.ArgError(2, err.Error())
		return 0
	}
	wp := e.session.AddWatchpoint(addr, kind)
	L.Push(lua.LNumber(wp.ID))
	return 1
}

func (e *ScriptEngine) luaUnwatch(L *lua.LState) int {
	L.Push(lua.LBool(e.session.RemoveWatchpoint(L.CheckInt(1))))
	return 1
}

func (e *ScriptEngine) luaFind(L *lua.LState) int {
	var q TraceQuery
	target := L.CheckString(1)
	if strings.EqualFold(target, "pc") {
		q.PC = true
	} else {
		r, err := ParseRegister(target)
		if err != nil {
			L.ArgError(1, err.Error())
			return 0
		}
		q.Reg = r
	}
	q.Value = checkU32(L, 2)
	q.NotEqual = L.OptBool(3, false)

	entry, ok := e.session.TraceSearch(q, nil)
	if !ok {
		L.Push(lua.LNil)
		return 1
	}
	L.Push(lua.LNumber(entry.Index))
	L.Push(lua.LNumber(entry.PC))
	return 2
}

func (e *ScriptEngine) luaSymbol(L *lua.LState) int {
	sym, ok := e.session.Symbols().Lookup(L.CheckString(1))
	if !ok {
		L.Push(lua.LNil)
		return 1
	}
	L.Push(lua.LNumber(sym.Addr))
	return 1
}

func (e *ScriptEngine) luaReset(L *lua.LState) int {
	e.session.Reset()
	return 0
}
