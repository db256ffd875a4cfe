// monitor.go - Machine monitor for simulator sessions

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
	"bufio"
	"fmt"
	"io"
	"strings"
)

// OutputLine holds styled text for the monitor scrollback buffer.
type OutputLine struct {
	Text  string
	Color uint32 // RGBA packed
}

// Monitor colour palette.
const (
	colorWhite  = 0xFFFFFFFF
	colorCyan   = 0x64C8FFFF
	colorYellow = 0xFFFF55FF
	colorRed    = 0xFF5555FF
	colorGreen  = 0x55FF55FF
	colorDim    = 0x5555FFFF
)

// DEFAULT_RUN_STEPS bounds g/u/p when no count is given.
const DEFAULT_RUN_STEPS = 10_000_000

// MachineMonitor is a line-oriented debugger over one session.
type MachineMonitor struct {
	session *Session

	outputLines []OutputLine
	maxOutput   int

	history []string
	macros  map[string][]string

	scriptDepth int
	script      *ScriptEngine

	prevRegs map[string]uint32 // for change highlighting
}

func NewMachineMonitor(s *Session) *MachineMonitor {
	m := &MachineMonitor{
		session:   s,
		maxOutput: 500,
		macros:    make(map[string][]string),
		prevRegs:  make(map[string]uint32),
	}
	m.saveCurrentRegs()
	return m
}

func (m *MachineMonitor) Session() *Session { return m.session }

// appendOutput adds a line to the scrollback buffer.
func (m *MachineMonitor) appendOutput(text string, color uint32) {
	m.outputLines = append(m.outputLines, OutputLine{Text: text, Color: color})
	if len(m.outputLines) > m.maxOutput {
		m.outputLines = m.outputLines[len(m.outputLines)-m.maxOutput:]
	}
}

// Output returns the scrollback without clearing it.
func (m *MachineMonitor) Output() []OutputLine {
	return append([]OutputLine(nil), m.outputLines...)
}

// TakeOutput returns and clears the scrollback.
func (m *MachineMonitor) TakeOutput() []OutputLine {
	out := m.outputLines
	m.outputLines = nil
	return out
}

// History lists executed command lines, oldest first.
func (m *MachineMonitor) History() []string {
	return append([]string(nil), m.history...)
}

// saveCurrentRegs snapshots the registers for change detection.
func (m *MachineMonitor) saveCurrentRegs() {
	for _, r := range m.session.Registers() {
		m.prevRegs[r.Name] = r.Value
	}
}

// ansiForColor maps a palette entry to an SGR foreground sequence.
func ansiForColor(c uint32) string {
	switch c {
	case colorCyan:
		return "\x1b[36m"
	case colorYellow:
		return "\x1b[33m"
	case colorRed:
		return "\x1b[31m"
	case colorGreen:
		return "\x1b[32m"
	case colorDim:
		return "\x1b[34m"
	}
	return ""
}

// Flush writes and clears pending output, colouring it with ANSI
// sequences when color is set.
func (m *MachineMonitor) Flush(w io.Writer, color bool) error {
	for _, line := range m.TakeOutput() {
		var err error
		if esc := ansiForColor(line.Color); color && esc != "" {
			_, err = fmt.Fprintf(w, "%s%s\x1b[0m\n", esc, line.Text)
		} else {
			_, err = fmt.Fprintln(w, line.Text)
		}
		if err != nil {
			return err
		}
	}
	return nil
}

// Serve reads commands from r until EOF or an exit command, writing the
// output of each to w.
func (m *MachineMonitor) Serve(r io.Reader, w io.Writer, prompt string, color bool) error {
	sc := bufio.NewScanner(r)
	for {
		if prompt != "" {
			fmt.Fprint(w, prompt)
		}
		if !sc.Scan() {
			return sc.Err()
		}
		line := strings.TrimSpace(sc.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		quit := m.ExecuteCommand(line)
		if err := m.Flush(w, color); err != nil {
			return err
		}
		if quit {
			return nil
		}
	}
}
