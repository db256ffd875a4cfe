// memory_map.go - Guest memory map constants

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

// ------------------------------------------------------------------------------
// Guest memory map
//
//	0x1000_0000          debug UART TX (one byte)
//	0x1000_0004-0x0007   millisecond timer (read-only, little-endian)
//	0x1000_1000          console UART TX data
//	0x1000_1004          console UART TX status (always 0 = ready)
//	0x1000_1008          console UART RX status (1 = data waiting)
//	0x1000_100C          console UART RX data (dequeues)
//	0x8000_0000-0x807F_FFFF  RAM (8 MiB, sparse)
//
// Everything else faults.
// ------------------------------------------------------------------------------
const (
	RAM_BASE = 0x80000000
	RAM_SIZE = 8 * 1024 * 1024
	RAM_END  = RAM_BASE + RAM_SIZE // exclusive

	DEFAULT_START_PC = RAM_BASE

	DEBUG_UART_TX = 0x10000000

	TIMER_BASE = 0x10000004
	TIMER_END  = 0x10000007 // inclusive

	CONSOLE_UART_BASE      = 0x10001000
	CONSOLE_UART_TX_DATA   = CONSOLE_UART_BASE + 0x0
	CONSOLE_UART_TX_STATUS = CONSOLE_UART_BASE + 0x4
	CONSOLE_UART_RX_STATUS = CONSOLE_UART_BASE + 0x8
	CONSOLE_UART_RX_DATA   = CONSOLE_UART_BASE + 0xC
	CONSOLE_UART_END       = CONSOLE_UART_BASE + 0xF // inclusive
)

const (
	// RAM pages are materialised on first write.
	RAM_PAGE_SHIFT = 12
	RAM_PAGE_SIZE  = 1 << RAM_PAGE_SHIFT
	RAM_PAGE_MASK  = RAM_PAGE_SIZE - 1
)

func inRAM(addr uint32) bool {
	return addr >= RAM_BASE && addr < RAM_END
}
