// syscall_stat.go - Guest stat record

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
	"encoding/binary"
	"io/fs"
)

// Linux file type bits for st_mode.
const (
	GUEST_S_IFMT  = 0170000
	GUEST_S_IFCHR = 0020000
	GUEST_S_IFDIR = 0040000
	GUEST_S_IFREG = 0100000
	GUEST_S_IFLNK = 0120000

	GUEST_STAT_SIZE = 24
)

// guestStat is the subset of struct stat the guest libc reads.
type guestStat struct {
	Dev   uint64
	Ino   uint64
	Mode  uint32
	Nlink uint64
	UID   uint32
	GID   uint32
	Rdev  uint64
	Size  int64
}

// encode lays the record out as the guest expects: 16-bit dev, ino, nlink,
// uid, gid and rdev, 32-bit mode and a 64-bit size at offset 16.
func (st *guestStat) encode() []byte {
	buf := make([]byte, GUEST_STAT_SIZE)
	binary.LittleEndian.PutUint16(buf[0:], uint16(st.Dev))
	binary.LittleEndian.PutUint16(buf[2:], uint16(st.Ino))
	binary.LittleEndian.PutUint32(buf[4:], st.Mode)
	binary.LittleEndian.PutUint16(buf[8:], uint16(st.Nlink))
	binary.LittleEndian.PutUint16(buf[10:], uint16(st.UID))
	binary.LittleEndian.PutUint16(buf[12:], uint16(st.GID))
	binary.LittleEndian.PutUint16(buf[14:], uint16(st.Rdev))
	binary.LittleEndian.PutUint64(buf[16:], uint64(st.Size))
	return buf
}

// modeFromFileInfo converts a Go file mode to Linux st_mode bits.
func modeFromFileInfo(m fs.FileMode) uint32 {
	mode := uint32(m.Perm())
	switch {
	case m.IsDir():
		mode |= GUEST_S_IFDIR
	case m&fs.ModeSymlink != 0:
		mode |= GUEST_S_IFLNK
	case m&fs.ModeCharDevice != 0:
		mode |= GUEST_S_IFCHR
	default:
		mode |= GUEST_S_IFREG
	}
	return mode
}

// consoleStat describes fds 0-2.
func consoleStat() guestStat {
	return guestStat{Mode: GUEST_S_IFCHR | 0620, Nlink: 1}
}
