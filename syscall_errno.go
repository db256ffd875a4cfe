// syscall_errno.go - Linux syscall numbers and errno values

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
	"errors"
	"io/fs"
)

// Linux RV32 syscall numbers handled by the shim.
const (
	SYS_GETCWD     = 17
	SYS_UNLINKAT   = 35
	SYS_RENAMEAT   = 38
	SYS_FACCESSAT  = 48
	SYS_CHDIR      = 49
	SYS_OPENAT     = 56
	SYS_CLOSE      = 57
	SYS_LSEEK      = 62
	SYS_READ       = 63
	SYS_WRITE      = 64
	SYS_FSTATAT    = 79
	SYS_FSTAT      = 80
	SYS_EXIT       = 93
	SYS_EXIT_GROUP = 94
)

var syscallNames = map[uint32]string{
	SYS_GETCWD:     "getcwd",
	SYS_UNLINKAT:   "unlinkat",
	SYS_RENAMEAT:   "renameat",
	SYS_FACCESSAT:  "faccessat",
	SYS_CHDIR:      "chdir",
	SYS_OPENAT:     "openat",
	SYS_CLOSE:      "close",
	SYS_LSEEK:      "lseek",
	SYS_READ:       "read",
	SYS_WRITE:      "write",
	SYS_FSTATAT:    "fstatat",
	SYS_FSTAT:      "fstat",
	SYS_EXIT:       "exit",
	SYS_EXIT_GROUP: "exit_group",
}

// Linux errno values as seen by the guest.
const (
	EPERM        = 1
	ENOENT       = 2
	EIO          = 5
	EBADF        = 9
	EACCES       = 13
	EFAULT       = 14
	EBUSY        = 16
	EEXIST       = 17
	EXDEV        = 18
	ENOTDIR      = 20
	EISDIR       = 21
	EINVAL       = 22
	EMFILE       = 24
	EFBIG        = 27
	ENOSPC       = 28
	ESPIPE       = 29
	EROFS        = 30
	ERANGE       = 34
	ENAMETOOLONG = 36
	ENOSYS       = 38
	ENOTEMPTY    = 39
	ELOOP        = 40
	EOVERFLOW    = 75
)

// Guest open(2) flags, Linux generic values.
const (
	GUEST_O_ACCMODE   = 0x3
	GUEST_O_RDONLY    = 0x0
	GUEST_O_WRONLY    = 0x1
	GUEST_O_RDWR      = 0x2
	GUEST_O_CREAT     = 0x40
	GUEST_O_EXCL      = 0x80
	GUEST_O_TRUNC     = 0x200
	GUEST_O_APPEND    = 0x400
	GUEST_O_DIRECTORY = 0x10000

	GUEST_AT_FDCWD            = -100
	GUEST_AT_SYMLINK_NOFOLLOW = 0x100
	GUEST_AT_REMOVEDIR        = 0x200
	GUEST_AT_EMPTY_PATH       = 0x1000

	GUEST_PATH_MAX = 4096
)

// errnoFromHost maps a host filesystem error to a guest errno.
func errnoFromHost(err error) int32 {
	if err == nil {
		return 0
	}
	if e, ok := hostErrno(err); ok {
		return e
	}
	switch {
	case errors.Is(err, fs.ErrNotExist):
		return ENOENT
	case errors.Is(err, fs.ErrExist):
		return EEXIST
	case errors.Is(err, fs.ErrPermission):
		return EACCES
	case errors.Is(err, fs.ErrInvalid):
		return EINVAL
	case errors.Is(err, fs.ErrClosed):
		return EBADF
	}
	return EIO
}
