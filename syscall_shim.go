// syscall_shim.go - Linux system call emulation

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
syscall_shim.go - Linux system call emulation on ECALL

The shim reads the syscall number from a7 and up to six arguments from
a0-a5, performs the call against the sandbox and writes the result to a0.
Failures come back as -errno and never leave the shim. The only errors it
returns to the session are guest pointer faults, which surface as a
MemoryAccessFault at the ECALL, and the exit calls, which surface as an
EbreakTrap carrying the exit status.

Descriptors 0-2 are the console: reading fd 0 drains whatever the console
UART has queued, writes to fd 1 and 2 are transmitted on it. Files opened by
the guest get the lowest free descriptor from 3 upward.
*/

package rvsim

import (
	"errors"
	"io"
	"io/fs"
	"log"
	"os"
	"sort"
)

const (
	FIRST_GUEST_FD = 3
	MAX_GUEST_FDS  = 256

	// Upper bound on a single read or write transfer.
	MAX_GUEST_IO = RAM_SIZE
)

type guestFile struct {
	f     *os.File
	virt  string
	isDir bool
}

type SyscallShim struct {
	sb      *Sandbox
	files   map[int32]*guestFile
	console *UART

	logger *log.Logger
	trace  bool
}

func NewSyscallShim(sb *Sandbox, console *UART) *SyscallShim {
	return &SyscallShim{
		sb:      sb,
		files:   make(map[int32]*guestFile),
		console: console,
	}
}

// SetLogger enables a log line per syscall when trace is set.
func (sh *SyscallShim) SetLogger(l *log.Logger, trace bool) {
	sh.logger = l
	sh.trace = trace
}

func (sh *SyscallShim) Sandbox() *Sandbox { return sh.sb }

// OpenFDs lists the guest descriptors currently open, in order.
func (sh *SyscallShim) OpenFDs() []int32 {
	fds := make([]int32, 0, len(sh.files))
	for fd := range sh.files {
		fds = append(fds, fd)
	}
	sort.Slice(fds, func(i, j int) bool { return fds[i] < fds[j] })
	return fds
}

// CloseAll releases every host file and forgets the descriptors.
func (sh *SyscallShim) CloseAll() {
	for fd, gf := range sh.files {
		gf.f.Close()
		delete(sh.files, fd)
	}
}

func (sh *SyscallShim) Reset() {
	sh.CloseAll()
	sh.sb.Reset()
}

// Handle services the ECALL at cpu.PC. The caller advances PC afterwards.
func (sh *SyscallShim) Handle(cpu *CPU, bus *MachineBus) error {
	num := cpu.GetX(REG_A7)
	var a [6]uint32
	for i := range a {
		a[i] = cpu.GetX(uint8(REG_A0 + i))
	}

	ret, err := sh.dispatch(cpu, bus, num, a)
	if err != nil {
		return err
	}
	if sh.trace && sh.logger != nil {
		name, ok := syscallNames[num]
		if !ok {
			name = "unknown"
		}
		sh.logger.Printf("syscall: %s(%d) args=[%#x %#x %#x %#x] = %d", name, num, a[0], a[1], a[2], a[3], ret)
	}
	cpu.SetX(REG_A0, uint32(ret))
	return nil
}

func (sh *SyscallShim) dispatch(cpu *CPU, bus *MachineBus, num uint32, a [6]uint32) (int32, error) {
	switch num {
	case SYS_GETCWD:
		return sh.getcwd(bus, a[0], a[1])
	case SYS_UNLINKAT:
		return sh.unlinkat(bus, int32(a[0]), a[1], a[2])
	case SYS_RENAMEAT:
		return sh.renameat(bus, int32(a[0]), a[1], int32(a[2]), a[3])
	case SYS_FACCESSAT:
		return sh.faccessat(bus, int32(a[0]), a[1], a[2])
	case SYS_CHDIR:
		return sh.chdir(bus, a[0])
	case SYS_OPENAT:
		return sh.openat(bus, int32(a[0]), a[1], a[2], a[3])
	case SYS_CLOSE:
		return sh.close(int32(a[0])), nil
	case SYS_LSEEK:
		return sh.lseek(int32(a[0]), int32(a[1]), a[2]), nil
	case SYS_READ:
		return sh.read(bus, int32(a[0]), a[1], a[2])
	case SYS_WRITE:
		return sh.write(bus, int32(a[0]), a[1], a[2])
	case SYS_FSTATAT:
		return sh.fstatat(bus, int32(a[0]), a[1], a[2], a[3])
	case SYS_FSTAT:
		return sh.fstat(bus, int32(a[0]), a[1])
	case SYS_EXIT, SYS_EXIT_GROUP:
		if sh.logger != nil {
			sh.logger.Printf("syscall: exit(%d) at 0x%08X", int32(a[0]), cpu.PC)
		}
		return 0, &EbreakTrap{PC: cpu.PC, Exited: true, ExitCode: int32(a[0])}
	}
	return -ENOSYS, nil
}

func (sh *SyscallShim) guestPath(bus *MachineBus, ptr uint32) (string, error) {
	return bus.LoadCString(ptr, GUEST_PATH_MAX)
}

// resolveAt resolves a path relative to dirfd the way the *at calls do.
func (sh *SyscallShim) resolveAt(dirfd int32, guest string, follow bool) (sandboxPath, int32) {
	base := sh.sb.cwd
	if len(guest) > 0 && guest[0] != '/' && dirfd != GUEST_AT_FDCWD {
		gf, ok := sh.files[dirfd]
		if !ok {
			return sandboxPath{}, EBADF
		}
		if !gf.isDir {
			return sandboxPath{}, ENOTDIR
		}
		base = gf.virt
	}
	return sh.sb.resolve(base, guest, follow)
}

func (sh *SyscallShim) getcwd(bus *MachineBus, buf, size uint32) (int32, error) {
	cwd := append([]byte(sh.sb.cwd), 0)
	if size == 0 {
		return -EINVAL, nil
	}
	if uint32(len(cwd)) > size {
		return -ERANGE, nil
	}
	if err := bus.StoreBytes(buf, cwd); err != nil {
		return 0, err
	}
	return int32(len(cwd)), nil
}

func (sh *SyscallShim) chdir(bus *MachineBus, pathPtr uint32) (int32, error) {
	p, err := sh.guestPath(bus, pathPtr)
	if err != nil {
		return 0, err
	}
	return -sh.sb.Chdir(p), nil
}

func (sh *SyscallShim) unlinkat(bus *MachineBus, dirfd int32, pathPtr, flags uint32) (int32, error) {
	p, err := sh.guestPath(bus, pathPtr)
	if err != nil {
		return 0, err
	}
	sp, errno := sh.resolveAt(dirfd, p, false)
	if errno != 0 {
		return -errno, nil
	}
	if sp.virt == "/" {
		return -EBUSY, nil
	}
	fi, err := os.Lstat(sp.host)
	if err != nil {
		return -errnoFromHost(err), nil
	}
	if flags&GUEST_AT_REMOVEDIR != 0 {
		if !fi.IsDir() {
			return -ENOTDIR, nil
		}
	} else if fi.IsDir() {
		return -EISDIR, nil
	}
	if err := os.Remove(sp.host); err != nil {
		return -errnoFromHost(err), nil
	}
	return 0, nil
}

func (sh *SyscallShim) renameat(bus *MachineBus, olddirfd int32, oldPtr uint32, newdirfd int32, newPtr uint32) (int32, error) {
	oldGuest, err := sh.guestPath(bus, oldPtr)
	if err != nil {
		return 0, err
	}
	newGuest, err := sh.guestPath(bus, newPtr)
	if err != nil {
		return 0, err
	}
	from, errno := sh.resolveAt(olddirfd, oldGuest, false)
	if errno != 0 {
		return -errno, nil
	}
	to, errno := sh.resolveAt(newdirfd, newGuest, false)
	if errno != 0 {
		return -errno, nil
	}
	if from.virt == "/" || to.virt == "/" {
		return -EBUSY, nil
	}
	if err := os.Rename(from.host, to.host); err != nil {
		return -errnoFromHost(err), nil
	}
	return 0, nil
}

func (sh *SyscallShim) faccessat(bus *MachineBus, dirfd int32, pathPtr, mode uint32) (int32, error) {
	p, err := sh.guestPath(bus, pathPtr)
	if err != nil {
		return 0, err
	}
	sp, errno := sh.resolveAt(dirfd, p, true)
	if errno != 0 {
		return -errno, nil
	}
	fi, err := os.Stat(sp.host)
	if err != nil {
		return -errnoFromHost(err), nil
	}
	// R_OK=4, W_OK=2, X_OK=1 checked against the owner bits.
	perm := uint32(fi.Mode().Perm()>>6) & 7
	if mode&7&^perm != 0 {
		return -EACCES, nil
	}
	return 0, nil
}

func (sh *SyscallShim) allocFD() (int32, bool) {
	for fd := int32(FIRST_GUEST_FD); fd < MAX_GUEST_FDS; fd++ {
		if _, used := sh.files[fd]; !used {
			return fd, true
		}
	}
	return 0, false
}

func hostOpenFlags(flags uint32) int {
	var out int
	switch flags & GUEST_O_ACCMODE {
	case GUEST_O_WRONLY:
		out = os.O_WRONLY
	case GUEST_O_RDWR:
		out = os.O_RDWR
	default:
		out = os.O_RDONLY
	}
	if flags&GUEST_O_CREAT != 0 {
		out |= os.O_CREATE
	}
	if flags&GUEST_O_EXCL != 0 {
		out |= os.O_EXCL
	}
	if flags&GUEST_O_TRUNC != 0 {
		out |= os.O_TRUNC
	}
	if flags&GUEST_O_APPEND != 0 {
		out |= os.O_APPEND
	}
	return out
}

func (sh *SyscallShim) openat(bus *MachineBus, dirfd int32, pathPtr, flags, mode uint32) (int32, error) {
	p, err := sh.guestPath(bus, pathPtr)
	if err != nil {
		return 0, err
	}
	sp, errno := sh.resolveAt(dirfd, p, true)
	if errno != 0 {
		return -errno, nil
	}

	fi, statErr := os.Stat(sp.host)
	isDir := statErr == nil && fi.IsDir()
	if flags&GUEST_O_DIRECTORY != 0 {
		if statErr != nil {
			return -errnoFromHost(statErr), nil
		}
		if !isDir {
			return -ENOTDIR, nil
		}
	}
	if isDir && flags&GUEST_O_ACCMODE != GUEST_O_RDONLY {
		return -EISDIR, nil
	}

	fd, ok := sh.allocFD()
	if !ok {
		return -EMFILE, nil
	}
	perm := fs.FileMode(mode & 0o777)
	if perm == 0 {
		perm = 0o644
	}
	f, err := os.OpenFile(sp.host, hostOpenFlags(flags), perm)
	if err != nil {
		return -errnoFromHost(err), nil
	}
	sh.files[fd] = &guestFile{f: f, virt: sp.virt, isDir: isDir}
	return fd, nil
}

func (sh *SyscallShim) close(fd int32) int32 {
	if fd >= 0 && fd < FIRST_GUEST_FD {
		return 0
	}
	gf, ok := sh.files[fd]
	if !ok {
		return -EBADF
	}
	delete(sh.files, fd)
	if err := gf.f.Close(); err != nil {
		return -errnoFromHost(err)
	}
	return 0
}

func (sh *SyscallShim) lseek(fd int32, offset int32, whence uint32) int32 {
	if fd >= 0 && fd < FIRST_GUEST_FD {
		return -ESPIPE
	}
	gf, ok := sh.files[fd]
	if !ok {
		return -EBADF
	}
	if whence > io.SeekEnd {
		return -EINVAL
	}
	pos, err := gf.f.Seek(int64(offset), int(whence))
	if err != nil {
		return -errnoFromHost(err)
	}
	if pos > 0x7FFFFFFF {
		return -EOVERFLOW
	}
	return int32(pos)
}

func (sh *SyscallShim) read(bus *MachineBus, fd int32, buf, count uint32) (int32, error) {
	count = min(count, MAX_GUEST_IO)
	switch fd {
	case 0:
		var data []byte
		for uint32(len(data)) < count && sh.console.RxHasData() {
			data = append(data, sh.console.RxByte())
		}
		if err := bus.StoreBytes(buf, data); err != nil {
			return 0, err
		}
		return int32(len(data)), nil
	case 1, 2:
		return -EBADF, nil
	}

	gf, ok := sh.files[fd]
	if !ok {
		return -EBADF, nil
	}
	if gf.isDir {
		return -EISDIR, nil
	}
	data := make([]byte, count)
	n, err := gf.f.Read(data)
	if err != nil && !errors.Is(err, io.EOF) {
		return -errnoFromHost(err), nil
	}
	if err := bus.StoreBytes(buf, data[:n]); err != nil {
		return 0, err
	}
	return int32(n), nil
}

func (sh *SyscallShim) write(bus *MachineBus, fd int32, buf, count uint32) (int32, error) {
	count = min(count, MAX_GUEST_IO)
	if fd == 0 {
		return -EBADF, nil
	}
	var gf *guestFile
	if fd != 1 && fd != 2 {
		var ok bool
		if gf, ok = sh.files[fd]; !ok {
			return -EBADF, nil
		}
		if gf.isDir {
			return -EISDIR, nil
		}
	}

	data, err := bus.LoadBytes(buf, int(count))
	if err != nil {
		return 0, err
	}
	if gf == nil {
		for _, b := range data {
			sh.console.TxByte(b)
		}
		return int32(len(data)), nil
	}
	n, err := gf.f.Write(data)
	if err != nil {
		return -errnoFromHost(err), nil
	}
	return int32(n), nil
}

func (sh *SyscallShim) fstatat(bus *MachineBus, dirfd int32, pathPtr, statPtr, flags uint32) (int32, error) {
	p, err := sh.guestPath(bus, pathPtr)
	if err != nil {
		return 0, err
	}
	if p == "" && flags&GUEST_AT_EMPTY_PATH != 0 {
		return sh.fstat(bus, dirfd, statPtr)
	}
	follow := flags&GUEST_AT_SYMLINK_NOFOLLOW == 0
	sp, errno := sh.resolveAt(dirfd, p, follow)
	if errno != 0 {
		return -errno, nil
	}
	st, err := hostStat(sp.host, follow)
	if err != nil {
		return -errnoFromHost(err), nil
	}
	if err := bus.StoreBytes(statPtr, st.encode()); err != nil {
		return 0, err
	}
	return 0, nil
}

func (sh *SyscallShim) fstat(bus *MachineBus, fd int32, statPtr uint32) (int32, error) {
	var st guestStat
	if fd >= 0 && fd < FIRST_GUEST_FD {
		st = consoleStat()
	} else {
		gf, ok := sh.files[fd]
		if !ok {
			return -EBADF, nil
		}
		var err error
		if st, err = hostFstat(gf.f); err != nil {
			return -errnoFromHost(err), nil
		}
	}
	if err := bus.StoreBytes(statPtr, st.encode()); err != nil {
		return 0, err
	}
	return 0, nil
}
