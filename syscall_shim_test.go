package rvsim

import (
	"bytes"
	"encoding/binary"
	"errors"
	"log"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

const (
	scratchPath  = RAM_BASE + 0x1000
	scratchBuf   = RAM_BASE + 0x2000
	scratchPath2 = RAM_BASE + 0x3000
)

type shimRig struct {
	root    string
	cpu     *CPU
	bus     *MachineBus
	console *UART
	shim    *SyscallShim
}

func newShimRig(t *testing.T) *shimRig {
	t.Helper()
	root := t.TempDir()
	sb, err := NewSandbox(root)
	if err != nil {
		t.Fatal(err)
	}
	console := NewUART("console", true)
	r := &shimRig{
		root:    sb.Root(),
		cpu:     NewCPU(RAM_BASE),
		bus:     NewMachineBus(),
		console: console,
		shim:    NewSyscallShim(sb, console),
	}
	t.Cleanup(r.shim.CloseAll)
	return r
}

// call performs syscall num and returns a0 as a signed value.
func (r *shimRig) call(t *testing.T, num uint32, args ...uint32) int32 {
	t.Helper()
	r.cpu.SetX(REG_A7, num)
	for i := range 6 {
		var v uint32
		if i < len(args) {
			v = args[i]
		}
		r.cpu.SetX(uint8(REG_A0+i), v)
	}
	if err := r.shim.Handle(r.cpu, r.bus); err != nil {
		t.Fatalf("syscall %d: %v", num, err)
	}
	return int32(r.cpu.GetX(REG_A0))
}

func (r *shimRig) str(addr uint32, s string) uint32 {
	r.bus.StoreBytes(addr, append([]byte(s), 0))
	return addr
}

func fdcwd() uint32 {
	v := int32(GUEST_AT_FDCWD)
	return uint32(v)
}

func TestSyscall_OpenWriteReadClose(t *testing.T) {
	r := newShimRig(t)
	path := r.str(scratchPath, "notes.txt")

	fd := r.call(t, SYS_OPENAT, fdcwd(), path, GUEST_O_WRONLY|GUEST_O_CREAT|GUEST_O_TRUNC, 0o600)
	if fd != FIRST_GUEST_FD {
		t.Fatalf("openat = %d, want %d", fd, FIRST_GUEST_FD)
	}
	r.bus.StoreBytes(scratchBuf, []byte("hello sandbox"))
	if n := r.call(t, SYS_WRITE, uint32(fd), scratchBuf, 13); n != 13 {
		t.Fatalf("write = %d", n)
	}
	if rc := r.call(t, SYS_CLOSE, uint32(fd)); rc != 0 {
		t.Fatalf("close = %d", rc)
	}
	if rc := r.call(t, SYS_CLOSE, uint32(fd)); rc != -EBADF {
		t.Fatalf("double close = %d", rc)
	}

	data, err := os.ReadFile(filepath.Join(r.root, "notes.txt"))
	if err != nil || string(data) != "hello sandbox" {
		t.Fatalf("host file = %q, %v", data, err)
	}

	fd = r.call(t, SYS_OPENAT, fdcwd(), path, GUEST_O_RDONLY, 0)
	if pos := r.call(t, SYS_LSEEK, uint32(fd), 6, 0); pos != 6 {
		t.Fatalf("lseek = %d", pos)
	}
	if n := r.call(t, SYS_READ, uint32(fd), scratchBuf+0x100, 64); n != 7 {
		t.Fatalf("read = %d", n)
	}
	got, _ := r.bus.LoadBytes(scratchBuf+0x100, 7)
	if string(got) != "sandbox" {
		t.Fatalf("read data = %q", got)
	}
	if n := r.call(t, SYS_READ, uint32(fd), scratchBuf, 64); n != 0 {
		t.Fatalf("read at EOF = %d", n)
	}
	if pos := r.call(t, SYS_LSEEK, uint32(fd), 0, 3); pos != -EINVAL {
		t.Fatalf("lseek bad whence = %d", pos)
	}
}

func TestSyscall_OpenErrors(t *testing.T) {
	r := newShimRig(t)
	missing := r.str(scratchPath, "missing")
	if rc := r.call(t, SYS_OPENAT, fdcwd(), missing, GUEST_O_RDONLY, 0); rc != -ENOENT {
		t.Fatalf("open missing = %d", rc)
	}
	escape := r.str(scratchPath, "../../etc/passwd")
	if rc := r.call(t, SYS_OPENAT, fdcwd(), escape, GUEST_O_RDONLY, 0); rc != -EACCES {
		t.Fatalf("open outside the sandbox = %d", rc)
	}
	root := r.str(scratchPath, "/")
	if rc := r.call(t, SYS_OPENAT, fdcwd(), root, GUEST_O_WRONLY, 0); rc != -EISDIR {
		t.Fatalf("open dir for write = %d", rc)
	}
	os.WriteFile(filepath.Join(r.root, "plain"), nil, 0o644)
	plain := r.str(scratchPath, "plain")
	if rc := r.call(t, SYS_OPENAT, fdcwd(), plain, GUEST_O_DIRECTORY, 0); rc != -ENOTDIR {
		t.Fatalf("O_DIRECTORY on a file = %d", rc)
	}
	if rc := r.call(t, SYS_OPENAT, fdcwd(), plain, GUEST_O_WRONLY|GUEST_O_CREAT|GUEST_O_EXCL, 0); rc != -EEXIST {
		t.Fatalf("O_EXCL on existing = %d", rc)
	}
}

func TestSyscall_SymlinkEscapeRefused(t *testing.T) {
	r := newShimRig(t)
	outside := t.TempDir()
	os.WriteFile(filepath.Join(outside, "secret"), []byte("x"), 0o644)
	if err := os.Symlink(outside, filepath.Join(r.root, "link")); err != nil {
		t.Skipf("symlinks unavailable: %v", err)
	}
	p := r.str(scratchPath, "link/secret")
	if rc := r.call(t, SYS_OPENAT, fdcwd(), p, GUEST_O_RDONLY, 0); rc != -EACCES {
		t.Fatalf("open through escaping symlink = %d", rc)
	}
}

func TestSyscall_DirfdRelative(t *testing.T) {
	r := newShimRig(t)
	os.Mkdir(filepath.Join(r.root, "sub"), 0o755)
	os.WriteFile(filepath.Join(r.root, "sub", "f"), []byte("abc"), 0o644)

	dirfd := r.call(t, SYS_OPENAT, fdcwd(), r.str(scratchPath, "sub"), GUEST_O_RDONLY|GUEST_O_DIRECTORY, 0)
	if dirfd < FIRST_GUEST_FD {
		t.Fatalf("open dir = %d", dirfd)
	}
	fd := r.call(t, SYS_OPENAT, uint32(dirfd), r.str(scratchPath, "f"), GUEST_O_RDONLY, 0)
	if fd != dirfd+1 {
		t.Fatalf("open relative to dirfd = %d", fd)
	}
	if rc := r.call(t, SYS_READ, uint32(dirfd), scratchBuf, 4); rc != -EISDIR {
		t.Fatalf("read dir = %d", rc)
	}
	if rc := r.call(t, SYS_OPENAT, uint32(fd), r.str(scratchPath, "x"), GUEST_O_RDONLY, 0); rc != -ENOTDIR {
		t.Fatalf("file as dirfd = %d", rc)
	}
	if rc := r.call(t, SYS_OPENAT, 77, r.str(scratchPath, "x"), GUEST_O_RDONLY, 0); rc != -EBADF {
		t.Fatalf("bad dirfd = %d", rc)
	}
	if fds := r.shim.OpenFDs(); len(fds) != 2 {
		t.Fatalf("OpenFDs = %v", fds)
	}
}

func TestSyscall_Stat(t *testing.T) {
	r := newShimRig(t)
	os.WriteFile(filepath.Join(r.root, "data.bin"), make([]byte, 1234), 0o640)

	if rc := r.call(t, SYS_FSTATAT, fdcwd(), r.str(scratchPath, "data.bin"), scratchBuf, 0); rc != 0 {
		t.Fatalf("fstatat = %d", rc)
	}
	raw, _ := r.bus.LoadBytes(scratchBuf, GUEST_STAT_SIZE)
	mode := binary.LittleEndian.Uint32(raw[4:])
	size := binary.LittleEndian.Uint64(raw[16:])
	if mode&GUEST_S_IFMT != GUEST_S_IFREG || mode&0o777 != 0o640 {
		t.Fatalf("st_mode = %o", mode)
	}
	if size != 1234 {
		t.Fatalf("st_size = %d", size)
	}

	if rc := r.call(t, SYS_FSTAT, 1, scratchBuf); rc != 0 {
		t.Fatalf("fstat(1) = %d", rc)
	}
	raw, _ = r.bus.LoadBytes(scratchBuf, GUEST_STAT_SIZE)
	if binary.LittleEndian.Uint32(raw[4:])&GUEST_S_IFMT != GUEST_S_IFCHR {
		t.Fatal("console should stat as a character device")
	}

	if rc := r.call(t, SYS_FSTAT, 42, scratchBuf); rc != -EBADF {
		t.Fatalf("fstat bad fd = %d", rc)
	}
	if rc := r.call(t, SYS_FSTATAT, fdcwd(), r.str(scratchPath, "nope"), scratchBuf, 0); rc != -ENOENT {
		t.Fatalf("fstatat missing = %d", rc)
	}
}

func TestSyscall_CwdAndChdir(t *testing.T) {
	r := newShimRig(t)
	if n := r.call(t, SYS_GETCWD, scratchBuf, 64); n != 2 {
		t.Fatalf("getcwd = %d, want 2 for \"/\\x00\"", n)
	}
	if rc := r.call(t, SYS_CHDIR, r.str(scratchPath, "work/deep")); rc != 0 {
		t.Fatalf("chdir = %d", rc)
	}
	if fi, err := os.Stat(filepath.Join(r.root, "work", "deep")); err != nil || !fi.IsDir() {
		t.Fatal("chdir should create the directory")
	}
	n := r.call(t, SYS_GETCWD, scratchBuf, 64)
	cwd, _ := r.bus.LoadCString(scratchBuf, 64)
	if cwd != "/work/deep" || n != int32(len(cwd)+1) {
		t.Fatalf("getcwd = %q, %d", cwd, n)
	}
	if rc := r.call(t, SYS_GETCWD, scratchBuf, 4); rc != -ERANGE {
		t.Fatalf("small getcwd buffer = %d", rc)
	}
	if rc := r.call(t, SYS_CHDIR, r.str(scratchPath, "../../..")); rc != -EACCES {
		t.Fatalf("chdir above root = %d", rc)
	}

	if err := os.WriteFile(filepath.Join(r.root, "work", "deep", "plain"), []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}
	if rc := r.call(t, SYS_CHDIR, r.str(scratchPath, "plain")); rc != -ENOTDIR {
		t.Fatalf("chdir to a file = %d, want -ENOTDIR", rc)
	}
	if cwd := r.shim.Sandbox().Cwd(); cwd != "/work/deep" {
		t.Fatalf("cwd after failed chdir = %q", cwd)
	}

	// Relative opens follow the new working directory.
	fd := r.call(t, SYS_OPENAT, fdcwd(), r.str(scratchPath, "out"), GUEST_O_WRONLY|GUEST_O_CREAT, 0o644)
	if fd < 0 {
		t.Fatalf("open in cwd = %d", fd)
	}
	if _, err := os.Stat(filepath.Join(r.root, "work", "deep", "out")); err != nil {
		t.Fatal("file not created under the working directory")
	}

	r.shim.Reset()
	if r.shim.Sandbox().Cwd() != "/" || len(r.shim.OpenFDs()) != 0 {
		t.Fatal("Reset should restore cwd and close files")
	}
}

func TestSyscall_UnlinkRenameAccess(t *testing.T) {
	r := newShimRig(t)
	os.WriteFile(filepath.Join(r.root, "a"), []byte("1"), 0o644)
	os.Mkdir(filepath.Join(r.root, "d"), 0o755)

	a := r.str(scratchPath, "a")
	b := r.str(scratchPath2, "b")
	if rc := r.call(t, SYS_RENAMEAT, fdcwd(), a, fdcwd(), b); rc != 0 {
		t.Fatalf("renameat = %d", rc)
	}
	if rc := r.call(t, SYS_FACCESSAT, fdcwd(), b, 4); rc != 0 {
		t.Fatalf("faccessat R_OK = %d", rc)
	}
	if rc := r.call(t, SYS_FACCESSAT, fdcwd(), b, 1); rc != -EACCES {
		t.Fatalf("faccessat X_OK on 0644 = %d", rc)
	}
	if rc := r.call(t, SYS_FACCESSAT, fdcwd(), a, 0); rc != -ENOENT {
		t.Fatalf("faccessat old name = %d", rc)
	}

	d := r.str(scratchPath, "d")
	if rc := r.call(t, SYS_UNLINKAT, fdcwd(), d, 0); rc != -EISDIR {
		t.Fatalf("unlink dir = %d", rc)
	}
	if rc := r.call(t, SYS_UNLINKAT, fdcwd(), b, GUEST_AT_REMOVEDIR); rc != -ENOTDIR {
		t.Fatalf("rmdir file = %d", rc)
	}
	if rc := r.call(t, SYS_UNLINKAT, fdcwd(), d, GUEST_AT_REMOVEDIR); rc != 0 {
		t.Fatalf("rmdir = %d", rc)
	}
	if rc := r.call(t, SYS_UNLINKAT, fdcwd(), b, 0); rc != 0 {
		t.Fatalf("unlink = %d", rc)
	}
	if rc := r.call(t, SYS_UNLINKAT, fdcwd(), r.str(scratchPath, "/"), GUEST_AT_REMOVEDIR); rc != -EBUSY {
		t.Fatalf("rmdir root = %d", rc)
	}
	entries, _ := os.ReadDir(r.root)
	if len(entries) != 0 {
		t.Fatalf("sandbox not empty: %v", entries)
	}
}

func TestSyscall_Console(t *testing.T) {
	r := newShimRig(t)
	r.bus.StoreBytes(scratchBuf, []byte("out"))
	if n := r.call(t, SYS_WRITE, 1, scratchBuf, 3); n != 3 {
		t.Fatalf("write stdout = %d", n)
	}
	if got := string(r.console.ReadAll()); got != "out" {
		t.Fatalf("console TX = %q", got)
	}

	if n := r.call(t, SYS_READ, 0, scratchBuf, 16); n != 0 {
		t.Fatalf("read with no input = %d", n)
	}
	r.console.InjectRX([]byte("yes\n"))
	if n := r.call(t, SYS_READ, 0, scratchBuf, 2); n != 2 {
		t.Fatalf("read = %d", n)
	}
	if r.console.RxPending() != 2 {
		t.Fatalf("RxPending = %d", r.console.RxPending())
	}
	if rc := r.call(t, SYS_WRITE, 0, scratchBuf, 1); rc != -EBADF {
		t.Fatalf("write stdin = %d", rc)
	}
	if rc := r.call(t, SYS_LSEEK, 1, 0, 0); rc != -ESPIPE {
		t.Fatalf("lseek console = %d", rc)
	}
}

func TestSyscall_UnknownAndExit(t *testing.T) {
	r := newShimRig(t)
	if rc := r.call(t, 999); rc != -ENOSYS {
		t.Fatalf("unknown syscall = %d", rc)
	}

	r.cpu.SetX(REG_A7, SYS_EXIT)
	r.cpu.SetX(REG_A0, 7)
	err := r.shim.Handle(r.cpu, r.bus)
	var brk *EbreakTrap
	if !errors.As(err, &brk) || !brk.Exited || brk.ExitCode != 7 {
		t.Fatalf("exit err = %v", err)
	}
}

func TestSyscall_BadPointerFaults(t *testing.T) {
	r := newShimRig(t)
	r.cpu.SetX(REG_A7, SYS_WRITE)
	r.cpu.SetX(REG_A0, 1)
	r.cpu.SetX(REG_A1, 0x40000000)
	r.cpu.SetX(REG_A2, 4)
	err := r.shim.Handle(r.cpu, r.bus)
	var f *MemoryAccessFault
	if !errors.As(err, &f) || f.Addr != 0x40000000 {
		t.Fatalf("err = %v, want fault at the buffer", err)
	}
}

func TestSyscall_TraceLogging(t *testing.T) {
	r := newShimRig(t)
	var buf bytes.Buffer
	r.shim.SetLogger(log.New(&buf, "", 0), true)
	r.call(t, SYS_GETCWD, scratchBuf, 64)
	if !strings.Contains(buf.String(), "syscall: getcwd(17)") {
		t.Fatalf("log = %q", buf.String())
	}
}
