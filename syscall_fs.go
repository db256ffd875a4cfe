// syscall_fs.go - Sandboxed guest filesystem

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
syscall_fs.go - Sandboxed guest filesystem

The guest sees a private filesystem rooted at "/" that maps onto a host
directory. Guest paths are made absolute against the virtual working
directory, joined onto the host root and cleaned. Symbolic links are resolved
for every existing component so a link cannot lead out of the tree. Any path
that ends up outside the root is refused with EACCES.
*/

package rvsim

import (
	"errors"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"strings"
)

type Sandbox struct {
	root string // absolute, symlinks resolved
	cwd  string // virtual, always absolute and clean
}

// NewSandbox roots a guest filesystem at dir, which must exist.
func NewSandbox(dir string) (*Sandbox, error) {
	abs, err := filepath.Abs(dir)
	if err != nil {
		return nil, err
	}
	resolved, err := filepath.EvalSymlinks(abs)
	if err != nil {
		return nil, err
	}
	fi, err := os.Stat(resolved)
	if err != nil {
		return nil, err
	}
	if !fi.IsDir() {
		return nil, &fs.PathError{Op: "sandbox", Path: dir, Err: errors.New("not a directory")}
	}
	return &Sandbox{root: resolved, cwd: "/"}, nil
}

func (sb *Sandbox) Root() string { return sb.root }
func (sb *Sandbox) Cwd() string  { return sb.cwd }

func (sb *Sandbox) Reset() {
	sb.cwd = "/"
}

// sandboxPath is a resolved guest path.
type sandboxPath struct {
	virt string // clean virtual path
	host string // absolute host path inside the root
}

// resolve maps a guest path, relative to base when not absolute, into the
// sandbox. follow controls whether a symlink in the final component is
// resolved too.
func (sb *Sandbox) resolve(base, guest string, follow bool) (sandboxPath, int32) {
	if guest == "" {
		return sandboxPath{}, ENOENT
	}
	if len(guest) >= GUEST_PATH_MAX {
		return sandboxPath{}, ENAMETOOLONG
	}

	virt := guest
	if !strings.HasPrefix(virt, "/") {
		virt = base + "/" + guest
	}
	// Join cleans, so ".." beyond the virtual root climbs out of sb.root
	// and is caught by the containment check below.
	host := filepath.Join(sb.root, filepath.FromSlash(virt))

	resolved, err := sb.evalExisting(host, follow)
	if err != nil {
		return sandboxPath{}, errnoFromHost(err)
	}
	rel, ok := sb.contains(resolved)
	if !ok {
		return sandboxPath{}, EACCES
	}
	return sandboxPath{virt: path.Clean("/" + filepath.ToSlash(rel)), host: resolved}, 0
}

func (sb *Sandbox) contains(host string) (string, bool) {
	rel, err := filepath.Rel(sb.root, host)
	if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return "", false
	}
	if rel == "." {
		rel = ""
	}
	return rel, true
}

// evalExisting resolves symlinks in the longest existing prefix of host and
// re-appends the components that do not exist yet.
func (sb *Sandbox) evalExisting(host string, follow bool) (string, error) {
	dir, last := filepath.Split(host)
	if !follow && last != "" {
		parent, err := sb.evalExisting(filepath.Clean(dir), true)
		if err != nil {
			return "", err
		}
		return filepath.Join(parent, last), nil
	}

	var tail []string
	cur := host
	for {
		resolved, err := filepath.EvalSymlinks(cur)
		if err == nil {
			for i := len(tail) - 1; i >= 0; i-- {
				resolved = filepath.Join(resolved, tail[i])
			}
			return resolved, nil
		}
		if !errors.Is(err, fs.ErrNotExist) {
			return "", err
		}
		parent := filepath.Dir(cur)
		if parent == cur {
			return host, nil
		}
		tail = append(tail, filepath.Base(cur))
		cur = parent
	}
}

// Chdir moves the virtual working directory, creating the target when it
// does not exist yet.
func (sb *Sandbox) Chdir(guest string) int32 {
	p, errno := sb.resolve(sb.cwd, guest, true)
	if errno != 0 {
		return errno
	}
	fi, err := os.Stat(p.host)
	switch {
	case err == nil && !fi.IsDir():
		return ENOTDIR
	case errors.Is(err, fs.ErrNotExist):
		if err := os.MkdirAll(p.host, 0o755); err != nil {
			return errnoFromHost(err)
		}
	case err != nil:
		return errnoFromHost(err)
	}
	sb.cwd = p.virt
	return 0
}
