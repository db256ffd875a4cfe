//go:build unix

package rvsim

import (
	"errors"
	"os"

	"golang.org/x/sys/unix"
)

// hostErrno classifies a raw host errno carried by err.
func hostErrno(err error) (int32, bool) {
	var e unix.Errno
	if !errors.As(err, &e) {
		return 0, false
	}
	switch e {
	case unix.EPERM:
		return EPERM, true
	case unix.ENOENT:
		return ENOENT, true
	case unix.EACCES:
		return EACCES, true
	case unix.EBADF:
		return EBADF, true
	case unix.EBUSY:
		return EBUSY, true
	case unix.EEXIST:
		return EEXIST, true
	case unix.EXDEV:
		return EXDEV, true
	case unix.ENOTDIR:
		return ENOTDIR, true
	case unix.EISDIR:
		return EISDIR, true
	case unix.EINVAL:
		return EINVAL, true
	case unix.EMFILE, unix.ENFILE:
		return EMFILE, true
	case unix.EFBIG:
		return EFBIG, true
	case unix.ENOSPC:
		return ENOSPC, true
	case unix.ESPIPE:
		return ESPIPE, true
	case unix.EROFS:
		return EROFS, true
	case unix.ENAMETOOLONG:
		return ENAMETOOLONG, true
	case unix.ENOTEMPTY:
		return ENOTEMPTY, true
	case unix.ELOOP:
		return ELOOP, true
	case unix.EOVERFLOW:
		return EOVERFLOW, true
	}
	return EIO, true
}

func statFromUnix(st *unix.Stat_t) guestStat {
	return guestStat{
		Dev:   uint64(st.Dev),
		Ino:   uint64(st.Ino),
		Mode:  uint32(st.Mode),
		Nlink: uint64(st.Nlink),
		UID:   st.Uid,
		GID:   st.Gid,
		Rdev:  uint64(st.Rdev),
		Size:  st.Size,
	}
}

// hostStat stats a sandboxed host path. follow selects stat over lstat.
func hostStat(path string, follow bool) (guestStat, error) {
	var st unix.Stat_t
	var err error
	if follow {
		err = unix.Stat(path, &st)
	} else {
		err = unix.Lstat(path, &st)
	}
	if err != nil {
		return guestStat{}, &os.PathError{Op: "stat", Path: path, Err: err}
	}
	return statFromUnix(&st), nil
}

func hostFstat(f *os.File) (guestStat, error) {
	var st unix.Stat_t
	if err := unix.Fstat(int(f.Fd()), &st); err != nil {
		return guestStat{}, &os.PathError{Op: "fstat", Path: f.Name(), Err: err}
	}
	return statFromUnix(&st), nil
}
