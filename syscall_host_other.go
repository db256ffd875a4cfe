//go:build !unix

package rvsim

import "os"

func hostErrno(err error) (int32, bool) {
	return 0, false
}

func statFromFileInfo(fi os.FileInfo) guestStat {
	return guestStat{
		Mode:  modeFromFileInfo(fi.Mode()),
		Nlink: 1,
		Size:  fi.Size(),
	}
}

func hostStat(path string, follow bool) (guestStat, error) {
	var fi os.FileInfo
	var err error
	if follow {
		fi, err = os.Stat(path)
	} else {
		fi, err = os.Lstat(path)
	}
	if err != nil {
		return guestStat{}, err
	}
	return statFromFileInfo(fi), nil
}

func hostFstat(f *os.File) (guestStat, error) {
	fi, err := f.Stat()
	if err != nil {
		return guestStat{}, err
	}
	return statFromFileInfo(fi), nil
}
