//go:build darwin

package filesystem

import (
	"io/fs"
	"syscall"
	"time"
)

// statOf extracts ownership, birth and access times.
func statOf(info fs.FileInfo) fileStat {
	st, ok := info.Sys().(*syscall.Stat_t)
	if !ok {
		return fileStat{}
	}
	return fileStat{
		ok:       true,
		uid:      st.Uid,
		gid:      st.Gid,
		created:  time.Unix(st.Birthtimespec.Sec, st.Birthtimespec.Nsec),
		accessed: time.Unix(st.Atimespec.Sec, st.Atimespec.Nsec),
	}
}
