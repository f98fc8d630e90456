//go:build linux

package filesystem

import (
	"io/fs"
	"syscall"
	"time"
)

// statOf extracts ownership and access time. Linux reports no birth time
// through stat, so created is left zero.
func statOf(info fs.FileInfo) fileStat {
	st, ok := info.Sys().(*syscall.Stat_t)
	if !ok {
		return fileStat{}
	}
	return fileStat{
		ok:       true,
		uid:      st.Uid,
		gid:      st.Gid,
		accessed: time.Unix(int64(st.Atim.Sec), int64(st.Atim.Nsec)), //nolint:unconvert // int32 on 32-bit
	}
}
