//go:build !linux && !darwin

package filesystem

import "io/fs"

// statOf reports nothing on platforms without a known stat layout.
func statOf(fs.FileInfo) fileStat {
	return fileStat{}
}
