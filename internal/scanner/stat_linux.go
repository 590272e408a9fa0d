//go:build linux

package scanner

import (
	"errors"
	"io/fs"
	"time"

	"golang.org/x/sys/unix"

	"file-archiver/internal/models"
)

// ReadTimes 通过statx读取文件的创建、修改和访问时间
// 文件系统不提供创建时间时以修改时间代替
func ReadTimes(path string, info fs.FileInfo) (models.FileTimes, error) {
	var stx unix.Statx_t
	mask := unix.STATX_BTIME | unix.STATX_MTIME | unix.STATX_ATIME
	err := unix.Statx(unix.AT_FDCWD, path, unix.AT_SYMLINK_NOFOLLOW, mask, &stx)
	if err != nil {
		// 旧内核不支持statx
		if errors.Is(err, unix.ENOSYS) {
			return fallbackTimes(info), nil
		}
		return models.FileTimes{}, err
	}

	times := models.FileTimes{
		Modified: statxTime(stx.Mtime),
		Accessed: statxTime(stx.Atime),
	}
	if stx.Mask&unix.STATX_BTIME != 0 {
		times.Created = statxTime(stx.Btime)
		times.HasBirthTime = true
	} else {
		times.Created = times.Modified
	}
	return times, nil
}

func statxTime(ts unix.StatxTimestamp) time.Time {
	return time.Unix(ts.Sec, int64(ts.Nsec))
}
