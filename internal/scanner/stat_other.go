//go:build !linux

package scanner

import (
	"io/fs"

	"file-archiver/internal/models"
)

// ReadTimes 非Linux平台只使用修改时间
func ReadTimes(_ string, info fs.FileInfo) (models.FileTimes, error) {
	return fallbackTimes(info), nil
}
