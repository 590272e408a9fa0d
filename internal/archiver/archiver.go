package archiver

import (
	"archive/zip"
	"crypto/sha256"
	"encoding/binary"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"path/filepath"
	"strings"
	"time"

	"file-archiver/internal/cutoff"
	"file-archiver/internal/models"
)

const (
	archiveExt = ".zip"

	// Info-ZIP扩展时间戳字段
	extTimeExtraID = 0x5455
	extTimeModTime = 1 << 0
	extTimeAccTime = 1 << 1
	extTimeCrTime  = 1 << 2
)

// Archiver 负责为目标目录创建zip压缩包
type Archiver struct {
	cutoff time.Time
}

// NewArchiver 创建新的压缩器
func NewArchiver(cutoffDate time.Time) *Archiver {
	return &Archiver{
		cutoff: cutoffDate,
	}
}

// ArchiveName 生成压缩包名称：{年}_{月}_{目录名}_{上级目录名}.zip
// 年月取截止日期的前一个月
func (a *Archiver) ArchiveName(targetDir string) string {
	year, month := cutoff.Label(a.cutoff)
	dirName := filepath.Base(targetDir)
	parentName := filepath.Base(filepath.Dir(targetDir))
	return fmt.Sprintf("%04d_%02d_%s_%s%s", year, month, dirName, parentName, archiveExt)
}

// ResolvePath 返回目标目录中不冲突的压缩包路径
func (a *Archiver) ResolvePath(targetDir string) (string, error) {
	return UniquePath(targetDir, a.ArchiveName(targetDir))
}

// UniquePath 若文件已存在，则在扩展名前依次追加 _1、_2…… 直到不冲突
func UniquePath(dir, name string) (string, error) {
	candidate := filepath.Join(dir, name)
	exists, err := fileExists(candidate)
	if err != nil {
		return "", err
	}
	if !exists {
		return candidate, nil
	}

	ext := filepath.Ext(name)
	base := strings.TrimSuffix(name, ext)
	for n := 1; ; n++ {
		candidate = filepath.Join(dir, fmt.Sprintf("%s_%d%s", base, n, ext))
		exists, err := fileExists(candidate)
		if err != nil {
			return "", err
		}
		if !exists {
			return candidate, nil
		}
	}
}

// fileExists 判断路径是否存在
func fileExists(path string) (bool, error) {
	_, err := os.Lstat(path)
	if err == nil {
		return true, nil
	}
	if errors.Is(err, os.ErrNotExist) {
		return false, nil
	}
	return false, fmt.Errorf("failed to stat %s: %w", path, err)
}

// CreateArchive 将文件组写入目标目录中的新压缩包
// 写入失败时删除不完整的压缩包
func (a *Archiver) CreateArchive(group *models.ArchiveGroup) (*models.Archive, error) {
	archivePath, err := a.ResolvePath(group.TargetDir)
	if err != nil {
		return nil, a.writeError(group.TargetDir, "failed to resolve archive name", err)
	}

	// O_EXCL 防止覆盖已有文件
	file, err := os.OpenFile(archivePath, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0644)
	if err != nil {
		return nil, a.writeError(archivePath, "failed to create archive file", err)
	}

	if err := writeEntries(file, group.Files); err != nil {
		file.Close()
		os.Remove(archivePath)
		return nil, a.writeError(archivePath, "failed to write archive", err)
	}

	if err := file.Close(); err != nil {
		os.Remove(archivePath)
		return nil, a.writeError(archivePath, "failed to close archive", err)
	}

	info, err := os.Stat(archivePath)
	if err != nil {
		return nil, a.writeError(archivePath, "failed to stat archive", err)
	}

	return &models.Archive{
		Path:      archivePath,
		TargetDir: group.TargetDir,
		Entries:   len(group.Files),
		Size:      info.Size(),
	}, nil
}

// VerifyArchive 重新打开压缩包，逐个比对条目与原文件的SHA256校验和
func (a *Archiver) VerifyArchive(archive *models.Archive, files []models.PendingFile) error {
	reader, err := zip.OpenReader(archive.Path)
	if err != nil {
		return a.writeError(archive.Path, "failed to open archive for verification", err)
	}
	defer reader.Close()

	if len(reader.File) != len(files) {
		return a.writeError(archive.Path, fmt.Sprintf("archive has %d entries, expected %d", len(reader.File), len(files)), nil)
	}

	for i, entry := range reader.File {
		rc, err := entry.Open()
		if err != nil {
			return a.writeError(archive.Path, "failed to open entry "+entry.Name, err)
		}
		entrySum, err := checksum(rc)
		rc.Close()
		if err != nil {
			return a.writeError(archive.Path, "failed to read entry "+entry.Name, err)
		}

		fileSum, err := CalculateChecksum(files[i].Path)
		if err != nil {
			return a.writeError(files[i].Path, "failed to checksum original", err)
		}

		if entrySum != fileSum {
			return a.writeError(archive.Path, "checksum mismatch for entry "+entry.Name, nil)
		}
	}

	return nil
}

// RestoreFile 将压缩包中第index个条目写回原文件位置，并恢复修改时间
// 原位置已存在文件时返回错误
func RestoreFile(archive *models.Archive, index int, file models.PendingFile) error {
	reader, err := zip.OpenReader(archive.Path)
	if err != nil {
		return fmt.Errorf("failed to open archive %s: %w", archive.Path, err)
	}
	defer reader.Close()

	if index < 0 || index >= len(reader.File) {
		return fmt.Errorf("archive %s has no entry %d", archive.Path, index)
	}
	entry := reader.File[index]
	if entry.Name != filepath.Base(file.Path) {
		return fmt.Errorf("entry %s does not match %s", entry.Name, file.Path)
	}

	rc, err := entry.Open()
	if err != nil {
		return fmt.Errorf("failed to open entry %s: %w", entry.Name, err)
	}
	defer rc.Close()

	dst, err := os.OpenFile(file.Path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, entry.Mode().Perm())
	if err != nil {
		return fmt.Errorf("failed to recreate %s: %w", file.Path, err)
	}
	if _, err := io.Copy(dst, rc); err != nil {
		dst.Close()
		os.Remove(file.Path)
		return fmt.Errorf("failed to extract %s: %w", entry.Name, err)
	}
	if err := dst.Close(); err != nil {
		os.Remove(file.Path)
		return fmt.Errorf("failed to extract %s: %w", entry.Name, err)
	}

	if !file.Times.Modified.IsZero() {
		if err := os.Chtimes(file.Path, file.Times.Accessed, file.Times.Modified); err != nil {
			return fmt.Errorf("failed to restore times of %s: %w", file.Path, err)
		}
	}
	return nil
}

// CalculateChecksum 计算文件的SHA256校验和
func CalculateChecksum(filePath string) (string, error) {
	file, err := os.Open(filePath)
	if err != nil {
		return "", fmt.Errorf("failed to open file for checksum: %w", err)
	}
	defer file.Close()

	return checksum(file)
}

func checksum(r io.Reader) (string, error) {
	hasher := sha256.New()
	if _, err := io.Copy(hasher, r); err != nil {
		return "", fmt.Errorf("failed to calculate checksum: %w", err)
	}
	return hex.EncodeToString(hasher.Sum(nil)), nil
}

func (a *Archiver) writeError(path, msg string, err error) error {
	return &models.Error{Kind: models.ArchiveWriteError, Path: path, Message: msg, Err: err}
}

// writeEntries 依次写入每个文件
func writeEntries(w io.Writer, files []models.PendingFile) error {
	zipWriter := zip.NewWriter(w)

	for _, f := range files {
		if err := addFileToZip(zipWriter, f); err != nil {
			zipWriter.Close()
			return fmt.Errorf("failed to add %s: %w", f.Path, err)
		}
	}

	return zipWriter.Close()
}

// addFileToZip 写入单个文件，条目名为文件名，保留原时间戳
func addFileToZip(zipWriter *zip.Writer, f models.PendingFile) error {
	src, err := os.Open(f.Path)
	if err != nil {
		return err
	}
	defer src.Close()

	info, err := src.Stat()
	if err != nil {
		return err
	}

	header := &zip.FileHeader{
		Name:   filepath.Base(f.Path),
		Method: zip.Deflate,
	}
	header.SetMode(info.Mode())
	setTimestamps(header, f.Times)

	w, err := zipWriter.CreateHeader(header)
	if err != nil {
		return err
	}

	_, err = io.Copy(w, src)
	return err
}

// setTimestamps 写入MS-DOS时间和扩展时间戳（修改、访问、创建）
// Modified 保持为零值，避免zip.Writer追加只含修改时间的重复字段
func setTimestamps(header *zip.FileHeader, times models.FileTimes) {
	if times.Modified.IsZero() {
		return
	}
	header.ModifiedDate, header.ModifiedTime = msDosTime(times.Modified)

	flags := byte(extTimeModTime)
	stamps := []time.Time{times.Modified}
	if !times.Accessed.IsZero() {
		flags |= extTimeAccTime
		stamps = append(stamps, times.Accessed)
	}
	if !times.Created.IsZero() {
		flags |= extTimeCrTime
		stamps = append(stamps, times.Created)
	}

	buf := make([]byte, 0, 5+4*len(stamps))
	buf = binary.LittleEndian.AppendUint16(buf, extTimeExtraID)
	buf = binary.LittleEndian.AppendUint16(buf, uint16(1+4*len(stamps)))
	buf = append(buf, flags)
	for _, ts := range stamps {
		buf = binary.LittleEndian.AppendUint32(buf, unixTime32(ts))
	}
	header.Extra = append(header.Extra, buf...)
}

// unixTime32 扩展时间戳字段为32位无符号秒数，超出范围时取边界值
func unixTime32(t time.Time) uint32 {
	sec := t.Unix()
	switch {
	case sec < 0:
		return 0
	case sec > math.MaxUint32:
		return math.MaxUint32
	default:
		return uint32(sec)
	}
}

// msDosTime 将时间转换为MS-DOS日期和时间（本地时间，2秒精度）
// 可表示的范围为1980年至2107年，超出时取边界值
func msDosTime(t time.Time) (uint16, uint16) {
	t = t.Local()
	switch {
	case t.Year() < 1980:
		t = time.Date(1980, 1, 1, 0, 0, 0, 0, time.Local)
	case t.Year() > 2107:
		t = time.Date(2107, 12, 31, 23, 59, 58, 0, time.Local)
	}
	date := uint16(t.Day() + int(t.Month())<<5 + (t.Year()-1980)<<9)
	clock := uint16(t.Second()/2 + t.Minute()<<5 + t.Hour()<<11)
	return date, clock
}
