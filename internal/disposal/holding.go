package disposal

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"syscall"

	"file-archiver/internal/archiver"
	"file-archiver/internal/logger"
	"file-archiver/internal/models"
)

// HoldingDisposer 将原文件移动到保留目录，保留目录下镜像原目录结构
// 例如 root/A/001/x.txt → root/deleted/A/001/x.txt
type HoldingDisposer struct {
	rootPath   string
	holdingDir string
}

// NewHoldingDisposer 创建移动处理器
func NewHoldingDisposer(rootPath, holdingDirName string) *HoldingDisposer {
	return &HoldingDisposer{
		rootPath:   rootPath,
		holdingDir: filepath.Join(rootPath, holdingDirName),
	}
}

// HoldingPath 返回目标目录在保留目录中的对应路径
func (h *HoldingDisposer) HoldingPath(targetDir string) (string, error) {
	rel, err := filepath.Rel(h.rootPath, targetDir)
	if err != nil {
		return "", fmt.Errorf("failed to relativize %s: %w", targetDir, err)
	}
	if rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return "", fmt.Errorf("target %s is outside root %s", targetDir, h.rootPath)
	}
	return filepath.Join(h.holdingDir, rel), nil
}

// Dispose 实现Disposer接口 - 移动文件
func (h *HoldingDisposer) Dispose(ctx context.Context, file models.PendingFile, targetDir string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	destDir, err := h.HoldingPath(targetDir)
	if err != nil {
		return "", err
	}

	// 按需创建中间目录
	if err := os.MkdirAll(destDir, 0755); err != nil {
		return "", fmt.Errorf("failed to create holding directory %s: %w", destDir, err)
	}

	// 保留目录中已有同名文件时追加 _1、_2……
	destPath, err := archiver.UniquePath(destDir, filepath.Base(file.Path))
	if err != nil {
		return "", err
	}

	if err := moveFile(file.Path, destPath); err != nil {
		return "", err
	}
	restoreTimes(destPath, file.Times)

	return destPath, nil
}

// Restore 将已移动到保留目录的文件移回原位置
func (h *HoldingDisposer) Restore(file models.PendingFile, dest string) error {
	if _, err := os.Lstat(file.Path); err == nil {
		return fmt.Errorf("cannot restore %s: path is occupied", file.Path)
	}
	if err := moveFile(dest, file.Path); err != nil {
		return err
	}
	restoreTimes(file.Path, file.Times)
	return nil
}

// Name 实现Disposer接口
func (h *HoldingDisposer) Name() string {
	return string(models.DispositionMove)
}

// moveFile 重命名文件，跨设备时退回到复制+删除
func moveFile(src, dst string) error {
	if err := os.Rename(src, dst); err != nil {
		if !errors.Is(err, syscall.EXDEV) {
			return fmt.Errorf("failed to move %s: %w", src, err)
		}
		if err := copyAndDelete(src, dst); err != nil {
			return fmt.Errorf("failed to move %s: %w", src, err)
		}
	}
	return nil
}

// restoreTimes 移动后恢复原时间戳，失败只记录警告
func restoreTimes(path string, times models.FileTimes) {
	if times.Modified.IsZero() {
		return
	}
	if err := os.Chtimes(path, times.Accessed, times.Modified); err != nil {
		logger.WithError(err).WithField("file", path).Warn("Failed to restore file times")
	}
}

// copyAndDelete 复制文件后删除源文件
func copyAndDelete(src, dst string) error {
	srcFile, err := os.Open(src)
	if err != nil {
		return err
	}
	defer srcFile.Close()

	info, err := srcFile.Stat()
	if err != nil {
		return err
	}

	dstFile, err := os.OpenFile(dst, os.O_WRONLY|os.O_CREATE|os.O_EXCL, info.Mode().Perm())
	if err != nil {
		return err
	}

	if _, err := io.Copy(dstFile, srcFile); err != nil {
		dstFile.Close()
		os.Remove(dst)
		return err
	}
	if err := dstFile.Close(); err != nil {
		os.Remove(dst)
		return err
	}

	srcFile.Close()
	return os.Remove(src)
}
