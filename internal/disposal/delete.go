package disposal

import (
	"context"
	"fmt"
	"os"

	"file-archiver/internal/models"
)

// DeleteDisposer 直接删除原文件
type DeleteDisposer struct{}

// NewDeleteDisposer 创建删除处理器
func NewDeleteDisposer() *DeleteDisposer {
	return &DeleteDisposer{}
}

// Dispose 实现Disposer接口 - 删除文件
func (d *DeleteDisposer) Dispose(ctx context.Context, file models.PendingFile, targetDir string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	if err := os.Remove(file.Path); err != nil {
		return "", fmt.Errorf("failed to delete %s: %w", file.Path, err)
	}
	return "", nil
}

// Name 实现Disposer接口
func (d *DeleteDisposer) Name() string {
	return string(models.DispositionDelete)
}
