package disposal

import (
	"context"
	"fmt"

	"file-archiver/internal/models"
)

// Disposer 归档成功后处理原文件
type Disposer interface {
	// Dispose 处理已归档的文件，返回文件的新位置（删除时为空）
	Dispose(ctx context.Context, file models.PendingFile, targetDir string) (string, error)

	// Name 处理方式名称，用于日志
	Name() string
}

// Restorer 可以撤销Dispose的处理器
// 删除处理器不实现该接口，被删除的文件只能从压缩包中恢复
type Restorer interface {
	// Restore 将dest处的文件移回原位置
	Restore(file models.PendingFile, dest string) error
}

// NewDisposerFromConfig 根据配置创建对应的Disposer
func NewDisposerFromConfig(cfg *models.Config) (Disposer, error) {
	switch cfg.Disposition {
	case models.DispositionDelete:
		return NewDeleteDisposer(), nil
	case models.DispositionMove, "":
		if cfg.HoldingDirName == "" {
			return nil, fmt.Errorf("move disposition requires a holding directory name")
		}
		return NewHoldingDisposer(cfg.RootPath, cfg.HoldingDirName), nil
	default:
		return nil, fmt.Errorf("unknown disposition: %s", cfg.Disposition)
	}
}
