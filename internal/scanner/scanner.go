package scanner

import (
	"context"
	"errors"
	"io/fs"
	"os"
	"path/filepath"

	"file-archiver/internal/models"
)

// SkipDir 由EnterDir返回，表示不进入该目录
var SkipDir = errors.New("skip this directory")

// Visitor 遍历回调
type Visitor interface {
	// EnterDir 进入目录前调用
	EnterDir(dir string, depth int) error
	// VisitFile 访问普通文件
	VisitFile(path string, depth int, times models.FileTimes) error
	// ExitDir 目录的所有子节点处理完毕后调用
	ExitDir(dir string, depth int) error
}

// TreeScanner 深度优先遍历根目录
type TreeScanner struct {
	rootPath string
	reserved map[string]bool
}

// NewTreeScanner 创建新的扫描器，reserved中的目录名在遍历时被跳过
func NewTreeScanner(rootPath string, reserved ...string) *TreeScanner {
	r := make(map[string]bool, len(reserved))
	for _, name := range reserved {
		if name != "" {
			r[name] = true
		}
	}
	return &TreeScanner{
		rootPath: rootPath,
		reserved: r,
	}
}

// IsReserved 判断目录名是否被保留
func (s *TreeScanner) IsReserved(name string) bool {
	return s.reserved[name]
}

// Walk 遍历根目录，按字典序访问兄弟节点
func (s *TreeScanner) Walk(ctx context.Context, v Visitor) error {
	info, err := os.Stat(s.rootPath)
	if err != nil {
		return &models.Error{Kind: models.TraversalError, Path: s.rootPath, Message: "cannot stat root directory", Err: err}
	}
	if !info.IsDir() {
		return &models.Error{Kind: models.TraversalError, Path: s.rootPath, Message: "root is not a directory"}
	}

	return s.walkDir(ctx, s.rootPath, 0, v)
}

// walkDir 递归处理目录
func (s *TreeScanner) walkDir(ctx context.Context, dir string, depth int, v Visitor) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	if err := v.EnterDir(dir, depth); err != nil {
		if errors.Is(err, SkipDir) {
			return nil
		}
		return err
	}

	// os.ReadDir 已按文件名排序
	entries, err := os.ReadDir(dir)
	if err != nil {
		return &models.Error{Kind: models.TraversalError, Path: dir, Message: "failed to read directory", Err: err}
	}

	for _, entry := range entries {
		entryPath := filepath.Join(dir, entry.Name())

		if entry.IsDir() {
			if s.IsReserved(entry.Name()) {
				continue
			}
			if err := s.walkDir(ctx, entryPath, depth+1, v); err != nil {
				return err
			}
			continue
		}

		// 只处理普通文件
		if !entry.Type().IsRegular() {
			continue
		}

		fileInfo, err := entry.Info()
		if err != nil {
			return &models.Error{Kind: models.TraversalError, Path: entryPath, Message: "failed to get file info", Err: err}
		}

		times, err := ReadTimes(entryPath, fileInfo)
		if err != nil {
			return &models.Error{Kind: models.TraversalError, Path: entryPath, Message: "failed to read file times", Err: err}
		}

		if err := v.VisitFile(entryPath, depth+1, times); err != nil {
			return err
		}
	}

	return v.ExitDir(dir, depth)
}

// fallbackTimes 在无法获取创建时间时以修改时间代替
func fallbackTimes(info fs.FileInfo) models.FileTimes {
	return models.FileTimes{
		Created:  info.ModTime(),
		Modified: info.ModTime(),
		Accessed: info.ModTime(),
	}
}
