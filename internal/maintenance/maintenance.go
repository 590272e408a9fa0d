package maintenance

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"file-archiver/internal/archiver"
	"file-archiver/internal/classifier"
	"file-archiver/internal/cutoff"
	"file-archiver/internal/disposal"
	"file-archiver/internal/logger"
	"file-archiver/internal/models"
	"file-archiver/internal/scanner"
)

// MaintenanceManager 归档管理器
type MaintenanceManager struct {
	config   *models.Config
	disposer disposal.Disposer
}

// NewMaintenanceManager 创建归档管理器
func NewMaintenanceManager(config *models.Config, disposer disposal.Disposer) *MaintenanceManager {
	return &MaintenanceManager{
		config:   config,
		disposer: disposer,
	}
}

// RunPass 执行一次完整的归档
// 截止日期无效时不会开始遍历
func (mm *MaintenanceManager) RunPass(ctx context.Context) (*models.PassResult, error) {
	startTime := time.Now()

	// 1. 计算截止日期
	cutoffDate, err := cutoff.Compute(mm.config.Year, mm.config.Month, mm.config.CutoffInclusive, time.Local)
	if err != nil {
		return nil, err
	}

	// 2. 创建本次运行的遍历上下文
	rootPath := filepath.Clean(mm.config.RootPath)
	layout := classifier.NewLayout(mm.config.Structured, mm.config.Flat, mm.config.StructuredDefault)
	p := &pass{
		ctx:        ctx,
		config:     mm.config,
		rootPath:   rootPath,
		classifier: classifier.NewClassifier(layout, cutoffDate, mm.config.SkipArchives),
		archiver:   archiver.NewArchiver(cutoffDate),
		disposer:   mm.disposer,
		groups:     NewAggregator(),
		result: &models.PassResult{
			RunID:  uuid.NewString(),
			Cutoff: cutoffDate,
		},
	}
	p.log = logger.WithField("run_id", p.result.RunID)

	logger.LogRunStart(p.result.RunID, rootPath, cutoffDate, mm.config.DryRun)

	// 3. 遍历根目录，跳过程序目录和保留目录
	walker := scanner.NewTreeScanner(rootPath, mm.config.ProgramDirName, mm.config.HoldingDirName)
	if err := walker.Walk(ctx, p); err != nil {
		return nil, err
	}

	if p.groups.Len() != 0 {
		return nil, fmt.Errorf("%d archive groups were never processed", p.groups.Len())
	}

	p.result.Duration = time.Since(startTime)

	logger.LogRunComplete(p.result.RunID, p.result.Duration, p.result.DirectoriesVisited,
		p.result.FilesMatched, len(p.result.Archives), p.result.FilesDisposed, len(p.result.Skipped))

	return p.result, nil
}

// pass 一次运行的遍历上下文，实现scanner.Visitor
type pass struct {
	ctx        context.Context
	config     *models.Config
	rootPath   string
	classifier *classifier.Classifier
	archiver   *archiver.Archiver
	disposer   disposal.Disposer
	groups     *Aggregator
	result     *models.PassResult
	log        *logrus.Entry
}

// EnterDir 实现scanner.Visitor
func (p *pass) EnterDir(dir string, depth int) error {
	p.result.DirectoriesVisited++

	switch depth {
	case 1:
		p.log.WithField("folder", filepath.Base(dir)).Info("Entering category folder")
	case 2:
		p.log.WithField("folder", filepath.Base(dir)).Debug("Entering numbered folder")
	}
	return nil
}

// VisitFile 实现scanner.Visitor
func (p *pass) VisitFile(path string, depth int, times models.FileTimes) error {
	if p.config.TimeSource == models.TimeSourceCreated && !times.HasBirthTime {
		logger.Debugf("No birth time for %s, using modification time", path)
	}

	ts := times.Pick(p.config.TimeSource)
	candidate := classifier.NewCandidate(path, depth, ts)

	if !p.classifier.IsArchiveCandidate(candidate) {
		return nil
	}

	p.log.WithFields(logrus.Fields{
		"file":      path,
		"timestamp": ts.Format("2006-01-02 15:04:05"),
	}).Debug("File selected for archiving")

	p.groups.Record(classifier.TargetFor(path), models.PendingFile{Path: path, Times: times})
	p.result.FilesMatched++
	return nil
}

// ExitDir 实现scanner.Visitor，目标目录处理完毕后归档
func (p *pass) ExitDir(dir string, depth int) error {
	if !p.classifier.IsArchiveTarget(dir, depth) {
		return nil
	}

	group := p.groups.Take(dir)
	if group == nil || len(group.Files) == 0 {
		return nil
	}

	p.log.WithFields(logrus.Fields{
		"directory": dir,
		"files":     len(group.Files),
	}).Info("Archiving directory")

	if err := p.processGroup(group); err != nil {
		return p.handleFailure(group, err)
	}
	return nil
}

// processGroup 处理单个目标目录：命名、写入、校验、处理原文件
func (p *pass) processGroup(group *models.ArchiveGroup) error {
	if p.config.DryRun {
		archivePath, err := p.archiver.ResolvePath(group.TargetDir)
		if err != nil {
			return err
		}
		p.result.Planned = append(p.result.Planned, archivePath)
		p.log.WithField("archive", archivePath).Info("Dry run: archive would be created")
		return nil
	}

	// 1. 创建压缩包
	start := time.Now()
	archive, err := p.archiver.CreateArchive(group)
	if err != nil {
		return err
	}

	// 2. 校验压缩包，失败时删除压缩包，原文件保持不变
	if err := p.archiver.VerifyArchive(archive, group.Files); err != nil {
		if removeErr := removeArchive(archive.Path); removeErr != nil {
			p.log.WithError(removeErr).Warn("Failed to remove unverified archive")
		}
		return err
	}

	logger.LogArchiveOperation(archive.Path, "create", time.Since(start), archive.Entries, archive.Size)

	// 3. 处理原文件，任一文件失败时撤销已处理的文件并删除压缩包
	var done []disposed
	for i, file := range group.Files {
		dest, err := p.disposer.Dispose(p.ctx, file, group.TargetDir)
		if err != nil {
			disposeErr := &models.Error{Kind: models.ArchiveWriteError, Path: file.Path, Message: "failed to dispose archived file", Err: err}
			if rollbackErr := p.rollback(archive, done); rollbackErr != nil {
				return &models.Error{
					Kind:    models.ArchiveWriteError,
					Path:    archive.Path,
					Message: "rollback after failed disposal incomplete, archive kept",
					Err:     errors.Join(disposeErr, rollbackErr),
				}
			}
			return disposeErr
		}
		logger.LogFileOperation(file.Path, p.disposer.Name(), dest)
		done = append(done, disposed{index: i, file: file, dest: dest})
	}

	p.result.Archives = append(p.result.Archives, *archive)
	p.result.FilesDisposed += len(done)
	return nil
}

// disposed 已处理的原文件
type disposed struct {
	index int // 在压缩包中的条目序号
	file  models.PendingFile
	dest  string
}

// rollback 按相反顺序恢复已处理的原文件，全部恢复后删除压缩包
// 恢复失败时保留压缩包，其中仍有无法恢复的文件内容
func (p *pass) rollback(archive *models.Archive, done []disposed) error {
	restorer, canRestore := p.disposer.(disposal.Restorer)

	var errs []error
	for i := len(done) - 1; i >= 0; i-- {
		d := done[i]
		var err error
		if canRestore && d.dest != "" {
			err = restorer.Restore(d.file, d.dest)
		} else {
			err = archiver.RestoreFile(archive, d.index, d.file)
		}
		if err != nil {
			errs = append(errs, err)
			continue
		}
		logger.LogFileOperation(d.file.Path, "restore", d.file.Path)
	}
	if len(errs) > 0 {
		return errors.Join(errs...)
	}

	if err := removeArchive(archive.Path); err != nil {
		return fmt.Errorf("failed to remove archive %s: %w", archive.Path, err)
	}
	p.log.WithFields(logrus.Fields{
		"archive":  archive.Path,
		"restored": len(done),
	}).Warn("Archive removed after failed disposal")
	return nil
}

// handleFailure 按配置的策略处理归档失败
func (p *pass) handleFailure(group *models.ArchiveGroup, err error) error {
	var modelErr *models.Error
	if !errors.As(err, &modelErr) {
		err = &models.Error{Kind: models.ArchiveWriteError, Path: group.TargetDir, Message: "archiving failed", Err: err}
	}

	if p.config.ArchiveErrorPolicy == models.OnErrorSkip {
		p.log.WithError(err).WithField("directory", group.TargetDir).Warn("Archiving failed, skipping directory")
		p.result.Skipped = append(p.result.Skipped, models.SkippedTarget{
			TargetDir: group.TargetDir,
			Reason:    err.Error(),
		})
		return nil
	}

	p.log.WithError(err).WithField("directory", group.TargetDir).Error("Archiving failed")
	return err
}

func removeArchive(path string) error {
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		return err
	}
	return nil
}
