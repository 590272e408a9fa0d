package logger

import (
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/sirupsen/logrus"
	"golang.org/x/term"
	"gopkg.in/natefinch/lumberjack.v2"
)

var Logger *logrus.Logger

// InitLogger 初始化日志系统
func InitLogger(verbose bool, logPath string) error {
	Logger = logrus.New()

	// 输出不是终端时关闭颜色
	Logger.SetFormatter(&logrus.TextFormatter{
		FullTimestamp:   true,
		TimestampFormat: "2006-01-02 15:04:05",
		DisableColors:   !term.IsTerminal(int(os.Stdout.Fd())),
	})

	// 设置日志级别
	if verbose {
		Logger.SetLevel(logrus.DebugLevel)
	} else {
		Logger.SetLevel(logrus.InfoLevel)
	}

	// 如果指定了日志路径，同时输出到文件和控制台，文件按大小滚动
	if logPath != "" {
		logDir := filepath.Dir(logPath)
		if err := os.MkdirAll(logDir, 0755); err != nil {
			return err
		}

		logFile := &lumberjack.Logger{
			Filename:   logPath,
			MaxSize:    10, // MB
			MaxBackups: 5,
			MaxAge:     90, // 天
			LocalTime:  true,
		}

		Logger.SetOutput(io.MultiWriter(os.Stdout, logFile))
	} else {
		Logger.SetOutput(os.Stdout)
	}

	return nil
}

// GetLogger 获取日志实例
func GetLogger() *logrus.Logger {
	if Logger == nil {
		// 如果未初始化，使用默认配置
		Logger = logrus.New()
		Logger.SetLevel(logrus.InfoLevel)
		Logger.SetFormatter(&logrus.TextFormatter{
			FullTimestamp:   true,
			TimestampFormat: "2006-01-02 15:04:05",
		})
	}
	return Logger
}

// WithField 创建带字段的日志条目
func WithField(key string, value interface{}) *logrus.Entry {
	return GetLogger().WithField(key, value)
}

// WithFields 创建带多个字段的日志条目
func WithFields(fields logrus.Fields) *logrus.Entry {
	return GetLogger().WithFields(fields)
}

// WithError 创建带错误字段的日志条目
func WithError(err error) *logrus.Entry {
	return GetLogger().WithError(err)
}

// Infof 记录格式化信息级别日志
func Infof(format string, args ...interface{}) {
	GetLogger().Infof(format, args...)
}

// Debugf 记录格式化调试级别日志
func Debugf(format string, args ...interface{}) {
	GetLogger().Debugf(format, args...)
}

// Warnf 记录格式化警告级别日志
func Warnf(format string, args ...interface{}) {
	GetLogger().Warnf(format, args...)
}

// Errorf 记录格式化错误级别日志
func Errorf(format string, args ...interface{}) {
	GetLogger().Errorf(format, args...)
}

// LogRunStart 记录归档开始
func LogRunStart(runID string, rootPath string, cutoff time.Time, dryRun bool) {
	WithFields(logrus.Fields{
		"run_id":     runID,
		"root_path":  rootPath,
		"cutoff":     cutoff.Format("2006-01-02"),
		"dry_run":    dryRun,
		"start_time": time.Now().Format("2006-01-02 15:04:05"),
	}).Info("Archiving started")
}

// LogRunComplete 记录归档完成
func LogRunComplete(runID string, duration time.Duration, directories, matched, archives, disposed, skipped int) {
	WithFields(logrus.Fields{
		"run_id":         runID,
		"duration":       duration.String(),
		"directories":    directories,
		"files_matched":  matched,
		"archives":       archives,
		"files_disposed": disposed,
		"skipped":        skipped,
	}).Info("Archiving completed")
}

// LogArchiveOperation 记录压缩包操作
func LogArchiveOperation(archivePath string, operation string, duration time.Duration, entries int, size int64) {
	WithFields(logrus.Fields{
		"archive":   archivePath,
		"operation": operation,
		"duration":  duration.String(),
		"entries":   entries,
		"size":      size,
	}).Info("Archive operation completed")
}

// LogFileOperation 记录文件操作
func LogFileOperation(fileName string, operation string, destination string) {
	WithFields(logrus.Fields{
		"file":        fileName,
		"operation":   operation,
		"destination": destination,
	}).Debug("File operation completed")
}
