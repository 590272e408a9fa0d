// Package watch 定时运行归档，并在配置文件变化时重新加载后立即运行
package watch

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/sirupsen/logrus"

	"file-archiver/internal/logger"
)

// DefaultDebounce 配置文件变化事件的合并窗口
const DefaultDebounce = 500 * time.Millisecond

// Trigger 触发一次运行的原因
type Trigger string

const (
	TriggerStartup Trigger = "startup"
	TriggerTimer   Trigger = "timer"
	TriggerConfig  Trigger = "config"
)

// PassFunc 执行一次归档，每次调用都应重新读取配置
type PassFunc func(ctx context.Context, trigger Trigger) error

// Options 监视选项
type Options struct {
	Interval   time.Duration // 两次运行之间的间隔
	ConfigPath string        // 监视的配置文件，为空时只按间隔运行
	Debounce   time.Duration // 配置变化事件的合并窗口
}

// Summary 监视期间的统计
type Summary struct {
	Passes   int
	Failures int
	Duration time.Duration
}

// Watcher 在单个goroutine中依次运行归档，运行之间不会重叠
type Watcher struct {
	opts    Options
	runPass PassFunc
	summary Summary
}

// New 创建监视器
func New(opts Options, runPass PassFunc) (*Watcher, error) {
	if opts.Interval <= 0 {
		return nil, fmt.Errorf("watch interval must be positive, got %s", opts.Interval)
	}
	if runPass == nil {
		return nil, errors.New("pass function is required")
	}
	if opts.Debounce <= 0 {
		opts.Debounce = DefaultDebounce
	}
	return &Watcher{opts: opts, runPass: runPass}, nil
}

// Run 立即运行一次，然后按间隔运行，直到ctx被取消
// 单次运行失败只记录日志，不会终止监视
func (w *Watcher) Run(ctx context.Context) (*Summary, error) {
	start := time.Now()

	events, errs, closeWatcher, err := w.watchConfig()
	if err != nil {
		return nil, err
	}
	defer closeWatcher()

	logger.WithFields(logrus.Fields{
		"interval": w.opts.Interval.String(),
		"config":   w.opts.ConfigPath,
	}).Info("Watch started")

	w.pass(ctx, TriggerStartup)

	ticker := time.NewTicker(w.opts.Interval)
	defer ticker.Stop()

	// 未触发时debounce为nil，select不会选中
	var debounce <-chan time.Time
	var debounceTimer *time.Timer

	for {
		select {
		case <-ctx.Done():
			if debounceTimer != nil {
				debounceTimer.Stop()
			}
			w.summary.Duration = time.Since(start)
			logger.WithFields(logrus.Fields{
				"passes":   w.summary.Passes,
				"failures": w.summary.Failures,
				"duration": w.summary.Duration.String(),
			}).Info("Watch stopped")
			return &w.summary, nil

		case <-ticker.C:
			w.pass(ctx, TriggerTimer)

		case event, ok := <-events:
			if !ok {
				events = nil
				continue
			}
			if !w.isConfigEvent(event) {
				continue
			}
			logger.WithField("event", event.Op.String()).Debug("Configuration file changed")
			if debounceTimer == nil {
				debounceTimer = time.NewTimer(w.opts.Debounce)
			} else {
				debounceTimer.Reset(w.opts.Debounce)
			}
			debounce = debounceTimer.C

		case <-debounce:
			debounce = nil
			logger.Infof("Configuration reloaded: %s", w.opts.ConfigPath)
			w.pass(ctx, TriggerConfig)
			ticker.Reset(w.opts.Interval)

		case err, ok := <-errs:
			if !ok {
				errs = nil
				continue
			}
			logger.WithError(err).Warn("Configuration watcher error")
		}
	}
}

// pass 执行一次运行并记录结果
func (w *Watcher) pass(ctx context.Context, trigger Trigger) {
	if ctx.Err() != nil {
		return
	}
	w.summary.Passes++
	if err := w.runPass(ctx, trigger); err != nil {
		if errors.Is(err, context.Canceled) {
			return
		}
		w.summary.Failures++
		logger.WithError(err).WithField("trigger", trigger).Error("Archiving pass failed")
	}
}

// watchConfig 监视配置文件所在目录，编辑器保存时常以替换方式写入
func (w *Watcher) watchConfig() (<-chan fsnotify.Event, <-chan error, func(), error) {
	if w.opts.ConfigPath == "" {
		return nil, nil, func() {}, nil
	}

	fsWatcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, nil, nil, fmt.Errorf("failed to create config watcher: %w", err)
	}

	dir, err := filepath.Abs(filepath.Dir(w.opts.ConfigPath))
	if err != nil {
		fsWatcher.Close()
		return nil, nil, nil, err
	}
	if err := fsWatcher.Add(dir); err != nil {
		fsWatcher.Close()
		return nil, nil, nil, fmt.Errorf("failed to watch %s: %w", dir, err)
	}

	return fsWatcher.Events, fsWatcher.Errors, func() { fsWatcher.Close() }, nil
}

// isConfigEvent 只关心配置文件本身的写入、创建和改名
func (w *Watcher) isConfigEvent(event fsnotify.Event) bool {
	if filepath.Base(event.Name) != filepath.Base(w.opts.ConfigPath) {
		return false
	}
	return event.Has(fsnotify.Write) || event.Has(fsnotify.Create) || event.Has(fsnotify.Rename)
}
