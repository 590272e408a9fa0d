package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"file-archiver/internal/config"
	"file-archiver/internal/disposal"
	"file-archiver/internal/logger"
	"file-archiver/internal/maintenance"
	"file-archiver/internal/models"
	"file-archiver/internal/watch"
)

var (
	configPath string
	rootPath   string
	verbose    bool
	dryRun     bool
	logPath    string
	interval   time.Duration
)

// rootCmd 根命令，不带子命令时执行一次归档
var rootCmd = &cobra.Command{
	Use:   "archiver",
	Short: "按月归档旧文件的工具",
	Long: `按月归档旧文件的工具，支持：
- 有子结构（分类/编号/文件）和扁平结构（分类/文件）两种目录布局
- 按截止月份选择旧文件，按目录打包为zip
- 归档后删除原文件或移动到保留目录
- 定时运行并在配置文件变化时重新加载

默认根目录为工作目录的上级目录，程序所在目录不参与归档。
压缩包命名为 {年}_{月}_{目录名}_{上级目录名}.zip。`,
	Example: `  # 使用工作目录中的config.properties执行一次归档
  archiver

  # 指定配置文件和根目录，仅预览
  archiver --config /etc/archiver/config.toml --root /srv/documents --dry-run

  # 每天运行一次，配置文件变化时立即运行
  archiver watch --interval 24h --log-path /var/log/archiver/archiver.log`,
	SilenceUsage: true,
	RunE:         runOnce,
}

// runCmd 执行一次归档
var runCmd = &cobra.Command{
	Use:   "run",
	Short: "执行一次归档",
	RunE:  runOnce,
}

// watchCmd 定时归档命令
var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "定时执行归档",
	Long: `立即执行一次归档，之后按间隔重复执行。
配置文件变化时重新加载并立即执行。
收到中断信号后在当前归档完成时退出。`,
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := logger.InitLogger(verbose, logPath); err != nil {
			return fmt.Errorf("初始化日志失败: %w", err)
		}

		path, err := resolveConfigPath()
		if err != nil {
			return err
		}

		// 启动前检查一次配置，之后每次运行重新读取
		if _, err := buildConfig(time.Now()); err != nil {
			return fmt.Errorf("配置无效: %w", err)
		}

		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		watcher, err := watch.New(watch.Options{Interval: interval, ConfigPath: path}, func(ctx context.Context, trigger watch.Trigger) error {
			cfg, err := buildConfig(time.Now())
			if err != nil {
				return fmt.Errorf("配置无效: %w", err)
			}
			result, err := runPass(ctx, cfg)
			if err != nil {
				return err
			}
			printPassResult(result, cfg)
			return nil
		})
		if err != nil {
			return err
		}

		fmt.Printf("开始监视，间隔: %v\n", interval)
		fmt.Printf("配置文件: %s\n", path)

		summary, err := watcher.Run(ctx)
		if err != nil {
			return err
		}

		fmt.Printf("\n=== 监视结束 ===\n")
		fmt.Printf("运行次数: %d\n", summary.Passes)
		fmt.Printf("失败次数: %d\n", summary.Failures)
		fmt.Printf("持续时间: %v\n", summary.Duration)
		return nil
	},
}

func init() {
	// 添加全局标志
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "配置文件路径（默认为工作目录中的config.properties）")
	rootCmd.PersistentFlags().StringVar(&rootPath, "root", "", "根目录（默认为工作目录的上级目录）")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "启用详细输出")
	rootCmd.PersistentFlags().BoolVar(&dryRun, "dry-run", false, "仅预览将要生成的压缩包，不修改任何文件")
	rootCmd.PersistentFlags().StringVar(&logPath, "log-path", "", "日志文件路径（可选，默认仅输出到控制台）")

	// 监视特有标志
	watchCmd.Flags().DurationVar(&interval, "interval", 24*time.Hour, "两次归档之间的间隔")

	// 添加子命令
	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(watchCmd)
}

// Execute 执行命令
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// runOnce 执行一次归档并输出结果
func runOnce(cmd *cobra.Command, args []string) error {
	if err := logger.InitLogger(verbose, logPath); err != nil {
		return fmt.Errorf("初始化日志失败: %w", err)
	}

	cfg, err := buildConfig(time.Now())
	if err != nil {
		return fmt.Errorf("配置无效: %w", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	result, err := runPass(ctx, cfg)
	if err != nil {
		return err
	}
	printPassResult(result, cfg)
	return nil
}

// resolveConfigPath 返回配置文件路径，未指定时使用工作目录中的默认文件
func resolveConfigPath() (string, error) {
	if configPath != "" {
		return configPath, nil
	}
	wd, err := os.Getwd()
	if err != nil {
		return "", fmt.Errorf("获取工作目录失败: %w", err)
	}
	return filepath.Join(wd, config.DefaultFileName), nil
}

// buildConfig 构建配置对象
func buildConfig(now time.Time) (*models.Config, error) {
	wd, err := os.Getwd()
	if err != nil {
		return nil, fmt.Errorf("获取工作目录失败: %w", err)
	}

	root, programDir, err := config.WorkingLayout(wd)
	if err != nil {
		return nil, err
	}

	path, err := resolveConfigPath()
	if err != nil {
		return nil, err
	}

	cfg, err := config.Load(path, now)
	if err != nil {
		return nil, err
	}

	if rootPath != "" {
		if root, err = filepath.Abs(rootPath); err != nil {
			return nil, fmt.Errorf("根目录无效: %w", err)
		}
	}

	cfg.RootPath = root
	cfg.ProgramDirName = programDir
	cfg.DryRun = dryRun
	cfg.Verbose = verbose

	return cfg, nil
}

// runPass 执行一次归档
func runPass(ctx context.Context, cfg *models.Config) (*models.PassResult, error) {
	disposer, err := disposal.NewDisposerFromConfig(cfg)
	if err != nil {
		return nil, fmt.Errorf("配置无效: %w", err)
	}

	manager := maintenance.NewMaintenanceManager(cfg, disposer)

	fmt.Printf("开始归档...\n")
	fmt.Printf("根目录: %s\n", cfg.RootPath)
	fmt.Printf("截止月份: %04d-%02d\n", cfg.Year, cfg.Month)
	fmt.Printf("原文件处理方式: %s\n", cfg.Disposition)

	result, err := manager.RunPass(ctx)
	if err != nil {
		logger.Errorf("归档失败: %v", err)
		return nil, fmt.Errorf("归档失败: %w", err)
	}

	return result, nil
}

// printPassResult 输出归档结果
func printPassResult(result *models.PassResult, cfg *models.Config) {
	fmt.Printf("\n=== 归档完成 ===\n")
	fmt.Printf("运行ID: %s\n", result.RunID)
	fmt.Printf("截止日期: %s\n", result.Cutoff.Format("2006-01-02"))
	fmt.Printf("耗时: %v\n", result.Duration)
	fmt.Printf("遍历目录数: %d\n", result.DirectoriesVisited)
	fmt.Printf("匹配文件数: %d\n", result.FilesMatched)
	fmt.Printf("压缩包数: %d\n", len(result.Archives))
	fmt.Printf("已处理原文件数: %d\n", result.FilesDisposed)
	fmt.Printf("跳过目录数: %d\n", len(result.Skipped))

	if len(result.Skipped) > 0 {
		fmt.Printf("\n跳过:\n")
		for _, s := range result.Skipped {
			fmt.Printf("  - %s: %s\n", s.TargetDir, s.Reason)
		}
	}

	if cfg.DryRun {
		if len(result.Planned) > 0 {
			fmt.Printf("\n将生成的压缩包:\n")
			for _, p := range result.Planned {
				fmt.Printf("  - %s\n", p)
			}
		}
		fmt.Printf("\n预览完成，未修改任何文件\n")
		return
	}

	if cfg.Verbose && len(result.Archives) > 0 {
		fmt.Printf("\n已生成压缩包:\n")
		for _, a := range result.Archives {
			fmt.Printf("  - %s (%d个文件, %d字节)\n", a.Path, a.Entries, a.Size)
		}
	}

	if len(result.Skipped) > 0 {
		logger.Warnf("归档完成，但有%d个目录被跳过", len(result.Skipped))
	} else {
		fmt.Printf("\n归档成功完成！\n")
	}
}
