package cmd

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"file-archiver/internal/models"
)

func resetFlags() {
	configPath, rootPath, logPath = "", "", ""
	verbose, dryRun = false, false
	interval = 24 * time.Hour
}

func setupTree(t *testing.T) (root, cfgPath string) {
	t.Helper()
	root = t.TempDir()
	old := time.Date(2023, 5, 1, 12, 0, 0, 0, time.Local)

	file := filepath.Join(root, "CategoryA", "001", "fileOld.txt")
	if err := os.MkdirAll(filepath.Dir(file), 0755); err != nil {
		t.Fatalf("创建目录失败: %v", err)
	}
	if err := os.WriteFile(file, []byte("old"), 0644); err != nil {
		t.Fatalf("创建文件失败: %v", err)
	}
	if err := os.Chtimes(file, old, old); err != nil {
		t.Fatalf("设置时间失败: %v", err)
	}

	cfgPath = filepath.Join(t.TempDir(), "config.properties")
	content := "semd.month=6\nsemd.year=2023\nsemd.with-structure=CategoryA\nsemd.time-source=modified\n"
	if err := os.WriteFile(cfgPath, []byte(content), 0644); err != nil {
		t.Fatalf("创建配置文件失败: %v", err)
	}
	return root, cfgPath
}

func TestRunCommand(t *testing.T) {
	resetFlags()
	root, cfgPath := setupTree(t)

	rootCmd.SetArgs([]string{"run", "--config", cfgPath, "--root", root})
	if err := rootCmd.Execute(); err != nil {
		t.Fatalf("执行失败: %v", err)
	}

	archive := filepath.Join(root, "CategoryA", "001", "2023_05_001_CategoryA.zip")
	if _, err := os.Stat(archive); err != nil {
		t.Errorf("压缩包未生成: %v", err)
	}
	if _, err := os.Stat(filepath.Join(root, "deleted", "CategoryA", "001", "fileOld.txt")); err != nil {
		t.Errorf("原文件应移动到保留目录: %v", err)
	}
}

func TestRunCommandDryRun(t *testing.T) {
	resetFlags()
	root, cfgPath := setupTree(t)

	rootCmd.SetArgs([]string{"--config", cfgPath, "--root", root, "--dry-run"})
	if err := rootCmd.Execute(); err != nil {
		t.Fatalf("执行失败: %v", err)
	}

	if _, err := os.Stat(filepath.Join(root, "CategoryA", "001", "fileOld.txt")); err != nil {
		t.Errorf("预览模式不应移动文件: %v", err)
	}
	if _, err := os.Stat(filepath.Join(root, "CategoryA", "001", "2023_05_001_CategoryA.zip")); err == nil {
		t.Error("预览模式不应创建压缩包")
	}
}

func TestRunCommandMissingConfig(t *testing.T) {
	resetFlags()
	root := t.TempDir()

	rootCmd.SetArgs([]string{"run", "--config", filepath.Join(root, "absent.properties"), "--root", root})
	err := rootCmd.Execute()
	if !models.IsKind(err, models.MissingConfig) {
		t.Errorf("期望 MissingConfig，实际 %v", err)
	}
}

func TestBuildConfigDefaults(t *testing.T) {
	resetFlags()
	_, cfgPath := setupTree(t)
	configPath = cfgPath

	cfg, err := buildConfig(time.Now())
	if err != nil {
		t.Fatalf("构建配置失败: %v", err)
	}

	wd, _ := os.Getwd()
	if cfg.RootPath != filepath.Dir(wd) {
		t.Errorf("默认根目录应为工作目录的上级目录: %s", cfg.RootPath)
	}
	if cfg.ProgramDirName != filepath.Base(wd) {
		t.Errorf("程序目录名应为工作目录名: %s", cfg.ProgramDirName)
	}
	if cfg.HoldingDirName != "deleted" {
		t.Errorf("默认保留目录名不正确: %s", cfg.HoldingDirName)
	}
}
