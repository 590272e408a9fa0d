package config

import (
	"os"
	"path/filepath"
	"reflect"
	"testing"
	"time"

	"file-archiver/internal/models"
)

var now = time.Date(2025, 3, 10, 12, 0, 0, 0, time.UTC)

func writeConfig(t *testing.T, name, content string) string {
	t.Helper()
	p := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(p, []byte(content), 0644); err != nil {
		t.Fatalf("创建配置文件失败: %v", err)
	}
	return p
}

func TestLoadProperties(t *testing.T) {
	p := writeConfig(t, "config.properties", `
# archiver settings
semd.month=5
semd.year=2023
semd.with-structure=Reports, Invoices
semd.without-structure=Inbox
semd.disposition=delete
semd.cutoff-inclusive=true
semd.time-source=modified
semd.on-archive-error=skip
semd.skip-archives=false
semd.holding-dir=trash
`)

	cfg, err := Load(p, now)
	if err != nil {
		t.Fatalf("读取配置失败: %v", err)
	}

	expected := &models.Config{
		Year:               2023,
		Month:              5,
		Structured:         []string{"Reports", "Invoices"},
		Flat:               []string{"Inbox"},
		CutoffInclusive:    true,
		Disposition:        models.DispositionDelete,
		HoldingDirName:     "trash",
		SkipArchives:       false,
		TimeSource:         models.TimeSourceModified,
		ArchiveErrorPolicy: models.OnErrorSkip,
	}
	if !reflect.DeepEqual(cfg, expected) {
		t.Errorf("配置不一致\n期望: %+v\n实际: %+v", expected, cfg)
	}
}

func TestLoadDefaults(t *testing.T) {
	p := writeConfig(t, "config.properties", "semd.month=4\n")

	cfg, err := Load(p, now)
	if err != nil {
		t.Fatalf("读取配置失败: %v", err)
	}

	if cfg.Year != 2025 {
		t.Errorf("默认年份应为当前年份，实际 %d", cfg.Year)
	}
	if !cfg.StructuredDefault {
		t.Error("未配置有子结构列表时应默认所有分类为有子结构")
	}
	if cfg.Disposition != models.DispositionMove || cfg.HoldingDirName != "deleted" {
		t.Errorf("默认处理方式不正确: %s %s", cfg.Disposition, cfg.HoldingDirName)
	}
	if !cfg.SkipArchives || cfg.CutoffInclusive {
		t.Error("默认开关不正确")
	}
	if cfg.TimeSource != models.TimeSourceCreated || cfg.ArchiveErrorPolicy != models.OnErrorAbort {
		t.Error("默认时间源或失败策略不正确")
	}
}

func TestLoadLegacyFoldersKey(t *testing.T) {
	p := writeConfig(t, "config.properties", "semd.month=4\nsemd.folders=A,B\n")

	cfg, err := Load(p, now)
	if err != nil {
		t.Fatalf("读取配置失败: %v", err)
	}
	if !reflect.DeepEqual(cfg.Structured, []string{"A", "B"}) || cfg.StructuredDefault {
		t.Errorf("旧版键未被识别: %+v", cfg)
	}
}

func TestLoadTOML(t *testing.T) {
	p := writeConfig(t, "config.toml", `
[semd]
month = 6
year = 2023
with-structure = ["CategoryA"]
without-structure = "Inbox"
cutoff-inclusive = true
`)

	cfg, err := Load(p, now)
	if err != nil {
		t.Fatalf("读取配置失败: %v", err)
	}
	if cfg.Month != 6 || cfg.Year != 2023 || !cfg.CutoffInclusive {
		t.Errorf("TOML配置不正确: %+v", cfg)
	}
	if !reflect.DeepEqual(cfg.Structured, []string{"CategoryA"}) || !reflect.DeepEqual(cfg.Flat, []string{"Inbox"}) {
		t.Errorf("TOML文件夹列表不正确: %+v", cfg)
	}
}

func TestLoadYAML(t *testing.T) {
	p := writeConfig(t, "config.yaml", `
semd:
  month: 7
  with-structure:
    - CategoryA
    - CategoryB
  disposition: delete
`)

	cfg, err := Load(p, now)
	if err != nil {
		t.Fatalf("读取配置失败: %v", err)
	}
	if cfg.Month != 7 || cfg.Disposition != models.DispositionDelete {
		t.Errorf("YAML配置不正确: %+v", cfg)
	}
	if !reflect.DeepEqual(cfg.Structured, []string{"CategoryA", "CategoryB"}) {
		t.Errorf("YAML文件夹列表不正确: %v", cfg.Structured)
	}
}

func TestLoadErrors(t *testing.T) {
	testCases := []struct {
		name    string
		content string
		kind    models.ErrorKind
	}{
		{"缺少月份", "semd.year=2023\n", models.MissingConfig},
		{"月份为空", "semd.month=\n", models.MissingConfig},
		{"月份不是数字", "semd.month=may\n", models.InvalidConfig},
		{"未知的处理方式", "semd.month=5\nsemd.disposition=shred\n", models.InvalidConfig},
		{"未知的时间源", "semd.month=5\nsemd.time-source=birth\n", models.InvalidConfig},
		{"未知的失败策略", "semd.month=5\nsemd.on-archive-error=retry\n", models.InvalidConfig},
		{"布尔值错误", "semd.month=5\nsemd.cutoff-inclusive=maybe\n", models.InvalidConfig},
		{"保留目录名含分隔符", "semd.month=5\nsemd.holding-dir=a/b\n", models.InvalidConfig},
		{"分类重复", "semd.month=5\nsemd.with-structure=A\nsemd.without-structure=A\n", models.InvalidConfig},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			p := writeConfig(t, "config.properties", tc.content)
			_, err := Load(p, now)
			if !models.IsKind(err, tc.kind) {
				t.Errorf("期望 %s，实际 %v", tc.kind, err)
			}
		})
	}
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "absent.properties"), now)
	if !models.IsKind(err, models.MissingConfig) {
		t.Errorf("期望 MissingConfig，实际 %v", err)
	}
}

func TestNegativeYearIsKeptForCutoffValidation(t *testing.T) {
	p := writeConfig(t, "config.properties", "semd.month=5\nsemd.year=-1\n")

	cfg, err := Load(p, now)
	if err != nil {
		t.Fatalf("读取配置失败: %v", err)
	}
	if cfg.Year != -1 {
		t.Errorf("年份应原样保留，实际 %d", cfg.Year)
	}
}

func TestWorkingLayout(t *testing.T) {
	root, program, err := WorkingLayout(filepath.FromSlash("/srv/documents/archiver"))
	if err != nil {
		t.Fatalf("解析工作目录失败: %v", err)
	}
	if root != filepath.FromSlash("/srv/documents") || program != "archiver" {
		t.Errorf("根目录或程序目录不正确: %s %s", root, program)
	}
}
