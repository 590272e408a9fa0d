package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/magiconair/properties"
	"gopkg.in/yaml.v2"

	"file-archiver/internal/models"
)

// 配置键
const (
	KeyMonth            = "semd.month"
	KeyYear             = "semd.year"
	KeyWithStructure    = "semd.with-structure"
	KeyWithoutStructure = "semd.without-structure"
	KeyFolders          = "semd.folders"
	KeyCutoffInclusive  = "semd.cutoff-inclusive"
	KeyDisposition      = "semd.disposition"
	KeyHoldingDir       = "semd.holding-dir"
	KeySkipArchives     = "semd.skip-archives"
	KeyTimeSource       = "semd.time-source"
	KeyOnArchiveError   = "semd.on-archive-error"
)

const (
	DefaultFileName       = "config.properties"
	DefaultHoldingDirName = "deleted"
)

// Values 配置文件的扁平键值视图
type Values map[string]string

// ReadFile 读取配置文件，按扩展名选择格式
// 除.toml、.yaml、.yml以外均按properties文件读取
func ReadFile(path string) (Values, error) {
	if _, err := os.Stat(path); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, &models.Error{Kind: models.MissingConfig, Path: path, Message: "configuration file not found"}
		}
		return nil, &models.Error{Kind: models.MissingConfig, Path: path, Message: "cannot access configuration file", Err: err}
	}

	var (
		values Values
		err    error
	)
	switch strings.ToLower(filepath.Ext(path)) {
	case ".toml":
		values, err = readTOML(path)
	case ".yaml", ".yml":
		values, err = readYAML(path)
	default:
		values, err = readProperties(path)
	}
	if err != nil {
		return nil, &models.Error{Kind: models.InvalidConfig, Path: path, Message: "cannot parse configuration file", Err: err}
	}
	return values, nil
}

func readProperties(path string) (Values, error) {
	p, err := properties.LoadFile(path, properties.UTF8)
	if err != nil {
		return nil, err
	}
	return Values(p.Map()), nil
}

func readTOML(path string) (Values, error) {
	var raw map[string]interface{}
	if _, err := toml.DecodeFile(path, &raw); err != nil {
		return nil, err
	}
	values := make(Values)
	flatten("", raw, values)
	return values, nil
}

func readYAML(path string) (Values, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var raw map[string]interface{}
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, err
	}
	values := make(Values)
	flatten("", raw, values)
	return values, nil
}

// flatten 用"."连接嵌套键，[semd] month = 5 变为 semd.month
func flatten(prefix string, node interface{}, out Values) {
	join := func(k string) string {
		if prefix == "" {
			return k
		}
		return prefix + "." + k
	}

	switch v := node.(type) {
	case map[string]interface{}:
		for k, child := range v {
			flatten(join(k), child, out)
		}
	case map[interface{}]interface{}:
		for k, child := range v {
			flatten(join(fmt.Sprint(k)), child, out)
		}
	case []interface{}:
		parts := make([]string, 0, len(v))
		for _, item := range v {
			parts = append(parts, fmt.Sprint(item))
		}
		out[prefix] = strings.Join(parts, ",")
	case nil:
	default:
		out[prefix] = fmt.Sprint(v)
	}
}

// Build 将键值转换为配置，now 用于默认年份
// 根目录、程序目录和命令行开关由调用方设置
func Build(values Values, now time.Time) (*models.Config, error) {
	cfg := &models.Config{
		Year:               now.Year(),
		HoldingDirName:     DefaultHoldingDirName,
		Disposition:        models.DispositionMove,
		SkipArchives:       true,
		TimeSource:         models.TimeSourceCreated,
		ArchiveErrorPolicy: models.OnErrorAbort,
	}

	raw, ok := values.lookup(KeyMonth)
	if !ok {
		return nil, &models.Error{Kind: models.MissingConfig, Message: "required key " + KeyMonth + " is missing"}
	}
	month, err := parseInt(KeyMonth, raw)
	if err != nil {
		return nil, err
	}
	cfg.Month = month

	if raw, ok := values.lookup(KeyYear); ok {
		year, err := parseInt(KeyYear, raw)
		if err != nil {
			return nil, err
		}
		cfg.Year = year
	}

	cfg.Flat = splitList(values[KeyWithoutStructure])
	if raw, ok := values.lookup(KeyWithStructure); ok {
		cfg.Structured = splitList(raw)
	} else if raw, ok := values.lookup(KeyFolders); ok {
		cfg.Structured = splitList(raw)
	} else {
		cfg.StructuredDefault = true
	}
	if overlap := intersect(cfg.Structured, cfg.Flat); len(overlap) > 0 {
		return nil, invalid(KeyWithStructure, strings.Join(overlap, ","), "folders listed as both structured and flat")
	}

	if raw, ok := values.lookup(KeyCutoffInclusive); ok {
		if cfg.CutoffInclusive, err = parseBool(KeyCutoffInclusive, raw); err != nil {
			return nil, err
		}
	}
	if raw, ok := values.lookup(KeySkipArchives); ok {
		if cfg.SkipArchives, err = parseBool(KeySkipArchives, raw); err != nil {
			return nil, err
		}
	}

	if raw, ok := values.lookup(KeyDisposition); ok {
		switch d := models.Disposition(strings.ToLower(raw)); d {
		case models.DispositionMove, models.DispositionDelete:
			cfg.Disposition = d
		default:
			return nil, invalid(KeyDisposition, raw, "expected move or delete")
		}
	}

	if raw, ok := values.lookup(KeyHoldingDir); ok {
		if strings.ContainsAny(raw, `/\`) || raw == "." || raw == ".." {
			return nil, invalid(KeyHoldingDir, raw, "must be a plain directory name")
		}
		cfg.HoldingDirName = raw
	}

	if raw, ok := values.lookup(KeyTimeSource); ok {
		switch s := models.TimeSource(strings.ToLower(raw)); s {
		case models.TimeSourceCreated, models.TimeSourceModified:
			cfg.TimeSource = s
		default:
			return nil, invalid(KeyTimeSource, raw, "expected created or modified")
		}
	}

	if raw, ok := values.lookup(KeyOnArchiveError); ok {
		switch p := models.ArchiveErrorPolicy(strings.ToLower(raw)); p {
		case models.OnErrorAbort, models.OnErrorSkip:
			cfg.ArchiveErrorPolicy = p
		default:
			return nil, invalid(KeyOnArchiveError, raw, "expected abort or skip")
		}
	}

	return cfg, nil
}

// Load 读取并构建配置
func Load(path string, now time.Time) (*models.Config, error) {
	values, err := ReadFile(path)
	if err != nil {
		return nil, err
	}
	cfg, err := Build(values, now)
	if err != nil {
		var e *models.Error
		if errors.As(err, &e) && e.Path == "" {
			e.Path = path
		}
		return nil, err
	}
	return cfg, nil
}

// WorkingLayout 根据工作目录得到根目录和程序目录名
// 程序目录位于根目录之下
func WorkingLayout(workDir string) (root, programDir string, err error) {
	abs, err := filepath.Abs(workDir)
	if err != nil {
		return "", "", fmt.Errorf("failed to resolve working directory: %w", err)
	}
	return filepath.Dir(abs), filepath.Base(abs), nil
}

// lookup 返回去除空白后的非空值
func (v Values) lookup(key string) (string, bool) {
	raw, ok := v[key]
	if !ok {
		return "", false
	}
	raw = strings.TrimSpace(raw)
	return raw, raw != ""
}

func parseInt(key, raw string) (int, error) {
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0, invalid(key, raw, "expected an integer")
	}
	return n, nil
}

func parseBool(key, raw string) (bool, error) {
	b, err := strconv.ParseBool(raw)
	if err != nil {
		return false, invalid(key, raw, "expected true or false")
	}
	return b, nil
}

func invalid(key, raw, reason string) error {
	return &models.Error{Kind: models.InvalidConfig, Message: fmt.Sprintf("%s=%q: %s", key, raw, reason)}
}

func splitList(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}

func intersect(a, b []string) []string {
	seen := make(map[string]bool, len(a))
	for _, s := range a {
		seen[s] = true
	}
	var out []string
	for _, s := range b {
		if seen[s] {
			out = append(out, s)
		}
	}
	sort.Strings(out)
	return out
}
