package models

import (
	"time"
)

// LayoutCategory 分类文件夹的布局类型
type LayoutCategory int

const (
	// LayoutNone 不参与归档的文件夹
	LayoutNone LayoutCategory = iota
	// LayoutStructured 分类文件夹 → 编号文件夹 → 文件
	LayoutStructured
	// LayoutFlat 分类文件夹 → 文件
	LayoutFlat
)

func (l LayoutCategory) String() string {
	switch l {
	case LayoutStructured:
		return "structured"
	case LayoutFlat:
		return "flat"
	default:
		return "none"
	}
}

// Disposition 归档成功后原文件的处理方式
type Disposition string

const (
	DispositionMove   Disposition = "move"   // 移动到保留目录
	DispositionDelete Disposition = "delete" // 直接删除
)

// TimeSource 截止日期比较所使用的时间戳
type TimeSource string

const (
	TimeSourceCreated  TimeSource = "created"
	TimeSourceModified TimeSource = "modified"
)

// ArchiveErrorPolicy 单个目录归档失败时的处理策略
type ArchiveErrorPolicy string

const (
	OnErrorAbort ArchiveErrorPolicy = "abort" // 终止整个运行
	OnErrorSkip  ArchiveErrorPolicy = "skip"  // 跳过该目录，继续下一个
)

// FileTimes 文件的时间戳
type FileTimes struct {
	Created      time.Time `json:"created"`
	Modified     time.Time `json:"modified"`
	Accessed     time.Time `json:"accessed"`
	HasBirthTime bool      `json:"has_birth_time"` // 文件系统是否提供了真实的创建时间
}

// Pick 根据时间源返回用于比较的时间戳
func (t FileTimes) Pick(source TimeSource) time.Time {
	if source == TimeSourceModified {
		return t.Modified
	}
	return t.Created
}

// PendingFile 待归档的文件
type PendingFile struct {
	Path  string    `json:"path"`
	Times FileTimes `json:"times"`
}

// ArchiveGroup 一个目标目录下待归档的文件列表（按遍历顺序）
type ArchiveGroup struct {
	TargetDir string        `json:"target_dir"`
	Files     []PendingFile `json:"files"`
}

// Archive 已生成的压缩包
type Archive struct {
	Path      string `json:"path"`
	TargetDir string `json:"target_dir"`
	Entries   int    `json:"entries"`
	Size      int64  `json:"size"`
}

// Config 归档运行配置
type Config struct {
	RootPath           string             `json:"root_path"`            // 根目录
	ProgramDirName     string             `json:"program_dir_name"`     // 程序所在目录名（遍历时跳过）
	HoldingDirName     string             `json:"holding_dir_name"`     // 保留目录名（遍历时跳过）
	Year               int                `json:"year"`                 // 截止年份
	Month              int                `json:"month"`                // 截止月份
	Structured         []string           `json:"structured"`           // 有子结构的分类文件夹
	Flat               []string           `json:"flat"`                 // 无子结构的分类文件夹
	StructuredDefault  bool               `json:"structured_default"`   // 未配置有子结构列表时，所有非扁平分类均视为有子结构
	CutoffInclusive    bool               `json:"cutoff_inclusive"`     // 是否包含配置的月份
	Disposition        Disposition        `json:"disposition"`          // 原文件处理方式
	SkipArchives       bool               `json:"skip_archives"`        // 跳过已有的.zip文件
	TimeSource         TimeSource         `json:"time_source"`          // 时间源
	ArchiveErrorPolicy ArchiveErrorPolicy `json:"archive_error_policy"` // 归档失败策略
	DryRun             bool               `json:"dry_run"`              // 仅预览，不写入
	Verbose            bool               `json:"verbose"`              // 详细日志
}

// SkippedTarget 因错误被跳过的目标目录
type SkippedTarget struct {
	TargetDir string `json:"target_dir"`
	Reason    string `json:"reason"`
}

// PassResult 一次归档运行的结果
type PassResult struct {
	RunID              string          `json:"run_id"`
	Cutoff             time.Time       `json:"cutoff"`
	DirectoriesVisited int             `json:"directories_visited"`
	FilesMatched       int             `json:"files_matched"`
	FilesDisposed      int             `json:"files_disposed"`
	Archives           []Archive       `json:"archives"`
	Planned            []string        `json:"planned"` // 预览模式下将要生成的压缩包
	Skipped            []SkippedTarget `json:"skipped"`
	Duration           time.Duration   `json:"duration"`
}
