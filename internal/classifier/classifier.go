package classifier

import (
	"path/filepath"
	"strings"
	"time"

	"file-archiver/internal/cutoff"
	"file-archiver/internal/models"
)

const (
	// root/分类/编号/文件
	structuredFileDepth = 3
	// root/分类/文件
	flatFileDepth = 2
)

// Layout 分类文件夹的布局配置
type Layout struct {
	structured map[string]bool
	flat       map[string]bool
	// 未配置有子结构列表时，所有非扁平分类均视为有子结构
	structuredDefault bool
}

// NewLayout 根据配置的文件夹名创建布局
func NewLayout(structured, flat []string, structuredDefault bool) Layout {
	l := Layout{
		structured:        make(map[string]bool, len(structured)),
		flat:              make(map[string]bool, len(flat)),
		structuredDefault: structuredDefault,
	}
	for _, name := range structured {
		l.structured[name] = true
	}
	for _, name := range flat {
		l.flat[name] = true
	}
	return l
}

// Category 返回分类文件夹的布局类型
func (l Layout) Category(name string) models.LayoutCategory {
	switch {
	case l.flat[name]:
		return models.LayoutFlat
	case l.structured[name]:
		return models.LayoutStructured
	case l.structuredDefault && name != "":
		return models.LayoutStructured
	default:
		return models.LayoutNone
	}
}

// Candidate 被访问的文件
type Candidate struct {
	Name            string
	Depth           int
	ParentName      string
	GrandparentName string
	Timestamp       time.Time
}

// NewCandidate 根据文件路径和层级创建Candidate
func NewCandidate(path string, depth int, ts time.Time) Candidate {
	parent := filepath.Dir(path)
	return Candidate{
		Name:            filepath.Base(path),
		Depth:           depth,
		ParentName:      filepath.Base(parent),
		GrandparentName: filepath.Base(filepath.Dir(parent)),
		Timestamp:       ts,
	}
}

// Classifier 按布局和截止日期判断文件是否需要归档
type Classifier struct {
	layout       Layout
	cutoff       time.Time
	skipArchives bool
}

// NewClassifier 为一次运行创建分类器
func NewClassifier(layout Layout, cutoffDate time.Time, skipArchives bool) *Classifier {
	return &Classifier{
		layout:       layout,
		cutoff:       cutoffDate,
		skipArchives: skipArchives,
	}
}

// Eligible 判断文件是否位于可归档的位置
func (c *Classifier) Eligible(f Candidate) bool {
	switch {
	case f.Depth == structuredFileDepth && c.layout.Category(f.GrandparentName) == models.LayoutStructured:
		return true
	case f.Depth == flatFileDepth && c.layout.Category(f.ParentName) == models.LayoutFlat:
		return true
	default:
		return false
	}
}

// IsArchiveCandidate 判断文件是否需要归档：
// 位置符合布局、不是已有的压缩包、且日期早于截止日期
func (c *Classifier) IsArchiveCandidate(f Candidate) bool {
	if !c.Eligible(f) {
		return false
	}
	if c.skipArchives && IsArchiveName(f.Name) {
		return false
	}
	return cutoff.IsBefore(f.Timestamp, c.cutoff)
}

// IsArchiveTarget 判断目录是否为归档目标（其待归档文件打包为一个压缩包）
func (c *Classifier) IsArchiveTarget(dir string, depth int) bool {
	switch depth {
	case 1:
		return c.layout.Category(filepath.Base(dir)) == models.LayoutFlat
	case 2:
		return c.layout.Category(filepath.Base(filepath.Dir(dir))) == models.LayoutStructured
	default:
		return false
	}
}

// TargetFor 返回文件所属的目标目录
// 两种布局下都是文件所在的目录
func TargetFor(path string) string {
	return filepath.Dir(path)
}

// IsArchiveName 判断文件名是否为zip压缩包
func IsArchiveName(name string) bool {
	return strings.EqualFold(filepath.Ext(name), ".zip")
}
