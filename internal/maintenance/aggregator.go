package maintenance

import "file-archiver/internal/models"

// Aggregator 按目标目录收集待归档文件，保持遍历顺序
type Aggregator struct {
	groups map[string]*models.ArchiveGroup
}

// NewAggregator 创建新的收集器
func NewAggregator() *Aggregator {
	return &Aggregator{
		groups: make(map[string]*models.ArchiveGroup),
	}
}

// Record 将文件加入目标目录的分组，首次加入时创建分组
func (a *Aggregator) Record(targetDir string, file models.PendingFile) {
	group, ok := a.groups[targetDir]
	if !ok {
		group = &models.ArchiveGroup{TargetDir: targetDir}
		a.groups[targetDir] = group
	}
	group.Files = append(group.Files, file)
}

// Take 取出并删除目标目录的分组，没有分组时返回nil
func (a *Aggregator) Take(targetDir string) *models.ArchiveGroup {
	group, ok := a.groups[targetDir]
	if !ok {
		return nil
	}
	delete(a.groups, targetDir)
	return group
}

// Len 尚未取出的分组数量
func (a *Aggregator) Len() int {
	return len(a.groups)
}
