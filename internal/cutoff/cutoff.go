package cutoff

import (
	"fmt"
	"time"

	"file-archiver/internal/models"
)

// Compute 根据年份和月份计算截止日期（不含）
// rollToNextMonth为true时截止日期为下个月1日，即包含配置的月份
func Compute(year, month int, rollToNextMonth bool, loc *time.Location) (time.Time, error) {
	if year < 0 {
		return time.Time{}, &models.Error{
			Kind:    models.InvalidDateConfig,
			Message: fmt.Sprintf("invalid year: %d", year),
		}
	}
	if month < 1 || month > 12 {
		return time.Time{}, &models.Error{
			Kind:    models.InvalidDateConfig,
			Message: fmt.Sprintf("invalid month: %d", month),
		}
	}
	if loc == nil {
		loc = time.Local
	}

	if rollToNextMonth {
		month++
		if month > 12 {
			month = 1
			year++
		}
	}

	return time.Date(year, time.Month(month), 1, 0, 0, 0, 0, loc), nil
}

// Label 返回压缩包名称中使用的年月，即截止日期的前一个月
func Label(cutoff time.Time) (int, int) {
	year, month := cutoff.Year(), int(cutoff.Month())
	if month == 1 {
		return year - 1, 12
	}
	return year, month - 1
}

// IsBefore 判断时间戳所在日期（按截止日期的时区）是否早于截止日期
func IsBefore(ts, cutoff time.Time) bool {
	y, m, d := ts.In(cutoff.Location()).Date()
	day := time.Date(y, m, d, 0, 0, 0, 0, cutoff.Location())
	return day.Before(cutoff)
}
