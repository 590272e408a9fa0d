package cutoff

import (
	"testing"
	"time"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"

	"file-archiver/internal/models"
)

func TestCompute(t *testing.T) {
	testCases := []struct {
		name     string
		year     int
		month    int
		roll     bool
		expected time.Time
	}{
		{"本月", 2023, 6, false, time.Date(2023, 6, 1, 0, 0, 0, 0, time.UTC)},
		{"下个月", 2023, 6, true, time.Date(2023, 7, 1, 0, 0, 0, 0, time.UTC)},
		{"十二月跨年", 2023, 12, true, time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)},
		{"一月", 2024, 1, false, time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)},
		{"零年", 0, 3, false, time.Date(0, 3, 1, 0, 0, 0, 0, time.UTC)},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := Compute(tc.year, tc.month, tc.roll, time.UTC)
			if err != nil {
				t.Fatalf("计算截止日期失败: %v", err)
			}
			if !got.Equal(tc.expected) {
				t.Errorf("期望 %v，实际 %v", tc.expected, got)
			}
		})
	}
}

func TestComputeInvalid(t *testing.T) {
	testCases := []struct {
		name  string
		year  int
		month int
	}{
		{"负数年份", -1, 5},
		{"月份为0", 2023, 0},
		{"月份为13", 2023, 13},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := Compute(tc.year, tc.month, false, time.UTC)
			if err == nil {
				t.Fatal("期望返回错误")
			}
			if !models.IsKind(err, models.InvalidDateConfig) {
				t.Errorf("期望 InvalidDateConfig，实际 %v", err)
			}
		})
	}
}

func TestLabel(t *testing.T) {
	year, month := Label(time.Date(2023, 6, 1, 0, 0, 0, 0, time.UTC))
	if year != 2023 || month != 5 {
		t.Errorf("期望 2023-05，实际 %d-%02d", year, month)
	}

	year, month = Label(time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC))
	if year != 2023 || month != 12 {
		t.Errorf("期望 2023-12，实际 %d-%02d", year, month)
	}
}

func TestIsBefore(t *testing.T) {
	cut := time.Date(2023, 6, 1, 0, 0, 0, 0, time.UTC)

	if !IsBefore(time.Date(2023, 5, 31, 23, 59, 59, 0, time.UTC), cut) {
		t.Error("5月31日应早于截止日期")
	}
	if IsBefore(time.Date(2023, 6, 1, 0, 0, 0, 0, time.UTC), cut) {
		t.Error("截止日期当天不应被选中")
	}
	if IsBefore(time.Date(2023, 6, 1, 12, 0, 0, 0, time.UTC), cut) {
		t.Error("截止日期当天的时刻应被忽略")
	}
}

func TestCutoffProperties(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 200

	properties := gopter.NewProperties(parameters)

	properties.Property("截止日期总是某月1日零点", prop.ForAll(
		func(year, month int, roll bool) bool {
			c, err := Compute(year, month, roll, time.UTC)
			if err != nil {
				return false
			}
			return c.Day() == 1 && c.Hour() == 0 && c.Minute() == 0
		},
		gen.IntRange(0, 3000),
		gen.IntRange(1, 12),
		gen.Bool(),
	))

	properties.Property("包含模式下标签等于配置的年月", prop.ForAll(
		func(year, month int) bool {
			c, err := Compute(year, month, true, time.UTC)
			if err != nil {
				return false
			}
			ly, lm := Label(c)
			return ly == year && lm == month
		},
		gen.IntRange(1, 3000),
		gen.IntRange(1, 12),
	))

	properties.Property("截止日期之后的日期永远不被选中", prop.ForAll(
		func(year, month, offsetDays int) bool {
			c, err := Compute(year, month, false, time.UTC)
			if err != nil {
				return false
			}
			return !IsBefore(c.AddDate(0, 0, offsetDays), c) && IsBefore(c.AddDate(0, 0, -offsetDays-1), c)
		},
		gen.IntRange(1, 3000),
		gen.IntRange(1, 12),
		gen.IntRange(0, 400),
	))

	properties.TestingRun(t, gopter.ConsoleReporter(false))
}
