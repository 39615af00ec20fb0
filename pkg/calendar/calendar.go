// Package calendar 提供排班所需的日期计算
package calendar

import (
	"fmt"
	"time"
)

// DateLayout 标准日期格式
const DateLayout = "2006-01-02"

// MonthLayout 标准月份格式
const MonthLayout = "2006-01"

// DaysInMonth 返回指定年月的天数
func DaysInMonth(year, month int) int {
	// 下月第 0 天即本月最后一天
	return time.Date(year, time.Month(month)+1, 0, 0, 0, 0, 0, time.UTC).Day()
}

// ValidYearMonth 检查年月是否合法
func ValidYearMonth(year, month int) bool {
	return year >= 2000 && year <= 2100 && month >= 1 && month <= 12
}

// DateOf 构造 YYYY-MM-DD 日期字符串
func DateOf(year, month, day int) string {
	return fmt.Sprintf("%04d-%02d-%02d", year, month, day)
}

// Parse 解析 YYYY-MM-DD 日期字符串
func Parse(date string) (time.Time, error) {
	return time.Parse(DateLayout, date)
}

// Format 格式化为 YYYY-MM-DD
func Format(t time.Time) string {
	return t.Format(DateLayout)
}

// ValidDate 检查日期字符串是否合法
func ValidDate(date string) bool {
	_, err := Parse(date)
	return err == nil
}

// IsWeekend 检查日期是否为周末（周六/周日）
// 非法日期返回 false
func IsWeekend(date string) bool {
	t, err := Parse(date)
	if err != nil {
		return false
	}
	wd := t.Weekday()
	return wd == time.Saturday || wd == time.Sunday
}

// PrevDay 返回前一天日期
func PrevDay(date string) string {
	t, err := Parse(date)
	if err != nil {
		return ""
	}
	return Format(t.AddDate(0, 0, -1))
}

// NextDay 返回后一天日期
func NextDay(date string) string {
	t, err := Parse(date)
	if err != nil {
		return ""
	}
	return Format(t.AddDate(0, 0, 1))
}

// IsConsecutive 检查 date2 是否为 date1 的次日
func IsConsecutive(date1, date2 string) bool {
	t1, err1 := Parse(date1)
	t2, err2 := Parse(date2)
	if err1 != nil || err2 != nil {
		return false
	}
	return t2.Sub(t1).Hours() == 24
}

// MonthKey 返回日期所在月份（YYYY-MM）
func MonthKey(date string) string {
	t, err := Parse(date)
	if err != nil {
		return ""
	}
	return t.Format(MonthLayout)
}

// SameMonth 检查两个日期是否在同一自然月
func SameMonth(date1, date2 string) bool {
	k1, k2 := MonthKey(date1), MonthKey(date2)
	return k1 != "" && k1 == k2
}

// DaysBetween 返回 from 到 to 的天数（to 在 from 之后为正）
func DaysBetween(from, to string) int {
	t1, err1 := Parse(from)
	t2, err2 := Parse(to)
	if err1 != nil || err2 != nil {
		return 0
	}
	return int(t2.Sub(t1).Hours() / 24)
}
