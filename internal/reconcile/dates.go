package reconcile

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// DateFormat 日期列声明的来源格式
type DateFormat string

const (
	DateYYYYMMDD DateFormat = "yyyymmdd"
	DateYYMMDD   DateFormat = "yymmdd"
	DateMMDDYY   DateFormat = "mmddyy"
)

// DefaultReviewSentinel 无法还原时的输出标记，不回落为空串
const DefaultReviewSentinel = "review"

// CanonicalDateLayout 统一输出格式 dd/mm/yyyy
const CanonicalDateLayout = "02/01/2006"

// 两位年份统一按 2000+yy 处理
const centuryBase = 2000

// ParseDateFormat 校验配置中的格式名
func ParseDateFormat(s string) (DateFormat, error) {
	switch f := DateFormat(strings.ToLower(strings.TrimSpace(s))); f {
	case DateYYYYMMDD, DateYYMMDD, DateMMDDYY:
		return f, nil
	default:
		return "", fmt.Errorf("unknown date format %q", s)
	}
}

func (f DateFormat) width() int {
	if f == DateYYYYMMDD {
		return 8
	}
	return 6
}

// ParseDate 按声明格式解析原始单元格
func ParseDate(raw string, format DateFormat) (time.Time, error) {
	s := strings.TrimSpace(raw)
	if s == "" {
		return time.Time{}, fmt.Errorf("blank date: %w", ErrInvalidDate)
	}
	if len(s) != format.width() {
		return time.Time{}, fmt.Errorf("date %q does not match %s: %w", raw, format, ErrInvalidDate)
	}
	for _, c := range s {
		if c < '0' || c > '9' {
			return time.Time{}, fmt.Errorf("date %q contains non-digit characters: %w", raw, ErrInvalidDate)
		}
	}

	var ys, ms, ds string
	switch format {
	case DateYYYYMMDD:
		ys, ms, ds = s[0:4], s[4:6], s[6:8]
	case DateYYMMDD:
		ys, ms, ds = s[0:2], s[2:4], s[4:6]
	case DateMMDDYY:
		ms, ds, ys = s[0:2], s[2:4], s[4:6]
	default:
		return time.Time{}, fmt.Errorf("unknown date format %q: %w", format, ErrInvalidDate)
	}

	year, _ := strconv.Atoi(ys)
	if len(ys) == 2 {
		year += centuryBase
	}
	month, _ := strconv.Atoi(ms)
	day, _ := strconv.Atoi(ds)
	return calendarDate(raw, year, month, day)
}

// calendarDate time.Date 会把 2 月 30 日进位成 3 月，这里要求回读一致
func calendarDate(raw string, year, month, day int) (time.Time, error) {
	if month < 1 || month > 12 || day < 1 {
		return time.Time{}, fmt.Errorf("date %q is not a calendar date: %w", raw, ErrInvalidDate)
	}
	t := time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)
	if t.Year() != year || int(t.Month()) != month || t.Day() != day {
		return time.Time{}, fmt.Errorf("date %q is not a calendar date: %w", raw, ErrInvalidDate)
	}
	return t, nil
}

// NormalizeDate 输出 dd/mm/yyyy；失败时返回 error，调用方负责写入复核标记
func NormalizeDate(raw string, format DateFormat) (string, error) {
	t, err := ParseDate(raw, format)
	if err != nil {
		return "", err
	}
	return t.Format(CanonicalDateLayout), nil
}

// ParseCanonical 解析 dd/mm/yyyy，用于校验规范化结果
func ParseCanonical(s string) (time.Time, error) {
	t, err := time.Parse(CanonicalDateLayout, strings.TrimSpace(s))
	if err != nil {
		return time.Time{}, fmt.Errorf("canonical date %q: %w", s, ErrInvalidDate)
	}
	return t, nil
}
