package util

import (
	"math"
	"time"
)

// Clock 便于在测试中固定当前时间
type Clock interface {
	Now() time.Time
}

type RealClock struct{}

func (RealClock) Now() time.Time { return time.Now() }

// FixedClock 始终返回同一时刻
type FixedClock struct {
	T time.Time
}

func (f FixedClock) Now() time.Time { return f.T }

// Round 按指定小数位四舍五入
func Round(v float64, places int) float64 {
	p := math.Pow(10, float64(places))
	return math.Round(v*p) / p
}

// StartOfDay 返回 t 所在时区当天零点
func StartOfDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}

// EndOfDay 返回当天最后一纳秒
func EndOfDay(t time.Time) time.Time {
	return StartOfDay(t).AddDate(0, 0, 1).Add(-time.Nanosecond)
}

// StartOfWeek 返回 t 所在周的周一零点
func StartOfWeek(t time.Time) time.Time {
	offset := (int(t.Weekday()) + 6) % 7
	return StartOfDay(t).AddDate(0, 0, -offset)
}

// DaysBetween 两个日期之间相隔的自然日数
func DaysBetween(from, to time.Time) int {
	a := time.Date(from.Year(), from.Month(), from.Day(), 0, 0, 0, 0, time.UTC)
	b := time.Date(to.Year(), to.Month(), to.Day(), 0, 0, 0, 0, time.UTC)
	return int(b.Sub(a).Hours() / 24)
}

// ParseDate 解析 YYYY-MM-DD，结果为 UTC 零点
func ParseDate(s string) (time.Time, error) {
	return time.ParseInLocation(DateFormat, s, time.UTC)
}

// ParseClock 解析 HH:MM，返回当天的分钟数
func ParseClock(s string) (int, error) {
	t, err := time.Parse(ClockFormat, s)
	if err != nil {
		return 0, ErrInvalidTime
	}
	return t.Hour()*60 + t.Minute(), nil
}

// ReachedClock 判断 now 的本地时刻是否已到达 HH:MM
func ReachedClock(now time.Time, hhmm string) bool {
	minutes, err := ParseClock(hhmm)
	if err != nil {
		return false
	}
	return now.Hour()*60+now.Minute() >= minutes
}

// LoadLocation 无效或空时区回退到 UTC
func LoadLocation(name string) *time.Location {
	if name == "" {
		return time.UTC
	}
	loc, err := time.LoadLocation(name)
	if err != nil {
		return time.UTC
	}
	return loc
}

func StringPtr(s string) *string { return &s }
