package controller

import (
	"time"

	"focustrack_backend/internal/util"

	"github.com/gin-gonic/gin"
)

func clockOrReal(clock util.Clock) util.Clock {
	if clock == nil {
		return util.RealClock{}
	}
	return clock
}

// optionalDate 读取 YYYY-MM-DD 查询参数，缺省时返回 nil
func optionalDate(ctx *gin.Context, key string) (*time.Time, error) {
	raw := ctx.Query(key)
	if raw == "" {
		return nil, nil
	}
	t, err := util.ParseDate(raw)
	if err != nil {
		return nil, err
	}
	return &t, nil
}

// weekStartParam 缺省为 now 所在周的周一
func weekStartParam(raw string, now time.Time) (time.Time, error) {
	if raw == "" {
		return util.StartOfWeek(now.UTC()), nil
	}
	t, err := util.ParseDate(raw)
	if err != nil {
		return time.Time{}, util.ErrInvalidWeekStart
	}
	return t, nil
}
