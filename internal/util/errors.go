package util

import "errors"

var (
	ErrUserNotFound        = errors.New("user not found")
	ErrPermissionDenied    = errors.New("permission denied")
	ErrInvalidDateRange    = errors.New("end date must not be before start date")
	ErrInvalidWeekStart    = errors.New("invalid week start date")
	ErrInvalidPeriod       = errors.New("period must be one of semester, year, all")
	ErrInvalidScore        = errors.New("score must be between 0 and max_score, and max_score must be positive")
	ErrInvalidCredits      = errors.New("credits must be between 1 and 6")
	ErrInvalidTime         = errors.New("time must be in HH:MM format")
	ErrInvalidTimezone     = errors.New("unknown timezone")
	ErrInvalidWeekday      = errors.New("unknown weekday")
	ErrCourseNotFound      = errors.New("course not found")
	ErrPlanNotFound        = errors.New("study plan not found")
	ErrSessionNotFound     = errors.New("study session not found")
	ErrSessionAlreadyEnded = errors.New("study session already ended")
	ErrResultNotFound      = errors.New("academic result not found")
	ErrReportNotFound      = errors.New("weekly report not found")
	ErrPreferenceNotFound  = errors.New("preferences not found")
	ErrNotificationMissing = errors.New("notification not found")
	ErrUnknownTemplate     = errors.New("unknown email template")
)
