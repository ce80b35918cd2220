package controller

import (
	"focustrack_backend/internal/service"
	"focustrack_backend/internal/util"

	"github.com/gin-gonic/gin"
)

type SettingsController struct {
	SettingsService *service.SettingsService
}

func NewSettingsController(settingsService *service.SettingsService) *SettingsController {
	return &SettingsController{SettingsService: settingsService}
}

// UpdatePreferencesRequest 未提供的字段保持原值
// swagger:model UpdatePreferencesRequest
type UpdatePreferencesRequest struct {
	MorningEmailTime    *string `json:"morning_email_time" binding:"omitempty,hhmm"`
	ReminderTime        *string `json:"reminder_time" binding:"omitempty,hhmm"`
	EmailNotifications  *bool   `json:"email_notifications"`
	PushNotifications   *bool   `json:"push_notifications"`
	WeeklyReportEnabled *bool   `json:"weekly_report_enabled"`
	WeeklyReportDay     *string `json:"weekly_report_day"`
	Timezone            *string `json:"timezone"`
}

// GetPreferences godoc
// @Summary 获取偏好设置
// @Description 尚未保存时返回默认值
// @Tags 设置
// @Produce json
// @Security BearerAuth
// @Success 200 {object} util.Response{data=model.UserPreference} "成功"
// @Router /api/settings/preferences [get]
func (c *SettingsController) GetPreferences(ctx *gin.Context) {
	user := util.GetUserFromContext(ctx)
	if user == nil {
		util.Unauthorized(ctx)
		return
	}

	pref, err := c.SettingsService.GetPreferences(ctx.Request.Context(), user.UserID)
	if err != nil {
		util.HandleError(ctx, err)
		return
	}

	util.Success(ctx, pref)
}

// UpdatePreferences godoc
// @Summary 更新偏好设置
// @Tags 设置
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body UpdatePreferencesRequest true "偏好设置"
// @Success 200 {object} util.Response{data=model.UserPreference} "成功"
// @Failure 400 {object} util.Response "请求参数错误"
// @Router /api/settings/preferences [put]
func (c *SettingsController) UpdatePreferences(ctx *gin.Context) {
	user := util.GetUserFromContext(ctx)
	if user == nil {
		util.Unauthorized(ctx)
		return
	}

	var request UpdatePreferencesRequest
	if err := ctx.ShouldBindJSON(&request); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}

	pref, err := c.SettingsService.UpdatePreferences(ctx.Request.Context(), user.UserID, service.UpdatePreferencesInput{
		MorningEmailTime:    request.MorningEmailTime,
		ReminderTime:        request.ReminderTime,
		EmailNotifications:  request.EmailNotifications,
		PushNotifications:   request.PushNotifications,
		WeeklyReportEnabled: request.WeeklyReportEnabled,
		WeeklyReportDay:     request.WeeklyReportDay,
		Timezone:            request.Timezone,
	})
	if err != nil {
		util.HandleError(ctx, err)
		return
	}

	util.Success(ctx, pref)
}

// ExportData godoc
// @Summary 导出个人数据
// @Description 将课程、计划、学习记录、成绩等打包为 JSON 写入存储
// @Tags 设置
// @Produce json
// @Security BearerAuth
// @Success 200 {object} util.Response{data=service.ExportResult} "成功"
// @Failure 500 {object} util.Response "服务器内部错误"
// @Router /api/settings/export-data [post]
func (c *SettingsController) ExportData(ctx *gin.Context) {
	user := util.GetUserFromContext(ctx)
	if user == nil {
		util.Unauthorized(ctx)
		return
	}

	result, err := c.SettingsService.ExportData(ctx.Request.Context(), user.UserID)
	if err != nil {
		util.HandleError(ctx, err)
		return
	}

	util.Success(ctx, result)
}
