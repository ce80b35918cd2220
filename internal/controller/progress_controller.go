package controller

import (
	"focustrack_backend/internal/service"
	"focustrack_backend/internal/util"

	"github.com/gin-gonic/gin"
)

// ProgressController 周报与学习分析
type ProgressController struct {
	WeeklyReportService *service.WeeklyReportService
	AnalyticsService    *service.AnalyticsService
	Clock               util.Clock
}

func NewProgressController(weeklyReportService *service.WeeklyReportService, analyticsService *service.AnalyticsService, clock util.Clock) *ProgressController {
	return &ProgressController{
		WeeklyReportService: weeklyReportService,
		AnalyticsService:    analyticsService,
		Clock:               clockOrReal(clock),
	}
}

// GenerateWeeklyReportRequest 生成周报请求
// swagger:model GenerateWeeklyReportRequest
type GenerateWeeklyReportRequest struct {
	WeekStart string `json:"week_start"`
}

// GetWeeklyReport godoc
// @Summary 获取周报
// @Description 读取指定周的学习报告，不存在时先生成
// @Tags 学习进度
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param week_start query string false "周起始日期 YYYY-MM-DD，默认本周"
// @Success 200 {object} util.Response{data=model.WeeklyReportView} "成功"
// @Failure 400 {object} util.Response "请求参数错误"
// @Failure 401 {object} util.Response "未授权"
// @Failure 500 {object} util.Response "服务器内部错误"
// @Router /api/progress/weekly [get]
func (c *ProgressController) GetWeeklyReport(ctx *gin.Context) {
	user := util.GetUserFromContext(ctx)
	if user == nil {
		util.Unauthorized(ctx)
		return
	}

	weekStart, err := weekStartParam(ctx.Query("week_start"), c.Clock.Now())
	if err != nil {
		util.HandleError(ctx, err)
		return
	}

	view, err := c.WeeklyReportService.GetWeeklyReport(ctx.Request.Context(), user.UserID, weekStart)
	if err != nil {
		util.HandleError(ctx, err)
		return
	}

	util.Success(ctx, view)
}

// GenerateWeeklyReport godoc
// @Summary 生成周报
// @Description 重新计算并保存指定周的学习报告，可重复调用
// @Tags 学习进度
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body GenerateWeeklyReportRequest true "周起始日期"
// @Success 200 {object} util.Response{data=model.WeeklyReport} "成功"
// @Failure 400 {object} util.Response "请求参数错误"
// @Failure 401 {object} util.Response "未授权"
// @Failure 500 {object} util.Response "服务器内部错误"
// @Router /api/progress/weekly/generate [post]
func (c *ProgressController) GenerateWeeklyReport(ctx *gin.Context) {
	user := util.GetUserFromContext(ctx)
	if user == nil {
		util.Unauthorized(ctx)
		return
	}

	var request GenerateWeeklyReportRequest
	if err := ctx.ShouldBindJSON(&request); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}

	weekStart, err := weekStartParam(request.WeekStart, c.Clock.Now())
	if err != nil {
		util.HandleError(ctx, err)
		return
	}

	report, created, err := c.WeeklyReportService.GenerateWeeklyReport(ctx.Request.Context(), user.UserID, weekStart)
	if err != nil {
		util.HandleError(ctx, err)
		return
	}

	util.Success(ctx, gin.H{
		"report":  report,
		"created": created,
	})
}

// GetAnalytics godoc
// @Summary 学习分析
// @Description 学习连续性与各课程时间分布，默认最近 60 天
// @Tags 学习进度
// @Produce json
// @Security BearerAuth
// @Param from query string false "起始日期 YYYY-MM-DD"
// @Param to query string false "结束日期 YYYY-MM-DD"
// @Success 200 {object} util.Response{data=model.Analytics} "成功"
// @Failure 400 {object} util.Response "请求参数错误"
// @Failure 401 {object} util.Response "未授权"
// @Router /api/progress/analytics [get]
func (c *ProgressController) GetAnalytics(ctx *gin.Context) {
	user := util.GetUserFromContext(ctx)
	if user == nil {
		util.Unauthorized(ctx)
		return
	}

	from, err := optionalDate(ctx, "from")
	if err != nil {
		util.BadRequest(ctx, "from must be YYYY-MM-DD")
		return
	}
	to, err := optionalDate(ctx, "to")
	if err != nil {
		util.BadRequest(ctx, "to must be YYYY-MM-DD")
		return
	}

	analytics, err := c.AnalyticsService.GetAnalytics(ctx.Request.Context(), user.UserID, from, to)
	if err != nil {
		util.HandleError(ctx, err)
		return
	}

	util.Success(ctx, analytics)
}
