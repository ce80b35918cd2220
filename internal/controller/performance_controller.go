package controller

import (
	"focustrack_backend/internal/service"
	"focustrack_backend/internal/util"

	"github.com/gin-gonic/gin"
)

// PerformanceController 成绩与 GPA
type PerformanceController struct {
	PerformanceService *service.PerformanceService
	Clock              util.Clock
}

func NewPerformanceController(performanceService *service.PerformanceService, clock util.Clock) *PerformanceController {
	return &PerformanceController{PerformanceService: performanceService, Clock: clockOrReal(clock)}
}

// CreateResultRequest 新增成绩请求
// swagger:model CreateResultRequest
type CreateResultRequest struct {
	CourseID       string   `json:"course_id" binding:"required"`
	AssessmentType string   `json:"assessment_type" binding:"required,max=100"`
	AssessmentName string   `json:"assessment_name" binding:"required,max=255"`
	Score          float64  `json:"score" binding:"min=0"`
	MaxScore       float64  `json:"max_score" binding:"omitempty,gt=0"`
	Grade          string   `json:"grade" binding:"max=5"`
	Weight         *float64 `json:"weight" binding:"omitempty,min=0,max=100"`
	Semester       string   `json:"semester" binding:"required"`
	Date           string   `json:"date"`
	Notes          string   `json:"notes"`
}

// GetGpaTrend godoc
// @Summary GPA 趋势
// @Description 按学期或学年分组的累计 GPA 走势
// @Tags 学业表现
// @Produce json
// @Security BearerAuth
// @Param period query string false "semester / year / all"
// @Success 200 {object} util.Response{data=model.GpaTrend} "成功"
// @Failure 400 {object} util.Response "请求参数错误"
// @Failure 401 {object} util.Response "未授权"
// @Router /api/performance/gpa-trend [get]
func (c *PerformanceController) GetGpaTrend(ctx *gin.Context) {
	user := util.GetUserFromContext(ctx)
	if user == nil {
		util.Unauthorized(ctx)
		return
	}

	trend, err := c.PerformanceService.GetGpaTrend(ctx.Request.Context(), user.UserID, ctx.Query("period"))
	if err != nil {
		util.HandleError(ctx, err)
		return
	}

	util.Success(ctx, trend)
}

// GetSubjectPerformance godoc
// @Summary 各科表现
// @Tags 学业表现
// @Produce json
// @Security BearerAuth
// @Param semester query string false "学期，留空为全部"
// @Success 200 {object} util.Response{data=[]model.SubjectPerformance} "成功"
// @Failure 401 {object} util.Response "未授权"
// @Router /api/performance/subjects [get]
func (c *PerformanceController) GetSubjectPerformance(ctx *gin.Context) {
	user := util.GetUserFromContext(ctx)
	if user == nil {
		util.Unauthorized(ctx)
		return
	}

	subjects, err := c.PerformanceService.GetSubjectPerformance(ctx.Request.Context(), user.UserID, ctx.Query("semester"))
	if err != nil {
		util.HandleError(ctx, err)
		return
	}

	util.Success(ctx, subjects)
}

// ListResults godoc
// @Summary 成绩列表
// @Tags 学业表现
// @Produce json
// @Security BearerAuth
// @Param semester query string false "学期"
// @Success 200 {object} util.Response{data=[]model.AcademicResult} "成功"
// @Router /api/performance/results [get]
func (c *PerformanceController) ListResults(ctx *gin.Context) {
	user := util.GetUserFromContext(ctx)
	if user == nil {
		util.Unauthorized(ctx)
		return
	}

	results, err := c.PerformanceService.ListResults(ctx.Request.Context(), user.UserID, ctx.Query("semester"))
	if err != nil {
		util.HandleError(ctx, err)
		return
	}

	util.Success(ctx, results)
}

// CreateResult godoc
// @Summary 录入成绩
// @Description 百分比由分数与满分计算
// @Tags 学业表现
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body CreateResultRequest true "成绩"
// @Success 201 {object} util.Response{data=model.AcademicResult} "成功"
// @Failure 400 {object} util.Response "请求参数错误"
// @Failure 404 {object} util.Response "课程不存在"
// @Router /api/performance/results [post]
func (c *PerformanceController) CreateResult(ctx *gin.Context) {
	user := util.GetUserFromContext(ctx)
	if user == nil {
		util.Unauthorized(ctx)
		return
	}

	var request CreateResultRequest
	if err := ctx.ShouldBindJSON(&request); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}

	date := util.StartOfDay(c.Clock.Now().UTC())
	if request.Date != "" {
		parsed, err := util.ParseDate(request.Date)
		if err != nil {
			util.BadRequest(ctx, "date must be YYYY-MM-DD")
			return
		}
		date = parsed
	}

	result, err := c.PerformanceService.CreateResult(ctx.Request.Context(), user.UserID, service.CreateResultInput{
		CourseID:       request.CourseID,
		AssessmentType: request.AssessmentType,
		AssessmentName: request.AssessmentName,
		Score:          request.Score,
		MaxScore:       request.MaxScore,
		Grade:          request.Grade,
		Weight:         request.Weight,
		Semester:       request.Semester,
		Date:           date,
		Notes:          request.Notes,
	})
	if err != nil {
		util.HandleError(ctx, err)
		return
	}

	util.Created(ctx, result)
}

// DeleteResult godoc
// @Summary 删除成绩
// @Tags 学业表现
// @Produce json
// @Security BearerAuth
// @Param id path string true "成绩ID"
// @Success 200 {object} util.Response "成功"
// @Failure 404 {object} util.Response "成绩不存在"
// @Router /api/performance/results/{id} [delete]
func (c *PerformanceController) DeleteResult(ctx *gin.Context) {
	user := util.GetUserFromContext(ctx)
	if user == nil {
		util.Unauthorized(ctx)
		return
	}

	if err := c.PerformanceService.DeleteResult(ctx.Request.Context(), user.UserID, ctx.Param("id")); err != nil {
		util.HandleError(ctx, err)
		return
	}

	util.Success(ctx, nil)
}
