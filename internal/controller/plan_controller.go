package controller

import (
	"focustrack_backend/internal/service"
	"focustrack_backend/internal/util"

	"github.com/gin-gonic/gin"
)

type PlanController struct {
	PlanService *service.PlanService
	Clock       util.Clock
}

func NewPlanController(planService *service.PlanService, clock util.Clock) *PlanController {
	return &PlanController{PlanService: planService, Clock: clockOrReal(clock)}
}

// CreatePlanRequest 新建学习计划
// swagger:model CreatePlanRequest
type CreatePlanRequest struct {
	CourseID        string `json:"course_id" binding:"required"`
	Topic           string `json:"topic" binding:"required,max=255"`
	Description     string `json:"description"`
	Date            string `json:"date" binding:"required"`
	StartTime       string `json:"start_time" binding:"omitempty,hhmm"`
	PlannedDuration int    `json:"planned_duration" binding:"required,min=1,max=1440"`
	Priority        string `json:"priority" binding:"omitempty,oneof=low medium high"`
	StudyType       string `json:"study_type" binding:"max=50"`
	Notes           string `json:"notes"`
}

// CompletePlanRequest 完成计划，actual_duration 缺省时取计划时长
// swagger:model CompletePlanRequest
type CompletePlanRequest struct {
	ActualDuration *int `json:"actual_duration" binding:"omitempty,min=0,max=1440"`
}

// ListPlans godoc
// @Summary 学习计划列表
// @Tags 学习计划
// @Produce json
// @Security BearerAuth
// @Param from query string false "起始日期 YYYY-MM-DD，默认本周一"
// @Param to query string false "结束日期 YYYY-MM-DD，默认本周日"
// @Success 200 {object} util.Response{data=[]model.StudyPlan} "成功"
// @Failure 400 {object} util.Response "请求参数错误"
// @Router /api/planning/plans [get]
func (c *PlanController) ListPlans(ctx *gin.Context) {
	user := util.GetUserFromContext(ctx)
	if user == nil {
		util.Unauthorized(ctx)
		return
	}

	start, end := service.WeekBounds(c.Clock.Now().UTC())
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
	if from != nil {
		start = *from
	}
	if to != nil {
		end = *to
	}

	plans, err := c.PlanService.List(ctx.Request.Context(), user.UserID, start, end)
	if err != nil {
		util.HandleError(ctx, err)
		return
	}

	util.Success(ctx, plans)
}

// CreatePlan godoc
// @Summary 新建学习计划
// @Tags 学习计划
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body CreatePlanRequest true "学习计划"
// @Success 201 {object} util.Response{data=model.StudyPlan} "成功"
// @Failure 400 {object} util.Response "请求参数错误"
// @Failure 404 {object} util.Response "课程不存在"
// @Router /api/planning/plans [post]
func (c *PlanController) CreatePlan(ctx *gin.Context) {
	user := util.GetUserFromContext(ctx)
	if user == nil {
		util.Unauthorized(ctx)
		return
	}

	var request CreatePlanRequest
	if err := ctx.ShouldBindJSON(&request); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}

	date, err := util.ParseDate(request.Date)
	if err != nil {
		util.BadRequest(ctx, "date must be YYYY-MM-DD")
		return
	}

	plan, err := c.PlanService.Create(ctx.Request.Context(), user.UserID, service.CreatePlanInput{
		CourseID:        request.CourseID,
		Topic:           request.Topic,
		Description:     request.Description,
		Date:            date,
		StartTime:       request.StartTime,
		PlannedDuration: request.PlannedDuration,
		Priority:        request.Priority,
		StudyType:       request.StudyType,
		Notes:           request.Notes,
	})
	if err != nil {
		util.HandleError(ctx, err)
		return
	}

	util.Created(ctx, plan)
}

// CompletePlan godoc
// @Summary 完成学习计划
// @Tags 学习计划
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "计划ID"
// @Param request body CompletePlanRequest false "实际时长（分钟）"
// @Success 200 {object} util.Response{data=model.StudyPlan} "成功"
// @Failure 404 {object} util.Response "计划不存在"
// @Router /api/planning/plans/{id}/complete [patch]
func (c *PlanController) CompletePlan(ctx *gin.Context) {
	user := util.GetUserFromContext(ctx)
	if user == nil {
		util.Unauthorized(ctx)
		return
	}

	var request CompletePlanRequest
	if ctx.Request.ContentLength > 0 {
		if err := ctx.ShouldBindJSON(&request); err != nil {
			util.BadRequest(ctx, err.Error())
			return
		}
	}

	plan, err := c.PlanService.Complete(ctx.Request.Context(), user.UserID, ctx.Param("id"), request.ActualDuration)
	if err != nil {
		util.HandleError(ctx, err)
		return
	}

	util.Success(ctx, plan)
}
