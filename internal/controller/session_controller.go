package controller

import (
	"focustrack_backend/internal/service"
	"focustrack_backend/internal/util"

	"github.com/gin-gonic/gin"
)

type SessionController struct {
	SessionService *service.SessionService
}

func NewSessionController(sessionService *service.SessionService) *SessionController {
	return &SessionController{SessionService: sessionService}
}

// StartSessionRequest 开始学习请求，可关联课程或学习计划
// swagger:model StartSessionRequest
type StartSessionRequest struct {
	CourseID    *string `json:"course_id"`
	StudyPlanID *string `json:"study_plan_id"`
	Notes       string  `json:"notes"`
}

// EndSessionRequest 结束学习请求
// swagger:model EndSessionRequest
type EndSessionRequest struct {
	Notes string `json:"notes"`
}

// StartSession godoc
// @Summary 开始学习
// @Tags 学习记录
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body StartSessionRequest true "学习记录"
// @Success 201 {object} util.Response{data=model.StudySession} "成功"
// @Failure 400 {object} util.Response "请求参数错误"
// @Failure 404 {object} util.Response "课程或计划不存在"
// @Router /api/sessions/start [post]
func (c *SessionController) StartSession(ctx *gin.Context) {
	user := util.GetUserFromContext(ctx)
	if user == nil {
		util.Unauthorized(ctx)
		return
	}

	var request StartSessionRequest
	if err := ctx.ShouldBindJSON(&request); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}

	session, err := c.SessionService.Start(ctx.Request.Context(), user.UserID, service.StartSessionInput{
		CourseID:    request.CourseID,
		StudyPlanID: request.StudyPlanID,
		Notes:       request.Notes,
	})
	if err != nil {
		util.HandleError(ctx, err)
		return
	}

	util.Created(ctx, session)
}

// EndSession godoc
// @Summary 结束学习
// @Description 时长由开始与结束时间推算
// @Tags 学习记录
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "学习记录ID"
// @Param request body EndSessionRequest false "备注"
// @Success 200 {object} util.Response{data=model.StudySession} "成功"
// @Failure 400 {object} util.Response "已结束"
// @Failure 404 {object} util.Response "记录不存在"
// @Router /api/sessions/{id}/end [patch]
func (c *SessionController) EndSession(ctx *gin.Context) {
	user := util.GetUserFromContext(ctx)
	if user == nil {
		util.Unauthorized(ctx)
		return
	}

	var request EndSessionRequest
	if ctx.Request.ContentLength > 0 {
		if err := ctx.ShouldBindJSON(&request); err != nil {
			util.BadRequest(ctx, err.Error())
			return
		}
	}

	session, err := c.SessionService.End(ctx.Request.Context(), user.UserID, ctx.Param("id"), request.Notes)
	if err != nil {
		util.HandleError(ctx, err)
		return
	}

	util.Success(ctx, session)
}
