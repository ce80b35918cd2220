package controller

import (
	"focustrack_backend/internal/service"
	"focustrack_backend/internal/util"

	"github.com/gin-gonic/gin"
)

type CourseController struct {
	CourseService *service.CourseService
}

func NewCourseController(courseService *service.CourseService) *CourseController {
	return &CourseController{CourseService: courseService}
}

// CreateCourseRequest 新建课程
// swagger:model CreateCourseRequest
type CreateCourseRequest struct {
	Name         string `json:"name" binding:"required,max=255"`
	Code         string `json:"code" binding:"max=50"`
	Credits      int    `json:"credits" binding:"omitempty,min=1,max=6"`
	Instructor   string `json:"instructor" binding:"max=255"`
	Color        string `json:"color" binding:"max=50"`
	Semester     string `json:"semester" binding:"max=100"`
	AcademicYear string `json:"academic_year" binding:"max=20"`
	Description  string `json:"description"`
}

// ListCourses godoc
// @Summary 课程列表
// @Tags 课程
// @Produce json
// @Security BearerAuth
// @Param active query bool false "仅返回进行中的课程"
// @Success 200 {object} util.Response{data=[]model.Course} "成功"
// @Router /api/courses [get]
func (c *CourseController) ListCourses(ctx *gin.Context) {
	user := util.GetUserFromContext(ctx)
	if user == nil {
		util.Unauthorized(ctx)
		return
	}

	courses, err := c.CourseService.List(ctx.Request.Context(), user.UserID, ctx.Query("active") == "true")
	if err != nil {
		util.HandleError(ctx, err)
		return
	}

	util.Success(ctx, courses)
}

// CreateCourse godoc
// @Summary 新建课程
// @Tags 课程
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body CreateCourseRequest true "课程"
// @Success 201 {object} util.Response{data=model.Course} "成功"
// @Failure 400 {object} util.Response "请求参数错误"
// @Router /api/courses [post]
func (c *CourseController) CreateCourse(ctx *gin.Context) {
	user := util.GetUserFromContext(ctx)
	if user == nil {
		util.Unauthorized(ctx)
		return
	}

	var request CreateCourseRequest
	if err := ctx.ShouldBindJSON(&request); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}

	course, err := c.CourseService.Create(ctx.Request.Context(), user.UserID, service.CreateCourseInput{
		Name:         request.Name,
		Code:         request.Code,
		Credits:      request.Credits,
		Instructor:   request.Instructor,
		Color:        request.Color,
		Semester:     request.Semester,
		AcademicYear: request.AcademicYear,
		Description:  request.Description,
	})
	if err != nil {
		util.HandleError(ctx, err)
		return
	}

	util.Created(ctx, course)
}

// DeleteCourse godoc
// @Summary 删除课程
// @Description 同时删除该课程下的计划、学习记录、成绩与作业
// @Tags 课程
// @Produce json
// @Security BearerAuth
// @Param id path string true "课程ID"
// @Success 200 {object} util.Response "成功"
// @Failure 404 {object} util.Response "课程不存在"
// @Router /api/courses/{id} [delete]
func (c *CourseController) DeleteCourse(ctx *gin.Context) {
	user := util.GetUserFromContext(ctx)
	if user == nil {
		util.Unauthorized(ctx)
		return
	}

	if err := c.CourseService.Delete(ctx.Request.Context(), user.UserID, ctx.Param("id")); err != nil {
		util.HandleError(ctx, err)
		return
	}

	util.Success(ctx, nil)
}
