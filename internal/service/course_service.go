package service

import (
	"context"
	"fmt"

	"focustrack_backend/internal/model"
	"focustrack_backend/internal/util"
)

type CreateCourseInput struct {
	Name         string
	Code         string
	Credits      int
	Instructor   string
	Color        string
	Semester     string
	AcademicYear string
	Description  string
}

type CourseService struct {
	courses  CourseRepository
	activity *ActivityService
}

func NewCourseService(courses CourseRepository, activity *ActivityService) *CourseService {
	return &CourseService{courses: courses, activity: activity}
}

// Create 学分为 0 时使用默认值 3，超出 1~6 范围返回 ErrInvalidCredits
func (s *CourseService) Create(ctx context.Context, userID string, in CreateCourseInput) (*model.Course, error) {
	credits := in.Credits
	if credits == 0 {
		credits = model.DefaultCredits
	}
	if credits < model.MinCredits || credits > model.MaxCredits {
		return nil, util.ErrInvalidCredits
	}
	color := in.Color
	if color == "" {
		color = "blue"
	}

	course := &model.Course{
		UserID:       userID,
		Name:         in.Name,
		Code:         in.Code,
		Credits:      credits,
		Instructor:   in.Instructor,
		Color:        color,
		Semester:     in.Semester,
		AcademicYear: in.AcademicYear,
		Description:  in.Description,
		IsActive:     true,
	}
	if err := s.courses.Create(ctx, course); err != nil {
		return nil, fmt.Errorf("create course: %w", err)
	}

	s.activity.Record(ctx, ActivityEntry{
		UserID:      userID,
		Event:       "created",
		SubjectType: "course",
		SubjectID:   course.ID,
		Description: "Course created",
		Properties:  map[string]interface{}{"name": course.Name, "code": course.Code},
	})
	return course, nil
}

func (s *CourseService) List(ctx context.Context, userID string, activeOnly bool) ([]model.Course, error) {
	return s.courses.ListByUser(ctx, userID, activeOnly)
}

// Delete 同时删除该课程下的计划、成绩和作业
func (s *CourseService) Delete(ctx context.Context, userID, id string) error {
	if err := s.courses.DeleteCascade(ctx, userID, id); err != nil {
		return err
	}
	s.activity.Record(ctx, ActivityEntry{
		UserID:      userID,
		Event:       "deleted",
		SubjectType: "course",
		SubjectID:   id,
		Description: "Course deleted",
	})
	return nil
}
