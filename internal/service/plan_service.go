package service

import (
	"context"
	"fmt"
	"time"

	"focustrack_backend/internal/model"
	"focustrack_backend/internal/util"
)

type CreatePlanInput struct {
	CourseID        string
	Topic           string
	Description     string
	Date            time.Time
	StartTime       string
	PlannedDuration int
	Priority        string
	StudyType       string
	Notes           string
}

type PlanService struct {
	plans    StudyPlanRepository
	courses  CourseRepository
	activity *ActivityService
	clock    util.Clock
}

func NewPlanService(plans StudyPlanRepository, courses CourseRepository, activity *ActivityService, clock util.Clock) *PlanService {
	if clock == nil {
		clock = util.RealClock{}
	}
	return &PlanService{plans: plans, courses: courses, activity: activity, clock: clock}
}

func (s *PlanService) Create(ctx context.Context, userID string, in CreatePlanInput) (*model.StudyPlan, error) {
	if in.StartTime != "" {
		if _, err := util.ParseClock(in.StartTime); err != nil {
			return nil, err
		}
	}
	course, err := s.courses.FindByID(ctx, userID, in.CourseID)
	if err != nil {
		return nil, err
	}

	plan := &model.StudyPlan{
		UserID:          userID,
		CourseID:        course.ID,
		Topic:           in.Topic,
		Description:     in.Description,
		Date:            localDate(in.Date),
		StartTime:       in.StartTime,
		PlannedDuration: in.PlannedDuration,
		Priority:        in.Priority,
		StudyType:       in.StudyType,
		Status:          model.PlanPending,
		Notes:           in.Notes,
	}
	if plan.Priority == "" {
		plan.Priority = "medium"
	}
	if plan.StudyType == "" {
		plan.StudyType = "review"
	}
	if err := s.plans.Create(ctx, plan); err != nil {
		return nil, fmt.Errorf("create plan: %w", err)
	}
	plan.Course = course

	s.activity.Record(ctx, ActivityEntry{
		UserID:      userID,
		Event:       "created",
		SubjectType: "study_plan",
		SubjectID:   plan.ID,
		Description: "Study plan created",
		Properties:  map[string]interface{}{"date": plan.Date.Format(util.DateFormat), "topic": plan.Topic},
	})
	return plan, nil
}

// List 返回 [from, to] 内的计划
func (s *PlanService) List(ctx context.Context, userID string, from, to time.Time) ([]model.StudyPlan, error) {
	if to.Before(from) {
		return nil, util.ErrInvalidDateRange
	}
	return s.plans.ListByDateRange(ctx, userID, localDate(from), localDate(to))
}

// Complete 标记计划完成，未提供实际时长时按计划时长记录
func (s *PlanService) Complete(ctx context.Context, userID, id string, actualMinutes *int) (*model.StudyPlan, error) {
	plan, err := s.plans.FindByID(ctx, userID, id)
	if err != nil {
		return nil, err
	}
	minutes := plan.PlannedDuration
	if actualMinutes != nil {
		minutes = *actualMinutes
	}
	plan.Complete(minutes, s.clock.Now())
	if err := s.plans.Update(ctx, plan); err != nil {
		return nil, fmt.Errorf("complete plan: %w", err)
	}

	s.activity.Record(ctx, ActivityEntry{
		UserID:      userID,
		Event:       "completed",
		SubjectType: "study_plan",
		SubjectID:   plan.ID,
		Description: "Study plan completed",
		Properties:  map[string]interface{}{"actual_duration": minutes},
	})
	return plan, nil
}
