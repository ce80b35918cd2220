package service

import (
	"context"
	"fmt"

	"focustrack_backend/internal/model"
	"focustrack_backend/internal/util"
)

type StartSessionInput struct {
	CourseID    *string
	StudyPlanID *string
	Notes       string
}

type SessionService struct {
	sessions StudySessionRepository
	plans    StudyPlanRepository
	courses  CourseRepository
	activity *ActivityService
	clock    util.Clock
}

func NewSessionService(sessions StudySessionRepository, plans StudyPlanRepository, courses CourseRepository, activity *ActivityService, clock util.Clock) *SessionService {
	if clock == nil {
		clock = util.RealClock{}
	}
	return &SessionService{sessions: sessions, plans: plans, courses: courses, activity: activity, clock: clock}
}

// Start 开始一次学习，关联计划时课程取自计划，待开始的计划进入 in-progress
func (s *SessionService) Start(ctx context.Context, userID string, in StartSessionInput) (*model.StudySession, error) {
	session := &model.StudySession{
		UserID:    userID,
		StartTime: s.clock.Now().UTC(),
		Notes:     in.Notes,
	}

	if in.StudyPlanID != nil && *in.StudyPlanID != "" {
		plan, err := s.plans.FindByID(ctx, userID, *in.StudyPlanID)
		if err != nil {
			return nil, err
		}
		session.StudyPlanID = &plan.ID
		session.CourseID = util.StringPtr(plan.CourseID)
		if plan.Status == model.PlanPending {
			plan.Status = model.PlanInProgress
			if err := s.plans.Update(ctx, plan); err != nil {
				return nil, fmt.Errorf("update plan status: %w", err)
			}
		}
	}
	if session.CourseID == nil && in.CourseID != nil && *in.CourseID != "" {
		course, err := s.courses.FindByID(ctx, userID, *in.CourseID)
		if err != nil {
			return nil, err
		}
		session.CourseID = &course.ID
	}

	if err := s.sessions.Create(ctx, session); err != nil {
		return nil, fmt.Errorf("create session: %w", err)
	}
	s.activity.Record(ctx, ActivityEntry{
		UserID:      userID,
		Event:       "started",
		SubjectType: "study_session",
		SubjectID:   session.ID,
		Description: "Study session started",
	})
	return session, nil
}

// End 结束学习，时长由模型钩子根据起止时间计算
func (s *SessionService) End(ctx context.Context, userID, id, notes string) (*model.StudySession, error) {
	session, err := s.sessions.FindByID(ctx, userID, id)
	if err != nil {
		return nil, err
	}
	if session.EndTime != nil {
		return nil, util.ErrSessionAlreadyEnded
	}

	end := s.clock.Now().UTC()
	session.EndTime = &end
	if notes != "" {
		session.Notes = notes
	}
	session.DeriveDuration()
	if err := s.sessions.Update(ctx, session); err != nil {
		return nil, fmt.Errorf("end session: %w", err)
	}

	s.activity.Record(ctx, ActivityEntry{
		UserID:      userID,
		Event:       "ended",
		SubjectType: "study_session",
		SubjectID:   session.ID,
		Description: "Study session ended",
		Properties:  map[string]interface{}{"duration": session.Minutes()},
	})
	return session, nil
}
