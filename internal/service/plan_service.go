package service

import (
	"coachlink/fitness-platform/internal/domain"
	"coachlink/fitness-platform/internal/repository"
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// --- Error Definitions ---
var (
	ErrClientNotManaged = errors.New("client is not managed by this trainer")
	ErrPlanNotFound     = errors.New("training plan not found")
	ErrPlanAccessDenied = errors.New("access denied to this training plan")
	ErrInvalidPlanShape = errors.New("weeks must be 1-52 and days per week 1-7")
)

// --- Service Interface ---
type PlanService interface {
	CreatePlan(ctx context.Context, trainerID, clientID primitive.ObjectID, name, description string, weeks, daysPerWeek int, startDate *time.Time) (*domain.TrainingPlan, error)
	GetPlansForClient(ctx context.Context, trainerID, clientID primitive.ObjectID) ([]domain.TrainingPlan, error)
	GetMyPlans(ctx context.Context, clientID primitive.ObjectID) ([]domain.TrainingPlan, error)
	ActivatePlan(ctx context.Context, trainerID, planID primitive.ObjectID) (*domain.TrainingPlan, error)
}

// --- Service Implementation ---

type planService struct {
	userRepo repository.UserRepository
	planRepo repository.TrainingPlanRepository
}

// NewPlanService creates a new instance of planService.
func NewPlanService(userRepo repository.UserRepository, planRepo repository.TrainingPlanRepository) PlanService {
	return &planService{
		userRepo: userRepo,
		planRepo: planRepo,
	}
}

// CreatePlan authors a new plan for a managed client. The week grid is
// generated as a skeleton the trainer fills in afterwards.
func (s *planService) CreatePlan(ctx context.Context, trainerID, clientID primitive.ObjectID, name, description string, weeks, daysPerWeek int, startDate *time.Time) (*domain.TrainingPlan, error) {
	if trainerID == primitive.NilObjectID || clientID == primitive.NilObjectID || name == "" {
		return nil, errors.New("trainer ID, client ID and plan name are required")
	}
	if weeks < 1 || weeks > 52 || daysPerWeek < 1 || daysPerWeek > 7 {
		return nil, ErrInvalidPlanShape
	}

	if err := s.requireManagedClient(ctx, trainerID, clientID); err != nil {
		return nil, err
	}

	plan := &domain.TrainingPlan{
		TrainerID:   trainerID,
		ClientID:    clientID,
		Name:        name,
		Description: description,
		Weeks:       weeks,
		DaysPerWeek: daysPerWeek,
		Days:        generatePlanDays(weeks, daysPerWeek),
		StartDate:   startDate,
	}

	planID, err := s.planRepo.Create(ctx, plan)
	if err != nil {
		return nil, err
	}
	plan.ID = planID
	return plan, nil
}

// generatePlanDays builds the week grid: each week gets seven slots, the
// first daysPerWeek of them training days and the rest rest days.
func generatePlanDays(weeks, daysPerWeek int) []domain.PlanDay {
	days := make([]domain.PlanDay, 0, weeks*7)
	for w := 1; w <= weeks; w++ {
		for d := 1; d <= 7; d++ {
			day := domain.PlanDay{Week: w, Day: d}
			if d <= daysPerWeek {
				day.Title = fmt.Sprintf("Week %d, session %d", w, d)
			} else {
				day.Title = "Rest"
				day.IsRestDay = true
			}
			days = append(days, day)
		}
	}
	return days
}

// GetPlansForClient lists the plans the trainer authored for a managed client.
func (s *planService) GetPlansForClient(ctx context.Context, trainerID, clientID primitive.ObjectID) ([]domain.TrainingPlan, error) {
	if err := s.requireManagedClient(ctx, trainerID, clientID); err != nil {
		return nil, err
	}
	return s.planRepo.GetByClientAndTrainerID(ctx, clientID, trainerID)
}

// GetMyPlans lists all plans authored for the client.
func (s *planService) GetMyPlans(ctx context.Context, clientID primitive.ObjectID) ([]domain.TrainingPlan, error) {
	return s.planRepo.GetByClientID(ctx, clientID)
}

// ActivatePlan makes a plan the client's single active plan.
func (s *planService) ActivatePlan(ctx context.Context, trainerID, planID primitive.ObjectID) (*domain.TrainingPlan, error) {
	plan, err := s.planRepo.GetByID(ctx, planID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrPlanNotFound
		}
		return nil, err
	}
	if plan.TrainerID != trainerID {
		return nil, ErrPlanAccessDenied
	}

	if err := s.planRepo.DeactivateForClient(ctx, plan.ClientID); err != nil {
		return nil, err
	}
	if err := s.planRepo.SetActive(ctx, plan.ID); err != nil {
		return nil, err
	}
	plan.IsActive = true
	return plan, nil
}

// requireManagedClient verifies the client exists and is on the trainer's
// roster.
func (s *planService) requireManagedClient(ctx context.Context, trainerID, clientID primitive.ObjectID) error {
	client, err := s.userRepo.GetByID(ctx, clientID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrClientNotFound
		}
		return err
	}
	if !client.IsClient() {
		return ErrNotAClient
	}
	if client.TrainerID == nil || *client.TrainerID != trainerID {
		return ErrClientNotManaged
	}
	return nil
}
