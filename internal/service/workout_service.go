package service

import (
	"coachlink/fitness-platform/internal/domain"
	"coachlink/fitness-platform/internal/repository"
	"coachlink/fitness-platform/internal/storage"
	"context"
	"errors"
	"mime"
	"path"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// --- Error Definitions ---
var (
	ErrInvalidPhotoType = errors.New("photo proof must have an image content type")
	ErrPhotoKeyMismatch = errors.New("photo key does not belong to this client")
	ErrUploadURLError   = errors.New("failed to generate upload URL")
	ErrDownloadURLError = errors.New("failed to generate download URL")
)

// PhotoUploadSlot carries the presigned PUT URL and the object key the client
// must echo back when logging the workout.
type PhotoUploadSlot struct {
	UploadURL string `json:"uploadUrl"`
	ObjectKey string `json:"objectKey"`
}

// WorkoutLogDetails is a log enriched with a temporary photo view URL.
type WorkoutLogDetails struct {
	domain.WorkoutLog
	PhotoURL *string `json:"photoUrl,omitempty"`
}

// LogWorkoutInput is the payload for recording a completed workout.
type LogWorkoutInput struct {
	PlanID           *primitive.ObjectID
	PerformedAt      time.Time
	Notes            string
	PhotoKey         string
	PhotoContentType string
	PhotoSize        int64
}

// --- Service Interface ---
type WorkoutService interface {
	// Photo proof upload is two-step, like any direct-to-bucket upload:
	// request a presigned slot, PUT the image, then log the workout with the
	// confirmed key.
	RequestPhotoUploadURL(ctx context.Context, clientID primitive.ObjectID, contentType string) (*PhotoUploadSlot, error)
	LogWorkout(ctx context.Context, clientID primitive.ObjectID, input LogWorkoutInput) (*domain.WorkoutLog, error)
	GetMyLogs(ctx context.Context, clientID primitive.ObjectID) ([]WorkoutLogDetails, error)
	GetClientLogs(ctx context.Context, trainerID, clientID primitive.ObjectID) ([]WorkoutLogDetails, error)
}

// --- Service Implementation ---

type workoutService struct {
	userRepo    repository.UserRepository
	workoutRepo repository.WorkoutLogRepository
	planRepo    repository.TrainingPlanRepository
	fileStorage storage.FileStorage
}

// NewWorkoutService creates a new instance of workoutService.
func NewWorkoutService(
	userRepo repository.UserRepository,
	workoutRepo repository.WorkoutLogRepository,
	planRepo repository.TrainingPlanRepository,
	fileStorage storage.FileStorage,
) WorkoutService {
	return &workoutService{
		userRepo:    userRepo,
		workoutRepo: workoutRepo,
		planRepo:    planRepo,
		fileStorage: fileStorage,
	}
}

// RequestPhotoUploadURL generates a presigned PUT URL for a workout photo.
func (s *workoutService) RequestPhotoUploadURL(ctx context.Context, clientID primitive.ObjectID, contentType string) (*PhotoUploadSlot, error) {
	if clientID == primitive.NilObjectID {
		return nil, errors.New("client ID is required")
	}
	if contentType == "" || !strings.HasPrefix(strings.ToLower(contentType), "image/") {
		return nil, ErrInvalidPhotoType
	}

	ext := ""
	if exts, err := mime.ExtensionsByType(contentType); err == nil && len(exts) > 0 {
		ext = exts[0]
	}
	objectKey := path.Join("proofs", clientID.Hex(), uuid.NewString()+ext)

	url, err := s.fileStorage.GeneratePresignedUploadURL(ctx, objectKey, contentType, storage.DefaultPresignedURLExpiry)
	if err != nil {
		return nil, ErrUploadURLError
	}

	return &PhotoUploadSlot{UploadURL: url, ObjectKey: objectKey}, nil
}

// LogWorkout records a completed workout, optionally with a confirmed photo
// proof key from RequestPhotoUploadURL.
func (s *workoutService) LogWorkout(ctx context.Context, clientID primitive.ObjectID, input LogWorkoutInput) (*domain.WorkoutLog, error) {
	if clientID == primitive.NilObjectID {
		return nil, errors.New("client ID is required")
	}

	client, err := s.userRepo.GetByID(ctx, clientID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrClientNotFound
		}
		return nil, err
	}
	if !client.IsClient() {
		return nil, ErrNotAClient
	}

	// A key may only come from this client's own upload slot.
	if input.PhotoKey != "" && !strings.HasPrefix(input.PhotoKey, "proofs/"+clientID.Hex()+"/") {
		return nil, ErrPhotoKeyMismatch
	}

	log := &domain.WorkoutLog{
		ClientID:         clientID,
		PerformedAt:      input.PerformedAt,
		Notes:            input.Notes,
		PhotoKey:         input.PhotoKey,
		PhotoContentType: input.PhotoContentType,
		PhotoSize:        input.PhotoSize,
	}
	if client.HasTrainer() {
		log.TrainerID = *client.TrainerID
	}

	if input.PlanID != nil {
		plan, err := s.planRepo.GetByID(ctx, *input.PlanID)
		if err != nil {
			if errors.Is(err, repository.ErrNotFound) {
				return nil, ErrPlanNotFound
			}
			return nil, err
		}
		if plan.ClientID != clientID {
			return nil, ErrPlanAccessDenied
		}
		log.PlanID = input.PlanID
	}

	logID, err := s.workoutRepo.Create(ctx, log)
	if err != nil {
		return nil, err
	}
	log.ID = logID
	return log, nil
}

// GetMyLogs lists the client's workout logs with temporary photo view URLs.
func (s *workoutService) GetMyLogs(ctx context.Context, clientID primitive.ObjectID) ([]WorkoutLogDetails, error) {
	logs, err := s.workoutRepo.ListByClientID(ctx, clientID)
	if err != nil {
		return nil, err
	}
	return s.enrich(ctx, logs), nil
}

// GetClientLogs lists a managed client's logs for their trainer.
func (s *workoutService) GetClientLogs(ctx context.Context, trainerID, clientID primitive.ObjectID) ([]WorkoutLogDetails, error) {
	client, err := s.userRepo.GetByID(ctx, clientID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrClientNotFound
		}
		return nil, err
	}
	if client.TrainerID == nil || *client.TrainerID != trainerID {
		return nil, ErrClientNotManaged
	}

	logs, err := s.workoutRepo.ListByTrainerAndClient(ctx, trainerID, clientID)
	if err != nil {
		return nil, err
	}
	return s.enrich(ctx, logs), nil
}

// enrich attaches presigned GET URLs for logs with photo proof. URL
// generation failures leave the log without a URL rather than failing the
// listing.
func (s *workoutService) enrich(ctx context.Context, logs []domain.WorkoutLog) []WorkoutLogDetails {
	details := make([]WorkoutLogDetails, len(logs))
	for i, l := range logs {
		details[i] = WorkoutLogDetails{WorkoutLog: l}
		if l.HasPhoto() {
			url, err := s.fileStorage.GeneratePresignedDownloadURL(ctx, l.PhotoKey, storage.DefaultPresignedURLExpiry)
			if err == nil {
				details[i].PhotoURL = &url
			}
		}
	}
	return details
}
