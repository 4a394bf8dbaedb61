package domain

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// PlanDay is one slot in a generated plan week. Trainers fill in the content
// after the skeleton grid is generated.
type PlanDay struct {
	Week      int    `bson:"week" json:"week"`           // 1-based
	Day       int    `bson:"day" json:"day"`             // 1-based within the week
	Title     string `bson:"title" json:"title"`         // e.g. "Upper body"
	Details   string `bson:"details,omitempty" json:"details,omitempty"`
	IsRestDay bool   `bson:"isRestDay" json:"isRestDay"`
}

// TrainingPlan represents a structured plan assigned to a client by a trainer.
type TrainingPlan struct {
	ID          primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	TrainerID   primitive.ObjectID `bson:"trainerId" json:"trainerId"` // Who created the plan
	ClientID    primitive.ObjectID `bson:"clientId" json:"clientId"`   // Who the plan is for
	Name        string             `bson:"name" json:"name"`
	Description string             `bson:"description,omitempty" json:"description,omitempty"`
	Weeks       int                `bson:"weeks" json:"weeks"`
	DaysPerWeek int                `bson:"daysPerWeek" json:"daysPerWeek"`
	Days        []PlanDay          `bson:"days" json:"days"`
	StartDate   *time.Time         `bson:"startDate,omitempty" json:"startDate,omitempty"`
	IsActive    bool               `bson:"isActive" json:"isActive"` // Is this the currently active plan for the client?
	CreatedAt   time.Time          `bson:"createdAt" json:"createdAt"`
	UpdatedAt   time.Time          `bson:"updatedAt" json:"updatedAt"`
}
