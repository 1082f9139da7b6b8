package domain

import (
	"fmt"
	"strings"
	"time"
)

// GoalStatus represents the status of a goal
type GoalStatus string

const (
	GoalStatusNotStarted GoalStatus = "not_started"
	GoalStatusInProgress GoalStatus = "in_progress"
	GoalStatusCompleted  GoalStatus = "completed"
	GoalStatusOnHold     GoalStatus = "on_hold"
)

// Goal represents a team objective that tasks roll up to.
type Goal struct {
	ID            string
	Title         string
	Description   string
	Status        GoalStatus
	StartDate     *time.Time
	TargetDate    *time.Time
	CompletedDate *time.Time
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// GoalProgress carries derived task counters for a goal.
type GoalProgress struct {
	TaskCount          int
	CompletedTaskCount int
	ProgressPercentage float64
}

// ValidateGoal validates a Goal instance
func ValidateGoal(g *Goal) error {
	if g == nil {
		return fmt.Errorf("goal cannot be nil")
	}

	if g.ID == "" {
		return fmt.Errorf("goal ID is required")
	}

	if strings.TrimSpace(g.Title) == "" {
		return fmt.Errorf("goal Title is required")
	}

	if len(g.Title) > 200 {
		return fmt.Errorf("goal Title exceeds 200 characters")
	}

	if !IsValidGoalStatus(g.Status) {
		return fmt.Errorf("goal Status is invalid: %s", g.Status)
	}

	return nil
}

// IsValidGoalStatus checks if a GoalStatus is valid
func IsValidGoalStatus(s GoalStatus) bool {
	switch s {
	case GoalStatusNotStarted, GoalStatusInProgress, GoalStatusCompleted, GoalStatusOnHold:
		return true
	}
	return false
}
