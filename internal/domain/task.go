package domain

import (
	"fmt"
	"strings"
	"time"
)

// TaskStatus represents the status of a task
type TaskStatus string

const (
	TaskStatusTodo       TaskStatus = "todo"
	TaskStatusInProgress TaskStatus = "in_progress"
	TaskStatusCompleted  TaskStatus = "completed"
	TaskStatusBlocked    TaskStatus = "blocked"
)

// TaskPriority represents the priority of a task
type TaskPriority string

const (
	TaskPriorityLow    TaskPriority = "low"
	TaskPriorityMedium TaskPriority = "medium"
	TaskPriorityHigh   TaskPriority = "high"
	TaskPriorityUrgent TaskPriority = "urgent"
)

// Task represents a unit of work under a goal, optionally assigned to a
// team member. Status updates may reference the task they advance.
type Task struct {
	ID            string
	GoalID        string
	Title         string
	Description   string
	AssignedTo    string // Optional TeamMember reference
	Status        TaskStatus
	Priority      TaskPriority
	DueDate       *time.Time
	CompletedDate *time.Time
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// MemberProgress carries derived task counters for a single team member.
type MemberProgress struct {
	AssignedTasks   int
	CompletedTasks  int
	InProgressTasks int
	OverdueTasks    int
	CompletionRate  float64
}

// ValidateTask validates a Task instance
func ValidateTask(t *Task) error {
	if t == nil {
		return fmt.Errorf("task cannot be nil")
	}

	if t.ID == "" {
		return fmt.Errorf("task ID is required")
	}

	if t.GoalID == "" {
		return fmt.Errorf("task GoalID is required")
	}

	if strings.TrimSpace(t.Title) == "" {
		return fmt.Errorf("task Title is required")
	}

	if len(t.Title) > 200 {
		return fmt.Errorf("task Title exceeds 200 characters")
	}

	if !IsValidTaskStatus(t.Status) {
		return fmt.Errorf("task Status is invalid: %s", t.Status)
	}

	if !IsValidTaskPriority(t.Priority) {
		return fmt.Errorf("task Priority is invalid: %s", t.Priority)
	}

	return nil
}

// IsValidTaskStatus checks if a TaskStatus is valid
func IsValidTaskStatus(s TaskStatus) bool {
	switch s {
	case TaskStatusTodo, TaskStatusInProgress, TaskStatusCompleted, TaskStatusBlocked:
		return true
	}
	return false
}

// IsValidTaskPriority checks if a TaskPriority is valid
func IsValidTaskPriority(p TaskPriority) bool {
	switch p {
	case TaskPriorityLow, TaskPriorityMedium, TaskPriorityHigh, TaskPriorityUrgent:
		return true
	}
	return false
}
