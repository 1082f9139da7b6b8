package domain

import (
	"fmt"
	"strings"
	"time"
)

const (
	maxMemberNameLen = 100
	maxMemberRoleLen = 100
)

// TeamMember represents a registered member of the team.
type TeamMember struct {
	ID        string
	Name      string
	Email     string
	Role      string // Optional
	CreatedAt time.Time
}

// NewTeamMember creates a new TeamMember instance
func NewTeamMember(id, name, email, role string, createdAt time.Time) *TeamMember {
	return &TeamMember{
		ID:        id,
		Name:      name,
		Email:     email,
		Role:      role,
		CreatedAt: createdAt,
	}
}

// ValidateTeamMember validates a TeamMember instance
func ValidateTeamMember(m *TeamMember) error {
	if m == nil {
		return fmt.Errorf("team member cannot be nil")
	}

	if m.ID == "" {
		return fmt.Errorf("team member ID is required")
	}

	if strings.TrimSpace(m.Name) == "" {
		return fmt.Errorf("team member Name is required")
	}

	if len(m.Name) > maxMemberNameLen {
		return fmt.Errorf("team member Name exceeds %d characters", maxMemberNameLen)
	}

	if !isValidEmail(m.Email) {
		return fmt.Errorf("team member Email is invalid: %s", m.Email)
	}

	if len(m.Role) > maxMemberRoleLen {
		return fmt.Errorf("team member Role exceeds %d characters", maxMemberRoleLen)
	}

	return nil
}

// isValidEmail checks the minimal shape of an email address. Anything more
// elaborate is left to the mail server to reject.
func isValidEmail(email string) bool {
	if email == "" || len(email) > 255 {
		return false
	}
	at := strings.Index(email, "@")
	if at <= 0 || at == len(email)-1 {
		return false
	}
	host := email[at+1:]
	if strings.Contains(host, "@") || !strings.Contains(host, ".") {
		return false
	}
	return !strings.ContainsAny(email, " \t\n")
}
