package domain

import (
	"time"

	"github.com/google/uuid"
)

type MemberRole string

const (
	RoleMaster MemberRole = "MASTER"
	RoleMember MemberRole = "MEMBER"
)

// Member is a user of the household
type Member struct {
	ID       int32      `json:"id"`
	UserID   int32      `json:"user"`
	Username string     `json:"user_name"`
	Email    string     `json:"user_email"`
	Role     MemberRole `json:"role"`
}

// DisplayName prefers the username
func (m Member) DisplayName() string {
	if m.Username != "" {
		return m.Username
	}
	return m.Email
}

// Invitation invites an email address into the household
type Invitation struct {
	ID          uuid.UUID `json:"id"`
	Email       string    `json:"email"`
	HouseName   string    `json:"house_name,omitempty"`
	InviterName string    `json:"inviter_name,omitempty"`
	Accepted    bool      `json:"accepted"`
	CreatedAt   time.Time `json:"created_at"`
}
