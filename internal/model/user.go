package model

import (
	"strings"
	"time"
)

type Role string

const (
	RoleUser       Role = "user"
	RoleAdmin      Role = "admin"
	RoleSuperadmin Role = "superadmin"
	RoleWCPD       Role = "wcpd"
)

func ParseRole(raw string) (Role, bool) {
	role := Role(strings.ToLower(strings.TrimSpace(raw)))
	switch role {
	case RoleUser, RoleAdmin, RoleSuperadmin, RoleWCPD:
		return role, true
	default:
		return "", false
	}
}

type User struct {
	ID               string
	AuthSubject      string
	Name             string
	Email            string
	PasswordHash     string
	Role             Role
	TwoFactorSecret  *string
	TwoFactorEnabled bool
	CreatedAt        time.Time
	UpdatedAt        time.Time
}

type UserView struct {
	ID               string    `json:"id"`
	Name             string    `json:"name"`
	Email            string    `json:"email"`
	Role             Role      `json:"role"`
	TwoFactorEnabled bool      `json:"two_factor_enabled"`
	CreatedAt        time.Time `json:"created_at"`
	UpdatedAt        time.Time `json:"updated_at"`
}

// Session is the acting user for one request. It is built once by the auth
// middleware and passed explicitly to every service call.
type Session struct {
	SubjectID string `json:"subject_id"`
	Role      Role   `json:"role"`
	Name      string `json:"name"`
	Email     string `json:"email"`
	SessionID string `json:"session_id"`
	IP        string `json:"-"`
}

// SessionClaims is the content of the signed session cookie.
type SessionClaims struct {
	SubjectID   string
	Email       string
	Role        Role
	Name        string
	SessionID   string
	ValidatedAt time.Time
	ExpiresAt   time.Time
}

func (c SessionClaims) Session() Session {
	return Session{
		SubjectID: c.SubjectID,
		Role:      c.Role,
		Name:      c.Name,
		Email:     c.Email,
		SessionID: c.SessionID,
	}
}

type SessionRecord struct {
	ID              string
	UserID          string
	CreatedAt       time.Time
	ExpiresAt       time.Time
	LastValidatedAt time.Time
}

type TwoFactorSetup struct {
	Secret string `json:"secret"`
	URL    string `json:"otpauth_url"`
}
