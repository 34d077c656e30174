package models

import (
	"time"

	"gorm.io/gorm"
)

// ============================================================
// Identity & Role Tables
// ============================================================

// User represents the users table
type User struct {
	ID                  uint           `gorm:"primaryKey" json:"id"`
	Username            string         `gorm:"uniqueIndex;size:50;not null" json:"username"`
	Email               string         `gorm:"uniqueIndex;size:100;not null" json:"email"`
	Password            string         `gorm:"size:255;not null" json:"-"`
	FullName            string         `gorm:"size:100;not null" json:"full_name"`
	Department          string         `gorm:"size:100" json:"department"`
	Position            string         `gorm:"size:100" json:"position"`
	PhoneNumber         string         `gorm:"size:30" json:"phone_number"`
	IsActive            bool           `gorm:"default:true" json:"is_active"`
	IsLocked            bool           `gorm:"default:false" json:"is_locked"`
	LockedAt            *time.Time     `json:"locked_at"`
	FailedLoginAttempts int            `gorm:"not null;default:0" json:"failed_login_attempts"`
	LastLoginAt         *time.Time     `json:"last_login_at"`
	CreatedAt           time.Time      `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt           time.Time      `gorm:"autoUpdateTime" json:"updated_at"`
	DeletedAt           gorm.DeletedAt `gorm:"index" json:"-"`

	Roles []Role `gorm:"many2many:user_roles;" json:"roles,omitempty"`
}

func (User) TableName() string {
	return "users"
}

// UserResponse DTO
type UserResponse struct {
	ID          uint       `json:"id"`
	Username    string     `json:"username"`
	Email       string     `json:"email"`
	FullName    string     `json:"full_name"`
	Department  string     `json:"department,omitempty"`
	Position    string     `json:"position,omitempty"`
	PhoneNumber string     `json:"phone_number,omitempty"`
	IsActive    bool       `json:"is_active"`
	IsLocked    bool       `json:"is_locked"`
	LastLoginAt *time.Time `json:"last_login_at"`
	Roles       []string   `json:"roles,omitempty"`
	PrimaryRole string     `json:"primary_role,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
}

func (u *User) ToResponse() *UserResponse {
	resp := &UserResponse{
		ID:          u.ID,
		Username:    u.Username,
		Email:       u.Email,
		FullName:    u.FullName,
		Department:  u.Department,
		Position:    u.Position,
		PhoneNumber: u.PhoneNumber,
		IsActive:    u.IsActive,
		IsLocked:    u.IsLocked,
		LastLoginAt: u.LastLoginAt,
		CreatedAt:   u.CreatedAt,
	}

	// Loaded roles arrive ordered by priority; first one is the primary role.
	for _, role := range u.Roles {
		resp.Roles = append(resp.Roles, role.Name)
	}
	if len(u.Roles) > 0 {
		resp.PrimaryRole = u.Roles[0].Name
	}

	return resp
}

// RoleNames returns the names of the user's loaded roles in load order.
func (u *User) RoleNames() []string {
	names := make([]string, 0, len(u.Roles))
	for _, role := range u.Roles {
		names = append(names, role.Name)
	}
	return names
}

// Role represents the roles table (seeded from the fixed catalog)
type Role struct {
	ID           uint      `gorm:"primaryKey" json:"id"`
	Name         string    `gorm:"uniqueIndex;size:50;not null" json:"name"`
	DisplayName  string    `gorm:"size:100;not null" json:"display_name"`
	Description  string    `gorm:"type:text" json:"description"`
	Priority     int       `gorm:"not null;index" json:"priority"`
	IsSystemRole bool      `gorm:"default:false" json:"is_system_role"`
	IsActive     bool      `gorm:"default:true" json:"is_active"`
	CreatedAt    time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt    time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

func (Role) TableName() string {
	return "roles"
}

// ============================================================
// Login Audit Table
// ============================================================

// Login audit outcomes
const (
	AuditOutcomeSuccess          = "SUCCESS"
	AuditOutcomeUnknownUser      = "UNKNOWN_USER"
	AuditOutcomeBadCredential    = "BAD_CREDENTIAL"
	AuditOutcomeDeactivated      = "DEACTIVATED"
	AuditOutcomeLocked           = "LOCKED"
	AuditOutcomeAttemptsExceeded = "ATTEMPTS_EXCEEDED"
)

// LoginAudit represents the login_audits table (one row per login attempt)
type LoginAudit struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	Username  string    `gorm:"size:50;index;not null" json:"username"`
	IPAddress string    `gorm:"size:50" json:"ip_address"`
	Outcome   string    `gorm:"size:30;not null" json:"outcome"`
	CreatedAt time.Time `gorm:"autoCreateTime;index" json:"created_at"`
}

func (LoginAudit) TableName() string {
	return "login_audits"
}

// ============================================================
// Auto Migration
// ============================================================

// AutoMigrate creates or updates the schema for all tables
func AutoMigrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&User{},
		&Role{},
		&LoginAudit{},
	)
}
