package taskauth

import (
	"time"

	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// User is the user model
type User struct {
	bun.BaseModel `bun:"table:users,alias:usr"`
	ID            uuid.UUID  `bun:"id,pk,nullzero,type:uuid" json:"id,omitempty"`
	Email         string     `bun:"email,notnull,unique" json:"email,omitempty"`
	PasswordHash  string     `bun:"password_hash" json:"-"`
	Name          string     `bun:"name,notnull" json:"name,omitempty"`
	DateOfBirth   *time.Time `bun:"date_of_birth,nullzero" json:"date_of_birth,omitempty"`
	Gender        string     `bun:"gender" json:"gender,omitempty"`
	Phone         string     `bun:"phone_number" json:"phone_number,omitempty"`
	Verified      bool       `bun:"is_verified,notnull,default:false" json:"is_verified"`
	CreatedAt     *time.Time `bun:"created_at,nullzero,default:current_timestamp" json:"created_at,omitempty"`
	UpdatedAt     *time.Time `bun:"updated_at,nullzero,default:current_timestamp" json:"updated_at,omitempty"`
	DeletedAt     *time.Time `bun:"deleted_at,soft_delete,nullzero" json:"deleted_at,omitempty"`
}

// TokenRecord is the singleton credential row kept per user. Each issuance
// overwrites only its own field group; unrelated groups persist. At most one
// live refresh token, verification code, and reset code exist per user.
type TokenRecord struct {
	bun.BaseModel `bun:"table:user_tokens,alias:utk"`
	UserID        uuid.UUID  `bun:"user_id,pk,type:uuid" json:"user_id,omitempty"`
	RefreshToken  string     `bun:"refresh_token,nullzero" json:"-"`
	ConfirmToken  string     `bun:"confirm_token,nullzero" json:"-"`
	Code          string     `bun:"verification_code,nullzero" json:"-"`
	CodeExpiresAt *time.Time `bun:"verification_code_expiration,nullzero" json:"-"`
	ResetToken    string     `bun:"reset_token,nullzero" json:"-"`
	ResetCode     string     `bun:"reset_code,nullzero" json:"-"`
	ResetExpires  *time.Time `bun:"reset_code_expiration,nullzero" json:"-"`
	CreatedAt     *time.Time `bun:"created_at,nullzero,default:current_timestamp" json:"created_at,omitempty"`
	UpdatedAt     *time.Time `bun:"updated_at,nullzero,default:current_timestamp" json:"updated_at,omitempty"`
}

// Task is the task model
type Task struct {
	bun.BaseModel `bun:"table:tasks,alias:tsk"`
	ID            uuid.UUID  `bun:"id,pk,nullzero,type:uuid" json:"id,omitempty"`
	Name          string     `bun:"name,notnull" json:"name,omitempty"`
	Description   string     `bun:"description" json:"description,omitempty"`
	Completed     bool       `bun:"status,notnull,default:false" json:"status"`
	Priority      string     `bun:"priority" json:"priority,omitempty"`
	StartDate     *time.Time `bun:"start_date,nullzero" json:"start_date,omitempty"`
	DueDate       *time.Time `bun:"due_date,nullzero" json:"due_date,omitempty"`
	UserID        uuid.UUID  `bun:"user_id,notnull,type:uuid" json:"user_id,omitempty"`
	CreatedAt     *time.Time `bun:"created_at,nullzero,default:current_timestamp" json:"created_at,omitempty"`
	UpdatedAt     *time.Time `bun:"updated_at,nullzero,default:current_timestamp" json:"updated_at,omitempty"`
	DeletedAt     *time.Time `bun:"deleted_at,soft_delete,nullzero" json:"deleted_at,omitempty"`
}

// Overdue reports whether the task is past due and still open.
func (t *Task) Overdue(now time.Time) bool {
	if t.Completed || t.DueDate == nil {
		return false
	}
	return t.DueDate.Before(now)
}

// TaskSummary aggregates a user's tasks for the dashboard endpoint.
type TaskSummary struct {
	Total     int `json:"total_tasks"`
	Completed int `json:"total_completed_tasks"`
	Overdue   int `json:"total_overdue_tasks"`
	Remaining int `json:"total_remaining_tasks"`
}
