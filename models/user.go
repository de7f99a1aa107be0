package models

import "time"

// User is the minimal account record the workflow needs: identity, role and
// (for trainees) the assigned supervisor. Profile management lives in a
// separate service; this table is read-mostly here.
type User struct {
	UserID       int        `gorm:"primaryKey;column:user_id" json:"user_id"`
	FirstName    string     `gorm:"column:first_name" json:"first_name"`
	LastName     string     `gorm:"column:last_name" json:"last_name"`
	Email        string     `gorm:"column:email;unique" json:"email"`
	Password     string     `gorm:"column:password" json:"-"`
	Role         string     `gorm:"column:role" json:"role"`
	SupervisorID *int       `gorm:"column:supervisor_id" json:"supervisor_id,omitempty"`
	CreatedAt    time.Time  `gorm:"column:created_at" json:"created_at"`
	UpdatedAt    time.Time  `gorm:"column:updated_at" json:"updated_at"`
	DeletedAt    *time.Time `gorm:"column:deleted_at" json:"deleted_at,omitempty"`

	Supervisor *User `gorm:"foreignKey:SupervisorID" json:"supervisor,omitempty"`
}

// TableName specifies the table name for User.
func (User) TableName() string {
	return "users"
}

// IsReviewer reports whether the user may act on submitted logbooks.
func (u *User) IsReviewer() bool {
	return u.Role == RoleSupervisor || u.Role == RoleAdmin
}
