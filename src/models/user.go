package models

import (
	"cems/src/types"
	"time"
)

type User struct {
	ID           uint       `gorm:"primarykey" json:"id"`
	Username     string     `gorm:"uniqueIndex;not null" json:"username"`
	Email        string     `json:"email,omitempty"`
	PasswordHash string     `json:"-"`
	Role         types.Role `gorm:"default:'student'" json:"role"`
	EnrollmentNo *string    `gorm:"uniqueIndex" json:"enrollment_no,omitempty"`
	DepartmentID *uint      `json:"department_id,omitempty"`
	ProfileImage string     `json:"profile_image,omitempty"`
	LastActive   *time.Time `json:"last_active,omitempty"`

	Department *Department `gorm:"foreignKey:department_id" json:"department,omitempty"`
	Tickets    []Ticket    `gorm:"foreignKey:user_id" json:"tickets,omitempty"`

	types.Timestamps
}

func (u *User) IsSuperAdmin() bool {
	return u.Role == types.ROLE_SUPERADMIN
}
