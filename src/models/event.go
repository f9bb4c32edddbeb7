package models

import (
	"cems/src/types"
	"time"
)

type Event struct {
	ID          uint                `gorm:"primarykey" json:"id"`
	Title       string              `gorm:"not null" json:"title"`
	Slug        string              `gorm:"index" json:"slug,omitempty"`
	Description string              `json:"description,omitempty"`
	DateTime    *time.Time          `json:"date,omitempty"`
	Location    string              `json:"location,omitempty"`
	Image       string              `json:"image,omitempty"`
	// AvailableTickets is the total seat allotment set at creation.
	// Remaining seats are always recomputed from the live ticket count.
	AvailableTickets int                 `gorm:"not null" json:"available_tickets"`
	TicketPrice      float32             `gorm:"default:0" json:"ticket_price"`
	DepartmentID     uint                `gorm:"not null" json:"department_id"`
	CreatedByID      *uint               `json:"created_by,omitempty"`
	Category         types.EventCategory `gorm:"default:'other'" json:"category"`
	IsActive         bool                `gorm:"default:true" json:"is_active"`

	Department *Department `gorm:"foreignKey:department_id" json:"department,omitempty"`
	CreatedBy  *User       `gorm:"foreignKey:created_by_id;constraint:OnDelete:SET NULL" json:"-"`
	Tickets    []Ticket    `gorm:"foreignKey:event_id;constraint:OnDelete:CASCADE" json:"-"`

	types.Timestamps
}

func (e *Event) IsFree() bool {
	return e.TicketPrice == 0
}
