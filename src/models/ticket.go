package models

import (
	"cems/src/types"
	"time"

	"github.com/google/uuid"
)

// Ticket proves a user is admitted to an event. The (event, user) pair is
// unique at the constraint level; the QR artifact is derived once at booking
// time and never regenerated.
type Ticket struct {
	ID       uint      `gorm:"primarykey" json:"id"`
	EventID  uint      `gorm:"not null;uniqueIndex:idx_event_user" json:"event_id"`
	UserID   uint      `gorm:"not null;uniqueIndex:idx_event_user" json:"user_id"`
	Serial   uuid.UUID `gorm:"type:uuid;uniqueIndex" json:"serial"`
	BookedAt time.Time `json:"booked_at"`
	QRCode   string    `json:"qr_code,omitempty"`

	CheckedInAt *time.Time `json:"checked_in_at,omitempty"`

	Event *Event `gorm:"foreignKey:event_id" json:"event,omitempty"`
	User  *User  `gorm:"foreignKey:user_id" json:"user,omitempty"`

	types.Timestamps
}
