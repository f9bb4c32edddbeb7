package models

import (
	"cems/src/types"
	"time"
)

type Department struct {
	ID   uint   `gorm:"primarykey" json:"id"`
	Name string `gorm:"uniqueIndex;not null" json:"name"`
	Code string `gorm:"uniqueIndex;not null" json:"code"`

	Events []Event `gorm:"foreignKey:department_id;constraint:OnDelete:CASCADE" json:"events,omitempty"`

	types.Timestamps
}

// HasActiveEvents reports whether any of the loaded events are still upcoming.
// Callers must Preload("Events") first.
func (d *Department) HasActiveEvents() bool {
	now := time.Now()
	for _, e := range d.Events {
		if e.DateTime != nil && e.DateTime.After(now) {
			return true
		}
	}
	return false
}
