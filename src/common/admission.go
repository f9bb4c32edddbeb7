package common

import (
	"cems/src/db"
	"cems/src/models"
	"cems/src/types"
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// AdmitTicket marks a ticket serial as checked in at the entrance. A serial
// can be admitted once; a second scan reports the earlier check-in time.
func AdmitTicket(ctx context.Context, serial uuid.UUID) (*models.Ticket, error) {
	var ticket models.Ticket
	d := db.GetDb()
	err := d.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.
			Where(&models.Ticket{Serial: serial}).
			Preload("Event").
			Preload("User").
			First(&ticket).
			Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return types.ErrNotFound
			}
			return err
		}
		if ticket.CheckedInAt != nil {
			return nil
		}
		now := time.Now()
		if err := tx.
			Model(&models.Ticket{}).
			Where(&models.Ticket{ID: ticket.ID}).
			Update("checked_in_at", now).
			Error; err != nil {
			return err
		}
		ticket.CheckedInAt = &now
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &ticket, nil
}
