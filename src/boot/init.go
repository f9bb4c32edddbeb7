package boot

import (
	"cems/src/db"
	"cems/src/models"
	"cems/src/types"
	"cems/src/utils"
	"errors"
	"log"
	"os"

	"gorm.io/gorm"
)

func InitDb() *gorm.DB {
	d := db.GetDb()

	err := d.AutoMigrate(
		&models.Department{},
		&models.User{},
		&models.Event{},
		&models.Ticket{},
	)
	if err != nil {
		log.Fatalf("error migration: %s", err.Error())
	}

	return d
}

// SeedSuperAdmin provisions the out-of-band superadmin account from env.
// Self-registration never grants this role.
func SeedSuperAdmin() {
	username := os.Getenv("SUPERADMIN_USERNAME")
	password := os.Getenv("SUPERADMIN_PASSWORD")
	if username == "" || password == "" {
		return
	}
	d := db.GetDb()
	err := d.Transaction(func(tx *gorm.DB) error {
		var existing models.User
		err := tx.Where(&models.User{Username: username}).First(&existing).Error
		if err == nil {
			return nil
		}
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return err
		}
		hash, err := utils.HashPassword(password)
		if err != nil {
			return err
		}
		user := models.User{
			Username:     username,
			Email:        os.Getenv("SUPERADMIN_EMAIL"),
			PasswordHash: hash,
			Role:         types.ROLE_SUPERADMIN,
		}
		return tx.Create(&user).Error
	})
	if err != nil {
		log.Printf("Error seeding superadmin account: %s\n", err.Error())
	}
}
