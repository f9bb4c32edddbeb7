package utils

import (
	"cems/src/config"
	"cems/src/db"
	"cems/src/models"
	"cems/src/types"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/gosimple/slug"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

func HashPassword(password string) (string, error) {
	bytes, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	return string(bytes), err
}

func CheckPasswordHash(password, hashedPassword string) bool {
	err := bcrypt.CompareHashAndPassword([]byte(hashedPassword), []byte(password))
	return err == nil
}

func GenerateJWT(username string, userId uint, role types.Role) (string, error) {
	claims := types.Claims{
		Username: username,
		Role:     role,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   fmt.Sprint(userId),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(24 * time.Hour)),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(config.JWTSecret())
}

// CreateNewUser registers a student or event admin. Role invariants are
// enforced here, not at the database level: students carry an enrollment
// number, admins belong to a department. Superadmin accounts are seeded out
// of band and can never be self-registered.
func CreateNewUser(params *types.RegisterUserRequestBody) (*models.User, error) {
	switch params.Role {
	case types.ROLE_STUDENT:
		if params.EnrollmentNo == nil || strings.TrimSpace(*params.EnrollmentNo) == "" {
			return nil, types.NewValidationError("enrollment_no", "required for students")
		}
	case types.ROLE_ADMIN:
		if params.DepartmentID == nil {
			return nil, types.NewValidationError("department", "required for event admins")
		}
	case types.ROLE_SUPERADMIN:
		return nil, types.NewValidationError("role", "only students and event admins can register directly")
	default:
		return nil, types.NewValidationError("role", "unknown role")
	}

	hash, err := HashPassword(params.Password)
	if err != nil {
		return nil, err
	}
	user := models.User{
		Username:     params.Username,
		Email:        params.Email,
		PasswordHash: hash,
		Role:         params.Role,
		EnrollmentNo: params.EnrollmentNo,
		DepartmentID: params.DepartmentID,
		ProfileImage: params.ProfileImage,
	}

	d := db.GetDb()
	err = d.Transaction(func(tx *gorm.DB) error {
		if params.DepartmentID != nil {
			var dept models.Department
			if err := tx.Where(&models.Department{ID: *params.DepartmentID}).First(&dept).Error; err != nil {
				if errors.Is(err, gorm.ErrRecordNotFound) {
					return types.NewValidationError("department", "department does not exist")
				}
				return err
			}
		}
		var count int64
		if err := tx.Model(&models.User{}).Where("username = ?", params.Username).Count(&count).Error; err != nil {
			return err
		}
		if count > 0 {
			return types.NewValidationError("username", "already taken")
		}
		if err := tx.Create(&user).Error; err != nil {
			return err
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &user, nil
}

// CreateNewEvent validates and persists an event owned by the creator.
// Past dates are rejected both here and by the bookabledate binding
// validator; the duplication keeps the invariant when callers bypass binding.
func CreateNewEvent(params *types.CreateEventRequestBody, creatorId uint) (uint, error) {
	dateTime, err := time.Parse(config.TIME_PARSE_FORMAT, params.Date)
	if err != nil {
		return 0, types.NewValidationError("date", "invalid date format")
	}
	if time.Now().After(dateTime) {
		return 0, types.NewValidationError("date", "event date must not be in the past")
	}
	if params.AvailableTickets <= 0 {
		return 0, types.NewValidationError("available_tickets", "must be greater than zero")
	}
	category := params.Category
	if category == "" {
		category = types.CATEGORY_OTHER
	}
	if !category.Valid() {
		return 0, types.NewValidationError("category", "unknown category")
	}

	event := models.Event{
		Title:            params.Title,
		Slug:             slug.Make(params.Title),
		Description:      params.Description,
		DateTime:         &dateTime,
		Location:         params.Location,
		Image:            params.Image,
		AvailableTickets: params.AvailableTickets,
		TicketPrice:      params.TicketPrice,
		DepartmentID:     params.Department,
		CreatedByID:      &creatorId,
		Category:         category,
		IsActive:         true,
	}

	d := db.GetDb()
	err = d.Transaction(func(tx *gorm.DB) error {
		var dept models.Department
		if err := tx.Where(&models.Department{ID: params.Department}).First(&dept).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return types.NewValidationError("department", "department does not exist")
			}
			return err
		}
		if err := tx.Create(&event).Error; err != nil {
			return err
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	return event.ID, nil
}

func GetEvent(id uint) (*models.Event, error) {
	var event models.Event
	d := db.GetDb()
	if err := d.
		Model(&models.Event{}).
		Where(&models.Event{ID: id}).
		Preload("Department").
		First(&event).
		Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, types.ErrNotFound
		}
		return nil, err
	}
	return &event, nil
}

// TicketsLeft computes remaining seats from the live ticket count. The value
// is never cached; callers inside a booking transaction pass their tx so the
// count observes the row lock.
func TicketsLeft(tx *gorm.DB, event *models.Event) (int, error) {
	var booked int64
	if err := tx.
		Model(&models.Ticket{}).
		Where(&models.Ticket{EventID: event.ID}).
		Count(&booked).
		Error; err != nil {
		return 0, err
	}
	return event.AvailableTickets - int(booked), nil
}

func GetEventSeats(id uint) (*types.EventSeats, error) {
	d := db.GetDb()
	var event models.Event
	if err := d.Where(&models.Event{ID: id}).First(&event).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, types.ErrNotFound
		}
		return nil, err
	}
	left, err := TicketsLeft(d, &event)
	if err != nil {
		return nil, err
	}
	return &types.EventSeats{
		Total:  event.AvailableTickets,
		Booked: event.AvailableTickets - left,
		Left:   left,
	}, nil
}

func GetUser(id uint) (*models.User, error) {
	var user models.User
	d := db.GetDb()
	if err := d.
		Model(&models.User{}).
		Where(&models.User{ID: id}).
		Preload("Department").
		First(&user).
		Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, types.ErrNotFound
		}
		return nil, err
	}
	return &user, nil
}
