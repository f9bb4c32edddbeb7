package types

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
	"gorm.io/gorm"
)

type Timestamps struct {
	CreatedAt time.Time      `gorm:"autoCreateTime:nano" json:"created_at,omitempty"`
	UpdatedAt time.Time      `gorm:"autoUpdateTime:nano" json:"updated_at,omitempty"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"deleted_at,omitempty"`
}

// Role is the closed set of account roles. Permission checks switch
// exhaustively over these values.
type Role string

const (
	ROLE_STUDENT    Role = "student"
	ROLE_ADMIN      Role = "admin"
	ROLE_SUPERADMIN Role = "superadmin"
)

// Rank orders the role lattice: superadmin > admin > student. Unknown roles
// rank below student so a corrupt role value never grants access.
func (r Role) Rank() int {
	switch r {
	case ROLE_SUPERADMIN:
		return 3
	case ROLE_ADMIN:
		return 2
	case ROLE_STUDENT:
		return 1
	default:
		return 0
	}
}

func (r Role) AtLeast(min Role) bool {
	return r.Rank() >= min.Rank()
}

type EventCategory string

const (
	CATEGORY_SEMINAR     EventCategory = "seminar"
	CATEGORY_CONCERT     EventCategory = "concert"
	CATEGORY_STAGE_EVENT EventCategory = "stage_event"
	CATEGORY_EDUCATIONAL EventCategory = "educational"
	CATEGORY_OTHER       EventCategory = "other"
)

func (c EventCategory) Valid() bool {
	switch c {
	case CATEGORY_SEMINAR, CATEGORY_CONCERT, CATEGORY_STAGE_EVENT, CATEGORY_EDUCATIONAL, CATEGORY_OTHER:
		return true
	default:
		return false
	}
}

type Claims struct {
	Username string `json:"username"`
	Role     Role   `json:"role"`
	jwt.RegisteredClaims
}

type RegisterUserRequestBody struct {
	Username     string  `json:"username" binding:"required"`
	Email        string  `json:"email" binding:"required,email"`
	Password     string  `json:"password" binding:"required,min=8"`
	Role         Role    `json:"role" binding:"required"`
	EnrollmentNo *string `json:"enrollment_no,omitempty"`
	DepartmentID *uint   `json:"department,omitempty"`
	ProfileImage string  `json:"profile_image,omitempty"`
}

type LoginRequestBody struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
}

type CreateDepartmentRequestBody struct {
	Name string `json:"name" binding:"required"`
	Code string `json:"code" binding:"required"`
}

type UpdateDepartmentRequestBody struct {
	Name string `json:"name,omitempty"`
	Code string `json:"code,omitempty"`
}

type CreateEventRequestBody struct {
	Title            string        `json:"title" binding:"required"`
	Description      string        `json:"description,omitempty"`
	Date             string        `json:"date" binding:"required,bookabledate" time_format:"2006-01-02 15:04:05 -07:00"`
	Location         string        `json:"location" binding:"required"`
	Image            string        `json:"image,omitempty"`
	AvailableTickets int           `json:"available_tickets" binding:"required"`
	TicketPrice      float32       `json:"ticket_price,omitempty"`
	Department       uint          `json:"department" binding:"required"`
	Category         EventCategory `json:"category,omitempty"`
}

type UpdateEventRequestBody struct {
	Title       string         `json:"title,omitempty"`
	Description string         `json:"description,omitempty"`
	Date        *string        `json:"date,omitempty" binding:"omitempty,bookabledate"`
	Location    string         `json:"location,omitempty"`
	Image       string         `json:"image,omitempty"`
	Category    *EventCategory `json:"category,omitempty"`
	IsActive    *bool          `json:"is_active,omitempty"`
}

type EventQueryFilters struct {
	Category   string `form:"category"`
	Department uint   `form:"department"`
	Upcoming   bool   `form:"upcoming"`
}

type VerifyTicketRequestBody struct {
	Serial string `json:"serial" binding:"required,uuid"`
}

type SimpleRequestParams struct {
	ID uint `uri:"id" binding:"required"`
}

type APIResponseTicket struct {
	ID       uint       `json:"ticket_id"`
	Serial   string     `json:"serial"`
	QRCode   string     `json:"qr_code"`
	BookedAt *time.Time `json:"booked_at,omitempty"`
}

type EventSeats struct {
	Total  int `json:"total"`
	Booked int `json:"booked"`
	Left   int `json:"left"`
}
