package main

import (
	"cems/src/common"
	"cems/src/models"
	"cems/src/types"
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http/httptest"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/suite"
	"github.com/tidwall/gjson"
	"gorm.io/gorm"
)

type BookingTestSuite struct {
	suite.Suite
	DB     *gorm.DB
	Router *gin.Engine
	Dept   *models.Department
}

func (s *BookingTestSuite) SetupSuite() {
	os.Setenv("JWT_SECRET", "secret")
	os.Setenv("MEDIA_DIR", s.T().TempDir())

	s.DB = newTestDB(s.T(), "booking_test")
	s.Router = newTestRouter()

	s.Dept = &models.Department{Name: "Student Affairs", Code: "SA"}
	if err := s.DB.Create(s.Dept).Error; err != nil {
		log.Fatalf("Could not create department due to error: %s\n", err.Error())
	}
}

func (s *BookingTestSuite) TearDownSuite() {
	inner, err := s.DB.DB()
	if err != nil {
		log.Printf("Error accessing inner db instance: %s\n", err.Error())
		return
	}
	inner.Close()
}

func (s *BookingTestSuite) seedEvent(title string, seats int, price float32) *models.Event {
	when := time.Now().Add(240 * time.Hour)
	event := models.Event{
		Title:            title,
		DateTime:         &when,
		AvailableTickets: seats,
		TicketPrice:      price,
		DepartmentID:     s.Dept.ID,
		Category:         types.CATEGORY_CONCERT,
		IsActive:         true,
	}
	if err := s.DB.Create(&event).Error; err != nil {
		s.T().Fatalf("Could not create event due to error: %s", err.Error())
	}
	return &event
}

func (s *BookingTestSuite) TestBookingLifecycle() {
	event := s.seedEvent("Graduation Concert", 1, 0)
	userA := seedAccount(s.T(), types.ROLE_STUDENT, nil)
	userB := seedAccount(s.T(), types.ROLE_STUDENT, nil)

	var serial string

	s.Run("First booking succeeds and persists a code artifact", func() {
		w := httptest.NewRecorder()
		req := authedRequest("POST", fmt.Sprintf("/api/v1/events/%d/book", event.ID), userA.Token, nil)
		s.Router.ServeHTTP(w, req)

		assert.Equal(s.T(), 201, w.Code)
		rbytes, err := io.ReadAll(w.Body)
		assert.Nil(s.T(), err)
		serial = gjson.GetBytes(rbytes, "data.serial").String()
		assert.NotEmpty(s.T(), serial)

		qrPath := gjson.GetBytes(rbytes, "data.qr_code").String()
		assert.NotEmpty(s.T(), qrPath)
		_, err = os.Stat(qrPath)
		assert.Nil(s.T(), err, "code artifact missing on disk")
	})

	s.Run("Seats report zero remaining", func() {
		w := httptest.NewRecorder()
		req := authedRequest("GET", fmt.Sprintf("/api/v1/events/%d/seats", event.ID), userA.Token, nil)
		s.Router.ServeHTTP(w, req)

		assert.Equal(s.T(), 200, w.Code)
		rbytes, _ := io.ReadAll(w.Body)
		assert.Equal(s.T(), int64(1), gjson.GetBytes(rbytes, "data.total").Int())
		assert.Equal(s.T(), int64(1), gjson.GetBytes(rbytes, "data.booked").Int())
		assert.Equal(s.T(), int64(0), gjson.GetBytes(rbytes, "data.left").Int())
	})

	s.Run("Second user is refused on a full event", func() {
		w := httptest.NewRecorder()
		req := authedRequest("POST", fmt.Sprintf("/api/v1/events/%d/book", event.ID), userB.Token, nil)
		s.Router.ServeHTTP(w, req)

		assert.Equal(s.T(), 409, w.Code)
		rbytes, _ := io.ReadAll(w.Body)
		assert.Equal(s.T(), types.ErrSoldOut.Error(), gjson.GetBytes(rbytes, "error").String())
	})

	s.Run("Holder sees the ticket in their listing", func() {
		w := httptest.NewRecorder()
		req := authedRequest("GET", "/api/v1/tickets", userA.Token, nil)
		s.Router.ServeHTTP(w, req)

		assert.Equal(s.T(), 200, w.Code)
		rbytes, _ := io.ReadAll(w.Body)
		tickets := gjson.GetBytes(rbytes, "data").Array()
		assert.Len(s.T(), tickets, 1)
		assert.Equal(s.T(), serial, tickets[0].Get("serial").String())
	})

	s.Run("Non-holder cannot read the ticket", func() {
		var ticket models.Ticket
		assert.Nil(s.T(), s.DB.Where(&models.Ticket{UserID: userA.User.ID}).First(&ticket).Error)

		w := httptest.NewRecorder()
		req := authedRequest("GET", fmt.Sprintf("/api/v1/tickets/%d", ticket.ID), userB.Token, nil)
		s.Router.ServeHTTP(w, req)

		assert.Equal(s.T(), 403, w.Code)
	})

	s.Run("Admin verifies the serial once, second scan is idempotent", func() {
		admin := seedAccount(s.T(), types.ROLE_ADMIN, &s.Dept.ID)

		w := httptest.NewRecorder()
		req := authedRequest("POST", "/api/v1/tickets/verify", admin.Token, map[string]any{"serial": serial})
		s.Router.ServeHTTP(w, req)
		assert.Equal(s.T(), 200, w.Code)
		rbytes, _ := io.ReadAll(w.Body)
		first := gjson.GetBytes(rbytes, "checked_in_at").String()
		assert.NotEmpty(s.T(), first)

		w = httptest.NewRecorder()
		req = authedRequest("POST", "/api/v1/tickets/verify", admin.Token, map[string]any{"serial": serial})
		s.Router.ServeHTTP(w, req)
		assert.Equal(s.T(), 200, w.Code)
		rbytes, _ = io.ReadAll(w.Body)
		assert.Equal(s.T(), first, gjson.GetBytes(rbytes, "checked_in_at").String())
	})

	s.Run("Student cannot verify tickets", func() {
		w := httptest.NewRecorder()
		req := authedRequest("POST", "/api/v1/tickets/verify", userA.Token, map[string]any{"serial": serial})
		s.Router.ServeHTTP(w, req)

		assert.Equal(s.T(), 403, w.Code)
	})
}

func (s *BookingTestSuite) TestDuplicateBooking() {
	event := s.seedEvent("Poetry Night", 10, 0)
	user := seedAccount(s.T(), types.ROLE_STUDENT, nil)

	w := httptest.NewRecorder()
	req := authedRequest("POST", fmt.Sprintf("/api/v1/events/%d/book", event.ID), user.Token, nil)
	s.Router.ServeHTTP(w, req)
	assert.Equal(s.T(), 201, w.Code)

	w = httptest.NewRecorder()
	req = authedRequest("POST", fmt.Sprintf("/api/v1/events/%d/book", event.ID), user.Token, nil)
	s.Router.ServeHTTP(w, req)

	assert.Equal(s.T(), 409, w.Code)
	rbytes, _ := io.ReadAll(w.Body)
	assert.Equal(s.T(), types.ErrDuplicateBooking.Error(), gjson.GetBytes(rbytes, "error").String())

	var count int64
	assert.Nil(s.T(), s.DB.
		Model(&models.Ticket{}).
		Where(&models.Ticket{EventID: event.ID, UserID: user.User.ID}).
		Count(&count).
		Error)
	assert.Equal(s.T(), int64(1), count)
}

func (s *BookingTestSuite) TestPaidEventWithoutProcessor() {
	event := s.seedEvent("Gala Dinner", 5, 49.99)
	user := seedAccount(s.T(), types.ROLE_STUDENT, nil)

	w := httptest.NewRecorder()
	req := authedRequest("POST", fmt.Sprintf("/api/v1/events/%d/book", event.ID), user.Token, nil)
	s.Router.ServeHTTP(w, req)

	assert.Equal(s.T(), 402, w.Code)

	var count int64
	assert.Nil(s.T(), s.DB.Model(&models.Ticket{}).Where(&models.Ticket{EventID: event.ID}).Count(&count).Error)
	assert.Equal(s.T(), int64(0), count)
}

func (s *BookingTestSuite) TestInactiveEventRefusesBooking() {
	event := s.seedEvent("Cancelled Show", 10, 0)
	assert.Nil(s.T(), s.DB.Model(&models.Event{}).Where(&models.Event{ID: event.ID}).Update("is_active", false).Error)
	user := seedAccount(s.T(), types.ROLE_STUDENT, nil)

	w := httptest.NewRecorder()
	req := authedRequest("POST", fmt.Sprintf("/api/v1/events/%d/book", event.ID), user.Token, nil)
	s.Router.ServeHTTP(w, req)

	assert.Equal(s.T(), 404, w.Code)
}

// TestConcurrentLastSeat races many bookings against a single remaining seat.
// Exactly one must win; every loser observes the capacity error and the seat
// count never goes negative.
func (s *BookingTestSuite) TestConcurrentLastSeat() {
	const contenders = 8
	event := s.seedEvent("Finale", 1, 0)

	users := make([]*seededAccount, contenders)
	for i := range users {
		users[i] = seedAccount(s.T(), types.ROLE_STUDENT, nil)
	}

	results := make(chan error, contenders)
	var wg sync.WaitGroup
	for i := range contenders {
		wg.Add(1)
		go func(uid uint) {
			defer wg.Done()
			_, err := common.BookTicket(context.Background(), uid, event.ID)
			results <- err
		}(users[i].User.ID)
	}
	wg.Wait()
	close(results)

	winners, losers := 0, 0
	for err := range results {
		if err == nil {
			winners++
			continue
		}
		losers++
		assert.True(s.T(), errors.Is(err, types.ErrSoldOut), "unexpected error: %v", err)
	}
	assert.Equal(s.T(), 1, winners)
	assert.Equal(s.T(), contenders-1, losers)

	var count int64
	assert.Nil(s.T(), s.DB.Model(&models.Ticket{}).Where(&models.Ticket{EventID: event.ID}).Count(&count).Error)
	assert.Equal(s.T(), int64(1), count)
}

func (s *BookingTestSuite) TestEventDeleteCascadesTickets() {
	event := s.seedEvent("Farewell Party", 5, 0)
	user := seedAccount(s.T(), types.ROLE_STUDENT, nil)
	root := seedSuperAdminAccount(s.T(), s.DB)

	w := httptest.NewRecorder()
	req := authedRequest("POST", fmt.Sprintf("/api/v1/events/%d/book", event.ID), user.Token, nil)
	s.Router.ServeHTTP(w, req)
	assert.Equal(s.T(), 201, w.Code)

	w = httptest.NewRecorder()
	req = authedRequest("DELETE", fmt.Sprintf("/api/v1/events/%d", event.ID), root.Token, nil)
	s.Router.ServeHTTP(w, req)
	assert.Equal(s.T(), 204, w.Code)

	var count int64
	assert.Nil(s.T(), s.DB.Model(&models.Ticket{}).Where(&models.Ticket{EventID: event.ID}).Count(&count).Error)
	assert.Equal(s.T(), int64(0), count, "tickets must go with their event")

	w = httptest.NewRecorder()
	req = authedRequest("GET", "/api/v1/tickets", user.Token, nil)
	s.Router.ServeHTTP(w, req)
	assert.Equal(s.T(), 200, w.Code)
	rbytes, _ := io.ReadAll(w.Body)
	for _, tk := range gjson.GetBytes(rbytes, "data").Array() {
		assert.NotEqual(s.T(), int64(event.ID), tk.Get("event_id").Int(), "orphaned ticket still listed")
	}
}

func (s *BookingTestSuite) TestDepartmentDeleteCascadesTickets() {
	dept := models.Department{Name: "Archived Arts", Code: "AA"}
	assert.Nil(s.T(), s.DB.Create(&dept).Error)
	past := time.Now().Add(-48 * time.Hour)
	event := models.Event{
		Title:            "Last Year Recital",
		DateTime:         &past,
		AvailableTickets: 30,
		DepartmentID:     dept.ID,
		Category:         types.CATEGORY_STAGE_EVENT,
		IsActive:         true,
	}
	assert.Nil(s.T(), s.DB.Create(&event).Error)
	user := seedAccount(s.T(), types.ROLE_STUDENT, nil)
	ticket := models.Ticket{
		EventID:  event.ID,
		UserID:   user.User.ID,
		Serial:   uuid.New(),
		BookedAt: past,
	}
	assert.Nil(s.T(), s.DB.Create(&ticket).Error)
	root := seedSuperAdminAccount(s.T(), s.DB)

	w := httptest.NewRecorder()
	req := authedRequest("DELETE", fmt.Sprintf("/api/v1/departments/%d", dept.ID), root.Token, nil)
	s.Router.ServeHTTP(w, req)
	assert.Equal(s.T(), 204, w.Code)

	var events, tickets int64
	assert.Nil(s.T(), s.DB.Model(&models.Event{}).Where("department_id = ?", dept.ID).Count(&events).Error)
	assert.Nil(s.T(), s.DB.Model(&models.Ticket{}).Where(&models.Ticket{EventID: event.ID}).Count(&tickets).Error)
	assert.Equal(s.T(), int64(0), events)
	assert.Equal(s.T(), int64(0), tickets)
}

func TestBookingRunner(t *testing.T) {
	suite.Run(t, new(BookingTestSuite))
}
