package main

import (
	"cems/src/db"
	"cems/src/lib"
	"cems/src/models"
	"cems/src/types"
	"encoding/json"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

const dashboardStatsKey = "dashboard:stats"

// dashboardHandlers serves the per-role landing data. The switch over roles is
// exhaustive; an unknown role never reaches here because AuthMiddleware loads
// the role from the user row.
func dashboardHandlers(g *gin.RouterGroup) *gin.RouterGroup {
	g.
		GET("/dashboard", func(ctx *gin.Context) {
			d := db.GetDb()
			userId := ctx.GetUint("id")
			switch types.Role(ctx.GetString("role")) {
			case types.ROLE_STUDENT:
				var tickets []models.Ticket
				if err := d.
					Model(&models.Ticket{}).
					Where(&models.Ticket{UserID: userId}).
					Preload("Event").
					Order("booked_at desc").
					Find(&tickets).
					Error; err != nil {
					respondError(ctx, err)
					return
				}
				upcoming := 0
				now := time.Now()
				for _, t := range tickets {
					if t.Event != nil && t.Event.DateTime != nil && t.Event.DateTime.After(now) {
						upcoming++
					}
				}
				ctx.JSON(http.StatusOK, gin.H{"tickets": tickets, "upcoming": upcoming})
			case types.ROLE_ADMIN:
				var events []models.Event
				if err := d.
					Model(&models.Event{}).
					Where("created_by_id = ?", userId).
					Find(&events).
					Error; err != nil {
					respondError(ctx, err)
					return
				}
				upcoming := 0
				now := time.Now()
				for _, e := range events {
					if e.DateTime != nil && e.DateTime.After(now) {
						upcoming++
					}
				}
				var sold int64
				if len(events) > 0 {
					ids := make([]uint, 0, len(events))
					for _, e := range events {
						ids = append(ids, e.ID)
					}
					if err := d.
						Model(&models.Ticket{}).
						Where("event_id IN ?", ids).
						Count(&sold).
						Error; err != nil {
						respondError(ctx, err)
						return
					}
				}
				ctx.JSON(http.StatusOK, gin.H{"events": events, "tickets_sold": sold, "upcoming": upcoming})
			case types.ROLE_SUPERADMIN:
				stats, err := platformStats(ctx, d)
				if err != nil {
					respondError(ctx, err)
					return
				}
				ctx.JSON(http.StatusOK, gin.H{"stats": stats})
			default:
				respondError(ctx, types.ErrForbidden)
			}
		})
	return g
}

type platformStatCounts struct {
	Users       int64 `json:"users"`
	Departments int64 `json:"departments"`
	Events      int64 `json:"events"`
	Tickets     int64 `json:"tickets"`
}

// platformStats counts the whole platform. Counts are cached for a minute
// when redis is available.
func platformStats(ctx *gin.Context, d *gorm.DB) (*platformStatCounts, error) {
	rd := lib.GetRedisClient()
	if rd != nil {
		if cached, err := rd.Get(ctx.Request.Context(), dashboardStatsKey).Result(); err == nil {
			var stats platformStatCounts
			if err := json.Unmarshal([]byte(cached), &stats); err == nil {
				return &stats, nil
			}
		}
	}
	var stats platformStatCounts
	if err := d.Model(&models.User{}).Count(&stats.Users).Error; err != nil {
		return nil, err
	}
	if err := d.Model(&models.Department{}).Count(&stats.Departments).Error; err != nil {
		return nil, err
	}
	if err := d.Model(&models.Event{}).Count(&stats.Events).Error; err != nil {
		return nil, err
	}
	if err := d.Model(&models.Ticket{}).Count(&stats.Tickets).Error; err != nil {
		return nil, err
	}
	if rd != nil {
		if raw, err := json.Marshal(&stats); err == nil {
			rd.SetEx(ctx.Request.Context(), dashboardStatsKey, string(raw), time.Minute)
		}
	}
	return &stats, nil
}
