package main

import (
	"cems/src/config"
	"cems/src/db"
	"cems/src/middlewares"
	"cems/src/models"
	"cems/src/types"
	"cems/src/utils"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gosimple/slug"
	"gorm.io/gorm"
)

func eventHandlers(g *gin.RouterGroup) *gin.RouterGroup {
	g.
		GET("/events", func(ctx *gin.Context) {
			var filters types.EventQueryFilters
			if err := ctx.ShouldBindQuery(&filters); err != nil {
				ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
				return
			}
			d := db.GetDb()
			q := d.
				Model(&models.Event{}).
				Where(&models.Event{IsActive: true}).
				Preload("Department")
			if filters.Category != "" {
				q = q.Where("category = ?", filters.Category)
			}
			if filters.Department > 0 {
				q = q.Where("department_id = ?", filters.Department)
			}
			if filters.Upcoming {
				q = q.Where("date_time > ?", time.Now())
			}
			var events []models.Event
			if err := q.Order("date_time asc").Find(&events).Error; err != nil {
				respondError(ctx, err)
				return
			}
			ctx.JSON(http.StatusOK, gin.H{"data": events})
		}).
		GET("/events/:id", func(ctx *gin.Context) {
			var params types.SimpleRequestParams
			if err := ctx.ShouldBindUri(&params); err != nil {
				ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
				return
			}
			event, err := utils.GetEvent(params.ID)
			if err != nil {
				respondError(ctx, err)
				return
			}
			left, err := utils.TicketsLeft(db.GetDb(), event)
			if err != nil {
				respondError(ctx, err)
				return
			}
			ctx.JSON(http.StatusOK, gin.H{
				"data":         event,
				"tickets_left": left,
				"is_free":      event.IsFree(),
			})
		}).
		GET("/events/:id/seats", func(ctx *gin.Context) {
			var params types.SimpleRequestParams
			if err := ctx.ShouldBindUri(&params); err != nil {
				ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
				return
			}
			seats, err := utils.GetEventSeats(params.ID)
			if err != nil {
				respondError(ctx, err)
				return
			}
			ctx.JSON(http.StatusOK, gin.H{"data": seats})
		}).
		POST("/events", middlewares.RequireRole(types.ROLE_ADMIN), func(ctx *gin.Context) {
			var body types.CreateEventRequestBody
			if err := ctx.ShouldBindJSON(&body); err != nil {
				ctx.JSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error()})
				return
			}
			// Event admins can only publish under their own department.
			// Superadmins publish anywhere.
			if types.Role(ctx.GetString("role")) == types.ROLE_ADMIN {
				if dept := ctx.GetUint("department"); dept != body.Department {
					respondError(ctx, types.ErrForbidden)
					return
				}
			}
			id, err := utils.CreateNewEvent(&body, ctx.GetUint("id"))
			if err != nil {
				respondError(ctx, err)
				return
			}
			ctx.JSON(http.StatusCreated, gin.H{"id": id})
		}).
		PUT("/events/:id", middlewares.RequireRole(types.ROLE_ADMIN), func(ctx *gin.Context) {
			var params types.SimpleRequestParams
			if err := ctx.ShouldBindUri(&params); err != nil {
				ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
				return
			}
			var body types.UpdateEventRequestBody
			if err := ctx.ShouldBindJSON(&body); err != nil {
				ctx.JSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error()})
				return
			}
			d := db.GetDb()
			err := d.Transaction(func(tx *gorm.DB) error {
				var event models.Event
				if err := tx.Where(&models.Event{ID: params.ID}).First(&event).Error; err != nil {
					if errors.Is(err, gorm.ErrRecordNotFound) {
						return types.ErrNotFound
					}
					return err
				}
				if !canManageEvent(ctx, &event) {
					return types.ErrForbidden
				}
				updates := map[string]any{}
				if body.Title != "" {
					updates["title"] = body.Title
					updates["slug"] = slug.Make(body.Title)
				}
				if body.Description != "" {
					updates["description"] = body.Description
				}
				if body.Date != nil {
					dateTime, err := time.Parse(config.TIME_PARSE_FORMAT, *body.Date)
					if err != nil {
						return types.NewValidationError("date", "invalid date format")
					}
					updates["date_time"] = dateTime
				}
				if body.Location != "" {
					updates["location"] = body.Location
				}
				if body.Image != "" {
					updates["image"] = body.Image
				}
				if body.Category != nil {
					if !body.Category.Valid() {
						return types.NewValidationError("category", "unknown category")
					}
					updates["category"] = *body.Category
				}
				if body.IsActive != nil {
					updates["is_active"] = *body.IsActive
				}
				if len(updates) == 0 {
					return nil
				}
				return tx.
					Model(&models.Event{}).
					Where(&models.Event{ID: event.ID}).
					Updates(updates).
					Error
			})
			if err != nil {
				respondError(ctx, err)
				return
			}
			ctx.Status(http.StatusNoContent)
		}).
		DELETE("/events/:id", middlewares.RequireRole(types.ROLE_ADMIN), func(ctx *gin.Context) {
			var params types.SimpleRequestParams
			if err := ctx.ShouldBindUri(&params); err != nil {
				ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
				return
			}
			d := db.GetDb()
			err := d.Transaction(func(tx *gorm.DB) error {
				var event models.Event
				if err := tx.Where(&models.Event{ID: params.ID}).First(&event).Error; err != nil {
					if errors.Is(err, gorm.ErrRecordNotFound) {
						return types.ErrNotFound
					}
					return err
				}
				if !canManageEvent(ctx, &event) {
					return types.ErrForbidden
				}
				return tx.Select("Tickets").Delete(&event).Error
			})
			if err != nil {
				respondError(ctx, err)
				return
			}
			ctx.Status(http.StatusNoContent)
		})
	return g
}

// canManageEvent allows the creator and superadmins to mutate an event.
func canManageEvent(ctx *gin.Context, event *models.Event) bool {
	if types.Role(ctx.GetString("role")) == types.ROLE_SUPERADMIN {
		return true
	}
	return event.CreatedByID != nil && *event.CreatedByID == ctx.GetUint("id")
}
