package main

import (
	"cems/src/db"
	"cems/src/middlewares"
	"cems/src/models"
	"cems/src/types"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

func departmentHandlers(g *gin.RouterGroup) *gin.RouterGroup {
	g.
		GET("/departments", func(ctx *gin.Context) {
			d := db.GetDb()
			var departments []models.Department
			if err := d.Order("name asc").Find(&departments).Error; err != nil {
				respondError(ctx, err)
				return
			}
			ctx.JSON(http.StatusOK, gin.H{"data": departments})
		}).
		GET("/departments/:id", func(ctx *gin.Context) {
			var params types.SimpleRequestParams
			if err := ctx.ShouldBindUri(&params); err != nil {
				ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
				return
			}
			d := db.GetDb()
			var dept models.Department
			if err := d.
				Where(&models.Department{ID: params.ID}).
				Preload("Events").
				First(&dept).
				Error; err != nil {
				if errors.Is(err, gorm.ErrRecordNotFound) {
					respondError(ctx, types.ErrNotFound)
					return
				}
				respondError(ctx, err)
				return
			}
			ctx.JSON(http.StatusOK, gin.H{"data": dept})
		}).
		POST("/departments", middlewares.RequireRole(types.ROLE_SUPERADMIN), func(ctx *gin.Context) {
			var body types.CreateDepartmentRequestBody
			if err := ctx.ShouldBindJSON(&body); err != nil {
				ctx.JSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error()})
				return
			}
			dept := models.Department{Name: body.Name, Code: body.Code}
			d := db.GetDb()
			err := d.Transaction(func(tx *gorm.DB) error {
				var count int64
				if err := tx.
					Model(&models.Department{}).
					Where("name = ? OR code = ?", body.Name, body.Code).
					Count(&count).
					Error; err != nil {
					return err
				}
				if count > 0 {
					return types.NewValidationError("name", "department already exists")
				}
				return tx.Create(&dept).Error
			})
			if err != nil {
				respondError(ctx, err)
				return
			}
			ctx.JSON(http.StatusCreated, gin.H{"id": dept.ID})
		}).
		PUT("/departments/:id", middlewares.RequireRole(types.ROLE_SUPERADMIN), func(ctx *gin.Context) {
			var params types.SimpleRequestParams
			if err := ctx.ShouldBindUri(&params); err != nil {
				ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
				return
			}
			var body types.UpdateDepartmentRequestBody
			if err := ctx.ShouldBindJSON(&body); err != nil {
				ctx.JSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error()})
				return
			}
			d := db.GetDb()
			err := d.Transaction(func(tx *gorm.DB) error {
				var dept models.Department
				if err := tx.Where(&models.Department{ID: params.ID}).First(&dept).Error; err != nil {
					if errors.Is(err, gorm.ErrRecordNotFound) {
						return types.ErrNotFound
					}
					return err
				}
				updates := map[string]any{}
				if body.Name != "" {
					updates["name"] = body.Name
				}
				if body.Code != "" {
					updates["code"] = body.Code
				}
				if len(updates) == 0 {
					return nil
				}
				return tx.
					Model(&models.Department{}).
					Where(&models.Department{ID: dept.ID}).
					Updates(updates).
					Error
			})
			if err != nil {
				respondError(ctx, err)
				return
			}
			ctx.Status(http.StatusNoContent)
		}).
		DELETE("/departments/:id", middlewares.RequireRole(types.ROLE_SUPERADMIN), func(ctx *gin.Context) {
			var params types.SimpleRequestParams
			if err := ctx.ShouldBindUri(&params); err != nil {
				ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
				return
			}
			d := db.GetDb()
			err := d.Transaction(func(tx *gorm.DB) error {
				var dept models.Department
				if err := tx.
					Where(&models.Department{ID: params.ID}).
					Preload("Events").
					First(&dept).
					Error; err != nil {
					if errors.Is(err, gorm.ErrRecordNotFound) {
						return types.ErrNotFound
					}
					return err
				}
				if dept.HasActiveEvents() {
					return types.NewValidationError("department", "has upcoming events")
				}
				// Association delete only reaches one level; tickets of the
				// cascaded events go explicitly.
				var eventIds []uint
				if err := tx.
					Model(&models.Event{}).
					Where("department_id = ?", dept.ID).
					Pluck("id", &eventIds).
					Error; err != nil {
					return err
				}
				if len(eventIds) > 0 {
					if err := tx.Where("event_id IN ?", eventIds).Delete(&models.Ticket{}).Error; err != nil {
						return err
					}
				}
				return tx.Select("Events").Delete(&dept).Error
			})
			if err != nil {
				respondError(ctx, err)
				return
			}
			ctx.Status(http.StatusNoContent)
		})
	return g
}
