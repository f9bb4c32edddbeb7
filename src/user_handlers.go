package main

import (
	"cems/src/db"
	"cems/src/middlewares"
	"cems/src/models"
	"cems/src/types"
	"cems/src/utils"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

func userHandlers(g *gin.RouterGroup) *gin.RouterGroup {
	users := g.Group("/users", middlewares.RequireRole(types.ROLE_SUPERADMIN))
	users.
		GET("", func(ctx *gin.Context) {
			d := db.GetDb()
			q := d.Model(&models.User{}).Preload("Department")
			if role := ctx.Query("role"); role != "" {
				q = q.Where("role = ?", role)
			}
			var list []models.User
			if err := q.Order("username asc").Find(&list).Error; err != nil {
				respondError(ctx, err)
				return
			}
			ctx.JSON(http.StatusOK, gin.H{"data": list})
		}).
		GET("/:id", func(ctx *gin.Context) {
			var params types.SimpleRequestParams
			if err := ctx.ShouldBindUri(&params); err != nil {
				ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
				return
			}
			user, err := utils.GetUser(params.ID)
			if err != nil {
				respondError(ctx, err)
				return
			}
			ctx.JSON(http.StatusOK, gin.H{"data": user})
		}).
		DELETE("/:id", func(ctx *gin.Context) {
			var params types.SimpleRequestParams
			if err := ctx.ShouldBindUri(&params); err != nil {
				ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
				return
			}
			if params.ID == ctx.GetUint("id") {
				respondError(ctx, types.NewValidationError("id", "cannot delete own account"))
				return
			}
			d := db.GetDb()
			err := d.Transaction(func(tx *gorm.DB) error {
				var user models.User
				if err := tx.Where(&models.User{ID: params.ID}).First(&user).Error; err != nil {
					if errors.Is(err, gorm.ErrRecordNotFound) {
						return types.ErrNotFound
					}
					return err
				}
				if user.IsSuperAdmin() {
					return types.NewValidationError("id", "superadmin accounts cannot be deleted")
				}
				return tx.Select("Tickets").Delete(&user).Error
			})
			if err != nil {
				respondError(ctx, err)
				return
			}
			ctx.Status(http.StatusNoContent)
		})
	return g
}
