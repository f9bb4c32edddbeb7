package main

import (
	"cems/src/db"
	"cems/src/models"
	"cems/src/types"
	"cems/src/utils"
	"errors"
	"log"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

func guestAuthRoutes(g *gin.Engine) *gin.RouterGroup {
	apiv1 := apiv1Group(g)
	guest := apiv1.Group("/auth")
	guest.
		POST("/register", func(ctx *gin.Context) {
			var body types.RegisterUserRequestBody
			if err := ctx.ShouldBindJSON(&body); err != nil {
				ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
				return
			}
			user, err := utils.CreateNewUser(&body)
			if err != nil {
				log.Printf("[AuthRegister] error: %s\n", err.Error())
				respondError(ctx, err)
				return
			}
			token, err := utils.GenerateJWT(user.Username, user.ID, user.Role)
			if err != nil {
				log.Printf("Error generating token for user %d: %s\n", user.ID, err.Error())
				ctx.Status(http.StatusInternalServerError)
				return
			}
			ctx.JSON(http.StatusCreated, gin.H{"id": user.ID, "token": token})
		}).
		POST("/login", func(ctx *gin.Context) {
			var body types.LoginRequestBody
			if err := ctx.ShouldBindJSON(&body); err != nil {
				ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
				return
			}
			d := db.GetDb()
			var user models.User
			if err := d.
				Model(&models.User{}).
				Where(&models.User{Username: body.Username}).
				First(&user).
				Error; err != nil {
				if errors.Is(err, gorm.ErrRecordNotFound) {
					ctx.JSON(http.StatusUnauthorized, gin.H{"error": "invalid credentials"})
					return
				}
				ctx.JSON(http.StatusBadRequest, gin.H{"error": "Error while processing request"})
				return
			}
			if !utils.CheckPasswordHash(body.Password, user.PasswordHash) {
				ctx.JSON(http.StatusUnauthorized, gin.H{"error": "invalid credentials"})
				return
			}
			token, err := utils.GenerateJWT(user.Username, user.ID, user.Role)
			if err != nil {
				log.Printf("Error generating token for user %d: %s\n", user.ID, err.Error())
				ctx.Status(http.StatusInternalServerError)
				return
			}
			ctx.JSON(http.StatusOK, gin.H{"token": token, "role": user.Role})
		})
	return guest
}

func accountHandlers(g *gin.RouterGroup) *gin.RouterGroup {
	g.
		GET("/auth/me", func(ctx *gin.Context) {
			userId := ctx.GetUint("id")
			user, err := utils.GetUser(userId)
			if err != nil {
				respondError(ctx, err)
				return
			}
			ctx.JSON(http.StatusOK, gin.H{"data": user})
		}).
		POST("/auth/logout", func(ctx *gin.Context) {
			d := db.GetDb()
			if err := d.Transaction(func(tx *gorm.DB) error {
				userId := ctx.GetUint("id")
				return tx.
					Model(&models.User{}).
					Where(&models.User{ID: userId}).
					Update("last_active", time.Now()).
					Error
			}); err != nil {
				log.Printf("Error on user logout: %s\n", err.Error())
				ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
				return
			}
			ctx.Status(http.StatusOK)
		})
	return g
}
