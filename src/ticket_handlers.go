package main

import (
	"cems/src/common"
	"cems/src/db"
	"cems/src/lib"
	"cems/src/middlewares"
	"cems/src/models"
	"cems/src/types"
	"errors"
	"log"
	"net/http"
	"os"

	awslib "cems/src/lib/aws"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

func ticketHandlers(g *gin.RouterGroup) *gin.RouterGroup {
	g.
		POST("/events/:id/book", func(ctx *gin.Context) {
			var params types.SimpleRequestParams
			if err := ctx.ShouldBindUri(&params); err != nil {
				ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
				return
			}
			userId := ctx.GetUint("id")
			ticket, err := common.BookTicket(ctx.Request.Context(), userId, params.ID)
			if err != nil {
				log.Printf("[BookTicket] user %d event %d: %s\n", userId, params.ID, err.Error())
				respondError(ctx, err)
				return
			}
			ctx.JSON(http.StatusCreated, gin.H{"data": types.APIResponseTicket{
				ID:       ticket.ID,
				Serial:   ticket.Serial.String(),
				QRCode:   ticket.QRCode,
				BookedAt: &ticket.BookedAt,
			}})
		}).
		GET("/tickets", func(ctx *gin.Context) {
			d := db.GetDb()
			var tickets []models.Ticket
			if err := d.
				Model(&models.Ticket{}).
				Where(&models.Ticket{UserID: ctx.GetUint("id")}).
				Preload("Event").
				Order("booked_at desc").
				Find(&tickets).
				Error; err != nil {
				respondError(ctx, err)
				return
			}
			ctx.JSON(http.StatusOK, gin.H{"data": tickets})
		}).
		GET("/tickets/:id", func(ctx *gin.Context) {
			ticket, err := ownedTicket(ctx)
			if err != nil {
				respondError(ctx, err)
				return
			}
			ctx.JSON(http.StatusOK, gin.H{"data": ticket})
		}).
		GET("/tickets/:id/code", func(ctx *gin.Context) {
			ticket, err := ownedTicket(ctx)
			if err != nil {
				respondError(ctx, err)
				return
			}
			if ticket.QRCode == "" {
				respondError(ctx, types.ErrNotFound)
				return
			}
			// Prefer the mirrored copy: a cached presigned URL if one is
			// still live, otherwise the local artifact. A missing local file
			// is restored from the bucket before serving.
			name := common.QRArtifactName(ctx.GetString("username"), ticket.EventID)
			if awslib.ArtifactBucketConfigured() {
				if rd := lib.GetRedisClient(); rd != nil {
					if url, err := rd.Get(ctx.Request.Context(), name).Result(); err == nil {
						ctx.JSON(http.StatusOK, gin.H{"url": url})
						return
					}
				}
				if _, err := os.Stat(ticket.QRCode); err != nil {
					if err := awslib.S3DownloadAsset(name, ticket.QRCode); err != nil {
						log.Printf("Error restoring artifact [%s] from S3 bucket: %s\n", name, err.Error())
					}
				}
			}
			ctx.File(ticket.QRCode)
		}).
		POST("/tickets/verify", middlewares.RequireRole(types.ROLE_ADMIN), func(ctx *gin.Context) {
			var body types.VerifyTicketRequestBody
			if err := ctx.ShouldBindJSON(&body); err != nil {
				ctx.JSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error()})
				return
			}
			serial, err := uuid.Parse(body.Serial)
			if err != nil {
				ctx.JSON(http.StatusUnprocessableEntity, gin.H{"error": "invalid serial"})
				return
			}
			ticket, err := common.AdmitTicket(ctx.Request.Context(), serial)
			if err != nil {
				respondError(ctx, err)
				return
			}
			ctx.JSON(http.StatusOK, gin.H{
				"data":          ticket,
				"checked_in_at": ticket.CheckedInAt,
			})
		})
	return g
}

// ownedTicket loads the ticket from the :id param and enforces that only its
// holder can read it.
func ownedTicket(ctx *gin.Context) (*models.Ticket, error) {
	var params types.SimpleRequestParams
	if err := ctx.ShouldBindUri(&params); err != nil {
		return nil, types.NewValidationError("id", "invalid ticket id")
	}
	d := db.GetDb()
	var ticket models.Ticket
	if err := d.
		Model(&models.Ticket{}).
		Where(&models.Ticket{ID: params.ID}).
		Preload("Event").
		First(&ticket).
		Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, types.ErrNotFound
		}
		return nil, err
	}
	if ticket.UserID != ctx.GetUint("id") {
		return nil, types.ErrForbidden
	}
	return &ticket, nil
}
