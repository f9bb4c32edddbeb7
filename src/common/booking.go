package common

import (
	"cems/src/db"
	"cems/src/lib"
	"cems/src/models"
	"cems/src/types"
	"context"
	"errors"
	"fmt"
	"log"
	"math"
	"os"
	"sync"
	"time"

	awslib "cems/src/lib/aws"

	"github.com/google/uuid"
	"github.com/stripe/stripe-go/v82"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// eventLocks serializes booking admission per event in-process. Postgres
// additionally takes a row lock on the event inside the transaction; sqlite
// (used by tests) has no row locks, so the mutex carries the guarantee there.
var eventLocks sync.Map

func lockEvent(eventId uint) *sync.Mutex {
	mu, _ := eventLocks.LoadOrStore(eventId, &sync.Mutex{})
	return mu.(*sync.Mutex)
}

// BookTicket admits a user to an event. Preconditions are checked in order
// inside a single transaction: event exists and is active, no prior ticket
// for the (event, user) pair, seats remaining, payment for non-free events.
// The QR artifact is derived before the transaction commits; any artifact
// failure rolls back the ticket row. Capacity never goes negative: admission
// for a given event is linearized by the event lock.
func BookTicket(ctx context.Context, userId uint, eventId uint) (*models.Ticket, error) {
	mu := lockEvent(eventId)
	mu.Lock()
	defer mu.Unlock()

	var ticket models.Ticket
	var user models.User
	var event models.Event
	d := db.GetDb()
	err := d.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where(&models.User{ID: userId}).First(&user).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return types.ErrUnauthenticated
			}
			return err
		}

		q := tx
		if tx.Dialector.Name() == "postgres" {
			q = tx.Clauses(clause.Locking{Strength: "UPDATE"})
		}
		if err := q.Where(&models.Event{ID: eventId}).First(&event).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return types.ErrNotFound
			}
			return err
		}
		if !event.IsActive {
			return types.ErrNotFound
		}

		var existing int64
		if err := tx.
			Model(&models.Ticket{}).
			Where(&models.Ticket{EventID: eventId, UserID: userId}).
			Count(&existing).
			Error; err != nil {
			return err
		}
		if existing > 0 {
			return types.ErrDuplicateBooking
		}

		var booked int64
		if err := tx.
			Model(&models.Ticket{}).
			Where(&models.Ticket{EventID: eventId}).
			Count(&booked).
			Error; err != nil {
			return err
		}
		if int(booked) >= event.AvailableTickets {
			return types.ErrSoldOut
		}

		if !event.IsFree() {
			if err := collectPayment(ctx, &user, &event); err != nil {
				return err
			}
		}

		// Two-phase construction: persist the row, then derive and attach
		// the artifact inside the same transaction.
		ticket = models.Ticket{
			EventID:  eventId,
			UserID:   userId,
			Serial:   uuid.New(),
			BookedAt: time.Now(),
		}
		if err := tx.Create(&ticket).Error; err != nil {
			return err
		}

		payload, err := BuildQRPayload(&user, &event, ticket.BookedAt)
		if err != nil {
			return err
		}
		fpath, err := RenderQRArtifact(payload, QRArtifactName(user.Username, eventId))
		if err != nil {
			log.Printf("Error rendering ticket code for user %d event %d: %s\n", userId, eventId, err.Error())
			return err
		}
		if err := tx.
			Model(&models.Ticket{}).
			Where(&models.Ticket{ID: ticket.ID}).
			Update("qr_code", fpath).
			Error; err != nil {
			return err
		}
		ticket.QRCode = fpath
		return nil
	})
	if err != nil {
		return nil, err
	}

	go notifyBooking(&user, &event, &ticket)

	return &ticket, nil
}

// priceInCents converts a display price to the integer amount the payment
// processor expects. Rounded, not truncated: float32 arithmetic leaves many
// cent values a hair under the exact product.
func priceInCents(price float32) int64 {
	return int64(math.Round(float64(price) * 100))
}

// collectPayment is the integration point for non-free events. With Stripe
// configured a PaymentIntent is created for the ticket price; without it the
// booking is rejected rather than silently treating the event as free.
func collectPayment(ctx context.Context, user *models.User, event *models.Event) error {
	if !lib.PaymentsEnabled() {
		return types.ErrPaymentRequired
	}
	sc := lib.GetStripeClient()
	amount := priceInCents(event.TicketPrice)
	params := &stripe.PaymentIntentCreateParams{
		Amount:   stripe.Int64(amount),
		Currency: stripe.String("usd"),
		Metadata: map[string]string{
			"event_id": fmt.Sprint(event.ID),
			"user_id":  fmt.Sprint(user.ID),
		},
	}
	intent, err := sc.V1PaymentIntents.Create(ctx, params)
	if err != nil {
		log.Printf("Error creating payment intent for event %d: %s\n", event.ID, err.Error())
		return err
	}
	log.Printf("Created payment intent %s for event %d\n", intent.ID, event.ID)
	return nil
}

// notifyBooking mirrors the artifact to S3, caches its reference, and emails
// a confirmation. All best-effort: the booking already committed.
func notifyBooking(user *models.User, event *models.Event, ticket *models.Ticket) {
	name := QRArtifactName(user.Username, event.ID)
	if awslib.ArtifactBucketConfigured() {
		url, err := awslib.S3UploadAsset(name, ticket.QRCode)
		if err != nil {
			log.Printf("Error uploading artifact [%s] to S3 bucket: %s\n", name, err.Error())
		} else if rd := lib.GetRedisClient(); rd != nil {
			rd.SetEx(context.Background(), name, *url, 2*time.Hour)
		}
	}
	if lib.MailEnabled() {
		err := lib.SendMail(&lib.SendMailInput{
			From:        os.Getenv("SMTP_FROM"),
			FromName:    "Campus Events",
			To:          []string{user.Email},
			Subject:     fmt.Sprintf("Your ticket for %s", event.Title),
			Body:        fmt.Sprintf("Hi %s,\n\nYour booking for %s is confirmed. Present the attached code at the entrance.\n", user.Username, event.Title),
			Attachments: []string{ticket.QRCode},
		})
		if err != nil {
			log.Printf("Error sending booking confirmation to %s: %s\n", user.Email, err.Error())
		}
	}
}
