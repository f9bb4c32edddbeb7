package common

import (
	"cems/src/config"
	"cems/src/lib"
	"cems/src/models"
	"cems/src/types"
	"encoding/json"
	"fmt"
	"time"

	"github.com/yeqown/go-qrcode"
)

// qrPayload is the canonical record encoded into a ticket's QR code. Field
// order matters: json.Marshal emits struct fields in declaration order, so
// equal inputs always produce byte-identical payload text.
type qrPayload struct {
	Username     string  `json:"username"`
	EnrollmentNo *string `json:"enrollment_no"`
	Event        string  `json:"event"`
	Date         string  `json:"date"`
	BookedAt     string  `json:"booked_at"`
}

// BuildQRPayload serializes the booking details for entry verification.
func BuildQRPayload(user *models.User, event *models.Event, bookedAt time.Time) (string, error) {
	date := config.QR_DATE_SENTINEL
	if event.DateTime != nil {
		date = event.DateTime.Format(config.TIME_PARSE_FORMAT)
	}
	payload := qrPayload{
		Username:     user.Username,
		EnrollmentNo: user.EnrollmentNo,
		Event:        event.Title,
		Date:         date,
		BookedAt:     bookedAt.Format(config.BOOKED_AT_FORMAT),
	}
	raw, err := json.Marshal(&payload)
	if err != nil {
		return "", err
	}
	return string(raw), nil
}

// QRArtifactName is the stable artifact filename for a booking.
func QRArtifactName(username string, eventId uint) string {
	return fmt.Sprintf("qr_%s_%d.png", username, eventId)
}

// RenderQRArtifact encodes the payload into a raster image under the media
// directory and returns the stored path. The render is bounded by
// config.QRRenderTimeout; on timeout or failure the caller must abort the
// booking so no ticket persists without a scannable code. When an S3 bucket
// is configured the artifact is mirrored there as well.
func RenderQRArtifact(payload string, filename string) (string, error) {
	fpath, err := lib.MediaPath("qrcodes", filename)
	if err != nil {
		return "", err
	}

	done := make(chan error, 1)
	go func() {
		qrc, err := qrcode.New(payload)
		if err != nil {
			done <- err
			return
		}
		done <- qrc.Save(fpath)
	}()

	select {
	case err := <-done:
		if err != nil {
			return "", err
		}
	case <-time.After(config.QRRenderTimeout):
		return "", types.ErrQRRenderTimeout
	}
	return fpath, nil
}
