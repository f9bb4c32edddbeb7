package config

import (
	"fmt"
	"os"
	"time"
)

func GetDSN() string {
	DATABASE_HOST := os.Getenv("DATABASE_HOST")
	DATABASE_PORT := os.Getenv("DATABASE_PORT")
	DATABASE_SSLMODE := os.Getenv("DATABASE_SSLMODE")
	DATABASE_TIMEZONE := os.Getenv("DATABASE_TIMEZONE")
	DATABASE_USER := os.Getenv("DATABASE_USER")
	DATABASE_PASSWORD := os.Getenv("DATABASE_PASSWORD")
	DATABASE_NAME := os.Getenv("DATABASE_NAME")
	dsn := fmt.Sprintf("host=%s user=%s password=%s dbname=%s port=%s sslmode=%s TimeZone=%s", DATABASE_HOST, DATABASE_USER, DATABASE_PASSWORD, DATABASE_NAME, DATABASE_PORT, DATABASE_SSLMODE, DATABASE_TIMEZONE)
	return dsn
}

// TIME_PARSE_FORMAT is the wire format for event dates. The QR payload embeds
// event dates in this exact format so payloads stay byte-identical for equal
// inputs.
const TIME_PARSE_FORMAT = "2006-01-02 15:04:05 -07:00"

// BOOKED_AT_FORMAT is the booking timestamp format embedded in QR payloads.
const BOOKED_AT_FORMAT = "2006-01-02 15:04:05"

// QR_DATE_SENTINEL replaces the event date in QR payloads when none is set.
const QR_DATE_SENTINEL = "Not scheduled"

// QRRenderTimeout bounds the synchronous QR render on the booking path.
// A render exceeding it fails the whole booking.
const QRRenderTimeout = 10 * time.Second

func MediaDir() string {
	dir := os.Getenv("MEDIA_DIR")
	if dir == "" {
		dir = "media"
	}
	return dir
}

func JWTSecret() []byte {
	return []byte(os.Getenv("JWT_SECRET"))
}
