package model

import (
	"fmt"
	"time"
)

// DeviceToken is a user's registered FCM token. A user may have several devices.
type DeviceToken struct {
	ID        int64     `db:"id" json:"id"`
	UserID    int64     `db:"user_id" json:"-"`
	Token     string    `db:"token" json:"-"`
	Platform  string    `db:"platform" json:"platform"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
	UpdatedAt time.Time `db:"updated_at" json:"updated_at"`
}

// RegisterTokenRequest is the request body for registering a device token.
type RegisterTokenRequest struct {
	Token    string `json:"token"`
	Platform string `json:"platform"`
}

// Platform constants
const (
	PlatformIOS     = "ios"
	PlatformAndroid = "android"
)

var (
	ErrDeviceTokenRequired = fmt.Errorf("device token is required: %w", ErrInvalidInput)
	ErrUnknownPlatform     = fmt.Errorf("platform must be ios or android: %w", ErrInvalidInput)
)
