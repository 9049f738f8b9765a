package models

import (
	"time"

	"github.com/google/uuid"
)

// OTP defaults
const (
	DefaultOTPCounter    = 25
	DefaultResendCounter = 25
	OTPValidity          = 15 * time.Minute
)

// OTPLogin tracks one-time passwords issued to a mobile number
type OTPLogin struct {
	ID            uuid.UUID `json:"id" db:"id"`
	Mobile        string    `json:"mobile" db:"mobile"`
	OTP           string    `json:"-" db:"otp"`
	Counter       int       `json:"counter" db:"counter"`
	ResendCounter int       `json:"resend_counter" db:"resend_counter"`
	IsActive      bool      `json:"is_active" db:"is_active"`
	CreatedAt     time.Time `json:"created_at" db:"created_at"`
	UpdatedAt     time.Time `json:"updated_at" db:"updated_at"`
}

// TableName returns the table name for the OTPLogin model
func (OTPLogin) TableName() string {
	return "otp_logins"
}

// NewOTPLogin creates a fresh record with full daily counters
func NewOTPLogin(mobile, otp string) *OTPLogin {
	now := time.Now()
	return &OTPLogin{
		ID:            uuid.New(),
		Mobile:        mobile,
		OTP:           otp,
		Counter:       DefaultOTPCounter,
		ResendCounter: DefaultResendCounter,
		IsActive:      true,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
}

// Expired reports whether the code is older than validity at now
func (o *OTPLogin) Expired(now time.Time, validity time.Duration) bool {
	return now.Sub(o.UpdatedAt) > validity
}

// IssuedOn reports whether the record was last touched on the same calendar day as now
func (o *OTPLogin) IssuedOn(now time.Time) bool {
	y1, m1, d1 := o.UpdatedAt.In(now.Location()).Date()
	y2, m2, d2 := now.Date()
	return y1 == y2 && m1 == m2 && d1 == d2
}
