package models

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// ActivityAction represents the kind of recorded activity
type ActivityAction string

const (
	ActivityCreate        ActivityAction = "create"
	ActivityUpdate        ActivityAction = "update"
	ActivityDelete        ActivityAction = "delete"
	ActivityLogin         ActivityAction = "login"
	ActivityLoginFailed   ActivityAction = "login_failed"
	ActivityPasswordReset ActivityAction = "password_reset"
	ActivityAccessDenied  ActivityAction = "access_denied"
	ActivityMisconfigured ActivityAction = "policy_misconfigured"
)

// Activity categories
const (
	CategoryAccounts  = "accounts"
	CategorySettings  = "settings"
	CategoryDocuments = "documents"
	CategorySecurity  = "security"
)

// ActivityLog is an audit trail entry
type ActivityLog struct {
	ID           uuid.UUID       `json:"id" db:"id"`
	RecordBy     *uuid.UUID      `json:"record_by,omitempty" db:"record_by"`
	UserID       *uuid.UUID      `json:"user_id,omitempty" db:"user_id"`
	Category     string          `json:"category" db:"category"`
	SubCategory  string          `json:"sub_category" db:"sub_category"`
	ActionType   ActivityAction  `json:"action_type" db:"action_type"`
	ActionOn     string          `json:"action_on" db:"action_on"`
	DBTable      string          `json:"db_table" db:"db_table"`
	ChangeFields []string        `json:"change_fields" db:"change_fields"`
	PreviousData json.RawMessage `json:"previous_data,omitempty" db:"previous_data"`
	NewData      json.RawMessage `json:"new_data,omitempty" db:"new_data"`
	IPAddress    string          `json:"ip_address" db:"ip_address"`
	UserAgent    string          `json:"user_agent" db:"user_agent"`
	RequestID    string          `json:"request_id" db:"request_id"`
	Timestamp    time.Time       `json:"timestamp" db:"timestamp"`
}

// TableName returns the table name for the ActivityLog model
func (ActivityLog) TableName() string {
	return "activity_logs"
}

// NewActivityLog creates a new ActivityLog instance
func NewActivityLog(category string, action ActivityAction, actionOn string) *ActivityLog {
	return &ActivityLog{
		ID:           uuid.New(),
		Category:     category,
		ActionType:   action,
		ActionOn:     actionOn,
		ChangeFields: []string{},
		Timestamp:    time.Now(),
	}
}

// OwnerID reports the user the entry is about
func (a *ActivityLog) OwnerID() string {
	if a == nil || a.UserID == nil {
		return ""
	}
	return a.UserID.String()
}

// WithRecorder sets the acting user
func (a *ActivityLog) WithRecorder(userID uuid.UUID) *ActivityLog {
	a.RecordBy = &userID
	return a
}

// WithUser sets the affected user
func (a *ActivityLog) WithUser(userID uuid.UUID) *ActivityLog {
	a.UserID = &userID
	return a
}

// WithTable sets the affected table and sub category
func (a *ActivityLog) WithTable(table, subCategory string) *ActivityLog {
	a.DBTable = table
	a.SubCategory = subCategory
	return a
}

// WithChange records the state before and after a change along with the
// names of the changed fields
func (a *ActivityLog) WithChange(previous, next interface{}, fields ...string) *ActivityLog {
	if previous != nil {
		if data, err := json.Marshal(previous); err == nil {
			a.PreviousData = data
		}
	}
	if next != nil {
		if data, err := json.Marshal(next); err == nil {
			a.NewData = data
		}
	}
	a.ChangeFields = append(a.ChangeFields, fields...)
	return a
}

// WithRequest sets request metadata
func (a *ActivityLog) WithRequest(requestID, ipAddress, userAgent string) *ActivityLog {
	a.RequestID = requestID
	a.IPAddress = ipAddress
	a.UserAgent = userAgent
	return a
}

// ActivityFilter narrows activity listings
type ActivityFilter struct {
	Category   string
	ActionType ActivityAction
	UserID     *uuid.UUID
	Since      *time.Time
	Limit      int
	Offset     int
}
