package models

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

// User represents an account that can sign in with a password or an OTP
type User struct {
	ID           uuid.UUID  `json:"id" db:"id"`
	Username     string     `json:"username" db:"username"`
	Email        string     `json:"email" db:"email"`
	Mobile       string     `json:"mobile" db:"mobile"`
	FirstName    string     `json:"first_name" db:"first_name"`
	MiddleName   string     `json:"middle_name" db:"middle_name"`
	LastName     string     `json:"last_name" db:"last_name"`
	PasswordHash string     `json:"-" db:"password_hash"`
	IsSuperUser  bool       `json:"is_superuser" db:"is_superuser"`
	IsStaff      bool       `json:"is_staff" db:"is_staff"`
	IsActive     bool       `json:"is_active" db:"is_active"`
	IsSeparated  bool       `json:"is_separated" db:"is_separated"`
	DateJoined   time.Time  `json:"date_joined" db:"date_joined"`
	LastLogin    *time.Time `json:"last_login,omitempty" db:"last_login"`
	UpdatedAt    time.Time  `json:"updated_at" db:"updated_at"`
}

// TableName returns the table name for the User model
func (User) TableName() string {
	return "users"
}

// NewUser creates a new active User
func NewUser(username, email, mobile string) *User {
	now := time.Now()
	return &User{
		ID:         uuid.New(),
		Username:   username,
		Email:      strings.ToLower(email),
		Mobile:     mobile,
		IsActive:   true,
		DateJoined: now,
		UpdatedAt:  now,
	}
}

// FullName joins the non-empty name parts
func (u *User) FullName() string {
	parts := make([]string, 0, 3)
	for _, p := range []string{u.FirstName, u.MiddleName, u.LastName} {
		if p = strings.TrimSpace(p); p != "" {
			parts = append(parts, p)
		}
	}
	return strings.Join(parts, " ")
}

// CanSignIn reports whether the account may authenticate
func (u *User) CanSignIn() bool {
	return u.IsActive && !u.IsSeparated
}

// PrincipalID identifies the user as a permission target
func (u *User) PrincipalID() string {
	if u == nil {
		return ""
	}
	return u.ID.String()
}

// OwnerID reports the user as owner of its own record
func (u *User) OwnerID() string {
	return u.PrincipalID()
}

// UserClone is the snapshot of a user returned to clients after sign in
type UserClone struct {
	ID         uuid.UUID `json:"id"`
	Username   string    `json:"username"`
	Email      string    `json:"email"`
	Mobile     string    `json:"mobile"`
	FullName   string    `json:"full_name"`
	IsAdmin    bool      `json:"is_admin"`
	IsStaff    bool      `json:"is_staff"`
	DateJoined time.Time `json:"date_joined"`
}

// Clone builds the client snapshot of the user
func (u *User) Clone() UserClone {
	return UserClone{
		ID:         u.ID,
		Username:   u.Username,
		Email:      u.Email,
		Mobile:     u.Mobile,
		FullName:   u.FullName(),
		IsAdmin:    u.IsSuperUser,
		IsStaff:    u.IsStaff,
		DateJoined: u.DateJoined,
	}
}
