package models

import (
	"time"

	"github.com/google/uuid"
)

// Country is a selectable country
type Country struct {
	ID          uuid.UUID  `json:"id" db:"id"`
	Name        string     `json:"name" db:"name"`
	CountryCode string     `json:"country_code" db:"country_code"`
	IsActive    bool       `json:"is_active" db:"is_active"`
	CreatedBy   *uuid.UUID `json:"created_by,omitempty" db:"created_by"`
	CreatedAt   time.Time  `json:"created_at" db:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at" db:"updated_at"`
}

// TableName returns the table name for the Country model
func (Country) TableName() string {
	return "countries"
}

// NewCountry creates a new active Country
func NewCountry(name, code string) *Country {
	now := time.Now()
	return &Country{
		ID:          uuid.New(),
		Name:        name,
		CountryCode: code,
		IsActive:    true,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
}

// State belongs to a country
type State struct {
	ID            uuid.UUID  `json:"id" db:"id"`
	CountryID     uuid.UUID  `json:"country_id" db:"country_id"`
	Name          string     `json:"name" db:"name"`
	StateCode     string     `json:"state_code" db:"state_code"`
	IsTerritorial bool       `json:"is_territorial" db:"is_territorial"`
	IsActive      bool       `json:"is_active" db:"is_active"`
	CreatedBy     *uuid.UUID `json:"created_by,omitempty" db:"created_by"`
	CreatedAt     time.Time  `json:"created_at" db:"created_at"`
	UpdatedAt     time.Time  `json:"updated_at" db:"updated_at"`
}

// TableName returns the table name for the State model
func (State) TableName() string {
	return "states"
}

// NewState creates a new active State
func NewState(countryID uuid.UUID, name, code string) *State {
	now := time.Now()
	return &State{
		ID:        uuid.New(),
		CountryID: countryID,
		Name:      name,
		StateCode: code,
		IsActive:  true,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// City belongs to a state
type City struct {
	ID        uuid.UUID  `json:"id" db:"id"`
	StateID   uuid.UUID  `json:"state_id" db:"state_id"`
	Name      string     `json:"name" db:"name"`
	IsActive  bool       `json:"is_active" db:"is_active"`
	CreatedBy *uuid.UUID `json:"created_by,omitempty" db:"created_by"`
	CreatedAt time.Time  `json:"created_at" db:"created_at"`
	UpdatedAt time.Time  `json:"updated_at" db:"updated_at"`
}

// TableName returns the table name for the City model
func (City) TableName() string {
	return "cities"
}

// NewCity creates a new active City
func NewCity(stateID uuid.UUID, name string) *City {
	now := time.Now()
	return &City{
		ID:        uuid.New(),
		StateID:   stateID,
		Name:      name,
		IsActive:  true,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// LocationFilter narrows location listings
type LocationFilter struct {
	Search   string
	IsActive *bool
	ParentID *uuid.UUID
	Limit    int
	Offset   int
}
