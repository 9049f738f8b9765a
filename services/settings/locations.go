package settings

import (
	"context"
	"strings"

	"github.com/farmersheaven/backend/models"
	"github.com/farmersheaven/backend/services"
	"github.com/google/uuid"
)

// CountryInput holds the writable fields of a country
type CountryInput struct {
	Name        string `json:"name" validate:"required,max=100"`
	CountryCode string `json:"country_code" validate:"required,max=10"`
	IsActive    *bool  `json:"is_active"`
}

// StateInput holds the writable fields of a state
type StateInput struct {
	CountryID     string `json:"country_id" validate:"required,uuid"`
	Name          string `json:"name" validate:"required,max=100"`
	StateCode     string `json:"state_code" validate:"max=10"`
	IsTerritorial bool   `json:"is_territorial"`
	IsActive      *bool  `json:"is_active"`
}

// CityInput holds the writable fields of a city
type CityInput struct {
	StateID  string `json:"state_id" validate:"required,uuid"`
	Name     string `json:"name" validate:"required,max=100"`
	IsActive *bool  `json:"is_active"`
}

// ListCountries returns a page of countries and the total count
func (s *Service) ListCountries(ctx context.Context, filter models.LocationFilter) ([]*models.Country, int, error) {
	items, total, err := s.locations.ListCountries(ctx, filter)
	if err != nil {
		return nil, 0, services.WrapInternal("failed to list countries", err)
	}
	return items, total, nil
}

// GetCountry returns a country by id
func (s *Service) GetCountry(ctx context.Context, id uuid.UUID) (*models.Country, error) {
	c, err := s.locations.GetCountry(ctx, id)
	if err != nil {
		return nil, translate(err, services.ErrCountryNotFound, "get country")
	}
	return c, nil
}

// CreateCountry creates a country
func (s *Service) CreateCountry(ctx context.Context, actor Actor, in CountryInput) (*models.Country, error) {
	c := models.NewCountry(strings.TrimSpace(in.Name), strings.ToUpper(strings.TrimSpace(in.CountryCode)))
	if in.IsActive != nil {
		c.IsActive = *in.IsActive
	}
	c.CreatedBy = actor.createdBy()

	if err := s.locations.CreateCountry(ctx, c); err != nil {
		return nil, translate(err, services.ErrCountryNotFound, "create country")
	}
	s.activity.Changed(actor.Meta, actor.ID, models.ActivityCreate, "countries", "country", c.ID.String(), nil, c)
	return c, nil
}

// UpdateCountry replaces the writable fields of a country
func (s *Service) UpdateCountry(ctx context.Context, actor Actor, id uuid.UUID, in CountryInput) (*models.Country, error) {
	c, err := s.GetCountry(ctx, id)
	if err != nil {
		return nil, err
	}
	previous := *c

	c.Name = strings.TrimSpace(in.Name)
	c.CountryCode = strings.ToUpper(strings.TrimSpace(in.CountryCode))
	if in.IsActive != nil {
		c.IsActive = *in.IsActive
	}

	if err := s.locations.UpdateCountry(ctx, c); err != nil {
		return nil, translate(err, services.ErrCountryNotFound, "update country")
	}
	s.activity.Changed(actor.Meta, actor.ID, models.ActivityUpdate, "countries", "country", c.ID.String(), &previous, c)
	return c, nil
}

// ListStates returns a page of states and the total count
func (s *Service) ListStates(ctx context.Context, filter models.LocationFilter) ([]*models.State, int, error) {
	items, total, err := s.locations.ListStates(ctx, filter)
	if err != nil {
		return nil, 0, services.WrapInternal("failed to list states", err)
	}
	return items, total, nil
}

// GetState returns a state by id
func (s *Service) GetState(ctx context.Context, id uuid.UUID) (*models.State, error) {
	st, err := s.locations.GetState(ctx, id)
	if err != nil {
		return nil, translate(err, services.ErrStateNotFound, "get state")
	}
	return st, nil
}

// CreateState creates a state inside an existing country
func (s *Service) CreateState(ctx context.Context, actor Actor, in StateInput) (*models.State, error) {
	countryID, err := s.parentCountry(ctx, in.CountryID)
	if err != nil {
		return nil, err
	}

	st := models.NewState(countryID, strings.TrimSpace(in.Name), strings.TrimSpace(in.StateCode))
	st.IsTerritorial = in.IsTerritorial
	if in.IsActive != nil {
		st.IsActive = *in.IsActive
	}
	st.CreatedBy = actor.createdBy()

	if err := s.locations.CreateState(ctx, st); err != nil {
		return nil, translate(err, services.ErrStateNotFound, "create state")
	}
	s.activity.Changed(actor.Meta, actor.ID, models.ActivityCreate, "states", "state", st.ID.String(), nil, st)
	return st, nil
}

// UpdateState replaces the writable fields of a state
func (s *Service) UpdateState(ctx context.Context, actor Actor, id uuid.UUID, in StateInput) (*models.State, error) {
	st, err := s.GetState(ctx, id)
	if err != nil {
		return nil, err
	}
	countryID, err := s.parentCountry(ctx, in.CountryID)
	if err != nil {
		return nil, err
	}
	previous := *st

	st.CountryID = countryID
	st.Name = strings.TrimSpace(in.Name)
	st.StateCode = strings.TrimSpace(in.StateCode)
	st.IsTerritorial = in.IsTerritorial
	if in.IsActive != nil {
		st.IsActive = *in.IsActive
	}

	if err := s.locations.UpdateState(ctx, st); err != nil {
		return nil, translate(err, services.ErrStateNotFound, "update state")
	}
	s.activity.Changed(actor.Meta, actor.ID, models.ActivityUpdate, "states", "state", st.ID.String(), &previous, st)
	return st, nil
}

// ListCities returns a page of cities and the total count
func (s *Service) ListCities(ctx context.Context, filter models.LocationFilter) ([]*models.City, int, error) {
	items, total, err := s.locations.ListCities(ctx, filter)
	if err != nil {
		return nil, 0, services.WrapInternal("failed to list cities", err)
	}
	return items, total, nil
}

// GetCity returns a city by id
func (s *Service) GetCity(ctx context.Context, id uuid.UUID) (*models.City, error) {
	c, err := s.locations.GetCity(ctx, id)
	if err != nil {
		return nil, translate(err, services.ErrCityNotFound, "get city")
	}
	return c, nil
}

// CreateCity creates a city inside an existing state
func (s *Service) CreateCity(ctx context.Context, actor Actor, in CityInput) (*models.City, error) {
	stateID, err := s.parentState(ctx, in.StateID)
	if err != nil {
		return nil, err
	}

	c := models.NewCity(stateID, strings.TrimSpace(in.Name))
	if in.IsActive != nil {
		c.IsActive = *in.IsActive
	}
	c.CreatedBy = actor.createdBy()

	if err := s.locations.CreateCity(ctx, c); err != nil {
		return nil, translate(err, services.ErrCityNotFound, "create city")
	}
	s.activity.Changed(actor.Meta, actor.ID, models.ActivityCreate, "cities", "city", c.ID.String(), nil, c)
	return c, nil
}

// UpdateCity replaces the writable fields of a city
func (s *Service) UpdateCity(ctx context.Context, actor Actor, id uuid.UUID, in CityInput) (*models.City, error) {
	c, err := s.GetCity(ctx, id)
	if err != nil {
		return nil, err
	}
	stateID, err := s.parentState(ctx, in.StateID)
	if err != nil {
		return nil, err
	}
	previous := *c

	c.StateID = stateID
	c.Name = strings.TrimSpace(in.Name)
	if in.IsActive != nil {
		c.IsActive = *in.IsActive
	}

	if err := s.locations.UpdateCity(ctx, c); err != nil {
		return nil, translate(err, services.ErrCityNotFound, "update city")
	}
	s.activity.Changed(actor.Meta, actor.ID, models.ActivityUpdate, "cities", "city", c.ID.String(), &previous, c)
	return c, nil
}

func (s *Service) parentCountry(ctx context.Context, raw string) (uuid.UUID, error) {
	id, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, services.Validation("country_id must be a valid UUID")
	}
	if _, err := s.GetCountry(ctx, id); err != nil {
		if services.IsNotFoundError(err) {
			return uuid.Nil, services.Validation("country does not exist")
		}
		return uuid.Nil, err
	}
	return id, nil
}

func (s *Service) parentState(ctx context.Context, raw string) (uuid.UUID, error) {
	id, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, services.Validation("state_id must be a valid UUID")
	}
	if _, err := s.GetState(ctx, id); err != nil {
		if services.IsNotFoundError(err) {
			return uuid.Nil, services.Validation("state does not exist")
		}
		return uuid.Nil, err
	}
	return id, nil
}
