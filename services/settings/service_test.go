package settings

import (
	"context"
	"errors"
	"testing"

	"github.com/farmersheaven/backend/models"
	"github.com/farmersheaven/backend/repositories"
	"github.com/farmersheaven/backend/services"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type MockLocationRepository struct {
	mock.Mock
}

func (m *MockLocationRepository) CreateCountry(ctx context.Context, c *models.Country) error {
	return m.Called(ctx, c).Error(0)
}

func (m *MockLocationRepository) GetCountry(ctx context.Context, id uuid.UUID) (*models.Country, error) {
	args := m.Called(ctx, id)
	c, _ := args.Get(0).(*models.Country)
	return c, args.Error(1)
}

func (m *MockLocationRepository) ListCountries(ctx context.Context, filter models.LocationFilter) ([]*models.Country, int, error) {
	args := m.Called(ctx, filter)
	items, _ := args.Get(0).([]*models.Country)
	return items, args.Int(1), args.Error(2)
}

func (m *MockLocationRepository) UpdateCountry(ctx context.Context, c *models.Country) error {
	return m.Called(ctx, c).Error(0)
}

func (m *MockLocationRepository) CreateState(ctx context.Context, s *models.State) error {
	return m.Called(ctx, s).Error(0)
}

func (m *MockLocationRepository) GetState(ctx context.Context, id uuid.UUID) (*models.State, error) {
	args := m.Called(ctx, id)
	s, _ := args.Get(0).(*models.State)
	return s, args.Error(1)
}

func (m *MockLocationRepository) ListStates(ctx context.Context, filter models.LocationFilter) ([]*models.State, int, error) {
	args := m.Called(ctx, filter)
	items, _ := args.Get(0).([]*models.State)
	return items, args.Int(1), args.Error(2)
}

func (m *MockLocationRepository) UpdateState(ctx context.Context, s *models.State) error {
	return m.Called(ctx, s).Error(0)
}

func (m *MockLocationRepository) CreateCity(ctx context.Context, c *models.City) error {
	return m.Called(ctx, c).Error(0)
}

func (m *MockLocationRepository) GetCity(ctx context.Context, id uuid.UUID) (*models.City, error) {
	args := m.Called(ctx, id)
	c, _ := args.Get(0).(*models.City)
	return c, args.Error(1)
}

func (m *MockLocationRepository) ListCities(ctx context.Context, filter models.LocationFilter) ([]*models.City, int, error) {
	args := m.Called(ctx, filter)
	items, _ := args.Get(0).([]*models.City)
	return items, args.Int(1), args.Error(2)
}

func (m *MockLocationRepository) UpdateCity(ctx context.Context, c *models.City) error {
	return m.Called(ctx, c).Error(0)
}

func (m *MockLocationRepository) WithTx(tx repositories.Transaction) repositories.LocationRepository {
	return m
}

type MockProductRepository struct {
	mock.Mock
}

func (m *MockProductRepository) Create(ctx context.Context, p *models.Product) error {
	return m.Called(ctx, p).Error(0)
}

func (m *MockProductRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.Product, error) {
	args := m.Called(ctx, id)
	p, _ := args.Get(0).(*models.Product)
	return p, args.Error(1)
}

func (m *MockProductRepository) List(ctx context.Context, filter models.ProductFilter) ([]*models.Product, int, error) {
	args := m.Called(ctx, filter)
	items, _ := args.Get(0).([]*models.Product)
	return items, args.Int(1), args.Error(2)
}

func (m *MockProductRepository) Update(ctx context.Context, p *models.Product) error {
	return m.Called(ctx, p).Error(0)
}

func (m *MockProductRepository) Delete(ctx context.Context, id uuid.UUID) error {
	return m.Called(ctx, id).Error(0)
}

func (m *MockProductRepository) ListActiveSettings(ctx context.Context, parentID *uuid.UUID) ([]*models.DynamicSetting, error) {
	args := m.Called(ctx, parentID)
	items, _ := args.Get(0).([]*models.DynamicSetting)
	return items, args.Error(1)
}

func (m *MockProductRepository) WithTx(tx repositories.Transaction) repositories.ProductRepository {
	return m
}

func newTestService() (*Service, *MockLocationRepository, *MockProductRepository) {
	locations := new(MockLocationRepository)
	products := new(MockProductRepository)
	return NewService(locations, products, nil, zap.NewNop()), locations, products
}

var ctx = context.Background()

func TestCountries(t *testing.T) {
	svc, locations, _ := newTestService()
	actor := Actor{ID: uuid.NewString()}

	locations.On("CreateCountry", ctx, mock.MatchedBy(func(c *models.Country) bool {
		return c.Name == "India" && c.CountryCode == "IN" && c.CreatedBy != nil && c.IsActive
	})).Return(nil)

	c, err := svc.CreateCountry(ctx, actor, CountryInput{Name: " India ", CountryCode: "in"})
	require.NoError(t, err)
	assert.Equal(t, "IN", c.CountryCode)

	inactive := false
	locations.On("GetCountry", ctx, c.ID).Return(c, nil)
	locations.On("UpdateCountry", ctx, c).Return(nil)
	updated, err := svc.UpdateCountry(ctx, actor, c.ID, CountryInput{Name: "Bharat", CountryCode: "IN", IsActive: &inactive})
	require.NoError(t, err)
	assert.Equal(t, "Bharat", updated.Name)
	assert.False(t, updated.IsActive)

	missing := uuid.New()
	locations.On("GetCountry", ctx, missing).Return(nil, repositories.ErrNotFound)
	_, err = svc.GetCountry(ctx, missing)
	assert.ErrorIs(t, err, services.ErrCountryNotFound)

	filter := models.LocationFilter{Search: "ind", Limit: 10}
	locations.On("ListCountries", ctx, filter).Return([]*models.Country{c}, 1, nil)
	items, total, err := svc.ListCountries(ctx, filter)
	require.NoError(t, err)
	assert.Equal(t, 1, total)
	assert.Len(t, items, 1)
}

func TestCreateCountry_Duplicate(t *testing.T) {
	svc, locations, _ := newTestService()
	locations.On("CreateCountry", ctx, mock.Anything).Return(repositories.ErrDuplicate)

	_, err := svc.CreateCountry(ctx, Actor{}, CountryInput{Name: "India", CountryCode: "IN"})
	assert.True(t, services.IsConflictError(err))
}

func TestStatesRequireCountry(t *testing.T) {
	svc, locations, _ := newTestService()
	country := models.NewCountry("India", "IN")
	locations.On("GetCountry", ctx, country.ID).Return(country, nil)
	unknown := uuid.New()
	locations.On("GetCountry", ctx, unknown).Return(nil, repositories.ErrNotFound)
	locations.On("CreateState", ctx, mock.AnythingOfType("*models.State")).Return(nil)

	st, err := svc.CreateState(ctx, Actor{}, StateInput{CountryID: country.ID.String(), Name: "Kerala", StateCode: "KL"})
	require.NoError(t, err)
	assert.Equal(t, country.ID, st.CountryID)
	assert.Nil(t, st.CreatedBy)

	_, err = svc.CreateState(ctx, Actor{}, StateInput{CountryID: unknown.String(), Name: "Nowhere"})
	assert.True(t, services.IsValidationError(err))

	_, err = svc.CreateState(ctx, Actor{}, StateInput{CountryID: "nope", Name: "Nowhere"})
	assert.True(t, services.IsValidationError(err))
}

func TestCitiesRequireState(t *testing.T) {
	svc, locations, _ := newTestService()
	state := models.NewState(uuid.New(), "Kerala", "KL")
	locations.On("GetState", ctx, state.ID).Return(state, nil)
	locations.On("CreateCity", ctx, mock.AnythingOfType("*models.City")).Return(nil)

	city, err := svc.CreateCity(ctx, Actor{}, CityInput{StateID: state.ID.String(), Name: "Kochi"})
	require.NoError(t, err)
	assert.Equal(t, state.ID, city.StateID)

	locations.On("GetCity", ctx, city.ID).Return(city, nil)
	locations.On("UpdateCity", ctx, city).Return(errors.New("deadlock"))
	_, err = svc.UpdateCity(ctx, Actor{}, city.ID, CityInput{StateID: state.ID.String(), Name: "Cochin"})
	assert.True(t, services.IsInternalError(err))
}

func TestProducts(t *testing.T) {
	svc, _, products := newTestService()
	category := uuid.NewString()

	products.On("Create", ctx, mock.AnythingOfType("*models.Product")).Return(nil)
	p, err := svc.CreateProduct(ctx, Actor{}, ProductInput{
		Name:       "Mango seeds",
		Price:      12.5,
		Stock:      40,
		CategoryID: &category,
		Images:     []string{"https://cdn.example/mango.png"},
	})
	require.NoError(t, err)
	require.NotNil(t, p.CategoryID)
	assert.Equal(t, category, p.CategoryID.String())
	assert.True(t, p.InStock())

	bad := "x"
	_, err = svc.CreateProduct(ctx, Actor{}, ProductInput{Name: "Bad", CategoryID: &bad})
	assert.True(t, services.IsValidationError(err))

	products.On("GetByID", ctx, p.ID).Return(p, nil)
	products.On("Update", ctx, p).Return(nil)
	updated, err := svc.UpdateProduct(ctx, Actor{}, p.ID, ProductInput{Name: "Mango seeds", Price: 10, Stock: 0})
	require.NoError(t, err)
	assert.Nil(t, updated.CategoryID)
	assert.Empty(t, updated.Images)
	assert.False(t, updated.InStock())

	products.On("Delete", ctx, p.ID).Return(nil)
	require.NoError(t, svc.DeleteProduct(ctx, Actor{}, p.ID))

	missing := uuid.New()
	products.On("GetByID", ctx, missing).Return(nil, repositories.ErrNotFound)
	assert.ErrorIs(t, svc.DeleteProduct(ctx, Actor{}, missing), services.ErrProductNotFound)
}

func TestDropdown(t *testing.T) {
	svc, _, products := newTestService()
	parent := uuid.New()
	products.On("ListActiveSettings", ctx, (*uuid.UUID)(nil)).Return([]*models.DynamicSetting{{Name: "Crops"}}, nil)
	products.On("ListActiveSettings", ctx, &parent).Return(nil, errors.New("timeout"))

	items, err := svc.Dropdown(ctx, nil)
	require.NoError(t, err)
	assert.Equal(t, "Crops", items[0].Name)

	_, err = svc.Dropdown(ctx, &parent)
	assert.True(t, services.IsInternalError(err))
}
