package handlers

import (
	"context"
	"net/http"

	"github.com/farmersheaven/backend/middleware"
	"github.com/farmersheaven/backend/models"
	"github.com/farmersheaven/backend/permissions"
	"github.com/farmersheaven/backend/services/audit"
	"github.com/farmersheaven/backend/services/settings"
	"github.com/farmersheaven/backend/utils"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// SettingsService defines the admin settings operations exposed over HTTP
type SettingsService interface {
	ListCountries(ctx context.Context, filter models.LocationFilter) ([]*models.Country, int, error)
	GetCountry(ctx context.Context, id uuid.UUID) (*models.Country, error)
	CreateCountry(ctx context.Context, actor settings.Actor, in settings.CountryInput) (*models.Country, error)
	UpdateCountry(ctx context.Context, actor settings.Actor, id uuid.UUID, in settings.CountryInput) (*models.Country, error)

	ListStates(ctx context.Context, filter models.LocationFilter) ([]*models.State, int, error)
	GetState(ctx context.Context, id uuid.UUID) (*models.State, error)
	CreateState(ctx context.Context, actor settings.Actor, in settings.StateInput) (*models.State, error)
	UpdateState(ctx context.Context, actor settings.Actor, id uuid.UUID, in settings.StateInput) (*models.State, error)

	ListCities(ctx context.Context, filter models.LocationFilter) ([]*models.City, int, error)
	GetCity(ctx context.Context, id uuid.UUID) (*models.City, error)
	CreateCity(ctx context.Context, actor settings.Actor, in settings.CityInput) (*models.City, error)
	UpdateCity(ctx context.Context, actor settings.Actor, id uuid.UUID, in settings.CityInput) (*models.City, error)

	ListProducts(ctx context.Context, filter models.ProductFilter) ([]*models.Product, int, error)
	GetProduct(ctx context.Context, id uuid.UUID) (*models.Product, error)
	CreateProduct(ctx context.Context, actor settings.Actor, in settings.ProductInput) (*models.Product, error)
	UpdateProduct(ctx context.Context, actor settings.Actor, id uuid.UUID, in settings.ProductInput) (*models.Product, error)
	DeleteProduct(ctx context.Context, actor settings.Actor, id uuid.UUID) error

	Dropdown(ctx context.Context, parentID *uuid.UUID) ([]*models.DynamicSetting, error)
}

// SettingsHandler handles the admin settings endpoints
type SettingsHandler struct {
	settings SettingsService
	objects  ObjectChecker
	logger   *zap.Logger
}

// NewSettingsHandler creates a new SettingsHandler. objects may be nil.
func NewSettingsHandler(settings SettingsService, objects ObjectChecker, logger *zap.Logger) *SettingsHandler {
	return &SettingsHandler{
		settings: settings,
		objects:  objects,
		logger:   logger,
	}
}

func settingsActor(r *http.Request) settings.Actor {
	return settings.Actor{
		ID:   middleware.GetPrincipalFromContext(r.Context()).ID,
		Meta: audit.MetaFromRequest(r),
	}
}

// locationFilter reads search, is_active, the parent query parameter and the page
func locationFilter(w http.ResponseWriter, r *http.Request, parent string) (models.LocationFilter, utils.Page, bool) {
	page := utils.ParsePage(r)
	filter := models.LocationFilter{
		Search:   r.URL.Query().Get("search"),
		IsActive: utils.ParseBool(r, "is_active"),
		Limit:    page.Limit(),
		Offset:   page.Offset(),
	}
	if parent != "" {
		id, err := utils.ParseOptionalUUID(r.URL.Query().Get(parent), parent)
		if err != nil {
			_ = utils.WriteBadRequest(w, err.Error(), nil)
			return filter, page, false
		}
		filter.ParentID = id
	}
	return filter, page, true
}

// HandleListCountries handles GET /admin/countries
func (h *SettingsHandler) HandleListCountries(w http.ResponseWriter, r *http.Request) {
	filter, page, ok := locationFilter(w, r, "")
	if !ok {
		return
	}
	items, total, err := h.settings.ListCountries(r.Context(), filter)
	if err != nil {
		HandleServiceError(w, err, h.logger)
		return
	}
	_ = utils.WritePage(w, page, total, items)
}

// HandleGetCountry handles GET /admin/countries/{id}
func (h *SettingsHandler) HandleGetCountry(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	item, ok := loadObject(w, r, h.objects, h.logger, permissions.ResourceSettings, permissions.ActionCountry, id, h.settings.GetCountry)
	if !ok {
		return
	}
	_ = utils.WriteOK(w, item)
}

// HandleCreateCountry handles POST /admin/countries
func (h *SettingsHandler) HandleCreateCountry(w http.ResponseWriter, r *http.Request) {
	var req settings.CountryInput
	if !decodeAndValidate(w, r, &req, h.logger) {
		return
	}
	item, err := h.settings.CreateCountry(r.Context(), settingsActor(r), req)
	if err != nil {
		HandleServiceError(w, err, h.logger)
		return
	}
	_ = utils.WriteCreated(w, item)
}

// HandleUpdateCountry handles PUT /admin/countries/{id}
func (h *SettingsHandler) HandleUpdateCountry(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	var req settings.CountryInput
	if !decodeAndValidate(w, r, &req, h.logger) {
		return
	}
	if _, ok := loadObject(w, r, h.objects, h.logger, permissions.ResourceSettings, permissions.ActionCountry, id, h.settings.GetCountry); !ok {
		return
	}
	item, err := h.settings.UpdateCountry(r.Context(), settingsActor(r), id, req)
	if err != nil {
		HandleServiceError(w, err, h.logger)
		return
	}
	_ = utils.WriteOK(w, item)
}

// HandleListStates handles GET /admin/states?country_id=
func (h *SettingsHandler) HandleListStates(w http.ResponseWriter, r *http.Request) {
	filter, page, ok := locationFilter(w, r, "country_id")
	if !ok {
		return
	}
	items, total, err := h.settings.ListStates(r.Context(), filter)
	if err != nil {
		HandleServiceError(w, err, h.logger)
		return
	}
	_ = utils.WritePage(w, page, total, items)
}

// HandleGetState handles GET /admin/states/{id}
func (h *SettingsHandler) HandleGetState(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	item, ok := loadObject(w, r, h.objects, h.logger, permissions.ResourceSettings, permissions.ActionState, id, h.settings.GetState)
	if !ok {
		return
	}
	_ = utils.WriteOK(w, item)
}

// HandleCreateState handles POST /admin/states
func (h *SettingsHandler) HandleCreateState(w http.ResponseWriter, r *http.Request) {
	var req settings.StateInput
	if !decodeAndValidate(w, r, &req, h.logger) {
		return
	}
	item, err := h.settings.CreateState(r.Context(), settingsActor(r), req)
	if err != nil {
		HandleServiceError(w, err, h.logger)
		return
	}
	_ = utils.WriteCreated(w, item)
}

// HandleUpdateState handles PUT /admin/states/{id}
func (h *SettingsHandler) HandleUpdateState(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	var req settings.StateInput
	if !decodeAndValidate(w, r, &req, h.logger) {
		return
	}
	if _, ok := loadObject(w, r, h.objects, h.logger, permissions.ResourceSettings, permissions.ActionState, id, h.settings.GetState); !ok {
		return
	}
	item, err := h.settings.UpdateState(r.Context(), settingsActor(r), id, req)
	if err != nil {
		HandleServiceError(w, err, h.logger)
		return
	}
	_ = utils.WriteOK(w, item)
}

// HandleListCities handles GET /admin/cities?state_id=
func (h *SettingsHandler) HandleListCities(w http.ResponseWriter, r *http.Request) {
	filter, page, ok := locationFilter(w, r, "state_id")
	if !ok {
		return
	}
	items, total, err := h.settings.ListCities(r.Context(), filter)
	if err != nil {
		HandleServiceError(w, err, h.logger)
		return
	}
	_ = utils.WritePage(w, page, total, items)
}

// HandleGetCity handles GET /admin/cities/{id}
func (h *SettingsHandler) HandleGetCity(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	item, ok := loadObject(w, r, h.objects, h.logger, permissions.ResourceSettings, permissions.ActionCity, id, h.settings.GetCity)
	if !ok {
		return
	}
	_ = utils.WriteOK(w, item)
}

// HandleCreateCity handles POST /admin/cities
func (h *SettingsHandler) HandleCreateCity(w http.ResponseWriter, r *http.Request) {
	var req settings.CityInput
	if !decodeAndValidate(w, r, &req, h.logger) {
		return
	}
	item, err := h.settings.CreateCity(r.Context(), settingsActor(r), req)
	if err != nil {
		HandleServiceError(w, err, h.logger)
		return
	}
	_ = utils.WriteCreated(w, item)
}

// HandleUpdateCity handles PUT /admin/cities/{id}
func (h *SettingsHandler) HandleUpdateCity(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	var req settings.CityInput
	if !decodeAndValidate(w, r, &req, h.logger) {
		return
	}
	if _, ok := loadObject(w, r, h.objects, h.logger, permissions.ResourceSettings, permissions.ActionCity, id, h.settings.GetCity); !ok {
		return
	}
	item, err := h.settings.UpdateCity(r.Context(), settingsActor(r), id, req)
	if err != nil {
		HandleServiceError(w, err, h.logger)
		return
	}
	_ = utils.WriteOK(w, item)
}

// HandleListProducts handles GET /admin/products?category_id=
func (h *SettingsHandler) HandleListProducts(w http.ResponseWriter, r *http.Request) {
	page := utils.ParsePage(r)
	category, err := utils.ParseOptionalUUID(r.URL.Query().Get("category_id"), "category_id")
	if err != nil {
		_ = utils.WriteBadRequest(w, err.Error(), nil)
		return
	}

	items, total, err := h.settings.ListProducts(r.Context(), models.ProductFilter{
		Search:     r.URL.Query().Get("search"),
		IsActive:   utils.ParseBool(r, "is_active"),
		CategoryID: category,
		Limit:      page.Limit(),
		Offset:     page.Offset(),
	})
	if err != nil {
		HandleServiceError(w, err, h.logger)
		return
	}
	_ = utils.WritePage(w, page, total, items)
}

// HandleGetProduct handles GET /admin/products/{id}
func (h *SettingsHandler) HandleGetProduct(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	item, ok := loadObject(w, r, h.objects, h.logger, permissions.ResourceSettings, permissions.ActionProducts, id, h.settings.GetProduct)
	if !ok {
		return
	}
	_ = utils.WriteOK(w, item)
}

// HandleCreateProduct handles POST /admin/products
func (h *SettingsHandler) HandleCreateProduct(w http.ResponseWriter, r *http.Request) {
	var req settings.ProductInput
	if !decodeAndValidate(w, r, &req, h.logger) {
		return
	}
	item, err := h.settings.CreateProduct(r.Context(), settingsActor(r), req)
	if err != nil {
		HandleServiceError(w, err, h.logger)
		return
	}
	_ = utils.WriteCreated(w, item)
}

// HandleUpdateProduct handles PUT /admin/products/{id}
func (h *SettingsHandler) HandleUpdateProduct(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	var req settings.ProductInput
	if !decodeAndValidate(w, r, &req, h.logger) {
		return
	}
	if _, ok := loadObject(w, r, h.objects, h.logger, permissions.ResourceSettings, permissions.ActionProducts, id, h.settings.GetProduct); !ok {
		return
	}
	item, err := h.settings.UpdateProduct(r.Context(), settingsActor(r), id, req)
	if err != nil {
		HandleServiceError(w, err, h.logger)
		return
	}
	_ = utils.WriteOK(w, item)
}

// HandleDeleteProduct handles DELETE /admin/products/{id}
func (h *SettingsHandler) HandleDeleteProduct(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	if _, ok := loadObject(w, r, h.objects, h.logger, permissions.ResourceSettings, permissions.ActionProducts, id, h.settings.GetProduct); !ok {
		return
	}
	if err := h.settings.DeleteProduct(r.Context(), settingsActor(r), id); err != nil {
		HandleServiceError(w, err, h.logger)
		return
	}
	utils.WriteNoContent(w)
}

// HandleDropdown handles GET /admin/dropdown?parent_id= and the settings listing
func (h *SettingsHandler) HandleDropdown(w http.ResponseWriter, r *http.Request) {
	parent, err := utils.ParseOptionalUUID(r.URL.Query().Get("parent_id"), "parent_id")
	if err != nil {
		_ = utils.WriteBadRequest(w, err.Error(), nil)
		return
	}
	items, err := h.settings.Dropdown(r.Context(), parent)
	if err != nil {
		HandleServiceError(w, err, h.logger)
		return
	}
	_ = utils.WriteOK(w, items)
}
