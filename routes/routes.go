package routes

import (
	"net/http"
	"time"

	"github.com/farmersheaven/backend/app"
	"github.com/farmersheaven/backend/handlers"
	"github.com/farmersheaven/backend/internal/observability"
	"github.com/farmersheaven/backend/permissions"
	"github.com/farmersheaven/backend/utils"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
)

// APIPrefix is the mount point of the versioned API
const APIPrefix = "/fh-api/v1"

// SetupRoutes configures all application routes and middleware
func SetupRoutes(deps *app.Dependencies) http.Handler {
	r := chi.NewRouter()

	// Core middleware
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(observability.RequestLogger(deps.Logger))
	r.Use(middleware.Recoverer)
	r.Use(middleware.StripSlashes)
	r.Use(middleware.Timeout(60 * time.Second))

	// CORS middleware
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   deps.Config.Server.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		ExposedHeaders:   []string{"Content-Disposition", "X-Request-ID"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	// Health check endpoints
	health := handlers.NewHealthHandler(deps.HealthChecks(), deps.Logger)
	r.Get("/healthz", health.HandleHealth)
	r.Get("/readyz", health.HandleReadiness)

	r.Route(APIPrefix, func(r chi.Router) {
		r.Use(deps.AuthMiddleware.Authenticate)

		API{
			Users:     handlers.NewUserHandler(deps.Accounts, deps.PolicyMiddleware, deps.Logger),
			Settings:  handlers.NewSettingsHandler(deps.Settings, deps.PolicyMiddleware, deps.Logger),
			Documents: handlers.NewDocumentHandler(deps.Documents, deps.PolicyMiddleware, deps.Logger),
			Activity:  handlers.NewActivityHandler(deps.Activity, deps.PolicyMiddleware, deps.Logger),
			Policies:  handlers.NewPolicyHandler(deps.Registry, deps.Logger),
			Authorize: deps.PolicyMiddleware.Authorize,
			SuperUser: deps.AuthMiddleware.RequireSuperUser,
		}.Mount(r)
	})

	// 404 handler
	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		_ = utils.WriteNotFound(w, "endpoint not found")
	})

	return r
}

// API groups the handlers mounted under APIPrefix
type API struct {
	Users     *handlers.UserHandler
	Settings  *handlers.SettingsHandler
	Documents *handlers.DocumentHandler
	Activity  *handlers.ActivityHandler
	Policies  *handlers.PolicyHandler

	// Authorize gates a route on a resource action
	Authorize func(resource, action string) func(http.Handler) http.Handler
	// SuperUser gates the registry inspection endpoints
	SuperUser func(http.Handler) http.Handler
}

// Mount registers every API route on r
func (a API) Mount(r chi.Router) {
	users := func(action string) func(http.Handler) http.Handler {
		return a.Authorize(permissions.ResourceUsers, action)
	}
	settings := func(action string) func(http.Handler) http.Handler {
		return a.Authorize(permissions.ResourceSettings, action)
	}
	docs := func(action string) func(http.Handler) http.Handler {
		return a.Authorize(permissions.ResourceDocuments, action)
	}
	activity := func(action string) func(http.Handler) http.Handler {
		return a.Authorize(permissions.ResourceActivityLogs, action)
	}

	r.With(users("login")).Post("/token/refresh", a.Users.HandleRefresh)

	r.Route("/users", func(r chi.Router) {
		r.With(users(permissions.ActionList)).Get("/", a.Users.HandleListUsers)
		r.With(users(permissions.ActionCreate)).Post("/", a.Users.HandleCreateUser)

		r.With(users("me")).Get("/me", a.Users.HandleMe)
		r.With(users("login")).Post("/login", a.Users.HandleLogin)
		r.With(users("customer_login")).Post("/customer_login", a.Users.HandleCustomerLogin)
		r.With(users("user_clone")).Get("/user_clone", a.Users.HandleUserClone)
		r.With(users("password_change")).Post("/password_change", a.Users.HandlePasswordChange)
		r.With(users("user_reset_mail")).Post("/user_reset_mail", a.Users.HandleResetMail)
		r.With(users("reset_password")).Post("/reset_password", a.Users.HandleResetPassword)
		r.With(users("send_otp")).Post("/send_otp", a.Users.HandleSendOTP)
		r.With(users("resend_otp")).Post("/resend_otp", a.Users.HandleResendOTP)
		r.With(users("verify_otp")).Post("/verify_otp", a.Users.HandleVerifyOTP)
		r.With(users("oauth_start")).Get("/oauth_start", a.Users.HandleOAuth)
		r.With(users("oauth_callback")).Get("/oauth_callback", a.Users.HandleOAuth)

		r.Route("/{id}", func(r chi.Router) {
			r.With(users(permissions.ActionRetrieve)).Get("/", a.Users.HandleGetUser)
			r.With(users(permissions.ActionUpdate)).Put("/", a.Users.HandleUpdateUser)
			r.With(users(permissions.ActionPartialUpdate)).Patch("/", a.Users.HandleUpdateUser)
			r.With(users(permissions.ActionDestroy)).Delete("/", a.Users.HandleDeleteUser)
		})
	})

	r.Route("/admin", func(r chi.Router) {
		r.With(settings(permissions.ActionList)).Get("/", a.Settings.HandleDropdown)
		r.With(settings(permissions.ActionDropdown)).Get("/dropdown", a.Settings.HandleDropdown)

		r.Route("/countries", func(r chi.Router) {
			r.Use(settings(permissions.ActionCountry))
			r.Get("/", a.Settings.HandleListCountries)
			r.Post("/", a.Settings.HandleCreateCountry)
			r.Get("/{id}", a.Settings.HandleGetCountry)
			r.Put("/{id}", a.Settings.HandleUpdateCountry)
		})
		r.Route("/states", func(r chi.Router) {
			r.Use(settings(permissions.ActionState))
			r.Get("/", a.Settings.HandleListStates)
			r.Post("/", a.Settings.HandleCreateState)
			r.Get("/{id}", a.Settings.HandleGetState)
			r.Put("/{id}", a.Settings.HandleUpdateState)
		})
		r.Route("/cities", func(r chi.Router) {
			r.Use(settings(permissions.ActionCity))
			r.Get("/", a.Settings.HandleListCities)
			r.Post("/", a.Settings.HandleCreateCity)
			r.Get("/{id}", a.Settings.HandleGetCity)
			r.Put("/{id}", a.Settings.HandleUpdateCity)
		})
		r.Route("/products", func(r chi.Router) {
			r.Use(settings(permissions.ActionProducts))
			r.Get("/", a.Settings.HandleListProducts)
			r.Post("/", a.Settings.HandleCreateProduct)
			r.Get("/{id}", a.Settings.HandleGetProduct)
			r.Put("/{id}", a.Settings.HandleUpdateProduct)
			r.Delete("/{id}", a.Settings.HandleDeleteProduct)
		})
	})

	r.Route("/uploads", func(r chi.Router) {
		r.With(docs(permissions.ActionList)).Get("/", a.Documents.HandleList)
		r.With(docs(permissions.ActionCreate)).Post("/", a.Documents.HandleCreate)
		r.With(docs("create_with_base64")).Post("/create_with_base64", a.Documents.HandleCreateWithBase64)
		r.With(docs("multiple")).Post("/multiple", a.Documents.HandleMultiple)
		r.With(docs("presigned_url")).Post("/presigned_url", a.Documents.HandlePresignedURL)
		r.With(docs("onboard_presigned_url")).Post("/onboard_presigned_url", a.Documents.HandlePresignedURL)
		r.With(docs("download_file")).Get("/download_file", a.Documents.HandleDownload)

		r.Route("/{id}", func(r chi.Router) {
			r.With(docs(permissions.ActionRetrieve)).Get("/", a.Documents.HandleGet)
			r.With(docs(permissions.ActionUpdate)).Put("/", a.Documents.HandleUpdate)
			r.With(docs(permissions.ActionPartialUpdate)).Patch("/", a.Documents.HandleUpdate)
			r.With(docs(permissions.ActionDestroy)).Delete("/", a.Documents.HandleDelete)
		})
	})

	r.Route("/activity_logs", func(r chi.Router) {
		r.With(activity(permissions.ActionList)).Get("/", a.Activity.HandleList)
		r.With(activity(permissions.ActionRetrieve)).Get("/{id}", a.Activity.HandleGet)
	})

	r.Route("/permissions", func(r chi.Router) {
		r.Use(a.SuperUser)
		r.Get("/", a.Policies.HandleListPolicies)
		r.Post("/check", a.Policies.HandleCheckPolicy)
		r.Get("/{resource}", a.Policies.HandleGetPolicy)
	})
}
