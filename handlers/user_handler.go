package handlers

import (
	"context"
	"fmt"
	"net/http"

	"github.com/farmersheaven/backend/middleware"
	"github.com/farmersheaven/backend/models"
	"github.com/farmersheaven/backend/permissions"
	"github.com/farmersheaven/backend/services/accounts"
	"github.com/farmersheaven/backend/services/audit"
	"github.com/farmersheaven/backend/utils"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// AccountService defines the account operations exposed over HTTP
type AccountService interface {
	Login(ctx context.Context, meta audit.RequestMeta, identifier, password string) (*accounts.AuthResult, error)
	CustomerLogin(ctx context.Context, meta audit.RequestMeta, actorIsSuperUser bool, identifier string) (*accounts.AuthResult, error)
	Refresh(ctx context.Context, refreshToken string) (*accounts.AuthResult, error)

	ChangePassword(ctx context.Context, meta audit.RequestMeta, userID uuid.UUID, oldPassword, newPassword string) error
	SendResetMail(ctx context.Context, identifier string) (string, error)
	ResetPassword(ctx context.Context, meta audit.RequestMeta, token, password string) error

	SendOTP(ctx context.Context, mobile string) error
	ResendOTP(ctx context.Context, mobile string) error
	VerifyOTP(ctx context.Context, meta audit.RequestMeta, mobile, code string) (*accounts.AuthResult, error)

	Register(ctx context.Context, meta audit.RequestMeta, actorID string, actorIsSuperUser bool, in accounts.RegisterInput) (*models.User, error)
	Get(ctx context.Context, id uuid.UUID) (*models.User, error)
	Me(ctx context.Context, id uuid.UUID) (*models.User, error)
	Clone(ctx context.Context, id uuid.UUID) (*models.UserClone, error)
	List(ctx context.Context, search string, limit, offset int) ([]*models.User, int, error)
	Update(ctx context.Context, meta audit.RequestMeta, actorID string, id uuid.UUID, in accounts.UpdateInput) (*models.User, error)
	Delete(ctx context.Context, meta audit.RequestMeta, actorID string, id uuid.UUID) error
}

// LoginRequest is the body of POST /users/login
type LoginRequest struct {
	Username string `json:"username" validate:"required"`
	Password string `json:"password" validate:"required"`
}

// CustomerLoginRequest is the body of POST /users/customer_login
type CustomerLoginRequest struct {
	Username string `json:"username" validate:"required"`
}

// RefreshRequest is the body of POST /token/refresh
type RefreshRequest struct {
	Refresh string `json:"refresh" validate:"required"`
}

// PasswordChangeRequest is the body of POST /users/password_change
type PasswordChangeRequest struct {
	OldPassword string `json:"old_password" validate:"required"`
	NewPassword string `json:"new_password" validate:"required"`
}

// ResetMailRequest is the body of POST /users/user_reset_mail
type ResetMailRequest struct {
	Username string `json:"username" validate:"required"`
}

// ResetPasswordRequest is the body of POST /users/reset_password
type ResetPasswordRequest struct {
	Code     string `json:"code" validate:"required"`
	Password string `json:"password" validate:"required"`
}

// MobileRequest is the body of the send and resend OTP endpoints
type MobileRequest struct {
	Mobile string `json:"mobile" validate:"required,mobile"`
}

// VerifyOTPRequest is the body of POST /users/verify_otp
type VerifyOTPRequest struct {
	Mobile string `json:"mobile" validate:"required,mobile"`
	OTP    string `json:"otp" validate:"required,numeric"`
}

// UserHandler handles account and user management requests
type UserHandler struct {
	accounts AccountService
	objects  ObjectChecker
	logger   *zap.Logger
}

// NewUserHandler creates a new UserHandler. objects may be nil.
func NewUserHandler(accounts AccountService, objects ObjectChecker, logger *zap.Logger) *UserHandler {
	return &UserHandler{
		accounts: accounts,
		objects:  objects,
		logger:   logger,
	}
}

func (h *UserHandler) load(w http.ResponseWriter, r *http.Request, action string, id uuid.UUID) (*models.User, bool) {
	return loadObject(w, r, h.objects, h.logger, permissions.ResourceUsers, action, id, h.accounts.Get)
}

// HandleLogin handles POST /users/login
func (h *UserHandler) HandleLogin(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest
	if !decodeAndValidate(w, r, &req, h.logger) {
		return
	}

	result, err := h.accounts.Login(r.Context(), audit.MetaFromRequest(r), req.Username, req.Password)
	if err != nil {
		HandleServiceError(w, err, h.logger)
		return
	}
	_ = utils.WriteOK(w, result)
}

// HandleCustomerLogin handles POST /users/customer_login
func (h *UserHandler) HandleCustomerLogin(w http.ResponseWriter, r *http.Request) {
	var req CustomerLoginRequest
	if !decodeAndValidate(w, r, &req, h.logger) {
		return
	}

	principal := middleware.GetPrincipalFromContext(r.Context())
	result, err := h.accounts.CustomerLogin(r.Context(), audit.MetaFromRequest(r), principal.SuperUser, req.Username)
	if err != nil {
		HandleServiceError(w, err, h.logger)
		return
	}

	h.logger.Info("customer login",
		zap.String("request_id", middleware.GetRequestIDFromContext(r.Context())),
		zap.String("actor_id", principal.ID),
		zap.String("user_id", result.User.ID.String()))
	_ = utils.WriteOK(w, result)
}

// HandleRefresh handles POST /token/refresh
func (h *UserHandler) HandleRefresh(w http.ResponseWriter, r *http.Request) {
	var req RefreshRequest
	if !decodeAndValidate(w, r, &req, h.logger) {
		return
	}

	result, err := h.accounts.Refresh(r.Context(), req.Refresh)
	if err != nil {
		HandleServiceError(w, err, h.logger)
		return
	}
	_ = utils.WriteOK(w, result)
}

// HandleMe handles GET /users/me
func (h *UserHandler) HandleMe(w http.ResponseWriter, r *http.Request) {
	id, ok := currentUserID(r)
	if !ok {
		_ = utils.WriteUnauthorized(w, "Authentication credentials were not provided.")
		return
	}

	user, err := h.accounts.Me(r.Context(), id)
	if err != nil {
		HandleServiceError(w, err, h.logger)
		return
	}
	_ = utils.WriteOK(w, user)
}

// HandleUserClone handles GET /users/user_clone
func (h *UserHandler) HandleUserClone(w http.ResponseWriter, r *http.Request) {
	id, ok := currentUserID(r)
	if !ok {
		_ = utils.WriteUnauthorized(w, "Authentication credentials were not provided.")
		return
	}

	clone, err := h.accounts.Clone(r.Context(), id)
	if err != nil {
		HandleServiceError(w, err, h.logger)
		return
	}
	_ = utils.WriteOK(w, clone)
}

// HandlePasswordChange handles POST /users/password_change
func (h *UserHandler) HandlePasswordChange(w http.ResponseWriter, r *http.Request) {
	id, ok := currentUserID(r)
	if !ok {
		_ = utils.WriteUnauthorized(w, "Authentication credentials were not provided.")
		return
	}

	var req PasswordChangeRequest
	if !decodeAndValidate(w, r, &req, h.logger) {
		return
	}

	if err := h.accounts.ChangePassword(r.Context(), audit.MetaFromRequest(r), id, req.OldPassword, req.NewPassword); err != nil {
		HandleServiceError(w, err, h.logger)
		return
	}
	_ = utils.WriteMessage(w, "Password changed successfully.")
}

// HandleResetMail handles POST /users/user_reset_mail
func (h *UserHandler) HandleResetMail(w http.ResponseWriter, r *http.Request) {
	var req ResetMailRequest
	if !decodeAndValidate(w, r, &req, h.logger) {
		return
	}

	email, err := h.accounts.SendResetMail(r.Context(), req.Username)
	if err != nil {
		HandleServiceError(w, err, h.logger)
		return
	}
	_ = utils.WriteMessage(w, fmt.Sprintf("We have sent a password reset link to the %s. Use that link to set your new password", email))
}

// HandleResetPassword handles POST /users/reset_password
func (h *UserHandler) HandleResetPassword(w http.ResponseWriter, r *http.Request) {
	var req ResetPasswordRequest
	if !decodeAndValidate(w, r, &req, h.logger) {
		return
	}

	if err := h.accounts.ResetPassword(r.Context(), audit.MetaFromRequest(r), req.Code, req.Password); err != nil {
		HandleServiceError(w, err, h.logger)
		return
	}
	_ = utils.WriteMessage(w, "Password Created successfully")
}

// HandleSendOTP handles POST /users/send_otp
func (h *UserHandler) HandleSendOTP(w http.ResponseWriter, r *http.Request) {
	var req MobileRequest
	if !decodeAndValidate(w, r, &req, h.logger) {
		return
	}

	if err := h.accounts.SendOTP(r.Context(), req.Mobile); err != nil {
		HandleServiceError(w, err, h.logger)
		return
	}
	_ = utils.WriteMessage(w, "OTP sent successfully")
}

// HandleResendOTP handles POST /users/resend_otp
func (h *UserHandler) HandleResendOTP(w http.ResponseWriter, r *http.Request) {
	var req MobileRequest
	if !decodeAndValidate(w, r, &req, h.logger) {
		return
	}

	if err := h.accounts.ResendOTP(r.Context(), req.Mobile); err != nil {
		HandleServiceError(w, err, h.logger)
		return
	}
	_ = utils.WriteMessage(w, "OTP resent successfully")
}

// HandleVerifyOTP handles POST /users/verify_otp
func (h *UserHandler) HandleVerifyOTP(w http.ResponseWriter, r *http.Request) {
	var req VerifyOTPRequest
	if !decodeAndValidate(w, r, &req, h.logger) {
		return
	}

	result, err := h.accounts.VerifyOTP(r.Context(), audit.MetaFromRequest(r), req.Mobile, req.OTP)
	if err != nil {
		HandleServiceError(w, err, h.logger)
		return
	}
	_ = utils.WriteOK(w, result)
}

// HandleOAuth handles the oauth_start and oauth_callback endpoints.
// Token exchange with an identity provider is not offered.
func (h *UserHandler) HandleOAuth(w http.ResponseWriter, r *http.Request) {
	_ = utils.WriteNotImplemented(w, "OAuth sign in is not available")
}

// HandleListUsers handles GET /users
func (h *UserHandler) HandleListUsers(w http.ResponseWriter, r *http.Request) {
	page := utils.ParsePage(r)
	users, total, err := h.accounts.List(r.Context(), r.URL.Query().Get("search"), page.Limit(), page.Offset())
	if err != nil {
		HandleServiceError(w, err, h.logger)
		return
	}
	_ = utils.WritePage(w, page, total, users)
}

// HandleCreateUser handles POST /users
func (h *UserHandler) HandleCreateUser(w http.ResponseWriter, r *http.Request) {
	var req accounts.RegisterInput
	if !decodeAndValidate(w, r, &req, h.logger) {
		return
	}

	principal := middleware.GetPrincipalFromContext(r.Context())
	user, err := h.accounts.Register(r.Context(), audit.MetaFromRequest(r), principal.ID, principal.SuperUser, req)
	if err != nil {
		HandleServiceError(w, err, h.logger)
		return
	}

	h.logger.Info("user created",
		zap.String("request_id", middleware.GetRequestIDFromContext(r.Context())),
		zap.String("user_id", user.ID.String()))
	_ = utils.WriteCreated(w, user)
}

// HandleGetUser handles GET /users/{id}
func (h *UserHandler) HandleGetUser(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}

	user, ok := h.load(w, r, permissions.ActionRetrieve, id)
	if !ok {
		return
	}
	_ = utils.WriteOK(w, user)
}

// HandleUpdateUser handles PUT and PATCH /users/{id}
func (h *UserHandler) HandleUpdateUser(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}

	var req accounts.UpdateInput
	if !decodeAndValidate(w, r, &req, h.logger) {
		return
	}
	if _, ok := h.load(w, r, updateAction(r), id); !ok {
		return
	}

	principal := middleware.GetPrincipalFromContext(r.Context())
	user, err := h.accounts.Update(r.Context(), audit.MetaFromRequest(r), principal.ID, id, req)
	if err != nil {
		HandleServiceError(w, err, h.logger)
		return
	}
	_ = utils.WriteOK(w, user)
}

// HandleDeleteUser handles DELETE /users/{id}
func (h *UserHandler) HandleDeleteUser(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}

	if _, ok := h.load(w, r, permissions.ActionDestroy, id); !ok {
		return
	}

	principal := middleware.GetPrincipalFromContext(r.Context())
	if err := h.accounts.Delete(r.Context(), audit.MetaFromRequest(r), principal.ID, id); err != nil {
		HandleServiceError(w, err, h.logger)
		return
	}
	utils.WriteNoContent(w)
}
