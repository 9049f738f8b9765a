package accounts

import (
	"context"
	"crypto/rand"
	"errors"
	"math/big"
	"strings"
	"time"

	"github.com/farmersheaven/backend/config"
	"github.com/farmersheaven/backend/models"
	"github.com/farmersheaven/backend/repositories"
	"github.com/farmersheaven/backend/services"
	"github.com/farmersheaven/backend/services/audit"
	"github.com/farmersheaven/backend/services/notify"
	"github.com/farmersheaven/backend/services/principal"
	"github.com/farmersheaven/backend/services/tokens"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

// MinPasswordLength is the shortest accepted password
const MinPasswordLength = 6

// IdentifierKind names the field a login identifier matched
type IdentifierKind string

const (
	KindEmail    IdentifierKind = "email"
	KindUsername IdentifierKind = "username"
	KindMobile   IdentifierKind = "mobile"
)

// AuthResult is returned by every successful sign in
type AuthResult struct {
	Refresh   string       `json:"refresh"`
	Access    string       `json:"access"`
	ExpiresAt time.Time    `json:"expires_at"`
	User      *models.User `json:"user"`
}

// Config holds account settings
type Config struct {
	OTP          config.OTPConfig
	ResetPageURL string
	ResetSubject string
}

// NewConfig builds the account settings from the application configuration
func NewConfig(cfg *config.Config) Config {
	return Config{
		OTP:          cfg.OTP,
		ResetPageURL: cfg.Mail.ResetPageURL,
		ResetSubject: cfg.Mail.ResetSubject,
	}
}

// Service implements sign in, passwords, one time passwords and user management
type Service struct {
	users     repositories.UserRepository
	otps      repositories.OTPRepository
	txManager repositories.TransactionManager
	issuer    *tokens.Issuer
	mailer    notify.Mailer
	sms       notify.SMSSender
	resolver  *principal.Resolver
	activity  *audit.Service
	cfg       Config
	logger    *zap.Logger

	now      func() time.Time
	hashCost int
	digits   func(n int) (string, error)
}

// Deps groups the collaborators of the Service
type Deps struct {
	Users     repositories.UserRepository
	OTPs      repositories.OTPRepository
	TxManager repositories.TransactionManager
	Issuer    *tokens.Issuer
	Mailer    notify.Mailer
	SMS       notify.SMSSender
	Resolver  *principal.Resolver
	Activity  *audit.Service
}

// NewService creates a new Service
func NewService(deps Deps, cfg Config, logger *zap.Logger) *Service {
	if cfg.OTP.Length == 0 {
		cfg.OTP.Length = 6
	}
	if cfg.OTP.DailyTries == 0 {
		cfg.OTP.DailyTries = models.DefaultOTPCounter
	}
	if cfg.OTP.ResendTries == 0 {
		cfg.OTP.ResendTries = models.DefaultResendCounter
	}
	if cfg.OTP.Validity == 0 {
		cfg.OTP.Validity = models.OTPValidity
	}
	if cfg.OTP.MessageFormat == "" {
		cfg.OTP.MessageFormat = "%s is your verification code."
	}
	if cfg.ResetSubject == "" {
		cfg.ResetSubject = "Reset your password"
	}
	return &Service{
		users:     deps.Users,
		otps:      deps.OTPs,
		txManager: deps.TxManager,
		issuer:    deps.Issuer,
		mailer:    deps.Mailer,
		sms:       deps.SMS,
		resolver:  deps.Resolver,
		activity:  deps.Activity,
		cfg:       cfg,
		logger:    logger,
		now:       time.Now,
		hashCost:  bcrypt.DefaultCost,
		digits:    randomDigits,
	}
}

// Login authenticates with a password. identifier may be an email, username or mobile number.
func (s *Service) Login(ctx context.Context, meta audit.RequestMeta, identifier, password string) (*AuthResult, error) {
	identifier = strings.TrimSpace(identifier)
	if identifier == "" || password == "" {
		return nil, services.Validation("Must include username and password.")
	}

	user, kind, err := s.lookup(ctx, identifier)
	if err != nil {
		return nil, err
	}
	if user == nil {
		s.activity.Login(meta, "", identifier, false)
		return nil, services.Validation("User does not exist.")
	}
	if user.IsSeparated {
		s.activity.Login(meta, user.ID.String(), identifier, false)
		return nil, services.ErrUserSeparated
	}
	if !checkPassword(user.PasswordHash, password) {
		s.activity.Login(meta, user.ID.String(), identifier, false)
		return nil, services.Validation(incorrectPasswordMessage(kind))
	}
	if !user.IsActive {
		return nil, services.ErrUserInactive
	}

	return s.signIn(ctx, meta, user, identifier)
}

// CustomerLogin lets a superuser obtain tokens for another active account
func (s *Service) CustomerLogin(ctx context.Context, meta audit.RequestMeta, actorIsSuperUser bool, identifier string) (*AuthResult, error) {
	identifier = strings.TrimSpace(identifier)
	if identifier == "" || !actorIsSuperUser {
		return nil, services.Validation("Must include username and you should be superuser.")
	}

	user, _, err := s.lookup(ctx, identifier)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, services.Validation("User does not exist.")
	}
	if !user.IsActive {
		return nil, services.ErrUserInactive
	}
	return s.signIn(ctx, meta, user, identifier)
}

// Refresh exchanges a refresh token for a new token pair
func (s *Service) Refresh(ctx context.Context, refreshToken string) (*AuthResult, error) {
	claims, err := s.issuer.ParseRefresh(refreshToken)
	if err != nil {
		return nil, err
	}
	id, err := claims.UserID()
	if err != nil {
		return nil, err
	}

	user, err := s.users.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, services.ErrInvalidToken
		}
		return nil, services.WrapInternal("failed to load user", err)
	}
	if !user.CanSignIn() {
		return nil, services.ErrInvalidToken
	}

	pair, err := s.issuer.IssuePair(user)
	if err != nil {
		return nil, err
	}
	return &AuthResult{Refresh: pair.Refresh, Access: pair.Access, ExpiresAt: pair.ExpiresAt, User: user}, nil
}

func (s *Service) signIn(ctx context.Context, meta audit.RequestMeta, user *models.User, identifier string) (*AuthResult, error) {
	now := s.now()
	if err := s.users.TouchLastLogin(ctx, user.ID, now); err != nil {
		s.logger.Warn("failed to record last login",
			zap.String("user_id", user.ID.String()),
			zap.Error(err))
	} else {
		user.LastLogin = &now
	}
	return s.issue(meta, user, identifier)
}

func (s *Service) issue(meta audit.RequestMeta, user *models.User, identifier string) (*AuthResult, error) {
	pair, err := s.issuer.IssuePair(user)
	if err != nil {
		return nil, err
	}

	s.activity.Login(meta, user.ID.String(), identifier, true)
	s.logger.Info("user signed in", zap.String("user_id", user.ID.String()))

	return &AuthResult{Refresh: pair.Refresh, Access: pair.Access, ExpiresAt: pair.ExpiresAt, User: user}, nil
}

// lookup resolves an identifier, preferring email, then username, then mobile.
// A nil user with nil error means nothing matched.
func (s *Service) lookup(ctx context.Context, identifier string) (*models.User, IdentifierKind, error) {
	finders := []struct {
		kind IdentifierKind
		find func(context.Context, string) (*models.User, error)
	}{
		{KindEmail, s.users.FindActiveByEmail},
		{KindUsername, s.users.FindActiveByUsername},
		{KindMobile, s.users.FindActiveByMobile},
	}

	for _, f := range finders {
		user, err := f.find(ctx, identifier)
		if err == nil {
			return user, f.kind, nil
		}
		if !errors.Is(err, repositories.ErrNotFound) {
			return nil, "", services.WrapInternal("failed to look up user", err)
		}
	}
	return nil, "", nil
}

func incorrectPasswordMessage(kind IdentifierKind) string {
	switch kind {
	case KindUsername:
		return "Incorrect username and password."
	case KindMobile:
		return "Incorrect mobile number and password."
	default:
		return "Incorrect email and password."
	}
}

func (s *Service) hash(password string) (string, error) {
	hashed, err := bcrypt.GenerateFromPassword([]byte(password), s.hashCost)
	if err != nil {
		return "", services.WrapInternal("failed to hash password", err)
	}
	return string(hashed), nil
}

func checkPassword(hash, password string) bool {
	if hash == "" {
		return false
	}
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) == nil
}

func randomDigits(n int) (string, error) {
	var b strings.Builder
	b.Grow(n)
	ten := big.NewInt(10)
	for i := 0; i < n; i++ {
		d, err := rand.Int(rand.Reader, ten)
		if err != nil {
			return "", err
		}
		b.WriteByte(byte('0' + d.Int64()))
	}
	return b.String(), nil
}
