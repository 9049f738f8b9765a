package accounts

import (
	"context"
	"errors"
	"fmt"
	"net/url"

	"github.com/farmersheaven/backend/models"
	"github.com/farmersheaven/backend/repositories"
	"github.com/farmersheaven/backend/services"
	"github.com/farmersheaven/backend/services/audit"
	"github.com/farmersheaven/backend/services/notify"
	"github.com/farmersheaven/backend/services/tokens"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// ChangePassword replaces the password of a signed in user after checking the old one
func (s *Service) ChangePassword(ctx context.Context, meta audit.RequestMeta, userID uuid.UUID, oldPassword, newPassword string) error {
	if len(newPassword) < MinPasswordLength {
		return services.ErrWeakPassword
	}

	user, err := s.getUser(ctx, userID)
	if err != nil {
		return err
	}
	if !checkPassword(user.PasswordHash, oldPassword) {
		return services.Validation("Old password is incorrect.")
	}

	return s.setPassword(ctx, meta, user, newPassword)
}

// SendResetMail mails a signed reset link to the account matching identifier.
// It returns the address the link was sent to.
func (s *Service) SendResetMail(ctx context.Context, identifier string) (string, error) {
	user, _, err := s.lookup(ctx, identifier)
	if err != nil {
		return "", err
	}
	if user == nil {
		return "", services.Validation("User does not exist.")
	}
	if user.Email == "" {
		return "", services.Validation("User has no email address.")
	}

	token, err := s.issuer.IssueReset(user)
	if err != nil {
		return "", err
	}

	msg := notify.Message{
		To:      user.Email,
		Subject: s.cfg.ResetSubject,
		Body:    resetMailBody(user, s.resetLink(token)),
	}
	if err := s.mailer.Send(ctx, msg); err != nil {
		s.logger.Error("failed to send password reset mail",
			zap.String("user_id", user.ID.String()),
			zap.Error(err))
		return "", fmt.Errorf("unable to send password reset link to %s: %w", user.Email, err)
	}
	return user.Email, nil
}

// ResetPassword sets a new password using a token issued by SendResetMail.
// Tokens stop working once the password they were issued for changes.
func (s *Service) ResetPassword(ctx context.Context, meta audit.RequestMeta, token, password string) error {
	if token == "" {
		return services.ErrInvalidResetToken
	}
	if len(password) < MinPasswordLength {
		return services.ErrWeakPassword
	}

	claims, err := s.issuer.ParseReset(token)
	if err != nil {
		return err
	}
	id, err := claims.UserID()
	if err != nil {
		return services.ErrInvalidResetToken
	}

	user, err := s.users.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return services.ErrInvalidResetToken
		}
		return services.WrapInternal("failed to load user", err)
	}
	if !tokens.CheckFingerprint(claims, user) {
		return services.ErrInvalidResetToken
	}

	return s.setPassword(ctx, meta, user, password)
}

func (s *Service) setPassword(ctx context.Context, meta audit.RequestMeta, user *models.User, password string) error {
	hashed, err := s.hash(password)
	if err != nil {
		return err
	}
	if err := s.users.SetPassword(ctx, user.ID, hashed); err != nil {
		return services.WrapInternal("failed to update password", err)
	}
	user.PasswordHash = hashed

	s.activity.PasswordReset(meta, user.ID.String())
	return nil
}

func (s *Service) resetLink(token string) string {
	base := s.cfg.ResetPageURL
	if base == "" {
		return token
	}
	u, err := url.Parse(base)
	if err != nil {
		return base + "?token=" + url.QueryEscape(token)
	}
	q := u.Query()
	q.Set("token", token)
	u.RawQuery = q.Encode()
	return u.String()
}

func resetMailBody(user *models.User, link string) string {
	name := user.FullName()
	if name == "" {
		name = user.Username
	}
	return fmt.Sprintf("Hello %s,\n\nUse the link below to set a new password:\n\n%s\n\nIf you did not ask for a reset you can ignore this message.\n", name, link)
}
