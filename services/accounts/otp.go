package accounts

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/farmersheaven/backend/models"
	"github.com/farmersheaven/backend/repositories"
	"github.com/farmersheaven/backend/services"
	"github.com/farmersheaven/backend/services/audit"
	"go.uber.org/zap"
)

// SendOTP issues a new code to the mobile number of an active user.
// Each number may request a limited number of codes per calendar day.
func (s *Service) SendOTP(ctx context.Context, mobile string) error {
	mobile = strings.TrimSpace(mobile)
	if _, err := s.userByMobile(ctx, mobile); err != nil {
		return err
	}

	code, err := s.digits(s.cfg.OTP.Length)
	if err != nil {
		return services.WrapInternal("failed to generate otp", err)
	}

	now := s.now()
	if err := s.otps.PurgeBefore(ctx, mobile, startOfDay(now)); err != nil {
		return services.WrapInternal("failed to purge otps", err)
	}

	record, err := s.otps.GetLatest(ctx, mobile)
	switch {
	case errors.Is(err, repositories.ErrNotFound):
		record = models.NewOTPLogin(mobile, code)
		record.Counter = s.cfg.OTP.DailyTries
		record.ResendCounter = s.cfg.OTP.ResendTries
		record.CreatedAt, record.UpdatedAt = now, now
	case err != nil:
		return services.WrapInternal("failed to load otp", err)
	default:
		counter := record.Counter - 1
		if counter <= 0 {
			return services.ErrOTPLimitReached
		}
		record.OTP = code
		record.Counter = counter
		record.ResendCounter = s.cfg.OTP.ResendTries
		record.IsActive = true
		record.UpdatedAt = now
	}

	if err := s.otps.Upsert(ctx, record); err != nil {
		return services.WrapInternal("failed to save otp", err)
	}
	return s.deliverOTP(ctx, mobile, code)
}

// ResendOTP repeats the last code while it is still valid
func (s *Service) ResendOTP(ctx context.Context, mobile string) error {
	mobile = strings.TrimSpace(mobile)
	if _, err := s.userByMobile(ctx, mobile); err != nil {
		return err
	}

	record, err := s.otps.GetLatest(ctx, mobile)
	if err != nil && !errors.Is(err, repositories.ErrNotFound) {
		return services.WrapInternal("failed to load otp", err)
	}

	now := s.now()
	if record == nil || !record.IsActive || record.ResendCounter <= 0 || record.Expired(now, s.cfg.OTP.Validity) {
		return services.ErrResendLimitReached
	}

	record.ResendCounter--
	record.UpdatedAt = now
	if err := s.otps.Upsert(ctx, record); err != nil {
		return services.WrapInternal("failed to save otp", err)
	}
	return s.deliverOTP(ctx, mobile, record.OTP)
}

// VerifyOTP checks a code and signs the user in. A code can be used once.
func (s *Service) VerifyOTP(ctx context.Context, meta audit.RequestMeta, mobile, code string) (*AuthResult, error) {
	mobile = strings.TrimSpace(mobile)
	user, err := s.userByMobile(ctx, mobile)
	if err != nil {
		return nil, err
	}

	record, err := s.otps.GetActive(ctx, mobile, strings.TrimSpace(code))
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, services.ErrInvalidOTP
		}
		return nil, services.WrapInternal("failed to load otp", err)
	}

	now := s.now()
	if record.Expired(now, s.cfg.OTP.Validity) {
		return nil, services.ErrInvalidOTP
	}

	err = services.WithTransaction(ctx, s.txManager, func(ctx context.Context, tx repositories.Transaction) error {
		if err := s.otps.WithTx(tx).Deactivate(ctx, record.ID); err != nil {
			return err
		}
		return s.users.WithTx(tx).TouchLastLogin(ctx, user.ID, now)
	})
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, services.ErrInvalidOTP
		}
		return nil, services.WrapInternal("failed to verify otp", err)
	}
	user.LastLogin = &now

	return s.issue(meta, user, mobile)
}

func (s *Service) userByMobile(ctx context.Context, mobile string) (*models.User, error) {
	if mobile == "" {
		return nil, services.Validation("mobile is required")
	}
	user, err := s.users.FindActiveByMobile(ctx, mobile)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, services.Validation("No user exists with mobile no: " + mobile)
		}
		return nil, services.WrapInternal("failed to look up user", err)
	}
	return user, nil
}

func (s *Service) deliverOTP(ctx context.Context, mobile, code string) error {
	text := fmt.Sprintf(s.cfg.OTP.MessageFormat, code)
	if err := s.sms.SendSMS(ctx, mobile, text); err != nil {
		s.logger.Error("failed to deliver otp", zap.String("mobile", mobile), zap.Error(err))
		return services.WrapExternal(services.ErrSMSDelivery.Message, err)
	}
	return nil
}

func startOfDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}
