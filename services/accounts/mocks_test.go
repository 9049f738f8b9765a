package accounts

import (
	"context"
	"sync"
	"time"

	"github.com/farmersheaven/backend/models"
	"github.com/farmersheaven/backend/repositories"
	"github.com/farmersheaven/backend/services/notify"
	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"
)

type MockUserRepository struct {
	mock.Mock
}

func (m *MockUserRepository) Create(ctx context.Context, user *models.User) error {
	return m.Called(ctx, user).Error(0)
}

func (m *MockUserRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.User, error) {
	args := m.Called(ctx, id)
	return userOrNil(args.Get(0)), args.Error(1)
}

func (m *MockUserRepository) FindActiveByEmail(ctx context.Context, email string) (*models.User, error) {
	args := m.Called(ctx, email)
	return userOrNil(args.Get(0)), args.Error(1)
}

func (m *MockUserRepository) FindActiveByUsername(ctx context.Context, username string) (*models.User, error) {
	args := m.Called(ctx, username)
	return userOrNil(args.Get(0)), args.Error(1)
}

func (m *MockUserRepository) FindActiveByMobile(ctx context.Context, mobile string) (*models.User, error) {
	args := m.Called(ctx, mobile)
	return userOrNil(args.Get(0)), args.Error(1)
}

func (m *MockUserRepository) List(ctx context.Context, search string, limit, offset int) ([]*models.User, int, error) {
	args := m.Called(ctx, search, limit, offset)
	users, _ := args.Get(0).([]*models.User)
	return users, args.Int(1), args.Error(2)
}

func (m *MockUserRepository) Update(ctx context.Context, user *models.User) error {
	return m.Called(ctx, user).Error(0)
}

func (m *MockUserRepository) SetPassword(ctx context.Context, id uuid.UUID, passwordHash string) error {
	return m.Called(ctx, id, passwordHash).Error(0)
}

func (m *MockUserRepository) TouchLastLogin(ctx context.Context, id uuid.UUID, at time.Time) error {
	return m.Called(ctx, id, at).Error(0)
}

func (m *MockUserRepository) Delete(ctx context.Context, id uuid.UUID) error {
	return m.Called(ctx, id).Error(0)
}

func (m *MockUserRepository) WithTx(tx repositories.Transaction) repositories.UserRepository {
	return m
}

func userOrNil(v interface{}) *models.User {
	if user, ok := v.(*models.User); ok {
		return user
	}
	return nil
}

type MockOTPRepository struct {
	mock.Mock
}

func (m *MockOTPRepository) GetLatest(ctx context.Context, mobile string) (*models.OTPLogin, error) {
	args := m.Called(ctx, mobile)
	otp, _ := args.Get(0).(*models.OTPLogin)
	return otp, args.Error(1)
}

func (m *MockOTPRepository) GetActive(ctx context.Context, mobile, otp string) (*models.OTPLogin, error) {
	args := m.Called(ctx, mobile, otp)
	record, _ := args.Get(0).(*models.OTPLogin)
	return record, args.Error(1)
}

func (m *MockOTPRepository) Upsert(ctx context.Context, otp *models.OTPLogin) error {
	return m.Called(ctx, otp).Error(0)
}

func (m *MockOTPRepository) Deactivate(ctx context.Context, id uuid.UUID) error {
	return m.Called(ctx, id).Error(0)
}

func (m *MockOTPRepository) PurgeBefore(ctx context.Context, mobile string, before time.Time) error {
	return m.Called(ctx, mobile, before).Error(0)
}

func (m *MockOTPRepository) WithTx(tx repositories.Transaction) repositories.OTPRepository {
	return m
}

type MockTransactionManager struct {
	mock.Mock
}

func (m *MockTransactionManager) Begin(ctx context.Context) (repositories.Transaction, error) {
	args := m.Called(ctx)
	tx, _ := args.Get(0).(repositories.Transaction)
	return tx, args.Error(1)
}

func (m *MockTransactionManager) InTransaction(ctx context.Context, fn func(ctx context.Context, tx repositories.Transaction) error) error {
	return m.Called(ctx, fn).Error(0)
}

type MockTransaction struct {
	mock.Mock
}

func (m *MockTransaction) Commit() error {
	return m.Called().Error(0)
}

func (m *MockTransaction) Rollback() error {
	return m.Called().Error(0)
}

func (m *MockTransaction) Context() context.Context {
	return context.Background()
}

type recordingMailer struct {
	mu   sync.Mutex
	sent []notify.Message
	err  error
}

func (r *recordingMailer) Send(ctx context.Context, msg notify.Message) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.err != nil {
		return r.err
	}
	r.sent = append(r.sent, msg)
	return nil
}

type recordingSMS struct {
	mu   sync.Mutex
	sent []string
	err  error
}

func (r *recordingSMS) SendSMS(ctx context.Context, mobile, text string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.err != nil {
		return r.err
	}
	r.sent = append(r.sent, mobile+": "+text)
	return nil
}
