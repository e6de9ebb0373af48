package auth

import (
	"context"
	"errors"
	"testing"
	"time"

	"app/internal/domain/model"
	"app/internal/repository"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

// =====================
// Mock: UserRepository
// =====================

type MockUserRepository struct {
	mock.Mock
}

func (m *MockUserRepository) Create(ctx context.Context, user *model.User) error {
	args := m.Called(ctx, user)
	return args.Error(0)
}

func (m *MockUserRepository) FindByID(ctx context.Context, userID string) (*model.User, error) {
	args := m.Called(ctx, userID)
	u, _ := args.Get(0).(*model.User)
	return u, args.Error(1)
}

func (m *MockUserRepository) FindByEmail(ctx context.Context, email string) (*model.User, error) {
	args := m.Called(ctx, email)
	u, _ := args.Get(0).(*model.User)
	return u, args.Error(1)
}

func (m *MockUserRepository) Update(ctx context.Context, user *model.User) error {
	args := m.Called(ctx, user)
	return args.Error(0)
}

// =====================
// テスト用の固定部品
// =====================

type fixedIDGen struct{ id string }

func (g *fixedIDGen) NewID() string { return g.id }

type fixedClock struct{ now time.Time }

func (c *fixedClock) Now() time.Time { return c.now }

type stubIssuer struct{}

func (i *stubIssuer) Issue(userID string, sessionKey string, now time.Time) (string, time.Time, error) {
	return "token-" + userID + "-" + sessionKey, now.Add(24 * time.Hour), nil
}

var testNow = time.Date(2026, 8, 1, 9, 0, 0, 0, time.UTC)

func hashOf(t *testing.T, plain string) string {
	t.Helper()
	b, err := bcrypt.GenerateFromPassword([]byte(plain), bcrypt.MinCost)
	require.NoError(t, err)
	return string(b)
}

// =====================
// Register
// =====================

func newRegisterUC(repoMock *MockUserRepository) *RegisterUserUsecase {
	return NewRegisterUserUsecase(
		repoMock,
		NewBcryptPasswordHasher(bcrypt.MinCost),
		&fixedIDGen{id: "user-1"},
		&fixedClock{now: testNow},
	)
}

func TestRegister_Success(t *testing.T) {
	repoMock := new(MockUserRepository)
	repoMock.On("FindByEmail", mock.Anything, "taro@example.com").Return(nil, repository.ErrUserNotFound)
	repoMock.On("Create", mock.Anything, mock.AnythingOfType("*model.User")).Return(nil)

	out, err := newRegisterUC(repoMock).Execute(context.Background(), RegisterUserInput{
		Email:    "taro@example.com",
		Password: "password123",
		FullName: "Yamada Taro",
	})

	require.NoError(t, err)
	assert.Equal(t, "user-1", out.User.ID)
	assert.Equal(t, "taro@example.com", out.User.Email)
	assert.Empty(t, out.User.PasswordHash) // 平文もハッシュも返さない
	assert.True(t, out.User.IsActive)
	repoMock.AssertExpectations(t)
}

func TestRegister_InvalidEmail(t *testing.T) {
	repoMock := new(MockUserRepository)

	_, err := newRegisterUC(repoMock).Execute(context.Background(), RegisterUserInput{
		Email:    "not-an-email",
		Password: "password123",
	})

	assert.ErrorIs(t, err, ErrInvalidEmailFormat)
	repoMock.AssertNotCalled(t, "Create")
}

func TestRegister_PasswordTooShort(t *testing.T) {
	repoMock := new(MockUserRepository)

	_, err := newRegisterUC(repoMock).Execute(context.Background(), RegisterUserInput{
		Email:    "taro@example.com",
		Password: "short",
	})

	assert.ErrorIs(t, err, ErrPasswordTooShort)
}

func TestRegister_DuplicateEmail(t *testing.T) {
	repoMock := new(MockUserRepository)
	repoMock.On("FindByEmail", mock.Anything, "taro@example.com").
		Return(&model.User{ID: "existing"}, nil)

	_, err := newRegisterUC(repoMock).Execute(context.Background(), RegisterUserInput{
		Email:    "taro@example.com",
		Password: "password123",
	})

	assert.ErrorIs(t, err, ErrEmailAlreadyExists)
	repoMock.AssertNotCalled(t, "Create")
}

// =====================
// Login
// =====================

func newLoginUC(repoMock *MockUserRepository) *LoginUsecase {
	return NewLoginUsecase(
		repoMock,
		NewBcryptPasswordVerifier(),
		&stubIssuer{},
		&fixedIDGen{id: "generated-key"},
		&fixedClock{now: testNow},
	)
}

func TestLogin_Success_ReusesClientSessionKey(t *testing.T) {
	repoMock := new(MockUserRepository)
	repoMock.On("FindByEmail", mock.Anything, "taro@example.com").Return(&model.User{
		ID:           "user-1",
		Email:        "taro@example.com",
		PasswordHash: hashOf(t, "password123"),
		IsActive:     true,
	}, nil)
	repoMock.On("Update", mock.Anything, mock.AnythingOfType("*model.User")).Return(nil)

	out, err := newLoginUC(repoMock).Execute(context.Background(), LoginInput{
		Email:      "taro@example.com",
		Password:   "password123",
		SessionKey: "anon-key", // 匿名時から使っていたキーを引き継ぐ
	})

	require.NoError(t, err)
	assert.Equal(t, "anon-key", out.SessionKey)
	assert.Equal(t, "token-user-1-anon-key", out.Token.AccessToken)
	assert.Empty(t, out.User.PasswordHash)
	repoMock.AssertExpectations(t)
}

func TestLogin_MintsSessionKeyWhenMissing(t *testing.T) {
	repoMock := new(MockUserRepository)
	repoMock.On("FindByEmail", mock.Anything, "taro@example.com").Return(&model.User{
		ID:           "user-1",
		PasswordHash: hashOf(t, "password123"),
		IsActive:     true,
	}, nil)
	repoMock.On("Update", mock.Anything, mock.Anything).Return(nil)

	out, err := newLoginUC(repoMock).Execute(context.Background(), LoginInput{
		Email:    "taro@example.com",
		Password: "password123",
	})

	require.NoError(t, err)
	assert.Equal(t, "generated-key", out.SessionKey)
}

func TestLogin_WrongPassword(t *testing.T) {
	repoMock := new(MockUserRepository)
	repoMock.On("FindByEmail", mock.Anything, "taro@example.com").Return(&model.User{
		ID:           "user-1",
		PasswordHash: hashOf(t, "password123"),
		IsActive:     true,
	}, nil)

	_, err := newLoginUC(repoMock).Execute(context.Background(), LoginInput{
		Email:    "taro@example.com",
		Password: "wrong",
	})

	assert.ErrorIs(t, err, ErrInvalidCredentials)
	repoMock.AssertNotCalled(t, "Update")
}

func TestLogin_UnknownEmail(t *testing.T) {
	repoMock := new(MockUserRepository)
	repoMock.On("FindByEmail", mock.Anything, "nobody@example.com").
		Return(nil, repository.ErrUserNotFound)

	_, err := newLoginUC(repoMock).Execute(context.Background(), LoginInput{
		Email:    "nobody@example.com",
		Password: "password123",
	})

	assert.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestLogin_InactiveUser(t *testing.T) {
	repoMock := new(MockUserRepository)
	repoMock.On("FindByEmail", mock.Anything, "taro@example.com").Return(&model.User{
		ID:           "user-1",
		PasswordHash: hashOf(t, "password123"),
		IsActive:     false,
	}, nil)

	_, err := newLoginUC(repoMock).Execute(context.Background(), LoginInput{
		Email:    "taro@example.com",
		Password: "password123",
	})

	assert.ErrorIs(t, err, ErrUserInactive)
}

func TestLogin_RepositoryError(t *testing.T) {
	repoMock := new(MockUserRepository)
	dbErr := errors.New("db down")
	repoMock.On("FindByEmail", mock.Anything, "taro@example.com").Return(nil, dbErr)

	_, err := newLoginUC(repoMock).Execute(context.Background(), LoginInput{
		Email:    "taro@example.com",
		Password: "password123",
	})

	assert.ErrorIs(t, err, dbErr)
}
