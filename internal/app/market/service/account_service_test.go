package service

import (
	"context"
	"testing"
	"time"

	"ashtraymarket/internal/app/market/config"
	"ashtraymarket/internal/app/market/entity"
	"ashtraymarket/internal/app/market/repository"
	"ashtraymarket/internal/app/market/repository/mocks"
	"ashtraymarket/internal/app/market/util"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func newTestAccountService(
	userRepo *mocks.MockUserRepository,
	addressRepo *mocks.MockAddressRepository,
	tokenRepo *mocks.MockTokenRepository,
) AccountService {
	jwtManager := util.NewJWTManager("test-secret", 15*time.Minute, 24*time.Hour)
	return NewAccountService(userRepo, addressRepo, tokenRepo, jwtManager, config.PasswordConfig{MinLength: 8})
}

func mustHash(t *testing.T, password string) string {
	t.Helper()
	hash, err := util.HashPassword(password)
	require.NoError(t, err)
	return hash
}

func TestAccountService_Register(t *testing.T) {
	// Arrange
	userRepo := new(mocks.MockUserRepository)
	addressRepo := new(mocks.MockAddressRepository)
	tokenRepo := new(mocks.MockTokenRepository)
	svc := newTestAccountService(userRepo, addressRepo, tokenRepo)
	ctx := context.Background()

	userRepo.On("Create", ctx, mock.AnythingOfType("*entity.User")).Return(nil)
	tokenRepo.On("SaveRefreshToken", ctx, mock.AnythingOfType("uuid.UUID"), mock.AnythingOfType("string"), mock.AnythingOfType("time.Time")).Return(nil)

	// Act
	resp, err := svc.Register(ctx, &entity.RegisterRequest{
		Email:    "New.User@EXAMPLE.COM",
		Username: "newuser",
		Password: "Str0ng!pass",
	})

	// Assert
	require.NoError(t, err)
	assert.Equal(t, "New.User@example.com", resp.User.Email)
	assert.Equal(t, "newuser", resp.User.Username)
	assert.True(t, resp.User.IsActive)
	assert.False(t, resp.User.IsStaff)
	assert.NotEmpty(t, resp.Tokens.AccessToken)
	assert.NotEmpty(t, resp.Tokens.RefreshToken)
	userRepo.AssertExpectations(t)
	tokenRepo.AssertExpectations(t)
}

func TestAccountService_Register_WeakPassword(t *testing.T) {
	// Arrange
	userRepo := new(mocks.MockUserRepository)
	addressRepo := new(mocks.MockAddressRepository)
	tokenRepo := new(mocks.MockTokenRepository)
	svc := newTestAccountService(userRepo, addressRepo, tokenRepo)
	ctx := context.Background()

	// Act
	resp, err := svc.Register(ctx, &entity.RegisterRequest{
		Email:    "user@example.com",
		Username: "newuser",
		Password: "weak",
	})

	// Assert
	assert.ErrorIs(t, err, ErrWeakPassword)
	assert.Nil(t, resp)
	userRepo.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
}

func TestAccountService_Register_EmptyFields(t *testing.T) {
	// Arrange
	userRepo := new(mocks.MockUserRepository)
	addressRepo := new(mocks.MockAddressRepository)
	tokenRepo := new(mocks.MockTokenRepository)
	svc := newTestAccountService(userRepo, addressRepo, tokenRepo)
	ctx := context.Background()

	tests := []struct {
		name string
		req  *entity.RegisterRequest
	}{
		{"empty email", &entity.RegisterRequest{Username: "newuser", Password: "Str0ng!pass"}},
		{"blank email", &entity.RegisterRequest{Email: "   ", Username: "newuser", Password: "Str0ng!pass"}},
		{"empty username", &entity.RegisterRequest{Email: "user@example.com", Password: "Str0ng!pass"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			// Act
			resp, err := svc.Register(ctx, tt.req)

			// Assert
			assert.ErrorIs(t, err, ErrValidation)
			assert.Nil(t, resp)
		})
	}
	userRepo.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
}

func TestAccountService_Register_DuplicateEmail(t *testing.T) {
	// Arrange
	userRepo := new(mocks.MockUserRepository)
	addressRepo := new(mocks.MockAddressRepository)
	tokenRepo := new(mocks.MockTokenRepository)
	svc := newTestAccountService(userRepo, addressRepo, tokenRepo)
	ctx := context.Background()

	userRepo.On("Create", ctx, mock.AnythingOfType("*entity.User")).Return(repository.ErrDuplicateEmail)

	// Act
	resp, err := svc.Register(ctx, &entity.RegisterRequest{
		Email:    "taken@example.com",
		Username: "newuser",
		Password: "Str0ng!pass",
	})

	// Assert
	assert.ErrorIs(t, err, ErrDuplicateEmail)
	assert.Nil(t, resp)
	userRepo.AssertExpectations(t)
}

func TestAccountService_CreateSuperuser(t *testing.T) {
	// Arrange
	userRepo := new(mocks.MockUserRepository)
	addressRepo := new(mocks.MockAddressRepository)
	tokenRepo := new(mocks.MockTokenRepository)
	svc := newTestAccountService(userRepo, addressRepo, tokenRepo)
	ctx := context.Background()

	userRepo.On("Create", ctx, mock.MatchedBy(func(u *entity.User) bool {
		// Запись создается обычной, флаги выставляются отдельным вызовом
		return !u.IsStaff && !u.IsSuperuser && u.IsActive
	})).Return(nil)
	userRepo.On("SetPrivileges", ctx, mock.AnythingOfType("uuid.UUID"), true, true, true).Return(nil)

	// Act
	user, err := svc.CreateSuperuser(ctx, &entity.RegisterRequest{
		Email:    "admin@example.com",
		Username: "admin",
		Password: "Str0ng!pass",
	})

	// Assert
	require.NoError(t, err)
	assert.True(t, user.IsStaff)
	assert.True(t, user.IsSuperuser)
	assert.True(t, user.IsVerified)
	userRepo.AssertExpectations(t)
}

func TestAccountService_CreateSuperuser_PrivilegesFail(t *testing.T) {
	// Arrange
	userRepo := new(mocks.MockUserRepository)
	addressRepo := new(mocks.MockAddressRepository)
	tokenRepo := new(mocks.MockTokenRepository)
	svc := newTestAccountService(userRepo, addressRepo, tokenRepo)
	ctx := context.Background()

	userRepo.On("Create", ctx, mock.AnythingOfType("*entity.User")).Return(nil)
	userRepo.On("SetPrivileges", ctx, mock.AnythingOfType("uuid.UUID"), true, true, true).Return(repository.ErrUnavailable)

	// Act
	user, err := svc.CreateSuperuser(ctx, &entity.RegisterRequest{
		Email:    "admin@example.com",
		Username: "admin",
		Password: "Str0ng!pass",
	})

	// Assert
	assert.ErrorIs(t, err, ErrStoreUnavailable)
	assert.Nil(t, user)
}

func TestAccountService_Authenticate(t *testing.T) {
	// Arrange
	userRepo := new(mocks.MockUserRepository)
	addressRepo := new(mocks.MockAddressRepository)
	tokenRepo := new(mocks.MockTokenRepository)
	svc := newTestAccountService(userRepo, addressRepo, tokenRepo)
	ctx := context.Background()

	user := &entity.User{
		ID:           uuid.New(),
		Email:        "user@example.com",
		Username:     "user",
		PasswordHash: mustHash(t, "Str0ng!pass"),
		IsActive:     true,
	}

	userRepo.On("GetByEmail", ctx, "user@example.com").Return(user, nil)
	tokenRepo.On("SaveRefreshToken", ctx, user.ID, mock.AnythingOfType("string"), mock.AnythingOfType("time.Time")).Return(nil)

	// Act
	resp, err := svc.Authenticate(ctx, &entity.LoginRequest{
		Email:    "User@Example.COM",
		Password: "Str0ng!pass",
	})

	// Assert
	require.NoError(t, err)
	assert.Equal(t, user.ID, resp.User.ID)
	assert.NotEmpty(t, resp.Tokens.AccessToken)
	userRepo.AssertExpectations(t)
	tokenRepo.AssertExpectations(t)
}

func TestAccountService_Authenticate_WrongPassword(t *testing.T) {
	// Arrange
	userRepo := new(mocks.MockUserRepository)
	addressRepo := new(mocks.MockAddressRepository)
	tokenRepo := new(mocks.MockTokenRepository)
	svc := newTestAccountService(userRepo, addressRepo, tokenRepo)
	ctx := context.Background()

	user := &entity.User{
		ID:           uuid.New(),
		Email:        "user@example.com",
		PasswordHash: mustHash(t, "Str0ng!pass"),
		IsActive:     true,
	}
	userRepo.On("GetByEmail", ctx, "user@example.com").Return(user, nil)

	// Act
	resp, err := svc.Authenticate(ctx, &entity.LoginRequest{
		Email:    "user@example.com",
		Password: "Wr0ng!pass",
	})

	// Assert
	assert.ErrorIs(t, err, ErrInvalidCredentials)
	assert.Nil(t, resp)
	userRepo.AssertExpectations(t)
}

func TestAccountService_Authenticate_UnknownEmail(t *testing.T) {
	// Arrange
	userRepo := new(mocks.MockUserRepository)
	addressRepo := new(mocks.MockAddressRepository)
	tokenRepo := new(mocks.MockTokenRepository)
	svc := newTestAccountService(userRepo, addressRepo, tokenRepo)
	ctx := context.Background()

	userRepo.On("GetByEmail", ctx, "ghost@example.com").Return(nil, repository.ErrNotFound)

	// Act
	resp, err := svc.Authenticate(ctx, &entity.LoginRequest{
		Email:    "ghost@example.com",
		Password: "Str0ng!pass",
	})

	// Assert: несуществующий email неотличим от неверного пароля
	assert.ErrorIs(t, err, ErrInvalidCredentials)
	assert.Nil(t, resp)
}

func TestAccountService_Authenticate_InactiveUser(t *testing.T) {
	// Arrange
	userRepo := new(mocks.MockUserRepository)
	addressRepo := new(mocks.MockAddressRepository)
	tokenRepo := new(mocks.MockTokenRepository)
	svc := newTestAccountService(userRepo, addressRepo, tokenRepo)
	ctx := context.Background()

	user := &entity.User{
		ID:           uuid.New(),
		Email:        "user@example.com",
		PasswordHash: mustHash(t, "Str0ng!pass"),
		IsActive:     false,
	}
	userRepo.On("GetByEmail", ctx, "user@example.com").Return(user, nil)

	// Act
	resp, err := svc.Authenticate(ctx, &entity.LoginRequest{
		Email:    "user@example.com",
		Password: "Str0ng!pass",
	})

	// Assert
	assert.ErrorIs(t, err, ErrInvalidCredentials)
	assert.Nil(t, resp)
}

func TestAccountService_RefreshTokens_RotatesToken(t *testing.T) {
	// Arrange
	userRepo := new(mocks.MockUserRepository)
	addressRepo := new(mocks.MockAddressRepository)
	tokenRepo := new(mocks.MockTokenRepository)
	svc := newTestAccountService(userRepo, addressRepo, tokenRepo)
	ctx := context.Background()

	user := &entity.User{ID: uuid.New(), Email: "user@example.com", IsActive: true}
	stored := &entity.RefreshToken{
		UserID:    user.ID,
		Token:     "old-refresh-token",
		ExpiresAt: time.Now().Add(time.Hour),
	}

	tokenRepo.On("GetRefreshToken", ctx, "old-refresh-token").Return(stored, nil)
	tokenRepo.On("DeleteRefreshToken", ctx, "old-refresh-token").Return(nil)
	userRepo.On("GetByID", ctx, user.ID).Return(user, nil)
	tokenRepo.On("SaveRefreshToken", ctx, user.ID, mock.AnythingOfType("string"), mock.AnythingOfType("time.Time")).Return(nil)

	// Act
	pair, err := svc.RefreshTokens(ctx, "old-refresh-token")

	// Assert: использованный токен отозван, выдана новая пара
	require.NoError(t, err)
	assert.NotEmpty(t, pair.AccessToken)
	assert.NotEqual(t, "old-refresh-token", pair.RefreshToken)
	tokenRepo.AssertCalled(t, "DeleteRefreshToken", ctx, "old-refresh-token")
	tokenRepo.AssertExpectations(t)
}

func TestAccountService_RefreshTokens_UnknownToken(t *testing.T) {
	// Arrange
	userRepo := new(mocks.MockUserRepository)
	addressRepo := new(mocks.MockAddressRepository)
	tokenRepo := new(mocks.MockTokenRepository)
	svc := newTestAccountService(userRepo, addressRepo, tokenRepo)
	ctx := context.Background()

	tokenRepo.On("GetRefreshToken", ctx, "unknown-token").Return(nil, repository.ErrNotFound)

	// Act
	pair, err := svc.RefreshTokens(ctx, "unknown-token")

	// Assert
	assert.ErrorIs(t, err, ErrInvalidRefreshToken)
	assert.Nil(t, pair)
}

func TestAccountService_RefreshTokens_InactiveUser(t *testing.T) {
	// Arrange
	userRepo := new(mocks.MockUserRepository)
	addressRepo := new(mocks.MockAddressRepository)
	tokenRepo := new(mocks.MockTokenRepository)
	svc := newTestAccountService(userRepo, addressRepo, tokenRepo)
	ctx := context.Background()

	user := &entity.User{ID: uuid.New(), IsActive: false}
	stored := &entity.RefreshToken{UserID: user.ID, Token: "token", ExpiresAt: time.Now().Add(time.Hour)}

	tokenRepo.On("GetRefreshToken", ctx, "token").Return(stored, nil)
	tokenRepo.On("DeleteRefreshToken", ctx, "token").Return(nil)
	userRepo.On("GetByID", ctx, user.ID).Return(user, nil)

	// Act
	pair, err := svc.RefreshTokens(ctx, "token")

	// Assert
	assert.ErrorIs(t, err, ErrInvalidRefreshToken)
	assert.Nil(t, pair)
	tokenRepo.AssertNotCalled(t, "SaveRefreshToken", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestAccountService_ChangePassword(t *testing.T) {
	// Arrange
	userRepo := new(mocks.MockUserRepository)
	addressRepo := new(mocks.MockAddressRepository)
	tokenRepo := new(mocks.MockTokenRepository)
	svc := newTestAccountService(userRepo, addressRepo, tokenRepo)
	ctx := context.Background()

	user := &entity.User{
		ID:           uuid.New(),
		PasswordHash: mustHash(t, "Old!pass123"),
		IsActive:     true,
	}

	userRepo.On("GetByID", ctx, user.ID).Return(user, nil)
	userRepo.On("UpdatePassword", ctx, user.ID, mock.AnythingOfType("string")).Return(nil)
	tokenRepo.On("DeleteUserRefreshTokens", ctx, user.ID).Return(nil)

	// Act
	err := svc.ChangePassword(ctx, user.ID, &entity.ChangePasswordRequest{
		OldPassword: "Old!pass123",
		NewPassword: "New!pass456",
	})

	// Assert: пароль обновлён, все сессии пользователя отозваны
	require.NoError(t, err)
	userRepo.AssertExpectations(t)
	tokenRepo.AssertExpectations(t)
}

func TestAccountService_ChangePassword_WrongOldPassword(t *testing.T) {
	// Arrange
	userRepo := new(mocks.MockUserRepository)
	addressRepo := new(mocks.MockAddressRepository)
	tokenRepo := new(mocks.MockTokenRepository)
	svc := newTestAccountService(userRepo, addressRepo, tokenRepo)
	ctx := context.Background()

	user := &entity.User{ID: uuid.New(), PasswordHash: mustHash(t, "Old!pass123")}
	userRepo.On("GetByID", ctx, user.ID).Return(user, nil)

	// Act
	err := svc.ChangePassword(ctx, user.ID, &entity.ChangePasswordRequest{
		OldPassword: "Wrong!pass1",
		NewPassword: "New!pass456",
	})

	// Assert
	assert.ErrorIs(t, err, ErrInvalidCredentials)
	userRepo.AssertNotCalled(t, "UpdatePassword", mock.Anything, mock.Anything, mock.Anything)
}

func TestAccountService_DeleteAddress_ForeignAddress(t *testing.T) {
	// Arrange
	userRepo := new(mocks.MockUserRepository)
	addressRepo := new(mocks.MockAddressRepository)
	tokenRepo := new(mocks.MockTokenRepository)
	svc := newTestAccountService(userRepo, addressRepo, tokenRepo)
	ctx := context.Background()

	ownerID := uuid.New()
	addressID := uuid.New()
	address := &entity.Address{ID: addressID, UserID: &ownerID}

	addressRepo.On("GetByID", ctx, addressID).Return(address, nil)

	// Act: адрес удаляет не его владелец
	err := svc.DeleteAddress(ctx, uuid.New(), addressID)

	// Assert
	assert.ErrorIs(t, err, ErrUnauthorized)
	addressRepo.AssertNotCalled(t, "Delete", mock.Anything, mock.Anything)
}

func TestAccountService_ListUsers_StoreUnavailable(t *testing.T) {
	// Arrange
	userRepo := new(mocks.MockUserRepository)
	addressRepo := new(mocks.MockAddressRepository)
	tokenRepo := new(mocks.MockTokenRepository)
	svc := newTestAccountService(userRepo, addressRepo, tokenRepo)
	ctx := context.Background()

	userRepo.On("List", ctx).Return(nil, repository.ErrUnavailable)

	// Act
	users, err := svc.ListUsers(ctx)

	// Assert
	assert.ErrorIs(t, err, ErrStoreUnavailable)
	assert.Nil(t, users)
}
