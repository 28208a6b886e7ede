package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"ashtraymarket/internal/app/market/config"
	"ashtraymarket/internal/app/market/entity"
	"ashtraymarket/internal/app/market/repository"
	"ashtraymarket/internal/app/market/util"
	"ashtraymarket/pkg/logger"
	"ashtraymarket/pkg/metrics"

	"github.com/google/uuid"
)

// accountService обрабатывает бизнес-логику учетных записей
type accountService struct {
	userRepo    repository.UserRepository
	addressRepo repository.AddressRepository
	tokenRepo   repository.TokenRepository
	jwtManager  *util.JWTManager
	policy      util.PasswordPolicy
}

// NewAccountService создает новый сервис учетных записей
func NewAccountService(
	userRepo repository.UserRepository,
	addressRepo repository.AddressRepository,
	tokenRepo repository.TokenRepository,
	jwtManager *util.JWTManager,
	passwordCfg config.PasswordConfig,
) AccountService {
	return &accountService{
		userRepo:    userRepo,
		addressRepo: addressRepo,
		tokenRepo:   tokenRepo,
		jwtManager:  jwtManager,
		policy:      util.NewPasswordPolicy(passwordCfg.MinLength, passwordCfg.Denylist),
	}
}

// mapStoreErr переводит транзиентные ошибки хранилища в бизнес-ошибку.
// Остальные ошибки дополняются контекстом как есть
func mapStoreErr(err error, msg string) error {
	if errors.Is(err, repository.ErrUnavailable) {
		return ErrStoreUnavailable
	}
	return fmt.Errorf("%s: %w", msg, err)
}

// Register регистрирует нового пользователя
// Пароль проверяется политикой сложности до обращения к хранилищу
func (s *accountService) Register(ctx context.Context, req *entity.RegisterRequest) (*entity.AuthResponse, error) {
	if strings.TrimSpace(req.Email) == "" || strings.TrimSpace(req.Username) == "" {
		return nil, ErrValidation
	}

	if err := util.ValidatePasswordStrength(s.policy, req.Password); err != nil {
		logger.Debug().Err(err).Msg("registration rejected: weak password")
		return nil, fmt.Errorf("%w: %s", ErrWeakPassword, err.Error())
	}

	passwordHash, err := util.HashPassword(req.Password)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	now := time.Now()
	user := &entity.User{
		ID:                uuid.New(),
		Email:             util.NormalizeEmail(req.Email),
		Username:          req.Username,
		PasswordHash:      passwordHash,
		IsActive:          true,
		UserAge:           req.UserAge,
		AboutUser:         req.About,
		CreatedAt:         now,
		PasswordUpdatedAt: now,
	}

	if err := s.userRepo.Create(ctx, user); err != nil {
		switch {
		case errors.Is(err, repository.ErrDuplicateEmail):
			return nil, ErrDuplicateEmail
		case errors.Is(err, repository.ErrDuplicateUsername):
			return nil, ErrDuplicateUsername
		}
		return nil, mapStoreErr(err, "failed to create user")
	}

	metrics.AuthRegistrations.Inc()
	logger.Info().Str("user_id", user.ID.String()).Msg("user registered")

	return s.generateAuthResponse(ctx, user)
}

// CreateSuperuser создает учетную запись с максимальными правами
// Доступно только действующему суперпользователю, проверка в handler
func (s *accountService) CreateSuperuser(ctx context.Context, req *entity.RegisterRequest) (*entity.User, error) {
	if strings.TrimSpace(req.Email) == "" || strings.TrimSpace(req.Username) == "" {
		return nil, ErrValidation
	}

	if err := util.ValidatePasswordStrength(s.policy, req.Password); err != nil {
		return nil, fmt.Errorf("%w: %s", ErrWeakPassword, err.Error())
	}

	passwordHash, err := util.HashPassword(req.Password)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	now := time.Now()
	user := &entity.User{
		ID:                uuid.New(),
		Email:             util.NormalizeEmail(req.Email),
		Username:          req.Username,
		PasswordHash:      passwordHash,
		IsActive:          true,
		CreatedAt:         now,
		PasswordUpdatedAt: now,
	}

	if err := s.userRepo.Create(ctx, user); err != nil {
		switch {
		case errors.Is(err, repository.ErrDuplicateEmail):
			return nil, ErrDuplicateEmail
		case errors.Is(err, repository.ErrDuplicateUsername):
			return nil, ErrDuplicateUsername
		}
		return nil, mapStoreErr(err, "failed to create superuser")
	}

	// Служебные флаги выставляются отдельной записью поверх обычной учетной записи
	if err := s.userRepo.SetPrivileges(ctx, user.ID, true, true, true); err != nil {
		return nil, mapStoreErr(err, "failed to set superuser privileges")
	}
	user.IsStaff = true
	user.IsSuperuser = true
	user.IsVerified = true

	logger.Info().Str("user_id", user.ID.String()).Msg("superuser created")
	return user, nil
}

// Authenticate выполняет вход пользователя
// Неверный email, неверный пароль и деактивированная учетная запись
// дают одинаковый ответ, чтобы не раскрывать существование email
func (s *accountService) Authenticate(ctx context.Context, req *entity.LoginRequest) (*entity.AuthResponse, error) {
	user, err := s.userRepo.GetByEmail(ctx, util.NormalizeEmail(req.Email))
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			metrics.AuthLogins.WithLabelValues("failed").Inc()
			return nil, ErrInvalidCredentials
		}
		return nil, mapStoreErr(err, "failed to get user")
	}

	if !user.IsActive || !util.CheckPassword(req.Password, user.PasswordHash) {
		metrics.AuthLogins.WithLabelValues("failed").Inc()
		return nil, ErrInvalidCredentials
	}

	metrics.AuthLogins.WithLabelValues("success").Inc()
	return s.generateAuthResponse(ctx, user)
}

// RefreshTokens обновляет access и refresh токены
// Использованный refresh токен отзывается сразу
func (s *accountService) RefreshTokens(ctx context.Context, refreshToken string) (*entity.TokenPair, error) {
	storedToken, err := s.tokenRepo.GetRefreshToken(ctx, refreshToken)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrInvalidRefreshToken
		}
		return nil, mapStoreErr(err, "failed to get refresh token")
	}

	if err := s.tokenRepo.DeleteRefreshToken(ctx, refreshToken); err != nil {
		return nil, mapStoreErr(err, "failed to delete refresh token")
	}

	user, err := s.userRepo.GetByID(ctx, storedToken.UserID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, mapStoreErr(err, "failed to get user")
	}

	if !user.IsActive {
		return nil, ErrInvalidRefreshToken
	}

	return s.generateTokenPair(ctx, user)
}

// Logout отзывает refresh токен
func (s *accountService) Logout(ctx context.Context, refreshToken string) error {
	if err := s.tokenRepo.DeleteRefreshToken(ctx, refreshToken); err != nil {
		return mapStoreErr(err, "failed to delete refresh token")
	}
	return nil
}

// GetProfile получает профиль пользователя
func (s *accountService) GetProfile(ctx context.Context, userID uuid.UUID) (*entity.User, error) {
	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, mapStoreErr(err, "failed to get user")
	}
	return user, nil
}

// UpdateProfile обновляет изменяемые поля профиля
func (s *accountService) UpdateProfile(ctx context.Context, userID uuid.UUID, req *entity.UpdateUserRequest) (*entity.User, error) {
	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, mapStoreErr(err, "failed to get user")
	}

	if req.Username != "" {
		user.Username = req.Username
	}
	if req.UserAge != nil {
		user.UserAge = req.UserAge
	}
	if req.About != "" {
		user.AboutUser = req.About
	}

	if err := s.userRepo.Update(ctx, user); err != nil {
		if errors.Is(err, repository.ErrDuplicateUsername) {
			return nil, ErrDuplicateUsername
		}
		return nil, mapStoreErr(err, "failed to update user")
	}

	return user, nil
}

// ChangePassword меняет пароль после проверки старого
// Новый пароль проходит ту же политику сложности, что и при регистрации
func (s *accountService) ChangePassword(ctx context.Context, userID uuid.UUID, req *entity.ChangePasswordRequest) error {
	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrUserNotFound
		}
		return mapStoreErr(err, "failed to get user")
	}

	if !util.CheckPassword(req.OldPassword, user.PasswordHash) {
		return ErrInvalidCredentials
	}

	if err := util.ValidatePasswordStrength(s.policy, req.NewPassword); err != nil {
		return fmt.Errorf("%w: %s", ErrWeakPassword, err.Error())
	}

	passwordHash, err := util.HashPassword(req.NewPassword)
	if err != nil {
		return fmt.Errorf("failed to hash password: %w", err)
	}

	if err := s.userRepo.UpdatePassword(ctx, userID, passwordHash); err != nil {
		return mapStoreErr(err, "failed to update password")
	}

	// Все старые сессии закрываются при смене пароля
	if err := s.tokenRepo.DeleteUserRefreshTokens(ctx, userID); err != nil {
		logger.Warn().Err(err).Str("user_id", userID.String()).Msg("failed to revoke user sessions")
	}

	return nil
}

// DeleteAccount удаляет учетную запись и отзывает все её сессии
func (s *accountService) DeleteAccount(ctx context.Context, userID uuid.UUID) error {
	if err := s.userRepo.Delete(ctx, userID); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrUserNotFound
		}
		return mapStoreErr(err, "failed to delete user")
	}

	if err := s.tokenRepo.DeleteUserRefreshTokens(ctx, userID); err != nil {
		logger.Warn().Err(err).Str("user_id", userID.String()).Msg("failed to revoke user sessions")
	}

	return nil
}

// ListUsers получает всех пользователей, доступно только персоналу
func (s *accountService) ListUsers(ctx context.Context) ([]entity.User, error) {
	users, err := s.userRepo.List(ctx)
	if err != nil {
		return nil, mapStoreErr(err, "failed to list users")
	}
	return users, nil
}

// CreateAddress добавляет адрес пользователю
func (s *accountService) CreateAddress(ctx context.Context, userID uuid.UUID, req *entity.CreateAddressRequest) (*entity.Address, error) {
	address := &entity.Address{
		ID:         uuid.New(),
		UserID:     &userID,
		Street:     req.Street,
		City:       req.City,
		PostalCode: req.PostalCode,
		Country:    req.Country,
		CreatedAt:  time.Now(),
	}

	if err := s.addressRepo.Create(ctx, address); err != nil {
		return nil, mapStoreErr(err, "failed to create address")
	}

	return address, nil
}

// ListAddresses получает адреса пользователя
func (s *accountService) ListAddresses(ctx context.Context, userID uuid.UUID) ([]entity.Address, error) {
	addresses, err := s.addressRepo.ListByUser(ctx, userID)
	if err != nil {
		return nil, mapStoreErr(err, "failed to list addresses")
	}
	return addresses, nil
}

// DeleteAddress удаляет адрес после проверки принадлежности
func (s *accountService) DeleteAddress(ctx context.Context, userID uuid.UUID, addressID uuid.UUID) error {
	address, err := s.addressRepo.GetByID(ctx, addressID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrAddressNotFound
		}
		return mapStoreErr(err, "failed to get address")
	}

	if address.UserID == nil || *address.UserID != userID {
		return ErrUnauthorized
	}

	if err := s.addressRepo.Delete(ctx, addressID); err != nil {
		return mapStoreErr(err, "failed to delete address")
	}

	return nil
}

func (s *accountService) generateAuthResponse(ctx context.Context, user *entity.User) (*entity.AuthResponse, error) {
	tokens, err := s.generateTokenPair(ctx, user)
	if err != nil {
		return nil, err
	}

	return &entity.AuthResponse{
		User:   *user,
		Tokens: *tokens,
	}, nil
}

func (s *accountService) generateTokenPair(ctx context.Context, user *entity.User) (*entity.TokenPair, error) {
	accessToken, err := s.jwtManager.GenerateAccessToken(user.ID, user.Email, user.IsStaff, user.ShopOwner)
	if err != nil {
		return nil, fmt.Errorf("failed to generate access token: %w", err)
	}

	refreshToken, err := s.jwtManager.GenerateRefreshToken()
	if err != nil {
		return nil, fmt.Errorf("failed to generate refresh token: %w", err)
	}

	expiresAt := time.Now().Add(s.jwtManager.GetRefreshTokenDuration())
	if err := s.tokenRepo.SaveRefreshToken(ctx, user.ID, refreshToken, expiresAt); err != nil {
		return nil, mapStoreErr(err, "failed to save refresh token")
	}

	return &entity.TokenPair{
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
		ExpiresIn:    int64(s.jwtManager.GetAccessTokenDuration().Seconds()),
	}, nil
}
