package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"ashtraymarket/internal/app/market/entity"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

type redisTokenRepository struct {
	client *redis.Client
}

// NewRedisTokenRepository создает новый Redis репозиторий для токенов
func NewRedisTokenRepository(client *redis.Client) TokenRepository {
	return &redisTokenRepository{client: client}
}

// SaveRefreshToken сохраняет refresh токен в Redis с TTL
func (r *redisTokenRepository) SaveRefreshToken(ctx context.Context, userID uuid.UUID, token string, expiresAt time.Time) error {
	// Ключ формата: refresh_token:<token>
	key := fmt.Sprintf("refresh_token:%s", token)

	ttl := time.Until(expiresAt)
	if ttl <= 0 {
		return fmt.Errorf("token already expired")
	}

	err := r.client.Set(ctx, key, userID.String(), ttl).Err()
	if err != nil {
		return mapUnavailable(fmt.Errorf("failed to save refresh token to Redis: %w", err))
	}

	// Множество токенов пользователя нужно для отзыва всех его сессий разом
	userTokensKey := fmt.Sprintf("user_tokens:%s", userID.String())
	err = r.client.SAdd(ctx, userTokensKey, token).Err()
	if err != nil {
		return mapUnavailable(fmt.Errorf("failed to add token to user tokens set: %w", err))
	}

	r.client.Expire(ctx, userTokensKey, ttl)

	return nil
}

// GetRefreshToken получает информацию о refresh токене из Redis
func (r *redisTokenRepository) GetRefreshToken(ctx context.Context, token string) (*entity.RefreshToken, error) {
	key := fmt.Sprintf("refresh_token:%s", token)

	userIDStr, err := r.client.Get(ctx, key).Result()
	if errors.Is(err, redis.Nil) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, mapUnavailable(fmt.Errorf("failed to get refresh token from Redis: %w", err))
	}

	userID, err := uuid.Parse(userIDStr)
	if err != nil {
		return nil, fmt.Errorf("invalid user ID in Redis: %w", err)
	}

	ttl, err := r.client.TTL(ctx, key).Result()
	if err != nil {
		return nil, mapUnavailable(fmt.Errorf("failed to get token TTL: %w", err))
	}

	return &entity.RefreshToken{
		UserID:    userID,
		Token:     token,
		ExpiresAt: time.Now().Add(ttl),
		CreatedAt: time.Now(), // Точное время создания недоступно из Redis
	}, nil
}

// DeleteRefreshToken удаляет конкретный refresh токен из Redis
func (r *redisTokenRepository) DeleteRefreshToken(ctx context.Context, token string) error {
	key := fmt.Sprintf("refresh_token:%s", token)

	// Сначала получаем userID, чтобы удалить токен из множества
	userIDStr, err := r.client.Get(ctx, key).Result()
	if err != nil && !errors.Is(err, redis.Nil) {
		return mapUnavailable(fmt.Errorf("failed to get user ID for token: %w", err))
	}

	err = r.client.Del(ctx, key).Err()
	if err != nil {
		return mapUnavailable(fmt.Errorf("failed to delete refresh token from Redis: %w", err))
	}

	if userIDStr != "" {
		userTokensKey := fmt.Sprintf("user_tokens:%s", userIDStr)
		r.client.SRem(ctx, userTokensKey, token)
	}

	return nil
}

// DeleteUserRefreshTokens удаляет все refresh токены пользователя
func (r *redisTokenRepository) DeleteUserRefreshTokens(ctx context.Context, userID uuid.UUID) error {
	userTokensKey := fmt.Sprintf("user_tokens:%s", userID.String())

	tokens, err := r.client.SMembers(ctx, userTokensKey).Result()
	if err != nil {
		return mapUnavailable(fmt.Errorf("failed to get user tokens: %w", err))
	}

	for _, token := range tokens {
		key := fmt.Sprintf("refresh_token:%s", token)
		r.client.Del(ctx, key)
	}

	err = r.client.Del(ctx, userTokensKey).Err()
	if err != nil {
		return mapUnavailable(fmt.Errorf("failed to delete user tokens set: %w", err))
	}

	return nil
}
