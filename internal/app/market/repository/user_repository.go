package repository

import (
	"context"
	"errors"
	"fmt"

	"ashtraymarket/internal/app/market/entity"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

type userRepository struct {
	db *pgxpool.Pool
}

// NewUserRepository создает новый репозиторий пользователей
func NewUserRepository(db *pgxpool.Pool) UserRepository {
	return &userRepository{db: db}
}

const userColumns = `id, email, username, password_hash, is_active, is_staff, is_superuser,
	is_verified, shop_owner, user_image, user_age, about_user,
	orders_completed, orders_now, created_at, password_updated_at`

func scanUser(row pgx.Row) (*entity.User, error) {
	var user entity.User
	err := row.Scan(
		&user.ID,
		&user.Email,
		&user.Username,
		&user.PasswordHash,
		&user.IsActive,
		&user.IsStaff,
		&user.IsSuperuser,
		&user.IsVerified,
		&user.ShopOwner,
		&user.UserImage,
		&user.UserAge,
		&user.AboutUser,
		&user.OrdersCompleted,
		&user.OrdersNow,
		&user.CreatedAt,
		&user.PasswordUpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &user, nil
}

// mapUserConstraint сопоставляет нарушение уникальности со стандартной ошибкой
func mapUserConstraint(err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == "23505" {
		switch pgErr.ConstraintName {
		case "users_email_key":
			return ErrDuplicateEmail
		case "users_username_key":
			return ErrDuplicateUsername
		}
	}
	return nil
}

// Create создает нового пользователя
func (r *userRepository) Create(ctx context.Context, user *entity.User) error {
	query := `
		INSERT INTO users (` + userColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16)
	`

	_, err := r.db.Exec(
		ctx, query,
		user.ID, user.Email, user.Username, user.PasswordHash,
		user.IsActive, user.IsStaff, user.IsSuperuser, user.IsVerified, user.ShopOwner,
		user.UserImage, user.UserAge, user.AboutUser,
		user.OrdersCompleted, user.OrdersNow, user.CreatedAt, user.PasswordUpdatedAt,
	)

	if err != nil {
		if mapped := mapUserConstraint(err); mapped != nil {
			return mapped
		}
		return mapUnavailable(fmt.Errorf("failed to create user: %w", err))
	}

	return nil
}

// GetByID получает пользователя по ID
func (r *userRepository) GetByID(ctx context.Context, id uuid.UUID) (*entity.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE id = $1`

	user, err := scanUser(r.db.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, mapUnavailable(fmt.Errorf("failed to get user by id: %w", err))
	}

	return user, nil
}

// GetByEmail получает пользователя по email
// Ожидает уже нормализованный email
func (r *userRepository) GetByEmail(ctx context.Context, email string) (*entity.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE email = $1`

	user, err := scanUser(r.db.QueryRow(ctx, query, email))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, mapUnavailable(fmt.Errorf("failed to get user by email: %w", err))
	}

	return user, nil
}

// Update обновляет профиль пользователя
func (r *userRepository) Update(ctx context.Context, user *entity.User) error {
	query := `
		UPDATE users
		SET username = $1, user_image = $2, user_age = $3, about_user = $4, is_active = $5
		WHERE id = $6
	`

	result, err := r.db.Exec(
		ctx, query,
		user.Username, user.UserImage, user.UserAge, user.AboutUser, user.IsActive, user.ID,
	)

	if err != nil {
		if mapped := mapUserConstraint(err); mapped != nil {
			return mapped
		}
		return mapUnavailable(fmt.Errorf("failed to update user: %w", err))
	}

	if result.RowsAffected() == 0 {
		return ErrNotFound
	}

	return nil
}

// UpdatePassword обновляет хэш пароля и отметку времени смены
func (r *userRepository) UpdatePassword(ctx context.Context, id uuid.UUID, passwordHash string) error {
	query := `UPDATE users SET password_hash = $1, password_updated_at = now() WHERE id = $2`

	result, err := r.db.Exec(ctx, query, passwordHash, id)
	if err != nil {
		return mapUnavailable(fmt.Errorf("failed to update password: %w", err))
	}

	if result.RowsAffected() == 0 {
		return ErrNotFound
	}

	return nil
}

// SetPrivileges выставляет служебные флаги (для createSuperuser)
func (r *userRepository) SetPrivileges(ctx context.Context, id uuid.UUID, isStaff, isSuperuser, isVerified bool) error {
	query := `UPDATE users SET is_staff = $1, is_superuser = $2, is_verified = $3 WHERE id = $4`

	result, err := r.db.Exec(ctx, query, isStaff, isSuperuser, isVerified, id)
	if err != nil {
		return mapUnavailable(fmt.Errorf("failed to set privileges: %w", err))
	}

	if result.RowsAffected() == 0 {
		return ErrNotFound
	}

	return nil
}

// Delete удаляет пользователя
// Адреса и заказы удаляются каскадно по внешним ключам
func (r *userRepository) Delete(ctx context.Context, id uuid.UUID) error {
	query := `DELETE FROM users WHERE id = $1`

	result, err := r.db.Exec(ctx, query, id)
	if err != nil {
		return mapUnavailable(fmt.Errorf("failed to delete user: %w", err))
	}

	if result.RowsAffected() == 0 {
		return ErrNotFound
	}

	return nil
}

// List получает список всех пользователей
func (r *userRepository) List(ctx context.Context) ([]entity.User, error) {
	query := `SELECT ` + userColumns + ` FROM users ORDER BY created_at DESC`

	rows, err := r.db.Query(ctx, query)
	if err != nil {
		return nil, mapUnavailable(fmt.Errorf("failed to list users: %w", err))
	}
	defer rows.Close()

	var users []entity.User
	for rows.Next() {
		user, err := scanUser(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan user: %w", err)
		}
		users = append(users, *user)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating users: %w", err)
	}

	return users, nil
}

// ReconcileShopOwnerFlags пересчитывает shop_owner по фактическим строкам shops
// Используется фоновой проверкой консистентности: флаг - производная от таблицы shops
func (r *userRepository) ReconcileShopOwnerFlags(ctx context.Context) (int64, error) {
	query := `
		UPDATE users
		SET shop_owner = EXISTS (SELECT 1 FROM shops WHERE shops.owner_id = users.id)
		WHERE shop_owner <> EXISTS (SELECT 1 FROM shops WHERE shops.owner_id = users.id)
	`

	result, err := r.db.Exec(ctx, query)
	if err != nil {
		return 0, mapUnavailable(fmt.Errorf("failed to reconcile shop owner flags: %w", err))
	}

	return result.RowsAffected(), nil
}

// AdjustOrderCounters изменяет счётчики активных и завершённых заказов
func (r *userRepository) AdjustOrderCounters(ctx context.Context, id uuid.UUID, nowDelta, completedDelta int) error {
	query := `
		UPDATE users
		SET orders_now = GREATEST(orders_now + $1, 0),
		    orders_completed = GREATEST(orders_completed + $2, 0)
		WHERE id = $3
	`

	result, err := r.db.Exec(ctx, query, nowDelta, completedDelta, id)
	if err != nil {
		return mapUnavailable(fmt.Errorf("failed to adjust order counters: %w", err))
	}

	if result.RowsAffected() == 0 {
		return ErrNotFound
	}

	return nil
}
