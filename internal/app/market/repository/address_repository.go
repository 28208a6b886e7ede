package repository

import (
	"context"
	"errors"
	"fmt"

	"ashtraymarket/internal/app/market/entity"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type addressRepository struct {
	db *pgxpool.Pool
}

// NewAddressRepository создает новый репозиторий адресов
func NewAddressRepository(db *pgxpool.Pool) AddressRepository {
	return &addressRepository{db: db}
}

const addressColumns = `id, user_id, shop_id, street, city, postal_code, country, created_at`

func scanAddress(row pgx.Row) (*entity.Address, error) {
	var addr entity.Address
	err := row.Scan(
		&addr.ID,
		&addr.UserID,
		&addr.ShopID,
		&addr.Street,
		&addr.City,
		&addr.PostalCode,
		&addr.Country,
		&addr.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &addr, nil
}

// Create сохраняет адрес. Владелец (user_id или shop_id) задается в entity
func (r *addressRepository) Create(ctx context.Context, address *entity.Address) error {
	query := `
		INSERT INTO addresses (` + addressColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`

	_, err := r.db.Exec(
		ctx, query,
		address.ID, address.UserID, address.ShopID,
		address.Street, address.City, address.PostalCode, address.Country,
		address.CreatedAt,
	)

	if err != nil {
		return mapUnavailable(fmt.Errorf("failed to create address: %w", err))
	}

	return nil
}

// GetByID получает адрес по ID
func (r *addressRepository) GetByID(ctx context.Context, id uuid.UUID) (*entity.Address, error) {
	query := `SELECT ` + addressColumns + ` FROM addresses WHERE id = $1`

	addr, err := scanAddress(r.db.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, mapUnavailable(fmt.Errorf("failed to get address by id: %w", err))
	}

	return addr, nil
}

// ListByUser получает адреса пользователя
func (r *addressRepository) ListByUser(ctx context.Context, userID uuid.UUID) ([]entity.Address, error) {
	return r.list(ctx, `SELECT `+addressColumns+` FROM addresses WHERE user_id = $1 ORDER BY created_at`, userID)
}

// ListByShop получает адреса магазина
func (r *addressRepository) ListByShop(ctx context.Context, shopID uuid.UUID) ([]entity.Address, error) {
	return r.list(ctx, `SELECT `+addressColumns+` FROM addresses WHERE shop_id = $1 ORDER BY created_at`, shopID)
}

func (r *addressRepository) list(ctx context.Context, query string, ownerID uuid.UUID) ([]entity.Address, error) {
	rows, err := r.db.Query(ctx, query, ownerID)
	if err != nil {
		return nil, mapUnavailable(fmt.Errorf("failed to list addresses: %w", err))
	}
	defer rows.Close()

	var addresses []entity.Address
	for rows.Next() {
		addr, err := scanAddress(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan address: %w", err)
		}
		addresses = append(addresses, *addr)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating addresses: %w", err)
	}

	return addresses, nil
}

// Delete удаляет адрес
func (r *addressRepository) Delete(ctx context.Context, id uuid.UUID) error {
	result, err := r.db.Exec(ctx, `DELETE FROM addresses WHERE id = $1`, id)
	if err != nil {
		return mapUnavailable(fmt.Errorf("failed to delete address: %w", err))
	}

	if result.RowsAffected() == 0 {
		return ErrNotFound
	}

	return nil
}
