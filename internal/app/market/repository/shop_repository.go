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

type shopRepository struct {
	db *pgxpool.Pool
}

// NewShopRepository создает новый репозиторий магазинов
func NewShopRepository(db *pgxpool.Pool) ShopRepository {
	return &shopRepository{db: db}
}

const shopColumns = `id, name, owner_id, shop_image, shop_logo, identity_colors,
	selling_categories, best_sellers, views, monthly_sold_items,
	profit_this_month, profit_this_year, about_shop, physical_address,
	is_verified, is_active, created_at`

func scanShop(row pgx.Row) (*entity.Shop, error) {
	var shop entity.Shop
	err := row.Scan(
		&shop.ID,
		&shop.Name,
		&shop.OwnerID,
		&shop.ShopImage,
		&shop.ShopLogo,
		&shop.IdentityColors,
		&shop.SellingCategories,
		&shop.BestSellers,
		&shop.Views,
		&shop.MonthlySoldItems,
		&shop.ProfitThisMonth,
		&shop.ProfitThisYear,
		&shop.AboutShop,
		&shop.PhysicalAddress,
		&shop.IsVerified,
		&shop.IsActive,
		&shop.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &shop, nil
}

func mapShopConstraint(err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == "23505" {
		if pgErr.ConstraintName == "shops_name_key" {
			return ErrDuplicateShopName
		}
	}
	return nil
}

// CreateWithOwner вставляет магазин и переводит флаг shop_owner владельца в true
// одной транзакцией. Строка пользователя блокируется FOR UPDATE, поэтому два
// конкурентных вызова для одного владельца сериализуются: второй увидит флаг
// уже выставленным и получит ErrOwnerHasShop. Обе записи фиксируются вместе
// или не фиксируются вовсе
func (r *shopRepository) CreateWithOwner(ctx context.Context, shop *entity.Shop) error {
	tx, err := r.db.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return mapUnavailable(fmt.Errorf("failed to begin transaction: %w", err))
	}
	defer tx.Rollback(ctx)

	var alreadyOwner bool
	err = tx.QueryRow(ctx,
		`SELECT shop_owner FROM users WHERE id = $1 FOR UPDATE`,
		shop.OwnerID,
	).Scan(&alreadyOwner)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return ErrNotFound
		}
		return mapUnavailable(fmt.Errorf("failed to lock owner row: %w", err))
	}

	if alreadyOwner {
		return ErrOwnerHasShop
	}

	_, err = tx.Exec(ctx,
		`INSERT INTO shops (`+shopColumns+`)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17)`,
		shop.ID, shop.Name, shop.OwnerID, shop.ShopImage, shop.ShopLogo,
		shop.IdentityColors, shop.SellingCategories, shop.BestSellers,
		shop.Views, shop.MonthlySoldItems, shop.ProfitThisMonth, shop.ProfitThisYear,
		shop.AboutShop, shop.PhysicalAddress, shop.IsVerified, shop.IsActive, shop.CreatedAt,
	)
	if err != nil {
		if mapped := mapShopConstraint(err); mapped != nil {
			return mapped
		}
		return mapUnavailable(fmt.Errorf("failed to insert shop: %w", err))
	}

	_, err = tx.Exec(ctx,
		`UPDATE users SET shop_owner = true WHERE id = $1`,
		shop.OwnerID,
	)
	if err != nil {
		return mapUnavailable(fmt.Errorf("failed to set shop owner flag: %w", err))
	}

	if err := tx.Commit(ctx); err != nil {
		return mapUnavailable(fmt.Errorf("failed to commit transaction: %w", err))
	}

	return nil
}

// GetByID получает магазин по ID
func (r *shopRepository) GetByID(ctx context.Context, id uuid.UUID) (*entity.Shop, error) {
	query := `SELECT ` + shopColumns + ` FROM shops WHERE id = $1`

	shop, err := scanShop(r.db.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, mapUnavailable(fmt.Errorf("failed to get shop by id: %w", err))
	}

	return shop, nil
}

// GetByOwner получает магазин по владельцу
func (r *shopRepository) GetByOwner(ctx context.Context, ownerID uuid.UUID) (*entity.Shop, error) {
	query := `SELECT ` + shopColumns + ` FROM shops WHERE owner_id = $1`

	shop, err := scanShop(r.db.QueryRow(ctx, query, ownerID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, mapUnavailable(fmt.Errorf("failed to get shop by owner: %w", err))
	}

	return shop, nil
}

// List получает список всех магазинов
func (r *shopRepository) List(ctx context.Context) ([]entity.Shop, error) {
	query := `SELECT ` + shopColumns + ` FROM shops ORDER BY created_at DESC`

	rows, err := r.db.Query(ctx, query)
	if err != nil {
		return nil, mapUnavailable(fmt.Errorf("failed to list shops: %w", err))
	}
	defer rows.Close()

	var shops []entity.Shop
	for rows.Next() {
		shop, err := scanShop(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan shop: %w", err)
		}
		shops = append(shops, *shop)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating shops: %w", err)
	}

	return shops, nil
}

// Update обновляет изменяемые поля магазина
// Инварианты (лимит цветов) проверяются в service layer до вызова
func (r *shopRepository) Update(ctx context.Context, shop *entity.Shop) error {
	query := `
		UPDATE shops
		SET shop_image = $1, shop_logo = $2, identity_colors = $3,
		    selling_categories = $4, about_shop = $5, physical_address = $6,
		    is_verified = $7, is_active = $8
		WHERE id = $9
	`

	result, err := r.db.Exec(
		ctx, query,
		shop.ShopImage, shop.ShopLogo, shop.IdentityColors,
		shop.SellingCategories, shop.AboutShop, shop.PhysicalAddress,
		shop.IsVerified, shop.IsActive, shop.ID,
	)

	if err != nil {
		return mapUnavailable(fmt.Errorf("failed to update shop: %w", err))
	}

	if result.RowsAffected() == 0 {
		return ErrNotFound
	}

	return nil
}

// Delete удаляет магазин и сбрасывает флаг владельца одной транзакцией
// Товары магазина удаляются каскадно по внешнему ключу
func (r *shopRepository) Delete(ctx context.Context, id uuid.UUID) error {
	tx, err := r.db.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return mapUnavailable(fmt.Errorf("failed to begin transaction: %w", err))
	}
	defer tx.Rollback(ctx)

	var ownerID uuid.UUID
	err = tx.QueryRow(ctx, `DELETE FROM shops WHERE id = $1 RETURNING owner_id`, id).Scan(&ownerID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return ErrNotFound
		}
		return mapUnavailable(fmt.Errorf("failed to delete shop: %w", err))
	}

	_, err = tx.Exec(ctx, `UPDATE users SET shop_owner = false WHERE id = $1`, ownerID)
	if err != nil {
		return mapUnavailable(fmt.Errorf("failed to clear shop owner flag: %w", err))
	}

	if err := tx.Commit(ctx); err != nil {
		return mapUnavailable(fmt.Errorf("failed to commit transaction: %w", err))
	}

	return nil
}

// IncrementViews увеличивает счётчик просмотров магазина
func (r *shopRepository) IncrementViews(ctx context.Context, id uuid.UUID) error {
	result, err := r.db.Exec(ctx, `UPDATE shops SET views = views + 1 WHERE id = $1`, id)
	if err != nil {
		return mapUnavailable(fmt.Errorf("failed to increment shop views: %w", err))
	}

	if result.RowsAffected() == 0 {
		return ErrNotFound
	}

	return nil
}

// AddSales увеличивает счётчики продаж и прибыли за месяц и год
func (r *shopRepository) AddSales(ctx context.Context, id uuid.UUID, items int64, amount float64) error {
	query := `
		UPDATE shops
		SET monthly_sold_items = monthly_sold_items + $1,
		    profit_this_month = profit_this_month + $2,
		    profit_this_year = profit_this_year + $2
		WHERE id = $3
	`

	result, err := r.db.Exec(ctx, query, items, amount, id)
	if err != nil {
		return mapUnavailable(fmt.Errorf("failed to add shop sales: %w", err))
	}

	if result.RowsAffected() == 0 {
		return ErrNotFound
	}

	return nil
}

// SetBestSellers обновляет список товаров-лидеров продаж
func (r *shopRepository) SetBestSellers(ctx context.Context, id uuid.UUID, productIDs []string) error {
	result, err := r.db.Exec(ctx, `UPDATE shops SET best_sellers = $1 WHERE id = $2`, productIDs, id)
	if err != nil {
		return mapUnavailable(fmt.Errorf("failed to set best sellers: %w", err))
	}

	if result.RowsAffected() == 0 {
		return ErrNotFound
	}

	return nil
}

// ResetMonthlyCounters обнуляет месячные счётчики всех магазинов
// Вызывается планировщиком первого числа каждого месяца
func (r *shopRepository) ResetMonthlyCounters(ctx context.Context) (int64, error) {
	query := `
		UPDATE shops
		SET monthly_sold_items = 0, profit_this_month = 0
		WHERE monthly_sold_items <> 0 OR profit_this_month <> 0
	`

	result, err := r.db.Exec(ctx, query)
	if err != nil {
		return 0, mapUnavailable(fmt.Errorf("failed to reset monthly counters: %w", err))
	}

	return result.RowsAffected(), nil
}
