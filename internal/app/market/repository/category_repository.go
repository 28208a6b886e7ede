package repository

import (
	"context"
	"errors"
	"fmt"

	"ashtraymarket/internal/app/market/entity"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"
)

type categoryRepository struct {
	db *gorm.DB
}

// NewCategoryRepository создает новый репозиторий категорий
func NewCategoryRepository(db *gorm.DB) CategoryRepository {
	return &categoryRepository{db: db}
}

func mapCategoryConstraint(err error) error {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return ErrDuplicateCategory
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == "23505" {
		return ErrDuplicateCategory
	}
	return nil
}

// Create создает новую категорию. Имя уникально без учёта регистра:
// уникальный индекс построен по lower(name)
func (r *categoryRepository) Create(ctx context.Context, category *entity.Category) error {
	err := r.db.WithContext(ctx).Create(category).Error
	if err != nil {
		if mapped := mapCategoryConstraint(err); mapped != nil {
			return mapped
		}
		return mapUnavailable(fmt.Errorf("failed to create category: %w", err))
	}
	return nil
}

// GetByID получает категорию по ID
func (r *categoryRepository) GetByID(ctx context.Context, id uuid.UUID) (*entity.Category, error) {
	var category entity.Category
	result := r.db.WithContext(ctx).First(&category, "id = ?", id)

	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, mapUnavailable(result.Error)
	}

	return &category, nil
}

// GetAll получает все категории
func (r *categoryRepository) GetAll(ctx context.Context) ([]entity.Category, error) {
	var categories []entity.Category
	result := r.db.WithContext(ctx).Order("name").Find(&categories)

	if result.Error != nil {
		return nil, mapUnavailable(result.Error)
	}

	return categories, nil
}

// Update обновляет категорию
func (r *categoryRepository) Update(ctx context.Context, category *entity.Category) error {
	result := r.db.WithContext(ctx).Model(category).Where("id = ?", category.ID).Updates(map[string]interface{}{
		"name":        category.Name,
		"description": category.Description,
		"image":       category.Image,
	})

	if result.Error != nil {
		if mapped := mapCategoryConstraint(result.Error); mapped != nil {
			return mapped
		}
		return mapUnavailable(result.Error)
	}

	if result.RowsAffected == 0 {
		return ErrNotFound
	}

	return nil
}

// Delete удаляет категорию
func (r *categoryRepository) Delete(ctx context.Context, id uuid.UUID) error {
	result := r.db.WithContext(ctx).Delete(&entity.Category{}, "id = ?", id)

	if result.Error != nil {
		return mapUnavailable(result.Error)
	}

	if result.RowsAffected == 0 {
		return ErrNotFound
	}

	return nil
}
