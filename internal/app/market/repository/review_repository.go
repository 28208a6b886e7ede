package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"ashtraymarket/internal/app/market/entity"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type reviewRepository struct {
	reviews *mongo.Collection
	ratings *mongo.Collection
}

// NewReviewRepository создает новый репозиторий отзывов.
// Уникальные индексы создаются сразу: тройка (user_id, product_id, shop_id)
// для отзывов и пара (review_id, user_id) для голосов. Отсутствующая цель
// отзыва хранится пустой строкой, поэтому тройной индекс работает и для
// отзывов только о товаре или только о магазине
func NewReviewRepository(db *mongo.Database) (ReviewRepository, error) {
	repo := &reviewRepository{
		reviews: db.Collection("reviews"),
		ratings: db.Collection("review_ratings"),
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := repo.ensureIndexes(ctx); err != nil {
		return nil, err
	}

	return repo, nil
}

func (r *reviewRepository) ensureIndexes(ctx context.Context) error {
	reviewIndexes := []mongo.IndexModel{
		{
			Keys: bson.D{
				{Key: "user_id", Value: 1},
				{Key: "product_id", Value: 1},
				{Key: "shop_id", Value: 1},
			},
			Options: options.Index().SetName("user_target_unique_idx").SetUnique(true),
		},
		{
			Keys:    bson.D{{Key: "product_id", Value: 1}},
			Options: options.Index().SetName("product_id_idx"),
		},
		{
			Keys:    bson.D{{Key: "shop_id", Value: 1}},
			Options: options.Index().SetName("shop_id_idx"),
		},
	}

	if _, err := r.reviews.Indexes().CreateMany(ctx, reviewIndexes); err != nil {
		return fmt.Errorf("failed to create review indexes: %w", err)
	}

	ratingIndex := mongo.IndexModel{
		Keys: bson.D{
			{Key: "review_id", Value: 1},
			{Key: "user_id", Value: 1},
		},
		Options: options.Index().SetName("review_user_unique_idx").SetUnique(true),
	}

	if _, err := r.ratings.Indexes().CreateOne(ctx, ratingIndex); err != nil {
		return fmt.Errorf("failed to create rating index: %w", err)
	}

	return nil
}

// Create создает новый отзыв
func (r *reviewRepository) Create(ctx context.Context, review *entity.Review) error {
	review.CreatedAt = time.Now()
	review.UpdatedAt = time.Now()

	result, err := r.reviews.InsertOne(ctx, review)
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return ErrDuplicateReview
		}
		return mapUnavailable(fmt.Errorf("failed to create review: %w", err))
	}

	if oid, ok := result.InsertedID.(primitive.ObjectID); ok {
		review.ID = oid
	}

	return nil
}

// GetByID получает отзыв по ID
func (r *reviewRepository) GetByID(ctx context.Context, id string) (*entity.Review, error) {
	objectID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, ErrNotFound
	}

	var review entity.Review
	err = r.reviews.FindOne(ctx, bson.M{"_id": objectID}).Decode(&review)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrNotFound
		}
		return nil, mapUnavailable(fmt.Errorf("failed to get review: %w", err))
	}

	return &review, nil
}

// ListByProduct получает все отзывы о товаре от новых к старым
func (r *reviewRepository) ListByProduct(ctx context.Context, productID string) ([]entity.Review, error) {
	return r.list(ctx, bson.M{"product_id": productID})
}

// ListByShop получает все отзывы о магазине от новых к старым
func (r *reviewRepository) ListByShop(ctx context.Context, shopID string) ([]entity.Review, error) {
	return r.list(ctx, bson.M{"shop_id": shopID})
}

func (r *reviewRepository) list(ctx context.Context, filter bson.M) ([]entity.Review, error) {
	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}})

	cursor, err := r.reviews.Find(ctx, filter, opts)
	if err != nil {
		return nil, mapUnavailable(fmt.Errorf("failed to find reviews: %w", err))
	}
	defer cursor.Close(ctx)

	var reviews []entity.Review
	if err := cursor.All(ctx, &reviews); err != nil {
		return nil, fmt.Errorf("failed to decode reviews: %w", err)
	}

	return reviews, nil
}

// Update обновляет текст, оценку и изображения отзыва
func (r *reviewRepository) Update(ctx context.Context, review *entity.Review) error {
	review.UpdatedAt = time.Now()

	filter := bson.M{"_id": review.ID}
	update := bson.M{
		"$set": bson.M{
			"rating":     review.Rating,
			"comment":    review.Comment,
			"images":     review.Images,
			"updated_at": review.UpdatedAt,
		},
	}

	result, err := r.reviews.UpdateOne(ctx, filter, update)
	if err != nil {
		return mapUnavailable(fmt.Errorf("failed to update review: %w", err))
	}

	if result.MatchedCount == 0 {
		return ErrNotFound
	}

	return nil
}

// Delete удаляет отзыв и все голоса о нём
func (r *reviewRepository) Delete(ctx context.Context, id string) error {
	objectID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return ErrNotFound
	}

	result, err := r.reviews.DeleteOne(ctx, bson.M{"_id": objectID})
	if err != nil {
		return mapUnavailable(fmt.Errorf("failed to delete review: %w", err))
	}

	if result.DeletedCount == 0 {
		return ErrNotFound
	}

	if _, err := r.ratings.DeleteMany(ctx, bson.M{"review_id": id}); err != nil {
		return mapUnavailable(fmt.Errorf("failed to delete review ratings: %w", err))
	}

	return nil
}

// CreateRating сохраняет голос пользователя о полезности отзыва
func (r *reviewRepository) CreateRating(ctx context.Context, rating *entity.ReviewRating) error {
	rating.CreatedAt = time.Now()

	result, err := r.ratings.InsertOne(ctx, rating)
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return ErrDuplicateVote
		}
		return mapUnavailable(fmt.Errorf("failed to create review rating: %w", err))
	}

	if oid, ok := result.InsertedID.(primitive.ObjectID); ok {
		rating.ID = oid
	}

	return nil
}

// AverageForProduct считает среднюю оценку товара по всем отзывам
func (r *reviewRepository) AverageForProduct(ctx context.Context, productID string) (*entity.RatingSummary, error) {
	return r.average(ctx, bson.M{"product_id": productID})
}

// AverageForShop считает среднюю оценку магазина по всем отзывам
func (r *reviewRepository) AverageForShop(ctx context.Context, shopID string) (*entity.RatingSummary, error) {
	return r.average(ctx, bson.M{"shop_id": shopID})
}

func (r *reviewRepository) average(ctx context.Context, match bson.M) (*entity.RatingSummary, error) {
	pipeline := mongo.Pipeline{
		{{Key: "$match", Value: match}},
		{{Key: "$group", Value: bson.M{
			"_id":     nil,
			"average": bson.M{"$avg": "$rating"},
			"count":   bson.M{"$sum": 1},
		}}},
	}

	cursor, err := r.reviews.Aggregate(ctx, pipeline)
	if err != nil {
		return nil, mapUnavailable(fmt.Errorf("failed to aggregate ratings: %w", err))
	}
	defer cursor.Close(ctx)

	var results []entity.RatingSummary
	if err := cursor.All(ctx, &results); err != nil {
		return nil, fmt.Errorf("failed to decode rating summary: %w", err)
	}

	if len(results) == 0 {
		return &entity.RatingSummary{}, nil
	}

	return &results[0], nil
}
