package service

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"ashtraymarket/internal/app/market/entity"
	"ashtraymarket/internal/app/market/repository"
	"ashtraymarket/pkg/logger"
	"ashtraymarket/pkg/metrics"

	"github.com/google/uuid"
)

// reviewService обрабатывает бизнес-логику отзывов
type reviewService struct {
	reviewRepo  repository.ReviewRepository
	producer    MessagePublisher
	reviewTopic string
}

// NewReviewService создает новый сервис отзывов
func NewReviewService(reviewRepo repository.ReviewRepository, producer MessagePublisher, reviewTopic string) ReviewService {
	return &reviewService{
		reviewRepo:  reviewRepo,
		producer:    producer,
		reviewTopic: reviewTopic,
	}
}

func validRating(rating int) bool {
	return rating >= 1 && rating <= 5
}

// CreateReview создает отзыв о товаре и/или магазине.
// Хотя бы одна цель обязательна; на одну цель от пользователя
// принимается только один отзыв
func (s *reviewService) CreateReview(ctx context.Context, userID uuid.UUID, req *entity.CreateReviewRequest) (*entity.Review, error) {
	if req.ProductID == "" && req.ShopID == "" {
		return nil, ErrValidation
	}

	if !validRating(req.Rating) {
		metrics.RecordInvariantViolation("rating_range")
		return nil, ErrRatingOutOfRange
	}

	review := &entity.Review{
		UserID:    userID.String(),
		ProductID: req.ProductID,
		ShopID:    req.ShopID,
		Rating:    req.Rating,
		Comment:   req.Comment,
		Images:    req.Images,
	}

	if err := s.reviewRepo.Create(ctx, review); err != nil {
		if errors.Is(err, repository.ErrDuplicateReview) {
			metrics.RecordInvariantViolation("duplicate_review")
			return nil, ErrDuplicateReview
		}
		return nil, mapStoreErr(err, "failed to create review")
	}

	metrics.ReviewsCreated.Inc()
	s.publishReviewEvent(ctx, review)
	logger.Info().
		Str("review_id", review.ID.Hex()).
		Str("user_id", review.UserID).
		Msg("review created")

	return review, nil
}

func (s *reviewService) publishReviewEvent(ctx context.Context, review *entity.Review) {
	if s.producer == nil {
		return
	}

	event := entity.ReviewEvent{
		EventType: "REVIEW_CREATED",
		ReviewID:  review.ID.Hex(),
		ProductID: review.ProductID,
		ShopID:    review.ShopID,
		UserID:    review.UserID,
		Rating:    review.Rating,
		Timestamp: time.Now(),
	}

	payload, err := json.Marshal(event)
	if err != nil {
		logger.Error().Err(err).Msg("failed to marshal review event")
		return
	}

	if err := s.producer.PublishMessage(ctx, review.ID.Hex(), payload); err != nil {
		metrics.RecordKafkaError("marketplace", s.reviewTopic, "produce")
		logger.Error().Err(err).Msg("failed to publish review event")
		return
	}

	metrics.RecordKafkaMessageProduced("marketplace", s.reviewTopic)
}

// GetReview получает отзыв по ID
func (s *reviewService) GetReview(ctx context.Context, id string) (*entity.Review, error) {
	review, err := s.reviewRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrReviewNotFound
		}
		return nil, mapStoreErr(err, "failed to get review")
	}
	return review, nil
}

// ListProductReviews получает отзывы о товаре
func (s *reviewService) ListProductReviews(ctx context.Context, productID string) ([]entity.Review, error) {
	reviews, err := s.reviewRepo.ListByProduct(ctx, productID)
	if err != nil {
		return nil, mapStoreErr(err, "failed to list product reviews")
	}
	return reviews, nil
}

// ListShopReviews получает отзывы о магазине
func (s *reviewService) ListShopReviews(ctx context.Context, shopID string) ([]entity.Review, error) {
	reviews, err := s.reviewRepo.ListByShop(ctx, shopID)
	if err != nil {
		return nil, mapStoreErr(err, "failed to list shop reviews")
	}
	return reviews, nil
}

// UpdateReview обновляет отзыв, доступно только автору
func (s *reviewService) UpdateReview(ctx context.Context, userID uuid.UUID, reviewID string, req *entity.UpdateReviewRequest) (*entity.Review, error) {
	review, err := s.reviewRepo.GetByID(ctx, reviewID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrReviewNotFound
		}
		return nil, mapStoreErr(err, "failed to get review")
	}

	if review.UserID != userID.String() {
		return nil, ErrUnauthorized
	}

	if req.Rating != 0 {
		if !validRating(req.Rating) {
			metrics.RecordInvariantViolation("rating_range")
			return nil, ErrRatingOutOfRange
		}
		review.Rating = req.Rating
	}
	if req.Comment != "" {
		review.Comment = req.Comment
	}

	if err := s.reviewRepo.Update(ctx, review); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrReviewNotFound
		}
		return nil, mapStoreErr(err, "failed to update review")
	}

	return review, nil
}

// DeleteReview удаляет отзыв, доступно автору и персоналу
func (s *reviewService) DeleteReview(ctx context.Context, userID uuid.UUID, isStaff bool, reviewID string) error {
	review, err := s.reviewRepo.GetByID(ctx, reviewID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrReviewNotFound
		}
		return mapStoreErr(err, "failed to get review")
	}

	if review.UserID != userID.String() && !isStaff {
		return ErrUnauthorized
	}

	if err := s.reviewRepo.Delete(ctx, reviewID); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrReviewNotFound
		}
		return mapStoreErr(err, "failed to delete review")
	}

	return nil
}

// RateReview сохраняет голос о полезности отзыва.
// Один пользователь голосует за отзыв не более одного раза
func (s *reviewService) RateReview(ctx context.Context, userID uuid.UUID, reviewID string, req *entity.RateReviewRequest) (*entity.ReviewRating, error) {
	if !validRating(req.Value) {
		metrics.RecordInvariantViolation("rating_range")
		return nil, ErrRatingOutOfRange
	}

	if _, err := s.reviewRepo.GetByID(ctx, reviewID); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrReviewNotFound
		}
		return nil, mapStoreErr(err, "failed to get review")
	}

	rating := &entity.ReviewRating{
		ReviewID: reviewID,
		UserID:   userID.String(),
		Value:    req.Value,
	}

	if err := s.reviewRepo.CreateRating(ctx, rating); err != nil {
		if errors.Is(err, repository.ErrDuplicateVote) {
			metrics.RecordInvariantViolation("duplicate_vote")
			return nil, ErrDuplicateVote
		}
		return nil, mapStoreErr(err, "failed to rate review")
	}

	return rating, nil
}

// ProductRating получает агрегированную оценку товара
func (s *reviewService) ProductRating(ctx context.Context, productID string) (*entity.RatingSummary, error) {
	summary, err := s.reviewRepo.AverageForProduct(ctx, productID)
	if err != nil {
		return nil, mapStoreErr(err, "failed to get product rating")
	}
	return summary, nil
}

// ShopRating получает агрегированную оценку магазина
func (s *reviewService) ShopRating(ctx context.Context, shopID string) (*entity.RatingSummary, error) {
	summary, err := s.reviewRepo.AverageForShop(ctx, shopID)
	if err != nil {
		return nil, mapStoreErr(err, "failed to get shop rating")
	}
	return summary, nil
}
