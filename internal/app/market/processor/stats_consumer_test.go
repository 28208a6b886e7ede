package processor

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"ashtraymarket/internal/app/market/entity"
	"ashtraymarket/internal/app/market/repository/mocks"

	"github.com/google/uuid"
	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
)

func newTestStatsConsumer() (*StatsConsumer, *mocks.MockUserRepository, *mocks.MockShopRepository, *mocks.MockProductRepository) {
	userRepo := new(mocks.MockUserRepository)
	shopRepo := new(mocks.MockShopRepository)
	productRepo := new(mocks.MockProductRepository)

	consumer := &StatsConsumer{
		userRepo:    userRepo,
		shopRepo:    shopRepo,
		productRepo: productRepo,
		topic:       "order-events",
		group:       "marketplace-stats",
		stopChan:    make(chan struct{}),
		doneChan:    make(chan struct{}),
	}
	return consumer, userRepo, shopRepo, productRepo
}

func orderEventMessage(t *testing.T, event entity.OrderEvent) kafka.Message {
	t.Helper()

	payload, err := json.Marshal(event)
	assert.NoError(t, err)

	return kafka.Message{
		Topic: "order-events",
		Key:   []byte(event.OrderID.String()),
		Value: payload,
	}
}

// ===================== NewStatsConsumer Tests =====================

func TestNewStatsConsumer(t *testing.T) {
	// Arrange
	userRepo := new(mocks.MockUserRepository)
	shopRepo := new(mocks.MockShopRepository)
	productRepo := new(mocks.MockProductRepository)

	// Act
	consumer := NewStatsConsumer([]string{"localhost:9092"}, "order-events", "marketplace-stats", userRepo, shopRepo, productRepo)

	// Assert
	assert.NotNil(t, consumer)
	assert.NotNil(t, consumer.reader)
	assert.NotNil(t, consumer.stopChan)
	assert.NotNil(t, consumer.doneChan)

	// Cleanup
	consumer.reader.Close()
}

// ===================== processMessage Tests =====================

func TestStatsConsumer_ProcessMessage_OrderCreated(t *testing.T) {
	// Arrange
	consumer, userRepo, _, _ := newTestStatsConsumer()
	ctx := context.Background()
	userID := uuid.New()

	message := orderEventMessage(t, entity.OrderEvent{
		EventType: "ORDER_CREATED",
		OrderID:   uuid.New(),
		UserID:    userID,
		Status:    entity.OrderStatusPending,
		Timestamp: time.Now(),
	})

	userRepo.On("AdjustOrderCounters", ctx, userID, 1, 0).Return(nil)

	// Act
	err := consumer.processMessage(ctx, message)

	// Assert
	assert.NoError(t, err)
	userRepo.AssertExpectations(t)
}

func TestStatsConsumer_ProcessMessage_OrderCompleted(t *testing.T) {
	// Arrange
	consumer, userRepo, shopRepo, productRepo := newTestStatsConsumer()
	ctx := context.Background()

	userID := uuid.New()
	shopID := uuid.New()
	productA := uuid.New()
	productB := uuid.New()

	message := orderEventMessage(t, entity.OrderEvent{
		EventType:   "ORDER_UPDATED",
		OrderID:     uuid.New(),
		UserID:      userID,
		TotalAmount: 70.0,
		Status:      entity.OrderStatusCompleted,
		Items: []entity.OrderEventItem{
			{ProductID: productA, ShopID: shopID, Quantity: 2, UnitPrice: 20.0},
			{ProductID: productB, ShopID: shopID, Quantity: 1, UnitPrice: 30.0},
		},
		Timestamp: time.Now(),
	})

	userRepo.On("AdjustOrderCounters", ctx, userID, -1, 1).Return(nil)
	productRepo.On("AddSold", ctx, productA, int64(2)).Return(nil)
	productRepo.On("AddSold", ctx, productB, int64(1)).Return(nil)
	// Обе позиции одного магазина засчитываются одним вызовом
	shopRepo.On("AddSales", ctx, shopID, int64(3), 70.0).Return(nil)
	productRepo.On("List", ctx, mock.MatchedBy(func(f entity.ProductFilter) bool {
		return f.ShopID != nil && *f.ShopID == shopID
	})).Return([]entity.Product{
		{ID: productA, ShopID: shopID, Sold: 7},
		{ID: productB, ShopID: shopID, Sold: 3},
	}, nil)
	shopRepo.On("SetBestSellers", ctx, shopID, []string{productA.String(), productB.String()}).Return(nil)

	// Act
	err := consumer.processMessage(ctx, message)

	// Assert
	assert.NoError(t, err)
	userRepo.AssertExpectations(t)
	shopRepo.AssertExpectations(t)
	productRepo.AssertExpectations(t)
	shopRepo.AssertNumberOfCalls(t, "AddSales", 1)
}

func TestStatsConsumer_RecomputeBestSellers(t *testing.T) {
	// Arrange: пять товаров, в best_sellers идут три самых продаваемых,
	// товар без продаж не попадает даже при свободном месте
	consumer, _, shopRepo, productRepo := newTestStatsConsumer()
	ctx := context.Background()
	shopID := uuid.New()

	top := uuid.New()
	second := uuid.New()
	third := uuid.New()
	fourth := uuid.New()
	unsold := uuid.New()

	productRepo.On("List", ctx, mock.MatchedBy(func(f entity.ProductFilter) bool {
		return f.ShopID != nil && *f.ShopID == shopID
	})).Return([]entity.Product{
		{ID: fourth, ShopID: shopID, Sold: 1},
		{ID: top, ShopID: shopID, Sold: 10},
		{ID: unsold, ShopID: shopID, Sold: 0},
		{ID: second, ShopID: shopID, Sold: 7},
		{ID: third, ShopID: shopID, Sold: 3},
	}, nil)
	shopRepo.On("SetBestSellers", ctx, shopID, []string{top.String(), second.String(), third.String()}).Return(nil)

	// Act
	err := consumer.recomputeBestSellers(ctx, shopID)

	// Assert
	assert.NoError(t, err)
	shopRepo.AssertExpectations(t)
}

func TestStatsConsumer_ProcessMessage_BestSellerFailureIsNonFatal(t *testing.T) {
	// Arrange: пересчёт best_sellers не должен блокировать коммит offset
	consumer, userRepo, shopRepo, productRepo := newTestStatsConsumer()
	ctx := context.Background()

	userID := uuid.New()
	shopID := uuid.New()
	productID := uuid.New()

	message := orderEventMessage(t, entity.OrderEvent{
		EventType: "ORDER_UPDATED",
		OrderID:   uuid.New(),
		UserID:    userID,
		Status:    entity.OrderStatusCompleted,
		Items: []entity.OrderEventItem{
			{ProductID: productID, ShopID: shopID, Quantity: 1, UnitPrice: 10.0},
		},
		Timestamp: time.Now(),
	})

	userRepo.On("AdjustOrderCounters", ctx, userID, -1, 1).Return(nil)
	productRepo.On("AddSold", ctx, productID, int64(1)).Return(nil)
	shopRepo.On("AddSales", ctx, shopID, int64(1), 10.0).Return(nil)
	productRepo.On("List", ctx, mock.AnythingOfType("entity.ProductFilter")).Return(nil, assert.AnError)

	// Act
	err := consumer.processMessage(ctx, message)

	// Assert
	assert.NoError(t, err)
	shopRepo.AssertNotCalled(t, "SetBestSellers", mock.Anything, mock.Anything, mock.Anything)
}

func TestStatsConsumer_ProcessMessage_OrderCancelled(t *testing.T) {
	// Arrange
	consumer, userRepo, shopRepo, _ := newTestStatsConsumer()
	ctx := context.Background()
	userID := uuid.New()

	message := orderEventMessage(t, entity.OrderEvent{
		EventType: "ORDER_UPDATED",
		OrderID:   uuid.New(),
		UserID:    userID,
		Status:    entity.OrderStatusCancelled,
		Timestamp: time.Now(),
	})

	userRepo.On("AdjustOrderCounters", ctx, userID, -1, 0).Return(nil)

	// Act
	err := consumer.processMessage(ctx, message)

	// Assert
	assert.NoError(t, err)
	userRepo.AssertExpectations(t)
	shopRepo.AssertNotCalled(t, "AddSales", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestStatsConsumer_ProcessMessage_ShippedDoesNotTouchCounters(t *testing.T) {
	// Arrange
	consumer, userRepo, _, _ := newTestStatsConsumer()
	ctx := context.Background()

	message := orderEventMessage(t, entity.OrderEvent{
		EventType: "ORDER_UPDATED",
		OrderID:   uuid.New(),
		UserID:    uuid.New(),
		Status:    entity.OrderStatusShipped,
		Timestamp: time.Now(),
	})

	// Act
	err := consumer.processMessage(ctx, message)

	// Assert
	assert.NoError(t, err)
	userRepo.AssertNotCalled(t, "AdjustOrderCounters", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestStatsConsumer_ProcessMessage_UnknownEventType(t *testing.T) {
	// Arrange
	consumer, userRepo, _, _ := newTestStatsConsumer()
	ctx := context.Background()

	message := orderEventMessage(t, entity.OrderEvent{
		EventType: "ORDER_ARCHIVED",
		OrderID:   uuid.New(),
		UserID:    uuid.New(),
		Timestamp: time.Now(),
	})

	// Act
	err := consumer.processMessage(ctx, message)

	// Assert: неизвестные события пропускаются без ошибки
	assert.NoError(t, err)
	userRepo.AssertNotCalled(t, "AdjustOrderCounters", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestStatsConsumer_ProcessMessage_InvalidPayload(t *testing.T) {
	// Arrange
	consumer, _, _, _ := newTestStatsConsumer()

	message := kafka.Message{
		Topic: "order-events",
		Value: []byte("not json"),
	}

	// Act
	err := consumer.processMessage(context.Background(), message)

	// Assert
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "failed to unmarshal")
}

func TestStatsConsumer_ProcessMessage_CounterAdjustFails(t *testing.T) {
	// Arrange
	consumer, userRepo, _, _ := newTestStatsConsumer()
	ctx := context.Background()
	userID := uuid.New()

	message := orderEventMessage(t, entity.OrderEvent{
		EventType: "ORDER_CREATED",
		OrderID:   uuid.New(),
		UserID:    userID,
		Timestamp: time.Now(),
	})

	userRepo.On("AdjustOrderCounters", ctx, userID, 1, 0).Return(assert.AnError)

	// Act
	err := consumer.processMessage(ctx, message)

	// Assert: ошибка возвращается, offset не будет закоммичен
	assert.Error(t, err)
	userRepo.AssertExpectations(t)
}
