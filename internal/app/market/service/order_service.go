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

// Допустимые переходы статусов заказа.
// Завершённые и отменённые заказы статус уже не меняют
var orderTransitions = map[entity.OrderStatus][]entity.OrderStatus{
	entity.OrderStatusPending: {
		entity.OrderStatusCompleted,
		entity.OrderStatusShipped,
		entity.OrderStatusCancelled,
	},
	entity.OrderStatusShipped: {
		entity.OrderStatusCompleted,
	},
}

func isValidTransition(from, to entity.OrderStatus) bool {
	for _, allowed := range orderTransitions[from] {
		if allowed == to {
			return true
		}
	}
	return false
}

// orderService обрабатывает бизнес-логику заказов
type orderService struct {
	orderRepo   repository.OrderRepository
	productRepo repository.ProductRepository
	producer    MessagePublisher
	orderTopic  string
}

// NewOrderService создает новый сервис заказов
func NewOrderService(
	orderRepo repository.OrderRepository,
	productRepo repository.ProductRepository,
	producer MessagePublisher,
	orderTopic string,
) OrderService {
	return &orderService{
		orderRepo:   orderRepo,
		productRepo: productRepo,
		producer:    producer,
		orderTopic:  orderTopic,
	}
}

func (s *orderService) publishOrderEvent(ctx context.Context, eventType string, order *entity.Order) {
	if s.producer == nil {
		return
	}

	items := make([]entity.OrderEventItem, 0, len(order.Items))
	for _, item := range order.Items {
		items = append(items, entity.OrderEventItem{
			ProductID: item.ProductID,
			ShopID:    item.ShopID,
			Quantity:  item.Quantity,
			UnitPrice: item.UnitPrice,
		})
	}

	event := entity.OrderEvent{
		EventType:   eventType,
		OrderID:     order.ID,
		UserID:      order.UserID,
		TotalAmount: order.TotalAmount,
		Status:      order.Status,
		Items:       items,
		Timestamp:   time.Now(),
	}

	payload, err := json.Marshal(event)
	if err != nil {
		logger.Error().Err(err).Msg("failed to marshal order event")
		return
	}

	if err := s.producer.PublishMessage(ctx, order.ID.String(), payload); err != nil {
		metrics.RecordKafkaError("marketplace", s.orderTopic, "produce")
		logger.Error().Err(err).Str("event", eventType).Msg("failed to publish order event")
		return
	}

	metrics.RecordKafkaMessageProduced("marketplace", s.orderTopic)
}

// CreateOrder создает заказ со всеми позициями одной единицей работы.
// Цена фиксируется на момент покупки в каждой позиции
func (s *orderService) CreateOrder(ctx context.Context, userID uuid.UUID, req *entity.CreateOrderRequest) (*entity.Order, error) {
	if len(req.Items) == 0 || req.TotalAmount <= 0 {
		return nil, ErrValidation
	}

	orderID := uuid.New()
	items := make([]entity.OrderProduct, 0, len(req.Items))

	for _, reqItem := range req.Items {
		if reqItem.Quantity <= 0 {
			return nil, ErrValidation
		}

		product, err := s.productRepo.GetByID(ctx, reqItem.ProductID)
		if err != nil {
			if errors.Is(err, repository.ErrNotFound) {
				return nil, ErrProductNotFound
			}
			return nil, mapStoreErr(err, "failed to get product")
		}

		items = append(items, entity.OrderProduct{
			ID:        uuid.New(),
			OrderID:   orderID,
			ProductID: product.ID,
			ShopID:    product.ShopID,
			Quantity:  reqItem.Quantity,
			UnitPrice: product.Price,
		})
	}

	order := &entity.Order{
		ID:          orderID,
		UserID:      userID,
		TotalAmount: req.TotalAmount,
		Status:      entity.OrderStatusPending,
		Items:       items,
	}

	if err := s.orderRepo.CreateWithProducts(ctx, order); err != nil {
		return nil, mapStoreErr(err, "failed to create order")
	}

	metrics.OrdersCreated.Inc()
	s.publishOrderEvent(ctx, "ORDER_CREATED", order)
	logger.Info().
		Str("order_id", order.ID.String()).
		Str("user_id", userID.String()).
		Int("items", len(items)).
		Msg("order created")

	return order, nil
}

// GetOrder получает заказ с позициями после проверки принадлежности
func (s *orderService) GetOrder(ctx context.Context, userID uuid.UUID, orderID uuid.UUID) (*entity.Order, error) {
	order, err := s.orderRepo.GetWithItems(ctx, orderID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrOrderNotFound
		}
		return nil, mapStoreErr(err, "failed to get order")
	}

	if order.UserID != userID {
		return nil, ErrUnauthorized
	}

	return order, nil
}

// ListOrders получает заказы пользователя
func (s *orderService) ListOrders(ctx context.Context, userID uuid.UUID) ([]entity.Order, error) {
	orders, err := s.orderRepo.ListByUser(ctx, userID)
	if err != nil {
		return nil, mapStoreErr(err, "failed to list orders")
	}
	return orders, nil
}

// UpdateOrderStatus меняет статус заказа по карте допустимых переходов
func (s *orderService) UpdateOrderStatus(ctx context.Context, orderID uuid.UUID, status entity.OrderStatus) (*entity.Order, error) {
	order, err := s.orderRepo.GetWithItems(ctx, orderID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrOrderNotFound
		}
		return nil, mapStoreErr(err, "failed to get order")
	}

	if !isValidTransition(order.Status, status) {
		metrics.RecordInvariantViolation("order_status_transition")
		return nil, ErrInvalidOrderStatus
	}

	if err := s.orderRepo.UpdateStatus(ctx, orderID, status); err != nil {
		return nil, mapStoreErr(err, "failed to update order status")
	}

	order.Status = status
	s.publishOrderEvent(ctx, "ORDER_UPDATED", order)
	logger.Info().
		Str("order_id", orderID.String()).
		Str("status", string(status)).
		Msg("order status updated")

	return order, nil
}
