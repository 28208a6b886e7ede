package processor

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"time"

	"ashtraymarket/internal/app/market/entity"
	"ashtraymarket/internal/app/market/repository"
	"ashtraymarket/pkg/logger"
	"ashtraymarket/pkg/metrics"

	"github.com/google/uuid"
	"github.com/segmentio/kafka-go"
)

// bestSellerCount - сколько товаров попадает в best_sellers магазина
const bestSellerCount = 3

// StatsConsumer читает события заказов из Kafka и обновляет счётчики
// продаж магазинов, товаров и заказов пользователей
type StatsConsumer struct {
	reader      *kafka.Reader
	userRepo    repository.UserRepository
	shopRepo    repository.ShopRepository
	productRepo repository.ProductRepository
	topic       string
	group       string
	stopChan    chan struct{}
	doneChan    chan struct{}
}

// NewStatsConsumer создает новый consumer статистики
func NewStatsConsumer(
	brokers []string,
	topic string,
	groupID string,
	userRepo repository.UserRepository,
	shopRepo repository.ShopRepository,
	productRepo repository.ProductRepository,
) *StatsConsumer {
	reader := kafka.NewReader(kafka.ReaderConfig{
		Brokers:        brokers,
		Topic:          topic,
		GroupID:        groupID,
		MinBytes:       1,
		MaxBytes:       10e6,
		StartOffset:    kafka.LastOffset,
		CommitInterval: time.Second,
		ReadBackoffMin: 100 * time.Millisecond,
		ReadBackoffMax: 1 * time.Second,
	})

	return &StatsConsumer{
		reader:      reader,
		userRepo:    userRepo,
		shopRepo:    shopRepo,
		productRepo: productRepo,
		topic:       topic,
		group:       groupID,
		stopChan:    make(chan struct{}),
		doneChan:    make(chan struct{}),
	}
}

// Start запускает consumer в отдельной горутине
func (c *StatsConsumer) Start(ctx context.Context) {
	logger.Info().Str("topic", c.topic).Str("group", c.group).Msg("starting stats consumer")
	go c.consume(ctx)
}

// Stop останавливает consumer
func (c *StatsConsumer) Stop() {
	close(c.stopChan)
	<-c.doneChan
	c.reader.Close()
	logger.Info().Msg("stats consumer stopped")
}

func (c *StatsConsumer) consume(ctx context.Context) {
	defer close(c.doneChan)

	for {
		select {
		case <-c.stopChan:
			return
		default:
			readCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
			message, err := c.reader.FetchMessage(readCtx)
			cancel()

			if err != nil {
				if ctx.Err() != nil {
					return
				}
				logger.Warn().Err(err).Msg("failed to fetch kafka message")
				time.Sleep(time.Second)
				continue
			}

			if err := c.processMessage(ctx, message); err != nil {
				metrics.RecordKafkaError("marketplace", c.topic, "consume")
				logger.Error().Err(err).Msg("failed to process order event")
				// Offset не коммитится, сообщение будет обработано повторно
			} else {
				metrics.RecordKafkaMessageConsumed("marketplace", c.topic, c.group)
				if err := c.reader.CommitMessages(ctx, message); err != nil {
					logger.Error().Err(err).Msg("failed to commit kafka message")
				}
			}
		}
	}
}

func (c *StatsConsumer) processMessage(ctx context.Context, message kafka.Message) error {
	var event entity.OrderEvent
	if err := json.Unmarshal(message.Value, &event); err != nil {
		return fmt.Errorf("failed to unmarshal order event: %w", err)
	}

	logger.Debug().
		Str("event", event.EventType).
		Str("order_id", event.OrderID.String()).
		Int64("offset", message.Offset).
		Msg("order event received")

	switch event.EventType {
	case "ORDER_CREATED":
		return c.handleOrderCreated(ctx, &event)
	case "ORDER_UPDATED":
		return c.handleOrderUpdated(ctx, &event)
	default:
		// Неизвестные типы событий пропускаются без ошибки
		return nil
	}
}

// handleOrderCreated увеличивает счётчик текущих заказов пользователя
func (c *StatsConsumer) handleOrderCreated(ctx context.Context, event *entity.OrderEvent) error {
	if err := c.userRepo.AdjustOrderCounters(ctx, event.UserID, 1, 0); err != nil {
		return fmt.Errorf("failed to adjust order counters: %w", err)
	}
	return nil
}

// handleOrderUpdated обновляет статистику по финальным статусам.
// Завершённый заказ переносит счётчик пользователя из orders_now в
// orders_completed и засчитывает продажи магазинам и товарам
func (c *StatsConsumer) handleOrderUpdated(ctx context.Context, event *entity.OrderEvent) error {
	switch event.Status {
	case entity.OrderStatusCompleted:
		if err := c.userRepo.AdjustOrderCounters(ctx, event.UserID, -1, 1); err != nil {
			return fmt.Errorf("failed to adjust order counters: %w", err)
		}

		// Позиции группируются по магазину, продажи засчитываются разом
		shopItems := make(map[string]struct {
			items  int64
			amount float64
		})
		for _, item := range event.Items {
			agg := shopItems[item.ShopID.String()]
			agg.items += int64(item.Quantity)
			agg.amount += float64(item.Quantity) * item.UnitPrice
			shopItems[item.ShopID.String()] = agg

			if err := c.productRepo.AddSold(ctx, item.ProductID, int64(item.Quantity)); err != nil {
				logger.Warn().Err(err).
					Str("product_id", item.ProductID.String()).
					Msg("failed to record product sales")
			}
		}

		for _, item := range event.Items {
			agg, ok := shopItems[item.ShopID.String()]
			if !ok {
				continue
			}
			delete(shopItems, item.ShopID.String())

			if err := c.shopRepo.AddSales(ctx, item.ShopID, agg.items, agg.amount); err != nil {
				logger.Warn().Err(err).
					Str("shop_id", item.ShopID.String()).
					Msg("failed to record shop sales")
			}

			if err := c.recomputeBestSellers(ctx, item.ShopID); err != nil {
				logger.Warn().Err(err).
					Str("shop_id", item.ShopID.String()).
					Msg("failed to recompute best sellers")
			}
		}

	case entity.OrderStatusCancelled:
		if err := c.userRepo.AdjustOrderCounters(ctx, event.UserID, -1, 0); err != nil {
			return fmt.Errorf("failed to adjust order counters: %w", err)
		}
	}

	return nil
}

// recomputeBestSellers пересчитывает best_sellers магазина по счётчикам
// продаж его товаров. Товары без продаж в список не попадают
func (c *StatsConsumer) recomputeBestSellers(ctx context.Context, shopID uuid.UUID) error {
	products, err := c.productRepo.List(ctx, entity.ProductFilter{ShopID: &shopID})
	if err != nil {
		return fmt.Errorf("failed to list shop products: %w", err)
	}

	sort.SliceStable(products, func(i, j int) bool {
		return products[i].Sold > products[j].Sold
	})

	ids := make([]string, 0, bestSellerCount)
	for _, product := range products {
		if product.Sold == 0 {
			break
		}
		ids = append(ids, product.ID.String())
		if len(ids) == bestSellerCount {
			break
		}
	}

	if err := c.shopRepo.SetBestSellers(ctx, shopID, ids); err != nil {
		return fmt.Errorf("failed to set best sellers: %w", err)
	}

	return nil
}
