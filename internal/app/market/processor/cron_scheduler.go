package processor

import (
	"context"

	"ashtraymarket/internal/app/market/repository"
	"ashtraymarket/pkg/logger"

	"github.com/robfig/cron/v3"
)

// Расписания фоновых задач
const (
	// Первое число каждого месяца в полночь
	monthlyResetSchedule = "0 0 1 * *"
	// Каждый день в 03:00
	ownerReconcileSchedule = "0 3 * * *"
)

// CronScheduler запускает периодические задачи обслуживания:
// сброс месячных счётчиков магазинов и сверку флагов shop_owner
type CronScheduler struct {
	cron     *cron.Cron
	shopRepo repository.ShopRepository
	userRepo repository.UserRepository
}

// NewCronScheduler создает новый планировщик
func NewCronScheduler(shopRepo repository.ShopRepository, userRepo repository.UserRepository) *CronScheduler {
	return &CronScheduler{
		cron:     cron.New(),
		shopRepo: shopRepo,
		userRepo: userRepo,
	}
}

// Start регистрирует задачи и запускает планировщик
func (s *CronScheduler) Start(ctx context.Context) error {
	_, err := s.cron.AddFunc(monthlyResetSchedule, func() {
		s.resetMonthlyCounters(ctx)
	})
	if err != nil {
		return err
	}

	_, err = s.cron.AddFunc(ownerReconcileSchedule, func() {
		s.reconcileShopOwners(ctx)
	})
	if err != nil {
		return err
	}

	s.cron.Start()
	logger.Info().Msg("cron scheduler started")
	return nil
}

// Stop останавливает планировщик и дожидается текущих задач
func (s *CronScheduler) Stop() {
	ctx := s.cron.Stop()
	<-ctx.Done()
	logger.Info().Msg("cron scheduler stopped")
}

// GetEntries возвращает зарегистрированные задачи
func (s *CronScheduler) GetEntries() []cron.Entry {
	return s.cron.Entries()
}

func (s *CronScheduler) resetMonthlyCounters(ctx context.Context) {
	logger.Info().Msg("cron: resetting monthly shop counters")

	affected, err := s.shopRepo.ResetMonthlyCounters(ctx)
	if err != nil {
		logger.Error().Err(err).Msg("cron: failed to reset monthly counters")
		return
	}

	logger.Info().Int64("shops", affected).Msg("cron: monthly counters reset")
}

// reconcileShopOwners чинит расхождения флага shop_owner с фактическим
// наличием магазина. В нормальной работе расхождений нет: флаг меняется
// только в транзакциях создания и удаления магазина
func (s *CronScheduler) reconcileShopOwners(ctx context.Context) {
	fixed, err := s.userRepo.ReconcileShopOwnerFlags(ctx)
	if err != nil {
		logger.Error().Err(err).Msg("cron: failed to reconcile shop owner flags")
		return
	}

	if fixed > 0 {
		logger.Warn().Int64("users", fixed).Msg("cron: shop owner flags were out of sync")
	}
}
