package processor

import (
	"context"
	"log"
	"sync"

	"exchanger/exchange-service/internal/app/exchange/service"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"
)

// DefaultWarmUpSchedule - сразу после локальной полуночи, когда истекает окно кеша курсов
const DefaultWarmUpSchedule = "0 0 * * *"

// CronScheduler прогревает кеш курсов по расписанию
type CronScheduler struct {
	cron          *cron.Cron
	conversionSvc service.ConversionServiceInterface
	log           zerolog.Logger

	initial sync.WaitGroup
}

func NewCronScheduler(conversionSvc service.ConversionServiceInterface, logger zerolog.Logger) *CronScheduler {
	c := cron.New(cron.WithLogger(cron.PrintfLogger(log.Default())))

	return &CronScheduler{
		cron:          c,
		conversionSvc: conversionSvc,
		log:           logger,
	}
}

// Start регистрирует задачу прогрева и запускает первый прогрев в фоне,
// чтобы недоступный провайдер не задерживал старт HTTP сервера.
// Ошибка первого прогрева не останавливает планировщик.
func (s *CronScheduler) Start(ctx context.Context, schedule string) error {
	if schedule == "" {
		schedule = DefaultWarmUpSchedule
	}
	s.log.Info().Str("schedule", schedule).Msg("starting rates warm-up scheduler")

	_, err := s.cron.AddFunc(schedule, func() {
		s.warmUp(ctx, "scheduled")
	})
	if err != nil {
		return err
	}

	s.cron.Start()

	s.initial.Add(1)
	go func() {
		defer s.initial.Done()
		s.warmUp(ctx, "initial")
	}()
	return nil
}

func (s *CronScheduler) warmUp(ctx context.Context, trigger string) {
	if err := s.conversionSvc.WarmUp(ctx); err != nil {
		s.log.Error().Err(err).Str("trigger", trigger).Msg("rates warm-up failed")
		return
	}
	s.log.Info().Str("trigger", trigger).Msg("rates warm-up completed")
}

// Stop дожидается завершения запущенных задач и первого прогрева
func (s *CronScheduler) Stop() {
	s.log.Info().Msg("stopping rates warm-up scheduler")
	ctx := s.cron.Stop()
	<-ctx.Done()
	s.initial.Wait()
}

func (s *CronScheduler) GetEntries() []cron.Entry {
	return s.cron.Entries()
}
