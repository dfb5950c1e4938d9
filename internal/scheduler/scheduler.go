package scheduler

import (
	"context"
	"sync"
	"time"

	"github.com/m04kA/SMC-ParkingService/internal/usecase/expire_reservations"
)

// ExpiryUseCase интерфейс цикла обработки просроченных броней
type ExpiryUseCase interface {
	Execute(ctx context.Context) (*expire_reservations.Result, error)
}

// Logger интерфейс для логирования
type Logger interface {
	Info(format string, v ...interface{})
	Warn(format string, v ...interface{})
	Error(format string, v ...interface{})
}

// Scheduler периодически запускает обработку просроченных броней
//
// Циклы никогда не накладываются друг на друга: если предыдущий прогон
// еще не завершился к моменту тика, новый пропускается. Это исключает
// параллельную обработку одной и той же просроченной брони двумя циклами
type Scheduler struct {
	useCase  ExpiryUseCase
	interval time.Duration
	logger   Logger

	ticker  *time.Ticker
	stop    chan struct{}
	wg      sync.WaitGroup
	running sync.Mutex // занят, пока идет прогон цикла
}

// New создает новый планировщик с заданным интервалом между циклами
func New(useCase ExpiryUseCase, interval time.Duration, logger Logger) *Scheduler {
	return &Scheduler{
		useCase:  useCase,
		interval: interval,
		logger:   logger,
		stop:     make(chan struct{}),
	}
}

// Start запускает фоновый цикл планировщика
func (s *Scheduler) Start() {
	s.ticker = time.NewTicker(s.interval)
	s.wg.Add(1)

	go s.run()

	s.logger.Info("Scheduler: started with interval %v", s.interval)
}

// Stop останавливает планировщик и дожидается завершения текущего цикла
func (s *Scheduler) Stop() {
	if s.ticker == nil {
		return
	}

	s.ticker.Stop()
	close(s.stop)
	s.wg.Wait()
	s.logger.Info("Scheduler: stopped")
}

func (s *Scheduler) run() {
	defer s.wg.Done()

	// Первый прогон сразу при старте
	s.sweep()

	for {
		select {
		case <-s.ticker.C:
			s.sweep()
		case <-s.stop:
			return
		}
	}
}

// sweep выполняет один цикл, пропуская тик при незавершенном предыдущем
func (s *Scheduler) sweep() {
	if !s.running.TryLock() {
		s.logger.Warn("Scheduler: previous sweep still running, skipping tick")
		return
	}
	defer s.running.Unlock()

	result, err := s.useCase.Execute(context.Background())
	if err != nil {
		s.logger.Error("Scheduler: sweep failed: %v", err)
		return
	}

	if result.Expired > 0 || result.Failed > 0 {
		s.logger.Info("Scheduler: sweep expired=%d, skipped=%d, failed=%d",
			result.Expired, result.Skipped, result.Failed)
	}
}

// RunNow запускает внеочередной цикл (для тестов и администрирования)
func (s *Scheduler) RunNow() {
	s.sweep()
}
