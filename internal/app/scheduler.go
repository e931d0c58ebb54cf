package app

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"
)

type directoryRefresher interface {
	RefreshDirectory(ctx context.Context) error
}

// Scheduler фоновое обновление кэша справочника пользователей
type Scheduler struct {
	directory directoryRefresher
	interval  time.Duration
	logger    *zap.Logger
	stopChan  chan struct{}
	stopOnce  sync.Once
	done      chan struct{}
}

func NewScheduler(directory directoryRefresher, interval time.Duration, logger *zap.Logger) *Scheduler {
	return &Scheduler{
		directory: directory,
		interval:  interval,
		logger:    logger,
		stopChan:  make(chan struct{}),
		done:      make(chan struct{}),
	}
}

// Start запускает фоновые задачи
func (s *Scheduler) Start(ctx context.Context) {
	s.logger.Info("Starting background scheduler", zap.Duration("directory_refresh_interval", s.interval))
	go s.runDirectoryRefreshTask(ctx)
}

// Stop останавливает фоновые задачи и ждёт их завершения
func (s *Scheduler) Stop() {
	s.stopOnce.Do(func() {
		s.logger.Info("Stopping background scheduler")
		close(s.stopChan)
	})
	<-s.done
}

func (s *Scheduler) runDirectoryRefreshTask(ctx context.Context) {
	defer close(s.done)

	// Первый запуск сразу при старте
	s.refreshDirectory(ctx)

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			s.refreshDirectory(ctx)
		case <-s.stopChan:
			s.logger.Info("Directory refresh task stopped")
			return
		case <-ctx.Done():
			s.logger.Info("Directory refresh task cancelled")
			return
		}
	}
}

func (s *Scheduler) refreshDirectory(ctx context.Context) {
	if err := s.directory.RefreshDirectory(ctx); err != nil {
		s.logger.Error("Failed to refresh directory cache", zap.Error(err))
		return
	}
	s.logger.Debug("Directory cache refreshed")
}
