package housekeeping

import (
	"context"
	"sync"
	"time"

	"musicwordle/internal/housekeeping/interfaces"
	"musicwordle/internal/providers"
	"musicwordle/internal/services"
	"musicwordle/internal/structures"
)

const sweepTimeout = 30 * time.Second

// Scheduler runs the periodic jobs: the retention sweep for every driver and,
// for the memory driver, snapshots and archive flushes. fileManager and
// archive may be nil.
type Scheduler struct {
	config      *structures.Config
	logger      providers.Logger
	service     services.GameServiceInterface
	fileManager *FileManager
	archive     *Archive
	metrics     providers.MetricsProviderInterface
	opsMu       sync.Mutex
	stop        chan struct{}
	wg          sync.WaitGroup
}

func (s *Scheduler) Init() {
	s.stop = make(chan struct{})

	s.every(s.config.Game.SweepInterval, s.sweep)
	if s.persistent() {
		s.every(s.config.Storage.SaveInterval, func() {
			_ = s.Persist()
		})
	}
}

func (s *Scheduler) every(interval time.Duration, job func()) {
	if interval <= 0 {
		return
	}
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				job()
			case <-s.stop:
				return
			}
		}
	}()
}

func (s *Scheduler) sweep() {
	s.opsMu.Lock()
	defer s.opsMu.Unlock()

	ctx, cancel := context.WithTimeout(context.Background(), sweepTimeout)
	defer cancel()

	n, err := s.service.Sweep(ctx)
	if err != nil {
		s.logger.Errorf(providers.TypeApp, "Error while expiring games: %s", err)
		return
	}
	if n > 0 {
		s.logger.Infof(providers.TypeApp, "Expired %d stale games", n)
	}
}

// Stop waits for a running job to finish.
func (s *Scheduler) Stop() {
	if s.stop == nil {
		return
	}
	close(s.stop)
	s.wg.Wait()
	s.stop = nil
}

func (s *Scheduler) persistent() bool {
	return (s.fileManager != nil && s.config.Storage.FilePath != "") || s.archive != nil
}

func (s *Scheduler) Restore() error {
	if s.archive != nil {
		if err := s.archive.RestoreIndex(); err != nil {
			return err
		}
	}
	if s.fileManager == nil || s.config.Storage.FilePath == "" {
		return nil
	}
	return s.fileManager.LoadFromFile(s.config.Storage.FilePath)
}

func (s *Scheduler) Persist() error {
	s.opsMu.Lock()
	defer s.opsMu.Unlock()

	start := time.Now()
	if s.fileManager != nil && s.config.Storage.FilePath != "" {
		if err := s.fileManager.SaveToFile(s.config.Storage.FilePath); err != nil {
			s.logger.Errorf(providers.TypeApp, "Error while persisting data: %s", err)
			return err
		}
	}
	if s.archive != nil {
		if err := s.archive.Flush(); err != nil {
			s.logger.Errorf(providers.TypeApp, "Error while flushing archive: %s", err)
			return err
		}
	}
	if s.persistent() {
		s.metrics.ObservePersistenceDuration(time.Since(start))
	}
	return nil
}

func NewScheduler(config *structures.Config, logger providers.Logger, service services.GameServiceInterface, fileManager *FileManager, archive *Archive, metrics providers.MetricsProviderInterface) interfaces.SchedulerInterface {
	return &Scheduler{
		config:      config,
		logger:      logger,
		service:     service,
		fileManager: fileManager,
		archive:     archive,
		metrics:     metrics,
	}
}
