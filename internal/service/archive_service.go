package service

import (
	"context"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/syncsyntax/messaging/internal/metrics"
	"github.com/syncsyntax/messaging/internal/repository"
	"go.uber.org/zap"
)

// ArchiveService moves aged messages into cold storage on a daily
// schedule. The sweep runs off the request path and selects purely on
// sent_at, so live traffic can't pull rows back out from under it.
type ArchiveService struct {
	archive   repository.ArchiveRepository
	retention time.Duration
	cron      *cron.Cron
	log       *zap.Logger
}

func NewArchiveService(archive repository.ArchiveRepository, retentionDays int, log *zap.Logger) *ArchiveService {
	return &ArchiveService{
		archive:   archive,
		retention: time.Duration(retentionDays) * 24 * time.Hour,
		cron:      cron.New(),
		log:       log,
	}
}

// Start schedules the daily sweep.
func (s *ArchiveService) Start() error {
	_, err := s.cron.AddFunc("@daily", func() {
		if _, err := s.Sweep(context.Background()); err != nil {
			s.log.Error("archive sweep failed", zap.Error(err))
		}
	})
	if err != nil {
		return err
	}
	s.cron.Start()
	return nil
}

func (s *ArchiveService) Stop() {
	s.cron.Stop()
}

// Sweep archives every message older than the retention window and
// returns the count moved.
func (s *ArchiveService) Sweep(ctx context.Context) (int64, error) {
	cutoff := time.Now().UTC().Add(-s.retention)
	n, err := s.archive.ArchiveOlderThan(ctx, cutoff)
	if err != nil {
		return 0, err
	}
	if n > 0 {
		metrics.MessagesArchived.Add(float64(n))
	}
	s.log.Info("archive sweep finished", zap.Int64("archived", n), zap.Time("cutoff", cutoff))
	return n, nil
}
