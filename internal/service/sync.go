package service

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"boe_syncer/internal/config"
	"boe_syncer/internal/domain"
)

type SyncService struct {
	source     Source
	store      AnnouncementStore
	classifier Classifier
	publisher  Publisher
	clock      Clock
	logger     *slog.Logger
	config     config.SyncConfig
}

func NewSyncService(
	source Source,
	store AnnouncementStore,
	classifier Classifier,
	publisher Publisher,
	clock Clock,
	logger *slog.Logger,
	cfg config.SyncConfig,
) *SyncService {
	return &SyncService{
		source:     source,
		store:      store,
		classifier: classifier,
		publisher:  publisher,
		clock:      clock,
		logger:     logger.With("source", source.ID()),
		config:     cfg,
	}
}

// SyncDay extracts, classifies and stores the announcements of one calendar
// day and returns only those actually inserted. Re-running a day is a no-op:
// every record already known is skipped via the detail_url constraint.
func (s *SyncService) SyncDay(ctx context.Context, day time.Time) ([]domain.Announcement, error) {
	date := day.Format(domain.DateFormat)

	candidates := s.source.FetchDay(ctx, day)

	var inserted []domain.Announcement
	for i := range candidates {
		record := candidates[i]
		record.PublicationDate = date
		record.Province = s.classify(&record)

		ok, err := s.store.InsertIfNew(ctx, &record)
		if err != nil {
			return inserted, fmt.Errorf("insert announcement: %w", err)
		}
		if !ok {
			continue
		}

		if s.publisher != nil {
			if err := s.publisher.Publish(ctx, &record); err != nil {
				s.logger.Error("failed to publish announcement",
					"detail_url", record.DetailURL,
					"error", err,
				)
			}
		}

		inserted = append(inserted, record)
	}

	return inserted, nil
}

// SyncUpToToday fills the gap between the stored watermark and today, then
// enforces the retention window. With an empty store it bootstraps
// BootstrapDays back. Days are processed oldest first so an interrupted run
// leaves the watermark at the last completed day and the next run resumes
// from there.
func (s *SyncService) SyncUpToToday(ctx context.Context) ([]domain.Announcement, error) {
	startTime := time.Now()
	today := truncateToDay(s.clock.Now())

	watermark, err := s.store.MaxPublicationDate(ctx)
	if err != nil {
		return nil, fmt.Errorf("read watermark: %w", err)
	}

	start, err := s.startDate(watermark, today)
	if err != nil {
		return nil, err
	}

	stats := domain.SyncStats{}
	var all []domain.Announcement

	for day := start; !day.After(today); day = day.AddDate(0, 0, 1) {
		if err := ctx.Err(); err != nil {
			return all, err
		}

		records, err := s.SyncDay(ctx, day)
		all = append(all, records...)
		stats.Days++
		stats.New += len(records)
		if err != nil {
			return all, err
		}
	}

	// The retention purge runs even when no day needed fetching, so the
	// window self-heals on every invocation.
	cutoff := today.AddDate(0, 0, -(s.config.RetainDays - 1)).Format(domain.DateFormat)
	purged, err := s.store.PurgeBefore(ctx, cutoff)
	if err != nil {
		s.logger.Error("failed to purge old announcements", "cutoff", cutoff, "error", err)
	} else {
		stats.Purged = purged
	}

	stats.Duration = time.Since(startTime)

	s.logger.Info("sync completed",
		"days", stats.Days,
		"new", stats.New,
		"purged", stats.Purged,
		"cutoff", cutoff,
		"duration", stats.Duration,
	)

	return all, nil
}

// startDate computes the first day to fetch: watermark+1 in steady state,
// BootstrapDays back from today when the store is empty. A start after
// today means the store is already synchronized.
func (s *SyncService) startDate(watermark string, today time.Time) (time.Time, error) {
	if watermark == "" {
		return today.AddDate(0, 0, -(s.config.BootstrapDays - 1)), nil
	}

	last, err := time.Parse(domain.DateFormat, watermark)
	if err != nil {
		return time.Time{}, fmt.Errorf("parse watermark %q: %w", watermark, err)
	}
	// Rebuild in today's location so the day loop compares like with like.
	last = time.Date(last.Year(), last.Month(), last.Day(), 0, 0, 0, 0, today.Location())
	return last.AddDate(0, 0, 1), nil
}

// classify tries the title first, then the control code.
func (s *SyncService) classify(a *domain.Announcement) *string {
	if p := s.classifier.Classify(deref(a.Title)); p != nil {
		return p
	}
	return s.classifier.Classify(deref(a.ControlCode))
}

func truncateToDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
