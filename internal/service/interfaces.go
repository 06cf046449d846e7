package service

//go:generate mockgen -source=interfaces.go -destination=mocks/mocks.go -package=mocks

import (
	"context"
	"time"

	"boe_syncer/internal/domain"
)

type AnnouncementStore interface {
	InsertIfNew(ctx context.Context, a *domain.Announcement) (bool, error)
	MaxPublicationDate(ctx context.Context) (string, error)
	PurgeBefore(ctx context.Context, cutoff string) (int64, error)
}

type Source interface {
	ID() string
	Name() string
	FetchDay(ctx context.Context, day time.Time) []domain.Announcement
}

type Classifier interface {
	Classify(text string) *string
}

type Publisher interface {
	Publish(ctx context.Context, a *domain.Announcement) error
	Close() error
}

// Clock supplies "today" so the orchestrator's date arithmetic is testable.
type Clock interface {
	Now() time.Time
}

// SystemClock is the production Clock.
type SystemClock struct{}

func (SystemClock) Now() time.Time {
	return time.Now()
}
