// Package boe extracts job-opening announcements from the daily summary
// feed of the Boletín Oficial del Estado.
package boe

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"boe_syncer/internal/domain"
)

const (
	SourceID   = "boe"
	SourceName = "Boletín Oficial del Estado"
)

// Config holds BOE source configuration.
type Config struct {
	BaseURL     string
	SectionCode string
	UserAgent   string
	Timeout     time.Duration
}

// Source fetches one day's summary document and yields announcement
// candidates. Every failure mode (network, status, empty body, malformed
// document, missing section) degrades to an empty result: for most days the
// bulletin simply carries no job-opening section, and a sync pass must not
// distinguish that from an outage.
type Source struct {
	httpClient  *http.Client
	baseURL     string
	sectionCode string
	userAgent   string
	logger      *slog.Logger
}

// New creates a new BOE source.
func New(cfg Config, logger *slog.Logger) *Source {
	return &Source{
		httpClient: &http.Client{
			Timeout: cfg.Timeout,
		},
		baseURL:     cfg.BaseURL,
		sectionCode: cfg.SectionCode,
		userAgent:   cfg.UserAgent,
		logger:      logger.With("source", SourceID),
	}
}

// ID returns the source identifier.
func (s *Source) ID() string {
	return SourceID
}

// Name returns human-readable name.
func (s *Source) Name() string {
	return SourceName
}

// FetchDay downloads the summary for the given calendar day and returns the
// announcement candidates of the job-opening section. PublicationDate and
// Province are left empty; the sync driver assigns them.
func (s *Source) FetchDay(ctx context.Context, day time.Time) []domain.Announcement {
	date := day.Format(domain.DateFormat)

	body, err := s.fetch(ctx, date)
	if err != nil {
		s.logger.Debug("no summary for date", "date", date, "reason", err)
		return nil
	}

	records, err := s.parseSummary(body)
	if err != nil {
		s.logger.Warn("summary did not parse", "date", date, "error", err)
		return nil
	}

	s.logger.Debug("extracted announcements", "date", date, "count", len(records))
	return records
}

func (s *Source) fetch(ctx context.Context, date string) ([]byte, error) {
	url := fmt.Sprintf("%s/%s", s.baseURL, date)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}

	req.Header.Set("User-Agent", s.userAgent)
	req.Header.Set("Accept", "application/xml, text/xml, */*; q=0.01")

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("execute request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status: %d", resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read body: %w", err)
	}
	if len(body) == 0 {
		return nil, fmt.Errorf("empty body")
	}

	return body, nil
}
