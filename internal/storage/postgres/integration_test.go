//go:build integration

package postgres

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	"github.com/stretchr/testify/suite"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"

	"boe_syncer/internal/domain"
	"boe_syncer/testdata/utils"
)

type PostgresIntegrationSuite struct {
	suite.Suite
	ctx       context.Context
	container *postgres.PostgresContainer
	db        *sqlx.DB
}

func (s *PostgresIntegrationSuite) SetupSuite() {
	s.ctx = context.Background()

	migrationsPath, err := filepath.Abs("../../../migrations")
	s.Require().NoError(err)

	container, err := postgres.Run(s.ctx,
		"postgres:16-alpine",
		postgres.WithDatabase("test_db"),
		postgres.WithUsername("test"),
		postgres.WithPassword("test"),
		postgres.WithInitScripts(
			filepath.Join(migrationsPath, "001_create_announcements.up.sql"),
		),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(30*time.Second),
		),
	)
	s.Require().NoError(err)
	s.container = container

	connStr, err := container.ConnectionString(s.ctx, "sslmode=disable")
	s.Require().NoError(err)

	db, err := sqlx.Connect("postgres", connStr)
	s.Require().NoError(err)
	s.db = db
}

func (s *PostgresIntegrationSuite) TearDownSuite() {
	if s.db != nil {
		s.db.Close()
	}
	if s.container != nil {
		_ = s.container.Terminate(s.ctx)
	}
}

func (s *PostgresIntegrationSuite) SetupTest() {
	_, _ = s.db.ExecContext(s.ctx, "DELETE FROM announcements")
}

func TestPostgresIntegrationSuite(t *testing.T) {
	suite.Run(t, new(PostgresIntegrationSuite))
}

func (s *PostgresIntegrationSuite) announcement(detailURL *string, date string) *domain.Announcement {
	return &domain.Announcement{
		ExternalID:      utils.Ptr("BOE-A-2025-1234"),
		ControlCode:     utils.Ptr("A-2025-17"),
		Title:           utils.Ptr("Resolución de la convocatoria"),
		DetailURL:       detailURL,
		AttachmentURL:   utils.Ptr("https://www.boe.es/dias/BOE-A-2025-1234.pdf"),
		IssuingBody:     utils.Ptr("Ministerio de Hacienda"),
		PublicationDate: date,
		Province:        utils.Ptr("Madrid"),
	}
}

func (s *PostgresIntegrationSuite) TestInsertIfNew_Insert() {
	store := NewAnnouncementStore(s.db)

	a := s.announcement(utils.Ptr("https://www.boe.es/d/1"), "20250108")
	ok, err := store.InsertIfNew(s.ctx, a)
	s.NoError(err)
	s.True(ok)
	s.Greater(a.ID, int64(0))

	var count int
	err = s.db.GetContext(s.ctx, &count, "SELECT COUNT(*) FROM announcements")
	s.NoError(err)
	s.Equal(1, count)
}

func (s *PostgresIntegrationSuite) TestInsertIfNew_DuplicateDetailURLIsNoOp() {
	store := NewAnnouncementStore(s.db)

	first := s.announcement(utils.Ptr("https://www.boe.es/d/1"), "20250108")
	ok, err := store.InsertIfNew(s.ctx, first)
	s.NoError(err)
	s.True(ok)

	// Same detail_url, different everything else: must be skipped, not
	// updated.
	second := s.announcement(utils.Ptr("https://www.boe.es/d/1"), "20250109")
	second.Title = utils.Ptr("Otra cosa")
	ok, err = store.InsertIfNew(s.ctx, second)
	s.NoError(err)
	s.False(ok)

	var count int
	err = s.db.GetContext(s.ctx, &count, "SELECT COUNT(*) FROM announcements")
	s.NoError(err)
	s.Equal(1, count)

	var date string
	err = s.db.GetContext(s.ctx, &date,
		"SELECT publication_date FROM announcements WHERE detail_url = $1",
		"https://www.boe.es/d/1")
	s.NoError(err)
	s.Equal("20250108", date)
}

func (s *PostgresIntegrationSuite) TestInsertIfNew_NullDetailURLAlwaysInserts() {
	store := NewAnnouncementStore(s.db)

	ok, err := store.InsertIfNew(s.ctx, s.announcement(nil, "20250108"))
	s.NoError(err)
	s.True(ok)

	ok, err = store.InsertIfNew(s.ctx, s.announcement(nil, "20250108"))
	s.NoError(err)
	s.True(ok)

	var count int
	err = s.db.GetContext(s.ctx, &count, "SELECT COUNT(*) FROM announcements WHERE detail_url IS NULL")
	s.NoError(err)
	s.Equal(2, count)
}

func (s *PostgresIntegrationSuite) TestMaxPublicationDate_EmptyStore() {
	store := NewAnnouncementStore(s.db)

	max, err := store.MaxPublicationDate(s.ctx)
	s.NoError(err)
	s.Equal("", max)
}

func (s *PostgresIntegrationSuite) TestMaxPublicationDate_ReturnsLatest() {
	store := NewAnnouncementStore(s.db)

	for i, date := range []string{"20250108", "20250110", "20250109"} {
		a := s.announcement(utils.Ptr("https://www.boe.es/d/"+string(rune('a'+i))), date)
		ok, err := store.InsertIfNew(s.ctx, a)
		s.NoError(err)
		s.True(ok)
	}

	max, err := store.MaxPublicationDate(s.ctx)
	s.NoError(err)
	s.Equal("20250110", max)
}

func (s *PostgresIntegrationSuite) TestPurgeBefore_RemovesOlderOnly() {
	store := NewAnnouncementStore(s.db)

	dates := []string{"20250101", "20250105", "20250106", "20250110"}
	for i, date := range dates {
		a := s.announcement(utils.Ptr("https://www.boe.es/d/"+string(rune('a'+i))), date)
		ok, err := store.InsertIfNew(s.ctx, a)
		s.NoError(err)
		s.True(ok)
	}

	purged, err := store.PurgeBefore(s.ctx, "20250106")
	s.NoError(err)
	s.Equal(int64(2), purged)

	var remaining []string
	err = s.db.SelectContext(s.ctx, &remaining,
		"SELECT publication_date FROM announcements ORDER BY publication_date")
	s.NoError(err)
	s.Equal([]string{"20250106", "20250110"}, remaining)
}

func (s *PostgresIntegrationSuite) TestPurgeBefore_NothingToPurge() {
	store := NewAnnouncementStore(s.db)

	purged, err := store.PurgeBefore(s.ctx, "20250101")
	s.NoError(err)
	s.Equal(int64(0), purged)
}

func (s *PostgresIntegrationSuite) TestListByDate_FiltersByIssuingBody() {
	store := NewAnnouncementStore(s.db)

	hacienda := s.announcement(utils.Ptr("https://www.boe.es/d/1"), "20250108")
	hacienda.IssuingBody = utils.Ptr("Ministerio de Hacienda")
	justicia := s.announcement(utils.Ptr("https://www.boe.es/d/2"), "20250108")
	justicia.IssuingBody = utils.Ptr("Ministerio de Justicia")
	otherDay := s.announcement(utils.Ptr("https://www.boe.es/d/3"), "20250109")

	for _, a := range []*domain.Announcement{hacienda, justicia, otherDay} {
		ok, err := store.InsertIfNew(s.ctx, a)
		s.NoError(err)
		s.True(ok)
	}

	all, err := store.ListByDate(s.ctx, "20250108", nil)
	s.NoError(err)
	s.Len(all, 2)

	filtered, err := store.ListByDate(s.ctx, "20250108", []string{"Ministerio de Justicia"})
	s.NoError(err)
	s.Require().Len(filtered, 1)
	s.Require().NotNil(filtered[0].DetailURL)
	s.Equal("https://www.boe.es/d/2", *filtered[0].DetailURL)
}

func (s *PostgresIntegrationSuite) TestDistinctProvinces() {
	store := NewAnnouncementStore(s.db)

	madrid := s.announcement(utils.Ptr("https://www.boe.es/d/1"), "20250108")
	almeria := s.announcement(utils.Ptr("https://www.boe.es/d/2"), "20250108")
	almeria.Province = utils.Ptr("Almería")
	unknown := s.announcement(utils.Ptr("https://www.boe.es/d/3"), "20250108")
	unknown.Province = nil

	for _, a := range []*domain.Announcement{madrid, almeria, unknown} {
		ok, err := store.InsertIfNew(s.ctx, a)
		s.NoError(err)
		s.True(ok)
	}

	provinces, err := store.DistinctProvinces(s.ctx)
	s.NoError(err)
	s.Equal([]string{"Almería", "Madrid"}, provinces)
}
