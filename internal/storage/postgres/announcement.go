package postgres

import (
	"context"
	"database/sql"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"boe_syncer/internal/domain"
)

type AnnouncementStore struct {
	db *sqlx.DB
}

func NewAnnouncementStore(db *sqlx.DB) *AnnouncementStore {
	return &AnnouncementStore{db: db}
}

// InsertIfNew inserts the announcement unless its detail_url is already
// present. Returns true when a row was written. The unique constraint is the
// sole duplicate guard; a NULL detail_url never conflicts, so degenerate
// records are always written.
func (s *AnnouncementStore) InsertIfNew(ctx context.Context, a *domain.Announcement) (bool, error) {
	query := `
		INSERT INTO announcements (
			external_id, control_code, title, detail_url, attachment_url,
			issuing_body, publication_date, province
		) VALUES (
			$1, $2, $3, $4, $5, $6, $7, $8
		)
		ON CONFLICT (detail_url) DO NOTHING
		RETURNING id`

	err := s.db.QueryRowContext(ctx, query,
		a.ExternalID,
		a.ControlCode,
		a.Title,
		a.DetailURL,
		a.AttachmentURL,
		a.IssuingBody,
		a.PublicationDate,
		a.Province,
	).Scan(&a.ID)

	if err == sql.ErrNoRows {
		// Conflict: the detail_url is already known.
		return false, nil
	}
	if err != nil {
		return false, err
	}

	return true, nil
}

// MaxPublicationDate returns the latest stored publication date, or the
// empty string when the store is empty. Dates are fixed-width YYYYMMDD
// strings, so the SQL MAX is the chronological maximum.
func (s *AnnouncementStore) MaxPublicationDate(ctx context.Context) (string, error) {
	var max string
	err := s.db.GetContext(ctx, &max,
		"SELECT COALESCE(MAX(publication_date), '') FROM announcements")
	if err != nil {
		return "", err
	}
	return max, nil
}

// PurgeBefore deletes every announcement published strictly before cutoff
// (YYYYMMDD) and returns the number of rows removed.
func (s *AnnouncementStore) PurgeBefore(ctx context.Context, cutoff string) (int64, error) {
	res, err := s.db.ExecContext(ctx,
		"DELETE FROM announcements WHERE publication_date < $1", cutoff)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

// ListByDate returns the announcements of one publication date, optionally
// restricted to a set of issuing bodies. The notification dispatchers use it
// to build per-subscriber digests.
func (s *AnnouncementStore) ListByDate(ctx context.Context, date string, issuingBodies []string) ([]domain.Announcement, error) {
	var result []domain.Announcement
	var err error

	if len(issuingBodies) == 0 {
		err = s.db.SelectContext(ctx, &result, `
			SELECT * FROM announcements
			WHERE publication_date = $1
			ORDER BY id`, date)
	} else {
		err = s.db.SelectContext(ctx, &result, `
			SELECT * FROM announcements
			WHERE publication_date = $1 AND issuing_body = ANY($2)
			ORDER BY id`, date, pq.Array(issuingBodies))
	}
	if err != nil {
		return nil, err
	}

	return result, nil
}

// DistinctProvinces returns the provinces present in the store, sorted.
func (s *AnnouncementStore) DistinctProvinces(ctx context.Context) ([]string, error) {
	var result []string
	err := s.db.SelectContext(ctx, &result, `
		SELECT DISTINCT province FROM announcements
		WHERE province IS NOT NULL
		ORDER BY province`)
	if err != nil {
		return nil, err
	}
	return result, nil
}
