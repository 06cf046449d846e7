package domain

import "time"

// DateFormat is the fixed-width layout publication dates are stored in.
// Lexical comparison of two such strings is chronological comparison.
const DateFormat = "20060102"

// Announcement is one job-opening notice extracted from a daily BOE summary.
// PublicationDate is the YYYYMMDD day the record was fetched under, assigned
// by the sync driver, not read from the item itself.
type Announcement struct {
	ID              int64     `db:"id" json:"id"`
	ExternalID      *string   `db:"external_id" json:"external_id"`
	ControlCode     *string   `db:"control_code" json:"control_code"`
	Title           *string   `db:"title" json:"title"`
	DetailURL       *string   `db:"detail_url" json:"detail_url"`
	AttachmentURL   *string   `db:"attachment_url" json:"attachment_url"`
	IssuingBody     *string   `db:"issuing_body" json:"issuing_body"`
	PublicationDate string    `db:"publication_date" json:"publication_date"`
	Province        *string   `db:"province" json:"province"`
	CreatedAt       time.Time `db:"created_at" json:"created_at"`
}
