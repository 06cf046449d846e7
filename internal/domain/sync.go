package domain

import "time"

// SyncStats holds statistics about one range-sync run.
type SyncStats struct {
	Days     int
	New      int
	Purged   int64
	Duration time.Duration
}
