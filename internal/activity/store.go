// Copyright (c) 2026 Chaptra. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package activity

import "context"

// # Repository Contract

// ActivityRepository persists accumulated reading records.
type ActivityRepository interface {
	// Record upserts one reading increment. The (user, book, chapter)
	// row accumulates pages and seconds; the last page overwrites.
	Record(ctx context.Context, entry *Entry) (*Entry, error)

	// ContinueReading returns the user's records with display names,
	// most recently read first.
	ContinueReading(ctx context.Context, userID string, limit int) ([]*Progress, error)

	// Report returns every record joined with reader and book display
	// fields, most recently read first, with the total count.
	Report(ctx context.Context, limit, offset int) ([]*ReportRow, int, error)
}
