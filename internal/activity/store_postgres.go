// Copyright (c) 2026 Chaptra. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package activity

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/taibuivan/chaptra/internal/platform/database/schema"
)

// # PostgreSQL Repository

// activityRepository implements the [ActivityRepository] interface using pgx.
type activityRepository struct {
	pool *pgxpool.Pool
}

// NewActivityRepository constructs a PostgreSQL backed activity store.
func NewActivityRepository(pool *pgxpool.Pool) ActivityRepository {
	return &activityRepository{pool: pool}
}

/*
Record upserts one reading increment.

Description: Relies on the unique index over (userid, bookid, chapterid).
On conflict the counters accumulate while the last page overwrites, so
every incoming record folds into the single row per chapter.

Parameters:
  - context: context.Context
  - entry: *Entry (Increment carrying pages, seconds, last page)

Returns:
  - *Entry: The accumulated row after the write
  - error: Storage failures
*/
func (repository *activityRepository) Record(context context.Context, entry *Entry) (*Entry, error) {

	query := fmt.Sprintf(`
		INSERT INTO %s AS log (%s, %s, %s, %s, %s, %s, %s, %s)
		VALUES ($1, $2, $3, $4, $5, $6, $7, NOW())
		ON CONFLICT (%s, %s, %s) DO UPDATE
		SET %s = EXCLUDED.%s,
		    %s = log.%s + EXCLUDED.%s,
		    %s = log.%s + EXCLUDED.%s,
		    %s = NOW()
		RETURNING %s, %s, %s, %s, %s, %s, %s, %s
	`,
		schema.CoreActivityLog.Table,
		schema.CoreActivityLog.ID,
		schema.CoreActivityLog.UserID,
		schema.CoreActivityLog.BookID,
		schema.CoreActivityLog.ChapterID,
		schema.CoreActivityLog.LastPage,
		schema.CoreActivityLog.PagesViewed,
		schema.CoreActivityLog.SecondsRead,
		schema.CoreActivityLog.UpdatedAt,
		schema.CoreActivityLog.UserID,
		schema.CoreActivityLog.BookID,
		schema.CoreActivityLog.ChapterID,
		schema.CoreActivityLog.LastPage, schema.CoreActivityLog.LastPage,
		schema.CoreActivityLog.PagesViewed, schema.CoreActivityLog.PagesViewed, schema.CoreActivityLog.PagesViewed,
		schema.CoreActivityLog.SecondsRead, schema.CoreActivityLog.SecondsRead, schema.CoreActivityLog.SecondsRead,
		schema.CoreActivityLog.UpdatedAt,
		schema.CoreActivityLog.ID,
		schema.CoreActivityLog.UserID,
		schema.CoreActivityLog.BookID,
		schema.CoreActivityLog.ChapterID,
		schema.CoreActivityLog.LastPage,
		schema.CoreActivityLog.PagesViewed,
		schema.CoreActivityLog.SecondsRead,
		schema.CoreActivityLog.UpdatedAt,
	)

	accumulated := &Entry{}
	err := repository.pool.QueryRow(context, query,
		entry.ID,
		entry.UserID,
		entry.BookID,
		entry.ChapterID,
		entry.LastPage,
		entry.PagesViewed,
		entry.SecondsRead,
	).Scan(
		&accumulated.ID,
		&accumulated.UserID,
		&accumulated.BookID,
		&accumulated.ChapterID,
		&accumulated.LastPage,
		&accumulated.PagesViewed,
		&accumulated.SecondsRead,
		&accumulated.UpdatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("postgres: failed to record activity: %w", err)
	}

	return accumulated, nil
}

/*
ContinueReading returns the user's shelf, most recently read first.

Parameters:
  - context: context.Context
  - userID: string (UUID)
  - limit: int

Returns:
  - []*Progress: Records with book and chapter display names
  - error: Database retrieval failures
*/
func (repository *activityRepository) ContinueReading(context context.Context, userID string, limit int) ([]*Progress, error) {

	query := fmt.Sprintf(`
		SELECT
			log.%s, log.%s, log.%s, log.%s, log.%s, log.%s, log.%s, log.%s,
			b.%s AS book_name,
			c.%s AS chapter_name
		FROM %s log
		JOIN %s b ON b.%s = log.%s
		JOIN %s c ON c.%s = log.%s
		WHERE log.%s = $1
		ORDER BY log.%s DESC
		LIMIT $2
	`,
		schema.CoreActivityLog.ID,
		schema.CoreActivityLog.UserID,
		schema.CoreActivityLog.BookID,
		schema.CoreActivityLog.ChapterID,
		schema.CoreActivityLog.LastPage,
		schema.CoreActivityLog.PagesViewed,
		schema.CoreActivityLog.SecondsRead,
		schema.CoreActivityLog.UpdatedAt,
		schema.CoreBook.Name,
		schema.CoreChapter.Name,
		schema.CoreActivityLog.Table,
		schema.CoreBook.Table, schema.CoreBook.ID, schema.CoreActivityLog.BookID,
		schema.CoreChapter.Table, schema.CoreChapter.ID, schema.CoreActivityLog.ChapterID,
		schema.CoreActivityLog.UserID,
		schema.CoreActivityLog.UpdatedAt,
	)

	rows, err := repository.pool.Query(context, query, userID, limit)
	if err != nil {
		return nil, fmt.Errorf("postgres: failed to list reading progress: %w", err)
	}
	defer rows.Close()

	var shelf []*Progress
	for rows.Next() {
		progress := &Progress{}
		err := rows.Scan(
			&progress.ID,
			&progress.UserID,
			&progress.BookID,
			&progress.ChapterID,
			&progress.LastPage,
			&progress.PagesViewed,
			&progress.SecondsRead,
			&progress.UpdatedAt,
			&progress.BookName,
			&progress.ChapterName,
		)
		if err != nil {
			return nil, fmt.Errorf("postgres: failed to scan progress row: %w", err)
		}
		shelf = append(shelf, progress)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("postgres: progress rows iteration failed: %w", err)
	}

	return shelf, nil
}

/*
Report returns the admin usage view, most recently read first.

Parameters:
  - context: context.Context
  - limit: int
  - offset: int

Returns:
  - []*ReportRow: Records joined with reader and book display fields
  - int: Total record count
  - error: Database retrieval failures
*/
func (repository *activityRepository) Report(context context.Context, limit, offset int) ([]*ReportRow, int, error) {

	query := fmt.Sprintf(`
		SELECT
			log.%s, log.%s, log.%s, log.%s, log.%s, log.%s, log.%s, log.%s,
			b.%s AS book_name,
			c.%s AS chapter_name,
			u.%s AS user_name,
			u.%s AS user_email,
			COUNT(*) OVER() AS total_count
		FROM %s log
		JOIN %s b ON b.%s = log.%s
		JOIN %s c ON c.%s = log.%s
		JOIN %s u ON u.%s = log.%s
		ORDER BY log.%s DESC
		LIMIT $1 OFFSET $2
	`,
		schema.CoreActivityLog.ID,
		schema.CoreActivityLog.UserID,
		schema.CoreActivityLog.BookID,
		schema.CoreActivityLog.ChapterID,
		schema.CoreActivityLog.LastPage,
		schema.CoreActivityLog.PagesViewed,
		schema.CoreActivityLog.SecondsRead,
		schema.CoreActivityLog.UpdatedAt,
		schema.CoreBook.Name,
		schema.CoreChapter.Name,
		schema.UserAccount.Name,
		schema.UserAccount.Email,
		schema.CoreActivityLog.Table,
		schema.CoreBook.Table, schema.CoreBook.ID, schema.CoreActivityLog.BookID,
		schema.CoreChapter.Table, schema.CoreChapter.ID, schema.CoreActivityLog.ChapterID,
		schema.UserAccount.Table, schema.UserAccount.ID, schema.CoreActivityLog.UserID,
		schema.CoreActivityLog.UpdatedAt,
	)

	rows, err := repository.pool.Query(context, query, limit, offset)
	if err != nil {
		return nil, 0, fmt.Errorf("postgres: failed to query activity report: %w", err)
	}
	defer rows.Close()

	var report []*ReportRow
	var totalCount int

	for rows.Next() {
		row := &ReportRow{}
		err := rows.Scan(
			&row.ID,
			&row.UserID,
			&row.BookID,
			&row.ChapterID,
			&row.LastPage,
			&row.PagesViewed,
			&row.SecondsRead,
			&row.UpdatedAt,
			&row.BookName,
			&row.ChapterName,
			&row.UserName,
			&row.UserEmail,
			&totalCount,
		)
		if err != nil {
			return nil, 0, fmt.Errorf("postgres: failed to scan report row: %w", err)
		}
		report = append(report, row)
	}

	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("postgres: report rows iteration failed: %w", err)
	}

	return report, totalCount, nil
}
