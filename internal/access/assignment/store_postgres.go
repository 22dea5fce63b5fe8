// Copyright (c) 2026 Chaptra. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package assignment

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/taibuivan/chaptra/internal/platform/apperr"
	"github.com/taibuivan/chaptra/internal/platform/database/schema"
)

// # PostgreSQL Repository

// assignmentRepository implements the [AssignmentRepository] interface using pgx.
type assignmentRepository struct {
	pool *pgxpool.Pool
}

// NewAssignmentRepository constructs a PostgreSQL backed assignment store.
func NewAssignmentRepository(pool *pgxpool.Pool) AssignmentRepository {
	return &assignmentRepository{pool: pool}
}

/*
UpsertAll writes the given grants through one batch pipeline.

Description: Relies on the unique index over (userid, bookid, chapterid).
A conflicting insert replaces the assignment window, so re-assigning a
chapter extends access without ever duplicating the grant.

Parameters:
  - context: context.Context
  - assignments: []*Assignment

Returns:
  - error: Storage failures
*/
func (repository *assignmentRepository) UpsertAll(context context.Context, assignments []*Assignment) error {
	if len(assignments) == 0 {
		return nil
	}

	query := fmt.Sprintf(`
		INSERT INTO %s (%s, %s, %s, %s, %s, %s)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (%s, %s, %s) DO UPDATE
		SET %s = EXCLUDED.%s, %s = EXCLUDED.%s
	`,
		schema.AccessAssignment.Table,
		schema.AccessAssignment.ID,
		schema.AccessAssignment.UserID,
		schema.AccessAssignment.BookID,
		schema.AccessAssignment.ChapterID,
		schema.AccessAssignment.AssignedAt,
		schema.AccessAssignment.ExpiresAt,
		schema.AccessAssignment.UserID,
		schema.AccessAssignment.BookID,
		schema.AccessAssignment.ChapterID,
		schema.AccessAssignment.AssignedAt, schema.AccessAssignment.AssignedAt,
		schema.AccessAssignment.ExpiresAt, schema.AccessAssignment.ExpiresAt,
	)

	batch := &pgx.Batch{}
	for _, assignment := range assignments {
		batch.Queue(query,
			assignment.ID,
			assignment.UserID,
			assignment.BookID,
			assignment.ChapterID,
			assignment.AssignedAt,
			assignment.ExpiresAt,
		)
	}

	response := repository.pool.SendBatch(context, batch)
	if err := response.Close(); err != nil {
		return fmt.Errorf("postgres: failed to batch upsert assignments: %w", err)
	}

	return nil
}

/*
FindByID returns one grant.

Parameters:
  - context: context.Context
  - id: string (UUID)

Returns:
  - *Assignment: The hydrated grant
  - error: apperr.NotFound if missing
*/
func (repository *assignmentRepository) FindByID(context context.Context, id string) (*Assignment, error) {
	query := repository.selectQuery(fmt.Sprintf("%s = $1", schema.AccessAssignment.ID))
	return repository.findOne(context, query, id)
}

/*
FindByKey returns the grant for one (user, book, chapter) triple.

Parameters:
  - context: context.Context
  - userID, bookID, chapterID: string (UUIDs)

Returns:
  - *Assignment: The hydrated grant
  - error: apperr.NotFound if missing
*/
func (repository *assignmentRepository) FindByKey(context context.Context, userID, bookID, chapterID string) (*Assignment, error) {
	query := repository.selectQuery(fmt.Sprintf("%s = $1 AND %s = $2 AND %s = $3",
		schema.AccessAssignment.UserID,
		schema.AccessAssignment.BookID,
		schema.AccessAssignment.ChapterID,
	))
	return repository.findOne(context, query, userID, bookID, chapterID)
}

// selectQuery builds the standard assignment projection with a WHERE clause.
func (repository *assignmentRepository) selectQuery(where string) string {
	return fmt.Sprintf(`
		SELECT %s, %s, %s, %s, %s, %s
		FROM %s
		WHERE %s
	`,
		schema.AccessAssignment.ID,
		schema.AccessAssignment.UserID,
		schema.AccessAssignment.BookID,
		schema.AccessAssignment.ChapterID,
		schema.AccessAssignment.AssignedAt,
		schema.AccessAssignment.ExpiresAt,
		schema.AccessAssignment.Table,
		where,
	)
}

// findOne executes a single-row assignment query.
func (repository *assignmentRepository) findOne(context context.Context, query string, args ...any) (*Assignment, error) {
	assignment := &Assignment{}
	err := repository.pool.QueryRow(context, query, args...).Scan(
		&assignment.ID,
		&assignment.UserID,
		&assignment.BookID,
		&assignment.ChapterID,
		&assignment.AssignedAt,
		&assignment.ExpiresAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperr.NotFound("Assignment")
		}
		return nil, fmt.Errorf("postgres: failed to find assignment: %w", err)
	}
	return assignment, nil
}

/*
Delete removes one grant by ID.

Parameters:
  - context: context.Context
  - id: string (UUID)

Returns:
  - error: apperr.NotFound if missing
*/
func (repository *assignmentRepository) Delete(context context.Context, id string) error {

	query := fmt.Sprintf("DELETE FROM %s WHERE %s = $1",
		schema.AccessAssignment.Table, schema.AccessAssignment.ID)

	result, err := repository.pool.Exec(context, query, id)
	if err != nil {
		return fmt.Errorf("postgres: failed to delete assignment: %w", err)
	}

	if result.RowsAffected() == 0 {
		return apperr.NotFound("Assignment")
	}

	return nil
}

/*
ListActiveForUser returns the user's unexpired grants grouped by book.

Description: Joins book and chapter display names in one query sorted by
book then chapter order; the grouping pass runs over the already-sorted
rows.

Parameters:
  - context: context.Context
  - userID: string (UUID)
  - now: time.Time (Expiry cutoff)

Returns:
  - []*BookGrants: Grouped countdown view
  - error: Database retrieval failures
*/
func (repository *assignmentRepository) ListActiveForUser(context context.Context, userID string, now time.Time) ([]*BookGrants, error) {

	query := fmt.Sprintf(`
		SELECT
			a.%s, a.%s, a.%s, a.%s,
			b.%s AS book_name,
			c.%s AS chapter_name,
			a.%s AS book_id
		FROM %s a
		JOIN %s b ON b.%s = a.%s
		JOIN %s c ON c.%s = a.%s
		WHERE a.%s = $1 AND a.%s > $2
		ORDER BY b.%s ASC, c.%s ASC
	`,
		schema.AccessAssignment.ID,
		schema.AccessAssignment.ChapterID,
		schema.AccessAssignment.AssignedAt,
		schema.AccessAssignment.ExpiresAt,
		schema.CoreBook.Name,
		schema.CoreChapter.Name,
		schema.AccessAssignment.BookID,
		schema.AccessAssignment.Table,
		schema.CoreBook.Table, schema.CoreBook.ID, schema.AccessAssignment.BookID,
		schema.CoreChapter.Table, schema.CoreChapter.ID, schema.AccessAssignment.ChapterID,
		schema.AccessAssignment.UserID,
		schema.AccessAssignment.ExpiresAt,
		schema.CoreBook.Name,
		schema.CoreChapter.OrderIndex,
	)

	rows, err := repository.pool.Query(context, query, userID, now)
	if err != nil {
		return nil, fmt.Errorf("postgres: failed to list active assignments: %w", err)
	}
	defer rows.Close()

	var groups []*BookGrants
	var current *BookGrants

	for rows.Next() {
		var grant Grant
		var bookName, bookID string
		err := rows.Scan(
			&grant.AssignmentID,
			&grant.ChapterID,
			&grant.AssignedAt,
			&grant.ExpiresAt,
			&bookName,
			&grant.ChapterName,
			&bookID,
		)
		if err != nil {
			return nil, fmt.Errorf("postgres: failed to scan assignment row: %w", err)
		}

		if current == nil || current.BookID != bookID {
			current = &BookGrants{BookID: bookID, BookName: bookName}
			groups = append(groups, current)
		}
		current.Chapters = append(current.Chapters, grant)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("postgres: assignment rows iteration failed: %w", err)
	}

	return groups, nil
}

/*
ListExpired returns every grant whose expiry is at or before now.

Parameters:
  - context: context.Context
  - now: time.Time

Returns:
  - []*Assignment: Lapsed grants
  - error: Database retrieval failures
*/
func (repository *assignmentRepository) ListExpired(context context.Context, now time.Time) ([]*Assignment, error) {

	query := repository.selectQuery(fmt.Sprintf("%s <= $1", schema.AccessAssignment.ExpiresAt))

	rows, err := repository.pool.Query(context, query, now)
	if err != nil {
		return nil, fmt.Errorf("postgres: failed to list expired assignments: %w", err)
	}
	defer rows.Close()

	var expired []*Assignment
	for rows.Next() {
		assignment := &Assignment{}
		err := rows.Scan(
			&assignment.ID,
			&assignment.UserID,
			&assignment.BookID,
			&assignment.ChapterID,
			&assignment.AssignedAt,
			&assignment.ExpiresAt,
		)
		if err != nil {
			return nil, fmt.Errorf("postgres: failed to scan expired assignment row: %w", err)
		}
		expired = append(expired, assignment)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("postgres: expired assignment rows iteration failed: %w", err)
	}

	return expired, nil
}

/*
Overview returns the merged access-management view.

Description: A UNION ALL merges approved request chapters (no expiry)
with direct grants (dated expiry), each joined with user, book, and
chapter display fields. COUNT(*) OVER() supplies the total.

Parameters:
  - context: context.Context
  - limit: int
  - offset: int

Returns:
  - []*OverviewRow: Merged rows
  - int: Total row count
  - error: Database retrieval failures
*/
func (repository *assignmentRepository) Overview(context context.Context, limit, offset int) ([]*OverviewRow, int, error) {

	query := fmt.Sprintf(`
		SELECT access.*, COUNT(*) OVER() AS total_count FROM (
			SELECT
				u.%s AS user_id, u.%s AS user_name, u.%s AS user_email,
				b.%s AS book_id, b.%s AS book_name,
				c.%s AS chapter_id, c.%s AS chapter_name,
				'%s' AS source,
				NULL::timestamptz AS expires_at
			FROM %s rc
			JOIN %s r ON r.%s = rc.%s
			JOIN %s u ON u.%s = r.%s
			JOIN %s b ON b.%s = r.%s
			JOIN %s c ON c.%s = rc.%s
			WHERE rc.%s = 'approved'
			UNION ALL
			SELECT
				u.%s, u.%s, u.%s,
				b.%s, b.%s,
				c.%s, c.%s,
				'%s' AS source,
				a.%s AS expires_at
			FROM %s a
			JOIN %s u ON u.%s = a.%s
			JOIN %s b ON b.%s = a.%s
			JOIN %s c ON c.%s = a.%s
		) access
		ORDER BY access.user_name ASC, access.book_name ASC, access.chapter_name ASC
		LIMIT $1 OFFSET $2
	`,
		schema.UserAccount.ID, schema.UserAccount.Name, schema.UserAccount.Email,
		schema.CoreBook.ID, schema.CoreBook.Name,
		schema.CoreChapter.ID, schema.CoreChapter.Name,
		string(SourceApproved),
		schema.AccessRequestChapter.Table,
		schema.AccessRequest.Table, schema.AccessRequest.ID, schema.AccessRequestChapter.RequestID,
		schema.UserAccount.Table, schema.UserAccount.ID, schema.AccessRequest.UserID,
		schema.CoreBook.Table, schema.CoreBook.ID, schema.AccessRequest.BookID,
		schema.CoreChapter.Table, schema.CoreChapter.ID, schema.AccessRequestChapter.ChapterID,
		schema.AccessRequestChapter.Status,
		schema.UserAccount.ID, schema.UserAccount.Name, schema.UserAccount.Email,
		schema.CoreBook.ID, schema.CoreBook.Name,
		schema.CoreChapter.ID, schema.CoreChapter.Name,
		string(SourceAssigned),
		schema.AccessAssignment.ExpiresAt,
		schema.AccessAssignment.Table,
		schema.UserAccount.Table, schema.UserAccount.ID, schema.AccessAssignment.UserID,
		schema.CoreBook.Table, schema.CoreBook.ID, schema.AccessAssignment.BookID,
		schema.CoreChapter.Table, schema.CoreChapter.ID, schema.AccessAssignment.ChapterID,
	)

	rows, err := repository.pool.Query(context, query, limit, offset)
	if err != nil {
		return nil, 0, fmt.Errorf("postgres: failed to query access overview: %w", err)
	}
	defer rows.Close()

	var overview []*OverviewRow
	var totalCount int

	for rows.Next() {
		row := &OverviewRow{}
		err := rows.Scan(
			&row.UserID,
			&row.UserName,
			&row.UserEmail,
			&row.BookID,
			&row.BookName,
			&row.ChapterID,
			&row.ChapterName,
			&row.Source,
			&row.ExpiresAt,
			&totalCount,
		)
		if err != nil {
			return nil, 0, fmt.Errorf("postgres: failed to scan overview row: %w", err)
		}
		overview = append(overview, row)
	}

	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("postgres: overview rows iteration failed: %w", err)
	}

	return overview, totalCount, nil
}
