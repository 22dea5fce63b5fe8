// Copyright (c) 2026 Chaptra. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package request

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/taibuivan/chaptra/internal/platform/apperr"
	"github.com/taibuivan/chaptra/internal/platform/database/schema"
)

// # PostgreSQL Repository

// requestRepository implements the [RequestRepository] interface using pgx.
type requestRepository struct {
	pool *pgxpool.Pool
}

// NewRequestRepository constructs a PostgreSQL backed request store.
func NewRequestRepository(pool *pgxpool.Pool) RequestRepository {
	return &requestRepository{pool: pool}
}

/*
Create persists a request and its chapter rows atomically.

Parameters:
  - context: context.Context
  - request: *Request

Returns:
  - error: Storage or constraint failures
*/
func (repository *requestRepository) Create(context context.Context, request *Request) error {

	transaction, err := repository.pool.Begin(context)
	if err != nil {
		return fmt.Errorf("postgres: failed to begin transaction: %w", err)
	}
	defer transaction.Rollback(context)

	query := fmt.Sprintf(`
		INSERT INTO %s (%s, %s, %s, %s)
		VALUES ($1, $2, $3, $4)
	`,
		schema.AccessRequest.Table,
		schema.AccessRequest.ID,
		schema.AccessRequest.UserID,
		schema.AccessRequest.BookID,
		schema.AccessRequest.Status,
	)

	_, err = transaction.Exec(context, query,
		request.ID,
		request.UserID,
		request.BookID,
		string(request.Status),
	)
	if err != nil {
		return fmt.Errorf("postgres: failed to insert request: %w", err)
	}

	// Chapter rows through a single batch pipeline
	insQuery := fmt.Sprintf(`
		INSERT INTO %s (%s, %s, %s, %s)
		VALUES ($1, $2, $3, $4)
	`,
		schema.AccessRequestChapter.Table,
		schema.AccessRequestChapter.ID,
		schema.AccessRequestChapter.RequestID,
		schema.AccessRequestChapter.ChapterID,
		schema.AccessRequestChapter.Status,
	)

	batch := &pgx.Batch{}
	for _, decision := range request.Chapters {
		batch.Queue(insQuery,
			decision.ID,
			request.ID,
			decision.ChapterID,
			string(decision.Status),
		)
	}

	response := transaction.SendBatch(context, batch)
	if err := response.Close(); err != nil {
		return fmt.Errorf("postgres: failed to batch insert request chapters: %w", err)
	}

	if err := transaction.Commit(context); err != nil {
		return fmt.Errorf("postgres: failed to commit request transaction: %w", err)
	}

	return nil
}

/*
FindByID returns the request with its chapter decisions.

Parameters:
  - context: context.Context
  - id: string (UUID)

Returns:
  - *Request: The hydrated aggregate
  - error: apperr.NotFound if missing
*/
func (repository *requestRepository) FindByID(context context.Context, id string) (*Request, error) {

	query := fmt.Sprintf(`
		SELECT %s, %s, %s, %s, %s, %s
		FROM %s
		WHERE %s = $1
	`,
		schema.AccessRequest.ID,
		schema.AccessRequest.UserID,
		schema.AccessRequest.BookID,
		schema.AccessRequest.Status,
		schema.AccessRequest.CreatedAt,
		schema.AccessRequest.UpdatedAt,
		schema.AccessRequest.Table,
		schema.AccessRequest.ID,
	)

	request := &Request{}
	err := repository.pool.QueryRow(context, query, id).Scan(
		&request.ID,
		&request.UserID,
		&request.BookID,
		&request.Status,
		&request.CreatedAt,
		&request.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperr.NotFound("Request")
		}
		return nil, fmt.Errorf("postgres: failed to find request: %w", err)
	}

	decisions, err := repository.decisionsFor(context, request.ID)
	if err != nil {
		return nil, err
	}
	request.Chapters = decisions

	return request, nil
}

// decisionsFor loads the chapter rows of one request.
func (repository *requestRepository) decisionsFor(context context.Context, requestID string) ([]ChapterDecision, error) {

	query := fmt.Sprintf(`
		SELECT %s, %s, %s, %s, %s
		FROM %s
		WHERE %s = $1
		ORDER BY %s ASC
	`,
		schema.AccessRequestChapter.ID,
		schema.AccessRequestChapter.RequestID,
		schema.AccessRequestChapter.ChapterID,
		schema.AccessRequestChapter.Status,
		schema.AccessRequestChapter.DecidedAt,
		schema.AccessRequestChapter.Table,
		schema.AccessRequestChapter.RequestID,
		schema.AccessRequestChapter.ID,
	)

	rows, err := repository.pool.Query(context, query, requestID)
	if err != nil {
		return nil, fmt.Errorf("postgres: failed to list request chapters: %w", err)
	}
	defer rows.Close()

	var decisions []ChapterDecision
	for rows.Next() {
		var decision ChapterDecision
		err := rows.Scan(
			&decision.ID,
			&decision.RequestID,
			&decision.ChapterID,
			&decision.Status,
			&decision.DecidedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("postgres: failed to scan request chapter row: %w", err)
		}
		decisions = append(decisions, decision)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("postgres: request chapter rows iteration failed: %w", err)
	}

	return decisions, nil
}

/*
List returns requests joined with requester and book display fields.

Description: Uses COUNT(*) OVER() for the total and a JSON aggregation
sub-query to hydrate the chapter rows in the same round-trip.

Parameters:
  - context: context.Context
  - status: Status (Empty matches every status)
  - limit: int
  - offset: int

Returns:
  - []*View: Joined review rows, newest first
  - int: Total count matching the filter
  - error: Database execution errors
*/
func (repository *requestRepository) List(context context.Context, status Status, limit, offset int) ([]*View, int, error) {

	var args []any
	argID := 1

	query := fmt.Sprintf(`
		SELECT
			r.%s, r.%s, r.%s, r.%s, r.%s, r.%s,
			u.%s AS user_name,
			u.%s AS user_email,
			b.%s AS book_name,
			COUNT(*) OVER() AS total_count,
			COALESCE((
				SELECT json_agg(json_build_object(
					'id', rc.%s,
					'request_id', rc.%s,
					'chapter_id', rc.%s,
					'status', rc.%s,
					'decided_at', rc.%s
				) ORDER BY rc.%s)
				FROM %s rc
				WHERE rc.%s = r.%s
			), '[]') AS chapters
		FROM %s r
		JOIN %s u ON u.%s = r.%s
		JOIN %s b ON b.%s = r.%s
		WHERE TRUE
	`,
		schema.AccessRequest.ID,
		schema.AccessRequest.UserID,
		schema.AccessRequest.BookID,
		schema.AccessRequest.Status,
		schema.AccessRequest.CreatedAt,
		schema.AccessRequest.UpdatedAt,
		schema.UserAccount.Name,
		schema.UserAccount.Email,
		schema.CoreBook.Name,
		schema.AccessRequestChapter.ID,
		schema.AccessRequestChapter.RequestID,
		schema.AccessRequestChapter.ChapterID,
		schema.AccessRequestChapter.Status,
		schema.AccessRequestChapter.DecidedAt,
		schema.AccessRequestChapter.ID,
		schema.AccessRequestChapter.Table,
		schema.AccessRequestChapter.RequestID, schema.AccessRequest.ID,
		schema.AccessRequest.Table,
		schema.UserAccount.Table, schema.UserAccount.ID, schema.AccessRequest.UserID,
		schema.CoreBook.Table, schema.CoreBook.ID, schema.AccessRequest.BookID,
	)

	if status != "" {
		query += fmt.Sprintf(" AND r.%s = $%d", schema.AccessRequest.Status, argID)
		args = append(args, string(status))
		argID++
	}

	query += fmt.Sprintf(" ORDER BY r.%s DESC", schema.AccessRequest.CreatedAt)
	query += fmt.Sprintf(" LIMIT $%d OFFSET $%d", argID, argID+1)
	args = append(args, limit, offset)

	rows, err := repository.pool.Query(context, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("postgres: failed to list requests: %w", err)
	}
	defer rows.Close()

	var views []*View
	var totalCount int

	for rows.Next() {
		view := &View{}
		var chaptersJSON []byte
		err := rows.Scan(
			&view.ID,
			&view.UserID,
			&view.BookID,
			&view.Status,
			&view.CreatedAt,
			&view.UpdatedAt,
			&view.UserName,
			&view.UserEmail,
			&view.BookName,
			&totalCount,
			&chaptersJSON,
		)
		if err != nil {
			return nil, 0, fmt.Errorf("postgres: failed to scan request row: %w", err)
		}

		if err := scanDecisionsJSON(chaptersJSON, &view.Chapters); err != nil {
			return nil, 0, err
		}

		views = append(views, view)
	}

	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("postgres: request rows iteration failed: %w", err)
	}

	return views, totalCount, nil
}

/*
ApplyDecision transitions chapter rows and the overall status atomically.

Parameters:
  - context: context.Context
  - requestID: string (UUID)
  - chapterIDs: []string
  - decision: Status (approved or rejected)
  - decidedAt: time.Time
  - overall: Status

Returns:
  - error: Storage failures
*/
func (repository *requestRepository) ApplyDecision(context context.Context, requestID string, chapterIDs []string, decision Status, decidedAt time.Time, overall Status) error {

	transaction, err := repository.pool.Begin(context)
	if err != nil {
		return fmt.Errorf("postgres: failed to begin transaction: %w", err)
	}
	defer transaction.Rollback(context)

	chapterQuery := fmt.Sprintf(`
		UPDATE %s SET %s = $1, %s = $2
		WHERE %s = $3 AND %s = ANY($4)
	`,
		schema.AccessRequestChapter.Table,
		schema.AccessRequestChapter.Status,
		schema.AccessRequestChapter.DecidedAt,
		schema.AccessRequestChapter.RequestID,
		schema.AccessRequestChapter.ChapterID,
	)

	if _, err := transaction.Exec(context, chapterQuery, string(decision), decidedAt, requestID, chapterIDs); err != nil {
		return fmt.Errorf("postgres: failed to update request chapters: %w", err)
	}

	overallQuery := fmt.Sprintf(`
		UPDATE %s SET %s = $1, %s = NOW()
		WHERE %s = $2
	`,
		schema.AccessRequest.Table,
		schema.AccessRequest.Status,
		schema.AccessRequest.UpdatedAt,
		schema.AccessRequest.ID,
	)

	if _, err := transaction.Exec(context, overallQuery, string(overall), requestID); err != nil {
		return fmt.Errorf("postgres: failed to update request status: %w", err)
	}

	if err := transaction.Commit(context); err != nil {
		return fmt.Errorf("postgres: failed to commit decision transaction: %w", err)
	}

	return nil
}

/*
ApprovedForUser returns the user's derived viewing rights.

Parameters:
  - context: context.Context
  - userID: string (UUID)

Returns:
  - []*ApprovedChapter: One row per approved chapter
  - error: Database retrieval failures
*/
func (repository *requestRepository) ApprovedForUser(context context.Context, userID string) ([]*ApprovedChapter, error) {
	where := fmt.Sprintf("r.%s = $1", schema.AccessRequest.UserID)
	return repository.approvedBy(context, where, userID)
}

/*
ApprovedForBook returns the user's approved chapter rows for one book.

Parameters:
  - context: context.Context
  - userID: string (UUID)
  - bookID: string (UUID)

Returns:
  - []*ApprovedChapter: One row per approved chapter
  - error: Database retrieval failures
*/
func (repository *requestRepository) ApprovedForBook(context context.Context, userID, bookID string) ([]*ApprovedChapter, error) {
	where := fmt.Sprintf("r.%s = $1 AND r.%s = $2",
		schema.AccessRequest.UserID, schema.AccessRequest.BookID)
	return repository.approvedBy(context, where, userID, bookID)
}

// scanDecisionsJSON unmarshals the aggregated chapter rows of a list query.
// Timestamps are timestamptz, so the aggregated JSON parses as RFC 3339.
func scanDecisionsJSON(raw []byte, target *[]ChapterDecision) error {
	if err := json.Unmarshal(raw, target); err != nil {
		return fmt.Errorf("postgres: failed to decode request chapters json: %w", err)
	}
	return nil
}

// approvedBy scans approved chapter rows matching a request-side where
// clause. The clause's placeholders start at $1; the approved-status
// filter takes the next position.
func (repository *requestRepository) approvedBy(context context.Context, where string, args ...any) ([]*ApprovedChapter, error) {

	query := fmt.Sprintf(`
		SELECT r.%s, r.%s, r.%s, rc.%s, rc.%s
		FROM %s rc
		JOIN %s r ON r.%s = rc.%s
		WHERE %s AND rc.%s = $%d
		ORDER BY rc.%s DESC
	`,
		schema.AccessRequest.ID,
		schema.AccessRequest.UserID,
		schema.AccessRequest.BookID,
		schema.AccessRequestChapter.ChapterID,
		schema.AccessRequestChapter.DecidedAt,
		schema.AccessRequestChapter.Table,
		schema.AccessRequest.Table,
		schema.AccessRequest.ID, schema.AccessRequestChapter.RequestID,
		where,
		schema.AccessRequestChapter.Status, len(args)+1,
		schema.AccessRequestChapter.DecidedAt,
	)

	args = append(args, string(StatusApproved))
	rows, err := repository.pool.Query(context, query, args...)
	if err != nil {
		return nil, fmt.Errorf("postgres: failed to list approved chapters: %w", err)
	}
	defer rows.Close()

	var approved []*ApprovedChapter
	for rows.Next() {
		row := &ApprovedChapter{}
		err := rows.Scan(
			&row.RequestID,
			&row.UserID,
			&row.BookID,
			&row.ChapterID,
			&row.DecidedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("postgres: failed to scan approved chapter row: %w", err)
		}
		approved = append(approved, row)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("postgres: approved chapter rows iteration failed: %w", err)
	}

	return approved, nil
}
