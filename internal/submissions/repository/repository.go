// Package repository provides Postgres access to submission metadata and
// the forward-attempt audit trail.
package repository

import (
	"context"
	"errors"
	"time"

	"zaakbrug_backend/internal/submissions"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

var ErrSubmissionNotFound = errors.New("submission not found")

// Repository wraps a pgx pool.
type Repository struct {
	pool *pgxpool.Pool
}

// New creates a repository on an existing pool.
func New(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// GetByKey loads submission metadata by business key. Content is not
// loaded here; it lives in object storage.
func (r *Repository) GetByKey(ctx context.Context, key string) (submissions.Submission, error) {
	var sub submissions.Submission
	var submitterType string
	err := r.pool.QueryRow(ctx, `
		SELECT submission_key, submitter_id, submitter_type, app_id, form_name, form_title, pdf_key, attachment_names
		FROM submissions
		WHERE submission_key = $1
	`, key).Scan(
		&sub.Key, &sub.SubmitterID, &submitterType, &sub.AppID, &sub.FormName, &sub.FormTitle, &sub.PDFKey, &sub.AttachmentNames,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return submissions.Submission{}, ErrSubmissionNotFound
	}
	if err != nil {
		return submissions.Submission{}, err
	}

	sub.SubmitterType, err = submissions.ParseSubmitterType(submitterType)
	if err != nil {
		return submissions.Submission{}, err
	}
	return sub, nil
}

// ForwardAttempt is one recorded forwarding invocation.
type ForwardAttempt struct {
	ID            uuid.UUID `json:"id"`
	SubmissionKey string    `json:"submissionKey"`
	StateReached  string    `json:"stateReached"`
	ZaakURL       *string   `json:"zaakUrl,omitempty"`
	ErrorMessage  *string   `json:"errorMessage,omitempty"`
	CreatedAt     time.Time `json:"createdAt"`
}

// RecordForwardAttemptParams contains parameters for recording an attempt.
type RecordForwardAttemptParams struct {
	SubmissionKey string
	StateReached  string
	ZaakURL       string
	ErrorMessage  string
}

// RecordForwardAttempt inserts an audit row for one invocation, success or
// failure.
func (r *Repository) RecordForwardAttempt(ctx context.Context, params RecordForwardAttemptParams) (ForwardAttempt, error) {
	var zaakURL, errMsg *string
	if params.ZaakURL != "" {
		zaakURL = &params.ZaakURL
	}
	if params.ErrorMessage != "" {
		errMsg = &params.ErrorMessage
	}

	var attempt ForwardAttempt
	err := r.pool.QueryRow(ctx, `
		INSERT INTO forward_attempts (submission_key, state_reached, zaak_url, error_message)
		VALUES ($1, $2, $3, $4)
		RETURNING id, submission_key, state_reached, zaak_url, error_message, created_at
	`, params.SubmissionKey, params.StateReached, zaakURL, errMsg).Scan(
		&attempt.ID, &attempt.SubmissionKey, &attempt.StateReached, &attempt.ZaakURL, &attempt.ErrorMessage, &attempt.CreatedAt,
	)
	return attempt, err
}

// GetLastAttempt returns the most recent attempt for a submission key, or
// nil when none exists.
func (r *Repository) GetLastAttempt(ctx context.Context, key string) (*ForwardAttempt, error) {
	var attempt ForwardAttempt
	err := r.pool.QueryRow(ctx, `
		SELECT id, submission_key, state_reached, zaak_url, error_message, created_at
		FROM forward_attempts
		WHERE submission_key = $1
		ORDER BY created_at DESC
		LIMIT 1
	`, key).Scan(
		&attempt.ID, &attempt.SubmissionKey, &attempt.StateReached, &attempt.ZaakURL, &attempt.ErrorMessage, &attempt.CreatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &attempt, nil
}

// StuckSubmission identifies a submission whose most recent forward
// attempt failed.
type StuckSubmission struct {
	Key           string
	SubmitterID   string
	SubmitterType string
}

// ListStuckSubmissions returns submissions whose most recent attempt
// failed before the given cutoff. Used by the re-enqueue tooling.
func (r *Repository) ListStuckSubmissions(ctx context.Context, before time.Time) ([]StuckSubmission, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT DISTINCT ON (fa.submission_key)
			fa.submission_key, fa.error_message, s.submitter_id, s.submitter_type
		FROM forward_attempts fa
		JOIN submissions s ON s.submission_key = fa.submission_key
		WHERE fa.created_at < $1
		ORDER BY fa.submission_key, fa.created_at DESC
	`, before)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var stuck []StuckSubmission
	for rows.Next() {
		var s StuckSubmission
		var errMsg *string
		if err := rows.Scan(&s.Key, &errMsg, &s.SubmitterID, &s.SubmitterType); err != nil {
			return nil, err
		}
		if errMsg != nil {
			stuck = append(stuck, s)
		}
	}
	return stuck, rows.Err()
}
