package queue

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"
)

// InsertProcessing records a newly seen clip with status processing. The row
// is committed before any pipeline work starts so a crash mid-pipeline leaves
// a durable record instead of losing the attempt. Clip ids are unique; a
// second insert for the same clip id fails at the database level.
func (s *Store) InsertProcessing(ctx context.Context, clipID, clipURL, title, broadcaster string) (*Clip, error) {
	if clipID == "" {
		return nil, errors.New("clip id required")
	}
	now := time.Now().UTC()
	timestamp := now.Format(time.RFC3339Nano)

	res, err := s.execWithRetry(
		ctx,
		`INSERT INTO processed_clips (
            clip_id, clip_url, title, broadcaster, status, created_at, processed_at
        ) VALUES (?, ?, ?, ?, ?, ?, ?)`,
		clipID,
		clipURL,
		title,
		broadcaster,
		StatusProcessing,
		timestamp,
		timestamp,
	)
	if err != nil {
		return nil, fmt.Errorf("insert clip: %w", err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("last insert id: %w", err)
	}

	return s.GetByID(ctx, id)
}

// GetByID fetches a clip row by row identifier.
func (s *Store) GetByID(ctx context.Context, id int64) (*Clip, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+clipColumns+` FROM processed_clips WHERE id = ?`, id)
	clip, err := scanClip(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get clip: %w", err)
	}
	return clip, nil
}

// GetByClipID fetches a clip row by the platform-assigned clip id.
// A nil result means the clip has never been seen.
func (s *Store) GetByClipID(ctx context.Context, clipID string) (*Clip, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+clipColumns+` FROM processed_clips WHERE clip_id = ?`, clipID)
	clip, err := scanClip(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get clip by clip id: %w", err)
	}
	return clip, nil
}

// MarkUploaded transitions a processing clip to uploaded and records the
// destination id/url and upload time.
func (s *Store) MarkUploaded(ctx context.Context, clipID, videoID, videoURL string) error {
	return s.transition(ctx, clipID, StatusUploaded, func(now string) (string, []any) {
		return `UPDATE processed_clips
                SET status = ?, tiktok_video_id = ?, tiktok_url = ?, uploaded_at = ?, error_message = NULL
                WHERE clip_id = ?`,
			[]any{StatusUploaded, nullableString(videoID), nullableString(videoURL), now, clipID}
	})
}

// MarkFailed transitions a processing clip to failed and stores the error text.
func (s *Store) MarkFailed(ctx context.Context, clipID, message string) error {
	return s.transition(ctx, clipID, StatusFailed, func(now string) (string, []any) {
		return `UPDATE processed_clips
                SET status = ?, error_message = ?
                WHERE clip_id = ?`,
			[]any{StatusFailed, nullableString(message), clipID}
	})
}

func (s *Store) transition(ctx context.Context, clipID string, next Status, build func(now string) (string, []any)) error {
	current, err := s.GetByClipID(ctx, clipID)
	if err != nil {
		return err
	}
	if current == nil {
		return fmt.Errorf("clip %s: no row to transition", clipID)
	}
	if !current.Status.CanTransition(next) {
		return fmt.Errorf("clip %s: illegal transition %s -> %s", clipID, current.Status, next)
	}

	now := time.Now().UTC().Format(time.RFC3339Nano)
	query, args := build(now)
	res, err := s.execWithRetry(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("transition clip to %s: %w", next, err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("clip %s: transition to %s updated no rows", clipID, next)
	}
	return nil
}

// List returns clip rows filtered by status set (or all rows when no status is
// provided), newest first.
func (s *Store) List(ctx context.Context, statuses ...Status) ([]*Clip, error) {
	var (
		rows *sql.Rows
		err  error
	)

	baseQuery := `SELECT ` + clipColumns + ` FROM processed_clips`
	orderClause := ` ORDER BY created_at DESC, id DESC`

	if len(statuses) == 0 {
		rows, err = s.db.QueryContext(ctx, baseQuery+orderClause)
	} else {
		placeholders := makePlaceholders(len(statuses))
		args := make([]any, len(statuses))
		for i, status := range statuses {
			args[i] = status
		}
		query := baseQuery + ` WHERE status IN (` + placeholders + `)` + orderClause
		rows, err = s.db.QueryContext(ctx, query, args...)
	}
	if err != nil {
		return nil, fmt.Errorf("list clips: %w", err)
	}
	defer rows.Close()

	var clips []*Clip
	for rows.Next() {
		clip, err := scanClip(rows)
		if err != nil {
			return nil, err
		}
		clips = append(clips, clip)
	}
	return clips, rows.Err()
}

// Health returns aggregated clip counts per lifecycle state.
func (s *Store) Health(ctx context.Context) (HealthSummary, error) {
	var summary HealthSummary
	rows, err := s.db.QueryContext(ctx, `SELECT status, COUNT(1) FROM processed_clips GROUP BY status`)
	if err != nil {
		return summary, fmt.Errorf("query health: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var statusStr string
		var count int
		if err := rows.Scan(&statusStr, &count); err != nil {
			return summary, fmt.Errorf("scan health row: %w", err)
		}
		summary.Total += count
		switch Status(statusStr) {
		case StatusPending:
			summary.Pending += count
		case StatusProcessing:
			summary.Processing += count
		case StatusUploaded:
			summary.Uploaded += count
		case StatusFailed:
			summary.Failed += count
		}
	}
	return summary, rows.Err()
}
