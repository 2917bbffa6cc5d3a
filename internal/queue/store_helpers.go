package queue

import (
	"database/sql"
	"errors"
	"time"
)

const clipColumns = "id, clip_id, clip_url, title, broadcaster, tiktok_video_id, tiktok_url, status, error_message, created_at, processed_at, uploaded_at"

func scanClip(scanner interface{ Scan(dest ...any) error }) (*Clip, error) {
	var (
		id           int64
		clipID       string
		clipURL      string
		title        string
		broadcaster  string
		videoID      sql.NullString
		videoURL     sql.NullString
		statusStr    string
		errorMessage sql.NullString
		createdRaw   sql.NullString
		processedRaw sql.NullString
		uploadedRaw  sql.NullString
	)

	if err := scanner.Scan(
		&id,
		&clipID,
		&clipURL,
		&title,
		&broadcaster,
		&videoID,
		&videoURL,
		&statusStr,
		&errorMessage,
		&createdRaw,
		&processedRaw,
		&uploadedRaw,
	); err != nil {
		return nil, err
	}

	clip := &Clip{
		ID:            id,
		ClipID:        clipID,
		ClipURL:       clipURL,
		Title:         title,
		Broadcaster:   broadcaster,
		TikTokVideoID: videoID.String,
		TikTokURL:     videoURL.String,
		Status:        Status(statusStr),
		ErrorMessage:  errorMessage.String,
	}

	if created, err := parseTimeString(createdRaw.String); err == nil {
		clip.CreatedAt = created
	}
	if processed, err := parseTimeString(processedRaw.String); err == nil {
		clip.ProcessedAt = processed
	}
	if uploadedRaw.Valid {
		if uploaded, err := parseTimeString(uploadedRaw.String); err == nil {
			clip.UploadedAt = &uploaded
		}
	}
	return clip, nil
}

func nullableString(value string) any {
	if value == "" {
		return nil
	}
	return value
}

func parseTimeString(value string) (time.Time, error) {
	if value == "" {
		return time.Time{}, errors.New("empty")
	}
	if t, err := time.Parse(time.RFC3339Nano, value); err == nil {
		return t, nil
	}
	return time.Parse("2006-01-02 15:04:05", value)
}

func makePlaceholders(count int) string {
	if count <= 0 {
		return ""
	}
	placeholders := make([]byte, 0, count*2)
	for i := 0; i < count; i++ {
		if i > 0 {
			placeholders = append(placeholders, ',')
		}
		placeholders = append(placeholders, '?')
	}
	return string(placeholders)
}
