package queue

import (
	"database/sql"
	"errors"
	"path/filepath"
	"strings"
	"time"
)

const itemColumns = "id, source_path, session_label, status, source_fingerprint, shots_file, groups_file, output_dir, group_plan_data, error_message, created_at, updated_at, progress_stage, progress_percent, progress_message, progress_bytes_copied, progress_total_bytes, shot_count, group_count, approved_count, review_count, hold_count, last_heartbeat, needs_review, review_reason"

func scanItem(scanner interface{ Scan(dest ...any) error }) (*Item, error) {
	var (
		id               int64
		sourcePath       sql.NullString
		sessionLabel     sql.NullString
		statusStr        string
		fingerprint      sql.NullString
		shotsFile        sql.NullString
		groupsFile       sql.NullString
		outputDir        sql.NullString
		groupPlan        sql.NullString
		errorMessage     sql.NullString
		createdRaw       sql.NullString
		updatedRaw       sql.NullString
		progressStage    sql.NullString
		progressPercent  sql.NullFloat64
		progressMessage  sql.NullString
		bytesCopied      sql.NullInt64
		totalBytes       sql.NullInt64
		shotCount        sql.NullInt64
		groupCount       sql.NullInt64
		approvedCount    sql.NullInt64
		reviewCount      sql.NullInt64
		holdCount        sql.NullInt64
		lastHeartbeatRaw sql.NullString
		needsReview      sql.NullInt64
		reviewReason     sql.NullString
	)

	if err := scanner.Scan(
		&id,
		&sourcePath,
		&sessionLabel,
		&statusStr,
		&fingerprint,
		&shotsFile,
		&groupsFile,
		&outputDir,
		&groupPlan,
		&errorMessage,
		&createdRaw,
		&updatedRaw,
		&progressStage,
		&progressPercent,
		&progressMessage,
		&bytesCopied,
		&totalBytes,
		&shotCount,
		&groupCount,
		&approvedCount,
		&reviewCount,
		&holdCount,
		&lastHeartbeatRaw,
		&needsReview,
		&reviewReason,
	); err != nil {
		return nil, err
	}

	item := &Item{
		ID:                  id,
		SourcePath:          sourcePath.String,
		SessionLabel:        sessionLabel.String,
		Status:              Status(statusStr),
		SourceFingerprint:   fingerprint.String,
		ShotsFile:           shotsFile.String,
		GroupsFile:          groupsFile.String,
		OutputDir:           outputDir.String,
		GroupPlanData:       groupPlan.String,
		ErrorMessage:        errorMessage.String,
		ProgressStage:       progressStage.String,
		ProgressPercent:     progressPercent.Float64,
		ProgressMessage:     progressMessage.String,
		ProgressBytesCopied: bytesCopied.Int64,
		ProgressTotalBytes:  totalBytes.Int64,
		ShotCount:           int(shotCount.Int64),
		GroupCount:          int(groupCount.Int64),
		ApprovedCount:       int(approvedCount.Int64),
		ReviewCount:         int(reviewCount.Int64),
		HoldCount:           int(holdCount.Int64),
	}
	if needsReview.Valid {
		item.NeedsReview = needsReview.Int64 != 0
	}
	item.ReviewReason = reviewReason.String

	if created, err := parseTimeString(createdRaw.String); err == nil {
		item.CreatedAt = created
	}
	if updated, err := parseTimeString(updatedRaw.String); err == nil {
		item.UpdatedAt = updated
	}
	if lastHeartbeatRaw.Valid {
		if heartbeat, err := parseTimeString(lastHeartbeatRaw.String); err == nil {
			item.LastHeartbeat = &heartbeat
		}
	}
	return item, nil
}

func nullableString(value string) any {
	if value == "" {
		return nil
	}
	return value
}

func nullableTime(value *time.Time) any {
	if value == nil {
		return nil
	}
	v := value.UTC().Format(time.RFC3339Nano)
	return v
}

func boolToInt(value bool) int {
	if value {
		return 1
	}
	return 0
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

func inferLabelFromPath(path string) string {
	base := strings.TrimSpace(filepath.Base(filepath.Clean(path)))
	if base == "" || base == "." || base == string(filepath.Separator) {
		return "Card Import"
	}
	return base
}
