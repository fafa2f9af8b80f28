package main

import (
	"fmt"
	"path/filepath"
	"sort"
	"strings"

	"lightbox/internal/api"
)

func buildQueueStatusRows(stats map[string]int) [][]string {
	if len(stats) == 0 {
		return nil
	}
	keys := make([]string, 0, len(stats))
	for key := range stats {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	rows := make([][]string, 0, len(keys))
	for _, key := range keys {
		rows = append(rows, []string{formatStatusLabel(key), fmt.Sprintf("%d", stats[key])})
	}
	return rows
}

func buildQueueListRows(items []api.QueueItem) [][]string {
	if len(items) == 0 {
		return nil
	}
	sorted := api.SortQueueItemsNewestFirst(items)

	rows := make([][]string, 0, len(sorted))
	for _, item := range sorted {
		label := strings.TrimSpace(item.SessionLabel)
		if label == "" {
			source := strings.TrimSpace(item.SourcePath)
			if source != "" {
				label = filepath.Base(source)
			} else {
				label = "Unknown"
			}
		}
		rows = append(rows, []string{
			fmt.Sprintf("%d", item.ID),
			label,
			formatStatusLabel(item.Status),
			formatDisplayTime(item.CreatedAt),
			fmt.Sprintf("%d", item.ShotCount),
			fmt.Sprintf("%d", item.GroupCount),
			formatFingerprint(item.SourceFingerprint),
		})
	}
	return rows
}

func buildStackRows(stacks []api.StackSummary) [][]string {
	rows := make([][]string, 0, len(stacks))
	for _, stack := range stacks {
		rows = append(rows, []string{
			fmt.Sprintf("%d", stack.Index),
			stack.FolderName,
			fmt.Sprintf("%d", stack.Shots),
			formatStackTime(stack.CapturedAt),
			formatScore(stack.Score),
			formatStackDecision(stack),
			strings.Join(stack.Reasons, "; "),
		})
	}
	return rows
}

func renderStackTable(stacks []api.StackSummary) string {
	return renderTable(
		[]string{"#", "Folder", "Shots", "Captured", "Score", "Decision", "Notes"},
		buildStackRows(stacks),
		[]columnAlignment{alignRight, alignLeft, alignRight, alignLeft, alignRight, alignLeft, alignLeft},
	)
}

func formatStackDecision(stack api.StackSummary) string {
	label := formatStatusLabel(stack.Decision)
	if stack.HDR {
		label += " (HDR)"
	}
	return label
}

func formatStatusLabel(status string) string {
	status = strings.TrimSpace(status)
	if status == "" {
		return ""
	}
	parts := strings.Split(status, "_")
	for i, part := range parts {
		lower := strings.ToLower(part)
		if lower == "" {
			continue
		}
		parts[i] = strings.ToUpper(lower[:1]) + lower[1:]
	}
	return strings.Join(parts, " ")
}

func formatDisplayTime(value string) string {
	value = strings.TrimSpace(value)
	if value == "" {
		return ""
	}
	if t := api.ParseQueueTime(value); !t.IsZero() {
		return t.UTC().Format("2006-01-02 15:04")
	}
	return value
}

func formatStackTime(value string) string {
	value = strings.TrimSpace(value)
	if value == "" {
		return "-"
	}
	if t := api.ParseQueueTime(value); !t.IsZero() {
		return t.UTC().Format("15:04:05")
	}
	return value
}

func formatFingerprint(value string) string {
	value = strings.TrimSpace(value)
	if value == "" {
		return "-"
	}
	if len(value) > 12 {
		return value[:12]
	}
	return value
}

func formatScore(score float64) string {
	return fmt.Sprintf("%.2f", score)
}
