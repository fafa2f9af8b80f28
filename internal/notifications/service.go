package notifications

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"

	"lightbox/internal/config"
)

const userAgent = "Lightbox/0.1.0"

// Service defines the notification surface exposed to workflow components.
type Service interface {
	NotifyIngestDetected(ctx context.Context, sourcePath, sessionLabel string) error
	NotifyScanComplete(ctx context.Context, sessionLabel string, shotCount int) error
	NotifyGroupingComplete(ctx context.Context, sessionLabel string, groups, approved, review, hold int) error
	NotifyOrganizationCompleted(ctx context.Context, sessionLabel, libraryPath string) error
	NotifyReviewNeeded(ctx context.Context, sessionLabel, reason string) error
	NotifyQueueStarted(ctx context.Context, count int) error
	NotifyQueueCompleted(ctx context.Context, processed, failed int, duration time.Duration) error
	NotifyError(ctx context.Context, err error, contextLabel string) error
	TestNotification(ctx context.Context) error
}

// NewService builds a notification service backed by ntfy when configured.
// When no ntfy topic is configured, a noop implementation is returned.
func NewService(cfg *config.Config) Service {
	topic := strings.TrimSpace(cfg.Notifications.NtfyTopic)
	if topic == "" {
		return noopService{}
	}

	timeout := time.Duration(cfg.Notifications.RequestTimeout) * time.Second
	if timeout <= 0 {
		timeout = 10 * time.Second
	}

	return &ntfyService{
		endpoint: topic,
		client:   &http.Client{Timeout: timeout},
		prefs:    cfg.Notifications,
		lastSent: make(map[string]time.Time),
	}
}

type payload struct {
	title    string
	message  string
	tags     []string
	priority string
}

type ntfyService struct {
	endpoint string
	client   *http.Client
	prefs    config.Notifications

	mu       sync.Mutex
	lastSent map[string]time.Time
}

func (n *ntfyService) NotifyIngestDetected(ctx context.Context, sourcePath, sessionLabel string) error {
	if !n.prefs.Scan {
		return nil
	}
	sessionLabel = strings.TrimSpace(sessionLabel)
	if sessionLabel == "" {
		sessionLabel = strings.TrimSpace(sourcePath)
	}
	data := payload{
		title:   "Lightbox - Card Detected",
		message: fmt.Sprintf("📷 New source detected: %s", sessionLabel),
		tags:    []string{"lightbox", "ingest", "detected"},
	}
	return n.send(ctx, data)
}

func (n *ntfyService) NotifyScanComplete(ctx context.Context, sessionLabel string, shotCount int) error {
	if !n.prefs.Scan {
		return nil
	}
	sessionLabel = strings.TrimSpace(sessionLabel)
	data := payload{
		title:   "Lightbox - Scan Complete",
		message: fmt.Sprintf("Scanned %s: %d shots", sessionLabel, shotCount),
		tags:    []string{"lightbox", "scan", "completed"},
	}
	return n.send(ctx, data)
}

func (n *ntfyService) NotifyGroupingComplete(ctx context.Context, sessionLabel string, groups, approved, review, hold int) error {
	if !n.prefs.Grouping {
		return nil
	}
	sessionLabel = strings.TrimSpace(sessionLabel)
	data := payload{
		title:   "Lightbox - Grouped",
		message: fmt.Sprintf("🗂️ %s: %d stacks (%d approved, %d review, %d hold)", sessionLabel, groups, approved, review, hold),
		tags:    []string{"lightbox", "grouping", "completed"},
	}
	return n.send(ctx, data)
}

func (n *ntfyService) NotifyOrganizationCompleted(ctx context.Context, sessionLabel, libraryPath string) error {
	if !n.prefs.Organization {
		return nil
	}
	sessionLabel = strings.TrimSpace(sessionLabel)
	libraryPath = strings.TrimSpace(libraryPath)
	message := fmt.Sprintf("✅ Added to library: %s", sessionLabel)
	if libraryPath != "" {
		message = fmt.Sprintf("%s\nPath: %s", message, libraryPath)
	}
	data := payload{
		title:   "Lightbox - Library Updated",
		message: message,
		tags:    []string{"lightbox", "library", "added"},
	}
	return n.send(ctx, data)
}

func (n *ntfyService) NotifyReviewNeeded(ctx context.Context, sessionLabel, reason string) error {
	if !n.prefs.Review {
		return nil
	}
	sessionLabel = strings.TrimSpace(sessionLabel)
	message := fmt.Sprintf("Manual review required: %s", sessionLabel)
	if reason = strings.TrimSpace(reason); reason != "" {
		message = fmt.Sprintf("%s\n%s", message, reason)
	}
	data := payload{
		title:   "Lightbox - Review Needed",
		message: message,
		tags:    []string{"lightbox", "review", "needed"},
	}
	return n.send(ctx, data)
}

func (n *ntfyService) NotifyQueueStarted(ctx context.Context, count int) error {
	if !n.prefs.Queue {
		return nil
	}
	if n.prefs.QueueMinItems > 0 && count < n.prefs.QueueMinItems {
		return nil
	}
	data := payload{
		title:   "Lightbox - Queue Started",
		message: fmt.Sprintf("Started processing queue with %d items", count),
		tags:    []string{"lightbox", "queue", "started"},
	}
	return n.send(ctx, data)
}

func (n *ntfyService) NotifyQueueCompleted(ctx context.Context, processed, failed int, duration time.Duration) error {
	if !n.prefs.Queue {
		return nil
	}
	duration = duration.Round(time.Second)
	if duration < 0 {
		duration = 0
	}
	durationText := duration.String()
	if duration == 0 {
		durationText = "0s"
	}

	var title string
	var message string
	if failed == 0 {
		title = "Lightbox - Queue Complete"
		message = fmt.Sprintf("Queue processing complete: %d items processed in %s", processed, durationText)
	} else {
		title = "Lightbox - Queue Complete (with errors)"
		message = fmt.Sprintf("Queue processing complete: %d succeeded, %d failed in %s", processed, failed, durationText)
	}

	data := payload{
		title:   title,
		message: message,
		tags:    []string{"lightbox", "queue", "completed"},
	}
	return n.send(ctx, data)
}

func (n *ntfyService) NotifyError(ctx context.Context, err error, contextLabel string) error {
	if !n.prefs.Errors {
		return nil
	}
	var builder strings.Builder
	builder.WriteString("❌ Error")
	if contextLabel = strings.TrimSpace(contextLabel); contextLabel != "" {
		builder.WriteString(" with ")
		builder.WriteString(contextLabel)
	}
	builder.WriteString(": ")
	if err != nil {
		builder.WriteString(strings.TrimSpace(err.Error()))
	} else {
		builder.WriteString("unknown")
	}

	data := payload{
		title:    "Lightbox - Error",
		message:  builder.String(),
		tags:     []string{"lightbox", "error", "alert"},
		priority: "high",
	}
	return n.send(ctx, data)
}

func (n *ntfyService) TestNotification(ctx context.Context) error {
	data := payload{
		title:    "Lightbox - Test",
		message:  "🧪 Notification system test",
		tags:     []string{"lightbox", "test"},
		priority: "low",
	}
	return n.send(ctx, data)
}

func (n *ntfyService) send(ctx context.Context, data payload) error {
	if n == nil || n.client == nil {
		return nil
	}
	if n.suppressDuplicate(data) {
		return nil
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, n.endpoint, strings.NewReader(data.message))
	if err != nil {
		return fmt.Errorf("build ntfy request: %w", err)
	}
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Content-Type", "text/plain; charset=utf-8")
	if data.title != "" {
		req.Header.Set("Title", data.title)
	}
	if len(data.tags) > 0 {
		req.Header.Set("Tags", strings.Join(data.tags, ","))
	}
	if data.priority != "" && data.priority != "default" {
		req.Header.Set("Priority", data.priority)
	}

	resp, err := n.client.Do(req)
	if err != nil {
		return fmt.Errorf("send ntfy notification: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
		return fmt.Errorf("ntfy returned %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}
	_, _ = io.Copy(io.Discard, resp.Body)
	n.recordSent(data)
	return nil
}

// suppressDuplicate reports whether an identical notification went out within
// the dedup window. Repeated card insertions and rescans would otherwise spam
// the topic with the same message.
func (n *ntfyService) suppressDuplicate(data payload) bool {
	window := time.Duration(n.prefs.DedupWindowSeconds) * time.Second
	if window <= 0 {
		return false
	}
	key := data.title + "\n" + data.message
	n.mu.Lock()
	defer n.mu.Unlock()
	if sent, ok := n.lastSent[key]; ok && time.Since(sent) < window {
		return true
	}
	return false
}

func (n *ntfyService) recordSent(data payload) {
	window := time.Duration(n.prefs.DedupWindowSeconds) * time.Second
	if window <= 0 {
		return
	}
	key := data.title + "\n" + data.message
	now := time.Now()
	n.mu.Lock()
	defer n.mu.Unlock()
	for k, sent := range n.lastSent {
		if now.Sub(sent) >= window {
			delete(n.lastSent, k)
		}
	}
	n.lastSent[key] = now
}

type noopService struct{}

func (noopService) NotifyIngestDetected(context.Context, string, string) error { return nil }
func (noopService) NotifyScanComplete(context.Context, string, int) error      { return nil }
func (noopService) NotifyGroupingComplete(context.Context, string, int, int, int, int) error {
	return nil
}
func (noopService) NotifyOrganizationCompleted(context.Context, string, string) error   { return nil }
func (noopService) NotifyReviewNeeded(context.Context, string, string) error            { return nil }
func (noopService) NotifyQueueStarted(context.Context, int) error                       { return nil }
func (noopService) NotifyQueueCompleted(context.Context, int, int, time.Duration) error { return nil }
func (noopService) NotifyError(context.Context, error, string) error                    { return nil }
func (noopService) TestNotification(context.Context) error                              { return nil }
