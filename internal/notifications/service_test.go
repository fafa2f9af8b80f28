package notifications_test

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"lightbox/internal/config"
	"lightbox/internal/notifications"
)

func TestNewServiceReturnsNoopWhenTopicMissing(t *testing.T) {
	cfg := config.Default()
	cfg.Notifications.NtfyTopic = ""
	svc := notifications.NewService(&cfg)
	if err := svc.NotifyScanComplete(context.Background(), "Desert Shoot", 12); err != nil {
		t.Fatalf("expected noop notifier to return nil, got %v", err)
	}
}

func TestNtfyServiceFormatsPayloads(t *testing.T) {
	tests := []struct {
		name           string
		send           func(context.Context, notifications.Service) error
		expectTitle    string
		expectMessage  string
		expectTags     string
		expectPriority string
	}{
		{
			name: "ingest detected",
			send: func(ctx context.Context, svc notifications.Service) error {
				return svc.NotifyIngestDetected(ctx, "/mnt/cards/sd0", "Desert Shoot")
			},
			expectTitle:   "Lightbox - Card Detected",
			expectMessage: "📷 New source detected: Desert Shoot",
			expectTags:    "lightbox,ingest,detected",
		},
		{
			name: "scan complete",
			send: func(ctx context.Context, svc notifications.Service) error {
				return svc.NotifyScanComplete(ctx, "Desert Shoot", 42)
			},
			expectTitle:   "Lightbox - Scan Complete",
			expectMessage: "Scanned Desert Shoot: 42 shots",
			expectTags:    "lightbox,scan,completed",
		},
		{
			name: "grouping complete",
			send: func(ctx context.Context, svc notifications.Service) error {
				return svc.NotifyGroupingComplete(ctx, "Desert Shoot", 9, 6, 2, 1)
			},
			expectTitle:   "Lightbox - Grouped",
			expectMessage: "🗂️ Desert Shoot: 9 stacks (6 approved, 2 review, 1 hold)",
			expectTags:    "lightbox,grouping,completed",
		},
		{
			name: "organization completed",
			send: func(ctx context.Context, svc notifications.Service) error {
				return svc.NotifyOrganizationCompleted(ctx, "Desert Shoot", "/photos/2025-06-01_desert")
			},
			expectTitle:   "Lightbox - Library Updated",
			expectMessage: "✅ Added to library: Desert Shoot\nPath: /photos/2025-06-01_desert",
			expectTags:    "lightbox,library,added",
		},
		{
			name: "review needed",
			send: func(ctx context.Context, svc notifications.Service) error {
				return svc.NotifyReviewNeeded(ctx, "Desert Shoot", "2 stacks below confidence threshold")
			},
			expectTitle:   "Lightbox - Review Needed",
			expectMessage: "Manual review required: Desert Shoot\n2 stacks below confidence threshold",
			expectTags:    "lightbox,review,needed",
		},
		{
			name: "error",
			send: func(ctx context.Context, svc notifications.Service) error {
				return svc.NotifyError(ctx, errors.New("copy failed"), "organizing")
			},
			expectTitle:    "Lightbox - Error",
			expectMessage:  "❌ Error with organizing: copy failed",
			expectTags:     "lightbox,error,alert",
			expectPriority: "high",
		},
		{
			name: "test notification",
			send: func(ctx context.Context, svc notifications.Service) error {
				return svc.TestNotification(ctx)
			},
			expectTitle:    "Lightbox - Test",
			expectMessage:  "🧪 Notification system test",
			expectTags:     "lightbox,test",
			expectPriority: "low",
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			var captured struct {
				title    string
				tags     string
				priority string
				body     string
			}

			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				if r.Method != http.MethodPost {
					t.Fatalf("unexpected method: %s", r.Method)
				}
				captured.title = r.Header.Get("Title")
				captured.tags = r.Header.Get("Tags")
				captured.priority = r.Header.Get("Priority")
				body, err := io.ReadAll(r.Body)
				if err != nil {
					t.Fatalf("read body: %v", err)
				}
				captured.body = string(body)
				_ = r.Body.Close()
				w.WriteHeader(http.StatusOK)
			}))
			defer server.Close()

			cfg := config.Default()
			cfg.Notifications.NtfyTopic = server.URL
			cfg.Notifications.RequestTimeout = 5

			svc := notifications.NewService(&cfg)
			if err := tc.send(context.Background(), svc); err != nil {
				t.Fatalf("notification returned error: %v", err)
			}

			if captured.title != tc.expectTitle {
				t.Fatalf("expected title %q, got %q", tc.expectTitle, captured.title)
			}
			if captured.body != tc.expectMessage {
				t.Fatalf("expected message %q, got %q", tc.expectMessage, captured.body)
			}
			if captured.tags != tc.expectTags {
				t.Fatalf("expected tags %q, got %q", tc.expectTags, captured.tags)
			}
			if captured.priority != tc.expectPriority {
				t.Fatalf("expected priority %q, got %q", tc.expectPriority, captured.priority)
			}
		})
	}
}

func TestNtfyServiceHonorsCategoryToggles(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Fatalf("unexpected call for disabled category: %s", r.URL.String())
	}))
	defer server.Close()

	cfg := config.Default()
	cfg.Notifications.NtfyTopic = server.URL
	cfg.Notifications.Scan = false
	cfg.Notifications.Grouping = false
	cfg.Notifications.Organization = false
	cfg.Notifications.Queue = false
	cfg.Notifications.Review = false
	cfg.Notifications.Errors = false

	ctx := context.Background()
	svc := notifications.NewService(&cfg)
	calls := []error{
		svc.NotifyIngestDetected(ctx, "/mnt/cards/sd0", "Desert Shoot"),
		svc.NotifyScanComplete(ctx, "Desert Shoot", 10),
		svc.NotifyGroupingComplete(ctx, "Desert Shoot", 3, 2, 1, 0),
		svc.NotifyOrganizationCompleted(ctx, "Desert Shoot", ""),
		svc.NotifyReviewNeeded(ctx, "Desert Shoot", "low confidence"),
		svc.NotifyQueueStarted(ctx, 4),
		svc.NotifyQueueCompleted(ctx, 4, 0, 0),
		svc.NotifyError(ctx, errors.New("boom"), "scanning"),
	}
	for i, err := range calls {
		if err != nil {
			t.Fatalf("call %d returned error for disabled category: %v", i, err)
		}
	}
}

func TestNtfyServiceSuppressesSmallQueueStarts(t *testing.T) {
	requests := 0
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requests++
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	cfg := config.Default()
	cfg.Notifications.NtfyTopic = server.URL
	cfg.Notifications.QueueMinItems = 3

	ctx := context.Background()
	svc := notifications.NewService(&cfg)
	if err := svc.NotifyQueueStarted(ctx, 2); err != nil {
		t.Fatalf("queue start below minimum returned error: %v", err)
	}
	if requests != 0 {
		t.Fatalf("expected no request below minimum, got %d", requests)
	}
	if err := svc.NotifyQueueStarted(ctx, 3); err != nil {
		t.Fatalf("queue start at minimum returned error: %v", err)
	}
	if requests != 1 {
		t.Fatalf("expected one request at minimum, got %d", requests)
	}
}

func TestNtfyServiceDedupesRepeatedMessages(t *testing.T) {
	requests := 0
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requests++
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	cfg := config.Default()
	cfg.Notifications.NtfyTopic = server.URL
	cfg.Notifications.DedupWindowSeconds = 600

	ctx := context.Background()
	svc := notifications.NewService(&cfg)
	for i := 0; i < 3; i++ {
		if err := svc.NotifyScanComplete(ctx, "Desert Shoot", 42); err != nil {
			t.Fatalf("notification returned error: %v", err)
		}
	}
	if requests != 1 {
		t.Fatalf("expected one request for repeated message, got %d", requests)
	}
	if err := svc.NotifyScanComplete(ctx, "Desert Shoot", 43); err != nil {
		t.Fatalf("notification returned error: %v", err)
	}
	if requests != 2 {
		t.Fatalf("expected distinct message to send, got %d requests", requests)
	}
}
