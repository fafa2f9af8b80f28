// Package queueaccess abstracts queue operations over two backends: the
// daemon socket when lightboxd is running, and the SQLite store directly when
// it is not. CLI commands code against Access and never branch on which
// backend served them.
package queueaccess

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strings"

	"lightbox/internal/api"
	"lightbox/internal/ipc"
	"lightbox/internal/queue"
	"lightbox/internal/stackplan"
)

// GroupReport is the stack plan recorded for a single queue item.
type GroupReport struct {
	Session string             `json:"session"`
	Stacks  []api.StackSummary `json:"stacks"`
}

// Access provides queue operations regardless of IPC or direct store backing.
type Access interface {
	Stats(ctx context.Context) (map[string]int, error)
	Health(ctx context.Context) (queue.HealthSummary, error)
	List(ctx context.Context, statuses []string) ([]api.QueueItem, error)
	Describe(ctx context.Context, id int64) (*api.QueueItem, error)
	Groups(ctx context.Context, id int64) (*GroupReport, error)
	ActiveFingerprints(ctx context.Context) (map[string]struct{}, error)
	ClearAll(ctx context.Context) (int64, error)
	ClearCompleted(ctx context.Context) (int64, error)
	ClearFailed(ctx context.Context) (int64, error)
	ResetStuck(ctx context.Context) (int64, error)
	RetryAll(ctx context.Context) (int64, error)
	Retry(ctx context.Context, ids []int64) (int64, error)
}

// NewIPCAccess returns an Access backed by daemon IPC.
func NewIPCAccess(client *ipc.Client) Access {
	return &ipcAccess{client: client}
}

// NewStoreAccess returns an Access backed by direct queue database access.
func NewStoreAccess(store *queue.Store) Access {
	return &storeAccess{store: store}
}

type ipcAccess struct {
	client *ipc.Client
}

func (a *ipcAccess) Stats(_ context.Context) (map[string]int, error) {
	resp, err := a.client.Status()
	if err != nil {
		return nil, err
	}
	return resp.QueueStats, nil
}

func (a *ipcAccess) Health(_ context.Context) (queue.HealthSummary, error) {
	resp, err := a.client.QueueHealth()
	if err != nil {
		return queue.HealthSummary{}, err
	}
	return queue.HealthSummary{
		Total:      resp.Total,
		Pending:    resp.Pending,
		Processing: resp.Processing,
		Failed:     resp.Failed,
		Review:     resp.Review,
		Completed:  resp.Completed,
	}, nil
}

func (a *ipcAccess) List(_ context.Context, statuses []string) ([]api.QueueItem, error) {
	resp, err := a.client.QueueList(statuses)
	if err != nil {
		return nil, err
	}
	return resp.Items, nil
}

func (a *ipcAccess) Describe(_ context.Context, id int64) (*api.QueueItem, error) {
	resp, err := a.client.QueueDescribe(id)
	if err != nil {
		return nil, err
	}
	if resp == nil || !resp.Found {
		return nil, nil
	}
	return &resp.Item, nil
}

func (a *ipcAccess) Groups(_ context.Context, id int64) (*GroupReport, error) {
	resp, err := a.client.ItemGroups(id)
	if err != nil {
		return nil, err
	}
	if resp == nil || !resp.Found {
		return nil, nil
	}
	return &GroupReport{Session: resp.Session, Stacks: resp.Stacks}, nil
}

func (a *ipcAccess) ActiveFingerprints(ctx context.Context) (map[string]struct{}, error) {
	// The socket protocol has no dedicated fingerprint op; the full item
	// list carries everything needed.
	items, err := a.List(ctx, nil)
	if err != nil {
		return nil, err
	}
	fingerprints := make(map[string]struct{}, len(items))
	for _, item := range items {
		fp := strings.ToUpper(strings.TrimSpace(item.SourceFingerprint))
		if fp != "" {
			fingerprints[fp] = struct{}{}
		}
	}
	return fingerprints, nil
}

func (a *ipcAccess) ClearAll(_ context.Context) (int64, error) {
	resp, err := a.client.QueueClear()
	if err != nil {
		return 0, err
	}
	return resp.Removed, nil
}

func (a *ipcAccess) ClearCompleted(_ context.Context) (int64, error) {
	resp, err := a.client.QueueClearCompleted()
	if err != nil {
		return 0, err
	}
	return resp.Removed, nil
}

func (a *ipcAccess) ClearFailed(_ context.Context) (int64, error) {
	resp, err := a.client.QueueClearFailed()
	if err != nil {
		return 0, err
	}
	return resp.Removed, nil
}

func (a *ipcAccess) ResetStuck(_ context.Context) (int64, error) {
	resp, err := a.client.QueueReset()
	if err != nil {
		return 0, err
	}
	return resp.Updated, nil
}

func (a *ipcAccess) RetryAll(_ context.Context) (int64, error) {
	resp, err := a.client.QueueRetry(nil)
	if err != nil {
		return 0, err
	}
	return resp.Updated, nil
}

func (a *ipcAccess) Retry(_ context.Context, ids []int64) (int64, error) {
	resp, err := a.client.QueueRetry(ids)
	if err != nil {
		return 0, err
	}
	return resp.Updated, nil
}

type storeAccess struct {
	store *queue.Store
}

func (a *storeAccess) Stats(ctx context.Context) (map[string]int, error) {
	stats, err := a.store.Stats(ctx)
	if err != nil {
		return nil, err
	}
	out := make(map[string]int, len(stats))
	for status, count := range stats {
		out[string(status)] = count
	}
	return out, nil
}

func (a *storeAccess) Health(ctx context.Context) (queue.HealthSummary, error) {
	return a.store.Health(ctx)
}

func (a *storeAccess) List(ctx context.Context, statuses []string) ([]api.QueueItem, error) {
	// Unknown status words are dropped, matching the daemon's list handler.
	filters := make([]queue.Status, 0, len(statuses))
	for _, raw := range statuses {
		parsed, ok := queue.ParseStatus(raw)
		if !ok {
			continue
		}
		filters = append(filters, parsed)
	}
	items, err := a.store.List(ctx, filters...)
	if err != nil {
		return nil, err
	}
	view := api.FromQueueItems(items)
	if view == nil {
		view = []api.QueueItem{}
	}
	return view, nil
}

func (a *storeAccess) Describe(ctx context.Context, id int64) (*api.QueueItem, error) {
	item, err := a.store.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if item == nil {
		return nil, nil
	}
	view := api.FromQueueItem(item)
	return &view, nil
}

func (a *storeAccess) Groups(ctx context.Context, id int64) (*GroupReport, error) {
	item, err := a.store.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if item == nil {
		return nil, nil
	}
	env, err := stackplan.Parse(item.GroupPlanData)
	if err != nil {
		return nil, fmt.Errorf("parse group plan: %w", err)
	}
	if len(env.Groups) == 0 {
		if path := strings.TrimSpace(item.GroupsFile); path != "" {
			payload, err := os.ReadFile(path)
			switch {
			case errors.Is(err, os.ErrNotExist):
			case err != nil:
				return nil, fmt.Errorf("read groups file: %w", err)
			default:
				if err := json.Unmarshal(payload, &env); err != nil {
					return nil, fmt.Errorf("decode groups file: %w", err)
				}
			}
		}
	}
	return &GroupReport{Session: env.Session, Stacks: api.StacksFromPlan(env)}, nil
}

func (a *storeAccess) ActiveFingerprints(ctx context.Context) (map[string]struct{}, error) {
	return a.store.ActiveFingerprints(ctx)
}

func (a *storeAccess) ClearAll(ctx context.Context) (int64, error) {
	return a.store.Clear(ctx)
}

func (a *storeAccess) ClearCompleted(ctx context.Context) (int64, error) {
	return a.store.ClearCompleted(ctx)
}

func (a *storeAccess) ClearFailed(ctx context.Context) (int64, error) {
	return a.store.ClearFailed(ctx)
}

func (a *storeAccess) ResetStuck(ctx context.Context) (int64, error) {
	return a.store.ResetStuckProcessing(ctx)
}

func (a *storeAccess) RetryAll(ctx context.Context) (int64, error) {
	return a.store.RetryFailed(ctx)
}

func (a *storeAccess) Retry(ctx context.Context, ids []int64) (int64, error) {
	return a.store.RetryFailed(ctx, ids...)
}
