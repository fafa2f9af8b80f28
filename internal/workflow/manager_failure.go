package workflow

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"lightbox/internal/logging"
	"lightbox/internal/queue"
	"lightbox/internal/services"
)

func (m *Manager) handleStageFailure(ctx context.Context, stageName string, item *queue.Item, stageErr error) {
	base := m.logger
	if base == nil {
		base = logging.NewNop()
	}
	logger := m.stageLoggerForLane(ctx, base, item).With(logging.String("component", "workflow-manager"))

	message := m.classifyStageFailure(stageName, stageErr)
	resolved := services.FailureStatus(stageErr)
	m.setItemFailureState(item, resolved, message)

	logger.Error("stage failed",
		logging.Error(stageErr),
		logging.String("resolved_status", string(resolved)),
		logging.String("error_message", strings.TrimSpace(message)),
		logging.Alert("stage_failure"),
		logging.String(logging.FieldEventType, "stage_failure"),
	)

	if err := m.store.Update(ctx, item); err != nil {
		if errors.Is(err, context.Canceled) {
			logger.Debug("daemon shutting down, could not update stage failure")
		} else {
			logger.Error("failed to persist stage failure", logging.Error(err))
		}
	}

	m.setLastItem(item)
	m.notifyStageError(ctx, stageName, item, stageErr)
	if resolved == queue.StatusReview {
		m.notifyReviewHold(ctx, item)
	}
	m.checkQueueCompletion(ctx)
}

func (m *Manager) classifyStageFailure(stageName string, stageErr error) string {
	if stageErr == nil {
		return m.getStageFailureMessage(stageName, "failed without error detail")
	}

	message := strings.TrimSpace(services.Message(stageErr))
	if message == "" {
		message = m.getStageFailureMessage(stageName, "failed")
	}
	return message
}

func (m *Manager) getStageFailureMessage(stageName, defaultMsg string) string {
	if stageName != "" {
		return fmt.Sprintf("%s %s", stageName, defaultMsg)
	}
	return fmt.Sprintf("workflow %s", defaultMsg)
}

// setItemFailureState routes validation and configuration problems to the
// review status, where a human can fix the input and retry; everything else
// is a hard failure.
func (m *Manager) setItemFailureState(item *queue.Item, resolved queue.Status, message string) {
	if resolved == queue.StatusReview {
		item.Status = queue.StatusReview
		item.ErrorMessage = message
		item.NeedsReview = true
		item.ReviewReason = message
		item.ProgressStage = "Review"
		item.ProgressMessage = message
		item.LastHeartbeat = nil
		return
	}
	item.SetFailed(message)
}
