package sync

import (
	"context"
	"encoding/json"
	"fmt"

	httpClient "github.com/offlinehq/chatsync/internal/client/api"
	"github.com/offlinehq/chatsync/internal/models"
)

// flushOutbox replays every retryable outbox item against the authority.
// Per-item failures are absorbed into the item's retry state; only storage
// failures abort the pass. Returns the number of items confirmed.
func (s *Service) flushOutbox(ctx context.Context) (int, error) {
	items, err := s.outbox.ListRetryable(ctx, s.now())
	if err != nil {
		return 0, fmt.Errorf("failed to list retryable items: %w", err)
	}

	synced := 0
	for _, item := range items {
		if err := s.outbox.MarkInFlight(ctx, item.ID, s.now()); err != nil {
			return synced, fmt.Errorf("failed to mark item in-flight: %w", err)
		}

		sendErr := s.sendOutboxItem(ctx, item)
		switch {
		case sendErr == nil, httpClient.IsConflict(sendErr):
			// 409 means the mutation already landed on a prior attempt
			// whose response was lost; it is confirmation, not failure.
			if err := s.outbox.MarkSynced(ctx, item.ID); err != nil {
				return synced, fmt.Errorf("failed to mark item synced: %w", err)
			}
			if err := s.reflectOutcome(ctx, item, models.MessageSent); err != nil {
				s.logger.Warn("failed to update message status", "item_id", item.ID, "error", err)
			}
			synced++

		case httpClient.IsPermanent(sendErr):
			s.logger.Warn("outbox item rejected permanently",
				"item_id", item.ID, "op", item.Op, "error", sendErr)
			updated, err := s.outbox.MarkFailedPermanently(ctx, item.ID, sendErr.Error())
			if err != nil {
				return synced, fmt.Errorf("failed to mark item failed: %w", err)
			}
			if err := s.reflectOutcome(ctx, updated, models.MessageFailed); err != nil {
				s.logger.Warn("failed to update message status", "item_id", item.ID, "error", err)
			}

		default:
			s.logger.Warn("outbox item attempt failed",
				"item_id", item.ID, "op", item.Op,
				"retry_count", item.RetryCount+1, "error", sendErr)
			updated, err := s.outbox.MarkFailed(ctx, item.ID, sendErr.Error())
			if err != nil {
				return synced, fmt.Errorf("failed to mark item failed: %w", err)
			}
			status := models.MessageSending
			if updated.Status == models.OutboxFailed {
				status = models.MessageFailed
			}
			if err := s.reflectOutcome(ctx, updated, status); err != nil {
				s.logger.Warn("failed to update message status", "item_id", item.ID, "error", err)
			}
		}
	}

	return synced, nil
}

// sendOutboxItem replays one queued mutation. On confirmation the canonical
// record (carrying its serverSeq) is written back into the mirror.
func (s *Service) sendOutboxItem(ctx context.Context, item *models.OutboxItem) error {
	switch item.Op {
	case models.OpCreateGroup:
		var payload models.CreateGroupPayload
		if err := json.Unmarshal(item.Payload, &payload); err != nil {
			return fmt.Errorf("malformed create-group payload: %w", err)
		}
		resp, err := s.apiClient.CreateGroup(ctx, createGroupRequest(&payload.Group))
		if err != nil {
			return err
		}
		return s.mirror.SaveGroup(ctx, groupFromAPI(resp))

	case models.OpSendMessage:
		var payload models.SendMessagePayload
		if err := json.Unmarshal(item.Payload, &payload); err != nil {
			return fmt.Errorf("malformed send-message payload: %w", err)
		}
		resp, err := s.apiClient.CreateMessage(ctx, createMessageRequest(&payload.Message))
		if err != nil {
			return err
		}
		return s.mirror.SaveMessage(ctx, messageFromAPI(resp))

	case models.OpJoinGroup:
		var payload models.JoinGroupPayload
		if err := json.Unmarshal(item.Payload, &payload); err != nil {
			return fmt.Errorf("malformed join-group payload: %w", err)
		}
		return s.apiClient.JoinGroup(ctx, payload.GroupID, payload.UserID)

	case models.OpDeleteGroup:
		var payload models.DeleteGroupPayload
		if err := json.Unmarshal(item.Payload, &payload); err != nil {
			return fmt.Errorf("malformed delete-group payload: %w", err)
		}
		_, err := s.apiClient.DeleteGroup(ctx, payload.GroupID, payload.UserID)
		return err

	default:
		return fmt.Errorf("unknown outbox operation: %s", item.Op)
	}
}

// reflectOutcome projects an outbox outcome onto the local message status.
// Only send-message items carry a user-visible delivery state.
func (s *Service) reflectOutcome(ctx context.Context, item *models.OutboxItem, status models.MessageStatus) error {
	if item.Op != models.OpSendMessage {
		return nil
	}
	var payload models.SendMessagePayload
	if err := json.Unmarshal(item.Payload, &payload); err != nil {
		return fmt.Errorf("malformed send-message payload: %w", err)
	}
	return s.mirror.SetMessageStatus(ctx, payload.Message.ID, status)
}
