package sync

import (
	"context"
	"fmt"

	httpClient "github.com/offlinehq/chatsync/internal/client/api"
	"github.com/offlinehq/chatsync/internal/models"
)

// The direct write path: when online, a mutation is committed straight to
// the authority and the canonical result mirrored locally; on transient
// failure it degrades to an optimistic local apply plus a durable outbox
// item, and the original error is still returned so user-facing code can
// react. Offline skips the authority entirely.
//
// Permanent rejections (400/403/404) and name conflicts (409) are surfaced
// without touching the mirror or the outbox: retrying them cannot succeed.

// CreateGroup writes a new group online-first. The group must carry a
// client-generated id; the creator is joined automatically.
func (s *Service) CreateGroup(ctx context.Context, group *models.Group) (*models.Group, error) {
	if !s.Online() {
		if err := s.applyGroupLocally(ctx, group); err != nil {
			return nil, err
		}
		if _, err := s.outbox.Enqueue(ctx, models.OpCreateGroup, models.CreateGroupPayload{Group: *group}); err != nil {
			return nil, fmt.Errorf("failed to enqueue create-group: %w", err)
		}
		return group, nil
	}

	resp, err := s.apiClient.CreateGroup(ctx, createGroupRequest(group))
	if err != nil {
		if httpClient.IsConflict(err) || httpClient.IsPermanent(err) {
			return nil, err
		}
		if applyErr := s.applyGroupLocally(ctx, group); applyErr != nil {
			s.logger.Warn("optimistic group apply failed", "group_id", group.ID, "error", applyErr)
		}
		if _, qErr := s.outbox.Enqueue(ctx, models.OpCreateGroup, models.CreateGroupPayload{Group: *group}); qErr != nil {
			s.logger.Error("failed to enqueue create-group fallback", "group_id", group.ID, "error", qErr)
		}
		return nil, err
	}

	canonical := groupFromAPI(resp)
	if err := s.mirror.SaveGroup(ctx, canonical); err != nil {
		return nil, fmt.Errorf("failed to mirror group: %w", err)
	}
	if err := s.mirror.SaveMembership(ctx, &models.Membership{
		UserID:   group.CreatedBy,
		GroupID:  group.ID,
		JoinedAt: canonical.CreatedAt,
	}); err != nil {
		return nil, fmt.Errorf("failed to mirror membership: %w", err)
	}

	s.syncAfterWrite(ctx)
	return canonical, nil
}

// DeleteGroup removes a group online-first. Deletion is hard and cascades
// to the group's messages and memberships in the mirror.
func (s *Service) DeleteGroup(ctx context.Context, groupID string) error {
	payload := models.DeleteGroupPayload{GroupID: groupID, UserID: s.userID}

	if !s.Online() {
		if err := s.mirror.DeleteGroupCascade(ctx, groupID); err != nil {
			return err
		}
		if _, err := s.outbox.Enqueue(ctx, models.OpDeleteGroup, payload); err != nil {
			return fmt.Errorf("failed to enqueue delete-group: %w", err)
		}
		return nil
	}

	if _, err := s.apiClient.DeleteGroup(ctx, groupID, s.userID); err != nil {
		if httpClient.IsConflict(err) || httpClient.IsPermanent(err) {
			return err
		}
		if applyErr := s.mirror.DeleteGroupCascade(ctx, groupID); applyErr != nil {
			s.logger.Warn("optimistic group delete failed", "group_id", groupID, "error", applyErr)
		}
		if _, qErr := s.outbox.Enqueue(ctx, models.OpDeleteGroup, payload); qErr != nil {
			s.logger.Error("failed to enqueue delete-group fallback", "group_id", groupID, "error", qErr)
		}
		return err
	}

	if err := s.mirror.DeleteGroupCascade(ctx, groupID); err != nil {
		return fmt.Errorf("failed to delete mirrored group: %w", err)
	}

	s.syncAfterWrite(ctx)
	return nil
}

// JoinGroup adds the current user to a group online-first. Membership is a
// set, so replaying a join is harmless.
func (s *Service) JoinGroup(ctx context.Context, groupID string) error {
	membership := &models.Membership{UserID: s.userID, GroupID: groupID, JoinedAt: s.now()}
	payload := models.JoinGroupPayload{GroupID: groupID, UserID: s.userID}

	if !s.Online() {
		if err := s.mirror.SaveMembership(ctx, membership); err != nil {
			return err
		}
		if _, err := s.outbox.Enqueue(ctx, models.OpJoinGroup, payload); err != nil {
			return fmt.Errorf("failed to enqueue join-group: %w", err)
		}
		return nil
	}

	if err := s.apiClient.JoinGroup(ctx, groupID, s.userID); err != nil {
		if httpClient.IsConflict(err) || httpClient.IsPermanent(err) {
			return err
		}
		if applyErr := s.mirror.SaveMembership(ctx, membership); applyErr != nil {
			s.logger.Warn("optimistic membership apply failed", "group_id", groupID, "error", applyErr)
		}
		if _, qErr := s.outbox.Enqueue(ctx, models.OpJoinGroup, payload); qErr != nil {
			s.logger.Error("failed to enqueue join-group fallback", "group_id", groupID, "error", qErr)
		}
		return err
	}

	if err := s.mirror.SaveMembership(ctx, membership); err != nil {
		return fmt.Errorf("failed to mirror membership: %w", err)
	}

	s.syncAfterWrite(ctx)
	return nil
}

// SendMessage writes a message online-first. The message must carry a
// client-generated id; retries are safe because the authority keys creates
// by that id.
func (s *Service) SendMessage(ctx context.Context, msg *models.Message) (*models.Message, error) {
	if !s.Online() {
		if err := s.applyMessageLocally(ctx, msg); err != nil {
			return nil, err
		}
		if _, err := s.outbox.Enqueue(ctx, models.OpSendMessage, models.SendMessagePayload{Message: *msg}); err != nil {
			return nil, fmt.Errorf("failed to enqueue send-message: %w", err)
		}
		return msg, nil
	}

	resp, err := s.apiClient.CreateMessage(ctx, createMessageRequest(msg))
	if err != nil {
		if httpClient.IsConflict(err) || httpClient.IsPermanent(err) {
			return nil, err
		}
		if applyErr := s.applyMessageLocally(ctx, msg); applyErr != nil {
			s.logger.Warn("optimistic message apply failed", "message_id", msg.ID, "error", applyErr)
		}
		if _, qErr := s.outbox.Enqueue(ctx, models.OpSendMessage, models.SendMessagePayload{Message: *msg}); qErr != nil {
			s.logger.Error("failed to enqueue send-message fallback", "message_id", msg.ID, "error", qErr)
		}
		return nil, err
	}

	canonical := messageFromAPI(resp)
	if err := s.mirror.SaveMessage(ctx, canonical); err != nil {
		return nil, fmt.Errorf("failed to mirror message: %w", err)
	}

	s.syncAfterWrite(ctx)
	return canonical, nil
}

// applyGroupLocally records an optimistic, unconfirmed group plus the
// creator's membership
func (s *Service) applyGroupLocally(ctx context.Context, group *models.Group) error {
	group.ServerSeq = models.UnconfirmedSeq()
	if err := s.mirror.SaveGroup(ctx, group); err != nil {
		return fmt.Errorf("failed to save local group: %w", err)
	}
	membership := &models.Membership{UserID: group.CreatedBy, GroupID: group.ID, JoinedAt: group.CreatedAt}
	if err := s.mirror.SaveMembership(ctx, membership); err != nil {
		return fmt.Errorf("failed to save local membership: %w", err)
	}
	return nil
}

// applyMessageLocally records an optimistic, unconfirmed message in the
// sending state
func (s *Service) applyMessageLocally(ctx context.Context, msg *models.Message) error {
	msg.ServerSeq = models.UnconfirmedSeq()
	msg.Status = models.MessageSending
	if err := s.mirror.SaveMessage(ctx, msg); err != nil {
		return fmt.Errorf("failed to save local message: %w", err)
	}
	return nil
}

// syncAfterWrite reconciles events missed while the direct write was in
// flight. The cycle's own failures only surface through status and
// metrics, never to the write's caller.
func (s *Service) syncAfterWrite(ctx context.Context) {
	if _, err := s.Sync(ctx); err != nil {
		s.logger.Debug("post-write sync failed", "error", err)
	}
}
