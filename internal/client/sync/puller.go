package sync

import (
	"context"
	"fmt"
	"sort"

	"github.com/offlinehq/chatsync/internal/models"
	"github.com/offlinehq/chatsync/pkg/api"
)

// event is one entry of the merged feed, tagged by which feed produced it
type event struct {
	msg *api.MessageEvent
	grp *api.GroupEvent
	seq int64
}

// pull fetches authoritative events newer than the cursor from both feeds,
// merges them by ascending serverSeq, applies them to the mirror, and
// advances the cursor to the maximum sequence seen. If either feed request
// fails the whole pull fails and the cursor does not move.
//
// A nonzero cursor with an empty result is treated as an authority reset
// and retried once from zero. The heuristic can trigger spuriously when the
// authority is legitimately caught up; that costs one extra round-trip and
// corrupts nothing, as re-applied events are idempotent upserts.
func (s *Service) pull(ctx context.Context, limit int) (int, error) {
	return s.pullFrom(ctx, limit, true)
}

func (s *Service) pullFrom(ctx context.Context, limit int, allowReset bool) (int, error) {
	cursor, err := s.metadata.GetCursor(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to load cursor: %w", err)
	}

	msgEvents, err := s.apiClient.MessageEvents(ctx, cursor, limit, s.userID)
	if err != nil {
		return 0, fmt.Errorf("message feed failed: %w", err)
	}
	grpEvents, err := s.apiClient.GroupEvents(ctx, cursor, limit)
	if err != nil {
		return 0, fmt.Errorf("group feed failed: %w", err)
	}

	events := mergeEvents(msgEvents, grpEvents)
	if len(events) == 0 {
		if cursor > 0 && allowReset {
			s.logger.Warn("empty feed at nonzero cursor, assuming authority reset", "cursor", cursor)
			if err := s.metadata.SaveCursor(ctx, 0); err != nil {
				return 0, fmt.Errorf("failed to reset cursor: %w", err)
			}
			return s.pullFrom(ctx, limit, false)
		}
		return 0, nil
	}

	maxSeq := cursor
	for _, ev := range events {
		if err := s.applyEvent(ctx, ev); err != nil {
			return 0, fmt.Errorf("failed to apply event seq %d: %w", ev.seq, err)
		}
		if ev.seq > maxSeq {
			maxSeq = ev.seq
		}
	}

	if err := s.metadata.SaveCursor(ctx, maxSeq); err != nil {
		return 0, fmt.Errorf("failed to advance cursor: %w", err)
	}

	s.logger.Debug("pull applied events", "count", len(events), "cursor", maxSeq)
	return len(events), nil
}

// mergeEvents interleaves the two feeds in ascending serverSeq order
func mergeEvents(msgs []api.MessageEvent, grps []api.GroupEvent) []event {
	events := make([]event, 0, len(msgs)+len(grps))
	for i := range msgs {
		events = append(events, event{seq: msgs[i].ServerSeq, msg: &msgs[i]})
	}
	for i := range grps {
		events = append(events, event{seq: grps[i].ServerSeq, grp: &grps[i]})
	}
	sort.Slice(events, func(i, j int) bool { return events[i].seq < events[j].seq })
	return events
}

// applyEvent upserts one authoritative event into the mirror. Message
// events may carry a group snapshot; applying it keeps the mirror coherent
// for clients that missed the group's own event.
func (s *Service) applyEvent(ctx context.Context, ev event) error {
	switch {
	case ev.msg != nil:
		msg := &models.Message{
			ID:             ev.msg.ID,
			GroupID:        ev.msg.GroupID,
			SenderID:       ev.msg.SenderID,
			SenderUsername: ev.msg.SenderUsername,
			Body:           ev.msg.Body,
			CreatedAt:      ev.msg.CreatedAt,
			Status:         models.MessageSent,
			ServerSeq:      models.ConfirmedSeq(ev.msg.ServerSeq),
		}
		if err := s.mirror.SaveMessage(ctx, msg); err != nil {
			return err
		}
		if ev.msg.Group != nil {
			return s.mirror.SaveGroup(ctx, groupFromAPI(ev.msg.Group))
		}
		return nil

	case ev.grp != nil:
		group := &models.Group{
			ID:                ev.grp.ID,
			Name:              ev.grp.Name,
			CreatedBy:         ev.grp.CreatedBy,
			CreatedByUsername: ev.grp.CreatedByUsername,
			CreatedAt:         ev.grp.CreatedAt,
			UpdatedAt:         ev.grp.UpdatedAt,
			ServerSeq:         models.ConfirmedSeq(ev.grp.ServerSeq),
		}
		return s.mirror.SaveGroup(ctx, group)

	default:
		return fmt.Errorf("event without payload")
	}
}
