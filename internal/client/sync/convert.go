package sync

import (
	"github.com/offlinehq/chatsync/internal/models"
	"github.com/offlinehq/chatsync/pkg/api"
)

// groupFromAPI converts an authoritative group into a mirrored record
func groupFromAPI(g *api.Group) *models.Group {
	return &models.Group{
		ID:                g.ID,
		Name:              g.Name,
		CreatedBy:         g.CreatedBy,
		CreatedByUsername: g.CreatedByUsername,
		CreatedAt:         g.CreatedAt,
		UpdatedAt:         g.UpdatedAt,
		ServerSeq:         models.ConfirmedSeq(g.ServerSeq),
	}
}

// messageFromAPI converts an authoritative message into a mirrored record.
// A record coming from the authority is by definition sent.
func messageFromAPI(m *api.Message) *models.Message {
	return &models.Message{
		ID:             m.ID,
		GroupID:        m.GroupID,
		SenderID:       m.SenderID,
		SenderUsername: m.SenderUsername,
		Body:           m.Body,
		CreatedAt:      m.CreatedAt,
		Status:         models.MessageSent,
		ServerSeq:      models.ConfirmedSeq(m.ServerSeq),
	}
}

// createGroupRequest builds the idempotent upsert request for a local group
func createGroupRequest(g *models.Group) api.CreateGroupRequest {
	return api.CreateGroupRequest{
		ID:        g.ID,
		Name:      g.Name,
		CreatedBy: g.CreatedBy,
		CreatedAt: g.CreatedAt,
		UpdatedAt: g.UpdatedAt,
	}
}

// createMessageRequest builds the idempotent create request for a local
// message
func createMessageRequest(m *models.Message) api.CreateMessageRequest {
	return api.CreateMessageRequest{
		ID:        m.ID,
		GroupID:   m.GroupID,
		SenderID:  m.SenderID,
		Body:      m.Body,
		CreatedAt: m.CreatedAt,
	}
}
