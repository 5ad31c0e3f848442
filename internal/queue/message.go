// Package queue consumes "profile source changed" messages from RabbitMQ,
// re-indexes the owner and publishes status updates.
package queue

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/amishk599/talentmesh/internal/model"
)

const (
	DefaultQueue    = "profile.reindex"
	DefaultExchange = "profile_updates"
)

// Status values published on the updates exchange.
const (
	StatusProcessing = "processing"
	StatusCompleted  = "completed"
	StatusDegraded   = "degraded"
	StatusFailed     = "failed"
)

// SourceRef is one source of a reindex message: inline text or an object key
// with its mime type.
type SourceRef struct {
	SourceType model.SourceType `json:"source_type"`
	Text       string           `json:"text,omitempty"`
	ObjectKey  string           `json:"object_key,omitempty"`
	Mime       string           `json:"mime,omitempty"`
}

// Message is the body of a reindex request.
type Message struct {
	OwnerType  model.OwnerType          `json:"owner_type"`
	OwnerID    string                   `json:"owner_id"`
	OrgID      string                   `json:"org_id,omitempty"`
	Sources    []SourceRef              `json:"sources"`
	Attributes *model.ProfileAttributes `json:"attributes,omitempty"`
}

// Owner returns the profile owner the message targets.
func (m Message) Owner() model.Owner {
	return model.Owner{Type: m.OwnerType, ID: m.OwnerID, OrgID: m.OrgID}
}

// StatusUpdate is published after each processing step.
type StatusUpdate struct {
	Owner     model.Owner `json:"owner"`
	Status    string      `json:"status"`
	Keywords  int         `json:"keywords"`
	Message   string      `json:"message,omitempty"`
	Timestamp time.Time   `json:"timestamp"`
}

// RoutingKey is the topic key status updates are published under.
func (u StatusUpdate) RoutingKey() string {
	return fmt.Sprintf("profile.%s.%s", u.Owner.Type, u.Owner.ID)
}

// decodeMessage parses and validates a message body.
func decodeMessage(body []byte) (Message, error) {
	var m Message
	if err := json.Unmarshal(body, &m); err != nil {
		return Message{}, fmt.Errorf("decoding message: %w", err)
	}
	if !m.OwnerType.Valid() {
		return m, &model.ValidationError{Field: "owner_type", Reason: fmt.Sprintf("unknown owner type %q", m.OwnerType)}
	}
	if strings.TrimSpace(m.OwnerID) == "" {
		return m, &model.ValidationError{Field: "owner_id", Reason: "is required"}
	}
	if len(m.Sources) == 0 {
		return m, &model.ValidationError{Field: "sources", Reason: "at least one source is required"}
	}
	for _, s := range m.Sources {
		if !s.SourceType.Valid() {
			return m, &model.ValidationError{Field: "source_type", Reason: fmt.Sprintf("unknown source type %q", s.SourceType)}
		}
		if s.Text == "" && s.ObjectKey == "" {
			return m, &model.ValidationError{Field: "sources", Reason: "each source needs text or an object_key"}
		}
	}
	return m, nil
}
