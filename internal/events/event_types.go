package events

import (
	"time"

	"github.com/spec-kit/helpdesk/internal/domain"
)

// EventType enumerates supported event identifiers.
type EventType string

const (
	EventTicketCreated  EventType = "ticket_created"
	EventTicketUpdated  EventType = "ticket_updated"
	EventTicketArchived EventType = "ticket_archived"
	EventTicketDeleted  EventType = "ticket_deleted"
	EventCommentAdded   EventType = "ticket_comment_added"
)

// Event represents a domain event emitted by services.
type Event struct {
	ID        string      `json:"id"`
	Type      EventType   `json:"type"`
	TicketID  string      `json:"ticket_id"`
	Actor     string      `json:"actor"`
	Timestamp time.Time   `json:"timestamp"`
	Payload   interface{} `json:"payload"`
}

// TicketCreatedPayload payload.
type TicketCreatedPayload struct {
	Title    string                `json:"title"`
	Priority domain.TicketPriority `json:"priority"`
	Category domain.TicketCategory `json:"category"`
	Reporter string                `json:"reporter"`
}

// TicketUpdatedPayload carries the per-field change summaries recorded in
// the audit trail for this request.
type TicketUpdatedPayload struct {
	Fields  []string `json:"fields"`
	Changes []string `json:"changes"`
}

// TicketArchivedPayload payload.
type TicketArchivedPayload struct {
	Archived bool `json:"archived"`
}

// TicketDeletedPayload payload. Bulk deletions emit a single event with
// the removed row count.
type TicketDeletedPayload struct {
	Count int `json:"count"`
}

// CommentAddedPayload payload.
type CommentAddedPayload struct {
	CommentID   string `json:"comment_id"`
	Author      string `json:"author"`
	Internal    bool   `json:"internal"`
	BodyPreview string `json:"body_preview"`
}
