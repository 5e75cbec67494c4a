package dto

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/spec-kit/helpdesk/internal/domain"
	apperrors "github.com/spec-kit/helpdesk/pkg/util"
)

// CreateTicketRequest payload for new tickets. Any status in the payload is
// ignored; tickets always open as Open.
type CreateTicketRequest struct {
	Title         string `json:"title"`
	Description   string `json:"description"`
	ReporterName  string `json:"reporterName"`
	ReporterEmail string `json:"reporterEmail"`
	Priority      string `json:"priority"`
	Category      string `json:"category"`
}

// TicketResponse is the outward ticket representation.
type TicketResponse struct {
	ID            string               `json:"id"`
	Title         string               `json:"title"`
	Description   string               `json:"description"`
	Priority      string               `json:"priority"`
	Category      string               `json:"category"`
	Status        string               `json:"status"`
	ReporterName  string               `json:"reporterName"`
	ReporterEmail string               `json:"reporterEmail"`
	Assignee      string               `json:"assignee"`
	Archived      bool                 `json:"archived"`
	ArchivedAt    *time.Time           `json:"archivedAt,omitempty"`
	ArchivedBy    *string              `json:"archivedBy,omitempty"`
	Audit         []AuditEntryResponse `json:"audit"`
	CreatedAt     time.Time            `json:"createdAt"`
	UpdatedAt     time.Time            `json:"updatedAt"`
}

// AuditEntryResponse is one rendered audit entry.
type AuditEntryResponse struct {
	At      time.Time `json:"at"`
	By      string    `json:"by"`
	Field   string    `json:"field,omitempty"`
	From    string    `json:"from,omitempty"`
	To      string    `json:"to,omitempty"`
	Changes []string  `json:"changes"`
}

// TicketListResponse is one page of tickets plus the full matching count.
type TicketListResponse struct {
	Data     []TicketResponse `json:"data"`
	Total    int              `json:"total"`
	Page     int              `json:"page"`
	PageSize int              `json:"pageSize"`
}

// BulkDeleteRequest payload.
type BulkDeleteRequest struct {
	IDs []string `json:"ids"`
}

// NewTicketResponse maps a domain ticket for output.
func NewTicketResponse(ticket *domain.Ticket) TicketResponse {
	audit := make([]AuditEntryResponse, 0, len(ticket.Audit))
	for _, entry := range ticket.Audit {
		audit = append(audit, newAuditEntryResponse(entry))
	}
	return TicketResponse{
		ID:            ticket.ID,
		Title:         ticket.Title,
		Description:   ticket.Description,
		Priority:      string(ticket.Priority),
		Category:      string(ticket.Category),
		Status:        string(ticket.Status),
		ReporterName:  ticket.ReporterName,
		ReporterEmail: ticket.ReporterEmail,
		Assignee:      ticket.Assignee,
		Archived:      ticket.Archived,
		ArchivedAt:    ticket.ArchivedAt,
		ArchivedBy:    ticket.ArchivedBy,
		Audit:         audit,
		CreatedAt:     ticket.CreatedAt,
		UpdatedAt:     ticket.UpdatedAt,
	}
}

// newAuditEntryResponse renders an audit entry. Legacy entries carrying a
// single change string, or only field/from/to, get display text
// synthesized here; the stored entry is never rewritten.
func newAuditEntryResponse(entry domain.AuditEntry) AuditEntryResponse {
	changes := entry.Changes
	if len(changes) == 0 && entry.Change != "" {
		changes = []string{entry.Change}
	}
	if len(changes) == 0 && entry.Field != "" {
		from := entry.From
		if from == "" {
			from = "—"
		}
		to := entry.To
		if to == "" {
			to = "—"
		}
		changes = []string{fmt.Sprintf("%s: %s → %s", entry.Field, from, to)}
	}
	if changes == nil {
		changes = []string{}
	}
	return AuditEntryResponse{
		At:      entry.At,
		By:      entry.By,
		Field:   entry.Field,
		From:    entry.From,
		To:      entry.To,
		Changes: changes,
	}
}

// ParseTicketPatch normalizes the three accepted PATCH body shapes into the
// single canonical TicketPatch:
//
//	{"field": "status", "value": "Resolved"}
//	{"update": {"status": "Resolved", "priority": "High"}}
//	{"status": "Resolved", "priority": "High"}
//
// Unknown fields are ignored; values of the wrong type and enum values
// outside the allowed sets are validation errors.
func ParseTicketPatch(body []byte) (domain.TicketPatch, error) {
	var patch domain.TicketPatch

	var raw map[string]json.RawMessage
	if err := json.Unmarshal(body, &raw); err != nil {
		return patch, apperrors.NewValidationError("invalid payload", nil)
	}

	fields := raw
	if fieldRaw, ok := raw["field"]; ok {
		var field string
		if err := json.Unmarshal(fieldRaw, &field); err != nil {
			return patch, apperrors.NewValidationError("invalid payload", map[string]any{"field": "must be a string"})
		}
		value, ok := raw["value"]
		if !ok {
			return patch, apperrors.NewValidationError("invalid payload", map[string]any{"value": "required"})
		}
		fields = map[string]json.RawMessage{field: value}
	} else if updateRaw, ok := raw["update"]; ok {
		if err := json.Unmarshal(updateRaw, &fields); err != nil {
			return patch, apperrors.NewValidationError("invalid payload", map[string]any{"update": "must be an object"})
		}
	}

	issues := map[string]any{}
	for name, value := range fields {
		switch name {
		case "status":
			if v, ok := decodeString(value); ok {
				status := domain.TicketStatus(v)
				if !status.Valid() {
					issues[name] = "must be one of Open, In Progress, Resolved, Closed"
					continue
				}
				patch.Status = &status
			} else {
				issues[name] = "must be a string"
			}
		case "priority":
			if v, ok := decodeString(value); ok {
				priority := domain.TicketPriority(v)
				if !priority.Valid() {
					issues[name] = "must be one of Low, Medium, High, Urgent"
					continue
				}
				patch.Priority = &priority
			} else {
				issues[name] = "must be a string"
			}
		case "category":
			if v, ok := decodeString(value); ok {
				category := domain.TicketCategory(v)
				if !category.Valid() {
					issues[name] = "must be one of Hardware, Software, Network, Other"
					continue
				}
				patch.Category = &category
			} else {
				issues[name] = "must be a string"
			}
		case "description":
			if v, ok := decodeString(value); ok {
				patch.Description = &v
			} else {
				issues[name] = "must be a string"
			}
		case "assignee":
			if v, ok := decodeString(value); ok {
				v = strings.TrimSpace(v)
				patch.Assignee = &v
			} else {
				issues[name] = "must be a string"
			}
		case "archived":
			var v bool
			if err := json.Unmarshal(value, &v); err != nil {
				issues[name] = "must be a boolean"
				continue
			}
			patch.Archived = &v
		default:
			// not on the allow-list, dropped
		}
	}

	if len(issues) > 0 {
		return domain.TicketPatch{}, apperrors.NewValidationError("validation failed", issues)
	}
	if patch.IsEmpty() {
		return patch, apperrors.NewValidationError("no valid fields to update", nil)
	}
	return patch, nil
}

func decodeString(raw json.RawMessage) (string, bool) {
	var v string
	if err := json.Unmarshal(raw, &v); err != nil {
		return "", false
	}
	return v, true
}
