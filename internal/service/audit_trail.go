package service

import (
	"fmt"
	"strings"
	"time"

	"github.com/spec-kit/helpdesk/internal/domain"
)

// emptyValuePlaceholder renders missing or empty values in change summaries.
const emptyValuePlaceholder = "—"

// actorSystem is recorded when no caller identity is available.
const actorSystem = "System"

// fieldLabels overrides the display label for known fields. Anything else
// falls back to title-casing the field name.
var fieldLabels = map[string]string{
	"status":      "Status",
	"priority":    "Priority",
	"category":    "Category",
	"description": "Description",
	"assignee":    "Assignee",
}

// applyTicketPatch merges the patch into the ticket and returns one audit
// entry per field that actually changed (strict inequality against the
// stored value). All entries from one request share the same timestamp and
// actor. A patch that changes nothing yields no entries and leaves the
// ticket untouched.
//
// The archived toggle is special-cased: it produces an "Archived ticket" /
// "Restored from archive" entry and sets or clears archivedAt/archivedBy as
// a side effect.
func applyTicketPatch(ticket *domain.Ticket, patch domain.TicketPatch, actor string, now time.Time) []domain.AuditEntry {
	if actor == "" {
		actor = actorSystem
	}

	var entries []domain.AuditEntry

	record := func(field, from, to string) {
		entries = append(entries, domain.AuditEntry{
			At:      now,
			By:      actor,
			Action:  "update",
			Field:   field,
			From:    from,
			To:      to,
			Changes: []string{changeSummary(field, from, to)},
		})
	}

	if patch.Status != nil && *patch.Status != ticket.Status {
		record("status", string(ticket.Status), string(*patch.Status))
		ticket.Status = *patch.Status
	}
	if patch.Priority != nil && *patch.Priority != ticket.Priority {
		record("priority", string(ticket.Priority), string(*patch.Priority))
		ticket.Priority = *patch.Priority
	}
	if patch.Category != nil && *patch.Category != ticket.Category {
		record("category", string(ticket.Category), string(*patch.Category))
		ticket.Category = *patch.Category
	}
	if patch.Description != nil && *patch.Description != ticket.Description {
		record("description", ticket.Description, *patch.Description)
		ticket.Description = *patch.Description
	}
	if patch.Assignee != nil && *patch.Assignee != ticket.Assignee {
		record("assignee", ticket.Assignee, *patch.Assignee)
		ticket.Assignee = *patch.Assignee
	}

	if patch.Archived != nil && *patch.Archived != ticket.Archived {
		summary := "Restored from archive"
		if *patch.Archived {
			summary = "Archived ticket"
		}
		entries = append(entries, domain.AuditEntry{
			At:      now,
			By:      actor,
			Action:  "update",
			Field:   "archived",
			From:    fmt.Sprintf("%t", ticket.Archived),
			To:      fmt.Sprintf("%t", *patch.Archived),
			Changes: []string{summary},
		})
		ticket.Archived = *patch.Archived
		if ticket.Archived {
			at := now
			by := actor
			ticket.ArchivedAt = &at
			ticket.ArchivedBy = &by
		} else {
			ticket.ArchivedAt = nil
			ticket.ArchivedBy = nil
		}
	}

	return entries
}

func changeSummary(field, from, to string) string {
	return fmt.Sprintf("%s: %s → %s", fieldLabel(field), displayValue(from), displayValue(to))
}

func fieldLabel(field string) string {
	if label, ok := fieldLabels[field]; ok {
		return label
	}
	return titleCase(field)
}

func displayValue(v string) string {
	if strings.TrimSpace(v) == "" {
		return emptyValuePlaceholder
	}
	return v
}

func titleCase(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}
