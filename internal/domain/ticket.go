package domain

import "time"

// TicketStatus enumerates lifecycle states for tickets.
type TicketStatus string

const (
	TicketStatusOpen       TicketStatus = "Open"
	TicketStatusInProgress TicketStatus = "In Progress"
	TicketStatusResolved   TicketStatus = "Resolved"
	TicketStatusClosed     TicketStatus = "Closed"
)

// Valid reports whether the status is one of the enumerated values.
func (s TicketStatus) Valid() bool {
	switch s {
	case TicketStatusOpen, TicketStatusInProgress, TicketStatusResolved, TicketStatusClosed:
		return true
	}
	return false
}

// TicketPriority enumerates urgency levels.
type TicketPriority string

const (
	TicketPriorityLow    TicketPriority = "Low"
	TicketPriorityMedium TicketPriority = "Medium"
	TicketPriorityHigh   TicketPriority = "High"
	TicketPriorityUrgent TicketPriority = "Urgent"
)

// Valid reports whether the priority is one of the enumerated values.
func (p TicketPriority) Valid() bool {
	switch p {
	case TicketPriorityLow, TicketPriorityMedium, TicketPriorityHigh, TicketPriorityUrgent:
		return true
	}
	return false
}

// TicketCategory enumerates coarse classification buckets.
type TicketCategory string

const (
	TicketCategoryHardware TicketCategory = "Hardware"
	TicketCategorySoftware TicketCategory = "Software"
	TicketCategoryNetwork  TicketCategory = "Network"
	TicketCategoryOther    TicketCategory = "Other"
)

// Valid reports whether the category is one of the enumerated values.
func (c TicketCategory) Valid() bool {
	switch c {
	case TicketCategoryHardware, TicketCategorySoftware, TicketCategoryNetwork, TicketCategoryOther:
		return true
	}
	return false
}

// AuditEntry is one recorded field-level change. Entries are append-only
// and never rewritten once stored.
type AuditEntry struct {
	At      time.Time `json:"at"`
	By      string    `json:"by"`
	Action  string    `json:"action,omitempty"`
	Field   string    `json:"field,omitempty"`
	From    string    `json:"from,omitempty"`
	To      string    `json:"to,omitempty"`
	Changes []string  `json:"changes,omitempty"`

	// Change holds the single summary string older deployments wrote
	// before Changes existed. Read for display, never written.
	Change string `json:"change,omitempty"`
}

// Ticket is the aggregate for support requests. The audit trail is embedded:
// its lifetime is identical to the ticket's.
type Ticket struct {
	ID            string
	Title         string
	Description   string
	Priority      TicketPriority
	Category      TicketCategory
	Status        TicketStatus
	ReporterName  string
	ReporterEmail string
	Assignee      string
	Archived      bool
	ArchivedAt    *time.Time
	ArchivedBy    *string
	Audit         []AuditEntry
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// TicketPatch is the canonical partial update. Every accepted PATCH body
// shape is normalized into this struct before it reaches the diff engine.
// Nil means "field not present in the request".
type TicketPatch struct {
	Status      *TicketStatus
	Priority    *TicketPriority
	Category    *TicketCategory
	Description *string
	Assignee    *string
	Archived    *bool
}

// IsEmpty reports whether the patch carries no fields at all.
func (p TicketPatch) IsEmpty() bool {
	return p.Status == nil && p.Priority == nil && p.Category == nil &&
		p.Description == nil && p.Assignee == nil && p.Archived == nil
}

// IsUnarchiveOnly reports whether the patch requests exactly the unarchive
// transition and nothing else. This is the only patch an archived ticket
// accepts.
func (p TicketPatch) IsUnarchiveOnly() bool {
	return p.Archived != nil && !*p.Archived &&
		p.Status == nil && p.Priority == nil && p.Category == nil &&
		p.Description == nil && p.Assignee == nil
}

// TouchesAdminFields reports whether the patch contains fields only admins
// may change.
func (p TicketPatch) TouchesAdminFields() bool {
	return p.Assignee != nil || p.Archived != nil
}
