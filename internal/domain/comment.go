package domain

import "time"

// Comment is a message attached to a ticket. Comments are append-only:
// no edit or delete operation exists. Internal comments are visible to
// staff only.
type Comment struct {
	ID        string
	TicketID  string
	Author    string
	Body      string
	Internal  bool
	CreatedAt time.Time
}
