package service

import (
	"context"
	"net/mail"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/spec-kit/helpdesk/internal/auth"
	"github.com/spec-kit/helpdesk/internal/domain"
	"github.com/spec-kit/helpdesk/internal/events"
	"github.com/spec-kit/helpdesk/internal/repository"
	apperrors "github.com/spec-kit/helpdesk/pkg/util"
)

const (
	defaultPageSize = 50
	maxPageSize     = 500
)

// TicketService coordinates ticket workflows. Updates follow a fixed
// pipeline: access control, archive gate, field diff, persist. There is no
// optimistic-concurrency token: two racing updates to the same ticket can
// record audit "from" values read before the other write landed.
type TicketService struct {
	tickets    repository.TicketRepository
	dispatcher events.Dispatcher
}

// TicketDependencies bundles repositories for ticket service.
type TicketDependencies struct {
	TicketRepo repository.TicketRepository
	Dispatcher events.Dispatcher
}

// NewTicketService constructs the service.
func NewTicketService(deps TicketDependencies) *TicketService {
	return &TicketService{tickets: deps.TicketRepo, dispatcher: deps.Dispatcher}
}

// TicketCreateInput describes ticket creation payload. Status is not
// accepted: new tickets always open as Open.
type TicketCreateInput struct {
	Title         string
	Description   string
	ReporterName  string
	ReporterEmail string
	Priority      domain.TicketPriority
	Category      domain.TicketCategory
}

// TicketListInput describes listing parameters as supplied by the caller.
type TicketListInput struct {
	Query    string
	Status   string
	Priority string
	Category string
	Assignee string
	Mine     bool
	Page     int
	PageSize int
}

// TicketPage is one page of listing results plus the full matching count.
type TicketPage struct {
	Tickets  []domain.Ticket
	Total    int
	Page     int
	PageSize int
}

// CreateTicket validates and persists a new ticket.
func (s *TicketService) CreateTicket(ctx context.Context, input TicketCreateInput) (*domain.Ticket, error) {
	input.Title = strings.TrimSpace(input.Title)
	input.Description = strings.TrimSpace(input.Description)
	input.ReporterName = strings.TrimSpace(input.ReporterName)
	input.ReporterEmail = strings.TrimSpace(input.ReporterEmail)

	if issues := validateCreateInput(input); len(issues) > 0 {
		return nil, apperrors.NewValidationError("validation failed", issues)
	}

	ticket := &domain.Ticket{
		Title:         input.Title,
		Description:   input.Description,
		ReporterName:  input.ReporterName,
		ReporterEmail: input.ReporterEmail,
		Priority:      input.Priority,
		Category:      input.Category,
		Status:        domain.TicketStatusOpen,
		Audit:         []domain.AuditEntry{},
	}
	if ticket.Priority == "" {
		ticket.Priority = domain.TicketPriorityLow
	}
	if ticket.Category == "" {
		ticket.Category = domain.TicketCategoryOther
	}

	if err := s.tickets.Create(ctx, ticket); err != nil {
		return nil, err
	}

	s.publishEvent(ctx, events.Event{
		Type:     events.EventTicketCreated,
		TicketID: ticket.ID,
		Actor:    ticket.ReporterEmail,
		Payload: events.TicketCreatedPayload{
			Title:    ticket.Title,
			Priority: ticket.Priority,
			Category: ticket.Category,
			Reporter: ticket.ReporterEmail,
		},
	})
	return ticket, nil
}

// ListTickets resolves the listing request into a concrete filter,
// executes it and paginates. The "mine" scope uses the verified principal
// identity only; without one it matches nothing.
func (s *TicketService) ListTickets(ctx context.Context, principal *auth.Principal, input TicketListInput) (*TicketPage, error) {
	page := input.Page
	if page < 1 {
		page = 1
	}
	pageSize := input.PageSize
	if pageSize <= 0 {
		pageSize = defaultPageSize
	}
	if pageSize > maxPageSize {
		pageSize = maxPageSize
	}

	filter := repository.TicketFilter{
		Search: strings.TrimSpace(input.Query),
		Limit:  pageSize,
		Offset: (page - 1) * pageSize,
	}
	if v := strings.TrimSpace(input.Status); v != "" {
		status := domain.TicketStatus(v)
		filter.Status = &status
	}
	if v := strings.TrimSpace(input.Priority); v != "" {
		priority := domain.TicketPriority(v)
		filter.Priority = &priority
	}
	if v := strings.TrimSpace(input.Category); v != "" {
		category := domain.TicketCategory(v)
		filter.Category = &category
	}

	if input.Mine {
		if email := principal.Email(); email != "" {
			filter.Mine = email
		} else {
			filter.MatchNone = true
		}
	} else if v := strings.TrimSpace(input.Assignee); v != "" {
		filter.Assignee = v
	}

	total, err := s.tickets.Count(ctx, filter)
	if err != nil {
		return nil, err
	}
	tickets, err := s.tickets.List(ctx, filter)
	if err != nil {
		return nil, err
	}
	if tickets == nil {
		tickets = []domain.Ticket{}
	}

	return &TicketPage{Tickets: tickets, Total: total, Page: page, PageSize: pageSize}, nil
}

// GetTicket fetches one ticket.
func (s *TicketService) GetTicket(ctx context.Context, id string) (*domain.Ticket, error) {
	ticket, err := s.tickets.GetByID(ctx, id)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, apperrors.NewNotFound("ticket", map[string]any{"id": id})
		}
		return nil, err
	}
	return ticket, nil
}

// UpdateTicket applies a partial update through the full pipeline and
// returns the merged ticket with its appended audit entries.
func (s *TicketService) UpdateTicket(ctx context.Context, principal *auth.Principal, id string, patch domain.TicketPatch) (*domain.Ticket, error) {
	if principal == nil {
		return nil, apperrors.NewUnauthorized("authentication required")
	}
	if patch.IsEmpty() {
		return nil, apperrors.NewValidationError("no valid fields to update", nil)
	}

	ticket, err := s.GetTicket(ctx, id)
	if err != nil {
		return nil, err
	}

	if patch.TouchesAdminFields() && !principal.IsAdmin() {
		return nil, apperrors.NewForbidden("admin role required")
	}
	hasFieldEdits := patch.Status != nil || patch.Priority != nil ||
		patch.Category != nil || patch.Description != nil
	if hasFieldEdits && !canEditTicket(principal, ticket) {
		return nil, apperrors.NewForbidden("not allowed to edit this ticket")
	}

	// Archived tickets accept exactly one request shape: the unarchive
	// toggle. Everything else is rejected before any diffing happens.
	if ticket.Archived && !patch.IsUnarchiveOnly() {
		return nil, apperrors.NewReadOnly("ticket is read-only")
	}

	wasArchived := ticket.Archived
	entries := applyTicketPatch(ticket, patch, principal.Email(), time.Now().UTC())
	if len(entries) == 0 {
		return ticket, nil
	}

	ticket.Audit = append(ticket.Audit, entries...)
	if err := s.tickets.Update(ctx, ticket); err != nil {
		if err == pgx.ErrNoRows {
			return nil, apperrors.NewNotFound("ticket", map[string]any{"id": id})
		}
		return nil, err
	}

	if ticket.Archived != wasArchived {
		s.publishEvent(ctx, events.Event{
			Type:     events.EventTicketArchived,
			TicketID: ticket.ID,
			Actor:    principal.Email(),
			Payload:  events.TicketArchivedPayload{Archived: ticket.Archived},
		})
	}
	fields := make([]string, 0, len(entries))
	changes := make([]string, 0, len(entries))
	for _, entry := range entries {
		fields = append(fields, entry.Field)
		changes = append(changes, entry.Changes...)
	}
	s.publishEvent(ctx, events.Event{
		Type:     events.EventTicketUpdated,
		TicketID: ticket.ID,
		Actor:    principal.Email(),
		Payload:  events.TicketUpdatedPayload{Fields: fields, Changes: changes},
	})
	return ticket, nil
}

// DeleteTicket removes one ticket. Admin only. Comments cascade with the
// ticket row.
func (s *TicketService) DeleteTicket(ctx context.Context, principal *auth.Principal, id string) error {
	if !principal.IsAdmin() {
		return apperrors.NewForbidden("admin role required")
	}
	if err := s.tickets.Delete(ctx, id); err != nil {
		if err == pgx.ErrNoRows {
			return apperrors.NewNotFound("ticket", map[string]any{"id": id})
		}
		return err
	}
	s.publishEvent(ctx, events.Event{
		Type:     events.EventTicketDeleted,
		TicketID: id,
		Actor:    principal.Email(),
		Payload:  events.TicketDeletedPayload{Count: 1},
	})
	return nil
}

// BulkDeleteTickets removes tickets by identifier set and reports how many
// rows were actually deleted. Admin only.
func (s *TicketService) BulkDeleteTickets(ctx context.Context, principal *auth.Principal, ids []string) (int, error) {
	if !principal.IsAdmin() {
		return 0, apperrors.NewForbidden("admin role required")
	}
	valid := make([]string, 0, len(ids))
	for _, id := range ids {
		if id = strings.TrimSpace(id); id != "" {
			valid = append(valid, id)
		}
	}
	if len(valid) == 0 {
		return 0, apperrors.NewValidationError("no valid ids provided", nil)
	}
	deleted, err := s.tickets.DeleteMany(ctx, valid)
	if err != nil {
		return 0, err
	}
	if deleted > 0 {
		s.publishEvent(ctx, events.Event{
			Type:    events.EventTicketDeleted,
			Actor:   principal.Email(),
			Payload: events.TicketDeletedPayload{Count: deleted},
		})
	}
	return deleted, nil
}

// canEditTicket implements the field-edit rule: admin, recorded assignee,
// or reporter by case-insensitive email match.
func canEditTicket(principal *auth.Principal, ticket *domain.Ticket) bool {
	if principal == nil || principal.User == nil {
		return false
	}
	if principal.IsAdmin() {
		return true
	}
	email := principal.Email()
	if ticket.Assignee != "" && strings.EqualFold(ticket.Assignee, email) {
		return true
	}
	return strings.EqualFold(ticket.ReporterEmail, email)
}

func validateCreateInput(input TicketCreateInput) map[string]any {
	issues := map[string]any{}
	if n := utf8.RuneCountInString(input.Title); n < 3 || n > 120 {
		issues["title"] = "must be between 3 and 120 characters"
	}
	if n := utf8.RuneCountInString(input.Description); n < 5 || n > 2000 {
		issues["description"] = "must be between 5 and 2000 characters"
	}
	if n := utf8.RuneCountInString(input.ReporterName); n < 2 || n > 80 {
		issues["reporterName"] = "must be between 2 and 80 characters"
	}
	if _, err := mail.ParseAddress(input.ReporterEmail); err != nil {
		issues["reporterEmail"] = "must be a valid email address"
	}
	if input.Priority != "" && !input.Priority.Valid() {
		issues["priority"] = "must be one of Low, Medium, High, Urgent"
	}
	if input.Category != "" && !input.Category.Valid() {
		issues["category"] = "must be one of Hardware, Software, Network, Other"
	}
	return issues
}

func (s *TicketService) publishEvent(ctx context.Context, event events.Event) {
	if s.dispatcher == nil {
		return
	}
	if event.ID == "" {
		event.ID = uuid.NewString()
	}
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now()
	}
	if event.Actor == "" {
		event.Actor = actorSystem
	}
	_ = s.dispatcher.Publish(ctx, event)
}
