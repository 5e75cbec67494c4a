package service

import (
	"context"
	"strings"

	"github.com/jackc/pgx/v5"

	"github.com/spec-kit/helpdesk/internal/auth"
	"github.com/spec-kit/helpdesk/internal/domain"
	"github.com/spec-kit/helpdesk/internal/events"
	"github.com/spec-kit/helpdesk/internal/repository"
	apperrors "github.com/spec-kit/helpdesk/pkg/util"
)

// authorUnknown is recorded when the caller has no resolvable identity.
const authorUnknown = "unknown"

// CommentService manages the append-only comment thread of a ticket.
type CommentService struct {
	comments   repository.CommentRepository
	tickets    repository.TicketRepository
	dispatcher events.Dispatcher
}

// CommentDependencies bundles repositories for comment service.
type CommentDependencies struct {
	CommentRepo repository.CommentRepository
	TicketRepo  repository.TicketRepository
	Dispatcher  events.Dispatcher
}

// NewCommentService constructs the service.
func NewCommentService(deps CommentDependencies) *CommentService {
	return &CommentService{
		comments:   deps.CommentRepo,
		tickets:    deps.TicketRepo,
		dispatcher: deps.Dispatcher,
	}
}

// AddComment appends a comment. Archived tickets reject new comments; the
// archive flag is a ticket-level property, so the check happens here, not
// in the store. A comment write advances the ticket's updatedAt but never
// touches its audit trail.
func (s *CommentService) AddComment(ctx context.Context, principal *auth.Principal, ticketID, body string, internal bool) (*domain.Comment, error) {
	if principal == nil {
		return nil, apperrors.NewUnauthorized("authentication required")
	}
	body = strings.TrimSpace(body)
	if body == "" {
		return nil, apperrors.NewValidationError("comment body required", map[string]any{"body": "must not be empty"})
	}

	ticket, err := s.tickets.GetByID(ctx, ticketID)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, apperrors.NewNotFound("ticket", map[string]any{"id": ticketID})
		}
		return nil, err
	}
	if ticket.Archived {
		return nil, apperrors.NewReadOnly("ticket is read-only")
	}

	author := principal.Email()
	if author == "" {
		author = authorUnknown
	}

	comment := &domain.Comment{
		TicketID: ticket.ID,
		Author:   author,
		Body:     body,
		Internal: internal,
	}
	if err := s.comments.Create(ctx, comment); err != nil {
		return nil, err
	}
	if err := s.tickets.Touch(ctx, ticket.ID); err != nil && err != pgx.ErrNoRows {
		return nil, err
	}

	if s.dispatcher != nil {
		_ = s.dispatcher.Publish(ctx, events.Event{
			Type:     events.EventCommentAdded,
			TicketID: ticket.ID,
			Actor:    author,
			Payload: events.CommentAddedPayload{
				CommentID:   comment.ID,
				Author:      author,
				Internal:    comment.Internal,
				BodyPreview: bodyPreview(comment.Body, 120),
			},
		})
	}
	return comment, nil
}

// ListComments returns the thread in creation order. Internal notes are
// only included for admin callers.
func (s *CommentService) ListComments(ctx context.Context, principal *auth.Principal, ticketID string) ([]domain.Comment, error) {
	comments, err := s.comments.ListByTicket(ctx, ticketID)
	if err != nil {
		return nil, err
	}
	if principal.IsAdmin() {
		return comments, nil
	}
	visible := make([]domain.Comment, 0, len(comments))
	for _, comment := range comments {
		if comment.Internal {
			continue
		}
		visible = append(visible, comment)
	}
	return visible, nil
}

func bodyPreview(body string, max int) string {
	body = strings.TrimSpace(body)
	if len(body) <= max {
		return body
	}
	if max <= 3 {
		return body[:max]
	}
	return body[:max-3] + "..."
}
