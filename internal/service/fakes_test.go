package service

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/stretchr/testify/require"

	"github.com/spec-kit/helpdesk/internal/auth"
	"github.com/spec-kit/helpdesk/internal/domain"
	"github.com/spec-kit/helpdesk/internal/repository"
	apperrors "github.com/spec-kit/helpdesk/pkg/util"
)

func requireDomainCode(t *testing.T, err error, code string) {
	t.Helper()
	var domainErr *apperrors.DomainError
	require.ErrorAs(t, err, &domainErr)
	require.Equal(t, code, domainErr.Code)
}

func adminPrincipal() *auth.Principal {
	return &auth.Principal{User: &domain.User{
		ID:    "u-admin",
		Name:  "Admin",
		Email: "admin@example.com",
		Role:  domain.RoleAdmin,
	}}
}

func userPrincipal(email string) *auth.Principal {
	return &auth.Principal{User: &domain.User{
		ID:    "u-" + email,
		Name:  "User",
		Email: email,
		Role:  domain.RoleUser,
	}}
}

// fakeTicketRepo is an in-memory TicketRepository mirroring the filter
// semantics of the Postgres implementation.
type fakeTicketRepo struct {
	tickets map[string]*domain.Ticket
	touched []string
	nextID  int
	now     time.Time
}

func newFakeTicketRepo() *fakeTicketRepo {
	return &fakeTicketRepo{
		tickets: map[string]*domain.Ticket{},
		now:     time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC),
	}
}

func copyTicket(t *domain.Ticket) *domain.Ticket {
	clone := *t
	clone.Audit = append([]domain.AuditEntry(nil), t.Audit...)
	return &clone
}

func (r *fakeTicketRepo) Create(_ context.Context, ticket *domain.Ticket) error {
	r.nextID++
	ticket.ID = fmt.Sprintf("t%d", r.nextID)
	r.now = r.now.Add(time.Minute)
	ticket.CreatedAt = r.now
	ticket.UpdatedAt = r.now
	r.tickets[ticket.ID] = copyTicket(ticket)
	return nil
}

func (r *fakeTicketRepo) Update(_ context.Context, ticket *domain.Ticket) error {
	if _, ok := r.tickets[ticket.ID]; !ok {
		return pgx.ErrNoRows
	}
	ticket.UpdatedAt = r.now.Add(time.Minute)
	r.tickets[ticket.ID] = copyTicket(ticket)
	return nil
}

func (r *fakeTicketRepo) Touch(_ context.Context, id string) error {
	if _, ok := r.tickets[id]; !ok {
		return pgx.ErrNoRows
	}
	r.touched = append(r.touched, id)
	return nil
}

func (r *fakeTicketRepo) GetByID(_ context.Context, id string) (*domain.Ticket, error) {
	ticket, ok := r.tickets[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	return copyTicket(ticket), nil
}

func (r *fakeTicketRepo) matches(ticket *domain.Ticket, filter repository.TicketFilter) bool {
	if filter.MatchNone {
		return false
	}
	if search := strings.ToLower(strings.TrimSpace(filter.Search)); search != "" {
		hit := false
		for _, field := range []string{ticket.Title, ticket.Description, ticket.ReporterName, ticket.ReporterEmail, ticket.Assignee} {
			if strings.Contains(strings.ToLower(field), search) {
				hit = true
				break
			}
		}
		if !hit {
			return false
		}
	}
	if filter.Status != nil && ticket.Status != *filter.Status {
		return false
	}
	if filter.Priority != nil && ticket.Priority != *filter.Priority {
		return false
	}
	if filter.Category != nil && ticket.Category != *filter.Category {
		return false
	}
	if filter.Mine != "" {
		if !strings.EqualFold(ticket.Assignee, filter.Mine) && !strings.EqualFold(ticket.ReporterEmail, filter.Mine) {
			return false
		}
	} else if filter.Assignee != "" {
		if !strings.EqualFold(ticket.Assignee, filter.Assignee) {
			return false
		}
	}
	return true
}

func (r *fakeTicketRepo) matching(filter repository.TicketFilter) []domain.Ticket {
	var result []domain.Ticket
	for _, ticket := range r.tickets {
		if r.matches(ticket, filter) {
			result = append(result, *copyTicket(ticket))
		}
	}
	sort.Slice(result, func(i, j int) bool {
		return result[i].CreatedAt.After(result[j].CreatedAt)
	})
	return result
}

func (r *fakeTicketRepo) List(_ context.Context, filter repository.TicketFilter) ([]domain.Ticket, error) {
	result := r.matching(filter)
	offset := filter.Offset
	if offset > len(result) {
		offset = len(result)
	}
	result = result[offset:]
	limit := filter.Limit
	if limit <= 0 {
		limit = 50
	}
	if limit < len(result) {
		result = result[:limit]
	}
	return result, nil
}

func (r *fakeTicketRepo) Count(_ context.Context, filter repository.TicketFilter) (int, error) {
	return len(r.matching(filter)), nil
}

func (r *fakeTicketRepo) Delete(_ context.Context, id string) error {
	if _, ok := r.tickets[id]; !ok {
		return pgx.ErrNoRows
	}
	delete(r.tickets, id)
	return nil
}

func (r *fakeTicketRepo) DeleteMany(_ context.Context, ids []string) (int, error) {
	deleted := 0
	for _, id := range ids {
		if _, ok := r.tickets[id]; ok {
			delete(r.tickets, id)
			deleted++
		}
	}
	return deleted, nil
}

// fakeCommentRepo is an in-memory CommentRepository.
type fakeCommentRepo struct {
	comments []domain.Comment
	nextID   int
}

func newFakeCommentRepo() *fakeCommentRepo {
	return &fakeCommentRepo{}
}

func (r *fakeCommentRepo) Create(_ context.Context, comment *domain.Comment) error {
	r.nextID++
	comment.ID = fmt.Sprintf("c%d", r.nextID)
	comment.CreatedAt = time.Now()
	r.comments = append(r.comments, *comment)
	return nil
}

func (r *fakeCommentRepo) ListByTicket(_ context.Context, ticketID string) ([]domain.Comment, error) {
	var result []domain.Comment
	for _, comment := range r.comments {
		if comment.TicketID == ticketID {
			result = append(result, comment)
		}
	}
	return result, nil
}

// fakeUserRepo is an in-memory UserRepository keyed by id with a
// case-insensitive email index.
type fakeUserRepo struct {
	users  map[string]*domain.User
	nextID int
}

func newFakeUserRepo() *fakeUserRepo {
	return &fakeUserRepo{users: map[string]*domain.User{}}
}

func (r *fakeUserRepo) Create(_ context.Context, user *domain.User) error {
	r.nextID++
	user.ID = fmt.Sprintf("u%d", r.nextID)
	user.Email = strings.ToLower(user.Email)
	user.CreatedAt = time.Now()
	user.UpdatedAt = user.CreatedAt
	clone := *user
	r.users[user.ID] = &clone
	return nil
}

func (r *fakeUserRepo) Update(_ context.Context, user *domain.User) error {
	if _, ok := r.users[user.ID]; !ok {
		return pgx.ErrNoRows
	}
	clone := *user
	r.users[user.ID] = &clone
	return nil
}

func (r *fakeUserRepo) GetByID(_ context.Context, id string) (*domain.User, error) {
	user, ok := r.users[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	clone := *user
	return &clone, nil
}

func (r *fakeUserRepo) GetByEmail(_ context.Context, email string) (*domain.User, error) {
	for _, user := range r.users {
		if strings.EqualFold(user.Email, email) {
			clone := *user
			return &clone, nil
		}
	}
	return nil, pgx.ErrNoRows
}

func (r *fakeUserRepo) List(_ context.Context) ([]domain.User, error) {
	var result []domain.User
	for _, user := range r.users {
		result = append(result, *user)
	}
	sort.Slice(result, func(i, j int) bool {
		return result[i].CreatedAt.After(result[j].CreatedAt)
	})
	return result, nil
}

func (r *fakeUserRepo) Delete(_ context.Context, id string) error {
	if _, ok := r.users[id]; !ok {
		return pgx.ErrNoRows
	}
	delete(r.users, id)
	return nil
}
