package service

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/spec-kit/helpdesk/internal/domain"
)

func newTicketServiceForTest() (*TicketService, *fakeTicketRepo) {
	repo := newFakeTicketRepo()
	svc := NewTicketService(TicketDependencies{TicketRepo: repo})
	return svc, repo
}

func seedTicket(t *testing.T, repo *fakeTicketRepo, mutate func(*domain.Ticket)) *domain.Ticket {
	t.Helper()
	ticket := &domain.Ticket{
		Title:         "VPN drops every hour",
		Description:   "Connection resets at the top of each hour",
		Priority:      domain.TicketPriorityMedium,
		Category:      domain.TicketCategoryNetwork,
		Status:        domain.TicketStatusOpen,
		ReporterName:  "Dana Reyes",
		ReporterEmail: "dana@example.com",
		Audit:         []domain.AuditEntry{},
	}
	if mutate != nil {
		mutate(ticket)
	}
	require.NoError(t, repo.Create(context.Background(), ticket))
	return ticket
}

func TestCreateTicketDefaultsAndForcedStatus(t *testing.T) {
	svc, _ := newTicketServiceForTest()

	ticket, err := svc.CreateTicket(context.Background(), TicketCreateInput{
		Title:         "  Monitor flickers  ",
		Description:   "Screen flickers on wake",
		ReporterName:  "Sam Ortiz",
		ReporterEmail: "sam@example.com",
	})
	require.NoError(t, err)

	require.Equal(t, "Monitor flickers", ticket.Title)
	require.Equal(t, domain.TicketStatusOpen, ticket.Status)
	require.Equal(t, domain.TicketPriorityLow, ticket.Priority)
	require.Equal(t, domain.TicketCategoryOther, ticket.Category)
	require.NotEmpty(t, ticket.ID)
	require.Empty(t, ticket.Audit)
}

func TestCreateTicketValidation(t *testing.T) {
	svc, _ := newTicketServiceForTest()

	_, err := svc.CreateTicket(context.Background(), TicketCreateInput{
		Title:         "ab",
		Description:   "shrt",
		ReporterName:  "x",
		ReporterEmail: "not-an-email",
	})
	requireDomainCode(t, err, "VALIDATION_FAILED")
}

func TestCreateTicketLengthBoundsCountRunes(t *testing.T) {
	svc, _ := newTicketServiceForTest()

	// Two runes but four bytes: still under the three character minimum.
	_, err := svc.CreateTicket(context.Background(), TicketCreateInput{
		Title:         "éé",
		Description:   "Valid description",
		ReporterName:  "Sam Ortiz",
		ReporterEmail: "sam@example.com",
	})
	requireDomainCode(t, err, "VALIDATION_FAILED")

	// 120 runes of multibyte text exceed 120 bytes but sit on the limit.
	_, err = svc.CreateTicket(context.Background(), TicketCreateInput{
		Title:         strings.Repeat("é", 120),
		Description:   "héllo",
		ReporterName:  "Sam Ortiz",
		ReporterEmail: "sam@example.com",
	})
	require.NoError(t, err)
}

func TestCreateTicketRejectsUnknownPriority(t *testing.T) {
	svc, _ := newTicketServiceForTest()

	_, err := svc.CreateTicket(context.Background(), TicketCreateInput{
		Title:         "Valid title",
		Description:   "Valid description",
		ReporterName:  "Sam Ortiz",
		ReporterEmail: "sam@example.com",
		Priority:      domain.TicketPriority("Critical"),
	})
	requireDomainCode(t, err, "VALIDATION_FAILED")
}

func TestUpdateTicketRequiresPrincipal(t *testing.T) {
	svc, repo := newTicketServiceForTest()
	ticket := seedTicket(t, repo, nil)

	_, err := svc.UpdateTicket(context.Background(), nil, ticket.ID, domain.TicketPatch{
		Status: statusPtr(domain.TicketStatusResolved),
	})
	requireDomainCode(t, err, "UNAUTHORIZED")
}

func TestUpdateTicketEmptyPatchRejected(t *testing.T) {
	svc, repo := newTicketServiceForTest()
	ticket := seedTicket(t, repo, nil)

	_, err := svc.UpdateTicket(context.Background(), adminPrincipal(), ticket.ID, domain.TicketPatch{})
	requireDomainCode(t, err, "VALIDATION_FAILED")
}

func TestUpdateTicketAccessControl(t *testing.T) {
	svc, repo := newTicketServiceForTest()
	ticket := seedTicket(t, repo, func(tk *domain.Ticket) {
		tk.Assignee = "tech@example.com"
	})
	patch := domain.TicketPatch{Status: statusPtr(domain.TicketStatusInProgress)}

	_, err := svc.UpdateTicket(context.Background(), userPrincipal("stranger@example.com"), ticket.ID, patch)
	requireDomainCode(t, err, "FORBIDDEN")

	updated, err := svc.UpdateTicket(context.Background(), userPrincipal("TECH@example.com"), ticket.ID, patch)
	require.NoError(t, err)
	require.Equal(t, domain.TicketStatusInProgress, updated.Status)

	updated, err = svc.UpdateTicket(context.Background(), userPrincipal("dana@example.com"), ticket.ID, domain.TicketPatch{
		Status: statusPtr(domain.TicketStatusResolved),
	})
	require.NoError(t, err)
	require.Equal(t, domain.TicketStatusResolved, updated.Status)
}

func TestUpdateTicketAdminFieldsRequireAdmin(t *testing.T) {
	svc, repo := newTicketServiceForTest()
	ticket := seedTicket(t, repo, nil)

	// The reporter may edit workflow fields but not reassign or archive.
	_, err := svc.UpdateTicket(context.Background(), userPrincipal("dana@example.com"), ticket.ID, domain.TicketPatch{
		Assignee: strPtr("tech@example.com"),
	})
	requireDomainCode(t, err, "FORBIDDEN")

	_, err = svc.UpdateTicket(context.Background(), userPrincipal("dana@example.com"), ticket.ID, domain.TicketPatch{
		Archived: boolPtr(true),
	})
	requireDomainCode(t, err, "FORBIDDEN")

	updated, err := svc.UpdateTicket(context.Background(), adminPrincipal(), ticket.ID, domain.TicketPatch{
		Assignee: strPtr("tech@example.com"),
	})
	require.NoError(t, err)
	require.Equal(t, "tech@example.com", updated.Assignee)
}

func TestUpdateTicketArchivedIsReadOnly(t *testing.T) {
	svc, repo := newTicketServiceForTest()
	ticket := seedTicket(t, repo, func(tk *domain.Ticket) {
		tk.Archived = true
	})

	_, err := svc.UpdateTicket(context.Background(), adminPrincipal(), ticket.ID, domain.TicketPatch{
		Status: statusPtr(domain.TicketStatusClosed),
	})
	requireDomainCode(t, err, "TICKET_READ_ONLY")

	// A combined unarchive-plus-edit is still rejected.
	_, err = svc.UpdateTicket(context.Background(), adminPrincipal(), ticket.ID, domain.TicketPatch{
		Archived: boolPtr(false),
		Status:   statusPtr(domain.TicketStatusClosed),
	})
	requireDomainCode(t, err, "TICKET_READ_ONLY")
}

func TestUpdateTicketUnarchiveAppendsRestoreEntry(t *testing.T) {
	svc, repo := newTicketServiceForTest()
	ticket := seedTicket(t, repo, func(tk *domain.Ticket) {
		tk.Archived = true
	})

	updated, err := svc.UpdateTicket(context.Background(), adminPrincipal(), ticket.ID, domain.TicketPatch{
		Archived: boolPtr(false),
	})
	require.NoError(t, err)
	require.False(t, updated.Archived)
	require.Nil(t, updated.ArchivedAt)
	require.Len(t, updated.Audit, 1)
	require.Equal(t, []string{"Restored from archive"}, updated.Audit[0].Changes)
	require.Equal(t, "admin@example.com", updated.Audit[0].By)
}

func TestUpdateTicketNoopDoesNotPersist(t *testing.T) {
	svc, repo := newTicketServiceForTest()
	ticket := seedTicket(t, repo, nil)
	before := repo.tickets[ticket.ID].UpdatedAt

	updated, err := svc.UpdateTicket(context.Background(), adminPrincipal(), ticket.ID, domain.TicketPatch{
		Status: statusPtr(domain.TicketStatusOpen),
	})
	require.NoError(t, err)
	require.Empty(t, updated.Audit)
	require.Equal(t, before, repo.tickets[ticket.ID].UpdatedAt)
}

func TestUpdateTicketNotFound(t *testing.T) {
	svc, _ := newTicketServiceForTest()

	_, err := svc.UpdateTicket(context.Background(), adminPrincipal(), "missing", domain.TicketPatch{
		Status: statusPtr(domain.TicketStatusClosed),
	})
	requireDomainCode(t, err, "NOT_FOUND")
}

func TestListTicketsMineFailsClosedWithoutIdentity(t *testing.T) {
	svc, repo := newTicketServiceForTest()
	seedTicket(t, repo, nil)
	seedTicket(t, repo, nil)

	page, err := svc.ListTickets(context.Background(), nil, TicketListInput{Mine: true})
	require.NoError(t, err)
	require.Zero(t, page.Total)
	require.Empty(t, page.Tickets)
}

func TestListTicketsMineMatchesAssigneeOrReporter(t *testing.T) {
	svc, repo := newTicketServiceForTest()
	seedTicket(t, repo, func(tk *domain.Ticket) {
		tk.ReporterEmail = "dana@example.com"
	})
	seedTicket(t, repo, func(tk *domain.Ticket) {
		tk.ReporterEmail = "other@example.com"
		tk.Assignee = "Dana@Example.com"
	})
	seedTicket(t, repo, func(tk *domain.Ticket) {
		tk.ReporterEmail = "other@example.com"
	})

	page, err := svc.ListTickets(context.Background(), userPrincipal("dana@example.com"), TicketListInput{Mine: true})
	require.NoError(t, err)
	require.Equal(t, 2, page.Total)
	require.Len(t, page.Tickets, 2)
}

func TestListTicketsSearchAndFiltersCompose(t *testing.T) {
	svc, repo := newTicketServiceForTest()
	seedTicket(t, repo, func(tk *domain.Ticket) {
		tk.Title = "Printer offline"
		tk.Status = domain.TicketStatusOpen
	})
	seedTicket(t, repo, func(tk *domain.Ticket) {
		tk.Title = "Printer jam"
		tk.Status = domain.TicketStatusClosed
	})
	seedTicket(t, repo, func(tk *domain.Ticket) {
		tk.Title = "Laptop battery"
		tk.Status = domain.TicketStatusOpen
	})

	page, err := svc.ListTickets(context.Background(), nil, TicketListInput{
		Query:  "printer",
		Status: "Open",
	})
	require.NoError(t, err)
	require.Equal(t, 1, page.Total)
	require.Equal(t, "Printer offline", page.Tickets[0].Title)
}

func TestListTicketsPaginationClamping(t *testing.T) {
	svc, repo := newTicketServiceForTest()
	for i := 0; i < 3; i++ {
		seedTicket(t, repo, nil)
	}

	page, err := svc.ListTickets(context.Background(), nil, TicketListInput{Page: 0, PageSize: 0})
	require.NoError(t, err)
	require.Equal(t, 1, page.Page)
	require.Equal(t, 50, page.PageSize)
	require.Equal(t, 3, page.Total)

	page, err = svc.ListTickets(context.Background(), nil, TicketListInput{Page: 1, PageSize: 501})
	require.NoError(t, err)
	require.Equal(t, 500, page.PageSize)

	page, err = svc.ListTickets(context.Background(), nil, TicketListInput{Page: 2, PageSize: 2})
	require.NoError(t, err)
	require.Equal(t, 3, page.Total)
	require.Len(t, page.Tickets, 1)
}

func TestListTicketsNewestFirst(t *testing.T) {
	svc, repo := newTicketServiceForTest()
	first := seedTicket(t, repo, nil)
	second := seedTicket(t, repo, nil)

	page, err := svc.ListTickets(context.Background(), nil, TicketListInput{})
	require.NoError(t, err)
	require.Len(t, page.Tickets, 2)
	require.Equal(t, second.ID, page.Tickets[0].ID)
	require.Equal(t, first.ID, page.Tickets[1].ID)
}

func TestDeleteTicketAdminOnly(t *testing.T) {
	svc, repo := newTicketServiceForTest()
	ticket := seedTicket(t, repo, nil)

	err := svc.DeleteTicket(context.Background(), userPrincipal("dana@example.com"), ticket.ID)
	requireDomainCode(t, err, "FORBIDDEN")

	require.NoError(t, svc.DeleteTicket(context.Background(), adminPrincipal(), ticket.ID))

	err = svc.DeleteTicket(context.Background(), adminPrincipal(), ticket.ID)
	requireDomainCode(t, err, "NOT_FOUND")
}

func TestBulkDeleteTickets(t *testing.T) {
	svc, repo := newTicketServiceForTest()
	a := seedTicket(t, repo, nil)
	b := seedTicket(t, repo, nil)

	_, err := svc.BulkDeleteTickets(context.Background(), adminPrincipal(), []string{"", "  "})
	requireDomainCode(t, err, "VALIDATION_FAILED")

	deleted, err := svc.BulkDeleteTickets(context.Background(), adminPrincipal(), []string{a.ID, b.ID, "missing", " "})
	require.NoError(t, err)
	require.Equal(t, 2, deleted)
	require.Empty(t, repo.tickets)
}
