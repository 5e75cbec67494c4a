package dto

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/spec-kit/helpdesk/internal/domain"
	apperrors "github.com/spec-kit/helpdesk/pkg/util"
)

func requireValidationError(t *testing.T, err error) {
	t.Helper()
	var domainErr *apperrors.DomainError
	require.ErrorAs(t, err, &domainErr)
	require.Equal(t, "VALIDATION_FAILED", domainErr.Code)
}

func TestParseTicketPatchFieldValueShape(t *testing.T) {
	patch, err := ParseTicketPatch([]byte(`{"field":"status","value":"Resolved"}`))
	require.NoError(t, err)
	require.NotNil(t, patch.Status)
	require.Equal(t, domain.TicketStatusResolved, *patch.Status)
	require.Nil(t, patch.Priority)
}

func TestParseTicketPatchUpdateShape(t *testing.T) {
	patch, err := ParseTicketPatch([]byte(`{"update":{"status":"Closed","priority":"High"}}`))
	require.NoError(t, err)
	require.NotNil(t, patch.Status)
	require.Equal(t, domain.TicketStatusClosed, *patch.Status)
	require.NotNil(t, patch.Priority)
	require.Equal(t, domain.TicketPriorityHigh, *patch.Priority)
}

func TestParseTicketPatchFlatShape(t *testing.T) {
	patch, err := ParseTicketPatch([]byte(`{"assignee":"  tech@example.com  ","archived":true}`))
	require.NoError(t, err)
	require.NotNil(t, patch.Assignee)
	require.Equal(t, "tech@example.com", *patch.Assignee)
	require.NotNil(t, patch.Archived)
	require.True(t, *patch.Archived)
}

func TestParseTicketPatchUnknownFieldsDropped(t *testing.T) {
	patch, err := ParseTicketPatch([]byte(`{"status":"Open","title":"nope","reporterEmail":"x@y.z"}`))
	require.NoError(t, err)
	require.NotNil(t, patch.Status)
	require.Nil(t, patch.Description)
	require.Nil(t, patch.Assignee)
}

func TestParseTicketPatchOnlyUnknownFields(t *testing.T) {
	_, err := ParseTicketPatch([]byte(`{"title":"nope"}`))
	requireValidationError(t, err)
}

func TestParseTicketPatchInvalidEnum(t *testing.T) {
	_, err := ParseTicketPatch([]byte(`{"status":"Done"}`))
	requireValidationError(t, err)

	_, err = ParseTicketPatch([]byte(`{"field":"priority","value":"Critical"}`))
	requireValidationError(t, err)
}

func TestParseTicketPatchWrongTypes(t *testing.T) {
	_, err := ParseTicketPatch([]byte(`{"archived":"yes"}`))
	requireValidationError(t, err)

	_, err = ParseTicketPatch([]byte(`{"description":42}`))
	requireValidationError(t, err)
}

func TestParseTicketPatchMalformedBody(t *testing.T) {
	_, err := ParseTicketPatch([]byte(`[1,2,3]`))
	requireValidationError(t, err)

	_, err = ParseTicketPatch([]byte(`{"field":"status"}`))
	requireValidationError(t, err)
}

func TestAuditEntryResponseLegacySynthesis(t *testing.T) {
	at := time.Date(2023, 1, 2, 3, 4, 5, 0, time.UTC)

	// Modern entry passes through.
	modern := newAuditEntryResponse(domain.AuditEntry{
		At: at, By: "admin@example.com",
		Field: "status", From: "Open", To: "Closed",
		Changes: []string{"Status: Open → Closed"},
	})
	require.Equal(t, []string{"Status: Open → Closed"}, modern.Changes)

	// Legacy single change string is promoted.
	legacy := newAuditEntryResponse(domain.AuditEntry{
		At: at, By: "admin@example.com", Change: "Reassigned to tech",
	})
	require.Equal(t, []string{"Reassigned to tech"}, legacy.Changes)

	// Bare field/from/to gets synthesized display text.
	bare := newAuditEntryResponse(domain.AuditEntry{
		At: at, By: "admin@example.com", Field: "assignee", To: "tech@example.com",
	})
	require.Equal(t, []string{"assignee: — → tech@example.com"}, bare.Changes)

	// An empty entry still renders a non-nil list.
	empty := newAuditEntryResponse(domain.AuditEntry{At: at, By: "admin@example.com"})
	require.NotNil(t, empty.Changes)
	require.Empty(t, empty.Changes)
}
