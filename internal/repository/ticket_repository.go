package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/spec-kit/helpdesk/internal/domain"
)

// TicketFilter captures listing parameters after identity resolution.
// Mine holds the verified caller identity; MatchNone forces an empty
// result set (a "mine" request without a verified identity fails closed).
type TicketFilter struct {
	Search    string
	Status    *domain.TicketStatus
	Priority  *domain.TicketPriority
	Category  *domain.TicketCategory
	Assignee  string
	Mine      string
	MatchNone bool
	Limit     int
	Offset    int
}

// TicketRepository encapsulates ticket persistence.
type TicketRepository interface {
	Create(ctx context.Context, ticket *domain.Ticket) error
	Update(ctx context.Context, ticket *domain.Ticket) error
	Touch(ctx context.Context, id string) error
	GetByID(ctx context.Context, id string) (*domain.Ticket, error)
	List(ctx context.Context, filter TicketFilter) ([]domain.Ticket, error)
	Count(ctx context.Context, filter TicketFilter) (int, error)
	Delete(ctx context.Context, id string) error
	DeleteMany(ctx context.Context, ids []string) (int, error)
}

type ticketRepository struct {
	pool *pgxpool.Pool
}

// NewTicketRepository instantiates repository.
func NewTicketRepository(pool *pgxpool.Pool) TicketRepository {
	return &ticketRepository{pool: pool}
}

const ticketColumns = `id, title, description, priority, category, status,
       reporter_name, reporter_email, assignee, archived, archived_at, archived_by,
       audit, created_at, updated_at`

func (r *ticketRepository) Create(ctx context.Context, ticket *domain.Ticket) error {
	auditJSON, err := json.Marshal(ticket.Audit)
	if err != nil {
		return err
	}
	const query = `
        INSERT INTO tickets (title, description, priority, category, status, reporter_name, reporter_email, assignee, audit)
        VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9)
        RETURNING id, created_at, updated_at`
	return r.pool.QueryRow(ctx, query,
		ticket.Title,
		ticket.Description,
		ticket.Priority,
		ticket.Category,
		ticket.Status,
		ticket.ReporterName,
		ticket.ReporterEmail,
		ticket.Assignee,
		auditJSON,
	).Scan(&ticket.ID, &ticket.CreatedAt, &ticket.UpdatedAt)
}

func (r *ticketRepository) Update(ctx context.Context, ticket *domain.Ticket) error {
	auditJSON, err := json.Marshal(ticket.Audit)
	if err != nil {
		return err
	}
	const query = `
        UPDATE tickets SET description=$1, priority=$2, category=$3, status=$4, assignee=$5,
            archived=$6, archived_at=$7, archived_by=$8, audit=$9, updated_at=NOW()
        WHERE id=$10
        RETURNING updated_at`
	if err := r.pool.QueryRow(ctx, query,
		ticket.Description,
		ticket.Priority,
		ticket.Category,
		ticket.Status,
		ticket.Assignee,
		ticket.Archived,
		ticket.ArchivedAt,
		ticket.ArchivedBy,
		auditJSON,
		ticket.ID,
	).Scan(&ticket.UpdatedAt); err != nil {
		return err
	}
	return nil
}

// Touch advances updated_at without changing tracked fields. Comment writes
// use this: they move the ticket's activity clock but leave its audit alone.
func (r *ticketRepository) Touch(ctx context.Context, id string) error {
	cmd, err := r.pool.Exec(ctx, `UPDATE tickets SET updated_at=NOW() WHERE id=$1`, id)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func (r *ticketRepository) GetByID(ctx context.Context, id string) (*domain.Ticket, error) {
	query := `SELECT ` + ticketColumns + ` FROM tickets WHERE id=$1`
	row := r.pool.QueryRow(ctx, query, id)
	return scanTicket(row)
}

func (r *ticketRepository) List(ctx context.Context, filter TicketFilter) ([]domain.Ticket, error) {
	where, args := buildTicketWhere(filter)

	limit := filter.Limit
	if limit <= 0 {
		limit = 50
	}
	offset := filter.Offset
	if offset < 0 {
		offset = 0
	}

	query := fmt.Sprintf(`SELECT %s FROM tickets WHERE %s ORDER BY created_at DESC LIMIT %d OFFSET %d`,
		ticketColumns, where, limit, offset)

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanTickets(rows)
}

func (r *ticketRepository) Count(ctx context.Context, filter TicketFilter) (int, error) {
	where, args := buildTicketWhere(filter)
	query := `SELECT COUNT(*) FROM tickets WHERE ` + where

	var total int
	if err := r.pool.QueryRow(ctx, query, args...).Scan(&total); err != nil {
		return 0, err
	}
	return total, nil
}

func (r *ticketRepository) Delete(ctx context.Context, id string) error {
	cmd, err := r.pool.Exec(ctx, `DELETE FROM tickets WHERE id=$1`, id)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func (r *ticketRepository) DeleteMany(ctx context.Context, ids []string) (int, error) {
	if len(ids) == 0 {
		return 0, nil
	}
	cmd, err := r.pool.Exec(ctx, `DELETE FROM tickets WHERE id = ANY($1)`, ids)
	if err != nil {
		return 0, err
	}
	return int(cmd.RowsAffected()), nil
}

// buildTicketWhere composes the WHERE clause for listing and counting.
// All predicates combine with AND; only the free-text search ORs across
// its candidate fields.
func buildTicketWhere(filter TicketFilter) (string, []any) {
	clauses := []string{"1=1"}
	args := []any{}

	if filter.MatchNone {
		return "1=0", args
	}

	if search := strings.TrimSpace(filter.Search); search != "" {
		args = append(args, "%"+escapeLike(search)+"%")
		ph := fmt.Sprintf("$%d", len(args))
		clauses = append(clauses, fmt.Sprintf(
			"(title ILIKE %[1]s OR description ILIKE %[1]s OR reporter_name ILIKE %[1]s OR reporter_email ILIKE %[1]s OR assignee ILIKE %[1]s)", ph))
	}
	if filter.Status != nil {
		args = append(args, *filter.Status)
		clauses = append(clauses, fmt.Sprintf("status=$%d", len(args)))
	}
	if filter.Priority != nil {
		args = append(args, *filter.Priority)
		clauses = append(clauses, fmt.Sprintf("priority=$%d", len(args)))
	}
	if filter.Category != nil {
		args = append(args, *filter.Category)
		clauses = append(clauses, fmt.Sprintf("category=$%d", len(args)))
	}
	if filter.Mine != "" {
		args = append(args, strings.ToLower(filter.Mine))
		ph := fmt.Sprintf("$%d", len(args))
		clauses = append(clauses, fmt.Sprintf("(LOWER(assignee)=%[1]s OR LOWER(reporter_email)=%[1]s)", ph))
	} else if filter.Assignee != "" {
		args = append(args, strings.ToLower(filter.Assignee))
		clauses = append(clauses, fmt.Sprintf("LOWER(assignee)=$%d", len(args)))
	}

	return strings.Join(clauses, " AND "), args
}

// escapeLike quotes LIKE metacharacters so the search term matches as a
// literal substring.
func escapeLike(s string) string {
	return likeEscaper.Replace(s)
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

func scanTicket(row pgx.Row) (*domain.Ticket, error) {
	var ticket domain.Ticket
	var auditJSON []byte
	if err := row.Scan(
		&ticket.ID,
		&ticket.Title,
		&ticket.Description,
		&ticket.Priority,
		&ticket.Category,
		&ticket.Status,
		&ticket.ReporterName,
		&ticket.ReporterEmail,
		&ticket.Assignee,
		&ticket.Archived,
		&ticket.ArchivedAt,
		&ticket.ArchivedBy,
		&auditJSON,
		&ticket.CreatedAt,
		&ticket.UpdatedAt,
	); err != nil {
		return nil, err
	}
	if len(auditJSON) > 0 {
		if err := json.Unmarshal(auditJSON, &ticket.Audit); err != nil {
			return nil, err
		}
	}
	return &ticket, nil
}

func scanTickets(rows pgx.Rows) ([]domain.Ticket, error) {
	var result []domain.Ticket
	for rows.Next() {
		ticket, err := scanTicket(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, *ticket)
	}
	return result, rows.Err()
}
