package handlers

import (
	"net/http"
	"strconv"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/helpdesk/internal/api/dto"
	"github.com/spec-kit/helpdesk/internal/auth"
	"github.com/spec-kit/helpdesk/internal/domain"
	"github.com/spec-kit/helpdesk/internal/service"
	apperrors "github.com/spec-kit/helpdesk/pkg/util"
)

// TicketsHandler manages ticket endpoints.
type TicketsHandler struct {
	service *service.TicketService
}

// NewTicketsHandler constructs handler.
func NewTicketsHandler(ticketService *service.TicketService) *TicketsHandler {
	return &TicketsHandler{service: ticketService}
}

// ListTickets GET /tickets.
func (h *TicketsHandler) ListTickets(c *fiber.Ctx) error {
	principal, _ := auth.PrincipalFromContext(c)

	input := service.TicketListInput{
		Query:    c.Query("q"),
		Status:   c.Query("status"),
		Priority: c.Query("priority"),
		Category: c.Query("category"),
		Assignee: c.Query("assignee"),
		Mine:     c.Query("mine") == "1",
		Page:     parseIntQuery(c.Query("page"), 1),
		PageSize: parseIntQuery(c.Query("pageSize"), 0),
	}

	page, err := h.service.ListTickets(c.Context(), principal, input)
	if err != nil {
		return err
	}

	items := make([]dto.TicketResponse, 0, len(page.Tickets))
	for i := range page.Tickets {
		items = append(items, dto.NewTicketResponse(&page.Tickets[i]))
	}

	setNoStore(c)
	return c.JSON(dto.TicketListResponse{
		Data:     items,
		Total:    page.Total,
		Page:     page.Page,
		PageSize: page.PageSize,
	})
}

// CreateTicket POST /tickets.
func (h *TicketsHandler) CreateTicket(c *fiber.Ctx) error {
	var req dto.CreateTicketRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}

	ticket, err := h.service.CreateTicket(c.Context(), service.TicketCreateInput{
		Title:         req.Title,
		Description:   req.Description,
		ReporterName:  req.ReporterName,
		ReporterEmail: req.ReporterEmail,
		Priority:      domain.TicketPriority(req.Priority),
		Category:      domain.TicketCategory(req.Category),
	})
	if err != nil {
		return err
	}

	setNoStore(c)
	return c.Status(http.StatusCreated).JSON(fiber.Map{"data": dto.NewTicketResponse(ticket)})
}

// GetTicket GET /tickets/:id.
func (h *TicketsHandler) GetTicket(c *fiber.Ctx) error {
	ticket, err := h.service.GetTicket(c.Context(), c.Params("id"))
	if err != nil {
		return err
	}
	setNoStore(c)
	return c.JSON(fiber.Map{"data": dto.NewTicketResponse(ticket)})
}

// UpdateTicket PATCH /tickets/:id.
func (h *TicketsHandler) UpdateTicket(c *fiber.Ctx) error {
	principal, _ := auth.PrincipalFromContext(c)

	patch, err := dto.ParseTicketPatch(c.Body())
	if err != nil {
		return err
	}

	ticket, err := h.service.UpdateTicket(c.Context(), principal, c.Params("id"), patch)
	if err != nil {
		return err
	}

	setNoStore(c)
	return c.JSON(fiber.Map{"data": dto.NewTicketResponse(ticket)})
}

// DeleteTicket DELETE /tickets/:id.
func (h *TicketsHandler) DeleteTicket(c *fiber.Ctx) error {
	principal, _ := auth.PrincipalFromContext(c)

	id := c.Params("id")
	if err := h.service.DeleteTicket(c.Context(), principal, id); err != nil {
		return err
	}
	setNoStore(c)
	return c.JSON(fiber.Map{"data": fiber.Map{"id": id}})
}

// BulkDelete POST /tickets/bulk-delete.
func (h *TicketsHandler) BulkDelete(c *fiber.Ctx) error {
	principal, _ := auth.PrincipalFromContext(c)

	var req dto.BulkDeleteRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}

	deleted, err := h.service.BulkDeleteTickets(c.Context(), principal, req.IDs)
	if err != nil {
		return err
	}
	setNoStore(c)
	return c.JSON(fiber.Map{"deleted": deleted})
}

func parseIntQuery(val string, def int) int {
	if val == "" {
		return def
	}
	parsed, err := strconv.Atoi(val)
	if err != nil {
		return def
	}
	return parsed
}

// setNoStore marks the response non-cacheable. Ticket state changes
// frequently; clients must always see the latest write.
func setNoStore(c *fiber.Ctx) {
	c.Set(fiber.HeaderCacheControl, "no-store, no-cache, must-revalidate, max-age=0")
	c.Set("Pragma", "no-cache")
}
