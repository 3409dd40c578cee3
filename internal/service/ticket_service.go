package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/trackdesk/trackdesk/internal/domain"
	"github.com/trackdesk/trackdesk/internal/events"
	"github.com/trackdesk/trackdesk/internal/repository"
	apperrors "github.com/trackdesk/trackdesk/pkg/util"
)

// TicketService coordinates the ticket lifecycle: creation, role-scoped
// queries, assignment, status transitions, and comments.
type TicketService struct {
	tickets    repository.TicketRepository
	users      repository.UserRepository
	dispatcher events.Dispatcher
}

// TicketDependencies bundles repositories for ticket service.
type TicketDependencies struct {
	TicketRepo repository.TicketRepository
	UserRepo   repository.UserRepository
	Dispatcher events.Dispatcher
}

// TicketCreateInput describes ticket creation payload.
type TicketCreateInput struct {
	Title        string
	Description  string
	Priority     domain.TicketPriority
	ClientHeadID string
}

// TicketListFilter describes optional listing filters on top of the
// caller's role scope.
type TicketListFilter struct {
	Statuses   []domain.TicketStatus
	Priorities []domain.TicketPriority
	Limit      int
	Offset     int
}

// NewTicketService constructs the service.
func NewTicketService(deps TicketDependencies) *TicketService {
	return &TicketService{
		tickets:    deps.TicketRepo,
		users:      deps.UserRepo,
		dispatcher: deps.Dispatcher,
	}
}

// Create opens a new ticket for a client. Status starts open with no
// assignee; the client name is denormalized onto the document.
func (s *TicketService) Create(ctx context.Context, actor *domain.User, input TicketCreateInput) (*domain.Ticket, error) {
	if actor == nil {
		return nil, apperrors.NewUnauthorized("authentication required")
	}
	if actor.Role != domain.RoleClient {
		return nil, apperrors.NewForbidden("only clients create tickets")
	}

	title := strings.TrimSpace(input.Title)
	description := strings.TrimSpace(input.Description)
	if title == "" || description == "" {
		return nil, apperrors.NewValidationError("title and description are required", nil)
	}

	priority := input.Priority
	if priority == "" {
		priority = domain.TicketPriorityMedium
	}
	if !priority.IsValid() {
		return nil, apperrors.NewValidationError("invalid priority", map[string]any{"priority": string(priority)})
	}

	now := time.Now().UTC()
	ticket := &domain.Ticket{
		ID:           uuid.NewString(),
		Title:        title,
		Description:  description,
		Priority:     priority,
		Status:       domain.TicketStatusOpen,
		ClientID:     actor.ID,
		ClientName:   actor.Name,
		ClientHeadID: input.ClientHeadID,
		AssignedTo:   nil,
		Comments:     []domain.Comment{},
		CreatedAt:    now,
		LastUpdated:  now,
	}

	if err := s.tickets.Create(ctx, ticket); err != nil {
		return nil, apperrors.MapError(err)
	}

	s.publishEvent(ctx, events.Event{
		Type:     events.EventTicketCreated,
		TicketID: ticket.ID,
		Actor:    events.Actor{UserID: actor.ID, Role: actor.Role},
		Payload: events.TicketCreatedPayload{
			Title:    ticket.Title,
			Priority: ticket.Priority,
			ClientID: ticket.ClientID,
		},
	})
	return ticket, nil
}

// List returns tickets visible to the actor's role: clients see their
// own, employees their assignments, client heads their oversight scope,
// project managers everything. Admins manage users, not tickets.
func (s *TicketService) List(ctx context.Context, actor *domain.User, filter TicketListFilter) ([]domain.Ticket, error) {
	if actor == nil {
		return nil, apperrors.NewUnauthorized("authentication required")
	}

	repoFilter := repository.TicketFilter{
		Statuses:   filter.Statuses,
		Priorities: filter.Priorities,
		Limit:      filter.Limit,
		Offset:     filter.Offset,
	}

	switch actor.Role {
	case domain.RoleClient:
		repoFilter.ClientID = &actor.ID
	case domain.RoleEmployee:
		repoFilter.AssignedTo = &actor.ID
	case domain.RoleClientHead:
		repoFilter.ClientHeadID = &actor.ID
	case domain.RoleProjectManager:
		// unrestricted
	default:
		return nil, apperrors.NewForbidden("role has no ticket dashboard")
	}

	tickets, err := s.tickets.ListWithFilter(ctx, repoFilter)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	return tickets, nil
}

// Get fetches a single ticket the actor is allowed to see.
func (s *TicketService) Get(ctx context.Context, actor *domain.User, ticketID string) (*domain.Ticket, error) {
	if actor == nil {
		return nil, apperrors.NewUnauthorized("authentication required")
	}
	ticket, err := s.getTicket(ctx, ticketID)
	if err != nil {
		return nil, err
	}
	if !canView(actor, ticket) {
		return nil, apperrors.NewForbidden("access denied")
	}
	return ticket, nil
}

// Assign sets an employee on an open ticket and forces the status to
// in-progress. Project managers only; a ticket is assigned exactly once.
func (s *TicketService) Assign(ctx context.Context, actor *domain.User, ticketID, employeeID string) (*domain.Ticket, error) {
	if actor == nil {
		return nil, apperrors.NewUnauthorized("authentication required")
	}
	if actor.Role != domain.RoleProjectManager {
		return nil, apperrors.NewForbidden("only project managers assign tickets")
	}

	employee, err := s.users.GetByID(ctx, employeeID)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, apperrors.NewNotFound("employee", map[string]any{"employee_id": employeeID})
		}
		return nil, apperrors.MapError(err)
	}
	if employee.Role != domain.RoleEmployee {
		return nil, apperrors.NewValidationError("assignee must have the employee role", map[string]any{"role": string(employee.Role)})
	}

	ticket, err := s.getTicket(ctx, ticketID)
	if err != nil {
		return nil, err
	}
	if err := ticket.Assign(employee.ID); err != nil {
		if errors.Is(err, domain.ErrAlreadyAssigned) {
			return nil, apperrors.NewAlreadyAssigned(ticket.ID)
		}
		return nil, apperrors.MapError(err)
	}

	ticket.LastUpdated = time.Now().UTC()
	if err := s.tickets.SetAssignment(ctx, ticket.ID, employee.ID, ticket.Status, ticket.LastUpdated); err != nil {
		return nil, apperrors.MapError(err)
	}

	s.publishEvent(ctx, events.Event{
		Type:     events.EventTicketAssigned,
		TicketID: ticket.ID,
		Actor:    events.Actor{UserID: actor.ID, Role: actor.Role},
		Payload:  events.TicketAssignedPayload{AssignedTo: employee.ID},
	})
	return ticket, nil
}

// SetStatus moves a ticket to any of the four states. Allowed actors
// are the assigned employee and the overseeing client head; the system
// imposes no ordering between states.
func (s *TicketService) SetStatus(ctx context.Context, actor *domain.User, ticketID string, newStatus domain.TicketStatus) (*domain.Ticket, error) {
	if actor == nil {
		return nil, apperrors.NewUnauthorized("authentication required")
	}
	if !newStatus.IsValid() {
		return nil, apperrors.NewValidationError("invalid ticket status", map[string]any{"status": string(newStatus)})
	}

	ticket, err := s.getTicket(ctx, ticketID)
	if err != nil {
		return nil, err
	}
	if !canSetStatus(actor, ticket) {
		return nil, apperrors.NewForbidden("not permitted to change this ticket's status")
	}

	oldStatus := ticket.Status
	ticket.Status = newStatus
	ticket.LastUpdated = time.Now().UTC()
	if err := s.tickets.SetStatus(ctx, ticket.ID, newStatus, ticket.LastUpdated); err != nil {
		return nil, apperrors.MapError(err)
	}

	s.publishEvent(ctx, events.Event{
		Type:     events.EventTicketStatusChanged,
		TicketID: ticket.ID,
		Actor:    events.Actor{UserID: actor.ID, Role: actor.Role},
		Payload: events.TicketStatusChangedPayload{
			OldStatus: oldStatus,
			NewStatus: newStatus,
		},
	})
	return ticket, nil
}

// AddComment appends an immutable comment to the ticket's thread.
// The assigned employee only; authorship is always the acting identity.
func (s *TicketService) AddComment(ctx context.Context, actor *domain.User, ticketID, text string) (*domain.Comment, error) {
	if actor == nil {
		return nil, apperrors.NewUnauthorized("authentication required")
	}
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, apperrors.NewValidationError("comment text is required", nil)
	}

	ticket, err := s.getTicket(ctx, ticketID)
	if err != nil {
		return nil, err
	}
	if actor.Role != domain.RoleEmployee || !ticket.IsAssignedTo(actor.ID) {
		return nil, apperrors.NewForbidden("only the assigned employee comments on a ticket")
	}

	comment := domain.Comment{
		Text:      text,
		UserID:    actor.ID,
		UserName:  actor.Name,
		Timestamp: time.Now().UTC(),
	}
	if err := s.tickets.AppendComment(ctx, ticket.ID, comment); err != nil {
		return nil, apperrors.MapError(err)
	}

	s.publishEvent(ctx, events.Event{
		Type:     events.EventTicketCommentAdded,
		TicketID: ticket.ID,
		Actor:    events.Actor{UserID: actor.ID, Role: actor.Role},
		Payload: events.TicketCommentAddedPayload{
			AuthorID:    actor.ID,
			BodyPreview: stringPreview(text, 80),
		},
	})
	return &comment, nil
}

func (s *TicketService) getTicket(ctx context.Context, ticketID string) (*domain.Ticket, error) {
	ticket, err := s.tickets.GetByID(ctx, ticketID)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, apperrors.NewNotFound("ticket", map[string]any{"ticket_id": ticketID})
		}
		return nil, apperrors.MapError(err)
	}
	return ticket, nil
}

func canView(actor *domain.User, ticket *domain.Ticket) bool {
	switch actor.Role {
	case domain.RoleProjectManager:
		return true
	case domain.RoleClient:
		return ticket.ClientID == actor.ID
	case domain.RoleEmployee:
		return ticket.IsAssignedTo(actor.ID)
	case domain.RoleClientHead:
		return ticket.OverseenBy(actor.ID)
	}
	return false
}

func canSetStatus(actor *domain.User, ticket *domain.Ticket) bool {
	switch actor.Role {
	case domain.RoleEmployee:
		return ticket.IsAssignedTo(actor.ID)
	case domain.RoleClientHead:
		return ticket.OverseenBy(actor.ID)
	}
	return false
}

func stringPreview(body string, max int) string {
	body = strings.TrimSpace(body)
	if len(body) <= max {
		return body
	}
	if max <= 3 {
		return body[:max]
	}
	return body[:max-3] + "..."
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
	_ = s.dispatcher.Publish(ctx, event)
}
