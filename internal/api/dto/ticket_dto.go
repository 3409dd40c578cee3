package dto

import (
	"time"

	"github.com/trackdesk/trackdesk/internal/domain"
)

// CreateTicketRequest payload.
type CreateTicketRequest struct {
	Title        string `json:"title" validate:"required"`
	Description  string `json:"description" validate:"required"`
	Priority     string `json:"priority" validate:"omitempty,oneof=low medium high"`
	ClientHeadID string `json:"client_head_id" validate:"omitempty"`
}

// AssignTicketRequest payload.
type AssignTicketRequest struct {
	EmployeeID string `json:"employee_id" validate:"required"`
}

// SetStatusRequest payload.
type SetStatusRequest struct {
	Status string `json:"status" validate:"required,oneof=open in-progress resolved closed"`
}

// AddCommentRequest payload.
type AddCommentRequest struct {
	Text string `json:"text" validate:"required"`
}

// CommentResponse represents a thread entry.
type CommentResponse struct {
	Text      string    `json:"text"`
	UserID    string    `json:"user_id"`
	UserName  string    `json:"user_name"`
	Timestamp time.Time `json:"timestamp"`
}

// TicketResponse provides full ticket info.
type TicketResponse struct {
	ID           string                `json:"id"`
	Title        string                `json:"title"`
	Description  string                `json:"description"`
	Priority     domain.TicketPriority `json:"priority"`
	Status       domain.TicketStatus   `json:"status"`
	ClientID     string                `json:"client_id"`
	ClientName   string                `json:"client_name"`
	ClientHeadID string                `json:"client_head_id,omitempty"`
	AssignedTo   *string               `json:"assigned_to"`
	Comments     []CommentResponse     `json:"comments"`
	CreatedAt    time.Time             `json:"created_at"`
	LastUpdated  time.Time             `json:"last_updated"`
}

// NewTicketResponse maps the domain ticket.
func NewTicketResponse(ticket *domain.Ticket) TicketResponse {
	comments := make([]CommentResponse, 0, len(ticket.Comments))
	for _, c := range ticket.Comments {
		comments = append(comments, CommentResponse{
			Text:      c.Text,
			UserID:    c.UserID,
			UserName:  c.UserName,
			Timestamp: c.Timestamp,
		})
	}
	return TicketResponse{
		ID:           ticket.ID,
		Title:        ticket.Title,
		Description:  ticket.Description,
		Priority:     ticket.Priority,
		Status:       ticket.Status,
		ClientID:     ticket.ClientID,
		ClientName:   ticket.ClientName,
		ClientHeadID: ticket.ClientHeadID,
		AssignedTo:   ticket.AssignedTo,
		Comments:     comments,
		CreatedAt:    ticket.CreatedAt,
		LastUpdated:  ticket.LastUpdated,
	}
}
