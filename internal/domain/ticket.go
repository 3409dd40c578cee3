package domain

import (
	"errors"
	"fmt"
	"time"
)

// TicketStatus enumerates lifecycle states for tickets.
type TicketStatus string

const (
	TicketStatusOpen       TicketStatus = "open"
	TicketStatusInProgress TicketStatus = "in-progress"
	TicketStatusResolved   TicketStatus = "resolved"
	TicketStatusClosed     TicketStatus = "closed"
)

// TicketPriority enumerates urgency levels.
type TicketPriority string

const (
	TicketPriorityLow    TicketPriority = "low"
	TicketPriorityMedium TicketPriority = "medium"
	TicketPriorityHigh   TicketPriority = "high"
)

// ErrAlreadyAssigned is returned when assigning a ticket that already
// has an assignee.
var ErrAlreadyAssigned = errors.New("ticket already assigned")

// IsValid reports whether the status is one of the four known values.
func (s TicketStatus) IsValid() bool {
	switch s {
	case TicketStatusOpen, TicketStatusInProgress, TicketStatusResolved, TicketStatusClosed:
		return true
	}
	return false
}

// ParseTicketStatus validates a raw status string.
func ParseTicketStatus(raw string) (TicketStatus, error) {
	status := TicketStatus(raw)
	if !status.IsValid() {
		return "", fmt.Errorf("invalid ticket status: %s", raw)
	}
	return status, nil
}

// IsValid reports whether the priority is a known value.
func (p TicketPriority) IsValid() bool {
	switch p {
	case TicketPriorityLow, TicketPriorityMedium, TicketPriorityHigh:
		return true
	}
	return false
}

// ParseTicketPriority validates a raw priority string.
func ParseTicketPriority(raw string) (TicketPriority, error) {
	priority := TicketPriority(raw)
	if !priority.IsValid() {
		return "", fmt.Errorf("invalid ticket priority: %s", raw)
	}
	return priority, nil
}

// Comment is an immutable entry in a ticket's comment thread.
// Author name is denormalized at write time.
type Comment struct {
	Text      string    `bson:"text" json:"text"`
	UserID    string    `bson:"userId" json:"user_id"`
	UserName  string    `bson:"userName" json:"user_name"`
	Timestamp time.Time `bson:"timestamp" json:"timestamp"`
}

// Ticket is the aggregate for support requests. Comments are embedded
// in the document, ordered by insertion.
type Ticket struct {
	ID           string         `bson:"_id" json:"id"`
	Title        string         `bson:"title" json:"title"`
	Description  string         `bson:"description" json:"description"`
	Priority     TicketPriority `bson:"priority" json:"priority"`
	Status       TicketStatus   `bson:"status" json:"status"`
	ClientID     string         `bson:"clientId" json:"client_id"`
	ClientName   string         `bson:"clientName" json:"client_name"`
	ClientHeadID string         `bson:"clientHeadId,omitempty" json:"client_head_id,omitempty"`
	AssignedTo   *string        `bson:"assignedTo" json:"assigned_to"`
	Comments     []Comment      `bson:"comments" json:"comments"`
	CreatedAt    time.Time      `bson:"createdAt" json:"created_at"`
	LastUpdated  time.Time      `bson:"lastUpdated" json:"last_updated"`
}

// Assign records an assignee and forces the status to in-progress.
// Assignment is the explicit transition out of the unassigned state;
// a ticket can be assigned exactly once.
func (t *Ticket) Assign(employeeID string) error {
	if t.AssignedTo != nil {
		return ErrAlreadyAssigned
	}
	t.AssignedTo = &employeeID
	t.Status = TicketStatusInProgress
	return nil
}

// IsAssignedTo reports whether the given user is the current assignee.
func (t *Ticket) IsAssignedTo(userID string) bool {
	return t.AssignedTo != nil && *t.AssignedTo == userID
}

// OverseenBy reports whether the given client head has oversight of
// this ticket.
func (t *Ticket) OverseenBy(clientHeadID string) bool {
	return t.ClientHeadID != "" && t.ClientHeadID == clientHeadID
}
