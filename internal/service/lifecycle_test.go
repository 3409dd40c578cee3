package service_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/trackdesk/trackdesk/internal/domain"
	"github.com/trackdesk/trackdesk/internal/repository"
	"github.com/trackdesk/trackdesk/internal/service"
)

// fakeTicketRepo is an in-memory repository.TicketRepository. Comment
// appends mutate stored state only, mirroring the atomic push the Mongo
// implementation performs.
type fakeTicketRepo struct {
	mu      sync.Mutex
	tickets map[string]domain.Ticket
}

func newFakeTicketRepo() *fakeTicketRepo {
	return &fakeTicketRepo{tickets: map[string]domain.Ticket{}}
}

func (r *fakeTicketRepo) Create(_ context.Context, ticket *domain.Ticket) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.tickets[ticket.ID] = *ticket
	return nil
}

func (r *fakeTicketRepo) GetByID(_ context.Context, id string) (*domain.Ticket, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	ticket, ok := r.tickets[id]
	if !ok {
		return nil, mongo.ErrNoDocuments
	}
	copied := ticket
	copied.Comments = append([]domain.Comment(nil), ticket.Comments...)
	return &copied, nil
}

func (r *fakeTicketRepo) ListWithFilter(_ context.Context, filter repository.TicketFilter) ([]domain.Ticket, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []domain.Ticket
	for _, ticket := range r.tickets {
		if filter.ClientID != nil && ticket.ClientID != *filter.ClientID {
			continue
		}
		if filter.AssignedTo != nil && !ticket.IsAssignedTo(*filter.AssignedTo) {
			continue
		}
		if filter.ClientHeadID != nil && ticket.ClientHeadID != *filter.ClientHeadID {
			continue
		}
		out = append(out, ticket)
	}
	return out, nil
}

func (r *fakeTicketRepo) SetAssignment(_ context.Context, id, employeeID string, status domain.TicketStatus, at time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	ticket, ok := r.tickets[id]
	if !ok {
		return mongo.ErrNoDocuments
	}
	ticket.AssignedTo = &employeeID
	ticket.Status = status
	ticket.LastUpdated = at
	r.tickets[id] = ticket
	return nil
}

func (r *fakeTicketRepo) SetStatus(_ context.Context, id string, status domain.TicketStatus, at time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	ticket, ok := r.tickets[id]
	if !ok {
		return mongo.ErrNoDocuments
	}
	ticket.Status = status
	ticket.LastUpdated = at
	r.tickets[id] = ticket
	return nil
}

func (r *fakeTicketRepo) AppendComment(_ context.Context, id string, comment domain.Comment) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	ticket, ok := r.tickets[id]
	if !ok {
		return mongo.ErrNoDocuments
	}
	ticket.Comments = append(ticket.Comments, comment)
	ticket.LastUpdated = comment.Timestamp
	r.tickets[id] = ticket
	return nil
}

// TestTicketLifecycle walks a ticket through the full flow: a client
// files it, a project manager assigns it, the assigned employee comments
// and resolves it, and the client still sees the result.
func TestTicketLifecycle(t *testing.T) {
	ctx := context.Background()
	tickets := newFakeTicketRepo()
	users := newFakeUserRepo()
	require.NoError(t, users.Create(ctx, bob))

	svc := service.NewTicketService(service.TicketDependencies{
		TicketRepo: tickets,
		UserRepo:   users,
	})

	created, err := svc.Create(ctx, alice, service.TicketCreateInput{
		Title:        "Printer broken",
		Description:  "The office printer does not print.",
		ClientHeadID: head.ID,
	})
	require.NoError(t, err)
	assert.Equal(t, domain.TicketStatusOpen, created.Status)
	assert.Nil(t, created.AssignedTo)

	// unassigned: bob's dashboard is empty, alice sees her ticket
	mine, err := svc.List(ctx, bob, service.TicketListFilter{})
	require.NoError(t, err)
	assert.Empty(t, mine)
	mine, err = svc.List(ctx, alice, service.TicketListFilter{})
	require.NoError(t, err)
	require.Len(t, mine, 1)

	assigned, err := svc.Assign(ctx, pm, created.ID, bob.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.TicketStatusInProgress, assigned.Status)
	require.NotNil(t, assigned.AssignedTo)
	assert.Equal(t, bob.ID, *assigned.AssignedTo)

	// second assignment attempt is rejected and changes nothing
	_, err = svc.Assign(ctx, pm, created.ID, bob.ID)
	assertCode(t, err, "ALREADY_ASSIGNED")
	current, err := svc.Get(ctx, pm, created.ID)
	require.NoError(t, err)
	assert.Equal(t, bob.ID, *current.AssignedTo)
	assert.Equal(t, domain.TicketStatusInProgress, current.Status)

	comment, err := svc.AddComment(ctx, bob, created.ID, "Replaced the toner cartridge.")
	require.NoError(t, err)
	assert.Equal(t, bob.ID, comment.UserID)

	resolved, err := svc.SetStatus(ctx, bob, created.ID, domain.TicketStatusResolved)
	require.NoError(t, err)
	assert.Equal(t, domain.TicketStatusResolved, resolved.Status)

	// the overseeing client head closes it
	closed, err := svc.SetStatus(ctx, head, created.ID, domain.TicketStatusClosed)
	require.NoError(t, err)
	assert.Equal(t, domain.TicketStatusClosed, closed.Status)

	final, err := svc.Get(ctx, alice, created.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.TicketStatusClosed, final.Status)
	require.Len(t, final.Comments, 1)
	assert.Equal(t, "Replaced the toner cartridge.", final.Comments[0].Text)
	assert.False(t, final.LastUpdated.Before(final.CreatedAt))
}
