package repository

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/trackdesk/trackdesk/internal/domain"
)

// TicketFilter captures field-equality query parameters. Nil pointers
// leave the field unconstrained.
type TicketFilter struct {
	ClientID     *string
	AssignedTo   *string
	ClientHeadID *string
	Statuses     []domain.TicketStatus
	Priorities   []domain.TicketPriority
	Limit        int
	Offset       int
}

// TicketRepository encapsulates ticket persistence.
type TicketRepository interface {
	Create(ctx context.Context, ticket *domain.Ticket) error
	GetByID(ctx context.Context, id string) (*domain.Ticket, error)
	ListWithFilter(ctx context.Context, filter TicketFilter) ([]domain.Ticket, error)
	SetAssignment(ctx context.Context, id, employeeID string, status domain.TicketStatus, at time.Time) error
	SetStatus(ctx context.Context, id string, status domain.TicketStatus, at time.Time) error
	AppendComment(ctx context.Context, id string, comment domain.Comment) error
}

type ticketRepository struct {
	collection *mongo.Collection
}

// NewTicketRepository instantiates repository.
func NewTicketRepository(db *mongo.Database) TicketRepository {
	return &ticketRepository{collection: db.Collection("tickets")}
}

func (r *ticketRepository) Create(ctx context.Context, ticket *domain.Ticket) error {
	_, err := r.collection.InsertOne(ctx, ticket)
	return err
}

func (r *ticketRepository) GetByID(ctx context.Context, id string) (*domain.Ticket, error) {
	var ticket domain.Ticket
	if err := r.collection.FindOne(ctx, bson.M{"_id": id}).Decode(&ticket); err != nil {
		return nil, err
	}
	return &ticket, nil
}

func (r *ticketRepository) ListWithFilter(ctx context.Context, filter TicketFilter) ([]domain.Ticket, error) {
	query := bson.M{}
	if filter.ClientID != nil {
		query["clientId"] = *filter.ClientID
	}
	if filter.AssignedTo != nil {
		query["assignedTo"] = *filter.AssignedTo
	}
	if filter.ClientHeadID != nil {
		query["clientHeadId"] = *filter.ClientHeadID
	}
	if len(filter.Statuses) > 0 {
		query["status"] = bson.M{"$in": filter.Statuses}
	}
	if len(filter.Priorities) > 0 {
		query["priority"] = bson.M{"$in": filter.Priorities}
	}

	limit := filter.Limit
	if limit <= 0 {
		limit = 20
	}
	offset := filter.Offset
	if offset < 0 {
		offset = 0
	}

	opts := options.Find().
		SetSort(bson.D{{Key: "createdAt", Value: -1}}).
		SetLimit(int64(limit)).
		SetSkip(int64(offset))

	cursor, err := r.collection.Find(ctx, query, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var tickets []domain.Ticket
	if err := cursor.All(ctx, &tickets); err != nil {
		return nil, err
	}
	return tickets, nil
}

// SetAssignment writes assignee and status in one partial update so the
// assign transition is never observed half-applied.
func (r *ticketRepository) SetAssignment(ctx context.Context, id, employeeID string, status domain.TicketStatus, at time.Time) error {
	return r.updateByID(ctx, id, bson.M{
		"assignedTo":  employeeID,
		"status":      status,
		"lastUpdated": at,
	})
}

func (r *ticketRepository) SetStatus(ctx context.Context, id string, status domain.TicketStatus, at time.Time) error {
	return r.updateByID(ctx, id, bson.M{
		"status":      status,
		"lastUpdated": at,
	})
}

// AppendComment pushes onto the embedded comment array atomically,
// avoiding the lost updates a read-modify-write append would allow.
func (r *ticketRepository) AppendComment(ctx context.Context, id string, comment domain.Comment) error {
	res, err := r.collection.UpdateByID(ctx, id, bson.M{
		"$push": bson.M{"comments": comment},
		"$set":  bson.M{"lastUpdated": comment.Timestamp},
	})
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return mongo.ErrNoDocuments
	}
	return nil
}

func (r *ticketRepository) updateByID(ctx context.Context, id string, fields bson.M) error {
	res, err := r.collection.UpdateByID(ctx, id, bson.M{"$set": fields})
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return mongo.ErrNoDocuments
	}
	return nil
}
