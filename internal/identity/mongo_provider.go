package identity

import (
	"context"
	"errors"
	"net/mail"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"golang.org/x/crypto/bcrypt"
)

const minPasswordLength = 6

// credential is the stored credential document.
type credential struct {
	ID           string    `bson:"_id"`
	Email        string    `bson:"email"`
	PasswordHash string    `bson:"passwordHash"`
	CreatedAt    time.Time `bson:"createdAt"`
}

// MongoProvider implements Provider on a credentials collection.
type MongoProvider struct {
	credentials *mongo.Collection
	mailer      Mailer
	bcryptCost  int
}

// NewMongoProvider constructs the default identity provider.
func NewMongoProvider(db *mongo.Database, mailer Mailer, bcryptCost int) *MongoProvider {
	if bcryptCost <= 0 {
		bcryptCost = bcrypt.DefaultCost
	}
	return &MongoProvider{
		credentials: db.Collection("credentials"),
		mailer:      mailer,
		bcryptCost:  bcryptCost,
	}
}

// CreateCredential registers an email/password pair and returns the new
// identity identifier.
func (p *MongoProvider) CreateCredential(ctx context.Context, email, password string) (string, error) {
	email = normalizeEmail(email)
	if !validEmail(email) {
		return "", ErrInvalidEmail
	}
	if len(password) < minPasswordLength {
		return "", ErrWeakPassword
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), p.bcryptCost)
	if err != nil {
		return "", err
	}

	cred := credential{
		ID:           uuid.NewString(),
		Email:        email,
		PasswordHash: string(hash),
		CreatedAt:    time.Now().UTC(),
	}
	if _, err := p.credentials.InsertOne(ctx, cred); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return "", ErrEmailInUse
		}
		return "", err
	}
	return cred.ID, nil
}

// VerifyCredential checks a login attempt against the stored hash.
func (p *MongoProvider) VerifyCredential(ctx context.Context, email, password string) (string, error) {
	email = normalizeEmail(email)
	if !validEmail(email) {
		return "", ErrInvalidEmail
	}

	var cred credential
	if err := p.credentials.FindOne(ctx, bson.M{"email": email}).Decode(&cred); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return "", ErrNotFound
		}
		return "", err
	}
	if err := bcrypt.CompareHashAndPassword([]byte(cred.PasswordHash), []byte(password)); err != nil {
		return "", ErrWrongPassword
	}
	return cred.ID, nil
}

// SendResetEmail delivers the out-of-band reset email for a known
// credential.
func (p *MongoProvider) SendResetEmail(ctx context.Context, email string) error {
	email = normalizeEmail(email)

	var cred credential
	if err := p.credentials.FindOne(ctx, bson.M{"email": email}).Decode(&cred); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return ErrNotFound
		}
		return err
	}
	return p.mailer.SendPasswordReset(ctx, cred.Email)
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func validEmail(email string) bool {
	if email == "" {
		return false
	}
	_, err := mail.ParseAddress(email)
	return err == nil
}
