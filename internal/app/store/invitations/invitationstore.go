// internal/app/store/invitations/invitationstore.go
package invitationstore

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"time"

	"github.com/dalemusser/taskhub/internal/app/system/normalize"
	"github.com/dalemusser/taskhub/internal/domain/models"
	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"golang.org/x/crypto/bcrypt"
)

const (
	// DefaultExpiry is how long an invitation stays acceptable.
	DefaultExpiry = 7 * 24 * time.Hour
	// TokenLength is the token size in bytes (64 hex chars).
	TokenLength = 32
	// BcryptCost for hashing tokens.
	BcryptCost = 10
)

var (
	ErrNotFound     = errors.New("invitation not found")
	ErrExpired      = errors.New("invitation has expired")
	ErrNotPending   = errors.New("invitation is no longer pending")
	ErrInvalidToken = errors.New("invalid invitation token")
)

type Store struct {
	c      *mongo.Collection
	expiry time.Duration
}

// New creates a Store. A non-positive expiry means DefaultExpiry.
func New(db *mongo.Database, expiry time.Duration) *Store {
	if expiry <= 0 {
		expiry = DefaultExpiry
	}
	return &Store{c: db.Collection("invitations"), expiry: expiry}
}

func (s *Store) EnsureIndexes(ctx context.Context) error {
	_, err := s.c.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "workspace_id", Value: 1}, {Key: "status", Value: 1}},
			Options: options.Index().SetName("idx_invitation_workspace"),
		},
		{
			Keys:    bson.D{{Key: "email", Value: 1}},
			Options: options.Index().SetName("idx_invitation_email"),
		},
	})
	return err
}

// Create issues a new invitation and returns it with its plain token.
// Any pending invitation for the same address in the workspace is revoked.
func (s *Store) Create(ctx context.Context, workspaceID, email, inviterID string) (models.Invitation, string, error) {
	email = normalize.Email(email)
	token, err := generateToken()
	if err != nil {
		return models.Invitation{}, "", err
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(token), BcryptCost)
	if err != nil {
		return models.Invitation{}, "", fmt.Errorf("hash token: %w", err)
	}

	if _, err := s.c.UpdateMany(ctx,
		bson.M{"workspace_id": workspaceID, "email": email, "status": models.InvitationPending},
		bson.M{"$set": bson.M{"status": models.InvitationRevoked}},
	); err != nil {
		return models.Invitation{}, "", err
	}

	now := time.Now().UTC()
	inv := models.Invitation{
		ID:          uuid.NewString(),
		WorkspaceID: workspaceID,
		Email:       email,
		InviterID:   inviterID,
		TokenHash:   string(hash),
		Status:      models.InvitationPending,
		ExpiresAt:   now.Add(s.expiry),
		CreatedAt:   now,
	}
	if _, err := s.c.InsertOne(ctx, inv); err != nil {
		return models.Invitation{}, "", err
	}
	return inv, token, nil
}

func (s *Store) Get(ctx context.Context, id string) (models.Invitation, error) {
	var inv models.Invitation
	err := s.c.FindOne(ctx, bson.M{"_id": id}).Decode(&inv)
	if err == mongo.ErrNoDocuments {
		return models.Invitation{}, ErrNotFound
	}
	return inv, err
}

// Check reports why inv cannot be accepted with token at now, or nil.
func Check(inv models.Invitation, token string, now time.Time) error {
	if inv.Status != models.InvitationPending {
		return ErrNotPending
	}
	if bcrypt.CompareHashAndPassword([]byte(inv.TokenHash), []byte(token)) != nil {
		return ErrInvalidToken
	}
	if !now.Before(inv.ExpiresAt) {
		return ErrExpired
	}
	return nil
}

// MarkAccepted moves a pending invitation to accepted. Only one caller can
// win; the others get ErrNotPending.
func (s *Store) MarkAccepted(ctx context.Context, id, userID string) error {
	now := time.Now().UTC()
	res, err := s.c.UpdateOne(ctx,
		bson.M{"_id": id, "status": models.InvitationPending},
		bson.M{"$set": bson.M{"status": models.InvitationAccepted, "accepted_by": userID, "accepted_at": now}},
	)
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return ErrNotPending
	}
	return nil
}

// ListPending returns a workspace's pending invitations, newest first.
func (s *Store) ListPending(ctx context.Context, workspaceID string) ([]models.Invitation, error) {
	cur, err := s.c.Find(ctx,
		bson.M{"workspace_id": workspaceID, "status": models.InvitationPending},
		options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}}),
	)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	out := []models.Invitation{}
	if err := cur.All(ctx, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// PurgeExpired deletes invitations that can no longer be accepted: pending
// ones past their expiry and revoked ones expired before the cutoff.
// Accepted invitations are kept as a record of who joined.
func (s *Store) PurgeExpired(ctx context.Context, cutoff time.Time) (int64, error) {
	res, err := s.c.DeleteMany(ctx, bson.M{
		"status":     bson.M{"$in": bson.A{models.InvitationPending, models.InvitationRevoked}},
		"expires_at": bson.M{"$lt": cutoff.UTC()},
	})
	if err != nil {
		return 0, err
	}
	return res.DeletedCount, nil
}

func generateToken() (string, error) {
	b := make([]byte, TokenLength)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return hex.EncodeToString(b), nil
}
