package mongo

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/tradedesk/dashboard/internal/core/domain"
	"github.com/tradedesk/dashboard/internal/core/ports"
)

const authCollection = "auth_users"

// AuthRepository stores the accounts of the local identity provider.
type AuthRepository struct {
	coll *mongo.Collection
}

func NewAuthRepository(db *mongo.Database) *AuthRepository {
	return &AuthRepository{coll: db.Collection(authCollection)}
}

var _ ports.AuthRepository = (*AuthRepository)(nil)

type mongoUser struct {
	ID           primitive.ObjectID `bson:"_id,omitempty"`
	Email        string             `bson:"email"`
	PasswordHash string             `bson:"password_hash"`
	Metadata     bson.M             `bson:"user_metadata,omitempty"`
	CreatedAt    int64              `bson:"created_at"`
	LastSignInAt int64              `bson:"last_sign_in_at,omitempty"`
}

func (mu *mongoUser) toAccount() *ports.StoredAccount {
	u := domain.User{
		ID:        mu.ID.Hex(),
		Email:     mu.Email,
		Metadata:  map[string]any(mu.Metadata),
		CreatedAt: unixToTime(mu.CreatedAt),
	}
	if mu.LastSignInAt != 0 {
		t := unixToTime(mu.LastSignInAt)
		u.LastSignInAt = &t
	}
	return &ports.StoredAccount{User: u, PasswordHash: mu.PasswordHash}
}

func (r *AuthRepository) Create(ctx context.Context, acc *ports.StoredAccount) (*ports.StoredAccount, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	createdAt := acc.User.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now().UTC()
	}
	doc := mongoUser{
		Email:        normalizeEmail(acc.User.Email),
		PasswordHash: acc.PasswordHash,
		Metadata:     bson.M(acc.User.Metadata),
		CreatedAt:    createdAt.Unix(),
	}

	res, err := r.coll.InsertOne(ctx, doc)
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return nil, domain.ErrUserExists
		}
		return nil, fmt.Errorf("insert user: %w", err)
	}
	doc.ID, _ = res.InsertedID.(primitive.ObjectID)
	return doc.toAccount(), nil
}

func (r *AuthRepository) FindByEmail(ctx context.Context, email string) (*ports.StoredAccount, error) {
	return r.findOne(ctx, bson.M{"email": normalizeEmail(email)})
}

func (r *AuthRepository) FindByID(ctx context.Context, id string) (*ports.StoredAccount, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, domain.ErrUserNotFound
	}
	return r.findOne(ctx, bson.M{"_id": oid})
}

func (r *AuthRepository) findOne(ctx context.Context, filter bson.M) (*ports.StoredAccount, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	var mu mongoUser
	if err := r.coll.FindOne(ctx, filter).Decode(&mu); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, domain.ErrUserNotFound
		}
		return nil, fmt.Errorf("find user: %w", err)
	}
	return mu.toAccount(), nil
}

// UpdateMetadata sets each key under user_metadata, leaving other keys intact.
func (r *AuthRepository) UpdateMetadata(ctx context.Context, id string, metadata map[string]any) (*ports.StoredAccount, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, domain.ErrUserNotFound
	}
	set := bson.M{}
	for k, v := range metadata {
		set["user_metadata."+k] = v
	}
	if len(set) == 0 {
		return r.FindByID(ctx, id)
	}

	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)
	var mu mongoUser
	if err := r.coll.FindOneAndUpdate(ctx, bson.M{"_id": oid}, bson.M{"$set": set}, opts).Decode(&mu); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, domain.ErrUserNotFound
		}
		return nil, fmt.Errorf("update user metadata: %w", err)
	}
	return mu.toAccount(), nil
}

func (r *AuthRepository) UpdatePassword(ctx context.Context, id, passwordHash string) error {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return domain.ErrUserNotFound
	}
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	res, err := r.coll.UpdateByID(ctx, oid, bson.M{"$set": bson.M{"password_hash": passwordHash}})
	if err != nil {
		return fmt.Errorf("update password: %w", err)
	}
	if res.MatchedCount == 0 {
		return domain.ErrUserNotFound
	}
	return nil
}

// TouchSignIn records the time of a successful sign-in.
func (r *AuthRepository) TouchSignIn(ctx context.Context, id string, at time.Time) error {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return domain.ErrUserNotFound
	}
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	_, err = r.coll.UpdateByID(ctx, oid, bson.M{"$set": bson.M{"last_sign_in_at": at.Unix()}})
	return err
}

func (r *AuthRepository) List(ctx context.Context, page, perPage int) ([]ports.StoredAccount, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	opts := options.Find().
		SetSort(bson.D{{Key: "created_at", Value: -1}}).
		SetSkip(int64((page - 1) * perPage)).
		SetLimit(int64(perPage))

	cur, err := r.coll.Find(ctx, bson.M{}, opts)
	if err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	defer cur.Close(ctx)

	var docs []mongoUser
	if err := cur.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("decode users: %w", err)
	}
	out := make([]ports.StoredAccount, 0, len(docs))
	for i := range docs {
		out = append(out, *docs[i].toAccount())
	}
	return out, nil
}

// EnsureIndexes makes email unique.
func (r *AuthRepository) EnsureIndexes(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	_, err := r.coll.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "email", Value: 1}},
		Options: options.Index().SetUnique(true),
	})
	return err
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func unixToTime(ts int64) time.Time {
	if ts == 0 {
		return time.Time{}
	}
	return time.Unix(ts, 0).UTC()
}
