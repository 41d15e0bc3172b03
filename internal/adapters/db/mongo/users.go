package mongo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"tourbook/internal/domain/auth"
	"tourbook/internal/domain/query"

	"go.mongodb.org/mongo-driver/bson"
	mongodriver "go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// UserRepository persists users
type UserRepository struct {
	coll *mongodriver.Collection
}

// NewUserRepository creates a user repository on the store
func NewUserRepository(s *Store) *UserRepository {
	return &UserRepository{coll: s.users}
}

func (r *UserRepository) GetUser(ctx context.Context, userID string) (*auth.User, error) {
	const op = "mongo.GetUser"

	u, err := findOne[auth.User](ctx, r.coll, bson.D{{Key: "_id", Value: userID}}, auth.ErrUserNotFound)
	if err != nil && !errors.Is(err, auth.ErrUserNotFound) {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return u, err
}

func (r *UserRepository) GetUserByEmail(ctx context.Context, email string) (*auth.User, error) {
	const op = "mongo.GetUserByEmail"

	u, err := findOne[auth.User](ctx, r.coll, bson.D{{Key: "email", Value: email}}, auth.ErrUserNotFound)
	if err != nil && !errors.Is(err, auth.ErrUserNotFound) {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return u, err
}

func (r *UserRepository) CreateUser(ctx context.Context, user *auth.User) error {
	const op = "mongo.CreateUser"

	if _, err := r.coll.InsertOne(ctx, user); err != nil {
		if mongodriver.IsDuplicateKeyError(err) {
			return auth.ErrEmailTaken
		}
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

func (r *UserRepository) UpdateUser(ctx context.Context, user *auth.User) error {
	const op = "mongo.UpdateUser"

	err := replaceByID(ctx, r.coll, user.ID, user, auth.ErrUserNotFound)
	switch {
	case err == nil, errors.Is(err, auth.ErrUserNotFound):
		return err
	case mongodriver.IsDuplicateKeyError(err):
		return auth.ErrEmailTaken
	default:
		return fmt.Errorf("%s: %w", op, err)
	}
}

func (r *UserRepository) DeleteUser(ctx context.Context, userID string) error {
	const op = "mongo.DeleteUser"

	err := deleteByID(ctx, r.coll, userID, auth.ErrUserNotFound)
	if err != nil && !errors.Is(err, auth.ErrUserNotFound) {
		return fmt.Errorf("%s: %w", op, err)
	}
	return err
}

func (r *UserRepository) ListUsers(ctx context.Context, q query.Spec) ([]*auth.User, error) {
	const op = "mongo.ListUsers"

	users, err := list[auth.User](ctx, r.coll, q)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return users, nil
}

// SessionRepository persists sessions
type SessionRepository struct {
	coll *mongodriver.Collection
}

// NewSessionRepository creates a session repository on the store
func NewSessionRepository(s *Store) *SessionRepository {
	return &SessionRepository{coll: s.sessions}
}

func (r *SessionRepository) CreateSession(ctx context.Context, s *auth.Session) error {
	const op = "mongo.CreateSession"

	if _, err := r.coll.InsertOne(ctx, s); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

func (r *SessionRepository) GetSession(ctx context.Context, sessionID string) (*auth.Session, error) {
	const op = "mongo.GetSession"

	s, err := findOne[auth.Session](ctx, r.coll, bson.D{{Key: "_id", Value: sessionID}}, auth.ErrSessionNotFound)
	if err != nil && !errors.Is(err, auth.ErrSessionNotFound) {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return s, err
}

// InvalidateSession only touches a valid session; a miss is resolved by an existence check
func (r *SessionRepository) InvalidateSession(ctx context.Context, sessionID string) error {
	const op = "mongo.InvalidateSession"

	res, err := r.coll.UpdateOne(ctx,
		bson.D{{Key: "_id", Value: sessionID}, {Key: "valid", Value: true}},
		bson.D{{Key: "$set", Value: bson.D{{Key: "valid", Value: false}, {Key: "updatedAt", Value: time.Now().UTC()}}}},
	)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if res.MatchedCount > 0 {
		return nil
	}

	n, err := r.coll.CountDocuments(ctx, bson.D{{Key: "_id", Value: sessionID}}, options.Count().SetLimit(1))
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if n == 0 {
		return auth.ErrSessionNotFound
	}
	return nil
}

func (r *SessionRepository) InvalidateUserSessions(ctx context.Context, userID, keepID string) (int, error) {
	const op = "mongo.InvalidateUserSessions"

	filter := bson.D{{Key: "user", Value: userID}, {Key: "valid", Value: true}}
	if keepID != "" {
		filter = append(filter, bson.E{Key: "_id", Value: bson.D{{Key: "$ne", Value: keepID}}})
	}
	res, err := r.coll.UpdateMany(ctx, filter,
		bson.D{{Key: "$set", Value: bson.D{{Key: "valid", Value: false}, {Key: "updatedAt", Value: time.Now().UTC()}}}},
	)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}
	return int(res.ModifiedCount), nil
}

func (r *SessionRepository) ListUserSessions(ctx context.Context, userID string) ([]*auth.Session, error) {
	const op = "mongo.ListUserSessions"

	opts := options.Find().SetSort(bson.D{{Key: "createdAt", Value: -1}, {Key: "_id", Value: 1}})
	sessions, err := findAll[auth.Session](ctx, r.coll, bson.D{{Key: "user", Value: userID}}, opts)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return sessions, nil
}
