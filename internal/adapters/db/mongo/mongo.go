// Package mongo stores users, sessions, tours, reviews and bookings in MongoDB
// and evaluates translated list queries natively.
package mongo

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"

	"tourbook/internal/domain/query"

	"go.mongodb.org/mongo-driver/bson"
	mongodriver "go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"
)

const (
	usersCollection    = "users"
	sessionsCollection = "sessions"
	toursCollection    = "tours"
	reviewsCollection  = "reviews"
	bookingsCollection = "bookings"
	defaultDBName      = "tourbook"
)

// Store owns the client and the collections
type Store struct {
	client   *mongodriver.Client
	db       *mongodriver.Database
	users    *mongodriver.Collection
	sessions *mongodriver.Collection
	tours    *mongodriver.Collection
	reviews  *mongodriver.Collection
	bookings *mongodriver.Collection
}

// New connects, pings the primary and ensures indexes
func New(ctx context.Context, uri string) (*Store, error) {
	if uri == "" {
		return nil, errors.New("mongo: empty connection uri")
	}

	cli, err := mongodriver.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, fmt.Errorf("mongo connect: %w", err)
	}
	if err := cli.Ping(ctx, readpref.Primary()); err != nil {
		_ = cli.Disconnect(context.Background())
		return nil, fmt.Errorf("mongo ping: %w", err)
	}

	db := cli.Database(databaseFromURI(uri))
	s := &Store{
		client:   cli,
		db:       db,
		users:    db.Collection(usersCollection),
		sessions: db.Collection(sessionsCollection),
		tours:    db.Collection(toursCollection),
		reviews:  db.Collection(reviewsCollection),
		bookings: db.Collection(bookingsCollection),
	}

	if err := s.ensureIndexes(ctx); err != nil {
		_ = s.Close(ctx)
		return nil, err
	}
	return s, nil
}

// Close disconnects the client
func (s *Store) Close(ctx context.Context) error {
	return s.client.Disconnect(ctx)
}

// Ping checks the primary is reachable
func (s *Store) Ping(ctx context.Context) error {
	return s.client.Ping(ctx, readpref.Primary())
}

// ensureIndexes creates the unique constraints and the lookup indexes:
//   - users: unique email
//   - sessions: user + valid for revoking every session of a user
//   - tours: unique name and slug, price + ratingsAverage for the usual filters
//   - reviews: one review per (tour, user)
//   - bookings: unique checkout session when present, user and tour lookups
func (s *Store) ensureIndexes(ctx context.Context) error {
	indexes := map[*mongodriver.Collection][]mongodriver.IndexModel{
		s.users: {
			{Keys: bson.D{{Key: "email", Value: 1}}, Options: options.Index().SetName("email_unique").SetUnique(true)},
		},
		s.sessions: {
			{Keys: bson.D{{Key: "user", Value: 1}, {Key: "valid", Value: 1}}, Options: options.Index().SetName("user_valid")},
		},
		s.tours: {
			{Keys: bson.D{{Key: "name", Value: 1}}, Options: options.Index().SetName("name_unique").SetUnique(true)},
			{Keys: bson.D{{Key: "slug", Value: 1}}, Options: options.Index().SetName("slug_unique").SetUnique(true)},
			{Keys: bson.D{{Key: "price", Value: 1}, {Key: "ratingsAverage", Value: -1}}, Options: options.Index().SetName("price_rating")},
		},
		s.reviews: {
			{Keys: bson.D{{Key: "tour", Value: 1}, {Key: "user", Value: 1}}, Options: options.Index().SetName("tour_user_unique").SetUnique(true)},
		},
		s.bookings: {
			{
				Keys: bson.D{{Key: "checkoutSession", Value: 1}},
				Options: options.Index().SetName("checkout_session_unique").SetUnique(true).
					SetPartialFilterExpression(bson.D{{Key: "checkoutSession", Value: bson.D{{Key: "$exists", Value: true}}}}),
			},
			{Keys: bson.D{{Key: "user", Value: 1}, {Key: "createdAt", Value: -1}}, Options: options.Index().SetName("user_created")},
			{Keys: bson.D{{Key: "tour", Value: 1}}, Options: options.Index().SetName("tour")},
		},
	}

	for coll, models := range indexes {
		if _, err := coll.Indexes().CreateMany(ctx, models); err != nil {
			return fmt.Errorf("mongo ensure indexes on %s: %w", coll.Name(), err)
		}
	}
	return nil
}

// databaseFromURI extracts the database name from the uri path
func databaseFromURI(uri string) string {
	u, err := url.Parse(uri)
	if err == nil {
		if name := strings.Trim(u.Path, "/"); name != "" {
			return name
		}
	}
	return defaultDBName
}

// findAll runs a find and decodes every document into T
func findAll[T any](ctx context.Context, coll *mongodriver.Collection, filter bson.D, opts *options.FindOptions) ([]*T, error) {
	cur, err := coll.Find(ctx, filter, opts)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	out := make([]*T, 0)
	for cur.Next(ctx) {
		var item T
		if err := cur.Decode(&item); err != nil {
			return nil, err
		}
		out = append(out, &item)
	}
	return out, cur.Err()
}

// findOne decodes one document by id, returning notFound when absent
func findOne[T any](ctx context.Context, coll *mongodriver.Collection, filter bson.D, notFound error) (*T, error) {
	var out T
	if err := coll.FindOne(ctx, filter).Decode(&out); err != nil {
		if errors.Is(err, mongodriver.ErrNoDocuments) {
			return nil, notFound
		}
		return nil, err
	}
	return &out, nil
}

// replaceByID replaces the document with the given id, returning notFound when absent
func replaceByID(ctx context.Context, coll *mongodriver.Collection, id string, doc any, notFound error) error {
	res, err := coll.ReplaceOne(ctx, bson.D{{Key: "_id", Value: id}}, doc)
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return notFound
	}
	return nil
}

// deleteByID removes the document with the given id, returning notFound when absent
func deleteByID(ctx context.Context, coll *mongodriver.Collection, id string, notFound error) error {
	res, err := coll.DeleteOne(ctx, bson.D{{Key: "_id", Value: id}})
	if err != nil {
		return err
	}
	if res.DeletedCount == 0 {
		return notFound
	}
	return nil
}

// list evaluates a translated query against a collection
func list[T any](ctx context.Context, coll *mongodriver.Collection, spec query.Spec) ([]*T, error) {
	filter, err := filterOf(spec.Conditions)
	if err != nil {
		return nil, err
	}
	return findAll[T](ctx, coll, filter, findOptions(spec))
}
