package mongo

import (
	"context"
	"errors"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"censorship/pkg/storage"
)

const collName = "words"

type word struct {
	Pos     int    `bson:"pos"`
	Pattern string `bson:"pattern"`
}

type Storage struct {
	client *mongo.Client
	dbName string
}

func New(ctx context.Context, conf *Config) (*Storage, error) {
	client, err := mongo.Connect(ctx, conf.Options())
	if err != nil {
		return nil, err
	}

	return &Storage{client: client, dbName: conf.DBName}, nil
}

func (s *Storage) Ping(ctx context.Context) error {
	return s.client.Ping(ctx, nil)
}

func (s *Storage) Close() {
	s.client.Disconnect(context.Background())
}

func (s *Storage) coll() *mongo.Collection {
	return s.client.Database(s.dbName).Collection(collName)
}

// Words returns the stored patterns sorted by position.
func (s *Storage) Words(ctx context.Context) ([]string, error) {
	opts := options.Find().SetSort(bson.D{{Key: "pos", Value: 1}})
	cur, err := s.coll().Find(ctx, bson.M{}, opts)
	if err != nil {
		return nil, err
	}

	var docs []word
	if err := cur.All(ctx, &docs); err != nil {
		return nil, err
	}
	if len(docs) == 0 {
		return nil, storage.ErrNoWords
	}

	words := make([]string, len(docs))
	for i, d := range docs {
		words[i] = d.Pattern
	}
	return words, nil
}

// SaveWords replaces the stored list inside a session transaction. Deployments
// without replica sets reject transactions; the replacement then runs unguarded.
func (s *Storage) SaveWords(ctx context.Context, words []string) error {
	words = storage.Clean(words)
	docs := make([]any, len(words))
	for i, w := range words {
		docs[i] = word{Pos: i, Pattern: w}
	}

	replace := func(ctx context.Context) error {
		if _, err := s.coll().DeleteMany(ctx, bson.M{}); err != nil {
			return fmt.Errorf("failed to clear words: %w", err)
		}
		if len(docs) == 0 {
			return nil
		}
		if _, err := s.coll().InsertMany(ctx, docs); err != nil {
			return fmt.Errorf("failed to insert words: %w", err)
		}
		return nil
	}

	sess, err := s.client.StartSession()
	if err != nil {
		return replace(ctx)
	}
	defer sess.EndSession(ctx)

	_, err = sess.WithTransaction(ctx, func(sc mongo.SessionContext) (any, error) {
		return nil, replace(sc)
	})
	if isTransactionUnsupported(err) {
		return replace(ctx)
	}
	return err
}

// isTransactionUnsupported reports the error standalone servers return for transactions.
func isTransactionUnsupported(err error) bool {
	var se mongo.ServerError
	if !errors.As(err, &se) {
		return false
	}
	return se.HasErrorCode(20) || se.HasErrorCode(263)
}
