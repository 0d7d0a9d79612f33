// Package mongo stores accounts and verification challenges in MongoDB.
package mongo

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const (
	AccountsCollection      = "users"
	VerificationsCollection = "userverifications"
)

// Store bundles the repositories and transactor of one database.
type Store struct {
	Client        *mongo.Client
	DB            *mongo.Database
	Accounts      *AccountRepository
	Verifications *VerificationRepository
	Tx            *Transactor
}

// Connect dials uri and pings the deployment.
func Connect(ctx context.Context, uri string) (*mongo.Client, error) {
	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, err
	}
	ctxPing, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := client.Ping(ctxPing, nil); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, err
	}
	return client, nil
}

// Open connects, ensures indexes and returns a ready Store.
// transactions requires a replica set or sharded cluster.
func Open(ctx context.Context, uri, dbName string, transactions bool) (*Store, error) {
	client, err := Connect(ctx, uri)
	if err != nil {
		return nil, err
	}
	db := client.Database(dbName)
	if err := EnsureIndexes(ctx, db); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, err
	}
	return &Store{
		Client:        client,
		DB:            db,
		Accounts:      NewAccountRepository(db),
		Verifications: NewVerificationRepository(db),
		Tx:            NewTransactor(client, transactions),
	}, nil
}

func (s *Store) Close(ctx context.Context) error {
	return s.Client.Disconnect(ctx)
}

// EnsureIndexes creates the unique indexes that back duplicate detection:
// one account per email, one challenge per account.
func EnsureIndexes(ctx context.Context, db *mongo.Database) error {
	if _, err := db.Collection(AccountsCollection).Indexes().CreateMany(ctx, []mongo.IndexModel{
		{Keys: bson.D{{Key: "email", Value: 1}}, Options: options.Index().SetUnique(true)},
		{Keys: bson.D{{Key: "verified", Value: 1}, {Key: "createdAt", Value: 1}}},
	}); err != nil {
		return err
	}
	_, err := db.Collection(VerificationsCollection).Indexes().CreateMany(ctx, []mongo.IndexModel{
		{Keys: bson.D{{Key: "userId", Value: 1}}, Options: options.Index().SetUnique(true)},
		{Keys: bson.D{{Key: "expiresAt", Value: 1}}},
	})
	return err
}

// Transactor runs units of work in a session transaction when enabled,
// and sequentially otherwise. A failed unit or commit is aborted and never retried.
type Transactor struct {
	client  *mongo.Client
	enabled bool
}

func NewTransactor(client *mongo.Client, enabled bool) *Transactor {
	return &Transactor{client: client, enabled: enabled}
}

func (t *Transactor) WithinTx(ctx context.Context, fn func(ctx context.Context) error) error {
	if !t.enabled || t.client == nil || mongo.SessionFromContext(ctx) != nil {
		return fn(ctx)
	}
	sess, err := t.client.StartSession()
	if err != nil {
		return err
	}
	defer sess.EndSession(ctx)
	if err := sess.StartTransaction(); err != nil {
		return err
	}
	sc := mongo.NewSessionContext(ctx, sess)
	defer func() {
		if p := recover(); p != nil {
			_ = sess.AbortTransaction(context.WithoutCancel(ctx))
			panic(p)
		}
	}()
	if err := fn(sc); err != nil {
		_ = sess.AbortTransaction(context.WithoutCancel(ctx))
		return err
	}
	return sess.CommitTransaction(sc)
}
