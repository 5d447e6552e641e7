package repository

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/yourorg/campusbus/internal/domain"
	infmongo "github.com/yourorg/campusbus/internal/infrastructure/mongo"
	"github.com/yourorg/campusbus/internal/reliability/circuitbreaker"
	"github.com/yourorg/campusbus/internal/reliability/retry"
)

// RemoteStore is the remote document database behind the dual-write layer.
// Every call may fail (offline, unconfigured, circuit open); callers treat
// failures as a degradation signal, never as a fatal condition.
type RemoteStore interface {
	Put(ctx context.Context, col domain.Collection, id string, doc []byte) error
	Delete(ctx context.Context, col domain.Collection, id string) error
	All(ctx context.Context, col domain.Collection) (map[string][]byte, error)
}

const remoteCallTimeout = 5 * time.Second

// MongoRecordStore implements RemoteStore on MongoDB. Calls are guarded by a
// circuit breaker so a flapping remote does not stall every domain write, and
// writes are retried with bounded backoff before the failure is surfaced.
type MongoRecordStore struct {
	client   *infmongo.Client
	breaker  *circuitbreaker.CircuitBreaker
	retryCfg *retry.Config
	logger   *slog.Logger
}

// NewMongoRecordStore creates a record store over an established client.
func NewMongoRecordStore(client *infmongo.Client, logger *slog.Logger) *MongoRecordStore {
	if logger == nil {
		logger = slog.Default()
	}

	cfg := retry.DefaultConfig()
	cfg.MaxAttempts = 2
	cfg.MaxBackoff = time.Second

	breaker := circuitbreaker.NewCircuitBreaker(5, 2, 30*time.Second)
	breaker.SetStateChangeCallback(func(from, to circuitbreaker.State) {
		logger.Warn("remote store circuit state changed",
			slog.Int("from", int(from)),
			slog.Int("to", int(to)),
		)
	})

	return &MongoRecordStore{
		client:   client,
		breaker:  breaker,
		retryCfg: cfg,
		logger:   logger,
	}
}

// Put upserts one document by id.
func (s *MongoRecordStore) Put(ctx context.Context, col domain.Collection, id string, doc []byte) error {
	if !s.breaker.AllowRequest() {
		return fmt.Errorf("remote store circuit open")
	}

	var body bson.M
	if err := bson.UnmarshalExtJSON(doc, false, &body); err != nil {
		return fmt.Errorf("failed to decode document for %s/%s: %w", col, id, err)
	}
	body["_id"] = id

	_, err := retry.Do(ctx, s.retryCfg, s.logger, "mongo_put", func(ctx context.Context) (struct{}, error) {
		callCtx, cancel := context.WithTimeout(ctx, remoteCallTimeout)
		defer cancel()

		_, err := s.client.Collection(string(col)).ReplaceOne(
			callCtx,
			bson.M{"_id": id},
			body,
			options.Replace().SetUpsert(true),
		)
		return struct{}{}, err
	})
	s.record(err)
	if err != nil {
		return fmt.Errorf("failed to upsert %s/%s: %w", col, id, err)
	}
	return nil
}

// Delete removes one document by id. A missing document is not an error.
func (s *MongoRecordStore) Delete(ctx context.Context, col domain.Collection, id string) error {
	if !s.breaker.AllowRequest() {
		return fmt.Errorf("remote store circuit open")
	}

	callCtx, cancel := context.WithTimeout(ctx, remoteCallTimeout)
	defer cancel()

	_, err := s.client.Collection(string(col)).DeleteOne(callCtx, bson.M{"_id": id})
	s.record(err)
	if err != nil {
		return fmt.Errorf("failed to delete %s/%s: %w", col, id, err)
	}
	return nil
}

// All fetches every document in a collection as plain JSON keyed by id.
func (s *MongoRecordStore) All(ctx context.Context, col domain.Collection) (map[string][]byte, error) {
	if !s.breaker.AllowRequest() {
		return nil, fmt.Errorf("remote store circuit open")
	}

	callCtx, cancel := context.WithTimeout(ctx, remoteCallTimeout)
	defer cancel()

	cursor, err := s.client.Collection(string(col)).Find(callCtx, bson.M{})
	if err != nil {
		s.record(err)
		return nil, fmt.Errorf("failed to query %s: %w", col, err)
	}
	defer cursor.Close(callCtx)

	out := make(map[string][]byte)
	for cursor.Next(callCtx) {
		var raw bson.Raw
		if err := cursor.Decode(&raw); err != nil {
			s.record(err)
			return nil, fmt.Errorf("failed to decode %s document: %w", col, err)
		}

		id, ok := raw.Lookup("_id").StringValueOK()
		if !ok {
			s.logger.Warn("skipping document without string id", slog.String("collection", string(col)))
			continue
		}

		doc, err := bson.MarshalExtJSON(raw, false, false)
		if err != nil {
			s.record(err)
			return nil, fmt.Errorf("failed to encode %s/%s: %w", col, id, err)
		}
		out[id] = doc
	}
	if err := cursor.Err(); err != nil {
		s.record(err)
		return nil, fmt.Errorf("cursor error on %s: %w", col, err)
	}

	s.record(nil)
	return out, nil
}

func (s *MongoRecordStore) record(err error) {
	if err != nil {
		s.breaker.RecordFailure()
		return
	}
	s.breaker.RecordSuccess()
}
