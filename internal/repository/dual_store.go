package repository

import (
	"context"
	"encoding/json"
	"log/slog"

	"github.com/yourorg/campusbus/internal/domain"
	"github.com/yourorg/campusbus/internal/observability/metrics"
)

// WriteOutcome tells the caller where a write landed. Remote failures are
// swallowed by design, so this is the only signal distinguishing "saved
// everywhere" from "saved locally only".
type WriteOutcome string

const (
	OutcomeLocal WriteOutcome = "local"
	OutcomeBoth  WriteOutcome = "both"
)

// Collection is one dual-written document collection.
//
// Write contract: the local mirror write always happens and must succeed;
// the remote write is best-effort and its errors are logged, counted and
// swallowed. Read contract: remote is preferred when configured, and a
// successful non-empty remote read overwrites the mirror; otherwise mirror
// contents are returned unchanged. Last writer wins on conflicting updates;
// there is no cross-store transaction.
type Collection[T domain.Record] struct {
	name   domain.Collection
	mirror *LocalMirror
	remote RemoteStore
	logger *slog.Logger
}

// NewCollection creates a dual-written collection. A nil remote means the
// remote store is not configured and every write lands local-only.
func NewCollection[T domain.Record](name domain.Collection, mirror *LocalMirror, remote RemoteStore, logger *slog.Logger) *Collection[T] {
	if logger == nil {
		logger = slog.Default()
	}
	return &Collection[T]{
		name:   name,
		mirror: mirror,
		remote: remote,
		logger: logger,
	}
}

// Name returns the collection name.
func (c *Collection[T]) Name() domain.Collection { return c.name }

// Save writes the entity to the mirror and best-effort to the remote store,
// reporting where the write landed.
func (c *Collection[T]) Save(ctx context.Context, entity T) (WriteOutcome, error) {
	doc, err := json.Marshal(entity)
	if err != nil {
		return "", err
	}

	c.mirror.Put(c.name, entity.RecordID(), doc)

	outcome := OutcomeLocal
	if c.remote != nil {
		if err := c.remote.Put(ctx, c.name, entity.RecordID(), doc); err != nil {
			c.logger.Warn("remote write failed, local copy kept",
				slog.String("collection", string(c.name)),
				slog.String("id", entity.RecordID()),
				slog.String("error", err.Error()),
			)
			metrics.ObserveRemoteStoreError(string(c.name), "put")
		} else {
			outcome = OutcomeBoth
		}
	}

	metrics.ObserveDualWrite(string(c.name), string(outcome))
	return outcome, nil
}

// All returns every entity in the collection, remote-preferred. A reachable
// remote refreshes the mirror; an unreachable one degrades silently to
// mirror contents.
func (c *Collection[T]) All(ctx context.Context) []T {
	if c.remote != nil {
		docs, err := c.remote.All(ctx, c.name)
		if err == nil && len(docs) > 0 {
			raw := make(map[string]json.RawMessage, len(docs))
			for id, doc := range docs {
				raw[id] = doc
			}
			c.mirror.ReplaceAll(c.name, raw)
			return c.decode(raw)
		}
		if err != nil {
			c.logger.Warn("remote read failed, serving mirror",
				slog.String("collection", string(c.name)),
				slog.String("error", err.Error()),
			)
			metrics.ObserveRemoteStoreError(string(c.name), "all")
		}
	}

	return c.decode(c.mirror.ReadAll(c.name))
}

// Get returns one entity by id.
func (c *Collection[T]) Get(ctx context.Context, id string) (T, bool) {
	var zero T
	for _, entity := range c.All(ctx) {
		if entity.RecordID() == id {
			return entity, true
		}
	}
	return zero, false
}

// Delete removes the entity from both stores, remote best-effort.
func (c *Collection[T]) Delete(ctx context.Context, id string) WriteOutcome {
	c.mirror.Delete(c.name, id)

	outcome := OutcomeLocal
	if c.remote != nil {
		if err := c.remote.Delete(ctx, c.name, id); err != nil {
			c.logger.Warn("remote delete failed, local copy removed",
				slog.String("collection", string(c.name)),
				slog.String("id", id),
				slog.String("error", err.Error()),
			)
			metrics.ObserveRemoteStoreError(string(c.name), "delete")
		} else {
			outcome = OutcomeBoth
		}
	}

	metrics.ObserveDualWrite(string(c.name), string(outcome))
	return outcome
}

func (c *Collection[T]) decode(docs map[string]json.RawMessage) []T {
	out := make([]T, 0, len(docs))
	for id, doc := range docs {
		var entity T
		if err := json.Unmarshal(doc, &entity); err != nil {
			c.logger.Warn("skipping undecodable document",
				slog.String("collection", string(c.name)),
				slog.String("id", id),
				slog.String("error", err.Error()),
			)
			continue
		}
		out = append(out, entity)
	}
	return out
}
