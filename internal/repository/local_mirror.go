package repository

import (
	"encoding/json"
	"log/slog"
	"os"
	"path/filepath"
	"sync"

	"github.com/yourorg/campusbus/internal/domain"
)

// LocalMirror is the always-available persistence target: one JSON blob per
// collection, keyed by entity id. All operations are synchronous and never
// return errors; disk persistence is best-effort on top of the in-memory
// state, so a full disk degrades durability but not correctness within the
// process. Whole-blob read-modify-write cycles are serialized by a single
// mutex so concurrent mutations in the same collection cannot clobber each
// other.
type LocalMirror struct {
	dir    string
	mu     sync.Mutex
	data   map[domain.Collection]map[string]json.RawMessage
	logger *slog.Logger
}

// NewLocalMirror creates a mirror rooted at dir, loading any collection blobs
// already present. An empty dir keeps the mirror memory-only.
func NewLocalMirror(dir string, logger *slog.Logger) *LocalMirror {
	if logger == nil {
		logger = slog.Default()
	}

	m := &LocalMirror{
		dir:    dir,
		data:   make(map[domain.Collection]map[string]json.RawMessage),
		logger: logger,
	}

	if dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			m.logger.Warn("mirror directory unavailable, running memory-only",
				slog.String("dir", dir),
				slog.String("error", err.Error()),
			)
			m.dir = ""
		}
	}
	return m
}

// ReadAll returns a copy of a collection's documents.
func (m *LocalMirror) ReadAll(col domain.Collection) map[string]json.RawMessage {
	m.mu.Lock()
	defer m.mu.Unlock()

	docs := m.load(col)
	out := make(map[string]json.RawMessage, len(docs))
	for id, doc := range docs {
		out[id] = doc
	}
	return out
}

// Put stores one document.
func (m *LocalMirror) Put(col domain.Collection, id string, doc json.RawMessage) {
	m.mu.Lock()
	defer m.mu.Unlock()

	docs := m.load(col)
	docs[id] = doc
	m.flush(col, docs)
}

// Delete removes one document. Deleting an absent id is a no-op.
func (m *LocalMirror) Delete(col domain.Collection, id string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	docs := m.load(col)
	delete(docs, id)
	m.flush(col, docs)
}

// ReplaceAll overwrites a collection with a freshly fetched remote set.
func (m *LocalMirror) ReplaceAll(col domain.Collection, docs map[string]json.RawMessage) {
	m.mu.Lock()
	defer m.mu.Unlock()

	copied := make(map[string]json.RawMessage, len(docs))
	for id, doc := range docs {
		copied[id] = doc
	}
	m.data[col] = copied
	m.flush(col, copied)
}

// load returns the live document map for col, reading the blob from disk on
// first touch. Callers must hold the mutex.
func (m *LocalMirror) load(col domain.Collection) map[string]json.RawMessage {
	if docs, ok := m.data[col]; ok {
		return docs
	}

	docs := make(map[string]json.RawMessage)
	if m.dir != "" {
		raw, err := os.ReadFile(m.path(col))
		if err == nil {
			if err := json.Unmarshal(raw, &docs); err != nil {
				m.logger.Warn("mirror blob unreadable, starting empty",
					slog.String("collection", string(col)),
					slog.String("error", err.Error()),
				)
				docs = make(map[string]json.RawMessage)
			}
		}
	}
	m.data[col] = docs
	return docs
}

// flush persists a collection blob to disk best-effort. Callers must hold
// the mutex.
func (m *LocalMirror) flush(col domain.Collection, docs map[string]json.RawMessage) {
	if m.dir == "" {
		return
	}

	raw, err := json.Marshal(docs)
	if err != nil {
		m.logger.Warn("mirror blob marshal failed",
			slog.String("collection", string(col)),
			slog.String("error", err.Error()),
		)
		return
	}

	tmp := m.path(col) + ".tmp"
	if err := os.WriteFile(tmp, raw, 0o644); err != nil {
		m.logger.Warn("mirror blob write failed",
			slog.String("collection", string(col)),
			slog.String("error", err.Error()),
		)
		return
	}
	if err := os.Rename(tmp, m.path(col)); err != nil {
		m.logger.Warn("mirror blob rename failed",
			slog.String("collection", string(col)),
			slog.String("error", err.Error()),
		)
	}
}

func (m *LocalMirror) path(col domain.Collection) string {
	return filepath.Join(m.dir, string(col)+".json")
}
