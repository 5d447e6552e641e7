package repository

import (
	"encoding/json"
	"testing"

	"github.com/yourorg/campusbus/internal/domain"
)

func TestMirrorPutReadDelete(t *testing.T) {
	m := NewLocalMirror("", nil)

	m.Put(domain.CollectionRoutes, "route_1", json.RawMessage(`{"_id":"route_1"}`))
	m.Put(domain.CollectionRoutes, "route_2", json.RawMessage(`{"_id":"route_2"}`))

	docs := m.ReadAll(domain.CollectionRoutes)
	if len(docs) != 2 {
		t.Fatalf("expected 2 docs, got %d", len(docs))
	}

	m.Delete(domain.CollectionRoutes, "route_1")
	m.Delete(domain.CollectionRoutes, "route_missing")

	docs = m.ReadAll(domain.CollectionRoutes)
	if len(docs) != 1 {
		t.Fatalf("expected 1 doc after delete, got %d", len(docs))
	}
	if _, ok := docs["route_2"]; !ok {
		t.Fatalf("expected route_2 to survive")
	}
}

func TestMirrorReplaceAll(t *testing.T) {
	m := NewLocalMirror("", nil)
	m.Put(domain.CollectionBuses, "bus_old", json.RawMessage(`{"_id":"bus_old"}`))

	m.ReplaceAll(domain.CollectionBuses, map[string]json.RawMessage{
		"bus_new": json.RawMessage(`{"_id":"bus_new"}`),
	})

	docs := m.ReadAll(domain.CollectionBuses)
	if len(docs) != 1 {
		t.Fatalf("expected replacement set, got %d docs", len(docs))
	}
	if _, ok := docs["bus_old"]; ok {
		t.Fatalf("expected stale doc dropped by replace")
	}
}

func TestMirrorPersistsAcrossInstances(t *testing.T) {
	dir := t.TempDir()

	first := NewLocalMirror(dir, nil)
	first.Put(domain.CollectionBookings, "bkg_1", json.RawMessage(`{"_id":"bkg_1","seatNumber":"A1"}`))

	second := NewLocalMirror(dir, nil)
	docs := second.ReadAll(domain.CollectionBookings)
	if len(docs) != 1 {
		t.Fatalf("expected blob reloaded from disk, got %d docs", len(docs))
	}

	var decoded map[string]any
	if err := json.Unmarshal(docs["bkg_1"], &decoded); err != nil {
		t.Fatalf("persisted doc undecodable: %v", err)
	}
	if decoded["seatNumber"] != "A1" {
		t.Fatalf("expected seat A1, got %v", decoded["seatNumber"])
	}
}

func TestMirrorIsolatesReturnedCopies(t *testing.T) {
	m := NewLocalMirror("", nil)
	m.Put(domain.CollectionSettings, "system", json.RawMessage(`{"_id":"system"}`))

	docs := m.ReadAll(domain.CollectionSettings)
	delete(docs, "system")

	if len(m.ReadAll(domain.CollectionSettings)) != 1 {
		t.Fatalf("caller mutation leaked into mirror state")
	}
}
