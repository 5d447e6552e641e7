package repository

import (
	"context"
	"errors"
	"testing"

	"github.com/yourorg/campusbus/internal/domain"
)

// fakeRemote is an in-memory RemoteStore with a failure switch.
type fakeRemote struct {
	docs map[domain.Collection]map[string][]byte
	down bool
}

func newFakeRemote() *fakeRemote {
	return &fakeRemote{docs: map[domain.Collection]map[string][]byte{}}
}

func (f *fakeRemote) Put(ctx context.Context, col domain.Collection, id string, doc []byte) error {
	if f.down {
		return errors.New("remote unavailable")
	}
	if f.docs[col] == nil {
		f.docs[col] = map[string][]byte{}
	}
	f.docs[col][id] = doc
	return nil
}

func (f *fakeRemote) Delete(ctx context.Context, col domain.Collection, id string) error {
	if f.down {
		return errors.New("remote unavailable")
	}
	delete(f.docs[col], id)
	return nil
}

func (f *fakeRemote) All(ctx context.Context, col domain.Collection) (map[string][]byte, error) {
	if f.down {
		return nil, errors.New("remote unavailable")
	}
	out := map[string][]byte{}
	for id, doc := range f.docs[col] {
		out[id] = doc
	}
	return out, nil
}

func testBus(id, plate string) domain.Bus {
	return domain.Bus{
		ID:          id,
		PlateNumber: plate,
		Capacity:    40,
		Status:      domain.BusAvailable,
		CreatedAt:   domain.NowISO(),
		UpdatedAt:   domain.NowISO(),
	}
}

func TestSaveWritesBothStores(t *testing.T) {
	ctx := context.Background()
	mirror := NewLocalMirror("", nil)
	remote := newFakeRemote()
	col := NewCollection[domain.Bus](domain.CollectionBuses, mirror, remote, nil)

	outcome, err := col.Save(ctx, testBus("bus_1", "KN-101"))
	if err != nil {
		t.Fatalf("save failed: %v", err)
	}
	if outcome != OutcomeBoth {
		t.Fatalf("expected outcome both, got %s", outcome)
	}
	if len(mirror.ReadAll(domain.CollectionBuses)) != 1 {
		t.Fatalf("expected mirror copy")
	}
	if len(remote.docs[domain.CollectionBuses]) != 1 {
		t.Fatalf("expected remote copy")
	}
}

func TestSaveDegradesWhenRemoteDown(t *testing.T) {
	ctx := context.Background()
	mirror := NewLocalMirror("", nil)
	remote := newFakeRemote()
	remote.down = true
	col := NewCollection[domain.Bus](domain.CollectionBuses, mirror, remote, nil)

	outcome, err := col.Save(ctx, testBus("bus_1", "KN-101"))
	if err != nil {
		t.Fatalf("save must not fail on remote outage: %v", err)
	}
	if outcome != OutcomeLocal {
		t.Fatalf("expected outcome local, got %s", outcome)
	}
	if len(mirror.ReadAll(domain.CollectionBuses)) != 1 {
		t.Fatalf("expected mirror copy despite outage")
	}

	// Reads keep serving the mirror while the remote is down.
	buses := col.All(ctx)
	if len(buses) != 1 || buses[0].ID != "bus_1" {
		t.Fatalf("expected mirror read, got %v", buses)
	}
}

func TestSaveWithoutRemote(t *testing.T) {
	ctx := context.Background()
	mirror := NewLocalMirror("", nil)
	col := NewCollection[domain.Bus](domain.CollectionBuses, mirror, nil, nil)

	outcome, err := col.Save(ctx, testBus("bus_1", "KN-101"))
	if err != nil {
		t.Fatalf("save failed: %v", err)
	}
	if outcome != OutcomeLocal {
		t.Fatalf("expected outcome local, got %s", outcome)
	}
}

func TestAllRefreshesMirrorFromRemote(t *testing.T) {
	ctx := context.Background()
	mirror := NewLocalMirror("", nil)
	remote := newFakeRemote()
	col := NewCollection[domain.Bus](domain.CollectionBuses, mirror, remote, nil)

	// Simulate another instance writing straight to the remote.
	other := NewCollection[domain.Bus](domain.CollectionBuses, NewLocalMirror("", nil), remote, nil)
	if _, err := other.Save(ctx, testBus("bus_9", "KN-109")); err != nil {
		t.Fatalf("seed save failed: %v", err)
	}

	buses := col.All(ctx)
	if len(buses) != 1 || buses[0].ID != "bus_9" {
		t.Fatalf("expected remote-preferred read, got %v", buses)
	}
	if len(mirror.ReadAll(domain.CollectionBuses)) != 1 {
		t.Fatalf("expected mirror refreshed from remote")
	}
}

func TestMirrorSurvivesRemoteFlap(t *testing.T) {
	ctx := context.Background()
	mirror := NewLocalMirror("", nil)
	remote := newFakeRemote()
	col := NewCollection[domain.Bus](domain.CollectionBuses, mirror, remote, nil)

	if _, err := col.Save(ctx, testBus("bus_1", "KN-101")); err != nil {
		t.Fatalf("save failed: %v", err)
	}

	remote.down = true
	if _, err := col.Save(ctx, testBus("bus_2", "KN-102")); err != nil {
		t.Fatalf("degraded save failed: %v", err)
	}

	buses := col.All(ctx)
	if len(buses) != 2 {
		t.Fatalf("expected both buses from mirror, got %d", len(buses))
	}
}

func TestDeleteRemovesFromBothStores(t *testing.T) {
	ctx := context.Background()
	mirror := NewLocalMirror("", nil)
	remote := newFakeRemote()
	col := NewCollection[domain.Bus](domain.CollectionBuses, mirror, remote, nil)

	if _, err := col.Save(ctx, testBus("bus_1", "KN-101")); err != nil {
		t.Fatalf("save failed: %v", err)
	}

	if outcome := col.Delete(ctx, "bus_1"); outcome != OutcomeBoth {
		t.Fatalf("expected delete outcome both, got %s", outcome)
	}
	if len(mirror.ReadAll(domain.CollectionBuses)) != 0 {
		t.Fatalf("expected mirror copy removed")
	}
	if len(remote.docs[domain.CollectionBuses]) != 0 {
		t.Fatalf("expected remote copy removed")
	}
}

func TestGetByID(t *testing.T) {
	ctx := context.Background()
	col := NewCollection[domain.Bus](domain.CollectionBuses, NewLocalMirror("", nil), nil, nil)

	if _, err := col.Save(ctx, testBus("bus_1", "KN-101")); err != nil {
		t.Fatalf("save failed: %v", err)
	}

	bus, ok := col.Get(ctx, "bus_1")
	if !ok || bus.PlateNumber != "KN-101" {
		t.Fatalf("expected bus_1, got %v %v", bus, ok)
	}
	if _, ok := col.Get(ctx, "bus_2"); ok {
		t.Fatalf("expected miss for unknown id")
	}
}
