package service

import (
	"context"
	"testing"

	"github.com/yourorg/campusbus/internal/domain"
)

func TestSettingsDefaultsCreatedOnFirstRead(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	settings := env.settings.Get(ctx)
	if settings.ID != domain.SettingsID {
		t.Fatalf("expected singleton id, got %q", settings.ID)
	}
	if settings.BookingPrice != domain.DefaultSettings().BookingPrice {
		t.Fatalf("expected default price, got %v", settings.BookingPrice)
	}

	// The defaults are persisted, not just returned.
	docs := env.mirror.ReadAll(domain.CollectionSettings)
	if len(docs) != 1 {
		t.Fatalf("expected persisted defaults, got %d docs", len(docs))
	}
}

func TestSettingsUpdatePreservesCreatedAt(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	original := env.settings.Get(ctx)

	updated := original
	updated.BookingPrice = 350
	updated.CreatedAt = "tampered"

	saved, _, err := env.settings.Update(ctx, updated, "admin_test")
	if err != nil {
		t.Fatalf("update failed: %v", err)
	}
	if saved.CreatedAt != original.CreatedAt {
		t.Fatalf("expected createdAt preserved, got %q", saved.CreatedAt)
	}
	if saved.UpdatedBy != "admin_test" {
		t.Fatalf("expected updatedBy stamped, got %q", saved.UpdatedBy)
	}

	if got := env.settings.Get(ctx).BookingPrice; got != 350 {
		t.Fatalf("expected cache invalidated and new price served, got %v", got)
	}
}

func TestSettingsUpdateRejectsNegativePrice(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	settings := env.settings.Get(ctx)
	settings.BookingPrice = -1

	if _, _, err := env.settings.Update(ctx, settings, "admin_test"); !domain.IsValidation(err) {
		t.Fatalf("expected validation error, got %v", err)
	}
}
