package service

import (
	"context"
	"log/slog"
	"time"

	"github.com/yourorg/campusbus/internal/broadcast"
	"github.com/yourorg/campusbus/internal/domain"
	"github.com/yourorg/campusbus/internal/repository"
	"github.com/yourorg/campusbus/pkg/cache"
)

const settingsCacheKey = "settings:" + domain.SettingsID
const settingsCacheTTL = 30 * time.Second

// SettingsService owns the system-wide configuration singleton.
type SettingsService struct {
	settings   *repository.Collection[domain.SystemSettings]
	activities *ActivityService
	hub        *broadcast.Hub
	cache      *cache.Cache
	logger     *slog.Logger
}

// NewSettingsService creates the settings service.
func NewSettingsService(
	settings *repository.Collection[domain.SystemSettings],
	activities *ActivityService,
	hub *broadcast.Hub,
	logger *slog.Logger,
) *SettingsService {
	if logger == nil {
		logger = slog.Default()
	}
	return &SettingsService{
		settings:   settings,
		activities: activities,
		hub:        hub,
		cache:      cache.New(),
		logger:     logger,
	}
}

// Get returns the settings singleton, creating and persisting defaults on
// first read if none exist.
func (s *SettingsService) Get(ctx context.Context) domain.SystemSettings {
	if cached, ok := s.cache.Get(settingsCacheKey); ok {
		if settings, ok := cached.(domain.SystemSettings); ok {
			return settings
		}
	}

	settings, ok := s.settings.Get(ctx, domain.SettingsID)
	if !ok {
		settings = domain.DefaultSettings()
		if _, err := s.settings.Save(ctx, settings); err != nil {
			s.logger.Error("failed to persist default settings", slog.String("error", err.Error()))
		} else {
			s.logger.Info("settings created with defaults")
		}
	}

	s.cache.Set(settingsCacheKey, settings, settingsCacheTTL)
	return settings
}

// Update replaces the singleton, stamping updatedBy and updatedAt.
func (s *SettingsService) Update(ctx context.Context, settings domain.SystemSettings, updatedBy string) (domain.SystemSettings, repository.WriteOutcome, error) {
	if settings.BookingPrice < 0 {
		return domain.SystemSettings{}, "", domain.ValidationError{Field: "bookingPrice", Msg: "must not be negative"}
	}

	current := s.Get(ctx)
	settings.ID = domain.SettingsID
	settings.CreatedAt = current.CreatedAt
	settings.UpdatedAt = domain.NowISO()
	settings.UpdatedBy = updatedBy

	outcome, err := s.settings.Save(ctx, settings)
	if err != nil {
		return domain.SystemSettings{}, "", err
	}
	s.cache.Delete(settingsCacheKey)

	s.activities.Log(ctx, "settings_updated", "system settings updated", updatedBy, nil)
	s.hub.TriggerUpdate(broadcast.TypeSettingsUpdated, settings, updatedBy)
	return settings, outcome, nil
}
