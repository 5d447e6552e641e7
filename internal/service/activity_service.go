package service

import (
	"context"
	"log/slog"
	"sort"

	"github.com/yourorg/campusbus/internal/broadcast"
	"github.com/yourorg/campusbus/internal/domain"
	"github.com/yourorg/campusbus/internal/repository"
)

// loadActivitiesCap bounds how many entries Load returns (most recent first).
const loadActivitiesCap = 100

// ActivityService keeps the append-only activity log. Every mutating domain
// operation records an entry here after its dual write and before its own
// broadcast, so subscribers always observe the log in write order.
type ActivityService struct {
	activities *repository.Collection[domain.ActivityEntry]
	hub        *broadcast.Hub
	logger     *slog.Logger
}

// NewActivityService creates the activity service.
func NewActivityService(activities *repository.Collection[domain.ActivityEntry], hub *broadcast.Hub, logger *slog.Logger) *ActivityService {
	if logger == nil {
		logger = slog.Default()
	}
	return &ActivityService{
		activities: activities,
		hub:        hub,
		logger:     logger,
	}
}

// Log appends one entry. Failures are logged and swallowed: a broken log
// must never abort the domain operation that produced it.
func (s *ActivityService) Log(ctx context.Context, entryType, description, userID string, metadata map[string]string) {
	entry := domain.ActivityEntry{
		ID:          domain.NewID("act"),
		Type:        entryType,
		Description: description,
		UserID:      userID,
		Metadata:    metadata,
		CreatedAt:   domain.NowISO(),
	}

	if _, err := s.activities.Save(ctx, entry); err != nil {
		s.logger.Error("activity append failed",
			slog.String("type", entryType),
			slog.String("error", err.Error()),
		)
		return
	}

	s.hub.TriggerUpdate(broadcast.TypeActivityLogged, entry, userID)
}

// Load returns the most recent entries, newest first, capped at 100.
func (s *ActivityService) Load(ctx context.Context) []domain.ActivityEntry {
	entries := s.activities.All(ctx)
	sort.Slice(entries, func(i, j int) bool {
		return entries[i].CreatedAt > entries[j].CreatedAt
	})
	if len(entries) > loadActivitiesCap {
		entries = entries[:loadActivitiesCap]
	}
	return entries
}

// Subscribe invokes cb for every newly logged entry and returns an
// unsubscribe closure.
func (s *ActivityService) Subscribe(cb func(domain.ActivityEntry)) func() {
	return s.hub.Subscribe([]string{broadcast.TypeActivityLogged}, func(ev broadcast.Event) {
		if entry, ok := ev.Data.(domain.ActivityEntry); ok {
			cb(entry)
		}
	})
}
