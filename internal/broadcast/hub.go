package broadcast

import (
	"context"
	"encoding/json"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	infredis "github.com/yourorg/campusbus/internal/infrastructure/redis"
	"github.com/yourorg/campusbus/internal/observability/metrics"
)

// Update kinds fanned out by the hub.
const (
	TypeBusCreated          = "bus_created"
	TypeBusUpdated          = "bus_updated"
	TypeBusDeleted          = "bus_deleted"
	TypeRouteCreated        = "route_created"
	TypeRouteUpdated        = "route_updated"
	TypeBookingCreated      = "booking_created"
	TypeBookingCancelled    = "booking_cancelled"
	TypeUserRegistered      = "user_registered"
	TypeUserUpdated         = "user_updated"
	TypeUserDeleted         = "user_deleted"
	TypeSettingsUpdated     = "settings_updated"
	TypeActivityLogged      = "activity_logged"
	TypeAvailabilityUpdated = "seat_availability_updated"
)

// AllTypes lists every update kind, for SubscribeAll.
func AllTypes() []string {
	return []string{
		TypeBusCreated, TypeBusUpdated, TypeBusDeleted,
		TypeRouteCreated, TypeRouteUpdated,
		TypeBookingCreated, TypeBookingCancelled,
		TypeUserRegistered, TypeUserUpdated, TypeUserDeleted,
		TypeSettingsUpdated, TypeActivityLogged, TypeAvailabilityUpdated,
	}
}

// Event is the uniform envelope delivered to every subscriber, whether the
// mutation originated in this process or arrived through the relay.
type Event struct {
	Type      string    `json:"type"`
	Data      any       `json:"data"`
	Timestamp time.Time `json:"timestamp"`
	UpdatedBy string    `json:"updatedBy,omitempty"`
	Origin    string    `json:"origin,omitempty"`
}

const relayChannel = "campusbus.updates"

type subscriber struct {
	types map[string]bool
	cb    func(Event)
}

// Hub relays domain mutations to in-process subscribers. When a Redis relay
// is configured it also publishes every local event and re-broadcasts
// foreign-origin events observed on the shared channel, so dashboards see
// other instances' writes alongside local ones. The hub never owns data; it
// only relays it, and by the time an event is delivered the local mirror
// already reflects the change.
type Hub struct {
	mu         sync.RWMutex
	subs       map[int]*subscriber
	nextID     int
	relay      *infredis.Client
	instanceID string
	cancel     context.CancelFunc
	logger     *slog.Logger
}

// NewHub creates a hub. relay may be nil when Redis is not configured.
func NewHub(relay *infredis.Client, logger *slog.Logger) *Hub {
	if logger == nil {
		logger = slog.Default()
	}
	return &Hub{
		subs:       make(map[int]*subscriber),
		relay:      relay,
		instanceID: uuid.NewString(),
		logger:     logger,
	}
}

// Initialize starts the relay listener. Without a relay it is a no-op.
func (h *Hub) Initialize(ctx context.Context) {
	if h.relay == nil {
		return
	}

	relayCtx, cancel := context.WithCancel(ctx)
	h.mu.Lock()
	h.cancel = cancel
	h.mu.Unlock()

	pubsub := h.relay.Subscribe(relayCtx, relayChannel)
	go func() {
		defer pubsub.Close()
		for {
			select {
			case <-relayCtx.Done():
				return
			case msg, ok := <-pubsub.Channel():
				if !ok {
					return
				}
				var ev Event
				if err := json.Unmarshal([]byte(msg.Payload), &ev); err != nil {
					h.logger.Warn("dropping undecodable relay event", slog.String("error", err.Error()))
					continue
				}
				if ev.Origin == h.instanceID {
					continue
				}
				metrics.ObserveBroadcast(ev.Type, "remote")
				h.fanOut(ev)
			}
		}
	}()

	h.logger.Info("broadcast relay attached", slog.String("channel", relayChannel))
}

// Subscribe registers interest in a subset of update kinds and returns an
// unsubscribe closure.
func (h *Hub) Subscribe(types []string, cb func(Event)) func() {
	set := make(map[string]bool, len(types))
	for _, t := range types {
		set[strings.TrimSpace(t)] = true
	}

	h.mu.Lock()
	id := h.nextID
	h.nextID++
	h.subs[id] = &subscriber{types: set, cb: cb}
	count := len(h.subs)
	h.mu.Unlock()
	metrics.SetSubscribers(count)

	return func() {
		h.mu.Lock()
		delete(h.subs, id)
		count := len(h.subs)
		h.mu.Unlock()
		metrics.SetSubscribers(count)
	}
}

// SubscribeAll is sugar over the full type set.
func (h *Hub) SubscribeAll(cb func(Event)) func() {
	return h.Subscribe(AllTypes(), cb)
}

// TriggerUpdate wraps a mutation into an envelope and fans it out. Callers
// that bypass the domain services may inject events manually through it.
func (h *Hub) TriggerUpdate(eventType string, data any, updatedBy string) {
	ev := Event{
		Type:      eventType,
		Data:      data,
		Timestamp: time.Now().UTC(),
		UpdatedBy: updatedBy,
		Origin:    h.instanceID,
	}

	metrics.ObserveBroadcast(ev.Type, "local")
	h.fanOut(ev)
	h.publish(ev)
}

// Cleanup detaches the relay listener and clears all subscribers. Intended
// to run once at process teardown.
func (h *Hub) Cleanup() {
	h.mu.Lock()
	if h.cancel != nil {
		h.cancel()
		h.cancel = nil
	}
	h.subs = make(map[int]*subscriber)
	h.mu.Unlock()
	metrics.SetSubscribers(0)
}

// fanOut delivers synchronously to every matching subscriber. A panicking
// subscriber is isolated so it cannot block delivery to the others.
func (h *Hub) fanOut(ev Event) {
	h.mu.RLock()
	matched := make([]func(Event), 0, len(h.subs))
	for _, sub := range h.subs {
		if sub.types[ev.Type] {
			matched = append(matched, sub.cb)
		}
	}
	h.mu.RUnlock()

	for _, cb := range matched {
		h.deliver(cb, ev)
	}
}

func (h *Hub) deliver(cb func(Event), ev Event) {
	defer func() {
		if r := recover(); r != nil {
			h.logger.Error("subscriber panicked",
				slog.String("type", ev.Type),
				slog.Any("panic", r),
			)
		}
	}()
	cb(ev)
}

func (h *Hub) publish(ev Event) {
	if h.relay == nil {
		return
	}

	payload, err := json.Marshal(ev)
	if err != nil {
		h.logger.Warn("relay event marshal failed", slog.String("error", err.Error()))
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := h.relay.Publish(ctx, relayChannel, payload); err != nil {
		h.logger.Warn("relay publish failed", slog.String("error", err.Error()))
	}
}
