package test

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/yourorg/campusbus/internal/broadcast"
	"github.com/yourorg/campusbus/internal/domain"
	"github.com/yourorg/campusbus/internal/handler"
	"github.com/yourorg/campusbus/internal/infrastructure/logger"
	"github.com/yourorg/campusbus/internal/notifier"
	"github.com/yourorg/campusbus/internal/repository"
	"github.com/yourorg/campusbus/internal/security/audit"
	"github.com/yourorg/campusbus/internal/security/auth"
	"github.com/yourorg/campusbus/internal/security/middleware"
	"github.com/yourorg/campusbus/internal/security/ratelimit"
	"github.com/yourorg/campusbus/internal/service"
)

// TestServerHelper wires the full HTTP surface over a memory-only mirror, no
// remote store and no relay, so flows can be driven end to end without any
// running backend.
type TestServerHelper struct {
	Server *httptest.Server
	Hub    *broadcast.Hub
}

func NewTestServer(t *testing.T) *TestServerHelper {
	t.Helper()
	log := logger.NewLogger("error")

	mirror := repository.NewLocalMirror("", log)
	buses := repository.NewCollection[domain.Bus](domain.CollectionBuses, mirror, nil, log)
	routes := repository.NewCollection[domain.Route](domain.CollectionRoutes, mirror, nil, log)
	bookings := repository.NewCollection[domain.Booking](domain.CollectionBookings, mirror, nil, log)
	activities := repository.NewCollection[domain.ActivityEntry](domain.CollectionActivities, mirror, nil, log)
	settings := repository.NewCollection[domain.SystemSettings](domain.CollectionSettings, mirror, nil, log)
	availability := repository.NewCollection[domain.SeatAvailability](domain.CollectionAvailability, mirror, nil, log)

	hub := broadcast.NewHub(nil, log)

	activityService := service.NewActivityService(activities, hub, log)
	settingsService := service.NewSettingsService(settings, activityService, hub, log)
	busService := service.NewBusService(buses, activityService, hub, log)
	routeService := service.NewRouteService(routes, activityService, hub, log)
	bookingService := service.NewBookingService(bookings, buses, availability, settingsService, activityService, hub, log)
	userService := service.NewUserService(mirror, nil, activityService, hub, log)

	otpStore := service.NewOTPStore(time.Minute, log)
	t.Cleanup(otpStore.Stop)
	resetService := service.NewPasswordResetService(userService, otpStore, notifier.NewConsoleNotifier(log), log)

	tokenManager := auth.NewTokenManager("integration-test-secret", "campusbus")
	rateLimiter := ratelimit.NewLimiter(1000, time.Minute)
	t.Cleanup(rateLimiter.Stop)

	authHandler := handler.NewAuthHandler(userService, resetService, tokenManager, rateLimiter, time.Hour, log)
	busHandler := handler.NewBusHandler(busService, bookingService, log)
	routeHandler := handler.NewRouteHandler(routeService, log)
	bookingHandler := handler.NewBookingHandler(bookingService, log)
	userHandler := handler.NewUserHandler(userService, log)
	activityHandler := handler.NewActivityHandler(activityService, log)
	settingsHandler := handler.NewSettingsHandler(settingsService, log)
	healthHandler := handler.NewHealthHandler(nil, nil, log)

	admin := func(h http.HandlerFunc) http.HandlerFunc {
		return middleware.RequireRole(h, string(domain.RoleAdmin))
	}

	mux := http.NewServeMux()
	mux.HandleFunc("POST /api/auth/register", authHandler.Register)
	mux.HandleFunc("POST /api/auth/login", authHandler.Login)
	mux.HandleFunc("POST /api/auth/password-reset/request", authHandler.RequestReset)
	mux.HandleFunc("POST /api/auth/password-reset/confirm", authHandler.ConfirmReset)

	mux.HandleFunc("GET /api/buses", busHandler.List)
	mux.HandleFunc("POST /api/buses", admin(busHandler.Create))
	mux.HandleFunc("GET /api/buses/{id}", busHandler.Get)
	mux.HandleFunc("PATCH /api/buses/{id}", admin(busHandler.Update))
	mux.HandleFunc("DELETE /api/buses/{id}", admin(busHandler.Delete))
	mux.HandleFunc("GET /api/buses/{id}/availability", busHandler.Availability)
	mux.HandleFunc("GET /api/buses/{id}/bookings", busHandler.Bookings)
	mux.HandleFunc("GET /api/buses/{id}/summary", admin(busHandler.Summary))

	mux.HandleFunc("GET /api/routes", routeHandler.List)
	mux.HandleFunc("POST /api/routes", admin(routeHandler.Create))
	mux.HandleFunc("PATCH /api/routes/{id}", admin(routeHandler.Update))

	mux.HandleFunc("GET /api/bookings", bookingHandler.List)
	mux.HandleFunc("POST /api/bookings", bookingHandler.Create)
	mux.HandleFunc("POST /api/bookings/{id}/cancel", bookingHandler.Cancel)
	mux.HandleFunc("GET /api/bookings/summaries", admin(bookingHandler.Summaries))

	mux.HandleFunc("GET /api/users", admin(userHandler.List))
	mux.HandleFunc("PATCH /api/users/{id}", userHandler.Update)
	mux.HandleFunc("DELETE /api/users/{id}", admin(userHandler.Delete))

	mux.HandleFunc("GET /api/activities", admin(activityHandler.List))
	mux.HandleFunc("GET /api/settings", settingsHandler.Get)
	mux.HandleFunc("PUT /api/settings", admin(settingsHandler.Update))

	mux.HandleFunc("GET /healthz", healthHandler.Health)
	mux.HandleFunc("GET /readyz", healthHandler.Ready)
	mux.Handle("/metrics", promhttp.Handler())

	root := middleware.RequestIDMiddleware(
		middleware.CORSMiddleware([]string{"*"})(
			middleware.JWTMiddleware(tokenManager, log)(
				middleware.RateLimitMiddleware(rateLimiter, log)(
					middleware.AuditMiddleware(audit.NewLogger(log))(mux),
				),
			),
		),
	)

	server := httptest.NewServer(root)
	t.Cleanup(server.Close)
	t.Cleanup(hub.Cleanup)

	return &TestServerHelper{Server: server, Hub: hub}
}

func (h *TestServerHelper) URL() string {
	return h.Server.URL
}

// Do sends a JSON request with an optional bearer token and decodes the
// response body into out when out is non-nil.
func (h *TestServerHelper) Do(t *testing.T, method, path, token string, body, out any) *http.Response {
	t.Helper()

	var reader io.Reader
	if body != nil {
		encoded, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("failed to encode request body: %v", err)
		}
		reader = bytes.NewReader(encoded)
	}

	req, err := http.NewRequest(method, h.Server.URL+path, reader)
	if err != nil {
		t.Fatalf("failed to build request: %v", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("%s %s failed: %v", method, path, err)
	}
	t.Cleanup(func() { resp.Body.Close() })

	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			t.Fatalf("failed to decode %s %s response: %v", method, path, err)
		}
	}
	return resp
}

// RegisterAndLogin creates an account through the public endpoints and
// returns a bearer token for it.
func (h *TestServerHelper) RegisterAndLogin(t *testing.T, role domain.Role, identifier, email, password string) string {
	t.Helper()

	resp := h.Do(t, http.MethodPost, "/api/auth/register", "", map[string]any{
		"role":       role,
		"identifier": identifier,
		"name":       "Integration Account",
		"email":      email,
		"password":   password,
	}, nil)
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("register %s failed with status %d", identifier, resp.StatusCode)
	}

	var login struct {
		Token string `json:"token"`
	}
	resp = h.Do(t, http.MethodPost, "/api/auth/login", "", map[string]string{
		"identifier": identifier,
		"password":   password,
	}, &login)
	if resp.StatusCode != http.StatusOK || login.Token == "" {
		t.Fatalf("login %s failed with status %d", identifier, resp.StatusCode)
	}
	return login.Token
}

func AssertStatusCode(t *testing.T, resp *http.Response, expected int) {
	t.Helper()
	if resp.StatusCode != expected {
		t.Fatalf("expected status %d, got %d", expected, resp.StatusCode)
	}
}
