package handler

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/yourorg/campusbus/internal/broadcast"
	"github.com/yourorg/campusbus/internal/domain"
	"github.com/yourorg/campusbus/internal/notifier"
	"github.com/yourorg/campusbus/internal/repository"
	"github.com/yourorg/campusbus/internal/security/auth"
	"github.com/yourorg/campusbus/internal/security/ratelimit"
	"github.com/yourorg/campusbus/internal/service"
)

func newAuthHandler(t *testing.T) *AuthHandler {
	t.Helper()

	mirror := repository.NewLocalMirror("", nil)
	hub := broadcast.NewHub(nil, nil)
	activityCol := repository.NewCollection[domain.ActivityEntry](domain.CollectionActivities, mirror, nil, nil)
	activities := service.NewActivityService(activityCol, hub, nil)
	users := service.NewUserService(mirror, nil, activities, hub, nil)

	otp := service.NewOTPStore(time.Minute, nil)
	t.Cleanup(otp.Stop)
	reset := service.NewPasswordResetService(users, otp, notifier.NewConsoleNotifier(nil), nil)

	limiter := ratelimit.NewLimiter(1000, time.Minute)
	t.Cleanup(limiter.Stop)

	tm := auth.NewTokenManager("test-secret", "campusbus")
	return NewAuthHandler(users, reset, tm, limiter, time.Hour, nil)
}

func TestRegisterAndLoginEndpoints(t *testing.T) {
	h := newAuthHandler(t)

	body := `{"role":"student","identifier":"UG20/COMS/1184","name":"Test Student","email":"ug20@campus.edu","password":"secret-pass-1"}`
	rec := httptest.NewRecorder()
	h.Register(rec, httptest.NewRequest(http.MethodPost, "/api/auth/register", strings.NewReader(body)))

	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", rec.Code, rec.Body.String())
	}
	if strings.Contains(rec.Body.String(), "passwordHash") {
		t.Fatalf("credential hash leaked in response: %s", rec.Body.String())
	}

	var registered struct {
		User       UserDTO `json:"user"`
		SyncStatus string  `json:"syncStatus"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &registered); err != nil {
		t.Fatalf("undecodable response: %v", err)
	}
	if registered.SyncStatus != string(repository.OutcomeLocal) {
		t.Fatalf("expected local outcome without a remote store, got %q", registered.SyncStatus)
	}

	rec = httptest.NewRecorder()
	h.Login(rec, httptest.NewRequest(http.MethodPost, "/api/auth/login",
		strings.NewReader(`{"identifier":"UG20/COMS/1184","password":"secret-pass-1"}`)))
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}

	var login LoginResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &login); err != nil {
		t.Fatalf("undecodable login response: %v", err)
	}
	if login.Token == "" || login.User.Role != domain.RoleStudent {
		t.Fatalf("unexpected login response: %+v", login)
	}
}

func TestLoginRejectsBadCredentials(t *testing.T) {
	h := newAuthHandler(t)

	rec := httptest.NewRecorder()
	h.Login(rec, httptest.NewRequest(http.MethodPost, "/api/auth/login",
		strings.NewReader(`{"identifier":"UG20/COMS/1184","password":"whatever"}`)))
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 for unknown account, got %d", rec.Code)
	}
}

func TestRegisterConflictMapsTo409(t *testing.T) {
	h := newAuthHandler(t)

	body := `{"role":"student","identifier":"UG20/COMS/1184","name":"Test Student","email":"ug20@campus.edu","password":"secret-pass-1"}`
	rec := httptest.NewRecorder()
	h.Register(rec, httptest.NewRequest(http.MethodPost, "/api/auth/register", strings.NewReader(body)))
	if rec.Code != http.StatusCreated {
		t.Fatalf("seed register failed: %d", rec.Code)
	}

	rec = httptest.NewRecorder()
	h.Register(rec, httptest.NewRequest(http.MethodPost, "/api/auth/register", strings.NewReader(body)))
	if rec.Code != http.StatusConflict {
		t.Fatalf("expected 409 for duplicate identifier, got %d", rec.Code)
	}
}

func TestResetRequestAlwaysNeutral(t *testing.T) {
	h := newAuthHandler(t)

	rec := httptest.NewRecorder()
	h.RequestReset(rec, httptest.NewRequest(http.MethodPost, "/api/auth/password-reset/request",
		strings.NewReader(`{"email":"nobody@campus.edu"}`)))
	if rec.Code != http.StatusOK {
		t.Fatalf("expected neutral 200 for unknown email, got %d", rec.Code)
	}
}
