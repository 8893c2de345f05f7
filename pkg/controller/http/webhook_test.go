package http_test

import (
	"bytes"
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	controller "github.com/m-mizutani/drover/pkg/controller/http"
	"github.com/m-mizutani/drover/pkg/domain/model"
)

const testSecret = "test-secret"

// stubWebhookUC records processed events.
type stubWebhookUC struct {
	mu     sync.Mutex
	events []*model.PushEvent
}

func (uc *stubWebhookUC) ProcessEvent(_ context.Context, event *model.PushEvent) error {
	uc.mu.Lock()
	defer uc.mu.Unlock()
	uc.events = append(uc.events, event)
	return nil
}

func (uc *stubWebhookUC) Events() []*model.PushEvent {
	uc.mu.Lock()
	defer uc.mu.Unlock()
	return append([]*model.PushEvent(nil), uc.events...)
}

func sign(payload []byte) string {
	mac := hmac.New(sha256.New, []byte(testSecret))
	mac.Write(payload)
	return "sha256=" + hex.EncodeToString(mac.Sum(nil))
}

const pushPayload = `{
  "ref": "refs/tags/v1.0.0",
  "after": "abc123",
  "deleted": false,
  "repository": {"full_name": "owner/realalg"},
  "sender": {"login": "dev"}
}`

func newTestServer(t *testing.T, uc *stubWebhookUC) *controller.Server {
	t.Helper()
	server, err := controller.NewServer(
		context.Background(),
		uc,
		controller.WithAddr("localhost:0"),
		controller.WithWebhookSecret(testSecret),
	)
	if err != nil {
		t.Fatalf("Failed to create server: %v", err)
	}
	return server
}

func TestWebhookHandler_PushEvent(t *testing.T) {
	uc := &stubWebhookUC{}
	server := newTestServer(t, uc)

	body := []byte(pushPayload)
	req := httptest.NewRequest(http.MethodPost, "/hooks/github/push", bytes.NewReader(body))
	req.Header.Set("X-GitHub-Event", "push")
	req.Header.Set("X-GitHub-Delivery", "delivery-1")
	req.Header.Set("X-Hub-Signature-256", sign(body))
	req.Header.Set("Content-Type", "application/json")

	w := httptest.NewRecorder()
	server.Handler.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("Status code = %v, want %v, body = %s", w.Code, http.StatusOK, w.Body.String())
	}

	events := uc.Events()
	if len(events) != 1 {
		t.Fatalf("events = %d, want 1", len(events))
	}

	event := events[0]
	if event.ID != "delivery-1" {
		t.Errorf("ID = %q", event.ID)
	}
	if event.Ref != "refs/tags/v1.0.0" {
		t.Errorf("Ref = %q", event.Ref)
	}
	if event.Commit != "abc123" {
		t.Errorf("Commit = %q", event.Commit)
	}
	if event.Repository != "owner/realalg" {
		t.Errorf("Repository = %q", event.Repository)
	}
	if event.Sender != "dev" {
		t.Errorf("Sender = %q", event.Sender)
	}

	trigger := event.Trigger()
	if !trigger.IsTag || trigger.Tag != "v1.0.0" {
		t.Errorf("trigger = %+v, want tag push v1.0.0", trigger)
	}
}

func TestWebhookHandler_InvalidSignature(t *testing.T) {
	uc := &stubWebhookUC{}
	server := newTestServer(t, uc)

	body := []byte(pushPayload)
	req := httptest.NewRequest(http.MethodPost, "/hooks/github/push", bytes.NewReader(body))
	req.Header.Set("X-GitHub-Event", "push")
	req.Header.Set("X-Hub-Signature-256", "sha256=deadbeef")

	w := httptest.NewRecorder()
	server.Handler.ServeHTTP(w, req)

	if w.Code != http.StatusUnauthorized {
		t.Errorf("Status code = %v, want %v", w.Code, http.StatusUnauthorized)
	}
	if len(uc.Events()) != 0 {
		t.Error("event should not be processed with an invalid signature")
	}
}

func TestWebhookHandler_MissingSignature(t *testing.T) {
	uc := &stubWebhookUC{}
	server := newTestServer(t, uc)

	body := []byte(pushPayload)
	req := httptest.NewRequest(http.MethodPost, "/hooks/github/push", bytes.NewReader(body))
	req.Header.Set("X-GitHub-Event", "push")

	w := httptest.NewRecorder()
	server.Handler.ServeHTTP(w, req)

	if w.Code != http.StatusUnauthorized {
		t.Errorf("Status code = %v, want %v", w.Code, http.StatusUnauthorized)
	}
}

func TestWebhookHandler_IgnoresNonPushEvents(t *testing.T) {
	uc := &stubWebhookUC{}
	server := newTestServer(t, uc)

	body := []byte(`{"zen": "Keep it logically awesome.", "hook_id": 1}`)
	req := httptest.NewRequest(http.MethodPost, "/hooks/github/push", bytes.NewReader(body))
	req.Header.Set("X-GitHub-Event", "ping")
	req.Header.Set("X-Hub-Signature-256", sign(body))

	w := httptest.NewRecorder()
	server.Handler.ServeHTTP(w, req)

	if w.Code != http.StatusAccepted {
		t.Errorf("Status code = %v, want %v", w.Code, http.StatusAccepted)
	}
	if len(uc.Events()) != 0 {
		t.Error("non-push events should not trigger runs")
	}
}
