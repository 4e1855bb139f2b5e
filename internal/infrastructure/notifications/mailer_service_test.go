package notifications

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/rs/zerolog"
)

func TestMailerServiceImpl_SendMagicCode(t *testing.T) {
	var captured sendEmailRequest
	var path string

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		path = r.URL.Path
		if err := json.NewDecoder(r.Body).Decode(&captured); err != nil {
			t.Fatalf("failed to decode body: %v", err)
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	svc := NewMailerService(srv.URL, zerolog.Nop())
	err := svc.SendMagicCode(context.Background(), "student@ueab.ac.ke", "Japheth Korir", "452190", 10)
	if err != nil {
		t.Fatalf("SendMagicCode() error = %v", err)
	}

	if path != "/api/send-email" {
		t.Errorf("path = %q, want /api/send-email", path)
	}
	if captured.To != "student@ueab.ac.ke" {
		t.Errorf("to = %q", captured.To)
	}
	if captured.Template != "magic_code" {
		t.Errorf("template = %q, want magic_code", captured.Template)
	}
	if captured.Data["code"] != "452190" {
		t.Errorf("data.code = %v, want 452190", captured.Data["code"])
	}
	if captured.Data["expiryMinutes"] != float64(10) {
		t.Errorf("data.expiryMinutes = %v, want 10", captured.Data["expiryMinutes"])
	}
}

func TestMailerServiceImpl_ServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	svc := NewMailerService(srv.URL, zerolog.Nop())
	if err := svc.SendMagicCode(context.Background(), "student@ueab.ac.ke", "", "452190", 10); err == nil {
		t.Error("expected error on HTTP 500")
	}
}

func TestMailerServiceImpl_UnconfiguredLogsInstead(t *testing.T) {
	svc := NewMailerService("", zerolog.Nop())
	if err := svc.SendMagicCode(context.Background(), "student@ueab.ac.ke", "", "452190", 10); err != nil {
		t.Errorf("unconfigured mailer must not fail: %v", err)
	}
}
