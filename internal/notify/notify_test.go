package notify

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/mongokit/mongokit/internal/config"
)

func TestWebhookPostsEventJSON(t *testing.T) {
	var got Event
	var contentType, agent, token string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		contentType = r.Header.Get("Content-Type")
		agent = r.Header.Get("User-Agent")
		token = r.Header.Get("X-Token")
		if err := json.NewDecoder(r.Body).Decode(&got); err != nil {
			t.Errorf("decode payload: %v", err)
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	nf, err := NewWebhook(srv.URL, map[string]string{"X-Token": "abc"})
	if err != nil {
		t.Fatalf("NewWebhook: %v", err)
	}

	event := Event{
		Operation:  "backup",
		Connection: "prod",
		Status:     StatusSuccess,
		Archive:    "/backups/backup_20260825_143005_prod.gz",
		Bytes:      1024,
		Duration:   "1.2s",
	}
	if err := nf.Notify(context.Background(), event); err != nil {
		t.Fatalf("Notify: %v", err)
	}

	if contentType != "application/json" {
		t.Fatalf("unexpected content type %q", contentType)
	}
	if agent != "mongokit" {
		t.Fatalf("unexpected user agent %q", agent)
	}
	if token != "abc" {
		t.Fatalf("configured header not sent, got %q", token)
	}
	if got != event {
		t.Fatalf("payload mismatch: got %+v, want %+v", got, event)
	}
}

func TestWebhookRejectionCarriesStatusAndBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
		w.Write([]byte("bad signature"))
	}))
	defer srv.Close()

	nf, err := NewWebhook(srv.URL, nil)
	if err != nil {
		t.Fatalf("NewWebhook: %v", err)
	}

	err = nf.Notify(context.Background(), Event{Operation: "backup", Status: StatusFailure})
	if err == nil {
		t.Fatal("expected error for non-2xx response")
	}
	if !strings.Contains(err.Error(), "502") || !strings.Contains(err.Error(), "bad signature") {
		t.Fatalf("error should carry status and body snippet, got %v", err)
	}
	if !strings.Contains(err.Error(), "backup") {
		t.Fatalf("error should name the operation, got %v", err)
	}
}

func TestDispatcherRoutesByStatus(t *testing.T) {
	var calls int
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		calls++
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	d, err := NewDispatcher([]config.NotificationConfig{
		{
			Type:   "webhook",
			On:     []string{"failure"},
			Config: config.NotificationDetails{URL: srv.URL},
		},
	})
	if err != nil {
		t.Fatalf("NewDispatcher: %v", err)
	}

	if err := d.Notify(context.Background(), Event{Status: StatusSuccess}); err != nil {
		t.Fatalf("Notify success: %v", err)
	}
	if calls != 0 {
		t.Fatalf("failure-only route fired on success (%d calls)", calls)
	}

	if err := d.Notify(context.Background(), Event{Status: StatusFailure}); err != nil {
		t.Fatalf("Notify failure: %v", err)
	}
	if calls != 1 {
		t.Fatalf("expected 1 call, got %d", calls)
	}
}

func TestNewDispatcherRejectsUnknownType(t *testing.T) {
	_, err := NewDispatcher([]config.NotificationConfig{
		{Type: "carrier-pigeon", On: []string{"both"}},
	})
	if err == nil {
		t.Fatal("expected error for unsupported type")
	}
}

func TestParseOn(t *testing.T) {
	cases := []struct {
		in        []string
		onSuccess bool
		onFailure bool
		wantErr   bool
	}{
		{in: []string{"success"}, onSuccess: true},
		{in: []string{"failure"}, onFailure: true},
		{in: []string{"both"}, onSuccess: true, onFailure: true},
		{in: []string{"success", "failure"}, onSuccess: true, onFailure: true},
		{in: nil, wantErr: true},
		{in: []string{"sometimes"}, wantErr: true},
	}

	for _, tc := range cases {
		gotS, gotF, err := parseOn(tc.in)
		if tc.wantErr {
			if err == nil {
				t.Fatalf("parseOn(%v): expected error", tc.in)
			}
			continue
		}
		if err != nil {
			t.Fatalf("parseOn(%v): %v", tc.in, err)
		}
		if gotS != tc.onSuccess || gotF != tc.onFailure {
			t.Fatalf("parseOn(%v) = (%v, %v), want (%v, %v)", tc.in, gotS, gotF, tc.onSuccess, tc.onFailure)
		}
	}
}
