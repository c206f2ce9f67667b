package webhook

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/creatorsconnections/liveboard/internal/webhook"
)

func samplePayload() webhook.ReportPayload {
	return webhook.ReportPayload{
		ReportID:    "report-1",
		Kind:        webhook.ReportSessionEnd,
		CommunityID: "guild-1",
		PostedAt:    time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC),
		TopGifters:  []webhook.ReportEntry{{Name: "alice", Score: 12}},
		TopLikers:   []webhook.ReportEntry{{Name: "bob", Score: 400}},
	}
}

func TestSendReport_EmptyWebhookURL(t *testing.T) {
	sender := NewHTTPSender("")
	if err := sender.SendReport(context.Background(), samplePayload()); err != nil {
		t.Fatalf("expected nil error, got %v", err)
	}
}

func TestSendReport_Success(t *testing.T) {
	var got webhook.ReportPayload

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			t.Fatalf("unexpected method: %s", r.Method)
		}
		if ct := r.Header.Get("Content-Type"); ct != "application/json" {
			t.Fatalf("unexpected content type: %s", ct)
		}
		if err := json.NewDecoder(r.Body).Decode(&got); err != nil {
			t.Fatalf("failed to decode payload: %v", err)
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	sender := NewHTTPSender(server.URL)
	if err := sender.SendReport(context.Background(), samplePayload()); err != nil {
		t.Fatalf("expected nil error, got %v", err)
	}
	if got.ReportID != "report-1" || got.Kind != webhook.ReportSessionEnd {
		t.Fatalf("unexpected payload: %+v", got)
	}
	if len(got.TopGifters) != 1 || got.TopGifters[0].Name != "alice" {
		t.Fatalf("unexpected gifters: %+v", got.TopGifters)
	}
}

func TestSendReport_ServerError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	sender := NewHTTPSender(server.URL)
	if err := sender.SendReport(context.Background(), samplePayload()); err == nil {
		t.Fatal("expected error for non-2xx response")
	}
}
