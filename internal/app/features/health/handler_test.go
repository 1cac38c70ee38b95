package health_test

import (
	"context"
	"net/http"
	"testing"

	"github.com/dalemusser/taskhub/internal/app/features/health"
	"github.com/dalemusser/taskhub/internal/testutil"
	"go.uber.org/zap"
)

type fixedCounter int64

func (c fixedCounter) InFlight() int64 { return int64(c) }

type healthBody struct {
	Status         string `json:"status"`
	Database       string `json:"database"`
	EventsInFlight int64  `json:"events_in_flight"`
}

func TestServe_DatabaseConnected(t *testing.T) {
	db := testutil.SetupTestDB(t)
	handler := health.NewHandler(db.Client(), fixedCounter(3), zap.NewNop())

	rec := testutil.NewRecorder()
	handler.Serve(rec, testutil.NewRequest("GET", "/health"))

	rec.AssertStatus(t, http.StatusOK)
	if ct := rec.Header().Get("Content-Type"); ct != "application/json" {
		t.Errorf("Content-Type: got %q, want %q", ct, "application/json")
	}

	var body healthBody
	rec.DecodeJSON(t, &body)
	if body.Status != "ok" || body.Database != "connected" || body.EventsInFlight != 3 {
		t.Errorf("unexpected body: %+v", body)
	}
}

func TestServe_DatabaseDisconnected(t *testing.T) {
	db := testutil.SetupTestDB(t)
	client := db.Client()
	if err := client.Disconnect(context.Background()); err != nil {
		t.Fatalf("Disconnect failed: %v", err)
	}
	handler := health.NewHandler(client, nil, zap.NewNop())

	rec := testutil.NewRecorder()
	handler.Serve(rec, testutil.NewRequest("GET", "/health"))

	rec.AssertStatus(t, http.StatusServiceUnavailable)
	var body healthBody
	rec.DecodeJSON(t, &body)
	if body.Status != "error" || body.Database != "disconnected" {
		t.Errorf("unexpected body: %+v", body)
	}
}
