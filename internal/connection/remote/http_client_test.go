package remote

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/bwmarrin/snowflake"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"go.uber.org/zap"

	connectiondomain "github.com/venturebridge/venturebridge/internal/connection/domain"
	obsmetrics "github.com/venturebridge/venturebridge/internal/observability/metrics"
)

func newTestClient(t *testing.T, handler http.Handler) (*Client, *httptest.Server) {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return NewClient(srv.URL, zap.NewNop(), nil), srv
}

func TestCreateConnectionSuccess(t *testing.T) {
	var gotPath string
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		var body map[string]string
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			t.Fatalf("decode body: %v", err)
		}
		if body["initiator_id"] != "1" || body["recipient_id"] != "2" {
			t.Fatalf("unexpected body %v", body)
		}
		w.WriteHeader(http.StatusCreated)
		_ = json.NewEncoder(w).Encode(map[string]any{"data": map[string]string{"id": "12345"}})
	}))

	id, err := client.CreateConnection(context.Background(), snowflake.ID(1), snowflake.ID(2))
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if id != snowflake.ID(12345) {
		t.Fatalf("expected id 12345, got %d", id)
	}
	if gotPath != "/api/connections" {
		t.Fatalf("unexpected path %s", gotPath)
	}
}

func TestCreateConnectionConflict(t *testing.T) {
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusConflict)
		_ = json.NewEncoder(w).Encode(map[string]any{"error": map[string]string{"type": "conflict"}})
	}))

	_, err := client.CreateConnection(context.Background(), snowflake.ID(1), snowflake.ID(2))
	if !errors.Is(err, connectiondomain.ErrAlreadyExists) {
		t.Fatalf("expected ErrAlreadyExists, got %v", err)
	}
}

func TestCreateConnectionSelfTarget(t *testing.T) {
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		_ = json.NewEncoder(w).Encode(map[string]any{"error": map[string]string{"type": "self_target", "message": "cannot target own account"}})
	}))

	_, err := client.CreateConnection(context.Background(), snowflake.ID(1), snowflake.ID(1))
	if !errors.Is(err, connectiondomain.ErrSelfTarget) {
		t.Fatalf("expected ErrSelfTarget, got %v", err)
	}
}

func TestGetConnectionNone(t *testing.T) {
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("a") != "1" || r.URL.Query().Get("b") != "2" {
			t.Fatalf("unexpected query %s", r.URL.RawQuery)
		}
		_ = json.NewEncoder(w).Encode(map[string]any{"data": nil})
	}))

	rel, err := client.GetConnection(context.Background(), snowflake.ID(1), snowflake.ID(2))
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if rel != nil {
		t.Fatalf("expected nil relationship, got %+v", rel)
	}
}

func TestGetConnectionDecodes(t *testing.T) {
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]any{"data": map[string]any{
			"connection_id": "12345",
			"initiator_id":  "1",
			"recipient_id":  "2",
			"status":        "accepted",
			"deal_closed":   true,
		}})
	}))

	rel, err := client.GetConnection(context.Background(), snowflake.ID(1), snowflake.ID(2))
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if rel.Status != connectiondomain.StatusAccepted || !rel.DealClosed {
		t.Fatalf("unexpected relationship %+v", rel)
	}
	if rel.ConnectionID != snowflake.ID(12345) {
		t.Fatalf("unexpected id %d", rel.ConnectionID)
	}
}

func TestUpdateStatusNotFound(t *testing.T) {
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		_ = json.NewEncoder(w).Encode(map[string]any{"error": map[string]string{"type": "not_found"}})
	}))

	err := client.UpdateStatus(context.Background(), snowflake.ID(12345), connectiondomain.StatusAccepted)
	if !errors.Is(err, connectiondomain.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestTransportFailureIsRemoteUnavailable(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	srv.Close()
	client := NewClient(srv.URL, zap.NewNop(), nil)

	_, err := client.GetConnection(context.Background(), snowflake.ID(1), snowflake.ID(2))
	if !errors.Is(err, connectiondomain.ErrRemoteUnavailable) {
		t.Fatalf("expected ErrRemoteUnavailable, got %v", err)
	}
}

func TestServerErrorIsRemoteUnavailable(t *testing.T) {
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))

	err := client.DeleteConnection(context.Background(), snowflake.ID(12345))
	if !errors.Is(err, connectiondomain.ErrRemoteUnavailable) {
		t.Fatalf("expected ErrRemoteUnavailable, got %v", err)
	}
}

func TestFailuresRecordedPerOperation(t *testing.T) {
	reg := prometheus.NewRegistry()
	m, err := obsmetrics.New(reg)
	if err != nil {
		t.Fatalf("metrics: %v", err)
	}

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	t.Cleanup(srv.Close)
	client := NewClient(srv.URL, zap.NewNop(), m)

	if err := client.UpdateStatus(context.Background(), snowflake.ID(12345), connectiondomain.StatusAccepted); !errors.Is(err, connectiondomain.ErrRemoteUnavailable) {
		t.Fatalf("expected ErrRemoteUnavailable, got %v", err)
	}
	if err := client.MarkDealClosed(context.Background(), snowflake.ID(12345)); !errors.Is(err, connectiondomain.ErrRemoteUnavailable) {
		t.Fatalf("expected ErrRemoteUnavailable, got %v", err)
	}

	count, err := testutil.GatherAndCount(reg, "venturebridge_remote_failures_total")
	if err != nil {
		t.Fatalf("gather: %v", err)
	}
	if count != 2 {
		t.Fatalf("expected 2 failure series, got %d", count)
	}
}
