package server

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/venturebridge/venturebridge/internal/clock"
	"github.com/venturebridge/venturebridge/internal/config"
	connectiondomain "github.com/venturebridge/venturebridge/internal/connection/domain"
	connectionrepo "github.com/venturebridge/venturebridge/internal/connection/repository"
	"github.com/venturebridge/venturebridge/internal/pricing"
	subscriptiondomain "github.com/venturebridge/venturebridge/internal/subscription/domain"
	subscriptionrepo "github.com/venturebridge/venturebridge/internal/subscription/repository"
	subscriptionservice "github.com/venturebridge/venturebridge/internal/subscription/service"
	"github.com/venturebridge/venturebridge/internal/tier"
	usagedomain "github.com/venturebridge/venturebridge/internal/usage/domain"
	usagerepo "github.com/venturebridge/venturebridge/internal/usage/repository"
	usageservice "github.com/venturebridge/venturebridge/internal/usage/service"
)

func setupServer(t *testing.T) *Server {
	t.Helper()
	gin.SetMode(gin.TestMode)

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared&_loc=auto", t.Name())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("db handle: %v", err)
	}
	sqlDB.SetMaxOpenConns(1)
	sqlDB.SetMaxIdleConns(1)
	if err := db.AutoMigrate(
		&subscriptiondomain.AccountSubscription{},
		&usagedomain.Record{},
		&connectiondomain.Connection{},
		&connectiondomain.CacheEntry{},
	); err != nil {
		t.Fatalf("migrate: %v", err)
	}

	node, err := snowflake.NewNode(1)
	if err != nil {
		t.Fatalf("new node: %v", err)
	}

	fake := clock.NewFakeClock(time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC))
	catalog := config.DefaultCatalogConfig()
	registry := tier.NewRegistry(catalog)
	log := zap.NewNop()

	subSvc := subscriptionservice.New(subscriptionservice.Params{
		DB:       db,
		Log:      log,
		Clock:    fake,
		Registry: registry,
		Repo:     subscriptionrepo.Provide(),
	})
	usageSvc := usageservice.New(usageservice.Params{
		DB:       db,
		Log:      log,
		GenID:    node,
		Clock:    fake,
		Registry: registry,
		SubSvc:   subSvc,
		Repo:     usagerepo.Provide(),
	})
	store := connectionrepo.NewStore(connectionrepo.Params{DB: db, GenID: node})

	engine := gin.New()
	engine.Use(ErrorHandlingMiddleware())

	return NewServer(Params{
		Gin:             engine,
		Cfg:             config.Config{},
		Log:             log,
		DB:              db,
		Store:           store,
		Registry:        registry,
		Localizer:       pricing.NewLocalizer(catalog),
		SubscriptionSvc: subSvc,
		UsageSvc:        usageSvc,
	})
}

func doJSON(t *testing.T, s *Server, method, path string, body any, account string) *httptest.ResponseRecorder {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("encode body: %v", err)
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if account != "" {
		req.Header.Set("X-Account-Id", account)
	}

	rec := httptest.NewRecorder()
	s.Engine().ServeHTTP(rec, req)
	return rec
}

func decodeData(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var payload struct {
		Data map[string]any `json:"data"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &payload); err != nil {
		t.Fatalf("decode response: %v (%s)", err, rec.Body.String())
	}
	return payload.Data
}

func errorType(t *testing.T, rec *httptest.ResponseRecorder) string {
	t.Helper()
	var payload struct {
		Error struct {
			Type string `json:"type"`
		} `json:"error"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &payload); err != nil {
		t.Fatalf("decode error: %v (%s)", err, rec.Body.String())
	}
	return payload.Error.Type
}

func createConnection(t *testing.T, s *Server, initiator, recipient string) string {
	t.Helper()
	rec := doJSON(t, s, http.MethodPost, "/api/connections",
		map[string]string{"initiator_id": initiator, "recipient_id": recipient}, "")
	if rec.Code != http.StatusCreated {
		t.Fatalf("create: expected 201, got %d (%s)", rec.Code, rec.Body.String())
	}
	id, _ := decodeData(t, rec)["id"].(string)
	if id == "" {
		t.Fatalf("create: missing id in %s", rec.Body.String())
	}
	return id
}

func TestCreateConnectionEndpoint(t *testing.T) {
	s := setupServer(t)

	createConnection(t, s, "1", "2")

	// Duplicate pair conflicts, regardless of direction.
	rec := doJSON(t, s, http.MethodPost, "/api/connections",
		map[string]string{"initiator_id": "2", "recipient_id": "1"}, "")
	if rec.Code != http.StatusConflict {
		t.Fatalf("expected 409, got %d", rec.Code)
	}
	if errorType(t, rec) != "conflict" {
		t.Fatalf("unexpected error type %s", errorType(t, rec))
	}
}

func TestCreateConnectionSelfTargetEndpoint(t *testing.T) {
	s := setupServer(t)

	rec := doJSON(t, s, http.MethodPost, "/api/connections",
		map[string]string{"initiator_id": "1", "recipient_id": "1"}, "")
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
	if errorType(t, rec) != "self_target" {
		t.Fatalf("unexpected error type %s", errorType(t, rec))
	}
}

func TestCreateConnectionActorMismatch(t *testing.T) {
	s := setupServer(t)

	rec := doJSON(t, s, http.MethodPost, "/api/connections",
		map[string]string{"initiator_id": "1", "recipient_id": "2"}, "99")
	if rec.Code != http.StatusForbidden {
		t.Fatalf("expected 403, got %d", rec.Code)
	}
}

func TestConnectionStatusEndpoint(t *testing.T) {
	s := setupServer(t)

	rec := doJSON(t, s, http.MethodGet, "/api/connections/status?a=1&b=2", nil, "")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if data := decodeData(t, rec); data != nil {
		t.Fatalf("expected null data, got %v", data)
	}

	createConnection(t, s, "1", "2")

	rec = doJSON(t, s, http.MethodGet, "/api/connections/status?a=2&b=1", nil, "")
	data := decodeData(t, rec)
	if data["status"] != "pending" {
		t.Fatalf("expected pending, got %v", data)
	}
	if data["initiator_id"] != "1" {
		t.Fatalf("expected initiator 1, got %v", data)
	}
}

func TestAcceptAuthorization(t *testing.T) {
	s := setupServer(t)
	id := createConnection(t, s, "1", "2")

	// The initiator cannot accept its own request.
	rec := doJSON(t, s, http.MethodPost, "/api/connections/"+id+"/accept", nil, "1")
	if rec.Code != http.StatusForbidden {
		t.Fatalf("expected 403, got %d (%s)", rec.Code, rec.Body.String())
	}

	// An outsider cannot touch the connection at all.
	rec = doJSON(t, s, http.MethodPost, "/api/connections/"+id+"/accept", nil, "99")
	if rec.Code != http.StatusForbidden {
		t.Fatalf("expected 403 for outsider, got %d", rec.Code)
	}

	rec = doJSON(t, s, http.MethodPost, "/api/connections/"+id+"/accept", nil, "2")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d (%s)", rec.Code, rec.Body.String())
	}

	status := doJSON(t, s, http.MethodGet, "/api/connections/status?a=1&b=2", nil, "")
	if data := decodeData(t, status); data["status"] != "accepted" {
		t.Fatalf("expected accepted, got %v", data)
	}
}

func TestDeclineRemovesConnection(t *testing.T) {
	s := setupServer(t)
	id := createConnection(t, s, "1", "2")

	rec := doJSON(t, s, http.MethodPost, "/api/connections/"+id+"/decline", nil, "2")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d (%s)", rec.Code, rec.Body.String())
	}

	status := doJSON(t, s, http.MethodGet, "/api/connections/status?a=1&b=2", nil, "")
	if data := decodeData(t, status); data != nil {
		t.Fatalf("expected none after decline, got %v", data)
	}

	// The pair can connect again immediately.
	createConnection(t, s, "1", "2")
}

func TestTransitionsGuardedForTrustedCallers(t *testing.T) {
	s := setupServer(t)
	id := createConnection(t, s, "1", "2")

	if rec := doJSON(t, s, http.MethodPost, "/api/connections/"+id+"/accept", nil, "2"); rec.Code != http.StatusOK {
		t.Fatalf("accept: got %d", rec.Code)
	}

	// Headerless callers are trusted, but the store still arbitrates
	// legality: an accepted connection cannot be declined.
	rec := doJSON(t, s, http.MethodPost, "/api/connections/"+id+"/decline", nil, "")
	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404 declining accepted, got %d (%s)", rec.Code, rec.Body.String())
	}

	rec = doJSON(t, s, http.MethodPost, "/api/connections/"+id+"/accept", nil, "")
	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404 re-accepting, got %d", rec.Code)
	}

	status := doJSON(t, s, http.MethodGet, "/api/connections/status?a=1&b=2", nil, "")
	if data := decodeData(t, status); data["status"] != "accepted" {
		t.Fatalf("accepted connection must survive illegal transitions, got %v", data)
	}

	// Disconnect of a pending pair is equally illegal.
	pending := createConnection(t, s, "3", "4")
	rec = doJSON(t, s, http.MethodPost, "/api/connections/"+pending+"/status",
		map[string]string{"status": "disconnected"}, "")
	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404 disconnecting pending, got %d", rec.Code)
	}
}

func TestCloseDealEndpoint(t *testing.T) {
	s := setupServer(t)
	id := createConnection(t, s, "1", "2")

	// Closing a pending connection fails.
	rec := doJSON(t, s, http.MethodPost, "/api/connections/"+id+"/close", nil, "1")
	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404 for pending close, got %d", rec.Code)
	}

	if rec := doJSON(t, s, http.MethodPost, "/api/connections/"+id+"/accept", nil, "2"); rec.Code != http.StatusOK {
		t.Fatalf("accept: got %d", rec.Code)
	}

	rec = doJSON(t, s, http.MethodPost, "/api/connections/"+id+"/close", nil, "1")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d (%s)", rec.Code, rec.Body.String())
	}

	// Closing again is an idempotent success.
	rec = doJSON(t, s, http.MethodPost, "/api/connections/"+id+"/close", nil, "2")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 on repeat close, got %d", rec.Code)
	}
}

func TestListTiersEndpoint(t *testing.T) {
	s := setupServer(t)

	rec := doJSON(t, s, http.MethodGet, "/api/tiers?role=seeker", nil, "")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	var payload struct {
		Data []map[string]any `json:"data"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &payload); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(payload.Data) != 3 {
		t.Fatalf("expected 3 seeker tiers, got %d", len(payload.Data))
	}

	rec = doJSON(t, s, http.MethodGet, "/api/tiers?role=alien", nil, "")
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for unknown role, got %d", rec.Code)
	}
}

func TestTierPriceEndpoint(t *testing.T) {
	s := setupServer(t)

	rec := doJSON(t, s, http.MethodGet, "/api/tiers/startup_growth/price?role=seeker&region=Global", nil, "")
	data := decodeData(t, rec)
	if data["value"] != "45" {
		t.Fatalf("expected 45, got %v", data["value"])
	}
	if data["symbol"] != "$" {
		t.Fatalf("expected $, got %v", data["symbol"])
	}

	rec = doJSON(t, s, http.MethodGet, "/api/tiers/explore/price?role=seeker&region=Global", nil, "")
	data = decodeData(t, rec)
	if data["value"] != "0" {
		t.Fatalf("free tier must price as literal 0, got %v", data["value"])
	}
}

func TestSubscriptionAndUsageEndpoints(t *testing.T) {
	s := setupServer(t)

	rec := doJSON(t, s, http.MethodPut, "/api/accounts/100/subscription",
		map[string]string{"role": "seeker", "tier_id": "startup_growth"}, "100")
	if rec.Code != http.StatusOK {
		t.Fatalf("put subscription: got %d (%s)", rec.Code, rec.Body.String())
	}
	if data := decodeData(t, rec); data["tier_id"] != "startup_growth" {
		t.Fatalf("expected startup_growth, got %v", data)
	}

	rec = doJSON(t, s, http.MethodGet, "/api/accounts/100/subscription", nil, "100")
	if data := decodeData(t, rec); data["role"] != "seeker" {
		t.Fatalf("expected seeker role, got %v", data)
	}

	rec = doJSON(t, s, http.MethodGet, "/api/accounts/100/usage", nil, "100")
	data := decodeData(t, rec)
	if data["profile_views"] != float64(0) {
		t.Fatalf("expected zeroed usage, got %v", data)
	}

	// Another account cannot read someone else's usage.
	rec = doJSON(t, s, http.MethodGet, "/api/accounts/100/usage", nil, "200")
	if rec.Code != http.StatusForbidden {
		t.Fatalf("expected 403, got %d", rec.Code)
	}
}
